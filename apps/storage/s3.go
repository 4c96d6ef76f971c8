package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/getevo/evo/v2/lib/log"
	"github.com/getevo/evo/v2/lib/settings"
)

var (
	s3Client *s3.Client
	bucket   string
	enabled  bool
)

// Initialize sets up the S3 client from settings. Works with AWS and
// S3-compatible services via a custom endpoint.
func Initialize() error {
	enabled = settings.Get("S3.ENABLED").Bool()
	if !enabled {
		log.Notice("S3 storage is disabled")
		return nil
	}

	bucket = settings.Get("S3.BUCKET").String()
	endpoint := settings.Get("S3.ENDPOINT").String()
	region := settings.Get("S3.REGION").String()
	accessKey := settings.Get("S3.ACCESS_KEY").String()
	secretKey := settings.Get("S3.SECRET_KEY").String()

	if bucket == "" || endpoint == "" || accessKey == "" || secretKey == "" {
		return fmt.Errorf("S3 configuration incomplete")
	}

	if !strings.HasPrefix(endpoint, "http://") && !strings.HasPrefix(endpoint, "https://") {
		endpoint = "https://" + endpoint
	}

	cfg := aws.Config{
		Region:      region,
		Credentials: credentials.NewStaticCredentialsProvider(accessKey, secretKey, ""),
		EndpointResolverWithOptions: aws.EndpointResolverWithOptionsFunc(
			func(service, region string, options ...interface{}) (aws.Endpoint, error) {
				return aws.Endpoint{
					URL:               endpoint,
					SigningRegion:     region,
					HostnameImmutable: true,
				}, nil
			},
		),
	}

	s3Client = s3.NewFromConfig(cfg, func(o *s3.Options) {
		o.UsePathStyle = true // required for S3-compatible services
	})

	log.Notice("S3 storage initialized: bucket=%s, endpoint=%s", bucket, endpoint)
	return nil
}

// IsEnabled returns whether S3 storage is usable
func IsEnabled() bool {
	return enabled && s3Client != nil
}

// Upload stores an object
func Upload(ctx context.Context, key string, data []byte, contentType string) error {
	if !IsEnabled() {
		return fmt.Errorf("S3 storage not enabled")
	}

	_, err := s3Client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
	})
	return err
}

// Download retrieves an object and its content type
func Download(ctx context.Context, key string) ([]byte, string, error) {
	if !IsEnabled() {
		return nil, "", fmt.Errorf("S3 storage not enabled")
	}

	result, err := s3Client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, "", err
	}
	defer result.Body.Close()

	data, err := io.ReadAll(result.Body)
	if err != nil {
		return nil, "", err
	}

	contentType := ""
	if result.ContentType != nil {
		contentType = *result.ContentType
	}
	return data, contentType, nil
}

// Delete removes an object
func Delete(ctx context.Context, key string) error {
	if !IsEnabled() {
		return fmt.Errorf("S3 storage not enabled")
	}

	_, err := s3Client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	return err
}
