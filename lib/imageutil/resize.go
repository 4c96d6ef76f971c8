package imageutil

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"strings"

	"github.com/getevo/evo/v2/lib/settings"
	"golang.org/x/image/draw"
)

// GetAvatarSize returns the avatar size from settings (default 128)
func GetAvatarSize() int {
	size := settings.Get("STORAGE.AVATAR_SIZE").Int()
	if size <= 0 {
		size = 128
	}
	return size
}

// AvatarFromBase64 decodes a data-URI base64 image, crops it to a center
// square and resizes it to the configured avatar size. Returns JPEG bytes
// ready for object storage.
func AvatarFromBase64(base64Data string) ([]byte, error) {
	// Format: data:image/jpeg;base64,/9j/4AAQSkZJRg...
	parts := strings.Split(base64Data, ",")
	if len(parts) != 2 {
		return nil, fmt.Errorf("invalid base64 format")
	}

	imageBytes, err := base64.StdEncoding.DecodeString(parts[1])
	if err != nil {
		return nil, fmt.Errorf("failed to decode base64: %w", err)
	}

	img, _, err := image.Decode(bytes.NewReader(imageBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}

	resized := resizeAndCropToSquare(img, GetAvatarSize())

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, resized, &jpeg.Options{Quality: 85}); err != nil {
		return nil, fmt.Errorf("failed to encode image: %w", err)
	}
	return buf.Bytes(), nil
}

// resizeAndCropToSquare crops an image to a center square and scales it to
// targetSize.
func resizeAndCropToSquare(img image.Image, targetSize int) image.Image {
	bounds := img.Bounds()
	width := bounds.Dx()
	height := bounds.Dy()

	var cropRect image.Rectangle
	switch {
	case width > height:
		offset := (width - height) / 2
		cropRect = image.Rect(offset, 0, offset+height, height)
	case height > width:
		offset := (height - width) / 2
		cropRect = image.Rect(0, offset, width, offset+width)
	default:
		cropRect = bounds
	}

	cropped := image.NewRGBA(image.Rect(0, 0, cropRect.Dx(), cropRect.Dx()))
	draw.Copy(cropped, image.Point{}, img, cropRect, draw.Src, nil)

	resized := image.NewRGBA(image.Rect(0, 0, targetSize, targetSize))
	draw.CatmullRom.Scale(resized, resized.Bounds(), cropped, cropped.Bounds(), draw.Over, nil)
	return resized
}

func init() {
	image.RegisterFormat("png", "\x89PNG", png.Decode, png.DecodeConfig)
}
