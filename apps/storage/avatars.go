package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/botdeck/botdeck-backend/lib/imageutil"
	"github.com/getevo/evo/v2/lib/settings"
)

// UploadAvatar processes a base64 data-URI image into a square avatar and
// stores it. Returns the URL the frontend should use. A timestamp in the key
// makes every upload a new object, so stale CDN caches never show the old
// avatar.
func UploadAvatar(agentID, base64Image string) (string, error) {
	data, err := imageutil.AvatarFromBase64(base64Image)
	if err != nil {
		return "", err
	}

	key := fmt.Sprintf("avatars/%s/%d.jpg", agentID, time.Now().UnixNano())

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := Upload(ctx, key, data, "image/jpeg"); err != nil {
		return "", err
	}

	return AvatarURL(key), nil
}

// AvatarURL maps a storage key to its public URL. With S3.PUBLIC_URL set the
// bucket is served directly (CDN), otherwise the media proxy serves it.
func AvatarURL(key string) string {
	base := settings.Get("S3.PUBLIC_URL").String()
	if base != "" {
		return base + "/" + key
	}
	return "/media/" + key
}
