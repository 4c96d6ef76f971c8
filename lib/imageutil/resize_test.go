package imageutil

import (
	"image"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAvatarFromBase64_InvalidInput(t *testing.T) {
	_, err := AvatarFromBase64("no comma here")
	assert.Error(t, err)

	_, err = AvatarFromBase64("data:image/png;base64,@@not-base64@@")
	assert.Error(t, err)

	_, err = AvatarFromBase64("data:image/png;base64,aGVsbG8=") // "hello", not an image
	assert.Error(t, err)
}

func TestResizeAndCropToSquare_Landscape(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 200, 100))
	out := resizeAndCropToSquare(img, 64)

	assert.Equal(t, 64, out.Bounds().Dx())
	assert.Equal(t, 64, out.Bounds().Dy())
}

func TestResizeAndCropToSquare_Portrait(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 100, 300))
	out := resizeAndCropToSquare(img, 128)

	assert.Equal(t, 128, out.Bounds().Dx())
	assert.Equal(t, 128, out.Bounds().Dy())
}

func TestResizeAndCropToSquare_AlreadySquare(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 50, 50))
	out := resizeAndCropToSquare(img, 128)

	assert.Equal(t, 128, out.Bounds().Dx())
	assert.Equal(t, 128, out.Bounds().Dy())
}
