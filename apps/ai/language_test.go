package ai

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDetectLanguage_CommonLanguages(t *testing.T) {
	assert.Equal(t, "en", DetectLanguage("Hello, I would like to know your opening hours please."))
	assert.Equal(t, "es", DetectLanguage("Hola, me gustaría saber el horario de apertura de la tienda."))
	assert.Equal(t, "de", DetectLanguage("Guten Tag, ich hätte gerne Informationen über Ihre Öffnungszeiten."))
	assert.Equal(t, "ja", DetectLanguage("営業時間を教えていただけますか。"))
}

func TestDetectLanguage_TooShort(t *testing.T) {
	assert.Equal(t, "", DetectLanguage(""))
	assert.Equal(t, "", DetectLanguage("hi"))
	assert.Equal(t, "", DetectLanguage("  a  "))
}

func TestDetectLanguage_Ambiguous(t *testing.T) {
	// Digits carry no language signal; the minimum relative distance
	// threshold must keep the detector from guessing.
	assert.Equal(t, "", DetectLanguage("12345 67890"))
}
