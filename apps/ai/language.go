package ai

import (
	"strings"
	"sync"

	"github.com/pemistahl/lingua-go"
)

var (
	detector     lingua.LanguageDetector
	detectorOnce sync.Once
)

// getDetector returns the singleton language detector, restricted to the
// languages the platform's widgets see in practice.
func getDetector() lingua.LanguageDetector {
	detectorOnce.Do(func() {
		detector = lingua.NewLanguageDetectorBuilder().
			FromLanguages(
				lingua.English,
				lingua.Spanish,
				lingua.French,
				lingua.German,
				lingua.Italian,
				lingua.Portuguese,
				lingua.Dutch,
				lingua.Polish,
				lingua.Russian,
				lingua.Ukrainian,
				lingua.Turkish,
				lingua.Arabic,
				lingua.Persian,
				lingua.Hindi,
				lingua.Chinese,
				lingua.Japanese,
				lingua.Korean,
				lingua.Vietnamese,
				lingua.Thai,
				lingua.Indonesian,
			).
			WithMinimumRelativeDistance(0.25).
			Build()
	})
	return detector
}

var languageCodeMap = map[lingua.Language]string{
	lingua.English:    "en",
	lingua.Spanish:    "es",
	lingua.French:     "fr",
	lingua.German:     "de",
	lingua.Italian:    "it",
	lingua.Portuguese: "pt",
	lingua.Dutch:      "nl",
	lingua.Polish:     "pl",
	lingua.Russian:    "ru",
	lingua.Ukrainian:  "uk",
	lingua.Turkish:    "tr",
	lingua.Arabic:     "ar",
	lingua.Persian:    "fa",
	lingua.Hindi:      "hi",
	lingua.Chinese:    "zh",
	lingua.Japanese:   "ja",
	lingua.Korean:     "ko",
	lingua.Vietnamese: "vi",
	lingua.Thai:       "th",
	lingua.Indonesian: "id",
}

// DetectLanguage returns the ISO 639-1 code of the text's language, or an
// empty string when the text is too short or ambiguous.
func DetectLanguage(text string) string {
	text = strings.TrimSpace(text)
	if len(text) < 3 {
		return ""
	}

	language, exists := getDetector().DetectLanguageOf(text)
	if !exists {
		return ""
	}

	if code, ok := languageCodeMap[language]; ok {
		return code
	}
	return ""
}
