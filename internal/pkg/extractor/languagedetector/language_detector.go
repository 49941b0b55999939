package languagedetector

import (
	"errors"
	"strings"

	"github.com/pemistahl/lingua-go"
)

// Minimum amount of text needed for a trustworthy detection.
const minTextLength = 20

// Wraps a lingua detector built once, since model loading is expensive.
type Detector struct {
	detector lingua.LanguageDetector
}

// Creates a new Detector with preloaded models for all languages.
func New() *Detector {
	return &Detector{
		detector: lingua.NewLanguageDetectorBuilder().
			FromAllLanguages().
			WithPreloadedLanguageModels().
			Build(),
	}
}

// Detects the language of the given text and returns the ISO 639-1 code.
func (d *Detector) Detect(text string) (string, error) {
	text = strings.TrimSpace(text)
	if len(text) < minTextLength {
		return "", errors.New("not enough text for language detection")
	}

	detected, exists := d.detector.DetectLanguageOf(text)
	if !exists {
		return "", errors.New("language detection failed")
	}
	return strings.ToLower(detected.IsoCode639_1().String()), nil
}
