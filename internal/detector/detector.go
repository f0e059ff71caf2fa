// Package detector guesses the language of a text with lingua-go.
package detector

import (
	"strings"
	"sync"

	lingua "github.com/pemistahl/lingua-go"
	"golang.org/x/text/language"
)

// Detector builds its lingua models on first use; construction is cheap and
// the zero set of languages means all of them.
type Detector struct {
	languages []lingua.Language

	once     sync.Once
	detector lingua.LanguageDetector
}

func New(languages ...lingua.Language) *Detector {
	return &Detector{languages: languages}
}

func (d *Detector) build() {
	var builder lingua.LanguageDetectorBuilder
	if len(d.languages) >= 2 {
		builder = lingua.NewLanguageDetectorBuilder().FromLanguages(d.languages...)
	} else {
		builder = lingua.NewLanguageDetectorBuilder().FromAllLanguages()
	}
	d.detector = builder.Build()
}

func (d *Detector) Detect(text string) (lingua.Language, bool) {
	if strings.TrimSpace(text) == "" {
		return lingua.Unknown, false
	}
	d.once.Do(d.build)
	return d.detector.DetectLanguageOf(text)
}

// DetectTag returns the detected language as a BCP 47 tag.
func (d *Detector) DetectTag(text string) (language.Tag, bool) {
	lang, ok := d.Detect(text)
	if !ok {
		return language.Und, false
	}
	tag, err := language.Parse(strings.ToLower(lang.IsoCode639_1().String()))
	if err != nil {
		return language.Und, false
	}
	return tag, true
}
