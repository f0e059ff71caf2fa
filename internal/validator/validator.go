// Package validator checks that a translation came back in the requested
// language.
package validator

import (
	"errors"
	"fmt"
	"strings"

	"golang.org/x/text/language"

	"github.com/valpere/editeur/internal/detector"
)

// minValidationLength is the rune count below which detection is too noisy to
// reject anything.
const minValidationLength = 20

// ErrLanguageMismatch is wrapped by Check when the detected language differs
// from the target.
var ErrLanguageMismatch = errors.New("translation language mismatch")

type Validator struct {
	det *detector.Detector
}

func New(det *detector.Detector) *Validator {
	if det == nil {
		det = detector.New()
	}
	return &Validator{det: det}
}

// Check returns nil when text appears to be written in target. Short texts and
// texts whose language cannot be determined pass. Only base languages are
// compared, so "pt-BR" accepts Portuguese.
func (v *Validator) Check(text string, target language.Tag) error {
	if target == language.Und {
		return nil
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return fmt.Errorf("%w: translation is empty", ErrLanguageMismatch)
	}
	if len([]rune(text)) < minValidationLength {
		return nil
	}

	detected, ok := v.det.DetectTag(text)
	if !ok {
		return nil
	}

	want, _ := target.Base()
	got, _ := detected.Base()
	if want != got {
		return fmt.Errorf("%w: expected %s but detected %s", ErrLanguageMismatch, want, got)
	}
	return nil
}
