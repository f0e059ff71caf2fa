// Package errs defines the error kinds shared by every operation.
//
// Client errors (ErrEmptyInput, ErrInvalidLanguage) are surfaced immediately.
// Backend kinds are recovered locally by harmonize and suggest and surfaced by
// translate wrapped in ErrTranslationFailed.
package errs

import "errors"

var (
	// ErrEmptyInput: empty or whitespace-only text where non-empty text is required.
	ErrEmptyInput = errors.New("empty input")
	// ErrInvalidLanguage: a language tag that does not parse as BCP 47.
	ErrInvalidLanguage = errors.New("invalid language tag")

	// ErrBackendUnavailable: transport failure, timeout or cancellation.
	ErrBackendUnavailable = errors.New("backend unavailable")
	// ErrBackendError: non-2xx response from the generative backend.
	ErrBackendError = errors.New("backend error")
	// ErrMalformedOutput: response body or generated text did not have the expected shape.
	ErrMalformedOutput = errors.New("malformed backend output")
	// ErrEmptyResponse: response carried no generated text.
	ErrEmptyResponse = errors.New("empty backend response")

	// ErrTranslationFailed: terminal translate failure, there is no fallback.
	ErrTranslationFailed = errors.New("translation failed")
)

// IsClient reports whether err should be reported as a caller mistake.
func IsClient(err error) bool {
	return errors.Is(err, ErrEmptyInput) || errors.Is(err, ErrInvalidLanguage)
}
