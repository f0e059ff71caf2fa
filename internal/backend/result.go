package backend

import (
	"fmt"
	"strings"
	"time"

	"github.com/valpere/editeur/internal/errs"
)

// Kind classifies a generation failure.
type Kind int

const (
	KindUnavailable Kind = iota + 1
	KindError
	KindMalformed
	KindEmpty
)

func (k Kind) String() string {
	switch k {
	case KindUnavailable:
		return "backend_unavailable"
	case KindError:
		return "backend_error"
	case KindMalformed:
		return "malformed_backend_output"
	case KindEmpty:
		return "empty_response"
	default:
		return "unknown"
	}
}

// Failure is the failed branch of a Result. Status and Body are set for
// KindError only.
type Failure struct {
	Kind   Kind
	Status int
	Body   string
	Detail string
	Err    error
}

func (f *Failure) Error() string {
	var sb strings.Builder
	sb.WriteString(f.Kind.String())
	if f.Status != 0 {
		fmt.Fprintf(&sb, " (status %d)", f.Status)
	}
	if f.Detail != "" {
		sb.WriteString(": ")
		sb.WriteString(f.Detail)
	}
	if f.Body != "" {
		sb.WriteString(": ")
		sb.WriteString(f.Body)
	}
	if f.Err != nil && f.Detail == "" {
		sb.WriteString(": ")
		sb.WriteString(f.Err.Error())
	}
	return sb.String()
}

func (f *Failure) Unwrap() error { return f.Err }

// Is matches the errs sentinel of the failure kind.
func (f *Failure) Is(target error) bool {
	switch f.Kind {
	case KindUnavailable:
		return target == errs.ErrBackendUnavailable
	case KindError:
		return target == errs.ErrBackendError
	case KindMalformed:
		return target == errs.ErrMalformedOutput
	case KindEmpty:
		return target == errs.ErrEmptyResponse
	}
	return false
}

// Retryable reports whether a new attempt may succeed.
func (f *Failure) Retryable() bool {
	switch f.Kind {
	case KindUnavailable:
		return true
	case KindError:
		return f.Status == 429 || f.Status >= 500
	}
	return false
}

// Result is either a non-empty generated text or a Failure, never both.
type Result struct {
	Text     string
	Failure  *Failure
	Provider string
	Model    string
	Latency  time.Duration
}

// OK reports whether the result carries usable text.
func (r Result) OK() bool { return r.Failure == nil }

// Success builds a successful result. Blank text is turned into KindEmpty so a
// missing answer is never mistaken for a valid one.
func Success(text string) Result {
	if strings.TrimSpace(text) == "" {
		return Failed(&Failure{Kind: KindEmpty, Detail: "no generated text"})
	}
	return Result{Text: text}
}

// Failed builds a failed result.
func Failed(f *Failure) Result {
	return Result{Failure: f}
}

// Unavailable is a shorthand for a KindUnavailable failure.
func Unavailable(detail string, err error) Result {
	return Failed(&Failure{Kind: KindUnavailable, Detail: detail, Err: err})
}
