// Package backend is the uniform adapter over remote text-generation services.
//
// A Generator never returns a Go error: every call yields a Result that is
// either usable text or a typed Failure. Adapters hold no per-call state and
// never retry; retry policy belongs to the caller.
package backend

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"strings"
	"time"

	"go.uber.org/zap"
)

// MaxTimeout bounds every backend call.
const MaxTimeout = 60 * time.Second

// Task names the operation a prompt was built for.
type Task string

const (
	TaskHarmonize Task = "harmonize"
	TaskSuggest   Task = "suggest"
	TaskTranslate Task = "translate"
	TaskEvaluate  Task = "evaluate"
)

// Prompt is a structured generation request. It is built fresh per call.
type Prompt struct {
	Task         Task
	Instructions string
	Directives   string
	SourceLang   string
	TargetLang   string
	Subject      string
	Temperature  float64
}

// System returns the system part: caller directives first, then the task
// instructions.
func (p Prompt) System() string {
	var parts []string
	if d := strings.TrimSpace(p.Directives); d != "" {
		parts = append(parts, d)
	}
	if i := strings.TrimSpace(p.Instructions); i != "" {
		parts = append(parts, i)
	}
	return strings.Join(parts, "\n")
}

// String renders the prompt as a single text for completion-style backends.
func (p Prompt) String() string {
	sys := p.System()
	if sys == "" {
		return p.Subject
	}
	return sys + "\n\n" + p.Subject
}

// Generator sends a prompt to a text-generation service.
type Generator interface {
	Name() string
	Model() string
	Generate(ctx context.Context, p Prompt) Result
}

// Config describes one backend. Credentials come from the deployment
// configuration only.
type Config struct {
	Provider    string        `mapstructure:"provider" yaml:"provider"`
	APIKey      string        `mapstructure:"api_key" yaml:"api_key"`
	BaseURL     string        `mapstructure:"base_url" yaml:"base_url"`
	Model       string        `mapstructure:"model" yaml:"model"`
	Timeout     time.Duration `mapstructure:"timeout" yaml:"timeout"`
	Credentials string        `mapstructure:"credentials" yaml:"credentials"`
	Disabled    bool          `mapstructure:"disabled" yaml:"disabled"`
}

// Override replaces the non-empty fields of the shared backend config for one
// operation.
type Override struct {
	Provider string `mapstructure:"provider" yaml:"provider"`
	Model    string `mapstructure:"model" yaml:"model"`
	APIKey   string `mapstructure:"api_key" yaml:"api_key"`
	BaseURL  string `mapstructure:"base_url" yaml:"base_url"`

	Credentials string `mapstructure:"credentials" yaml:"credentials"`
}

// With returns c with the override applied.
func (c Config) With(o Override) Config {
	if o.Provider != "" && o.Provider != c.Provider {
		c.Provider = o.Provider
		// a different provider never inherits the shared endpoint or secrets
		c.BaseURL = ""
		c.APIKey = ""
		c.Credentials = ""
	}
	if o.Model != "" {
		c.Model = o.Model
	}
	if o.APIKey != "" {
		c.APIKey = o.APIKey
	}
	if o.BaseURL != "" {
		c.BaseURL = o.BaseURL
	}
	if o.Credentials != "" {
		c.Credentials = o.Credentials
	}
	return c
}

// EffectiveTimeout returns the configured timeout bounded by MaxTimeout.
func (c Config) EffectiveTimeout() time.Duration {
	if c.Timeout <= 0 || c.Timeout > MaxTimeout {
		return MaxTimeout
	}
	return c.Timeout
}

// Providers lists the accepted provider names.
var Providers = []string{"openai", "gemini", "ollama", "google"}

// ErrNotConfigured is returned by New when the provider lacks the credentials
// it needs. Callers treat it as "backend disabled".
var ErrNotConfigured = errors.New("backend not configured")

// New builds the Generator for cfg.Provider.
func New(cfg Config, log *zap.Logger) (Generator, error) {
	if log == nil {
		log = zap.NewNop()
	}
	switch cfg.Provider {
	case "openai":
		if cfg.APIKey == "" {
			return nil, fmt.Errorf("openai: %w: missing api key", ErrNotConfigured)
		}
		return NewOpenAI(cfg, log), nil
	case "gemini":
		if cfg.APIKey == "" {
			return nil, fmt.Errorf("gemini: %w: missing api key", ErrNotConfigured)
		}
		return NewGemini(cfg, log), nil
	case "ollama":
		return NewOllama(cfg, log), nil
	case "google":
		return NewGoogleTranslate(cfg, log), nil
	default:
		return nil, fmt.Errorf("unknown backend provider %q", cfg.Provider)
	}
}

// transportFailure maps a client-side error to a Failure.
func transportFailure(err error) *Failure {
	var (
		netErr    net.Error
		syntaxErr *json.SyntaxError
		typeErr   *json.UnmarshalTypeError
	)
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return &Failure{Kind: KindUnavailable, Detail: "request timed out", Err: err}
	case errors.Is(err, context.Canceled):
		return &Failure{Kind: KindUnavailable, Detail: "request canceled", Err: err}
	case errors.As(err, &netErr):
		return &Failure{Kind: KindUnavailable, Err: err}
	case errors.As(err, &syntaxErr), errors.As(err, &typeErr):
		return &Failure{Kind: KindMalformed, Detail: "undecodable response body", Err: err}
	default:
		return &Failure{Kind: KindUnavailable, Err: err}
	}
}

// truncate keeps error bodies readable in logs and responses.
func truncate(s string, limit int) string {
	runes := []rune(strings.TrimSpace(s))
	if len(runes) <= limit {
		return string(runes)
	}
	return string(runes[:limit]) + "..."
}

const maxBodyBytes = 4 << 20
