// Package config loads the service configuration from defaults, an optional
// YAML file and EDITEUR_* environment variables, in increasing precedence.
package config

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/spf13/viper"

	"github.com/valpere/editeur/internal/backend"
	"github.com/valpere/editeur/internal/logging"
)

const EnvPrefix = "EDITEUR"

type Config struct {
	Backend      backend.Config `mapstructure:"backend" yaml:"backend"`
	Operations   Operations     `mapstructure:"operations" yaml:"operations"`
	Orchestrator Orchestrator   `mapstructure:"orchestrator" yaml:"orchestrator"`
	Translate    Translate      `mapstructure:"translate" yaml:"translate"`
	Evaluate     Evaluate       `mapstructure:"evaluate" yaml:"evaluate"`
	HTTP         HTTP           `mapstructure:"http" yaml:"http"`
	Journal      Journal        `mapstructure:"journal" yaml:"journal"`
	Log          logging.Config `mapstructure:"log" yaml:"log"`
}

// Operations holds per-operation overrides of the shared backend.
type Operations struct {
	Harmonize backend.Override `mapstructure:"harmonize" yaml:"harmonize"`
	Suggest   backend.Override `mapstructure:"suggest" yaml:"suggest"`
	Translate backend.Override `mapstructure:"translate" yaml:"translate"`
	Evaluate  backend.Override `mapstructure:"evaluate" yaml:"evaluate"`
}

type Orchestrator struct {
	MaxAttempts int           `mapstructure:"max_attempts" yaml:"max_attempts"`
	RetryDelay  time.Duration `mapstructure:"retry_delay" yaml:"retry_delay"`
}

type Translate struct {
	Directives          string `mapstructure:"directives" yaml:"directives"`
	ProtectPlaceholders bool   `mapstructure:"protect_placeholders" yaml:"protect_placeholders"`
	DetectSource        bool   `mapstructure:"detect_source" yaml:"detect_source"`
	ValidateOutput      bool   `mapstructure:"validate_output" yaml:"validate_output"`
	MaxChunkChars       int    `mapstructure:"max_chunk_chars" yaml:"max_chunk_chars"`
}

type Evaluate struct {
	Semantic        string  `mapstructure:"semantic" yaml:"semantic"`
	SemanticDefault float64 `mapstructure:"semantic_default" yaml:"semantic_default"`
}

type HTTP struct {
	Addr string `mapstructure:"addr" yaml:"addr"`
}

type Journal struct {
	Path string `mapstructure:"path" yaml:"path"`
}

// DefaultTranslateDirectives apply when a translate request carries none.
const DefaultTranslateDirectives = "Translate precisely. Keep numbers, placeholders {var}, and style."

// Semantic scorer modes.
const (
	SemanticConstant = "constant"
	SemanticLLM      = "llm"
)

func setDefaults(v *viper.Viper) {
	v.SetDefault("backend.provider", "openai")
	// registered so EDITEUR_BACKEND_API_KEY and friends reach Unmarshal
	v.SetDefault("backend.api_key", "")
	v.SetDefault("backend.base_url", "")
	v.SetDefault("backend.model", "")
	v.SetDefault("backend.credentials", "")
	v.SetDefault("backend.timeout", backend.MaxTimeout)
	v.SetDefault("backend.disabled", false)

	for _, op := range []string{"harmonize", "suggest", "translate", "evaluate"} {
		for _, key := range []string{"provider", "model", "api_key", "base_url", "credentials"} {
			v.SetDefault("operations."+op+"."+key, "")
		}
	}

	v.SetDefault("orchestrator.max_attempts", 1)
	v.SetDefault("orchestrator.retry_delay", 500*time.Millisecond)

	v.SetDefault("translate.directives", DefaultTranslateDirectives)
	v.SetDefault("translate.protect_placeholders", true)
	v.SetDefault("translate.detect_source", false)
	v.SetDefault("translate.validate_output", false)
	v.SetDefault("translate.max_chunk_chars", 0)

	v.SetDefault("evaluate.semantic", SemanticConstant)
	v.SetDefault("evaluate.semantic_default", 0.5)

	v.SetDefault("http.addr", ":8080")
	v.SetDefault("journal.path", "")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
}

// Default returns the configuration with no file and no environment.
func Default() Config {
	v := viper.New()
	setDefaults(v)
	var cfg Config
	// defaults always decode
	_ = v.Unmarshal(&cfg)
	return cfg
}

// Load reads path (optional) and the environment, then validates the result.
func Load(path string) (Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("failed to read config %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("failed to decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// BackendFor returns the shared backend config with the overrides of op
// applied.
func (c Config) BackendFor(op backend.Task) backend.Config {
	switch op {
	case backend.TaskHarmonize:
		return c.Backend.With(c.Operations.Harmonize)
	case backend.TaskSuggest:
		return c.Backend.With(c.Operations.Suggest)
	case backend.TaskTranslate:
		return c.Backend.With(c.Operations.Translate)
	case backend.TaskEvaluate:
		return c.Backend.With(c.Operations.Evaluate)
	}
	return c.Backend
}

// Validate reports every problem at once.
func (c Config) Validate() error {
	var result *multierror.Error

	checkProvider := func(field, provider string) {
		if provider != "" && !slices.Contains(backend.Providers, provider) {
			result = multierror.Append(result, fmt.Errorf("%s: unknown provider %q (want one of %s)",
				field, provider, strings.Join(backend.Providers, ", ")))
		}
	}

	if c.Backend.Provider == "" {
		result = multierror.Append(result, errors.New("backend.provider: must be set"))
	}
	checkProvider("backend.provider", c.Backend.Provider)
	checkProvider("operations.harmonize.provider", c.Operations.Harmonize.Provider)
	checkProvider("operations.suggest.provider", c.Operations.Suggest.Provider)
	checkProvider("operations.translate.provider", c.Operations.Translate.Provider)
	checkProvider("operations.evaluate.provider", c.Operations.Evaluate.Provider)

	for _, op := range []backend.Task{backend.TaskHarmonize, backend.TaskSuggest, backend.TaskEvaluate} {
		if op == backend.TaskEvaluate && c.Evaluate.Semantic != SemanticLLM {
			continue
		}
		if c.BackendFor(op).Provider == "google" {
			result = multierror.Append(result, fmt.Errorf("operations.%s.provider: google serves translate only", op))
		}
	}

	if c.Backend.Timeout < 0 || c.Backend.Timeout > backend.MaxTimeout {
		result = multierror.Append(result, fmt.Errorf("backend.timeout: must be between 0 and %s", backend.MaxTimeout))
	}
	if c.Orchestrator.MaxAttempts < 1 {
		result = multierror.Append(result, errors.New("orchestrator.max_attempts: must be at least 1"))
	}
	if c.Orchestrator.RetryDelay < 0 {
		result = multierror.Append(result, errors.New("orchestrator.retry_delay: must not be negative"))
	}
	if c.Translate.MaxChunkChars < 0 {
		result = multierror.Append(result, errors.New("translate.max_chunk_chars: must not be negative"))
	}
	if c.Evaluate.Semantic != SemanticConstant && c.Evaluate.Semantic != SemanticLLM {
		result = multierror.Append(result, fmt.Errorf("evaluate.semantic: unknown mode %q (want %s or %s)",
			c.Evaluate.Semantic, SemanticConstant, SemanticLLM))
	}
	if c.Evaluate.SemanticDefault < 0 || c.Evaluate.SemanticDefault > 1 {
		result = multierror.Append(result, errors.New("evaluate.semantic_default: must be within [0, 1]"))
	}
	if _, err := logging.ParseLevel(c.Log.Level); err != nil {
		result = multierror.Append(result, fmt.Errorf("log.level: %w", err))
	}

	return result.ErrorOrNil()
}

// Redacted returns a copy safe to print: secrets are masked.
func (c Config) Redacted() Config {
	c.Backend.APIKey = mask(c.Backend.APIKey)
	c.Operations.Harmonize.APIKey = mask(c.Operations.Harmonize.APIKey)
	c.Operations.Suggest.APIKey = mask(c.Operations.Suggest.APIKey)
	c.Operations.Translate.APIKey = mask(c.Operations.Translate.APIKey)
	c.Operations.Evaluate.APIKey = mask(c.Operations.Evaluate.APIKey)
	return c
}

func mask(secret string) string {
	if secret == "" {
		return ""
	}
	return "********"
}
