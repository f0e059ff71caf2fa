package backend

import (
	"context"
	"errors"
	"fmt"
	"time"

	translate "cloud.google.com/go/translate"
	"go.uber.org/zap"
	"golang.org/x/text/language"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

// GoogleTranslate serves translate prompts with Google Cloud Translation. It
// ignores instructions and directives and translates the prompt subject.
type GoogleTranslate struct {
	credentials string
	apiKey      string
	endpoint    string
	timeout     time.Duration
	log         *zap.Logger
}

func NewGoogleTranslate(cfg Config, log *zap.Logger) *GoogleTranslate {
	return &GoogleTranslate{
		credentials: cfg.Credentials,
		apiKey:      cfg.APIKey,
		endpoint:    cfg.BaseURL,
		timeout:     cfg.EffectiveTimeout(),
		log:         log,
	}
}

func (s *GoogleTranslate) Name() string  { return "google" }
func (s *GoogleTranslate) Model() string { return "nmt" }

func (s *GoogleTranslate) Generate(ctx context.Context, p Prompt) Result {
	start := time.Now()
	res := s.translate(ctx, p)
	res.Provider, res.Model, res.Latency = s.Name(), s.Model(), time.Since(start)
	return res
}

func (s *GoogleTranslate) translate(ctx context.Context, p Prompt) Result {
	if p.Task != TaskTranslate {
		return Failed(&Failure{Kind: KindError, Status: 400, Body: fmt.Sprintf("google translate cannot serve %q prompts", p.Task)})
	}

	target, err := language.Parse(p.TargetLang)
	if err != nil {
		return Failed(&Failure{Kind: KindError, Status: 400, Body: fmt.Sprintf("invalid target language: %v", err)})
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	client, err := translate.NewClient(ctx, s.clientOptions()...)
	if err != nil {
		return Failed(&Failure{Kind: KindUnavailable, Detail: "failed to create client", Err: err})
	}
	defer client.Close()

	opts := &translate.Options{Format: translate.Text}
	if p.SourceLang != "" {
		if source, err := language.Parse(p.SourceLang); err == nil {
			opts.Source = source
		}
	}

	translations, err := client.Translate(ctx, []string{p.Subject}, target, opts)
	if err != nil {
		var apiErr *googleapi.Error
		if errors.As(err, &apiErr) {
			return Failed(&Failure{Kind: KindError, Status: apiErr.Code, Body: truncate(apiErr.Message, 512)})
		}
		return Failed(transportFailure(err))
	}
	if len(translations) == 0 {
		return Failed(&Failure{Kind: KindEmpty, Detail: "no translation returned"})
	}
	return Success(translations[0].Text)
}

func (s *GoogleTranslate) clientOptions() []option.ClientOption {
	var opts []option.ClientOption
	switch {
	case s.credentials != "":
		opts = append(opts, option.WithCredentialsFile(s.credentials))
	case s.apiKey != "":
		opts = append(opts, option.WithAPIKey(s.apiKey))
	}
	if s.endpoint != "" {
		opts = append(opts, option.WithEndpoint(s.endpoint))
	}
	return opts
}
