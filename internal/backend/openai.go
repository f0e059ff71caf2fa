package backend

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/openai/openai-go/v2"
	"github.com/openai/openai-go/v2/option"
	"go.uber.org/zap"

	"github.com/valpere/editeur/internal/postprocess"
)

const (
	defaultOpenAIBaseURL = "https://api.deepseek.com/v1"
	defaultOpenAIModel   = "deepseek-chat"
)

// OpenAI talks to any OpenAI-compatible chat completions endpoint
// (OpenAI, DeepSeek, OpenRouter).
type OpenAI struct {
	client  openai.Client
	model   string
	timeout time.Duration
	log     *zap.Logger
}

// NewOpenAI builds the adapter. SDK retries are disabled.
func NewOpenAI(cfg Config, log *zap.Logger) *OpenAI {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultOpenAIBaseURL
	}
	model := cfg.Model
	if model == "" {
		model = defaultOpenAIModel
	}
	timeout := cfg.EffectiveTimeout()
	client := openai.NewClient(
		option.WithAPIKey(cfg.APIKey),
		option.WithBaseURL(baseURL),
		option.WithMaxRetries(0),
		option.WithHTTPClient(&http.Client{Timeout: timeout}),
	)
	return &OpenAI{client: client, model: model, timeout: timeout, log: log}
}

func (o *OpenAI) Name() string  { return "openai" }
func (o *OpenAI) Model() string { return o.model }

func (o *OpenAI) Generate(ctx context.Context, p Prompt) Result {
	start := time.Now()
	ctx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()

	messages := make([]openai.ChatCompletionMessageParamUnion, 0, 2)
	if sys := p.System(); sys != "" {
		messages = append(messages, openai.SystemMessage(sys))
	}
	messages = append(messages, openai.UserMessage(p.Subject))

	params := openai.ChatCompletionNewParams{
		Model:    openai.ChatModel(o.model),
		Messages: messages,
	}
	if p.Temperature > 0 {
		params.Temperature = openai.Float(p.Temperature)
	}

	res := o.extract(o.client.Chat.Completions.New(ctx, params))
	res.Provider, res.Model, res.Latency = o.Name(), o.model, time.Since(start)
	return res
}

func (o *OpenAI) extract(resp *openai.ChatCompletion, err error) Result {
	if err != nil {
		var apiErr *openai.Error
		if errors.As(err, &apiErr) {
			return Failed(&Failure{Kind: KindError, Status: apiErr.StatusCode, Body: truncate(apiErr.Error(), 512)})
		}
		return Failed(transportFailure(err))
	}
	if resp == nil || len(resp.Choices) == 0 {
		return Failed(&Failure{Kind: KindEmpty, Detail: "response has no choices"})
	}
	return Success(postprocess.Clean(resp.Choices[0].Message.Content))
}
