package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/valpere/editeur/internal/postprocess"
)

const (
	defaultOllamaBaseURL = "http://localhost:11434"
	defaultOllamaModel   = "llama3.2"
)

// Ollama uses a self-hosted model through /api/generate.
type Ollama struct {
	baseURL string
	model   string
	client  *http.Client
	log     *zap.Logger
}

type ollamaRequest struct {
	Model   string         `json:"model"`
	System  string         `json:"system,omitempty"`
	Prompt  string         `json:"prompt"`
	Stream  bool           `json:"stream"`
	Options map[string]any `json:"options,omitempty"`
}

type ollamaResponse struct {
	Response *string `json:"response"`
}

func NewOllama(cfg Config, log *zap.Logger) *Ollama {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultOllamaBaseURL
	}
	model := cfg.Model
	if model == "" {
		model = defaultOllamaModel
	}
	return &Ollama{
		baseURL: strings.TrimRight(baseURL, "/"),
		model:   model,
		client:  &http.Client{Timeout: cfg.EffectiveTimeout()},
		log:     log,
	}
}

func (s *Ollama) Name() string  { return "ollama" }
func (s *Ollama) Model() string { return s.model }

func (s *Ollama) Generate(ctx context.Context, p Prompt) Result {
	start := time.Now()
	res := s.generate(ctx, p)
	res.Provider, res.Model, res.Latency = s.Name(), s.model, time.Since(start)
	return res
}

func (s *Ollama) generate(ctx context.Context, p Prompt) Result {
	ollamaReq := ollamaRequest{
		Model:  s.model,
		System: p.System(),
		Prompt: p.Subject,
		Stream: false,
	}
	if p.Temperature > 0 {
		ollamaReq.Options = map[string]any{"temperature": p.Temperature}
	}

	jsonData, err := json.Marshal(ollamaReq)
	if err != nil {
		return Failed(&Failure{Kind: KindUnavailable, Detail: "failed to marshal request", Err: err})
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, fmt.Sprintf("%s/api/generate", s.baseURL), bytes.NewReader(jsonData))
	if err != nil {
		return Failed(&Failure{Kind: KindUnavailable, Detail: "failed to create request", Err: err})
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(httpReq)
	if err != nil {
		return Failed(transportFailure(err))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return Failed(&Failure{Kind: KindError, Status: resp.StatusCode, Body: truncate(string(data), 512)})
	}

	var ollamaResp ollamaResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxBodyBytes)).Decode(&ollamaResp); err != nil {
		return Failed(&Failure{Kind: KindMalformed, Detail: "failed to decode response", Err: err})
	}
	if ollamaResp.Response == nil {
		return Failed(&Failure{Kind: KindEmpty, Detail: "response has no response field"})
	}
	return Success(postprocess.Clean(*ollamaResp.Response))
}
