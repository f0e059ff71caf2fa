package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/tidwall/gjson"
	"go.uber.org/zap"

	"github.com/valpere/editeur/internal/postprocess"
)

const (
	defaultGeminiBaseURL = "https://generativelanguage.googleapis.com"
	defaultGeminiModel   = "gemini-2.0-flash"

	geminiTextPath = "candidates.0.content.parts.0.text"
)

// Gemini calls the Generative Language generateContent endpoint.
type Gemini struct {
	apiKey  string
	baseURL string
	model   string
	client  *http.Client
	log     *zap.Logger
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts"`
}

type geminiRequest struct {
	SystemInstruction *geminiContent          `json:"systemInstruction,omitempty"`
	Contents          []geminiContent         `json:"contents"`
	GenerationConfig  *geminiGenerationConfig `json:"generationConfig,omitempty"`
}

type geminiGenerationConfig struct {
	Temperature float64 `json:"temperature"`
}

// NewGemini builds the adapter. The API key travels in the x-goog-api-key
// header, never in the URL.
func NewGemini(cfg Config, log *zap.Logger) *Gemini {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultGeminiBaseURL
	}
	model := cfg.Model
	if model == "" {
		model = defaultGeminiModel
	}
	return &Gemini{
		apiKey:  cfg.APIKey,
		baseURL: strings.TrimRight(baseURL, "/"),
		model:   model,
		client:  &http.Client{Timeout: cfg.EffectiveTimeout()},
		log:     log,
	}
}

func (g *Gemini) Name() string  { return "gemini" }
func (g *Gemini) Model() string { return g.model }

func (g *Gemini) Generate(ctx context.Context, p Prompt) Result {
	start := time.Now()
	res := g.generate(ctx, p)
	res.Provider, res.Model, res.Latency = g.Name(), g.model, time.Since(start)
	return res
}

func (g *Gemini) generate(ctx context.Context, p Prompt) Result {
	body := geminiRequest{
		Contents: []geminiContent{{Role: "user", Parts: []geminiPart{{Text: p.Subject}}}},
	}
	if sys := p.System(); sys != "" {
		body.SystemInstruction = &geminiContent{Parts: []geminiPart{{Text: sys}}}
	}
	if p.Temperature > 0 {
		body.GenerationConfig = &geminiGenerationConfig{Temperature: p.Temperature}
	}

	jsonData, err := json.Marshal(body)
	if err != nil {
		return Failed(&Failure{Kind: KindUnavailable, Detail: "failed to marshal request", Err: err})
	}

	endpoint := fmt.Sprintf("%s/v1beta/models/%s:generateContent", g.baseURL, url.PathEscape(g.model))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(jsonData))
	if err != nil {
		return Failed(&Failure{Kind: KindUnavailable, Detail: "failed to create request", Err: err})
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", g.apiKey)

	resp, err := g.client.Do(req)
	if err != nil {
		return Failed(transportFailure(err))
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return Failed(transportFailure(err))
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return Failed(&Failure{Kind: KindError, Status: resp.StatusCode, Body: truncate(string(data), 512)})
	}
	if !gjson.ValidBytes(data) {
		return Failed(&Failure{Kind: KindMalformed, Detail: "response body is not JSON"})
	}

	text := gjson.GetBytes(data, geminiTextPath)
	if !text.Exists() {
		detail := "response has no " + geminiTextPath
		if reason := gjson.GetBytes(data, "promptFeedback.blockReason"); reason.Exists() {
			detail += " (blocked: " + reason.String() + ")"
		}
		return Failed(&Failure{Kind: KindEmpty, Detail: detail})
	}
	return Success(postprocess.Clean(text.String()))
}
