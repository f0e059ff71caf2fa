package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/valpere/editeur/internal/backend"
	"github.com/valpere/editeur/internal/orchestrator"
)

type fakeGenerator struct {
	result backend.Result
}

func (f *fakeGenerator) Name() string  { return "fake" }
func (f *fakeGenerator) Model() string { return "fake-1" }
func (f *fakeGenerator) Generate(context.Context, backend.Prompt) backend.Result {
	return f.result
}

func newTestServer(t *testing.T, gen backend.Generator, cfg orchestrator.Config) *httptest.Server {
	t.Helper()
	orch := orchestrator.New(cfg,
		orchestrator.WithGenerator(backend.TaskHarmonize, gen),
		orchestrator.WithGenerator(backend.TaskSuggest, gen),
		orchestrator.WithGenerator(backend.TaskTranslate, gen),
	)
	srv := httptest.NewServer(New(orch, zap.NewNop()).Handler())
	t.Cleanup(srv.Close)
	return srv
}

func post(t *testing.T, srv *httptest.Server, path, body string) (int, map[string]any) {
	t.Helper()
	resp, err := http.Post(srv.URL+path, "application/json", strings.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()

	var out map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return resp.StatusCode, out
}

func TestSegmenter(t *testing.T) {
	srv := newTestServer(t, nil, orchestrator.Config{})

	status, out := post(t, srv, "/segmenter", `{"texte":"Bonjour. Ça va?"}`)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, []any{"Bonjour", "Ça va?"}, out["segments"])

	status, out = post(t, srv, "/segmenter", `{"texte":""}`)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, []any{}, out["segments"])

	status, _ = post(t, srv, "/segmenter", `{"texte":`)
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestClassifier(t *testing.T) {
	srv := newTestServer(t, nil, orchestrator.Config{})

	tests := map[string]string{
		"Le contrat est signé":      "juridique",
		"Le serveur redémarre":      "technique",
		"Une campagne de promotion": "marketing",
		"Il fait beau":              "general",
	}
	for texte, want := range tests {
		body, _ := json.Marshal(map[string]string{"texte": texte})
		status, out := post(t, srv, "/classifier", string(body))
		assert.Equal(t, http.StatusOK, status)
		assert.Equal(t, want, out["contexte"], texte)
	}
}

func TestHarmoniser(t *testing.T) {
	srv := newTestServer(t, &fakeGenerator{result: backend.Success("pas du JSON")}, orchestrator.Config{})

	status, out := post(t, srv, "/harmoniser", `{"segments":["bonjour","ça va"]}`)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, []any{"Bonjour.", "Ça va."}, out["segments"])
	assert.Equal(t, "fallback", out["source"])

	status, out = post(t, srv, "/harmoniser", `{"contenu":"premier\nsecond"}`)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "Premier.\nSecond.", out["harmonisation"])

	status, out = post(t, srv, "/harmoniser", `{"segments":[" "]}`)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "empty_input", out["kind"])
}

func TestHarmoniser_Generative(t *testing.T) {
	srv := newTestServer(t, &fakeGenerator{result: backend.Success(`{"segments":["Bonjour.","Ça va ?"]}`)}, orchestrator.Config{})

	status, out := post(t, srv, "/harmoniser", `{"segments":["bonjour","ça va"],"consignes":"typographie française"}`)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, []any{"Bonjour.", "Ça va ?"}, out["segments"])
	assert.Equal(t, "generative", out["source"])
}

func TestSuggest(t *testing.T) {
	srv := newTestServer(t, nil, orchestrator.Config{Disabled: true})

	status, out := post(t, srv, "/suggest", `{"contenu":"Le produit est bon","consignes":null}`)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "Le produit est bon (Légère amélioration stylistique).", out["suggestion"])
	assert.Equal(t, "fallback", out["source"])

	status, _ = post(t, srv, "/suggest", `{"contenu":"  "}`)
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestTraduire(t *testing.T) {
	srv := newTestServer(t, &fakeGenerator{result: backend.Success("Hello")}, orchestrator.Config{})

	status, out := post(t, srv, "/traduire", `{"texte":"Bonjour","langue_cible":"en","langue_source":"fr"}`)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "Hello", out["traduction"])
	assert.Equal(t, "fake", out["fournisseur"])

	status, out = post(t, srv, "/traduire", `{"texte":"Bonjour","langue_cible":"pas une langue"}`)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "invalid_language", out["kind"])

	status, _ = post(t, srv, "/traduire", `{"texte":"","langue_cible":"en"}`)
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestTraduire_BackendFailure(t *testing.T) {
	srv := newTestServer(t, &fakeGenerator{result: backend.Unavailable("connection refused", nil)}, orchestrator.Config{})

	status, out := post(t, srv, "/traduire", `{"texte":"Bonjour","langue_cible":"en"}`)
	assert.Equal(t, http.StatusInternalServerError, status)
	assert.NotContains(t, out, "traduction")
	assert.Equal(t, "translation_failed", out["kind"])
	assert.Contains(t, out["detail"], "backend_unavailable")
}

func TestEvaluer(t *testing.T) {
	srv := newTestServer(t, nil, orchestrator.Config{})

	status, out := post(t, srv, "/evaluer", `{"reference":"a b c","hypothesis":"a b c"}`)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, 1.0, out["bleu"].(map[string]any)["score"])
	assert.Equal(t, 0.5, out["comet"].(map[string]any)["score"])

	status, _ = post(t, srv, "/evaluer", `{"reference":"","hypothesis":"a"}`)
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestHealthzAndMetrics(t *testing.T) {
	srv := newTestServer(t, nil, orchestrator.Config{})

	resp, err := http.Get(srv.URL + "/healthz")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get("X-Request-Id"))

	resp, err = http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestMethodNotAllowed(t *testing.T) {
	srv := newTestServer(t, nil, orchestrator.Config{})

	resp, err := http.Get(srv.URL + "/traduire")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}
