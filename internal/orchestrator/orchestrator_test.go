package orchestrator

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	lingua "github.com/pemistahl/lingua-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/valpere/editeur/internal"
	"github.com/valpere/editeur/internal/backend"
	"github.com/valpere/editeur/internal/classifier"
	"github.com/valpere/editeur/internal/detector"
	"github.com/valpere/editeur/internal/errs"
)

// mockGenerator replays results in order; the last one repeats.
type mockGenerator struct {
	results      []backend.Result
	generateFunc func(p backend.Prompt) backend.Result

	mu      sync.Mutex
	prompts []backend.Prompt
}

func (m *mockGenerator) Name() string  { return "mock" }
func (m *mockGenerator) Model() string { return "mock-1" }

func (m *mockGenerator) Generate(_ context.Context, p backend.Prompt) backend.Result {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.prompts = append(m.prompts, p)
	if m.generateFunc != nil {
		return m.generateFunc(p)
	}
	i := min(len(m.prompts)-1, len(m.results)-1)
	return m.results[i]
}

func (m *mockGenerator) calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.prompts)
}

type memJournal struct {
	mu      sync.Mutex
	records []internal.OperationRecord
	err     error
}

func (j *memJournal) Record(_ context.Context, rec internal.OperationRecord) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.records = append(j.records, rec)
	return j.err
}

func (j *memJournal) last(t *testing.T) internal.OperationRecord {
	t.Helper()
	j.mu.Lock()
	defer j.mu.Unlock()
	require.NotEmpty(t, j.records)
	return j.records[len(j.records)-1]
}

func newWith(cfg Config, gen backend.Generator, opts ...Option) *Orchestrator {
	opts = append([]Option{
		WithGenerator(backend.TaskHarmonize, gen),
		WithGenerator(backend.TaskSuggest, gen),
		WithGenerator(backend.TaskTranslate, gen),
	}, opts...)
	return New(cfg, opts...)
}

var transportError = backend.Unavailable("dial tcp: connection refused", errors.New("connection refused"))

func TestSuggest_DisabledUsesFallback(t *testing.T) {
	gen := &mockGenerator{results: []backend.Result{backend.Success("should not be used")}}
	o := newWith(Config{Disabled: true}, gen)

	res, err := o.Suggest(context.Background(), "Le produit est bon", "")
	require.NoError(t, err)

	assert.Equal(t, "Le produit est bon (Légère amélioration stylistique).", res.Text)
	assert.Equal(t, internal.PathFallback, res.Source)
	assert.Zero(t, gen.calls())
}

func TestSuggest_Generative(t *testing.T) {
	gen := &mockGenerator{results: []backend.Result{backend.Success("  Le produit est excellent.  ")}}
	o := newWith(Config{}, gen)

	res, err := o.Suggest(context.Background(), "Le produit est bon", "Ton formel.")
	require.NoError(t, err)

	assert.Equal(t, "Le produit est excellent.", res.Text)
	assert.Equal(t, internal.PathGenerative, res.Source)

	p := gen.prompts[0]
	assert.Equal(t, backend.TaskSuggest, p.Task)
	assert.Equal(t, "Ton formel.", p.Directives)
	assert.True(t, strings.HasPrefix(p.System(), "Ton formel.\n"))
	assert.Contains(t, p.Subject, "Le produit est bon")
}

func TestSuggest_BackendFailureUsesClassifiedFallback(t *testing.T) {
	tests := []struct {
		name    string
		result  backend.Result
		content string
		want    string
	}{
		{"unavailable legal", transportError, "Le contrat est signé", "Le contrat est signé (Formulation plus formelle conformément au contexte juridique)."},
		{"server error technical", backend.Failed(&backend.Failure{Kind: backend.KindError, Status: 500}), "Le serveur redémarre", "Le serveur redémarre (Précision technique ajoutée)."},
		{"empty marketing", backend.Success(""), "Nouvelle campagne", "Nouvelle campagne (Tonalité marketing renforcée)."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := newWith(Config{}, &mockGenerator{results: []backend.Result{tt.result}})
			res, err := o.Suggest(context.Background(), tt.content, "")
			require.NoError(t, err)
			assert.Equal(t, tt.want, res.Text)
			assert.Equal(t, internal.PathFallback, res.Source)
		})
	}
}

func TestSuggest_EmptyInput(t *testing.T) {
	o := New(Config{})
	for _, content := range []string{"", "   ", "\n\t"} {
		_, err := o.Suggest(context.Background(), content, "")
		assert.ErrorIs(t, err, errs.ErrEmptyInput)
	}
}

func TestHarmonize_MalformedOutputUsesFallback(t *testing.T) {
	segments := []string{"bonjour", "ça va"}
	gen := &mockGenerator{results: []backend.Result{backend.Success("Voilà des segments harmonisés, sans JSON")}}
	o := newWith(Config{}, gen)

	res, err := o.Harmonize(context.Background(), segments, "")
	require.NoError(t, err)

	assert.Equal(t, []string{"Bonjour.", "Ça va."}, res.Segments)
	assert.Equal(t, internal.PathFallback, res.Source)
	assert.Equal(t, 1, gen.calls())
}

func TestHarmonize_SchemaViolationsUseFallback(t *testing.T) {
	answers := []string{
		`{"segments": []}`,
		`{"segments": "Bonjour."}`,
		`{"segments": ["Bonjour.", 42]}`,
		`{"segments": ["Bonjour.", "   "]}`,
		`{"lignes": ["Bonjour."]}`,
		`["Bonjour."]`,
	}

	for _, answer := range answers {
		t.Run(answer, func(t *testing.T) {
			o := newWith(Config{}, &mockGenerator{results: []backend.Result{backend.Success(answer)}})
			res, err := o.Harmonize(context.Background(), []string{"bonjour"}, "")
			require.NoError(t, err)
			assert.Equal(t, []string{"Bonjour."}, res.Segments)
			assert.Equal(t, internal.PathFallback, res.Source)
		})
	}
}

func TestHarmonize_Generative(t *testing.T) {
	answer := "```json\n{\"segments\": [\" Bonjour. \", \"Comment allez-vous ?\"]}\n```"
	gen := &mockGenerator{results: []backend.Result{backend.Success(answer)}}
	o := newWith(Config{}, gen)

	res, err := o.Harmonize(context.Background(), []string{" bonjour ", "", "ça va"}, "Vouvoiement.")
	require.NoError(t, err)

	assert.Equal(t, []string{"Bonjour.", "Comment allez-vous ?"}, res.Segments)
	assert.Equal(t, internal.PathGenerative, res.Source)

	p := gen.prompts[0]
	assert.Equal(t, "Liste à harmoniser:\n- bonjour\n- ça va", p.Subject)
	assert.Contains(t, p.Instructions, `{"segments"`)
	assert.Equal(t, "Vouvoiement.", p.Directives)
}

func TestHarmonize_EmptyInput(t *testing.T) {
	o := New(Config{})
	for _, segments := range [][]string{nil, {}, {"", "  "}} {
		_, err := o.Harmonize(context.Background(), segments, "")
		assert.ErrorIs(t, err, errs.ErrEmptyInput)
	}
}

func TestHarmonize_NoGeneratorUsesFallback(t *testing.T) {
	o := New(Config{})
	res, err := o.Harmonize(context.Background(), []string{"premier point", "second point!"}, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"Premier point.", "Second point!"}, res.Segments)
	assert.Equal(t, internal.PathFallback, res.Source)
}

func TestHarmonizeText(t *testing.T) {
	o := New(Config{})

	res, err := o.HarmonizeText(context.Background(), "premier point\r\n\nsecond point", "")
	require.NoError(t, err)
	assert.Equal(t, "Premier point.\nSecond point.", res.Text)

	_, err = o.HarmonizeText(context.Background(), " \n ", "")
	assert.ErrorIs(t, err, errs.ErrEmptyInput)
}

func TestTranslate_TransportErrorFails(t *testing.T) {
	o := newWith(Config{}, &mockGenerator{results: []backend.Result{transportError}})

	res, err := o.Translate(context.Background(), Request{Text: "Bonjour", TargetLang: "en"})
	require.Error(t, err)

	assert.Empty(t, res.Text)
	assert.ErrorIs(t, err, errs.ErrTranslationFailed)
	assert.ErrorIs(t, err, errs.ErrBackendUnavailable)

	var te *TranslationError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, backend.KindUnavailable, te.Failure.Kind)
}

func TestTranslate_FailureKinds(t *testing.T) {
	tests := []struct {
		name   string
		result backend.Result
		want   error
	}{
		{"backend error", backend.Failed(&backend.Failure{Kind: backend.KindError, Status: 401, Body: "bad key"}), errs.ErrBackendError},
		{"malformed", backend.Failed(&backend.Failure{Kind: backend.KindMalformed}), errs.ErrMalformedOutput},
		{"empty", backend.Success("   "), errs.ErrEmptyResponse},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := newWith(Config{}, &mockGenerator{results: []backend.Result{tt.result}})
			res, err := o.Translate(context.Background(), Request{Text: "Bonjour", TargetLang: "en"})
			assert.Empty(t, res.Text)
			assert.ErrorIs(t, err, errs.ErrTranslationFailed)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestTranslate_DisabledFails(t *testing.T) {
	gen := &mockGenerator{results: []backend.Result{backend.Success("Hello")}}
	o := newWith(Config{Disabled: true}, gen)

	_, err := o.Translate(context.Background(), Request{Text: "Bonjour", TargetLang: "en"})
	assert.ErrorIs(t, err, errs.ErrTranslationFailed)
	assert.ErrorIs(t, err, errs.ErrBackendUnavailable)
	assert.Zero(t, gen.calls())
}

func TestTranslate_InvalidInput(t *testing.T) {
	o := newWith(Config{}, &mockGenerator{results: []backend.Result{backend.Success("x")}})

	tests := []struct {
		name string
		req  Request
		want error
	}{
		{"empty text", Request{Text: "  ", TargetLang: "en"}, errs.ErrEmptyInput},
		{"empty target", Request{Text: "Bonjour", TargetLang: ""}, errs.ErrEmptyInput},
		{"bad target", Request{Text: "Bonjour", TargetLang: "english please"}, errs.ErrInvalidLanguage},
		{"bad source", Request{Text: "Bonjour", TargetLang: "en", SourceLang: "???"}, errs.ErrInvalidLanguage},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := o.Translate(context.Background(), tt.req)
			assert.ErrorIs(t, err, tt.want)
			assert.True(t, errs.IsClient(err))
			assert.False(t, errors.Is(err, errs.ErrTranslationFailed))
		})
	}
}

func TestTranslate_PromptAndPlaceholders(t *testing.T) {
	gen := &mockGenerator{generateFunc: func(p backend.Prompt) backend.Result {
		// a model that keeps the markers and translates the rest
		return backend.Success(strings.Replace(p.Subject, "Bonjour", "Hello", 1))
	}}
	o := newWith(Config{TranslateDirectives: "Translate precisely.", ProtectPlaceholders: true}, gen)

	res, err := o.Translate(context.Background(), Request{Text: "Bonjour {name}, <b>%s</b>", TargetLang: "en-GB", SourceLang: "fr"})
	require.NoError(t, err)

	assert.Equal(t, "Hello {name}, <b>%s</b>", res.Text)
	assert.Equal(t, "fr", res.SourceLang)
	assert.Equal(t, "mock", res.Provider)

	p := gen.prompts[0]
	assert.Equal(t, backend.TaskTranslate, p.Task)
	assert.Equal(t, "Translate precisely.", p.Directives)
	assert.Equal(t, "en-GB", p.TargetLang)
	assert.Equal(t, "fr", p.SourceLang)
	assert.NotContains(t, p.Subject, "{name}")
	assert.Contains(t, p.Instructions, "[PHn]")
	assert.Contains(t, p.Instructions, "Langue cible: en-GB (source: fr)")
}

func TestTranslate_CallerDirectivesWin(t *testing.T) {
	gen := &mockGenerator{results: []backend.Result{backend.Success("Hola")}}
	o := newWith(Config{TranslateDirectives: "default"}, gen)

	_, err := o.Translate(context.Background(), Request{Text: "Hello", TargetLang: "es", Directives: "Usted."})
	require.NoError(t, err)
	assert.Equal(t, "Usted.", gen.prompts[0].Directives)
}

func TestTranslate_Chunked(t *testing.T) {
	gen := &mockGenerator{generateFunc: func(p backend.Prompt) backend.Result {
		return backend.Success(strings.ToUpper(p.Subject))
	}}
	o := newWith(Config{MaxChunkChars: 20}, gen)

	text := "Premier paragraphe.\n\nSecond paragraphe."
	res, err := o.Translate(context.Background(), Request{Text: text, TargetLang: "en"})
	require.NoError(t, err)

	assert.Equal(t, 2, gen.calls())
	assert.Equal(t, "PREMIER PARAGRAPHE.\n\nSECOND PARAGRAPHE.", res.Text)
}

func TestTranslate_ChunksKeepTheirSeparators(t *testing.T) {
	gen := &mockGenerator{generateFunc: func(p backend.Prompt) backend.Result {
		return backend.Success(p.Subject)
	}}
	o := newWith(Config{MaxChunkChars: 40}, gen)

	text := "Titre\n\nPremière phrase assez longue ici. Deuxième phrase assez longue là."
	res, err := o.Translate(context.Background(), Request{Text: text, TargetLang: "en"})
	require.NoError(t, err)

	assert.Equal(t, 3, gen.calls())
	assert.Equal(t, text, res.Text)
}

func TestTranslate_ChunkFailureFailsWhole(t *testing.T) {
	gen := &mockGenerator{results: []backend.Result{backend.Success("ok"), transportError}}
	o := newWith(Config{MaxChunkChars: 20}, gen)

	res, err := o.Translate(context.Background(), Request{Text: "Premier paragraphe.\n\nSecond paragraphe.", TargetLang: "en"})
	assert.ErrorIs(t, err, errs.ErrTranslationFailed)
	assert.Empty(t, res.Text)
}

// sharedDetector keeps the lingua models small and built once for the package.
var sharedDetector = detector.New(lingua.English, lingua.French, lingua.German, lingua.Spanish)

func TestTranslate_DetectsSource(t *testing.T) {
	gen := &mockGenerator{results: []backend.Result{backend.Success("The contract was signed yesterday by both parties.")}}
	o := newWith(Config{DetectSource: true}, gen, WithDetector(sharedDetector))

	res, err := o.Translate(context.Background(), Request{
		Text:       "Le contrat a été signé hier par les deux parties concernées.",
		TargetLang: "en",
	})
	require.NoError(t, err)

	assert.Equal(t, "fr", res.SourceLang)
	require.Equal(t, 1, gen.calls())
	assert.Equal(t, "fr", gen.prompts[0].SourceLang)
	assert.Contains(t, gen.prompts[0].Instructions, "(source: fr)")
}

func TestTranslate_NoDetectionWhenDisabled(t *testing.T) {
	gen := &mockGenerator{results: []backend.Result{backend.Success("The contract was signed yesterday.")}}
	o := newWith(Config{}, gen, WithDetector(sharedDetector))

	res, err := o.Translate(context.Background(), Request{
		Text:       "Le contrat a été signé hier par les deux parties concernées.",
		TargetLang: "en",
	})
	require.NoError(t, err)

	assert.Empty(t, res.SourceLang)
	assert.Empty(t, gen.prompts[0].SourceLang)
}

func TestTranslate_WrongOutputLanguageFails(t *testing.T) {
	journal := &memJournal{}
	// the backend echoes French instead of translating
	gen := &mockGenerator{results: []backend.Result{backend.Success("Le contrat a été signé hier par les deux parties concernées.")}}
	o := newWith(Config{ValidateOutput: true}, gen, WithDetector(sharedDetector), WithJournal(journal))

	res, err := o.Translate(context.Background(), Request{
		Text:       "Le contrat a été signé hier par les deux parties concernées.",
		TargetLang: "en",
		SourceLang: "fr",
	})

	assert.Empty(t, res.Text)
	assert.ErrorIs(t, err, errs.ErrTranslationFailed)
	assert.ErrorIs(t, err, errs.ErrMalformedOutput)
	var terr *TranslationError
	require.ErrorAs(t, err, &terr)
	assert.Equal(t, backend.KindMalformed, terr.Failure.Kind)
	assert.Equal(t, internal.PathFailed, journal.last(t).Path)
}

func TestTranslate_RightOutputLanguagePasses(t *testing.T) {
	gen := &mockGenerator{results: []backend.Result{backend.Success("The contract was signed yesterday by both parties.")}}
	o := newWith(Config{ValidateOutput: true}, gen, WithDetector(sharedDetector))

	res, err := o.Translate(context.Background(), Request{
		Text:       "Le contrat a été signé hier par les deux parties concernées.",
		TargetLang: "en-US",
		SourceLang: "fr",
	})
	require.NoError(t, err)
	assert.Equal(t, "The contract was signed yesterday by both parties.", res.Text)
}

func TestGenerate_RetriesTransientFailures(t *testing.T) {
	gen := &mockGenerator{results: []backend.Result{
		backend.Failed(&backend.Failure{Kind: backend.KindError, Status: 503}),
		transportError,
		backend.Success("Hello"),
	}}
	o := newWith(Config{MaxAttempts: 3, RetryDelay: time.Millisecond}, gen)

	res, err := o.Translate(context.Background(), Request{Text: "Bonjour", TargetLang: "en"})
	require.NoError(t, err)
	assert.Equal(t, "Hello", res.Text)
	assert.Equal(t, 3, gen.calls())
}

func TestGenerate_NoRetryOnPermanentFailure(t *testing.T) {
	gen := &mockGenerator{results: []backend.Result{
		backend.Failed(&backend.Failure{Kind: backend.KindError, Status: 401}),
		backend.Success("Hello"),
	}}
	o := newWith(Config{MaxAttempts: 3, RetryDelay: time.Millisecond}, gen)

	_, err := o.Translate(context.Background(), Request{Text: "Bonjour", TargetLang: "en"})
	assert.ErrorIs(t, err, errs.ErrBackendError)
	assert.Equal(t, 1, gen.calls())
}

func TestGenerate_DefaultIsSingleAttempt(t *testing.T) {
	gen := &mockGenerator{results: []backend.Result{transportError, backend.Success("Hello")}}
	o := newWith(Config{}, gen)

	_, err := o.Translate(context.Background(), Request{Text: "Bonjour", TargetLang: "en"})
	assert.ErrorIs(t, err, errs.ErrBackendUnavailable)
	assert.Equal(t, 1, gen.calls())
}

func TestGenerate_CanceledContext(t *testing.T) {
	gen := &mockGenerator{results: []backend.Result{backend.Success("Hello")}}
	o := newWith(Config{}, gen)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := o.Translate(ctx, Request{Text: "Bonjour", TargetLang: "en"})
	assert.ErrorIs(t, err, errs.ErrBackendUnavailable)
}

func TestJournal(t *testing.T) {
	journal := &memJournal{}
	gen := &mockGenerator{results: []backend.Result{transportError}}
	o := newWith(Config{}, gen, WithJournal(journal))
	ctx := context.Background()

	_, err := o.Suggest(ctx, "Le contrat", "")
	require.NoError(t, err)
	rec := journal.last(t)
	assert.Equal(t, OpSuggest, rec.Operation)
	assert.Equal(t, internal.PathFallback, rec.Path)
	assert.Equal(t, "mock", rec.Provider)
	assert.Equal(t, "backend_unavailable", rec.FailureKind)
	assert.Equal(t, 10, rec.InputRunes)

	_, err = o.Translate(ctx, Request{Text: "Bonjour", TargetLang: "en"})
	require.Error(t, err)
	assert.Equal(t, internal.PathFailed, journal.last(t).Path)

	o.Classify(ctx, "texte")
	assert.Equal(t, internal.PathLocal, journal.last(t).Path)
	assert.Equal(t, OpClassify, journal.last(t).Operation)
}

func TestJournal_WriteErrorIgnored(t *testing.T) {
	journal := &memJournal{err: errors.New("disk full")}
	o := New(Config{}, WithJournal(journal))

	res, err := o.Suggest(context.Background(), "Texte", "")
	require.NoError(t, err)
	assert.NotEmpty(t, res.Text)
}

func TestSegmentAndClassify(t *testing.T) {
	o := New(Config{})
	ctx := context.Background()

	assert.Equal(t, []string{"Bonjour", "Ça va?"}, o.Segment(ctx, "Bonjour. Ça va?", false))
	assert.Equal(t, []string{"Titre Le code", "Fin"}, o.Segment(ctx, "# Titre\n\nLe **code**. Fin.", true))

	assert.Equal(t, classifier.Technical, o.Classify(ctx, "Le serveur de code"))
	assert.Equal(t, classifier.General, o.Classify(ctx, "Rien de spécial"))
}

func TestEvaluate(t *testing.T) {
	o := New(Config{})

	score, err := o.Evaluate(context.Background(), "a b c", "a b c")
	require.NoError(t, err)
	assert.Equal(t, 1.0, score.Lexical)

	_, err = o.Evaluate(context.Background(), "", "a")
	assert.ErrorIs(t, err, errs.ErrEmptyInput)
}
