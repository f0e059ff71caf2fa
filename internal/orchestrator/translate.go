package orchestrator

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/text/language"

	"github.com/valpere/editeur/internal"
	"github.com/valpere/editeur/internal/backend"
	"github.com/valpere/editeur/internal/errs"
	"github.com/valpere/editeur/internal/placeholder"
	"github.com/valpere/editeur/internal/segmenter"
)

// Request is a translate call. SourceLang and Directives are optional.
type Request struct {
	Text       string
	TargetLang string
	SourceLang string
	Directives string
}

// Translation is a successful translate answer.
type Translation struct {
	Text       string
	SourceLang string
	Provider   string
	Model      string
}

// TranslationError is the only failure translate reports once the input is
// valid. It matches both errs.ErrTranslationFailed and the sentinel of the
// backend failure kind.
type TranslationError struct {
	Failure *backend.Failure
}

func (e *TranslationError) Error() string {
	return "translation failed: " + e.Failure.Error()
}

func (e *TranslationError) Unwrap() []error {
	return []error{errs.ErrTranslationFailed, e.Failure}
}

// Translate renders req.Text in req.TargetLang. It never returns an empty
// translation: every backend problem becomes a *TranslationError.
func (o *Orchestrator) Translate(ctx context.Context, req Request) (Translation, error) {
	start := time.Now()
	if strings.TrimSpace(req.Text) == "" {
		return Translation{}, fmt.Errorf("%w: text is required", errs.ErrEmptyInput)
	}
	if strings.TrimSpace(req.TargetLang) == "" {
		return Translation{}, fmt.Errorf("%w: target language is required", errs.ErrEmptyInput)
	}
	target, err := language.Parse(strings.TrimSpace(req.TargetLang))
	if err != nil {
		return Translation{}, fmt.Errorf("%w: target %q", errs.ErrInvalidLanguage, req.TargetLang)
	}
	var source language.Tag
	if s := strings.TrimSpace(req.SourceLang); s != "" {
		if source, err = language.Parse(s); err != nil {
			return Translation{}, fmt.Errorf("%w: source %q", errs.ErrInvalidLanguage, req.SourceLang)
		}
	}

	gen := o.generator(backend.TaskTranslate)
	fail := func(f *backend.Failure) (Translation, error) {
		o.log.Error("translation failed",
			zap.String("target", target.String()),
			zap.Stringer("kind", f.Kind),
			zap.Error(f))
		o.record(ctx, call{op: OpTranslate, path: internal.PathFailed, gen: gen, failure: f, input: req.Text, start: start})
		return Translation{}, &TranslationError{Failure: f}
	}
	if gen == nil {
		return fail(&backend.Failure{Kind: backend.KindUnavailable, Detail: "no translation backend configured"})
	}

	if source == language.Und && o.cfg.DetectSource && o.detector != nil {
		if detected, ok := o.detector.DetectTag(req.Text); ok {
			source = detected
			o.log.Debug("detected source language", zap.String("source", source.String()))
		}
	}

	directives := strings.TrimSpace(req.Directives)
	if directives == "" {
		directives = o.cfg.TranslateDirectives
	}

	pieces := []segmenter.Piece{{Text: req.Text}}
	if o.cfg.MaxChunkChars > 0 {
		pieces = segmenter.Split(req.Text, o.cfg.MaxChunkChars)
	}

	for i, piece := range pieces {
		text, failure := o.translateChunk(ctx, gen, piece.Text, directives, source, target)
		if failure != nil {
			return fail(failure)
		}
		pieces[i].Text = text
	}

	translation := Translation{
		Text:     segmenter.Join(pieces),
		Provider: gen.Name(),
		Model:    gen.Model(),
	}
	if source != language.Und {
		translation.SourceLang = source.String()
	}
	o.record(ctx, call{op: OpTranslate, path: internal.PathGenerative, gen: gen, input: req.Text, start: start})
	return translation, nil
}

func (o *Orchestrator) translateChunk(ctx context.Context, gen backend.Generator, chunk, directives string, source, target language.Tag) (string, *backend.Failure) {
	subject := chunk
	var markers placeholder.Markers
	if o.cfg.ProtectPlaceholders {
		subject, markers = placeholder.Protect(chunk)
	}

	p := backend.Prompt{
		Task:         backend.TaskTranslate,
		Instructions: translateInstructions(source, target, len(markers) > 0),
		Directives:   directives,
		TargetLang:   target.String(),
		Subject:      subject,
		Temperature:  0.2,
	}
	if source != language.Und {
		p.SourceLang = source.String()
	}

	res := o.generate(ctx, OpTranslate, gen, p)
	if !res.OK() {
		return "", res.Failure
	}

	text := res.Text
	if len(markers) > 0 {
		if missing := markers.Missing(text); len(missing) > 0 {
			o.log.Warn("translation dropped placeholders", zap.Ints("missing", missing))
		}
		text = markers.Restore(text)
	}

	if o.validator != nil {
		if err := o.validator.Check(text, target); err != nil {
			return "", &backend.Failure{Kind: backend.KindMalformed, Detail: err.Error(), Err: err}
		}
	}
	return text, nil
}

func translateInstructions(source, target language.Tag, hasMarkers bool) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Langue cible: %s", target)
	if source != language.Und {
		fmt.Fprintf(&sb, " (source: %s)", source)
	}
	sb.WriteString("\nRéponds uniquement avec la traduction du texte, sans commentaire.")
	if hasMarkers {
		sb.WriteString("\n")
		sb.WriteString(placeholder.Hint)
	}
	return sb.String()
}
