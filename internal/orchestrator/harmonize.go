package orchestrator

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"go.uber.org/zap"

	"github.com/valpere/editeur/internal"
	"github.com/valpere/editeur/internal/backend"
	"github.com/valpere/editeur/internal/errs"
	"github.com/valpere/editeur/internal/fallback"
	"github.com/valpere/editeur/internal/postprocess"
	"github.com/valpere/editeur/internal/segmenter"
)

const harmonizeInstructions = "Tu harmonises un lot de segments: terminologie constante, ton cohérent, " +
	"ponctuation/majuscules uniformes. Ne change pas le sens. " +
	`Réponds en JSON strict: {"segments":["...","..."]}`

const segmentsSchemaJSON = `{
	"$schema": "https://json-schema.org/draft/2020-12/schema",
	"type": "object",
	"required": ["segments"],
	"properties": {
		"segments": {
			"type": "array",
			"minItems": 1,
			"items": {"type": "string", "pattern": "\\S"}
		}
	}
}`

var segmentsSchema = jsonschema.MustCompileString("harmonize-segments.json", segmentsSchemaJSON)

// HarmonizeResult is the harmonized list and the path that produced it.
type HarmonizeResult struct {
	Segments []string
	Source   string
}

// Harmonize makes terminology, tone and punctuation consistent across
// segments. Blank segments are ignored; an input with none left is
// ErrEmptyInput.
func (o *Orchestrator) Harmonize(ctx context.Context, segments []string, directives string) (HarmonizeResult, error) {
	start := time.Now()
	units := make([]string, 0, len(segments))
	for _, s := range segments {
		if s = strings.TrimSpace(s); s != "" {
			units = append(units, s)
		}
	}
	if len(units) == 0 {
		return HarmonizeResult{}, fmt.Errorf("%w: no segments to harmonize", errs.ErrEmptyInput)
	}
	input := joinLines(units)

	gen := o.generator(backend.TaskHarmonize)
	var failure *backend.Failure
	if gen != nil {
		res := o.generate(ctx, OpHarmonize, gen, backend.Prompt{
			Task:         backend.TaskHarmonize,
			Instructions: harmonizeInstructions,
			Directives:   directives,
			Subject:      "Liste à harmoniser:\n" + bulletList(units),
			Temperature:  0.2,
		})
		failure = res.Failure
		if res.OK() {
			parsed, err := parseSegments(res.Text)
			if err == nil {
				o.record(ctx, call{op: OpHarmonize, path: internal.PathGenerative, gen: gen, input: input, start: start})
				return HarmonizeResult{Segments: parsed, Source: internal.PathGenerative}, nil
			}
			failure = &backend.Failure{Kind: backend.KindMalformed, Detail: err.Error(), Err: err}
			o.log.Warn("harmonize answer rejected", zap.String("provider", gen.Name()), zap.Error(err))
		}
	}

	o.fallbackReason(OpHarmonize, gen, failure)
	o.record(ctx, call{op: OpHarmonize, path: internal.PathFallback, gen: gen, failure: failure, input: input, start: start})
	return HarmonizeResult{Segments: fallback.Harmonize(units), Source: internal.PathFallback}, nil
}

// TextResult is a single text answer and the path that produced it.
type TextResult struct {
	Text   string
	Source string
}

// HarmonizeText harmonizes free-form content line by line and joins the
// lines back.
func (o *Orchestrator) HarmonizeText(ctx context.Context, content, directives string) (TextResult, error) {
	lines := segmenter.Lines(content)
	if len(lines) == 0 {
		return TextResult{}, fmt.Errorf("%w: no content to harmonize", errs.ErrEmptyInput)
	}
	res, err := o.Harmonize(ctx, lines, directives)
	if err != nil {
		return TextResult{}, err
	}
	return TextResult{Text: joinLines(res.Segments), Source: res.Source}, nil
}

// parseSegments accepts only {"segments": [non-blank strings...]}, optionally
// wrapped in a code fence.
func parseSegments(text string) ([]string, error) {
	raw := []byte(postprocess.StripCodeFence(text))

	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("%w: not JSON: %v", errs.ErrMalformedOutput, err)
	}
	if err := segmentsSchema.Validate(doc); err != nil {
		return nil, fmt.Errorf("%w: %v", errs.ErrMalformedOutput, err)
	}

	var out struct {
		Segments []string `json:"segments"`
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("%w: %v", errs.ErrMalformedOutput, err)
	}
	for i, s := range out.Segments {
		out.Segments[i] = strings.TrimSpace(s)
	}
	return out.Segments, nil
}
