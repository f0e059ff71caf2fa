// Package evaluator scores a translation against a reference: a lexical BLEU
// score and a pluggable semantic score.
package evaluator

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/valpere/editeur/internal/backend"
	"github.com/valpere/editeur/internal/errs"
)

// Score holds both metrics, each within [0, 1].
type Score struct {
	Lexical  float64 `json:"lexical"`
	Semantic float64 `json:"semantic"`
}

// SemanticScorer rates how well hypothesis preserves the meaning of reference.
// It never fails; implementations degrade to a default value.
type SemanticScorer interface {
	Score(ctx context.Context, reference, hypothesis string) float64
}

// DefaultSemanticScore is the neutral value reported when no real semantic
// model is available. It carries no information about the texts.
const DefaultSemanticScore = 0.5

// ConstantScorer returns the same value for every pair.
type ConstantScorer float64

func (c ConstantScorer) Score(context.Context, string, string) float64 {
	return clip(float64(c))
}

// LLMScorer asks a generative backend for a 0..1 rating and falls back to
// Default when the call fails or the answer holds no usable number.
type LLMScorer struct {
	Generator backend.Generator
	Default   float64
	Log       *zap.Logger
}

const semanticInstructions = `You evaluate translation quality.
Rate how faithfully the candidate preserves the meaning of the reference on a scale from 0 to 1.
0 means unrelated meaning, 1 means identical meaning.
Answer ONLY with the score as a number between 0 and 1.`

var scorePattern = regexp.MustCompile(`\d+(?:\.\d+)?`)

func (s *LLMScorer) Score(ctx context.Context, reference, hypothesis string) float64 {
	log := s.Log
	if log == nil {
		log = zap.NewNop()
	}
	if s.Generator == nil {
		return clip(s.Default)
	}

	res := s.Generator.Generate(ctx, backend.Prompt{
		Task:         backend.TaskEvaluate,
		Instructions: semanticInstructions,
		Subject:      fmt.Sprintf("Reference: %s\n\nCandidate: %s", reference, hypothesis),
	})
	if !res.OK() {
		log.Warn("semantic scoring failed, using default",
			zap.String("provider", res.Provider),
			zap.Stringer("kind", res.Failure.Kind),
			zap.Error(res.Failure))
		return clip(s.Default)
	}

	match := scorePattern.FindString(res.Text)
	if match == "" {
		log.Warn("no score in semantic answer, using default", zap.String("answer", res.Text))
		return clip(s.Default)
	}
	parsed, err := strconv.ParseFloat(match, 64)
	if err != nil || parsed < 0 || parsed > 1 {
		log.Warn("semantic score out of range, using default", zap.String("answer", match))
		return clip(s.Default)
	}
	return parsed
}

type Evaluator struct {
	semantic SemanticScorer
}

// New builds an Evaluator; a nil scorer means ConstantScorer(DefaultSemanticScore).
func New(semantic SemanticScorer) *Evaluator {
	if semantic == nil {
		semantic = ConstantScorer(DefaultSemanticScore)
	}
	return &Evaluator{semantic: semantic}
}

// Evaluate requires both texts to be non-blank.
func (e *Evaluator) Evaluate(ctx context.Context, reference, hypothesis string) (Score, error) {
	if strings.TrimSpace(reference) == "" || strings.TrimSpace(hypothesis) == "" {
		return Score{}, fmt.Errorf("%w: reference and hypothesis are required", errs.ErrEmptyInput)
	}
	return Score{
		Lexical:  BLEU(reference, hypothesis),
		Semantic: clip(e.semantic.Score(ctx, reference, hypothesis)),
	}, nil
}
