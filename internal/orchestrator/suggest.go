package orchestrator

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/valpere/editeur/internal"
	"github.com/valpere/editeur/internal/backend"
	"github.com/valpere/editeur/internal/classifier"
	"github.com/valpere/editeur/internal/errs"
	"github.com/valpere/editeur/internal/fallback"
)

const suggestInstructions = `Améliore la cohérence et le style du texte suivant.
Préserve le sens et la terminologie.
Réponds SEULEMENT avec le texte amélioré, sans explications, sans listes, sans options.`

// Suggest proposes an improved version of content. When the backend cannot
// answer, the fallback annotates content according to its context label.
func (o *Orchestrator) Suggest(ctx context.Context, content, directives string) (TextResult, error) {
	start := time.Now()
	if strings.TrimSpace(content) == "" {
		return TextResult{}, fmt.Errorf("%w: no content to improve", errs.ErrEmptyInput)
	}

	gen := o.generator(backend.TaskSuggest)
	var failure *backend.Failure
	if gen != nil {
		res := o.generate(ctx, OpSuggest, gen, backend.Prompt{
			Task:         backend.TaskSuggest,
			Instructions: suggestInstructions,
			Directives:   directives,
			Subject:      "Texte: " + content,
			Temperature:  0.3,
		})
		if res.OK() {
			o.record(ctx, call{op: OpSuggest, path: internal.PathGenerative, gen: gen, input: content, start: start})
			return TextResult{Text: strings.TrimSpace(res.Text), Source: internal.PathGenerative}, nil
		}
		failure = res.Failure
	}

	o.fallbackReason(OpSuggest, gen, failure)
	o.record(ctx, call{op: OpSuggest, path: internal.PathFallback, gen: gen, failure: failure, input: content, start: start})
	return TextResult{
		Text:   fallback.Suggest(content, classifier.Classify(content)),
		Source: internal.PathFallback,
	}, nil
}
