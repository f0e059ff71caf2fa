// Package orchestrator routes every editing operation either to a generative
// backend or to its deterministic fallback.
//
// Harmonize and Suggest always answer: any backend failure, and any answer
// that does not match the expected shape, switches to the fallback rules.
// Translate has no fallback and reports a TranslationError instead.
package orchestrator

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/avast/retry-go/v4"
	"go.uber.org/zap"

	"github.com/valpere/editeur/internal"
	"github.com/valpere/editeur/internal/backend"
	"github.com/valpere/editeur/internal/classifier"
	"github.com/valpere/editeur/internal/detector"
	"github.com/valpere/editeur/internal/evaluator"
	"github.com/valpere/editeur/internal/markdown"
	"github.com/valpere/editeur/internal/metrics"
	"github.com/valpere/editeur/internal/segmenter"
	"github.com/valpere/editeur/internal/validator"
)

// Operation names used in logs, metrics and the journal.
const (
	OpSegment   = "segment"
	OpClassify  = "classify"
	OpHarmonize = string(backend.TaskHarmonize)
	OpSuggest   = string(backend.TaskSuggest)
	OpTranslate = string(backend.TaskTranslate)
	OpEvaluate  = string(backend.TaskEvaluate)
)

// Journal receives one record per served call.
type Journal interface {
	Record(ctx context.Context, rec internal.OperationRecord) error
}

type Config struct {
	// Disabled forces the fallback path for every operation.
	Disabled    bool
	MaxAttempts int
	RetryDelay  time.Duration

	TranslateDirectives string
	ProtectPlaceholders bool
	DetectSource        bool
	ValidateOutput      bool
	MaxChunkChars       int
}

type Orchestrator struct {
	cfg        Config
	generators map[backend.Task]backend.Generator
	segmenter  segmenter.Segmenter
	evaluator  *evaluator.Evaluator
	detector   *detector.Detector
	validator  *validator.Validator
	journal    Journal
	log        *zap.Logger
}

type Option func(*Orchestrator)

// WithGenerator serves task with gen. A nil gen leaves the task without a
// backend, which means fallback (or failure for translate).
func WithGenerator(task backend.Task, gen backend.Generator) Option {
	return func(o *Orchestrator) {
		if gen != nil {
			o.generators[task] = gen
		}
	}
}

func WithSegmenter(s segmenter.Segmenter) Option {
	return func(o *Orchestrator) { o.segmenter = s }
}

func WithEvaluator(e *evaluator.Evaluator) Option {
	return func(o *Orchestrator) { o.evaluator = e }
}

func WithDetector(d *detector.Detector) Option {
	return func(o *Orchestrator) { o.detector = d }
}

func WithJournal(j Journal) Option {
	return func(o *Orchestrator) { o.journal = j }
}

func WithLogger(l *zap.Logger) Option {
	return func(o *Orchestrator) { o.log = l }
}

func New(cfg Config, opts ...Option) *Orchestrator {
	if cfg.MaxAttempts < 1 {
		cfg.MaxAttempts = 1
	}
	o := &Orchestrator{
		cfg:        cfg,
		generators: make(map[backend.Task]backend.Generator),
		segmenter:  segmenter.Heuristic{},
		log:        zap.NewNop(),
	}
	for _, opt := range opts {
		opt(o)
	}
	if o.evaluator == nil {
		o.evaluator = evaluator.New(nil)
	}
	if o.detector == nil && (cfg.DetectSource || cfg.ValidateOutput) {
		o.detector = detector.New()
	}
	if cfg.ValidateOutput {
		o.validator = validator.New(o.detector)
	}
	return o
}

// generator returns the backend for task, or nil when the task must not reach
// the network.
func (o *Orchestrator) generator(task backend.Task) backend.Generator {
	if o.cfg.Disabled {
		return nil
	}
	return o.generators[task]
}

// Segment splits text into units; markdown input is flattened first.
func (o *Orchestrator) Segment(ctx context.Context, text string, isMarkdown bool) []string {
	start := time.Now()
	if isMarkdown {
		text = markdown.ToPlainText([]byte(text))
	}
	units := o.segmenter.Segment(text)
	o.record(ctx, call{op: OpSegment, path: internal.PathLocal, input: text, start: start})
	return units
}

// Classify returns the context label of text.
func (o *Orchestrator) Classify(ctx context.Context, text string) classifier.Label {
	start := time.Now()
	label := classifier.Classify(text)
	o.record(ctx, call{op: OpClassify, path: internal.PathLocal, input: text, start: start})
	return label
}

// Evaluate scores hypothesis against reference.
func (o *Orchestrator) Evaluate(ctx context.Context, reference, hypothesis string) (evaluator.Score, error) {
	start := time.Now()
	score, err := o.evaluator.Evaluate(ctx, reference, hypothesis)
	if err != nil {
		return score, err
	}
	o.record(ctx, call{op: OpEvaluate, path: internal.PathLocal, input: reference + hypothesis, start: start})
	return score, nil
}

// generate runs one prompt through gen, retrying transient failures up to
// MaxAttempts. The returned Result is the last attempt's.
func (o *Orchestrator) generate(ctx context.Context, op string, gen backend.Generator, p backend.Prompt) backend.Result {
	if err := ctx.Err(); err != nil {
		return backend.Unavailable("request canceled", err)
	}
	var res backend.Result
	attempt := 0
	_ = retry.Do(
		func() error {
			attempt++
			res = gen.Generate(ctx, p)
			metrics.ObserveBackend(gen.Name(), res.Latency)
			if res.OK() {
				return nil
			}
			metrics.IncBackendFailure(gen.Name(), res.Failure.Kind.String())
			o.log.Warn("backend call failed",
				zap.String("operation", op),
				zap.String("provider", gen.Name()),
				zap.String("model", gen.Model()),
				zap.Stringer("kind", res.Failure.Kind),
				zap.Int("attempt", attempt),
				zap.Error(res.Failure))
			if !res.Failure.Retryable() {
				return retry.Unrecoverable(res.Failure)
			}
			return res.Failure
		},
		retry.Context(ctx),
		retry.Attempts(uint(o.cfg.MaxAttempts)),
		retry.Delay(o.cfg.RetryDelay),
		retry.DelayType(retry.FixedDelay),
		retry.LastErrorOnly(true),
	)
	return res
}

// call describes one served operation for metrics and the journal.
type call struct {
	op      string
	path    string
	gen     backend.Generator
	failure *backend.Failure
	input   string
	start   time.Time
}

func (o *Orchestrator) record(ctx context.Context, c call) {
	metrics.IncOperation(c.op, c.path)
	if o.journal == nil {
		return
	}
	rec := internal.OperationRecord{
		Operation:  c.op,
		Path:       c.path,
		InputRunes: utf8.RuneCountInString(c.input),
		LatencyMs:  time.Since(c.start).Milliseconds(),
	}
	if c.gen != nil {
		rec.Provider, rec.Model = c.gen.Name(), c.gen.Model()
	}
	if c.failure != nil {
		rec.FailureKind = c.failure.Kind.String()
	}
	// the journal must never fail a call, nor be cut short by its deadline
	if err := o.journal.Record(context.WithoutCancel(ctx), rec); err != nil {
		o.log.Warn("journal write failed", zap.String("operation", c.op), zap.Error(err))
	}
}

func (o *Orchestrator) fallbackReason(op string, gen backend.Generator, failure *backend.Failure) {
	fields := []zap.Field{zap.String("operation", op)}
	switch {
	case gen == nil:
		fields = append(fields, zap.String("reason", "backend disabled"))
	case failure != nil:
		fields = append(fields,
			zap.String("provider", gen.Name()),
			zap.Stringer("kind", failure.Kind),
			zap.String("reason", failure.Error()))
	}
	o.log.Info("using fallback", fields...)
}

func joinLines(lines []string) string {
	return strings.Join(lines, "\n")
}

func bulletList(items []string) string {
	var sb strings.Builder
	for i, s := range items {
		if i > 0 {
			sb.WriteByte('\n')
		}
		fmt.Fprintf(&sb, "- %s", s)
	}
	return sb.String()
}
