// Package app wires configuration, backends, the journal and the
// orchestrator together.
package app

import (
	"context"
	"errors"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/valpere/editeur/internal/backend"
	"github.com/valpere/editeur/internal/config"
	"github.com/valpere/editeur/internal/evaluator"
	"github.com/valpere/editeur/internal/orchestrator"
	"github.com/valpere/editeur/internal/server"
	"github.com/valpere/editeur/internal/store"
)

type App struct {
	Config       config.Config
	Store        *store.Store
	Orchestrator *orchestrator.Orchestrator
	Log          *zap.Logger
}

func New(ctx context.Context, cfg config.Config, log *zap.Logger) (*App, error) {
	if log == nil {
		log = zap.NewNop()
	}

	opts := []orchestrator.Option{orchestrator.WithLogger(log)}

	var st *store.Store
	if cfg.Journal.Path != "" {
		var err error
		st, err = store.New(ctx, cfg.Journal.Path)
		if err != nil {
			return nil, err
		}
		opts = append(opts, orchestrator.WithJournal(st))
	}

	for _, task := range []backend.Task{backend.TaskHarmonize, backend.TaskSuggest, backend.TaskTranslate} {
		opts = append(opts, orchestrator.WithGenerator(task, selectGenerator(cfg, task, log)))
	}

	semantic := evaluator.SemanticScorer(evaluator.ConstantScorer(cfg.Evaluate.SemanticDefault))
	if cfg.Evaluate.Semantic == config.SemanticLLM {
		semantic = &evaluator.LLMScorer{
			Generator: selectGenerator(cfg, backend.TaskEvaluate, log),
			Default:   cfg.Evaluate.SemanticDefault,
			Log:       log,
		}
	}
	opts = append(opts, orchestrator.WithEvaluator(evaluator.New(semantic)))

	orch := orchestrator.New(orchestrator.Config{
		Disabled:            cfg.Backend.Disabled,
		MaxAttempts:         cfg.Orchestrator.MaxAttempts,
		RetryDelay:          cfg.Orchestrator.RetryDelay,
		TranslateDirectives: cfg.Translate.Directives,
		ProtectPlaceholders: cfg.Translate.ProtectPlaceholders,
		DetectSource:        cfg.Translate.DetectSource,
		ValidateOutput:      cfg.Translate.ValidateOutput,
		MaxChunkChars:       cfg.Translate.MaxChunkChars,
	}, opts...)

	return &App{Config: cfg, Store: st, Orchestrator: orch, Log: log}, nil
}

// selectGenerator returns nil when the backend is disabled or lacks
// credentials; the orchestrator then takes the fallback path.
func selectGenerator(cfg config.Config, task backend.Task, log *zap.Logger) backend.Generator {
	if cfg.Backend.Disabled {
		return nil
	}
	bc := cfg.BackendFor(task)
	gen, err := backend.New(bc, log.With(zap.String("operation", string(task))))
	if err != nil {
		if errors.Is(err, backend.ErrNotConfigured) {
			log.Warn("backend not configured, operation will use its fallback",
				zap.String("operation", string(task)),
				zap.String("provider", bc.Provider))
		} else {
			log.Error("cannot build backend", zap.String("operation", string(task)), zap.Error(err))
		}
		return nil
	}
	log.Debug("backend ready",
		zap.String("operation", string(task)),
		zap.String("provider", gen.Name()),
		zap.String("model", gen.Model()))
	return gen
}

func (a *App) Close() error {
	if a.Store != nil {
		return a.Store.Close()
	}
	return nil
}

// Serve runs the HTTP API until ctx is done.
func (a *App) Serve(ctx context.Context) error {
	srv := &http.Server{
		Addr:              a.Config.HTTP.Addr,
		Handler:           server.New(a.Orchestrator, a.Log).Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	a.Log.Info("listening", zap.String("addr", a.Config.HTTP.Addr))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
