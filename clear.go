package clear

import (
	"context"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/J3rome/CLEAR-AQA-Dataset-Generator/internal/logging"
	"github.com/J3rome/CLEAR-AQA-Dataset-Generator/internal/runtime"
	"github.com/J3rome/CLEAR-AQA-Dataset-Generator/pkg/adapters/memory"
	"github.com/J3rome/CLEAR-AQA-Dataset-Generator/pkg/balance"
	"github.com/J3rome/CLEAR-AQA-Dataset-Generator/pkg/catalog"
	"github.com/J3rome/CLEAR-AQA-Dataset-Generator/pkg/dataset"
	"github.com/J3rome/CLEAR-AQA-Dataset-Generator/pkg/observability"
	"github.com/J3rome/CLEAR-AQA-Dataset-Generator/pkg/ports"
	"github.com/J3rome/CLEAR-AQA-Dataset-Generator/pkg/render"
	"github.com/J3rome/CLEAR-AQA-Dataset-Generator/pkg/scene"
)

// Report summarizes one generation run.
type Report = runtime.Report

// Engine is the high-level entry point for the library. It wraps the
// internal runtime and provides a simplified API for consumers.
type Engine struct {
	catalog   *catalog.Catalog
	lexicon   render.Lexicon
	store     ports.TallyStore
	registry  prometheus.Registerer
	logger    *slog.Logger
	policy    render.PatternPolicy
	targets   balance.Targets
	tolerance float64
	opts      runtime.Options
}

// Option defines a functional option for configuring the Engine.
type Option func(*Engine)

// WithSeed fixes the run's random seed; the default is 0.
func WithSeed(seed int64) Option {
	return func(e *Engine) { e.opts.Seed = seed }
}

// WithBudget sets the attempt budget per (scene, template) pair.
func WithBudget(n int) Option {
	return func(e *Engine) { e.opts.Budget = n }
}

// WithMaxPerPair sets how many instances one template may yield per scene.
func WithMaxPerPair(n int) Option {
	return func(e *Engine) { e.opts.MaxPerPair = n }
}

// WithWorkers sets the number of concurrent scene workers. With one worker
// (the default) output is byte-identical across runs for a fixed seed.
func WithWorkers(n int) Option {
	return func(e *Engine) { e.opts.Workers = n }
}

// WithLexicon sets the synonym dictionary used by the text renderer.
func WithLexicon(lex render.Lexicon) Option {
	return func(e *Engine) { e.lexicon = lex }
}

// WithTallyStore injects the controller state store. The default is an
// in-process store; use the redis adapter to share state across processes.
func WithTallyStore(store ports.TallyStore) Option {
	return func(e *Engine) { e.store = store }
}

// WithTargets configures the target answer distribution.
func WithTargets(t balance.Targets) Option {
	return func(e *Engine) { e.targets = t }
}

// WithTolerance sets the allowed drift above a bucket's target share.
func WithTolerance(tol float64) Option {
	return func(e *Engine) { e.tolerance = tol }
}

// WithPatternPolicy selects how text patterns are cycled.
func WithPatternPolicy(p render.PatternPolicy) Option {
	return func(e *Engine) { e.policy = p }
}

// WithLogger configures the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) { e.logger = logger }
}

// WithMetricsRegistry registers the engine's Prometheus metrics on the
// given registerer.
func WithMetricsRegistry(reg prometheus.Registerer) Option {
	return func(e *Engine) { e.registry = reg }
}

// New creates an Engine over a loaded template catalog.
func New(cat *catalog.Catalog, opts ...Option) (*Engine, error) {
	e := &Engine{
		catalog:   cat,
		tolerance: 0.05,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.store == nil {
		e.store = memory.NewStore()
	}
	if e.logger == nil {
		e.logger = logging.NewNop()
	}
	return e, nil
}

// Generate runs the engine over the given scenes and returns the ordered
// record stream plus a run report. Serialization stays with the caller.
func (e *Engine) Generate(ctx context.Context, scenes []*scene.Scene) ([]dataset.Record, *Report, error) {
	controller := balance.New(e.store,
		balance.WithTargets(e.targets),
		balance.WithTolerance(e.tolerance),
	)
	renderer := render.New(e.lexicon, render.WithPatternPolicy(e.policy))
	metrics := observability.New(e.registry)

	engine := runtime.NewEngine(e.catalog, renderer, controller, metrics, e.logger, e.opts)
	return engine.Run(ctx, scenes)
}
