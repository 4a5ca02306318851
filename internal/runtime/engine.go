// Package runtime drives the generation run: scenes crossed with templates,
// search per pair, controller arbitration, rendering, and the final ordered
// record stream. All search-time failures stay below this package; the only
// errors it surfaces are load-level and context cancellation.
package runtime

import (
	"context"
	"fmt"
	"hash/fnv"
	"log/slog"
	"sync"

	"github.com/J3rome/CLEAR-AQA-Dataset-Generator/pkg/balance"
	"github.com/J3rome/CLEAR-AQA-Dataset-Generator/pkg/catalog"
	"github.com/J3rome/CLEAR-AQA-Dataset-Generator/pkg/dataset"
	"github.com/J3rome/CLEAR-AQA-Dataset-Generator/pkg/observability"
	"github.com/J3rome/CLEAR-AQA-Dataset-Generator/pkg/ports"
	"github.com/J3rome/CLEAR-AQA-Dataset-Generator/pkg/program"
	"github.com/J3rome/CLEAR-AQA-Dataset-Generator/pkg/render"
	"github.com/J3rome/CLEAR-AQA-Dataset-Generator/pkg/scene"
	"github.com/J3rome/CLEAR-AQA-Dataset-Generator/pkg/synth"
)

// Options carries the run configuration, resolved by the facade package.
type Options struct {
	Seed       int64
	Budget     int
	MaxPerPair int // max accepted instances per (scene, template)
	Workers    int
}

// Engine is the orchestrator. Build one per run.
type Engine struct {
	catalog    *catalog.Catalog
	renderer   *render.Renderer
	controller *balance.Controller
	metrics    *observability.Metrics
	logger     *slog.Logger
	opts       Options
}

// NewEngine wires the orchestrator. Every collaborator is required; the
// facade package fills in defaults.
func NewEngine(cat *catalog.Catalog, renderer *render.Renderer, controller *balance.Controller,
	metrics *observability.Metrics, logger *slog.Logger, opts Options) *Engine {
	if opts.Budget <= 0 {
		opts.Budget = synth.DefaultBudget
	}
	if opts.MaxPerPair <= 0 {
		opts.MaxPerPair = 1
	}
	if opts.Workers <= 0 {
		opts.Workers = 1
	}
	return &Engine{
		catalog:    cat,
		renderer:   renderer,
		controller: controller,
		metrics:    metrics,
		logger:     logger,
		opts:       opts,
	}
}

// Run generates records for every (scene, template) pair. Scenes fan out
// over a bounded worker pool; each scene's mutable search state is local,
// and the controller is the single serialized resource. The returned
// records are ordered by scene input order, then catalog template order,
// then acceptance order.
func (e *Engine) Run(ctx context.Context, scenes []*scene.Scene) ([]dataset.Record, *Report, error) {
	report := newReport(e.opts.Seed, len(scenes))

	type sceneResult struct {
		records   []dataset.Record
		skipped   bool
		exhausted int
	}
	results := make([]sceneResult, len(scenes))

	jobs := make(chan int)
	var wg sync.WaitGroup
	var firstErr error
	var errOnce sync.Once

	// runCtx lets a failing worker unblock the feed loop below; otherwise
	// a store error would leave Run parked on the jobs channel.
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	worker := func() {
		defer wg.Done()
		for i := range jobs {
			sc := scenes[i]
			if err := sc.CheckVocabulary(e.catalog.Attributes(), e.catalog.Relations()); err != nil {
				e.logger.Warn("skipping scene", "scene", sc.ID, "err", err)
				e.metrics.ScenesSkipped.Inc()
				results[i].skipped = true
				continue
			}
			records, exhausted, err := e.runScene(runCtx, sc)
			if err != nil {
				errOnce.Do(func() {
					firstErr = err
					cancel()
				})
				return
			}
			results[i] = sceneResult{records: records, exhausted: exhausted}
		}
	}

	wg.Add(e.opts.Workers)
	for w := 0; w < e.opts.Workers; w++ {
		go worker()
	}

feed:
	for i := range scenes {
		select {
		case jobs <- i:
		case <-runCtx.Done():
			break feed
		}
	}
	close(jobs)
	wg.Wait()

	if firstErr != nil {
		return nil, nil, firstErr
	}
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}

	var records []dataset.Record
	for i, res := range results {
		if res.skipped {
			report.SkippedScenes = append(report.SkippedScenes, scenes[i].ID)
			continue
		}
		records = append(records, res.records...)
		report.ExhaustedPairs += res.exhausted
	}

	if err := report.finish(ctx, e.controller, len(records)); err != nil {
		return nil, nil, err
	}
	return records, report, nil
}

// runScene runs every template against one scene.
func (e *Engine) runScene(ctx context.Context, sc *scene.Scene) ([]dataset.Record, int, error) {
	var records []dataset.Record
	exhausted := 0

	for _, tpl := range e.catalog.Templates {
		if err := ctx.Err(); err != nil {
			return nil, 0, err
		}
		accepted, err := e.runPair(ctx, sc, tpl)
		if err != nil {
			return nil, 0, err
		}
		if len(accepted) == 0 {
			exhausted++
			e.metrics.SearchExhausted.Inc()
		}
		records = append(records, accepted...)
	}

	e.logger.Debug("scene done", "scene", sc.ID, "records", len(records))
	return records, exhausted, nil
}

// runPair instantiates one template against one scene, arbitrating each
// candidate through the controller. A candidate rejected only for balance
// is retained: if the search exhausts without any acceptance, it is
// re-proposed with the distribution bound relaxed, so balance stays a soft
// constraint that never stalls generation.
func (e *Engine) runPair(ctx context.Context, sc *scene.Scene, tpl *catalog.Template) ([]dataset.Record, error) {
	search := synth.New(sc, tpl, pairSeed(e.opts.Seed, sc.ID, tpl.ID), synth.WithBudget(e.opts.Budget))

	var records []dataset.Record
	var deferred *synth.Instance

	for len(records) < e.opts.MaxPerPair {
		inst, err := search.Next()
		if err != nil {
			break // exhausted: expected, zero or fewer instances than asked
		}

		decision, err := e.propose(ctx, sc.ID, inst, false)
		if err != nil {
			return nil, err
		}
		switch decision.Verdict {
		case ports.VerdictAccepted:
			rec, err := e.record(sc, tpl, inst, false, len(records))
			if err != nil {
				return nil, err
			}
			records = append(records, rec)
		case ports.VerdictDuplicate:
			e.metrics.Rejections.WithLabelValues("duplicate").Inc()
		case ports.VerdictOverQuota:
			e.metrics.Rejections.WithLabelValues("balance").Inc()
			if deferred == nil {
				deferred = inst
			}
		}
	}

	e.metrics.SearchAttempts.Add(float64(search.Attempts()))
	pruned := search.Pruned()
	e.metrics.CandidatesPruned.WithLabelValues("eval").Add(float64(pruned.EvalFailures))
	e.metrics.CandidatesPruned.WithLabelValues("constraint").Add(float64(pruned.ConstraintViolations))

	if len(records) == 0 && deferred != nil {
		decision, err := e.propose(ctx, sc.ID, deferred, true)
		if err != nil {
			return nil, err
		}
		if decision.Accepted() {
			rec, err := e.record(sc, tpl, deferred, decision.Relaxed, 0)
			if err != nil {
				return nil, err
			}
			records = append(records, rec)
			if decision.Relaxed {
				e.logger.Info("balance relaxed", "scene", sc.ID, "template", tpl.ID,
					"answer", deferred.Answer.Answer())
			}
		}
	}

	return records, nil
}

func (e *Engine) propose(ctx context.Context, sceneID string, inst *synth.Instance, relax bool) (balance.Decision, error) {
	return e.controller.Propose(ctx, ports.Proposal{
		SceneID:   sceneID,
		Signature: program.Signature(inst.Program),
		Bucket:    ports.Bucket{Family: inst.Family, Answer: inst.Answer.Answer()},
	}, relax)
}

func (e *Engine) record(sc *scene.Scene, tpl *catalog.Template, inst *synth.Instance, relaxed bool, index int) (dataset.Record, error) {
	seed := renderSeed(e.opts.Seed, sc.ID, tpl.ID, index)
	question, err := e.renderer.Render(sc.ID, tpl, inst.Binding, inst.Answer, seed)
	if err != nil {
		return dataset.Record{}, fmt.Errorf("render %s/%s: %w", sc.ID, tpl.ID, err)
	}
	e.metrics.RecordsAccepted.WithLabelValues(inst.Family).Inc()
	return dataset.Record{
		SceneID:        sc.ID,
		TemplateID:     tpl.ID,
		Family:         inst.Family,
		Question:       question,
		Program:        inst.Program,
		Binding:        inst.Binding,
		Answer:         inst.Answer.Answer(),
		BalanceRelaxed: relaxed,
	}, nil
}

// pairSeed derives the deterministic search seed for one (scene, template)
// pair from the run seed, independent of worker scheduling.
func pairSeed(runSeed int64, sceneID, templateID string) int64 {
	h := fnv.New64a()
	fmt.Fprintf(h, "%d\x00%s\x00%s", runSeed, sceneID, templateID)
	return int64(h.Sum64())
}

func renderSeed(runSeed int64, sceneID, templateID string, index int) int64 {
	h := fnv.New64a()
	fmt.Fprintf(h, "%d\x00%s\x00%s\x00render\x00%d", runSeed, sceneID, templateID, index)
	return int64(h.Sum64())
}
