// Package balance rejects semantic duplicates within a scene and keeps the
// run-wide answer distribution near a configured target. Both checks go
// through one atomic propose step on a ports.TallyStore, so concurrent
// search workers never race between decision and commit.
package balance

import (
	"context"
	"math"
	"sort"
	"sync"

	"github.com/J3rome/CLEAR-AQA-Dataset-Generator/pkg/ports"
)

// Targets maps histogram buckets to their target share of the run (0..1).
// Buckets absent from the map are unconstrained.
type Targets map[ports.Bucket]float64

// Decision is the controller's answer to one proposed instance.
type Decision struct {
	Verdict ports.Verdict
	// Relaxed marks an acceptance that was forced past the distribution
	// bound because search could not produce an alternative binding.
	Relaxed bool
}

// Accepted reports whether the instance was committed.
func (d Decision) Accepted() bool { return d.Verdict == ports.VerdictAccepted }

// Option configures a Controller.
type Option func(*Controller)

// WithTargets sets the target answer distribution.
func WithTargets(t Targets) Option {
	return func(c *Controller) { c.targets = t }
}

// WithTolerance sets how far above its target share a bucket may drift
// before proposals are rejected.
func WithTolerance(tol float64) Option {
	return func(c *Controller) { c.tolerance = tol }
}

// Controller owns the redundancy and distribution state for one run.
// It is an explicitly passed, single-owner object; tests instantiate an
// independent controller each, never shared ambient state.
type Controller struct {
	store     ports.TallyStore
	targets   Targets
	tolerance float64

	mu      sync.Mutex
	relaxed map[ports.Bucket]struct{}
}

// New creates a controller over the given tally store.
func New(store ports.TallyStore, opts ...Option) *Controller {
	c := &Controller{
		store:     store,
		tolerance: 0.05,
		relaxed:   make(map[ports.Bucket]struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Propose offers one candidate instance. With relax=false, the instance is
// rejected when it duplicates a signature already accepted for the scene or
// when committing it would push its bucket past target share + tolerance.
// With relax=true the distribution bound is waived (the duplicate check is
// not): the caller invokes that path only after the search budget failed to
// produce an alternative, and the bucket is flagged in the report.
func (c *Controller) Propose(ctx context.Context, p ports.Proposal, relax bool) (Decision, error) {
	// forced is recorded inside the store's critical section so the
	// strictness verdict matches the exact tally the commit saw, not a
	// snapshot other workers may have advanced since.
	var forced bool
	decide := func(bucket, total int64) bool {
		within := c.withinTarget(p.Bucket, bucket, total)
		if relax {
			forced = !within
			return true
		}
		return within
	}

	verdict, err := c.store.Propose(ctx, p, decide)
	if err != nil {
		return Decision{}, err
	}

	d := Decision{Verdict: verdict}
	// Only flag buckets that would have been rejected strictly; the relax
	// path is also taken for buckets that happen to fit.
	if relax && verdict == ports.VerdictAccepted && forced {
		d.Relaxed = true
		c.mu.Lock()
		c.relaxed[p.Bucket] = struct{}{}
		c.mu.Unlock()
	}
	return d, nil
}

// withinTarget checks whether committing one more record to the bucket keeps
// its share at or below target + tolerance. The ceiling form keeps small
// runs from deadlocking: at low totals every bucket may take at least the
// first record its target admits.
func (c *Controller) withinTarget(b ports.Bucket, bucket, total int64) bool {
	target, constrained := c.targets[b]
	if !constrained {
		return true
	}
	allowed := math.Ceil((target + c.tolerance) * float64(total+1))
	return float64(bucket+1) <= allowed
}

// RelaxedBuckets returns the buckets accepted past their distribution bound,
// sorted for stable reporting.
func (c *Controller) RelaxedBuckets() []ports.Bucket {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]ports.Bucket, 0, len(c.relaxed))
	for b := range c.relaxed {
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Family != out[j].Family {
			return out[i].Family < out[j].Family
		}
		return out[i].Answer < out[j].Answer
	})
	return out
}

// Counts exposes the histogram snapshot for run reports.
func (c *Controller) Counts(ctx context.Context) (map[ports.Bucket]int64, int64, error) {
	counts, err := c.store.Counts(ctx)
	if err != nil {
		return nil, 0, err
	}
	total, err := c.store.Total(ctx)
	if err != nil {
		return nil, 0, err
	}
	return counts, total, nil
}
