package runtime

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/J3rome/CLEAR-AQA-Dataset-Generator/pkg/balance"
)

// Report summarizes one generation run for the caller. It is informational;
// nothing in it changes the emitted records.
type Report struct {
	RunID          string           `json:"run_id"`
	Seed           int64            `json:"seed"`
	Scenes         int              `json:"scenes"`
	SkippedScenes  []string         `json:"skipped_scenes,omitempty"`
	Records        int              `json:"records"`
	ExhaustedPairs int              `json:"exhausted_pairs"`
	Buckets        map[string]int64 `json:"buckets,omitempty"`
	RelaxedBuckets []string         `json:"relaxed_buckets,omitempty"`
}

func newReport(seed int64, scenes int) *Report {
	return &Report{
		RunID:  uuid.NewString(),
		Seed:   seed,
		Scenes: scenes,
	}
}

// finish folds the controller's final tallies into the report.
func (r *Report) finish(ctx context.Context, controller *balance.Controller, records int) error {
	r.Records = records

	counts, _, err := controller.Counts(ctx)
	if err != nil {
		return fmt.Errorf("controller counts: %w", err)
	}
	if len(counts) > 0 {
		r.Buckets = make(map[string]int64, len(counts))
		for b, n := range counts {
			r.Buckets[b.Family+"="+b.Answer] = n
		}
	}
	for _, b := range controller.RelaxedBuckets() {
		r.RelaxedBuckets = append(r.RelaxedBuckets, b.Family+"="+b.Answer)
	}
	return nil
}
