package tests

import (
	"context"
	"testing"

	"github.com/J3rome/CLEAR-AQA-Dataset-Generator/pkg/ports"
)

// TallyStoreContractTest is a reusable suite verifying that an adapter
// complies with ports.TallyStore. The store must be empty when passed in.
func TallyStoreContractTest(t *testing.T, store ports.TallyStore) {
	t.Helper()
	ctx := context.Background()

	acceptAll := func(bucket, total int64) bool { return true }

	proposal := ports.Proposal{
		SceneID:   "scene_0",
		Signature: "count(filter(color,red;scene()))",
		Bucket:    ports.Bucket{Family: "count", Answer: "2"},
	}

	t.Run("Propose_Accepts", func(t *testing.T) {
		verdict, err := store.Propose(ctx, proposal, acceptAll)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if verdict != ports.VerdictAccepted {
			t.Errorf("expected accepted, got %s", verdict)
		}
	})

	t.Run("Propose_RejectsDuplicateSignature", func(t *testing.T) {
		verdict, err := store.Propose(ctx, proposal, acceptAll)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if verdict != ports.VerdictDuplicate {
			t.Errorf("expected duplicate, got %s", verdict)
		}
	})

	t.Run("Propose_SignaturesAreScopedPerScene", func(t *testing.T) {
		other := proposal
		other.SceneID = "scene_1"
		verdict, err := store.Propose(ctx, other, acceptAll)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if verdict != ports.VerdictAccepted {
			t.Errorf("same signature in another scene should be accepted, got %s", verdict)
		}
	})

	t.Run("Propose_DecideSeesCurrentTally", func(t *testing.T) {
		var sawBucket, sawTotal int64
		p := proposal
		p.Signature = "exist(filter(color,blue;scene()))"
		p.Bucket = ports.Bucket{Family: "count", Answer: "2"}
		_, err := store.Propose(ctx, p, func(bucket, total int64) bool {
			sawBucket, sawTotal = bucket, total
			return true
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if sawBucket != 2 {
			t.Errorf("decide saw bucket=%d, want 2", sawBucket)
		}
		if sawTotal != 2 {
			t.Errorf("decide saw total=%d, want 2", sawTotal)
		}
	})

	t.Run("Propose_RejectionDoesNotCommit", func(t *testing.T) {
		p := proposal
		p.Signature = "rejected-signature"
		p.Bucket = ports.Bucket{Family: "exist", Answer: "true"}
		verdict, err := store.Propose(ctx, p, func(bucket, total int64) bool { return false })
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if verdict != ports.VerdictOverQuota {
			t.Errorf("expected over_quota, got %s", verdict)
		}

		// Neither the signature nor the counts may have been recorded.
		verdict, err = store.Propose(ctx, p, acceptAll)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if verdict != ports.VerdictAccepted {
			t.Errorf("rejected signature should still be acceptable later, got %s", verdict)
		}
	})

	t.Run("Counts_And_Total", func(t *testing.T) {
		counts, err := store.Counts(ctx)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got := counts[ports.Bucket{Family: "count", Answer: "2"}]; got != 3 {
			t.Errorf("count bucket = %d, want 3", got)
		}
		if got := counts[ports.Bucket{Family: "exist", Answer: "true"}]; got != 1 {
			t.Errorf("exist bucket = %d, want 1", got)
		}
		total, err := store.Total(ctx)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if total != 4 {
			t.Errorf("total = %d, want 4", total)
		}
	})
}
