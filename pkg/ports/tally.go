// Package ports defines the interfaces between the engine core and its
// pluggable collaborators.
package ports

import "context"

// Bucket identifies one cell of the answer histogram: a template family
// paired with an answer value.
type Bucket struct {
	Family string
	Answer string
}

// Proposal is one accepted search instance offered to the controller state.
type Proposal struct {
	SceneID   string
	Signature string
	Bucket    Bucket
}

// Verdict is the controller store's atomic decision on a proposal.
type Verdict uint8

const (
	// VerdictAccepted: signature recorded and bucket incremented.
	VerdictAccepted Verdict = iota
	// VerdictDuplicate: the scene already accepted this signature.
	VerdictDuplicate
	// VerdictOverQuota: the decide function rejected the acceptance.
	VerdictOverQuota
)

func (v Verdict) String() string {
	switch v {
	case VerdictAccepted:
		return "accepted"
	case VerdictDuplicate:
		return "duplicate"
	case VerdictOverQuota:
		return "over_quota"
	default:
		return "unknown"
	}
}

// DecideFunc inspects the tally the proposal's bucket currently holds and
// decides whether acceptance keeps the distribution within bounds. It runs
// inside the store's critical section, so it must be fast and must not
// call back into the store; stores may invoke it more than once when a
// commit is retried.
type DecideFunc func(bucketCount, total int64) bool

// TallyStore linearizes the controller state shared across concurrent
// search attempts: per-scene signature sets and the per-run answer
// histogram. Propose is check-and-commit in one atomic step; callers never
// observe a state between the decision and the increment.
type TallyStore interface {
	// Propose checks the proposal's signature against the scene's accepted
	// set, consults decide with the bucket's current tally, and on
	// acceptance records the signature and increments the bucket, all
	// atomically.
	Propose(ctx context.Context, p Proposal, decide DecideFunc) (Verdict, error)

	// Counts returns a snapshot of the answer histogram.
	Counts(ctx context.Context) (map[Bucket]int64, error)

	// Total returns the number of accepted proposals.
	Total(ctx context.Context) (int64, error)
}
