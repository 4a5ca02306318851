package memory

import (
	"context"
	"sync"

	"github.com/J3rome/CLEAR-AQA-Dataset-Generator/pkg/ports"
)

// Store implements ports.TallyStore in process memory.
// Safe for concurrent use; a single mutex linearizes every proposal, which
// is exactly the serialization the balance controller requires.
type Store struct {
	mu         sync.Mutex
	signatures map[string]map[string]struct{} // scene id -> accepted signatures
	counts     map[ports.Bucket]int64
	total      int64
}

// NewStore creates an empty in-memory tally store.
func NewStore() *Store {
	return &Store{
		signatures: make(map[string]map[string]struct{}),
		counts:     make(map[ports.Bucket]int64),
	}
}

// Propose implements the atomic check-and-commit described by the port.
func (s *Store) Propose(ctx context.Context, p ports.Proposal, decide ports.DecideFunc) (ports.Verdict, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sceneSigs, ok := s.signatures[p.SceneID]
	if !ok {
		sceneSigs = make(map[string]struct{})
		s.signatures[p.SceneID] = sceneSigs
	}
	if _, dup := sceneSigs[p.Signature]; dup {
		return ports.VerdictDuplicate, nil
	}

	if !decide(s.counts[p.Bucket], s.total) {
		return ports.VerdictOverQuota, nil
	}

	sceneSigs[p.Signature] = struct{}{}
	s.counts[p.Bucket]++
	s.total++
	return ports.VerdictAccepted, nil
}

// Counts returns a copy of the answer histogram.
func (s *Store) Counts(ctx context.Context) (map[ports.Bucket]int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make(map[ports.Bucket]int64, len(s.counts))
	for b, n := range s.counts {
		out[b] = n
	}
	return out, nil
}

// Total returns the number of accepted proposals.
func (s *Store) Total(ctx context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.total, nil
}
