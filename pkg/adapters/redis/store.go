// Package redis provides a ports.TallyStore backed by Redis, so multiple
// generator processes can share one signature set and answer histogram.
package redis

import (
	"context"
	"errors"
	"fmt"
	"strings"

	backend "github.com/redis/go-redis/v9"

	"github.com/J3rome/CLEAR-AQA-Dataset-Generator/pkg/ports"
)

// proposeRetries bounds optimistic-transaction retries under contention.
const proposeRetries = 16

// bucketSep joins family and answer into one hash field. The unit separator
// cannot appear in either part.
const bucketSep = "\x1f"

// Store implements ports.TallyStore using Redis.
type Store struct {
	client *backend.Client
	prefix string
}

type Option func(*Store)

// WithPrefix sets the key prefix for all controller state.
func WithPrefix(prefix string) Option {
	return func(s *Store) {
		s.prefix = prefix
	}
}

// New creates a Redis tally store with its own client.
func New(address, password string, db int, opts ...Option) *Store {
	client := backend.NewClient(&backend.Options{
		Addr:     address,
		Password: password,
		DB:       db,
	})
	return NewFromClient(client, opts...)
}

// NewFromClient creates a Redis tally store from an existing client.
func NewFromClient(client *backend.Client, opts ...Option) *Store {
	store := &Store{
		client: client,
		prefix: "aqa:tally:",
	}
	for _, opt := range opts {
		opt(store)
	}
	return store
}

func (s *Store) signatureKey(sceneID string) string { return s.prefix + "sig:" + sceneID }
func (s *Store) countsKey() string                  { return s.prefix + "counts" }
func (s *Store) totalKey() string                   { return s.prefix + "total" }

func bucketField(b ports.Bucket) string { return b.Family + bucketSep + b.Answer }

// Propose runs the check-and-commit as one optimistic WATCH transaction:
// the signature membership test, the decide call and the increments either
// all observe the same state or the transaction is retried.
func (s *Store) Propose(ctx context.Context, p ports.Proposal, decide ports.DecideFunc) (ports.Verdict, error) {
	sigKey := s.signatureKey(p.SceneID)
	countsKey := s.countsKey()
	totalKey := s.totalKey()

	var verdict ports.Verdict

	txn := func(tx *backend.Tx) error {
		dup, err := tx.SIsMember(ctx, sigKey, p.Signature).Result()
		if err != nil {
			return err
		}
		if dup {
			verdict = ports.VerdictDuplicate
			return nil
		}

		bucket, err := tx.HGet(ctx, countsKey, bucketField(p.Bucket)).Int64()
		if err != nil && !errors.Is(err, backend.Nil) {
			return err
		}
		total, err := tx.Get(ctx, totalKey).Int64()
		if err != nil && !errors.Is(err, backend.Nil) {
			return err
		}

		if !decide(bucket, total) {
			verdict = ports.VerdictOverQuota
			return nil
		}

		_, err = tx.TxPipelined(ctx, func(pipe backend.Pipeliner) error {
			pipe.SAdd(ctx, sigKey, p.Signature)
			pipe.HIncrBy(ctx, countsKey, bucketField(p.Bucket), 1)
			pipe.Incr(ctx, totalKey)
			return nil
		})
		if err != nil {
			return err
		}
		verdict = ports.VerdictAccepted
		return nil
	}

	for i := 0; i < proposeRetries; i++ {
		err := s.client.Watch(ctx, txn, sigKey, countsKey, totalKey)
		if err == nil {
			return verdict, nil
		}
		if errors.Is(err, backend.TxFailedErr) {
			continue // a concurrent commit touched our keys
		}
		return 0, fmt.Errorf("redis propose: %w", err)
	}
	return 0, fmt.Errorf("redis propose: gave up after %d conflicted attempts", proposeRetries)
}

// Counts returns the answer histogram snapshot.
func (s *Store) Counts(ctx context.Context) (map[ports.Bucket]int64, error) {
	fields, err := s.client.HGetAll(ctx, s.countsKey()).Result()
	if err != nil {
		return nil, fmt.Errorf("redis counts: %w", err)
	}
	out := make(map[ports.Bucket]int64, len(fields))
	for field, raw := range fields {
		family, answer, ok := strings.Cut(field, bucketSep)
		if !ok {
			continue
		}
		var n int64
		if _, err := fmt.Sscanf(raw, "%d", &n); err != nil {
			return nil, fmt.Errorf("redis counts: bad value %q for %q", raw, field)
		}
		out[ports.Bucket{Family: family, Answer: answer}] = n
	}
	return out, nil
}

// Total returns the number of accepted proposals.
func (s *Store) Total(ctx context.Context) (int64, error) {
	n, err := s.client.Get(ctx, s.totalKey()).Int64()
	if err != nil {
		if errors.Is(err, backend.Nil) {
			return 0, nil
		}
		return 0, fmt.Errorf("redis total: %w", err)
	}
	return n, nil
}
