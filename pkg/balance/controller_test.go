package balance_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/J3rome/CLEAR-AQA-Dataset-Generator/pkg/adapters/memory"
	"github.com/J3rome/CLEAR-AQA-Dataset-Generator/pkg/balance"
	"github.com/J3rome/CLEAR-AQA-Dataset-Generator/pkg/ports"
)

var trueBucket = ports.Bucket{Family: "existence", Answer: "true"}

func proposal(sceneID, signature string, b ports.Bucket) ports.Proposal {
	return ports.Proposal{SceneID: sceneID, Signature: signature, Bucket: b}
}

func TestController_DuplicateRejection(t *testing.T) {
	c := balance.New(memory.NewStore())
	ctx := context.Background()

	d, err := c.Propose(ctx, proposal("s1", "exist(filter(color,red;scene()))", trueBucket), false)
	require.NoError(t, err)
	assert.True(t, d.Accepted())

	d, err = c.Propose(ctx, proposal("s1", "exist(filter(color,red;scene()))", trueBucket), false)
	require.NoError(t, err)
	assert.Equal(t, ports.VerdictDuplicate, d.Verdict)

	// Same signature in another scene is fine.
	d, err = c.Propose(ctx, proposal("s2", "exist(filter(color,red;scene()))", trueBucket), false)
	require.NoError(t, err)
	assert.True(t, d.Accepted())

	// Relaxing never waives the duplicate check.
	d, err = c.Propose(ctx, proposal("s1", "exist(filter(color,red;scene()))", trueBucket), true)
	require.NoError(t, err)
	assert.Equal(t, ports.VerdictDuplicate, d.Verdict)
}

func TestController_DistributionBound(t *testing.T) {
	other := ports.Bucket{Family: "existence", Answer: "false"}
	c := balance.New(memory.NewStore(),
		balance.WithTargets(balance.Targets{trueBucket: 0.5, other: 0.5}),
		balance.WithTolerance(0),
	)
	ctx := context.Background()

	accepted := map[string]int{}
	for i := 0; i < 40; i++ {
		b := trueBucket
		if i%4 == 0 { // skew the offered stream 3:1 towards "true"
			b = other
		}
		d, err := c.Propose(ctx, proposal("s", fmt.Sprintf("sig-%d", i), b), false)
		require.NoError(t, err)
		if d.Accepted() {
			accepted[b.Answer]++
		}
	}

	total := accepted["true"] + accepted["false"]
	require.Greater(t, total, 0)

	// The overweight bucket is capped near half of what was committed.
	maxTrue := int((0.5)*float64(total)) + 1
	assert.LessOrEqual(t, accepted["true"], maxTrue)
	assert.Empty(t, c.RelaxedBuckets())
}

func TestController_UnconstrainedBucket(t *testing.T) {
	c := balance.New(memory.NewStore(),
		balance.WithTargets(balance.Targets{trueBucket: 0.1}),
		balance.WithTolerance(0),
	)
	ctx := context.Background()

	free := ports.Bucket{Family: "counting", Answer: "3"}
	for i := 0; i < 20; i++ {
		d, err := c.Propose(ctx, proposal("s", fmt.Sprintf("free-%d", i), free), false)
		require.NoError(t, err)
		assert.True(t, d.Accepted())
	}
}

func TestController_RelaxedAcceptance(t *testing.T) {
	c := balance.New(memory.NewStore(),
		balance.WithTargets(balance.Targets{trueBucket: 0.1}),
		balance.WithTolerance(0),
	)
	ctx := context.Background()

	// Fill the store so the bucket is saturated.
	d, err := c.Propose(ctx, proposal("s", "sig-0", trueBucket), false)
	require.NoError(t, err)
	require.True(t, d.Accepted())

	d, err = c.Propose(ctx, proposal("s", "sig-1", trueBucket), false)
	require.NoError(t, err)
	require.Equal(t, ports.VerdictOverQuota, d.Verdict)

	// The forced path commits and flags the bucket.
	d, err = c.Propose(ctx, proposal("s", "sig-1", trueBucket), true)
	require.NoError(t, err)
	assert.True(t, d.Accepted())
	assert.True(t, d.Relaxed)
	assert.Equal(t, []ports.Bucket{trueBucket}, c.RelaxedBuckets())

	counts, total, err := c.Counts(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), counts[trueBucket])
	assert.Equal(t, int64(2), total)
}

// racingStore lands one extra commit right after an acceptance, standing in
// for a concurrent worker hitting the store between commit and flag.
type racingStore struct {
	ports.TallyStore
	interloper *ports.Proposal
}

func (s *racingStore) Propose(ctx context.Context, p ports.Proposal, decide ports.DecideFunc) (ports.Verdict, error) {
	v, err := s.TallyStore.Propose(ctx, p, decide)
	if err == nil && v == ports.VerdictAccepted && s.interloper != nil {
		next := *s.interloper
		s.interloper = nil
		_, _ = s.TallyStore.Propose(ctx, next, func(int64, int64) bool { return true })
	}
	return v, err
}

func TestController_RelaxedFlagIgnoresLaterCommits(t *testing.T) {
	store := &racingStore{TallyStore: memory.NewStore()}
	c := balance.New(store,
		balance.WithTargets(balance.Targets{trueBucket: 0.5}),
		balance.WithTolerance(0),
	)
	ctx := context.Background()

	d, err := c.Propose(ctx, proposal("s", "sig-0", trueBucket), false)
	require.NoError(t, err)
	require.True(t, d.Accepted())

	// A commit to another bucket lands between the forced acceptance and
	// the flag. Judged against the inflated total the bucket would look
	// within bounds; the flag must reflect the tally the commit saw.
	other := proposal("s", "sig-other", ports.Bucket{Family: "existence", Answer: "false"})
	store.interloper = &other

	d, err = c.Propose(ctx, proposal("s", "sig-1", trueBucket), true)
	require.NoError(t, err)
	assert.True(t, d.Accepted())
	assert.True(t, d.Relaxed)
	assert.Equal(t, []ports.Bucket{trueBucket}, c.RelaxedBuckets())
}

func TestController_RelaxWithinBoundsIsNotFlagged(t *testing.T) {
	c := balance.New(memory.NewStore(),
		balance.WithTargets(balance.Targets{trueBucket: 1.0}),
	)
	ctx := context.Background()

	// relax=true on a bucket that fits anyway must not mark it.
	d, err := c.Propose(ctx, proposal("s", "sig-0", trueBucket), true)
	require.NoError(t, err)
	assert.True(t, d.Accepted())
	assert.False(t, d.Relaxed)
	assert.Empty(t, c.RelaxedBuckets())
}
