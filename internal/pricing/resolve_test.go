package pricing

import (
	"context"
	"errors"
	"testing"
	"time"

	"pricing-portal/internal/cache"
	"pricing-portal/internal/models"

	"github.com/stretchr/testify/assert"
)

// stubRuleSource serves canned rule lists per scope, or a fixed error.
type stubRuleSource struct {
	global []models.AdjustmentRule
	user   []models.AdjustmentRule
	err    error
}

func (s *stubRuleSource) ListRules(ctx context.Context, scope, table, userID string) ([]models.AdjustmentRule, error) {
	if s.err != nil {
		return nil, s.err
	}
	if scope == models.ScopeUser {
		return s.user, nil
	}
	return s.global, nil
}

func newTestResolver(src RuleSource) *Resolver {
	return NewResolver(src, cache.Noop{}, time.Minute, 3, time.Millisecond)
}

func TestResolveGlobalPercentage(t *testing.T) {
	src := &stubRuleSource{
		global: []models.AdjustmentRule{
			{Scope: models.ScopeGlobal, TableName: models.TableSocialPosts, Percentage: 10},
		},
	}
	r := newTestResolver(src)

	adj := r.Resolve(context.Background(), "", models.TableSocialPosts)

	assert.Equal(t, 10.0, adj.Global)
	assert.Equal(t, 0.0, adj.User)
	assert.Equal(t, 10.0, adj.Total)
	assert.Nil(t, adj.Exact)

	assert.Equal(t, 110.0, ApplyToScalar(100, adj))
}

func TestResolveGlobalPlusUserPercentage(t *testing.T) {
	src := &stubRuleSource{
		global: []models.AdjustmentRule{{Percentage: 10}},
		user:   []models.AdjustmentRule{{Percentage: -5}},
	}
	r := newTestResolver(src)

	adj := r.Resolve(context.Background(), "user-1", models.TablePublications)

	assert.Equal(t, 10.0, adj.Global)
	assert.Equal(t, -5.0, adj.User)
	assert.Equal(t, 5.0, adj.Total)

	assert.Equal(t, 210.0, ApplyToScalar(200, adj))
}

func TestResolveAnonymousSkipsUserRules(t *testing.T) {
	src := &stubRuleSource{
		global: []models.AdjustmentRule{{Percentage: 10}},
		user:   []models.AdjustmentRule{{Percentage: 50}},
	}
	r := newTestResolver(src)

	adj := r.Resolve(context.Background(), "", models.TablePublications)
	assert.Equal(t, 10.0, adj.Total)
}

func TestResolveNoRules(t *testing.T) {
	r := newTestResolver(&stubRuleSource{})

	adj := r.Resolve(context.Background(), "user-1", models.TableListicles)

	assert.Equal(t, 0.0, adj.Global)
	assert.Equal(t, 0.0, adj.User)
	assert.Equal(t, 0.0, adj.Total)
	assert.True(t, adj.IsZero())
	assert.Equal(t, 123.0, ApplyToScalar(123, adj))
}

func TestResolveUnknownTable(t *testing.T) {
	src := &stubRuleSource{global: []models.AdjustmentRule{{Percentage: 50}}}
	r := newTestResolver(src)

	adj := r.Resolve(context.Background(), "user-1", "not_a_table")
	assert.True(t, adj.IsZero())
}

func TestResolveFailsOpenOnStoreError(t *testing.T) {
	src := &stubRuleSource{err: errors.New("connection refused")}
	r := newTestResolver(src)

	adj := r.Resolve(context.Background(), "user-1", models.TableBestSellers)
	assert.True(t, adj.IsZero())
}

// flakyRuleSource fails the first n calls, then serves its rule list.
type flakyRuleSource struct {
	failures int
	calls    int
	rules    []models.AdjustmentRule
}

func (f *flakyRuleSource) ListRules(ctx context.Context, scope, table, userID string) ([]models.AdjustmentRule, error) {
	f.calls++
	if f.failures > 0 {
		f.failures--
		return nil, errors.New("i/o timeout")
	}
	return f.rules, nil
}

func TestResolveRetriesTransientFetchFailure(t *testing.T) {
	src := &flakyRuleSource{
		failures: 1,
		rules:    []models.AdjustmentRule{{Percentage: 10}},
	}
	r := newTestResolver(src)

	adj := r.Resolve(context.Background(), "", models.TableSocialPosts)

	assert.Equal(t, 10.0, adj.Total)
	assert.Equal(t, 2, src.calls)
}

func TestResolveFailsOpenOnlyAfterRetriesExhausted(t *testing.T) {
	src := &flakyRuleSource{
		failures: 10,
		rules:    []models.AdjustmentRule{{Percentage: 10}},
	}
	r := NewResolver(src, cache.Noop{}, time.Minute, 3, time.Millisecond)

	adj := r.Resolve(context.Background(), "", models.TableSocialPosts)

	assert.True(t, adj.IsZero())
	assert.Equal(t, 3, src.calls)
}

func TestResolveUsesCachedGlobalRules(t *testing.T) {
	src := &stubRuleSource{
		global: []models.AdjustmentRule{{Percentage: 10}},
	}
	c := newMemoryCache()
	r := NewResolver(src, c, time.Minute, 1, time.Millisecond)

	first := r.Resolve(context.Background(), "", models.TablePublications)
	assert.Equal(t, 10.0, first.Total)

	// The store can now fail for the global scope; the cached list serves.
	src.err = errors.New("store down")
	second := r.Resolve(context.Background(), "", models.TablePublications)
	assert.Equal(t, 10.0, second.Total)
}

// memoryCache is a map-backed Cache for resolver tests.
type memoryCache struct {
	entries map[string]string
}

func newMemoryCache() *memoryCache {
	return &memoryCache{entries: map[string]string{}}
}

func (m *memoryCache) Get(ctx context.Context, key string) (string, error) {
	if v, ok := m.entries[key]; ok {
		return v, nil
	}
	return "", cache.ErrMiss
}

func (m *memoryCache) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	m.entries[key] = value
	return nil
}

func (m *memoryCache) Invalidate(ctx context.Context, key string) error {
	delete(m.entries, key)
	return nil
}

func TestCombinePercentagesSumWithinScope(t *testing.T) {
	adj := Combine(
		[]models.AdjustmentRule{{Percentage: 10}, {Percentage: 15}},
		[]models.AdjustmentRule{{Percentage: -5}, {Percentage: 2}},
	)

	assert.Equal(t, 25.0, adj.Global)
	assert.Equal(t, -3.0, adj.User)
	assert.Equal(t, 22.0, adj.Total)
}

func TestCombineExactOverridesPercentagesInScope(t *testing.T) {
	adj := Combine(
		[]models.AdjustmentRule{{Percentage: 10}, {ExactAmount: fptr(50)}},
		nil,
	)

	assert.Equal(t, 50.0, adj.Global)
	assert.NotNil(t, adj.Exact)
	assert.Equal(t, 50.0, *adj.Exact)

	// Any price collapses to the exact amount.
	assert.Equal(t, 50.0, ApplyToScalar(999, adj))
}

func TestCombineMostRecentExactWins(t *testing.T) {
	older := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	newer := older.Add(48 * time.Hour)

	adj := Combine(
		[]models.AdjustmentRule{
			{ExactAmount: fptr(75), UpdatedAt: older},
			{ExactAmount: fptr(60), UpdatedAt: newer},
			{ExactAmount: fptr(90), UpdatedAt: older.Add(time.Hour)},
		},
		nil,
	)

	assert.Equal(t, 60.0, *adj.Exact)
}

func TestCombineUserExactBeatsGlobalExact(t *testing.T) {
	// Most caller-specific configuration wins when both scopes carry an
	// exact override.
	adj := Combine(
		[]models.AdjustmentRule{{ExactAmount: fptr(100)}},
		[]models.AdjustmentRule{{ExactAmount: fptr(40)}},
	)

	assert.Equal(t, 40.0, *adj.Exact)
	assert.Equal(t, 40.0, adj.Total)
	assert.Equal(t, 100.0, adj.Global)
	assert.Equal(t, 40.0, adj.User)
}

func TestCombineGlobalExactWithUserPercentage(t *testing.T) {
	adj := Combine(
		[]models.AdjustmentRule{{ExactAmount: fptr(50)}},
		[]models.AdjustmentRule{{Percentage: -5}},
	)

	// An exact override short-circuits percentage math entirely.
	assert.Equal(t, 50.0, *adj.Exact)
	assert.Equal(t, 50.0, ApplyToScalar(200, adj))
}

func TestCombineTightestBounds(t *testing.T) {
	adj := Combine(
		[]models.AdjustmentRule{
			{Percentage: 20, MinPrice: fptr(0), MaxPrice: fptr(100)},
			{Percentage: 5, MinPrice: fptr(10)},
		},
		[]models.AdjustmentRule{
			{Percentage: 1, MaxPrice: fptr(80)},
		},
	)

	assert.Equal(t, 10.0, *adj.MinPrice)
	assert.Equal(t, 80.0, *adj.MaxPrice)
}

func TestCombineNoBoundsMeansNoClamping(t *testing.T) {
	adj := Combine([]models.AdjustmentRule{{Percentage: 1000}}, nil)
	assert.Nil(t, adj.MinPrice)
	assert.Nil(t, adj.MaxPrice)
	assert.Equal(t, 1100.0, ApplyToScalar(100, adj))
}

func TestCombineMalformedRuleContributesZero(t *testing.T) {
	adj := Combine(
		[]models.AdjustmentRule{
			{Percentage: 10},
			// Inverted bounds mark the rule malformed.
			{Percentage: 50, MinPrice: fptr(200), MaxPrice: fptr(100)},
		},
		nil,
	)

	assert.Equal(t, 10.0, adj.Total)
	assert.Nil(t, adj.MinPrice)
	assert.Nil(t, adj.MaxPrice)
}

func TestCombineBoundsClampScenario(t *testing.T) {
	adj := Combine(
		[]models.AdjustmentRule{{Percentage: 20, MinPrice: fptr(0), MaxPrice: fptr(100)}},
		nil,
	)

	// Raw 108 clamps to the configured ceiling.
	assert.Equal(t, 100.0, ApplyToScalar(90, adj))
}
