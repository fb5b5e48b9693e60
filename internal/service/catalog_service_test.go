package service

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"pricing-portal/internal/cache"
	"pricing-portal/internal/models"
	"pricing-portal/internal/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubRows struct {
	rows []map[string]any
	err  error
}

func (s *stubRows) ListRows(ctx context.Context, table string, opts store.ListOptions) ([]map[string]any, error) {
	return s.rows, s.err
}

type stubAdjuster struct {
	adj models.ResolvedAdjustment
}

func (s *stubAdjuster) Resolve(ctx context.Context, userID, table string) models.ResolvedAdjustment {
	return s.adj
}

type stubFallback struct {
	raw json.RawMessage
	err error
}

func (s *stubFallback) Raw(table string) (json.RawMessage, error) {
	return s.raw, s.err
}

func TestListTableAppliesAdjustment(t *testing.T) {
	rows := &stubRows{rows: []map[string]any{{"name": "Forbes", "price": float64(4800)}}}
	adjuster := &stubAdjuster{adj: models.ResolvedAdjustment{Total: 10}}
	svc := NewCatalogService(rows, adjuster, &stubFallback{}, cache.Noop{})

	listing, err := svc.ListTable(context.Background(), models.TablePublications, "user-1")
	require.NoError(t, err)

	assert.False(t, listing.Fallback)
	require.Len(t, listing.Rows, 1)
	assert.Equal(t, 5280.0, listing.Rows[0]["price"])
}

func TestListTableZeroedAdjustmentStillReturnsRows(t *testing.T) {
	// A failed rule resolution degrades to unadjusted rows, never an error
	// response.
	rows := &stubRows{rows: []map[string]any{{"name": "Forbes", "price": float64(4800)}}}
	adjuster := &stubAdjuster{adj: models.ResolvedAdjustment{}}
	svc := NewCatalogService(rows, adjuster, &stubFallback{}, cache.Noop{})

	listing, err := svc.ListTable(context.Background(), models.TablePublications, "user-1")
	require.NoError(t, err)

	assert.Equal(t, 4800.0, listing.Rows[0]["price"])
}

func TestListTableFallsBackOnStoreError(t *testing.T) {
	snapshot := json.RawMessage(`[{"name":"Forbes","price":4800}]`)
	rows := &stubRows{err: errors.New("connection refused")}
	svc := NewCatalogService(rows, &stubAdjuster{}, &stubFallback{raw: snapshot}, cache.Noop{})

	listing, err := svc.ListTable(context.Background(), models.TablePublications, "")
	require.NoError(t, err)

	assert.True(t, listing.Fallback)
	assert.Equal(t, snapshot, listing.Raw)
	assert.Nil(t, listing.Rows)
}

func TestListTableFallsBackOnEmptyTable(t *testing.T) {
	snapshot := json.RawMessage(`[{"station":"KTLA 5","price":"$6500"}]`)
	rows := &stubRows{rows: []map[string]any{}}
	svc := NewCatalogService(rows, &stubAdjuster{}, &stubFallback{raw: snapshot}, cache.Noop{})

	listing, err := svc.ListTable(context.Background(), models.TableBroadcastTV, "")
	require.NoError(t, err)

	assert.True(t, listing.Fallback)
	assert.Equal(t, snapshot, listing.Raw)
}

func TestListTableUnknownTable(t *testing.T) {
	svc := NewCatalogService(&stubRows{}, &stubAdjuster{}, &stubFallback{}, cache.Noop{})

	_, err := svc.ListTable(context.Background(), "not_a_table", "")
	assert.ErrorIs(t, err, ErrUnknownTable)
}
