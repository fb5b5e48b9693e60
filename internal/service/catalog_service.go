package service

import (
	"context"
	"encoding/json"
	"time"

	"pricing-portal/internal/cache"
	"pricing-portal/internal/models"
	"pricing-portal/internal/pricing"
	"pricing-portal/internal/store"
	"pricing-portal/internal/util"

	"go.uber.org/zap"
)

// rowCacheTTL bounds how long a cached listing may lag behind admin writes.
const rowCacheTTL = 5 * time.Minute

// RowSource is the record store surface the catalog needs.
type RowSource interface {
	ListRows(ctx context.Context, table string, opts store.ListOptions) ([]map[string]any, error)
}

// Adjuster resolves the pricing adjustment for one caller and table.
type Adjuster interface {
	Resolve(ctx context.Context, userID, table string) models.ResolvedAdjustment
}

// FallbackSource serves the static snapshot for a table.
type FallbackSource interface {
	Raw(table string) (json.RawMessage, error)
}

// Listing is one table's rows ready for serialization. Exactly one of Rows
// and Raw is set; Raw carries the verbatim fallback snapshot.
type Listing struct {
	Table    string
	Rows     []map[string]any
	Raw      json.RawMessage
	Fallback bool
}

// CatalogService serves priced inventory listings: rows from the record
// store (or the fallback snapshot when it degrades), with each caller's
// resolved adjustment applied to the table's declared price shape.
type CatalogService struct {
	rows     RowSource
	adjuster Adjuster
	fallback FallbackSource
	cache    cache.Cache
	logger   *zap.Logger
}

// NewCatalogService creates a new catalog service
func NewCatalogService(rows RowSource, adjuster Adjuster, fb FallbackSource, c cache.Cache) *CatalogService {
	return &CatalogService{
		rows:     rows,
		adjuster: adjuster,
		fallback: fb,
		cache:    c,
		logger:   util.NamedLogger("catalog"),
	}
}

// RowCacheKey is the cache key holding a table's unadjusted rows.
func RowCacheKey(table string) string {
	return "rows:" + table
}

// ListTable returns a table's rows with the caller's adjustment applied.
// userID may be empty for anonymous callers, in which case only global rules
// apply. Store failures and empty tables degrade to the fallback snapshot;
// the endpoint never errors out because pricing could not be resolved.
func (s *CatalogService) ListTable(ctx context.Context, table, userID string) (*Listing, error) {
	ctx, span := util.StartSpan(ctx, "CatalogService.ListTable")
	defer span.End()

	spec, ok := models.TableFor(table)
	if !ok {
		return nil, ErrUnknownTable
	}

	rows, err := s.fetchRows(ctx, spec)
	if err != nil || len(rows) == 0 {
		reason := "empty"
		if err != nil {
			reason = "store_error"
			s.logger.Warn("Record store read failed, serving fallback",
				zap.String("table", table),
				zap.Error(err))
		}
		return s.serveFallback(table, reason)
	}

	adj := s.adjuster.Resolve(ctx, userID, table)
	adjusted := pricing.ApplyToRows(rows, spec, adj)

	util.ListingRowsReturned.WithLabelValues(table).Observe(float64(len(adjusted)))
	return &Listing{Table: table, Rows: adjusted}, nil
}

// fetchRows reads unadjusted rows, via the row cache for the best sellers
// listing, which is both the most requested table and the slowest to read.
func (s *CatalogService) fetchRows(ctx context.Context, spec models.TableSpec) ([]map[string]any, error) {
	if spec.Name != models.TableBestSellers {
		return s.rows.ListRows(ctx, spec.Name, store.ListOptions{})
	}

	key := RowCacheKey(spec.Name)
	if cached, err := s.cache.Get(ctx, key); err == nil {
		var rows []map[string]any
		if err := json.Unmarshal([]byte(cached), &rows); err == nil {
			return rows, nil
		}
		_ = s.cache.Invalidate(ctx, key)
	}

	rows, err := s.rows.ListRows(ctx, spec.Name, store.ListOptions{})
	if err != nil {
		return nil, err
	}

	if len(rows) > 0 {
		if encoded, err := json.Marshal(rows); err == nil {
			if err := s.cache.Set(ctx, key, string(encoded), rowCacheTTL); err != nil {
				s.logger.Warn("Failed to cache listing rows",
					zap.String("table", spec.Name),
					zap.Error(err))
			}
		}
	}

	return rows, nil
}

func (s *CatalogService) serveFallback(table, reason string) (*Listing, error) {
	raw, err := s.fallback.Raw(table)
	if err != nil {
		return nil, err
	}

	util.FallbackServedTotal.WithLabelValues(table, reason).Inc()
	return &Listing{Table: table, Raw: raw, Fallback: true}, nil
}
