package pricing

import (
	"context"
	"encoding/json"
	"time"

	"pricing-portal/internal/cache"
	"pricing-portal/internal/models"
	"pricing-portal/internal/util"

	"go.uber.org/zap"
)

// RuleSource lists the adjustment rules for one scope and table. userID is
// ignored for the global scope.
type RuleSource interface {
	ListRules(ctx context.Context, scope, table, userID string) ([]models.AdjustmentRule, error)
}

// Resolver combines stored adjustment rules into the per-request
// ResolvedAdjustment used by the price transformers. Global rule lists are
// read through a short-lived cache keyed by table name; per-user rules are
// always fetched live.
type Resolver struct {
	rules         RuleSource
	cache         cache.Cache
	ttl           time.Duration
	retryAttempts int
	retryBase     time.Duration
	logger        *zap.Logger
}

// NewResolver creates a new resolver. Pass cache.Noop{} to disable caching.
// Rule fetches are retried up to retryAttempts times with exponential
// backoff before the resolver fails open.
func NewResolver(rules RuleSource, c cache.Cache, ttl time.Duration, retryAttempts int, retryBase time.Duration) *Resolver {
	return &Resolver{
		rules:         rules,
		cache:         c,
		ttl:           ttl,
		retryAttempts: retryAttempts,
		retryBase:     retryBase,
		logger:        util.NamedLogger("pricing"),
	}
}

// RuleCacheKey is the cache key holding the global rule list for a table.
func RuleCacheKey(table string) string {
	return "rules:global:" + table
}

// Resolve combines every rule applicable to the caller and table. Resolution
// never fails: unknown tables and rule-fetch errors both yield a zeroed
// adjustment so listings degrade to unadjusted prices.
func (r *Resolver) Resolve(ctx context.Context, userID, table string) models.ResolvedAdjustment {
	if !models.IsKnownTable(table) {
		return models.ResolvedAdjustment{}
	}

	globalRules, err := r.globalRules(ctx, table)
	if err != nil {
		r.logger.Warn("Rule fetch failed, serving unadjusted prices",
			zap.String("table", table),
			zap.Error(err))
		util.AdjustmentResolutionFailures.WithLabelValues(table).Inc()
		return models.ResolvedAdjustment{}
	}

	var userRules []models.AdjustmentRule
	if userID != "" {
		userRules, err = r.fetchRules(ctx, models.ScopeUser, table, userID)
		if err != nil {
			r.logger.Warn("User rule fetch failed, serving unadjusted prices",
				zap.String("table", table),
				zap.String("user_id", userID),
				zap.Error(err))
			util.AdjustmentResolutionFailures.WithLabelValues(table).Inc()
			return models.ResolvedAdjustment{}
		}
	}

	util.AdjustmentsResolvedTotal.WithLabelValues(table).Inc()
	return Combine(globalRules, userRules)
}

func (r *Resolver) globalRules(ctx context.Context, table string) ([]models.AdjustmentRule, error) {
	key := RuleCacheKey(table)

	if cached, err := r.cache.Get(ctx, key); err == nil {
		var rules []models.AdjustmentRule
		if err := json.Unmarshal([]byte(cached), &rules); err == nil {
			util.RuleCacheHits.WithLabelValues(table).Inc()
			return rules, nil
		}
		// Corrupt entry, drop it and fall through to the store.
		_ = r.cache.Invalidate(ctx, key)
	}
	util.RuleCacheMisses.WithLabelValues(table).Inc()

	rules, err := r.fetchRules(ctx, models.ScopeGlobal, table, "")
	if err != nil {
		return nil, err
	}

	if encoded, err := json.Marshal(rules); err == nil {
		if err := r.cache.Set(ctx, key, string(encoded), r.ttl); err != nil {
			r.logger.Warn("Failed to cache rule list", zap.String("table", table), zap.Error(err))
		}
	}

	return rules, nil
}

// fetchRules reads one scope's rule list with bounded exponential backoff so
// a transient store hiccup does not cost callers their adjusted pricing.
func (r *Resolver) fetchRules(ctx context.Context, scope, table, userID string) ([]models.AdjustmentRule, error) {
	var rules []models.AdjustmentRule
	err := util.Retry(ctx, r.retryAttempts, r.retryBase, func(ctx context.Context) error {
		var err error
		rules, err = r.rules.ListRules(ctx, scope, table, userID)
		return err
	})
	return rules, err
}

// scopeResult is one scope's combined contribution: the percentage sum, or
// the most recently updated exact-amount override when one exists.
type scopeResult struct {
	percent float64
	exact   *float64
}

func (sr scopeResult) amount() float64 {
	if sr.exact != nil {
		return *sr.exact
	}
	return sr.percent
}

// Combine folds the global and user rule lists into one ResolvedAdjustment.
// Within a scope, percentages sum and an exact amount overrides them all
// (most recently updated exact wins). Across scopes, percentages add; when
// both scopes carry an exact override the user scope wins, and any exact
// override short-circuits percentage math entirely. Bounds are the tightest
// across all well-formed contributing rules.
func Combine(globalRules, userRules []models.AdjustmentRule) models.ResolvedAdjustment {
	global := combineScope(globalRules)
	user := combineScope(userRules)

	adj := models.ResolvedAdjustment{
		Global: global.amount(),
		User:   user.amount(),
	}

	switch {
	case user.exact != nil:
		adj.Exact = user.exact
		adj.Total = *user.exact
	case global.exact != nil:
		adj.Exact = global.exact
		adj.Total = *global.exact
	default:
		adj.Total = global.percent + user.percent
	}

	adj.MinPrice, adj.MaxPrice = tightestBounds(globalRules, userRules)
	return adj
}

func combineScope(rules []models.AdjustmentRule) scopeResult {
	var result scopeResult
	var exactUpdated time.Time

	for _, rule := range rules {
		if malformed(rule) {
			continue
		}
		if rule.ExactAmount != nil {
			if result.exact == nil || rule.UpdatedAt.After(exactUpdated) {
				result.exact = rule.ExactAmount
				exactUpdated = rule.UpdatedAt
			}
			continue
		}
		result.percent += rule.Percentage
	}

	return result
}

// malformed rules contribute zero instead of aborting resolution for the
// whole table.
func malformed(rule models.AdjustmentRule) bool {
	if rule.MinPrice != nil && rule.MaxPrice != nil && *rule.MinPrice > *rule.MaxPrice {
		return true
	}
	return false
}

// tightestBounds picks the innermost min/max across every well-formed rule:
// the largest minimum and the smallest maximum. Rules without bounds impose
// no constraint.
func tightestBounds(ruleLists ...[]models.AdjustmentRule) (min, max *float64) {
	for _, rules := range ruleLists {
		for _, rule := range rules {
			if malformed(rule) {
				continue
			}
			if rule.MinPrice != nil && (min == nil || *rule.MinPrice > *min) {
				v := *rule.MinPrice
				min = &v
			}
			if rule.MaxPrice != nil && (max == nil || *rule.MaxPrice < *max) {
				v := *rule.MaxPrice
				max = &v
			}
		}
	}
	return min, max
}
