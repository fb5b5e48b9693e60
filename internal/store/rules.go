package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"pricing-portal/internal/models"
)

// ErrNotFound marks a lookup of a row that does not exist. Callers branch on
// it with errors.Is to distinguish a missing row from a store failure.
var ErrNotFound = errors.New("not found")

// CreateRule inserts a new adjustment rule. An exact amount forces the
// percentage to zero; the two modes never coexist on a stored rule.
func (s *Store) CreateRule(ctx context.Context, rule *models.AdjustmentRule) error {
	if rule.ExactAmount != nil {
		rule.Percentage = 0
	}

	query := `
		INSERT INTO adjustment_rules (scope, user_id, table_name, percentage, exact_amount, min_price, max_price)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at, updated_at`

	return s.db.GetContext(ctx, rule, query,
		rule.Scope, rule.UserID, rule.TableName, rule.Percentage,
		rule.ExactAmount, rule.MinPrice, rule.MaxPrice)
}

// GetRuleByID retrieves one adjustment rule.
func (s *Store) GetRuleByID(ctx context.Context, id int64) (*models.AdjustmentRule, error) {
	var rule models.AdjustmentRule
	err := s.db.GetContext(ctx, &rule, "SELECT * FROM adjustment_rules WHERE id = $1", id)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("rule %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &rule, nil
}

// ListRules retrieves the rules for one scope and table, oldest update
// first. userID is required for the user scope and ignored for global.
func (s *Store) ListRules(ctx context.Context, scope, table, userID string) ([]models.AdjustmentRule, error) {
	rules := []models.AdjustmentRule{}

	if scope == models.ScopeUser {
		err := s.db.SelectContext(ctx, &rules,
			"SELECT * FROM adjustment_rules WHERE scope = $1 AND table_name = $2 AND user_id = $3 ORDER BY updated_at",
			scope, table, userID)
		return rules, err
	}

	err := s.db.SelectContext(ctx, &rules,
		"SELECT * FROM adjustment_rules WHERE scope = $1 AND table_name = $2 ORDER BY updated_at",
		scope, table)
	return rules, err
}

// ListRulesForTable retrieves every rule targeting a table, both scopes.
func (s *Store) ListRulesForTable(ctx context.Context, table string) ([]models.AdjustmentRule, error) {
	rules := []models.AdjustmentRule{}
	err := s.db.SelectContext(ctx, &rules,
		"SELECT * FROM adjustment_rules WHERE table_name = $1 ORDER BY updated_at", table)
	return rules, err
}

// DeleteRule deletes one rule by id and returns the table it targeted so the
// caller can invalidate that table's cache.
func (s *Store) DeleteRule(ctx context.Context, id int64) (string, error) {
	var table string
	err := s.db.GetContext(ctx, &table,
		"DELETE FROM adjustment_rules WHERE id = $1 RETURNING table_name", id)
	if err == sql.ErrNoRows {
		return "", fmt.Errorf("rule %d: %w", id, ErrNotFound)
	}
	return table, err
}

// DeleteRulesForTable deletes every rule targeting a table and returns how
// many were removed.
func (s *Store) DeleteRulesForTable(ctx context.Context, table string) (int64, error) {
	result, err := s.db.ExecContext(ctx,
		"DELETE FROM adjustment_rules WHERE table_name = $1", table)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
