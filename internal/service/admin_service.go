package service

import (
	"context"
	"errors"
	"fmt"

	"pricing-portal/internal/broker"
	"pricing-portal/internal/cache"
	"pricing-portal/internal/models"
	"pricing-portal/internal/pricing"
	"pricing-portal/internal/util"

	"go.uber.org/zap"
)

// ErrUnknownTable is returned when a request names a table outside the fixed
// inventory set.
var ErrUnknownTable = errors.New("unknown inventory table")

// RuleStore is the record store surface for adjustment rules and admin
// record/user management.
type RuleStore interface {
	CreateRule(ctx context.Context, rule *models.AdjustmentRule) error
	GetRuleByID(ctx context.Context, id int64) (*models.AdjustmentRule, error)
	ListRulesForTable(ctx context.Context, table string) ([]models.AdjustmentRule, error)
	DeleteRule(ctx context.Context, id int64) (string, error)
	DeleteRulesForTable(ctx context.Context, table string) (int64, error)
	InsertRow(ctx context.Context, table string, fields map[string]any) (string, error)
	UpdateRow(ctx context.Context, table, id string, fields map[string]any) error
	DeleteRow(ctx context.Context, table, id string) error
	ListUsers(ctx context.Context) ([]models.User, error)
	GetUserByID(ctx context.Context, id string) (*models.User, error)
	UpdateUserRole(ctx context.Context, id, role string) error
	DeleteUser(ctx context.Context, id string) error
}

// AdminService handles rule, record, and user management. Every write
// invalidates the affected table's cache entries synchronously and publishes
// a change event for peer instances.
type AdminService struct {
	store     RuleStore
	cache     cache.Cache
	publisher *broker.EventPublisher
	logger    *zap.Logger
}

// NewAdminService creates a new admin service
func NewAdminService(store RuleStore, c cache.Cache, publisher *broker.EventPublisher) *AdminService {
	return &AdminService{
		store:     store,
		cache:     c,
		publisher: publisher,
		logger:    util.NamedLogger("admin"),
	}
}

// CreateRuleRequest carries an admin's new adjustment rule.
type CreateRuleRequest struct {
	Scope       string   `json:"scope" binding:"required,oneof=global user"`
	UserID      string   `json:"user_id,omitempty"`
	Table       string   `json:"table" binding:"required"`
	Percentage  float64  `json:"percentage"`
	ExactAmount *float64 `json:"exact_amount"`
	MinPrice    *float64 `json:"min_price"`
	MaxPrice    *float64 `json:"max_price"`
}

// CreateRule validates and stores a new adjustment rule.
func (s *AdminService) CreateRule(ctx context.Context, req *CreateRuleRequest) (*models.AdjustmentRule, error) {
	ctx, span := util.StartSpan(ctx, "AdminService.CreateRule")
	defer span.End()

	if !models.IsKnownTable(req.Table) {
		return nil, ErrUnknownTable
	}
	if req.Scope == models.ScopeUser && req.UserID == "" {
		return nil, fmt.Errorf("user_id is required for user-scoped rules")
	}
	if req.MinPrice != nil && req.MaxPrice != nil && *req.MinPrice > *req.MaxPrice {
		return nil, fmt.Errorf("min_price %v exceeds max_price %v", *req.MinPrice, *req.MaxPrice)
	}

	rule := &models.AdjustmentRule{
		Scope:       req.Scope,
		UserID:      req.UserID,
		TableName:   req.Table,
		Percentage:  req.Percentage,
		ExactAmount: req.ExactAmount,
		MinPrice:    req.MinPrice,
		MaxPrice:    req.MaxPrice,
	}

	if err := s.store.CreateRule(ctx, rule); err != nil {
		return nil, fmt.Errorf("failed to create rule: %w", err)
	}

	util.RulesCreatedTotal.WithLabelValues(rule.TableName, rule.Scope).Inc()
	s.logger.Info("Adjustment rule created",
		zap.Int64("rule_id", rule.ID),
		zap.String("table", rule.TableName),
		zap.String("scope", rule.Scope))

	s.invalidateRules(ctx, rule.TableName, rule.ID, models.ActionCreated)
	return rule, nil
}

// GetRule retrieves one rule by id.
func (s *AdminService) GetRule(ctx context.Context, id int64) (*models.AdjustmentRule, error) {
	return s.store.GetRuleByID(ctx, id)
}

// ListRules returns every rule targeting a table, both scopes.
func (s *AdminService) ListRules(ctx context.Context, table string) ([]models.AdjustmentRule, error) {
	if !models.IsKnownTable(table) {
		return nil, ErrUnknownTable
	}
	return s.store.ListRulesForTable(ctx, table)
}

// DeleteRule removes one rule by id.
func (s *AdminService) DeleteRule(ctx context.Context, id int64) error {
	table, err := s.store.DeleteRule(ctx, id)
	if err != nil {
		return err
	}

	util.RulesDeletedTotal.WithLabelValues(table).Inc()
	s.logger.Info("Adjustment rule deleted", zap.Int64("rule_id", id), zap.String("table", table))

	s.invalidateRules(ctx, table, id, models.ActionDeleted)
	return nil
}

// DeleteRulesForTable bulk-removes every rule targeting a table.
func (s *AdminService) DeleteRulesForTable(ctx context.Context, table string) (int64, error) {
	if !models.IsKnownTable(table) {
		return 0, ErrUnknownTable
	}

	deleted, err := s.store.DeleteRulesForTable(ctx, table)
	if err != nil {
		return 0, err
	}

	if deleted > 0 {
		util.RulesDeletedTotal.WithLabelValues(table).Add(float64(deleted))
		s.logger.Info("Adjustment rules deleted for table",
			zap.String("table", table),
			zap.Int64("count", deleted))
		s.invalidateRules(ctx, table, 0, models.ActionDeleted)
	}
	return deleted, nil
}

// CreateRecord inserts an inventory record.
func (s *AdminService) CreateRecord(ctx context.Context, table string, fields map[string]any) (string, error) {
	if !models.IsKnownTable(table) {
		return "", ErrUnknownTable
	}

	id, err := s.store.InsertRow(ctx, table, fields)
	if err != nil {
		return "", err
	}

	s.invalidateRows(ctx, table, id, models.ActionCreated)
	return id, nil
}

// UpdateRecord updates fields of an inventory record.
func (s *AdminService) UpdateRecord(ctx context.Context, table, id string, fields map[string]any) error {
	if !models.IsKnownTable(table) {
		return ErrUnknownTable
	}

	if err := s.store.UpdateRow(ctx, table, id, fields); err != nil {
		return err
	}

	s.invalidateRows(ctx, table, id, models.ActionUpdated)
	return nil
}

// DeleteRecord removes an inventory record.
func (s *AdminService) DeleteRecord(ctx context.Context, table, id string) error {
	if !models.IsKnownTable(table) {
		return ErrUnknownTable
	}

	if err := s.store.DeleteRow(ctx, table, id); err != nil {
		return err
	}

	s.invalidateRows(ctx, table, id, models.ActionDeleted)
	return nil
}

// ListUsers returns all portal users.
func (s *AdminService) ListUsers(ctx context.Context) ([]models.User, error) {
	return s.store.ListUsers(ctx)
}

// GetUser retrieves one portal user by id.
func (s *AdminService) GetUser(ctx context.Context, id string) (*models.User, error) {
	return s.store.GetUserByID(ctx, id)
}

// UpdateUserRole changes a user's role attribute.
func (s *AdminService) UpdateUserRole(ctx context.Context, id, role string) error {
	if err := s.store.UpdateUserRole(ctx, id, role); err != nil {
		return err
	}
	s.logger.Info("User role updated", zap.String("user_id", id), zap.String("role", role))
	return nil
}

// DeleteUser removes a user and their user-scoped rules.
func (s *AdminService) DeleteUser(ctx context.Context, id string) error {
	return s.store.DeleteUser(ctx, id)
}

// invalidateRules drops the local rule cache synchronously, then notifies
// peers. A failed publish only delays peer convergence, so it is logged and
// swallowed.
func (s *AdminService) invalidateRules(ctx context.Context, table string, ruleID int64, action string) {
	if err := s.cache.Invalidate(ctx, pricing.RuleCacheKey(table)); err != nil {
		s.logger.Warn("Failed to invalidate rule cache", zap.String("table", table), zap.Error(err))
	}
	if s.publisher != nil {
		if err := s.publisher.PublishRuleChanged(ctx, table, ruleID, action); err != nil {
			s.logger.Error("Failed to publish RuleChanged event", zap.Error(err))
		}
	}
}

func (s *AdminService) invalidateRows(ctx context.Context, table, recordID, action string) {
	if err := s.cache.Invalidate(ctx, RowCacheKey(table)); err != nil {
		s.logger.Warn("Failed to invalidate row cache", zap.String("table", table), zap.Error(err))
	}
	if s.publisher != nil {
		if err := s.publisher.PublishRecordChanged(ctx, table, recordID, action); err != nil {
			s.logger.Error("Failed to publish RecordChanged event", zap.Error(err))
		}
	}
}
