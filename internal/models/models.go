package models

import "time"

// Rule scopes
const (
	ScopeGlobal = "global"
	ScopeUser   = "user"
)

// AdjustmentRule is one admin-configured modification to the prices of an
// inventory table. A rule either shifts prices by a signed percentage or
// replaces them with an exact dollar amount; the two modes are mutually
// exclusive and an exact amount forces the percentage to zero on write.
type AdjustmentRule struct {
	ID          int64     `db:"id" json:"id"`
	Scope       string    `db:"scope" json:"scope"`
	UserID      string    `db:"user_id" json:"user_id,omitempty"`
	TableName   string    `db:"table_name" json:"table"`
	Percentage  float64   `db:"percentage" json:"percentage"`
	ExactAmount *float64  `db:"exact_amount" json:"exact_amount"`
	MinPrice    *float64  `db:"min_price" json:"min_price"`
	MaxPrice    *float64  `db:"max_price" json:"max_price"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

// ResolvedAdjustment is the request-scoped combination of every rule that
// applies to one caller and one table. Global and User hold each scope's own
// contribution (percentage sum, or the winning exact amount). Total is the
// value used for percentage math; when Exact is set the percentage path is
// bypassed entirely and Total mirrors the exact amount.
type ResolvedAdjustment struct {
	Global   float64  `json:"global"`
	User     float64  `json:"user"`
	Total    float64  `json:"total"`
	Exact    *float64 `json:"exact_amount,omitempty"`
	MinPrice *float64 `json:"min_price,omitempty"`
	MaxPrice *float64 `json:"max_price,omitempty"`
}

// IsZero reports whether the adjustment would leave every price untouched.
func (a ResolvedAdjustment) IsZero() bool {
	return a.Exact == nil && a.Total == 0 && a.MinPrice == nil && a.MaxPrice == nil
}

// User is a portal account as stored alongside the inventory tables. Role is
// an opaque string; RoleAdmin gates privileged routes.
type User struct {
	ID        string    `db:"id" json:"id"`
	Email     string    `db:"email" json:"email"`
	Name      string    `db:"name" json:"name"`
	Role      string    `db:"role" json:"role"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

const RoleAdmin = "admin"
