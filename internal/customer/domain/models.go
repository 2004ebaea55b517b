package domain

import (
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
)

// Customer is a per-counterparty rollup of credit extended and payments
// collected, keyed by (business_id, name). Totals are always recomputed from
// the ledger; OutstandingBalance is never incremented in place.
type Customer struct {
	ID                   snowflake.ID `gorm:"primaryKey" json:"id"`
	BusinessID           snowflake.ID `gorm:"not null;uniqueIndex:ux_customers_business_name,priority:1" json:"business_id"`
	Name                 string       `gorm:"not null;uniqueIndex:ux_customers_business_name,priority:2" json:"name"`
	Phone                string       `gorm:"type:text" json:"phone,omitempty"`
	Email                string       `gorm:"type:text" json:"email,omitempty"`
	Address              string       `gorm:"type:text" json:"address,omitempty"`
	Notes                string       `gorm:"type:text" json:"notes,omitempty"`
	TotalCreditGiven     float64      `gorm:"not null;default:0" json:"total_credit_given"`
	TotalPaymentReceived float64      `gorm:"not null;default:0" json:"total_payment_received"`
	OutstandingBalance   float64      `gorm:"not null;default:0" json:"outstanding_balance"`
	LastTransactionAt    *time.Time   `json:"last_transaction_at,omitempty"`
	CreatedAt            time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt            time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName sets the database table name.
func (Customer) TableName() string { return "customers" }

// NameMatch selects how free-text counterparty names are matched against
// stored aggregates. Exact match reproduces the historical behavior; the
// other modes exist because case and whitespace variants of one customer
// otherwise split into duplicate aggregates.
type NameMatch string

const (
	MatchExact NameMatch = "exact"
	MatchTrim  NameMatch = "trim"
	MatchFold  NameMatch = "fold" // trim + case-insensitive
)

// ParseNameMatch returns the matching mode for a config value, defaulting to
// exact for anything unrecognized.
func ParseNameMatch(raw string) NameMatch {
	switch NameMatch(strings.ToLower(strings.TrimSpace(raw))) {
	case MatchTrim:
		return MatchTrim
	case MatchFold:
		return MatchFold
	default:
		return MatchExact
	}
}

// Normalize applies the mode's normalization to a name.
func (m NameMatch) Normalize(name string) string {
	switch m {
	case MatchTrim:
		return strings.TrimSpace(name)
	case MatchFold:
		return strings.ToLower(strings.TrimSpace(name))
	default:
		return name
	}
}

// Equal reports whether two names refer to the same counterparty under the mode.
func (m NameMatch) Equal(a, b string) bool {
	return m.Normalize(a) == m.Normalize(b)
}
