package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// Business is one merchant account. Score and LoanEligible are denormalized
// caches of the scoring engine's output over the merchant's current 30-day
// ledger window; only the score recompute path writes them.
type Business struct {
	ID           snowflake.ID `gorm:"primaryKey" json:"id"`
	Name         string       `gorm:"not null" json:"name"`
	OwnerName    string       `gorm:"type:text" json:"owner_name,omitempty"`
	Phone        string       `gorm:"type:text" json:"phone,omitempty"`
	Score        int          `gorm:"not null;default:300" json:"score"`
	LoanEligible bool         `gorm:"not null;default:false" json:"loan_eligible"`
	CreatedAt    time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt    time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName sets the database table name.
func (Business) TableName() string { return "businesses" }

// ScoreBreakdown itemizes the score components for display.
type ScoreBreakdown struct {
	Base        int `json:"base"`
	Volume      int `json:"volume"`
	Consistency int `json:"consistency"`
	Health      int `json:"health"`
}

// ScoreMetrics carries the raw inputs behind the breakdown.
type ScoreMetrics struct {
	TotalVolume           float64 `json:"total_volume"`
	ActiveDays            int     `json:"active_days"`
	CollectionRatePercent int     `json:"collection_rate_percent"`
}

// ScoreResult is the scoring engine's full output for one window.
type ScoreResult struct {
	Score     int            `json:"score"`
	Breakdown ScoreBreakdown `json:"breakdown"`
	Metrics   ScoreMetrics   `json:"metrics"`
}
