package domain

import (
	"context"
	"errors"
	"time"
)

type CreateBusinessRequest struct {
	Name      string
	OwnerName string
	Phone     string
}

type Service interface {
	Create(context.Context, CreateBusinessRequest) (Business, error)
	// Get returns the business resolved from the request context.
	Get(context.Context) (Business, error)
	// RecomputeScore rebuilds the score from the 30-day ledger window ending
	// at asOf and persists score and eligibility on the business record. It
	// is the only writer of those fields.
	RecomputeScore(ctx context.Context, asOf time.Time) (ScoreResult, error)
}

var (
	ErrInvalidBusiness = errors.New("invalid_business")
	ErrInvalidName     = errors.New("invalid_name")
	ErrNotFound        = errors.New("not_found")
)
