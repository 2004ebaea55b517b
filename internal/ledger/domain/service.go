package domain

import (
	"context"
	"errors"
	"time"

	businessdomain "github.com/vanigatech/vaniga/internal/business/domain"
	"github.com/vanigatech/vaniga/pkg/db/pagination"
)

type CreateTransactionRequest struct {
	Kind          string
	Amount        *float64
	CustomerName  string
	Description   string
	Category      string
	TaxAmount     float64
	PaymentMethod string
	OccurredAt    *time.Time
	Metadata      map[string]any
}

// TransactionPatch replaces the fields it carries; nil fields keep their
// current value.
type TransactionPatch struct {
	Kind          *string
	Amount        *float64
	CustomerName  *string
	Description   *string
	Category      *string
	TaxAmount     *float64
	PaymentMethod *string
	OccurredAt    *time.Time
}

type UpdateTransactionRequest struct {
	ID    string
	Patch TransactionPatch
}

type DeleteTransactionRequest struct {
	ID string
}

type GetTransactionRequest struct {
	ID string
}

type ListTransactionsRequest struct {
	PageToken string
	PageSize  int32
	Kind      string
	From      *time.Time
	To        *time.Time
}

type ListTransactionsResponse struct {
	pagination.PageInfo
	Transactions []Transaction `json:"transactions"`
}

// MutationResult is the synchronous echo of the consistency chain: the ledger
// change plus the score and eligibility derived from it. ScoreStale marks the
// computation-fallback path, where the recompute failed and the score shown
// is the last one persisted.
type MutationResult struct {
	Transaction  *Transaction `json:"transaction,omitempty"`
	UpdatedScore int          `json:"updated_score"`
	LoanEligible bool         `json:"loan_eligible"`
	ScoreStale   bool         `json:"score_stale,omitempty"`
}

type DashboardRequest struct {
	WindowDays int
}

type DashboardStats struct {
	TotalCreditGiven     float64 `json:"total_credit_given"`
	TotalPaymentReceived float64 `json:"total_payment_received"`
	TotalExpenses        float64 `json:"total_expenses"`
	PendingAmount        float64 `json:"pending_amount"`
	TransactionCount     int     `json:"transaction_count"`
}

type DashboardResponse struct {
	Stats          DashboardStats             `json:"stats"`
	ScoreBreakdown businessdomain.ScoreResult `json:"score_breakdown"`
}

// Service is the mutation coordinator: every ledger change runs the full
// ledger -> aggregate -> score -> eligibility chain before responding.
type Service interface {
	Create(context.Context, CreateTransactionRequest) (MutationResult, error)
	Update(context.Context, UpdateTransactionRequest) (MutationResult, error)
	Delete(context.Context, DeleteTransactionRequest) (MutationResult, error)
	Get(context.Context, GetTransactionRequest) (Transaction, error)
	List(context.Context, ListTransactionsRequest) (ListTransactionsResponse, error)
	Dashboard(context.Context, DashboardRequest) (DashboardResponse, error)
	// Resync rebuilds every counterparty aggregate from the ledger and then
	// recomputes the score. Operational repair tool for drift; idempotent.
	Resync(context.Context) (businessdomain.ScoreResult, error)
}

var (
	ErrInvalidKind          = errors.New("invalid_kind")
	ErrInvalidAmount        = errors.New("invalid_amount")
	ErrInvalidCategory      = errors.New("invalid_category")
	ErrInvalidPaymentMethod = errors.New("invalid_payment_method")
	ErrInvalidCustomerName  = errors.New("invalid_customer_name")
	ErrInvalidDescription   = errors.New("invalid_description")
	ErrInvalidID            = errors.New("invalid_id")
	ErrNotFound             = errors.New("not_found")
	ErrForbidden            = errors.New("forbidden")
)
