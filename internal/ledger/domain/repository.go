package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	customerdomain "github.com/vanigatech/vaniga/internal/customer/domain"
	"github.com/vanigatech/vaniga/pkg/db/pagination"
	"gorm.io/gorm"
)

// ListFilter narrows transaction listings.
type ListFilter struct {
	Kind Kind
	From *time.Time
	To   *time.Time
}

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, txn *Transaction) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Transaction, error)
	Update(ctx context.Context, db *gorm.DB, txn *Transaction) error
	Delete(ctx context.Context, db *gorm.DB, id snowflake.ID) error
	List(ctx context.Context, db *gorm.DB, businessID snowflake.ID, filter ListFilter, page pagination.Pagination) ([]*Transaction, error)
	// ListWindow returns every transaction for the business with
	// from <= occurred_at <= to, the scoring engine's input.
	ListWindow(ctx context.Context, db *gorm.DB, businessID snowflake.ID, from, to time.Time) ([]Transaction, error)
	// ListByCustomer returns the credit_given/payment_received rows whose
	// counterparty name matches under the given mode.
	ListByCustomer(ctx context.Context, db *gorm.DB, businessID snowflake.ID, name string, match customerdomain.NameMatch) ([]Transaction, error)
	// DistinctCustomerNames lists every counterparty name referenced by
	// aggregate-qualifying rows, for resync sweeps.
	DistinctCustomerNames(ctx context.Context, db *gorm.DB, businessID snowflake.ID) ([]string, error)
}
