package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

// Kind classifies a recorded business event.
type Kind string

const (
	KindCreditGiven     Kind = "credit_given"     // money lent to a customer
	KindPaymentReceived Kind = "payment_received" // money collected from a customer
	KindExpense         Kind = "expense"          // business cost (inventory, rent, ...)
)

func (k Kind) Valid() bool {
	switch k {
	case KindCreditGiven, KindPaymentReceived, KindExpense:
		return true
	default:
		return false
	}
}

// FeedsCustomerAggregate reports whether transactions of this kind roll up
// into a counterparty aggregate.
func (k Kind) FeedsCustomerAggregate() bool {
	return k == KindCreditGiven || k == KindPaymentReceived
}

// Category classifies expenses. Meaningful only on expense transactions.
type Category string

const (
	CategoryRent      Category = "rent"
	CategoryInventory Category = "inventory"
	CategoryUtilities Category = "utilities"
	CategorySalaries  Category = "salaries"
	CategoryTransport Category = "transport"
	CategoryMarketing Category = "marketing"
	CategoryOther     Category = "other"
)

func (c Category) Valid() bool {
	switch c {
	case CategoryRent, CategoryInventory, CategoryUtilities, CategorySalaries,
		CategoryTransport, CategoryMarketing, CategoryOther:
		return true
	default:
		return false
	}
}

// PaymentMethod records how a transaction settled.
type PaymentMethod string

const (
	PaymentMethodCash            PaymentMethod = "cash"
	PaymentMethodDigitalTransfer PaymentMethod = "digital_transfer"
	PaymentMethodPending         PaymentMethod = "pending"
)

func (m PaymentMethod) Valid() bool {
	switch m {
	case PaymentMethodCash, PaymentMethodDigitalTransfer, PaymentMethodPending:
		return true
	default:
		return false
	}
}

const (
	MaxCustomerNameLen = 100
	MaxDescriptionLen  = 500
)

// Transaction is one recorded business event. The (business_id, occurred_at)
// index serves the scoring window scans.
type Transaction struct {
	ID            snowflake.ID      `gorm:"primaryKey" json:"id"`
	BusinessID    snowflake.ID      `gorm:"not null;index:idx_transactions_business_occurred,priority:1" json:"business_id"`
	Kind          Kind              `gorm:"type:text;not null" json:"kind"`
	Amount        float64           `gorm:"not null" json:"amount"`
	CustomerName  string            `gorm:"type:text" json:"customer_name,omitempty"`
	Description   string            `gorm:"type:text" json:"description,omitempty"`
	Category      Category          `gorm:"type:text;not null;default:other" json:"category"`
	TaxAmount     float64           `gorm:"not null;default:0" json:"tax_amount"`
	PaymentMethod PaymentMethod     `gorm:"type:text;not null;default:cash" json:"payment_method"`
	OccurredAt    time.Time         `gorm:"not null;index:idx_transactions_business_occurred,priority:2" json:"occurred_at"`
	Metadata      datatypes.JSONMap `gorm:"type:jsonb" json:"metadata,omitempty"`
	CreatedAt     time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt     time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName sets the database table name.
func (Transaction) TableName() string { return "transactions" }
