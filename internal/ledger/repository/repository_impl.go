package repository

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	customerdomain "github.com/vanigatech/vaniga/internal/customer/domain"
	"github.com/vanigatech/vaniga/internal/ledger/domain"
	"github.com/vanigatech/vaniga/pkg/db/pagination"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, txn *domain.Transaction) error {
	return db.WithContext(ctx).Create(txn).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.Transaction, error) {
	var txn domain.Transaction
	err := db.WithContext(ctx).
		Where("id = ?", id).
		Limit(1).
		Find(&txn).Error
	if err != nil {
		return nil, err
	}
	if txn.ID == 0 {
		return nil, nil
	}
	return &txn, nil
}

func (r *repo) Update(ctx context.Context, db *gorm.DB, txn *domain.Transaction) error {
	return db.WithContext(ctx).Save(txn).Error
}

func (r *repo) Delete(ctx context.Context, db *gorm.DB, id snowflake.ID) error {
	return db.WithContext(ctx).
		Where("id = ?", id).
		Delete(&domain.Transaction{}).Error
}

func (r *repo) List(ctx context.Context, db *gorm.DB, businessID snowflake.ID, filter domain.ListFilter, page pagination.Pagination) ([]*domain.Transaction, error) {
	stmt := db.WithContext(ctx).
		Model(&domain.Transaction{}).
		Where("business_id = ?", businessID)
	if filter.Kind != "" {
		stmt = stmt.Where("kind = ?", filter.Kind)
	}
	if filter.From != nil {
		stmt = stmt.Where("occurred_at >= ?", *filter.From)
	}
	if filter.To != nil {
		stmt = stmt.Where("occurred_at <= ?", *filter.To)
	}

	if page.PageToken != "" {
		cursor, err := pagination.DecodeCursor(page.PageToken)
		if err != nil {
			return nil, err
		}
		at, err := time.Parse(time.RFC3339Nano, cursor.At)
		if err != nil {
			return nil, err
		}
		id, err := snowflake.ParseString(cursor.ID)
		if err != nil {
			return nil, err
		}
		stmt = stmt.Where("occurred_at < ? OR (occurred_at = ? AND id < ?)", at, at, id)
	}

	limit := page.PageSize
	if limit <= 0 {
		limit = 50
	}

	var txns []*domain.Transaction
	err := stmt.
		Order("occurred_at desc, id desc").
		Limit(limit + 1).
		Find(&txns).Error
	if err != nil {
		return nil, err
	}
	return txns, nil
}

func (r *repo) ListWindow(ctx context.Context, db *gorm.DB, businessID snowflake.ID, from, to time.Time) ([]domain.Transaction, error) {
	var txns []domain.Transaction
	err := db.WithContext(ctx).
		Where("business_id = ? AND occurred_at >= ? AND occurred_at <= ?", businessID, from, to).
		Order("occurred_at asc, id asc").
		Find(&txns).Error
	if err != nil {
		return nil, err
	}
	return txns, nil
}

func (r *repo) ListByCustomer(ctx context.Context, db *gorm.DB, businessID snowflake.ID, name string, match customerdomain.NameMatch) ([]domain.Transaction, error) {
	stmt := db.WithContext(ctx).
		Where("business_id = ? AND kind IN ?", businessID, []domain.Kind{domain.KindCreditGiven, domain.KindPaymentReceived})

	switch match {
	case customerdomain.MatchTrim:
		stmt = stmt.Where("TRIM(customer_name) = ?", match.Normalize(name))
	case customerdomain.MatchFold:
		stmt = stmt.Where("LOWER(TRIM(customer_name)) = ?", match.Normalize(name))
	default:
		stmt = stmt.Where("customer_name = ?", name)
	}

	var txns []domain.Transaction
	err := stmt.
		Order("occurred_at asc, id asc").
		Find(&txns).Error
	if err != nil {
		return nil, err
	}
	return txns, nil
}

func (r *repo) DistinctCustomerNames(ctx context.Context, db *gorm.DB, businessID snowflake.ID) ([]string, error) {
	var names []string
	err := db.WithContext(ctx).Raw(
		`SELECT DISTINCT customer_name FROM transactions
		 WHERE business_id = ? AND kind IN ? AND customer_name <> ''`,
		businessID,
		[]domain.Kind{domain.KindCreditGiven, domain.KindPaymentReceived},
	).Scan(&names).Error
	if err != nil {
		return nil, err
	}
	return names, nil
}
