package repository

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/vanigatech/vaniga/internal/customer/domain"
	"github.com/vanigatech/vaniga/pkg/db/pagination"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, customer *domain.Customer) error {
	return db.WithContext(ctx).Create(customer).Error
}

func (r *repo) FindByName(ctx context.Context, db *gorm.DB, businessID snowflake.ID, name string, match domain.NameMatch) (*domain.Customer, error) {
	stmt := db.WithContext(ctx).
		Where("business_id = ?", businessID)

	switch match {
	case domain.MatchTrim:
		stmt = stmt.Where("TRIM(name) = ?", match.Normalize(name))
	case domain.MatchFold:
		stmt = stmt.Where("LOWER(TRIM(name)) = ?", match.Normalize(name))
	default:
		stmt = stmt.Where("name = ?", name)
	}

	var customer domain.Customer
	err := stmt.Limit(1).Find(&customer).Error
	if err != nil {
		return nil, err
	}
	if customer.ID == 0 {
		return nil, nil
	}
	return &customer, nil
}

func (r *repo) Update(ctx context.Context, db *gorm.DB, customer *domain.Customer) error {
	return db.WithContext(ctx).Save(customer).Error
}

func (r *repo) List(ctx context.Context, db *gorm.DB, businessID snowflake.ID, page pagination.Pagination) ([]*domain.Customer, error) {
	stmt := db.WithContext(ctx).
		Model(&domain.Customer{}).
		Where("business_id = ?", businessID)

	if page.PageToken != "" {
		cursor, err := pagination.DecodeCursor(page.PageToken)
		if err != nil {
			return nil, err
		}
		id, err := snowflake.ParseString(cursor.ID)
		if err != nil {
			return nil, err
		}
		stmt = stmt.Where("id > ?", id)
	}

	limit := page.PageSize
	if limit <= 0 {
		limit = 50
	}

	var customers []*domain.Customer
	err := stmt.
		Order("id asc").
		Limit(limit + 1).
		Find(&customers).Error
	if err != nil {
		return nil, err
	}
	return customers, nil
}
