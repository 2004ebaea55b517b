package repository

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/vanigatech/vaniga/internal/business/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, business *domain.Business) error {
	return db.WithContext(ctx).Create(business).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.Business, error) {
	var business domain.Business
	err := db.WithContext(ctx).
		Where("id = ?", id).
		Limit(1).
		Find(&business).Error
	if err != nil {
		return nil, err
	}
	if business.ID == 0 {
		return nil, nil
	}
	return &business, nil
}

func (r *repo) UpdateScore(ctx context.Context, db *gorm.DB, id snowflake.ID, score int, eligible bool) error {
	return db.WithContext(ctx).
		Model(&domain.Business{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"score":         score,
			"loan_eligible": eligible,
			"updated_at":    time.Now().UTC(),
		}).Error
}
