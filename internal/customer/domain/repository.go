package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/vanigatech/vaniga/pkg/db/pagination"
	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, customer *Customer) error
	// FindByName locates the aggregate whose stored name matches under the
	// given mode.
	FindByName(ctx context.Context, db *gorm.DB, businessID snowflake.ID, name string, match NameMatch) (*Customer, error)
	Update(ctx context.Context, db *gorm.DB, customer *Customer) error
	List(ctx context.Context, db *gorm.DB, businessID snowflake.ID, page pagination.Pagination) ([]*Customer, error)
}
