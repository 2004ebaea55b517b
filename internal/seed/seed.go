package seed

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	businessdomain "github.com/vanigatech/vaniga/internal/business/domain"
	"github.com/vanigatech/vaniga/internal/config"
	"github.com/vanigatech/vaniga/internal/scoring"
	"gorm.io/gorm"
)

// EnsureDefaultBusiness seeds one business for startup bootstrap so a fresh
// self-hosted install can record transactions immediately. Idempotent: it
// does nothing when any business already exists.
func EnsureDefaultBusiness(db *gorm.DB, cfg config.Config) error {
	if db == nil {
		return errors.New("seed database handle is required")
	}

	name := strings.TrimSpace(cfg.BootstrapBusinessName)
	if name == "" {
		name = "My Shop"
	}

	node, err := snowflake.NewNode(1)
	if err != nil {
		return err
	}

	ctx := context.Background()
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&businessdomain.Business{}).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return nil
		}

		now := time.Now().UTC()
		return tx.Create(&businessdomain.Business{
			ID:           node.Generate(),
			Name:         name,
			OwnerName:    strings.TrimSpace(cfg.BootstrapOwnerName),
			Score:        scoring.BaseScore,
			LoanEligible: false,
			CreatedAt:    now,
			UpdatedAt:    now,
		}).Error
	})
}
