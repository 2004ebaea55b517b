package migration

import (
	businessdomain "github.com/vanigatech/vaniga/internal/business/domain"
	"github.com/vanigatech/vaniga/internal/config"
	customerdomain "github.com/vanigatech/vaniga/internal/customer/domain"
	ledgerdomain "github.com/vanigatech/vaniga/internal/ledger/domain"
	"github.com/vanigatech/vaniga/internal/seed"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

var Module = fx.Module("migrations",
	fx.Invoke(func(conn *gorm.DB, cfg config.Config) error {
		if cfg.DBType == "postgres" {
			sqlDB, err := conn.DB()
			if err != nil {
				return err
			}
			if err := RunMigrations(sqlDB); err != nil {
				return err
			}
		} else {
			if err := conn.AutoMigrate(
				&businessdomain.Business{},
				&ledgerdomain.Transaction{},
				&customerdomain.Customer{},
			); err != nil {
				return err
			}
		}

		if cfg.BootstrapBusiness {
			return seed.EnsureDefaultBusiness(conn, cfg)
		}
		return nil
	}),
)
