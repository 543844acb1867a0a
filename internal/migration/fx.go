package migration

import (
	"context"

	"github.com/smallbiznis/cicilan/internal/config"
	"github.com/smallbiznis/cicilan/internal/seed"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var Module = fx.Module("migrations",
	fx.Invoke(func(conn *gorm.DB, cfg config.Config, log *zap.Logger) error {
		log = log.Named("migration")
		if cfg.DBType == "postgres" {
			sqlDB, err := conn.DB()
			if err != nil {
				return err
			}
			if err := RunMigrations(sqlDB); err != nil {
				return err
			}
		} else if err := ApplySchema(conn); err != nil {
			return err
		}
		log.Info("schema up to date", zap.String("dialect", cfg.DBType))

		if !cfg.Bootstrap.Seed {
			return nil
		}
		return seed.Run(context.Background(), conn, seed.Options{
			AdminEmail:    cfg.Bootstrap.AdminEmail,
			AdminPassword: cfg.Bootstrap.AdminPassword,
			NodeID:        cfg.SnowflakeNode,
		})
	}),
)
