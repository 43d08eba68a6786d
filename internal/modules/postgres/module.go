package postgres

import (
	"context"
	"fmt"

	"option_bot/internal/journal"
	"option_bot/internal/modules/config"
	"option_bot/pkg/db"

	"go.uber.org/fx"
)

func Module() fx.Option {
	return fx.Module("postgres",
		fx.Provide(
			func(ctx context.Context, cfg *config.Config) (*db.PgTxManager, error) {
				pool, err := db.NewPool(ctx, db.PoolConfig{
					DSN: cfg.DB,
				})
				if err != nil {
					return nil, fmt.Errorf("failed to create pool: %w", err)
				}

				err = pool.Ping(ctx)
				if err != nil {
					return nil, err
				}

				return db.NewPgTxManager(pool), nil
			},
			func(m *db.PgTxManager) db.TxManager { return m },
			func(m db.TxManager) *journal.Recorder { return journal.NewRecorder(m) },
		),
	)
}
