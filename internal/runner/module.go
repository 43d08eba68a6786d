package runner

import (
	"context"
	"log"

	"option_bot/internal/journal"
	"option_bot/internal/lifecycle"
	"option_bot/internal/modules/config"
	"option_bot/internal/notify"
	"option_bot/internal/venue"
	"option_bot/internal/venue/deriv"

	"go.uber.org/fx"
)

func Module() fx.Option {
	return fx.Module("runner",
		fx.Provide(
			func(cfg *config.Config) venue.Venue {
				return deriv.NewClient(deriv.Config{
					WSURL:    cfg.Venue.WSURL,
					AppID:    cfg.Venue.AppID,
					APIToken: cfg.Venue.APIToken,
					Mode:     cfg.Mode,
				})
			},
			func(cfg *config.Config, v venue.Venue) *lifecycle.Manager {
				return lifecycle.New(v, lifecycle.Config{
					MaxTrades:        cfg.MaxTrades,
					PlaceMaxAttempts: cfg.PlaceMaxAttempts,
					PlaceRetryDelay:  cfg.PlaceRetryDelay,
				})
			},
			func(cfg *config.Config) Notifier {
				if cfg.Telegram.Token == "" {
					log.Println("[NOTIFY] telegram token не задан, уведомления в stdout")
					return notify.Stdout{}
				}
				tg, err := notify.NewTelegram(cfg.Telegram.Token, cfg.Telegram.ChatID)
				if err != nil {
					log.Printf("[NOTIFY] telegram недоступен (%v), фолбэк в stdout", err)
					return notify.Stdout{}
				}
				return tg
			},
			func(rec *journal.Recorder) Recorder { return rec },
			New,
		),
		fx.Invoke(func(lc fx.Lifecycle, r *Runner, ctx context.Context) {
			lc.Append(fx.Hook{
				OnStart: func(_ context.Context) error {
					go func() {
						if err := r.Start(ctx); err != nil {
							log.Printf("[RUNNER] stopped: %v", err)
						}
					}()
					return nil
				},
				OnStop: func(context.Context) error {
					r.Stop()
					return nil
				},
			})
		}),
	)
}
