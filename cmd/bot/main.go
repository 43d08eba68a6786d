package main

import (
	"context"
	"log"

	"option_bot/internal/modules/config"
	"option_bot/internal/modules/postgres"
	"option_bot/internal/runner"
	"option_bot/pkg/logger"
	"option_bot/pkg/tracing"

	"go.uber.org/fx"
)

const serviceName = "option-bot"

func main() {
	logger.SetServiceName(serviceName)
	closeLogger := logger.Init()
	defer closeLogger()
	logger.Info("starting %s", serviceName)

	app := fx.New(
		fx.Provide(
			func() context.Context {
				return context.Background()
			},
		),
		config.Module(),
		postgres.Module(),
		runner.Module(),
		fx.Invoke(func(lc fx.Lifecycle, cfg *config.Config) error {
			tracing.SetServiceName(serviceName)
			_, closeTracer, err := tracing.InitTracer(tracing.Config{
				Host: cfg.Jaeger.Host,
				Port: cfg.Jaeger.Port,
			})
			if err != nil {
				return err
			}
			lc.Append(fx.Hook{
				OnStop: func(context.Context) error {
					closeTracer()
					return nil
				},
			})
			return nil
		}),
	)
	if err := app.Start(context.Background()); err != nil {
		log.Fatal(err)
	}
	<-app.Done()
}
