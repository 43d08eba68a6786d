package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"option_bot/internal/venue/deriv"

	"github.com/spf13/viper"
)

// Утилита для глаз: живой поток котировок без торговли.
// Удобно проверять доступность площадки и качество фида.
func main() {
	viper.SetConfigName("monitor")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("configs")
	viper.AddConfigPath(".")
	viper.SetEnvPrefix("VENUE")
	viper.AutomaticEnv()

	viper.SetDefault("asset", "EURUSD")
	viper.SetDefault("ws_url", "wss://ws.binaryws.com/websockets/v3")
	viper.SetDefault("app_id", "1089")

	if err := viper.ReadInConfig(); err != nil {
		log.Printf("config file not found, using defaults: %v", err)
	}

	client := deriv.NewClient(deriv.Config{
		WSURL:    viper.GetString("ws_url"),
		AppID:    viper.GetString("app_id"),
		APIToken: viper.GetString("api_token"),
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		sig := make(chan os.Signal, 1)
		signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
		<-sig
		cancel()
	}()

	asset := viper.GetString("asset")
	log.Printf("monitoring %s, ctrl+c to stop", asset)

	var prev float64
	for tick := range client.StreamTicks(ctx, asset) {
		mark := "·"
		switch {
		case prev != 0 && tick.Price > prev:
			mark = "↑"
		case prev != 0 && tick.Price < prev:
			mark = "↓"
		}
		log.Printf("%s %s %.5f", asset, mark, tick.Price)
		prev = tick.Price
	}
}
