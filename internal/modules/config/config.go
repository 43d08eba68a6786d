package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v2"
)

const (
	configFilePathENV = "CONFIG_FILE"
	tokenTelegramENV  = "TELEGRAM_TOKEN"
	databaseDSN       = "DATABASE_DSN"
	venueTokenENV     = "VENUE_API_TOKEN"
)

// Config ...
type Config struct {
	Telegram struct {
		Token  string `yaml:"token"`
		ChatID int64  `yaml:"chat_id"`
	} `yaml:"telegram"`
	DB    string `yaml:"db_dsn"`
	Venue struct {
		WSURL    string `yaml:"ws_url"`
		AppID    string `yaml:"app_id"`
		APIToken string `yaml:"api_token"`
	} `yaml:"venue"`
	Jaeger struct {
		Host string `yaml:"host"`
		Port int    `yaml:"port"`
	} `yaml:"jaeger"`

	// Сессия: один ассет, одна ставка, одна сделка в моменте.
	Asset           string  `yaml:"asset"`
	Stake           float64 `yaml:"stake"`
	DurationMinutes int     `yaml:"duration_minutes"`
	Mode            string  `yaml:"mode"`     // PRACTICE | REAL
	Strategy        string  `yaml:"strategy"` // weighted | single
	MaxTrades       int     `yaml:"max_trades"`
	GranularitySec  int     `yaml:"granularity_sec"`

	// Параметры индикаторов
	BBPeriod      int
	BBStd         float64
	RSIPeriod     int
	RSIOverbought float64
	RSIOSold      float64 // из ENV: RSI_OVERSOLD
	EMAShort      int
	EMAMedium     int
	EMALong       int
	StochKPeriod  int
	StochDPeriod  int
	StochSmooth   int
	MinVolumeRate float64

	// Риск
	// Сколько суммарно готовы потерять за день, дальше — только Hold.
	MaxDailyLoss      float64
	MinSignalStrength float64
	RiskRewardRatio   float64
	HoursFilter       bool

	// Ретраи
	PlaceMaxAttempts   int
	PlaceRetryDelay    time.Duration
	ConnectMaxAttempts int
	ConnectBackoff     time.Duration

	SettlePoll   time.Duration
	TickInterval time.Duration
}

// HistoryCapacity — 2×max(bbPeriod, rsiPeriod, emaLong), как в §инвариантах.
func (c *Config) HistoryCapacity() int {
	n := c.BBPeriod
	if c.RSIPeriod > n {
		n = c.RSIPeriod
	}
	if c.EMALong > n {
		n = c.EMALong
	}
	return 2 * n
}

func NewConfig() (*Config, error) {
	_ = godotenv.Load()

	configFileName := os.Getenv(configFilePathENV)
	if configFileName == "" {
		configFileName = "values_local.yaml"
	}
	file, err := os.Open("configs/" + configFileName)
	if err != nil {
		log.Fatalf("Failed to open config file: %v", err)
	}

	defer func() {
		_ = file.Close()
	}()

	decoder := yaml.NewDecoder(file)
	config := Config{
		Asset:           "EURUSD",
		Stake:           1.00,
		DurationMinutes: 1,
		Mode:            "PRACTICE",
		Strategy:        "weighted",
		MaxTrades:       10,
		GranularitySec:  60,

		BBPeriod:      intFromEnv("BB_PERIOD", 20),
		BBStd:         floatFromEnv("BB_STD", 2.0),
		RSIPeriod:     intFromEnv("RSI_PERIOD", 14),
		RSIOverbought: floatFromEnv("RSI_OVERBOUGHT", 70),
		RSIOSold:      floatFromEnv("RSI_OVERSOLD", 30),
		EMAShort:      intFromEnv("EMA_SHORT", 9),
		EMAMedium:     intFromEnv("EMA_MEDIUM", 21),
		EMALong:       intFromEnv("EMA_LONG", 50),
		StochKPeriod:  intFromEnv("STOCH_K_PERIOD", 5),
		StochDPeriod:  intFromEnv("STOCH_D_PERIOD", 3),
		StochSmooth:   intFromEnv("STOCH_SMOOTH", 3),
		MinVolumeRate: floatFromEnv("MIN_VOLUME_THRESHOLD", 0.5),

		MaxDailyLoss:      floatFromEnv("MAX_DAILY_LOSS", -5.00),
		MinSignalStrength: floatFromEnv("MIN_SIGNAL_STRENGTH", 0.8),
		RiskRewardRatio:   floatFromEnv("RISK_REWARD_RATIO", 2.0),
		HoursFilter:       boolFromEnv("HOURS_FILTER", true),

		PlaceMaxAttempts:   intFromEnv("PLACE_MAX_ATTEMPTS", 3),
		PlaceRetryDelay:    durationFromEnv("PLACE_RETRY_DELAY", "2s"),
		ConnectMaxAttempts: intFromEnv("CONNECT_MAX_ATTEMPTS", 3),
		ConnectBackoff:     durationFromEnv("CONNECT_BACKOFF", "5s"),

		SettlePoll:   durationFromEnv("SETTLE_POLL", "5s"),
		TickInterval: durationFromEnv("TICK_INTERVAL", "1s"),
	}
	err = decoder.Decode(&config)
	if err != nil {
		log.Fatalf("Failed to decode config file: %v", err)
	}

	token := os.Getenv(tokenTelegramENV)
	if token != "" {
		config.Telegram.Token = token
	}

	dsn := os.Getenv(databaseDSN)
	if dsn != "" {
		config.DB = dsn
	}

	venueToken := os.Getenv(venueTokenENV)
	if venueToken != "" {
		config.Venue.APIToken = venueToken
	}

	return &config, nil
}

func intFromEnv(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func floatFromEnv(key string, def float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

func boolFromEnv(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		if v == "1" || v == "true" || v == "TRUE" {
			return true
		}
		if v == "0" || v == "false" || v == "FALSE" {
			return false
		}
	}
	return def
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func durationFromEnv(key, def string) time.Duration {
	val := getenvDefault(key, def)
	d, err := time.ParseDuration(val)
	if err != nil {
		d, _ = time.ParseDuration(def)
	}
	return d
}
