package config

import (
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
)

type Config struct {
	Port                string        `env:"PORT" envDefault:"8080"`
	PostgresURL         string        `env:"POSTGRES_URL"`
	DataDir             string        `env:"DATA_DIR" envDefault:"./data"`
	FinnhubAPIKey       string        `env:"FINNHUB_API_KEY"`
	QuoteBaseURL        string        `env:"QUOTE_BASE_URL" envDefault:"https://finnhub.io/api/v1"`
	QuoteCacheTTL       time.Duration `env:"QUOTE_CACHE_TTL" envDefault:"60s"`
	QuoteTimeout        time.Duration `env:"QUOTE_TIMEOUT" envDefault:"5s"`
	PriceUpdateInterval time.Duration `env:"PRICE_UPDATE_INTERVAL" envDefault:"1h"`
	LogLevel            string        `env:"LOG_LEVEL" envDefault:"info"`
	Currency            string        `env:"CURRENCY" envDefault:"USD"`
	OversellPolicy      string        `env:"OVERSELL_POLICY" envDefault:"remove"`
}

// Load reads .env if present, then the environment.
func Load() (Config, error) {
	_ = godotenv.Load()
	var cfg Config
	return cfg, env.Parse(&cfg)
}
