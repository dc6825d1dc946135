package config

import (
	"os"
	"time"

	"eventboard/internal/logger"

	"github.com/joho/godotenv"
)

// Config 进程级配置，全部来自环境变量（可由 .env 文件提供）
type Config struct {
	DatabaseURL       string
	SessionSecret     string
	Port              string
	FetchTimeout      time.Duration
	PolymarketBaseURL string
	EventsSeedFile    string
	TemplatesDir      string
}

// Load 读取 .env（若存在）后从环境变量构造配置
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		logger.Info.Println("No .env file found, finding env vars from system")
	}

	cfg := &Config{
		DatabaseURL:       os.Getenv("DATABASE_URL"),
		SessionSecret:     getenv("SESSION_SECRET", "secret_key_change_me"),
		Port:              getenv("PORT", "8080"),
		FetchTimeout:      10 * time.Second,
		PolymarketBaseURL: getenv("POLYMARKET_BASE_URL", "https://gamma-api.polymarket.com"),
		EventsSeedFile:    os.Getenv("EVENTS_SEED_FILE"),
		TemplatesDir:      getenv("TEMPLATES_DIR", "./web/templates"),
	}

	if raw := os.Getenv("FETCH_TIMEOUT"); raw != "" {
		d, err := time.ParseDuration(raw)
		if err != nil || d <= 0 {
			logger.Warn.Printf("FETCH_TIMEOUT=%q 无效，使用默认值 %s", raw, cfg.FetchTimeout)
		} else {
			cfg.FetchTimeout = d
		}
	}

	return cfg
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
