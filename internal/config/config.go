package config

import (
	"log"
	"os"
	"strconv"
	"strings"
)

type Config struct {
	DatabaseURL string
	RedisURL    string

	MarketBaseURL   string
	TickerCacheSecs int
	OHLCVCacheSecs  int
	FetchTimeoutSec int

	BotTickSecs      int
	PositionFraction float64
	StartingCapital  float64

	ExchangeAPIKey    string
	ExchangeAPISecret string

	OpenAIAPIKey      string
	OpenAIModel       string
	AdvisorMaxHistory int

	TelegramBotToken string

	MCPTransport          string
	MCPRequestTimeoutSecs int
	MCPAuthToken          string
	MCPHTTPBind           string
	MCPHTTPPort           int
}

func Load() *Config {
	cfg := &Config{
		DatabaseURL:      os.Getenv("DATABASE_URL"),
		RedisURL:         os.Getenv("REDIS_URL"),
		OpenAIAPIKey:     os.Getenv("OPENAI_API_KEY"),
		TelegramBotToken: os.Getenv("TELEGRAM_BOT_TOKEN"),
	}

	if cfg.DatabaseURL == "" {
		log.Println("Warning: DATABASE_URL not set")
	}
	if cfg.RedisURL == "" {
		log.Println("Warning: REDIS_URL not set, defaulting to localhost:6379")
		cfg.RedisURL = "localhost:6379"
	}

	cfg.MarketBaseURL = strings.TrimSpace(os.Getenv("MARKET_BASE_URL"))
	if cfg.MarketBaseURL == "" {
		cfg.MarketBaseURL = "https://api.binance.com"
	}

	cfg.TickerCacheSecs = 15
	if v := os.Getenv("TICKER_CACHE_SECS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.TickerCacheSecs = n
		}
	}

	cfg.OHLCVCacheSecs = 60
	if v := os.Getenv("OHLCV_CACHE_SECS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.OHLCVCacheSecs = n
		}
	}

	cfg.FetchTimeoutSec = 10
	if v := os.Getenv("FETCH_TIMEOUT_SECS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.FetchTimeoutSec = n
		}
	}

	cfg.BotTickSecs = 15
	if v := os.Getenv("BOT_TICK_SECS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.BotTickSecs = n
		}
	}

	cfg.PositionFraction = 0.10
	if v := strings.TrimSpace(os.Getenv("POSITION_FRACTION")); v != "" {
		if n, err := strconv.ParseFloat(v, 64); err == nil && n > 0 && n <= 1 {
			cfg.PositionFraction = n
		}
	}

	cfg.StartingCapital = 10000
	if v := strings.TrimSpace(os.Getenv("STARTING_CAPITAL")); v != "" {
		if n, err := strconv.ParseFloat(v, 64); err == nil && n > 0 {
			cfg.StartingCapital = n
		}
	}

	cfg.ExchangeAPIKey = os.Getenv("EXCHANGE_API_KEY")
	cfg.ExchangeAPISecret = os.Getenv("EXCHANGE_API_SECRET")

	if cfg.OpenAIAPIKey == "" {
		log.Println("Warning: OPENAI_API_KEY not set, advisor will be disabled")
	}

	cfg.OpenAIModel = strings.TrimSpace(os.Getenv("OPENAI_MODEL"))
	if cfg.OpenAIModel == "" {
		cfg.OpenAIModel = "gpt-4o-mini"
	}

	cfg.AdvisorMaxHistory = 10
	if v := os.Getenv("ADVISOR_MAX_HISTORY"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.AdvisorMaxHistory = n
		}
	}

	cfg.MCPTransport = strings.ToLower(strings.TrimSpace(os.Getenv("MCP_TRANSPORT")))
	if cfg.MCPTransport == "" {
		cfg.MCPTransport = "stdio"
	}
	if cfg.MCPTransport != "stdio" && cfg.MCPTransport != "http" {
		log.Printf("Warning: unsupported MCP_TRANSPORT=%q, defaulting to stdio", cfg.MCPTransport)
		cfg.MCPTransport = "stdio"
	}

	cfg.MCPRequestTimeoutSecs = 5
	if v := strings.TrimSpace(os.Getenv("MCP_REQUEST_TIMEOUT_SECS")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.MCPRequestTimeoutSecs = n
		}
	}

	cfg.MCPAuthToken = strings.TrimSpace(os.Getenv("MCP_AUTH_TOKEN"))

	cfg.MCPHTTPBind = strings.TrimSpace(os.Getenv("MCP_HTTP_BIND"))
	if cfg.MCPHTTPBind == "" {
		cfg.MCPHTTPBind = "127.0.0.1"
	}

	cfg.MCPHTTPPort = 8765
	if v := strings.TrimSpace(os.Getenv("MCP_HTTP_PORT")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n < 65536 {
			cfg.MCPHTTPPort = n
		}
	}

	return cfg
}
