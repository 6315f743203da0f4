package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// DefaultWallets are the two wallets tracked when PORTFOLIO_WALLETS is unset
var DefaultWallets = []string{
	"2AiLzs7bhm2kJkx4hw62kNykTcqHuWhFWwbumLMaHJPv",
	"GvhEuFmQYnxtXnyT1dwkLabgWhMGbgimJXvGdHSuMdNU",
}

// Config holds all configuration for the application
type Config struct {
	Server    ServerConfig    `json:"server"`
	RPC       RPCConfig       `json:"rpc"`
	Price     PriceConfig     `json:"price"`
	Portfolio PortfolioConfig `json:"portfolio"`
	Display   DisplayConfig   `json:"display"`
	Loading   LoadingConfig   `json:"loading"`
	RateLimit RateLimitConfig `json:"rate_limit"`
	Logging   LoggingConfig   `json:"logging"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port         string        `json:"port"`
	Host         string        `json:"host"`
	ReadTimeout  time.Duration `json:"read_timeout"`
	WriteTimeout time.Duration `json:"write_timeout"`
	IdleTimeout  time.Duration `json:"idle_timeout"`
}

// RPCConfig holds Solana RPC configuration
type RPCConfig struct {
	Endpoint   string        `json:"endpoint"`
	Timeout    time.Duration `json:"timeout"`
	MaxRetries int           `json:"max_retries"`
	RetryDelay time.Duration `json:"retry_delay"`
}

// PriceConfig holds the DexScreener price source configuration
type PriceConfig struct {
	BaseURL  string        `json:"base_url"`
	Timeout  time.Duration `json:"timeout"`
	CacheTTL time.Duration `json:"cache_ttl"`
}

// PortfolioConfig describes what is valued and how often the total is recomputed
type PortfolioConfig struct {
	Wallets       []string      `json:"wallets"`
	Goal          float64       `json:"goal"`
	RefreshWindow time.Duration `json:"refresh_window"`
}

// DisplayConfig holds the polling display controller configuration
type DisplayConfig struct {
	Endpoint        string        `json:"endpoint"`
	PollInterval    time.Duration `json:"poll_interval"`
	DirectionWindow time.Duration `json:"direction_window"`
	FetchTimeout    time.Duration `json:"fetch_timeout"`
	ParticleCount   int           `json:"particle_count"`
}

// LoadingConfig holds the loading screen animation parameters
type LoadingConfig struct {
	Tick          time.Duration `json:"tick"`
	Step          int           `json:"step"`
	Threshold     float64       `json:"threshold"`
	CompleteDelay time.Duration `json:"complete_delay"`
}

// RateLimitConfig holds per-client rate limiting configuration
type RateLimitConfig struct {
	RequestsPerSecond float64       `json:"requests_per_second"`
	Burst             int           `json:"burst"`
	CleanupInterval   time.Duration `json:"cleanup_interval"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level       string   `json:"level"`
	Environment string   `json:"environment"`
	OutputPaths []string `json:"output_paths"`
}

// MinJobInterval is the shortest interval a periodic job can be scheduled at
const MinJobInterval = time.Second

// LoadConfig loads configuration from environment variables with defaults.
// A .env file in the working directory is read first when present.
func LoadConfig() *Config {
	_ = godotenv.Load()

	port := getEnv("SERVER_PORT", "8080")

	return &Config{
		Server: ServerConfig{
			Port:         port,
			Host:         getEnv("SERVER_HOST", "0.0.0.0"),
			ReadTimeout:  getDurationEnv("SERVER_READ_TIMEOUT", 10*time.Second),
			WriteTimeout: getDurationEnv("SERVER_WRITE_TIMEOUT", 30*time.Second),
			IdleTimeout:  getDurationEnv("SERVER_IDLE_TIMEOUT", 60*time.Second),
		},
		RPC: RPCConfig{
			Endpoint:   getEnv("SOLANA_RPC_ENDPOINT", "https://api.mainnet-beta.solana.com"),
			Timeout:    getDurationEnv("SOLANA_RPC_TIMEOUT", 15*time.Second),
			MaxRetries: getIntEnv("SOLANA_RPC_MAX_RETRIES", 2),
			RetryDelay: getDurationEnv("SOLANA_RPC_RETRY_DELAY", 500*time.Millisecond),
		},
		Price: PriceConfig{
			BaseURL:  getEnv("PRICE_API_BASE_URL", "https://api.dexscreener.com"),
			Timeout:  getDurationEnv("PRICE_API_TIMEOUT", 10*time.Second),
			CacheTTL: getDurationEnv("PRICE_CACHE_TTL", 30*time.Second),
		},
		Portfolio: PortfolioConfig{
			Wallets:       getStringSliceEnv("PORTFOLIO_WALLETS", DefaultWallets),
			Goal:          getFloatEnv("PORTFOLIO_GOAL", 1000000),
			RefreshWindow: getDurationEnv("PORTFOLIO_REFRESH_WINDOW", 5*time.Second),
		},
		Display: DisplayConfig{
			Endpoint:        getEnv("DISPLAY_ENDPOINT", "http://127.0.0.1:"+port+"/api/portfolio-value"),
			PollInterval:    getJobIntervalEnv("DISPLAY_POLL_INTERVAL", 5*time.Second),
			DirectionWindow: getDurationEnv("DISPLAY_DIRECTION_WINDOW", 500*time.Millisecond),
			FetchTimeout:    getDurationEnv("DISPLAY_FETCH_TIMEOUT", 60*time.Second),
			ParticleCount:   getIntEnv("PARTICLE_COUNT", 30),
		},
		Loading: LoadingConfig{
			Tick:          getDurationEnv("LOADING_TICK", 10*time.Millisecond),
			Step:          getIntEnv("LOADING_STEP", 2),
			Threshold:     getFloatEnv("LOADING_THRESHOLD", 1),
			CompleteDelay: getDurationEnv("LOADING_COMPLETE_DELAY", 300*time.Millisecond),
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: getFloatEnv("RATE_LIMIT_REQUESTS_PER_SECOND", 10),
			Burst:             getIntEnv("RATE_LIMIT_BURST", 20),
			CleanupInterval:   getJobIntervalEnv("RATE_LIMIT_CLEANUP_INTERVAL", 5*time.Minute),
		},
		Logging: LoggingConfig{
			Level:       getEnv("LOG_LEVEL", "info"),
			Environment: getEnv("LOG_ENVIRONMENT", "development"),
			OutputPaths: getStringSliceEnv("LOG_OUTPUT_PATHS", []string{"stdout"}),
		},
	}
}

// Helper functions for environment variable parsing
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getFloatEnv(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// getJobIntervalEnv reads the interval of a scheduled job. Values below
// MinJobInterval are raised to it since the scheduler cannot run them.
func getJobIntervalEnv(key string, defaultValue time.Duration) time.Duration {
	if interval := getDurationEnv(key, defaultValue); interval >= MinJobInterval {
		return interval
	}
	return MinJobInterval
}

// getStringSliceEnv splits a comma-separated value, dropping empty items
func getStringSliceEnv(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	var items []string
	for _, item := range strings.Split(value, ",") {
		if trimmed := strings.TrimSpace(item); trimmed != "" {
			items = append(items, trimmed)
		}
	}
	if len(items) == 0 {
		return defaultValue
	}
	return items
}
