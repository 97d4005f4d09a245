package config

import (
	"log"
	"time"

	"github.com/spf13/viper"
)

// Config holds the full application configuration loaded from environment
// variables or a local .env file.
//
// It is composed of smaller structs that represent different concerns of the
// system: the HTTP server, on-disk data location, upstream endpoints, and the
// refresh pipeline limits.
//
// Example YAML/ENV equivalent:
//
//	SERVER_PORT=8080
//	DATA_DIR=./data
//	NAVER_API_BASE=https://m.stock.naver.com
//	MAX_CONCURRENCY=10
type Config struct {
	Server   ServerConfig   // HTTP server configuration
	Data     DataConfig     // On-disk snapshot/portfolio location
	Upstream UpstreamConfig // Upstream provider endpoints
	Refresh  RefreshConfig  // Refresh pipeline tuning
}

// ServerConfig holds HTTP server settings such as the port to listen on.
type ServerConfig struct {
	Port string // The TCP port the HTTP server will listen on (e.g., "8080")
}

// DataConfig points at the directory holding the universe snapshot, the
// manual dividend-history overrides, and the portfolio files.
type DataConfig struct {
	Dir string
}

// UpstreamConfig defines base URLs for the external data providers.
//
// Fields:
//   - KRXBase:          exchange bulk closing-price API.
//   - NaverAPIBase:     Naver mobile stock/ETF API (quotes, history, dividends).
//   - NaverChartBase:   Naver chart API (intraday samples).
//   - NaverFinanceBase: Naver finance site (ETF directory).
//   - FnGuideBase:      FnGuide snapshot pages (label/table extraction).
//   - Timeout:          per-request HTTP timeout.
type UpstreamConfig struct {
	KRXBase          string
	NaverAPIBase     string
	NaverChartBase   string
	NaverFinanceBase string
	FnGuideBase      string
	Timeout          time.Duration
}

// RefreshConfig bounds the refresh pipeline.
//
// MaxConcurrency caps simultaneous Naver connections during a full refresh.
// QuoteConcurrency caps the lightweight quotes-only path, which is allowed a
// higher limit because it issues far fewer calls per ticker.
type RefreshConfig struct {
	MaxConcurrency   int
	QuoteConcurrency int
	QuoteCacheTTL    time.Duration
}

// AppConfig is the globally accessible configuration instance.
//
// It is populated once via LoadConfig() and used throughout the application.
// All services should import this package and read from AppConfig instead of
// reloading environment variables directly.
var AppConfig Config

// LoadConfig initializes the global AppConfig by reading from a .env file
// or directly from environment variables.
//
// Precedence (from lowest to highest):
//  1. Defaults set in this function.
//  2. Values from .env file (if present).
//  3. Environment variables.
func LoadConfig() {
	viper.SetDefault("SERVER_PORT", "8080")
	viper.SetDefault("DATA_DIR", "./data")

	viper.SetDefault("KRX_BASE", "http://data.krx.co.kr")
	viper.SetDefault("NAVER_API_BASE", "https://m.stock.naver.com")
	viper.SetDefault("NAVER_CHART_BASE", "https://api.stock.naver.com")
	viper.SetDefault("NAVER_FINANCE_BASE", "https://finance.naver.com")
	viper.SetDefault("FNGUIDE_BASE", "https://comp.fnguide.com")
	viper.SetDefault("HTTP_TIMEOUT_SECONDS", 10)

	viper.SetDefault("MAX_CONCURRENCY", 10)
	viper.SetDefault("QUOTE_CONCURRENCY", 20)
	viper.SetDefault("QUOTE_CACHE_TTL_SECONDS", 30)

	// Optionally read from .env if present (common in local dev)
	viper.SetConfigFile(".env")
	_ = viper.ReadInConfig() // ignore error if no .env

	viper.AutomaticEnv()

	AppConfig = Config{
		Server: ServerConfig{
			Port: viper.GetString("SERVER_PORT"),
		},
		Data: DataConfig{
			Dir: viper.GetString("DATA_DIR"),
		},
		Upstream: UpstreamConfig{
			KRXBase:          viper.GetString("KRX_BASE"),
			NaverAPIBase:     viper.GetString("NAVER_API_BASE"),
			NaverChartBase:   viper.GetString("NAVER_CHART_BASE"),
			NaverFinanceBase: viper.GetString("NAVER_FINANCE_BASE"),
			FnGuideBase:      viper.GetString("FNGUIDE_BASE"),
			Timeout:          time.Duration(viper.GetInt("HTTP_TIMEOUT_SECONDS")) * time.Second,
		},
		Refresh: RefreshConfig{
			MaxConcurrency:   viper.GetInt("MAX_CONCURRENCY"),
			QuoteConcurrency: viper.GetInt("QUOTE_CONCURRENCY"),
			QuoteCacheTTL:    time.Duration(viper.GetInt("QUOTE_CACHE_TTL_SECONDS")) * time.Second,
		},
	}

	validateConfig()
}

// validateConfig ensures required variables are present and terminates the
// application if they are missing. This avoids unexpected runtime failures
// due to incomplete configuration.
func validateConfig() {
	var missing []string

	if AppConfig.Server.Port == "" {
		missing = append(missing, "SERVER_PORT")
	}
	if AppConfig.Data.Dir == "" {
		missing = append(missing, "DATA_DIR")
	}
	if AppConfig.Upstream.KRXBase == "" {
		missing = append(missing, "KRX_BASE")
	}
	if AppConfig.Upstream.NaverAPIBase == "" {
		missing = append(missing, "NAVER_API_BASE")
	}
	if AppConfig.Upstream.NaverChartBase == "" {
		missing = append(missing, "NAVER_CHART_BASE")
	}
	if AppConfig.Upstream.NaverFinanceBase == "" {
		missing = append(missing, "NAVER_FINANCE_BASE")
	}
	if AppConfig.Upstream.FnGuideBase == "" {
		missing = append(missing, "FNGUIDE_BASE")
	}
	if AppConfig.Refresh.MaxConcurrency <= 0 {
		missing = append(missing, "MAX_CONCURRENCY")
	}
	if AppConfig.Refresh.QuoteConcurrency <= 0 {
		missing = append(missing, "QUOTE_CONCURRENCY")
	}

	if len(missing) > 0 {
		log.Fatalf("missing required environment variables: %v\n", missing)
	}
}
