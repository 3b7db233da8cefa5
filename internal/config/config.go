package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

// Config holds application configuration.
type Config struct {
	Port            string        `validate:"required,numeric"`
	LogLevel        string        `validate:"oneof=trace debug info warn error disabled"`
	MaxUploadBytes  int           `validate:"gt=0"`
	Workers         int           `validate:"min=1,max=64"`
	AnalysisTimeout time.Duration `validate:"gt=0"`
	SessionTTL      time.Duration `validate:"gt=0"`

	CreditPolicy      string `validate:"oneof=keyword income none"`
	LargeTxnThreshold decimal.Decimal

	// Extraction
	MinTextChars     int     `validate:"min=1"`
	MinReadableRatio float64 `validate:"gte=0,lte=1"`
	OCRLanguage      string  `validate:"required"`
	OCRDPI           int     `validate:"min=72,max=1200"`
	OCRPSM           int     `validate:"min=0,max=13"`

	RateLimitRPS   float64 `validate:"gt=0"`
	RateLimitBurst int     `validate:"min=1"`
}

// Load reads configuration from the environment, after loading the given
// .env files (".env" when none are named). Missing .env files are ignored.
func Load(envFiles ...string) (*Config, error) {
	_ = godotenv.Load(envFiles...)

	v := viper.New()
	v.SetDefault("PORT", "8080")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("MAX_UPLOAD_BYTES", 20<<20)
	v.SetDefault("WORKERS", 4)
	v.SetDefault("ANALYSIS_TIMEOUT", "2m")
	v.SetDefault("SESSION_TTL", "30m")
	v.SetDefault("CREDIT_POLICY", "keyword")
	v.SetDefault("LARGE_TXN_THRESHOLD", "5000")
	v.SetDefault("MIN_TEXT_CHARS", 1)
	v.SetDefault("MIN_READABLE_RATIO", 0)
	v.SetDefault("OCR_LANGUAGE", "eng")
	v.SetDefault("OCR_DPI", 300)
	v.SetDefault("OCR_PSM", 4)
	v.SetDefault("RATE_LIMIT_RPS", 10)
	v.SetDefault("RATE_LIMIT_BURST", 30)
	v.AutomaticEnv()

	threshold, err := decimal.NewFromString(v.GetString("LARGE_TXN_THRESHOLD"))
	if err != nil || !threshold.IsPositive() {
		return nil, fmt.Errorf("invalid LARGE_TXN_THRESHOLD %q", v.GetString("LARGE_TXN_THRESHOLD"))
	}

	cfg := &Config{
		Port:              v.GetString("PORT"),
		LogLevel:          strings.ToLower(v.GetString("LOG_LEVEL")),
		MaxUploadBytes:    v.GetInt("MAX_UPLOAD_BYTES"),
		Workers:           v.GetInt("WORKERS"),
		AnalysisTimeout:   v.GetDuration("ANALYSIS_TIMEOUT"),
		SessionTTL:        v.GetDuration("SESSION_TTL"),
		CreditPolicy:      strings.ToLower(v.GetString("CREDIT_POLICY")),
		LargeTxnThreshold: threshold,
		MinTextChars:      v.GetInt("MIN_TEXT_CHARS"),
		MinReadableRatio:  v.GetFloat64("MIN_READABLE_RATIO"),
		OCRLanguage:       v.GetString("OCR_LANGUAGE"),
		OCRDPI:            v.GetInt("OCR_DPI"),
		OCRPSM:            v.GetInt("OCR_PSM"),
		RateLimitRPS:      v.GetFloat64("RATE_LIMIT_RPS"),
		RateLimitBurst:    v.GetInt("RATE_LIMIT_BURST"),
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}
