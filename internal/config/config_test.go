package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, 4, cfg.Workers)
	assert.Equal(t, 2*time.Minute, cfg.AnalysisTimeout)
	assert.Equal(t, 30*time.Minute, cfg.SessionTTL)
	assert.Equal(t, "keyword", cfg.CreditPolicy)
	assert.Equal(t, "5000", cfg.LargeTxnThreshold.String())
	assert.Equal(t, 1, cfg.MinTextChars)
	assert.Equal(t, "eng", cfg.OCRLanguage)
	assert.Equal(t, 300, cfg.OCRDPI)
	assert.Equal(t, 4, cfg.OCRPSM)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("WORKERS", "8")
	t.Setenv("ANALYSIS_TIMEOUT", "45s")
	t.Setenv("CREDIT_POLICY", "Income")
	t.Setenv("LARGE_TXN_THRESHOLD", "10000.50")
	t.Setenv("MIN_READABLE_RATIO", "0.6")

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, 8, cfg.Workers)
	assert.Equal(t, 45*time.Second, cfg.AnalysisTimeout)
	assert.Equal(t, "income", cfg.CreditPolicy)
	assert.Equal(t, "10000.5", cfg.LargeTxnThreshold.String())
	assert.InDelta(t, 0.6, cfg.MinReadableRatio, 1e-9)
}

func TestLoad_DotEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.env")
	require.NoError(t, os.WriteFile(path, []byte("OCR_LANGUAGE=hin\nOCR_PSM=6\n"), 0o600))
	t.Cleanup(func() {
		os.Unsetenv("OCR_LANGUAGE")
		os.Unsetenv("OCR_PSM")
	})

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "hin", cfg.OCRLanguage)
	assert.Equal(t, 6, cfg.OCRPSM)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		key, value string
	}{
		{"CREDIT_POLICY", "sometimes"},
		{"WORKERS", "0"},
		{"LOG_LEVEL", "loud"},
		{"PORT", "http"},
		{"MIN_READABLE_RATIO", "1.5"},
		{"LARGE_TXN_THRESHOLD", "-1"},
		{"LARGE_TXN_THRESHOLD", "lots"},
	}

	for _, tt := range tests {
		t.Run(tt.key+"="+tt.value, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)
			_, err := Load(filepath.Join(t.TempDir(), "missing.env"))
			assert.Error(t, err)
		})
	}
}
