package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/joho/godotenv"
)

func TestFromEnv_Defaults(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("FORECAST_DIR", "")
	t.Setenv("HISTORY_FILE", "")
	t.Setenv("METADATA_FILE", "")
	t.Setenv("PRICES_FILE", "")
	t.Setenv("BUFFER_QUANTILE", "")
	t.Setenv("DEFAULT_HORIZON", "")

	cfg, err := FromEnv(dir)
	if err != nil {
		t.Fatalf("FromEnv failed: %v", err)
	}

	if cfg.ForecastDir != filepath.Join(dir, "data") {
		t.Errorf("unexpected forecast dir %s", cfg.ForecastDir)
	}
	if cfg.HistoryFile != filepath.Join(dir, "data", "history.csv") {
		t.Errorf("unexpected history file %s", cfg.HistoryFile)
	}
	if cfg.MetadataFile != filepath.Join(dir, "data", "metadata.json") {
		t.Errorf("unexpected metadata file %s", cfg.MetadataFile)
	}
	if cfg.PricesFile != filepath.Join(dir, "data", "prices.csv") {
		t.Errorf("unexpected prices file %s", cfg.PricesFile)
	}
	if cfg.BufferQuantile != 0 {
		t.Errorf("expected zero buffer, got %v", cfg.BufferQuantile)
	}
	if cfg.DefaultHorizon != "14" {
		t.Errorf("expected default horizon 14, got %s", cfg.DefaultHorizon)
	}
	if _, err := os.Stat(cfg.CacheDir); err != nil {
		t.Errorf("cache dir not created: %v", err)
	}
}

func TestFromEnv_Overrides(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("FORECAST_DIR", "/srv/forecast")
	t.Setenv("HISTORY_FILE", "")
	t.Setenv("METADATA_FILE", "")
	t.Setenv("BUFFER_QUANTILE", "0.15")
	t.Setenv("DEFAULT_HORIZON", "3 meses")

	cfg, err := FromEnv(dir)
	if err != nil {
		t.Fatalf("FromEnv failed: %v", err)
	}
	if cfg.HistoryFile != filepath.Join("/srv/forecast", "history.csv") {
		t.Errorf("history file should follow FORECAST_DIR, got %s", cfg.HistoryFile)
	}
	if cfg.BufferQuantile != 0.15 {
		t.Errorf("expected buffer 0.15, got %v", cfg.BufferQuantile)
	}
	if cfg.DefaultHorizon != "3 meses" {
		t.Errorf("expected horizon label, got %s", cfg.DefaultHorizon)
	}
}

func TestFromEnv_InvalidBuffer(t *testing.T) {
	tests := []struct {
		name  string
		value string
	}{
		{"NotANumber", "ten"},
		{"Negative", "-0.2"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("BUFFER_QUANTILE", tt.value)
			if _, err := FromEnv(t.TempDir()); err == nil {
				t.Errorf("expected error for BUFFER_QUANTILE=%q", tt.value)
			}
		})
	}
}

func TestGodotenvQuoting(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env.test")
	content := `FORECAST_DIR='/data/with "quotes"'`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	env, err := godotenv.Read(path)
	if err != nil {
		t.Fatalf("Error reading env: %v", err)
	}

	expected := `/data/with "quotes"`
	if env["FORECAST_DIR"] != expected {
		t.Errorf("Expected %s, got %s", expected, env["FORECAST_DIR"])
	}
}
