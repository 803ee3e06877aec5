// internal/config/config.go
package conf

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Główny config aplikacji
type Config struct {
	AutoStart           bool           `json:"auto_start"`
	SyncIntervalSeconds int            `json:"sync_interval_seconds"` // tick schedulera
	FeedsDir            string         `json:"feeds_dir"`             // *.yaml z zadaniami importu
	LogLevel            string         `json:"log_level"`
	Database            DatabaseConfig `json:"database"`
	HTTP                HTTPConfig     `json:"http"`
	Import              ImportConfig   `json:"import"`
}

type DatabaseConfig struct {
	Driver string `json:"driver"` // sqlite | sqlite3 | postgres | mysql
	DSN    string `json:"dsn"`    // puste przy sqlite = <appdir>/feedsync.db
}

type HTTPConfig struct {
	Addr               string `json:"addr"`
	APIAccessKey       string `json:"api_access_key"` // puste = bez autoryzacji
	RateLimitPerMinute int    `json:"rate_limit_per_minute"`
}

type ImportConfig struct {
	FetchTimeoutSeconds int    `json:"fetch_timeout_seconds"`
	MaxDocumentMB       int    `json:"max_document_mb"`
	UserAgent           string `json:"user_agent"`
	BatchSize           int    `json:"batch_size"`
	Concurrency         int    `json:"concurrency"`
	DefaultFormat       string `json:"default_format"`
	Locale              string `json:"locale"`
}

func Default() *Config {
	return &Config{
		AutoStart:           false,
		SyncIntervalSeconds: 60,
		FeedsDir:            "./feeds",
		LogLevel:            "info",
		Database:            DatabaseConfig{Driver: "sqlite"},
		HTTP: HTTPConfig{
			Addr:               ":8080",
			RateLimitPerMinute: 30,
		},
		Import: ImportConfig{
			FetchTimeoutSeconds: 120,
			MaxDocumentMB:       64,
			UserAgent:           "feedsync/1.0",
			BatchSize:           20,
			Concurrency:         4,
			DefaultFormat:       "google_merchant",
			Locale:              "pl_PL",
		},
	}
}

func LoadOrCreate(path string) (*Config, bool, error) {
	// upewnij się, że katalog istnieje
	_ = os.MkdirAll(filepath.Dir(path), 0o755)

	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			cfg := Default()
			if err := Save(path, cfg); err != nil {
				return nil, false, fmt.Errorf("błąd zapisu domyślnego configa: %w", err)
			}
			return cfg, true, nil
		}
		return nil, false, fmt.Errorf("błąd otwierania configa: %w", err)
	}
	defer f.Close()

	// brakujące klucze biorą wartości domyślne
	cfg := Default()
	if err := json.NewDecoder(f).Decode(cfg); err != nil {
		return nil, false, fmt.Errorf("błąd parsowania configa: %w", err)
	}
	cfg.fill()
	return cfg, false, nil
}

// fill poprawia wartości, które po ręcznej edycji są zerowe albo ujemne.
func (c *Config) fill() {
	d := Default()
	if c.SyncIntervalSeconds <= 0 {
		c.SyncIntervalSeconds = d.SyncIntervalSeconds
	}
	if c.Database.Driver == "" {
		c.Database.Driver = d.Database.Driver
	}
	if c.HTTP.Addr == "" {
		c.HTTP.Addr = d.HTTP.Addr
	}
	if c.Import.FetchTimeoutSeconds <= 0 {
		c.Import.FetchTimeoutSeconds = d.Import.FetchTimeoutSeconds
	}
	if c.Import.MaxDocumentMB <= 0 {
		c.Import.MaxDocumentMB = d.Import.MaxDocumentMB
	}
	if c.Import.BatchSize <= 0 {
		c.Import.BatchSize = d.Import.BatchSize
	}
	if c.Import.Locale == "" {
		c.Import.Locale = d.Import.Locale
	}
}

func Save(path string, cfg *Config) error {
	_ = os.MkdirAll(filepath.Dir(path), 0o755)
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(cfg)
}
