package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/pflag"
)

const (
	BlobBackendSQLite = "sqlite"
	BlobBackendS3     = "s3"
)

// S3 holds settings for the S3-compatible blob backend.
type S3 struct {
	User     string
	Password string
	Bucket   string
	Region   string
	Endpoint string
	Prefix   string
}

// Config holds runtime settings for the survey engine.
//
// Relative DatabaseFile and FallbackFile paths are resolved against DataDir.
type Config struct {
	DataDir      string
	DatabaseFile string
	FallbackFile string
	DocumentKey  string

	AutosaveDelay    time.Duration
	HealthInterval   time.Duration
	QuotaWarnPercent float64

	ExportDir    string
	DownloadDir  string
	ShareCommand string

	BlobBackend        string
	S3                 S3
	ArchiveConcurrency int

	LogFormat string
	LogLevel  string
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.DataDir = defaultDataDir()
	c.DatabaseFile = "survey.db"
	c.FallbackFile = "fallback.toml"
	c.DocumentKey = "current_project"
	c.AutosaveDelay = 400 * time.Millisecond
	c.HealthInterval = 10 * time.Second
	c.QuotaWarnPercent = 90
	c.BlobBackend = BlobBackendSQLite
	c.S3 = S3{Region: "us-east-1", Prefix: "photos/"}
	c.ArchiveConcurrency = 4
	c.LogFormat = "auto"
	c.LogLevel = "info"
}

func defaultDataDir() string {
	if dir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(dir, "ospsurvey")
	}
	return ".ospsurvey"
}

// LoadConfig builds a Config from defaults, environment, JSON and flags.
// Later sources take precedence. fs may be nil.
func LoadConfig(fs *pflag.FlagSet) (*Config, error) {
	cfg := &Config{}
	cfg.LoadDefaults()
	if err := parseEnv(cfg); err != nil {
		return nil, err
	}
	if err := parseJson(cfg, jsonPath(fs)); err != nil {
		return nil, err
	}
	if err := parseFlags(cfg, fs); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects settings the engine cannot run with.
func (c *Config) Validate() error {
	switch c.BlobBackend {
	case BlobBackendSQLite:
	case BlobBackendS3:
		if c.S3.Bucket == "" {
			return fmt.Errorf("config: s3 blob backend requires a bucket")
		}
	default:
		return fmt.Errorf("config: unknown blob backend %q", c.BlobBackend)
	}
	if c.DataDir == "" {
		return fmt.Errorf("config: data dir is empty")
	}
	if c.QuotaWarnPercent < 0 || c.QuotaWarnPercent > 100 {
		return fmt.Errorf("config: quota warn percent %v out of range", c.QuotaWarnPercent)
	}
	return nil
}

func (c *Config) resolve(name string) string {
	if filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(c.DataDir, name)
}

// DatabasePath is the SQLite store location.
func (c *Config) DatabasePath() string { return c.resolve(c.DatabaseFile) }

// FallbackPath is the secondary config tier location.
func (c *Config) FallbackPath() string { return c.resolve(c.FallbackFile) }

// ShareArgs splits ShareCommand into argv.
func (c *Config) ShareArgs() []string { return strings.Fields(c.ShareCommand) }
