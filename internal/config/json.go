package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/pflag"

	"github.com/Merlito456/ospsurveyengine/internal/timex"
)

// JsonConfig is a DTO used exclusively for JSON unmarshalling. Only fields
// present with a non-zero value override the running Config.
type JsonConfig struct {
	DataDir            string         `json:"data_dir"`
	DatabaseFile       string         `json:"database_file"`
	FallbackFile       string         `json:"fallback_file"`
	DocumentKey        string         `json:"document_key"`
	AutosaveDelay      timex.Duration `json:"autosave_delay"`
	HealthInterval     timex.Duration `json:"health_interval"`
	QuotaWarnPercent   float64        `json:"quota_warn_percent"`
	ExportDir          string         `json:"export_dir"`
	DownloadDir        string         `json:"download_dir"`
	ShareCommand       string         `json:"share_command"`
	BlobBackend        string         `json:"blob_backend"`
	ArchiveConcurrency int            `json:"archive_concurrency"`
	LogFormat          string         `json:"log_format"`
	LogLevel           string         `json:"log_level"`
	S3                 struct {
		User     string `json:"user"`
		Password string `json:"password"`
		Bucket   string `json:"bucket"`
		Region   string `json:"region"`
		Endpoint string `json:"endpoint"`
		Prefix   string `json:"prefix"`
	} `json:"s3"`
}

// jsonPath resolves the JSON file from -c/--config, falling back to
// OSP_CONFIG.
func jsonPath(fs *pflag.FlagSet) string {
	if fs != nil {
		if f := fs.Lookup("config"); f != nil && f.Value.String() != "" {
			return f.Value.String()
		}
	}
	return os.Getenv(envPrefix + "CONFIG")
}

// parseJson overlays Config with values loaded from the JSON file at path.
// An empty path loads nothing.
func parseJson(cfg *Config, path string) error {
	if path == "" {
		return nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}
	var jc JsonConfig
	if err := json.Unmarshal(data, &jc); err != nil {
		return fmt.Errorf("decode config %s: %w", path, err)
	}

	set := func(dst *string, v string) {
		if v != "" {
			*dst = v
		}
	}
	set(&cfg.DataDir, jc.DataDir)
	set(&cfg.DatabaseFile, jc.DatabaseFile)
	set(&cfg.FallbackFile, jc.FallbackFile)
	set(&cfg.DocumentKey, jc.DocumentKey)
	set(&cfg.ExportDir, jc.ExportDir)
	set(&cfg.DownloadDir, jc.DownloadDir)
	set(&cfg.ShareCommand, jc.ShareCommand)
	set(&cfg.BlobBackend, jc.BlobBackend)
	set(&cfg.LogFormat, jc.LogFormat)
	set(&cfg.LogLevel, jc.LogLevel)
	set(&cfg.S3.User, jc.S3.User)
	set(&cfg.S3.Password, jc.S3.Password)
	set(&cfg.S3.Bucket, jc.S3.Bucket)
	set(&cfg.S3.Region, jc.S3.Region)
	set(&cfg.S3.Endpoint, jc.S3.Endpoint)
	set(&cfg.S3.Prefix, jc.S3.Prefix)

	if jc.AutosaveDelay.Duration > 0 {
		cfg.AutosaveDelay = jc.AutosaveDelay.Duration
	}
	if jc.HealthInterval.Duration > 0 {
		cfg.HealthInterval = jc.HealthInterval.Duration
	}
	if jc.QuotaWarnPercent > 0 {
		cfg.QuotaWarnPercent = jc.QuotaWarnPercent
	}
	if jc.ArchiveConcurrency > 0 {
		cfg.ArchiveConcurrency = jc.ArchiveConcurrency
	}
	return nil
}
