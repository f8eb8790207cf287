package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

const envPrefix = "OSP_"

// dotenvFile is loaded from the working directory when present. Variables
// already set in the process environment win.
var dotenvFile = ".env"

// parseEnv overlays Config with OSP_* environment variables.
func parseEnv(cfg *Config) error {
	if err := godotenv.Load(dotenvFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("load %s: %w", dotenvFile, err)
	}

	str := func(name string, dst *string) {
		if v, ok := os.LookupEnv(envPrefix + name); ok {
			*dst = v
		}
	}
	str("DATA_DIR", &cfg.DataDir)
	str("DATABASE_FILE", &cfg.DatabaseFile)
	str("FALLBACK_FILE", &cfg.FallbackFile)
	str("DOCUMENT_KEY", &cfg.DocumentKey)
	str("EXPORT_DIR", &cfg.ExportDir)
	str("DOWNLOAD_DIR", &cfg.DownloadDir)
	str("SHARE_COMMAND", &cfg.ShareCommand)
	str("BLOB_BACKEND", &cfg.BlobBackend)
	str("S3_USER", &cfg.S3.User)
	str("S3_PASSWORD", &cfg.S3.Password)
	str("S3_BUCKET", &cfg.S3.Bucket)
	str("S3_REGION", &cfg.S3.Region)
	str("S3_ENDPOINT", &cfg.S3.Endpoint)
	str("S3_PREFIX", &cfg.S3.Prefix)
	str("LOG_FORMAT", &cfg.LogFormat)
	str("LOG_LEVEL", &cfg.LogLevel)

	var errs []error
	dur := func(name string, dst *time.Duration) {
		if v, ok := os.LookupEnv(envPrefix + name); ok {
			d, err := time.ParseDuration(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s%s: %w", envPrefix, name, err))
				return
			}
			*dst = d
		}
	}
	dur("AUTOSAVE_DELAY", &cfg.AutosaveDelay)
	dur("HEALTH_INTERVAL", &cfg.HealthInterval)

	if v, ok := os.LookupEnv(envPrefix + "QUOTA_WARN_PERCENT"); ok {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			errs = append(errs, fmt.Errorf("%sQUOTA_WARN_PERCENT: %w", envPrefix, err))
		} else {
			cfg.QuotaWarnPercent = f
		}
	}
	if v, ok := os.LookupEnv(envPrefix + "ARCHIVE_CONCURRENCY"); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("%sARCHIVE_CONCURRENCY: %w", envPrefix, err))
		} else {
			cfg.ArchiveConcurrency = n
		}
	}
	return errors.Join(errs...)
}
