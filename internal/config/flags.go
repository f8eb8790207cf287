package config

import (
	"github.com/spf13/pflag"
)

// RegisterFlags declares every config flag on fs. Defaults shown in help
// are the built-in ones; unset flags never override other sources.
func RegisterFlags(fs *pflag.FlagSet) {
	var d Config
	d.LoadDefaults()

	fs.StringP("config", "c", "", "path to JSON config file")
	fs.StringP("data-dir", "d", d.DataDir, "directory holding the survey store")
	fs.String("document-key", d.DocumentKey, "key of the live project document")
	fs.Duration("autosave-delay", d.AutosaveDelay, "quiet period before autosave writes")
	fs.Duration("health-interval", d.HealthInterval, "storage health poll interval")
	fs.Float64("quota-warn", d.QuotaWarnPercent, "storage usage percent that triggers a warning")
	fs.String("export-dir", "", "deliver exports directly into this directory")
	fs.String("download-dir", "", "fallback download directory (default ~/Downloads)")
	fs.String("share-command", "", "command that receives the export file path")
	fs.String("blob-backend", d.BlobBackend, "photo blob backend: sqlite or s3")
	fs.String("s3-bucket", "", "S3 bucket for photo blobs")
	fs.String("s3-endpoint", "", "S3-compatible endpoint URL")
	fs.String("s3-region", d.S3.Region, "S3 region")
	fs.Int("archive-concurrency", d.ArchiveConcurrency, "parallel blob reads during export")
	fs.String("log-format", d.LogFormat, "log format: auto, text, json or zap")
	fs.String("log-level", d.LogLevel, "log level: debug, info, warn or error")
}

// parseFlags copies flags the user explicitly set into cfg.
func parseFlags(cfg *Config, fs *pflag.FlagSet) error {
	if fs == nil {
		return nil
	}

	var err error
	fs.Visit(func(f *pflag.Flag) {
		if err != nil {
			return
		}
		switch f.Name {
		case "data-dir":
			cfg.DataDir, err = fs.GetString(f.Name)
		case "document-key":
			cfg.DocumentKey, err = fs.GetString(f.Name)
		case "autosave-delay":
			cfg.AutosaveDelay, err = fs.GetDuration(f.Name)
		case "health-interval":
			cfg.HealthInterval, err = fs.GetDuration(f.Name)
		case "quota-warn":
			cfg.QuotaWarnPercent, err = fs.GetFloat64(f.Name)
		case "export-dir":
			cfg.ExportDir, err = fs.GetString(f.Name)
		case "download-dir":
			cfg.DownloadDir, err = fs.GetString(f.Name)
		case "share-command":
			cfg.ShareCommand, err = fs.GetString(f.Name)
		case "blob-backend":
			cfg.BlobBackend, err = fs.GetString(f.Name)
		case "s3-bucket":
			cfg.S3.Bucket, err = fs.GetString(f.Name)
		case "s3-endpoint":
			cfg.S3.Endpoint, err = fs.GetString(f.Name)
		case "s3-region":
			cfg.S3.Region, err = fs.GetString(f.Name)
		case "archive-concurrency":
			cfg.ArchiveConcurrency, err = fs.GetInt(f.Name)
		case "log-format":
			cfg.LogFormat, err = fs.GetString(f.Name)
		case "log-level":
			cfg.LogLevel, err = fs.GetString(f.Name)
		}
	})
	return err
}
