// Package config loads runtime configuration for the ospsurvey CLI.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. A .env file in the working directory, then OSP_* environment
//     variables (see parseEnv).
//  3. Optional JSON file (see parseJson) selected by -c/--config or
//     OSP_CONFIG.
//  4. Command-line flags the user actually set (see parseFlags).
//
// # JSON schema
//
// Durations use timex.Duration, so values can be strings like "400ms" or
// integer nanoseconds:
//
//	{
//	  "data_dir": "/var/lib/ospsurvey",
//	  "autosave_delay": "400ms",
//	  "health_interval": "10s",
//	  "blob_backend": "s3",
//	  "s3": {"bucket": "survey-photos", "endpoint": "http://127.0.0.1:9000"}
//	}
package config
