// Package config provides configuration management for roleboard.
//
// It utilizes Viper for loading configuration from environment variables and
// an optional .env file. Defaults come from the `default` struct tags of each
// section, walked by reflection.
//
// # Configuration Structure
//
// The Config struct is the central repository for all application settings, divided into subsections:
//   - Server: HTTP server settings (port, API key, bot id)
//   - Database: mysql, postgres or sqlite connection details
//   - Storage: S3/MinIO credentials and the archive bucket
//   - Redis: ranking cache
//   - Refresh: fetch concurrency, limiter mode, variant groups
//   - Ranking, HoldRate, Scoring, Upstream, Telemetry
//   - Log: Logging level and format
//
// Environment keys are the upper-cased section and key joined by an
// underscore, e.g. REFRESH_CONCURRENCY or HOLD_RATE_HOUR.
//
// # Usage
//
//	cfg, err := config.LoadConfig(".")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(cfg.Server.Port)
package config
