package cache

import "time"

// Config holds the redis cache configuration.
type Config struct {
	// Enabled switches the redis cache on. When off a no-op cache is used.
	Enabled bool `mapstructure:"enabled" default:"false"`
	// Addr is the redis host:port.
	Addr string `mapstructure:"addr" default:"localhost:6379"`
	// Password is the redis password (optional).
	Password string `mapstructure:"password" default:""`
	// DB is the redis logical database.
	DB int `mapstructure:"db" default:"0"`
	// Prefix is prepended to every key.
	Prefix string `mapstructure:"prefix" default:"roleboard:"`
	// TTL is the default lifetime of cached entries.
	TTL time.Duration `mapstructure:"ttl" default:"60s"`
}
