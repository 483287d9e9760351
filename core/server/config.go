package server

// Config holds configuration for the HTTP server.
type Config struct {
	// Port is the port where the server will listen.
	Port string `mapstructure:"port" default:"8080"`
	// ApiKey is the secret key required to access the API. Empty disables the check.
	ApiKey string `mapstructure:"api_key" default:""`
	// BotID identifies the platform bot that owns bindings created through this server.
	BotID string `mapstructure:"bot_id" default:"default"`
}

// AuthEnabled reports whether API key protection is configured.
func (c Config) AuthEnabled() bool {
	return c.ApiKey != ""
}
