package telemetry

// Config holds the OpenTelemetry tracing configuration.
type Config struct {
	// Enabled turns tracing on. Tracing also stays off while Endpoint is empty.
	Enabled bool `mapstructure:"enabled" default:"false"`
	// Endpoint is the OTLP/HTTP collector URL (e.g. http://localhost:4318).
	Endpoint string `mapstructure:"endpoint" default:""`
	// ServiceName is reported as the service.name resource attribute.
	ServiceName string `mapstructure:"service_name" default:"roleboard"`
}
