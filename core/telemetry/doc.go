// Package telemetry configures OpenTelemetry tracing.
//
// Tracing is opt-in through telemetry.enabled and telemetry.endpoint. The
// refresh pipeline opens one span per refresh with child spans per stage.
package telemetry
