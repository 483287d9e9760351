// Package server holds the HTTP server configuration.
//
// The main application entry point (cmd/start.go) handles server startup; this
// package only defines the port, the optional API key protecting every route,
// and the bot identifier attached to bindings created over HTTP.
package server
