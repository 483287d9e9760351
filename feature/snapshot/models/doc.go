// Package models defines the persisted tables: accounts, bindings,
// character snapshots and character hold rates.
package models
