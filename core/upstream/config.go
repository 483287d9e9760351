package upstream

import "time"

// Config holds the upstream game-data API configuration.
type Config struct {
	// BaseURL is the API root.
	BaseURL string `mapstructure:"base_url" default:"https://api.kurobbs.com"`
	// RoleListPath returns the account's character roster.
	RoleListPath string `mapstructure:"role_list_path" default:"/aki/roleBox/akiBox/roleData"`
	// RoleDetailPath returns one character's full detail blob.
	RoleDetailPath string `mapstructure:"role_detail_path" default:"/aki/roleBox/akiBox/getRoleDetail"`
	// GameID identifies the game on the API.
	GameID string `mapstructure:"game_id" default:"3"`
	// ServerID identifies the game server region.
	ServerID string `mapstructure:"server_id" default:"76402e5b20be2c39f095a152090afddc"`
	// Timeout bounds a single HTTP call.
	Timeout time.Duration `mapstructure:"timeout" default:"10s"`
	// InvalidCredentialCode is the response code meaning the token expired.
	InvalidCredentialCode int `mapstructure:"invalid_credential_code" default:"220"`
}
