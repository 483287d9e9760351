package scoring

// Config holds the score function configuration.
type Config struct {
	// Script is a Lua file defining the score function. Empty disables scoring.
	Script string `mapstructure:"script" default:""`
	// Function is the global the script defines.
	Function string `mapstructure:"function" default:"score"`
}
