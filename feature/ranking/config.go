package ranking

// Config holds leaderboard settings.
type Config struct {
	// PageSize is the default global page size.
	PageSize int `mapstructure:"page_size" default:"20"`
	// GroupLimit caps group rank results.
	GroupLimit int `mapstructure:"group_limit" default:"100"`
	// TotalFloor is the minimum score a character needs to count toward total power.
	TotalFloor float64 `mapstructure:"total_floor" default:"175"`
	// TopCharacters is how many characters a total rank entry lists.
	TopCharacters int `mapstructure:"top_characters" default:"10"`
}
