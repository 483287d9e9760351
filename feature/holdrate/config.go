package holdrate

// Config holds the hold-rate job configuration.
type Config struct {
	// Enabled turns the daily recompute on.
	Enabled bool `mapstructure:"enabled" default:"true"`
	// Hour of the daily run (0-23). Out-of-range values fall back to 4.
	Hour int `mapstructure:"hour" default:"4"`
	// Minute of the daily run (0-59). Out-of-range values fall back to 0.
	Minute int `mapstructure:"minute" default:"0"`
	// ActiveDays is the trailing window in which an account must have refreshed.
	ActiveDays int `mapstructure:"active_days" default:"30"`
}

const (
	defaultHour       = 4
	defaultMinute     = 0
	defaultActiveDays = 30
)

// RunTime returns the configured hour and minute, replacing invalid values.
func (c Config) RunTime() (hour, minute int) {
	hour, minute = c.Hour, c.Minute
	if hour < 0 || hour > 23 {
		hour = defaultHour
	}
	if minute < 0 || minute > 59 {
		minute = defaultMinute
	}
	return hour, minute
}
