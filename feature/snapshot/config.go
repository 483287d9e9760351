package snapshot

import "strings"

// Config holds the refresh pipeline configuration.
type Config struct {
	// Concurrency caps parallel upstream character fetches.
	Concurrency int `mapstructure:"concurrency" default:"2"`
	// SharedLimiter makes all refreshes share one process-wide limiter.
	SharedLimiter bool `mapstructure:"shared_limiter" default:"false"`
	// VariantRoleIDs lists mutually exclusive character variants, comma separated.
	VariantRoleIDs string `mapstructure:"variant_role_ids" default:"1501,1502,1604,1605,1406,1408"`
	// Archive writes each synced roster to object storage.
	Archive bool `mapstructure:"archive" default:"true"`
	// UIDLength is the exact uid length accepted by bindings. 0 disables the check.
	UIDLength int `mapstructure:"uid_length" default:"9"`
}

// VariantGroups returns the configured variant ids as a single group.
func (c Config) VariantGroups() [][]string {
	var group []string
	for _, id := range strings.Split(c.VariantRoleIDs, ",") {
		if id = strings.TrimSpace(id); id != "" {
			group = append(group, id)
		}
	}
	if len(group) == 0 {
		return nil
	}
	return [][]string{group}
}
