// Package loader provides the plugin-like feature loading system.
//
// Each feature (snapshot refresh, ranking, hold rate) implements the Feature
// interface and is registered with a Manager, which loads the enabled ones
// onto the Fiber router at startup.
//
//	type Feature interface {
//	    Name() string
//	    IsEnabled() bool
//	    Load(app fiber.Router) error
//	}
package loader
