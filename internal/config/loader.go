package config

import "context"

// Loader is the interface for a format-specific configuration loader.
type Loader interface {
	// Load reads configuration from the given paths and merges it over
	// Default. Missing paths are not an error.
	Load(ctx context.Context, paths ...string) (*Model, error)
}
