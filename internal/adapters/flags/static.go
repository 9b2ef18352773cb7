// Package flags evaluates feature flags from static configuration.
package flags

import (
	"context"
	"maps"
	"strings"
)

// Static is a ports.FeatureFlags backed by a fixed map, typically the
// features section of the service config.
type Static struct {
	values map[string]bool
}

// NewStatic copies values. Flag names are matched case-insensitively.
func NewStatic(values map[string]bool) *Static {
	normalized := make(map[string]bool, len(values))
	for name, on := range values {
		normalized[strings.ToLower(name)] = on
	}

	return &Static{values: normalized}
}

// IsEnabled returns the configured value or defaultValue for unknown flags.
func (s *Static) IsEnabled(_ context.Context, flag string, defaultValue bool) bool {
	on, ok := s.values[strings.ToLower(flag)]
	if !ok {
		return defaultValue
	}

	return on
}

// Flags returns a copy of every configured flag.
func (s *Static) Flags(context.Context) map[string]bool {
	return maps.Clone(s.values)
}
