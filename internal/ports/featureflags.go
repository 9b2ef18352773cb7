package ports

import (
	"context"
)

// Feature flag names understood by the application layer.
const (
	// FlagStrictImport rejects imported elements that fail the Quote shape rules.
	FlagStrictImport = "strict-import"
)

// FeatureFlags defines the contract for feature flag evaluation.
// This port allows the application to check feature enablement without
// knowing the underlying provider (static config, LaunchDarkly, Unleash, etc.).
//
// Example usage:
//
//	if flags.IsEnabled(ctx, ports.FlagStrictImport, false) {
//	    return rejectMalformed(items)
//	}
type FeatureFlags interface {
	// IsEnabled checks if a boolean feature flag is enabled.
	// Returns defaultValue if the flag doesn't exist or evaluation fails.
	IsEnabled(ctx context.Context, flag string, defaultValue bool) bool

	// Flags returns the evaluated value of every known flag.
	Flags(ctx context.Context) map[string]bool
}
