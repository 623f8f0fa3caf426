// Package constants provides named constants used throughout the demes-go codebase.
// This centralizes magic numbers for better maintainability and documentation.
package constants

// Numerical tolerance constants
const (
	// ProportionTolerance is the absolute tolerance used when checking that
	// a set of ancestry proportions sums to 1.0. Matches the tolerance used
	// by other implementations of the demes standard.
	ProportionTolerance = 1e-9
)

// Forward-simulation defaults
const (
	// DefaultBurnin is the default number of burn-in generations prepended
	// to a model before its oldest finite event time.
	DefaultBurnin = 100.0
)

// Tool configuration defaults
const (
	// DefaultHistoryDirName is the directory (relative to the working
	// directory) where the size-history recorder keeps its database and
	// exports.
	DefaultHistoryDirName = ".demes"

	// DefaultLogLevel is the log verbosity used when no configuration is
	// present.
	DefaultLogLevel = "info"
)
