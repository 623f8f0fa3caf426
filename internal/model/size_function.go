package model

import "fmt"

// SizeFunction describes how a deme's size changes over one epoch.
type SizeFunction int

const (
	// SizeFunctionConstant keeps the size fixed over the epoch.
	SizeFunctionConstant SizeFunction = iota

	// SizeFunctionLinear interpolates linearly in time between the
	// epoch's start and end sizes.
	SizeFunctionLinear

	// SizeFunctionExponential interpolates exponentially between the
	// epoch's start and end sizes.
	SizeFunctionExponential
)

// String returns the lower-case name used by the demes data model.
func (s SizeFunction) String() string {
	switch s {
	case SizeFunctionConstant:
		return "constant"
	case SizeFunctionLinear:
		return "linear"
	case SizeFunctionExponential:
		return "exponential"
	default:
		return fmt.Sprintf("SizeFunction(%d)", int(s))
	}
}

// ParseSizeFunction maps a data-model name onto a SizeFunction.
func ParseSizeFunction(s string) (SizeFunction, error) {
	switch s {
	case "constant":
		return SizeFunctionConstant, nil
	case "linear":
		return SizeFunctionLinear, nil
	case "exponential":
		return SizeFunctionExponential, nil
	default:
		return 0, fmt.Errorf("%w: unknown size function %q", ErrInvalidModel, s)
	}
}
