package model

import (
	"fmt"
	"math"
)

// Epoch is one time interval of constant demographic behavior for one deme.
// Times count backwards: StartTime > EndTime >= 0, with 0 meaning the
// present. The first epoch of a root deme may have an infinite start time.
//
// Epochs are immutable once their graph is built.
type Epoch struct {
	startTime    float64
	endTime      float64
	startSize    float64
	endSize      float64
	sizeFunction SizeFunction
}

// StartTime returns the oldest time of the epoch. May be +Inf.
func (e Epoch) StartTime() float64 { return e.startTime }

// EndTime returns the youngest time of the epoch.
func (e Epoch) EndTime() float64 { return e.endTime }

// StartSize returns the deme size at the epoch's start time.
func (e Epoch) StartSize() float64 { return e.startSize }

// EndSize returns the deme size at the epoch's end time.
func (e Epoch) EndSize() float64 { return e.endSize }

// SizeFunction returns the interpolation rule for this epoch.
func (e Epoch) SizeFunction() SizeFunction { return e.sizeFunction }

// TimeSpan returns StartTime - EndTime. May be +Inf.
func (e Epoch) TimeSpan() float64 { return e.startTime - e.endTime }

// SizeAt evaluates the deme size at time t. The epoch's interval is
// closed: t must satisfy EndTime <= t <= StartTime, otherwise the call
// fails with ErrOutOfBounds. Both endpoints evaluate exactly to the
// corresponding size.
func (e Epoch) SizeAt(t float64) (float64, error) {
	if math.IsNaN(t) || t < 0 {
		return 0, fmt.Errorf("%w: invalid time value: %v", ErrOutOfBounds, t)
	}
	if math.IsInf(t, 1) && math.IsInf(e.startTime, 1) {
		return e.startSize, nil
	}
	if t < e.endTime || t > e.startTime {
		return 0, fmt.Errorf("%w: time %v is not contained in epoch [%v, %v]",
			ErrOutOfBounds, t, e.endTime, e.startTime)
	}
	// Exact endpoint values, independent of the interpolation rule.
	if t == e.startTime {
		return e.startSize, nil
	}
	if t == e.endTime {
		return e.endSize, nil
	}

	span := e.startTime - e.endTime
	dt := e.startTime - t
	switch e.sizeFunction {
	case SizeFunctionConstant:
		return e.endSize, nil
	case SizeFunctionLinear:
		return e.startSize + dt*(e.endSize-e.startSize)/span, nil
	case SizeFunctionExponential:
		r := math.Log(e.endSize/e.startSize) / span
		return e.startSize * math.Exp(r*dt), nil
	default:
		// Unreachable for graphs built via New; a construction-time defect.
		panic(fmt.Sprintf("undefined size function %d", int(e.sizeFunction)))
	}
}

// containsTime reports whether t lies in the epoch's closed interval.
func (e Epoch) containsTime(t float64) bool {
	if math.IsInf(t, 1) {
		return math.IsInf(e.startTime, 1)
	}
	return t >= e.endTime && t <= e.startTime
}
