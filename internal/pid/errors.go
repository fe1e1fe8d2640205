package pid

import "errors"

var (
	// ErrInvalidLimits indicates an output range with min >= max.
	ErrInvalidLimits = errors.New("pid: output min must be less than max")

	// ErrNegativeGain indicates a negative kp, ki or kd.
	ErrNegativeGain = errors.New("pid: gains must not be negative")

	// ErrInvalidSamplePeriod indicates a sample period that is not positive.
	ErrInvalidSamplePeriod = errors.New("pid: sample period must be positive")

	// ErrUninitialized indicates a call that requires Init first.
	ErrUninitialized = errors.New("pid: controller not initialized")

	// ErrUnknownDirection indicates a Direction other than Direct or Reverse.
	ErrUnknownDirection = errors.New("pid: unknown controller direction")

	// ErrUnknownOutputMode indicates an OutputMode outside the defined modes.
	ErrUnknownOutputMode = errors.New("pid: unknown output mode")
)
