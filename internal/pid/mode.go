package pid

import (
	"fmt"
	"strings"
)

// Direction selects the polarity of the process the controller drives.
type Direction int

const (
	// Direct: positive error gives positive output.
	Direct Direction = iota
	// Reverse: positive error gives negative output.
	Reverse
)

func (d Direction) String() string {
	switch d {
	case Direct:
		return "direct"
	case Reverse:
		return "reverse"
	default:
		return fmt.Sprintf("Direction(%d)", int(d))
	}
}

func (d Direction) valid() bool { return d == Direct || d == Reverse }

// ParseDirection accepts "direct" or "reverse"; empty means Direct.
func ParseDirection(s string) (Direction, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "direct":
		return Direct, nil
	case "reverse":
		return Reverse, nil
	}
	return Direct, fmt.Errorf("%w: %q", ErrUnknownDirection, s)
}

// OutputMode selects positional or velocity form.
type OutputMode int

const (
	// NonAccumulating recomputes the output from scratch every tick
	// (positional form, e.g. distance control).
	NonAccumulating OutputMode = iota
	// Accumulating adds each tick's P+I+D to the previous output
	// (velocity form, for actuators that integrate themselves).
	Accumulating
)

func (m OutputMode) String() string {
	switch m {
	case NonAccumulating:
		return "non-accumulating"
	case Accumulating:
		return "accumulating"
	default:
		return fmt.Sprintf("OutputMode(%d)", int(m))
	}
}

func (m OutputMode) valid() bool { return m == NonAccumulating || m == Accumulating }

// ParseOutputMode accepts the mode names and their positional/velocity
// aliases; empty means NonAccumulating.
func ParseOutputMode(s string) (OutputMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "non-accumulating", "nonaccumulating", "distance", "positional":
		return NonAccumulating, nil
	case "accumulating", "velocity":
		return Accumulating, nil
	}
	return NonAccumulating, fmt.Errorf("%w: %q", ErrUnknownOutputMode, s)
}
