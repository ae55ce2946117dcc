package sim

import "fmt"

// Compartment identifies one of the seven epidemiological compartments.
type Compartment int

const (
	Susceptible Compartment = iota
	Exposed
	Infectious
	Quarantined
	Hospitalised
	Recovered
	Fatal

	// NumCompartments is the size of the compartment tuple.
	NumCompartments = 7
)

var compartmentNames = [NumCompartments]string{"S", "E", "I", "Q", "H", "R", "F"}

// String returns the single-letter compartment label used in reports.
func (c Compartment) String() string {
	if c < 0 || int(c) >= NumCompartments {
		return fmt.Sprintf("Compartment(%d)", int(c))
	}
	return compartmentNames[c]
}

// Counts is the compartment occupancy tuple at one timestep. Values are
// always non-negative; flows are clamped so no compartment goes below zero.
// A Counts value is replaced, never mutated in place, at each timestep.
type Counts struct {
	S int64
	E int64
	I int64
	Q int64
	H int64
	R int64
	F int64
}

// Total returns the full tracked population including the Fatal compartment.
func (c Counts) Total() int64 {
	return c.S + c.E + c.I + c.Q + c.H + c.R + c.F
}

// Living returns the living population, the denominator for the force of
// infection and for vital-dynamics arrivals.
func (c Counts) Living() int64 {
	return c.S + c.E + c.I + c.Q + c.H + c.R
}

// Get returns the occupancy of a single compartment.
func (c Counts) Get(comp Compartment) int64 {
	switch comp {
	case Susceptible:
		return c.S
	case Exposed:
		return c.E
	case Infectious:
		return c.I
	case Quarantined:
		return c.Q
	case Hospitalised:
		return c.H
	case Recovered:
		return c.R
	case Fatal:
		return c.F
	}
	return 0
}

// Validate reports an InvalidStateError if any compartment is negative.
func (c Counts) Validate(timestep int) error {
	for comp := Susceptible; comp <= Fatal; comp++ {
		if c.Get(comp) < 0 {
			return &InvalidStateError{
				Timestep: timestep,
				Reason:   fmt.Sprintf("compartment %s is negative (%d)", comp, c.Get(comp)),
			}
		}
	}
	return nil
}
