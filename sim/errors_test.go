package sim

import (
	"strings"
	"testing"
)

func TestErrorMessages(t *testing.T) {
	cases := []struct {
		err  error
		want string
	}{
		{&ConfigError{Field: "horizon", Reason: "must be >= 1, got 0"}, "config: horizon"},
		{&InvalidStateError{Timestep: 12, Reason: "compartment H is negative (-1)"}, "timestep 12"},
		{&AggregationError{Replicate: 3, Got: 10, Want: 367}, "replicate 3"},
	}
	for _, c := range cases {
		if got := c.err.Error(); !strings.Contains(got, c.want) {
			t.Errorf("%T.Error() = %q, want it to contain %q", c.err, got, c.want)
		}
	}
}
