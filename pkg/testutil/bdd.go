package testutil

import "testing"

// Given, When, and Then label the phases of a scenario as named subtests, so
// a failure reports which phase broke.
func Given(t *testing.T, desc string, fn func(t *testing.T)) { phase(t, "Given", desc, fn) }

func When(t *testing.T, desc string, fn func(t *testing.T)) { phase(t, "When", desc, fn) }

func Then(t *testing.T, desc string, fn func(t *testing.T)) { phase(t, "Then", desc, fn) }

func phase(t *testing.T, label, desc string, fn func(t *testing.T)) {
	t.Helper()
	t.Run(label+" "+desc, fn)
}
