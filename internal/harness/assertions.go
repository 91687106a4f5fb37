package harness

import (
	"fmt"
	"reflect"
	"strings"
)

// AssertionError is returned when an assertion fails.
type AssertionError struct {
	Type     string // Assertion type for categorization
	Expected string // Human-readable expected outcome
	Actual   string // Human-readable actual outcome
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder
	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s", e.Actual)
	return buf.String()
}

// check evaluates one assertion against the run.
func (h *Harness) check(a Assertion, result *Result) error {
	switch a.Type {
	case AssertOutputContains:
		return assertOutputContains(result.Steps, a)
	case AssertFriends, AssertNotFriends:
		return h.assertFriendship(a)
	case AssertPendingRequests:
		if got := h.service.PendingRequests(); got != a.Count {
			return &AssertionError{
				Type:     a.Type,
				Expected: fmt.Sprintf("%d pending requests", a.Count),
				Actual:   fmt.Sprintf("%d pending requests", got),
			}
		}
		return nil
	case AssertSearches:
		return assertSearches(h.service.Searches(), a)
	}
	return fmt.Errorf("unknown assertion type %q", a.Type)
}

func assertOutputContains(steps []StepResult, a Assertion) error {
	if a.Step >= len(steps) {
		return &AssertionError{
			Type:     a.Type,
			Expected: fmt.Sprintf("step %d to have run", a.Step),
			Actual:   fmt.Sprintf("%d steps ran", len(steps)),
		}
	}
	if out := steps[a.Step].Output; !strings.Contains(out, a.Text) {
		return &AssertionError{
			Type:     a.Type,
			Expected: fmt.Sprintf("step %d output containing %q", a.Step, a.Text),
			Actual:   fmt.Sprintf("%q", out),
		}
	}
	return nil
}

func (h *Harness) assertFriendship(a Assertion) error {
	want := a.Type == AssertFriends
	first, second := h.users[a.Users[0]], h.users[a.Users[1]]
	if got := h.service.Friends(first.ID, second.ID); got != want {
		return &AssertionError{
			Type:     a.Type,
			Expected: fmt.Sprintf("%s and %s friends=%t", first.Username, second.Username, want),
			Actual:   fmt.Sprintf("friends=%t", got),
		}
	}
	return nil
}

func assertSearches(got []string, a Assertion) error {
	want := a.Queries
	if len(got) == 0 && len(want) == 0 {
		return nil
	}
	if !reflect.DeepEqual(got, want) {
		return &AssertionError{
			Type:     a.Type,
			Expected: fmt.Sprintf("searches %q", want),
			Actual:   fmt.Sprintf("searches %q", got),
		}
	}
	return nil
}
