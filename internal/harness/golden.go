package harness

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/sebdah/goldie/v2"
)

// Transcript renders the steps of a result as a terminal session:
//
//	$ kin login alice --password pw
//	✓ Logged in as alice <alice@example.com> (id 1)
//	[exit 0]
//
// Standard input is shown after the command line, one "> " line per input
// line. Steps are separated by a blank line.
func Transcript(result *Result) []byte {
	var buf bytes.Buffer
	for i, step := range result.Steps {
		if i > 0 {
			buf.WriteString("\n")
		}
		fmt.Fprintf(&buf, "$ kin %s\n", strings.Join(step.Args, " "))
		if step.Stdin != "" {
			for _, line := range strings.Split(strings.TrimSuffix(step.Stdin, "\n"), "\n") {
				fmt.Fprintf(&buf, "> %s\n", line)
			}
		}
		buf.WriteString(step.Output)
		if step.Output != "" && !strings.HasSuffix(step.Output, "\n") {
			buf.WriteString("\n")
		}
		fmt.Fprintf(&buf, "[exit %d]\n", step.Exit)
	}
	return buf.Bytes()
}

// RunWithGolden executes a scenario and compares its transcript against a
// golden file. The golden file is stored in testdata/golden/{scenario.Name}.golden
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
//
// Step and assertion failures are reported through t before the golden
// comparison.
func RunWithGolden(t *testing.T, scenario *Scenario) error {
	t.Helper()

	result, err := Run(context.Background(), scenario)
	if err != nil {
		return err
	}
	for _, msg := range result.Errors {
		t.Error(msg)
	}

	AssertGolden(t, scenario.Name, result)
	return nil
}

// AssertGolden compares the given result's transcript against a golden
// file without re-running the scenario.
func AssertGolden(t *testing.T, name string, result *Result) {
	t.Helper()

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, name, Transcript(result))
}
