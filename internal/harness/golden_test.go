package harness

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTranscript(t *testing.T) {
	result := NewResult()
	result.Steps = []StepResult{
		{Args: []string{"login", "alice"}, Stdin: "pw\n", Output: "✓ Logged in\n", Exit: 0},
		{Args: []string{"logout"}, Output: "no newline", Exit: 1},
		{Args: []string{"whoami"}, Exit: 2},
	}

	want := "$ kin login alice\n" +
		"> pw\n" +
		"✓ Logged in\n" +
		"[exit 0]\n" +
		"\n" +
		"$ kin logout\n" +
		"no newline\n" +
		"[exit 1]\n" +
		"\n" +
		"$ kin whoami\n" +
		"[exit 2]\n"
	assert.Equal(t, want, string(Transcript(result)))
}

func TestTranscript_Empty(t *testing.T) {
	assert.Empty(t, Transcript(NewResult()))
}

func TestResult_AddError(t *testing.T) {
	r := NewResult()
	assert.True(t, r.Pass)

	r.AddError("boom")
	assert.False(t, r.Pass)
	assert.Equal(t, []string{"boom"}, r.Errors)
}
