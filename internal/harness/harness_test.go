package harness

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScenarios(t *testing.T) {
	paths, err := filepath.Glob("testdata/scenarios/*.yaml")
	require.NoError(t, err)
	require.NotEmpty(t, paths)

	for _, path := range paths {
		name := strings.TrimSuffix(filepath.Base(path), ".yaml")
		t.Run(name, func(t *testing.T) {
			scenario, err := LoadScenario(path)
			require.NoError(t, err)
			assert.Equal(t, name, scenario.Name, "scenario name must match its file")
			require.NoError(t, RunWithGolden(t, scenario))
		})
	}
}

func TestRun_ReportsUnexpectedExit(t *testing.T) {
	scenario := &Scenario{
		Name:        "unexpected_exit",
		Description: "whoami without a session",
		Steps:       []Step{{Run: []string{"whoami"}}},
	}

	result, err := Run(context.Background(), scenario)
	require.NoError(t, err)

	assert.False(t, result.Pass)
	require.Len(t, result.Steps, 1)
	assert.Equal(t, 2, result.Steps[0].Exit)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "steps[0] kin whoami: exit 2, want 0")
}

func TestRun_UsageErrorsExitLikeTheBinary(t *testing.T) {
	scenario := &Scenario{
		Name:        "usage",
		Description: "cobra rejects the arguments",
		Steps:       []Step{{Run: []string{"login"}, Exit: 2}},
	}

	result, err := Run(context.Background(), scenario)
	require.NoError(t, err)

	assert.True(t, result.Pass, result.Errors)
	assert.Contains(t, result.Steps[0].Output, "Error: accepts 1 arg(s), received 0")
}

func TestRun_AssertionFailures(t *testing.T) {
	scenario := &Scenario{
		Name:        "assertion_failures",
		Description: "every assertion type failing",
		Seed: Seed{
			Users: []SeedUser{
				{Username: "alice", Email: "alice@example.com", Password: "pw"},
				{Username: "bob", Email: "bob@example.com", Password: "pw"},
			},
			Requests: []SeedPair{{From: "bob", To: "alice"}},
		},
		Steps: []Step{{Run: []string{"login", "alice", "-p", "pw"}}},
		Assertions: []Assertion{
			{Type: AssertOutputContains, Step: 0, Text: "nobody"},
			{Type: AssertFriends, Users: []string{"alice", "bob"}},
			{Type: AssertPendingRequests, Count: 0},
			{Type: AssertSearches, Queries: []string{"bob"}},
		},
	}

	result, err := Run(context.Background(), scenario)
	require.NoError(t, err)

	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 4)
	assert.Contains(t, result.Errors[0], "Assertion failed: output_contains")
	assert.Contains(t, result.Errors[1], "alice and bob friends=true")
	assert.Contains(t, result.Errors[2], "Actual: 1 pending requests")
	assert.Contains(t, result.Errors[3], `Actual: searches []`)
}

func TestRun_StepFailuresAreScoped(t *testing.T) {
	scenario := &Scenario{
		Name:        "scoped_failures",
		Description: "a failed route heals after its step",
		Seed: Seed{
			Users: []SeedUser{{Username: "alice", Email: "alice@example.com", Password: "pw"}},
		},
		Steps: []Step{
			{Run: []string{"login", "alice", "-p", "pw"}, Fail: map[string]int{"POST /login": 503}, Exit: 1},
			{Run: []string{"login", "alice", "-p", "pw"}},
		},
	}

	result, err := Run(context.Background(), scenario)
	require.NoError(t, err)

	assert.True(t, result.Pass, result.Errors)
	assert.Contains(t, result.Steps[0].Output, "✗ Service Unavailable")
	assert.Contains(t, result.Steps[1].Output, "✓ Logged in as alice")
}

func TestHarness_SeedsSharedIDSequence(t *testing.T) {
	h, err := newHarness(&Scenario{
		Seed: Seed{
			Users: []SeedUser{
				{Username: "alice", Email: "alice@example.com", Password: "pw"},
				{Username: "bob", Email: "bob@example.com", Password: "pw"},
			},
			Posts:       []SeedPost{{Author: "alice", Content: "hi"}},
			Friendships: []SeedPair{{From: "alice", To: "bob"}},
		},
	})
	require.NoError(t, err)
	defer h.Close()

	assert.Equal(t, int64(1), h.users["alice"].ID)
	assert.Equal(t, int64(2), h.users["bob"].ID)
	assert.True(t, h.Service().Friends(1, 2))
	assert.Equal(t, 0, h.Service().PendingRequests())
}
