package harness

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validScenario = `
name: test_scenario
description: "Test scenario for validation"
seed:
  users:
    - { username: alice, email: alice@example.com, password: pw }
    - { username: bob, email: bob@example.com, password: pw }
  posts:
    - { author: bob, content: "hi" }
  requests:
    - { from: bob, to: alice }
steps:
  - run: [login, alice, -p, pw]
  - run: [friends, accept, "4"]
    fail:
      "PUT /friends/4": 500
    exit: 1
assertions:
  - type: output_contains
    step: 0
    text: "Logged in"
  - type: pending_requests
    count: 1
`

func TestLoadScenario_ValidFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.yaml")
	require.NoError(t, os.WriteFile(path, []byte(validScenario), 0644))

	scenario, err := LoadScenario(path)
	require.NoError(t, err)

	assert.Equal(t, "test_scenario", scenario.Name)
	assert.Equal(t, "Test scenario for validation", scenario.Description)
	assert.Len(t, scenario.Seed.Users, 2)
	assert.Equal(t, []SeedPost{{Author: "bob", Content: "hi"}}, scenario.Seed.Posts)
	assert.Equal(t, []SeedPair{{From: "bob", To: "alice"}}, scenario.Seed.Requests)
	require.Len(t, scenario.Steps, 2)
	assert.Equal(t, []string{"login", "alice", "-p", "pw"}, scenario.Steps[0].Run)
	assert.Equal(t, 0, scenario.Steps[0].Exit)
	assert.Equal(t, map[string]int{"PUT /friends/4": 500}, scenario.Steps[1].Fail)
	assert.Equal(t, 1, scenario.Steps[1].Exit)
	assert.Len(t, scenario.Assertions, 2)
}

func TestLoadScenario_MissingFile(t *testing.T) {
	_, err := LoadScenario(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read scenario file")
}

func TestParseScenario_MalformedYAML(t *testing.T) {
	_, err := ParseScenario([]byte("name: [unclosed"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse YAML")
}

func TestParseScenario_UnknownField(t *testing.T) {
	content := `
name: typo
description: "has a typo"
step:
  - run: [whoami]
`
	_, err := ParseScenario([]byte(content))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "field step not found")
}

func TestParseScenario_Validation(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{
			name:    "missing name",
			content: "description: d\nsteps:\n  - run: [whoami]\n",
			wantErr: "name is required",
		},
		{
			name:    "missing description",
			content: "name: n\nsteps:\n  - run: [whoami]\n",
			wantErr: "description is required",
		},
		{
			name:    "no steps",
			content: "name: n\ndescription: d\n",
			wantErr: "steps list is required",
		},
		{
			name:    "empty run",
			content: "name: n\ndescription: d\nsteps:\n  - run: []\n",
			wantErr: "steps[0]: run is required",
		},
		{
			name: "incomplete user",
			content: `name: n
description: d
seed:
  users:
    - { username: alice }
steps:
  - run: [whoami]
`,
			wantErr: "seed.users[0]: username, email and password are required",
		},
		{
			name: "duplicate user",
			content: `name: n
description: d
seed:
  users:
    - { username: alice, email: a@example.com, password: pw }
    - { username: alice, email: b@example.com, password: pw }
steps:
  - run: [whoami]
`,
			wantErr: `duplicate username "alice"`,
		},
		{
			name: "unknown post author",
			content: `name: n
description: d
seed:
  posts:
    - { author: ghost, content: boo }
steps:
  - run: [whoami]
`,
			wantErr: `seed.posts[0]: unknown author "ghost"`,
		},
		{
			name: "self friendship",
			content: `name: n
description: d
seed:
  users:
    - { username: alice, email: a@example.com, password: pw }
  friendships:
    - { from: alice, to: alice }
steps:
  - run: [whoami]
`,
			wantErr: "seed.friendships[0]: from and to must differ",
		},
		{
			name: "unknown assertion type",
			content: `name: n
description: d
steps:
  - run: [whoami]
assertions:
  - type: trace_contains
`,
			wantErr: `unknown assertion type "trace_contains"`,
		},
		{
			name: "output step out of range",
			content: `name: n
description: d
steps:
  - run: [whoami]
assertions:
  - type: output_contains
    step: 3
    text: x
`,
			wantErr: "step 3 out of range",
		},
		{
			name: "friends needs two users",
			content: `name: n
description: d
seed:
  users:
    - { username: alice, email: a@example.com, password: pw }
steps:
  - run: [whoami]
assertions:
  - type: friends
    users: [alice]
`,
			wantErr: "users must name exactly two users",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseScenario([]byte(tt.content))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
