package harness

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/roach88/kin/internal/cli"
	"github.com/roach88/kin/internal/model"
	"github.com/roach88/kin/internal/testutil"
)

// DefaultNow is the wall clock steps render against: one hour after the
// service's first post timestamp.
var DefaultNow = time.Date(2024, 5, 1, 13, 0, 0, 0, time.UTC)

// Debounce is the search debounce delay used by scenario steps.
const Debounce = 100 * time.Millisecond

// Harness is the execution environment of one scenario: a fake service on
// a loopback server and a private config and credential store.
type Harness struct {
	service    *testutil.FakeService
	server     *httptest.Server
	dir        string
	configPath string
	users      map[string]model.User
	requestIDs *testutil.FixedRequestIDs
	now        time.Time
}

// Run executes a scenario and returns the result.
//
// Each scenario runs against a fresh service and credential store.
// Execution flow:
// 1. Seed the service
// 2. Run every step, recording output and exit code
// 3. Evaluate assertions
func Run(ctx context.Context, scenario *Scenario) (*Result, error) {
	h, err := newHarness(scenario)
	if err != nil {
		return nil, err
	}
	defer h.Close()

	result := NewResult()
	for i, step := range scenario.Steps {
		sr := h.runStep(ctx, step)
		result.Steps = append(result.Steps, sr)
		if sr.Exit != step.Exit {
			result.AddError(fmt.Sprintf("steps[%d] kin %s: exit %d, want %d\n%s",
				i, strings.Join(step.Run, " "), sr.Exit, step.Exit, sr.Output))
		}
	}

	for i, a := range scenario.Assertions {
		if err := h.check(a, result); err != nil {
			result.AddError(fmt.Sprintf("assertions[%d]: %v", i, err))
		}
	}

	return result, nil
}

func newHarness(scenario *Scenario) (*Harness, error) {
	dir, err := os.MkdirTemp("", "kin-harness-*")
	if err != nil {
		return nil, fmt.Errorf("failed to create scenario dir: %w", err)
	}

	h := &Harness{
		service:    testutil.NewFakeService(),
		dir:        dir,
		configPath: filepath.Join(dir, "config.yaml"),
		users:      make(map[string]model.User),
		requestIDs: testutil.NewFixedRequestIDs(),
		now:        DefaultNow,
	}
	h.server = httptest.NewServer(h.service)

	h.seed(scenario.Seed)

	if err := h.writeConfig(); err != nil {
		h.Close()
		return nil, err
	}
	return h, nil
}

// Close stops the server and removes the scenario directory.
func (h *Harness) Close() {
	h.server.Close()
	_ = os.RemoveAll(h.dir)
}

// Service returns the fake service the scenario runs against.
func (h *Harness) Service() *testutil.FakeService {
	return h.service
}

func (h *Harness) seed(s Seed) {
	for _, u := range s.Users {
		h.users[u.Username] = h.service.AddUser(u.Username, u.Email, u.Password)
	}
	for _, p := range s.Posts {
		h.service.AddPost(h.users[p.Author].ID, p.Content)
	}
	for _, r := range s.Requests {
		h.service.AddRequest(h.users[r.From].ID, h.users[r.To].ID)
	}
	for _, f := range s.Friendships {
		h.service.AddFriendship(h.users[f.From].ID, h.users[f.To].ID)
	}
}

func (h *Harness) writeConfig() error {
	doc := map[string]any{
		"server": map[string]any{
			"base_url": h.server.URL,
			"timeout":  "5s",
		},
		"search": map[string]any{
			"debounce": Debounce.String(),
		},
		"store": map[string]any{
			"path": filepath.Join(h.dir, "kin.db"),
		},
		"log": map[string]any{
			"level":  "error",
			"format": "text",
		},
	}
	data, err := yaml.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	if err := os.WriteFile(h.configPath, data, 0o600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// runStep executes one kin command line the way cmd/kin does, returning
// what it printed to stdout and its exit code.
func (h *Harness) runStep(ctx context.Context, step Step) StepResult {
	if step.ExpireSessions {
		h.service.ExpireSessions()
	}
	for route, status := range step.Fail {
		h.service.Fail(route, status)
	}
	defer func() {
		for route := range step.Fail {
			h.service.Heal(route)
		}
	}()

	opts := &cli.RootOptions{
		RequestIDs: h.requestIDs,
		Now:        func() time.Time { return h.now },
		Location:   time.UTC,
	}
	cmd := cli.NewRootCommandWithOptions(opts)

	var stdout bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(io.Discard)
	cmd.SetIn(strings.NewReader(step.Stdin))
	cmd.SetArgs(append([]string{"--config", h.configPath}, step.Run...))

	exit := cli.ExitSuccess
	if err := cmd.ExecuteContext(ctx); err != nil {
		var exitErr *cli.ExitError
		if errors.As(err, &exitErr) {
			exit = exitErr.Code
		} else {
			fmt.Fprintln(&stdout, "Error:", err)
			exit = cli.ExitCommandError
		}
	}

	return StepResult{
		Args:   step.Run,
		Stdin:  step.Stdin,
		Output: stdout.String(),
		Exit:   exit,
	}
}
