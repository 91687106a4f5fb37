package harness

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Scenario defines a scripted kin session.
type Scenario struct {
	// Name uniquely identifies this scenario. It also names the golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Seed is the service state before the first step.
	Seed Seed `yaml:"seed"`

	// Steps are kin command lines, run in order.
	Steps []Step `yaml:"steps"`

	// Assertions validate output and the final service state.
	// Supported types: output_contains, friends, not_friends,
	// pending_requests, searches
	Assertions []Assertion `yaml:"assertions,omitempty"`
}

// Seed describes the accounts and relationships present on the service.
type Seed struct {
	Users       []SeedUser `yaml:"users"`
	Posts       []SeedPost `yaml:"posts,omitempty"`
	Requests    []SeedPair `yaml:"requests,omitempty"`
	Friendships []SeedPair `yaml:"friendships,omitempty"`
}

// SeedUser is an account created directly on the service.
type SeedUser struct {
	Username string `yaml:"username"`
	Email    string `yaml:"email"`
	Password string `yaml:"password"`
}

// SeedPost is a post by a seeded user.
type SeedPost struct {
	Author  string `yaml:"author"`
	Content string `yaml:"content"`
}

// SeedPair names two seeded users. For requests From is the sender.
type SeedPair struct {
	From string `yaml:"from"`
	To   string `yaml:"to"`
}

// Step is one kin invocation.
type Step struct {
	// Run holds the arguments after "kin".
	Run []string `yaml:"run"`

	// Stdin is fed to the command as standard input.
	Stdin string `yaml:"stdin,omitempty"`

	// Exit is the expected exit code.
	Exit int `yaml:"exit,omitempty"`

	// ExpireSessions invalidates every session on the service before the
	// step runs.
	ExpireSessions bool `yaml:"expire_sessions,omitempty"`

	// Fail makes the listed routes ("METHOD /path") answer with the given
	// status for this step only.
	Fail map[string]int `yaml:"fail,omitempty"`
}

// Assertion validates step output or final service state.
type Assertion struct {
	// Type specifies the assertion type:
	// - "output_contains": Check a step's output contains Text
	// - "friends": Check Users are friends
	// - "not_friends": Check Users are not friends
	// - "pending_requests": Check the number of unanswered requests
	// - "searches": Check the queries the service received
	Type string `yaml:"type"`

	// Step is the step index (used by output_contains).
	Step int `yaml:"step,omitempty"`

	// Text is the expected substring (used by output_contains).
	Text string `yaml:"text,omitempty"`

	// Users names exactly two seeded users (used by friends, not_friends).
	Users []string `yaml:"users,omitempty"`

	// Count is the expected number of requests (used by pending_requests).
	Count int `yaml:"count,omitempty"`

	// Queries is the expected search history (used by searches).
	Queries []string `yaml:"queries,omitempty"`
}

// Assertion type constants.
const (
	AssertOutputContains  = "output_contains"
	AssertFriends         = "friends"
	AssertNotFriends      = "not_friends"
	AssertPendingRequests = "pending_requests"
	AssertSearches        = "searches"
)

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return ParseScenario(data)
}

// ParseScenario parses scenario YAML.
func ParseScenario(data []byte) (*Scenario, error) {
	// Parse YAML with strict field validation (catches typos like "step:" vs "steps:")
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}

	return &scenario, nil
}

// validateScenario checks that required fields are present and that every
// name refers to a seeded user.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}

	if s.Description == "" {
		return fmt.Errorf("description is required")
	}

	if len(s.Steps) == 0 {
		return fmt.Errorf("steps list is required and must be non-empty")
	}

	users := make(map[string]bool, len(s.Seed.Users))
	for i, u := range s.Seed.Users {
		if u.Username == "" || u.Email == "" || u.Password == "" {
			return fmt.Errorf("seed.users[%d]: username, email and password are required", i)
		}
		if users[u.Username] {
			return fmt.Errorf("seed.users[%d]: duplicate username %q", i, u.Username)
		}
		users[u.Username] = true
	}

	for i, p := range s.Seed.Posts {
		if !users[p.Author] {
			return fmt.Errorf("seed.posts[%d]: unknown author %q", i, p.Author)
		}
		if p.Content == "" {
			return fmt.Errorf("seed.posts[%d]: content is required", i)
		}
	}
	for i, p := range s.Seed.Requests {
		if err := validatePair(users, p); err != nil {
			return fmt.Errorf("seed.requests[%d]: %w", i, err)
		}
	}
	for i, p := range s.Seed.Friendships {
		if err := validatePair(users, p); err != nil {
			return fmt.Errorf("seed.friendships[%d]: %w", i, err)
		}
	}

	for i, step := range s.Steps {
		if len(step.Run) == 0 {
			return fmt.Errorf("steps[%d]: run is required", i)
		}
		if step.Exit < 0 {
			return fmt.Errorf("steps[%d]: exit must be non-negative", i)
		}
	}

	for i := range s.Assertions {
		if err := validateAssertion(i, &s.Assertions[i], len(s.Steps), users); err != nil {
			return err
		}
	}

	return nil
}

func validatePair(users map[string]bool, p SeedPair) error {
	if !users[p.From] {
		return fmt.Errorf("unknown user %q", p.From)
	}
	if !users[p.To] {
		return fmt.Errorf("unknown user %q", p.To)
	}
	if p.From == p.To {
		return fmt.Errorf("from and to must differ")
	}
	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion, steps int, users map[string]bool) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}

	switch a.Type {
	case AssertOutputContains:
		if a.Step < 0 || a.Step >= steps {
			return fmt.Errorf("assertions[%d]: step %d out of range", index, a.Step)
		}
		if a.Text == "" {
			return fmt.Errorf("assertions[%d]: text is required for output_contains", index)
		}
	case AssertFriends, AssertNotFriends:
		if len(a.Users) != 2 {
			return fmt.Errorf("assertions[%d]: users must name exactly two users for %s", index, a.Type)
		}
		for _, u := range a.Users {
			if !users[u] {
				return fmt.Errorf("assertions[%d]: unknown user %q", index, u)
			}
		}
	case AssertPendingRequests:
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for pending_requests", index)
		}
	case AssertSearches:
		// An empty list asserts that no search was sent.
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}

	return nil
}
