package cli

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommand(t *testing.T) {
	cmd := NewRootCommand()
	require.NotNil(t, cmd)
	assert.Equal(t, "kin", cmd.Use)
	assert.Contains(t, cmd.Long, "friend requests")
}

func TestCommandPresence(t *testing.T) {
	cmd := NewRootCommand()
	commands := [][]string{
		{"status"},
		{"login"},
		{"register"},
		{"logout"},
		{"whoami"},
		{"posts"},
		{"posts", "list"},
		{"posts", "create"},
		{"posts", "delete"},
		{"friends"},
		{"friends", "list"},
		{"friends", "requests"},
		{"friends", "add"},
		{"friends", "accept"},
		{"friends", "reject"},
		{"search"},
	}

	for _, path := range commands {
		name := path[len(path)-1]
		t.Run(name, func(t *testing.T) {
			subCmd, _, err := cmd.Find(path)
			require.NoError(t, err, "Command %v should exist", path)
			require.NotNil(t, subCmd)
			assert.Equal(t, name, subCmd.Name())
		})
	}
}

func TestGlobalFlags(t *testing.T) {
	cmd := NewRootCommand()

	verboseFlag := cmd.PersistentFlags().Lookup("verbose")
	require.NotNil(t, verboseFlag)
	assert.Equal(t, "v", verboseFlag.Shorthand)
	assert.Equal(t, "false", verboseFlag.DefValue)

	formatFlag := cmd.PersistentFlags().Lookup("format")
	require.NotNil(t, formatFlag)
	assert.Equal(t, "text", formatFlag.DefValue)

	configFlag := cmd.PersistentFlags().Lookup("config")
	require.NotNil(t, configFlag)
	assert.Equal(t, "", configFlag.DefValue)

	baseURLFlag := cmd.PersistentFlags().Lookup("base-url")
	require.NotNil(t, baseURLFlag)
	assert.Equal(t, "", baseURLFlag.DefValue)
}

func TestLoginCommandFlags(t *testing.T) {
	cmd := NewRootCommand()
	loginCmd, _, err := cmd.Find([]string{"login"})
	require.NoError(t, err)

	passwordFlag := loginCmd.Flags().Lookup("password")
	require.NotNil(t, passwordFlag)
	assert.Equal(t, "p", passwordFlag.Shorthand)
}

func TestSearchCommandFlags(t *testing.T) {
	cmd := NewRootCommand()
	searchCmd, _, err := cmd.Find([]string{"search"})
	require.NoError(t, err)

	interactiveFlag := searchCmd.Flags().Lookup("interactive")
	require.NotNil(t, interactiveFlag)
	assert.Equal(t, "i", interactiveFlag.Shorthand)
	assert.Equal(t, "false", interactiveFlag.DefValue)
}

func TestFormatValidation(t *testing.T) {
	// Test valid formats
	assert.True(t, isValidFormat("text"))
	assert.True(t, isValidFormat("json"))

	// Test invalid formats
	assert.False(t, isValidFormat("xml"))
	assert.False(t, isValidFormat(""))
	assert.False(t, isValidFormat("TEXT"))
}

func TestFormatValidationIntegration(t *testing.T) {
	cmd := NewRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"--format", "invalid", "whoami"})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid format")
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, out.String(), `✗ invalid format "invalid"`)
}

func TestRootOptions_Defaults(t *testing.T) {
	opts := &RootOptions{}
	assert.False(t, opts.now().IsZero())
	assert.Equal(t, "Local", opts.location().String())
}
