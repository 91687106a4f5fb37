package cli

import (
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/kin/internal/api"
	"github.com/roach88/kin/internal/config"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose    bool
	Format     string // "json" | "text"
	ConfigPath string
	BaseURL    string

	// RequestIDs overrides the X-Request-ID generator (for testing).
	// If nil, the client uses UUIDv7 ids.
	RequestIDs api.RequestIDGenerator

	// Now and Location fix the clock and zone used to render timestamps
	// (for testing). Default to time.Now and time.Local.
	Now      func() time.Time
	Location *time.Location

	cfg    *config.Config
	logger *slog.Logger
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the kin CLI.
func NewRootCommand() *cobra.Command {
	return NewRootCommandWithOptions(&RootOptions{})
}

// NewRootCommandWithOptions creates the root command bound to opts. Flags
// parsed on the command line overwrite the matching fields.
func NewRootCommandWithOptions(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "kin",
		Short: "kin - a command-line client for the kin social network",
		Long: `A command-line client for the kin social network.

Log in, read and write posts, search for people and manage friend
requests. The session survives between runs in a local credential store.`,
		SilenceUsage:  true, // Commands report their own errors
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// Validate format flag
			if !isValidFormat(opts.Format) {
				msg := fmt.Sprintf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
				_ = (&OutputFormatter{Format: "text", Writer: cmd.OutOrStdout()}).Error(ErrCodeUsage, msg, nil)
				return NewExitError(ExitCommandError, msg)
			}
			return opts.configure(cmd)
		},
	}

	// Global flags
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().StringVar(&opts.ConfigPath, "config", "", "config file (default $XDG_CONFIG_HOME/kin/config.yaml)")
	cmd.PersistentFlags().StringVar(&opts.BaseURL, "base-url", "", "service base URL (overrides config and KIN_BASE_URL)")

	// Add subcommands
	cmd.AddCommand(NewStatusCommand(opts))
	cmd.AddCommand(NewLoginCommand(opts))
	cmd.AddCommand(NewRegisterCommand(opts))
	cmd.AddCommand(NewLogoutCommand(opts))
	cmd.AddCommand(NewWhoamiCommand(opts))
	cmd.AddCommand(NewPostsCommand(opts))
	cmd.AddCommand(NewFriendsCommand(opts))
	cmd.AddCommand(NewSearchCommand(opts))

	return cmd
}

// configure loads the config and installs the logger. Runs before every
// command.
func (o *RootOptions) configure(cmd *cobra.Command) error {
	out := o.formatter(cmd)

	cfg, err := config.Load(o.ConfigPath)
	if err != nil {
		_ = out.Error(ErrCodeConfig, err.Error(), nil)
		return WrapExitError(ExitCommandError, "failed to load config", err)
	}
	if o.BaseURL != "" {
		cfg.Server.BaseURL = o.BaseURL
	}
	o.cfg = cfg

	// Configure logging based on config and verbose flag
	level := cfg.SlogLevel()
	if o.Verbose {
		level = slog.LevelDebug
	}
	o.logger = slog.New(newLogHandler(cmd.ErrOrStderr(), cfg.Log.Format, level))
	slog.SetDefault(o.logger)
	return nil
}

func newLogHandler(w io.Writer, format string, level slog.Level) slog.Handler {
	hopts := &slog.HandlerOptions{Level: level}
	if format == "json" {
		return slog.NewJSONHandler(w, hopts)
	}
	return slog.NewTextHandler(w, hopts)
}

func (o *RootOptions) formatter(cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{Format: o.Format, Writer: cmd.OutOrStdout()}
}

func (o *RootOptions) now() time.Time {
	if o.Now != nil {
		return o.Now()
	}
	return time.Now()
}

func (o *RootOptions) location() *time.Location {
	if o.Location != nil {
		return o.Location
	}
	return time.Local
}

// isValidFormat checks if the format is one of the allowed values.
func isValidFormat(format string) bool {
	for _, f := range ValidFormats {
		if f == format {
			return true
		}
	}
	return false
}
