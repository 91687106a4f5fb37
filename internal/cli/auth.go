package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/roach88/kin/internal/model"
)

// StatusResult is the payload of the status command.
type StatusResult struct {
	BaseURL  string      `json:"base_url"`
	Service  string      `json:"service"`
	LoggedIn bool        `json:"logged_in"`
	User     *model.User `json:"user,omitempty"`
}

// NewStatusCommand creates the status command.
func NewStatusCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show service health and session state",
		Long: `Probe the service health endpoint and the stored session.

A failing health probe is reported but does not stop the session probe.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.run(cmd, runStatus)
		},
	}
}

func runStatus(ctx context.Context, a *app) error {
	res := StatusResult{BaseURL: a.client.BaseURL().String()}

	health, err := a.client.Health(ctx)
	if err != nil {
		a.logger.Warn("health check failed", "error", err)
		res.Service = "unreachable"
	} else {
		res.Service = health
	}

	if sess := a.shell.Bootstrap(ctx); sess.Authenticated() {
		res.LoggedIn = true
		res.User = &sess.User
	}

	return a.out.Success(res, func(w io.Writer) error {
		fmt.Fprintf(w, "Service: %s (%s)\n", res.Service, res.BaseURL)
		if res.User != nil {
			fmt.Fprint(w, "Logged in as ")
			return renderUser(w, *res.User)
		}
		_, err := fmt.Fprintln(w, "Not logged in.")
		return err
	})
}

// NewLoginCommand creates the login command.
func NewLoginCommand(opts *RootOptions) *cobra.Command {
	var password string

	cmd := &cobra.Command{
		Use:   "login <username-or-email>",
		Short: "Log in and store the session",
		Long: `Log in with a username or email address.

The password is read from --password or, if absent, from the first line of
standard input.

Example:
  kin login alice
  echo "$PASSWORD" | kin login alice@example.com`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.run(cmd, func(ctx context.Context, a *app) error {
				pw, err := readPassword(cmd, password)
				if err != nil {
					return a.out.Fail(err)
				}
				u, err := a.shell.Login(ctx, args[0], pw)
				if err != nil {
					return a.out.Fail(err)
				}
				return a.out.Success(u, func(w io.Writer) error {
					fmt.Fprint(w, "✓ Logged in as ")
					return renderUser(w, u)
				})
			})
		},
	}

	cmd.Flags().StringVarP(&password, "password", "p", "", "password (read from stdin if omitted)")

	return cmd
}

// NewRegisterCommand creates the register command.
func NewRegisterCommand(opts *RootOptions) *cobra.Command {
	var password string

	cmd := &cobra.Command{
		Use:   "register <username> <email>",
		Short: "Create an account and log in",
		Long: `Create an account, then log in with it.

The password is read from --password or, if absent, from the first line of
standard input.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.run(cmd, func(ctx context.Context, a *app) error {
				pw, err := readPassword(cmd, password)
				if err != nil {
					return a.out.Fail(err)
				}
				u, err := a.shell.Register(ctx, args[0], args[1], pw)
				if err != nil {
					return a.out.Fail(err)
				}
				return a.out.Success(u, func(w io.Writer) error {
					fmt.Fprint(w, "✓ Registered and logged in as ")
					return renderUser(w, u)
				})
			})
		},
	}

	cmd.Flags().StringVarP(&password, "password", "p", "", "password (read from stdin if omitted)")

	return cmd
}

// NewLogoutCommand creates the logout command.
func NewLogoutCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "End the session and forget stored credentials",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.run(cmd, func(ctx context.Context, a *app) error {
				if err := a.shell.Logout(ctx); err != nil {
					return a.out.Fail(err)
				}
				return a.out.Success(map[string]bool{"logged_out": true}, func(w io.Writer) error {
					_, err := fmt.Fprintln(w, "✓ Logged out")
					return err
				})
			})
		},
	}
}

// NewWhoamiCommand creates the whoami command.
func NewWhoamiCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the logged-in user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.run(cmd, func(ctx context.Context, a *app) error {
				u, err := a.requireUser(ctx)
				if err != nil {
					return a.fail(err)
				}
				return a.out.Success(u, func(w io.Writer) error {
					return renderUser(w, u)
				})
			})
		},
	}
}

// readPassword returns flagValue, or the first line of the command's input.
// A prompt is printed only when input is a terminal.
func readPassword(cmd *cobra.Command, flagValue string) (string, error) {
	if flagValue != "" {
		return flagValue, nil
	}

	in := cmd.InOrStdin()
	if f, ok := in.(*os.File); ok && isatty.IsTerminal(f.Fd()) {
		fmt.Fprint(cmd.ErrOrStderr(), "Password: ")
	}

	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && err != io.EOF {
		return "", fmt.Errorf("read password: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}
