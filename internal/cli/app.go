package cli

import (
	"context"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/roach88/kin/internal/api"
	"github.com/roach88/kin/internal/model"
	"github.com/roach88/kin/internal/relationship"
	"github.com/roach88/kin/internal/session"
	"github.com/roach88/kin/internal/store"
)

// app is the wiring one command invocation works with.
type app struct {
	opts   *RootOptions
	logger *slog.Logger
	out    *OutputFormatter
	jar    *store.Jar
	client *api.Client
	shell  *session.Shell
}

// open connects the credential store and the service client. The caller
// must Close the returned app.
func (o *RootOptions) open(cmd *cobra.Command) (*app, error) {
	out := o.formatter(cmd)
	logger := o.logger
	if logger == nil {
		logger = slog.Default()
	}

	jar, err := store.OpenJar(o.cfg.Store.Path, logger)
	if err != nil {
		_ = out.Error(ErrCodeStore, err.Error(), nil)
		return nil, WrapExitError(ExitCommandError, "failed to open credential store", err)
	}

	clientOpts := []api.Option{
		api.WithCookieJar(jar),
		api.WithTimeout(o.cfg.Server.Timeout),
		api.WithLogger(logger),
	}
	if o.RequestIDs != nil {
		clientOpts = append(clientOpts, api.WithRequestIDs(o.RequestIDs))
	}
	client, err := api.New(o.cfg.Server.BaseURL, clientOpts...)
	if err != nil {
		jar.Close()
		_ = out.Error(ErrCodeConfig, err.Error(), nil)
		return nil, WrapExitError(ExitCommandError, "invalid service URL", err)
	}

	logger.Debug("client ready", "base_url", client.BaseURL().String(), "store", o.cfg.Store.Path)
	return &app{
		opts:   o,
		logger: logger,
		out:    out,
		jar:    jar,
		client: client,
		shell:  session.NewShell(client, jar, logger),
	}, nil
}

// Close releases the credential store.
func (a *app) Close() {
	if err := a.jar.Close(); err != nil {
		a.logger.Error("error closing credential store", "error", err)
	}
}

// requireUser probes the stored session and returns its user.
func (a *app) requireUser(ctx context.Context) (model.User, error) {
	if sess := a.shell.Bootstrap(ctx); !sess.Authenticated() {
		return model.User{}, session.ErrNotAuthenticated
	}
	return a.shell.User()
}

// relationships returns a ledger freshly loaded for me. Only an
// authentication failure is returned; other failures leave collections
// empty.
func (a *app) relationships(ctx context.Context, me model.User) (*relationship.Ledger, error) {
	ledger := relationship.NewLedger()
	_, err := relationship.NewFetcher(a.client, a.logger).Refresh(ctx, ledger, me.ID)
	if api.IsAuth(err) {
		return nil, err
	}
	return ledger, nil
}

// readFailed sorts a failed relationship read. An authentication failure
// is returned for fail; anything else is logged and the read shows as
// empty.
func (a *app) readFailed(what string, err error) error {
	if api.IsAuth(err) {
		return err
	}
	a.logger.Warn(what+" unavailable, showing none", "error", err)
	return nil
}

// fail reports err, first letting the session react to auth failures.
func (a *app) fail(err error) error {
	if a.shell.Observe(err) {
		err = session.ErrNotAuthenticated
	}
	return a.out.Fail(err)
}

// run opens the app, runs fn and closes the app.
func (o *RootOptions) run(cmd *cobra.Command, fn func(ctx context.Context, a *app) error) error {
	a, err := o.open(cmd)
	if err != nil {
		return err
	}
	defer a.Close()
	return fn(cmd.Context(), a)
}
