package cli

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"github.com/roach88/kin/internal/api"
	"github.com/roach88/kin/internal/friends"
	"github.com/roach88/kin/internal/loop"
	"github.com/roach88/kin/internal/model"
	"github.com/roach88/kin/internal/relationship"
	"github.com/roach88/kin/internal/search"
	"github.com/roach88/kin/internal/session"
)

// SearchOptions holds flags for the search command.
type SearchOptions struct {
	*RootOptions
	Interactive bool
}

// SearchResult is the payload printed for each settled search.
type SearchResult struct {
	Query      string                   `json:"query"`
	Candidates []relationship.Candidate `json:"candidates"`
}

// NewSearchCommand creates the search command.
func NewSearchCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &SearchOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "search [query...]",
		Short: "Find people and see where you stand with them",
		Long: `Search users by name. Each result shows its relationship to you:
Add Friend, Request Sent, Respond to Request or Friends.

With --interactive every line read from standard input replaces the query,
like typing in a search box. Queries are debounced: only a query left
unchanged for the debounce delay (300ms by default) is sent. Results are
printed whenever they change.

Interactive commands:
  /add <user-id>   send a friend request
  /quit            leave

Example:
  kin search ali
  kin search --interactive`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSearch(cmd, opts, args)
		},
	}

	cmd.Flags().BoolVarP(&opts.Interactive, "interactive", "i", false, "read successive queries from stdin")

	return cmd
}

func runSearch(cmd *cobra.Command, opts *SearchOptions, args []string) error {
	if opts.Interactive && len(args) > 0 {
		return opts.formatter(cmd).Fail(&usageError{msg: "--interactive does not take a query argument"})
	}

	return opts.run(cmd, func(ctx context.Context, a *app) error {
		me, err := a.requireUser(ctx)
		if err != nil {
			return a.fail(err)
		}

		lines := make(chan string)
		if opts.Interactive {
			go scanLines(ctx, cmd.InOrStdin(), lines)
		} else {
			go func() {
				defer close(lines)
				select {
				case lines <- strings.Join(args, " "):
				case <-ctx.Done():
				}
			}()
		}

		s := newSearchSession(a, opts, me)
		defer s.close()
		return s.run(ctx, lines)
	})
}

func scanLines(ctx context.Context, r io.Reader, out chan<- string) {
	defer close(out)
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		select {
		case out <- scanner.Text():
		case <-ctx.Done():
			return
		}
	}
}

// searchSession drives one search run. The debouncer owns query state on
// the loop goroutine; this type only observes it and prints from the
// command goroutine.
type searchSession struct {
	a        *app
	me       model.User
	ledger   *relationship.Ledger
	fetcher  *relationship.Fetcher
	handler  *friends.Handler
	debounce *search.Debouncer
	loop     *loop.Loop
	loopDone chan struct{}
	cancel   context.CancelFunc

	mu        sync.Mutex
	latest    search.State
	refreshed map[int64]bool // by search epoch
	expired   error          // first authentication failure seen
	changed   chan struct{}

	started bool
	printed string
}

func newSearchSession(a *app, opts *SearchOptions, me model.User) *searchSession {
	s := &searchSession{
		a:         a,
		me:        me,
		ledger:    relationship.NewLedger(),
		fetcher:   relationship.NewFetcher(a.client, a.logger),
		loop:      loop.New(a.logger),
		loopDone:  make(chan struct{}),
		refreshed: make(map[int64]bool),
		changed:   make(chan struct{}, 1),
	}
	s.handler = friends.NewHandler(a.client, s.ledger, me, a.logger)

	s.debounce = search.New(s.loop, a.client,
		search.WithDelay(opts.cfg.Search.Debounce),
		search.WithLogger(a.logger),
		search.WithOnChange(s.onChange),
		search.WithCompanion(s.refresh),
	)

	loopCtx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	go func() {
		defer close(s.loopDone)
		_ = s.loop.Run(loopCtx)
	}()
	return s
}

func (s *searchSession) close() {
	s.debounce.Close()
	s.loop.Stop()
	<-s.loopDone
	s.cancel()
}

// onChange runs on the loop goroutine and must not block.
func (s *searchSession) onChange(st search.State) {
	s.mu.Lock()
	s.latest = st
	s.noteAuthLocked(st.Err)
	s.mu.Unlock()
	s.signal()
}

func (s *searchSession) noteAuthLocked(err error) {
	if s.expired == nil && api.IsAuth(err) {
		s.expired = err
	}
}

// authFailure returns the authentication failure that ends the session, if
// any call has seen one.
func (s *searchSession) authFailure() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.expired
}

func (s *searchSession) signal() {
	select {
	case s.changed <- struct{}{}:
	default:
	}
}

// refresh reloads the relationship ledger alongside the search fired at
// epoch.
func (s *searchSession) refresh(ctx context.Context, epoch int64, _ string) {
	_, err := s.fetcher.Refresh(ctx, s.ledger, s.me.ID)
	s.mu.Lock()
	s.refreshed[epoch] = true
	s.noteAuthLocked(err)
	s.mu.Unlock()
}

// ready returns the latest state and whether it is complete enough to show:
// the search has settled and the relationships refreshed with it are
// loaded. Nothing is shown once the session has expired.
func (s *searchSession) ready() (search.State, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := s.latest
	if s.expired != nil {
		return st, false
	}
	return st, s.started && st.Settled() && (st.Query == "" || s.refreshed[st.Epoch])
}

func (s *searchSession) run(ctx context.Context, lines <-chan string) error {
	for lines != nil {
		select {
		case <-ctx.Done():
			return nil
		case <-s.changed:
			if err := s.authFailure(); err != nil {
				return s.a.fail(err)
			}
			s.show()
		case line, ok := <-lines:
			if !ok {
				lines = nil
				break
			}
			if quit := s.input(ctx, line); quit {
				return nil
			}
		}
	}

	// Input is exhausted; wait for the last query to settle.
	for {
		if err := s.authFailure(); err != nil {
			return s.a.fail(err)
		}
		if _, ok := s.ready(); ok || !s.started {
			s.show()
			return nil
		}
		select {
		case <-ctx.Done():
			return nil
		case <-s.changed:
		}
	}
}

// input applies one line: a query or an interactive command.
func (s *searchSession) input(ctx context.Context, line string) (quit bool) {
	trimmed := strings.TrimSpace(line)
	switch {
	case trimmed == "/quit":
		return true
	case strings.HasPrefix(trimmed, "/add"):
		s.add(ctx, strings.TrimSpace(strings.TrimPrefix(trimmed, "/add")))
		return false
	case strings.HasPrefix(trimmed, "/"):
		_ = s.a.out.Error(ErrCodeUsage, fmt.Sprintf("unknown command %q", trimmed), nil)
		return false
	}

	if err := s.debounce.SetQuery(ctx, line); err != nil {
		if !errors.Is(err, context.Canceled) {
			s.a.logger.Warn("query dropped", "error", err)
		}
		return false
	}
	s.mu.Lock()
	s.started = true
	s.mu.Unlock()
	return false
}

func (s *searchSession) add(ctx context.Context, arg string) {
	id, err := parseID(arg, "user id")
	if err == nil {
		err = s.handler.SendRequest(ctx, id)
	}
	if err != nil {
		if s.a.shell.Observe(err) {
			err = session.ErrNotAuthenticated
		}
		code, _, message := classifyError(err)
		_ = s.a.out.Error(code, message, nil)
		return
	}
	fmt.Fprintf(s.a.out.Writer, "✓ Friend request sent to user %d\n", id)
	s.show()
}

// show prints the current results if they are ready and differ from what
// was printed last.
func (s *searchSession) show() {
	st, ok := s.ready()
	if !ok {
		return
	}

	res := SearchResult{
		Query:      st.Query,
		Candidates: relationship.ClassifyAll(s.ledger.Snapshot(), s.me.ID, st.Results),
	}
	var buf bytes.Buffer
	f := &OutputFormatter{Format: s.a.out.Format, Writer: &buf}
	if err := f.Success(res, func(w io.Writer) error {
		return renderCandidates(w, res.Query, res.Candidates)
	}); err != nil {
		s.a.logger.Error("render failed", "error", err)
		return
	}

	if buf.String() == s.printed {
		return
	}
	s.printed = buf.String()
	_, _ = io.Copy(s.a.out.Writer, &buf)
}
