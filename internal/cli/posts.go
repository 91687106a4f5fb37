package cli

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/kin/internal/feed"
)

// NewPostsCommand creates the posts command group.
func NewPostsCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "posts",
		Short: "Read and write the feed",
		Long: `Read and write the feed: your posts and your friends' posts, newest
first. Only your own posts can be deleted.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFeed(cmd, opts, func(ctx context.Context, f *feed.Feed) ([]feed.Entry, error) {
				return f.Load(ctx)
			})
		},
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "Show the feed",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFeed(cmd, opts, func(ctx context.Context, f *feed.Feed) ([]feed.Entry, error) {
				return f.Load(ctx)
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "create <content>...",
		Short: "Publish a post",
		Long: `Publish a post. Arguments are joined with spaces; "-" reads the
content from standard input.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			content := strings.Join(args, " ")
			if content == "-" {
				data, err := io.ReadAll(cmd.InOrStdin())
				if err != nil {
					return WrapExitError(ExitCommandError, "failed to read content", err)
				}
				content = string(data)
			}
			return runFeed(cmd, opts, func(ctx context.Context, f *feed.Feed) ([]feed.Entry, error) {
				return f.Create(ctx, content)
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "delete <post-id>",
		Short: "Delete one of your posts",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0], "post id")
			if err != nil {
				return opts.formatter(cmd).Fail(err)
			}
			return runFeed(cmd, opts, func(ctx context.Context, f *feed.Feed) ([]feed.Entry, error) {
				return f.Delete(ctx, id)
			})
		},
	})

	return cmd
}

// runFeed runs op against a session-bound feed and prints the entries it
// returns.
func runFeed(cmd *cobra.Command, opts *RootOptions, op func(ctx context.Context, f *feed.Feed) ([]feed.Entry, error)) error {
	return opts.run(cmd, func(ctx context.Context, a *app) error {
		if _, err := a.requireUser(ctx); err != nil {
			return a.fail(err)
		}
		entries, err := op(ctx, feed.New(a.client, a.shell, a.logger))
		if err != nil {
			return a.fail(err)
		}
		return a.out.Success(entries, func(w io.Writer) error {
			return renderFeed(w, entries, opts.now(), opts.location())
		})
	})
}

// usageError is a local argument error.
type usageError struct {
	msg string
}

func (e *usageError) Error() string { return e.msg }

func parseID(s, what string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimPrefix(strings.TrimSpace(s), "#"), 10, 64)
	if err != nil || id <= 0 {
		return 0, &usageError{msg: fmt.Sprintf("invalid %s %q", what, s)}
	}
	return id, nil
}
