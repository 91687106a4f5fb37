package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/kin/internal/friends"
	"github.com/roach88/kin/internal/model"
	"github.com/roach88/kin/internal/relationship"
)

// RequestResult is the payload of the add, accept and reject commands.
type RequestResult struct {
	UserID    int64        `json:"user_id,omitempty"`
	RequestID int64        `json:"request_id,omitempty"`
	Action    model.Action `json:"action,omitempty"`
	Status    string       `json:"status"`
}

// NewFriendsCommand creates the friends command group.
func NewFriendsCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "friends",
		Short: "Manage friends and friend requests",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFriendsList(cmd, opts)
		},
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "Show your friends",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFriendsList(cmd, opts)
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "requests",
		Short: "Show friend requests waiting for your answer",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.run(cmd, func(ctx context.Context, a *app) error {
				me, err := a.requireUser(ctx)
				if err != nil {
					return a.fail(err)
				}
				all, err := a.client.ListFriendRequests(ctx)
				if err != nil {
					if err := a.readFailed("friend requests", err); err != nil {
						return a.fail(err)
					}
					all = nil
				}
				incoming, _ := relationship.Partition(all, me.ID)
				if incoming == nil {
					incoming = []model.FriendRequest{}
				}
				return a.out.Success(incoming, func(w io.Writer) error {
					return renderRequests(w, incoming)
				})
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "add <user-id>",
		Short: "Send a friend request",
		Long: `Send a friend request to a user found with "kin search".

The request is refused locally unless the user is currently a stranger:
not a friend, not already requested and not waiting on your answer.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			userID, err := parseID(args[0], "user id")
			if err != nil {
				return opts.formatter(cmd).Fail(err)
			}
			return opts.run(cmd, func(ctx context.Context, a *app) error {
				me, err := a.requireUser(ctx)
				if err != nil {
					return a.fail(err)
				}
				ledger, err := a.relationships(ctx, me)
				if err != nil {
					return a.fail(err)
				}
				h := friends.NewHandler(a.client, ledger, me, a.logger)
				if err := h.SendRequest(ctx, userID); err != nil {
					return a.fail(err)
				}
				res := RequestResult{UserID: userID, Status: string(model.StatusRequestSent)}
				if r, ok := ledger.Snapshot().OutgoingTo(me.ID, userID); ok {
					res.RequestID = r.ID
				}
				return a.out.Success(res, func(w io.Writer) error {
					_, err := fmt.Fprintf(w, "✓ Friend request sent to user %d\n", userID)
					return err
				})
			})
		},
	})

	cmd.AddCommand(newRespondCommand(opts, model.ActionAccept, "Accept a friend request"))
	cmd.AddCommand(newRespondCommand(opts, model.ActionReject, "Reject a friend request"))

	return cmd
}

func newRespondCommand(opts *RootOptions, action model.Action, short string) *cobra.Command {
	return &cobra.Command{
		Use:   string(action) + " <request-id>",
		Short: short,
		Long: short + ` listed by "kin friends requests".

Answering a request that no longer exists is not an error.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			requestID, err := parseID(args[0], "request id")
			if err != nil {
				return opts.formatter(cmd).Fail(err)
			}
			return opts.run(cmd, func(ctx context.Context, a *app) error {
				me, err := a.requireUser(ctx)
				if err != nil {
					return a.fail(err)
				}
				h := friends.NewHandler(a.client, relationship.NewLedger(), me, a.logger)
				if err := h.Respond(ctx, requestID, action); err != nil {
					return a.fail(err)
				}
				res := RequestResult{RequestID: requestID, Action: action, Status: "answered"}
				return a.out.Success(res, func(w io.Writer) error {
					_, err := fmt.Fprintf(w, "✓ Friend request %d %sed\n", requestID, action)
					return err
				})
			})
		},
	}
}

func runFriendsList(cmd *cobra.Command, opts *RootOptions) error {
	return opts.run(cmd, func(ctx context.Context, a *app) error {
		if _, err := a.requireUser(ctx); err != nil {
			return a.fail(err)
		}
		list, err := a.client.ListFriends(ctx)
		if err != nil {
			if err := a.readFailed("friends", err); err != nil {
				return a.fail(err)
			}
			list = nil
		}
		if list == nil {
			list = []model.User{}
		}
		return a.out.Success(list, func(w io.Writer) error {
			return renderUsers(w, list, "No friends yet.")
		})
	})
}
