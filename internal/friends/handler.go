// Package friends performs friend-request mutations and keeps the local
// relationship ledger consistent with them until the next fetch.
package friends

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/roach88/kin/internal/api"
	"github.com/roach88/kin/internal/model"
	"github.com/roach88/kin/internal/relationship"
)

var (
	// ErrNotStranger is returned when a request is offered to a candidate
	// who is already a friend or has a pending request either way.
	ErrNotStranger = errors.New("friend request not allowed")

	// ErrSelfRequest is returned when the current user targets themselves.
	ErrSelfRequest = errors.New("cannot send a friend request to yourself")

	// ErrInvalidAction is returned for an action other than accept/reject.
	ErrInvalidAction = errors.New("invalid action")
)

// Mutator is the write side of the service the handler needs.
// Implemented by *api.Client.
type Mutator interface {
	SendFriendRequest(ctx context.Context, friendID int64) (int64, error)
	RespondFriendRequest(ctx context.Context, requestID int64, action model.Action) error
}

// Handler sends and answers friend requests on behalf of the current user.
//
// Failures are returned to the caller and never retried.
type Handler struct {
	api    Mutator
	ledger *relationship.Ledger
	me     model.User
	logger *slog.Logger
}

// NewHandler creates a Handler acting as me. A nil logger uses
// slog.Default().
func NewHandler(m Mutator, ledger *relationship.Ledger, me model.User, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{api: m, ledger: ledger, me: me, logger: logger}
}

// SendRequest asks candidateID to become a friend.
//
// It refuses without a network call unless the ledger classifies the
// candidate as a stranger. On success an outgoing record is appended so
// the candidate immediately reads as request-sent.
func (h *Handler) SendRequest(ctx context.Context, candidateID int64) error {
	if candidateID == h.me.ID {
		return ErrSelfRequest
	}
	status := relationship.Classify(h.ledger.Snapshot(), h.me.ID, candidateID)
	if !status.CanRequest() {
		return fmt.Errorf("%w: user %d is %s", ErrNotStranger, candidateID, status)
	}

	id, err := h.api.SendFriendRequest(ctx, candidateID)
	if err != nil {
		return err
	}

	h.ledger.AppendOutgoing(model.FriendRequest{
		ID:   id,
		From: h.me,
		To:   model.User{ID: candidateID},
	})
	h.logger.Info("friend request sent", "to", candidateID, "request_id", id)
	return nil
}

// Respond accepts or rejects an incoming request and removes it from the
// ledger. Accepting does not add a friend locally; the friends collection
// catches up on the next fetch.
//
// Responding to a request that is already gone (not found on the server,
// or absent locally) leaves the ledger as it is and is not an error.
func (h *Handler) Respond(ctx context.Context, requestID int64, action model.Action) error {
	if !action.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidAction, action)
	}

	if err := h.api.RespondFriendRequest(ctx, requestID, action); err != nil {
		if !api.IsNotFound(err) {
			return err
		}
		h.logger.Info("friend request already resolved", "request_id", requestID)
	}

	if h.ledger.RemoveIncoming(requestID) {
		h.logger.Info("friend request answered", "request_id", requestID, "action", string(action))
	}
	return nil
}
