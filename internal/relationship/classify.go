package relationship

import "github.com/roach88/kin/internal/model"

// Classify returns the relationship between currentUserID and candidateID.
//
// Precedence is friend > request-sent > request-received > stranger, so a
// friendship always wins over stale pending markers left in local state.
// Classify is pure, total and independent of collection order.
func Classify(s Snapshot, currentUserID, candidateID int64) model.RelationshipStatus {
	if s.IsFriend(candidateID) {
		return model.StatusFriend
	}
	if _, ok := s.OutgoingTo(currentUserID, candidateID); ok {
		return model.StatusRequestSent
	}
	if _, ok := s.IncomingFrom(candidateID); ok {
		return model.StatusRequestReceived
	}
	return model.StatusStranger
}

// Candidate is a search result annotated with its relationship status.
type Candidate struct {
	User   model.User               `json:"user"`
	Status model.RelationshipStatus `json:"status"`

	// RequestID is the incoming request to respond to when Status is
	// request-received, otherwise 0.
	RequestID int64 `json:"request_id,omitempty"`
}

// ClassifyAll annotates users against one snapshot.
func ClassifyAll(s Snapshot, currentUserID int64, users []model.User) []Candidate {
	out := make([]Candidate, 0, len(users))
	for _, u := range users {
		c := Candidate{User: u, Status: Classify(s, currentUserID, u.ID)}
		if c.Status == model.StatusRequestReceived {
			if r, ok := s.IncomingFrom(u.ID); ok {
				c.RequestID = r.ID
			}
		}
		out = append(out, c)
	}
	return out
}
