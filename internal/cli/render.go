package cli

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/roach88/kin/internal/feed"
	"github.com/roach88/kin/internal/model"
	"github.com/roach88/kin/internal/relationship"
)

const timestampLayout = "2006-01-02 15:04"

func newTable(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
}

func renderUser(w io.Writer, u model.User) error {
	if u.Email != "" {
		_, err := fmt.Fprintf(w, "%s <%s> (id %d)\n", u.Username, u.Email, u.ID)
		return err
	}
	_, err := fmt.Fprintf(w, "%s (id %d)\n", u.Username, u.ID)
	return err
}

func renderUsers(w io.Writer, users []model.User, empty string) error {
	if len(users) == 0 {
		_, err := fmt.Fprintln(w, empty)
		return err
	}
	tw := newTable(w)
	fmt.Fprintln(tw, "ID\tUSERNAME")
	for _, u := range users {
		fmt.Fprintf(tw, "%d\t%s\n", u.ID, u.Username)
	}
	return tw.Flush()
}

// renderCandidates prints search results with the action each allows.
// Only strangers get an "add" hint, and only request-received candidates
// show the request to answer.
func renderCandidates(w io.Writer, query string, candidates []relationship.Candidate) error {
	if query == "" {
		_, err := fmt.Fprintln(w, "Type a name to search.")
		return err
	}
	if len(candidates) == 0 {
		_, err := fmt.Fprintf(w, "No users match %q.\n", query)
		return err
	}
	tw := newTable(w)
	fmt.Fprintln(tw, "ID\tUSERNAME\tSTATUS\tNEXT")
	for _, c := range candidates {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", c.User.ID, c.User.Username, c.Status.Label(), nextStep(c))
	}
	return tw.Flush()
}

func nextStep(c relationship.Candidate) string {
	switch c.Status {
	case model.StatusStranger:
		return fmt.Sprintf("kin friends add %d", c.User.ID)
	case model.StatusRequestReceived:
		if c.RequestID != 0 {
			return fmt.Sprintf("kin friends accept %d", c.RequestID)
		}
	}
	return "-"
}

func renderRequests(w io.Writer, requests []model.FriendRequest) error {
	if len(requests) == 0 {
		_, err := fmt.Fprintln(w, "No pending friend requests.")
		return err
	}
	tw := newTable(w)
	fmt.Fprintln(tw, "REQUEST\tFROM\tUSER ID")
	for _, r := range requests {
		fmt.Fprintf(tw, "%d\t%s\t%d\n", r.ID, r.From.Username, r.From.ID)
	}
	return tw.Flush()
}

func renderFeed(w io.Writer, entries []feed.Entry, now time.Time, loc *time.Location) error {
	if len(entries) == 0 {
		_, err := fmt.Fprintln(w, "No posts yet.")
		return err
	}
	for i, e := range entries {
		if i > 0 {
			fmt.Fprintln(w)
		}
		header := fmt.Sprintf("#%d %s", e.ID, authorName(e.Author))
		if !e.Timestamp.IsZero() {
			header += fmt.Sprintf(" · %s (%s)",
				e.Timestamp.In(loc).Format(timestampLayout),
				humanize.RelTime(e.Timestamp.Time, now, "ago", "from now"))
		}
		if e.CanDelete {
			header += " · yours"
		}
		if _, err := fmt.Fprintln(w, header); err != nil {
			return err
		}
		for _, line := range strings.Split(e.Content, "\n") {
			fmt.Fprintf(w, "    %s\n", line)
		}
	}
	return nil
}

func authorName(u model.User) string {
	if u.Username != "" {
		return u.Username
	}
	if u.ID != 0 {
		return fmt.Sprintf("user %d", u.ID)
	}
	return "unknown"
}
