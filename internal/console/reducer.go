package console

import (
	"maps"

	"cagedesk/internal/adapters/realtime"
)

// RevokedNotice is shown when the session row disappears under us
const RevokedNotice = "Your session was ended by the administrator or the weekly logout. Please log in again."

// Reduce is the single place console state changes. Feed batches and
// heartbeat ticks both land here, so there is one reconciliation path.
// It never mutates s.
func Reduce(s State, e Event) State {
	next := s
	next.Drafts = maps.Clone(s.Drafts)
	if next.Drafts == nil {
		next.Drafts = map[string]Draft{}
	}

	switch ev := e.(type) {
	case LoginSubmitted:
		if s.Auth == Anonymous {
			next.Auth = Authenticating
			next.LoginError = ""
		}

	case LoginSucceeded:
		sess := ev.Session
		next.Auth = Authorized
		next.Session = &sess
		next.LoginError = ""
		next.Notice = ""
		next.Banner = ""
		next.NeedsRefresh = true

	case LoginFailed:
		next.Auth = Anonymous
		next.Session = nil
		next.LoginError = ev.Message

	case SnapshotLoaded:
		if s.Auth != Authorized {
			return s
		}
		next.Members = ev.Members
		next.Counts = ev.Counts
		next.Logs = ev.Logs
		next.Sessions = ev.Sessions
		next.NeedsRefresh = false
		next.Banner = ""

	case ExternalChange:
		if s.Auth != Authorized {
			return s
		}
		if ev.Batch.Head > next.FeedHead {
			next.FeedHead = ev.Batch.Head
		}
		if ev.Batch.Reset || len(ev.Batch.Events) > 0 {
			next.NeedsRefresh = true
		}
		if s.Session != nil && ownSessionDeleted(ev.Batch.Events, s.Session.SessionID) {
			return signOut(next, RevokedNotice)
		}

	case HeartbeatTick:
		if s.Auth != Authorized {
			return s
		}
		next.LastHeartbeat = ev.At
		next.Banner = ""

	case HeartbeatFailed:
		if s.Auth != Authorized {
			return s
		}
		next.Banner = ev.Message

	case SessionRevoked:
		if s.Auth == Anonymous {
			return s
		}
		reason := ev.Reason
		if reason == "" {
			reason = RevokedNotice
		}
		return signOut(next, reason)

	case LoggedOut:
		return signOut(next, "")

	case ConnectionFailed:
		next.Banner = ev.Message
		if ev.StaleSchema {
			next.StaleSchema = true
		}
		if s.Auth == Authenticating {
			next.Auth = Anonymous
			next.LoginError = ev.Message
		}

	case DraftOpened:
		if _, open := next.Drafts[ev.Key]; !open {
			next.Drafts[ev.Key] = Draft{Key: ev.Key, Form: ev.Form}
		}

	case DraftEdited:
		if _, open := next.Drafts[ev.Key]; open {
			next.Drafts[ev.Key] = Draft{Key: ev.Key, Form: ev.Form}
		}

	case DraftClosed:
		delete(next.Drafts, ev.Key)
	}
	return next
}

// signOut drops everything tied to the identity. Drafts go too: they were
// typed under the old identity.
func signOut(s State, notice string) State {
	out := NewState()
	out.Notice = notice
	out.StaleSchema = s.StaleSchema
	return out
}

func ownSessionDeleted(events []realtime.Event, sessionID string) bool {
	for _, ev := range events {
		if ev.Topic == realtime.TopicSessions && ev.Op == realtime.OpDelete && ev.ID == sessionID && ev.ID != "" {
			return true
		}
	}
	return false
}
