package console

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"cagedesk/internal/adapters/realtime"
	"cagedesk/internal/core/domain"
	"cagedesk/internal/core/services"
)

func authorized() State {
	s := Reduce(NewState(), LoginSubmitted{})
	return Reduce(s, LoginSucceeded{Session: CachedSession{Token: "t", SessionID: "sess-1", Name: "Shrikant Sathe"}})
}

func TestLoginLifecycle(t *testing.T) {
	s := NewState()
	assert.Equal(t, Anonymous, s.Auth)

	s = Reduce(s, LoginSubmitted{})
	assert.Equal(t, Authenticating, s.Auth)

	failed := Reduce(s, LoginFailed{Message: "INVALID CREDENTIALS OR PHONE"})
	assert.Equal(t, Anonymous, failed.Auth)
	assert.Equal(t, "INVALID CREDENTIALS OR PHONE", failed.LoginError)

	s = Reduce(s, LoginSucceeded{Session: CachedSession{Token: "t", SessionID: "sess-1"}})
	assert.Equal(t, Authorized, s.Auth)
	assert.True(t, s.NeedsRefresh)

	s = Reduce(s, LoggedOut{})
	assert.Equal(t, Anonymous, s.Auth)
	assert.Nil(t, s.Session)
	assert.Empty(t, s.Notice)
}

func TestConnectionFailureDuringLoginReturnsToAnonymous(t *testing.T) {
	s := Reduce(NewState(), LoginSubmitted{})
	s = Reduce(s, ConnectionFailed{Message: "Cannot reach the server."})
	assert.Equal(t, Anonymous, s.Auth)
	assert.Equal(t, "Cannot reach the server.", s.Banner)
}

func TestExternalChangeKeepsDrafts(t *testing.T) {
	s := authorized()
	s = Reduce(s, SnapshotLoaded{Members: []services.MemberView{{Member: domain.Member{ID: "m1", FullName: "Asha Patil"}}}})

	s = Reduce(s, DraftOpened{Key: "m1", Form: domain.MemberForm{FullName: "Asha Patil"}})
	s = Reduce(s, DraftEdited{Key: "m1", Form: domain.MemberForm{FullName: "Asha P. (typing)"}})

	// two updates to the same member land while the form is open
	s = Reduce(s, ExternalChange{Batch: realtime.Batch{Head: 2, Events: []realtime.Event{
		{Seq: 1, Topic: realtime.TopicMembers, Op: realtime.OpUpdate, ID: "m1"},
		{Seq: 2, Topic: realtime.TopicMembers, Op: realtime.OpUpdate, ID: "m1"},
	}}})
	assert.True(t, s.NeedsRefresh)
	assert.Equal(t, uint64(2), s.FeedHead)

	s = Reduce(s, SnapshotLoaded{Members: []services.MemberView{{Member: domain.Member{ID: "m1", FullName: "Asha Deshpande"}}}})
	assert.Equal(t, "Asha Deshpande", s.Members[0].FullName)
	assert.Equal(t, "Asha P. (typing)", s.Drafts["m1"].Form.FullName)
	assert.False(t, s.NeedsRefresh)
}

func TestOwnSessionDeletionSignsOut(t *testing.T) {
	s := authorized()
	s = Reduce(s, DraftOpened{Key: "", Form: domain.MemberForm{FullName: "New"}})

	other := Reduce(s, ExternalChange{Batch: realtime.Batch{Head: 1, Events: []realtime.Event{
		{Seq: 1, Topic: realtime.TopicSessions, Op: realtime.OpDelete, ID: "sess-2"},
	}}})
	assert.Equal(t, Authorized, other.Auth)

	s = Reduce(s, ExternalChange{Batch: realtime.Batch{Head: 1, Events: []realtime.Event{
		{Seq: 1, Topic: realtime.TopicSessions, Op: realtime.OpDelete, ID: "sess-1"},
	}}})
	assert.Equal(t, Anonymous, s.Auth)
	assert.Equal(t, RevokedNotice, s.Notice)
	assert.Empty(t, s.Drafts)
}

func TestHeartbeatEvents(t *testing.T) {
	s := authorized()
	at := time.Date(2024, 6, 15, 4, 30, 0, 0, time.UTC)

	s = Reduce(s, HeartbeatFailed{Message: "Cannot reach the server."})
	assert.Equal(t, Authorized, s.Auth)
	assert.NotEmpty(t, s.Banner)

	s = Reduce(s, HeartbeatTick{At: at})
	assert.Equal(t, at, s.LastHeartbeat)
	assert.Empty(t, s.Banner)

	s = Reduce(s, SessionRevoked{})
	assert.Equal(t, Anonymous, s.Auth)
	assert.Equal(t, RevokedNotice, s.Notice)
}

func TestStaleSchemaIsSticky(t *testing.T) {
	s := authorized()
	s = Reduce(s, ConnectionFailed{Message: "schema", StaleSchema: true})
	s = Reduce(s, SnapshotLoaded{})
	assert.True(t, s.StaleSchema)
	s = Reduce(s, LoggedOut{})
	assert.True(t, s.StaleSchema)
}

func TestEventsIgnoredWhileAnonymous(t *testing.T) {
	s := NewState()
	next := Reduce(s, SnapshotLoaded{Members: []services.MemberView{{}}})
	assert.Empty(t, next.Members)
	next = Reduce(s, ExternalChange{Batch: realtime.Batch{Head: 9, Reset: true}})
	assert.Zero(t, next.FeedHead)
	assert.False(t, next.NeedsRefresh)
}

func TestReduceDoesNotMutateInput(t *testing.T) {
	s := authorized()
	s = Reduce(s, DraftOpened{Key: "m1"})
	_ = Reduce(s, DraftClosed{Key: "m1"})
	require.Contains(t, s.Drafts, "m1")
}

func TestRefreshNeverTouchesDraftsProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		s := authorized()
		keys := rapid.SliceOfDistinct(rapid.StringMatching(`m[0-9]{1,3}`), rapid.ID[string]).Draw(t, "keys")
		for _, k := range keys {
			s = Reduce(s, DraftOpened{Key: k, Form: domain.MemberForm{FullName: "draft " + k}})
		}

		n := rapid.IntRange(0, 20).Draw(t, "events")
		for i := 0; i < n; i++ {
			if rapid.Bool().Draw(t, "snapshot") {
				s = Reduce(s, SnapshotLoaded{})
			} else {
				s = Reduce(s, ExternalChange{Batch: realtime.Batch{Head: uint64(i + 1), Events: []realtime.Event{
					{Seq: uint64(i + 1), Topic: realtime.TopicMembers, Op: realtime.OpUpdate, ID: "m1"},
				}}})
			}
		}

		if len(s.Drafts) != len(keys) {
			t.Fatalf("drafts %d, want %d", len(s.Drafts), len(keys))
		}
		for _, k := range keys {
			if s.Drafts[k].Form.FullName != "draft "+k {
				t.Fatalf("draft %s changed to %q", k, s.Drafts[k].Form.FullName)
			}
		}
	})
}
