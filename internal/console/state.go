package console

import (
	"time"

	"cagedesk/internal/adapters/realtime"
	"cagedesk/internal/core/domain"
	"cagedesk/internal/core/services"
)

// AuthState is where the console is in the login lifecycle
type AuthState string

const (
	Anonymous      AuthState = "ANONYMOUS"
	Authenticating AuthState = "AUTHENTICATING"
	Authorized     AuthState = "AUTHORIZED"
)

// CachedSession is what survives a restart. It is never trusted without
// asking the server first.
type CachedSession struct {
	Token     string    `json:"token"`
	SessionID string    `json:"session_id"`
	Phone     string    `json:"phone"`
	Name      string    `json:"name"`
	Master    bool      `json:"master"`
	LoginTime time.Time `json:"login_time"`
}

// Draft is an open enrollment or edit form. Key is the member id, or ""
// for a new enrollment.
type Draft struct {
	Key  string
	Form domain.MemberForm
}

// State is everything the console shows
type State struct {
	Auth    AuthState
	Session *CachedSession

	Members  []services.MemberView
	Counts   map[domain.MemberTab]int
	Logs     []domain.LogEntry
	Sessions []domain.Session

	// Drafts are owned by the operator; refreshes never touch them
	Drafts map[string]Draft

	FeedHead      uint64
	NeedsRefresh  bool
	LastHeartbeat time.Time

	// Banner is the current connection problem, if any
	Banner      string
	StaleSchema bool
	// Notice explains the last forced return to ANONYMOUS
	Notice     string
	LoginError string
}

// NewState is the state of a console with nobody logged in
func NewState() State {
	return State{Auth: Anonymous, Drafts: map[string]Draft{}}
}

// Event is an input to Reduce
type Event interface {
	event()
}

// LoginSubmitted means the operator pressed login
type LoginSubmitted struct{}

// LoginSucceeded carries the new session
type LoginSucceeded struct {
	Session CachedSession
}

// LoginFailed carries the message shown on the login form
type LoginFailed struct {
	Message string
}

// SnapshotLoaded replaces every list view
type SnapshotLoaded struct {
	Members  []services.MemberView
	Counts   map[domain.MemberTab]int
	Logs     []domain.LogEntry
	Sessions []domain.Session
}

// ExternalChange is a batch from the change feed
type ExternalChange struct {
	Batch realtime.Batch
}

// HeartbeatTick is a successful heartbeat
type HeartbeatTick struct {
	At time.Time
}

// HeartbeatFailed is a heartbeat that could not reach the server
type HeartbeatFailed struct {
	Message string
}

// SessionRevoked means the server no longer knows this session
type SessionRevoked struct {
	Reason string
}

// LoggedOut is an explicit logout
type LoggedOut struct{}

// ConnectionFailed is any other failed call
type ConnectionFailed struct {
	Message     string
	StaleSchema bool
}

// DraftOpened starts editing a form
type DraftOpened struct {
	Key  string
	Form domain.MemberForm
}

// DraftEdited replaces an open form's values
type DraftEdited struct {
	Key  string
	Form domain.MemberForm
}

// DraftClosed discards or completes a form
type DraftClosed struct {
	Key string
}

func (LoginSubmitted) event()   {}
func (LoginSucceeded) event()   {}
func (LoginFailed) event()      {}
func (SnapshotLoaded) event()   {}
func (ExternalChange) event()   {}
func (HeartbeatTick) event()    {}
func (HeartbeatFailed) event()  {}
func (SessionRevoked) event()   {}
func (LoggedOut) event()        {}
func (ConnectionFailed) event() {}
func (DraftOpened) event()      {}
func (DraftEdited) event()      {}
func (DraftClosed) event()      {}
