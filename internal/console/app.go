package console

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"cagedesk/internal/adapters/realtime"
	"cagedesk/internal/core/domain"
	"cagedesk/internal/core/services"
)

// DefaultFeedWait is how long one feed read blocks on the server
const DefaultFeedWait = 25 * time.Second

// Backend is the part of the API the console drives. *Client implements it.
type Backend interface {
	Login(ctx context.Context, phone, secret, deviceID string) (*LoginResponse, error)
	Me(ctx context.Context, token string) (*services.Actor, error)
	Heartbeat(ctx context.Context, token string) error
	Logout(ctx context.Context, token string) error
	Members(ctx context.Context, token string, tab domain.MemberTab, query string) (*services.MemberList, error)
	Logs(ctx context.Context, token string) (*services.DailyLogs, error)
	Sessions(ctx context.Context, token string) ([]domain.Session, error)
	Feed(ctx context.Context, token string, since uint64, wait time.Duration) (realtime.Batch, error)
}

// AppContext owns the console's state and its lifecycle. Every change goes
// through Dispatch, one event at a time.
type AppContext struct {
	store     *LocalStore
	api       Backend
	heartbeat time.Duration
	feedWait  time.Duration
	now       func() time.Time

	mu       sync.Mutex
	state    State
	onChange func(State)
}

// NewAppContext creates a console context. heartbeat is the session ping
// interval.
func NewAppContext(store *LocalStore, api Backend, heartbeat time.Duration) *AppContext {
	return &AppContext{
		store:     store,
		api:       api,
		heartbeat: heartbeat,
		feedWait:  DefaultFeedWait,
		now:       time.Now,
		state:     NewState(),
	}
}

// OnChange registers a callback run after every dispatched event
func (a *AppContext) OnChange(fn func(State)) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.onChange = fn
}

// State returns the current state
func (a *AppContext) State() State {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.state
}

// Dispatch feeds one event through Reduce. Leaving AUTHORIZED forgets the
// cached session on disk.
func (a *AppContext) Dispatch(e Event) State {
	a.mu.Lock()
	prev := a.state
	next := Reduce(prev, e)
	a.state = next
	fn := a.onChange
	a.mu.Unlock()

	if prev.Auth == Authorized && next.Auth == Anonymous {
		if err := a.store.ClearSession(); err != nil {
			log.Printf("⚠️ Failed to clear cached session: %v", err)
		}
	}
	if fn != nil {
		fn(next)
	}
	return next
}

func (a *AppContext) token() string {
	s := a.State()
	if s.Session == nil {
		return ""
	}
	return s.Session.Token
}

// Init restores a cached session after asking the server whether it is
// still live
func (a *AppContext) Init(ctx context.Context) error {
	cached, err := a.store.LoadSession()
	if err != nil {
		return err
	}
	if cached == nil {
		return nil
	}

	a.Dispatch(LoginSubmitted{})
	actor, err := a.api.Me(ctx, cached.Token)
	if err != nil {
		if IsUnauthorized(err) {
			_ = a.store.ClearSession()
			a.Dispatch(LoginFailed{Message: RevokedNotice})
			return nil
		}
		a.Dispatch(failure(err))
		return nil
	}

	restored := *cached
	restored.SessionID = actor.SessionID
	restored.Name = actor.Name
	restored.Master = actor.Master
	a.Dispatch(LoginSucceeded{Session: restored})
	log.Printf("🔑 Session restored for %s", actor.Name)
	return a.Refresh(ctx)
}

// Teardown forgets the session locally and resets state
func (a *AppContext) Teardown() error {
	a.mu.Lock()
	a.state = NewState()
	a.mu.Unlock()
	return a.store.ClearSession()
}

// Login authenticates with this device's fingerprint
func (a *AppContext) Login(ctx context.Context, phone, secret string) error {
	a.Dispatch(LoginSubmitted{})

	fp, err := a.store.Fingerprint()
	if err != nil {
		a.Dispatch(LoginFailed{Message: "This device could not be identified"})
		return err
	}

	resp, err := a.api.Login(ctx, phone, secret, fp)
	if err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) && !apiErr.StaleSchema() && apiErr.Status < 500 {
			a.Dispatch(LoginFailed{Message: apiErr.Message})
		} else {
			a.Dispatch(failure(err))
		}
		return err
	}

	sess := CachedSession{
		Token:     resp.Token,
		SessionID: resp.Session.ID,
		Phone:     resp.User.Phone,
		Name:      resp.User.Name,
		Master:    resp.User.Master,
		LoginTime: resp.Session.LoginTime,
	}
	if err := a.store.SaveSession(sess); err != nil {
		log.Printf("⚠️ Failed to cache session: %v", err)
	}
	a.Dispatch(LoginSucceeded{Session: sess})
	return a.Refresh(ctx)
}

// Logout ends the session on the server, then locally. The local side
// always completes.
func (a *AppContext) Logout(ctx context.Context) error {
	var err error
	if token := a.token(); token != "" {
		err = a.api.Logout(ctx, token)
	}
	a.Dispatch(LoggedOut{})
	return err
}

// Refresh refetches every list view
func (a *AppContext) Refresh(ctx context.Context) error {
	token := a.token()
	if token == "" {
		return nil
	}

	members, err := a.api.Members(ctx, token, domain.TabAll, "")
	if err != nil {
		return a.handle(err)
	}
	logs, err := a.api.Logs(ctx, token)
	if err != nil {
		return a.handle(err)
	}
	sessions, err := a.api.Sessions(ctx, token)
	if err != nil {
		return a.handle(err)
	}

	a.Dispatch(SnapshotLoaded{
		Members:  members.Members,
		Counts:   members.Counts,
		Logs:     append(logs.Today, logs.Earlier...),
		Sessions: sessions,
	})
	return nil
}

// Heartbeat pings the session once
func (a *AppContext) Heartbeat(ctx context.Context) error {
	token := a.token()
	if token == "" {
		return nil
	}
	if err := a.api.Heartbeat(ctx, token); err != nil {
		if IsUnauthorized(err) {
			a.Dispatch(SessionRevoked{})
			return nil
		}
		a.Dispatch(HeartbeatFailed{Message: failure(err).Message})
		return err
	}
	a.Dispatch(HeartbeatTick{At: a.now()})
	return nil
}

// PollFeed waits for one feed batch and reconciles it
func (a *AppContext) PollFeed(ctx context.Context) error {
	token := a.token()
	if token == "" {
		return nil
	}
	batch, err := a.api.Feed(ctx, token, a.State().FeedHead, a.feedWait)
	if err != nil {
		return a.handle(err)
	}

	next := a.Dispatch(ExternalChange{Batch: batch})
	if next.Auth != Authorized {
		return nil
	}
	// a bulk delete carries no id; ask the server whether we survived it
	if bulkSessionDelete(batch.Events) {
		if err := a.Heartbeat(ctx); err != nil {
			return err
		}
	}
	if a.State().NeedsRefresh {
		return a.Refresh(ctx)
	}
	return nil
}

// Run drives heartbeats and the change feed until ctx ends or the session
// does
func (a *AppContext) Run(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		ticker := time.NewTicker(a.heartbeat)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				_ = a.Heartbeat(ctx)
				if a.State().Auth != Authorized {
					cancel()
					return
				}
			}
		}
	}()

	go func() {
		defer wg.Done()
		for ctx.Err() == nil && a.State().Auth == Authorized {
			if err := a.PollFeed(ctx); err != nil && ctx.Err() == nil {
				// back off instead of spinning against a dead server
				select {
				case <-ctx.Done():
				case <-time.After(a.heartbeat):
				}
			}
		}
		cancel()
	}()

	wg.Wait()
}

// OpenDraft starts an enrollment (key "") or edit form
func (a *AppContext) OpenDraft(key string, form domain.MemberForm) {
	a.Dispatch(DraftOpened{Key: key, Form: form})
}

// EditDraft stores the form's current values
func (a *AppContext) EditDraft(key string, form domain.MemberForm) {
	a.Dispatch(DraftEdited{Key: key, Form: form})
}

// CloseDraft drops a form
func (a *AppContext) CloseDraft(key string) {
	a.Dispatch(DraftClosed{Key: key})
}

// handle turns a failed call into the matching event
func (a *AppContext) handle(err error) error {
	if IsUnauthorized(err) {
		a.Dispatch(SessionRevoked{})
		return err
	}
	a.Dispatch(failure(err))
	return err
}

// failure describes err for the banner
func failure(err error) ConnectionFailed {
	var apiErr *APIError
	switch {
	case errors.As(err, &apiErr):
		return ConnectionFailed{Message: apiErr.Message, StaleSchema: apiErr.StaleSchema()}
	case errors.Is(err, ErrUnreachable):
		return ConnectionFailed{Message: "Cannot reach the server. Check the connection."}
	}
	return ConnectionFailed{Message: err.Error()}
}

func bulkSessionDelete(events []realtime.Event) bool {
	for _, ev := range events {
		if ev.Topic == realtime.TopicSessions && ev.Op == realtime.OpDelete && ev.ID == "" {
			return true
		}
	}
	return false
}
