package console

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cagedesk/internal/adapters/realtime"
	"cagedesk/internal/core/domain"
	"cagedesk/internal/core/services"
)

// fakeBackend answers like the server would for one staff member
type fakeBackend struct {
	mu         sync.Mutex
	live       map[string]bool // token -> session alive
	down       bool
	staleCode  bool
	batches    []realtime.Batch
	dropAfter  bool // end every session once the next batch is served
	lastDevice string
	refreshes  int
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{live: map[string]bool{}}
}

func (f *fakeBackend) fail() error {
	if f.down {
		return ErrUnreachable
	}
	if f.staleCode {
		return &APIError{Status: fiber.StatusServiceUnavailable, Message: "schema", Code: domain.ErrorClassStaleSchema.String()}
	}
	return nil
}

func (f *fakeBackend) check(token string) error {
	if err := f.fail(); err != nil {
		return err
	}
	if !f.live[token] {
		return &APIError{Status: fiber.StatusUnauthorized, Message: "Session ended"}
	}
	return nil
}

func (f *fakeBackend) Login(_ context.Context, phone, secret, deviceID string) (*LoginResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.fail(); err != nil {
		return nil, err
	}
	if secret != "959510" {
		return nil, &APIError{Status: fiber.StatusUnauthorized, Message: "INVALID CREDENTIALS OR PHONE"}
	}
	f.lastDevice = deviceID
	f.live["tok-1"] = true
	return &LoginResponse{
		Token:   "tok-1",
		Session: domain.Session{ID: "sess-1", UserPhone: "+919130368298", UserName: "Shrikant Sathe"},
		User:    services.Actor{SessionID: "sess-1", Phone: "+919130368298", Name: "Shrikant Sathe"},
	}, nil
}

func (f *fakeBackend) Me(_ context.Context, token string) (*services.Actor, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.check(token); err != nil {
		return nil, err
	}
	return &services.Actor{SessionID: "sess-1", Phone: "+919130368298", Name: "Shrikant Sathe"}, nil
}

func (f *fakeBackend) Heartbeat(_ context.Context, token string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.check(token)
}

func (f *fakeBackend) Logout(_ context.Context, token string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.live, token)
	return nil
}

func (f *fakeBackend) Members(_ context.Context, token string, _ domain.MemberTab, _ string) (*services.MemberList, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.check(token); err != nil {
		return nil, err
	}
	f.refreshes++
	return &services.MemberList{
		Members: []services.MemberView{{Member: domain.Member{ID: "m1", FullName: "Asha Patil"}}},
		Counts:  map[domain.MemberTab]int{domain.TabAll: 1},
	}, nil
}

func (f *fakeBackend) Logs(_ context.Context, token string) (*services.DailyLogs, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.check(token); err != nil {
		return nil, err
	}
	return &services.DailyLogs{Today: []domain.LogEntry{{ID: "l1"}}, Earlier: []domain.LogEntry{{ID: "l0"}}}, nil
}

func (f *fakeBackend) Sessions(_ context.Context, token string) ([]domain.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.check(token); err != nil {
		return nil, err
	}
	return []domain.Session{{ID: "sess-1"}}, nil
}

func (f *fakeBackend) Feed(ctx context.Context, token string, since uint64, _ time.Duration) (realtime.Batch, error) {
	f.mu.Lock()
	if err := f.check(token); err != nil {
		f.mu.Unlock()
		return realtime.Batch{}, err
	}
	if len(f.batches) > 0 {
		b := f.batches[0]
		f.batches = f.batches[1:]
		if f.dropAfter {
			f.live = map[string]bool{}
		}
		f.mu.Unlock()
		return b, nil
	}
	f.mu.Unlock()
	<-ctx.Done()
	return realtime.Batch{Head: since}, ctx.Err()
}

func (f *fakeBackend) revoke() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.live = map[string]bool{}
}

func newTestApp(t *testing.T) (*AppContext, *fakeBackend, *LocalStore) {
	t.Helper()
	store, err := NewLocalStore(t.TempDir())
	require.NoError(t, err)
	api := newFakeBackend()
	return NewAppContext(store, api, 10*time.Millisecond), api, store
}

func TestLoginCachesSessionAndLoadsSnapshot(t *testing.T) {
	app, api, store := newTestApp(t)
	ctx := context.Background()

	require.NoError(t, app.Login(ctx, "9130368298", "959510"))
	s := app.State()
	assert.Equal(t, Authorized, s.Auth)
	assert.Len(t, s.Members, 1)
	assert.Len(t, s.Logs, 2)
	assert.False(t, s.NeedsRefresh)

	fp, err := store.Fingerprint()
	require.NoError(t, err)
	assert.Equal(t, fp, api.lastDevice)

	cached, err := store.LoadSession()
	require.NoError(t, err)
	require.NotNil(t, cached)
	assert.Equal(t, "tok-1", cached.Token)
}

func TestLoginFailureStaysAnonymous(t *testing.T) {
	app, _, store := newTestApp(t)

	err := app.Login(context.Background(), "9130368298", "000000")
	require.Error(t, err)
	s := app.State()
	assert.Equal(t, Anonymous, s.Auth)
	assert.Equal(t, "INVALID CREDENTIALS OR PHONE", s.LoginError)

	cached, err := store.LoadSession()
	require.NoError(t, err)
	assert.Nil(t, cached)
}

func TestInitRestoresOnlyLiveSessions(t *testing.T) {
	app, api, store := newTestApp(t)
	ctx := context.Background()
	require.NoError(t, app.Login(ctx, "9130368298", "959510"))

	restored := NewAppContext(store, api, time.Second)
	require.NoError(t, restored.Init(ctx))
	assert.Equal(t, Authorized, restored.State().Auth)

	api.revoke()
	again := NewAppContext(store, api, time.Second)
	require.NoError(t, again.Init(ctx))
	assert.Equal(t, Anonymous, again.State().Auth)
	cached, err := store.LoadSession()
	require.NoError(t, err)
	assert.Nil(t, cached)
}

func TestInitWithoutCacheIsAnonymous(t *testing.T) {
	app, _, _ := newTestApp(t)
	require.NoError(t, app.Init(context.Background()))
	assert.Equal(t, Anonymous, app.State().Auth)
}

func TestHeartbeatDetectsRevocation(t *testing.T) {
	app, api, store := newTestApp(t)
	ctx := context.Background()
	require.NoError(t, app.Login(ctx, "9130368298", "959510"))

	require.NoError(t, app.Heartbeat(ctx))
	assert.False(t, app.State().LastHeartbeat.IsZero())

	api.mu.Lock()
	api.down = true
	api.mu.Unlock()
	require.Error(t, app.Heartbeat(ctx))
	assert.Equal(t, Authorized, app.State().Auth)
	assert.NotEmpty(t, app.State().Banner)

	api.mu.Lock()
	api.down = false
	api.mu.Unlock()
	api.revoke()
	require.NoError(t, app.Heartbeat(ctx))
	assert.Equal(t, Anonymous, app.State().Auth)
	assert.Equal(t, RevokedNotice, app.State().Notice)

	cached, err := store.LoadSession()
	require.NoError(t, err)
	assert.Nil(t, cached)
}

func TestPollFeedRefreshesAndKeepsDrafts(t *testing.T) {
	app, api, _ := newTestApp(t)
	ctx := context.Background()
	require.NoError(t, app.Login(ctx, "9130368298", "959510"))
	app.OpenDraft("m1", domain.MemberForm{FullName: "Asha (editing)"})

	api.mu.Lock()
	before := api.refreshes
	api.batches = append(api.batches, realtime.Batch{Head: 3, Events: []realtime.Event{
		{Seq: 3, Topic: realtime.TopicMembers, Op: realtime.OpUpdate, ID: "m1"},
	}})
	api.mu.Unlock()

	require.NoError(t, app.PollFeed(ctx))
	s := app.State()
	assert.Equal(t, uint64(3), s.FeedHead)
	assert.Equal(t, "Asha (editing)", s.Drafts["m1"].Form.FullName)
	api.mu.Lock()
	assert.Equal(t, before+1, api.refreshes)
	api.mu.Unlock()
}

func TestBulkLogoutIsConfirmedByHeartbeat(t *testing.T) {
	app, api, store := newTestApp(t)
	ctx := context.Background()
	require.NoError(t, app.Login(ctx, "9130368298", "959510"))

	api.mu.Lock()
	api.dropAfter = true
	api.batches = append(api.batches, realtime.Batch{Head: 5, Events: []realtime.Event{
		{Seq: 5, Topic: realtime.TopicSessions, Op: realtime.OpDelete},
	}})
	api.mu.Unlock()

	require.NoError(t, app.PollFeed(ctx))
	s := app.State()
	assert.Equal(t, Anonymous, s.Auth)
	assert.Equal(t, RevokedNotice, s.Notice)
	cached, err := store.LoadSession()
	require.NoError(t, err)
	assert.Nil(t, cached)
}

func TestOwnSessionDeleteSignsOutWithoutHeartbeat(t *testing.T) {
	app, api, _ := newTestApp(t)
	ctx := context.Background()
	require.NoError(t, app.Login(ctx, "9130368298", "959510"))

	api.mu.Lock()
	api.batches = append(api.batches, realtime.Batch{Head: 2, Events: []realtime.Event{
		{Seq: 2, Topic: realtime.TopicSessions, Op: realtime.OpDelete, ID: "sess-1"},
	}})
	api.mu.Unlock()

	require.NoError(t, app.PollFeed(ctx))
	assert.Equal(t, Anonymous, app.State().Auth)
}

func TestStaleSchemaFromServerIsFlagged(t *testing.T) {
	app, api, _ := newTestApp(t)
	ctx := context.Background()
	require.NoError(t, app.Login(ctx, "9130368298", "959510"))

	api.mu.Lock()
	api.staleCode = true
	api.mu.Unlock()
	require.Error(t, app.Refresh(ctx))
	assert.True(t, app.State().StaleSchema)
	assert.Equal(t, Authorized, app.State().Auth)
}

func TestLogoutAndTeardown(t *testing.T) {
	app, api, store := newTestApp(t)
	ctx := context.Background()
	require.NoError(t, app.Login(ctx, "9130368298", "959510"))

	require.NoError(t, app.Logout(ctx))
	assert.Equal(t, Anonymous, app.State().Auth)
	api.mu.Lock()
	assert.Empty(t, api.live)
	api.mu.Unlock()

	require.NoError(t, app.Login(ctx, "9130368298", "959510"))
	require.NoError(t, app.Teardown())
	assert.Equal(t, Anonymous, app.State().Auth)
	cached, err := store.LoadSession()
	require.NoError(t, err)
	assert.Nil(t, cached)
}

func TestRunStopsWhenSessionEnds(t *testing.T) {
	app, api, _ := newTestApp(t)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, app.Login(ctx, "9130368298", "959510"))

	done := make(chan struct{})
	go func() {
		app.Run(ctx)
		close(done)
	}()
	time.Sleep(30 * time.Millisecond)
	api.revoke()

	select {
	case <-done:
	case <-ctx.Done():
		t.Fatal("Run did not stop after revocation")
	}
	assert.Equal(t, Anonymous, app.State().Auth)
}
