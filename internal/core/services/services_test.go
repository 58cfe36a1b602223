package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"cagedesk/internal/adapters/persistence/models"
	"cagedesk/internal/adapters/persistence/repositories"
	"cagedesk/internal/adapters/realtime"
	"cagedesk/internal/core/domain"
	"cagedesk/internal/pkg/fingerprint"
	"cagedesk/internal/testutil"
)

const (
	masterPhone    = "+919595107293"
	staffPhone     = "+919130368298"
	monitoredPhone = "+919823733536"
	testSecret     = "959510"
	jwtSecret      = "test-jwt-secret"
)

var (
	kolkata, _ = time.LoadLocation("Asia/Kolkata")
	// Saturday 2024-06-15 10:00 IST
	fixedNow = time.Date(2024, 6, 15, 4, 30, 0, 0, time.UTC)
)

type sentMessage struct {
	Digits string
	Text   string
}

// recordingDispatcher remembers every message instead of opening a link
type recordingDispatcher struct {
	mu   sync.Mutex
	sent []sentMessage
	err  error
}

func (d *recordingDispatcher) Dispatch(_ context.Context, digits, text string) (string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.err != nil {
		return "", d.err
	}
	d.sent = append(d.sent, sentMessage{Digits: digits, Text: text})
	return "https://wa.me/" + digits, nil
}

func (d *recordingDispatcher) count() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.sent)
}

type testEnv struct {
	db         *gorm.DB
	hub        *realtime.Hub
	guard      *SchemaGuard
	roster     *domain.Roster
	dispatcher *recordingDispatcher

	members  repositories.MemberRepository
	logs     repositories.LogRepository
	sessions repositories.SessionRepository
	devices  repositories.DeviceRepository

	audit     *AuditService
	ledger    *LedgerService
	alerts    *AlertService
	secrets   *SecretService
	sess      *SessionService
	dashboard *DashboardService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	fingerprint.Cost = bcrypt.MinCost

	db := testutil.NewDB(t)
	env := &testEnv{
		db:    db,
		hub:   realtime.NewHub(realtime.DefaultCapacity),
		guard: NewSchemaGuard(),
		roster: domain.NewRoster("+91", map[string]string{
			"9130368298": "Shrikant Sathe",
			"9595107293": "Vishwajeet Bhangare",
			"9823733536": "Radha Shetty",
		}, "9595107293", []string{"9823733536"}),
		dispatcher: &recordingDispatcher{},
		members:    repositories.NewMemberRepository(db),
		logs:       repositories.NewLogRepository(db),
		sessions:   repositories.NewSessionRepository(db),
		devices:    repositories.NewDeviceRepository(db),
	}
	clock := func() time.Time { return fixedNow }

	env.audit = NewAuditService(env.logs, env.roster, env.hub, env.guard, kolkata)
	env.audit.now = clock
	env.ledger = NewLedgerService(env.members, env.audit, env.hub, env.guard, "+91", kolkata)
	env.ledger.now = clock
	env.alerts = NewAlertService(env.ledger, env.members, env.audit, env.hub, env.guard,
		env.dispatcher, NewMessages("The Cage MMA Gym & RS Fitness Academy"), env.roster)

	rotation := domain.WeeklySchedule{Weekday: time.Sunday, Hour: 5, Minute: 5, Location: kolkata}
	env.secrets = NewSecretService(repositories.NewSecretRepository(db), env.guard, rotation, testSecret)
	env.secrets.now = clock

	env.sess = NewSessionService(env.sessions, env.devices, env.secrets, env.audit, env.hub, env.guard, env.roster,
		SessionConfig{JWTSecret: jwtSecret, TokenDays: 7, StaleAfter: 24 * time.Hour},
		domain.NewCrossBindingRule([]string{"9130368298"}, MatchesBinding),
	)
	env.sess.now = clock
	env.dashboard = NewDashboardService(env.ledger, env.audit, env.sess)
	return env
}

func masterActor() Actor {
	return Actor{SessionID: "s-master", Phone: masterPhone, Name: "Vishwajeet Bhangare", Master: true}
}

func staffActor() Actor {
	return Actor{SessionID: "s-staff", Phone: staffPhone, Name: "Shrikant Sathe"}
}

func gymForm(name, joining, paid string) domain.MemberForm {
	return domain.MemberForm{
		FullName:        name,
		PhoneNumber:     "98765-43210",
		MembershipType:  domain.MembershipSingle,
		ServiceCategory: domain.CategoryGym,
		PackageID:       "gym-1",
		JoiningDate:     joining,
		PaymentReceived: paid,
	}
}

func (e *testEnv) enroll(t *testing.T, form domain.MemberForm) *domain.Member {
	t.Helper()
	m, err := e.ledger.Enroll(context.Background(), staffActor(), form)
	require.NoError(t, err)
	return m
}

func (e *testEnv) member(t *testing.T, id string) domain.Member {
	t.Helper()
	row, err := e.members.GetByID(context.Background(), id)
	require.NoError(t, err)
	return row.ToDomain()
}

func (e *testEnv) actions(t *testing.T) []domain.Action {
	t.Helper()
	var rows []models.Log
	require.NoError(t, e.db.Order("rowid").Find(&rows).Error)
	out := make([]domain.Action, 0, len(rows))
	for _, r := range rows {
		out = append(out, domain.Action(r.Action))
	}
	return out
}

func (e *testEnv) sessionCount(t *testing.T) int64 {
	t.Helper()
	var n int64
	require.NoError(t, e.db.Model(&models.Session{}).Count(&n).Error)
	return n
}
