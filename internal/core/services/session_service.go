package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/time/rate"
	"gorm.io/gorm"

	"cagedesk/internal/adapters/persistence/models"
	"cagedesk/internal/adapters/persistence/repositories"
	"cagedesk/internal/adapters/realtime"
	"cagedesk/internal/core/domain"
	"cagedesk/internal/pkg/fingerprint"
	"cagedesk/internal/pkg/jwt"
)

// Device classes derived from the User-Agent
const (
	DeviceTablet = "Tablet"
	DevicePhone  = "Phone"
	DevicePC     = "PC / Laptop"
)

var (
	tabletUA  = regexp.MustCompile(`(?i)tablet|ipad|playbook|silk`)
	androidUA = regexp.MustCompile(`(?i)android`)
	mobiUA    = regexp.MustCompile(`(?i)mobi`)
	phoneUA   = regexp.MustCompile(`Mobile|Android|iP(hone|od)|IEMobile|BlackBerry|Kindle|Silk-Accelerated|(hpw|web)OS|Opera M(obi|ini)`)
)

// DeviceClass buckets a User-Agent into tablet, phone or computer
func DeviceClass(ua string) string {
	if tabletUA.MatchString(ua) {
		return DeviceTablet
	}
	if loc := androidUA.FindStringIndex(ua); loc != nil && !mobiUA.MatchString(ua[loc[1]:]) {
		return DeviceTablet
	}
	if phoneUA.MatchString(ua) {
		return DevicePhone
	}
	return DevicePC
}

// LoginInput represents login input
type LoginInput struct {
	Phone     string `json:"phone"`
	Secret    string `json:"secret"`
	DeviceID  string `json:"device_id"`
	UserAgent string `json:"-"`
	IP        string `json:"-"`
}

// LoginResult represents a successful login
type LoginResult struct {
	Token     string         `json:"token"`
	Session   domain.Session `json:"session"`
	User      Actor          `json:"user"`
	FirstBind bool           `json:"first_bind"`
}

// DeviceView is a device binding as shown to the master
type DeviceView struct {
	UserPhone string    `json:"user_phone"`
	UserName  string    `json:"user_name"`
	IPAddress string    `json:"ip_address"`
	CreatedAt time.Time `json:"created_at"`
}

// SessionConfig holds token and liveness settings
type SessionConfig struct {
	JWTSecret  string
	TokenDays  int
	StaleAfter time.Duration
}

// SessionService handles login, device binding and session lifecycle
type SessionService struct {
	sessions repositories.SessionRepository
	devices  repositories.DeviceRepository
	secrets  *SecretService
	audit    *AuditService
	hub      Publisher
	guard    *SchemaGuard
	roster   *domain.Roster
	policies []domain.LoginPolicy
	cfg      SessionConfig
	now      Clock

	limitMu  sync.Mutex
	limiters map[string]*rate.Limiter
}

// NewSessionService creates a new session service
func NewSessionService(
	sessions repositories.SessionRepository,
	devices repositories.DeviceRepository,
	secrets *SecretService,
	audit *AuditService,
	hub Publisher,
	guard *SchemaGuard,
	roster *domain.Roster,
	cfg SessionConfig,
	policies ...domain.LoginPolicy,
) *SessionService {
	return &SessionService{
		sessions: sessions,
		devices:  devices,
		secrets:  secrets,
		audit:    audit,
		hub:      hub,
		guard:    guard,
		roster:   roster,
		policies: policies,
		cfg:      cfg,
		now:      time.Now,
		limiters: make(map[string]*rate.Limiter),
	}
}

// MatchesBinding reports whether a raw fingerprint belongs to binding
func MatchesBinding(fp string, binding domain.DeviceBinding) bool {
	return fingerprint.Verify(fp, binding.DeviceHash)
}

// MasterName is the display name of the master identity
func (s *SessionService) MasterName() string {
	return s.roster.NameOf(s.roster.MasterPhone())
}

// DeviceMismatchMessage is shown when a phone logs in from a foreign device
func (s *SessionService) DeviceMismatchMessage() string {
	return fmt.Sprintf("SECURITY: This phone is not authorized for this account. Contact %s for a reset.", s.MasterName())
}

func (s *SessionService) allow(phone string) bool {
	s.limitMu.Lock()
	defer s.limitMu.Unlock()
	l, ok := s.limiters[phone]
	if !ok {
		l = rate.NewLimiter(rate.Every(time.Minute), 5)
		s.limiters[phone] = l
	}
	return l.Allow()
}

// Login authenticates a staff phone with the shared secret, enforces the
// device binding and opens a session
func (s *SessionService) Login(ctx context.Context, input LoginInput) (*LoginResult, error) {
	ctx, span := tracer.Start(ctx, "session.login", trace.WithAttributes(
		attribute.String("device.class", DeviceClass(input.UserAgent)),
	))
	var err error
	defer func() { endSpan(span, err) }()

	// 1. Throttle by the phone that was typed
	if !s.allow(domain.LoginDigits(input.Phone)) {
		err = domain.ErrTooManyAttempts
		return nil, err
	}

	// 2. Allow-list and shared secret
	staff, ok := s.roster.Resolve(input.Phone)
	if !ok || !s.secrets.Verify(ctx, strings.TrimSpace(input.Secret)) {
		err = domain.ErrInvalidCredentials
		return nil, err
	}
	fp := strings.TrimSpace(input.DeviceID)
	if !fingerprint.Valid(fp) {
		err = domain.NewValidationError("device_id", "Device fingerprint is missing")
		return nil, err
	}
	isMaster := s.roster.IsMaster(staff.Phone)
	ip := input.IP
	if ip == "" {
		ip = "Unknown"
	}

	// 3. Business policies
	if err = s.checkPolicies(ctx, staff.Phone, fp, isMaster); err != nil {
		return nil, err
	}

	// 4. Device binding
	binding, err := s.binding(ctx, staff.Phone)
	if err != nil {
		return nil, err
	}
	same := binding != nil && MatchesBinding(fp, *binding)
	decision := domain.DecideBinding(binding, same, isMaster)
	span.SetAttributes(attribute.String("binding", decision.String()))

	switch decision {
	case domain.BindingReject:
		log.Printf("⚠️ Login for %s rejected: device not bound", staff.Name)
		err = domain.ErrDeviceNotBound
		return nil, err
	case domain.BindingCreate, domain.BindingRepair:
		hash, herr := fingerprint.Hash(fp)
		if herr != nil {
			err = herr
			return nil, err
		}
		if decision == domain.BindingCreate {
			err = s.devices.Create(ctx, &models.AuthorizedDevice{UserPhone: staff.Phone, DeviceID: hash, IPAddress: ip})
		} else {
			err = s.devices.Rebind(ctx, staff.Phone, hash, ip)
		}
		if err != nil {
			err = storeError(s.guard, "bind device", err)
			return nil, err
		}
	}

	actor := Actor{Phone: staff.Phone, Name: staff.Name, Master: isMaster}
	if decision == domain.BindingRepair {
		s.audit.RecordQuietly(ctx, actor, domain.ActionAdminRebind, AuditEntry{
			Details: fmt.Sprintf("%s automatically updated the hardware link (IP: %s)", staff.Name, ip),
		})
	}

	// 5. Session row
	now := s.now().UTC()
	sess := domain.Session{
		ID:         uuid.NewString(),
		UserPhone:  staff.Phone,
		UserName:   staff.Name,
		DeviceType: DeviceClass(input.UserAgent),
		DeviceID:   fingerprint.Label(fp),
		IPAddress:  ip,
		LoginTime:  now,
		LastActive: now,
	}
	if err = s.sessions.Create(ctx, models.SessionFromDomain(sess)); err != nil {
		err = storeError(s.guard, "create session", err)
		return nil, err
	}
	actor.SessionID = sess.ID

	token, err := jwt.GenerateSessionToken(sess.ID, staff.Phone, staff.Name, isMaster, s.cfg.JWTSecret, s.cfg.TokenDays)
	if err != nil {
		return nil, err
	}

	action := domain.ActionSecureLogin
	if decision == domain.BindingCreate {
		action = domain.ActionLogin
	}
	s.hub.Publish(realtime.TopicSessions, realtime.OpInsert, sess.ID)
	s.audit.RecordQuietly(ctx, actor, action, AuditEntry{
		Details: fmt.Sprintf("%s logged in from authorized hardware (IP: %s)", staff.Name, ip),
	})

	log.Printf("✅ %s logged in (%s, %s)", staff.Name, sess.DeviceType, decision)
	return &LoginResult{Token: token, Session: sess, User: actor, FirstBind: decision == domain.BindingCreate}, nil
}

func (s *SessionService) checkPolicies(ctx context.Context, phone, fp string, isMaster bool) error {
	if len(s.policies) == 0 || isMaster {
		return nil
	}
	masterBinding, err := s.binding(ctx, s.roster.MasterPhone())
	if err != nil {
		return err
	}
	attempt := domain.LoginAttempt{Phone: phone, Fingerprint: fp, MasterBinding: masterBinding}
	for _, p := range s.policies {
		if perr := p.Check(attempt); perr != nil {
			log.Printf("⚠️ Login for %s blocked by %s policy", phone, p.Name())
			return perr
		}
	}
	return nil
}

func (s *SessionService) binding(ctx context.Context, phone string) (*domain.DeviceBinding, error) {
	row, err := s.devices.GetByPhone(ctx, phone)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, storeError(s.guard, "read device binding", err)
	}
	b := row.ToDomain()
	return &b, nil
}

// Validate resolves a bearer token to the actor behind a live session
func (s *SessionService) Validate(ctx context.Context, token string) (*Actor, error) {
	claims, err := jwt.ValidateSessionToken(token, s.cfg.JWTSecret)
	if err != nil {
		return nil, err
	}
	row, err := s.sessions.GetByID(ctx, claims.SessionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrSessionNotFound
		}
		return nil, storeError(s.guard, "read session", err)
	}
	return &Actor{
		SessionID: row.ID,
		Phone:     row.UserPhone,
		Name:      row.UserName,
		Master:    s.roster.IsMaster(row.UserPhone),
	}, nil
}

// Heartbeat records that the session is still in use. A missing row means
// the session was terminated elsewhere.
func (s *SessionService) Heartbeat(ctx context.Context, actor Actor) error {
	ok, err := s.sessions.Touch(ctx, actor.SessionID, s.now().UTC())
	if err != nil {
		return storeError(s.guard, "heartbeat", err)
	}
	if !ok {
		return domain.ErrSessionNotFound
	}
	return nil
}

// Logout ends the actor's own session
func (s *SessionService) Logout(ctx context.Context, actor Actor) error {
	if _, err := s.sessions.Delete(ctx, actor.SessionID); err != nil {
		return storeError(s.guard, "logout", err)
	}
	s.hub.Publish(realtime.TopicSessions, realtime.OpDelete, actor.SessionID)
	s.audit.RecordQuietly(ctx, actor, domain.ActionLogout, AuditEntry{
		Details: actor.Name + " logged out",
	})
	return nil
}

// List returns every open session, newest login first
func (s *SessionService) List(ctx context.Context) ([]domain.Session, error) {
	rows, err := s.sessions.List(ctx)
	if err != nil {
		return nil, storeError(s.guard, "list sessions", err)
	}
	out := make([]domain.Session, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.ToDomain())
	}
	return out, nil
}

// ForceLogout terminates another session (master only)
func (s *SessionService) ForceLogout(ctx context.Context, actor Actor, sessionID string) error {
	if !actor.Master {
		return domain.ErrMasterOnly
	}
	row, err := s.sessions.GetByID(ctx, sessionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.ErrSessionNotFound
		}
		return storeError(s.guard, "read session", err)
	}
	n, err := s.sessions.Delete(ctx, sessionID)
	if err != nil {
		return storeError(s.guard, "force logout", err)
	}
	if n == 0 {
		return domain.ErrSessionNotFound
	}
	s.hub.Publish(realtime.TopicSessions, realtime.OpDelete, sessionID)
	s.audit.RecordQuietly(ctx, actor, domain.ActionAdminForceLogout, AuditEntry{
		Details: fmt.Sprintf("Master Admin disconnected %s's device", row.UserName),
	})
	return nil
}

// LogoutOthers terminates every session except the actor's (master only)
func (s *SessionService) LogoutOthers(ctx context.Context, actor Actor) (int64, error) {
	if !actor.Master {
		return 0, domain.ErrMasterOnly
	}
	n, err := s.sessions.DeleteAllExcept(ctx, actor.SessionID)
	if err != nil {
		return 0, storeError(s.guard, "logout others", err)
	}
	if n > 0 {
		s.hub.Publish(realtime.TopicSessions, realtime.OpDelete, "")
		s.audit.RecordQuietly(ctx, actor, domain.ActionAdminLogoutAll, AuditEntry{
			Details: fmt.Sprintf("Master Admin disconnected all other %d devices", n),
		})
	}
	return n, nil
}

// Devices lists device bindings (master only)
func (s *SessionService) Devices(ctx context.Context, actor Actor) ([]DeviceView, error) {
	if !actor.Master {
		return nil, domain.ErrMasterOnly
	}
	rows, err := s.devices.List(ctx)
	if err != nil {
		return nil, storeError(s.guard, "list devices", err)
	}
	out := make([]DeviceView, 0, len(rows))
	for _, r := range rows {
		out = append(out, DeviceView{
			UserPhone: r.UserPhone,
			UserName:  s.roster.NameOf(r.UserPhone),
			IPAddress: r.IPAddress,
			CreatedAt: r.CreatedAt,
		})
	}
	return out, nil
}

// Unbind erases a phone's device binding so its next login binds anew
// (master only)
func (s *SessionService) Unbind(ctx context.Context, actor Actor, phone string) error {
	if !actor.Master {
		return domain.ErrMasterOnly
	}
	staff, ok := s.roster.Resolve(phone)
	if !ok {
		return domain.ErrNotFound
	}
	n, err := s.devices.Delete(ctx, staff.Phone)
	if err != nil {
		return storeError(s.guard, "unbind device", err)
	}
	if n == 0 {
		return domain.ErrNotFound
	}
	s.audit.RecordQuietly(ctx, actor, domain.ActionDeviceUnbind, AuditEntry{
		Details: "Master Admin reset hardware binding for " + staff.Name,
	})
	return nil
}

// MassLogout deletes every session. It runs at the weekly boundary.
func (s *SessionService) MassLogout(ctx context.Context) (int64, error) {
	n, err := s.sessions.DeleteAll(ctx)
	if err != nil {
		return 0, storeError(s.guard, "mass logout", err)
	}
	if n > 0 {
		s.hub.Publish(realtime.TopicSessions, realtime.OpDelete, "")
	}
	log.Printf("🛑 Scheduled logout closed %d sessions", n)
	return n, nil
}

// SweepStale deletes sessions without a heartbeat inside the stale window
func (s *SessionService) SweepStale(ctx context.Context) (int64, error) {
	if s.cfg.StaleAfter <= 0 {
		return 0, nil
	}
	n, err := s.sessions.DeleteInactiveSince(ctx, s.now().UTC().Add(-s.cfg.StaleAfter))
	if err != nil {
		return 0, storeError(s.guard, "sweep sessions", err)
	}
	if n > 0 {
		s.hub.Publish(realtime.TopicSessions, realtime.OpDelete, "")
	}
	return n, nil
}
