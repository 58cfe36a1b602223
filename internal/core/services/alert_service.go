package services

import (
	"context"
	"fmt"
	"log"
	"sync"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"cagedesk/internal/adapters/chatlink"
	"cagedesk/internal/adapters/persistence/repositories"
	"cagedesk/internal/adapters/realtime"
	"cagedesk/internal/core/domain"
)

// SendResult is the outcome of a member message. The message has been
// handed to the chat app even when the counter could not be persisted.
type SendResult struct {
	Link             string `json:"link"`
	CounterPersisted bool   `json:"counter_persisted"`
}

// BirthdayList is the birthday worklist
type BirthdayList struct {
	Today    []MemberView `json:"today"`
	Tomorrow []MemberView `json:"tomorrow"`
}

// RenewalList is the renewal worklist
type RenewalList struct {
	Within7 []MemberView `json:"within7"`
	Next15  []MemberView `json:"next15"`
}

// AlertService builds worklists and sends member messages
type AlertService struct {
	ledger     *LedgerService
	members    repositories.MemberRepository
	audit      *AuditService
	hub        Publisher
	guard      *SchemaGuard
	dispatcher chatlink.Dispatcher
	messages   *Messages
	roster     *domain.Roster

	// welcomeMu serializes check, dispatch and persist of welcome messages
	welcomeMu sync.Mutex
}

// NewAlertService creates a new alert service
func NewAlertService(
	ledger *LedgerService,
	members repositories.MemberRepository,
	audit *AuditService,
	hub Publisher,
	guard *SchemaGuard,
	dispatcher chatlink.Dispatcher,
	messages *Messages,
	roster *domain.Roster,
) *AlertService {
	return &AlertService{
		ledger:     ledger,
		members:    members,
		audit:      audit,
		hub:        hub,
		guard:      guard,
		dispatcher: dispatcher,
		messages:   messages,
		roster:     roster,
	}
}

// Birthdays lists members whose birthday is today or tomorrow
func (s *AlertService) Birthdays(ctx context.Context) (*BirthdayList, error) {
	all, err := s.ledger.All(ctx)
	if err != nil {
		return nil, err
	}
	today := s.ledger.Today()
	seg := domain.Birthdays(all, today)
	return &BirthdayList{Today: Views(seg.Today, today), Tomorrow: Views(seg.Tomorrow, today)}, nil
}

// Renewals lists active members expiring within 15 days
func (s *AlertService) Renewals(ctx context.Context) (*RenewalList, error) {
	all, err := s.ledger.All(ctx)
	if err != nil {
		return nil, err
	}
	today := s.ledger.Today()
	b := domain.Renewals(all, today)
	return &RenewalList{Within7: Views(b.Within7, today), Next15: Views(b.Next15, today)}, nil
}

// Pending lists members with an outstanding balance
func (s *AlertService) Pending(ctx context.Context) ([]MemberView, error) {
	all, err := s.ledger.All(ctx)
	if err != nil {
		return nil, err
	}
	return Views(domain.PendingList(all), s.ledger.Today()), nil
}

// MasterOnlyMessage is shown to staff who try to send a welcome message
func (s *AlertService) MasterOnlyMessage() string {
	return fmt.Sprintf("Only %s is authorized to send Welcome Messages.", s.roster.NameOf(s.roster.MasterPhone()))
}

// SendWelcome sends the welcome message at most once per member
func (s *AlertService) SendWelcome(ctx context.Context, actor Actor, memberID string) (*SendResult, error) {
	ctx, span := tracer.Start(ctx, "alert.welcome", trace.WithAttributes(
		attribute.String("member.id", memberID),
	))
	var err error
	defer func() { endSpan(span, err) }()

	if !actor.Master {
		err = domain.ErrMasterOnly
		return nil, err
	}

	s.welcomeMu.Lock()
	defer s.welcomeMu.Unlock()

	m, err := s.ledger.Get(ctx, memberID)
	if err != nil {
		return nil, err
	}
	if m.WelcomeSent {
		err = domain.ErrAlreadySent
		return nil, err
	}

	link, err := s.dispatcher.Dispatch(ctx, domain.ChatDigits(m.PhoneNumber), s.messages.Welcome(*m, actor.Name))
	if err != nil {
		return nil, err
	}

	res := &SendResult{Link: link}
	if !s.guard.Stale() {
		changed, perr := s.members.MarkWelcomeSent(ctx, m.ID)
		switch {
		case perr != nil:
			log.Printf("⚠️ Welcome for %s dispatched but not recorded: %v", m.ID, storeError(s.guard, "mark welcome", perr))
		case changed:
			res.CounterPersisted = true
			s.hub.Publish(realtime.TopicMembers, realtime.OpUpdate, m.ID)
		}
	}

	s.audit.RecordQuietly(ctx, actor, domain.ActionWelcomeSent, AuditEntry{
		MemberID:   m.ID,
		MemberName: m.FullName,
		Details:    "Welcome sent to " + m.FullName,
	})
	return res, nil
}

// SendExpiryReminder nudges a member about the coming expiry
func (s *AlertService) SendExpiryReminder(ctx context.Context, actor Actor, memberID string) (*SendResult, error) {
	return s.sendReminder(ctx, actor, memberID, domain.ActionExpiryReminder)
}

// SendPendingReminder nudges a member about an unpaid balance
func (s *AlertService) SendPendingReminder(ctx context.Context, actor Actor, memberID string) (*SendResult, error) {
	return s.sendReminder(ctx, actor, memberID, domain.ActionPendingReminder)
}

func (s *AlertService) sendReminder(ctx context.Context, actor Actor, memberID string, action domain.Action) (*SendResult, error) {
	ctx, span := tracer.Start(ctx, "alert.reminder", trace.WithAttributes(
		attribute.String("member.id", memberID),
		attribute.String("action", string(action)),
	))
	var err error
	defer func() { endSpan(span, err) }()

	m, err := s.ledger.Get(ctx, memberID)
	if err != nil {
		return nil, err
	}

	var text, details string
	switch action {
	case domain.ActionExpiryReminder:
		text = s.messages.Expiry(*m, domain.RemainingDays(*m, s.ledger.Today()), actor.Name)
		details = "Reminder sent to " + m.FullName
	default:
		if domain.PendingBalance(*m) <= 0 {
			err = fmt.Errorf("%w: %s has no pending balance", domain.ErrInvalidInput, m.FullName)
			return nil, err
		}
		text = s.messages.Pending(*m, actor.Name)
		details = "Fee reminder sent to " + m.FullName
	}

	link, err := s.dispatcher.Dispatch(ctx, domain.ChatDigits(m.PhoneNumber), text)
	if err != nil {
		return nil, err
	}

	res := &SendResult{Link: link}
	if !s.guard.Stale() {
		if perr := s.members.IncrementReminderCount(ctx, m.ID); perr != nil {
			log.Printf("⚠️ Reminder for %s dispatched but not counted: %v", m.ID, storeError(s.guard, "count reminder", perr))
		} else {
			res.CounterPersisted = true
			s.hub.Publish(realtime.TopicMembers, realtime.OpUpdate, m.ID)
		}
	}

	s.audit.RecordQuietly(ctx, actor, action, AuditEntry{
		MemberID:   m.ID,
		MemberName: m.FullName,
		Details:    details,
	})
	return res, nil
}

// SendBirthdayWish sends the birthday message; nothing is counted
func (s *AlertService) SendBirthdayWish(ctx context.Context, actor Actor, memberID string) (*SendResult, error) {
	m, err := s.ledger.Get(ctx, memberID)
	if err != nil {
		return nil, err
	}
	link, err := s.dispatcher.Dispatch(ctx, domain.ChatDigits(m.PhoneNumber), s.messages.Birthday(*m))
	if err != nil {
		return nil, err
	}
	s.audit.RecordQuietly(ctx, actor, domain.ActionBirthdayWish, AuditEntry{
		MemberID:   m.ID,
		MemberName: m.FullName,
		Details:    "Birthday wish sent to " + m.FullName,
	})
	return &SendResult{Link: link}, nil
}
