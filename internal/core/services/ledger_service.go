package services

import (
	"context"
	"errors"
	"log"
	"sort"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"cagedesk/internal/adapters/persistence/models"
	"cagedesk/internal/adapters/persistence/repositories"
	"cagedesk/internal/adapters/realtime"
	"cagedesk/internal/core/domain"
)

// MemberView is a member with its derived fields for one reference day
type MemberView struct {
	domain.Member
	PackageName    string              `json:"package_name"`
	Status         domain.MemberStatus `json:"status"`
	RemainingDays  int                 `json:"remaining_days"`
	PendingBalance float64             `json:"pending_balance"`
}

// MemberList is one tab of the ledger plus the size of every tab
type MemberList struct {
	Tab     domain.MemberTab         `json:"tab"`
	Query   string                   `json:"query,omitempty"`
	Members []MemberView             `json:"members"`
	Counts  map[domain.MemberTab]int `json:"counts"`
}

// LedgerService manages member records
type LedgerService struct {
	members  repositories.MemberRepository
	audit    *AuditService
	hub      Publisher
	guard    *SchemaGuard
	prefix   string
	location *time.Location
	now      Clock
}

// NewLedgerService creates a new ledger service
func NewLedgerService(
	members repositories.MemberRepository,
	audit *AuditService,
	hub Publisher,
	guard *SchemaGuard,
	countryPrefix string,
	location *time.Location,
) *LedgerService {
	if location == nil {
		location = time.UTC
	}
	return &LedgerService{
		members:  members,
		audit:    audit,
		hub:      hub,
		guard:    guard,
		prefix:   countryPrefix,
		location: location,
		now:      time.Now,
	}
}

// Today is the current calendar day at the gym
func (s *LedgerService) Today() time.Time {
	return s.now().In(s.location)
}

// View derives the display fields of m for today
func View(m domain.Member, today time.Time) MemberView {
	return MemberView{
		Member:         m,
		PackageName:    domain.PackageName(m.PackageID),
		Status:         domain.Status(m, today),
		RemainingDays:  domain.RemainingDays(m, today),
		PendingBalance: domain.PendingBalance(m),
	}
}

// Views derives display fields for every member
func Views(members []domain.Member, today time.Time) []MemberView {
	out := make([]MemberView, 0, len(members))
	for _, m := range members {
		out = append(out, View(m, today))
	}
	return out
}

// All loads every member, most recently updated first
func (s *LedgerService) All(ctx context.Context) ([]domain.Member, error) {
	rows, err := s.members.List(ctx)
	if err != nil {
		return nil, storeError(s.guard, "list members", err)
	}
	out := make([]domain.Member, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.ToDomain())
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].UpdatedAt.After(out[j].UpdatedAt) })
	return out, nil
}

// List returns the members of one tab matching query
func (s *LedgerService) List(ctx context.Context, tab domain.MemberTab, query string) (*MemberList, error) {
	ctx, span := tracer.Start(ctx, "ledger.list", trace.WithAttributes(
		attribute.String("tab", string(tab)),
	))
	var err error
	defer func() { endSpan(span, err) }()

	all, err := s.All(ctx)
	if err != nil {
		return nil, err
	}
	today := s.Today()
	return &MemberList{
		Tab:     tab,
		Query:   query,
		Members: Views(domain.Segment(all, tab, query, today), today),
		Counts:  domain.TabCounts(all, today),
	}, nil
}

// Get loads one member
func (s *LedgerService) Get(ctx context.Context, id string) (*domain.Member, error) {
	row, err := s.members.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrMemberNotFound
		}
		return nil, storeError(s.guard, "get member", err)
	}
	m := row.ToDomain()
	return &m, nil
}

// Enroll validates form and creates a member
func (s *LedgerService) Enroll(ctx context.Context, actor Actor, form domain.MemberForm) (*domain.Member, error) {
	ctx, span := tracer.Start(ctx, "ledger.enroll")
	var err error
	defer func() { endSpan(span, err) }()

	v, err := form.Validate(s.prefix)
	if err != nil {
		return nil, err
	}

	m := domain.NewMember(uuid.NewString(), v, s.now().UTC())
	if err = s.members.Create(ctx, models.MemberFromDomain(m)); err != nil {
		err = storeError(s.guard, "create member", err)
		return nil, err
	}
	span.SetAttributes(attribute.String("member.id", m.ID))

	log.Printf("✅ %s enrolled %s (%s)", actor.Name, m.FullName, m.PackageID)
	s.hub.Publish(realtime.TopicMembers, realtime.OpInsert, m.ID)
	s.audit.RecordQuietly(ctx, actor, domain.ActionMemberEnroll, AuditEntry{
		MemberID:   m.ID,
		MemberName: m.FullName,
		Details:    actor.Name + " enrolled " + m.FullName,
		NewValue:   "Plan: " + v.Package.Name + ", Paid: ₹" + domain.FormatAmount(m.TotalPaid),
	})
	return &m, nil
}

// Update validates form and rewrites an existing member's editable fields
func (s *LedgerService) Update(ctx context.Context, actor Actor, id string, form domain.MemberForm) (*domain.Member, error) {
	ctx, span := tracer.Start(ctx, "ledger.update", trace.WithAttributes(
		attribute.String("member.id", id),
	))
	var err error
	defer func() { endSpan(span, err) }()

	v, err := form.Validate(s.prefix)
	if err != nil {
		return nil, err
	}

	before, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	after := domain.ApplyForm(*before, v, s.now().UTC())
	if err = s.members.Update(ctx, models.MemberFromDomain(after)); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			err = domain.ErrMemberNotFound
			return nil, err
		}
		err = storeError(s.guard, "update member", err)
		return nil, err
	}

	diff := domain.DiffMembers(*before, after)
	s.hub.Publish(realtime.TopicMembers, realtime.OpUpdate, after.ID)
	s.audit.RecordQuietly(ctx, actor, domain.ActionMemberUpdate, AuditEntry{
		MemberID:   after.ID,
		MemberName: after.FullName,
		Details:    actor.Name + " updated " + after.FullName,
		OldValue:   diff.Old,
		NewValue:   diff.New,
	})
	return &after, nil
}
