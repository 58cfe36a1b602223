package services

import (
	"context"
	"log"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"cagedesk/internal/adapters/persistence/models"
	"cagedesk/internal/adapters/persistence/repositories"
	"cagedesk/internal/adapters/realtime"
	"cagedesk/internal/core/domain"
	"cagedesk/internal/pkg/pagination"
)

// LatestLogLimit is how many entries the activity view shows
const LatestLogLimit = 200

// AuditEntry is the subject part of a log entry
type AuditEntry struct {
	MemberID   string
	MemberName string
	Details    string
	OldValue   string
	NewValue   string
}

// DailyLogs splits the latest entries at local midnight
type DailyLogs struct {
	Today   []domain.LogEntry `json:"today"`
	Earlier []domain.LogEntry `json:"earlier"`
}

// AuditService appends to and reads the audit log
type AuditService struct {
	logs     repositories.LogRepository
	roster   *domain.Roster
	hub      Publisher
	guard    *SchemaGuard
	location *time.Location
	now      Clock
}

// NewAuditService creates a new audit service
func NewAuditService(
	logs repositories.LogRepository,
	roster *domain.Roster,
	hub Publisher,
	guard *SchemaGuard,
	location *time.Location,
) *AuditService {
	if location == nil {
		location = time.UTC
	}
	return &AuditService{
		logs:     logs,
		roster:   roster,
		hub:      hub,
		guard:    guard,
		location: location,
		now:      time.Now,
	}
}

// Record appends one entry on behalf of actor. The action is swapped for
// its monitored variant when the actor is monitored.
func (s *AuditService) Record(ctx context.Context, actor Actor, action domain.Action, entry AuditEntry) (domain.LogEntry, error) {
	ctx, span := tracer.Start(ctx, "audit.record", trace.WithAttributes(
		attribute.String("action", string(action)),
	))
	var err error
	defer func() { endSpan(span, err) }()

	rec := domain.LogEntry{
		ID:         uuid.NewString(),
		UserPhone:  actor.Phone,
		UserName:   actor.Name,
		MemberID:   entry.MemberID,
		MemberName: entry.MemberName,
		Action:     s.roster.Tag(action, actor.Phone),
		Details:    entry.Details,
		OldValue:   entry.OldValue,
		NewValue:   entry.NewValue,
		Timestamp:  s.now().UTC(),
	}

	if err = s.logs.Create(ctx, models.LogFromDomain(rec)); err != nil {
		err = storeError(s.guard, "append log", err)
		return rec, err
	}
	s.hub.Publish(realtime.TopicLogs, realtime.OpInsert, rec.ID)
	return rec, nil
}

// RecordQuietly appends an entry; failure is logged and swallowed so the
// action that triggered it still succeeds
func (s *AuditService) RecordQuietly(ctx context.Context, actor Actor, action domain.Action, entry AuditEntry) {
	if _, err := s.Record(ctx, actor, action, entry); err != nil {
		log.Printf("⚠️ Audit %s by %s not recorded: %v", action, actor.Phone, err)
	}
}

// Latest returns the newest entries, newest first
func (s *AuditService) Latest(ctx context.Context) ([]domain.LogEntry, error) {
	rows, err := s.logs.Latest(ctx, LatestLogLimit)
	if err != nil {
		return nil, storeError(s.guard, "read logs", err)
	}
	out := make([]domain.LogEntry, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.ToDomain())
	}
	return out, nil
}

// Daily returns the latest entries split into today and earlier
func (s *AuditService) Daily(ctx context.Context) (*DailyLogs, error) {
	entries, err := s.Latest(ctx)
	if err != nil {
		return nil, err
	}
	return SplitByDay(entries, s.now().In(s.location)), nil
}

// SplitByDay puts entries at or after the local midnight of now in Today
func SplitByDay(entries []domain.LogEntry, now time.Time) *DailyLogs {
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	out := &DailyLogs{Today: []domain.LogEntry{}, Earlier: []domain.LogEntry{}}
	for _, e := range entries {
		if e.Timestamp.Before(midnight) {
			out.Earlier = append(out.Earlier, e)
		} else {
			out.Today = append(out.Today, e)
		}
	}
	return out
}

// List returns one page of the log, newest first
func (s *AuditService) List(ctx context.Context, params *pagination.Params) (*pagination.Response, error) {
	rows, total, err := s.logs.List(ctx, params.Offset, params.Limit)
	if err != nil {
		return nil, storeError(s.guard, "list logs", err)
	}
	out := make([]domain.LogEntry, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.ToDomain())
	}
	return pagination.NewResponse(out, params, total), nil
}
