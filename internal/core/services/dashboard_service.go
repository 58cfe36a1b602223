package services

import (
	"context"

	"cagedesk/internal/core/domain"
)

// RecentActivityLimit is how many log entries the dashboard shows
const RecentActivityLimit = 5

// DashboardService handles dashboard operations
type DashboardService struct {
	ledger   *LedgerService
	audit    *AuditService
	sessions *SessionService
}

// NewDashboardService creates a new dashboard service
func NewDashboardService(ledger *LedgerService, audit *AuditService, sessions *SessionService) *DashboardService {
	return &DashboardService{ledger: ledger, audit: audit, sessions: sessions}
}

// ============================================================
// Owner Dashboard
// ============================================================

// DashboardData represents dashboard data
type DashboardData struct {
	// Member Statistics
	TotalMembers int64                    `json:"total_members"`
	TabCounts    map[domain.MemberTab]int `json:"tab_counts"`

	// Revenue Statistics
	MonthlyRevenue      []domain.MonthRevenue `json:"monthly_revenue"`
	CurrentMonthLabel   string                `json:"current_month_label"`
	CurrentMonthRevenue float64               `json:"current_month_revenue"`
	TotalPendingFees    float64               `json:"total_pending_fees"`

	// Worklist Sizes
	RenewalsWithin7 int `json:"renewals_within7"`
	RenewalsNext15  int `json:"renewals_next15"`
	PendingMembers  int `json:"pending_members"`
	BirthdaysToday  int `json:"birthdays_today"`

	// Staff Activity
	ActiveSessions int               `json:"active_sessions"`
	RecentActivity []domain.LogEntry `json:"recent_activity"`
}

// GetDashboard returns dashboard data for the current day
func (s *DashboardService) GetDashboard(ctx context.Context) (*DashboardData, error) {
	ctx, span := tracer.Start(ctx, "dashboard.get")
	var err error
	defer func() { endSpan(span, err) }()

	all, err := s.ledger.All(ctx)
	if err != nil {
		return nil, err
	}
	today := s.ledger.Today()

	data := &DashboardData{
		TotalMembers:     int64(len(all)),
		TabCounts:        domain.TabCounts(all, today),
		MonthlyRevenue:   domain.MonthlyRevenue(all, today),
		TotalPendingFees: domain.TotalPendingFees(all),
		PendingMembers:   len(domain.PendingList(all)),
		BirthdaysToday:   len(domain.Birthdays(all, today).Today),
	}

	// The window ends at the current month
	current := data.MonthlyRevenue[len(data.MonthlyRevenue)-1]
	data.CurrentMonthLabel = current.Label
	data.CurrentMonthRevenue = current.Amount

	renewals := domain.Renewals(all, today)
	data.RenewalsWithin7 = len(renewals.Within7)
	data.RenewalsNext15 = len(renewals.Next15)

	// Staff activity is best effort; the member figures stand on their own
	if sessions, serr := s.sessions.List(ctx); serr == nil {
		data.ActiveSessions = len(sessions)
	}
	data.RecentActivity = []domain.LogEntry{}
	if logs, lerr := s.audit.Latest(ctx); lerr == nil {
		if len(logs) > RecentActivityLimit {
			logs = logs[:RecentActivityLimit]
		}
		data.RecentActivity = logs
	}

	return data, nil
}
