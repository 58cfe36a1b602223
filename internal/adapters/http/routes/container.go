package routes

import (
	"gorm.io/gorm"

	"cagedesk/internal/adapters/chatlink"
	"cagedesk/internal/adapters/persistence/repositories"
	"cagedesk/internal/adapters/realtime"
	"cagedesk/internal/config"
	"cagedesk/internal/core/domain"
	"cagedesk/internal/core/services"
)

// Container holds every service the API and the scheduler share
type Container struct {
	Hub    *realtime.Hub
	Guard  *services.SchemaGuard
	Roster *domain.Roster

	Audit     *services.AuditService
	Ledger    *services.LedgerService
	Alerts    *services.AlertService
	Secrets   *services.SecretService
	Sessions  *services.SessionService
	Dashboard *services.DashboardService
}

// NewContainer wires repositories and services over db
func NewContainer(db *gorm.DB, cfg *config.Config, dispatcher chatlink.Dispatcher) *Container {
	// Initialize repositories
	memberRepo := repositories.NewMemberRepository(db)
	logRepo := repositories.NewLogRepository(db)
	sessionRepo := repositories.NewSessionRepository(db)
	deviceRepo := repositories.NewDeviceRepository(db)
	secretRepo := repositories.NewSecretRepository(db)

	c := &Container{
		Hub:    realtime.NewHub(realtime.DefaultCapacity),
		Guard:  services.NewSchemaGuard(),
		Roster: cfg.Roster(),
	}

	// Initialize services
	c.Audit = services.NewAuditService(logRepo, c.Roster, c.Hub, c.Guard, cfg.Gym.Location)
	c.Ledger = services.NewLedgerService(memberRepo, c.Audit, c.Hub, c.Guard, cfg.Gym.CountryPrefix, cfg.Gym.Location)
	c.Alerts = services.NewAlertService(c.Ledger, memberRepo, c.Audit, c.Hub, c.Guard,
		dispatcher, services.NewMessages(cfg.Gym.Name), c.Roster)
	c.Secrets = services.NewSecretService(secretRepo, c.Guard, cfg.RotationSchedule(), cfg.Staff.FallbackSecret)

	var policies []domain.LoginPolicy
	if len(cfg.Staff.CrossBindingBlocked) > 0 {
		policies = append(policies, domain.NewCrossBindingRule(cfg.Staff.CrossBindingBlocked, services.MatchesBinding))
	}
	c.Sessions = services.NewSessionService(sessionRepo, deviceRepo, c.Secrets, c.Audit, c.Hub, c.Guard, c.Roster,
		services.SessionConfig{
			JWTSecret:  cfg.JWT.Secret,
			TokenDays:  cfg.JWT.SessionTokenDays,
			StaleAfter: cfg.StaleSessionAfter(),
		},
		policies...,
	)
	c.Dashboard = services.NewDashboardService(c.Ledger, c.Audit, c.Sessions)

	return c
}
