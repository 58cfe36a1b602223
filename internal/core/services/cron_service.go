package services

import (
	"context"
	"log"
	"time"

	"github.com/robfig/cron/v3"

	"cagedesk/internal/core/domain"
)

// jobTimeout bounds a single scheduled run
const jobTimeout = time.Minute

// CronService runs the weekly and periodic housekeeping jobs
type CronService struct {
	sessions   *SessionService
	secrets    *SecretService
	massLogout domain.WeeklySchedule
	rotation   domain.WeeklySchedule
	sweepEvery time.Duration
	cron       *cron.Cron
}

// NewCronService creates the scheduler; nothing runs until Start
func NewCronService(
	sessions *SessionService,
	secrets *SecretService,
	massLogout domain.WeeklySchedule,
	rotation domain.WeeklySchedule,
	sweepEvery time.Duration,
) *CronService {
	return &CronService{
		sessions:   sessions,
		secrets:    secrets,
		massLogout: massLogout,
		rotation:   rotation,
		sweepEvery: sweepEvery,
		cron:       cron.New(),
	}
}

// Start registers the jobs and launches the scheduler
func (s *CronService) Start() error {
	if _, err := s.cron.AddFunc(s.massLogout.CronSpec(), s.runMassLogout); err != nil {
		return err
	}
	if _, err := s.cron.AddFunc(s.rotation.CronSpec(), s.runRotation); err != nil {
		return err
	}
	if s.sweepEvery > 0 {
		if _, err := s.cron.AddFunc("@every "+s.sweepEvery.String(), s.runSweep); err != nil {
			return err
		}
	}

	// A boundary missed while the server was down is caught up now
	go s.runRotation()

	s.cron.Start()
	log.Printf("🚀 CronService started (logout %q, rotation %q)", s.massLogout.CronSpec(), s.rotation.CronSpec())
	return nil
}

// Stop waits for running jobs and stops the scheduler
func (s *CronService) Stop() {
	<-s.cron.Stop().Done()
	log.Println("🛑 CronService stopped")
}

func (s *CronService) runMassLogout() {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()
	if _, err := s.sessions.MassLogout(ctx); err != nil {
		log.Printf("❌ Scheduled logout failed: %v", err)
	}
}

func (s *CronService) runRotation() {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()
	if _, err := s.secrets.RotateIfDue(ctx); err != nil {
		log.Printf("❌ Secret rotation failed: %v", err)
	}
}

func (s *CronService) runSweep() {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()
	n, err := s.sessions.SweepStale(ctx)
	if err != nil {
		log.Printf("❌ Stale session sweep failed: %v", err)
		return
	}
	if n > 0 {
		log.Printf("🧹 Swept %d stale sessions", n)
	}
}
