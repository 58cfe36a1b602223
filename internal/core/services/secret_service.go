package services

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"errors"
	"log"
	"math/big"
	"strconv"
	"sync"
	"time"

	"gorm.io/gorm"

	"cagedesk/internal/adapters/persistence/models"
	"cagedesk/internal/adapters/persistence/repositories"
	"cagedesk/internal/core/domain"
)

// SecretInfo is what the master sees about the login secret
type SecretInfo struct {
	Value        string    `json:"value"`
	RotatedAt    time.Time `json:"rotated_at"`
	NextRotation time.Time `json:"next_rotation"`
	Fallback     bool      `json:"fallback"`
}

// SecretService owns the weekly rotating login secret
type SecretService struct {
	secrets  repositories.SecretRepository
	guard    *SchemaGuard
	schedule domain.WeeklySchedule
	fallback string
	now      Clock

	mu sync.Mutex
}

// NewSecretService creates a new secret service
func NewSecretService(secrets repositories.SecretRepository, guard *SchemaGuard, schedule domain.WeeklySchedule, fallback string) *SecretService {
	return &SecretService{
		secrets:  secrets,
		guard:    guard,
		schedule: schedule,
		fallback: fallback,
		now:      time.Now,
	}
}

// Seed creates the secret row with the fallback value if it is missing
func (s *SecretService) Seed(ctx context.Context) error {
	return s.secrets.Ensure(ctx, &models.MasterKeyStorage{
		Key:       models.SecretKey,
		Value:     s.fallback,
		UpdatedAt: s.now().UTC(),
	})
}

// Current returns the login secret, rotating it first when a weekly
// boundary has passed. An unreachable store yields the fallback.
func (s *SecretService) Current(ctx context.Context) string {
	info, err := s.current(ctx)
	if err != nil {
		log.Printf("⚠️ Secret store unavailable, using fallback: %v", err)
		return s.fallback
	}
	return info.Value
}

// Verify compares candidate with the current secret
func (s *SecretService) Verify(ctx context.Context, candidate string) bool {
	want := s.Current(ctx)
	return subtle.ConstantTimeCompare([]byte(want), []byte(candidate)) == 1
}

// Reveal returns the current secret for the master identity
func (s *SecretService) Reveal(ctx context.Context, actor Actor) (*SecretInfo, error) {
	if !actor.Master {
		return nil, domain.ErrMasterOnly
	}
	info, err := s.current(ctx)
	if err != nil {
		return &SecretInfo{
			Value:        s.fallback,
			NextRotation: s.nextRotation(),
			Fallback:     true,
		}, nil
	}
	return info, nil
}

// RotateIfDue replaces the secret when the last rotation predates the most
// recent weekly boundary. It reports whether a rotation happened.
func (s *SecretService) RotateIfDue(ctx context.Context) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	row, err := s.secrets.Get(ctx, models.SecretKey)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, nil
		}
		return false, storeError(s.guard, "read secret", err)
	}
	if !s.schedule.Due(row.UpdatedAt, s.now()) {
		return false, nil
	}
	if _, err := s.rotate(ctx); err != nil {
		return false, err
	}
	return true, nil
}

func (s *SecretService) current(ctx context.Context) (*SecretInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	row, err := s.secrets.Get(ctx, models.SecretKey)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return &SecretInfo{Value: s.fallback, NextRotation: s.nextRotation(), Fallback: true}, nil
		}
		return nil, storeError(s.guard, "read secret", err)
	}

	if s.schedule.Due(row.UpdatedAt, s.now()) {
		rotated, err := s.rotate(ctx)
		if err != nil {
			// Keep serving the stored value until a write succeeds
			log.Printf("⚠️ Secret rotation failed: %v", err)
		} else {
			row = rotated
		}
	}

	return &SecretInfo{
		Value:        row.Value,
		RotatedAt:    row.UpdatedAt,
		NextRotation: s.nextRotation(),
	}, nil
}

func (s *SecretService) rotate(ctx context.Context) (*models.MasterKeyStorage, error) {
	value, err := newSecret()
	if err != nil {
		return nil, err
	}
	row := &models.MasterKeyStorage{Key: models.SecretKey, Value: value, UpdatedAt: s.now().UTC()}
	if err := s.secrets.Save(ctx, row); err != nil {
		return nil, storeError(s.guard, "rotate secret", err)
	}
	log.Printf("🔑 Login secret rotated")
	return row, nil
}

func (s *SecretService) nextRotation() time.Time {
	return s.schedule.MostRecent(s.now()).AddDate(0, 0, 7)
}

// newSecret draws a six digit number
func newSecret() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(900000))
	if err != nil {
		return "", err
	}
	return strconv.FormatInt(n.Int64()+100000, 10), nil
}
