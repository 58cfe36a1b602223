package repositories

import (
	"context"
	"time"

	"cagedesk/internal/adapters/persistence/models"
)

// MemberRepository defines member repository interface
type MemberRepository interface {
	List(ctx context.Context) ([]*models.Member, error)
	GetByID(ctx context.Context, id string) (*models.Member, error)
	Create(ctx context.Context, member *models.Member) error
	Update(ctx context.Context, member *models.Member) error
	// MarkWelcomeSent flips welcome_sent false -> true; false means it was already set
	MarkWelcomeSent(ctx context.Context, id string) (bool, error)
	IncrementReminderCount(ctx context.Context, id string) error
}

// LogRepository defines the append-only audit log
type LogRepository interface {
	Create(ctx context.Context, entry *models.Log) error
	Latest(ctx context.Context, limit int) ([]*models.Log, error)
	List(ctx context.Context, offset, limit int) ([]*models.Log, int64, error)
}

// SessionRepository defines session repository interface
type SessionRepository interface {
	Create(ctx context.Context, session *models.Session) error
	GetByID(ctx context.Context, id string) (*models.Session, error)
	Touch(ctx context.Context, id string, at time.Time) (bool, error)
	List(ctx context.Context) ([]*models.Session, error)
	Delete(ctx context.Context, id string) (int64, error)
	DeleteAll(ctx context.Context) (int64, error)
	DeleteAllExcept(ctx context.Context, keepID string) (int64, error)
	DeleteInactiveSince(ctx context.Context, cutoff time.Time) (int64, error)
}

// DeviceRepository defines device binding repository interface
type DeviceRepository interface {
	GetByPhone(ctx context.Context, phone string) (*models.AuthorizedDevice, error)
	Create(ctx context.Context, device *models.AuthorizedDevice) error
	Rebind(ctx context.Context, phone, deviceHash, ip string) error
	Delete(ctx context.Context, phone string) (int64, error)
	List(ctx context.Context) ([]*models.AuthorizedDevice, error)
}

// SecretRepository defines the rotating secret store
type SecretRepository interface {
	Get(ctx context.Context, key string) (*models.MasterKeyStorage, error)
	Save(ctx context.Context, row *models.MasterKeyStorage) error
	// Ensure inserts row only when the key is missing
	Ensure(ctx context.Context, row *models.MasterKeyStorage) error
}
