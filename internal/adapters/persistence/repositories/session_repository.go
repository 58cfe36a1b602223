package repositories

import (
	"context"
	"time"

	"cagedesk/internal/adapters/persistence/models"

	"gorm.io/gorm"
)

// sessionRepository implements SessionRepository interface
type sessionRepository struct {
	db *gorm.DB
}

// NewSessionRepository creates a new session repository
func NewSessionRepository(db *gorm.DB) SessionRepository {
	return &sessionRepository{db: db}
}

// Create creates a new session
func (r *sessionRepository) Create(ctx context.Context, session *models.Session) error {
	return r.db.WithContext(ctx).Create(session).Error
}

// GetByID gets a session by ID
func (r *sessionRepository) GetByID(ctx context.Context, id string) (*models.Session, error) {
	var session models.Session
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&session).Error
	if err != nil {
		return nil, err
	}
	return &session, nil
}

// Touch records a heartbeat; false means the session no longer exists
func (r *sessionRepository) Touch(ctx context.Context, id string, at time.Time) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&models.Session{}).
		Where("id = ?", id).
		Update("last_active", at)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// List returns every open session, newest login first
func (r *sessionRepository) List(ctx context.Context) ([]*models.Session, error) {
	var sessions []*models.Session
	err := r.db.WithContext(ctx).Order("login_time DESC").Find(&sessions).Error
	if err != nil {
		return nil, err
	}
	return sessions, nil
}

// Delete removes one session
func (r *sessionRepository) Delete(ctx context.Context, id string) (int64, error) {
	result := r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Session{})
	return result.RowsAffected, result.Error
}

// DeleteAll removes every session system-wide
func (r *sessionRepository) DeleteAll(ctx context.Context) (int64, error) {
	result := r.db.WithContext(ctx).
		Session(&gorm.Session{AllowGlobalUpdate: true}).
		Delete(&models.Session{})
	return result.RowsAffected, result.Error
}

// DeleteAllExcept removes every session but keepID
func (r *sessionRepository) DeleteAllExcept(ctx context.Context, keepID string) (int64, error) {
	result := r.db.WithContext(ctx).Where("id <> ?", keepID).Delete(&models.Session{})
	return result.RowsAffected, result.Error
}

// DeleteInactiveSince removes sessions with no heartbeat after cutoff
func (r *sessionRepository) DeleteInactiveSince(ctx context.Context, cutoff time.Time) (int64, error) {
	result := r.db.WithContext(ctx).Where("last_active < ?", cutoff).Delete(&models.Session{})
	return result.RowsAffected, result.Error
}
