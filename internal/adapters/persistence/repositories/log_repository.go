package repositories

import (
	"context"

	"cagedesk/internal/adapters/persistence/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// newestFirst quotes the column; timestamp is a keyword in some dialects
var newestFirst = clause.OrderByColumn{Column: clause.Column{Name: "timestamp"}, Desc: true}

// logRepository implements LogRepository interface
type logRepository struct {
	db *gorm.DB
}

// NewLogRepository creates a new log repository
func NewLogRepository(db *gorm.DB) LogRepository {
	return &logRepository{db: db}
}

// Create appends a log entry
func (r *logRepository) Create(ctx context.Context, entry *models.Log) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

// Latest returns the newest entries first
func (r *logRepository) Latest(ctx context.Context, limit int) ([]*models.Log, error) {
	var logs []*models.Log
	err := r.db.WithContext(ctx).
		Order(newestFirst).
		Limit(limit).
		Find(&logs).Error
	if err != nil {
		return nil, err
	}
	return logs, nil
}

// List lists log entries with pagination, newest first
func (r *logRepository) List(ctx context.Context, offset, limit int) ([]*models.Log, int64, error) {
	var logs []*models.Log
	var total int64

	if err := r.db.WithContext(ctx).Model(&models.Log{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := r.db.WithContext(ctx).
		Order(newestFirst).
		Offset(offset).
		Limit(limit).
		Find(&logs).Error
	if err != nil {
		return nil, 0, err
	}

	return logs, total, nil
}
