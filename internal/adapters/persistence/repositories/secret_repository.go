package repositories

import (
	"context"

	"cagedesk/internal/adapters/persistence/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// secretRepository implements SecretRepository interface
type secretRepository struct {
	db *gorm.DB
}

// NewSecretRepository creates a new secret repository
func NewSecretRepository(db *gorm.DB) SecretRepository {
	return &secretRepository{db: db}
}

// Get gets a key row
func (r *secretRepository) Get(ctx context.Context, key string) (*models.MasterKeyStorage, error) {
	var row models.MasterKeyStorage
	err := r.db.WithContext(ctx).Where(clause.Eq{Column: clause.Column{Name: "key"}, Value: key}).First(&row).Error
	if err != nil {
		return nil, err
	}
	return &row, nil
}

// Save upserts a key row
func (r *secretRepository) Save(ctx context.Context, row *models.MasterKeyStorage) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "key"}},
			DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
		}).
		Create(row).Error
}

// Ensure inserts row only if its key is missing
func (r *secretRepository) Ensure(ctx context.Context, row *models.MasterKeyStorage) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(row).Error
}
