package repositories

import (
	"context"

	"cagedesk/internal/adapters/persistence/models"

	"gorm.io/gorm"
)

// deviceRepository implements DeviceRepository interface
type deviceRepository struct {
	db *gorm.DB
}

// NewDeviceRepository creates a new device binding repository
func NewDeviceRepository(db *gorm.DB) DeviceRepository {
	return &deviceRepository{db: db}
}

// GetByPhone gets the binding for a staff phone
func (r *deviceRepository) GetByPhone(ctx context.Context, phone string) (*models.AuthorizedDevice, error) {
	var device models.AuthorizedDevice
	err := r.db.WithContext(ctx).Where("user_phone = ?", phone).First(&device).Error
	if err != nil {
		return nil, err
	}
	return &device, nil
}

// Create binds a phone; fails if the phone is already bound
func (r *deviceRepository) Create(ctx context.Context, device *models.AuthorizedDevice) error {
	return r.db.WithContext(ctx).Create(device).Error
}

// Rebind overwrites the bound device of a phone
func (r *deviceRepository) Rebind(ctx context.Context, phone, deviceHash, ip string) error {
	result := r.db.WithContext(ctx).
		Model(&models.AuthorizedDevice{}).
		Where("user_phone = ?", phone).
		Updates(map[string]interface{}{
			"device_id":  deviceHash,
			"ip_address": ip,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// Delete unbinds a phone
func (r *deviceRepository) Delete(ctx context.Context, phone string) (int64, error) {
	result := r.db.WithContext(ctx).Where("user_phone = ?", phone).Delete(&models.AuthorizedDevice{})
	return result.RowsAffected, result.Error
}

// List returns every binding, oldest first
func (r *deviceRepository) List(ctx context.Context) ([]*models.AuthorizedDevice, error) {
	var devices []*models.AuthorizedDevice
	err := r.db.WithContext(ctx).Order("created_at ASC").Find(&devices).Error
	if err != nil {
		return nil, err
	}
	return devices, nil
}
