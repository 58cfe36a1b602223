package repositories

import (
	"context"

	"cagedesk/internal/adapters/persistence/models"

	"gorm.io/gorm"
)

// editableColumns are rewritten on update. Message counters are not:
// they move only through MarkWelcomeSent and IncrementReminderCount.
var editableColumns = []string{
	"full_name", "phone_number", "email", "membership_type", "service_category",
	"package_id", "joining_date", "expiry_date", "birthdate", "gender",
	"total_fee", "total_paid", "updated_at",
}

// memberRepository implements MemberRepository interface
type memberRepository struct {
	db *gorm.DB
}

// NewMemberRepository creates a new member repository
func NewMemberRepository(db *gorm.DB) MemberRepository {
	return &memberRepository{db: db}
}

// List returns every member, most recently changed first
func (r *memberRepository) List(ctx context.Context) ([]*models.Member, error) {
	var members []*models.Member
	err := r.db.WithContext(ctx).Order("updated_at DESC").Find(&members).Error
	if err != nil {
		return nil, err
	}
	return members, nil
}

// GetByID gets a member by ID
func (r *memberRepository) GetByID(ctx context.Context, id string) (*models.Member, error) {
	var member models.Member
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&member).Error
	if err != nil {
		return nil, err
	}
	return &member, nil
}

// Create inserts a member; counters take their column defaults
func (r *memberRepository) Create(ctx context.Context, member *models.Member) error {
	return r.db.WithContext(ctx).Omit("WelcomeSent", "ReminderCount").Create(member).Error
}

// Update rewrites the editable columns of a member
func (r *memberRepository) Update(ctx context.Context, member *models.Member) error {
	result := r.db.WithContext(ctx).
		Model(&models.Member{ID: member.ID}).
		Select(editableColumns).
		Updates(member)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// MarkWelcomeSent sets welcome_sent exactly once
func (r *memberRepository) MarkWelcomeSent(ctx context.Context, id string) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&models.Member{}).
		Where("id = ?", id).
		Where("welcome_sent = ?", false).
		Update("welcome_sent", true)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

// IncrementReminderCount adds one to reminder_count in the store
func (r *memberRepository) IncrementReminderCount(ctx context.Context, id string) error {
	result := r.db.WithContext(ctx).
		Model(&models.Member{}).
		Where("id = ?", id).
		UpdateColumn("reminder_count", gorm.Expr("reminder_count + ?", 1))
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
