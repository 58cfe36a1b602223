package models

import (
	"time"

	"gorm.io/gorm"

	"cagedesk/internal/core/domain"
)

// ============================================================
// Member ledger
// ============================================================

// Member represents members table
type Member struct {
	ID              string     `gorm:"primaryKey;size:36" json:"id"`
	FullName        string     `gorm:"size:120;not null" json:"full_name"`
	PhoneNumber     string     `gorm:"size:20;not null;index" json:"phone_number"`
	Email           string     `gorm:"size:120" json:"email"`
	MembershipType  string     `gorm:"size:10;not null" json:"membership_type"`
	ServiceCategory string     `gorm:"size:10;not null" json:"service_category"`
	PackageID       string     `gorm:"size:30;not null" json:"package_id"`
	JoiningDate     time.Time  `gorm:"type:date;not null" json:"joining_date"`
	ExpiryDate      time.Time  `gorm:"type:date;not null;index" json:"expiry_date"`
	Birthdate       *time.Time `gorm:"type:date" json:"birthdate"`
	Gender          string     `gorm:"size:10" json:"gender"`
	TotalFee        float64    `gorm:"not null;default:0" json:"total_fee"`
	TotalPaid       float64    `gorm:"not null;default:0" json:"total_paid"`
	WelcomeSent     bool       `gorm:"not null;default:false" json:"welcome_sent"`
	ReminderCount   int        `gorm:"not null;default:0" json:"reminder_count"`
	UpdatedAt       time.Time  `gorm:"autoUpdateTime;index" json:"updated_at"`
}

func (Member) TableName() string {
	return "members"
}

// ToDomain converts the row to a domain member
func (m *Member) ToDomain() domain.Member {
	return domain.Member{
		ID:              m.ID,
		FullName:        m.FullName,
		PhoneNumber:     m.PhoneNumber,
		Email:           m.Email,
		MembershipType:  domain.MembershipType(m.MembershipType),
		ServiceCategory: domain.ServiceCategory(m.ServiceCategory),
		PackageID:       m.PackageID,
		JoiningDate:     domain.StoredDate(m.JoiningDate),
		ExpiryDate:      domain.StoredDate(m.ExpiryDate),
		Birthdate:       storedDatePtr(m.Birthdate),
		Gender:          domain.Gender(m.Gender),
		TotalFee:        m.TotalFee,
		TotalPaid:       m.TotalPaid,
		WelcomeSent:     m.WelcomeSent,
		ReminderCount:   m.ReminderCount,
		UpdatedAt:       m.UpdatedAt,
	}
}

// MemberFromDomain builds a row from a domain member
func MemberFromDomain(d domain.Member) *Member {
	return &Member{
		ID:              d.ID,
		FullName:        d.FullName,
		PhoneNumber:     d.PhoneNumber,
		Email:           d.Email,
		MembershipType:  string(d.MembershipType),
		ServiceCategory: string(d.ServiceCategory),
		PackageID:       d.PackageID,
		JoiningDate:     d.JoiningDate,
		ExpiryDate:      d.ExpiryDate,
		Birthdate:       d.Birthdate,
		Gender:          string(d.Gender),
		TotalFee:        d.TotalFee,
		TotalPaid:       d.TotalPaid,
		WelcomeSent:     d.WelcomeSent,
		ReminderCount:   d.ReminderCount,
		UpdatedAt:       d.UpdatedAt,
	}
}

func storedDatePtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	d := domain.StoredDate(*t)
	return &d
}

// ============================================================
// Audit log
// ============================================================

// Log represents logs table (append only)
type Log struct {
	ID         string    `gorm:"primaryKey;size:36" json:"id"`
	UserPhone  string    `gorm:"size:20;not null;index" json:"user_phone"`
	UserName   string    `gorm:"size:120" json:"user_name"`
	MemberID   string    `gorm:"size:36;index" json:"member_id"`
	MemberName string    `gorm:"size:120" json:"member_name"`
	Action     string    `gorm:"size:40;not null;index" json:"action"`
	Details    string    `gorm:"type:text" json:"details"`
	OldValue   string    `gorm:"type:text" json:"old_value"`
	NewValue   string    `gorm:"type:text" json:"new_value"`
	Timestamp  time.Time `gorm:"not null;index" json:"timestamp"`
}

func (Log) TableName() string {
	return "logs"
}

func (l *Log) ToDomain() domain.LogEntry {
	return domain.LogEntry{
		ID:         l.ID,
		UserPhone:  l.UserPhone,
		UserName:   l.UserName,
		MemberID:   l.MemberID,
		MemberName: l.MemberName,
		Action:     domain.Action(l.Action),
		Details:    l.Details,
		OldValue:   l.OldValue,
		NewValue:   l.NewValue,
		Timestamp:  l.Timestamp,
	}
}

func LogFromDomain(d domain.LogEntry) *Log {
	return &Log{
		ID:         d.ID,
		UserPhone:  d.UserPhone,
		UserName:   d.UserName,
		MemberID:   d.MemberID,
		MemberName: d.MemberName,
		Action:     string(d.Action),
		Details:    d.Details,
		OldValue:   d.OldValue,
		NewValue:   d.NewValue,
		Timestamp:  d.Timestamp,
	}
}

// ============================================================
// Sessions & device bindings
// ============================================================

// Session represents sessions table
type Session struct {
	ID         string    `gorm:"primaryKey;size:36" json:"id"`
	UserPhone  string    `gorm:"size:20;not null;index" json:"user_phone"`
	UserName   string    `gorm:"size:120" json:"user_name"`
	DeviceType string    `gorm:"size:20" json:"device_type"`
	DeviceID   string    `gorm:"size:40" json:"device_id"`
	IPAddress  string    `gorm:"size:64" json:"ip_address"`
	LoginTime  time.Time `gorm:"not null" json:"login_time"`
	LastActive time.Time `gorm:"not null;index" json:"last_active"`
}

func (Session) TableName() string {
	return "sessions"
}

func (s *Session) ToDomain() domain.Session {
	return domain.Session{
		ID:         s.ID,
		UserPhone:  s.UserPhone,
		UserName:   s.UserName,
		DeviceType: s.DeviceType,
		DeviceID:   s.DeviceID,
		IPAddress:  s.IPAddress,
		LoginTime:  s.LoginTime,
		LastActive: s.LastActive,
	}
}

func SessionFromDomain(d domain.Session) *Session {
	return &Session{
		ID:         d.ID,
		UserPhone:  d.UserPhone,
		UserName:   d.UserName,
		DeviceType: d.DeviceType,
		DeviceID:   d.DeviceID,
		IPAddress:  d.IPAddress,
		LoginTime:  d.LoginTime,
		LastActive: d.LastActive,
	}
}

// AuthorizedDevice represents authorized_devices table.
// DeviceID holds a bcrypt hash of the console fingerprint.
type AuthorizedDevice struct {
	UserPhone string    `gorm:"primaryKey;size:20" json:"user_phone"`
	DeviceID  string    `gorm:"size:100;not null" json:"-"`
	IPAddress string    `gorm:"size:64" json:"ip_address"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (AuthorizedDevice) TableName() string {
	return "authorized_devices"
}

func (a *AuthorizedDevice) ToDomain() domain.DeviceBinding {
	return domain.DeviceBinding{
		UserPhone:  a.UserPhone,
		DeviceHash: a.DeviceID,
		IPAddress:  a.IPAddress,
		CreatedAt:  a.CreatedAt,
	}
}

// ============================================================
// Rotating secret
// ============================================================

// MasterKeyStorage represents master_key_storage table
type MasterKeyStorage struct {
	Key       string    `gorm:"column:key;primaryKey;size:40" json:"key"`
	Value     string    `gorm:"size:40;not null" json:"-"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (MasterKeyStorage) TableName() string {
	return "master_key_storage"
}

func (k *MasterKeyStorage) ToDomain() domain.SharedSecret {
	return domain.SharedSecret{Key: k.Key, Value: k.Value, UpdatedAt: k.UpdatedAt}
}

// SecretKey names the single row holding the login secret
const SecretKey = "master_key"

// AutoMigrate creates or updates every table
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&Member{},
		&Log{},
		&Session{},
		&AuthorizedDevice{},
		&MasterKeyStorage{},
	)
}
