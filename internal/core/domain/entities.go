package domain

import "time"

// ServiceCategory is the discipline a package or member belongs to
type ServiceCategory string

const (
	CategoryGym ServiceCategory = "GYM"
	CategoryMMA ServiceCategory = "MMA"
)

// Valid reports whether c is a known category
func (c ServiceCategory) Valid() bool {
	return c == CategoryGym || c == CategoryMMA
}

// MembershipType distinguishes single from couple memberships
type MembershipType string

const (
	MembershipSingle MembershipType = "SINGLE"
	MembershipCouple MembershipType = "COUPLE"
)

// Valid reports whether t is a known membership type
func (t MembershipType) Valid() bool {
	return t == MembershipSingle || t == MembershipCouple
}

// Gender of a member (optional)
type Gender string

const (
	GenderMale   Gender = "MALE"
	GenderFemale Gender = "FEMALE"
	GenderOther  Gender = "OTHER"
)

// Valid reports whether g is empty or a known gender
func (g Gender) Valid() bool {
	switch g {
	case "", GenderMale, GenderFemale, GenderOther:
		return true
	}
	return false
}

// MemberStatus is derived from the expiry date, never stored
type MemberStatus string

const (
	StatusActive  MemberStatus = "ACTIVE"
	StatusExpired MemberStatus = "EXPIRED"
)

// Package represents a catalog membership package (immutable)
type Package struct {
	ID           string          `json:"id"`
	Name         string          `json:"name"`
	Category     ServiceCategory `json:"category"`
	Price        int64           `json:"price"`
	CoupleOnly   bool            `json:"couple_only"`
	DurationDays int             `json:"duration_days"`
}

// Member represents a paying customer of the gym
//
// JoiningDate, ExpiryDate and Birthdate are calendar days stored as UTC midnight.
type Member struct {
	ID              string          `json:"id"`
	FullName        string          `json:"full_name"`
	PhoneNumber     string          `json:"phone_number"` // canonical, country-prefixed
	Email           string          `json:"email,omitempty"`
	MembershipType  MembershipType  `json:"membership_type"`
	ServiceCategory ServiceCategory `json:"service_category"`
	PackageID       string          `json:"package_id"`
	JoiningDate     time.Time       `json:"joining_date"`
	ExpiryDate      time.Time       `json:"expiry_date"`
	Birthdate       *time.Time      `json:"birthdate,omitempty"`
	Gender          Gender          `json:"gender,omitempty"`
	TotalFee        float64         `json:"total_fee"`
	TotalPaid       float64         `json:"total_paid"`
	WelcomeSent     bool            `json:"welcome_sent"`
	ReminderCount   int             `json:"reminder_count"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

// Staff represents an operator allowed to use the console
type Staff struct {
	Phone string `json:"phone"` // canonical
	Name  string `json:"name"`
}

// Session represents one login of a staff member on one device
type Session struct {
	ID         string    `json:"id"`
	UserPhone  string    `json:"user_phone"`
	UserName   string    `json:"user_name"`
	DeviceType string    `json:"device_type"`
	DeviceID   string    `json:"device_id"`
	IPAddress  string    `json:"ip_address"`
	LoginTime  time.Time `json:"login_time"`
	LastActive time.Time `json:"last_active"`
}

// DeviceBinding ties a staff phone to exactly one device fingerprint.
// DeviceHash is a bcrypt digest of the fingerprint, never the raw value.
type DeviceBinding struct {
	UserPhone  string    `json:"user_phone"`
	DeviceHash string    `json:"-"`
	IPAddress  string    `json:"ip_address"`
	CreatedAt  time.Time `json:"created_at"`
}

// LogEntry represents an append-only audit record
type LogEntry struct {
	ID         string    `json:"id"`
	UserPhone  string    `json:"user_phone"`
	UserName   string    `json:"user_name"`
	MemberID   string    `json:"member_id,omitempty"`
	MemberName string    `json:"member_name,omitempty"`
	Action     Action    `json:"action"`
	Details    string    `json:"details"`
	OldValue   string    `json:"old_value,omitempty"`
	NewValue   string    `json:"new_value,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
}

// SharedSecret is the rotating login passphrase row
type SharedSecret struct {
	Key       string
	Value     string
	UpdatedAt time.Time
}

// Action is the closed set of audit log tags
type Action string

const (
	ActionLogin            Action = "LOGIN"
	ActionSecureLogin      Action = "SECURE_LOGIN"
	ActionMonitoredLogin   Action = "MONITORED_LOGIN"
	ActionLogout           Action = "LOGOUT"
	ActionMonitoredLogout  Action = "MONITORED_LOGOUT"
	ActionMemberEnroll     Action = "MEMBER_ENROLL"
	ActionMemberUpdate     Action = "MEMBER_UPDATE"
	ActionMonitoredUpdate  Action = "MONITORED_UPDATE"
	ActionWelcomeSent      Action = "WELCOME_SENT"
	ActionExpiryReminder   Action = "EXPIRY_REMINDER"
	ActionPendingReminder  Action = "PENDING_REMINDER"
	ActionBirthdayWish     Action = "BIRTHDAY_WISH"
	ActionAdminForceLogout Action = "ADMIN_FORCE_LOGOUT"
	ActionAdminLogoutAll   Action = "ADMIN_LOGOUT_ALL"
	ActionDeviceUnbind     Action = "DEVICE_UNBIND"
	ActionAdminRebind      Action = "ADMIN_REBIND"
)
