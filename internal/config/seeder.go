package config

import (
	"log"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"cagedesk/internal/adapters/persistence/models"
	"cagedesk/internal/core/domain"
)

// Seeder handles database seeding
type Seeder struct {
	db  *gorm.DB
	cfg *Config
	now func() time.Time
}

// NewSeeder creates a new seeder instance
func NewSeeder(db *gorm.DB, cfg *Config) *Seeder {
	return &Seeder{db: db, cfg: cfg, now: time.Now}
}

// Run executes all seeders
func (s *Seeder) Run() error {
	if !s.cfg.SeedDemo {
		return nil
	}
	log.Println("🌱 Running database seeders...")

	if err := s.seedDemoMembers(); err != nil {
		log.Printf("⚠️ Demo member seeder skipped: %v", err)
	}

	log.Println("✅ Database seeding completed")
	return nil
}

// demoForms cover every worklist: due this week, due in two weeks,
// expired, pending balance and a birthday today
func (s *Seeder) demoForms() []domain.MemberForm {
	today := domain.DateOf(s.now().In(s.cfg.Gym.Location))
	date := func(offset int) string { return domain.AddDays(today, offset).Format(domain.DateLayout) }
	birthday := time.Date(1995, today.Month(), today.Day(), 0, 0, 0, 0, time.UTC).Format(domain.DateLayout)

	return []domain.MemberForm{
		{FullName: "Asha Patil", PhoneNumber: "9876543210", MembershipType: domain.MembershipSingle,
			ServiceCategory: domain.CategoryGym, PackageID: "gym-1", JoiningDate: date(-25), PaymentReceived: "1500"},
		{FullName: "Rohan Kulkarni", PhoneNumber: "9876501234", MembershipType: domain.MembershipSingle,
			ServiceCategory: domain.CategoryMMA, PackageID: "mma-1", JoiningDate: date(-18), PaymentReceived: "2000"},
		{FullName: "Meera Joshi", PhoneNumber: "9822012345", MembershipType: domain.MembershipCouple,
			ServiceCategory: domain.CategoryGym, PackageID: "gym-12-2-c", JoiningDate: date(-40), PaymentReceived: "14000",
			Birthdate: birthday, Gender: domain.GenderFemale},
		{FullName: "Kunal Deshmukh", PhoneNumber: "9890098900", MembershipType: domain.MembershipSingle,
			ServiceCategory: domain.CategoryGym, PackageID: "gym-3", JoiningDate: date(-120), PaymentReceived: "3500"},
	}
}

// seedDemoMembers fills an empty members table in development
func (s *Seeder) seedDemoMembers() error {
	var count int64
	if err := s.db.Model(&models.Member{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	for _, form := range s.demoForms() {
		v, err := form.Validate(s.cfg.Gym.CountryPrefix)
		if err != nil {
			return err
		}
		m := domain.NewMember(uuid.NewString(), v, s.now().UTC())
		if err := s.db.Create(models.MemberFromDomain(m)).Error; err != nil {
			return err
		}
		log.Printf("🌱 Demo member created: %s (%s)", m.FullName, m.PackageID)
	}
	return nil
}
