package domain

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// MemberTab is a list filter on the members screen
type MemberTab string

const (
	TabAll      MemberTab = "ALL"
	TabActive   MemberTab = "ACTIVE"
	TabInactive MemberTab = "INACTIVE"
	Tab7Days    MemberTab = "7DAYS"
	Tab15Days   MemberTab = "15DAYS"
)

// MemberTabs lists every tab in display order
var MemberTabs = []MemberTab{TabAll, TabActive, Tab7Days, Tab15Days, TabInactive}

// ParseMemberTab accepts a tab name (case-insensitive); empty means ALL
func ParseMemberTab(s string) (MemberTab, error) {
	if strings.TrimSpace(s) == "" {
		return TabAll, nil
	}
	tab := MemberTab(strings.ToUpper(strings.TrimSpace(s)))
	for _, t := range MemberTabs {
		if t == tab {
			return t, nil
		}
	}
	return "", NewValidationError("tab", fmt.Sprintf("unknown tab %q", s))
}

// RemainingDays is the number of calendar days from today until expiry.
// Same-day expiry is 0; negative means expired.
func RemainingDays(m Member, today time.Time) int {
	return DaysBetween(DateOf(today), StoredDate(m.ExpiryDate))
}

// Status is ACTIVE iff RemainingDays >= 0
func Status(m Member, today time.Time) MemberStatus {
	if RemainingDays(m, today) >= 0 {
		return StatusActive
	}
	return StatusExpired
}

// PendingBalance is fee minus paid, negative when over-paid
func PendingBalance(m Member) float64 {
	return m.TotalFee - m.TotalPaid
}

// InTab reports whether m belongs on tab
func InTab(m Member, tab MemberTab, today time.Time) bool {
	days := RemainingDays(m, today)
	switch tab {
	case TabActive:
		return days >= 0
	case TabInactive:
		return days < 0
	case Tab7Days:
		return days >= 0 && days <= 7
	case Tab15Days:
		return days > 7 && days <= 15
	}
	return true
}

// MatchesSearch is a case-insensitive name match or a raw phone substring
func MatchesSearch(m Member, query string) bool {
	q := strings.TrimSpace(query)
	if q == "" {
		return true
	}
	return strings.Contains(strings.ToLower(m.FullName), strings.ToLower(q)) ||
		strings.Contains(m.PhoneNumber, q)
}

// Segment filters members by tab AND search text, preserving order
func Segment(members []Member, tab MemberTab, query string, today time.Time) []Member {
	out := make([]Member, 0, len(members))
	for _, m := range members {
		if InTab(m, tab, today) && MatchesSearch(m, query) {
			out = append(out, m)
		}
	}
	return out
}

// TabCounts counts members per tab (search not applied)
func TabCounts(members []Member, today time.Time) map[MemberTab]int {
	counts := make(map[MemberTab]int, len(MemberTabs))
	for _, tab := range MemberTabs {
		counts[tab] = 0
	}
	for _, m := range members {
		for _, tab := range MemberTabs {
			if InTab(m, tab, today) {
				counts[tab]++
			}
		}
	}
	return counts
}

// ExpiryFor computes joining + package duration
func ExpiryFor(joining time.Time, pkg Package) time.Time {
	return AddDays(joining, pkg.DurationDays)
}

// MemberForm is the raw enrollment / edit form
type MemberForm struct {
	FullName        string          `json:"full_name"`
	PhoneNumber     string          `json:"phone_number"`
	Email           string          `json:"email"`
	MembershipType  MembershipType  `json:"membership_type"`
	ServiceCategory ServiceCategory `json:"service_category"`
	PackageID       string          `json:"package_id"`
	JoiningDate     string          `json:"joining_date"`
	Birthdate       string          `json:"birthdate"`
	Gender          Gender          `json:"gender"`
	PaymentReceived string          `json:"payment_received"`
}

// ValidForm is a form that passed validation, with its package resolved
type ValidForm struct {
	FullName        string
	Phone           string // canonical
	Email           string
	MembershipType  MembershipType
	ServiceCategory ServiceCategory
	Package         Package
	JoiningDate     time.Time
	Birthdate       *time.Time
	Gender          Gender
	Paid            float64
}

// Validate checks every field and resolves the package. The first failing
// field is returned as a *ValidationError.
func (f MemberForm) Validate(countryPrefix string) (ValidForm, error) {
	var v ValidForm

	name := strings.TrimSpace(f.FullName)
	if name == "" {
		return v, NewValidationError("full_name", "Full name is required")
	}
	for _, r := range name {
		if !(r == ' ' || r == '\t' || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')) {
			return v, NewValidationError("full_name", "Enter valid name (Letters only)")
		}
	}

	local, err := NormalizePhone(f.PhoneNumber, countryPrefix)
	if err != nil {
		return v, err
	}

	paid, err := parseAmount(f.PaymentReceived)
	if err != nil {
		return v, err
	}

	mt := f.MembershipType
	if mt == "" {
		mt = MembershipSingle
	}
	if !mt.Valid() {
		return v, NewValidationError("membership_type", "Unknown membership type")
	}
	cat := f.ServiceCategory
	if cat == "" {
		cat = CategoryGym
	}
	if !cat.Valid() {
		return v, NewValidationError("service_category", "Unknown service category")
	}
	pkg, ok := ResolvePackage(f.PackageID, cat, mt)
	if !ok {
		return v, NewValidationError("package_id", "No package available for this selection")
	}

	joining, err := ParseDate(f.JoiningDate)
	if err != nil {
		return v, NewValidationError("joining_date", "Joining date must be YYYY-MM-DD")
	}

	var birthdate *time.Time
	if strings.TrimSpace(f.Birthdate) != "" {
		b, err := ParseDate(f.Birthdate)
		if err != nil {
			return v, NewValidationError("birthdate", "Birthdate must be YYYY-MM-DD")
		}
		birthdate = &b
	}

	gender := Gender(strings.ToUpper(strings.TrimSpace(string(f.Gender))))
	if !gender.Valid() {
		return v, NewValidationError("gender", "Unknown gender")
	}

	return ValidForm{
		FullName:        name,
		Phone:           CanonicalPhone(countryPrefix, local),
		Email:           strings.TrimSpace(f.Email),
		MembershipType:  mt,
		ServiceCategory: cat,
		Package:         pkg,
		JoiningDate:     joining,
		Birthdate:       birthdate,
		Gender:          gender,
		Paid:            paid,
	}, nil
}

func parseAmount(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, NewValidationError("payment_received", "Paid amount must be a valid number")
	}
	if v < 0 {
		return 0, NewValidationError("payment_received", "Paid amount cannot be less than 0")
	}
	return v, nil
}

// NewMember builds a freshly enrolled member. The fee is a snapshot of the
// package price at this instant.
func NewMember(id string, v ValidForm, now time.Time) Member {
	return Member{
		ID:              id,
		FullName:        v.FullName,
		PhoneNumber:     v.Phone,
		Email:           v.Email,
		MembershipType:  v.MembershipType,
		ServiceCategory: v.ServiceCategory,
		PackageID:       v.Package.ID,
		JoiningDate:     v.JoiningDate,
		ExpiryDate:      ExpiryFor(v.JoiningDate, v.Package),
		Birthdate:       v.Birthdate,
		Gender:          v.Gender,
		TotalFee:        float64(v.Package.Price),
		TotalPaid:       v.Paid,
		UpdatedAt:       now,
	}
}

// ApplyForm rewrites every editable field of an existing member, keeping
// its id and message counters, and recomputing expiry.
func ApplyForm(existing Member, v ValidForm, now time.Time) Member {
	m := NewMember(existing.ID, v, now)
	m.WelcomeSent = existing.WelcomeSent
	m.ReminderCount = existing.ReminderCount
	return m
}

// MemberDiff is the human-readable before/after of an update
type MemberDiff struct {
	Old string
	New string
}

// DiffMembers describes changes to name, paid amount, category, membership
// type and package.
func DiffMembers(before, after Member) MemberDiff {
	var olds, news []string
	if before.FullName != after.FullName {
		olds = append(olds, "Name: "+before.FullName)
		news = append(news, "Name: "+after.FullName)
	}
	if before.TotalPaid != after.TotalPaid {
		olds = append(olds, "Paid: ₹"+FormatAmount(before.TotalPaid))
		news = append(news, "Paid: ₹"+FormatAmount(after.TotalPaid))
	}
	if before.ServiceCategory != after.ServiceCategory {
		olds = append(olds, "Cat: "+string(before.ServiceCategory))
		news = append(news, "Cat: "+string(after.ServiceCategory))
	}
	if before.MembershipType != after.MembershipType {
		olds = append(olds, "Type: "+string(before.MembershipType))
		news = append(news, "Type: "+string(after.MembershipType))
	}
	if before.PackageID != after.PackageID {
		olds = append(olds, "Plan: "+PackageName(before.PackageID))
		news = append(news, "Plan: "+PackageName(after.PackageID))
	}

	d := MemberDiff{Old: strings.Join(olds, ", "), New: strings.Join(news, ", ")}
	if d.Old == "" {
		d.Old = "No critical changes"
	}
	if d.New == "" {
		d.New = "Record synchronized"
	}
	return d
}

// FormatAmount prints whole amounts without decimals
func FormatAmount(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
