package services

import (
	"math"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"cagedesk/internal/core/domain"
)

// Messages renders the member-facing chat texts
type Messages struct {
	Gym     string
	printer *message.Printer
}

// NewMessages creates a renderer signing messages with gym
func NewMessages(gym string) *Messages {
	return &Messages{
		Gym:     gym,
		printer: message.NewPrinter(language.MustParse("en-IN")),
	}
}

// Rupees formats an amount with Indian digit grouping
func (t *Messages) Rupees(v float64) string {
	if v == math.Trunc(v) {
		return t.printer.Sprintf("%d", int64(v))
	}
	return t.printer.Sprintf("%.2f", v)
}

// Welcome is sent once per member, by the master identity
func (t *Messages) Welcome(m domain.Member, staff string) string {
	return t.printer.Sprintf(`Hello %s,

Greetings from %s.

My name is %s, and I am contacting you on behalf of our management team. We are delighted to welcome you to our fitness community and look forward to supporting you on your journey toward your health and performance goals.

**Membership Details**
• Name: %s
• Plan: %s (%s)
• Joining Date: %s
• Expiry Date: %s

**Payment Information**
• Fees Paid: ₹%s
• Pending Fees: ₹%s

**Enrolled By**
• Representative: %s

We are committed to providing a safe, professional, and motivating environment. If you have any questions or require assistance, please do not hesitate to contact our front desk.

Warm regards,
%s
%s`,
		m.FullName,
		t.Gym,
		staff,
		m.FullName,
		string(m.ServiceCategory), packageLabel(m.PackageID),
		m.JoiningDate.Format(domain.DisplayDateLayout),
		m.ExpiryDate.Format(domain.DisplayDateLayout),
		t.Rupees(m.TotalPaid),
		t.Rupees(domain.PendingBalance(m)),
		staff,
		staff,
		t.Gym,
	)
}

// Expiry nudges a member days before the membership ends
func (t *Messages) Expiry(m domain.Member, days int, staff string) string {
	return t.printer.Sprintf(`Hello %s,

I am %s, representing %s. This is a courtesy reminder that your membership is set to expire in *%d* days, on *%s*. Please visit the front desk to complete your renewal at your earliest convenience.

Thank you for being a valued member.

Sincerely,
%s
%s`,
		m.FullName,
		staff, t.Gym,
		days, m.ExpiryDate.Format(domain.DisplayDateLayout),
		staff,
		t.Gym,
	)
}

// Pending asks a member to settle the outstanding fee
func (t *Messages) Pending(m domain.Member, staff string) string {
	return t.printer.Sprintf(`Hello %s,

This is a reminder from %s regarding your outstanding membership fee of *₹%s*. Please settle the balance at your earliest convenience.

Thanks,
%s
%s`,
		m.FullName,
		t.Gym, t.Rupees(domain.PendingBalance(m)),
		staff,
		t.Gym,
	)
}

// Birthday is signed by the management team
func (t *Messages) Birthday(m domain.Member) string {
	return t.printer.Sprintf(`Dear %s,

Warmest birthday wishes from everyone at %s. We celebrate your commitment to health and fitness and wish you a year ahead filled with strength, good health, success, and prosperity.

It is our privilege to have you as a valued member of our community.

Best regards,
The Management Team
%s`,
		m.FullName,
		t.Gym,
		t.Gym,
	)
}

func packageLabel(id string) string {
	if _, ok := domain.FindPackage(id); !ok {
		return "Custom"
	}
	return domain.PackageName(id)
}
