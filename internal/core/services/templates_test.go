package services

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"cagedesk/internal/core/domain"
)

func TestRupees(t *testing.T) {
	msg := NewMessages("Gym")
	assert.Equal(t, "500", msg.Rupees(500))
	assert.Equal(t, "38,000", msg.Rupees(38000))
	assert.Equal(t, "-250", msg.Rupees(-250))
}

func TestTemplatesSignWithStaffAndGym(t *testing.T) {
	msg := NewMessages("The Cage MMA Gym & RS Fitness Academy")
	m := domain.Member{
		FullName:        "Asha Patil",
		ServiceCategory: domain.CategoryMMA,
		PackageID:       "mma-3",
		JoiningDate:     day(t, "2024-01-10"),
		ExpiryDate:      day(t, "2024-04-09"),
		TotalFee:        7500,
		TotalPaid:       5000,
	}

	welcome := msg.Welcome(m, "Vishwajeet Bhangare")
	assert.True(t, strings.HasPrefix(welcome, "Hello Asha Patil,"))
	assert.Contains(t, welcome, "• Plan: MMA (3 Months)")
	assert.Contains(t, welcome, "• Pending Fees: ₹2,500")
	assert.True(t, strings.HasSuffix(welcome, "Warm regards,\nVishwajeet Bhangare\nThe Cage MMA Gym & RS Fitness Academy"))

	expiry := msg.Expiry(m, 3, "Shrikant Sathe")
	assert.Contains(t, expiry, "I am Shrikant Sathe, representing The Cage MMA Gym & RS Fitness Academy.")
	assert.Contains(t, expiry, "expire in *3* days, on *09/04/2024*")
	assert.True(t, strings.HasSuffix(expiry, "Sincerely,\nShrikant Sathe\nThe Cage MMA Gym & RS Fitness Academy"))

	pending := msg.Pending(m, "Shrikant Sathe")
	assert.Contains(t, pending, "*₹2,500*")
	assert.True(t, strings.HasSuffix(pending, "Thanks,\nShrikant Sathe\nThe Cage MMA Gym & RS Fitness Academy"))

	birthday := msg.Birthday(m)
	assert.True(t, strings.HasPrefix(birthday, "Dear Asha Patil,"))
	assert.Contains(t, birthday, "Warmest birthday wishes from everyone at The Cage MMA Gym & RS Fitness Academy.")

	m.PackageID = "retired-plan"
	assert.Contains(t, msg.Welcome(m, "V"), "• Plan: MMA (Custom)")
}

func day(t *testing.T, s string) time.Time {
	t.Helper()
	d, err := domain.ParseDate(s)
	if err != nil {
		t.Fatal(err)
	}
	return d
}
