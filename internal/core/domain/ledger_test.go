package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func day(s string) time.Time {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		panic(err)
	}
	return t
}

var refDay = day("2024-06-15")

func memberGen() *rapid.Generator[Member] {
	return rapid.Custom(func(t *rapid.T) Member {
		joinOffset := rapid.IntRange(-400, 30).Draw(t, "join")
		pkgs := Catalog()
		pkg := pkgs[rapid.IntRange(0, len(pkgs)-1).Draw(t, "pkg")]
		joining := refDay.AddDate(0, 0, joinOffset)
		return Member{
			ID:              rapid.StringMatching(`[a-z0-9]{8}`).Draw(t, "id"),
			FullName:        rapid.StringMatching(`[A-Za-z ]{1,20}`).Draw(t, "name"),
			PhoneNumber:     "+91" + rapid.StringMatching(`[6-9][0-9]{9}`).Draw(t, "phone"),
			PackageID:       pkg.ID,
			ServiceCategory: pkg.Category,
			JoiningDate:     joining,
			ExpiryDate:      ExpiryFor(joining, pkg),
			TotalFee:        float64(pkg.Price),
			TotalPaid:       float64(rapid.IntRange(0, 50000).Draw(t, "paid")),
		}
	})
}

func TestRemainingDays_Scenario(t *testing.T) {
	pkg, ok := FindPackage("gym-1")
	require.True(t, ok)

	form := MemberForm{
		FullName:        "Asha Patil",
		PhoneNumber:     "98765-43210 ",
		MembershipType:  MembershipSingle,
		ServiceCategory: CategoryGym,
		PackageID:       pkg.ID,
		JoiningDate:     "2024-01-10",
		PaymentReceived: "1000",
	}
	v, err := form.Validate("+91")
	require.NoError(t, err)

	m := NewMember("m1", v, time.Now())
	assert.Equal(t, day("2024-02-09"), m.ExpiryDate)
	assert.Equal(t, "+919876543210", m.PhoneNumber)
	assert.Equal(t, 500.0, PendingBalance(m))

	today := day("2024-02-05")
	assert.Equal(t, 4, RemainingDays(m, today))
	assert.Equal(t, StatusActive, Status(m, today))

	buckets := Renewals([]Member{m}, today)
	assert.Len(t, buckets.Within7, 1)
	assert.Empty(t, buckets.Next15)
}

func TestRemainingDays_SameDayIsZero(t *testing.T) {
	m := Member{ExpiryDate: day("2024-03-01")}
	loc, err := time.LoadLocation("Asia/Kolkata")
	require.NoError(t, err)

	lateEvening := time.Date(2024, 3, 1, 23, 59, 0, 0, loc)
	assert.Equal(t, 0, RemainingDays(m, lateEvening))
	assert.Equal(t, StatusActive, Status(m, lateEvening))

	nextMorning := time.Date(2024, 3, 2, 0, 1, 0, 0, loc)
	assert.Equal(t, -1, RemainingDays(m, nextMorning))
	assert.Equal(t, StatusExpired, Status(m, nextMorning))
}

func TestStatusMatchesRemainingDays(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		m := memberGen().Draw(t, "member")
		today := refDay.AddDate(0, 0, rapid.IntRange(-30, 500).Draw(t, "offset"))
		expired := RemainingDays(m, today) < 0
		if expired != (Status(m, today) == StatusExpired) {
			t.Fatalf("status %s disagrees with remaining days %d", Status(m, today), RemainingDays(m, today))
		}
	})
}

func TestPendingBalanceNotClamped(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		m := memberGen().Draw(t, "member")
		if PendingBalance(m) != m.TotalFee-m.TotalPaid {
			t.Fatalf("pending %v != %v - %v", PendingBalance(m), m.TotalFee, m.TotalPaid)
		}
	})

	overpaid := Member{TotalFee: 1500, TotalPaid: 2000}
	assert.Equal(t, -500.0, PendingBalance(overpaid))
}

func TestSegmentActiveInactivePartition(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		members := rapid.SliceOf(memberGen()).Draw(t, "members")
		today := refDay.AddDate(0, 0, rapid.IntRange(-30, 60).Draw(t, "offset"))

		active := Segment(members, TabActive, "", today)
		inactive := Segment(members, TabInactive, "", today)
		if len(active)+len(inactive) != len(members) {
			t.Fatalf("partition sizes %d + %d != %d", len(active), len(inactive), len(members))
		}
		for _, m := range inactive {
			if InTab(m, TabActive, today) {
				t.Fatalf("member %s is in both tabs", m.ID)
			}
		}
	})
}

func TestSegmentTabsAndSearch(t *testing.T) {
	today := day("2024-06-15")
	mk := func(id, name, phone string, daysLeft int) Member {
		return Member{ID: id, FullName: name, PhoneNumber: phone, ExpiryDate: today.AddDate(0, 0, daysLeft)}
	}
	members := []Member{
		mk("a", "Ravi Kumar", "+919000000001", 0),
		mk("b", "Sneha Rao", "+919000000002", 7),
		mk("c", "Ravi Shah", "+919000000003", 8),
		mk("d", "Meera Iyer", "+919000000004", 15),
		mk("e", "Karan Das", "+919000000005", 16),
		mk("f", "Pooja Nair", "+919000000006", -1),
	}

	ids := func(ms []Member) []string {
		out := []string{}
		for _, m := range ms {
			out = append(out, m.ID)
		}
		return out
	}

	assert.Equal(t, []string{"a", "b", "c", "d", "e", "f"}, ids(Segment(members, TabAll, "", today)))
	assert.Equal(t, []string{"a", "b", "c", "d", "e"}, ids(Segment(members, TabActive, "", today)))
	assert.Equal(t, []string{"f"}, ids(Segment(members, TabInactive, "", today)))
	assert.Equal(t, []string{"a", "b"}, ids(Segment(members, Tab7Days, "", today)))
	assert.Equal(t, []string{"c", "d"}, ids(Segment(members, Tab15Days, "", today)))

	assert.Equal(t, []string{"a", "c"}, ids(Segment(members, TabAll, "RAVI", today)))
	assert.Equal(t, []string{"c"}, ids(Segment(members, Tab15Days, "ravi", today)))
	assert.Equal(t, []string{"f"}, ids(Segment(members, TabAll, "0006", today)))

	counts := TabCounts(members, today)
	assert.Equal(t, 6, counts[TabAll])
	assert.Equal(t, 2, counts[Tab7Days])
	assert.Equal(t, 1, counts[TabInactive])
}

func TestParseMemberTab(t *testing.T) {
	tab, err := ParseMemberTab("7days")
	require.NoError(t, err)
	assert.Equal(t, Tab7Days, tab)

	tab, err = ParseMemberTab("")
	require.NoError(t, err)
	assert.Equal(t, TabAll, tab)

	_, err = ParseMemberTab("SOON")
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestMemberFormValidation(t *testing.T) {
	base := MemberForm{
		FullName:        "Asha Patil",
		PhoneNumber:     "9876543210",
		ServiceCategory: CategoryGym,
		MembershipType:  MembershipSingle,
		PackageID:       "gym-3",
		JoiningDate:     "2024-01-10",
		PaymentReceived: "0",
	}

	cases := []struct {
		name  string
		edit  func(f *MemberForm)
		field string
	}{
		{"empty name", func(f *MemberForm) { f.FullName = "   " }, "full_name"},
		{"digits in name", func(f *MemberForm) { f.FullName = "Asha 2" }, "full_name"},
		{"short phone", func(f *MemberForm) { f.PhoneNumber = "98765-4321" }, "phone_number"},
		{"long phone", func(f *MemberForm) { f.PhoneNumber = "987654321012" }, "phone_number"},
		{"negative paid", func(f *MemberForm) { f.PaymentReceived = "-1" }, "payment_received"},
		{"text paid", func(f *MemberForm) { f.PaymentReceived = "abc" }, "payment_received"},
		{"bad joining", func(f *MemberForm) { f.JoiningDate = "10/01/2024" }, "joining_date"},
		{"bad gender", func(f *MemberForm) { f.Gender = "X" }, "gender"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := base
			tc.edit(&f)
			_, err := f.Validate("+91")
			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tc.field, verr.Field)
			assert.ErrorIs(t, err, ErrInvalidInput)
		})
	}

	f := base
	f.PhoneNumber = "+91 98765 43210"
	v, err := f.Validate("+91")
	require.NoError(t, err)
	assert.Equal(t, "+919876543210", v.Phone)
}

func TestMemberFormFallsBackToFirstSelectablePackage(t *testing.T) {
	f := MemberForm{
		FullName:        "Duo Team",
		PhoneNumber:     "9876543210",
		ServiceCategory: CategoryMMA,
		MembershipType:  MembershipCouple,
		PackageID:       "gym-1",
		JoiningDate:     "2024-01-10",
	}
	v, err := f.Validate("+91")
	require.NoError(t, err)
	assert.Equal(t, "mma-12-2-c", v.Package.ID)
	assert.Equal(t, 38000.0, NewMember("x", v, time.Now()).TotalFee)
}

func TestApplyFormKeepsIdentityAndCounters(t *testing.T) {
	existing := Member{
		ID:              "m1",
		FullName:        "Asha Patil",
		PackageID:       "gym-1",
		ServiceCategory: CategoryGym,
		MembershipType:  MembershipSingle,
		TotalPaid:       1000,
		WelcomeSent:     true,
		ReminderCount:   3,
	}
	v, err := MemberForm{
		FullName:        "Asha P",
		PhoneNumber:     "9876543210",
		ServiceCategory: CategoryGym,
		MembershipType:  MembershipSingle,
		PackageID:       "gym-3",
		JoiningDate:     "2024-02-01",
		PaymentReceived: "3500",
	}.Validate("+91")
	require.NoError(t, err)

	updated := ApplyForm(existing, v, time.Now())
	assert.Equal(t, "m1", updated.ID)
	assert.True(t, updated.WelcomeSent)
	assert.Equal(t, 3, updated.ReminderCount)
	assert.Equal(t, day("2024-05-01"), updated.ExpiryDate)

	diff := DiffMembers(existing, updated)
	assert.Equal(t, "Name: Asha Patil, Paid: ₹1000, Plan: 1 Month", diff.Old)
	assert.Equal(t, "Name: Asha P, Paid: ₹3500, Plan: 3 Months", diff.New)

	same := DiffMembers(updated, updated)
	assert.Equal(t, "No critical changes", same.Old)
	assert.Equal(t, "Record synchronized", same.New)
}
