package domain

import "time"

// BirthdaySegments splits members whose birthday is today or tomorrow
type BirthdaySegments struct {
	Today    []Member
	Tomorrow []Member
}

// Birthdays matches month and day only, against today and today+1
func Birthdays(members []Member, today time.Time) BirthdaySegments {
	t := DateOf(today)
	tm := t.AddDate(0, 0, 1)

	seg := BirthdaySegments{Today: []Member{}, Tomorrow: []Member{}}
	for _, m := range members {
		if m.Birthdate == nil {
			continue
		}
		b := StoredDate(*m.Birthdate)
		switch {
		case b.Month() == t.Month() && b.Day() == t.Day():
			seg.Today = append(seg.Today, m)
		case b.Month() == tm.Month() && b.Day() == tm.Day():
			seg.Tomorrow = append(seg.Tomorrow, m)
		}
	}
	return seg
}

// RenewalBuckets holds active members close to expiry. The buckets never
// share a member.
type RenewalBuckets struct {
	Within7 []Member
	Next15  []Member
}

// Renewals buckets active members into <=7 days and 8..15 days
func Renewals(members []Member, today time.Time) RenewalBuckets {
	r := RenewalBuckets{Within7: []Member{}, Next15: []Member{}}
	for _, m := range members {
		days := RemainingDays(m, today)
		switch {
		case days < 0:
		case days <= 7:
			r.Within7 = append(r.Within7, m)
		case days <= 15:
			r.Next15 = append(r.Next15, m)
		}
	}
	return r
}

// PendingList returns members that still owe money
func PendingList(members []Member) []Member {
	out := []Member{}
	for _, m := range members {
		if PendingBalance(m) > 0 {
			out = append(out, m)
		}
	}
	return out
}
