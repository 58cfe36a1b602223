package domain

import (
	"fmt"
	"time"
)

// RevenueWindowMonths is the length of the trailing revenue chart
const RevenueWindowMonths = 6

// MonthRevenue is one bucket of the revenue chart
type MonthRevenue struct {
	Label  string     `json:"label"`
	Year   int        `json:"year"`
	Month  time.Month `json:"month"`
	Amount float64    `json:"amount"`
}

// MonthLabel renders "Jan 2024"
func MonthLabel(year int, month time.Month) string {
	return fmt.Sprintf("%s %d", month.String()[:3], year)
}

// MonthlyRevenue sums TotalPaid by joining month over the six calendar
// months ending at now's month, oldest first. Payment dates are not
// tracked, so a member's whole paid amount lands in the join month.
func MonthlyRevenue(members []Member, now time.Time) []MonthRevenue {
	buckets := make([]MonthRevenue, RevenueWindowMonths)
	index := make(map[[2]int]int, RevenueWindowMonths)

	for i := 0; i < RevenueWindowMonths; i++ {
		d := time.Date(now.Year(), now.Month()-time.Month(RevenueWindowMonths-1-i), 1, 0, 0, 0, 0, time.UTC)
		buckets[i] = MonthRevenue{
			Label: MonthLabel(d.Year(), d.Month()),
			Year:  d.Year(),
			Month: d.Month(),
		}
		index[[2]int{d.Year(), int(d.Month())}] = i
	}

	for _, m := range members {
		j := StoredDate(m.JoiningDate)
		if i, ok := index[[2]int{j.Year(), int(j.Month())}]; ok {
			buckets[i].Amount += m.TotalPaid
		}
	}
	return buckets
}

// TotalPendingFees sums pending balances, over-payments included
func TotalPendingFees(members []Member) float64 {
	var total float64
	for _, m := range members {
		total += PendingBalance(m)
	}
	return total
}
