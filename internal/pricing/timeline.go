package pricing

import "time"

const (
	baseTimelineDays = 7
	minTimelineDays  = 2
)

// EstimateTimeline returns the delivery estimate in working days. Faster
// service levels shave days off; every extra service adds time.
func EstimateTimeline(serviceCount int, serviceLevel string) int {
	days := baseTimelineDays

	switch serviceLevel {
	case "luxury":
		days -= 2
	case "premium":
		days--
	}

	if serviceCount > 1 {
		days += serviceCount * 3 / 2
	}

	if days < minTimelineDays {
		return minTimelineDays
	}
	return days
}

// EstimateDelivery adds days to from and rolls a weekend landing forward to
// the next Monday.
func EstimateDelivery(from time.Time, days int) time.Time {
	d := from.AddDate(0, 0, days)
	for d.Weekday() == time.Saturday || d.Weekday() == time.Sunday {
		d = d.AddDate(0, 0, 1)
	}
	return d
}
