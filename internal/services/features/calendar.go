package features

import "time"

// holiday season matches the generator convention: November and December.

// IsWeekend reports whether d falls on Saturday or Sunday.
func IsWeekend(d time.Time) bool {
	wd := d.Weekday()
	return wd == time.Saturday || wd == time.Sunday
}

// IsHolidaySeason reports whether d falls in a holiday month.
func IsHolidaySeason(d time.Time) bool {
	return d.Month() == time.November || d.Month() == time.December
}
