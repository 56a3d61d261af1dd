package entity

import "time"

// DayCount is the number of visits on a single day.
type DayCount struct {
	Day   time.Time
	Count int64
}

// KeyCount is the number of visits grouped by an arbitrary key (country, variant).
type KeyCount struct {
	Key   string
	Count int64
}

// VisitStats aggregates the clicks or scans of a single resource.
type VisitStats struct {
	Total     int64
	ByDay     []DayCount
	ByCountry []KeyCount
	ByVariant []KeyCount
}
