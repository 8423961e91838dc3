package schedule

import (
	"sort"
	"time"
)

// Category is the visual grouping applied to a calendar entry by its start
// hour. Hours 12 and anything before 07:00 intentionally stay uncategorized;
// the entry still lands in its date bucket.
type Category string

const (
	CategoryMorningUrgent Category = "morning-urgent"
	CategoryAfternoon     Category = "afternoon"
	CategoryNone          Category = ""
)

// CategoryForHour classifies a start hour: 07-11 is morning-urgent, 13 and
// later is afternoon, everything else carries no category.
func CategoryForHour(hour int) Category {
	switch {
	case hour >= 7 && hour <= 11:
		return CategoryMorningUrgent
	case hour >= 13:
		return CategoryAfternoon
	default:
		return CategoryNone
	}
}

// CalendarAppointment is the minimal appointment view the bucketer consumes.
type CalendarAppointment struct {
	ID       string
	StartsAt time.Time
	Type     string // in-person or online
	Status   string
}

// CalendarEntry is one appointment placed in a date bucket.
type CalendarEntry struct {
	CalendarAppointment
	Category Category
}

// DayBuckets maps a YYYY-MM-DD key to that day's entries in input order.
type DayBuckets map[string][]CalendarEntry

// Dates returns the bucket keys sorted ascending.
func (b DayBuckets) Dates() []string {
	dates := make([]string, 0, len(b))
	for d := range b {
		dates = append(dates, d)
	}
	sort.Strings(dates)
	return dates
}

// Total counts entries across all buckets.
func (b DayBuckets) Total() int {
	n := 0
	for _, entries := range b {
		n += len(entries)
	}
	return n
}

// BucketAppointments groups appointments by the calendar-date portion of
// their start time and tags each with its display category. Input order is
// preserved within a bucket so rendering is reproducible against fetch order.
func BucketAppointments(appointments []CalendarAppointment) DayBuckets {
	buckets := make(DayBuckets)
	for _, appt := range appointments {
		key := DateKey(appt.StartsAt)
		buckets[key] = append(buckets[key], CalendarEntry{
			CalendarAppointment: appt,
			Category:            CategoryForHour(appt.StartsAt.Hour()),
		})
	}
	return buckets
}
