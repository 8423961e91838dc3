package schedule

import (
	"testing"
	"time"
)

func calAppt(id string, t time.Time) CalendarAppointment {
	return CalendarAppointment{ID: id, StartsAt: t, Type: "online", Status: "confirmed"}
}

func TestBucketAppointments_GroupsByDate(t *testing.T) {
	day1 := time.Date(2025, 1, 10, 9, 0, 0, 0, time.UTC)
	day2 := time.Date(2025, 1, 11, 14, 0, 0, 0, time.UTC)

	appts := []CalendarAppointment{
		calAppt("a", day1),
		calAppt("b", day2),
		calAppt("c", day1.Add(2*time.Hour)),
	}

	buckets := BucketAppointments(appts)
	if len(buckets) != 2 {
		t.Fatalf("expected 2 date buckets, got %d", len(buckets))
	}
	if buckets.Total() != 3 {
		t.Fatalf("expected 3 entries overall, got %d", buckets.Total())
	}

	dates := buckets.Dates()
	if dates[0] != "2025-01-10" || dates[1] != "2025-01-11" {
		t.Fatalf("dates = %v", dates)
	}

	// Input order preserved within the bucket.
	first := buckets["2025-01-10"]
	if first[0].ID != "a" || first[1].ID != "c" {
		t.Fatalf("bucket order = %s, %s; want a, c", first[0].ID, first[1].ID)
	}
}

func TestCategoryForHour(t *testing.T) {
	cases := []struct {
		hour int
		want Category
	}{
		{6, CategoryNone},
		{7, CategoryMorningUrgent},
		{11, CategoryMorningUrgent},
		{12, CategoryNone},
		{13, CategoryAfternoon},
		{20, CategoryAfternoon},
	}
	for _, tc := range cases {
		if got := CategoryForHour(tc.hour); got != tc.want {
			t.Fatalf("CategoryForHour(%d) = %q, want %q", tc.hour, got, tc.want)
		}
	}
}

func TestBucketAppointments_Categories(t *testing.T) {
	appts := []CalendarAppointment{
		calAppt("m", time.Date(2025, 1, 10, 8, 30, 0, 0, time.UTC)),
		calAppt("n", time.Date(2025, 1, 10, 12, 15, 0, 0, time.UTC)),
		calAppt("p", time.Date(2025, 1, 10, 15, 0, 0, 0, time.UTC)),
	}

	entries := BucketAppointments(appts)["2025-01-10"]
	if entries[0].Category != CategoryMorningUrgent {
		t.Fatalf("08:30 category = %q", entries[0].Category)
	}
	if entries[1].Category != CategoryNone {
		t.Fatalf("12:15 category = %q, want none", entries[1].Category)
	}
	if entries[2].Category != CategoryAfternoon {
		t.Fatalf("15:00 category = %q", entries[2].Category)
	}
}

func TestBucketAppointments_Empty(t *testing.T) {
	buckets := BucketAppointments(nil)
	if len(buckets) != 0 {
		t.Fatalf("expected no buckets, got %d", len(buckets))
	}
}
