package schedule

// Period is the coarse time-of-day bucket used for grouping templates and for
// bulk selection.
type Period string

const (
	PeriodMorning   Period = "morning"
	PeriodAfternoon Period = "afternoon"
	PeriodEvening   Period = "evening"
)

// TimeSlotTemplate is a recurring, date-independent time window a psychologist
// can offer. Templates are reference data: loaded once, never mutated.
type TimeSlotTemplate struct {
	ID        string
	StartTime string // wall clock, e.g. "09:00" or "09:00:00"
	EndTime   string
	Period    Period
}

// PeriodForClock derives the period from a slot's start time.
// Before noon is morning, noon until 17:00 is afternoon, later is evening.
func PeriodForClock(c Clock) Period {
	switch {
	case c.Hour < 12:
		return PeriodMorning
	case c.Hour < 17:
		return PeriodAfternoon
	default:
		return PeriodEvening
	}
}

// slotLabels maps a slot index to its display window. Index order is booking
// order for the day: half-hour windows from 08:00 through 17:00.
var slotLabels = []string{
	"08:00 - 08:30",
	"08:30 - 09:00",
	"09:00 - 09:30",
	"09:30 - 10:00",
	"10:00 - 10:30",
	"10:30 - 11:00",
	"11:00 - 11:30",
	"11:30 - 12:00",
	"13:00 - 13:30",
	"13:30 - 14:00",
	"14:00 - 14:30",
	"14:30 - 15:00",
	"15:00 - 15:30",
	"15:30 - 16:00",
	"16:00 - 16:30",
	"16:30 - 17:00",
}

// SlotLabel returns the display label for a slot index, or "" when the index
// is outside the known table.
func SlotLabel(index int) string {
	if index < 0 || index >= len(slotLabels) {
		return ""
	}
	return slotLabels[index]
}

// SlotCount is the number of indices in the label table.
func SlotCount() int {
	return len(slotLabels)
}

// SlotIndexForWindow returns the label-table index for a start/end window, or
// -1 when the window is not part of the canonical day grid.
func SlotIndexForWindow(start, end Clock) int {
	label := start.String() + " - " + end.String()
	for i, l := range slotLabels {
		if l == label {
			return i
		}
	}
	return -1
}
