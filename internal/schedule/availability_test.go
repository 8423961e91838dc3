package schedule

import "testing"

func TestResolveAvailableSlots_Basic(t *testing.T) {
	available := map[string][]int{"2025-01-10": {0, 2}}
	booked := map[string][]int{"2025-01-10": {1}}

	slots := ResolveAvailableSlots("2025-01-10", available, booked)
	if len(slots) != 3 {
		t.Fatalf("expected 3 slots, got %d", len(slots))
	}

	want := []SlotAvailability{
		{Index: 0, Label: "08:00 - 08:30", Available: true},
		{Index: 1, Label: "08:30 - 09:00", Available: false},
		{Index: 2, Label: "09:00 - 09:30", Available: true},
	}
	for i, w := range want {
		if slots[i] != w {
			t.Fatalf("slot %d = %+v, want %+v", i, slots[i], w)
		}
	}
}

func TestResolveAvailableSlots_NoDate(t *testing.T) {
	available := map[string][]int{"2025-01-10": {0}}
	if slots := ResolveAvailableSlots("", available, nil); len(slots) != 0 {
		t.Fatalf("expected empty result for missing date, got %d slots", len(slots))
	}
}

func TestResolveAvailableSlots_UnknownDate(t *testing.T) {
	available := map[string][]int{"2025-01-10": {0, 1}}
	booked := map[string][]int{"2025-01-10": {2}}
	if slots := ResolveAvailableSlots("2025-01-11", available, booked); len(slots) != 0 {
		t.Fatalf("expected empty result for unknown date, got %d slots", len(slots))
	}
}

func TestResolveAvailableSlots_SortedAndFlagged(t *testing.T) {
	available := map[string][]int{"2025-03-02": {7, 3, 5}}
	booked := map[string][]int{"2025-03-02": {4, 3}}

	slots := ResolveAvailableSlots("2025-03-02", available, booked)
	if len(slots) != 4 {
		t.Fatalf("expected 4 slots, got %d", len(slots))
	}

	for i := 1; i < len(slots); i++ {
		if slots[i-1].Index >= slots[i].Index {
			t.Fatalf("slots not sorted ascending: %d before %d", slots[i-1].Index, slots[i].Index)
		}
	}

	bookedSet := map[int]bool{3: true, 4: true}
	for _, s := range slots {
		if s.Available == bookedSet[s.Index] {
			t.Fatalf("slot %d availability = %v, want %v", s.Index, s.Available, !bookedSet[s.Index])
		}
	}
}

func TestResolveAvailableSlots_OverlapDeduplicated(t *testing.T) {
	// An index appearing in both maps must show up once, as booked.
	available := map[string][]int{"2025-03-02": {1, 2}}
	booked := map[string][]int{"2025-03-02": {2}}

	slots := ResolveAvailableSlots("2025-03-02", available, booked)
	if len(slots) != 2 {
		t.Fatalf("expected 2 slots, got %d", len(slots))
	}
	if slots[1].Index != 2 || slots[1].Available {
		t.Fatalf("overlapping index should be booked: %+v", slots[1])
	}
}

func TestSlotLabel_OutOfRange(t *testing.T) {
	if got := SlotLabel(-1); got != "" {
		t.Fatalf("SlotLabel(-1) = %q, want empty", got)
	}
	if got := SlotLabel(SlotCount()); got != "" {
		t.Fatalf("SlotLabel(%d) = %q, want empty", SlotCount(), got)
	}
}
