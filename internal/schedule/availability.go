package schedule

import "sort"

// SlotAvailability is one bookable candidate for a (date, psychologist) pair.
type SlotAvailability struct {
	Index     int    `json:"index"`
	Label     string `json:"label"`
	Available bool   `json:"available"`
}

// ResolveAvailableSlots merges a psychologist's available and booked slot
// indices for one date into an ordered candidate list. Indices present in the
// booked list are flagged unavailable; everything else in the union is
// available. An empty date, or a date with no entries in either map, yields an
// empty result — the caller distinguishes that state from "still loading".
//
// Pure function of its inputs plus the static label table; recomputing with
// the same inputs always yields the same output.
func ResolveAvailableSlots(dateKey string, available, booked map[string][]int) []SlotAvailability {
	if dateKey == "" {
		return nil
	}

	bookedSet := make(map[int]bool, len(booked[dateKey]))
	for _, idx := range booked[dateKey] {
		bookedSet[idx] = true
	}

	seen := make(map[int]bool)
	var indices []int
	for _, idx := range available[dateKey] {
		if !seen[idx] {
			seen[idx] = true
			indices = append(indices, idx)
		}
	}
	for _, idx := range booked[dateKey] {
		if !seen[idx] {
			seen[idx] = true
			indices = append(indices, idx)
		}
	}

	if len(indices) == 0 {
		return nil
	}

	sort.Ints(indices)

	slots := make([]SlotAvailability, 0, len(indices))
	for _, idx := range indices {
		slots = append(slots, SlotAvailability{
			Index:     idx,
			Label:     SlotLabel(idx),
			Available: !bookedSet[idx],
		})
	}
	return slots
}
