package schedule

import (
	"errors"
	"fmt"
	"sort"
	"time"
)

// ErrEmptySelection is returned when a schedule submission carries no
// selected template slots. It is a client-side validation failure and is
// reported before any request is built.
var ErrEmptySelection = errors.New("no time slots selected")

// ClockWarning records a template time string that could not be parsed while
// evaluating expiry. The predicate fails open in that case: the slot stays
// selectable, because silently blocking a valid slot is the worse failure for
// a scheduling flow. Callers are expected to log the warning.
type ClockWarning struct {
	TemplateID string
	Value      string
	Err        error
}

func (w *ClockWarning) String() string {
	return fmt.Sprintf("template %s: unparseable start time %q: %v", w.TemplateID, w.Value, w.Err)
}

// InstantiatedKey builds the normalized composite key identifying one
// template instantiated on one date. Membership checks use exact key
// equality; a bare template id is never unique on its own.
func InstantiatedKey(templateID, dateKey string) string {
	return templateID + "@" + dateKey
}

// InstantiatedSet holds the composite keys of already-created scheduled
// slots.
type InstantiatedSet map[string]struct{}

func (s InstantiatedSet) Add(templateID, dateKey string) {
	s[InstantiatedKey(templateID, dateKey)] = struct{}{}
}

func (s InstantiatedSet) Has(templateID, dateKey string) bool {
	_, ok := s[InstantiatedKey(templateID, dateKey)]
	return ok
}

// SlotExpired reports whether a template slot can no longer be scheduled for
// targetDate as of now: any date strictly before today is expired, and on
// today itself a slot whose start time is at or before the current wall clock
// is expired (time-equal counts as expired). Unparseable inputs fail open.
func SlotExpired(tmpl TimeSlotTemplate, targetDate string, now time.Time) (bool, *ClockWarning) {
	target, err := ParseDateKey(targetDate)
	if err != nil {
		return false, &ClockWarning{TemplateID: tmpl.ID, Value: targetDate, Err: err}
	}

	today, _ := ParseDateKey(DateKey(now))
	if target.Before(today) {
		return true, nil
	}
	if !target.Equal(today) {
		return false, nil
	}

	start, err := ParseClock(tmpl.StartTime)
	if err != nil {
		return false, &ClockWarning{TemplateID: tmpl.ID, Value: tmpl.StartTime, Err: err}
	}
	return start.AtOrBefore(ClockOf(now)), nil
}

// Selectable reports whether a template slot can still be chosen for
// targetDate: it must not already be instantiated for that date and must not
// be expired.
func Selectable(tmpl TimeSlotTemplate, targetDate string, existing InstantiatedSet, now time.Time) (bool, *ClockWarning) {
	if existing.Has(tmpl.ID, targetDate) {
		return false, nil
	}
	expired, warn := SlotExpired(tmpl, targetDate, now)
	return !expired, warn
}

// Selection is the set of template ids currently chosen for submission.
// Updates return a fresh set so callers can swap state atomically between
// renders instead of mutating a shared map.
type Selection map[string]struct{}

func (s Selection) Has(id string) bool {
	_, ok := s[id]
	return ok
}

// Toggle flips one template id in or out of the selection.
func (s Selection) Toggle(id string) Selection {
	next := s.clone()
	if _, ok := next[id]; ok {
		delete(next, id)
	} else {
		next[id] = struct{}{}
	}
	return next
}

// TogglePeriod applies the bulk period action: if every selectable template
// in the period is already selected, they are all deselected; otherwise the
// selection grows to include all of them. Templates that are expired or
// already instantiated are never touched. Applying the action twice with
// unchanged inputs round-trips between all-selected and all-deselected.
func (s Selection) TogglePeriod(period Period, templates []TimeSlotTemplate, targetDate string, existing InstantiatedSet, now time.Time) (Selection, []*ClockWarning) {
	var warnings []*ClockWarning
	var selectable []string

	for _, tmpl := range templates {
		if tmpl.Period != period {
			continue
		}
		ok, warn := Selectable(tmpl, targetDate, existing, now)
		if warn != nil {
			warnings = append(warnings, warn)
		}
		if ok {
			selectable = append(selectable, tmpl.ID)
		}
	}

	if len(selectable) == 0 {
		return s.clone(), warnings
	}

	allSelected := true
	for _, id := range selectable {
		if !s.Has(id) {
			allSelected = false
			break
		}
	}

	next := s.clone()
	for _, id := range selectable {
		if allSelected {
			delete(next, id)
		} else {
			next[id] = struct{}{}
		}
	}
	return next, warnings
}

// IDs returns the selected template ids in a stable order.
func (s Selection) IDs() []string {
	ids := make([]string, 0, len(s))
	for id := range s {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func (s Selection) clone() Selection {
	next := make(Selection, len(s))
	for id := range s {
		next[id] = struct{}{}
	}
	return next
}

// CreateScheduleRequest is the batch-create payload submitted once a
// selection is confirmed.
type CreateScheduleRequest struct {
	SlotDate       string   `json:"slotDate"`
	DefaultSlotIDs []string `json:"defaultSlotIds"`
}

// BuildCreateRequest turns a confirmed selection into the create-schedule
// payload. An empty selection or an unparseable date is rejected here, before
// anything reaches the network.
func BuildCreateRequest(slotDate string, sel Selection) (CreateScheduleRequest, error) {
	if len(sel) == 0 {
		return CreateScheduleRequest{}, ErrEmptySelection
	}
	if _, err := ParseDateKey(slotDate); err != nil {
		return CreateScheduleRequest{}, err
	}
	return CreateScheduleRequest{
		SlotDate:       slotDate,
		DefaultSlotIDs: sel.IDs(),
	}, nil
}
