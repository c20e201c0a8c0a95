// Package scheduling owns the time-window rules for machine bookings: the overlap
// test, 30-minute day slots derived from opening hours, and the allocator that
// reserves a window on a machine inside a transaction.
package scheduling

import (
	"fmt"
	"sort"
	"time"
)

// Granularity of the slots shown to the desk.
const Granularity = 30 * time.Minute

// TimeSlot is a half-open [Start, End) interval.
type TimeSlot struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Overlaps reports whether two windows share any instant. Touching windows
// (one ends exactly when the other starts) do not overlap.
func (s TimeSlot) Overlaps(o TimeSlot) bool {
	return s.Start.Before(o.End) && o.Start.Before(s.End)
}

func (s TimeSlot) Valid() bool {
	return s.End.After(s.Start)
}

// Label renders the slot as "HH:MM-HH:MM" in the slot's own location.
func (s TimeSlot) Label() string {
	return s.Start.Format("15:04") + "-" + s.End.Format("15:04")
}

// OpeningWindow builds the open/close window for the calendar day of day, in day's
// location. ok is false when the facility is closed or the hours are empty.
func OpeningWindow(day time.Time, openHHMM, closeHHMM string, closed bool) (TimeSlot, bool, error) {
	if closed || openHHMM == "" || closeHHMM == "" {
		return TimeSlot{}, false, nil
	}

	openT, err := time.Parse("15:04", openHHMM)
	if err != nil {
		return TimeSlot{}, false, fmt.Errorf("parse open time %q: %w", openHHMM, err)
	}
	closeT, err := time.Parse("15:04", closeHHMM)
	if err != nil {
		return TimeSlot{}, false, fmt.Errorf("parse close time %q: %w", closeHHMM, err)
	}

	loc := day.Location()
	open := time.Date(day.Year(), day.Month(), day.Day(), openT.Hour(), openT.Minute(), 0, 0, loc)
	close := time.Date(day.Year(), day.Month(), day.Day(), closeT.Hour(), closeT.Minute(), 0, 0, loc)
	if !close.After(open) {
		return TimeSlot{}, false, nil
	}
	return TimeSlot{Start: open, End: close}, true, nil
}

// DaySlots cuts an opening window into consecutive slots of Granularity.
// A trailing remainder shorter than Granularity is dropped.
func DaySlots(window TimeSlot) []TimeSlot {
	out := make([]TimeSlot, 0)
	for cur := window.Start; !cur.Add(Granularity).After(window.End); cur = cur.Add(Granularity) {
		out = append(out, TimeSlot{Start: cur, End: cur.Add(Granularity)})
	}
	return out
}

// SlotState is a day slot annotated with the sessions occupying it.
type SlotState struct {
	TimeSlot
	Label      string  `json:"label"`
	Busy       bool    `json:"busy"`
	SessionIDs []int64 `json:"session_ids,omitempty"`
}

// Occupant is anything holding a window on a machine.
type Occupant struct {
	ID     int64
	Window TimeSlot
}

// MarkBusy annotates each slot with the occupants overlapping it.
func MarkBusy(slots []TimeSlot, occupants []Occupant) []SlotState {
	sorted := make([]Occupant, len(occupants))
	copy(sorted, occupants)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Window.Start.Before(sorted[j].Window.Start) })

	out := make([]SlotState, 0, len(slots))
	for _, s := range slots {
		st := SlotState{TimeSlot: s, Label: s.Label()}
		for _, o := range sorted {
			if !o.Window.Start.Before(s.End) {
				break
			}
			if s.Overlaps(o.Window) {
				st.Busy = true
				st.SessionIDs = append(st.SessionIDs, o.ID)
			}
		}
		out = append(out, st)
	}
	return out
}
