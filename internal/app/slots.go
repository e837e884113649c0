package app

import (
	"fmt"
	"time"

	"padel-assistant/internal/playtomic"
)

// BuildAvailableSlots groups the open slots of a day by court resource id.
// names maps resource ids to court names when the club profile was readable.
func BuildAvailableSlots(day string, avail []playtomic.AvailabilityResource, names map[string]string) AvailableSlots {
	view := AvailableSlots{
		Date:         day,
		SlotsByCourt: map[string]CourtSlots{},
	}
	for _, r := range avail {
		id := r.ResourceID
		if id == "" {
			id = unknownName
		}
		cs := view.SlotsByCourt[id]
		cs.CourtName = names[r.ResourceID]
		for _, s := range r.Slots {
			cs.Slots = append(cs.Slots, OpenSlot{
				StartTime:   s.StartTime,
				EndTime:     slotEnd(s.StartTime, s.Duration),
				DurationMin: s.Duration,
				Price:       orNA(string(s.Price)),
			})
		}
		cs.Count = len(cs.Slots)
		if cs.Slots == nil {
			cs.Slots = []OpenSlot{}
		}
		view.SlotsByCourt[id] = cs
		view.TotalAvailableSlots += len(r.Slots)
	}
	for _, cs := range view.SlotsByCourt {
		if cs.Count > 0 {
			view.CourtsWithAvailability++
		}
	}
	return view
}

func orNA(s string) string {
	if s == "" {
		return "N/A"
	}
	return s
}

// slotEnd adds durationMin to a "HH:MM[:SS]" local start. Unreadable starts
// give an empty end.
func slotEnd(start string, durationMin int) string {
	tod, err := parseHHMM(start)
	if err != nil || durationMin <= 0 {
		return ""
	}
	return tod.Add(time.Duration(durationMin) * time.Minute).Format("15:04")
}

func parseHHMM(s string) (time.Time, error) {
	// Take first 5 chars "HH:MM"
	if len(s) < 5 {
		return time.Time{}, fmt.Errorf("invalid time string: %s", s)
	}
	s = s[:5] // "09:00:00" -> "09:00"
	tt, err := time.Parse("15:04", s)
	if err != nil {
		return time.Time{}, err
	}
	return tt, nil
}

func courtNames(t playtomic.Tenant) map[string]string {
	names := make(map[string]string, len(t.Resources))
	for _, r := range t.Resources {
		if r.ResourceID != "" && r.Name != "" {
			names[r.ResourceID] = r.Name
		}
	}
	return names
}
