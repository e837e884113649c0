package app

import (
	"fmt"
	"time"
)

const (
	dayLayout      = "2006-01-02"
	localISOLayout = "2006-01-02T15:04:05"
	readableLayout = "3:04 PM"
)

// ClubTime converts the backend's naive UTC timestamps into the club's
// civil calendar. Every date bucket in the views goes through it.
type ClubTime struct {
	loc *time.Location
}

func NewClubTime(zone string) (ClubTime, error) {
	loc, err := time.LoadLocation(zone)
	if err != nil {
		return ClubTime{}, fmt.Errorf("load timezone %q: %w", zone, err)
	}
	return ClubTime{loc: loc}, nil
}

func ClubTimeIn(loc *time.Location) ClubTime {
	if loc == nil {
		loc = time.UTC
	}
	return ClubTime{loc: loc}
}

func (c ClubTime) Location() *time.Location {
	if c.loc == nil {
		return time.UTC
	}
	return c.loc
}

func (c ClubTime) Zone() string { return c.Location().String() }

// Local parses "YYYY-MM-DDTHH:MM:SS" (anything past the seconds is dropped)
// as UTC and moves it into the club zone. ok is false for empty or
// malformed input.
func (c ClubTime) Local(utc string) (t time.Time, ok bool) {
	if len(utc) < len(localISOLayout) {
		return time.Time{}, false
	}
	parsed, err := time.ParseInLocation(localISOLayout, utc[:len(localISOLayout)], time.UTC)
	if err != nil {
		return time.Time{}, false
	}
	return parsed.In(c.Location()), true
}

func (c ClubTime) LocalISO(utc string) string {
	t, ok := c.Local(utc)
	if !ok {
		return ""
	}
	return t.Format(localISOLayout)
}

func (c ClubTime) LocalDate(utc string) string {
	t, ok := c.Local(utc)
	if !ok {
		return ""
	}
	return t.Format(dayLayout)
}

func (c ClubTime) LocalHour(utc string) (int, bool) {
	t, ok := c.Local(utc)
	if !ok {
		return 0, false
	}
	return t.Hour(), true
}

// Readable renders the local time as "7:00 PM".
func (c ClubTime) Readable(utc string) string {
	t, ok := c.Local(utc)
	if !ok {
		return ""
	}
	return t.Format(readableLayout)
}

// ParseDay reads a "YYYY-MM-DD" club calendar day, returning local midnight.
func (c ClubTime) ParseDay(s string) (time.Time, error) {
	d, err := time.ParseInLocation(dayLayout, s, c.Location())
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q, want YYYY-MM-DD", s)
	}
	return d, nil
}

// DayRange returns the UTC instants of local 00:00:00 and 23:59:59 on day.
// Conversion goes through the zone rules so DST days come out 23h or 25h long.
func (c ClubTime) DayRange(day time.Time) (utcStart, utcEnd time.Time) {
	y, m, d := day.Date()
	loc := c.Location()
	utcStart = time.Date(y, m, d, 0, 0, 0, 0, loc).UTC()
	utcEnd = time.Date(y, m, d, 23, 59, 59, 0, loc).UTC()
	return utcStart, utcEnd
}

// SpanRange covers local start 00:00:00 through local end 23:59:59.
func (c ClubTime) SpanRange(start, end time.Time) (utcStart, utcEnd time.Time) {
	utcStart, _ = c.DayRange(start)
	_, utcEnd = c.DayRange(end)
	return utcStart, utcEnd
}

// Today is the club's calendar day at instant now.
func (c ClubTime) Today(now time.Time) time.Time {
	y, m, d := now.In(c.Location()).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, c.Location())
}
