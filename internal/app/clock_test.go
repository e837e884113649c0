package app

import (
	"testing"
	"time"
)

func mustClubTime(t *testing.T, zone string) ClubTime {
	t.Helper()
	ct, err := NewClubTime(zone)
	if err != nil {
		t.Fatalf("NewClubTime(%q): %v", zone, err)
	}
	return ct
}

func TestLocalConversions(t *testing.T) {
	ct := mustClubTime(t, "America/Cancun") // UTC-5, no DST

	tests := []struct {
		in       string
		iso      string
		date     string
		hour     int
		readable string
	}{
		{"2024-03-01T14:00:00", "2024-03-01T09:00:00", "2024-03-01", 9, "9:00 AM"},
		{"2024-03-02T00:30:00", "2024-03-01T19:30:00", "2024-03-01", 19, "7:30 PM"},
		{"2024-03-01T17:00:00.000Z", "2024-03-01T12:00:00", "2024-03-01", 12, "12:00 PM"},
		{"2024-03-01T05:00:00+00:00", "2024-03-01T00:00:00", "2024-03-01", 0, "12:00 AM"},
	}
	for _, tt := range tests {
		if got := ct.LocalISO(tt.in); got != tt.iso {
			t.Errorf("LocalISO(%q) = %q, want %q", tt.in, got, tt.iso)
		}
		if got := ct.LocalDate(tt.in); got != tt.date {
			t.Errorf("LocalDate(%q) = %q, want %q", tt.in, got, tt.date)
		}
		if got, ok := ct.LocalHour(tt.in); !ok || got != tt.hour {
			t.Errorf("LocalHour(%q) = %d,%v want %d", tt.in, got, ok, tt.hour)
		}
		if got := ct.Readable(tt.in); got != tt.readable {
			t.Errorf("Readable(%q) = %q, want %q", tt.in, got, tt.readable)
		}
	}
}

func TestLocalRejectsMalformed(t *testing.T) {
	ct := mustClubTime(t, "Europe/Madrid")
	for _, in := range []string{"", "2024-03-01", "not a timestamp at all", "2024-13-01T10:00:00", "2024-03-01 10:00:00"} {
		if _, ok := ct.Local(in); ok {
			t.Errorf("Local(%q) should fail", in)
		}
		if ct.LocalISO(in) != "" || ct.LocalDate(in) != "" || ct.Readable(in) != "" {
			t.Errorf("formatters should return empty for %q", in)
		}
		if _, ok := ct.LocalHour(in); ok {
			t.Errorf("LocalHour(%q) should fail", in)
		}
	}
}

func TestLocalDateRoundTrip(t *testing.T) {
	zones := []string{"UTC", "America/Cancun", "Europe/Madrid", "Asia/Tokyo", "Pacific/Kiritimati", "Pacific/Pago_Pago"}
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for _, z := range zones {
		ct := mustClubTime(t, z)
		for h := 0; h < 24*400; h += 7 {
			u := base.Add(time.Duration(h) * time.Hour)
			want := u.In(ct.Location()).Format(dayLayout)
			utc := u.Format(localISOLayout)
			if got := ct.LocalDate(utc); got != want {
				t.Fatalf("%s: LocalDate(%s) = %s, want %s", z, utc, got, want)
			}
			// Re-reading the local ISO string as a local wall clock keeps the date.
			iso := ct.LocalISO(utc)
			if iso[:10] != want {
				t.Fatalf("%s: LocalISO(%s) = %s, want date %s", z, utc, iso, want)
			}
		}
	}
}

func TestDayRangeCrossesUTCBoundary(t *testing.T) {
	ct := mustClubTime(t, "America/Cancun")
	day, err := ct.ParseDay("2024-02-19")
	if err != nil {
		t.Fatal(err)
	}
	start, end := ct.DayRange(day)
	if want := time.Date(2024, 2, 19, 5, 0, 0, 0, time.UTC); !start.Equal(want) {
		t.Errorf("start = %v, want %v", start, want)
	}
	if want := time.Date(2024, 2, 20, 4, 59, 59, 0, time.UTC); !end.Equal(want) {
		t.Errorf("end = %v, want %v", end, want)
	}

	tokyo := mustClubTime(t, "Asia/Tokyo")
	day, _ = tokyo.ParseDay("2024-02-19")
	start, _ = tokyo.DayRange(day)
	if want := time.Date(2024, 2, 18, 15, 0, 0, 0, time.UTC); !start.Equal(want) {
		t.Errorf("tokyo start = %v, want %v", start, want)
	}
}

func TestDayRangeLengthAcrossDST(t *testing.T) {
	tests := []struct {
		zone string
		day  string
		want time.Duration
	}{
		{"Europe/Madrid", "2024-03-31", 23 * time.Hour},
		{"Europe/Madrid", "2024-10-27", 25 * time.Hour},
		{"Europe/Madrid", "2024-06-15", 24 * time.Hour},
		{"America/New_York", "2024-03-10", 23 * time.Hour},
		{"America/New_York", "2024-11-03", 25 * time.Hour},
		{"America/Cancun", "2024-03-10", 24 * time.Hour},
	}
	for _, tt := range tests {
		ct := mustClubTime(t, tt.zone)
		day, err := ct.ParseDay(tt.day)
		if err != nil {
			t.Fatal(err)
		}
		start, end := ct.DayRange(day)
		if !start.Before(end) {
			t.Errorf("%s %s: start %v not before end %v", tt.zone, tt.day, start, end)
		}
		if got := end.Sub(start) + time.Second; got != tt.want {
			t.Errorf("%s %s: day length %v, want %v", tt.zone, tt.day, got, tt.want)
		}
	}
}

func TestParseDayRejectsGarbage(t *testing.T) {
	ct := mustClubTime(t, "UTC")
	for _, in := range []string{"", "2024/03/01", "01-03-2024", "2024-02-30"} {
		if _, err := ct.ParseDay(in); err == nil {
			t.Errorf("ParseDay(%q) should fail", in)
		}
	}
}

func TestToday(t *testing.T) {
	ct := mustClubTime(t, "America/Cancun")
	now := time.Date(2024, 3, 2, 3, 0, 0, 0, time.UTC)
	if got := ct.Today(now).Format(dayLayout); got != "2024-03-01" {
		t.Errorf("Today = %s, want 2024-03-01", got)
	}
}
