package app

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"padel-assistant/internal/playtomic"
)

const (
	unknownLabel          = "UNKNOWN"
	unknownName           = "Unknown"
	cancellationThreshold = 15.0
	topBookersLimit       = 10
	hourListLimit         = 5
)

var weekdays = [7]string{"Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday", "Sunday"}

// Period is an inclusive span of club calendar days.
type Period struct {
	Start string
	End   string
}

func (p Period) String() string { return p.Start + " to " + p.End }

// parsePrice reads the leading numeric token of "10 EUR". Anything
// unreadable counts as zero.
func parsePrice(p playtomic.Price) float64 {
	fields := strings.Fields(string(p))
	if len(fields) == 0 {
		return 0
	}
	v, err := strconv.ParseFloat(fields[0], 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

// priceCurrency returns the currency code following the amount, if any.
func priceCurrency(p playtomic.Price) string {
	fields := strings.Fields(string(p))
	if len(fields) < 2 {
		return ""
	}
	return strings.ToUpper(fields[1])
}

func round1(v float64) float64 { return math.Round(v*10) / 10 }
func round2(v float64) float64 { return math.Round(v*100) / 100 }

func orUnknown(s string) string {
	if strings.TrimSpace(s) == "" {
		return unknownLabel
	}
	return s
}

func courtName(b playtomic.Booking) string {
	if strings.TrimSpace(b.ResourceName) == "" {
		return unknownName
	}
	return b.ResourceName
}

func playerNames(b playtomic.Booking) []string {
	var names []string
	for _, p := range b.ParticipantInfo.Participants {
		if n := strings.TrimSpace(p.Name); n != "" {
			names = append(names, n)
		}
	}
	if len(names) == 0 {
		return []string{unknownName}
	}
	return names
}

func splitCanceled(bookings []playtomic.Booking) (active, canceled []playtomic.Booking) {
	for _, b := range bookings {
		if b.IsCanceled {
			canceled = append(canceled, b)
		} else {
			active = append(active, b)
		}
	}
	return active, canceled
}

// currencyOf picks the first currency code seen in the prices, else fallback.
func currencyOf(bookings []playtomic.Booking, fallback string) string {
	for _, b := range bookings {
		if c := priceCurrency(b.Price); c != "" {
			return c
		}
	}
	return fallback
}

func (c ClubTime) timeWindow(b playtomic.Booking) string {
	return c.Readable(b.StartDate) + " - " + c.Readable(b.EndDate)
}

// BuildOccupancyForDate groups the day's active bookings by court and
// compares them with the open slots. avail may be empty when the
// availability fetch failed.
func BuildOccupancyForDate(ct ClubTime, day string, bookings []playtomic.Booking, avail Fetched[[]playtomic.AvailabilityResource]) OccupancyForDate {
	view := OccupancyForDate{
		Date:                   day,
		Timezone:               ct.Zone(),
		Courts:                 map[string]CourtOccupancy{},
		AvailableSlotsPerCourt: map[string]int{},
		AvailabilityKnown:      avail.OK(),
	}

	active, _ := splitCanceled(bookings)
	for _, b := range active {
		court := courtName(b)
		co := view.Courts[court]
		co.TimeSlots = append(co.TimeSlots, BookingSlot{
			Time:          ct.timeWindow(b),
			StartISO:      ct.LocalISO(b.StartDate),
			Players:       playerNames(b),
			Type:          orUnknown(b.BookingType),
			Status:        orUnknown(b.Status),
			PaymentStatus: orUnknown(b.PaymentStatus),
			Price:         string(b.Price),
		})
		co.BookingsCount = len(co.TimeSlots)
		view.Courts[court] = co
	}

	for _, r := range avail.Data {
		id := r.ResourceID
		if id == "" {
			id = unknownName
		}
		view.AvailableSlotsPerCourt[id] += len(r.Slots)
		view.TotalAvailableSlots += len(r.Slots)
	}

	view.TotalBookings = len(active)
	view.OccupancyPercentage = occupancy(view.TotalBookings, view.TotalAvailableSlots)
	return view
}

func occupancy(booked, available int) float64 {
	if booked+available <= 0 {
		return 0
	}
	return round1(float64(booked) / float64(booked+available) * 100)
}

// BuildOccupancyForRange counts bookings per local day and per court.
func BuildOccupancyForRange(ct ClubTime, p Period, bookings []playtomic.Booking) OccupancyForRange {
	active, canceled := splitCanceled(bookings)
	view := OccupancyForRange{
		Period:          p.String(),
		Timezone:        ct.Zone(),
		TotalBookings:   len(active),
		TotalCanceled:   len(canceled),
		DailyBreakdown:  map[string]int{},
		BookingsByCourt: map[string]int{},
		BusiestDay:      "N/A",
		QuietestDay:     "N/A",
	}
	for _, b := range active {
		if d := ct.LocalDate(b.StartDate); d != "" {
			view.DailyBreakdown[d]++
		}
		view.BookingsByCourt[courtName(b)]++
	}

	days := sortedKeys(view.DailyBreakdown)
	for i, d := range days {
		n := view.DailyBreakdown[d]
		if i == 0 || n > view.DailyBreakdown[view.BusiestDay] {
			view.BusiestDay = d
		}
		if i == 0 || n < view.DailyBreakdown[view.QuietestDay] {
			view.QuietestDay = d
		}
	}
	return view
}

// BuildRevenueSummary sums active booking prices. Sums run in full precision
// and are rounded once on the way out.
func BuildRevenueSummary(ct ClubTime, p Period, bookings []playtomic.Booking, currency string) RevenueSummary {
	active, _ := splitCanceled(bookings)

	type acc struct {
		count int
		sum   float64
	}
	byStatus := map[string]*acc{}
	byCourt := map[string]*acc{}
	daily := map[string]float64{}
	var total float64

	add := func(m map[string]*acc, key string, v float64) {
		a := m[key]
		if a == nil {
			a = &acc{}
			m[key] = a
		}
		a.count++
		a.sum += v
	}

	for _, b := range active {
		v := parsePrice(b.Price)
		total += v
		add(byStatus, orUnknown(b.PaymentStatus), v)
		add(byCourt, courtName(b), v)
		if d := ct.LocalDate(b.StartDate); d != "" {
			daily[d] += v
		}
	}

	view := RevenueSummary{
		Period:          p.String(),
		Timezone:        ct.Zone(),
		Currency:        currencyOf(active, currency),
		TotalRevenue:    round2(total),
		TotalBookings:   len(active),
		ByPaymentStatus: make(map[string]RevenueBucket, len(byStatus)),
		ByCourt:         make(map[string]RevenueBucket, len(byCourt)),
		DailyRevenue:    make(map[string]float64, len(daily)),
	}
	if len(active) > 0 {
		view.AverageBookingValue = round2(total / float64(len(active)))
	}
	for k, a := range byStatus {
		view.ByPaymentStatus[k] = RevenueBucket{Count: a.count, Revenue: round2(a.sum)}
	}
	for k, a := range byCourt {
		view.ByCourt[k] = RevenueBucket{Count: a.count, Revenue: round2(a.sum)}
	}
	for k, v := range daily {
		view.DailyRevenue[k] = round2(v)
	}
	return view
}

// BuildMemberInsights ranks participants by bookings in the period and
// histograms the roster's levels for sportID. roster may be empty when the
// roster fetch failed.
func BuildMemberInsights(ct ClubTime, p Period, bookings []playtomic.Booking, roster Fetched[[]playtomic.Player], sportID string) MemberInsights {
	active, _ := splitCanceled(bookings)

	var order []*TopBooker
	byID := map[string]*TopBooker{}
	for _, b := range active {
		for _, part := range b.ParticipantInfo.Participants {
			id := part.ParticipantID
			if id == "" {
				id = "unknown"
			}
			tb := byID[id]
			if tb == nil {
				name := strings.TrimSpace(part.Name)
				if name == "" {
					name = unknownName
				}
				tb = &TopBooker{ID: id, Name: name}
				byID[id] = tb
				order = append(order, tb)
			}
			tb.Count++
		}
	}

	// Stable sort keeps first-seen order among equal counts.
	sort.SliceStable(order, func(i, j int) bool { return order[i].Count > order[j].Count })
	top := make([]TopBooker, 0, topBookersLimit)
	for i := 0; i < len(order) && i < topBookersLimit; i++ {
		top = append(top, *order[i])
	}

	levels := map[string]int{}
	for _, pl := range roster.Data {
		for _, s := range pl.Sports {
			if !strings.EqualFold(s.SportID, sportID) || s.LevelValue == nil {
				continue
			}
			levels[strconv.FormatFloat(*s.LevelValue, 'f', 1, 64)]++
		}
	}

	view := MemberInsights{
		Period:                 p.String(),
		Timezone:               ct.Zone(),
		TotalRegisteredPlayers: len(roster.Data),
		RosterAvailable:        roster.OK(),
		ActivePlayersInPeriod:  len(byID),
		TopBookers:             top,
		TotalBookings:          len(active),
		LevelDistribution:      levels,
	}
	if len(byID) > 0 {
		view.AvgBookingsPerActivePlayer = round1(float64(len(active)) / float64(len(byID)))
	}
	return view
}

// BuildOperationalAlerts looks at cancellations, hourly load, unpaid
// bookings and the weekday spread, and phrases what stands out.
func BuildOperationalAlerts(ct ClubTime, p Period, bookings []playtomic.Booking, currency string) OperationalAlerts {
	active, canceled := splitCanceled(bookings)

	view := OperationalAlerts{
		Period:                  p.String(),
		Timezone:                ct.Zone(),
		Currency:                currencyOf(active, currency),
		TotalBookings:           len(active),
		TotalCanceled:           len(canceled),
		PeakHours:               []HourCount{},
		QuietHours:              []HourCount{},
		BookingTypeDistribution: map[string]int{},
		Alerts:                  []string{},
	}
	if len(bookings) > 0 {
		view.CancellationRatePct = round1(float64(len(canceled)) / float64(len(bookings)) * 100)
	}

	hours := map[int]int{}
	var dow [7]int
	var unpaid float64
	for _, b := range active {
		if t, ok := ct.Local(b.StartDate); ok {
			hours[t.Hour()]++
			// time.Weekday is Sunday-first; shift to Monday-first.
			dow[(int(t.Weekday())+6)%7]++
		}
		view.BookingTypeDistribution[orUnknown(b.BookingType)]++
		switch strings.ToUpper(b.PaymentStatus) {
		case "UNPAID", "PENDING":
			view.UnpaidBookings++
			unpaid += parsePrice(b.Price)
		}
	}
	view.UnpaidRevenue = round2(unpaid)

	ranked := make([]HourCount, 0, len(hours))
	for _, h := range sortedHours(hours) {
		ranked = append(ranked, HourCount{Hour: fmt.Sprintf("%02d:00", h), Bookings: hours[h]})
	}
	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].Bookings > ranked[j].Bookings })
	for i := 0; i < len(ranked) && i < hourListLimit; i++ {
		view.PeakHours = append(view.PeakHours, ranked[i])
	}
	if len(ranked) >= hourListLimit {
		quiet := make([]HourCount, len(ranked))
		copy(quiet, ranked)
		sort.SliceStable(quiet, func(i, j int) bool { return quiet[i].Bookings < quiet[j].Bookings })
		view.QuietHours = append(view.QuietHours, quiet[:hourListLimit]...)
	}

	view.DayOfWeekDistribution = make([]WeekdayCount, len(weekdays))
	for i, name := range weekdays {
		view.DayOfWeekDistribution[i] = WeekdayCount{Day: name, Bookings: dow[i]}
	}

	if view.CancellationRatePct > cancellationThreshold {
		view.Alerts = append(view.Alerts, fmt.Sprintf("High cancellation rate: %.1f%% (above the %.0f%% threshold)", view.CancellationRatePct, cancellationThreshold))
	}
	if view.UnpaidRevenue > 0 {
		view.Alerts = append(view.Alerts, fmt.Sprintf("Unpaid or pending revenue: %.2f %s across %d bookings", view.UnpaidRevenue, view.Currency, view.UnpaidBookings))
	}
	if len(view.QuietHours) > 0 {
		view.Alerts = append(view.Alerts, "Most underused hour: "+view.QuietHours[0].Hour)
	}
	return view
}

// BuildBookingDetails lists the day's bookings with full participant detail,
// narrowed by the optional case-insensitive court and player filters.
func BuildBookingDetails(ct ClubTime, args BookingDetailsArgs, bookings []playtomic.Booking) BookingDetails {
	courtQ := strings.ToLower(strings.TrimSpace(deref(args.CourtName)))
	playerQ := strings.ToLower(strings.TrimSpace(deref(args.PlayerName)))

	view := BookingDetails{
		Date:     args.Date,
		Timezone: ct.Zone(),
		FiltersApplied: DetailFilters{
			CourtName:       nonEmpty(args.CourtName),
			PlayerName:      nonEmpty(args.PlayerName),
			IncludeCanceled: args.IncludeCanceled,
		},
		Bookings: []BookingDetail{},
	}

	for _, b := range bookings {
		if b.IsCanceled && !args.IncludeCanceled {
			continue
		}
		court := courtName(b)
		if courtQ != "" && !strings.Contains(strings.ToLower(court), courtQ) {
			continue
		}
		players := playerNames(b)
		if playerQ != "" && !anyContains(players, playerQ) {
			continue
		}

		details := make([]ParticipantDetail, 0, len(b.ParticipantInfo.Participants))
		for _, part := range b.ParticipantInfo.Participants {
			name := strings.TrimSpace(part.Name)
			if name == "" {
				name = unknownName
			}
			details = append(details, ParticipantDetail{Name: name, Email: part.Email, Type: orUnknown(part.ParticipantType)})
		}

		view.Bookings = append(view.Bookings, BookingDetail{
			Court:              court,
			Time:               ct.timeWindow(b),
			StartISO:           ct.LocalISO(b.StartDate),
			Players:            players,
			ParticipantDetails: details,
			BookingType:        orUnknown(b.BookingType),
			Status:             orUnknown(b.Status),
			IsCanceled:         b.IsCanceled,
			Price:              string(b.Price),
			PaymentStatus:      orUnknown(b.PaymentStatus),
			Origin:             orUnknown(b.Origin),
		})
	}

	sort.SliceStable(view.Bookings, func(i, j int) bool {
		a, b := view.Bookings[i], view.Bookings[j]
		if a.Court != b.Court {
			return a.Court < b.Court
		}
		return a.StartISO < b.StartISO
	})
	view.TotalBookings = len(view.Bookings)
	return view
}

func anyContains(names []string, q string) bool {
	for _, n := range names {
		if strings.Contains(strings.ToLower(n), q) {
			return true
		}
	}
	return false
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func nonEmpty(s *string) *string {
	if s == nil || strings.TrimSpace(*s) == "" {
		return nil
	}
	v := *s
	return &v
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func sortedHours(m map[int]int) []int {
	hs := make([]int, 0, len(m))
	for h := range m {
		hs = append(hs, h)
	}
	sort.Ints(hs)
	return hs
}
