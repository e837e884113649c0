package app

// Views are the typed outputs of the builders. They are serialized only when
// handed to the model or to the HTTP client.

type BookingSlot struct {
	Time          string   `json:"time"`
	StartISO      string   `json:"start_iso"`
	Players       []string `json:"players"`
	Type          string   `json:"type"`
	Status        string   `json:"status"`
	PaymentStatus string   `json:"payment_status"`
	Price         string   `json:"price"`
}

type CourtOccupancy struct {
	BookingsCount int           `json:"bookings_count"`
	TimeSlots     []BookingSlot `json:"time_slots"`
}

type OccupancyForDate struct {
	Date                   string                    `json:"date"`
	Timezone               string                    `json:"timezone"`
	TotalBookings          int                       `json:"total_bookings"`
	TotalAvailableSlots    int                       `json:"total_available_slots"`
	OccupancyPercentage    float64                   `json:"occupancy_percentage"`
	Courts                 map[string]CourtOccupancy `json:"courts"`
	AvailableSlotsPerCourt map[string]int            `json:"available_slots_per_court"`
	AvailabilityKnown      bool                      `json:"availability_known"`
}

type OccupancyForRange struct {
	Period          string         `json:"period"`
	Timezone        string         `json:"timezone"`
	TotalBookings   int            `json:"total_bookings"`
	TotalCanceled   int            `json:"total_canceled"`
	DailyBreakdown  map[string]int `json:"daily_breakdown"`
	BookingsByCourt map[string]int `json:"bookings_by_court"`
	BusiestDay      string         `json:"busiest_day"`
	QuietestDay     string         `json:"quietest_day"`
}

type RevenueBucket struct {
	Count   int     `json:"count"`
	Revenue float64 `json:"revenue"`
}

type RevenueSummary struct {
	Period              string                   `json:"period"`
	Timezone            string                   `json:"timezone"`
	Currency            string                   `json:"currency"`
	TotalRevenue        float64                  `json:"total_revenue"`
	TotalBookings       int                      `json:"total_bookings"`
	AverageBookingValue float64                  `json:"average_booking_value"`
	ByPaymentStatus     map[string]RevenueBucket `json:"by_payment_status"`
	ByCourt             map[string]RevenueBucket `json:"by_court"`
	DailyRevenue        map[string]float64       `json:"daily_revenue"`
}

type TopBooker struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Count int    `json:"count"`
}

type MemberInsights struct {
	Period                     string         `json:"period"`
	Timezone                   string         `json:"timezone"`
	TotalRegisteredPlayers     int            `json:"total_registered_players"`
	RosterAvailable            bool           `json:"roster_available"`
	ActivePlayersInPeriod      int            `json:"active_players_in_period"`
	TopBookers                 []TopBooker    `json:"top_bookers"`
	TotalBookings              int            `json:"total_bookings"`
	AvgBookingsPerActivePlayer float64        `json:"avg_bookings_per_active_player"`
	LevelDistribution          map[string]int `json:"padel_level_distribution"`
}

type HourCount struct {
	Hour     string `json:"hour"`
	Bookings int    `json:"bookings"`
}

type WeekdayCount struct {
	Day      string `json:"day"`
	Bookings int    `json:"bookings"`
}

type OperationalAlerts struct {
	Period                  string         `json:"period"`
	Timezone                string         `json:"timezone"`
	Currency                string         `json:"currency"`
	TotalBookings           int            `json:"total_bookings"`
	TotalCanceled           int            `json:"total_canceled"`
	CancellationRatePct     float64        `json:"cancellation_rate_pct"`
	PeakHours               []HourCount    `json:"peak_hours"`
	QuietHours              []HourCount    `json:"quiet_hours"`
	BookingTypeDistribution map[string]int `json:"booking_type_distribution"`
	DayOfWeekDistribution   []WeekdayCount `json:"day_of_week_distribution"`
	UnpaidBookings          int            `json:"unpaid_bookings"`
	UnpaidRevenue           float64        `json:"unpaid_revenue"`
	Alerts                  []string       `json:"alerts"`
}

type OpenSlot struct {
	StartTime   string `json:"start_time"`
	EndTime     string `json:"end_time,omitempty"`
	DurationMin int    `json:"duration_min"`
	Price       string `json:"price"`
}

type CourtSlots struct {
	CourtName string     `json:"court_name,omitempty"`
	Count     int        `json:"count"`
	Slots     []OpenSlot `json:"slots"`
}

type AvailableSlots struct {
	Date                   string                `json:"date"`
	TotalAvailableSlots    int                   `json:"total_available_slots"`
	CourtsWithAvailability int                   `json:"courts_with_availability"`
	SlotsByCourt           map[string]CourtSlots `json:"slots_by_court"`
}

type ParticipantDetail struct {
	Name  string `json:"name"`
	Email string `json:"email,omitempty"`
	Type  string `json:"type"`
}

type BookingDetail struct {
	Court              string              `json:"court"`
	Time               string              `json:"time"`
	StartISO           string              `json:"start_iso"`
	Players            []string            `json:"players"`
	ParticipantDetails []ParticipantDetail `json:"participant_details"`
	BookingType        string              `json:"booking_type"`
	Status             string              `json:"status"`
	IsCanceled         bool                `json:"is_canceled"`
	Price              string              `json:"price"`
	PaymentStatus      string              `json:"payment_status"`
	Origin             string              `json:"origin"`
}

type DetailFilters struct {
	CourtName       *string `json:"court_name"`
	PlayerName      *string `json:"player_name"`
	IncludeCanceled bool    `json:"include_canceled"`
}

type BookingDetails struct {
	Date           string          `json:"date"`
	Timezone       string          `json:"timezone"`
	FiltersApplied DetailFilters   `json:"filters_applied"`
	TotalBookings  int             `json:"total_bookings"`
	Bookings       []BookingDetail `json:"bookings"`
}
