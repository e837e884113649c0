package playtomic

import (
	"bytes"
	"encoding/json"
	"strconv"
)

// Price is the platform's combined amount and currency string ("10 EUR").
// Numbers and nulls are accepted as well so one odd record cannot fail a page.
type Price string

func (p *Price) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	switch {
	case len(b) == 0 || bytes.Equal(b, []byte("null")):
		*p = ""
	case b[0] == '"':
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*p = Price(s)
	default:
		f, err := strconv.ParseFloat(string(b), 64)
		if err != nil {
			*p = ""
			return nil
		}
		*p = Price(strconv.FormatFloat(f, 'f', -1, 64))
	}
	return nil
}

type Booking struct {
	BookingID       string          `json:"booking_id,omitempty"`
	ResourceID      string          `json:"resource_id"`
	ResourceName    string          `json:"resource_name"`
	StartDate       string          `json:"booking_start_date"`
	EndDate         string          `json:"booking_end_date"`
	IsCanceled      bool            `json:"is_canceled"`
	Status          string          `json:"status"`
	BookingType     string          `json:"booking_type"`
	PaymentStatus   string          `json:"payment_status"`
	Price           Price           `json:"price"`
	Origin          string          `json:"origin,omitempty"`
	ParticipantInfo ParticipantInfo `json:"participant_info"`
}

type ParticipantInfo struct {
	Participants []Participant `json:"participants"`
}

type Participant struct {
	ParticipantID   string `json:"participant_id"`
	Name            string `json:"name"`
	Email           string `json:"email,omitempty"`
	ParticipantType string `json:"participant_type"`
}

// BookingFilter narrows a bookings query. Empty fields are not sent.
type BookingFilter struct {
	SportID     string
	BookingType string
	Status      string
}

type AvailabilityResource struct {
	ResourceID string `json:"resource_id"`
	StartDate  string `json:"start_date"`
	Slots      []Slot `json:"slots"`
}

type Slot struct {
	StartTime string `json:"start_time"`
	Duration  int    `json:"duration"`
	Price     Price  `json:"price"`
}

type Player struct {
	PlayerID string        `json:"player_id"`
	Name     string        `json:"name"`
	Email    string        `json:"email,omitempty"`
	Sports   []PlayerSport `json:"sports,omitempty"`
}

type PlayerSport struct {
	SportID    string   `json:"sport_id"`
	LevelValue *float64 `json:"level_value"`
}

type Tenant struct {
	TenantID   string     `json:"tenant_id"`
	TenantName string     `json:"tenant_name"`
	Address    Address    `json:"address"`
	Resources  []Resource `json:"resources,omitempty"`
}

type Address struct {
	Street  string `json:"street"`
	City    string `json:"city"`
	Country string `json:"country"`
}

type Resource struct {
	ResourceID string `json:"resource_id"`
	Name       string `json:"name"`
	SportID    string `json:"sport_id"`
}

// TenantQuery searches the public venue directory by name or by location.
type TenantQuery struct {
	Name    string
	Lat     float64
	Lon     float64
	RadiusM int
	SportID string
	Size    int
}

type playersPage struct {
	Data         []Player `json:"data"`
	HasMore      bool     `json:"has_more"`
	NextCursorID string   `json:"next_cursor_id"`
}
