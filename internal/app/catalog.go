package app

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

type ToolName string

const (
	ToolOccupancyForDate  ToolName = "get_occupancy_for_date"
	ToolOccupancyForRange ToolName = "get_occupancy_for_range"
	ToolRevenueSummary    ToolName = "get_revenue_summary"
	ToolMemberInsights    ToolName = "get_member_insights"
	ToolOperationalAlerts ToolName = "get_operational_alerts"
	ToolAvailableSlots    ToolName = "get_available_slots"
	ToolBookingDetails    ToolName = "get_booking_details"
)

var (
	ErrUnknownTool   = errors.New("unknown tool")
	ErrInvalidParams = errors.New("invalid tool arguments")
)

// ToolSpec is one catalog entry as handed to the model: a JSON schema
// object for Parameters.
type ToolSpec struct {
	Name        ToolName
	Description string
	Parameters  map[string]any
}

func dateProp(desc string) map[string]any {
	return map[string]any{"type": "string", "description": desc}
}

func rangeSchema(what string) map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"start_date": dateProp("Start date of the " + what + " in YYYY-MM-DD format"),
			"end_date":   dateProp("End date of the " + what + " in YYYY-MM-DD format (inclusive)"),
		},
		"required": []string{"start_date", "end_date"},
	}
}

func daySchema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"date": dateProp("The date to look at in YYYY-MM-DD format"),
		},
		"required": []string{"date"},
	}
}

// Catalog returns the seven tools in a fixed order. A fresh copy is built
// on every call so callers cannot change it for each other.
func Catalog() []ToolSpec {
	return []ToolSpec{
		{
			Name: ToolOccupancyForDate,
			Description: "Get court occupancy and booking detail for one specific date: how full the club is, " +
				"which courts are booked and how many slots are still open. Use when the user asks how busy a given day is.",
			Parameters: daySchema(),
		},
		{
			Name: ToolOccupancyForRange,
			Description: "Get a court occupancy summary over a range of days with a daily breakdown, bookings per court " +
				"and the busiest and quietest day. Use for questions about a week, a weekend or any date range.",
			Parameters: rangeSchema("period"),
		},
		{
			Name: ToolRevenueSummary,
			Description: "Get revenue for a date range: total revenue, average booking value, and revenue by payment status, " +
				"by court and by day. Use for questions about income, billing or financial performance.",
			Parameters: rangeSchema("period"),
		},
		{
			Name: ToolMemberInsights,
			Description: "Get member and player insights: registered players, active players in the period, top bookers, " +
				"booking frequency and the padel level distribution. Use for questions about members, players or customers.",
			Parameters: rangeSchema("analysis"),
		},
		{
			Name: ToolOperationalAlerts,
			Description: "Get operational alerts: cancellation rate, peak and quiet hours, booking type and weekday distribution, " +
				"and unpaid bookings. Use for questions about cancellations, peak times or operational health.",
			Parameters: rangeSchema("period"),
		},
		{
			Name: ToolAvailableSlots,
			Description: "Get the open (unbooked) slots for a specific date, grouped by court. " +
				"Use when the user asks about availability or free times.",
			Parameters: daySchema(),
		},
		{
			Name: ToolBookingDetails,
			Description: "Get detailed bookings for a date including player and participant names, court, times, price and payment status. " +
				"Can filter by court name and/or player name. Use when the user asks WHO played on a court, who booked on a day, " +
				"or anything about specific bookings and participants.",
			Parameters: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"date": dateProp("The date to look at in YYYY-MM-DD format"),
					"court_name": map[string]any{
						"type":        "string",
						"description": "Optional: filter by court name (partial, case-insensitive match). E.g. 'Hirostar', 'Court 1'",
					},
					"player_name": map[string]any{
						"type":        "string",
						"description": "Optional: filter by player name (partial, case-insensitive match). E.g. 'Axel', 'Molina'",
					},
					"include_canceled": map[string]any{
						"type":        "boolean",
						"description": "Whether to include canceled bookings. Defaults to false.",
					},
				},
				"required": []string{"date"},
			},
		},
	}
}

type DateArgs struct {
	Date string `json:"date" validate:"required,datetime=2006-01-02"`
}

type RangeArgs struct {
	StartDate string `json:"start_date" validate:"required,datetime=2006-01-02"`
	EndDate   string `json:"end_date" validate:"required,datetime=2006-01-02"`
}

func (r RangeArgs) Period() Period { return Period{Start: r.StartDate, End: r.EndDate} }

type BookingDetailsArgs struct {
	Date            string  `json:"date" validate:"required,datetime=2006-01-02"`
	CourtName       *string `json:"court_name,omitempty" validate:"omitempty,max=100"`
	PlayerName      *string `json:"player_name,omitempty" validate:"omitempty,max=100"`
	IncludeCanceled bool    `json:"include_canceled,omitempty"`
}

// Invocation is a decoded, validated tool call. The concrete types below are
// the only implementations.
type Invocation interface {
	Tool() ToolName
	invocation()
}

type OccupancyForDateCall struct{ DateArgs }
type OccupancyForRangeCall struct{ RangeArgs }
type RevenueSummaryCall struct{ RangeArgs }
type MemberInsightsCall struct{ RangeArgs }
type OperationalAlertsCall struct{ RangeArgs }
type AvailableSlotsCall struct{ DateArgs }
type BookingDetailsCall struct{ BookingDetailsArgs }

func (OccupancyForDateCall) Tool() ToolName  { return ToolOccupancyForDate }
func (OccupancyForRangeCall) Tool() ToolName { return ToolOccupancyForRange }
func (RevenueSummaryCall) Tool() ToolName    { return ToolRevenueSummary }
func (MemberInsightsCall) Tool() ToolName    { return ToolMemberInsights }
func (OperationalAlertsCall) Tool() ToolName { return ToolOperationalAlerts }
func (AvailableSlotsCall) Tool() ToolName    { return ToolAvailableSlots }
func (BookingDetailsCall) Tool() ToolName    { return ToolBookingDetails }

func (OccupancyForDateCall) invocation()  {}
func (OccupancyForRangeCall) invocation() {}
func (RevenueSummaryCall) invocation()    {}
func (MemberInsightsCall) invocation()    {}
func (OperationalAlertsCall) invocation() {}
func (AvailableSlotsCall) invocation()    {}
func (BookingDetailsCall) invocation()    {}

var validate = validator.New()

// DecodeInvocation turns a model tool call into a typed Invocation. Unknown
// names wrap ErrUnknownTool; bad JSON or failed validation wrap
// ErrInvalidParams.
func DecodeInvocation(name string, arguments string) (Invocation, error) {
	switch ToolName(name) {
	case ToolOccupancyForDate:
		var a DateArgs
		if err := decodeArgs(arguments, &a); err != nil {
			return nil, err
		}
		return OccupancyForDateCall{a}, nil
	case ToolAvailableSlots:
		var a DateArgs
		if err := decodeArgs(arguments, &a); err != nil {
			return nil, err
		}
		return AvailableSlotsCall{a}, nil
	case ToolOccupancyForRange, ToolRevenueSummary, ToolMemberInsights, ToolOperationalAlerts:
		var a RangeArgs
		if err := decodeArgs(arguments, &a); err != nil {
			return nil, err
		}
		if a.EndDate < a.StartDate {
			return nil, fmt.Errorf("%w: end_date %s is before start_date %s", ErrInvalidParams, a.EndDate, a.StartDate)
		}
		switch ToolName(name) {
		case ToolOccupancyForRange:
			return OccupancyForRangeCall{a}, nil
		case ToolRevenueSummary:
			return RevenueSummaryCall{a}, nil
		case ToolMemberInsights:
			return MemberInsightsCall{a}, nil
		default:
			return OperationalAlertsCall{a}, nil
		}
	case ToolBookingDetails:
		var a BookingDetailsArgs
		if err := decodeArgs(arguments, &a); err != nil {
			return nil, err
		}
		return BookingDetailsCall{a}, nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownTool, name)
	}
}

func decodeArgs(arguments string, dst any) error {
	raw := strings.TrimSpace(arguments)
	if raw == "" {
		raw = "{}"
	}
	dec := json.NewDecoder(bytes.NewReader([]byte(raw)))
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidParams, err)
	}
	if err := validate.Struct(dst); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidParams, err)
	}
	return nil
}
