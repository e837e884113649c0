package app

import (
	"context"
	"fmt"
	"log/slog"

	"padel-assistant/internal/playtomic"
)

type ToolboxConfig struct {
	TenantID string
	VenueID  string
	SportID  string
	Currency string
}

// Toolbox runs decoded invocations against the gateway and hands the raw
// records to the builders. It holds no state between calls.
type Toolbox struct {
	gw    Gateway
	clock ClubTime
	cfg   ToolboxConfig
	log   *slog.Logger
}

func NewToolbox(gw Gateway, clock ClubTime, cfg ToolboxConfig, log *slog.Logger) *Toolbox {
	if cfg.VenueID == "" {
		cfg.VenueID = cfg.TenantID
	}
	if cfg.SportID == "" {
		cfg.SportID = "PADEL"
	}
	if cfg.Currency == "" {
		cfg.Currency = "EUR"
	}
	if log == nil {
		log = slog.Default()
	}
	return &Toolbox{gw: gw, clock: clock, cfg: cfg, log: log}
}

// Execute returns the view for inv. Errors come only from the primary
// bookings or availability fetch, or from unusable dates.
func (t *Toolbox) Execute(ctx context.Context, inv Invocation) (any, error) {
	switch call := inv.(type) {
	case OccupancyForDateCall:
		bookings, err := t.dayBookings(ctx, call.Date)
		if err != nil {
			return nil, err
		}
		avail := t.optionalAvailability(ctx, call.Date)
		return BuildOccupancyForDate(t.clock, call.Date, bookings, avail), nil

	case OccupancyForRangeCall:
		bookings, err := t.rangeBookings(ctx, call.RangeArgs)
		if err != nil {
			return nil, err
		}
		return BuildOccupancyForRange(t.clock, call.Period(), bookings), nil

	case RevenueSummaryCall:
		bookings, err := t.rangeBookings(ctx, call.RangeArgs)
		if err != nil {
			return nil, err
		}
		return BuildRevenueSummary(t.clock, call.Period(), bookings, t.cfg.Currency), nil

	case MemberInsightsCall:
		players, perr := t.gw.Players(ctx, t.cfg.VenueID)
		roster := fetched(players, perr)
		if !roster.OK() {
			t.log.Warn("player roster unavailable", "venue_id", t.cfg.VenueID, "error", roster.Err)
		}
		bookings, err := t.rangeBookings(ctx, call.RangeArgs)
		if err != nil {
			return nil, err
		}
		return BuildMemberInsights(t.clock, call.Period(), bookings, roster, t.cfg.SportID), nil

	case OperationalAlertsCall:
		bookings, err := t.rangeBookings(ctx, call.RangeArgs)
		if err != nil {
			return nil, err
		}
		return BuildOperationalAlerts(t.clock, call.Period(), bookings, t.cfg.Currency), nil

	case AvailableSlotsCall:
		if _, err := t.clock.ParseDay(call.Date); err != nil {
			return nil, err
		}
		avail, err := t.gw.Availability(ctx, t.cfg.TenantID, t.cfg.SportID, call.Date)
		if err != nil {
			return nil, err
		}
		names := map[string]string{}
		club, terr := t.gw.Tenant(ctx, t.cfg.TenantID)
		tenant := fetched(club, terr)
		if tenant.OK() {
			names = courtNames(tenant.Data)
		} else {
			t.log.Debug("court names unavailable", "tenant_id", t.cfg.TenantID, "error", tenant.Err)
		}
		return BuildAvailableSlots(call.Date, avail, names), nil

	case BookingDetailsCall:
		bookings, err := t.dayBookings(ctx, call.Date)
		if err != nil {
			return nil, err
		}
		return BuildBookingDetails(t.clock, call.BookingDetailsArgs, bookings), nil

	default:
		return nil, fmt.Errorf("%w: %T", ErrUnknownTool, inv)
	}
}

func (t *Toolbox) dayBookings(ctx context.Context, day string) ([]playtomic.Booking, error) {
	d, err := t.clock.ParseDay(day)
	if err != nil {
		return nil, err
	}
	from, to := t.clock.DayRange(d)
	return t.gw.Bookings(ctx, t.cfg.TenantID, from, to, playtomic.BookingFilter{SportID: t.cfg.SportID})
}

func (t *Toolbox) rangeBookings(ctx context.Context, r RangeArgs) ([]playtomic.Booking, error) {
	start, err := t.clock.ParseDay(r.StartDate)
	if err != nil {
		return nil, err
	}
	end, err := t.clock.ParseDay(r.EndDate)
	if err != nil {
		return nil, err
	}
	from, to := t.clock.SpanRange(start, end)
	return t.gw.Bookings(ctx, t.cfg.TenantID, from, to, playtomic.BookingFilter{SportID: t.cfg.SportID})
}

func (t *Toolbox) optionalAvailability(ctx context.Context, day string) Fetched[[]playtomic.AvailabilityResource] {
	resources, err := t.gw.Availability(ctx, t.cfg.TenantID, t.cfg.SportID, day)
	avail := fetched(resources, err)
	if !avail.OK() {
		t.log.Warn("availability unavailable, occupancy uses bookings only", "date", day, "error", avail.Err)
	}
	return avail
}
