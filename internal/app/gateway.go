package app

import (
	"context"
	"time"

	"padel-assistant/internal/playtomic"
)

// Gateway is the booking platform as the tools see it. *playtomic.Client
// satisfies it.
type Gateway interface {
	Bookings(ctx context.Context, tenantID string, utcStart, utcEnd time.Time, f playtomic.BookingFilter) ([]playtomic.Booking, error)
	Availability(ctx context.Context, tenantID, sportID, day string) ([]playtomic.AvailabilityResource, error)
	Players(ctx context.Context, venueID string) ([]playtomic.Player, error)
	Tenant(ctx context.Context, tenantID string) (playtomic.Tenant, error)
}

// Fetched carries the result of an optional fetch. Data is the zero value
// when Err is set; builders read Data either way.
type Fetched[T any] struct {
	Data T
	Err  error
}

func (f Fetched[T]) OK() bool { return f.Err == nil }

func fetched[T any](v T, err error) Fetched[T] {
	if err != nil {
		var zero T
		return Fetched[T]{Data: zero, Err: err}
	}
	return Fetched[T]{Data: v}
}
