package playtomic

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/oauth2"
)

const (
	DefaultAPIURL       = "https://thirdparty.playtomic.io/api/v1"
	DefaultPublicAPIURL = "https://api.playtomic.io/v1"

	timestampLayout = "2006-01-02T15:04:05"
)

// APIError is a non-2xx answer from the platform.
type APIError struct {
	StatusCode int
	Path       string
	Body       string
}

func (e *APIError) Error() string {
	body := strings.TrimSpace(e.Body)
	if len(body) > 200 {
		body = body[:200] + "..."
	}
	if body == "" {
		return fmt.Sprintf("playtomic %s: status %d", e.Path, e.StatusCode)
	}
	return fmt.Sprintf("playtomic %s: status %d: %s", e.Path, e.StatusCode, body)
}

type Config struct {
	APIURL          string
	PublicAPIURL    string
	ClientID        string
	ClientSecret    string
	Timeout         time.Duration
	TokenMargin     time.Duration
	PageSize        int
	PlayersPageSize int

	// Transport is the base round tripper; nil means http.DefaultTransport.
	Transport http.RoundTripper
}

// Client reads bookings, availability and players from the platform.
// Authenticated calls share one cached bearer token.
type Client struct {
	cfg    Config
	tokens oauth2.TokenSource
	authed *http.Client
	public *http.Client
}

func New(cfg Config) *Client {
	if cfg.APIURL == "" {
		cfg.APIURL = DefaultAPIURL
	}
	if cfg.PublicAPIURL == "" {
		cfg.PublicAPIURL = DefaultPublicAPIURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.TokenMargin < 0 {
		cfg.TokenMargin = 0
	}
	if cfg.PageSize <= 0 {
		cfg.PageSize = 200
	}
	if cfg.PlayersPageSize <= 0 {
		cfg.PlayersPageSize = 100
	}
	base := cfg.Transport
	if base == nil {
		base = http.DefaultTransport
	}
	cfg.APIURL = strings.TrimRight(cfg.APIURL, "/")
	cfg.PublicAPIURL = strings.TrimRight(cfg.PublicAPIURL, "/")

	plain := &http.Client{Transport: base, Timeout: cfg.Timeout}
	src := &tokenSource{
		client:   plain,
		url:      cfg.APIURL + "/oauth/token",
		clientID: cfg.ClientID,
		secret:   cfg.ClientSecret,
	}
	tokens := oauth2.ReuseTokenSourceWithExpiry(nil, src, cfg.TokenMargin)

	return &Client{
		cfg:    cfg,
		tokens: tokens,
		authed: &http.Client{
			Transport: &oauth2.Transport{Source: tokens, Base: base},
			Timeout:   cfg.Timeout,
		},
		public: plain,
	}
}

// Bookings returns every booking of the tenant starting in [utcStart, utcEnd].
// Pages are requested until one comes back shorter than the page size.
func (c *Client) Bookings(ctx context.Context, tenantID string, utcStart, utcEnd time.Time, f BookingFilter) ([]Booking, error) {
	sport := f.SportID
	if sport == "" {
		sport = "PADEL"
	}
	var all []Booking
	for page := 0; ; page++ {
		q := url.Values{}
		q.Set("tenant_id", tenantID)
		q.Set("start_booking_date", utcStart.UTC().Format(timestampLayout))
		q.Set("end_booking_date", utcEnd.UTC().Format(timestampLayout))
		q.Set("sport_id", sport)
		q.Set("page", strconv.Itoa(page))
		q.Set("size", strconv.Itoa(c.cfg.PageSize))
		if f.BookingType != "" {
			q.Set("booking_type", f.BookingType)
		}
		if f.Status != "" {
			q.Set("status", f.Status)
		}

		var batch []Booking
		if err := c.get(ctx, c.authed, c.cfg.APIURL, "/bookings", q, &batch); err != nil {
			return nil, fmt.Errorf("bookings page %d: %w", page, err)
		}
		all = append(all, batch...)
		if len(batch) < c.cfg.PageSize {
			return all, nil
		}
	}
}

// Availability lists unbooked slots for one local day. The public endpoint
// needs no token and accepts at most a ~25h window, so the day is the unit.
func (c *Client) Availability(ctx context.Context, tenantID, sportID, day string) ([]AvailabilityResource, error) {
	if sportID == "" {
		sportID = "PADEL"
	}
	q := url.Values{}
	q.Set("tenant_id", tenantID)
	q.Set("sport_id", sportID)
	q.Set("local_start_min", day+"T00:00:00")
	q.Set("local_start_max", day+"T23:59:59")

	var out []AvailabilityResource
	if err := c.get(ctx, c.public, c.cfg.PublicAPIURL, "/availability", q, &out); err != nil {
		return nil, fmt.Errorf("availability %s: %w", day, err)
	}
	return out, nil
}

// Players walks the venue roster cursor until the platform stops returning one.
func (c *Client) Players(ctx context.Context, venueID string) ([]Player, error) {
	var (
		all    []Player
		cursor string
	)
	path := "/venues/" + url.PathEscape(venueID) + "/players"
	for {
		q := url.Values{}
		q.Set("limit", strconv.Itoa(c.cfg.PlayersPageSize))
		q.Set("include", "BENEFITS,SPORTS,WALLETS")
		if cursor != "" {
			q.Set("cursor_id", cursor)
		}

		var page playersPage
		if err := c.get(ctx, c.authed, c.cfg.APIURL, path, q, &page); err != nil {
			return nil, fmt.Errorf("players: %w", err)
		}
		all = append(all, page.Data...)
		if !page.HasMore || page.NextCursorID == "" || page.NextCursorID == cursor {
			return all, nil
		}
		cursor = page.NextCursorID
	}
}

// Tenant fetches the public club profile, including its courts.
func (c *Client) Tenant(ctx context.Context, tenantID string) (Tenant, error) {
	var t Tenant
	if err := c.get(ctx, c.public, c.cfg.PublicAPIURL, "/tenants/"+url.PathEscape(tenantID), nil, &t); err != nil {
		return Tenant{}, fmt.Errorf("tenant %s: %w", tenantID, err)
	}
	return t, nil
}

// SearchTenants looks clubs up in the public directory, by name when one is
// given and otherwise around a coordinate.
func (c *Client) SearchTenants(ctx context.Context, tq TenantQuery) ([]Tenant, error) {
	if tq.SportID == "" {
		tq.SportID = "PADEL"
	}
	q := url.Values{}
	q.Set("sport_id", tq.SportID)
	q.Set("playtomic_status", "ACTIVE")
	switch {
	case tq.Name != "":
		if tq.Size <= 0 {
			tq.Size = 50
		}
		q.Set("tenant_name", tq.Name)
	case tq.Lat != 0 || tq.Lon != 0:
		if tq.Size <= 0 {
			tq.Size = 20
		}
		if tq.RadiusM <= 0 {
			tq.RadiusM = 50000
		}
		q.Set("coordinate", strconv.FormatFloat(tq.Lat, 'f', -1, 64)+","+strconv.FormatFloat(tq.Lon, 'f', -1, 64))
		q.Set("radius", strconv.Itoa(tq.RadiusM))
	default:
		if tq.Size <= 0 {
			tq.Size = 20
		}
	}
	q.Set("size", strconv.Itoa(tq.Size))

	var out []Tenant
	if err := c.get(ctx, c.public, c.cfg.PublicAPIURL, "/tenants", q, &out); err != nil {
		return nil, fmt.Errorf("search tenants: %w", err)
	}
	return out, nil
}

// Ping checks the credentials by exchanging them for a token and reading a
// single booking of the last hour.
func (c *Client) Ping(ctx context.Context, tenantID string) error {
	if _, err := c.tokens.Token(); err != nil {
		return err
	}
	now := time.Now().UTC()
	q := url.Values{}
	q.Set("tenant_id", tenantID)
	q.Set("start_booking_date", now.Add(-time.Hour).Format(timestampLayout))
	q.Set("end_booking_date", now.Format(timestampLayout))
	q.Set("page", "0")
	q.Set("size", "1")
	var batch []Booking
	return c.get(ctx, c.authed, c.cfg.APIURL, "/bookings", q, &batch)
}

func (c *Client) get(ctx context.Context, hc *http.Client, base, path string, q url.Values, out any) error {
	u := base + path
	if len(q) > 0 {
		u += "?" + q.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := hc.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return &APIError{StatusCode: resp.StatusCode, Path: path, Body: string(msg)}
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil && err != io.EOF {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}
