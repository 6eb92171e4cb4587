package distance

import (
	"context"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"freightmatch/internal"
	"freightmatch/internal/config"
)

// Client looks up road distance between two addresses. Distance is advisory:
// every failure maps to nil, never to an error, and scoring treats a nil
// distance as unknown.
type Client struct {
	cfg        config.Config
	httpClient *http.Client
}

type routeResponse struct {
	Miles        float64 `json:"miles"`
	Km           float64 `json:"km"`
	DurationText string  `json:"durationText"`
}

func NewClient(cfg config.Config) *Client {
	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: time.Duration(cfg.DistanceTimeoutMs) * time.Millisecond},
	}
}

// RouteDistance returns nil when the service is not configured, unreachable,
// or answers with anything unusable.
func (c *Client) RouteDistance(ctx context.Context, origin, destination string) *internal.RouteDistance {
	if strings.TrimSpace(c.cfg.DistanceBaseURL) == "" {
		return nil
	}
	origin = strings.TrimSpace(origin)
	destination = strings.TrimSpace(destination)
	if origin == "" || destination == "" {
		return nil
	}

	u, err := url.Parse(strings.TrimRight(c.cfg.DistanceBaseURL, "/") + "/route")
	if err != nil {
		return nil
	}
	q := u.Query()
	q.Set("origin", origin)
	q.Set("destination", destination)
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		log.Printf("distance lookup failed: %v", err)
		return nil
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		log.Printf("distance lookup status %d", resp.StatusCode)
		return nil
	}

	var parsed routeResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil
	}
	if parsed.Miles <= 0 {
		return nil
	}
	if parsed.Km <= 0 {
		parsed.Km = parsed.Miles * 1.60934
	}
	return &internal.RouteDistance{Miles: parsed.Miles, Km: parsed.Km, DurationText: parsed.DurationText}
}

// ResolveMiles picks the best available mileage for a quote: caller-provided
// first, then the stored field, then a live lookup, else nil.
func (c *Client) ResolveMiles(ctx context.Context, q internal.Quote, provided *float64) *float64 {
	if provided != nil && *provided > 0 {
		return provided
	}
	if q.TotalDistanceMiles != nil && *q.TotalDistanceMiles > 0 {
		return q.TotalDistanceMiles
	}
	if route := c.RouteDistance(ctx, QuoteOrigin(q), QuoteDestination(q)); route != nil {
		return &route.Miles
	}
	return nil
}

// QuoteOrigin renders the origin as a lookup address, most specific first.
func QuoteOrigin(q internal.Quote) string {
	return joinParts(q.OriginCity, q.OriginState, q.OriginCountry)
}

func QuoteDestination(q internal.Quote) string {
	return joinParts(q.DestCity, q.DestState, q.DestCountry)
}

func joinParts(parts ...*string) string {
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p == nil {
			continue
		}
		if v := strings.TrimSpace(*p); v != "" {
			out = append(out, v)
		}
	}
	return strings.Join(out, ", ")
}
