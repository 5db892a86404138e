// Package openinghours talks to the external opening-hours service and
// caches its answers in Redis. The service is the source of truth for
// when a unit's resource is open; reservations outside its spans are
// rejected unless the unit opts out of opening hours entirely.
package openinghours

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"booking-core/internal/domain/scheduling"
	"booking-core/internal/pkg/config"
	"booking-core/internal/pkg/errs"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

type Client struct {
	baseURL string
	http    *http.Client
	redis   *redis.Client
	ttl     time.Duration
}

func NewClient(cfg config.OpeningHoursConfig, redisClient *redis.Client, cacheTTL time.Duration) *Client {
	return &Client{
		baseURL: cfg.BaseURL,
		http:    &http.Client{Timeout: cfg.Timeout},
		redis:   redisClient,
		ttl:     cacheTTL,
	}
}

type span struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

type spansResponse struct {
	Spans []span `json:"spans"`
}

func (c *Client) ReservableSpans(ctx context.Context, unitID uuid.UUID, from, to time.Time) ([]scheduling.ReservableSpan, error) {
	key := cacheKey(unitID, from, to)

	if cached, ok := c.fromCache(ctx, key); ok {
		return cached, nil
	}

	spans, err := c.fetch(ctx, unitID, from, to)
	if err != nil {
		return nil, err
	}

	c.store(ctx, key, spans)
	return spans, nil
}

func (c *Client) fetch(ctx context.Context, unitID uuid.UUID, from, to time.Time) ([]scheduling.ReservableSpan, error) {
	endpoint := fmt.Sprintf("%s/v1/resources/%s/opening-hours", c.baseURL, unitID)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, errs.Wrap(err, "failed to build opening hours request")
	}
	query := url.Values{}
	query.Set("start", from.UTC().Format(time.RFC3339))
	query.Set("end", to.UTC().Format(time.RFC3339))
	req.URL.RawQuery = query.Encode()

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, errs.Wrap(err, "opening hours request failed")
	}
	defer func() { _, _ = io.Copy(io.Discard, resp.Body); _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, errs.New(fmt.Sprintf("opening hours service returned status %d", resp.StatusCode))
	}

	var payload spansResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, errs.Wrap(err, "failed to decode opening hours response")
	}

	spans := make([]scheduling.ReservableSpan, 0, len(payload.Spans))
	for _, s := range payload.Spans {
		spans = append(spans, scheduling.ReservableSpan{Start: s.Start, End: s.End})
	}
	return spans, nil
}

// fromCache is best effort: a broken cache must never fail a lookup.
func (c *Client) fromCache(ctx context.Context, key string) ([]scheduling.ReservableSpan, bool) {
	if c.redis == nil {
		return nil, false
	}

	raw, err := c.redis.Get(ctx, key).Bytes()
	if err != nil {
		if err != redis.Nil {
			slog.Warn("opening hours cache read failed", "key", key, "error", err)
		}
		return nil, false
	}

	var cached []span
	if err := json.Unmarshal(raw, &cached); err != nil {
		slog.Warn("opening hours cache entry corrupt", "key", key, "error", err)
		return nil, false
	}

	spans := make([]scheduling.ReservableSpan, 0, len(cached))
	for _, s := range cached {
		spans = append(spans, scheduling.ReservableSpan{Start: s.Start, End: s.End})
	}
	return spans, true
}

func (c *Client) store(ctx context.Context, key string, spans []scheduling.ReservableSpan) {
	if c.redis == nil {
		return
	}

	cached := make([]span, 0, len(spans))
	for _, s := range spans {
		cached = append(cached, span{Start: s.Start, End: s.End})
	}
	raw, err := json.Marshal(cached)
	if err != nil {
		return
	}
	if err := c.redis.Set(ctx, key, raw, c.ttl).Err(); err != nil {
		slog.Warn("opening hours cache write failed", "key", key, "error", err)
	}
}

func cacheKey(unitID uuid.UUID, from, to time.Time) string {
	return fmt.Sprintf("opening_hours:%s:%d:%d", unitID, from.Unix(), to.Unix())
}
