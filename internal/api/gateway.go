package api

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"league-tracker/internal/config"
	"league-tracker/internal/constants"
	"league-tracker/internal/metrics"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"
	"github.com/valyala/fasthttp"
	"golang.org/x/sync/singleflight"
)

type Options struct {
	Budget          int           // requests allowed per Window
	Window          time.Duration // sliding window length
	MinSpacing      time.Duration
	PrioritySpacing time.Duration
	CacheTTL        time.Duration
	MaxRetries      int
	BackoffBase     time.Duration
	BackoffMax      time.Duration

	// BaseURL replaces the riotgames.com host for every endpoint when set.
	BaseURL string
	Clock   clockwork.Clock
}

func DefaultOptions() Options {
	return Options{
		Budget:          int(constants.DefaultRateLimitQuota * constants.DefaultRateHeadroom),
		Window:          constants.RateLimitWindow,
		MinSpacing:      constants.MinRequestSpacing,
		PrioritySpacing: constants.PriorityRequestSpacing,
		CacheTTL:        constants.GatewayCacheTTL,
		MaxRetries:      constants.GatewayMaxRetries,
		BackoffBase:     constants.GatewayBackoffBase,
		BackoffMax:      constants.GatewayBackoffMax,
		Clock:           clockwork.NewRealClock(),
	}
}

type Stats struct {
	Requests    int64 `json:"requests"`
	CacheHits   int64 `json:"cache_hits"`
	CacheMisses int64 `json:"cache_misses"`
	Stalls      int64 `json:"rate_limit_stalls"`
	Retries     int64 `json:"retries"`
	Throttled   int64 `json:"throttled"`
	Shared      int64 `json:"shared_fetches"`
}

type cacheEntry struct {
	payload    []byte
	insertedAt time.Time
}

// Gateway is the only path to the Riot API. All rate limit bookkeeping,
// cached responses and credential latches belong to the instance.
type Gateway struct {
	apiKey  string
	client  *fasthttp.Client
	opts    Options
	clock   clockwork.Clock
	logger  zerolog.Logger
	metrics metrics.TrackerMetrics
	flight  singleflight.Group

	mu       sync.Mutex
	slots    []time.Time // granted slots inside the window, ascending
	lastSlot time.Time
	cache    map[string]cacheEntry
	latched  map[Family]time.Time
	stats    Stats
}

func NewGateway(cfg *config.Config, clock clockwork.Clock, logger zerolog.Logger, m metrics.TrackerMetrics) *Gateway {
	opts := DefaultOptions()
	opts.Clock = clock
	opts.Budget = cfg.RateLimitBudget()
	opts.MinSpacing = cfg.MinRequestSpacing
	opts.PrioritySpacing = cfg.PriorityRequestSpacing
	opts.CacheTTL = cfg.CacheTTL
	opts.MaxRetries = cfg.MaxRetries
	return New(cfg.RiotAPIKey, opts, logger, m)
}

func New(apiKey string, opts Options, logger zerolog.Logger, m metrics.TrackerMetrics) *Gateway {
	if opts.Clock == nil {
		opts.Clock = clockwork.NewRealClock()
	}
	if opts.Budget < 1 {
		opts.Budget = 1
	}
	return &Gateway{
		apiKey: apiKey,
		client: &fasthttp.Client{
			MaxConnsPerHost:     100,
			ReadTimeout:         constants.ExternalAPITimeout,
			WriteTimeout:        constants.ExternalAPITimeout,
			MaxIdleConnDuration: 1 * time.Minute,
		},
		opts:    opts,
		clock:   opts.Clock,
		logger:  logger.With().Str("component", "gateway").Logger(),
		metrics: m,
		cache:   make(map[string]cacheEntry),
		latched: make(map[Family]time.Time),
	}
}

func (g *Gateway) Stats() Stats {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.stats
}

// LatchedFamilies returns the endpoint families currently refused because
// upstream rejected the credentials, with the time each latch was set.
func (g *Gateway) LatchedFamilies() map[Family]time.Time {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make(map[Family]time.Time, len(g.latched))
	for f, at := range g.latched {
		out[f] = at
	}
	return out
}

// ResetCredentials clears the latch for family, or for every family when
// family is empty.
func (g *Gateway) ResetCredentials(family Family) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if family == "" {
		g.latched = make(map[Family]time.Time)
	} else {
		delete(g.latched, family)
	}
	g.logger.Info().Str("family", string(family)).Msg("credential latch cleared")
}

// Fetch returns the raw body for req. A 404 is reported as ErrNotFound and
// a 429 is retried after the upstream delay without consuming a retry.
func (g *Gateway) Fetch(ctx context.Context, req Request) ([]byte, error) {
	family := req.Endpoint.Family

	if g.isLatched(family) {
		g.metrics.GatewayRequest(string(family), "latched")
		return nil, fmt.Errorf("%s: %w", req.Endpoint.Name, ErrCredentialsInvalid)
	}

	if !req.Endpoint.Cacheable {
		return g.fetch(ctx, req)
	}

	key := req.cacheKey()
	if payload, ok := g.cached(key); ok {
		g.metrics.GatewayRequest(string(family), "cache_hit")
		return payload, nil
	}

	// Identical cacheable requests in flight share one upstream call.
	v, err, shared := g.flight.Do(key, func() (any, error) {
		if payload, ok := g.peek(key); ok {
			return payload, nil
		}
		return g.fetch(ctx, req)
	})
	if shared {
		g.bump(func(s *Stats) { s.Shared++ })
	}
	if err != nil {
		return nil, err
	}
	return v.([]byte), nil
}

func (g *Gateway) fetch(ctx context.Context, req Request) ([]byte, error) {
	family := req.Endpoint.Family

	uri, err := g.url(req)
	if err != nil {
		return nil, err
	}

	attempt := 0
	for {
		if err := g.waitForSlot(ctx, req.Endpoint); err != nil {
			return nil, err
		}

		status, body, retryAfter, err := g.do(ctx, uri)
		switch {
		case err != nil || status >= fasthttp.StatusInternalServerError:
			if attempt >= g.opts.MaxRetries {
				g.metrics.GatewayRequest(string(family), "error")
				return nil, &UpstreamError{Endpoint: req.Endpoint.Name, StatusCode: status, Attempts: attempt + 1, Err: err}
			}
			backoff := g.backoff(attempt)
			attempt++
			g.bump(func(s *Stats) { s.Retries++ })
			g.logger.Warn().
				Err(err).
				Int("status", status).
				Str("endpoint", req.Endpoint.Name).
				Int("attempt", attempt).
				Dur("backoff", backoff).
				Msg("upstream call failed, retrying")
			if err := g.sleep(ctx, backoff); err != nil {
				return nil, err
			}

		case status == fasthttp.StatusTooManyRequests:
			g.bump(func(s *Stats) { s.Throttled++ })
			g.metrics.GatewayRequest(string(family), "throttled")
			g.logger.Warn().
				Str("endpoint", req.Endpoint.Name).
				Dur("retry_after", retryAfter).
				Msg("throttled by upstream")
			if err := g.sleep(ctx, retryAfter); err != nil {
				return nil, err
			}

		case status == fasthttp.StatusNotFound:
			g.metrics.GatewayRequest(string(family), "not_found")
			return nil, ErrNotFound

		case status == fasthttp.StatusBadRequest:
			g.metrics.GatewayRequest(string(family), "bad_request")
			return nil, &RequestError{Endpoint: req.Endpoint.Name, Params: req.Params, Body: string(body)}

		case status == fasthttp.StatusUnauthorized || status == fasthttp.StatusForbidden:
			g.latch(family)
			g.metrics.GatewayRequest(string(family), "unauthorized")
			g.logger.Error().
				Int("status", status).
				Str("family", string(family)).
				Str("endpoint", req.Endpoint.Name).
				Msg("upstream rejected credentials, latching endpoint family")
			return nil, fmt.Errorf("%s: %w", req.Endpoint.Name, ErrCredentialsInvalid)

		case status == fasthttp.StatusOK:
			if req.Endpoint.Cacheable {
				g.store(req.cacheKey(), body)
			}
			g.metrics.GatewayRequest(string(family), "ok")
			return body, nil

		default:
			g.metrics.GatewayRequest(string(family), "error")
			return nil, &UpstreamError{Endpoint: req.Endpoint.Name, StatusCode: status, Attempts: attempt + 1}
		}
	}
}

// reserve hands out the next slot that keeps both the spacing and the
// sliding window budget, records it, and returns the slot with how long the
// caller has to wait for it. Slots are granted in call order.
func (g *Gateway) reserve(priority bool) (time.Time, time.Duration) {
	g.mu.Lock()
	defer g.mu.Unlock()

	now := g.clock.Now()

	cutoff := now.Add(-g.opts.Window)
	keep := 0
	for keep < len(g.slots) && !g.slots[keep].After(cutoff) {
		keep++
	}
	g.slots = g.slots[keep:]

	at := now
	spacing := g.opts.MinSpacing
	if priority {
		spacing = g.opts.PrioritySpacing
	}
	if !g.lastSlot.IsZero() {
		if next := g.lastSlot.Add(spacing); next.After(at) {
			at = next
		}
	}
	if len(g.slots) >= g.opts.Budget {
		if next := g.slots[len(g.slots)-g.opts.Budget].Add(g.opts.Window); next.After(at) {
			at = next
		}
	}

	g.slots = append(g.slots, at)
	g.lastSlot = at
	g.stats.Requests++

	wait := at.Sub(now)
	if wait > 0 {
		g.stats.Stalls++
	}
	return at, wait
}

// release gives back a slot whose caller stopped waiting before using it.
func (g *Gateway) release(slot time.Time) {
	g.mu.Lock()
	defer g.mu.Unlock()

	for i := len(g.slots) - 1; i >= 0; i-- {
		if g.slots[i].Equal(slot) {
			g.slots = append(g.slots[:i], g.slots[i+1:]...)
			g.stats.Requests--
			break
		}
	}
	if g.lastSlot.Equal(slot) {
		if n := len(g.slots); n > 0 {
			g.lastSlot = g.slots[n-1]
		} else {
			g.lastSlot = time.Time{}
		}
	}
}

func (g *Gateway) waitForSlot(ctx context.Context, endpoint Endpoint) error {
	slot, wait := g.reserve(endpoint.Priority)
	if wait <= 0 {
		return nil
	}
	g.metrics.GatewayStall(string(endpoint.Family), wait)
	g.logger.Debug().Str("endpoint", endpoint.Name).Dur("wait", wait).Msg("waiting for rate limit slot")
	if err := g.sleep(ctx, wait); err != nil {
		g.release(slot)
		return err
	}
	return nil
}

func (g *Gateway) sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-g.clock.After(d):
		return nil
	}
}

func (g *Gateway) backoff(attempt int) time.Duration {
	d := g.opts.BackoffBase << attempt
	if d > g.opts.BackoffMax || d <= 0 {
		return g.opts.BackoffMax
	}
	return d
}

func (g *Gateway) cached(key string) ([]byte, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()

	payload, ok := g.lookup(key)
	if ok {
		g.stats.CacheHits++
	} else {
		g.stats.CacheMisses++
	}
	return payload, ok
}

// peek is cached without touching the hit and miss counters.
func (g *Gateway) peek(key string) ([]byte, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.lookup(key)
}

// lookup expects g.mu to be held.
func (g *Gateway) lookup(key string) ([]byte, bool) {
	entry, ok := g.cache[key]
	if ok && g.clock.Since(entry.insertedAt) < g.opts.CacheTTL {
		return entry.payload, true
	}
	if ok {
		delete(g.cache, key)
	}
	return nil, false
}

func (g *Gateway) store(key string, payload []byte) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.cache[key] = cacheEntry{payload: payload, insertedAt: g.clock.Now()}
}

func (g *Gateway) isLatched(family Family) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	_, ok := g.latched[family]
	return ok
}

func (g *Gateway) latch(family Family) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, ok := g.latched[family]; !ok {
		g.latched[family] = g.clock.Now()
	}
}

func (g *Gateway) bump(fn func(*Stats)) {
	g.mu.Lock()
	defer g.mu.Unlock()
	fn(&g.stats)
}

func (g *Gateway) url(req Request) (string, error) {
	if g.opts.BaseURL != "" {
		return g.opts.BaseURL + req.path(), nil
	}
	host, err := Host(req.Endpoint, req.Platform)
	if err != nil {
		return "", err
	}
	return "https://" + host + ".api.riotgames.com" + req.path(), nil
}

// do performs one GET. The body is copied out of the pooled response.
func (g *Gateway) do(ctx context.Context, uri string) (int, []byte, time.Duration, error) {
	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(uri)
	req.Header.SetMethod(fasthttp.MethodGet)
	req.Header.Set("X-Riot-Token", g.apiKey)
	req.Header.Set("Accept", "application/json")

	deadline, ok := ctx.Deadline()
	if !ok {
		deadline = time.Now().Add(constants.ExternalAPITimeout)
	}
	if err := g.client.DoDeadline(req, resp, deadline); err != nil {
		return 0, nil, 0, err
	}

	retryAfter := constants.DefaultRetryAfter
	if raw := string(resp.Header.Peek("Retry-After")); raw != "" {
		if secs, err := strconv.Atoi(raw); err == nil && secs >= 0 {
			retryAfter = time.Duration(secs) * time.Second
		}
	}

	body := append([]byte(nil), resp.Body()...)
	return resp.StatusCode(), body, retryAfter, nil
}
