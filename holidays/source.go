/*
source.go - Bank-holiday source with TTL cache

PURPOSE:
  Fetches the gov.uk bank-holidays dataset and caches it for a bounded
  time (1 hour by default). All three divisions arrive in one response,
  so one fetch serves every division lookup until the cache goes stale.

CACHE CONTRACT:
  - Fresh cache (now - FetchedAt < TTL): served as-is, no network access.
  - Stale or empty cache: one fetch is performed. On success the
    snapshot and timestamp are replaced; on failure NEITHER is touched
    and the caller gets ErrFetchFailed. A prior snapshot is not served
    as a fallback to the failing caller - failure is surfaced, and the
    old snapshot only remains reachable within its own TTL window.
  - Concurrent callers during an in-flight fetch share that single
    request via singleflight; no duplicate network calls.

SEE ALSO:
  - types.go: Division, Event, Snapshot
  - calendar: the Date keys used in lookups
*/
package holidays

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/AntObr/holiday-planner/calendar"
)

const (
	// DefaultURL is the public gov.uk bank-holidays dataset.
	DefaultURL = "https://www.gov.uk/bank-holidays.json"

	// DefaultTTL bounds how long a snapshot is served without refetching.
	DefaultTTL = time.Hour

	// DefaultUpcomingLimit caps Upcoming when the caller passes limit <= 0.
	DefaultUpcomingLimit = 5

	defaultHTTPTimeout = 10 * time.Second
)

// ErrFetchFailed is the sentinel for any failed dataset refresh:
// transport errors, non-2xx responses, and malformed bodies all wrap it.
var ErrFetchFailed = errors.New("bank holiday fetch failed")

// FetchError carries the detail behind an ErrFetchFailed.
type FetchError struct {
	URL        string
	StatusCode int // 0 when the request never completed
	Cause      error
}

func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("bank holiday fetch failed: %s returned status %d", e.URL, e.StatusCode)
	}
	return fmt.Sprintf("bank holiday fetch failed: %s: %v", e.URL, e.Cause)
}

func (e *FetchError) Unwrap() error { return ErrFetchFailed }

// =============================================================================
// SOURCE
// =============================================================================

// Source fetches and caches the bank-holiday dataset. Construct with
// NewSource and pass the instance to whoever needs holiday lookups;
// there is deliberately no package-level instance.
type Source struct {
	url    string
	ttl    time.Duration
	client *http.Client
	logger *zap.Logger
	now    func() time.Time

	mu       sync.RWMutex
	snapshot *Snapshot

	flight singleflight.Group
}

// Option customizes a Source.
type Option func(*Source)

// WithURL overrides the upstream endpoint.
func WithURL(url string) Option { return func(s *Source) { s.url = url } }

// WithTTL overrides the cache staleness bound.
func WithTTL(ttl time.Duration) Option { return func(s *Source) { s.ttl = ttl } }

// WithHTTPClient overrides the HTTP client.
func WithHTTPClient(c *http.Client) Option { return func(s *Source) { s.client = c } }

// WithClock overrides the time source. Tests use this to move the
// cache across its TTL boundary without sleeping.
func WithClock(now func() time.Time) Option { return func(s *Source) { s.now = now } }

// NewSource creates a Source with its own empty cache.
func NewSource(logger *zap.Logger, opts ...Option) *Source {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Source{
		url:    DefaultURL,
		ttl:    DefaultTTL,
		client: &http.Client{Timeout: defaultHTTPTimeout},
		logger: logger,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// =============================================================================
// FETCH + CACHE
// =============================================================================

// BankHolidays returns the current snapshot, fetching from upstream
// only when the cache is empty or older than the TTL. Safe for
// concurrent use; concurrent refreshes collapse into one request.
func (s *Source) BankHolidays(ctx context.Context) (*Snapshot, error) {
	if snap := s.cached(); snap != nil {
		s.logger.Debug("serving cached bank holidays",
			zap.Time("fetched_at", snap.FetchedAt))
		return snap, nil
	}

	// Everyone who misses the cache at the same time joins one flight.
	v, err, _ := s.flight.Do("bank-holidays", func() (interface{}, error) {
		// Re-check under the flight: a waiter may arrive just after the
		// winner already refreshed the cache.
		if snap := s.cached(); snap != nil {
			return snap, nil
		}

		// The flight serves every concurrent waiter, so the fetch must
		// not die with the winning caller's request context. The HTTP
		// client's own timeout still bounds it.
		snap, err := s.fetch(context.WithoutCancel(ctx))
		if err != nil {
			// Cache and timestamp stay untouched on failure.
			s.logger.Warn("bank holiday fetch failed", zap.Error(err))
			return nil, err
		}

		s.mu.Lock()
		s.snapshot = snap
		s.mu.Unlock()

		s.logger.Info("bank holidays fetched",
			zap.Time("fetched_at", snap.FetchedAt))
		return snap, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Snapshot), nil
}

// LastSnapshot returns whatever snapshot the cache currently holds,
// regardless of age. A failed refresh never clears it; diagnostics and
// tests use this to observe that.
func (s *Source) LastSnapshot() (*Snapshot, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshot, s.snapshot != nil
}

// cached returns the snapshot if it is still within its TTL.
func (s *Source) cached() *Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.snapshot == nil {
		return nil
	}
	if s.now().Sub(s.snapshot.FetchedAt) >= s.ttl {
		return nil
	}
	return s.snapshot
}

// divisionPayload mirrors the upstream JSON shape for one division.
type divisionPayload struct {
	Division string `json:"division"`
	Events   []struct {
		Title   string `json:"title"`
		Date    string `json:"date"`
		Notes   string `json:"notes"`
		Bunting bool   `json:"bunting"`
	} `json:"events"`
}

// fetch performs one upstream request for all three divisions.
func (s *Source) fetch(ctx context.Context) (*Snapshot, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return nil, &FetchError{URL: s.url, Cause: err}
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, &FetchError{URL: s.url, Cause: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &FetchError{URL: s.url, StatusCode: resp.StatusCode}
	}

	var payload map[string]divisionPayload
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, &FetchError{URL: s.url, Cause: fmt.Errorf("malformed body: %w", err)}
	}

	events := make(map[Division][]Event, len(Divisions()))
	for _, division := range Divisions() {
		raw, ok := payload[string(division)]
		if !ok {
			return nil, &FetchError{URL: s.url, Cause: fmt.Errorf("malformed body: missing division %q", division)}
		}
		evs := make([]Event, 0, len(raw.Events))
		for _, e := range raw.Events {
			date, err := calendar.ParseISO(e.Date)
			if err != nil {
				return nil, &FetchError{URL: s.url, Cause: fmt.Errorf("malformed body: %w", err)}
			}
			evs = append(evs, Event{Title: e.Title, Date: date, Notes: e.Notes, Bunting: e.Bunting})
		}
		events[division] = evs
	}

	return newSnapshot(events, s.now()), nil
}

// =============================================================================
// LOOKUPS
// =============================================================================

// DivisionLookup returns one division's date -> title mapping.
func (s *Source) DivisionLookup(ctx context.Context, division Division) (map[calendar.Date]string, error) {
	snap, err := s.BankHolidays(ctx)
	if err != nil {
		return nil, err
	}
	return snap.Lookup(division), nil
}

// Upcoming returns at most limit bank holidays for a division dated
// today or later, ascending. limit <= 0 means DefaultUpcomingLimit.
func (s *Source) Upcoming(ctx context.Context, division Division, limit int) ([]Event, error) {
	snap, err := s.BankHolidays(ctx)
	if err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = DefaultUpcomingLimit
	}

	today := calendar.FromTime(s.now())
	upcoming := make([]Event, 0, limit)
	for _, ev := range snap.Events(division) {
		if !ev.Date.Before(today) {
			upcoming = append(upcoming, ev)
		}
	}
	sort.Slice(upcoming, func(i, j int) bool {
		return upcoming[i].Date.Before(upcoming[j].Date)
	})
	if len(upcoming) > limit {
		upcoming = upcoming[:limit]
	}
	return upcoming, nil
}
