package screening

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// DefaultErrorMessage is shown when a failed fetch carries no message.
const DefaultErrorMessage = "Erro ao carregar"

// State is a snapshot of what the admin screen shows.
type State struct {
	Records   []*Screening `json:"records"`
	Error     string       `json:"error,omitempty"`
	Loading   bool         `json:"loading"`
	Loaded    bool         `json:"loaded"`
	FetchedAt time.Time    `json:"fetchedAt,omitempty"`
}

type invalidator interface {
	Invalidate(ctx context.Context, limit int) error
}

// DefaultFetchTimeout bounds a fetch when no timeout is configured.
const DefaultFetchTimeout = 15 * time.Second

// FetcherOption configures a Fetcher.
type FetcherOption func(*Fetcher)

// WithMaxAge sets how old the loaded list may get before Load fetches again.
// Zero makes every Load fetch.
func WithMaxAge(d time.Duration) FetcherOption {
	return func(f *Fetcher) { f.maxAge = d }
}

// WithFetchTimeout bounds each fetch. Fetches are detached from the caller's
// cancellation, so this is the only limit on how long one may run.
func WithFetchTimeout(d time.Duration) FetcherOption {
	return func(f *Fetcher) {
		if d > 0 {
			f.timeout = d
		}
	}
}

// Fetcher owns the loaded screening list. Every fetch is tagged with a
// generation number; a result is applied only if no newer fetch has already
// been applied, so a slow response can never replace fresher data.
type Fetcher struct {
	src     Source
	limit   int
	maxAge  time.Duration
	timeout time.Duration
	logger  zerolog.Logger
	now     func() time.Time

	mu          sync.Mutex
	state       State
	inFlight    int
	issued      uint64
	applied     uint64
	attemptedAt time.Time
}

// NewFetcher builds a Fetcher that loads at most limit records. Limits
// outside 1..DefaultLimit are clamped.
func NewFetcher(src Source, limit int, logger zerolog.Logger, opts ...FetcherOption) *Fetcher {
	if limit <= 0 || limit > DefaultLimit {
		limit = DefaultLimit
	}
	f := &Fetcher{src: src, limit: limit, timeout: DefaultFetchTimeout, logger: logger, now: time.Now}
	for _, o := range opts {
		o(f)
	}
	return f
}

// Limit returns the maximum number of records requested per fetch.
func (f *Fetcher) Limit() int { return f.limit }

// Snapshot returns the current state without fetching.
func (f *Fetcher) Snapshot() State {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.snapshotLocked()
}

// EnsureLoaded runs the initial fetch if none has been started yet, and
// otherwise returns the current state.
func (f *Fetcher) EnsureLoaded(ctx context.Context) State {
	f.mu.Lock()
	if f.issued > 0 {
		defer f.mu.Unlock()
		return f.snapshotLocked()
	}
	gen := f.beginLocked()
	f.mu.Unlock()
	return f.run(ctx, gen, false)
}

// Load is what opening the screen does: it fetches through any cache when
// nothing has been fetched yet or the last attempt is older than the max
// age, and otherwise returns the current state. It never starts a second
// fetch while one is in flight.
func (f *Fetcher) Load(ctx context.Context) State {
	f.mu.Lock()
	stale := f.issued == 0 || (f.inFlight == 0 && f.now().Sub(f.attemptedAt) >= f.maxAge)
	if !stale {
		defer f.mu.Unlock()
		return f.snapshotLocked()
	}
	gen := f.beginLocked()
	f.mu.Unlock()
	return f.run(ctx, gen, false)
}

// Refresh fetches again, bypassing any cache in front of the source.
func (f *Fetcher) Refresh(ctx context.Context) State {
	f.mu.Lock()
	gen := f.beginLocked()
	f.mu.Unlock()
	return f.run(ctx, gen, true)
}

func (f *Fetcher) beginLocked() uint64 {
	f.issued++
	f.inFlight++
	f.attemptedAt = f.now()
	f.state.Loading = true
	return f.issued
}

func (f *Fetcher) run(ctx context.Context, gen uint64, bypassCache bool) State {
	// The list is shared by every viewer, so one client going away must not
	// fail the fetch for everyone.
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), f.timeout)
	defer cancel()

	if inv, ok := f.src.(invalidator); ok && bypassCache {
		if err := inv.Invalidate(ctx, f.limit); err != nil {
			f.logger.Warn().Err(err).Msg("failed to invalidate screening cache")
		}
	}

	start := f.now()
	items, err := f.src.GetScreenings(ctx, f.limit)
	if len(items) > f.limit {
		items = items[:f.limit]
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.inFlight--
	f.state.Loading = f.inFlight > 0

	if gen < f.applied {
		f.logger.Debug().
			Uint64("generation", gen).
			Uint64("applied", f.applied).
			Msg("discarding stale screening fetch")
		return f.snapshotLocked()
	}
	f.applied = gen

	if err != nil {
		f.state.Error = errorMessage(err)
		f.logger.Error().Err(err).Uint64("generation", gen).Msg("screening fetch failed")
		return f.snapshotLocked()
	}

	f.state.Records = items
	f.state.Error = ""
	f.state.Loaded = true
	f.state.FetchedAt = f.now()
	f.logger.Info().
		Int("count", len(items)).
		Dur("latency", f.now().Sub(start)).
		Uint64("generation", gen).
		Msg("screenings loaded")
	return f.snapshotLocked()
}

func (f *Fetcher) snapshotLocked() State {
	s := f.state
	if f.state.Records != nil {
		s.Records = make([]*Screening, len(f.state.Records))
		copy(s.Records, f.state.Records)
	}
	return s
}

// Find returns the loaded screening with the given id.
func (f *Fetcher) Find(id string) (*Screening, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, s := range f.state.Records {
		if s != nil && s.ID == id {
			return s, nil
		}
	}
	return nil, ErrNotFound
}

func errorMessage(err error) string {
	if msg := strings.TrimSpace(err.Error()); msg != "" {
		return msg
	}
	return DefaultErrorMessage
}
