package screening

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/mentalcheck/screening-admin/internal/platform/cache"
)

type countingSource struct {
	calls int
	items []*Screening
	err   error
}

func (s *countingSource) GetScreenings(_ context.Context, _ int) ([]*Screening, error) {
	s.calls++
	return s.items, s.err
}

type brokenStore struct{}

func (brokenStore) Get(context.Context, string) ([]byte, bool, error) {
	return nil, false, errors.New("connection refused")
}
func (brokenStore) Set(context.Context, string, []byte, time.Duration) error {
	return errors.New("connection refused")
}
func (brokenStore) Delete(context.Context, string) error { return nil }

func TestCachedSource_ServesFromCache(t *testing.T) {
	next := &countingSource{items: sampleScreenings()}
	src := NewCachedSource(next, cache.NewInMemoryStore(), time.Minute, zerolog.Nop())

	first, err := src.GetScreenings(context.Background(), 100)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := src.GetScreenings(context.Background(), 100)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if next.calls != 1 {
		t.Errorf("expected one upstream call, got %d", next.calls)
	}
	if len(second) != len(first) || second[2].StudentName() != "Carla Dias" {
		t.Errorf("expected cached copy of the list, got %v", ids(second))
	}
	if second[4].Student != nil {
		t.Error("expected missing student to survive the cache round trip")
	}
}

func TestCachedSource_KeyedByLimit(t *testing.T) {
	next := &countingSource{items: sampleScreenings()}
	src := NewCachedSource(next, cache.NewInMemoryStore(), time.Minute, zerolog.Nop())
	src.GetScreenings(context.Background(), 100)
	src.GetScreenings(context.Background(), 50)
	if next.calls != 2 {
		t.Errorf("expected separate entries per limit, got %d calls", next.calls)
	}
}

func TestCachedSource_InvalidateForcesFetch(t *testing.T) {
	next := &countingSource{items: sampleScreenings()}
	src := NewCachedSource(next, cache.NewInMemoryStore(), time.Minute, zerolog.Nop())
	src.GetScreenings(context.Background(), 100)
	if err := src.Invalidate(context.Background(), 100); err != nil {
		t.Fatalf("invalidate: %v", err)
	}
	src.GetScreenings(context.Background(), 100)
	if next.calls != 2 {
		t.Errorf("expected fetch after invalidation, got %d calls", next.calls)
	}
}

func TestCachedSource_ErrorsAreNotCached(t *testing.T) {
	next := &countingSource{err: errors.New("Network down")}
	src := NewCachedSource(next, cache.NewInMemoryStore(), time.Minute, zerolog.Nop())
	if _, err := src.GetScreenings(context.Background(), 100); err == nil {
		t.Fatal("expected error")
	}
	next.err = nil
	next.items = sampleScreenings()
	items, err := src.GetScreenings(context.Background(), 100)
	if err != nil || len(items) != 5 {
		t.Errorf("expected fresh fetch after failure, got %d items, err %v", len(items), err)
	}
}

func TestCachedSource_BrokenStoreFallsThrough(t *testing.T) {
	next := &countingSource{items: sampleScreenings()}
	src := NewCachedSource(next, brokenStore{}, time.Minute, zerolog.Nop())
	items, err := src.GetScreenings(context.Background(), 100)
	if err != nil {
		t.Fatalf("expected cache failure to be ignored, got %v", err)
	}
	if len(items) != 5 {
		t.Errorf("expected 5 items, got %d", len(items))
	}
}

func TestCachedSource_RefreshThroughFetcherBypassesCache(t *testing.T) {
	next := &countingSource{items: sampleScreenings()}
	f := newTestFetcher(NewCachedSource(next, cache.NewInMemoryStore(), time.Minute, zerolog.Nop()))
	f.EnsureLoaded(context.Background())
	f.Refresh(context.Background())
	if next.calls != 2 {
		t.Errorf("expected manual refresh to reach the source, got %d calls", next.calls)
	}
}
