//go:build cgo

package store

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/brunobiangulo/slidedeck/parser"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	s, err := New(dbPath)
	if err != nil {
		t.Fatalf("creating store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// fixedClock makes accessed_at deterministic.
func fixedClock(s *Store, at time.Time) *time.Time {
	cur := at
	s.now = func() time.Time { return cur }
	return &cur
}

func sampleResult(title string, slides int) *parser.Result {
	res := &parser.Result{Metadata: parser.Metadata{
		Title:       title,
		TotalSlides: slides,
		Dimensions:  parser.Dimensions{Width: 960, Height: 540},
	}}
	for i := 1; i <= slides; i++ {
		s := parser.PlaceholderSlide(i, nil)
		s.Title = title
		res.Slides = append(res.Slides, s)
	}
	return res
}

// ---------------------------------------------------------------------------
// Schema / construction
// ---------------------------------------------------------------------------

func TestNew(t *testing.T) {
	s := newTestStore(t)
	if s.DB() == nil {
		t.Fatal("expected non-nil *sql.DB")
	}
	v, err := s.SchemaVersion(context.Background())
	if err != nil {
		t.Fatalf("SchemaVersion: %v", err)
	}
	if v != len(migrations) {
		t.Errorf("schema version = %d, want %d", v, len(migrations))
	}
}

func TestNewCreatesParentDir(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "sub", "dir", "test.db")
	s, err := New(dbPath)
	if err != nil {
		t.Fatalf("creating store in nested dir: %v", err)
	}
	s.Close()
}

func TestMigrateIdempotent(t *testing.T) {
	s := newTestStore(t)
	if err := s.Migrate(context.Background()); err != nil {
		t.Fatalf("second Migrate: %v", err)
	}
}

// ---------------------------------------------------------------------------
// Keys
// ---------------------------------------------------------------------------

func TestKeyFor(t *testing.T) {
	data := []byte("archive bytes")
	opts := parser.DefaultOptions()

	a := KeyFor(data, opts)
	if len(a.ContentHash) != 64 || len(a.OptionsHash) != 64 {
		t.Fatalf("unexpected hash lengths: %+v", a)
	}

	opts.Concurrency = 16
	if b := KeyFor(data, opts); b != a {
		t.Error("concurrency must not change the key")
	}

	opts.ExtractImages = false
	if c := KeyFor(data, opts); c.OptionsHash == a.OptionsHash || c.ContentHash != a.ContentHash {
		t.Error("options change should only change the options hash")
	}

	if d := KeyFor([]byte("other"), parser.DefaultOptions()); d.ContentHash == a.ContentHash {
		t.Error("different content produced the same hash")
	}
}

// ---------------------------------------------------------------------------
// Get / Put
// ---------------------------------------------------------------------------

func TestPutAndGet(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	key := KeyFor([]byte("deck"), parser.DefaultOptions())

	if _, err := s.Get(ctx, key); !errors.Is(err, ErrCacheMiss) {
		t.Fatalf("Get on empty store: %v, want ErrCacheMiss", err)
	}

	want := sampleResult("Roadmap", 3)
	if err := s.Put(ctx, key, want); err != nil {
		t.Fatalf("Put: %v", err)
	}

	got, err := s.Get(ctx, key)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Metadata != want.Metadata {
		t.Errorf("metadata = %+v, want %+v", got.Metadata, want.Metadata)
	}
	if len(got.Slides) != 3 || got.Slides[2].SlideNumber != 3 || got.Slides[0].Background.Color != "#FFFFFF" {
		t.Errorf("slides did not round-trip: %+v", got.Slides)
	}
}

func TestPutReplaces(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	key := KeyFor([]byte("deck"), parser.DefaultOptions())

	if err := s.Put(ctx, key, sampleResult("v1", 1)); err != nil {
		t.Fatalf("Put v1: %v", err)
	}
	if err := s.Put(ctx, key, sampleResult("v2", 2)); err != nil {
		t.Fatalf("Put v2: %v", err)
	}

	entries, err := s.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(entries) != 1 || entries[0].Title != "v2" || entries[0].SlideCount != 2 {
		t.Errorf("entries = %+v", entries)
	}
}

func TestPutNil(t *testing.T) {
	s := newTestStore(t)
	if err := s.Put(context.Background(), Key{}, nil); err == nil {
		t.Error("expected error storing nil result")
	}
}

// ---------------------------------------------------------------------------
// List / Delete / Prune / Stats
// ---------------------------------------------------------------------------

func TestListOrderAndHits(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	clock := fixedClock(s, time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC))

	older := KeyFor([]byte("older"), parser.DefaultOptions())
	newer := KeyFor([]byte("newer"), parser.DefaultOptions())
	if err := s.Put(ctx, older, sampleResult("older", 1)); err != nil {
		t.Fatal(err)
	}
	*clock = clock.Add(time.Minute)
	if err := s.Put(ctx, newer, sampleResult("newer", 1)); err != nil {
		t.Fatal(err)
	}

	entries, err := s.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(entries) != 2 || entries[0].Title != "newer" {
		t.Fatalf("entries = %+v", entries)
	}

	// A hit on the older entry moves it to the front.
	*clock = clock.Add(time.Minute)
	if _, err := s.Get(ctx, older); err != nil {
		t.Fatalf("Get: %v", err)
	}
	entries, _ = s.List(ctx)
	if entries[0].Title != "older" || entries[0].HitCount != 1 {
		t.Errorf("after hit: %+v", entries[0])
	}
	if !entries[0].AccessedAt.Equal(*clock) {
		t.Errorf("AccessedAt = %v, want %v", entries[0].AccessedAt, *clock)
	}
	if entries[0].Key != older.String() {
		t.Errorf("Key = %q, want %q", entries[0].Key, older.String())
	}
}

func TestDelete(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	key := KeyFor([]byte("deck"), parser.DefaultOptions())
	if err := s.Put(ctx, key, sampleResult("x", 1)); err != nil {
		t.Fatal(err)
	}

	if err := s.Delete(ctx, key.String()); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := s.Delete(ctx, key.String()); !errors.Is(err, ErrCacheMiss) {
		t.Errorf("second Delete = %v, want ErrCacheMiss", err)
	}
	if _, err := s.Get(ctx, key); !errors.Is(err, ErrCacheMiss) {
		t.Errorf("Get after Delete = %v", err)
	}
}

func TestPrune(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	start := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	clock := fixedClock(s, start)

	for i, name := range []string{"a", "b", "c"} {
		*clock = start.Add(time.Duration(i) * time.Hour)
		if err := s.Put(ctx, KeyFor([]byte(name), parser.DefaultOptions()), sampleResult(name, 1)); err != nil {
			t.Fatal(err)
		}
	}

	n, err := s.Prune(ctx, start.Add(90*time.Minute))
	if err != nil {
		t.Fatalf("Prune: %v", err)
	}
	if n != 2 {
		t.Errorf("pruned %d entries, want 2", n)
	}
	entries, _ := s.List(ctx)
	if len(entries) != 1 || entries[0].Title != "c" {
		t.Errorf("remaining = %+v", entries)
	}
}

func TestStats(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	st, err := s.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats on empty store: %v", err)
	}
	if *st != (Stats{}) {
		t.Errorf("empty stats = %+v", st)
	}

	key := KeyFor([]byte("deck"), parser.DefaultOptions())
	if err := s.Put(ctx, key, sampleResult("x", 2)); err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 3; i++ {
		if _, err := s.Get(ctx, key); err != nil {
			t.Fatal(err)
		}
	}
	st, err = s.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if st.Entries != 1 || st.Hits != 3 || st.TotalBytes <= 0 {
		t.Errorf("stats = %+v", st)
	}
}

// ---------------------------------------------------------------------------
// Lifecycle
// ---------------------------------------------------------------------------

func TestClosedStore(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	if err := s.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Errorf("second Close: %v", err)
	}

	key := KeyFor([]byte("deck"), parser.DefaultOptions())
	checks := map[string]error{}
	_, checks["Get"] = s.Get(ctx, key)
	checks["Put"] = s.Put(ctx, key, sampleResult("x", 1))
	checks["Delete"] = s.Delete(ctx, key.String())
	_, checks["List"] = s.List(ctx)
	_, checks["Prune"] = s.Prune(ctx, time.Now())
	_, checks["Stats"] = s.Stats(ctx)
	for op, err := range checks {
		if !errors.Is(err, ErrStoreClosed) {
			t.Errorf("%s on closed store = %v, want ErrStoreClosed", op, err)
		}
	}
}

func TestConcurrentAccess(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			key := KeyFor([]byte{byte(i)}, parser.DefaultOptions())
			if err := s.Put(ctx, key, sampleResult("c", 1)); err != nil {
				t.Errorf("Put %d: %v", i, err)
				return
			}
			if _, err := s.Get(ctx, key); err != nil {
				t.Errorf("Get %d: %v", i, err)
			}
		}(i)
	}
	wg.Wait()

	st, err := s.Stats(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if st.Entries != 8 {
		t.Errorf("entries = %d, want 8", st.Entries)
	}
}
