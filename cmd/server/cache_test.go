//go:build cgo

package main

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/brunobiangulo/slidedeck"
	"github.com/brunobiangulo/slidedeck/store"
)

func cachedConfig(t *testing.T) slidedeck.Config {
	cfg := slidedeck.DefaultConfig()
	cfg.DBPath = filepath.Join(t.TempDir(), "server.db")
	return cfg
}

type cacheListing struct {
	Entries []store.Entry `json:"entries"`
	Stats   store.Stats   `json:"stats"`
}

func listCache(t *testing.T, srv *server) cacheListing {
	t.Helper()
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/cache", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("GET /cache: status = %d: %s", rec.Code, rec.Body.String())
	}
	var l cacheListing
	if err := json.NewDecoder(rec.Body).Decode(&l); err != nil {
		t.Fatalf("decoding listing: %v", err)
	}
	return l
}

func TestCacheEndpoints(t *testing.T) {
	srv := newTestServer(t, cachedConfig(t), serverOptions{})
	data := sampleDeck(t, "Cached")

	for i := 0; i < 2; i++ {
		rec := httptest.NewRecorder()
		srv.ServeHTTP(rec, uploadRequest(t, "/parse", "deck.pptx", data, nil))
		if rec.Code != http.StatusOK {
			t.Fatalf("parse %d: status = %d", i, rec.Code)
		}
	}

	l := listCache(t, srv)
	if len(l.Entries) != 1 || l.Stats.Entries != 1 || l.Stats.Hits != 1 {
		t.Fatalf("listing = %+v", l)
	}
	if l.Entries[0].SlideCount != 1 || l.Entries[0].HitCount != 1 {
		t.Errorf("entry = %+v", l.Entries[0])
	}

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/cache/"+l.Entries[0].Key, nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("DELETE: status = %d: %s", rec.Code, rec.Body.String())
	}

	rec = httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/cache/"+l.Entries[0].Key, nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("second DELETE: status = %d", rec.Code)
	}

	if l := listCache(t, srv); len(l.Entries) != 0 {
		t.Errorf("entries after delete = %+v", l.Entries)
	}
}

func TestCacheBypass(t *testing.T) {
	srv := newTestServer(t, cachedConfig(t), serverOptions{})

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, uploadRequest(t, "/parse", "deck.pptx", sampleDeck(t, "Skip"), map[string]string{"cache": "false"}))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if l := listCache(t, srv); len(l.Entries) != 0 {
		t.Errorf("cache=false stored %d entries", len(l.Entries))
	}
}

func TestCachePrune(t *testing.T) {
	srv := newTestServer(t, cachedConfig(t), serverOptions{})

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, uploadRequest(t, "/parse", "deck.pptx", sampleDeck(t, "Old"), nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}

	// Nothing is a day old yet.
	rec = httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/cache/prune?older_than=24h", nil))
	var body map[string]int64
	json.NewDecoder(rec.Body).Decode(&body)
	if rec.Code != http.StatusOK || body["removed"] != 0 {
		t.Errorf("prune 24h: status = %d, body = %v", rec.Code, body)
	}

	// A negative age moves the cutoff into the future and is rejected.
	rec = httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/cache/prune?older_than=-1h", nil))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("negative age: status = %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/cache/prune?older_than=0s", nil))
	body = nil
	json.NewDecoder(rec.Body).Decode(&body)
	if rec.Code != http.StatusOK || body["removed"] != 1 {
		t.Errorf("prune 0s: status = %d, body = %v", rec.Code, body)
	}
}
