package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"

	"github.com/brunobiangulo/slidedeck"
	"github.com/brunobiangulo/slidedeck/export"
)

const (
	parseTimeout     = 10 * time.Minute
	defaultPruneAge  = 30 * 24 * time.Hour
	multipartMemory  = 32 << 20
	multipartOverrun = 1 << 20 // form overhead allowed on top of MaxUploadBytes
)

type serverOptions struct {
	APIKey         string
	CORSOrigins    string
	MaxUploadBytes int64
	Processing     slidedeck.Options
}

type server struct {
	router   chi.Router
	engine   slidedeck.Engine
	log      *slog.Logger
	opts     serverOptions
	upgrader websocket.Upgrader
}

func newServer(e slidedeck.Engine, log *slog.Logger, opts serverOptions) *server {
	s := &server{engine: e, log: log, opts: opts}
	s.upgrader = websocket.Upgrader{
		ReadBufferSize:  64 << 10,
		WriteBufferSize: 64 << 10,
		CheckOrigin:     s.checkOrigin,
	}
	s.setupRoutes()
	return s
}

func (s *server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *server) setupRoutes() {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(requestLogger(s.log))
	r.Use(corsMiddleware(s.opts.CORSOrigins))

	r.Get("/health", s.handleHealth)

	r.Group(func(r chi.Router) {
		r.Use(authMiddleware(s.opts.APIKey))

		r.Post("/parse", s.handleParse)
		r.Post("/export/{format}", s.handleExport)
		r.Get("/ws/parse", s.handleParseStream)

		r.Get("/cache", s.handleListCache)
		r.Delete("/cache/{key}", s.handleDeleteCache)
		r.Post("/cache/prune", s.handlePruneCache)
	})

	s.router = r
}

// GET /health
func (s *server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"cache":   s.engine.Cache() != nil,
		"exports": export.Formats(),
	})
}

// POST /parse
// Multipart upload with the presentation in "file". Form fields override
// processing options (see parseOptions).
func (s *server) handleParse(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), parseTimeout)
	defer cancel()

	res, _, ok := s.parseUpload(ctx, w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// POST /export/{format}
// Accepts either a multipart upload (parsed first) or a JSON parse result.
func (s *server) handleExport(w http.ResponseWriter, r *http.Request) {
	f, err := export.ForFormat(chi.URLParam(r, "format"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), parseTimeout)
	defer cancel()

	var (
		res  *slidedeck.Result
		name = "presentation"
	)
	if strings.HasPrefix(r.Header.Get("Content-Type"), "application/json") {
		if s.opts.MaxUploadBytes > 0 {
			r.Body = http.MaxBytesReader(w, r.Body, s.opts.MaxUploadBytes)
		}
		res = &slidedeck.Result{}
		if err := json.NewDecoder(r.Body).Decode(res); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON result")
			return
		}
	} else {
		var (
			filename string
			ok       bool
		)
		if res, filename, ok = s.parseUpload(ctx, w, r); !ok {
			return
		}
		if base := strings.TrimSuffix(filename, filepath.Ext(filename)); base != "" {
			name = base
		}
	}

	var buf bytes.Buffer
	if err := s.engine.Export(&buf, res, f.Name); err != nil {
		s.log.Error("export error", "format", f.Name, "error", err)
		writeError(w, http.StatusInternalServerError, "export failed")
		return
	}

	w.Header().Set("Content-Type", f.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name+f.Extension))
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	w.Write(buf.Bytes())
}

// GET /cache
func (s *server) handleListCache(w http.ResponseWriter, r *http.Request) {
	cache := s.engine.Cache()
	if cache == nil {
		writeError(w, http.StatusNotFound, slidedeck.ErrCacheDisabled.Error())
		return
	}

	entries, err := cache.List(r.Context())
	if err != nil {
		s.log.Error("listing cache", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list cache")
		return
	}
	stats, err := cache.Stats(r.Context())
	if err != nil {
		s.log.Error("reading cache stats", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to read cache stats")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"entries": entries,
		"stats":   stats,
	})
}

// DELETE /cache/{key}
func (s *server) handleDeleteCache(w http.ResponseWriter, r *http.Request) {
	cache := s.engine.Cache()
	if cache == nil {
		writeError(w, http.StatusNotFound, slidedeck.ErrCacheDisabled.Error())
		return
	}

	key := chi.URLParam(r, "key")
	if err := cache.Delete(r.Context(), key); err != nil {
		if errors.Is(err, slidedeck.ErrCacheMiss) {
			writeError(w, http.StatusNotFound, "cache entry not found")
			return
		}
		s.log.Error("deleting cache entry", "key", key, "error", err)
		writeError(w, http.StatusInternalServerError, "delete failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// POST /cache/prune?older_than=720h
func (s *server) handlePruneCache(w http.ResponseWriter, r *http.Request) {
	cache := s.engine.Cache()
	if cache == nil {
		writeError(w, http.StatusNotFound, slidedeck.ErrCacheDisabled.Error())
		return
	}

	age := defaultPruneAge
	if v := r.URL.Query().Get("older_than"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d < 0 {
			writeError(w, http.StatusBadRequest, "older_than must be a positive duration")
			return
		}
		age = d
	}

	n, err := cache.Prune(r.Context(), time.Now().Add(-age))
	if err != nil {
		s.log.Error("pruning cache", "error", err)
		writeError(w, http.StatusInternalServerError, "prune failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]int64{"removed": n})
}

// parseUpload reads the multipart "file" field and parses it. On failure it
// writes the error response and returns false.
func (s *server) parseUpload(ctx context.Context, w http.ResponseWriter, r *http.Request) (*slidedeck.Result, string, bool) {
	limit := s.opts.MaxUploadBytes
	if limit > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, limit+multipartOverrun)
	}

	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			writeError(w, http.StatusRequestEntityTooLarge, fmt.Sprintf("file exceeds max size (%d bytes)", limit))
			return nil, "", false
		}
		writeError(w, http.StatusBadRequest, "invalid multipart form: "+err.Error())
		return nil, "", false
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "file is required")
		return nil, "", false
	}
	defer file.Close()

	var src io.Reader = file
	if limit > 0 {
		src = io.LimitReader(file, limit+1)
	}
	data, err := io.ReadAll(src)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to read file")
		s.log.Error("reading upload", "error", err)
		return nil, "", false
	}

	opts, err := s.parseOptions(r.FormValue)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return nil, "", false
	}

	filename := sanitizeFilename(header.Filename)
	if ext := strings.TrimPrefix(filepath.Ext(filename), "."); ext != "" {
		opts = append(opts, slidedeck.WithFormat(ext))
	}

	res, err := s.engine.Parse(ctx, data, opts...)
	if err != nil {
		s.writeParseError(w, filename, err)
		return nil, "", false
	}
	return res, filename, true
}

// parseOptions builds per-call options from request values. Unset values keep
// the server defaults.
func (s *server) parseOptions(get func(string) string) ([]slidedeck.ParseOption, error) {
	o := s.opts.Processing
	bools := []struct {
		name string
		dst  *bool
	}{
		{"extract_images", &o.ExtractImages},
		{"extract_notes", &o.ExtractNotes},
		{"extract_animations", &o.ExtractAnimations},
		{"generate_thumbnails", &o.GenerateThumbnails},
		{"preserve_formatting", &o.PreserveFormatting},
	}
	for _, b := range bools {
		if v := get(b.name); v != "" {
			parsed, err := strconv.ParseBool(v)
			if err != nil {
				return nil, fmt.Errorf("%s must be a boolean", b.name)
			}
			*b.dst = parsed
		}
	}

	ints := []struct {
		name     string
		dst      *int
		min, max int
	}{
		{"max_image_size", &o.MaxImageSize, 1, 16384},
		{"image_quality", &o.ImageQuality, 1, 100},
	}
	for _, n := range ints {
		if v := get(n.name); v != "" {
			parsed, err := strconv.Atoi(v)
			if err != nil || parsed < n.min || parsed > n.max {
				return nil, fmt.Errorf("%s must be an integer in [%d, %d]", n.name, n.min, n.max)
			}
			*n.dst = parsed
		}
	}

	opts := []slidedeck.ParseOption{slidedeck.WithOptions(o)}
	if v := get("cache"); v != "" {
		if use, err := strconv.ParseBool(v); err == nil && !use {
			opts = append(opts, slidedeck.WithoutCache())
		}
	}
	return opts, nil
}

func (s *server) writeParseError(w http.ResponseWriter, filename string, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		s.log.Error("parse error", "file", filename, "error", err)
		writeError(w, status, "parse failed")
		return
	}
	s.log.Warn("rejected presentation", "file", filename, "status", status, "error", err)
	writeError(w, status, err.Error())
}

// statusFor maps engine errors onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, slidedeck.ErrFileTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, slidedeck.ErrUnsupportedFormat):
		return http.StatusUnsupportedMediaType
	case errors.Is(err, slidedeck.ErrInvalidArchive),
		errors.Is(err, slidedeck.ErrInvalidFormat),
		errors.Is(err, slidedeck.ErrLegacyFormat):
		return http.StatusUnprocessableEntity
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.Is(err, slidedeck.ErrEngineClosed):
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

func (s *server) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" || s.opts.CORSOrigins == "*" {
		return true
	}
	for _, allowed := range strings.Split(s.opts.CORSOrigins, ",") {
		if strings.TrimSpace(allowed) == origin {
			return true
		}
	}
	return origin == "http://"+r.Host || origin == "https://"+r.Host
}

func sanitizeFilename(name string) string {
	name = filepath.Base(name)
	name = strings.ReplaceAll(name, "\\", "_")
	name = strings.ReplaceAll(name, "..", "_")
	if name == "" || name == "." || name == "/" {
		name = "unnamed"
	}
	return name
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
