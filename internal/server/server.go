/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package server exposes the compositor and the sticker history over HTTP.
package server

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"log/slog"
	"net/http"
	"time"

	"stickerstudio/internal/drive"
	"stickerstudio/internal/genai"
	"stickerstudio/internal/history"
	applog "stickerstudio/internal/log"
	"stickerstudio/internal/sticker"
	"stickerstudio/internal/version"

	// decoders for uploaded base images
	_ "image/jpeg"
	_ "image/png"
)

// MaxBodyBytes caps request bodies (base images travel as data URIs).
const MaxBodyBytes = 32 << 20

// Server holds the collaborators used by the handlers. History and Drive may be nil.
type Server struct {
	comp    *sticker.Compositor
	history history.Store
	drive   drive.Store
	now     func() time.Time
}

// New wires a server around comp.
func New(comp *sticker.Compositor, hist history.Store, store drive.Store) *Server {
	return &Server{comp: comp, history: hist, drive: store, now: time.Now}
}

// Handler returns the routed API with request-id logging.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	mux.HandleFunc("GET /version", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"version": version.String()})
	})
	mux.HandleFunc("GET /api/formats", s.handleFormats)
	mux.HandleFunc("POST /api/render", s.handleRender)
	mux.HandleFunc("GET /api/history", s.handleHistory)
	mux.HandleFunc("GET /api/history/{id}", s.handleHistoryImage)
	mux.HandleFunc("POST /api/history/{id}/upload", s.handleUpload)
	return withRequestLog(mux)
}

// ListenAndServe runs h on addr until ctx is canceled, then shuts down gracefully.
func ListenAndServe(ctx context.Context, addr string, h http.Handler) error {
	l := applog.WithComponent("server")
	srv := &http.Server{Addr: addr, Handler: h, ReadHeaderTimeout: 10 * time.Second}
	errc := make(chan error, 1)
	go func() { errc <- srv.ListenAndServe() }()
	l.Info("listening", slog.String("addr", addr))
	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	if err := <-errc; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

type formatInfo struct {
	Name   sticker.Format `json:"name"`
	Width  int            `json:"width"`
	Height int            `json:"height"`
}

func (s *Server) handleFormats(w http.ResponseWriter, r *http.Request) {
	out := make([]formatInfo, 0, len(sticker.Formats()))
	for _, f := range sticker.Formats() {
		cw, ch := sticker.CanvasSize(f)
		out = append(out, formatInfo{Name: f, Width: cw, Height: ch})
	}
	writeJSON(w, http.StatusOK, out)
}

// RenderRequest is the body of POST /api/render.
type RenderRequest struct {
	Overlay json.RawMessage `json:"overlay"`
	Format  sticker.Format  `json:"format"`
	// Base is an optional PNG or JPEG data URI composited under the text.
	Base string `json:"base,omitempty"`
	// Save records the result in history.
	Save bool `json:"save,omitempty"`
}

func (s *Server) handleRender(w http.ResponseWriter, r *http.Request) {
	l := applog.WithOperation(applog.WithComponent("server"), "render")
	var req RenderRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, MaxBodyBytes)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("decode request: %w", err))
		return
	}
	o := sticker.DefaultOverlay()
	if len(req.Overlay) > 0 && string(req.Overlay) != "null" {
		parsed, err := sticker.ParseOverlay(req.Overlay)
		if err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		o = parsed
	}
	var base image.Image
	if req.Base != "" {
		img, err := decodeBase(req.Base)
		if err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		base = img
	}
	var out *image.RGBA
	if base != nil {
		out = s.comp.Compose(base, o, req.Format)
	} else {
		out = s.comp.Render(o, req.Format)
	}
	data, err := sticker.PNGBytes(out)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	if req.Save && s.history != nil {
		e := history.NewEntry(data, genai.CharacterRequest{Format: req.Format}, o, s.now())
		if _, err := history.Add(r.Context(), s.history, e); err != nil {
			l.ErrorContext(r.Context(), "history add failed", slog.Any("err", err))
			writeError(w, http.StatusInternalServerError, err)
			return
		}
		w.Header().Set("X-Sticker-ID", e.ID)
	}
	w.Header().Set("Content-Type", "image/png")
	_, _ = w.Write(data)
}

type historyItem struct {
	ID        string    `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	MainText  string    `json:"mainText"`
	SubText   string    `json:"subText,omitempty"`
	Format    string    `json:"format"`
	Favorite  bool      `json:"favorite"`
	Bytes     int       `json:"bytes"`
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	if s.history == nil {
		writeJSON(w, http.StatusOK, []historyItem{})
		return
	}
	entries, err := s.history.Load(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	out := make([]historyItem, 0, len(entries))
	for _, e := range entries {
		out = append(out, historyItem{
			ID:        e.ID,
			Timestamp: e.Timestamp,
			MainText:  e.Overlay.MainText,
			SubText:   e.Overlay.SubText,
			Format:    string(e.Settings.Format),
			Favorite:  e.Favorite,
			Bytes:     len(e.Image),
		})
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) entry(r *http.Request) (history.Entry, int, error) {
	if s.history == nil {
		return history.Entry{}, http.StatusNotFound, history.ErrNotFound
	}
	e, err := history.Get(r.Context(), s.history, r.PathValue("id"))
	if errors.Is(err, history.ErrNotFound) {
		return e, http.StatusNotFound, err
	}
	if err != nil {
		return e, http.StatusInternalServerError, err
	}
	return e, http.StatusOK, nil
}

func (s *Server) handleHistoryImage(w http.ResponseWriter, r *http.Request) {
	e, status, err := s.entry(r)
	if err != nil {
		writeError(w, status, err)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	_, _ = w.Write(e.Image)
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	if s.drive == nil {
		writeError(w, http.StatusServiceUnavailable, drive.ErrNotAuthenticated)
		return
	}
	e, status, err := s.entry(r)
	if err != nil {
		writeError(w, status, err)
		return
	}
	f, err := s.drive.Upload(r.Context(), drive.FileName(e.Overlay.MainText, s.now()), e.Image)
	if errors.Is(err, drive.ErrNotAuthenticated) {
		writeError(w, http.StatusServiceUnavailable, err)
		return
	}
	if err != nil {
		writeError(w, http.StatusBadGateway, err)
		return
	}
	writeJSON(w, http.StatusCreated, f)
}

func decodeBase(uri string) (image.Image, error) {
	b, err := sticker.DecodeDataURI(uri)
	if err != nil {
		return nil, err
	}
	img, err := sticker.DecodeImage(b)
	if err != nil {
		return nil, fmt.Errorf("decode base image: %w", err)
	}
	return img, nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	_ = enc.Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]any{"error": err.Error()})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func withRequestLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-ID")
		if id == "" {
			id = randomID()
		}
		ctx := applog.WithRequestID(r.Context(), id)
		w.Header().Set("X-Request-ID", id)
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()
		next.ServeHTTP(rec, r.WithContext(ctx))
		applog.WithComponent("server").InfoContext(ctx, "request",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.Int("status", rec.status),
			slog.Duration("took", time.Since(start)))
	})
}

func randomID() string {
	b := make([]byte, 8)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}
