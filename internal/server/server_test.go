/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package server

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"stickerstudio/internal/drive"
	"stickerstudio/internal/history"
	"stickerstudio/internal/sticker"
)

func newTestServer(t *testing.T) (*httptest.Server, *history.MemoryStore, string) {
	t.Helper()
	hist := history.NewMemoryStore()
	dir := filepath.Join(t.TempDir(), "drive")
	s := New(sticker.NewCompositor(nil, sticker.Options{}), hist, drive.NewFolderStore(dir))
	s.now = func() time.Time { return time.UnixMilli(1700000000000) }
	ts := httptest.NewServer(s.Handler())
	t.Cleanup(ts.Close)
	return ts, hist, dir
}

func postRender(t *testing.T, url string, req RenderRequest) *http.Response {
	t.Helper()
	body, err := json.Marshal(req)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	resp, err := http.Post(url+"/api/render", "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func TestHealthzAndRequestID(t *testing.T) {
	ts, _, _ := newTestServer(t)
	req, _ := http.NewRequest(http.MethodGet, ts.URL+"/healthz", nil)
	req.Header.Set("X-Request-ID", "abc123")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if got := resp.Header.Get("X-Request-ID"); got != "abc123" {
		t.Fatalf("request id = %q", got)
	}
}

func TestFormats(t *testing.T) {
	ts, _, _ := newTestServer(t)
	resp, err := http.Get(ts.URL + "/api/formats")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer func() { _ = resp.Body.Close() }()
	var got []formatInfo
	if err := json.NewDecoder(resp.Body).Decode(&got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(got) != 5 {
		t.Fatalf("formats = %+v", got)
	}
	if got[1].Name != sticker.DieCutLandscape || got[1].Width != 2560 || got[1].Height != 1440 {
		t.Fatalf("landscape = %+v", got[1])
	}
}

func TestRenderReturnsCanvasSizedPNG(t *testing.T) {
	ts, _, _ := newTestServer(t)
	resp := postRender(t, ts.URL, RenderRequest{
		Overlay: json.RawMessage(`{"mainText":"hi","subText":"","backgroundStyle":"none"}`),
		Format:  sticker.ClassicRectangle,
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "image/png" {
		t.Fatalf("content type = %q", ct)
	}
	img, err := png.Decode(resp.Body)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if b := img.Bounds(); b.Dx() != 2200 || b.Dy() != 1600 {
		t.Fatalf("bounds = %v", b)
	}
}

func TestRenderRejectsInvalidOverlay(t *testing.T) {
	ts, _, _ := newTestServer(t)
	resp := postRender(t, ts.URL, RenderRequest{Overlay: json.RawMessage(`{"backgroundStyle":"glitter"}`)})
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	var body map[string]string
	_ = json.NewDecoder(resp.Body).Decode(&body)
	if !strings.Contains(body["error"], "invalid overlay") {
		t.Fatalf("error = %q", body["error"])
	}
}

func TestRenderRejectsOversizedBase(t *testing.T) {
	ts, hist, _ := newTestServer(t)
	uri, err := sticker.DataURI(image.NewGray(image.Rect(0, 0, 60000, 1)))
	if err != nil {
		t.Fatalf("data uri: %v", err)
	}
	resp := postRender(t, ts.URL, RenderRequest{
		Overlay: json.RawMessage(`{"mainText":"plan"}`),
		Base:    uri,
		Save:    true,
	})
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	var body map[string]string
	_ = json.NewDecoder(resp.Body).Decode(&body)
	if !strings.Contains(body["error"], "exceeds") {
		t.Fatalf("error = %q", body["error"])
	}
	if entries, _ := hist.Load(context.Background()); len(entries) != 0 {
		t.Fatalf("rejected render must not be saved: %d entries", len(entries))
	}
}

func TestRenderWithBaseSaveAndUpload(t *testing.T) {
	ts, hist, dir := newTestServer(t)
	base := image.NewRGBA(image.Rect(0, 0, 8, 8))
	for i := range base.Pix {
		base.Pix[i] = 200
	}
	uri, err := sticker.DataURI(base)
	if err != nil {
		t.Fatalf("data uri: %v", err)
	}
	resp := postRender(t, ts.URL, RenderRequest{
		Overlay: json.RawMessage(`{"mainText":"plan","backgroundStyle":"none","hasShadow":false}`),
		Format:  sticker.DieCutSquare,
		Base:    uri,
		Save:    true,
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	id := resp.Header.Get("X-Sticker-ID")
	if id != "sticker-1700000000000" {
		t.Fatalf("sticker id = %q", id)
	}
	img, err := png.Decode(resp.Body)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if c := color.RGBAModel.Convert(img.At(5, 5)).(color.RGBA); c.A != 200 {
		t.Fatalf("corner pixel = %+v, want base underneath", c)
	}

	entries, err := hist.Load(context.Background())
	if err != nil || len(entries) != 1 || entries[0].Overlay.MainText != "plan" {
		t.Fatalf("history = %+v, %v", entries, err)
	}

	lr, err := http.Get(ts.URL + "/api/history")
	if err != nil {
		t.Fatalf("history get: %v", err)
	}
	defer func() { _ = lr.Body.Close() }()
	var items []historyItem
	if err := json.NewDecoder(lr.Body).Decode(&items); err != nil || len(items) != 1 || items[0].ID != id {
		t.Fatalf("history items = %+v, %v", items, err)
	}

	ir, err := http.Get(ts.URL + "/api/history/" + id)
	if err != nil {
		t.Fatalf("image get: %v", err)
	}
	defer func() { _ = ir.Body.Close() }()
	if ir.StatusCode != http.StatusOK || ir.Header.Get("Content-Type") != "image/png" {
		t.Fatalf("image status = %d", ir.StatusCode)
	}

	ur, err := http.Post(ts.URL+"/api/history/"+id+"/upload", "application/json", nil)
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	defer func() { _ = ur.Body.Close() }()
	if ur.StatusCode != http.StatusCreated {
		t.Fatalf("upload status = %d", ur.StatusCode)
	}
	var f drive.File
	if err := json.NewDecoder(ur.Body).Decode(&f); err != nil {
		t.Fatalf("decode file: %v", err)
	}
	if f.Name != "plan-1700000000000.png" {
		t.Fatalf("uploaded name = %q", f.Name)
	}
	files, err := drive.NewFolderStore(dir).List(context.Background(), 0)
	if err != nil || len(files) != 1 {
		t.Fatalf("drive files = %+v, %v", files, err)
	}
}

func TestHistoryUnknownID(t *testing.T) {
	ts, _, _ := newTestServer(t)
	resp, err := http.Get(ts.URL + "/api/history/sticker-1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("status = %d", resp.StatusCode)
	}
}

func TestMethodNotAllowed(t *testing.T) {
	ts, _, _ := newTestServer(t)
	resp, err := http.Get(ts.URL + "/api/render")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusMethodNotAllowed {
		t.Fatalf("status = %d", resp.StatusCode)
	}
}

func TestListenAndServeStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- ListenAndServe(ctx, "127.0.0.1:0", http.NewServeMux()) }()
	time.Sleep(50 * time.Millisecond)
	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("serve: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}
