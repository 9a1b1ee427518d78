/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package history

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"stickerstudio/internal/genai"
	"stickerstudio/internal/sticker"
)

func TestRingKeepsNewestFirst(t *testing.T) {
	r := NewRing[int](4)
	if r.Len() != 0 || r.Cap() != 4 {
		t.Fatalf("empty ring: len=%d cap=%d", r.Len(), r.Cap())
	}
	for i := 1; i <= 6; i++ {
		r.Push(i)
	}
	if got, want := r.Items(), []int{6, 5, 4, 3}; !reflect.DeepEqual(got, want) {
		t.Fatalf("items = %v, want %v", got, want)
	}
	if r.Len() != 4 {
		t.Fatalf("len = %d", r.Len())
	}
}

func TestRingOfDropsOverflow(t *testing.T) {
	r := RingOf(2, []string{"c", "b", "a"})
	if got := r.Items(); !reflect.DeepEqual(got, []string{"c", "b"}) {
		t.Fatalf("items = %v", got)
	}
	r.Push("d")
	if got := r.Items(); !reflect.DeepEqual(got, []string{"d", "c"}) {
		t.Fatalf("after push = %v", got)
	}
	if NewRing[int](0).Cap() != 1 {
		t.Fatalf("capacity should be raised to 1")
	}
}

func TestNewEntryID(t *testing.T) {
	now := time.UnixMilli(1700000000456)
	e := NewEntry([]byte{1}, genai.DefaultRequest(), sticker.DefaultOverlay(), now)
	if e.ID != "sticker-1700000000456" {
		t.Fatalf("id = %q", e.ID)
	}
	if !e.Timestamp.Equal(now) {
		t.Fatalf("timestamp = %v", e.Timestamp)
	}
}

func exerciseStore(t *testing.T, s Store) {
	t.Helper()
	ctx := context.Background()
	got, err := s.Load(ctx)
	if err != nil || len(got) != 0 {
		t.Fatalf("fresh load = %v, %v", got, err)
	}
	base := time.UnixMilli(1700000000000)
	for i := 0; i < 6; i++ {
		o := sticker.DefaultOverlay()
		o.MainText = string(rune('A' + i))
		e := NewEntry([]byte{byte(i)}, genai.DefaultRequest(), o, base.Add(time.Duration(i)*time.Second))
		items, err := Add(ctx, s, e)
		if err != nil {
			t.Fatalf("add %d: %v", i, err)
		}
		if want := min(i+1, Capacity); len(items) != want {
			t.Fatalf("after add %d: len=%d want %d", i, len(items), want)
		}
	}
	got, err = s.Load(ctx)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(got) != Capacity {
		t.Fatalf("len = %d", len(got))
	}
	var texts []string
	for _, e := range got {
		texts = append(texts, e.Overlay.MainText)
	}
	if !reflect.DeepEqual(texts, []string{"F", "E", "D", "C"}) {
		t.Fatalf("order = %v", texts)
	}
	if got[0].Image[0] != 5 || got[0].Settings.Hair != genai.DefaultRequest().Hair {
		t.Fatalf("payload not preserved: %+v", got[0])
	}

	if err := SetFavorite(ctx, s, got[1].ID, true); err != nil {
		t.Fatalf("favorite: %v", err)
	}
	e, err := Get(ctx, s, got[1].ID)
	if err != nil || !e.Favorite {
		t.Fatalf("get = %+v, %v", e, err)
	}
	if err := SetFavorite(ctx, s, "sticker-0", true); !errors.Is(err, ErrNotFound) {
		t.Fatalf("want ErrNotFound, got %v", err)
	}
	if _, err := Get(ctx, s, "nope"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("want ErrNotFound, got %v", err)
	}

	if err := Clear(ctx, s); err != nil {
		t.Fatalf("clear: %v", err)
	}
	got, err = s.Load(ctx)
	if err != nil || len(got) != 0 {
		t.Fatalf("after clear = %v, %v", got, err)
	}
}

func TestMemoryStore(t *testing.T) {
	s := NewMemoryStore()
	t.Cleanup(func() { _ = s.Close() })
	exerciseStore(t, s)
}

func TestSQLiteStore(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "state", "history.db")
	s, err := OpenSQL(ctx, DriverSQLite, path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	exerciseStore(t, s)
	if err := s.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("db file missing: %v", err)
	}
}

func TestSQLiteStoreSurvivesReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "history.db")
	s, err := OpenSQL(ctx, DriverSQLite, path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	e := NewEntry([]byte("png"), genai.DefaultRequest(), sticker.DefaultOverlay(), time.Now())
	if _, err := Add(ctx, s, e); err != nil {
		t.Fatalf("add: %v", err)
	}
	_ = s.Close()

	s2, err := OpenSQL(ctx, DriverSQLite, path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer func() { _ = s2.Close() }()
	got, err := s2.Load(ctx)
	if err != nil || len(got) != 1 || got[0].ID != e.ID {
		t.Fatalf("reloaded = %+v, %v", got, err)
	}
}

func TestOpenSQLRejectsBadInput(t *testing.T) {
	ctx := context.Background()
	if _, err := OpenSQL(ctx, "mysql", "x"); err == nil {
		t.Fatal("expected unsupported driver error")
	}
	if _, err := OpenSQL(ctx, DriverSQLite, " "); err == nil {
		t.Fatal("expected empty path error")
	}
	if _, err := OpenSQL(ctx, DriverPgx, ""); err == nil {
		t.Fatal("expected empty dsn error")
	}
}

func TestRebind(t *testing.T) {
	pg := &SQLStore{driver: DriverPgx}
	if got := pg.rebind("a=? AND b=?"); got != "a=$1 AND b=$2" {
		t.Fatalf("pgx rebind = %q", got)
	}
	lite := &SQLStore{driver: DriverSQLite}
	if got := lite.rebind("a=?"); got != "a=?" {
		t.Fatalf("sqlite rebind = %q", got)
	}
}

func TestPostgresStore(t *testing.T) {
	dsn := os.Getenv("STICKER_TEST_PG_DSN")
	if dsn == "" {
		t.Skip("STICKER_TEST_PG_DSN not set")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	s, err := OpenSQL(ctx, DriverPgx, dsn)
	if err != nil {
		t.Skipf("postgres not available: %v", err)
	}
	defer func() { _ = s.Close() }()
	exerciseStore(t, s)
}
