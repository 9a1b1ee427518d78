/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package history persists the most recent stickers under a single fixed
// store name. Every save rewrites the whole list.
package history

import (
	"context"
	"errors"
	"fmt"
	"time"

	"stickerstudio/internal/genai"
	"stickerstudio/internal/sticker"
)

const (
	// StoreName keys the persisted list.
	StoreName = "ana_sticker_history_v5"
	// Capacity is how many stickers are kept.
	Capacity = 4
)

// ErrNotFound is returned when no entry has the requested id.
var ErrNotFound = errors.New("history: entry not found")

// Entry is one generated sticker with the settings that produced it.
type Entry struct {
	ID        string                 `json:"id"`
	Timestamp time.Time              `json:"timestamp"`
	Image     []byte                 `json:"image"`
	Settings  genai.CharacterRequest `json:"settings"`
	Overlay   sticker.TextOverlay    `json:"overlay"`
	Favorite  bool                   `json:"favorite,omitempty"`
}

// NewEntry stamps a fresh entry with a sticker-<unix ms> id.
func NewEntry(img []byte, settings genai.CharacterRequest, overlay sticker.TextOverlay, now time.Time) Entry {
	return Entry{
		ID:        fmt.Sprintf("sticker-%d", now.UnixMilli()),
		Timestamp: now.UTC(),
		Image:     img,
		Settings:  settings,
		Overlay:   overlay,
	}
}

// Store loads and saves the whole list, newest first.
type Store interface {
	Load(ctx context.Context) ([]Entry, error)
	Save(ctx context.Context, entries []Entry) error
	Close() error
}

// Add records e as the newest entry and persists the trimmed list.
func Add(ctx context.Context, s Store, e Entry) ([]Entry, error) {
	cur, err := s.Load(ctx)
	if err != nil {
		return nil, err
	}
	r := RingOf(Capacity, cur)
	r.Push(e)
	items := r.Items()
	if err := s.Save(ctx, items); err != nil {
		return nil, err
	}
	return items, nil
}

// Get returns the entry with the given id.
func Get(ctx context.Context, s Store, id string) (Entry, error) {
	cur, err := s.Load(ctx)
	if err != nil {
		return Entry{}, err
	}
	for _, e := range cur {
		if e.ID == id {
			return e, nil
		}
	}
	return Entry{}, ErrNotFound
}

// SetFavorite flags or unflags one entry.
func SetFavorite(ctx context.Context, s Store, id string, fav bool) error {
	cur, err := s.Load(ctx)
	if err != nil {
		return err
	}
	for i := range cur {
		if cur[i].ID == id {
			cur[i].Favorite = fav
			return s.Save(ctx, cur)
		}
	}
	return ErrNotFound
}

// Clear empties the stored list.
func Clear(ctx context.Context, s Store) error {
	return s.Save(ctx, nil)
}

func trim(entries []Entry) []Entry {
	if len(entries) > Capacity {
		return entries[:Capacity]
	}
	return entries
}
