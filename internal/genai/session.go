/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package genai talks to the generative backends: character portraits and quote extraction.
// Credentials live in an explicit Session that callers open, pass around and close.
package genai

import (
	"context"
	"errors"
	"strings"
	"sync"
)

var (
	// ErrNoAPIKey is returned when no API key is configured.
	ErrNoAPIKey = errors.New("genai: no api key configured")
	// ErrSessionClosed is returned when a closed session is used.
	ErrSessionClosed = errors.New("genai: session closed")
)

// KeySource yields the API key (for example the keyring-backed config.APIKeyStore).
type KeySource interface {
	Lookup() (string, error)
}

// StaticKey is a KeySource holding a fixed key.
type StaticKey string

func (k StaticKey) Lookup() (string, error) { return string(k), nil }

// Session holds the credentials for one run of the studio.
type Session struct {
	mu   sync.RWMutex
	key  string
	open bool
}

// Open resolves the API key from src and returns an open session.
func Open(ctx context.Context, src KeySource) (*Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if src == nil {
		return nil, ErrNoAPIKey
	}
	key, err := src.Lookup()
	if err != nil {
		return nil, err
	}
	key = strings.TrimSpace(key)
	if key == "" {
		return nil, ErrNoAPIKey
	}
	return &Session{key: key, open: true}, nil
}

// APIKey returns the session's key.
func (s *Session) APIKey() (string, error) {
	if s == nil {
		return "", ErrNoAPIKey
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.open {
		return "", ErrSessionClosed
	}
	return s.key, nil
}

// Close forgets the key. Closing twice is harmless.
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.key = ""
	s.open = false
	return nil
}
