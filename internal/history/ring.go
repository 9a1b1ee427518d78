/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package history

// Ring is a fixed-capacity buffer that keeps the most recent pushes.
// Pushing into a full ring overwrites the oldest element.
type Ring[T any] struct {
	buf  []T
	head int // index of the next write
	n    int
}

// NewRing returns an empty ring holding at most capacity elements.
// Capacities below 1 are raised to 1.
func NewRing[T any](capacity int) *Ring[T] {
	if capacity < 1 {
		capacity = 1
	}
	return &Ring[T]{buf: make([]T, capacity)}
}

// Push adds v as the newest element.
func (r *Ring[T]) Push(v T) {
	r.buf[r.head] = v
	r.head = (r.head + 1) % len(r.buf)
	if r.n < len(r.buf) {
		r.n++
	}
}

// Items returns a copy of the contents, newest first.
func (r *Ring[T]) Items() []T {
	out := make([]T, 0, r.n)
	for i := 1; i <= r.n; i++ {
		idx := (r.head - i + len(r.buf)) % len(r.buf)
		out = append(out, r.buf[idx])
	}
	return out
}

// Len is the number of stored elements.
func (r *Ring[T]) Len() int { return r.n }

// Cap is the fixed capacity.
func (r *Ring[T]) Cap() int { return len(r.buf) }

// RingOf builds a ring from items given newest first, dropping whatever does
// not fit.
func RingOf[T any](capacity int, newestFirst []T) *Ring[T] {
	r := NewRing[T](capacity)
	if len(newestFirst) > r.Cap() {
		newestFirst = newestFirst[:r.Cap()]
	}
	for i := len(newestFirst) - 1; i >= 0; i-- {
		r.Push(newestFirst[i])
	}
	return r
}
