/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package vector

// Float values use float32 to match golang.org/x/image/vector.

// Pt is a 2D point in canvas pixels.
type Pt struct{ X, Y float32 }

// Rect is an axis-aligned rectangle defined by its min corner and size.
type Rect struct {
	X, Y float32
	W, H float32
}

// Centered returns a w×h rectangle centered on c.
func Centered(c Pt, w, h float32) Rect { return Rect{X: c.X - w/2, Y: c.Y - h/2, W: w, H: h} }
