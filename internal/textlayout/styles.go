/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package textlayout

import "stickerstudio/internal/vector"

// ShadowFX describes a simple drop shadow effect.
type ShadowFX struct {
	Enabled bool
	Dx, Dy  float32
	Blur    float32 // blur radius in px; gaussian sigma is Blur/2
	Color   vector.Color
}

// StickerShadow is the lettering drop shadow: black at 35 % opacity, blur 12, offset (4, 6).
func StickerShadow() ShadowFX {
	return ShadowFX{Enabled: true, Dx: 4, Dy: 6, Blur: 12, Color: vector.Color{A: 89}}
}

// Sigma returns the gaussian standard deviation matching the blur radius.
func (s ShadowFX) Sigma() float64 { return float64(s.Blur) / 2 }
