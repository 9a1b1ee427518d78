/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package sticker

// Format names an output sticker format.
type Format string

const (
	DieCutSquare     Format = "Die-Cut Square"
	DieCutLandscape  Format = "Die-Cut Landscape"
	DieCutVertical   Format = "Die-Cut Vertical"
	CircularVignette Format = "Circular Vignette"
	ClassicRectangle Format = "Classic Rectangle"
)

type canvasSize struct{ w, h int }

var formatTable = []struct {
	f    Format
	size canvasSize
}{
	{DieCutSquare, canvasSize{2048, 2048}},
	{DieCutLandscape, canvasSize{2560, 1440}},
	{DieCutVertical, canvasSize{1440, 2560}},
	{CircularVignette, canvasSize{2048, 2048}},
	{ClassicRectangle, canvasSize{2200, 1600}},
}

// Formats lists every known format in table order.
func Formats() []Format {
	out := make([]Format, len(formatTable))
	for i, e := range formatTable {
		out[i] = e.f
	}
	return out
}

// Known reports whether f is in the format table.
func (f Format) Known() bool {
	for _, e := range formatTable {
		if e.f == f {
			return true
		}
	}
	return false
}

// CanvasSize returns the canvas dimensions for f. Unknown formats get the Die-Cut Square size.
func CanvasSize(f Format) (w, h int) {
	for _, e := range formatTable {
		if e.f == f {
			return e.size.w, e.size.h
		}
	}
	return formatTable[0].size.w, formatTable[0].size.h
}
