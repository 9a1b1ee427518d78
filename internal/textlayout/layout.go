/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package textlayout

// Abstractions for single-line text measurement and drawing.
// All measurement goes through a Provider so tests can use a deterministic face.

import (
	"image"
	"image/draw"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// FontSpec describes a requested font.
type FontSpec struct {
	Family string // logical family name
	SizePt float32
	Weight int // 100..900
}

// Metrics provides font metrics in pixels for the resolved face.
type Metrics struct {
	Ascent, Descent, LineGap float32
}

// Provider maps FontSpec to a concrete font.Face.
type Provider interface {
	Resolve(FontSpec) (font.Face, Metrics)
}

// BasicProvider uses x/image/basicfont Face7x13 regardless of spec.
type BasicProvider struct{}

func (BasicProvider) Resolve(FontSpec) (font.Face, Metrics) {
	f := basicfont.Face7x13
	return f, metricsOf(f)
}

func metricsOf(face font.Face) Metrics {
	m := face.Metrics()
	return Metrics{
		Ascent:  fixedToFloat(m.Ascent),
		Descent: fixedToFloat(m.Descent),
		LineGap: fixedToFloat(m.Height - m.Ascent - m.Descent),
	}
}

func fixedToFloat(v fixed.Int26_6) float32 { return float32(v) / 64 }

func floatToFixed(v float32) fixed.Int26_6 { return fixed.Int26_6(v * 64) }

// MiddleBaseline returns the baseline y that vertically centers the em box on cy.
func (m Metrics) MiddleBaseline(cy float32) float32 { return cy + (m.Ascent-m.Descent)/2 }

// Measure returns the advance width of text on face, with kerning, plus tracking
// px between consecutive glyphs.
func Measure(face font.Face, text string, tracking float32) float32 {
	_, w := LayoutRun(face, text, tracking)
	return w
}

// GlyphPose is the placement of one glyph on a straight baseline.
// X is the pen position relative to the run origin.
type GlyphPose struct {
	Rune    rune
	X       float32
	Advance float32
}

// LayoutRun places each rune of text on a baseline, applying kerning and tracking,
// and returns the poses with the total advance.
func LayoutRun(face font.Face, text string, tracking float32) ([]GlyphPose, float32) {
	var poses []GlyphPose
	var x fixed.Int26_6
	tr := floatToFixed(tracking)
	prev := rune(-1)
	for _, r := range text {
		if prev >= 0 {
			x += face.Kern(prev, r) + tr
		}
		adv, _ := face.GlyphAdvance(r)
		poses = append(poses, GlyphPose{Rune: r, X: fixedToFloat(x), Advance: fixedToFloat(adv)})
		x += adv
		prev = r
	}
	return poses, fixedToFloat(x)
}

// DrawRun draws text with its left baseline origin at (x, y) using src as paint.
// With zero tracking the text is drawn in one pass; otherwise glyph by glyph.
func DrawRun(dst draw.Image, face font.Face, text string, x, y, tracking float32, src image.Image) {
	d := &font.Drawer{Dst: dst, Src: src, Face: face}
	if tracking == 0 {
		d.Dot = fixed.Point26_6{X: floatToFixed(x), Y: floatToFixed(y)}
		d.DrawString(text)
		return
	}
	poses, _ := LayoutRun(face, text, tracking)
	for _, g := range poses {
		d.Dot = fixed.Point26_6{X: floatToFixed(x + g.X), Y: floatToFixed(y)}
		d.DrawString(string(g.Rune))
	}
}
