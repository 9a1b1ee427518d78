/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package sticker

import (
	"image"
	"image/draw"
	"math"

	"github.com/disintegration/imaging"

	"stickerstudio/internal/textlayout"
	"stickerstudio/internal/vector"
)

// BubbleRect returns the speech-bubble rectangle and its corner radius: the widest
// line plus offsetWidth on each side, the text block height plus offsetWidth above
// and below, centered on the text block.
func BubbleRect(lay TextLayout, widths []float64, offsetWidth int) (vector.Rect, float32) {
	if offsetWidth == 0 {
		offsetWidth = defaultOffsetWidth
	}
	pad := float64(offsetWidth)
	var maxW float64
	for _, w := range widths {
		maxW = math.Max(maxW, w)
	}
	center := vector.Pt{X: float32(lay.CenterX), Y: float32(lay.StartY + lay.TotalHeight/2)}
	r := vector.Centered(center, float32(maxW+2*pad), float32(lay.TotalHeight+2*pad))
	return r, float32(math.Min(pad, maxBubbleRadius))
}

func drawBubble(dst *image.RGBA, o TextOverlay, lay TextLayout, lines []placedLine) {
	widths := make([]float64, len(lines))
	for i, l := range lines {
		widths[i] = l.width
	}
	rect, radius := BubbleRect(lay, widths, o.OffsetWidth)
	vector.Fill(dst, vector.RoundedRect(rect, radius), vector.FromColor(paint(o.ColorOutline)))
}

// drawShadow blurs the line's glyphs painted in the shadow color and composites
// them at the shadow offset. Only a padded box around the line, clipped to the
// canvas, is processed.
func drawShadow(dst *image.RGBA, l placedLine, cx float64, tracking float32, fx textlayout.ShadowFX) {
	if !fx.Enabled || l.Text == "" {
		return
	}
	sigma := fx.Sigma()
	pad := int(math.Ceil(3*sigma)) + 2
	x0 := cx - l.width/2
	base := l.baseline()
	box := image.Rect(
		int(math.Floor(x0))-pad,
		int(math.Floor(base-float64(l.metrics.Ascent)))-pad,
		int(math.Ceil(x0+l.width))+pad,
		int(math.Ceil(base+float64(l.metrics.Descent)))+pad,
	)
	off := image.Pt(int(math.Round(float64(fx.Dx))), int(math.Round(float64(fx.Dy))))
	// keep pad px beyond the canvas so the blur near the edges still sees the glyphs
	box = box.Intersect(dst.Bounds().Sub(off).Inset(-pad))
	if box.Empty() {
		return
	}
	layer := image.NewNRGBA(box)
	textlayout.DrawRun(layer, l.face, l.Text, float32(x0), float32(base), tracking, image.NewUniform(fx.Color.NRGBA()))
	var blurred image.Image = layer
	if sigma > 0 {
		blurred = imaging.Blur(layer, sigma)
	}
	draw.Draw(dst, box.Add(off), blurred, blurred.Bounds().Min, draw.Over)
}
