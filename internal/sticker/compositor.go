/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package sticker

import (
	"fmt"
	"image"
	"image/draw"
	"strings"
	"time"

	"golang.org/x/image/font"

	applog "stickerstudio/internal/log"
	"stickerstudio/internal/textlayout"
)

// HaloMode selects how the offset-border halo is produced.
type HaloMode int

const (
	// HaloStamp stamps the text mask at 24 angles per odd radius up to the offset width.
	HaloStamp HaloMode = iota
	// HaloDilate grows the mask by an exact Euclidean distance of the offset width.
	HaloDilate
)

func (m HaloMode) String() string {
	if m == HaloDilate {
		return "dilate"
	}
	return "stamp"
}

// ParseHaloMode accepts "stamp", "dilate" or "" (stamp).
func ParseHaloMode(s string) (HaloMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "stamp":
		return HaloStamp, nil
	case "dilate":
		return HaloDilate, nil
	}
	return HaloStamp, fmt.Errorf("unknown halo mode %q", s)
}

// outlineRadius is the dilation drawn beneath each line when outlines are honored.
const outlineRadius = 3

// Options switches on behavior beyond the baseline renderer. The zero value
// centers the text block, ignores tracking and stamps the halo.
type Options struct {
	Halo          HaloMode
	HonorPosition bool // place Top/Bottom text 8 % from the canvas edge
	HonorTracking bool // add Tracking px between glyphs
	HonorOutline  bool // draw a 3 px ColorOutline outline under each line when HasOutline is set
}

// Compositor renders text overlays. Parsed fonts are shared read-only; every
// render allocates its own faces and mask, so a Compositor is safe for concurrent use.
type Compositor struct {
	fonts textlayout.Provider
	opts  Options
}

// NewCompositor returns a compositor resolving faces through fonts.
// A nil provider uses the built-in Go fonts.
func NewCompositor(fonts textlayout.Provider, opts Options) *Compositor {
	if fonts == nil {
		fonts = textlayout.OTProvider{Lib: textlayout.DefaultLibrary()}
	}
	return &Compositor{fonts: fonts, opts: opts}
}

// Options returns the compositor's options.
func (c *Compositor) Options() Options { return c.opts }

// placedLine is a laid-out line with its resolved face and measured width.
type placedLine struct {
	Line
	face    font.Face
	metrics textlayout.Metrics
	width   float64
}

func (l placedLine) baseline() float64 {
	return float64(l.metrics.MiddleBaseline(float32(l.CenterY)))
}

// family maps an overlay font to a font-library family; unknown values use Inter.
func family(f Font) string {
	switch f {
	case FontAnton, FontMontserrat, FontBebasNeue:
		return string(f)
	}
	return string(FontInter)
}

func (c *Compositor) tracking(o TextOverlay) float32 {
	if c.opts.HonorTracking {
		return float32(o.Tracking)
	}
	return 0
}

func (c *Compositor) place(o TextOverlay, lay TextLayout) []placedLine {
	tr := c.tracking(o)
	out := make([]placedLine, len(lay.Lines))
	for i, l := range lay.Lines {
		face, m := c.fonts.Resolve(textlayout.FontSpec{Family: family(o.Font), SizePt: float32(l.Size), Weight: l.Weight})
		out[i] = placedLine{Line: l, face: face, metrics: m, width: float64(textlayout.Measure(face, l.Text, tr))}
	}
	return out
}

func closeFaces(lines []placedLine) {
	for _, l := range lines {
		_ = l.face.Close()
	}
}

// Render returns a new transparent canvas sized by f with o composited onto it.
func (c *Compositor) Render(o TextOverlay, f Format) *image.RGBA {
	w, h := CanvasSize(f)
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	c.RenderInto(dst, o, f)
	return dst
}

// RenderInto composites o onto dst in canvas coordinates for f. A nil or empty dst is left untouched.
func (c *Compositor) RenderInto(dst *image.RGBA, o TextOverlay, f Format) {
	if dst == nil || dst.Bounds().Empty() {
		return
	}
	start := time.Now()
	lay := layoutLines(o, f, c.opts.HonorPosition)
	lines := c.place(o, lay)
	defer closeFaces(lines)
	tr := c.tracking(o)
	outline := image.NewUniform(paint(o.ColorOutline))

	var mask *image.Alpha
	needMask := o.BackgroundStyle == BackgroundOffsetBorder || (c.opts.HonorOutline && o.HasOutline)
	if needMask {
		mask = buildMask(dst.Bounds(), lay.CenterX, lines, tr)
	}

	switch o.BackgroundStyle {
	case BackgroundOffsetBorder:
		if c.opts.Halo == HaloDilate {
			draw.DrawMask(dst, dst.Bounds(), outline, image.Point{}, Dilate(mask, float64(o.effectiveOffset())), dst.Bounds().Min, draw.Over)
		} else {
			stampHalo(dst, mask, outline, o.effectiveOffset())
		}
	case BackgroundSpeechBubble:
		drawBubble(dst, o, lay, lines)
	}

	if c.opts.HonorOutline && o.HasOutline {
		draw.DrawMask(dst, dst.Bounds(), outline, image.Point{}, Dilate(mask, outlineRadius), dst.Bounds().Min, draw.Over)
	}

	shadow := textlayout.StickerShadow()
	for _, l := range lines {
		if o.HasShadow {
			drawShadow(dst, l, lay.CenterX, tr, shadow)
		}
		x0 := lay.CenterX - l.width/2
		textlayout.DrawRun(dst, l.face, l.Text, float32(x0), float32(l.baseline()), tr, image.NewUniform(paint(l.Color)))
	}

	applog.WithOperation(applog.WithComponent("sticker"), "render").Debug("overlay rendered",
		"format", string(f),
		"background", string(o.BackgroundStyle),
		"halo", c.opts.Halo.String(),
		"lines", len(lines),
		"dur_ms", time.Since(start).Milliseconds(),
	)
}

// buildMask draws every line as a solid silhouette onto an alpha surface the size of bounds.
func buildMask(bounds image.Rectangle, cx float64, lines []placedLine, tracking float32) *image.Alpha {
	mask := image.NewAlpha(bounds)
	for _, l := range lines {
		textlayout.DrawRun(mask, l.face, l.Text, float32(cx-l.width/2), float32(l.baseline()), tracking, image.Opaque)
	}
	return mask
}
