/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package sticker

import (
	"bytes"
	"image"
	"image/color"
	"math"
	"testing"

	"stickerstudio/internal/textlayout"
)

func plainOverlay() TextOverlay {
	o := DefaultOverlay()
	o.HasShadow = false
	o.BackgroundStyle = BackgroundNone
	return o
}

func inkCount(img *image.RGBA) int {
	n := 0
	for i := 3; i < len(img.Pix); i += 4 {
		if img.Pix[i] != 0 {
			n++
		}
	}
	return n
}

func TestRender_CanvasMatchesFormat(t *testing.T) {
	c := NewCompositor(nil, Options{})
	for _, f := range []Format{DieCutLandscape, ClassicRectangle, "bogus"} {
		img := c.Render(plainOverlay(), f)
		w, h := CanvasSize(f)
		if img.Bounds() != image.Rect(0, 0, w, h) {
			t.Fatalf("%s: bounds %v", f, img.Bounds())
		}
	}
}

func TestRender_Idempotent(t *testing.T) {
	c := NewCompositor(nil, Options{})
	o := DefaultOverlay()
	a := c.Render(o, DieCutSquare)
	b := c.Render(o, DieCutSquare)
	if !bytes.Equal(a.Pix, b.Pix) {
		t.Fatalf("renders differ")
	}
	if inkCount(a) == 0 {
		t.Fatalf("default overlay rendered nothing")
	}
}

func TestRender_NoneStaysWithinLineBoxes(t *testing.T) {
	c := NewCompositor(nil, Options{})
	o := DefaultOverlay()
	o.BackgroundStyle = BackgroundNone
	img := c.Render(o, DieCutSquare)

	lay := Layout(o, DieCutSquare)
	lines := c.place(o, lay)
	defer closeFaces(lines)
	const margin = 30 // shadow blur reach plus offset
	var boxes []image.Rectangle
	for _, l := range lines {
		x0 := lay.CenterX - l.width/2
		base := l.baseline()
		boxes = append(boxes, image.Rect(
			int(x0)-margin, int(base-float64(l.metrics.Ascent))-margin,
			int(x0+l.width)+margin, int(base+float64(l.metrics.Descent))+margin,
		))
	}
	for y := 0; y < lay.Height; y++ {
		for x := 0; x < lay.Width; x++ {
			if img.RGBAAt(x, y).A == 0 {
				continue
			}
			inside := false
			for _, b := range boxes {
				if image.Pt(x, y).In(b) {
					inside = true
					break
				}
			}
			if !inside {
				t.Fatalf("pixel (%d,%d) painted outside the line boxes", x, y)
			}
		}
	}
}

func TestRender_EmptyTextIsBlank(t *testing.T) {
	c := NewCompositor(nil, Options{})
	o := plainOverlay()
	o.MainText, o.SubText = "", ""
	if n := inkCount(c.Render(o, DieCutSquare)); n != 0 {
		t.Fatalf("empty overlay painted %d pixels", n)
	}
}

func TestRenderInto_NilAndEmptyAreNoops(t *testing.T) {
	c := NewCompositor(nil, Options{})
	c.RenderInto(nil, DefaultOverlay(), DieCutSquare)
	empty := &image.RGBA{}
	c.RenderInto(empty, DefaultOverlay(), DieCutSquare)
	if len(empty.Pix) != 0 {
		t.Fatalf("empty canvas modified")
	}
}

func TestRender_SpeechBubbleIsSolid(t *testing.T) {
	c := NewCompositor(nil, Options{})
	o := plainOverlay()
	o.BackgroundStyle = BackgroundSpeechBubble
	o.ColorOutline = "#00FF00"
	o.OffsetWidth = 30
	img := c.Render(o, DieCutSquare)

	lay := Layout(o, DieCutSquare)
	lines := c.place(o, lay)
	widths := []float64{lines[0].width, lines[1].width}
	closeFaces(lines)
	rect, radius := BubbleRect(lay, widths, o.OffsetWidth)
	if radius != 30 {
		t.Fatalf("radius = %v", radius)
	}
	if math.Abs(float64(rect.H)-(lay.TotalHeight+60)) > 1e-3 {
		t.Fatalf("bubble height = %v", rect.H)
	}
	green := color.RGBA{0, 255, 0, 255}
	cy := int(rect.Y + rect.H/2)
	for _, p := range []image.Point{
		{int(rect.X) + 3, cy},
		{int(rect.X+rect.W) - 4, cy},
		{int(lay.CenterX), int(rect.Y) + 3},
		{int(lay.CenterX), int(rect.Y+rect.H) - 4},
	} {
		if got := img.RGBAAt(p.X, p.Y); got != green {
			t.Fatalf("bubble pixel %v = %v", p, got)
		}
	}
	for _, p := range []image.Point{
		{int(rect.X) - 3, cy},
		{int(lay.CenterX), int(rect.Y) - 3},
		{int(rect.X) + 1, int(rect.Y) + 1},
	} {
		if got := img.RGBAAt(p.X, p.Y); got.A != 0 {
			t.Fatalf("pixel %v outside the bubble = %v", p, got)
		}
	}
}

func TestBubbleRect_RadiusCapped(t *testing.T) {
	lay := Layout(DefaultOverlay(), DieCutSquare)
	_, r := BubbleRect(lay, []float64{100}, 80)
	if r != 40 {
		t.Fatalf("radius = %v, want 40", r)
	}
	rect, r := BubbleRect(lay, []float64{100, 50}, 0)
	if r != 20 || rect.W != 140 {
		t.Fatalf("zero width should default to 20: %+v r=%v", rect, r)
	}
}

func TestRender_OffsetBorderGrowsWithWidth(t *testing.T) {
	for _, mode := range []HaloMode{HaloStamp, HaloDilate} {
		c := NewCompositor(nil, Options{Halo: mode})
		o := plainOverlay()
		o.BackgroundStyle = BackgroundOffsetBorder
		o.OffsetWidth = 15
		small := inkCount(c.Render(o, DieCutSquare))
		o.OffsetWidth = 30
		large := inkCount(c.Render(o, DieCutSquare))
		o.BackgroundStyle = BackgroundNone
		bare := inkCount(c.Render(o, DieCutSquare))
		if !(large > small && small > bare) {
			t.Fatalf("%s: halo areas bare=%d w15=%d w30=%d", mode, bare, small, large)
		}
	}
}

func TestRender_HaloUsesOutlineColor(t *testing.T) {
	c := NewCompositor(nil, Options{})
	o := plainOverlay()
	o.BackgroundStyle = BackgroundOffsetBorder
	o.ColorOutline = "#0000FF"
	o.SubText = ""
	img := c.Render(o, DieCutSquare)
	lay := Layout(o, DieCutSquare)
	lines := c.place(o, lay)
	mask := buildMask(img.Bounds(), lay.CenterX, lines, 0)
	closeFaces(lines)
	row := int(lay.Lines[0].CenterY)
	right := -1
	for x := 0; x < lay.Width; x++ {
		if mask.AlphaAt(x, row).A == 255 {
			right = x
		}
	}
	if right < 0 {
		t.Fatalf("no solid glyph pixel on row %d", row)
	}
	// the radius-5 stamp at angle 0 copies that solid pixel 5 px to the right
	p := image.Pt(right+5, row)
	if got := img.RGBAAt(p.X, p.Y); got != (color.RGBA{0, 0, 255, 255}) {
		t.Fatalf("halo pixel %v = %v", p, got)
	}
}

func TestRender_OversizedShadowStaysOnCanvas(t *testing.T) {
	c := NewCompositor(nil, Options{})
	o := plainOverlay()
	o.MainText = "HI"
	o.SubText = ""
	o.SizeMain = 8000
	o.HasShadow = true
	img := c.Render(o, DieCutSquare)
	w, h := CanvasSize(DieCutSquare)
	if img.Bounds() != image.Rect(0, 0, w, h) {
		t.Fatalf("bounds = %v", img.Bounds())
	}
	if inkCount(img) == 0 {
		t.Fatalf("oversized glyphs should still cover part of the canvas")
	}
}

func TestRender_ShadowDarkensBelowText(t *testing.T) {
	c := NewCompositor(nil, Options{})
	o := plainOverlay()
	with := o
	with.HasShadow = true
	a, b := inkCount(c.Render(o, DieCutSquare)), inkCount(c.Render(with, DieCutSquare))
	if b <= a {
		t.Fatalf("shadow added no pixels: %d vs %d", a, b)
	}
}

func TestRender_HonorTrackingWidens(t *testing.T) {
	o := plainOverlay()
	o.SubText = ""
	o.Tracking = 10
	inkWidth := func(c *Compositor) int {
		img := c.Render(o, DieCutSquare)
		minX, maxX := img.Bounds().Dx(), -1
		for y := 0; y < img.Bounds().Dy(); y++ {
			for x := 0; x < img.Bounds().Dx(); x++ {
				if img.RGBAAt(x, y).A != 0 {
					minX, maxX = min(minX, x), max(maxX, x)
				}
			}
		}
		return maxX - minX
	}
	plain := inkWidth(NewCompositor(nil, Options{}))
	tracked := inkWidth(NewCompositor(nil, Options{HonorTracking: true}))
	// 13 glyphs: 12 gaps of 10 px
	if tracked-plain < 110 || tracked-plain > 130 {
		t.Fatalf("tracking widened ink by %d px", tracked-plain)
	}
}

func TestRender_HonorOutlineRequiresHasOutline(t *testing.T) {
	c := NewCompositor(nil, Options{HonorOutline: true})
	o := plainOverlay()
	o.HasOutline = false
	bare := inkCount(c.Render(o, DieCutSquare))
	o.HasOutline = true
	outlined := inkCount(c.Render(o, DieCutSquare))
	if outlined <= bare {
		t.Fatalf("outline added nothing: %d vs %d", bare, outlined)
	}
	if base := inkCount(NewCompositor(nil, Options{}).Render(o, DieCutSquare)); base != bare {
		t.Fatalf("HasOutline alone must not change the render: %d vs %d", base, bare)
	}
}

func TestRender_CustomProvider(t *testing.T) {
	c := NewCompositor(textlayout.BasicProvider{}, Options{})
	if inkCount(c.Render(plainOverlay(), DieCutSquare)) == 0 {
		t.Fatalf("basic provider rendered nothing")
	}
}

func TestParseHaloMode(t *testing.T) {
	for in, want := range map[string]HaloMode{"": HaloStamp, "stamp": HaloStamp, " Dilate ": HaloDilate} {
		got, err := ParseHaloMode(in)
		if err != nil || got != want {
			t.Fatalf("ParseHaloMode(%q) = %v, %v", in, got, err)
		}
	}
	if _, err := ParseHaloMode("blur"); err == nil {
		t.Fatalf("expected error")
	}
}

func TestCompose_FitsBaseUnderOverlay(t *testing.T) {
	base := image.NewNRGBA(image.Rect(0, 0, 100, 50))
	for i := 0; i < len(base.Pix); i += 4 {
		base.Pix[i], base.Pix[i+3] = 255, 255
	}
	c := NewCompositor(nil, Options{})
	out := c.Compose(base, plainOverlay(), DieCutSquare)
	if out.Bounds() != image.Rect(0, 0, 2048, 2048) {
		t.Fatalf("bounds = %v", out.Bounds())
	}
	if got := out.RGBAAt(20, 600); got.R < 250 || got.A != 255 {
		t.Fatalf("fitted base missing at (20,600): %v", got)
	}
	if got := out.RGBAAt(20, 20); got.A != 0 {
		t.Fatalf("letterbox should stay transparent: %v", got)
	}
	row := int(Layout(plainOverlay(), DieCutSquare).Lines[0].CenterY)
	found := false
	for x := 0; x < 2048 && !found; x++ {
		found = out.RGBAAt(x, row).G > 200
	}
	if !found {
		t.Fatalf("overlay text not drawn over the base")
	}
	if nilBase := c.Compose(nil, plainOverlay(), DieCutSquare); !bytes.Equal(nilBase.Pix, c.Render(plainOverlay(), DieCutSquare).Pix) {
		t.Fatalf("nil base should equal a plain render")
	}
}
