/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package textlayout

import (
	"image"
	"image/color"
	"testing"

	"golang.org/x/image/font"
)

func TestMeasure_MatchesFontMeasureString(t *testing.T) {
	p := OTProvider{Lib: DefaultLibrary()}
	face, _ := p.Resolve(FontSpec{Family: GoFamily, SizePt: 44, Weight: 700})
	got := Measure(face, "DOING NOTHING", 0)
	want := float32(font.MeasureString(face, "DOING NOTHING")) / 64
	if got != want {
		t.Fatalf("Measure = %v, want %v", got, want)
	}
}

func TestMeasure_TrackingAddsPerGap(t *testing.T) {
	face, _ := BasicProvider{}.Resolve(FontSpec{})
	w0 := Measure(face, "ABCD", 0)
	w3 := Measure(face, "ABCD", 3)
	if w3-w0 != 9 {
		t.Fatalf("tracking should add 3px per gap: %v vs %v", w0, w3)
	}
	if Measure(face, "", 5) != 0 {
		t.Fatalf("empty text should measure zero")
	}
}

func TestLayoutRun_PosesIncrease(t *testing.T) {
	face, _ := BasicProvider{}.Resolve(FontSpec{})
	poses, total := LayoutRun(face, "BOOM", 1)
	if len(poses) != 4 {
		t.Fatalf("expected 4 glyphs, got %d", len(poses))
	}
	for i := 1; i < len(poses); i++ {
		if poses[i].X <= poses[i-1].X {
			t.Fatalf("glyph %d not after previous: %+v", i, poses)
		}
	}
	if total != 4*7+3 {
		t.Fatalf("total advance = %v", total)
	}
}

func TestMiddleBaseline(t *testing.T) {
	m := Metrics{Ascent: 30, Descent: 10}
	if got := m.MiddleBaseline(100); got != 110 {
		t.Fatalf("MiddleBaseline = %v", got)
	}
}

func TestDrawRun_MiddleBaselineCentersInk(t *testing.T) {
	p := OTProvider{Lib: DefaultLibrary()}
	face, m := p.Resolve(FontSpec{Family: "Anton", SizePt: 40, Weight: 900})
	dst := image.NewRGBA(image.Rect(0, 0, 400, 200))
	w := Measure(face, "HI", 0)
	if w <= 0 {
		t.Fatalf("expected positive width")
	}
	DrawRun(dst, face, "HI", 200-w/2, m.MiddleBaseline(100), 0, image.NewUniform(color.White))
	minX, maxX, minY, maxY := 400, -1, 200, -1
	for y := 0; y < 200; y++ {
		for x := 0; x < 400; x++ {
			if dst.RGBAAt(x, y).A > 0 {
				minX, maxX = min(minX, x), max(maxX, x)
				minY, maxY = min(minY, y), max(maxY, y)
			}
		}
	}
	if maxX < 0 {
		t.Fatalf("nothing drawn")
	}
	if cx := (minX + maxX) / 2; cx < 190 || cx > 210 {
		t.Fatalf("ink not horizontally centered: %d..%d", minX, maxX)
	}
	if cy := (minY + maxY) / 2; cy < 85 || cy > 115 {
		t.Fatalf("ink not vertically centered: %d..%d", minY, maxY)
	}
}

func TestDrawRun_TrackingWidensInk(t *testing.T) {
	face, _ := OTProvider{Lib: DefaultLibrary()}.Resolve(FontSpec{Family: GoFamily, SizePt: 20, Weight: 400})
	ink := func(tracking float32) int {
		dst := image.NewRGBA(image.Rect(0, 0, 300, 50))
		DrawRun(dst, face, "ABC", 10, 30, tracking, image.NewUniform(color.Black))
		right := 0
		for y := 0; y < 50; y++ {
			for x := 0; x < 300; x++ {
				if dst.RGBAAt(x, y).A > 0 && x > right {
					right = x
				}
			}
		}
		return right
	}
	if a, b := ink(0), ink(10); b-a < 15 {
		t.Fatalf("tracking 10 should push the last glyph ~20px right: %d vs %d", a, b)
	}
}
