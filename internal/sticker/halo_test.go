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
	"math"
	"testing"
)

func TestStampOffsets_Counts(t *testing.T) {
	if n := len(StampOffsets(20, 100)); n != 240 {
		t.Fatalf("width 20: %d offsets, want 240", n)
	}
	if n := len(StampOffsets(0, 100)); n != 240 {
		t.Fatalf("width 0 should default to 20: %d offsets", n)
	}
	if n := len(StampOffsets(7, 100)); n != 4*24 {
		t.Fatalf("width 7: %d offsets, want 96", n)
	}
	if n := len(StampOffsets(-5, 100)); n != 0 {
		t.Fatalf("negative width: %d offsets", n)
	}
}

func TestStampOffsets_LimitCapsRadius(t *testing.T) {
	offs := StampOffsets(2_000_000, 100)
	if len(offs) != 50*24 {
		t.Fatalf("limit 100: %d offsets, want %d", len(offs), 50*24)
	}
	last := offs[len(offs)-1]
	if r := math.Hypot(last.DX, last.DY); math.Abs(r-99) > 1e-9 {
		t.Fatalf("largest radius = %v, want 99", r)
	}
}

func TestStampOffsets_RadiiAndAngles(t *testing.T) {
	offs := StampOffsets(20, 100)
	if o := offs[0]; o.DX != 1 || o.DY != 0 {
		t.Fatalf("first offset = %+v", o)
	}
	for i, o := range offs {
		r := float64(1 + 2*(i/24))
		if d := math.Hypot(o.DX, o.DY); math.Abs(d-r) > 1e-9 {
			t.Fatalf("offset %d radius %v, want %v", i, d, r)
		}
	}
	if last := offs[len(offs)-1]; math.Abs(math.Hypot(last.DX, last.DY)-19) > 1e-9 {
		t.Fatalf("largest radius should be 19: %+v", last)
	}
	// quarter turn: index 6 of the first ring is (0, 1)
	if q := offs[6]; math.Abs(q.DX) > 1e-9 || math.Abs(q.DY-1) > 1e-9 {
		t.Fatalf("quarter turn offset = %+v", q)
	}
}

func dot(w, h, x, y int) *image.Alpha {
	m := image.NewAlpha(image.Rect(0, 0, w, h))
	m.Pix[m.PixOffset(x, y)] = 255
	return m
}

func TestDilate_EuclideanRadius(t *testing.T) {
	out := Dilate(dot(41, 41, 20, 20), 3)
	at := func(x, y int) uint8 { return out.AlphaAt(x, y).A }
	if at(20, 20) != 255 || at(22, 20) != 255 || at(20, 18) != 255 {
		t.Fatalf("interior not covered")
	}
	if at(23, 20) != 128 {
		t.Fatalf("rim pixel at distance 3 = %d, want 128", at(23, 20))
	}
	if at(24, 20) != 0 || at(23, 23) != 0 {
		t.Fatalf("pixels beyond the radius must stay clear")
	}
	// (22,22) is at distance 2.83: coverage 0.67
	if a := at(22, 22); a < 165 || a > 175 {
		t.Fatalf("diagonal coverage = %d", a)
	}
}

func TestDilate_ZeroRadiusAndEmpty(t *testing.T) {
	m := dot(10, 10, 5, 5)
	if out := Dilate(m, 0); out.AlphaAt(6, 5).A != 0 || out.AlphaAt(5, 5).A != 255 {
		t.Fatalf("zero radius must copy the mask")
	}
	empty := image.NewAlpha(image.Rect(0, 0, 10, 10))
	for _, v := range Dilate(empty, 4).Pix {
		if v != 0 {
			t.Fatalf("empty mask must stay empty")
		}
	}
}

func TestInkBounds(t *testing.T) {
	m := dot(30, 30, 4, 9)
	m.Pix[m.PixOffset(20, 11)] = 1
	if b := inkBounds(m); b != image.Rect(4, 9, 21, 12) {
		t.Fatalf("ink bounds = %v", b)
	}
	if b := inkBounds(image.NewAlpha(image.Rect(0, 0, 5, 5))); !b.Empty() {
		t.Fatalf("empty mask bounds = %v", b)
	}
}

func TestStampHalo_RingAroundDot(t *testing.T) {
	dst := image.NewRGBA(image.Rect(0, 0, 60, 60))
	stampHalo(dst, dot(60, 60, 30, 30), image.Opaque, 5)
	if dst.RGBAAt(35, 30).A != 255 || dst.RGBAAt(30, 25).A != 255 {
		t.Fatalf("radius-5 stamps missing")
	}
	if dst.RGBAAt(37, 30).A != 0 {
		t.Fatalf("nothing should land beyond radius 5")
	}
}

func TestStampHalo_SubPixelOffsets(t *testing.T) {
	dst := image.NewRGBA(image.Rect(0, 0, 60, 60))
	stampHalo(dst, dot(60, 60, 30, 30), image.Opaque, 1)
	if dst.RGBAAt(31, 30).A != 255 || dst.RGBAAt(30, 31).A != 255 {
		t.Fatalf("axis-aligned radius-1 stamps missing")
	}
	// the diagonal neighbour is only partly covered by the 15°..75° copies
	if a := dst.RGBAAt(31, 31).A; a < 220 || a > 245 {
		t.Fatalf("diagonal coverage = %d, want partial", a)
	}
	if dst.RGBAAt(32, 30).A != 0 {
		t.Fatalf("nothing should land beyond radius 1")
	}
}

func TestStampHalo_HugeWidthIsBounded(t *testing.T) {
	dst := image.NewRGBA(image.Rect(0, 0, 40, 40))
	stampHalo(dst, dot(40, 40, 20, 20), image.Opaque, 2_000_000)
	if dst.RGBAAt(25, 20).A != 255 || dst.RGBAAt(20, 39).A == 0 {
		t.Fatalf("huge halo should still cover the canvas around the dot")
	}
}
