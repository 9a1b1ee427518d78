/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package vector

import (
	"image"
	"testing"
)

func TestRoundedRect_Shape(t *testing.T) {
	p := RoundedRect(Rect{X: 1, Y: 2, W: 100, H: 50}, 10)
	if first := p.Cmds[0]; first.Op != MoveTo || first.Data[0] != 11 || first.Data[1] != 2 {
		t.Fatalf("path should start after the top-left corner: %+v", first)
	}
	// the bottom-right corner curve is controlled by the rectangle's corner
	if c := p.Cmds[4]; c.Op != QuadTo || c.Data[0] != 101 || c.Data[1] != 52 {
		t.Fatalf("unexpected bottom-right corner: %+v", c)
	}
	quads := 0
	for _, c := range p.Cmds {
		if c.Op == QuadTo {
			quads++
		}
	}
	if quads != 4 || p.Cmds[len(p.Cmds)-1].Op != Close {
		t.Fatalf("expected 4 corner curves and a close, got %+v", p.Cmds)
	}
}

func TestRoundedRect_ClampsRadius(t *testing.T) {
	p := RoundedRect(Rect{W: 20, H: 10}, 40)
	// radius clamps to 5: the first edge starts at x=5
	if p.Cmds[0].Data[0] != 5 {
		t.Fatalf("radius not clamped: %+v", p.Cmds[0])
	}
}

func TestFill_CoversInteriorLeavesCornersClear(t *testing.T) {
	dst := image.NewRGBA(image.Rect(0, 0, 100, 100))
	Fill(dst, RoundedRect(Rect{X: 10, Y: 10, W: 80, H: 80}, 20), Color{255, 0, 0, 255})
	if c := dst.RGBAAt(50, 50); c.R != 255 || c.A != 255 {
		t.Fatalf("center not filled: %+v", c)
	}
	if c := dst.RGBAAt(5, 5); c.A != 0 {
		t.Fatalf("outside pixel painted: %+v", c)
	}
	if c := dst.RGBAAt(11, 11); c.A != 0 {
		t.Fatalf("rounded corner should stay clear: %+v", c)
	}
	if c := dst.RGBAAt(50, 11); c.A != 255 {
		t.Fatalf("top edge interior not filled: %+v", c)
	}
}

func TestFill_TransparentIsNoop(t *testing.T) {
	dst := image.NewRGBA(image.Rect(0, 0, 10, 10))
	Fill(dst, RoundedRect(Rect{W: 10, H: 10}, 0), Color{})
	for _, v := range dst.Pix {
		if v != 0 {
			t.Fatalf("transparent fill modified pixels")
		}
	}
}
