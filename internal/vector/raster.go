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
	"image/color"
	"image/draw"

	xvector "golang.org/x/image/vector"
)

// Color is a non-premultiplied RGBA paint.
type Color struct{ R, G, B, A uint8 }

// NRGBA converts c to the standard library color type.
func (c Color) NRGBA() color.NRGBA { return color.NRGBA{R: c.R, G: c.G, B: c.B, A: c.A} }

// FromColor converts any color.Color to a Color.
func FromColor(c color.Color) Color {
	n := color.NRGBAModel.Convert(c).(color.NRGBA)
	return Color{R: n.R, G: n.G, B: n.B, A: n.A}
}

// Fill rasterizes p with the nonzero winding rule and composites it onto dst with
// Porter-Duff "over" using paint c. Coordinates are in dst's pixel space.
func Fill(dst draw.Image, p *Path, c Color) {
	b := dst.Bounds()
	if b.Empty() || len(p.Cmds) == 0 || c.A == 0 {
		return
	}
	z := xvector.NewRasterizer(b.Dx(), b.Dy())
	z.DrawOp = draw.Over
	ox, oy := float32(b.Min.X), float32(b.Min.Y)
	open := false
	for _, cmd := range p.Cmds {
		d := cmd.Data
		switch cmd.Op {
		case MoveTo:
			if open {
				z.ClosePath()
			}
			z.MoveTo(d[0]-ox, d[1]-oy)
			open = true
		case LineTo:
			z.LineTo(d[0]-ox, d[1]-oy)
		case QuadTo:
			z.QuadTo(d[0]-ox, d[1]-oy, d[2]-ox, d[3]-oy)
		case Close:
			z.ClosePath()
			open = false
		}
	}
	if open {
		z.ClosePath()
	}
	z.Draw(dst, b, image.NewUniform(c.NRGBA()), image.Point{})
}
