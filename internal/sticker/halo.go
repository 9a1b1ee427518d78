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
)

// stampAngles is the number of angular samples per radius (step π/12).
const stampAngles = 24

// Offset is one translation at which the text mask is stamped.
type Offset struct{ DX, DY float64 }

// StampOffsets lists the radial offsets of the stamped halo: radii 1, 3, 5, … up to
// offsetWidth (zero means 20), each at 24 evenly spaced angles starting at 0.
// A width of 20 yields 240 offsets. Negative widths yield none. Radii beyond limit
// are dropped.
func StampOffsets(offsetWidth int, limit float64) []Offset {
	var out []Offset
	eachStamp(offsetWidth, limit, func(o Offset) { out = append(out, o) })
	return out
}

func eachStamp(offsetWidth int, limit float64, fn func(Offset)) {
	if offsetWidth == 0 {
		offsetWidth = defaultOffsetWidth
	}
	for r := 1; r <= offsetWidth && float64(r) <= limit; r += 2 {
		for k := 0; k < stampAngles; k++ {
			a := float64(k) * math.Pi / 12
			fn(Offset{DX: math.Cos(a) * float64(r), DY: math.Sin(a) * float64(r)})
		}
	}
}

// stampHalo composites src through the union of mask copies translated by every
// stamp offset. Copies are resampled bilinearly at their sub-pixel offset and
// accumulated as repeated source-over coverage, so the result matches drawing
// each copy in turn. Radii longer than the canvas diagonal are skipped.
func stampHalo(dst *image.RGBA, mask *image.Alpha, src image.Image, offsetWidth int) {
	ink := inkBounds(mask)
	if ink.Empty() {
		return
	}
	b := dst.Bounds()
	limit := math.Hypot(float64(b.Dx()), float64(b.Dy()))
	if offsetWidth == 0 {
		offsetWidth = defaultOffsetWidth
	}
	reach := int(math.Ceil(math.Min(float64(offsetWidth), limit))) + 1
	area := ink.Inset(-reach).Intersect(b)
	if offsetWidth < 0 || area.Empty() {
		return
	}

	trans := make([]float32, area.Dx()*area.Dy())
	for i := range trans {
		trans[i] = 1
	}
	mb := mask.Bounds()
	at := func(x, y int) float32 {
		if !image.Pt(x, y).In(mb) {
			return 0
		}
		return float32(mask.Pix[mask.PixOffset(x, y)]) / 255
	}
	eachStamp(offsetWidth, limit, func(o Offset) {
		fx, fy := math.Floor(o.DX), math.Floor(o.DY)
		tx, ty := float32(o.DX-fx), float32(o.DY-fy)
		shift := image.Pt(int(fx), int(fy))
		r := image.Rectangle{Min: ink.Min.Add(shift), Max: ink.Max.Add(shift).Add(image.Pt(1, 1))}.Intersect(area)
		for y := r.Min.Y; y < r.Max.Y; y++ {
			row := trans[(y-area.Min.Y)*area.Dx():]
			sy := y - shift.Y
			for x := r.Min.X; x < r.Max.X; x++ {
				sx := x - shift.X
				a := (1-tx)*(1-ty)*at(sx, sy) +
					tx*(1-ty)*at(sx-1, sy) +
					(1-tx)*ty*at(sx, sy-1) +
					tx*ty*at(sx-1, sy-1)
				switch {
				case a >= 1:
					row[x-area.Min.X] = 0
				case a > 0:
					row[x-area.Min.X] *= 1 - a
				}
			}
		}
	})

	halo := image.NewAlpha(area)
	for i, t := range trans {
		halo.Pix[i] = uint8(255*(1-t) + 0.5)
	}
	draw.DrawMask(dst, area, src, image.Point{}, halo, area.Min, draw.Over)
}

// inkBounds returns the smallest rectangle holding every non-zero mask pixel.
func inkBounds(m *image.Alpha) image.Rectangle {
	b := m.Bounds()
	minX, minY, maxX, maxY := b.Max.X, b.Max.Y, b.Min.X-1, b.Min.Y-1
	for y := b.Min.Y; y < b.Max.Y; y++ {
		row := m.Pix[(y-b.Min.Y)*m.Stride : (y-b.Min.Y)*m.Stride+b.Dx()]
		for i, a := range row {
			if a == 0 {
				continue
			}
			x := b.Min.X + i
			minX, maxX = min(minX, x), max(maxX, x)
			minY, maxY = min(minY, y), max(maxY, y)
		}
	}
	if maxX < minX {
		return image.Rectangle{}
	}
	return image.Rect(minX, minY, maxX+1, maxY+1)
}

// dtInf stands in for infinity in the squared distance transform.
const dtInf = 1e20

// Dilate grows the mask by radius px using a Euclidean distance transform.
// Pixels with coverage ≥ 50 % seed the transform; the result is anti-aliased over
// one pixel at the rim and never lower than the input coverage.
func Dilate(mask *image.Alpha, radius float64) *image.Alpha {
	b := mask.Bounds()
	out := image.NewAlpha(b)
	copy(out.Pix, mask.Pix)
	ink := inkBounds(mask)
	if radius <= 0 || ink.Empty() {
		return out
	}
	grow := int(math.Ceil(radius)) + 1
	region := image.Rect(ink.Min.X-grow, ink.Min.Y-grow, ink.Max.X+grow, ink.Max.Y+grow).Intersect(b)
	w, h := region.Dx(), region.Dy()

	dist := make([]float64, w*h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if mask.AlphaAt(region.Min.X+x, region.Min.Y+y).A >= 128 {
				dist[y*w+x] = 0
			} else {
				dist[y*w+x] = dtInf
			}
		}
	}
	squaredEDT(dist, w, h)

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			d := math.Sqrt(dist[y*w+x])
			cov := math.Max(0, math.Min(1, radius+0.5-d))
			a := uint8(math.Round(cov * 255))
			px, py := region.Min.X+x, region.Min.Y+y
			i := out.PixOffset(px, py)
			if a > out.Pix[i] {
				out.Pix[i] = a
			}
		}
	}
	return out
}

// squaredEDT replaces each cell of f (0 inside, dtInf outside) with its squared
// distance to the nearest inside cell, separably by columns then rows.
func squaredEDT(f []float64, w, h int) {
	n := max(w, h)
	col := make([]float64, n)
	res := make([]float64, n)
	v := make([]int, n)
	z := make([]float64, n+1)
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			col[y] = f[y*w+x]
		}
		edt1d(col[:h], res[:h], v, z)
		for y := 0; y < h; y++ {
			f[y*w+x] = res[y]
		}
	}
	for y := 0; y < h; y++ {
		row := f[y*w : (y+1)*w]
		copy(col[:w], row)
		edt1d(col[:w], res[:w], v, z)
		copy(row, res[:w])
	}
}

// edt1d computes the 1D squared distance transform of f into d using the lower
// envelope of parabolas (Felzenszwalb and Huttenlocher).
func edt1d(f, d []float64, v []int, z []float64) {
	n := len(f)
	if n == 0 {
		return
	}
	k := 0
	v[0] = 0
	z[0] = math.Inf(-1)
	z[1] = math.Inf(1)
	for q := 1; q < n; q++ {
		fq := f[q] + float64(q*q)
		s := (fq - (f[v[k]] + float64(v[k]*v[k]))) / float64(2*q-2*v[k])
		for s <= z[k] {
			k--
			s = (fq - (f[v[k]] + float64(v[k]*v[k]))) / float64(2*q-2*v[k])
		}
		k++
		v[k] = q
		z[k] = s
		z[k+1] = math.Inf(1)
	}
	k = 0
	for q := 0; q < n; q++ {
		for z[k+1] < float64(q) {
			k++
		}
		dq := float64(q - v[k])
		d[q] = dq*dq + f[v[k]]
	}
}
