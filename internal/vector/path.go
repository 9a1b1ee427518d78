/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package vector

// PathOp is a path drawing command.
type PathOp uint8

const (
	MoveTo PathOp = iota
	LineTo
	QuadTo // quadratic bezier (cx, cy, x, y)
	Close
)

type PathCmd struct {
	Op   PathOp
	Data [4]float32 // unused slots are zero
}

// Path is an outline built from move, line and quadratic segments.
type Path struct{ Cmds []PathCmd }

func (p *Path) MoveTo(x, y float32) {
	p.Cmds = append(p.Cmds, PathCmd{Op: MoveTo, Data: [4]float32{x, y}})
}
func (p *Path) LineTo(x, y float32) {
	p.Cmds = append(p.Cmds, PathCmd{Op: LineTo, Data: [4]float32{x, y}})
}
func (p *Path) QuadTo(cx, cy, x, y float32) {
	p.Cmds = append(p.Cmds, PathCmd{Op: QuadTo, Data: [4]float32{cx, cy, x, y}})
}
func (p *Path) Close() { p.Cmds = append(p.Cmds, PathCmd{Op: Close}) }

// RoundedRect builds a closed rounded rectangle from straight edges and one quadratic
// curve per corner, with the corner's control point on the rectangle's corner.
// The radius is clamped to half the shorter side.
func RoundedRect(r Rect, radius float32) *Path {
	radius = max(0, min(radius, min(r.W, r.H)/2))
	x, y, w, h := r.X, r.Y, r.W, r.H
	p := &Path{}
	p.MoveTo(x+radius, y)
	p.LineTo(x+w-radius, y)
	p.QuadTo(x+w, y, x+w, y+radius)
	p.LineTo(x+w, y+h-radius)
	p.QuadTo(x+w, y+h, x+w-radius, y+h)
	p.LineTo(x+radius, y+h)
	p.QuadTo(x, y+h, x, y+h-radius)
	p.LineTo(x, y+radius)
	p.QuadTo(x, y, x+radius, y)
	p.Close()
	return p
}
