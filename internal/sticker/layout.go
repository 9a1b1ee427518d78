/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package sticker

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

const (
	weightBlack = 900
	weightBold  = 700

	// positionMargin is the canvas-height fraction kept clear above Top or below Bottom text.
	positionMargin = 0.08
)

// Line is one laid-out line of lettering.
type Line struct {
	Text    string // uppercased
	Size    float64
	Color   string
	Weight  int
	CenterY float64 // vertical center on the canvas; set by Layout
}

// BuildLines assembles the main line and, when its trimmed text is non-empty, the sub line.
// The first line is drawn at weight 900 and the second at 700.
func BuildLines(o TextOverlay) []Line {
	upper := cases.Upper(language.Und)
	lines := []Line{{Text: upper.String(o.MainText), Size: o.SizeMain, Color: o.ColorMain, Weight: weightBlack}}
	if strings.TrimSpace(o.SubText) != "" {
		c := o.ColorSub
		if c == "" {
			c = o.ColorMain
		}
		lines = append(lines, Line{Text: upper.String(o.SubText), Size: o.SizeSub, Color: c, Weight: weightBold})
	}
	return lines
}

// TextLayout is the vertical arrangement of the lines on a canvas.
type TextLayout struct {
	Width, Height int
	CenterX       float64
	TotalHeight   float64
	StartY        float64
	Lines         []Line
}

// Layout stacks the lines vertically centered on the canvas with a leading × 12 px gap.
func Layout(o TextOverlay, f Format) TextLayout {
	return layoutLines(o, f, false)
}

func layoutLines(o TextOverlay, f Format, honorPosition bool) TextLayout {
	w, h := CanvasSize(f)
	lines := BuildLines(o)
	gap := o.LineGap()

	total := float64(len(lines)-1) * gap
	for _, l := range lines {
		total += l.Size
	}

	startY := float64(h)/2 - total/2
	if honorPosition {
		switch o.Position {
		case PositionTop:
			startY = float64(h) * positionMargin
		case PositionBottom:
			startY = float64(h)*(1-positionMargin) - total
		}
	}

	var above float64
	for i := range lines {
		lines[i].CenterY = startY + above + gap*float64(i) + lines[i].Size/2
		above += lines[i].Size
	}
	return TextLayout{
		Width:       w,
		Height:      h,
		CenterX:     float64(w) / 2,
		TotalHeight: total,
		StartY:      startY,
		Lines:       lines,
	}
}
