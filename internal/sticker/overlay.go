/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package sticker composites stylized lettering onto transparent sticker canvases.
//
// A render takes a TextOverlay and a Format and produces a canvas sized by the
// format table with one or two uppercase lines centered on it. A background pass
// (radial halo, rounded bubble, or nothing) is drawn beneath the filled lines,
// and each line may carry a drop shadow. Rendering is deterministic and safe
// for concurrent use.
package sticker

// Font is one of the supported lettering typefaces.
type Font string

const (
	FontAnton      Font = "Anton"
	FontMontserrat Font = "Montserrat"
	FontBebasNeue  Font = "Bebas Neue"
	FontInter      Font = "Inter"
)

// Fonts lists the supported typefaces in display order.
func Fonts() []Font { return []Font{FontAnton, FontMontserrat, FontBebasNeue, FontInter} }

// Position is where the text block sits. Only honored when Options.HonorPosition is set.
type Position string

const (
	PositionTop        Position = "Top"
	PositionBottom     Position = "Bottom"
	PositionIntegrated Position = "Integrated"
)

// BackgroundStyle selects the background pass.
type BackgroundStyle string

const (
	BackgroundNone         BackgroundStyle = "none"
	BackgroundOffsetBorder BackgroundStyle = "offset-border"
	BackgroundSpeechBubble BackgroundStyle = "speech-bubble"
)

const (
	defaultOffsetWidth = 20
	maxBubbleRadius    = 40
	leadingUnit        = 12 // px of line gap per unit of leading
)

// TextOverlay is the lettering configuration of one render. It is never mutated by the compositor.
type TextOverlay struct {
	MainText        string          `json:"mainText" yaml:"mainText"`
	SubText         string          `json:"subText" yaml:"subText"`
	Font            Font            `json:"font" yaml:"font"`
	ColorMain       string          `json:"colorMain" yaml:"colorMain"`
	ColorSub        string          `json:"colorSub" yaml:"colorSub"`
	ColorOutline    string          `json:"colorOutline" yaml:"colorOutline"`
	SizeMain        float64         `json:"sizeMain" yaml:"sizeMain"`
	SizeSub         float64         `json:"sizeSub" yaml:"sizeSub"`
	Tracking        float64         `json:"tracking" yaml:"tracking"`
	Leading         float64         `json:"leading" yaml:"leading"`
	HasOutline      bool            `json:"hasOutline" yaml:"hasOutline"`
	HasShadow       bool            `json:"hasShadow" yaml:"hasShadow"`
	Position        Position        `json:"position" yaml:"position"`
	BackgroundStyle BackgroundStyle `json:"backgroundStyle" yaml:"backgroundStyle"`
	OffsetWidth     int             `json:"offsetWidth" yaml:"offsetWidth"`
}

// DefaultOverlay returns the studio's starting lettering.
func DefaultOverlay() TextOverlay {
	return TextOverlay{
		MainText:        "DOING NOTHING",
		SubText:         "IS THE PLAN",
		Font:            FontMontserrat,
		ColorMain:       "#FFFFFF",
		ColorSub:        "#FF6B6B",
		ColorOutline:    "#000000",
		SizeMain:        44,
		SizeSub:         28,
		Tracking:        1,
		Leading:         1.1,
		HasOutline:      true,
		HasShadow:       true,
		Position:        PositionIntegrated,
		BackgroundStyle: BackgroundOffsetBorder,
		OffsetWidth:     defaultOffsetWidth,
	}
}

// effectiveOffset is OffsetWidth with zero meaning the default of 20 px.
func (o TextOverlay) effectiveOffset() int {
	if o.OffsetWidth == 0 {
		return defaultOffsetWidth
	}
	return o.OffsetWidth
}

// LineGap is the vertical gap between stacked lines: leading × 12 px.
func (o TextOverlay) LineGap() float64 { return o.Leading * leadingUnit }
