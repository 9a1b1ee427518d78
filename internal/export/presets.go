/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package export

import (
	"fmt"
	"image"
	"path/filepath"
	"strings"

	"stickerstudio/internal/sticker"
)

// PresetName represents a named export preset.
type PresetName string

const (
	PresetWeb   PresetName = "web"
	PresetPrint PresetName = "print"
)

// ParsePreset maps a user string onto a preset; empty means web.
func ParsePreset(s string) (PresetName, error) {
	switch PresetName(strings.ToLower(strings.TrimSpace(s))) {
	case "", PresetWeb:
		return PresetWeb, nil
	case PresetPrint:
		return PresetPrint, nil
	}
	return "", fmt.Errorf("unknown preset: %s", s)
}

// BatchOptions controls a preset export of one sticker.
//
// Files are written as <OutDir>/<Stem>.<ext>. Formats overrides the preset's
// defaults (allowed: png, pdf).
type BatchOptions struct {
	Preset        PresetName
	Formats       []string
	DPIOverride   int
	IncludeGuides *bool
	OutDir        string
	Stem          string
}

// BatchExport writes img in every format of the preset and returns the paths.
func BatchExport(img image.Image, format sticker.Format, opt BatchOptions) ([]string, error) {
	if img == nil {
		return nil, fmt.Errorf("image is nil")
	}
	stem := opt.Stem
	if stem == "" {
		stem = "sticker"
	}
	formats := opt.Formats
	if len(formats) == 0 {
		formats = presetDefaultFormats(opt.Preset)
	}
	guides := presetIncludeGuides(opt.Preset)
	if opt.IncludeGuides != nil {
		guides = *opt.IncludeGuides
	}

	var out []string
	for _, f := range formats {
		switch strings.ToLower(strings.TrimSpace(f)) {
		case "png":
			p := filepath.Join(opt.OutDir, stem+".png")
			if err := WritePNG(p, img); err != nil {
				return out, fmt.Errorf("png: %w", err)
			}
			out = append(out, p)
		case "pdf":
			p := filepath.Join(opt.OutDir, stem+".pdf")
			po := PDFOptions{DPI: opt.DPIOverride, IncludeGuides: guides}
			if guides {
				po.Bleed = 9
			}
			if err := WritePDF(p, img, format, po); err != nil {
				return out, fmt.Errorf("pdf: %w", err)
			}
			out = append(out, p)
		default:
			return out, fmt.Errorf("unknown format: %s", f)
		}
	}
	return out, nil
}

func presetDefaultFormats(p PresetName) []string {
	switch p {
	case PresetPrint:
		return []string{"png", "pdf"}
	default:
		return []string{"png"}
	}
}

func presetIncludeGuides(p PresetName) bool {
	return p == PresetPrint
}
