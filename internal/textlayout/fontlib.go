/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package textlayout

import (
	"fmt"
	"os"
	"sync"

	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/gomedium"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
)

// GoFamily is the family name under which the built-in Go fonts are registered.
const GoFamily = "Go"

// FontLibrary stores parsed OpenType fonts mapped by family and weight.
// Parsed fonts are immutable and shared; faces are created per Resolve call
// because an opentype.Face is not safe for concurrent use.
type FontLibrary struct {
	mu    sync.RWMutex
	fonts map[fontKey]*opentype.Font
}

type fontKey struct {
	family string
	weight int
}

func NewFontLibrary() *FontLibrary { return &FontLibrary{fonts: make(map[fontKey]*opentype.Font)} }

// DefaultLibrary returns a library holding only the built-in Go fonts.
func DefaultLibrary() *FontLibrary {
	fl := NewFontLibrary()
	if err := fl.LoadGoFonts(); err != nil {
		// the embedded fonts are known-good
		panic(err)
	}
	return fl
}

// LoadGoFonts registers goregular (400), gomedium (500) and gobold (700) under GoFamily.
func (fl *FontLibrary) LoadGoFonts() error {
	for w, data := range map[int][]byte{400: goregular.TTF, 500: gomedium.TTF, 700: gobold.TTF} {
		if err := fl.LoadBytes(GoFamily, w, data); err != nil {
			return err
		}
	}
	return nil
}

// LoadTTF loads a font file into the library under the given family/weight.
func (fl *FontLibrary) LoadTTF(family string, weight int, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read font %s: %w", path, err)
	}
	if err := fl.LoadBytes(family, weight, data); err != nil {
		return fmt.Errorf("parse font %s: %w", path, err)
	}
	return nil
}

// LoadBytes parses raw TTF/OTF data and registers it.
func (fl *FontLibrary) LoadBytes(family string, weight int, data []byte) error {
	f, err := opentype.Parse(data)
	if err != nil {
		return err
	}
	fl.mu.Lock()
	defer fl.mu.Unlock()
	if fl.fonts == nil {
		fl.fonts = make(map[fontKey]*opentype.Font)
	}
	fl.fonts[fontKey{family: family, weight: weight}] = f
	return nil
}

// Has reports whether any weight of family is registered.
func (fl *FontLibrary) Has(family string) bool {
	fl.mu.RLock()
	defer fl.mu.RUnlock()
	for k := range fl.fonts {
		if k.family == family {
			return true
		}
	}
	return false
}

// find returns the exact family/weight match, else the nearest weight of the
// family (heavier wins ties), else the nearest weight of GoFamily.
func (fl *FontLibrary) find(spec FontSpec) *opentype.Font {
	if fl == nil {
		return nil
	}
	fl.mu.RLock()
	defer fl.mu.RUnlock()
	if f, ok := fl.fonts[fontKey{family: spec.Family, weight: spec.Weight}]; ok {
		return f
	}
	if f := fl.nearest(spec.Family, spec.Weight); f != nil {
		return f
	}
	return fl.nearest(GoFamily, spec.Weight)
}

func (fl *FontLibrary) nearest(family string, weight int) *opentype.Font {
	var best *opentype.Font
	bestDist, bestWeight := -1, 0
	for k, f := range fl.fonts {
		if k.family != family {
			continue
		}
		d := k.weight - weight
		if d < 0 {
			d = -d
		}
		if best == nil || d < bestDist || (d == bestDist && k.weight > bestWeight) {
			best, bestDist, bestWeight = f, d, k.weight
		}
	}
	return best
}

// OTProvider resolves FontSpec using a FontLibrary and falls back to another Provider.
// Kerning comes from the opentype face.
type OTProvider struct {
	Lib      *FontLibrary
	DPI      float64 // default 72 if zero, so SizePt equals pixels
	Fallback Provider
}

func (p OTProvider) Resolve(spec FontSpec) (font.Face, Metrics) {
	if spec.SizePt <= 0 {
		spec.SizePt = 12
	}
	dpi := p.DPI
	if dpi <= 0 {
		dpi = 72
	}
	if f := p.Lib.find(spec); f != nil {
		face, err := opentype.NewFace(f, &opentype.FaceOptions{Size: float64(spec.SizePt), DPI: dpi, Hinting: font.HintingNone})
		if err == nil {
			return face, metricsOf(face)
		}
	}
	fb := p.Fallback
	if fb == nil {
		fb = BasicProvider{}
	}
	return fb.Resolve(spec)
}
