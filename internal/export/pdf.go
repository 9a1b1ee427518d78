/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package export

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"

	"github.com/jung-kurt/gofpdf"

	"stickerstudio/internal/sticker"
)

// PDFOptions controls the print sheet.
//
// The page is the sticker canvas converted to points at DPI, so a
// 2048 px square at 300 DPI prints as a 6.83 in square. Bleed is an outer
// margin in points around the artwork; the cut guide follows the format's
// outline (circle for the vignette, rectangle otherwise).
type PDFOptions struct {
	DPI           int
	Bleed         float64
	IncludeGuides bool
	GuideColor    color.NRGBA
	Title         string
}

// DefaultDPI is the print resolution used when PDFOptions.DPI is zero.
const DefaultDPI = 300

// PageSize returns the trim size in points of a w×h pixel image at dpi.
func PageSize(w, h, dpi int) (float64, float64) {
	if dpi <= 0 {
		dpi = DefaultDPI
	}
	return float64(w) * 72 / float64(dpi), float64(h) * 72 / float64(dpi)
}

// WritePDF writes img as a single-page PDF sized for printing.
func WritePDF(path string, img image.Image, format sticker.Format, opt PDFOptions) error {
	if img == nil {
		return fmt.Errorf("image is nil")
	}
	guide := opt.GuideColor
	if guide == (color.NRGBA{}) {
		guide = color.NRGBA{R: 255, A: 255}
	}
	b := img.Bounds()
	trimW, trimH := PageSize(b.Dx(), b.Dy(), opt.DPI)
	bleed := opt.Bleed
	if bleed < 0 {
		bleed = 0
	}
	mediaW := trimW + 2*bleed
	mediaH := trimH + 2*bleed

	pdf := gofpdf.NewCustom(&gofpdf.InitType{
		UnitStr: "pt",
		Size:    gofpdf.SizeType{Wd: mediaW, Ht: mediaH},
	})
	title := opt.Title
	if title == "" {
		title = string(format) + " sticker"
	}
	pdf.SetTitle(title, false)
	pdf.SetAuthor("Sticker Studio", false)
	pdf.AddPageFormat("", gofpdf.SizeType{Wd: mediaW, Ht: mediaH})

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return fmt.Errorf("encode png: %w", err)
	}
	iopt := gofpdf.ImageOptions{ImageType: "PNG"}
	pdf.RegisterImageOptionsReader("sticker", iopt, &buf)
	pdf.ImageOptions("sticker", bleed, bleed, trimW, trimH, false, iopt, 0, "")

	if opt.IncludeGuides {
		pdf.SetDrawColor(int(guide.R), int(guide.G), int(guide.B))
		pdf.SetLineWidth(0.5)
		if format == sticker.CircularVignette {
			r := min(trimW, trimH) / 2
			pdf.Circle(bleed+trimW/2, bleed+trimH/2, r, "D")
		} else {
			pdf.Rect(bleed, bleed, trimW, trimH, "D")
		}
	}
	if err := pdf.Error(); err != nil {
		return fmt.Errorf("build pdf: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("ensure out dir: %w", err)
	}
	if err := pdf.OutputFileAndClose(path); err != nil {
		return fmt.Errorf("write pdf: %w", err)
	}
	return nil
}
