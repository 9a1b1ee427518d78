/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package sticker

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/draw"
	"image/png"
	"io"
	"math"

	"github.com/disintegration/imaging"
)

const dataURIPrefix = "data:image/png;base64,"

// MaxImageSide caps either side of a decoded base image, four times the largest canvas side.
const MaxImageSide = 4 * 2560

// DecodeImage decodes a base image after checking its declared size, so a tiny
// file claiming huge dimensions is rejected before any pixel buffer is allocated.
// Decoders must be registered by the caller.
func DecodeImage(b []byte) (image.Image, error) {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(b))
	if err != nil {
		return nil, err
	}
	if cfg.Width > MaxImageSide || cfg.Height > MaxImageSide {
		return nil, fmt.Errorf("image %dx%d exceeds %d px per side", cfg.Width, cfg.Height, MaxImageSide)
	}
	img, _, err := image.Decode(bytes.NewReader(b))
	return img, err
}

// EncodePNG writes img as PNG.
func EncodePNG(w io.Writer, img image.Image) error {
	if err := png.Encode(w, img); err != nil {
		return fmt.Errorf("encode png: %w", err)
	}
	return nil
}

// PNGBytes returns img encoded as PNG.
func PNGBytes(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := EncodePNG(&buf, img); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// DataURI returns img as a "data:image/png;base64," URI.
func DataURI(img image.Image) (string, error) {
	b, err := PNGBytes(img)
	if err != nil {
		return "", err
	}
	return dataURIPrefix + base64.StdEncoding.EncodeToString(b), nil
}

// DecodeDataURI extracts the PNG bytes of a URI produced by DataURI.
func DecodeDataURI(uri string) ([]byte, error) {
	if len(uri) < len(dataURIPrefix) || uri[:len(dataURIPrefix)] != dataURIPrefix {
		return nil, fmt.Errorf("not a png data uri")
	}
	b, err := base64.StdEncoding.DecodeString(uri[len(dataURIPrefix):])
	if err != nil {
		return nil, fmt.Errorf("decode data uri: %w", err)
	}
	return b, nil
}

// Compose fits base inside the canvas for f (preserving aspect ratio, centered) and
// composites the rendered overlay on top. A nil base yields the overlay alone.
func (c *Compositor) Compose(base image.Image, o TextOverlay, f Format) *image.RGBA {
	w, h := CanvasSize(f)
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	if base != nil && !base.Bounds().Empty() {
		fitted := fitContain(base, w, h)
		fb := fitted.Bounds()
		at := image.Pt((w-fb.Dx())/2, (h-fb.Dy())/2)
		draw.Draw(dst, fb.Sub(fb.Min).Add(at), fitted, fb.Min, draw.Over)
	}
	c.RenderInto(dst, o, f)
	return dst
}

// fitContain scales img up or down so it fits within w×h.
func fitContain(img image.Image, w, h int) image.Image {
	b := img.Bounds()
	s := math.Min(float64(w)/float64(b.Dx()), float64(h)/float64(b.Dy()))
	nw, nh := int(math.Round(float64(b.Dx())*s)), int(math.Round(float64(b.Dy())*s))
	if nw == b.Dx() && nh == b.Dy() {
		return img
	}
	return imaging.Resize(img, max(1, nw), max(1, nh), imaging.Lanczos)
}
