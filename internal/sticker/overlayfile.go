/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package sticker

import (
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/xeipuuv/gojsonschema"
	"gopkg.in/yaml.v3"
)

//go:embed overlay.schema.json
var overlaySchema []byte

// ErrInvalidOverlay is returned when an overlay document fails schema validation.
var ErrInvalidOverlay = errors.New("invalid overlay")

// ValidateOverlay checks a decoded overlay document (JSON or YAML) against the
// embedded schema. Numeric ranges are deliberately unconstrained.
func ValidateOverlay(doc any) error { return validate(gojsonschema.NewGoLoader(doc)) }

// ValidateOverlayJSON validates raw JSON bytes against the embedded schema.
func ValidateOverlayJSON(data []byte) error { return validate(gojsonschema.NewBytesLoader(data)) }

func validate(doc gojsonschema.JSONLoader) error {
	res, err := gojsonschema.Validate(gojsonschema.NewBytesLoader(overlaySchema), doc)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidOverlay, err)
	}
	if !res.Valid() {
		msgs := make([]string, 0, len(res.Errors()))
		for _, e := range res.Errors() {
			msgs = append(msgs, e.String())
		}
		return fmt.Errorf("%w: %s", ErrInvalidOverlay, strings.Join(msgs, "; "))
	}
	return nil
}

// ParseOverlay decodes a JSON overlay document. Fields absent from the document
// keep their DefaultOverlay values.
func ParseOverlay(data []byte) (TextOverlay, error) {
	if err := ValidateOverlayJSON(data); err != nil {
		return TextOverlay{}, err
	}
	o := DefaultOverlay()
	if err := json.Unmarshal(data, &o); err != nil {
		return TextOverlay{}, fmt.Errorf("decode overlay: %w", err)
	}
	return o, nil
}

// ParseOverlayYAML decodes a YAML overlay document, validated like JSON.
func ParseOverlayYAML(data []byte) (TextOverlay, error) {
	var doc map[string]any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return TextOverlay{}, fmt.Errorf("decode overlay: %w", err)
	}
	if doc == nil {
		doc = map[string]any{}
	}
	if err := ValidateOverlay(doc); err != nil {
		return TextOverlay{}, err
	}
	o := DefaultOverlay()
	if err := yaml.Unmarshal(data, &o); err != nil {
		return TextOverlay{}, fmt.Errorf("decode overlay: %w", err)
	}
	return o, nil
}

// LoadOverlay reads an overlay file; .yaml and .yml are YAML, anything else JSON.
func LoadOverlay(path string) (TextOverlay, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return TextOverlay{}, fmt.Errorf("read overlay %s: %w", path, err)
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return ParseOverlayYAML(data)
	}
	return ParseOverlay(data)
}

// SaveOverlay writes o as indented JSON.
func SaveOverlay(path string, o TextOverlay) error {
	data, err := json.MarshalIndent(o, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, append(data, '\n'), 0o644)
}
