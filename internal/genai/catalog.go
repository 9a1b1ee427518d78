/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package genai

import (
	"fmt"
	"slices"

	"stickerstudio/internal/sticker"
)

// Option lists offered by the character form.
var (
	HairStyles = []string{
		"Long Blonde Box Braids",
		"Long Curly Natural Hair",
		"Two Pigtail Buns",
		"Single High Bun",
		"Long Straight Brown Hair",
		"Bonnet",
	}
	OutfitCategories = []string{"Professional", "Casual", "Athletic", "Cozy", "Trendy", "Pyjamas"}
	Expressions      = []string{
		"Happy", "Stressed", "Confident", "Thoughtful", "Sassy",
		"Determined", "Confused", "Thinking", "Excited", "Neutral",
	}
	Poses  = []string{"Standing", "Sitting", "Working", "Relaxed", "Gesturing", "Talking on Phone"}
	Scenes = []string{
		"Living Room", "Bedroom", "Office", "The Street", "Meeting Room",
		"On a Bus", "Kitchen Table", "In a Park", "Watching TV", "Transparent Background",
	}
	GlassesOptions = []string{"None", "Black Rectangular", "Red Rectangular", "Navy Blue Rectangular", "Sunglasses"}
)

// CharacterRequest is the structured description sent to the image backend.
type CharacterRequest struct {
	Prompt           string               `json:"prompt" yaml:"prompt"`
	Hair             string               `json:"hair" yaml:"hair"`
	Outfit           string               `json:"outfit" yaml:"outfit"`
	OutfitCategory   string               `json:"outfitCategory" yaml:"outfitCategory"`
	Expression       string               `json:"expression" yaml:"expression"`
	Pose             string               `json:"pose" yaml:"pose"`
	Scene            string               `json:"scene" yaml:"scene"`
	Glasses          string               `json:"glasses" yaml:"glasses"`
	Format           sticker.Format       `json:"format" yaml:"format"`
	IncludeCompanion bool                 `json:"includeCompanion" yaml:"includeCompanion"`
	Overlay          *sticker.TextOverlay `json:"-" yaml:"-"`
}

// DefaultRequest returns the form's initial selections.
func DefaultRequest() CharacterRequest {
	return CharacterRequest{
		Hair:           "Long Blonde Box Braids",
		OutfitCategory: "Cozy",
		Expression:     "Neutral",
		Pose:           "Sitting",
		Scene:          "Living Room",
		Glasses:        "Red Rectangular",
		Format:         sticker.DieCutSquare,
	}
}

// Validate checks every choice against its option list.
func (r CharacterRequest) Validate() error {
	checks := []struct {
		field, value string
		options      []string
	}{
		{"hair", r.Hair, HairStyles},
		{"outfit category", r.OutfitCategory, OutfitCategories},
		{"expression", r.Expression, Expressions},
		{"pose", r.Pose, Poses},
		{"scene", r.Scene, Scenes},
		{"glasses", r.Glasses, GlassesOptions},
	}
	for _, c := range checks {
		if !slices.Contains(c.options, c.value) {
			return fmt.Errorf("unknown %s %q", c.field, c.value)
		}
	}
	if !r.Format.Known() {
		return fmt.Errorf("unknown format %q", r.Format)
	}
	return nil
}

// AspectRatio is the backend aspect ratio for a format.
func AspectRatio(f sticker.Format) string {
	switch f {
	case sticker.DieCutLandscape:
		return "16:9"
	case sticker.DieCutVertical:
		return "9:16"
	default:
		return "1:1"
	}
}
