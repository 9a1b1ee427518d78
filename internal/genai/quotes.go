/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package genai

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

// MaxQuotes is the most quotes ExtractQuotes returns.
const MaxQuotes = 5

// Quote is one extracted quote with a one-sentence reason it suits a sticker.
type Quote struct {
	Quote string `json:"quote"`
	Why   string `json:"why"`
}

var (
	codeFence     = regexp.MustCompile("(?i)```json|```")
	trailingComma = regexp.MustCompile(`,(\s*[\]}])`)
	quoteFixer    = strings.NewReplacer("“", `"`, "”", `"`, "‘", "'", "’", "'")
)

// SanitizeQuotes parses a model answer that should hold a JSON array of quotes,
// tolerating code fences, prose around the array, trailing commas and smart quotes.
// Entries with a blank quote are dropped and at most MaxQuotes are kept.
func SanitizeQuotes(raw string) ([]Quote, error) {
	s := strings.TrimSpace(codeFence.ReplaceAllString(strings.TrimSpace(raw), ""))
	if i, j := strings.Index(s, "["), strings.LastIndex(s, "]"); i >= 0 && j > i {
		s = s[i : j+1]
	}
	s = trailingComma.ReplaceAllString(s, "$1")
	s = quoteFixer.Replace(s)

	var parsed []*Quote
	if err := json.Unmarshal([]byte(s), &parsed); err != nil {
		return nil, fmt.Errorf("failed to extract quotes: %w", err)
	}
	out := make([]Quote, 0, MaxQuotes)
	for _, q := range parsed {
		if q == nil || strings.TrimSpace(q.Quote) == "" {
			continue
		}
		out = append(out, *q)
		if len(out) == MaxQuotes {
			break
		}
	}
	return out, nil
}

// ExtractQuotes asks the text model for up to five sticker-ready quotes from passage.
func (c *Client) ExtractQuotes(ctx context.Context, passage string) ([]Quote, error) {
	prompt := "Extract exactly 5 short, shareable quotes (3 to 12 words) from the text below, " +
		"each with one sentence on why it works as a sticker. Respond only with a JSON array of " +
		`objects with "quote" and "why" fields.` + "\n\n\"\"\"\n" + passage + "\n\"\"\"\n"
	resp, err := c.generateContent(ctx, c.TextModel, generateRequest{
		Contents: []content{{Parts: []part{{Text: prompt}}}},
	})
	if err != nil {
		return nil, err
	}
	if len(resp.Candidates) == 0 {
		return nil, ErrNoCandidate
	}
	var text strings.Builder
	for _, p := range resp.Candidates[0].Content.Parts {
		text.WriteString(p.Text)
	}
	return SanitizeQuotes(text.String())
}
