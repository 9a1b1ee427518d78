/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package genai

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	applog "stickerstudio/internal/log"
)

var (
	// ErrNoCandidate is returned when the backend answers without any candidate.
	ErrNoCandidate = errors.New("genai: the backend returned no response")
	// ErrNoImage is returned when the first candidate carries no image data.
	ErrNoImage = errors.New("genai: no image data found")
)

// APIError is a non-2xx answer from the backend.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("genai: backend status %d", e.Status)
	}
	return fmt.Sprintf("genai: backend status %d: %s", e.Status, e.Message)
}

// ImageGenerator renders a character portrait.
type ImageGenerator interface {
	Generate(ctx context.Context, req CharacterRequest) (ImageResult, error)
}

// QuoteExtractor pulls short quotes out of a passage.
type QuoteExtractor interface {
	ExtractQuotes(ctx context.Context, passage string) ([]Quote, error)
}

// ImageResult is a generated image.
type ImageResult struct {
	Data     []byte
	MimeType string
}

// Config configures a Client.
type Config struct {
	BaseURL    string
	ImageModel string
	TextModel  string
	Timeout    time.Duration
}

// Client implements ImageGenerator and QuoteExtractor over the generateContent REST endpoint.
type Client struct {
	BaseURL    string
	ImageModel string
	TextModel  string
	session    *Session
	client     *http.Client
}

var (
	_ ImageGenerator = (*Client)(nil)
	_ QuoteExtractor = (*Client)(nil)
)

// NewClient creates a client using the session's key. baseURL may include a trailing slash.
func NewClient(cfg Config, s *Session) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 2 * time.Minute
	}
	return &Client{
		BaseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		ImageModel: cfg.ImageModel,
		TextModel:  cfg.TextModel,
		session:    s,
		client:     &http.Client{Timeout: timeout},
	}
}

type part struct {
	Text       string      `json:"text,omitempty"`
	InlineData *inlineData `json:"inlineData,omitempty"`
}

type inlineData struct {
	MimeType string `json:"mimeType"`
	Data     string `json:"data"`
}

type content struct {
	Role  string `json:"role,omitempty"`
	Parts []part `json:"parts"`
}

type imageConfig struct {
	AspectRatio string `json:"aspectRatio,omitempty"`
}

type generationConfig struct {
	ResponseModalities []string     `json:"responseModalities,omitempty"`
	ImageConfig        *imageConfig `json:"imageConfig,omitempty"`
}

type generateRequest struct {
	Contents         []content         `json:"contents"`
	GenerationConfig *generationConfig `json:"generationConfig,omitempty"`
}

type generateResponse struct {
	Candidates []struct {
		Content content `json:"content"`
	} `json:"candidates"`
}

type errorEnvelope struct {
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
}

func (c *Client) generateContent(ctx context.Context, model string, body generateRequest) (*generateResponse, error) {
	key, err := c.session.APIKey()
	if err != nil {
		return nil, err
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}
	u, err := url.Parse(c.BaseURL + "/models/" + url.PathEscape(model) + ":generateContent")
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u.String(), bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", key)

	l := applog.WithOperation(applog.WithComponent("genai"), "generate_content")
	start := time.Now()
	resp, err := c.client.Do(req)
	if err != nil {
		l.Warn("request failed", "model", model, "err", err)
		return nil, err
	}
	defer resp.Body.Close()
	l.Debug("response", "model", model, "status", resp.StatusCode, "dur_ms", time.Since(start).Milliseconds())

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
		var env errorEnvelope
		msg := strings.TrimSpace(string(raw))
		if json.Unmarshal(raw, &env) == nil && env.Error.Message != "" {
			msg = env.Error.Message
		}
		return nil, &APIError{Status: resp.StatusCode, Message: msg}
	}
	var out generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return &out, nil
}

// Generate asks the image model for a portrait and returns the first inline image.
func (c *Client) Generate(ctx context.Context, r CharacterRequest) (ImageResult, error) {
	body := generateRequest{
		Contents: []content{{Parts: []part{{Text: Describe(r)}}}},
		GenerationConfig: &generationConfig{
			ResponseModalities: []string{"IMAGE"},
			ImageConfig:        &imageConfig{AspectRatio: AspectRatio(r.Format)},
		},
	}
	resp, err := c.generateContent(ctx, c.ImageModel, body)
	if err != nil {
		return ImageResult{}, err
	}
	if len(resp.Candidates) == 0 {
		return ImageResult{}, ErrNoCandidate
	}
	for _, p := range resp.Candidates[0].Content.Parts {
		if p.InlineData == nil || p.InlineData.Data == "" {
			continue
		}
		data, err := base64.StdEncoding.DecodeString(p.InlineData.Data)
		if err != nil {
			return ImageResult{}, fmt.Errorf("decode image data: %w", err)
		}
		mt := p.InlineData.MimeType
		if mt == "" {
			mt = "image/png"
		}
		return ImageResult{Data: data, MimeType: mt}, nil
	}
	return ImageResult{}, ErrNoImage
}

// Describe renders a request as the plain structured description sent to the backend.
func Describe(r CharacterRequest) string {
	var b strings.Builder
	line := func(k, v string) {
		if v != "" {
			fmt.Fprintf(&b, "%s: %s\n", k, v)
		}
	}
	b.WriteString("Sticker illustration of Ana.\n")
	line("Hair", r.Hair)
	if r.OutfitCategory != "" {
		line("Outfit", r.OutfitCategory+" style")
	}
	line("Outfit details", r.Outfit)
	line("Expression", r.Expression)
	line("Pose", r.Pose)
	line("Eyewear", r.Glasses)
	line("Scene", r.Scene)
	if r.IncludeCompanion {
		line("Companion", "a small tan puppy")
	} else {
		line("Companion", "none")
	}
	line("Format", string(r.Format))
	line("Aspect ratio", AspectRatio(r.Format))
	if o := r.Overlay; o != nil {
		line("Main text", o.MainText)
		line("Sub text", o.SubText)
		line("Text font", string(o.Font))
		line("Text background", string(o.BackgroundStyle))
	}
	line("Additional details", strings.TrimSpace(r.Prompt))
	return b.String()
}
