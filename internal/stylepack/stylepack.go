/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package stylepack manages named overlay styles and shares them as zip packs.
// A style is an overlay document stored as <dir>/<name>.json.
package stylepack

import (
	"archive/zip"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"time"

	applog "stickerstudio/internal/log"
	"stickerstudio/internal/sticker"
)

// ManifestName is the human-readable file at the root of every pack.
const ManifestName = "stylepack.manifest.txt"

// ErrNoStyle is returned by Load for an unknown style name.
var ErrNoStyle = errors.New("style not found")

var nameRe = regexp.MustCompile(`^[a-z0-9][a-z0-9_-]*$`)

// ValidName reports whether name can be used as a style file name.
func ValidName(name string) bool { return nameRe.MatchString(name) }

// List returns the style names in dir, sorted. A missing dir has no styles.
func List(dir string) ([]string, error) {
	ents, err := os.ReadDir(dir)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var names []string
	for _, e := range ents {
		if e.IsDir() || filepath.Ext(e.Name()) != ".json" {
			continue
		}
		names = append(names, strings.TrimSuffix(e.Name(), ".json"))
	}
	sort.Strings(names)
	return names, nil
}

// Load reads a style from dir.
func Load(dir, name string) (sticker.TextOverlay, error) {
	if !ValidName(name) {
		return sticker.TextOverlay{}, fmt.Errorf("invalid style name %q", name)
	}
	p := filepath.Join(dir, name+".json")
	if _, err := os.Stat(p); errors.Is(err, os.ErrNotExist) {
		return sticker.TextOverlay{}, fmt.Errorf("%w: %s", ErrNoStyle, name)
	}
	return sticker.LoadOverlay(p)
}

// Save stores o as a style in dir, replacing any style of the same name.
func Save(dir, name string, o sticker.TextOverlay) error {
	if !ValidName(name) {
		return fmt.Errorf("invalid style name %q", name)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("ensure styles dir: %w", err)
	}
	return sticker.SaveOverlay(filepath.Join(dir, name+".json"), o)
}

// Export zips every style in dir into destZipPath with a manifest at the root.
// An empty or missing dir still produces a pack holding only the manifest.
func Export(dir, destZipPath string) (int, error) {
	l := applog.WithOperation(applog.WithComponent("stylepack"), "export").With(slog.String("dir", dir))
	if strings.TrimSpace(dir) == "" {
		return 0, errors.New("styles dir is required")
	}
	if strings.TrimSpace(destZipPath) == "" {
		return 0, errors.New("destZipPath is required")
	}
	names, err := List(dir)
	if err != nil {
		return 0, err
	}
	if err := os.MkdirAll(filepath.Dir(destZipPath), 0o755); err != nil {
		return 0, fmt.Errorf("ensure zip dir: %w", err)
	}
	_ = os.Remove(destZipPath)

	zf, err := os.Create(destZipPath)
	if err != nil {
		return 0, fmt.Errorf("create zip: %w", err)
	}
	defer func() { _ = zf.Close() }()
	zw := zip.NewWriter(zf)

	manifest := fmt.Sprintf("Sticker Studio Style Pack\nCreated: %s\nStyles: %s\n",
		time.Now().Format(time.RFC3339), strings.Join(names, ", "))
	w, err := zw.Create(ManifestName)
	if err != nil {
		return 0, fmt.Errorf("add manifest: %w", err)
	}
	if _, err := w.Write([]byte(manifest)); err != nil {
		return 0, fmt.Errorf("write manifest: %w", err)
	}
	for _, n := range names {
		if err := addFile(zw, filepath.Join(dir, n+".json"), n+".json"); err != nil {
			l.Error("zip build failed", slog.Any("err", err))
			return 0, fmt.Errorf("build zip: %w", err)
		}
	}
	if err := zw.Close(); err != nil {
		return 0, fmt.Errorf("close zip: %w", err)
	}
	l.Info("style pack exported", slog.Int("styles", len(names)), slog.String("zip", destZipPath))
	return len(names), nil
}

func addFile(zw *zip.Writer, src, name string) error {
	fw, err := zw.Create(name)
	if err != nil {
		return err
	}
	f, err := os.Open(src)
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()
	_, err = io.Copy(fw, f)
	return err
}

// Install extracts the styles of a pack into dir and returns how many were added.
// Existing styles are kept, entries that are not valid overlay documents are
// skipped, and nested paths are flattened to their base name.
func Install(dir, packZipPath string) (int, error) {
	l := applog.WithOperation(applog.WithComponent("stylepack"), "install").With(slog.String("dir", dir))
	if strings.TrimSpace(dir) == "" {
		return 0, errors.New("styles dir is required")
	}
	if strings.TrimSpace(packZipPath) == "" {
		return 0, errors.New("packZipPath is required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return 0, fmt.Errorf("ensure styles dir: %w", err)
	}
	r, err := zip.OpenReader(packZipPath)
	if err != nil {
		return 0, fmt.Errorf("open pack: %w", err)
	}
	defer func() { _ = r.Close() }()

	installed := 0
	for _, f := range r.File {
		if f.FileInfo().IsDir() || f.Name == ManifestName {
			continue
		}
		base := path.Base(f.Name)
		name := strings.TrimSuffix(base, ".json")
		if path.Ext(base) != ".json" || !ValidName(name) {
			l.Warn("skip non-style entry", slog.String("entry", f.Name))
			continue
		}
		target := filepath.Join(dir, name+".json")
		if _, err := os.Stat(target); err == nil {
			l.Warn("skip existing style", slog.String("style", name))
			continue
		}
		data, err := readEntry(f)
		if err != nil {
			return installed, err
		}
		if _, err := sticker.ParseOverlay(data); err != nil {
			l.Warn("skip invalid style", slog.String("style", name), slog.Any("err", err))
			continue
		}
		if err := os.WriteFile(target, data, 0o644); err != nil {
			return installed, err
		}
		installed++
	}
	l.Info("style pack installed", slog.Int("styles", installed))
	return installed, nil
}

func readEntry(f *zip.File) ([]byte, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, err
	}
	defer func() { _ = rc.Close() }()
	return io.ReadAll(io.LimitReader(rc, 1<<20))
}
