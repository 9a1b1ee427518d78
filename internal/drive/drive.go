/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package drive is the storage boundary for finished stickers. Only a local
// folder backend ships; remote providers plug in behind Store.
package drive

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"time"

	applog "stickerstudio/internal/log"
)

// DefaultStem names uploads whose main text slugs to nothing.
const DefaultStem = "ana-sticker"

// ErrNotAuthenticated is returned when a Store has no usable destination.
var ErrNotAuthenticated = errors.New("drive: not authenticated")

// File describes a stored sticker.
type File struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	CreatedTime time.Time `json:"createdTime"`
	WebViewLink string    `json:"webViewLink"`
}

// Store accepts rendered PNG bytes and lists what it holds, newest first.
type Store interface {
	Upload(ctx context.Context, name string, data []byte) (File, error)
	List(ctx context.Context, limit int) ([]File, error)
}

var slugRe = regexp.MustCompile(`[^a-z0-9-]+`)

// FileName builds "<slug>-<unix ms>.png" from the sticker's main text.
func FileName(mainText string, t time.Time) string {
	stem := slugRe.ReplaceAllString(strings.ToLower(mainText), "-")
	if stem == "" {
		stem = DefaultStem
	}
	return fmt.Sprintf("%s-%d.png", stem, t.UnixMilli())
}

// FolderStore keeps uploads as files in a local directory.
type FolderStore struct {
	Dir string
}

// NewFolderStore returns a store rooted at dir.
func NewFolderStore(dir string) *FolderStore { return &FolderStore{Dir: dir} }

func (s *FolderStore) root() (string, error) {
	if s == nil || strings.TrimSpace(s.Dir) == "" {
		return "", ErrNotAuthenticated
	}
	return s.Dir, nil
}

// Upload writes data under name. Names with path separators are rejected.
func (s *FolderStore) Upload(ctx context.Context, name string, data []byte) (File, error) {
	dir, err := s.root()
	if err != nil {
		return File{}, err
	}
	if err := ctx.Err(); err != nil {
		return File{}, err
	}
	if name == "" || name != filepath.Base(name) || name == "." || name == ".." {
		return File{}, fmt.Errorf("drive: invalid file name %q", name)
	}
	l := applog.WithOperation(applog.WithComponent("drive"), "upload").With(
		slog.String("dir", dir), slog.String("name", name))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		l.Error("create folder failed", slog.Any("err", err))
		return File{}, fmt.Errorf("drive: create folder: %w", err)
	}
	path := filepath.Join(dir, name)
	if err := writeFileSync(path, data); err != nil {
		l.Error("write failed", slog.Any("err", err))
		return File{}, fmt.Errorf("drive: write %s: %w", name, err)
	}
	st, err := os.Stat(path)
	if err != nil {
		return File{}, fmt.Errorf("drive: stat %s: %w", name, err)
	}
	l.Info("uploaded", slog.Int("bytes", len(data)))
	return fileFor(path, st), nil
}

// List returns at most limit PNG files, newest first. limit <= 0 means all.
func (s *FolderStore) List(ctx context.Context, limit int) ([]File, error) {
	dir, err := s.root()
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	ents, err := os.ReadDir(dir)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("drive: list: %w", err)
	}
	var out []File
	for _, e := range ents {
		if e.IsDir() || !strings.EqualFold(filepath.Ext(e.Name()), ".png") {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		out = append(out, fileFor(filepath.Join(dir, e.Name()), info))
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].CreatedTime.Equal(out[j].CreatedTime) {
			return out[i].CreatedTime.After(out[j].CreatedTime)
		}
		return out[i].Name > out[j].Name
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func fileFor(path string, info fs.FileInfo) File {
	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}
	return File{
		ID:          info.Name(),
		Name:        info.Name(),
		CreatedTime: info.ModTime().UTC(),
		WebViewLink: "file://" + filepath.ToSlash(abs),
	}
}

func writeFileSync(path string, data []byte) (err error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()
	if _, err := f.Write(data); err != nil {
		return err
	}
	return f.Sync()
}
