/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"image"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"gopkg.in/yaml.v3"

	"stickerstudio/internal/config"
	"stickerstudio/internal/drive"
	"stickerstudio/internal/export"
	"stickerstudio/internal/genai"
	"stickerstudio/internal/history"
	applog "stickerstudio/internal/log"
	"stickerstudio/internal/server"
	"stickerstudio/internal/sticker"
	"stickerstudio/internal/stylepack"

	// base image decoders
	_ "image/jpeg"
	_ "image/png"
)

// overlayFlags are shared by every command that letters an image.
type overlayFlags struct {
	style      string
	file       string
	mainText   string
	subText    string
	font       string
	background string
	offset     int
	format     string
	out        string
	preset     string
	save       bool
}

func addOverlayFlags(fs *flag.FlagSet) *overlayFlags {
	f := &overlayFlags{}
	fs.StringVar(&f.style, "style", "", "saved style to start from (see: stickerstudio styles)")
	fs.StringVar(&f.file, "overlay", "", "overlay file (.json, .yaml); replaces -style")
	fs.StringVar(&f.mainText, "main", "", "main text")
	fs.StringVar(&f.subText, "sub", "", `sub text ("-" for none)`)
	fs.StringVar(&f.font, "font", "", "font: Anton, Montserrat, Bebas Neue, Inter")
	fs.StringVar(&f.background, "background", "", "background: none, offset-border, speech-bubble")
	fs.IntVar(&f.offset, "offset", -1, "offset width in px")
	fs.StringVar(&f.format, "format", "", "output format (see: stickerstudio formats)")
	fs.StringVar(&f.out, "out", "", "output file (.png or .pdf); default writes into the output dir")
	fs.StringVar(&f.preset, "preset", "web", "export preset when -out is not set: web, print")
	fs.BoolVar(&f.save, "save", true, "record the sticker in history")
	return f
}

func (f *overlayFlags) overlay(stylesDir string) (sticker.TextOverlay, error) {
	o := sticker.DefaultOverlay()
	if f.style != "" {
		st, err := stylepack.Load(stylesDir, f.style)
		if err != nil {
			return o, err
		}
		o = st
	}
	if f.file != "" {
		loaded, err := sticker.LoadOverlay(f.file)
		if err != nil {
			return o, err
		}
		o = loaded
	}
	if f.mainText != "" {
		o.MainText = f.mainText
	}
	switch f.subText {
	case "":
	case "-":
		o.SubText = ""
	default:
		o.SubText = f.subText
	}
	if f.font != "" {
		o.Font = sticker.Font(f.font)
	}
	if f.background != "" {
		o.BackgroundStyle = sticker.BackgroundStyle(f.background)
	}
	if f.offset >= 0 {
		o.OffsetWidth = f.offset
	}
	if err := sticker.ValidateOverlay(o); err != nil {
		return o, err
	}
	return o, nil
}

func parse(fs *flag.FlagSet, args []string) error {
	fs.SetOutput(os.Stderr)
	if err := fs.Parse(args); err != nil {
		return errUsage
	}
	return nil
}

// format resolves a -format value; unknown names fall back to Die-Cut Square.
func (a *app) format(s string) sticker.Format {
	if s == "" {
		s = a.cfg.General.DefaultFormat
	}
	f := sticker.Format(s)
	if !f.Known() {
		applog.WithComponent("cli").Warn("unknown format, using default canvas", slog.String("format", s))
		return sticker.DieCutSquare
	}
	return f
}

func (a *app) watch(o *sticker.TextOverlay) {
	if a.crash != nil {
		a.crash.Overlay = o
	}
}

func (a *app) openHistory(ctx context.Context) (history.Store, error) {
	if a.cfg.History.Driver == "memory" {
		return history.NewMemoryStore(), nil
	}
	dsn, err := a.cfg.ResolveHistoryDSN()
	if err != nil {
		return nil, err
	}
	s, err := history.OpenSQL(ctx, a.cfg.History.Driver, dsn)
	if err != nil {
		return nil, err
	}
	return s, nil
}

func (a *app) stylesDir() string {
	dir, err := config.StateDir()
	if err != nil {
		return "styles"
	}
	return filepath.Join(dir, "styles")
}

func (a *app) driveStore() drive.Store { return drive.NewFolderStore(a.cfg.Drive.Folder) }

func (a *app) writeOutput(img image.Image, o sticker.TextOverlay, f sticker.Format, of *overlayFlags) ([]string, error) {
	if of.out != "" {
		var err error
		if strings.EqualFold(filepath.Ext(of.out), ".pdf") {
			err = export.WritePDF(of.out, img, f, export.PDFOptions{IncludeGuides: true})
		} else {
			err = export.WritePNG(of.out, img)
		}
		if err != nil {
			return nil, err
		}
		return []string{of.out}, nil
	}
	preset, err := export.ParsePreset(of.preset)
	if err != nil {
		return nil, err
	}
	stem := strings.TrimSuffix(drive.FileName(o.MainText, a.now()), ".png")
	return export.BatchExport(img, f, export.BatchOptions{Preset: preset, OutDir: a.cfg.General.OutputDir, Stem: stem})
}

// finish writes the sticker and, when asked, records it in history.
func (a *app) finish(ctx context.Context, img image.Image, settings genai.CharacterRequest, o sticker.TextOverlay, f sticker.Format, of *overlayFlags) error {
	paths, err := a.writeOutput(img, o, f, of)
	if err != nil {
		return err
	}
	for _, p := range paths {
		_, _ = fmt.Fprintln(a.out, "Wrote", p)
	}
	if !of.save {
		return nil
	}
	data, err := sticker.PNGBytes(img)
	if err != nil {
		return err
	}
	hist, err := a.openHistory(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = hist.Close() }()
	e := history.NewEntry(data, settings, o, a.now())
	if _, err := history.Add(ctx, hist, e); err != nil {
		return err
	}
	_, _ = fmt.Fprintln(a.out, "Saved", e.ID)
	return nil
}

func cmdRender(ctx context.Context, a *app, args []string) error {
	fs := flag.NewFlagSet("render", flag.ContinueOnError)
	of := addOverlayFlags(fs)
	if err := parse(fs, args); err != nil {
		return err
	}
	o, err := of.overlay(a.stylesDir())
	if err != nil {
		return err
	}
	a.watch(&o)
	f := a.format(of.format)
	img := a.comp.Render(o, f)
	return a.finish(ctx, img, genai.CharacterRequest{Format: f}, o, f, of)
}

func loadImage(path string) (image.Image, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	img, err := sticker.DecodeImage(b)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return img, nil
}

func cmdCompose(ctx context.Context, a *app, args []string) error {
	fs := flag.NewFlagSet("compose", flag.ContinueOnError)
	of := addOverlayFlags(fs)
	base := fs.String("base", "", "base image (PNG or JPEG)")
	if err := parse(fs, args); err != nil {
		return err
	}
	if *base == "" {
		return errUsage
	}
	o, err := of.overlay(a.stylesDir())
	if err != nil {
		return err
	}
	img, err := loadImage(*base)
	if err != nil {
		return err
	}
	a.watch(&o)
	f := a.format(of.format)
	return a.finish(ctx, a.comp.Compose(img, o, f), genai.CharacterRequest{Format: f}, o, f, of)
}

func (a *app) generator(ctx context.Context) (*genai.Client, *genai.Session, error) {
	sess, err := genai.Open(ctx, a.keys)
	if errors.Is(err, genai.ErrNoAPIKey) {
		return nil, nil, fmt.Errorf("%w: run 'stickerstudio apikey set <key>' or set %s", err, config.EnvAPIKey)
	}
	if err != nil {
		return nil, nil, err
	}
	g := a.cfg.Generator
	c := genai.NewClient(genai.Config{
		BaseURL:    g.BaseURL,
		ImageModel: g.ImageModel,
		TextModel:  g.TextModel,
		Timeout:    g.EffectiveTimeout(),
	}, sess)
	return c, sess, nil
}

func cmdGenerate(ctx context.Context, a *app, args []string) error {
	fs := flag.NewFlagSet("generate", flag.ContinueOnError)
	of := addOverlayFlags(fs)
	req := genai.DefaultRequest()
	fs.StringVar(&req.Prompt, "prompt", "", "free-form addition to the description")
	fs.StringVar(&req.Hair, "hair", req.Hair, "hair style")
	fs.StringVar(&req.Outfit, "outfit", "", "outfit details")
	fs.StringVar(&req.OutfitCategory, "category", req.OutfitCategory, "outfit category")
	fs.StringVar(&req.Expression, "expression", req.Expression, "facial expression")
	fs.StringVar(&req.Pose, "pose", req.Pose, "pose")
	fs.StringVar(&req.Scene, "scene", req.Scene, "scene")
	fs.StringVar(&req.Glasses, "glasses", req.Glasses, "glasses")
	fs.BoolVar(&req.IncludeCompanion, "companion", false, "include the puppy")
	plain := fs.Bool("plain", false, "skip the text overlay")
	if err := parse(fs, args); err != nil {
		return err
	}
	o, err := of.overlay(a.stylesDir())
	if err != nil {
		return err
	}
	req.Format = a.format(of.format)
	if err := req.Validate(); err != nil {
		return err
	}
	a.watch(&o)

	client, sess, err := a.generator(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = sess.Close() }()
	l := applog.WithOperation(applog.WithComponent("cli"), "generate")
	l.Info("requesting image", slog.String("format", string(req.Format)))
	res, err := client.Generate(ctx, req)
	if err != nil {
		return err
	}
	base, err := sticker.DecodeImage(res.Data)
	if err != nil {
		return fmt.Errorf("decode generated image: %w", err)
	}
	var out image.Image = base
	if !*plain {
		out = a.comp.Compose(base, o, req.Format)
		req.Overlay = &o
	}
	return a.finish(ctx, out, req, o, req.Format, of)
}

func cmdQuotes(ctx context.Context, a *app, args []string) error {
	fs := flag.NewFlagSet("quotes", flag.ContinueOnError)
	file := fs.String("file", "", "passage file (default stdin)")
	if err := parse(fs, args); err != nil {
		return err
	}
	var r io.Reader = os.Stdin
	if *file != "" {
		f, err := os.Open(*file)
		if err != nil {
			return err
		}
		defer func() { _ = f.Close() }()
		r = f
	}
	passage, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	if strings.TrimSpace(string(passage)) == "" {
		return errors.New("passage is empty")
	}
	client, sess, err := a.generator(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = sess.Close() }()
	quotes, err := client.ExtractQuotes(ctx, string(passage))
	if err != nil {
		return err
	}
	for i, q := range quotes {
		_, _ = fmt.Fprintf(a.out, "%d. %s\n   %s\n", i+1, q.Quote, q.Why)
	}
	return nil
}

func cmdHistory(ctx context.Context, a *app, args []string) error {
	sub := "list"
	if len(args) > 0 {
		sub, args = args[0], args[1:]
	}
	hist, err := a.openHistory(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = hist.Close() }()

	needID := func() (string, error) {
		if len(args) == 0 {
			return "", errUsage
		}
		return args[0], nil
	}
	switch sub {
	case "list":
		entries, err := hist.Load(ctx)
		if err != nil {
			return err
		}
		if len(entries) == 0 {
			_, _ = fmt.Fprintln(a.out, "No stickers yet.")
			return nil
		}
		tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
		for _, e := range entries {
			fav := ""
			if e.Favorite {
				fav = "*"
			}
			_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", e.ID, e.Timestamp.Local().Format("2006-01-02 15:04"), e.Overlay.MainText, fav)
		}
		return tw.Flush()
	case "show":
		id, err := needID()
		if err != nil {
			return err
		}
		e, err := history.Get(ctx, hist, id)
		if err != nil {
			return err
		}
		out := filepath.Join(a.cfg.General.OutputDir, e.ID+".png")
		if len(args) > 1 {
			out = args[1]
		}
		if err := os.MkdirAll(filepath.Dir(out), 0o755); err != nil {
			return err
		}
		if err := os.WriteFile(out, e.Image, 0o644); err != nil {
			return err
		}
		_, _ = fmt.Fprintln(a.out, "Wrote", out)
		return nil
	case "favorite", "unfavorite":
		id, err := needID()
		if err != nil {
			return err
		}
		return history.SetFavorite(ctx, hist, id, sub == "favorite")
	case "clear":
		return history.Clear(ctx, hist)
	}
	return errUsage
}

func cmdStyles(_ context.Context, a *app, args []string) error {
	sub := "list"
	if len(args) > 0 {
		sub, args = args[0], args[1:]
	}
	dir := a.stylesDir()
	switch sub {
	case "list":
		names, err := stylepack.List(dir)
		if err != nil {
			return err
		}
		if len(names) == 0 {
			_, _ = fmt.Fprintln(a.out, "No saved styles.")
		}
		for _, n := range names {
			_, _ = fmt.Fprintln(a.out, n)
		}
		return nil
	case "save":
		if len(args) == 0 {
			return errUsage
		}
		name := args[0]
		fs := flag.NewFlagSet("styles save", flag.ContinueOnError)
		of := addOverlayFlags(fs)
		if err := parse(fs, args[1:]); err != nil {
			return err
		}
		o, err := of.overlay(dir)
		if err != nil {
			return err
		}
		if err := stylepack.Save(dir, name, o); err != nil {
			return err
		}
		_, _ = fmt.Fprintln(a.out, "Saved style", name)
		return nil
	case "export":
		if len(args) == 0 {
			return errUsage
		}
		n, err := stylepack.Export(dir, args[0])
		if err != nil {
			return err
		}
		_, _ = fmt.Fprintf(a.out, "Exported %d styles to %s\n", n, args[0])
		return nil
	case "install":
		if len(args) == 0 {
			return errUsage
		}
		n, err := stylepack.Install(dir, args[0])
		if err != nil {
			return err
		}
		_, _ = fmt.Fprintf(a.out, "Installed %d styles\n", n)
		return nil
	}
	return errUsage
}

func cmdUpload(ctx context.Context, a *app, args []string) error {
	fs := flag.NewFlagSet("upload", flag.ContinueOnError)
	id := fs.String("id", "", "history sticker id")
	file := fs.String("file", "", "PNG file to upload")
	list := fs.Bool("list", false, "list uploaded stickers instead")
	if err := parse(fs, args); err != nil {
		return err
	}
	store := a.driveStore()
	if *list {
		files, err := store.List(ctx, 20)
		if err != nil {
			return err
		}
		for _, f := range files {
			_, _ = fmt.Fprintf(a.out, "%s\t%s\t%s\n", f.Name, f.CreatedTime.Local().Format("2006-01-02 15:04"), f.WebViewLink)
		}
		return nil
	}

	var (
		data []byte
		text string
	)
	switch {
	case *id != "":
		hist, err := a.openHistory(ctx)
		if err != nil {
			return err
		}
		e, err := history.Get(ctx, hist, *id)
		_ = hist.Close()
		if err != nil {
			return err
		}
		data, text = e.Image, e.Overlay.MainText
	case *file != "":
		b, err := os.ReadFile(*file)
		if err != nil {
			return err
		}
		data, text = b, strings.TrimSuffix(filepath.Base(*file), filepath.Ext(*file))
	default:
		return errUsage
	}
	f, err := store.Upload(ctx, drive.FileName(text, a.now()), data)
	if errors.Is(err, drive.ErrNotAuthenticated) {
		return fmt.Errorf("%w: set drive.folder in the config file or %s", err, config.EnvDriveFolder)
	}
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintf(a.out, "Uploaded %s\n%s\n", f.Name, f.WebViewLink)
	return nil
}

func cmdServe(ctx context.Context, a *app, args []string) error {
	fs := flag.NewFlagSet("serve", flag.ContinueOnError)
	addr := fs.String("addr", ":8080", "listen address")
	if err := parse(fs, args); err != nil {
		return err
	}
	hist, err := a.openHistory(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = hist.Close() }()
	s := server.New(a.comp, hist, a.driveStore())
	_, _ = fmt.Fprintf(a.out, "Sticker Studio API on %s\n", *addr)
	return server.ListenAndServe(ctx, *addr, s.Handler())
}

func cmdFormats(_ context.Context, a *app, _ []string) error {
	tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	for _, f := range sticker.Formats() {
		w, h := sticker.CanvasSize(f)
		_, _ = fmt.Fprintf(tw, "%s\t%dx%d\t%s\n", f, w, h, genai.AspectRatio(f))
	}
	return tw.Flush()
}

func cmdAPIKey(_ context.Context, a *app, args []string) error {
	if len(args) == 0 {
		return errUsage
	}
	switch args[0] {
	case "set":
		if len(args) < 2 {
			return errUsage
		}
		if err := a.keys.Store(args[1]); err != nil {
			return err
		}
		_, _ = fmt.Fprintln(a.out, "API key stored in the OS keychain.")
	case "clear":
		if err := a.keys.Clear(); err != nil {
			return err
		}
		_, _ = fmt.Fprintln(a.out, "API key removed.")
	case "status":
		key, err := a.keys.Lookup()
		switch {
		case err != nil:
			return err
		case key == "":
			_, _ = fmt.Fprintln(a.out, "No API key configured.")
		case os.Getenv(config.EnvAPIKey) != "":
			_, _ = fmt.Fprintf(a.out, "API key set via %s.\n", config.EnvAPIKey)
		default:
			_, _ = fmt.Fprintln(a.out, "API key stored in the OS keychain.")
		}
	default:
		return errUsage
	}
	return nil
}

func cmdConfig(_ context.Context, a *app, args []string) error {
	path, err := config.ConfigPath()
	if err != nil {
		return err
	}
	if len(args) > 0 && args[0] == "init" {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("config already exists: %s", path)
		}
		if err := config.Save(config.Defaults()); err != nil {
			return err
		}
		_, _ = fmt.Fprintln(a.out, "Wrote", path)
		return nil
	}
	if len(args) > 0 && args[0] != "show" {
		return errUsage
	}
	_, _ = fmt.Fprintln(a.out, "# file:", path)
	for _, key := range []string{
		"general.default_format", "general.output_dir", "render.halo",
		"history.driver", "history.dsn", "generator.base_url", "generator.timeout_ms",
		"drive.folder", "logging.level", "logging.format", "logging.source", "logging.file",
	} {
		if env, ok := config.EnvOverrideFor(key); ok {
			_, _ = fmt.Fprintf(a.out, "# %s overridden by %s\n", key, env)
		}
	}
	b, err := yaml.Marshal(a.cfg)
	if err != nil {
		return err
	}
	_, err = a.out.Write(b)
	return err
}
