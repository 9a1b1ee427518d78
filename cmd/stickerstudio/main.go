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
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"time"

	"stickerstudio/internal/config"
	"stickerstudio/internal/crash"
	applog "stickerstudio/internal/log"
	"stickerstudio/internal/sticker"
	"stickerstudio/internal/textlayout"
	"stickerstudio/internal/version"
)

// errUsage makes run print the usage text and exit with code 2.
var errUsage = errors.New("usage")

type command struct {
	args string
	help string
	run  func(ctx context.Context, a *app, args []string) error
}

var commands = map[string]command{
	"render":   {"[flags]", "Render a text overlay onto a transparent canvas", cmdRender},
	"compose":  {"-base <image> [flags]", "Composite a text overlay over an existing image", cmdCompose},
	"generate": {"[flags]", "Generate a character image and letter it", cmdGenerate},
	"quotes":   {"[-file <path>]", "Extract up to 5 sticker quotes from a passage (stdin by default)", cmdQuotes},
	"history":  {"[list|show|favorite|unfavorite|clear] [id]", "Inspect the 4 most recent stickers", cmdHistory},
	"upload":   {"-id <sticker-id> | -file <png>", "Copy a sticker to the drive folder", cmdUpload},
	"styles":   {"[list|save <name> [flags]|export <zip>|install <zip>]", "Manage saved overlay styles", cmdStyles},
	"serve":    {"[-addr :8080]", "Serve the preview HTTP API", cmdServe},
	"formats":  {"", "List output formats and canvas sizes", cmdFormats},
	"apikey":   {"set <key>|clear|status", "Manage the generator API key in the OS keychain", cmdAPIKey},
	"config":   {"[show|init]", "Show the effective configuration or write the defaults", cmdConfig},
}

func usage(w io.Writer) {
	_, _ = fmt.Fprintln(w, "Sticker Studio")
	_, _ = fmt.Fprintf(w, "Version: %s\n\n", version.String())
	_, _ = fmt.Fprintln(w, "Usage:")
	_, _ = fmt.Fprintln(w, "  stickerstudio version|-v|--version")
	names := make([]string, 0, len(commands))
	for n := range commands {
		names = append(names, n)
	}
	sort.Strings(names)
	for _, n := range names {
		c := commands[n]
		_, _ = fmt.Fprintf(w, "  stickerstudio %-8s %-44s %s\n", n, c.args, c.help)
	}
}

// app carries what every subcommand needs.
type app struct {
	cfg   config.AppConfig
	keys  config.APIKeyStore
	comp  *sticker.Compositor
	out   io.Writer
	crash *crash.Context
	now   func() time.Time
}

func newApp(cfg config.AppConfig, out io.Writer, cc *crash.Context) (*app, error) {
	halo, err := sticker.ParseHaloMode(cfg.Render.Halo)
	if err != nil {
		return nil, err
	}
	lib := textlayout.DefaultLibrary()
	for fam, ff := range cfg.Fonts {
		for _, f := range []struct {
			path   string
			weight int
		}{{ff.Black, 900}, {ff.Bold, 700}, {ff.Regular, 400}} {
			if f.path == "" {
				continue
			}
			if err := lib.LoadTTF(fam, f.weight, f.path); err != nil {
				return nil, fmt.Errorf("font %s: %w", fam, err)
			}
		}
	}
	for _, f := range sticker.Fonts() {
		if !lib.Has(string(f)) {
			applog.WithComponent("cli").Debug("font not configured, using built-in family", slog.String("font", string(f)))
		}
	}
	opts := sticker.Options{
		Halo:          halo,
		HonorPosition: cfg.Render.HonorPosition,
		HonorTracking: cfg.Render.HonorTracking,
		HonorOutline:  cfg.Render.HonorOutline,
	}
	return &app{
		cfg:   cfg,
		keys:  config.APIKeyStore{TS: config.Keyring()},
		comp:  sticker.NewCompositor(textlayout.OTProvider{Lib: lib}, opts),
		out:   out,
		crash: cc,
		now:   time.Now,
	}, nil
}

func logOptions(lc config.LoggingConfig) applog.Options {
	return applog.Options{Level: lc.Level, Format: lc.Format, AddSource: lc.Source, File: lc.File}
}

// run executes one CLI invocation and returns the process exit code.
func run(ctx context.Context, args []string, stdout io.Writer, cc *crash.Context) int {
	if len(args) == 0 {
		usage(stdout)
		return 2
	}
	switch args[0] {
	case "version", "--version", "-v":
		_, _ = fmt.Fprintln(stdout, "Sticker Studio")
		_, _ = fmt.Fprintln(stdout, version.String())
		return 0
	case "help", "-h", "--help":
		usage(stdout)
		return 0
	}
	cmd, ok := commands[args[0]]
	if !ok {
		_, _ = fmt.Fprintf(os.Stderr, "unknown command %q\n", args[0])
		usage(stdout)
		return 2
	}

	cfg, _, err := config.Load(nil)
	if err != nil {
		_, _ = fmt.Fprintln(os.Stderr, "Error:", err)
		return 1
	}
	applog.Init(logOptions(cfg.Logging))
	defer func() { _ = applog.Close() }()
	l := applog.WithComponent("cli")
	if dir, err := config.StateDir(); err == nil && cc != nil {
		cc.Dir = filepath.Join(dir, "crash")
	}

	a, err := newApp(cfg, stdout, cc)
	if err != nil {
		l.Error("setup failed", slog.Any("err", err))
		_, _ = fmt.Fprintln(os.Stderr, "Error:", err)
		return 1
	}
	l.Debug("start", slog.String("cmd", args[0]), slog.Int("args", len(args)-1))
	if err := cmd.run(ctx, a, args[1:]); err != nil {
		if errors.Is(err, errUsage) {
			_, _ = fmt.Fprintf(os.Stderr, "usage: stickerstudio %s %s\n", args[0], cmd.args)
			return 2
		}
		l.Error("command failed", slog.String("cmd", args[0]), slog.Any("err", err))
		_, _ = fmt.Fprintln(os.Stderr, "Error:", err)
		return 1
	}
	return 0
}

func main() {
	cc := &crash.Context{Command: os.Args[1:]}
	defer crash.Recover(cc)
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	code := run(ctx, os.Args[1:], os.Stdout, cc)
	stop()
	os.Exit(code)
}
