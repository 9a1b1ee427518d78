/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/zalando/go-keyring"
	"gopkg.in/yaml.v3"
)

// AppConfig is the user-editable configuration persisted to a YAML file in the user scope.
// Environment variables are read-only overrides applied at runtime.
// The generator API key is never written to the YAML file; it lives in the OS keychain.

type GeneralConfig struct {
	DefaultFormat string `yaml:"default_format"`
	OutputDir     string `yaml:"output_dir"`
}

type RenderConfig struct {
	Halo          string `yaml:"halo"` // "stamp" | "dilate"
	HonorPosition bool   `yaml:"honor_position"`
	HonorTracking bool   `yaml:"honor_tracking"`
	HonorOutline  bool   `yaml:"honor_outline"`
}

// FontFiles names the TTF/OTF files backing one family. Empty entries fall back to the built-in Go fonts.
type FontFiles struct {
	Black   string `yaml:"black"`
	Bold    string `yaml:"bold"`
	Regular string `yaml:"regular"`
}

type HistoryConfig struct {
	Driver string `yaml:"driver"` // "sqlite" | "pgx" | "memory"
	DSN    string `yaml:"dsn"`
}

type GeneratorConfig struct {
	BaseURL    string `yaml:"base_url"`
	ImageModel string `yaml:"image_model"`
	TextModel  string `yaml:"text_model"`
	TimeoutMs  int    `yaml:"timeout_ms"`
}

type DriveConfig struct {
	Folder string `yaml:"folder"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Source bool   `yaml:"source"`
	File   string `yaml:"file"`
}

type AppConfig struct {
	ConfigVersion int                  `yaml:"config_version"`
	General       GeneralConfig        `yaml:"general"`
	Render        RenderConfig         `yaml:"render"`
	Fonts         map[string]FontFiles `yaml:"fonts,omitempty"`
	History       HistoryConfig        `yaml:"history"`
	Generator     GeneratorConfig      `yaml:"generator"`
	Drive         DriveConfig          `yaml:"drive"`
	Logging       LoggingConfig        `yaml:"logging"`
}

// Defaults returns the application defaults.
func Defaults() AppConfig {
	return AppConfig{
		ConfigVersion: 1,
		General:       GeneralConfig{DefaultFormat: "Die-Cut Square", OutputDir: "."},
		Render:        RenderConfig{Halo: "stamp"},
		History:       HistoryConfig{Driver: "sqlite", DSN: ""},
		Generator: GeneratorConfig{
			BaseURL:    "https://generativelanguage.googleapis.com/v1beta",
			ImageModel: "gemini-2.5-flash-image",
			TextModel:  "gemini-2.5-flash",
			TimeoutMs:  120000,
		},
		Drive:   DriveConfig{Folder: ""},
		Logging: LoggingConfig{Level: "info", Format: "console"},
	}
}

// Env var names used as overrides.
const (
	EnvConfigFile       = "STICKER_CONFIG"
	EnvDefaultFormat    = "STICKER_FORMAT"
	EnvOutputDir        = "STICKER_OUTPUT_DIR"
	EnvHalo             = "STICKER_HALO"
	EnvHistoryDriver    = "STICKER_HISTORY_DRIVER"
	EnvHistoryDSN       = "STICKER_HISTORY_DSN"
	EnvGeneratorURL     = "STICKER_GENERATOR_URL"
	EnvGeneratorTimeout = "STICKER_GENERATOR_TIMEOUT_MS"
	EnvDriveFolder      = "STICKER_DRIVE_FOLDER"
	EnvAPIKey           = "STICKER_API_KEY"
	// EnvLogLevel Logging envs
	EnvLogLevel  = "STICKER_LOG_LEVEL"
	EnvLogFormat = "STICKER_LOG_FORMAT"
	EnvLogSource = "STICKER_LOG_SOURCE"
	EnvLogFile   = "STICKER_LOG_FILE"
)

// Service/keys for OS keyring.
const (
	keyringService = "StickerStudio"
	keyringAPIKey  = "generator_api_key"
)

// TokenStore abstracts the keyring so sessions can be opened against a stub in tests.
type TokenStore interface {
	Get(service, key string) (string, error)
	Set(service, key, value string) error
	Delete(service, key string) error
}

// osKeyring implements TokenStore using the OS keyring via github.com/zalando/go-keyring.
type osKeyring struct{}

func (osKeyring) Get(service, key string) (string, error) { return keyring.Get(service, key) }
func (osKeyring) Set(service, key, value string) error    { return keyring.Set(service, key, value) }
func (osKeyring) Delete(service, key string) error        { return keyring.Delete(service, key) }

// Keyring returns the OS-backed TokenStore.
func Keyring() TokenStore { return osKeyring{} }

// APIKeyStore reads and writes the generator API key in a TokenStore.
type APIKeyStore struct{ TS TokenStore }

// Lookup returns the API key, preferring STICKER_API_KEY over the keyring.
// A missing keyring entry is not an error.
func (s APIKeyStore) Lookup() (string, error) {
	if v := strings.TrimSpace(os.Getenv(EnvAPIKey)); v != "" {
		return v, nil
	}
	if s.TS == nil {
		return "", nil
	}
	v, err := s.TS.Get(keyringService, keyringAPIKey)
	if errors.Is(err, keyring.ErrNotFound) {
		return "", nil
	}
	return v, err
}

// Store persists the API key.
func (s APIKeyStore) Store(key string) error {
	key = strings.TrimSpace(key)
	if key == "" {
		return errors.New("empty api key")
	}
	return s.TS.Set(keyringService, keyringAPIKey, key)
}

// Clear removes the API key; clearing an absent key succeeds.
func (s APIKeyStore) Clear() error {
	err := s.TS.Delete(keyringService, keyringAPIKey)
	if errors.Is(err, keyring.ErrNotFound) {
		return nil
	}
	return err
}

// ConfigPath returns the per-user config file path. STICKER_CONFIG overrides it.
func ConfigPath() (string, error) {
	if p := strings.TrimSpace(os.Getenv(EnvConfigFile)); p != "" {
		return p, nil
	}
	var base string
	switch runtime.GOOS {
	case "windows":
		base = os.Getenv("AppData")
		if base == "" {
			base = filepath.Join(os.Getenv("USERPROFILE"), "AppData", "Roaming")
		}
		base = filepath.Join(base, "StickerStudio")
	case "darwin":
		base = filepath.Join(os.Getenv("HOME"), "Library", "Application Support", "StickerStudio")
	default:
		if x := os.Getenv("XDG_CONFIG_HOME"); x != "" {
			base = filepath.Join(x, "stickerstudio")
		} else {
			base = filepath.Join(os.Getenv("HOME"), ".config", "stickerstudio")
		}
	}
	if base == "" {
		return "", errors.New("cannot resolve config directory")
	}
	return filepath.Join(base, "config.yaml"), nil
}

// StateDir returns the directory for history databases and crash reports (next to the config file).
func StateDir() (string, error) {
	p, err := ConfigPath()
	if err != nil {
		return "", err
	}
	return filepath.Dir(p), nil
}

// Load reads the user config file (if present), applies defaults, and merges environment overrides.
// The API key is looked up in ts (may be nil) and returned separately.
func Load(ts TokenStore) (AppConfig, string, error) {
	cfg := Defaults()
	path, err := ConfigPath()
	if err != nil {
		return cfg, "", err
	}
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		var fileCfg AppConfig
		if err := yaml.Unmarshal(data, &fileCfg); err != nil {
			return cfg, "", fmt.Errorf("parse config %s: %w", path, err)
		}
		mergeInto(&cfg, &fileCfg)
	case !errors.Is(err, os.ErrNotExist):
		return cfg, "", fmt.Errorf("read config %s: %w", path, err)
	}
	applyEnvOverrides(&cfg)
	key, _ := APIKeyStore{TS: ts}.Lookup()
	return cfg, key, nil
}

// Save writes the user config YAML.
func Save(cfg AppConfig) error {
	path, err := ConfigPath()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}

func setStr(dst *string, v string) {
	if v = strings.TrimSpace(v); v != "" {
		*dst = v
	}
}

func mergeInto(dst *AppConfig, src *AppConfig) {
	if src.ConfigVersion != 0 {
		dst.ConfigVersion = src.ConfigVersion
	}
	setStr(&dst.General.DefaultFormat, src.General.DefaultFormat)
	setStr(&dst.General.OutputDir, src.General.OutputDir)

	if h := strings.ToLower(strings.TrimSpace(src.Render.Halo)); h != "" {
		dst.Render.Halo = h
	}
	// booleans: copy directly from the file so user preferences persist
	dst.Render.HonorPosition = src.Render.HonorPosition
	dst.Render.HonorTracking = src.Render.HonorTracking
	dst.Render.HonorOutline = src.Render.HonorOutline

	if len(src.Fonts) > 0 {
		if dst.Fonts == nil {
			dst.Fonts = map[string]FontFiles{}
		}
		for fam, ff := range src.Fonts {
			dst.Fonts[fam] = ff
		}
	}

	if d := strings.ToLower(strings.TrimSpace(src.History.Driver)); d != "" {
		dst.History.Driver = d
	}
	setStr(&dst.History.DSN, src.History.DSN)

	setStr(&dst.Generator.BaseURL, src.Generator.BaseURL)
	setStr(&dst.Generator.ImageModel, src.Generator.ImageModel)
	setStr(&dst.Generator.TextModel, src.Generator.TextModel)
	if src.Generator.TimeoutMs != 0 {
		dst.Generator.TimeoutMs = src.Generator.TimeoutMs
	}

	setStr(&dst.Drive.Folder, src.Drive.Folder)

	if strings.TrimSpace(src.Logging.Level) != "" {
		dst.Logging.Level = strings.ToLower(strings.TrimSpace(src.Logging.Level))
	}
	if strings.TrimSpace(src.Logging.Format) != "" {
		dst.Logging.Format = strings.ToLower(strings.TrimSpace(src.Logging.Format))
	}
	dst.Logging.Source = src.Logging.Source
	setStr(&dst.Logging.File, src.Logging.File)
}

func envBool(v string) bool {
	lv := strings.ToLower(v)
	return lv == "1" || lv == "true" || lv == "on" || lv == "yes"
}

func applyEnvOverrides(cfg *AppConfig) {
	setStr(&cfg.General.DefaultFormat, os.Getenv(EnvDefaultFormat))
	setStr(&cfg.General.OutputDir, os.Getenv(EnvOutputDir))
	if v := strings.TrimSpace(os.Getenv(EnvHalo)); v != "" {
		cfg.Render.Halo = strings.ToLower(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvHistoryDriver)); v != "" {
		cfg.History.Driver = strings.ToLower(v)
	}
	setStr(&cfg.History.DSN, os.Getenv(EnvHistoryDSN))
	setStr(&cfg.Generator.BaseURL, os.Getenv(EnvGeneratorURL))
	if v := strings.TrimSpace(os.Getenv(EnvGeneratorTimeout)); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Generator.TimeoutMs = n
		}
	}
	setStr(&cfg.Drive.Folder, os.Getenv(EnvDriveFolder))
	// logging overrides
	if v := strings.TrimSpace(os.Getenv(EnvLogLevel)); v != "" {
		cfg.Logging.Level = strings.ToLower(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogFormat)); v != "" {
		cfg.Logging.Format = strings.ToLower(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogSource)); v != "" {
		cfg.Logging.Source = envBool(v)
	}
	setStr(&cfg.Logging.File, os.Getenv(EnvLogFile))
}

var overrideKeys = map[string]string{
	"general.default_format": EnvDefaultFormat,
	"general.output_dir":     EnvOutputDir,
	"render.halo":            EnvHalo,
	"history.driver":         EnvHistoryDriver,
	"history.dsn":            EnvHistoryDSN,
	"generator.base_url":     EnvGeneratorURL,
	"generator.timeout_ms":   EnvGeneratorTimeout,
	"drive.folder":           EnvDriveFolder,
	"logging.level":          EnvLogLevel,
	"logging.format":         EnvLogFormat,
	"logging.source":         EnvLogSource,
	"logging.file":           EnvLogFile,
}

// EnvOverrideFor returns the env var name if the field is overridden by environment variables.
func EnvOverrideFor(key string) (string, bool) {
	env, ok := overrideKeys[key]
	if !ok || os.Getenv(env) == "" {
		return "", false
	}
	return env, true
}

// EffectiveTimeout returns the generator request timeout, falling back to the default for non-positive values.
func (g GeneratorConfig) EffectiveTimeout() time.Duration {
	ms := g.TimeoutMs
	if ms <= 0 {
		ms = Defaults().Generator.TimeoutMs
	}
	return time.Duration(ms) * time.Millisecond
}

// ResolveHistoryDSN returns the configured DSN, defaulting sqlite to a database in the state directory.
func (c AppConfig) ResolveHistoryDSN() (string, error) {
	if c.History.DSN != "" || c.History.Driver != "sqlite" {
		return c.History.DSN, nil
	}
	dir, err := StateDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "history.db"), nil
}
