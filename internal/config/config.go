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
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// AppConfig is the user-editable configuration persisted to a YAML file
// in the user scope. Environment variables act as read-only overrides at
// runtime; deck frontmatter wins over both for per-presentation settings.
//
// config_version: bump when the structure changes in a backward-incompatible way.

type GeneralConfig struct {
	Theme      string `yaml:"theme"` // "light" | "dark"
	StartSlide int    `yaml:"start_slide"`
	Windowed   bool   `yaml:"windowed"`
}

type CacheConfig struct {
	// ImageWindow is the eviction half-width in slides for the image
	// cache.
	ImageWindow int `yaml:"image_window"`
	// PreviewDB overrides the preview database location; empty uses the
	// config directory.
	PreviewDB string `yaml:"preview_db"`
	// PreviewCapMB caps the preview database size.
	PreviewCapMB int `yaml:"preview_cap_mb"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Source bool   `yaml:"source"`
	File   string `yaml:"file"`
}

type AppConfig struct {
	ConfigVersion int           `yaml:"config_version"`
	General       GeneralConfig `yaml:"general"`
	Cache         CacheConfig   `yaml:"cache"`
	Logging       LoggingConfig `yaml:"logging"`
}

// Defaults returns the application defaults.
func Defaults() AppConfig {
	return AppConfig{
		ConfigVersion: 1,
		General:       GeneralConfig{Theme: "light", StartSlide: 0, Windowed: false},
		Cache:         CacheConfig{ImageWindow: 3, PreviewCapMB: 64},
		Logging:       LoggingConfig{Level: "info", Format: "console", Source: false, File: ""},
	}
}

// Env var names used as overrides.
const (
	EnvTheme       = "MDECK_THEME"
	EnvStartSlide  = "MDECK_START_SLIDE"
	EnvImageWindow = "MDECK_IMAGE_WINDOW"
	EnvLogLevel    = "MDECK_LOG_LEVEL"
	EnvLogFormat   = "MDECK_LOG_FORMAT"
	EnvLogSource   = "MDECK_LOG_SOURCE"
	EnvLogFile     = "MDECK_LOG_FILE"
)

// ConfigPath returns the per-user config file path.
func ConfigPath() (string, error) {
	var base string
	switch runtime.GOOS {
	case "windows":
		base = os.Getenv("AppData")
		if base == "" {
			base = filepath.Join(os.Getenv("USERPROFILE"), "AppData", "Roaming")
		}
		base = filepath.Join(base, "mdeck")
	case "darwin":
		base = filepath.Join(os.Getenv("HOME"), "Library", "Application Support", "mdeck")
	default: // linux and others
		base = filepath.Join(os.Getenv("HOME"), ".config", "mdeck")
	}
	if base == "" {
		return "", errors.New("cannot resolve config directory")
	}
	return filepath.Join(base, "config.yaml"), nil
}

// Load reads the user config file (if present), applies defaults, and
// merges environment overrides.
func Load() (AppConfig, error) {
	path, err := ConfigPath()
	if err != nil {
		cfg := Defaults()
		applyEnvOverrides(&cfg)
		return cfg, err
	}
	return LoadFrom(path), nil
}

// LoadFrom loads a specific config file. A missing or malformed file
// falls back to defaults; env overrides always apply.
func LoadFrom(path string) AppConfig {
	cfg := Defaults()
	if data, err := os.ReadFile(path); err == nil {
		var fileCfg AppConfig
		if err := yaml.Unmarshal(data, &fileCfg); err == nil {
			mergeInto(&cfg, &fileCfg)
		}
	}
	applyEnvOverrides(&cfg)
	return cfg
}

// Save writes the user config YAML.
func Save(cfg AppConfig) error {
	path, err := ConfigPath()
	if err != nil {
		return err
	}
	return SaveTo(cfg, path)
}

// SaveTo writes the config to a specific path, creating directories as
// needed.
func SaveTo(cfg AppConfig, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}

// PreviewDBPath resolves the preview database location.
func (c CacheConfig) PreviewDBPath() (string, error) {
	if c.PreviewDB != "" {
		return c.PreviewDB, nil
	}
	cfgPath, err := ConfigPath()
	if err != nil {
		return "", err
	}
	return filepath.Join(filepath.Dir(cfgPath), "previews.sqlite"), nil
}

func mergeInto(dst *AppConfig, src *AppConfig) {
	if src.ConfigVersion != 0 {
		dst.ConfigVersion = src.ConfigVersion
	}
	if src.General.Theme != "" {
		dst.General.Theme = strings.ToLower(strings.TrimSpace(src.General.Theme))
	}
	if src.General.StartSlide > 0 {
		dst.General.StartSlide = src.General.StartSlide
	}
	// booleans: copy directly from src (file) so user preferences persist
	dst.General.Windowed = src.General.Windowed
	if src.Cache.ImageWindow != 0 {
		dst.Cache.ImageWindow = src.Cache.ImageWindow
	}
	if strings.TrimSpace(src.Cache.PreviewDB) != "" {
		dst.Cache.PreviewDB = strings.TrimSpace(src.Cache.PreviewDB)
	}
	if src.Cache.PreviewCapMB != 0 {
		dst.Cache.PreviewCapMB = src.Cache.PreviewCapMB
	}
	if strings.TrimSpace(src.Logging.Level) != "" {
		dst.Logging.Level = strings.ToLower(strings.TrimSpace(src.Logging.Level))
	}
	if strings.TrimSpace(src.Logging.Format) != "" {
		dst.Logging.Format = strings.ToLower(strings.TrimSpace(src.Logging.Format))
	}
	dst.Logging.Source = src.Logging.Source
	if strings.TrimSpace(src.Logging.File) != "" {
		dst.Logging.File = strings.TrimSpace(src.Logging.File)
	}
}

func applyEnvOverrides(cfg *AppConfig) {
	if v := strings.TrimSpace(os.Getenv(EnvTheme)); v != "" {
		cfg.General.Theme = strings.ToLower(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvStartSlide)); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			cfg.General.StartSlide = n
		}
	}
	if v := strings.TrimSpace(os.Getenv(EnvImageWindow)); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Cache.ImageWindow = n
		}
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogLevel)); v != "" {
		cfg.Logging.Level = strings.ToLower(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogFormat)); v != "" {
		cfg.Logging.Format = strings.ToLower(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogSource)); v != "" {
		lv := strings.ToLower(v)
		cfg.Logging.Source = lv == "1" || lv == "true" || lv == "on" || lv == "yes"
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogFile)); v != "" {
		cfg.Logging.File = v
	}
}
