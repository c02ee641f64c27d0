/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaults(t *testing.T) {
	d := Defaults()
	if d.General.Theme != "light" {
		t.Fatalf("default theme = %q", d.General.Theme)
	}
	if d.Cache.ImageWindow != 3 {
		t.Fatalf("default image window = %d", d.Cache.ImageWindow)
	}
	if d.Logging.Level != "info" || d.Logging.Format != "console" {
		t.Fatalf("logging defaults = %+v", d.Logging)
	}
}

func TestLoadFromMissingFileUsesDefaults(t *testing.T) {
	cfg := LoadFrom(filepath.Join(t.TempDir(), "absent.yaml"))
	if cfg != Defaults() {
		t.Fatalf("cfg = %+v, want defaults", cfg)
	}
}

func TestLoadFromMergesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	body := `config_version: 1
general:
  theme: dark
  start_slide: 4
cache:
  image_window: 7
logging:
  level: debug
`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg := LoadFrom(path)
	if cfg.General.Theme != "dark" {
		t.Fatalf("theme = %q", cfg.General.Theme)
	}
	if cfg.General.StartSlide != 4 {
		t.Fatalf("start slide = %d", cfg.General.StartSlide)
	}
	if cfg.Cache.ImageWindow != 7 {
		t.Fatalf("image window = %d", cfg.Cache.ImageWindow)
	}
	if cfg.Logging.Level != "debug" {
		t.Fatalf("log level = %q", cfg.Logging.Level)
	}
	// Settings the file omits keep their defaults.
	if cfg.Logging.Format != "console" {
		t.Fatalf("log format = %q", cfg.Logging.Format)
	}
	if cfg.Cache.PreviewCapMB != 64 {
		t.Fatalf("preview cap = %d", cfg.Cache.PreviewCapMB)
	}
}

func TestLoadFromMalformedFileFallsBack(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	os.WriteFile(path, []byte("{not yaml: ["), 0o644)
	cfg := LoadFrom(path)
	if cfg != Defaults() {
		t.Fatalf("cfg = %+v, want defaults", cfg)
	}
}

func TestEnvOverridesBeatFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	os.WriteFile(path, []byte("general:\n  theme: dark\n"), 0o644)

	t.Setenv(EnvTheme, "Light")
	t.Setenv(EnvImageWindow, "9")
	t.Setenv(EnvLogLevel, "WARN")
	t.Setenv(EnvLogSource, "yes")

	cfg := LoadFrom(path)
	if cfg.General.Theme != "light" {
		t.Fatalf("theme = %q, want env override", cfg.General.Theme)
	}
	if cfg.Cache.ImageWindow != 9 {
		t.Fatalf("image window = %d", cfg.Cache.ImageWindow)
	}
	if cfg.Logging.Level != "warn" {
		t.Fatalf("log level = %q", cfg.Logging.Level)
	}
	if !cfg.Logging.Source {
		t.Fatal("log source override ignored")
	}
}

func TestEnvOverrideIgnoresGarbage(t *testing.T) {
	t.Setenv(EnvStartSlide, "banana")
	cfg := LoadFrom(filepath.Join(t.TempDir(), "absent.yaml"))
	if cfg.General.StartSlide != 0 {
		t.Fatalf("start slide = %d, want default", cfg.General.StartSlide)
	}
}

func TestSaveToRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	want := Defaults()
	want.General.Theme = "dark"
	want.Cache.ImageWindow = 5

	if err := SaveTo(want, path); err != nil {
		t.Fatalf("SaveTo: %v", err)
	}
	got := LoadFrom(path)
	if got != want {
		t.Fatalf("round trip: got %+v, want %+v", got, want)
	}
}

func TestPreviewDBPathOverride(t *testing.T) {
	c := CacheConfig{PreviewDB: "/tmp/custom.sqlite"}
	got, err := c.PreviewDBPath()
	if err != nil {
		t.Fatalf("PreviewDBPath: %v", err)
	}
	if got != "/tmp/custom.sqlite" {
		t.Fatalf("got %q", got)
	}
}
