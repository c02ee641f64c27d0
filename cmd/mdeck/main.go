/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/mklab-se/mdeck/internal/config"
	"github.com/mklab-se/mdeck/internal/crash"
	"github.com/mklab-se/mdeck/internal/export"
	applog "github.com/mklab-se/mdeck/internal/log"
	"github.com/mklab-se/mdeck/internal/parser"
	"github.com/mklab-se/mdeck/internal/render"
	"github.com/mklab-se/mdeck/internal/storage"
	"github.com/mklab-se/mdeck/internal/theme"
	"github.com/mklab-se/mdeck/internal/ui"
	"github.com/mklab-se/mdeck/internal/version"
)

func usage() {
	fmt.Println("mdeck — markdown presentations")
	fmt.Printf("Version: %s\n", version.String())
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  mdeck present <deck.md>                          Open the deck in the presenter")
	fmt.Println("  mdeck export <deck.md> [--format png|svg|pdf] [--out <dir>]")
	fmt.Println("                                                   Render every slide to files")
	fmt.Println("  mdeck info <deck.md>                             Print deck metadata and layouts")
	fmt.Println("  mdeck version|-v|--version                       Show version")
}

func main() {
	cfg, cfgErr := config.Load()
	applog.Init(applog.Options{
		Level:     cfg.Logging.Level,
		Format:    cfg.Logging.Format,
		File:      cfg.Logging.File,
		AddSource: cfg.Logging.Source,
	})
	l := applog.WithComponent("cli")
	if cfgErr != nil {
		l.Warn("config unavailable, using defaults", slog.Any("err", cfgErr))
	}

	args := os.Args
	l.Debug("start", slog.Int("args", len(args)))
	if len(args) > 1 {
		switch args[1] {
		case "version", "--version", "-v":
			fmt.Println("mdeck — markdown presentations")
			fmt.Println(version.String())
			return
		case "present":
			if len(args) < 3 {
				fmt.Println("present requires <deck.md>")
				usage()
				os.Exit(2)
			}
			if err := ui.Run(args[2]); err != nil {
				l.Error("present failed", slog.Any("err", err))
				fmt.Println("Error:", err)
				os.Exit(1)
			}
			return
		case "export":
			runExport(l, cfg, args[2:])
			return
		case "info":
			if len(args) < 3 {
				fmt.Println("info requires <deck.md>")
				usage()
				os.Exit(2)
			}
			runInfo(l, args[2])
			return
		}
	}

	usage()
}

func runExport(l *slog.Logger, cfg config.AppConfig, args []string) {
	var deckPath, format, outDir string
	format = "png"
	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "--format":
			if i+1 >= len(args) {
				fmt.Println("--format requires a value")
				os.Exit(2)
			}
			i++
			format = strings.ToLower(args[i])
		case "--out":
			if i+1 >= len(args) {
				fmt.Println("--out requires a value")
				os.Exit(2)
			}
			i++
			outDir = args[i]
		default:
			if deckPath != "" {
				fmt.Println("unexpected argument:", args[i])
				usage()
				os.Exit(2)
			}
			deckPath = args[i]
		}
	}
	if deckPath == "" {
		fmt.Println("export requires <deck.md>")
		usage()
		os.Exit(2)
	}

	defer crash.Recover(deckPath)
	deck, err := storage.LoadDeck(deckPath)
	if err != nil {
		l.Error("load failed", slog.Any("err", err))
		fmt.Println("Error:", err)
		os.Exit(1)
	}
	pres, perrs, err := parser.Parse(deck.Source)
	if err != nil {
		l.Error("parse failed", slog.Any("err", err))
		fmt.Println("Error:", err)
		os.Exit(1)
	}
	for _, pe := range perrs {
		fmt.Printf("warning: line %d: %s\n", pe.Line, pe.Msg)
	}

	themeName := pres.Meta.Theme
	if themeName == "" {
		themeName = cfg.General.Theme
	}
	opt := export.Options{
		Theme: theme.FromName(themeName),
		Base:  deck.Base,
	}

	if outDir == "" {
		outDir = strings.TrimSuffix(deck.Path, filepath.Ext(deck.Path)) + "-export"
	}

	switch format {
	case "png":
		err = export.ExportPNG(pres, outDir, opt)
	case "svg":
		err = export.ExportSVG(pres, outDir, opt)
	case "pdf":
		out := outDir
		if filepath.Ext(out) != ".pdf" {
			if mkErr := os.MkdirAll(out, 0o755); mkErr != nil {
				fmt.Println("Error:", mkErr)
				os.Exit(1)
			}
			base := strings.TrimSuffix(filepath.Base(deck.Path), filepath.Ext(deck.Path))
			out = filepath.Join(out, base+".pdf")
		}
		err = export.ExportPDF(pres, out, opt)
		outDir = out
	default:
		fmt.Println("unknown format:", format)
		usage()
		os.Exit(2)
	}
	if err != nil {
		l.Error("export failed", slog.String("format", format), slog.Any("err", err))
		fmt.Println("Error:", err)
		os.Exit(1)
	}
	fmt.Printf("Exported %d slide(s) as %s to %s\n", len(pres.Slides), format, outDir)
}

func runInfo(l *slog.Logger, deckPath string) {
	deck, err := storage.LoadDeck(deckPath)
	if err != nil {
		l.Error("load failed", slog.Any("err", err))
		fmt.Println("Error:", err)
		os.Exit(1)
	}
	pres, perrs, err := parser.Parse(deck.Source)
	if err != nil {
		l.Error("parse failed", slog.Any("err", err))
		fmt.Println("Error:", err)
		os.Exit(1)
	}

	if pres.Meta.Title != "" {
		fmt.Println("Title: ", pres.Meta.Title)
	}
	if pres.Meta.Author != "" {
		fmt.Println("Author:", pres.Meta.Author)
	}
	if pres.Meta.Theme != "" {
		fmt.Println("Theme: ", pres.Meta.Theme)
	}
	fmt.Printf("Slides: %d\n", len(pres.Slides))
	if len(perrs) > 0 {
		fmt.Printf("Parse issues: %d\n", len(perrs))
		for _, pe := range perrs {
			fmt.Printf("  line %d: %s\n", pe.Line, pe.Msg)
		}
	}
	fmt.Println()
	for i, slide := range pres.Slides {
		kind, cerr := render.Classify(slide, i)
		line := fmt.Sprintf("  %3d  %-12s", i+1, kind)
		if steps := render.MaxRevealSteps(slide.Blocks); steps > 0 {
			line += fmt.Sprintf("  %d reveal step(s)", steps)
		}
		if cerr != nil {
			line += "  (layout issue: " + cerr.Error() + ")"
		}
		fmt.Println(line)
	}
}
