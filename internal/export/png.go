/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package export

import (
	"fmt"
	"image/png"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/mklab-se/mdeck/internal/domain"
	"github.com/mklab-se/mdeck/internal/imagecache"
	applog "github.com/mklab-se/mdeck/internal/log"
	"github.com/mklab-se/mdeck/internal/render"
	"github.com/mklab-se/mdeck/internal/scene"
	"github.com/mklab-se/mdeck/internal/theme"
)

// Options controls headless export.
type Options struct {
	// Width/Height in output pixels. Zero means 1920x1080.
	Width  int
	Height int
	Theme  theme.Theme
	// Base is the deck's directory for resolving image paths.
	Base string
	// ImageTimeout bounds the wait for one slide's images. Zero means
	// 10 seconds; exceeding it exports with placeholders.
	ImageTimeout time.Duration
	// Slides restricts export to these indices; empty exports all.
	Slides []int
}

func (o *Options) defaults() {
	if o.Width <= 0 {
		o.Width = 1920
	}
	if o.Height <= 0 {
		o.Height = 1080
	}
	if o.Theme.Name == "" {
		o.Theme = theme.Light()
	}
	if o.ImageTimeout <= 0 {
		o.ImageTimeout = 10 * time.Second
	}
}

// ExportPNG writes one PNG per slide into outDir, named slide-NNN.png.
// Slides render at the final reveal step so every list item is visible.
func ExportPNG(pres domain.Presentation, outDir string, opt Options) error {
	opt.defaults()
	l := applog.WithComponent("export")
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return fmt.Errorf("ensure out dir: %w", err)
	}

	return eachSlide(pres, opt, func(index int, sc *scene.Scene, snap *imagecache.Snapshot) error {
		img := Rasterize(sc, snap)
		name := filepath.Join(outDir, fmt.Sprintf("slide-%03d.png", index+1))
		f, err := os.Create(name)
		if err != nil {
			return fmt.Errorf("create png: %w", err)
		}
		if err := png.Encode(f, img); err != nil {
			_ = f.Close()
			return fmt.Errorf("encode png: %w", err)
		}
		if err := f.Close(); err != nil {
			return fmt.Errorf("close png: %w", err)
		}
		l.Debug("slide exported", slog.String("file", name))
		return nil
	})
}

// eachSlide drives the shared export loop: render one slide, wait for
// its images, hand the scene to the sink, advance. Sequential on
// purpose; parallel slides would multiply peak image memory.
func eachSlide(pres domain.Presentation, opt Options, sink func(index int, sc *scene.Scene, snap *imagecache.Snapshot) error) error {
	cache := imagecache.New(imagecache.Options{
		Base:      opt.Base,
		Window:    -1, // exporting walks every slide once, eviction would thrash
		MaxWidth:  opt.Width,
		MaxHeight: opt.Height,
	})
	viewport := scene.R(0, 0, float32(opt.Width), float32(opt.Height))

	indices := opt.Slides
	if len(indices) == 0 {
		indices = make([]int, len(pres.Slides))
		for i := range indices {
			indices[i] = i
		}
	}

	for _, i := range indices {
		if i < 0 || i >= len(pres.Slides) {
			continue
		}
		waitForImages(cache, pres.Slides[i], i, opt.ImageTimeout)

		sc, _, err := render.Render(pres, i, render.Params{
			Viewport:   viewport,
			Theme:      opt.Theme,
			Images:     cache.Snapshot(),
			RevealStep: render.MaxRevealSteps(pres.Slides[i].Blocks),
		})
		if err != nil {
			if _, slideLocal := err.(*render.LayoutError); !slideLocal {
				return fmt.Errorf("render slide %d: %w", i+1, err)
			}
		}
		if err := sink(i, sc, cache.Snapshot()); err != nil {
			return err
		}
	}
	return nil
}

// waitForImages requests every image on the slide and polls until all
// are terminal or the timeout passes.
func waitForImages(cache *imagecache.Cache, slide domain.Slide, index int, timeout time.Duration) {
	paths := imagePaths(slide.Blocks)
	for _, p := range paths {
		cache.Request(p, index)
	}
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		pending := false
		for _, p := range paths {
			if s, ok := cache.State(p); ok && s == imagecache.StatePending {
				pending = true
				break
			}
		}
		if !pending {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func imagePaths(blocks []domain.Block) []string {
	var out []string
	for _, blk := range blocks {
		if blk.Kind == domain.KindImage && blk.Path != "" {
			out = append(out, blk.Path)
		}
	}
	return out
}
