/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package imagecache loads deck images asynchronously and bounds their
// memory with a navigation window. The render loop never blocks on a
// load; it takes a snapshot each frame and draws placeholders for
// anything still pending or failed.
package imagecache

import (
	"fmt"
	"image"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	xdraw "golang.org/x/image/draw"

	applog "github.com/mklab-se/mdeck/internal/log"
)

// DefaultWindow is how many slides on either side of the current one
// keep their images cached.
const DefaultWindow = 3

// State is the lifecycle of one cache entry.
type State int

const (
	// StatePending means a load is in flight; poll again next frame.
	StatePending State = iota
	// StateLoaded means the decoded image is available.
	StateLoaded
	// StateFailed is terminal for the session; no automatic retry.
	StateFailed
)

// LoadError wraps a failed image load with the path that caused it.
type LoadError struct {
	Path string
	Err  error
}

func (e *LoadError) Error() string { return fmt.Sprintf("load image %s: %v", e.Path, e.Err) }
func (e *LoadError) Unwrap() error { return e.Err }

// Loader decodes one image file. Swappable in tests.
type Loader func(path string) (image.Image, error)

type entry struct {
	state State
	img   image.Image
	w, h  int
	err   error
	// slides that referenced this image, for window eviction
	slides map[int]struct{}
}

// Cache is the shared image store. All exported methods are safe for
// concurrent use; loads complete on background goroutines.
type Cache struct {
	mu      sync.Mutex
	entries map[string]*entry

	base   string
	window int
	maxW   int
	maxH   int
	loader Loader
	log    *slog.Logger
}

// Options configures a Cache. Zero values pick defaults.
type Options struct {
	// Base is the deck file's directory; relative image paths resolve
	// against it.
	Base string
	// Window is the eviction half-width in slides. Zero means
	// DefaultWindow, negative disables eviction.
	Window int
	// MaxWidth/MaxHeight bound decoded images; larger ones are
	// downscaled on load. Zero keeps the intrinsic size.
	MaxWidth  int
	MaxHeight int
	Loader    Loader
}

func New(opts Options) *Cache {
	if opts.Window == 0 {
		opts.Window = DefaultWindow
	}
	if opts.Loader == nil {
		opts.Loader = loadFile
	}
	return &Cache{
		entries: make(map[string]*entry),
		base:    opts.Base,
		window:  opts.Window,
		maxW:    opts.MaxWidth,
		maxH:    opts.MaxHeight,
		loader:  opts.Loader,
		log:     applog.WithComponent("imagecache"),
	}
}

// Normalize resolves a deck-relative image path to the cache key.
func (c *Cache) Normalize(path string) string {
	if filepath.IsAbs(path) {
		return filepath.Clean(path)
	}
	return filepath.Clean(filepath.Join(c.base, path))
}

// Request ensures a load is underway for path, referenced from the given
// slide, and returns the entry's current state. At most one load per key
// is ever in flight; later callers observe the existing state.
func (c *Cache) Request(path string, slide int) State {
	key := c.Normalize(path)

	c.mu.Lock()
	defer c.mu.Unlock()

	if e, ok := c.entries[key]; ok {
		e.slides[slide] = struct{}{}
		return e.state
	}

	e := &entry{
		state:  StatePending,
		slides: map[int]struct{}{slide: {}},
	}
	c.entries[key] = e
	go c.load(key, e)
	return StatePending
}

// load runs off the frame loop and publishes its result unless the entry
// was evicted in the meantime.
func (c *Cache) load(key string, e *entry) {
	img, err := c.loader(key)
	if err == nil && img != nil {
		img = fitToBounds(img, c.maxW, c.maxH)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.entries[key] != e {
		// Evicted while loading; result is stale, drop it.
		c.log.Debug("discarding stale image load", slog.String("path", key))
		return
	}
	if err != nil {
		e.state = StateFailed
		e.err = &LoadError{Path: key, Err: err}
		c.log.Warn("image load failed", slog.String("path", key), slog.Any("error", err))
		return
	}
	b := img.Bounds()
	e.state = StateLoaded
	e.img = img
	e.w, e.h = b.Dx(), b.Dy()
	c.log.Debug("image loaded", slog.String("path", key),
		slog.Int("width", e.w), slog.Int("height", e.h))
}

// Navigate applies window eviction around the new current slide. Entries
// whose every referencing slide lies outside [current-window,
// current+window] are dropped, including pending ones; their in-flight
// results will be discarded on arrival.
func (c *Cache) Navigate(current int) {
	if c.window < 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	for key, e := range c.entries {
		if anyWithin(e.slides, current, c.window) {
			continue
		}
		delete(c.entries, key)
		c.log.Debug("evicting image outside window", slog.String("path", key))
	}
}

func anyWithin(slides map[int]struct{}, current, window int) bool {
	for s := range slides {
		if s >= current-window && s <= current+window {
			return true
		}
	}
	return false
}

// State reports the entry state for path without issuing a load. The
// second result is false when the path was never requested.
func (c *Cache) State(path string) (State, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[c.Normalize(path)]
	if !ok {
		return StatePending, false
	}
	return e.state, true
}

// Err returns the recorded load error for a failed entry, nil otherwise.
func (c *Cache) Err(path string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if e, ok := c.entries[c.Normalize(path)]; ok {
		return e.err
	}
	return nil
}

// loadFile is the default Loader.
func loadFile(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	img, _, err := image.Decode(f)
	return img, err
}

// fitToBounds downscales img to fit within maxW x maxH, preserving
// aspect ratio. Zero bounds or an already-fitting image pass through.
func fitToBounds(img image.Image, maxW, maxH int) image.Image {
	if maxW <= 0 && maxH <= 0 {
		return img
	}
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if w <= 0 || h <= 0 {
		return img
	}

	scale := 1.0
	if maxW > 0 && w > maxW {
		scale = float64(maxW) / float64(w)
	}
	if maxH > 0 && h > maxH {
		if s := float64(maxH) / float64(h); s < scale {
			scale = s
		}
	}
	if scale >= 1 {
		return img
	}

	dst := image.NewRGBA(image.Rect(0, 0, int(float64(w)*scale), int(float64(h)*scale)))
	xdraw.ApproxBiLinear.Scale(dst, dst.Bounds(), img, b, xdraw.Over, nil)
	return dst
}
