//go:build fyne && cgo

/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package ui

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/widget"

	"github.com/mklab-se/mdeck/internal/annotate"
	"github.com/mklab-se/mdeck/internal/config"
	"github.com/mklab-se/mdeck/internal/crash"
	"github.com/mklab-se/mdeck/internal/domain"
	"github.com/mklab-se/mdeck/internal/export"
	"github.com/mklab-se/mdeck/internal/imagecache"
	applog "github.com/mklab-se/mdeck/internal/log"
	"github.com/mklab-se/mdeck/internal/parser"
	"github.com/mklab-se/mdeck/internal/render"
	"github.com/mklab-se/mdeck/internal/scene"
	"github.com/mklab-se/mdeck/internal/storage"
	"github.com/mklab-se/mdeck/internal/theme"
)

// pendingPoll is how often a frame showing still-loading images is
// redrawn until they settle.
const pendingPoll = 120 * time.Millisecond

// Run opens the deck in a fullscreen presenter window and blocks until
// the presentation is closed.
func Run(deckPath string) error {
	cfg, cfgErr := config.Load()
	applog.Init(applog.Options{
		Level:     cfg.Logging.Level,
		Format:    cfg.Logging.Format,
		File:      cfg.Logging.File,
		AddSource: cfg.Logging.Source,
	})
	l := applog.WithComponent("ui")
	if cfgErr != nil {
		l.Warn("config unavailable, using defaults", slog.String("error", cfgErr.Error()))
	}

	deck, err := storage.LoadDeck(deckPath)
	if err != nil {
		return err
	}
	defer crash.Recover(deck.Path)

	pres, perrs, err := parser.Parse(deck.Source)
	if err != nil {
		return err
	}
	for _, pe := range perrs {
		l.Warn("deck parse issue", slog.Int("line", pe.Line), slog.String("msg", pe.Msg))
	}
	if len(pres.Slides) == 0 {
		return fmt.Errorf("no slides in %s", deckPath)
	}

	themeName := pres.Meta.Theme
	if themeName == "" {
		themeName = cfg.General.Theme
	}

	var previews *storage.PreviewStore
	if dbPath, perr := cfg.Cache.PreviewDBPath(); perr == nil {
		previews, perr = storage.OpenPreviews(dbPath, int64(cfg.Cache.PreviewCapMB)*1024*1024)
		if perr != nil {
			l.Warn("preview store unavailable", slog.String("error", perr.Error()))
			previews = nil
		} else {
			defer previews.Close()
			if terr := previews.TrackDeck(context.Background(), deck.Path, deck.Hash); terr != nil {
				l.Warn("deck tracking failed", slog.String("error", terr.Error()))
			}
		}
	}

	fyneApp := app.NewWithID("se.mklab.mdeck")
	title := pres.Meta.Title
	if title == "" {
		title = filepath.Base(deck.Path)
	}
	w := fyneApp.NewWindow(title)
	if cfg.General.Windowed {
		w.Resize(fyne.NewSize(1280, 720))
	} else {
		w.SetFullScreen(true)
	}

	p := &presenter{
		pres:      pres,
		deck:      deck,
		themeName: themeName,
		cache: imagecache.New(imagecache.Options{
			Base:   deck.Base,
			Window: cfg.Cache.ImageWindow,
		}),
		window:   cfg.Cache.ImageWindow,
		board:    annotate.NewBoard(),
		fsm:      annotate.NewQuitFSM(),
		previews: previews,
		win:      w,
		log:      l,
	}
	p.view = newSlideView(p)
	w.SetContent(p.view)

	w.Canvas().SetOnTypedKey(p.typedKey)
	w.Canvas().AddShortcut(&desktop.CustomShortcut{KeyName: fyne.KeyC, Modifier: fyne.KeyModifierControl}, func(fyne.Shortcut) {
		p.quitTrigger()
	})

	start := cfg.General.StartSlide
	if start < 1 {
		start = 1
	}
	if start > len(pres.Slides) {
		start = len(pres.Slides)
	}
	p.current = start - 1
	p.prefetch()
	p.redraw()

	l.Info("presenting", slog.String("deck", deck.Path), slog.Int("slides", len(pres.Slides)))
	w.ShowAndRun()
	return nil
}

// presenter holds the live presentation state. All mutation happens on
// the Fyne event goroutine; rasterizing runs off it and posts results
// back with fyne.Do.
type presenter struct {
	pres      domain.Presentation
	deck      storage.Deck
	themeName string
	cache     *imagecache.Cache
	board     *annotate.Board
	fsm       *annotate.QuitFSM
	previews  *storage.PreviewStore
	win       fyne.Window
	view      *slideView
	log       *slog.Logger

	window  int
	current int
	step    int

	overview    bool
	overviewSel int

	anim      *fyne.Animation
	animating bool

	mu       sync.Mutex
	frameGen int
}

func (p *presenter) theme() theme.Theme { return theme.FromName(p.themeName) }

func (p *presenter) slide() domain.Slide { return p.pres.Slides[p.current] }

// viewportSize reports the pixel size frames are rasterized at. Before
// the first layout pass the window has no size yet, so fall back to the
// reference resolution.
func (p *presenter) viewportSize() (float32, float32) {
	sz := p.view.Size()
	if sz.Width < 1 || sz.Height < 1 {
		return 1920, 1080
	}
	return sz.Width, sz.Height
}

func (p *presenter) scale() float32 {
	w, h := p.viewportSize()
	s := w / 1920
	if v := h / 1080; v < s {
		s = v
	}
	return s
}

// renderFrame rasterizes one slide at the current viewport, annotation
// layer included. Layout problems degrade to the fallback rendering
// instead of aborting the show.
func (p *presenter) renderFrame(index, step int) *image.RGBA {
	w, h := p.viewportSize()
	snap := p.cache.Snapshot()
	sc, _, err := render.Render(p.pres, index, render.Params{
		Viewport:   scene.R(0, 0, w, h),
		Theme:      p.theme(),
		Images:     snap,
		RevealStep: step,
	})
	if err != nil {
		if _, recoverable := err.(*render.LayoutError); !recoverable {
			p.log.Error("render failed", slog.Int("slide", index+1), slog.String("error", err.Error()))
			return image.NewRGBA(image.Rect(0, 0, int(w), int(h)))
		}
		p.log.Warn("layout degraded", slog.String("error", err.Error()))
	}
	annotate.DrawAll(sc, p.board.Strokes(index), p.scale())
	return export.Rasterize(sc, snap)
}

// redraw rasterizes the current view off the event goroutine and posts
// the frame back. A generation counter drops frames that were obsoleted
// by later input.
func (p *presenter) redraw() {
	p.mu.Lock()
	p.frameGen++
	gen := p.frameGen
	p.mu.Unlock()

	index, step := p.current, p.step
	overview := p.overview

	go func() {
		var frame image.Image
		if overview {
			frame = p.overviewFrame()
		} else {
			frame = p.renderFrame(index, step)
		}
		fyne.Do(func() {
			p.mu.Lock()
			stale := gen != p.frameGen
			p.mu.Unlock()
			if stale || p.animating {
				return
			}
			p.view.setFrame(frame)
			if !overview && p.anyPending(index) {
				time.AfterFunc(pendingPoll, func() { fyne.Do(p.redraw) })
			}
		})
	}()
}

func (p *presenter) anyPending(index int) bool {
	for _, path := range slideImagePaths(p.pres.Slides[index].Blocks) {
		if st, ok := p.cache.State(path); ok && st == imagecache.StatePending {
			return true
		}
	}
	return false
}

// prefetch requests images around the current slide and lets the cache
// drop entries that fell out of the window. A negative window keeps
// everything and prefetches the whole deck.
func (p *presenter) prefetch() {
	window := p.window
	if window < 0 {
		window = len(p.pres.Slides)
	}
	lo, hi := p.current-window, p.current+window
	if lo < 0 {
		lo = 0
	}
	if hi >= len(p.pres.Slides) {
		hi = len(p.pres.Slides) - 1
	}
	for i := lo; i <= hi; i++ {
		for _, path := range slideImagePaths(p.pres.Slides[i].Blocks) {
			p.cache.Request(path, i)
		}
	}
	p.cache.Navigate(p.current)
}

func slideImagePaths(blocks []domain.Block) []string {
	var out []string
	for _, blk := range blocks {
		if blk.Kind == domain.KindImage && blk.Path != "" {
			out = append(out, blk.Path)
		}
	}
	return out
}

// next advances one reveal step, or starts the transition to the next
// slide once everything on the current one is visible.
func (p *presenter) next() {
	if p.step < render.MaxRevealSteps(p.slide().Blocks) {
		p.step++
		p.redraw()
		return
	}
	if p.current+1 < len(p.pres.Slides) {
		p.goTo(p.current+1, true)
	}
}

// prev goes back one slide with every reveal step already shown.
func (p *presenter) prev() {
	if p.current > 0 {
		p.goTo(p.current-1, true)
	}
}

// goTo jumps to a slide, animating when requested. Backward jumps and
// direct jumps land fully revealed; forward steps start collapsed.
func (p *presenter) goTo(target int, animate bool) {
	if target < 0 || target >= len(p.pres.Slides) || target == p.current {
		return
	}
	from := p.current
	fromStep := p.step

	p.current = target
	if target == from+1 {
		p.step = 0
	} else {
		p.step = render.MaxRevealSteps(p.slide().Blocks)
	}
	p.prefetch()

	kind := p.transitionKind(target)
	if !animate || kind == render.TransitionNone {
		p.redraw()
		return
	}
	p.animate(from, fromStep, target, kind)
}

// transitionKind resolves the effective transition for arriving at the
// given slide: its own directive wins over the deck default.
func (p *presenter) transitionKind(target int) render.TransitionKind {
	name := p.pres.Slides[target].Transition
	if name == "" {
		name = p.pres.Meta.Transition
	}
	return render.TransitionFromName(name)
}

// animate rasterizes both endpoint frames up front and drives the
// composite through a linear Fyne animation, easing applied per frame.
func (p *presenter) animate(from, fromStep, to int, kind render.TransitionKind) {
	if p.anim != nil {
		p.anim.Stop()
	}
	p.animating = true

	toStep := p.step
	go func() {
		out := p.renderFrame(from, fromStep)
		in := p.renderFrame(to, toStep)

		cols := gridCols(len(p.pres.Slides))
		var dx, dy float32
		switch kind {
		case render.TransitionSpatial:
			dx, dy = render.SpatialDirection(from, to, cols)
		default:
			if to > from {
				dx = 1
			} else {
				dx = -1
			}
		}

		fyne.Do(func() {
			dur := time.Duration(float64(render.TransitionDuration) * float64(time.Second))
			anim := fyne.NewAnimation(dur, func(t float32) {
				e := render.EaseInOut(t)
				var frame *image.RGBA
				if kind == render.TransitionFade {
					frame = compositeFade(out, in, e)
				} else {
					frame = compositeSlide(out, in, dx, dy, e)
				}
				p.view.setFrame(frame)
				if t >= 1 {
					p.animating = false
					p.anim = nil
					p.redraw()
				}
			})
			anim.Curve = fyne.AnimationLinear
			p.anim = anim
			anim.Start()
		})
	}()
}

func (p *presenter) toggleTheme() {
	if p.theme().Name == "dark" {
		p.themeName = "light"
	} else {
		p.themeName = "dark"
	}
	p.redraw()
}

// overviewFrame builds the slide grid. Thumbnails come from the preview
// store keyed by deck hash, so reopening an unchanged deck skips the
// re-render.
func (p *presenter) overviewFrame() *image.RGBA {
	w, h := p.viewportSize()
	cols := gridCols(len(p.pres.Slides))
	rows := (len(p.pres.Slides) + cols - 1) / cols
	pad := 12
	tw := int(w)/cols - pad*2
	th := int(h)/rows - pad*2
	if tw < 32 {
		tw = 32
	}
	if th < 18 {
		th = 18
	}

	thumbs := make([]image.Image, len(p.pres.Slides))
	for i := range p.pres.Slides {
		thumbs[i] = p.thumbnail(i, tw, th)
	}

	t := p.theme()
	return overviewGrid(thumbs, p.overviewSel, int(w), int(h), t.CodeBackground, t.Accent)
}

func (p *presenter) thumbnail(index, tw, th int) image.Image {
	gen := func(context.Context) ([]byte, error) {
		snap := p.cache.Snapshot()
		sc, _, err := render.Render(p.pres, index, render.Params{
			Viewport:   scene.R(0, 0, float32(tw), float32(th)),
			Theme:      p.theme(),
			Images:     snap,
			RevealStep: render.MaxRevealSteps(p.pres.Slides[index].Blocks),
		})
		if err != nil {
			if _, recoverable := err.(*render.LayoutError); !recoverable {
				return nil, err
			}
		}
		var buf bytes.Buffer
		if err := png.Encode(&buf, export.Rasterize(sc, snap)); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	}

	var data []byte
	var err error
	if p.previews != nil {
		data, err = p.previews.GetOrCreate(context.Background(), p.deck.Hash, index, tw, th, gen)
	} else {
		data, err = gen(context.Background())
	}
	if err != nil {
		p.log.Warn("thumbnail failed", slog.Int("slide", index+1), slog.String("error", err.Error()))
		return nil
	}
	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		return nil
	}
	return img
}

func (p *presenter) toggleOverview() {
	if p.overview {
		p.overview = false
		p.goTo(p.overviewSel, false)
		p.redraw()
		return
	}
	p.overview = true
	p.overviewSel = p.current
	p.redraw()
}

func (p *presenter) moveOverviewSel(d int) {
	sel := p.overviewSel + d
	if sel < 0 || sel >= len(p.pres.Slides) {
		return
	}
	p.overviewSel = sel
	p.redraw()
}

// quitTrigger runs the Ctrl+C state machine: first press clears the
// current annotation layer or arms the quit, a second press within the
// window closes the window.
func (p *presenter) quitTrigger() {
	switch p.fsm.Trigger(p.board.Empty(p.current)) {
	case annotate.DecisionClear:
		p.board.Clear(p.current)
		p.redraw()
	case annotate.DecisionArmed:
		p.log.Info("press Ctrl+C again to quit")
	case annotate.DecisionQuit:
		p.win.Close()
	}
}

func (p *presenter) typedKey(ev *fyne.KeyEvent) {
	p.fsm.Interrupt()

	if p.overview {
		cols := gridCols(len(p.pres.Slides))
		switch ev.Name {
		case fyne.KeyRight, fyne.KeyL:
			p.moveOverviewSel(1)
		case fyne.KeyLeft, fyne.KeyH:
			p.moveOverviewSel(-1)
		case fyne.KeyDown, fyne.KeyJ:
			p.moveOverviewSel(cols)
		case fyne.KeyUp, fyne.KeyK:
			p.moveOverviewSel(-cols)
		case fyne.KeyReturn, fyne.KeyEnter, fyne.KeyG, fyne.KeySpace:
			p.toggleOverview()
		case fyne.KeyEscape:
			p.overviewSel = p.current
			p.toggleOverview()
		case fyne.KeyQ:
			p.win.Close()
		}
		return
	}

	switch ev.Name {
	case fyne.KeySpace, fyne.KeyN, fyne.KeyRight, fyne.KeyPageDown:
		p.next()
	case fyne.KeyP, fyne.KeyLeft, fyne.KeyPageUp:
		p.prev()
	case fyne.KeyHome:
		p.goTo(0, false)
		p.redraw()
	case fyne.KeyEnd:
		p.goTo(len(p.pres.Slides)-1, false)
		p.redraw()
	case fyne.KeyT:
		p.toggleTheme()
	case fyne.KeyG:
		p.toggleOverview()
	case fyne.KeyU:
		if p.board.Undo(p.current) {
			p.redraw()
		}
	case fyne.KeyC:
		if p.board.Clear(p.current) {
			p.redraw()
		}
	case fyne.KeyQ, fyne.KeyEscape:
		p.win.Close()
	}
}

// slideView shows the rasterized frame and feeds pointer input to the
// annotation board. Primary drag draws a pen stroke, secondary drag an
// arrow.
type slideView struct {
	widget.BaseWidget
	p       *presenter
	img     *canvas.Image
	drawing bool
}

func newSlideView(p *presenter) *slideView {
	v := &slideView{p: p}
	v.img = canvas.NewImageFromImage(image.NewRGBA(image.Rect(0, 0, 1, 1)))
	v.img.FillMode = canvas.ImageFillStretch
	v.img.ScaleMode = canvas.ImageScaleFastest
	v.ExtendBaseWidget(v)
	return v
}

func (v *slideView) CreateRenderer() fyne.WidgetRenderer {
	return widget.NewSimpleRenderer(v.img)
}

func (v *slideView) Resize(s fyne.Size) {
	v.BaseWidget.Resize(s)
	v.p.redraw()
}

func (v *slideView) setFrame(frame image.Image) {
	v.img.Image = frame
	canvas.Refresh(v.img)
}

func (v *slideView) MouseDown(ev *desktop.MouseEvent) {
	if v.p.overview {
		return
	}
	kind := annotate.Pen
	col := v.p.theme().Accent
	width := 3 * v.p.scale()
	if ev.Button == desktop.MouseButtonSecondary {
		kind = annotate.Arrow
		col = color.NRGBA{R: 0xE5, G: 0x48, B: 0x3B, A: 0xFF}
		width = 5 * v.p.scale()
	}
	v.drawing = true
	v.p.board.Begin(v.p.current, kind, scene.Pt{X: ev.Position.X, Y: ev.Position.Y}, col, width)
}

func (v *slideView) MouseUp(*desktop.MouseEvent) {
	if !v.drawing {
		return
	}
	v.drawing = false
	v.p.board.End()
	v.p.redraw()
}

func (v *slideView) MouseIn(*desktop.MouseEvent) {}

func (v *slideView) MouseMoved(ev *desktop.MouseEvent) {
	if !v.drawing {
		return
	}
	v.p.board.Extend(scene.Pt{X: ev.Position.X, Y: ev.Position.Y})
	v.p.redraw()
}

func (v *slideView) MouseOut() {
	if v.drawing {
		v.drawing = false
		v.p.board.End()
		v.p.redraw()
	}
}
