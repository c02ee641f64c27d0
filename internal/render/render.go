/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package render classifies slides into layouts and turns them into
// scene graphs. Everything here is pure: the same presentation, slide
// index, viewport and image snapshot always produce the same ops, so
// interactive display and headless export stay geometrically identical.
package render

import (
	"fmt"
	"image/color"

	"github.com/mklab-se/mdeck/internal/domain"
	"github.com/mklab-se/mdeck/internal/scene"
	"github.com/mklab-se/mdeck/internal/textlayout"
	"github.com/mklab-se/mdeck/internal/theme"
)

// Reference canvas dimensions. The scale factor of every draw frame is
// min(viewportW/refWidth, viewportH/refHeight).
const (
	refWidth  = 1920
	refHeight = 1080
)

// ImageStore provides read-only dimensions for images the renderer
// places. Implementations must be safe snapshots; the renderer never
// triggers loads.
type ImageStore interface {
	// Dims returns the pixel dimensions of a loaded image. ok is false
	// while the image is pending or failed, which draws a placeholder.
	Dims(path string) (w, h int, ok bool)
}

// NoImages is an ImageStore with nothing loaded.
type NoImages struct{}

func (NoImages) Dims(string) (int, int, bool) { return 0, 0, false }

// Params carries the per-frame inputs beyond the presentation itself.
type Params struct {
	Viewport scene.Rect
	Theme    theme.Theme
	Images   ImageStore
	// RevealStep gates incremental list items; 0 shows only static
	// content.
	RevealStep int
	// Opacity scales every color's alpha, used by transitions. Zero
	// means fully opaque.
	Opacity float32
}

// Render builds the scene for one slide. The returned error is either a
// fatal out-of-range index or a slide-local *LayoutError; in the latter
// case the scene is still valid (content fallback).
func Render(pres domain.Presentation, index int, p Params) (*scene.Scene, LayoutKind, error) {
	if index < 0 || index >= len(pres.Slides) {
		return nil, LayoutContent, fmt.Errorf("slide index %d out of range [0,%d)", index, len(pres.Slides))
	}
	slide := pres.Slides[index]

	th := p.Theme
	if slide.Theme != "" {
		th = theme.FromName(slide.Theme)
	}
	opacity := p.Opacity
	if opacity == 0 {
		opacity = 1
	}
	images := p.Images
	if images == nil {
		images = NoImages{}
	}

	sc := &scene.Scene{Viewport: p.Viewport}
	c := &ctx{
		sc:      sc,
		th:      th,
		images:  images,
		scale:   min32(p.Viewport.W/refWidth, p.Viewport.H/refHeight),
		opacity: opacity,
		reveal:  p.RevealStep,
	}

	sc.FillRect(p.Viewport, theme.WithOpacity(th.Background, opacity))

	kind, layoutErr := Classify(slide, index)
	switch kind {
	case LayoutTitle:
		c.renderTitle(slide)
	case LayoutSection:
		c.renderSection(slide)
	case LayoutDiagram:
		c.renderSingleBlock(slide, domain.KindDiagram)
	case LayoutTable:
		c.renderSingleBlock(slide, domain.KindTable)
	case LayoutCode:
		c.renderSingleBlock(slide, domain.KindCodeBlock)
	case LayoutTwoColumn:
		c.renderTwoColumn(slide)
	case LayoutQuote:
		c.renderQuote(slide)
	case LayoutImage:
		c.renderImageSlide(slide)
	case LayoutBulletShort:
		c.renderBullets(slide, true)
	case LayoutBulletLong:
		c.renderBullets(slide, false)
	default:
		c.renderContent(slide)
	}

	if kind != LayoutTitle && kind != LayoutImage {
		c.renderFooter(pres, slide, index)
	}
	return sc, kind, layoutErr
}

// renderTitle centers the main heading with an optional subtitle, taken
// from a level-2 heading or the first paragraph.
func (c *ctx) renderTitle(slide domain.Slide) {
	r := c.contentRect(80)

	var headingInlines, subtitleInlines []domain.Inline
	for _, blk := range slide.Blocks {
		switch {
		case blk.Kind == domain.KindHeading && blk.Level == 1:
			headingInlines = blk.Inlines
		case blk.Kind == domain.KindHeading && blk.Level == 2:
			subtitleInlines = blk.Inlines
		case blk.Kind == domain.KindParagraph && subtitleInlines == nil:
			subtitleInlines = blk.Inlines
		}
	}
	if headingInlines == nil && len(slide.Blocks) > 0 && slide.Blocks[0].Kind == domain.KindHeading {
		headingInlines = slide.Blocks[0].Inlines
	}

	titleSize := c.th.H1Size * 1.1 * c.scale
	subtitleSize := c.th.H2Size * 0.7 * c.scale

	// Measure first so long wrapped titles still center as a group and
	// never run into the subtitle.
	var total float32
	if headingInlines != nil {
		total += c.measureInlines(headingInlines, titleSize, r.W)
	}
	if subtitleInlines != nil {
		total += c.measureInlines(subtitleInlines, subtitleSize, r.W)
		if headingInlines != nil {
			total += 20 * c.scale
		}
	}
	y := r.Y + r.H/2 - total/2

	if headingInlines != nil {
		h := c.drawCentered(headingInlines, y, titleSize, theme.WithOpacity(c.th.HeadingColor, c.opacity), r)
		y += h + 20*c.scale
	}
	if subtitleInlines != nil {
		c.drawCentered(subtitleInlines, y, subtitleSize, theme.WithOpacity(c.th.Foreground, c.opacity*0.8), r)
	}
}

// renderSection centers a single heading on the slide.
func (c *ctx) renderSection(slide domain.Slide) {
	r := c.contentRect(80)
	for _, blk := range slide.Blocks {
		if blk.Kind != domain.KindHeading {
			continue
		}
		size := c.th.H2Size * 1.1 * c.scale
		if blk.Level == 1 {
			size = c.th.H1Size * 1.2 * c.scale
		}
		lineH := textlayout.LineHeight(nil, textlayout.FontSpec{SizePt: size})
		y := r.Y + r.H/2 - lineH/2
		c.drawCentered(blk.Inlines, y, size, theme.WithOpacity(c.th.HeadingColor, c.opacity), r)
		return
	}
}

// renderSingleBlock handles the diagram, table and code layouts: an
// optional heading at the top, the dominant block vertically centered
// in the remaining space.
func (c *ctx) renderSingleBlock(slide domain.Slide, kind domain.BlockKind) {
	r := c.contentRect(80)
	width := r.W * 0.8
	left := r.X + (r.W-width)/2

	y := r.Y
	for _, blk := range slide.Blocks {
		if blk.Kind == domain.KindHeading {
			y += c.drawHeading(blk.Inlines, blk.Level, scene.Pt{X: left, Y: y}, width) + 30*c.scale
			break
		}
	}

	for _, blk := range slide.Blocks {
		if blk.Kind != kind {
			continue
		}
		h := c.measureBlocksHeight([]domain.Block{blk}, width)
		avail := r.Y + r.H - y
		top := y
		if h < avail {
			top = y + (avail-h)/2
		}
		c.drawBlock(blk, scene.Pt{X: left, Y: top}, width)
		return
	}
}

// renderTwoColumn divides the content region into two equal panes with
// a fixed gutter.
func (c *ctx) renderTwoColumn(slide domain.Slide) {
	vPadding := 80 * c.scale
	contentWidth := c.sc.Viewport.W * 0.8
	left := c.sc.Viewport.X + (c.sc.Viewport.W-contentWidth)/2
	gap := 40 * c.scale
	colWidth := (contentWidth - gap) / 2

	heading, leftBlocks, rightBlocks := SplitColumns(slide.Blocks)

	y := c.sc.Viewport.Y + vPadding
	for _, blk := range heading {
		y += c.drawHeading(blk.Inlines, blk.Level, scene.Pt{X: left, Y: y}, contentWidth) + 30*c.scale
	}

	c.drawBlocks(leftBlocks, scene.Pt{X: left, Y: y}, colWidth)
	c.drawBlocks(rightBlocks, scene.Pt{X: left + colWidth + gap, Y: y}, colWidth)
}

// renderQuote shows the blockquote enlarged and centered with decorative
// quote marks and a right-aligned attribution.
func (c *ctx) renderQuote(slide domain.Slide) {
	r := c.contentRect(80)

	var heading *domain.Block
	var quote *domain.Block
	for i := range slide.Blocks {
		switch slide.Blocks[i].Kind {
		case domain.KindHeading:
			if heading == nil {
				heading = &slide.Blocks[i]
			}
		case domain.KindBlockquote:
			quote = &slide.Blocks[i]
		}
	}
	if quote == nil {
		c.renderContent(slide)
		return
	}

	quoteSize := c.th.BodySize * 1.3 * c.scale
	quoteWidth := r.W * 0.8
	quoteX := r.X + (r.W-quoteWidth)/2

	y := r.Y + 20*c.scale
	if heading != nil {
		y += c.drawHeading(heading.Inlines, heading.Level, scene.Pt{X: r.X, Y: y}, r.W) + 40*c.scale
	} else {
		h := c.measureBlocksHeight([]domain.Block{*quote}, quoteWidth)
		y = max32(r.Y+r.H/2-h/2, y)
	}

	markSize := quoteSize * 2
	markCol := theme.WithOpacity(c.th.Accent, c.opacity*0.5)
	c.sc.Text("“", scene.Pt{X: quoteX, Y: y - markSize*0.3}, scene.TextStyle{Size: markSize}, markCol)

	textY := y + markSize*0.4
	col := theme.WithOpacity(c.th.Foreground, c.opacity)
	var textH float32
	for _, line := range quote.QuoteLines {
		textH += c.drawInlines(line, scene.Pt{X: quoteX, Y: textY + textH}, quoteSize, col, quoteWidth)
	}

	barW := 4 * c.scale
	c.sc.FillRoundedRect(scene.R(quoteX-16*c.scale, textY, barW, textH), 2, theme.WithOpacity(c.th.Accent, c.opacity))
	c.sc.Text("”", scene.Pt{X: quoteX + quoteWidth, Y: textY + textH - markSize*0.5}, scene.TextStyle{Size: markSize}, markCol)

	if quote.Attribution != "" {
		attrSize := c.th.BodySize * 0.9 * c.scale
		attrCol := theme.WithOpacity(c.th.Foreground, c.opacity*0.7)
		text := "— " + quote.Attribution
		w := textlayout.Measure(nil, text, textlayout.FontSpec{SizePt: attrSize, Italic: true})
		c.sc.Text(text, scene.Pt{X: r.X + r.W - w - 40*c.scale, Y: textY + textH + 30*c.scale},
			scene.TextStyle{Size: attrSize, Italic: true}, attrCol)
	}
}

// renderImageSlide covers the viewport with the image and overlays the
// heading, if any, on a translucent band near the bottom.
func (c *ctx) renderImageSlide(slide domain.Slide) {
	var img *domain.Block
	var heading *domain.Block
	for i := range slide.Blocks {
		switch slide.Blocks[i].Kind {
		case domain.KindImage:
			if img == nil {
				img = &slide.Blocks[i]
			}
		case domain.KindHeading:
			if heading == nil {
				heading = &slide.Blocks[i]
			}
		}
	}
	if img == nil {
		c.renderContent(slide)
		return
	}

	c.drawImageInArea(*img, c.sc.Viewport)

	if heading != nil {
		padding := 60 * c.scale
		overlayH := 80 * c.scale
		v := c.sc.Viewport
		overlay := scene.R(v.X, v.Y+v.H-overlayH-40*c.scale, v.W, overlayH)
		c.sc.FillRect(overlay, theme.WithOpacity(c.th.Background, c.opacity*0.6))
		c.drawHeading(heading.Inlines, heading.Level, scene.Pt{X: overlay.X + padding, Y: overlay.Y + 16*c.scale}, v.W-padding*2)
	}
}

// renderBullets centers the list content in a 70% column. The short
// variant gets a modest size boost so a few items fill the slide.
func (c *ctx) renderBullets(slide domain.Slide, short bool) {
	sub := *c
	if short {
		sub.scale = c.scale * 1.15
	}
	sub.renderContent(slide)
	c.step = sub.step
}

// renderContent is the fallback: blocks stacked top to bottom in a 70%
// column, vertically centered when they fit.
func (c *ctx) renderContent(slide domain.Slide) {
	vPadding := 80 * c.scale
	v := c.sc.Viewport
	contentWidth := v.W * 0.7
	left := v.X + (v.W-contentWidth)/2

	total := c.measureBlocksHeight(slide.Blocks, contentWidth)
	avail := v.H - vPadding*2
	startY := v.Y + vPadding
	if total < avail {
		startY += (avail - total) / 2
	}
	c.drawBlocks(slide.Blocks, scene.Pt{X: left, Y: startY}, contentWidth)
}

// renderFooter draws the footer text bottom-left and the slide counter
// bottom-right.
func (c *ctx) renderFooter(pres domain.Presentation, slide domain.Slide, index int) {
	footer := slide.Footer
	if footer == "" {
		footer = pres.Meta.Footer
	}
	size := c.th.BodySize * 0.45 * c.scale
	col := theme.WithOpacity(c.th.Foreground, c.opacity*0.5)
	v := c.sc.Viewport
	y := v.Y + v.H - 40*c.scale

	if footer != "" {
		c.sc.Text(footer, scene.Pt{X: v.X + 40*c.scale, Y: y}, scene.TextStyle{Size: size}, col)
	}

	counter := fmt.Sprintf("%d / %d", index+1, len(pres.Slides))
	w := textlayout.Measure(nil, counter, textlayout.FontSpec{SizePt: size})
	c.sc.Text(counter, scene.Pt{X: v.X + v.W - w - 40*c.scale, Y: y}, scene.TextStyle{Size: size}, col)
}

// contentRect shrinks the viewport by a scaled uniform padding.
func (c *ctx) contentRect(padding float32) scene.Rect {
	return c.sc.Viewport.Inset(padding*c.scale, padding*c.scale)
}

// drawCentered lays the inlines out centered horizontally at y.
func (c *ctx) drawCentered(inlines []domain.Inline, y, size float32, col color.NRGBA, r scene.Rect) float32 {
	w := textlayout.Measure(nil, domain.PlainText(inlines), textlayout.FontSpec{SizePt: size})
	if w > r.W {
		w = r.W
	}
	x := r.X + (r.W-w)/2
	return c.drawInlines(inlines, scene.Pt{X: x, Y: y}, size, col, r.W)
}

func max32(a, b float32) float32 {
	if a > b {
		return a
	}
	return b
}

func blackColor() color.NRGBA { return color.NRGBA{A: 0xFF} }
func whiteColor() color.NRGBA { return color.NRGBA{R: 0xFF, G: 0xFF, B: 0xFF, A: 0xFF} }
