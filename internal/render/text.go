/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package render

import (
	"fmt"
	"image/color"
	"strings"

	"github.com/mklab-se/mdeck/internal/domain"
	"github.com/mklab-se/mdeck/internal/scene"
	"github.com/mklab-se/mdeck/internal/textlayout"
	"github.com/mklab-se/mdeck/internal/theme"
)

// ctx carries the per-frame drawing state shared by all block helpers.
type ctx struct {
	sc      *scene.Scene
	th      theme.Theme
	images  ImageStore
	scale   float32
	opacity float32
	reveal  int
	lay     textlayout.Layouter
	// running build-step counter across the slide's lists
	step int
}

type styledSpan struct {
	text   string
	font   textlayout.FontSpec
	color  color.NRGBA
	strike bool
}

// flattenInlines resolves nested spans into flat styled runs.
func flattenInlines(inlines []domain.Inline, base textlayout.FontSpec, fg color.NRGBA, th theme.Theme, opacity float32) []styledSpan {
	var out []styledSpan
	var walk func(spans []domain.Inline, font textlayout.FontSpec, col color.NRGBA, strike bool)
	walk = func(spans []domain.Inline, font textlayout.FontSpec, col color.NRGBA, strike bool) {
		for _, in := range spans {
			switch in.Kind {
			case domain.InlineText:
				if in.Text != "" {
					out = append(out, styledSpan{text: in.Text, font: font, color: col, strike: strike})
				}
			case domain.InlineCode:
				cf := font
				cf.Monospace = true
				cf.SizePt = font.SizePt * 0.9
				out = append(out, styledSpan{text: in.Text, font: cf, color: theme.WithOpacity(th.CodeForeground, opacity), strike: strike})
			case domain.InlineBold:
				bf := font
				bf.Bold = true
				walk(in.Children, bf, col, strike)
			case domain.InlineItalic:
				itf := font
				itf.Italic = true
				walk(in.Children, itf, col, strike)
			case domain.InlineStrike:
				walk(in.Children, font, col, true)
			case domain.InlineLink:
				walk(in.Children, font, theme.WithOpacity(th.Accent, opacity), strike)
			}
		}
	}
	walk(inlines, base, fg, false)
	return out
}

// drawInlines word-wraps styled runs into the scene starting at pos and
// returns the consumed height.
func (c *ctx) drawInlines(inlines []domain.Inline, pos scene.Pt, size float32, fg color.NRGBA, maxWidth float32) float32 {
	spans := flattenInlines(inlines, textlayout.FontSpec{SizePt: size}, fg, c.th, c.opacity)
	return c.drawSpans(spans, pos, size, maxWidth)
}

// drawSpans lays the runs out with the word-wrap layouter and paints
// the resulting lines, merging adjacent same-style tokens into single
// text ops.
func (c *ctx) drawSpans(spans []styledSpan, pos scene.Pt, size float32, maxWidth float32) float32 {
	lineH := textlayout.LineHeight(nil, textlayout.FontSpec{SizePt: size})

	tl := make([]textlayout.Span, len(spans))
	for i, sp := range spans {
		tl[i] = textlayout.Span{Text: sp.text, Font: sp.font}
	}
	box, err := c.layouter().Layout(tl, maxWidth)
	if err != nil || len(box.Lines) == 0 {
		return lineH
	}

	// The layouter emits tokens in source order and never crosses a span
	// boundary, so a byte cursor over the source spans recovers the
	// color and strike style the layouter does not carry.
	k, off := 0, 0
	styleFor := func(tok string) styledSpan {
		for {
			for k < len(spans) && off >= len(spans[k].text) {
				k++
				off = 0
			}
			if k >= len(spans) {
				return styledSpan{font: textlayout.FontSpec{SizePt: size}, color: theme.WithOpacity(c.th.Foreground, c.opacity)}
			}
			if spans[k].text[off] == '\n' {
				off++
				continue
			}
			off += len(tok)
			return spans[k]
		}
	}

	var pend strings.Builder
	var pendX, y float32
	var pendSpan styledSpan

	flush := func() {
		if pend.Len() == 0 {
			return
		}
		c.sc.Text(pend.String(), scene.Pt{X: pendX, Y: y}, scene.TextStyle{
			Size:      pendSpan.font.SizePt,
			Bold:      pendSpan.font.Bold,
			Italic:    pendSpan.font.Italic,
			Strike:    pendSpan.strike,
			Monospace: pendSpan.font.Monospace,
		}, pendSpan.color)
		pend.Reset()
	}

	for li, line := range box.Lines {
		y = pos.Y + float32(li)*lineH
		x := pos.X
		for _, tok := range line.Spans {
			st := styleFor(tok.Text)
			if pend.Len() > 0 && (st.font != pendSpan.font || st.color != pendSpan.color || st.strike != pendSpan.strike) {
				flush()
			}
			if pend.Len() == 0 {
				pendX = x
				pendSpan = st
			}
			pend.WriteString(tok.Text)
			x += textlayout.Measure(nil, tok.Text, tok.Font)
		}
		flush()
	}
	return float32(len(box.Lines)) * lineH
}

func (c *ctx) layouter() textlayout.Layouter {
	if c.lay == nil {
		c.lay = textlayout.NewWordWrap(nil)
	}
	return c.lay
}

// measureInlines returns the height drawInlines would consume, without
// touching the real scene.
func (c *ctx) measureInlines(inlines []domain.Inline, size float32, maxWidth float32) float32 {
	scratch := *c
	scratch.sc = &scene.Scene{}
	return scratch.drawInlines(inlines, scene.Pt{}, size, theme.WithOpacity(c.th.Foreground, 1), maxWidth)
}

func (c *ctx) drawHeading(inlines []domain.Inline, level int, pos scene.Pt, maxWidth float32) float32 {
	size := c.th.HeadingSize(level) * c.scale
	col := theme.WithOpacity(c.th.HeadingColor, c.opacity)
	return c.drawInlines(inlines, pos, size, col, maxWidth)
}

func (c *ctx) drawParagraph(inlines []domain.Inline, pos scene.Pt, maxWidth float32) float32 {
	size := c.th.BodySize * c.scale
	col := theme.WithOpacity(c.th.Foreground, c.opacity)
	return c.drawInlines(inlines, pos, size, col, maxWidth)
}

func (c *ctx) drawList(items []domain.ListItem, ordered bool, pos scene.Pt, maxWidth float32) float32 {
	return c.drawListInner(items, ordered, pos, maxWidth, 0)
}

func (c *ctx) drawListInner(items []domain.ListItem, ordered bool, pos scene.Pt, maxWidth float32, indentLevel int) float32 {
	col := theme.WithOpacity(c.th.Foreground, c.opacity)
	indent := 30 * c.scale * float32(indentLevel)
	markerWidth := 45 * c.scale
	itemSpacing := 8 * c.scale
	size := c.th.BodySize * c.scale

	var yOffset float32
	for idx, item := range items {
		itemStep := 0
		switch item.Marker {
		case domain.MarkerNextStep:
			c.step++
			itemStep = c.step
		case domain.MarkerWithPrev:
			itemStep = c.step
		}
		if itemStep > c.reveal {
			continue
		}

		marker := "•"
		if ordered || item.Marker == domain.MarkerOrdered {
			marker = fmt.Sprintf("%d.", idx+1)
		}
		c.sc.Text(marker, scene.Pt{X: pos.X + indent, Y: pos.Y + yOffset}, scene.TextStyle{Size: size}, col)

		textPos := scene.Pt{X: pos.X + indent + markerWidth, Y: pos.Y + yOffset}
		textWidth := maxWidth - indent - markerWidth
		h := c.drawInlines(item.Inlines, textPos, size, col, textWidth)
		yOffset += h + itemSpacing

		if len(item.Children) > 0 {
			childOrdered := item.Children[0].Marker == domain.MarkerOrdered
			yOffset += c.drawListInner(item.Children, childOrdered,
				scene.Pt{X: pos.X, Y: pos.Y + yOffset}, maxWidth, indentLevel+1)
		}
	}
	return yOffset
}

func (c *ctx) drawCodeBlock(blk domain.Block, pos scene.Pt, maxWidth float32) float32 {
	size := c.th.CodeSize * c.scale
	lineH := size * 1.4
	padding := 16 * c.scale

	codeLines := strings.Split(strings.TrimRight(blk.Code, "\n"), "\n")
	height := float32(len(codeLines))*lineH + padding*2

	bg := theme.WithOpacity(c.th.CodeBackground, c.opacity)
	c.sc.FillRoundedRect(scene.R(pos.X, pos.Y, maxWidth, height), 8*c.scale, bg)

	highlight := theme.WithOpacity(c.th.Accent, c.opacity*0.2)
	for _, n := range blk.HighlightLines {
		if n < 1 || n > len(codeLines) {
			continue
		}
		rowY := pos.Y + padding + float32(n-1)*lineH
		c.sc.FillRect(scene.R(pos.X+padding*0.5, rowY, maxWidth-padding, lineH), highlight)
	}

	fg := theme.WithOpacity(c.th.CodeForeground, c.opacity)
	style := scene.TextStyle{Size: size, Monospace: true}
	for i, line := range codeLines {
		c.sc.Text(line, scene.Pt{X: pos.X + padding, Y: pos.Y + padding + float32(i)*lineH}, style, fg)
	}
	return height
}

func (c *ctx) drawTable(blk domain.Block, pos scene.Pt, maxWidth float32) float32 {
	cols := len(blk.Headers)
	if cols == 0 {
		return 0
	}
	size := c.th.BodySize * 0.8 * c.scale
	rowH := c.th.BodySize * c.scale * 1.2
	cellPadding := 10 * c.scale
	colWidth := maxWidth / float32(cols)
	fg := theme.WithOpacity(c.th.Foreground, c.opacity)
	accent := theme.WithOpacity(c.th.Accent, c.opacity)

	y := pos.Y
	headerStyle := textlayout.FontSpec{SizePt: size, Bold: true}
	for col, cell := range blk.Headers {
		spans := flattenInlines(cell, headerStyle, theme.WithOpacity(c.th.HeadingColor, c.opacity), c.th, c.opacity)
		c.drawSpans(spans, scene.Pt{X: pos.X + cellPadding + float32(col)*colWidth, Y: y}, size, colWidth-cellPadding*2)
	}
	y += rowH

	lineY := y - rowH*0.15
	c.sc.Line(scene.Pt{X: pos.X + cellPadding, Y: lineY}, scene.Pt{X: pos.X + maxWidth - cellPadding, Y: lineY}, 2*c.scale, accent)

	for _, row := range blk.Rows {
		for col, cell := range row {
			if col >= cols {
				break
			}
			c.drawInlines(cell, scene.Pt{X: pos.X + cellPadding + float32(col)*colWidth, Y: y}, size, fg, colWidth-cellPadding*2)
		}
		y += rowH
	}
	return y - pos.Y
}

func (c *ctx) drawBlockquote(blk domain.Block, pos scene.Pt, maxWidth float32) float32 {
	barWidth := 4 * c.scale
	barPadding := 16 * c.scale
	size := c.th.BodySize * c.scale
	col := theme.WithOpacity(c.th.Foreground, c.opacity)

	textPos := scene.Pt{X: pos.X + barWidth + barPadding, Y: pos.Y}
	textWidth := maxWidth - barWidth - barPadding

	var height float32
	for _, line := range blk.QuoteLines {
		height += c.drawInlines(line, scene.Pt{X: textPos.X, Y: textPos.Y + height}, size, col, textWidth)
	}

	accent := theme.WithOpacity(c.th.Accent, c.opacity)
	c.sc.FillRoundedRect(scene.R(pos.X, pos.Y, barWidth, height), 2, accent)

	if blk.Attribution != "" {
		attrSize := c.th.BodySize * 0.9 * c.scale
		attrCol := theme.WithOpacity(c.th.Foreground, c.opacity*0.7)
		text := "— " + blk.Attribution
		w := textlayout.Measure(nil, text, textlayout.FontSpec{SizePt: attrSize, Italic: true})
		x := pos.X + maxWidth - w
		c.sc.Text(text, scene.Pt{X: x, Y: pos.Y + height + 10*c.scale}, scene.TextStyle{Size: attrSize, Italic: true}, attrCol)
		height += textlayout.LineHeight(nil, textlayout.FontSpec{SizePt: attrSize}) + 10*c.scale
	}
	return height
}

// drawImageInArea places an image inside the available rect according
// to its sizing directive and returns the drawn rect. Pending and
// failed loads draw a placeholder instead.
func (c *ctx) drawImageInArea(blk domain.Block, area scene.Rect) scene.Rect {
	if blk.Sizing.Kind == domain.SizeFill {
		c.sc.Image(blk.Path, area, true)
		return area
	}

	w, h, ok := c.images.Dims(blk.Path)
	if !ok || w <= 0 || h <= 0 {
		return c.drawImagePlaceholder(blk, area)
	}

	aspect := float32(w) / float32(h)
	var target scene.Rect
	switch blk.Sizing.Kind {
	case domain.SizeWidthPercent:
		tw := area.W * float32(blk.Sizing.Percent) / 100
		th := tw / aspect
		if th > area.H {
			th = area.H
			tw = th * aspect
		}
		target = scene.R(area.X+(area.W-tw)/2, area.Y+(area.H-th)/2, tw, th)
	default:
		tw, th := area.W, area.W/aspect
		if th > area.H {
			th = area.H
			tw = th * aspect
		}
		target = scene.R(area.X+(area.W-tw)/2, area.Y+(area.H-th)/2, tw, th)
	}
	c.sc.Image(blk.Path, target, false)
	return target
}

func (c *ctx) drawImagePlaceholder(blk domain.Block, area scene.Rect) scene.Rect {
	height := min32(200*c.scale, area.H)
	box := scene.R(area.X, area.Y+(area.H-height)/2, area.W, height)
	bg := theme.WithOpacity(c.th.CodeBackground, c.opacity)
	c.sc.FillRoundedRect(box, 8*c.scale, bg)

	label := blk.Alt
	if label == "" {
		label = blk.Path
	}
	size := c.th.BodySize * 0.8 * c.scale
	col := theme.WithOpacity(c.th.Foreground, c.opacity*0.6)
	w := textlayout.Measure(nil, label, textlayout.FontSpec{SizePt: size})
	lineH := textlayout.LineHeight(nil, textlayout.FontSpec{SizePt: size})
	c.sc.Text(label, scene.Pt{X: box.X + (box.W-w)/2, Y: box.Y + (box.H-lineH)/2}, scene.TextStyle{Size: size}, col)
	return box
}

func (c *ctx) drawThematicBreak(pos scene.Pt, maxWidth float32) float32 {
	y := pos.Y + 10*c.scale
	col := theme.WithOpacity(c.th.Foreground, c.opacity*0.3)
	c.sc.Line(scene.Pt{X: pos.X, Y: y}, scene.Pt{X: pos.X + maxWidth, Y: y}, 1*c.scale, col)
	return 20 * c.scale
}

// drawBlock renders one block at pos and returns its height.
func (c *ctx) drawBlock(blk domain.Block, pos scene.Pt, maxWidth float32) float32 {
	switch blk.Kind {
	case domain.KindHeading:
		return c.drawHeading(blk.Inlines, blk.Level, pos, maxWidth)
	case domain.KindParagraph:
		return c.drawParagraph(blk.Inlines, pos, maxWidth)
	case domain.KindList:
		return c.drawList(blk.Items, blk.Ordered, pos, maxWidth)
	case domain.KindCodeBlock:
		return c.drawCodeBlock(blk, pos, maxWidth)
	case domain.KindTable:
		return c.drawTable(blk, pos, maxWidth)
	case domain.KindBlockquote:
		return c.drawBlockquote(blk, pos, maxWidth)
	case domain.KindImage:
		area := scene.R(pos.X, pos.Y, maxWidth, 400*c.scale)
		drawn := c.drawImageInArea(blk, area)
		return drawn.H
	case domain.KindDiagram:
		return c.drawDiagram(blk, pos, maxWidth)
	case domain.KindThematicBreak:
		return c.drawThematicBreak(pos, maxWidth)
	default:
		return 0
	}
}

func (c *ctx) drawBlocks(blocks []domain.Block, pos scene.Pt, maxWidth float32) float32 {
	var y float32
	for i, blk := range blocks {
		y += c.drawBlock(blk, scene.Pt{X: pos.X, Y: pos.Y + y}, maxWidth)
		if i < len(blocks)-1 {
			y += blockSpacing(blk, c.scale)
		}
	}
	return y
}

func blockSpacing(blk domain.Block, scale float32) float32 {
	switch blk.Kind {
	case domain.KindHeading:
		return 30 * scale
	case domain.KindThematicBreak:
		return 10 * scale
	default:
		return 20 * scale
	}
}

// measureBlocksHeight computes the stacked height of blocks without
// emitting ops. Reveal gating is ignored so centering stays stable
// while steps advance.
func (c *ctx) measureBlocksHeight(blocks []domain.Block, maxWidth float32) float32 {
	scratch := *c
	scratch.sc = &scene.Scene{}
	scratch.reveal = int(^uint(0) >> 1)
	scratch.step = 0
	return scratch.drawBlocks(blocks, scene.Pt{}, maxWidth)
}

func min32(a, b float32) float32 {
	if a < b {
		return a
	}
	return b
}
