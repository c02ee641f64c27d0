/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package render

import (
	"image/color"
	"math"

	"github.com/mklab-se/mdeck/internal/domain"
	"github.com/mklab-se/mdeck/internal/scene"
	"github.com/mklab-se/mdeck/internal/textlayout"
	"github.com/mklab-se/mdeck/internal/theme"
)

// drawDiagram lays out graph nodes on their declared grid as pill shapes
// and connects them with curved directed edges. A diagram that failed
// validation renders its raw source as a code block instead.
func (c *ctx) drawDiagram(blk domain.Block, pos scene.Pt, maxWidth float32) float32 {
	if blk.DiagramErr != nil || len(blk.Graph.Nodes) == 0 {
		fallback := domain.Block{Kind: domain.KindCodeBlock, Code: blk.Raw}
		return c.drawCodeBlock(fallback, pos, maxWidth)
	}
	g := blk.Graph

	cols, rows := 1, 1
	for _, n := range g.Nodes {
		if n.Col+1 > cols {
			cols = n.Col + 1
		}
		if n.Row+1 > rows {
			rows = n.Row + 1
		}
	}

	hGap := 80 * c.scale
	vGap := 60 * c.scale
	nodeW := clamp32((maxWidth-float32(cols-1)*hGap)/float32(cols), 80*c.scale, 180*c.scale)
	nodeH := 44 * c.scale
	radius := nodeH / 2 // pill shape

	totalW := float32(cols)*nodeW + float32(cols-1)*hGap
	startX := pos.X + (maxWidth-totalW)/2
	startY := pos.Y + 50*c.scale

	nodeFill := theme.WithOpacity(c.th.Accent, c.opacity*0.9)
	shadow := theme.WithOpacity(blackColor(), c.opacity*0.15)
	label := theme.WithOpacity(whiteColor(), c.opacity)

	centers := make(map[string]scene.Pt, len(g.Nodes))
	for _, n := range g.Nodes {
		x := startX + float32(n.Col)*(nodeW+hGap)
		y := startY + float32(n.Row)*(nodeH+vGap)
		centers[n.Label] = scene.Pt{X: x + nodeW/2, Y: y + nodeH/2}

		offset := 2 * c.scale
		c.sc.FillRoundedRect(scene.R(x+offset, y+offset, nodeW, nodeH), radius, shadow)
		c.sc.FillRoundedRect(scene.R(x, y, nodeW, nodeH), radius, nodeFill)

		text := n.Label
		if n.Icon != "" {
			text = iconGlyph(n.Icon) + " " + text
		}
		size := c.th.BodySize * 0.65 * c.scale
		w := textlayout.Measure(nil, text, textlayout.FontSpec{SizePt: size})
		lineH := textlayout.LineHeight(nil, textlayout.FontSpec{SizePt: size})
		c.sc.Text(text, scene.Pt{X: x + (nodeW-w)/2, Y: y + (nodeH-lineH)/2}, scene.TextStyle{Size: size}, label)
	}

	edgeCol := theme.WithOpacity(c.th.Accent, c.opacity*0.7)
	labelBg := theme.WithOpacity(c.th.CodeBackground, c.opacity*0.9)
	labelCol := theme.WithOpacity(c.th.Foreground, c.opacity*0.8)
	lineW := 2.5 * c.scale
	arrowSize := 10 * c.scale

	for idx, e := range g.Edges {
		fc, ok := centers[e.From]
		if !ok {
			continue
		}
		tc, ok := centers[e.To]
		if !ok {
			continue
		}

		var start, end scene.Pt
		if tc.X > fc.X {
			start = scene.Pt{X: fc.X + nodeW/2, Y: fc.Y}
			end = scene.Pt{X: tc.X - nodeW/2, Y: tc.Y}
		} else if tc.X < fc.X {
			start = scene.Pt{X: fc.X - nodeW/2, Y: fc.Y}
			end = scene.Pt{X: tc.X + nodeW/2, Y: tc.Y}
		} else {
			// vertically stacked nodes connect bottom to top
			start = scene.Pt{X: fc.X, Y: fc.Y + nodeH/2}
			end = scene.Pt{X: tc.X, Y: tc.Y - nodeH/2}
			if tc.Y < fc.Y {
				start = scene.Pt{X: fc.X, Y: fc.Y - nodeH/2}
				end = scene.Pt{X: tc.X, Y: tc.Y + nodeH/2}
			}
		}

		if hypot32(end.X-start.X, end.Y-start.Y) < 1 {
			continue
		}

		curve := -35 * c.scale
		if idx%2 == 1 {
			curve = 35 * c.scale
		}
		mid := scene.Pt{X: (start.X + end.X) / 2, Y: (start.Y + end.Y) / 2}
		control := scene.Pt{X: mid.X, Y: mid.Y + curve}

		c.drawQuadCurve(start, control, end, lineW, edgeCol)
		c.drawArrowhead(end, control, arrowSize, edgeCol)

		if e.Label != "" {
			size := c.th.BodySize * 0.5 * c.scale
			padding := 6 * c.scale
			w := textlayout.Measure(nil, e.Label, textlayout.FontSpec{SizePt: size})
			lineH := textlayout.LineHeight(nil, textlayout.FontSpec{SizePt: size})
			lw, lh := w+padding*2, lineH+padding*2
			cx, cy := mid.X, mid.Y+curve*0.6
			c.sc.FillRoundedRect(scene.R(cx-lw/2, cy-lh/2, lw, lh), lh/2, labelBg)
			c.sc.Text(e.Label, scene.Pt{X: cx - w/2, Y: cy - lineH/2}, scene.TextStyle{Size: size}, labelCol)
		}
	}

	return float32(rows)*(nodeH+vGap) - vGap + 140*c.scale
}

// drawQuadCurve approximates a quadratic bezier with a short polyline.
// The scene keeps straight segments only so every backend can replay it.
func (c *ctx) drawQuadCurve(p0, p1, p2 scene.Pt, width float32, col color.NRGBA) {
	const segments = 16
	prev := p0
	for i := 1; i <= segments; i++ {
		t := float32(i) / segments
		u := 1 - t
		pt := scene.Pt{
			X: u*u*p0.X + 2*u*t*p1.X + t*t*p2.X,
			Y: u*u*p0.Y + 2*u*t*p1.Y + t*t*p2.Y,
		}
		c.sc.Line(prev, pt, width, col)
		prev = pt
	}
}

// drawArrowhead fills a triangle at tip pointing away from the control
// point.
func (c *ctx) drawArrowhead(tip, from scene.Pt, size float32, col color.NRGBA) {
	dx, dy := tip.X-from.X, tip.Y-from.Y
	length := hypot32(dx, dy)
	if length == 0 {
		return
	}
	dx, dy = dx/length, dy/length
	px, py := -dy, dx
	p1 := scene.Pt{X: tip.X - dx*size + px*size*0.4, Y: tip.Y - dy*size + py*size*0.4}
	p2 := scene.Pt{X: tip.X - dx*size - px*size*0.4, Y: tip.Y - dy*size - py*size*0.4}
	c.sc.Polygon([]scene.Pt{tip, p1, p2}, col)
}

func clamp32(v, lo, hi float32) float32 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func hypot32(x, y float32) float32 {
	return float32(math.Hypot(float64(x), float64(y)))
}

// iconGlyph maps a declared icon tag to a presentational glyph.
func iconGlyph(tag string) string {
	switch tag {
	case "database", "db":
		return "⛃"
	case "server":
		return "⚙"
	case "user", "client":
		return "☺"
	case "cloud":
		return "☁"
	case "queue":
		return "☰"
	default:
		return "▣"
	}
}
