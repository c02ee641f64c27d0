/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package textlayout

// Deterministic text measurement for the layout engine. The renderer
// only needs widths and line breaks, never rasterized glyphs, so the
// default provider measures with a fixed bitmap face and scales the
// result linearly to the requested size. Interactive backends draw with
// their own engines and match closely enough for slide layout.

import (
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
)

// FontSpec describes a requested font.
type FontSpec struct {
	SizePt    float32
	Bold      bool
	Italic    bool
	Monospace bool
}

// Metrics provides font metrics in pixels for the resolved face, scaled
// to the requested size.
type Metrics struct {
	Ascent, Descent, LineGap float32
}

// Span is a run of text with the same font/style.
type Span struct {
	Text string
	Font FontSpec
}

// Line is a single laid out line with width and ascent/descent.
type Line struct {
	Spans   []Span
	Width   float32
	Ascent  float32
	Descent float32
}

// TextBox is the result of laying out text into a box width.
type TextBox struct {
	Lines   []Line
	Width   float32
	Height  float32
	Metrics Metrics
}

// Provider maps FontSpec to a concrete font.Face plus scaled metrics.
type Provider interface {
	Resolve(FontSpec) (font.Face, Metrics)
}

// Layouter performs line-breaking and measurement.
type Layouter interface {
	Layout(spans []Span, maxWidth float32) (TextBox, error)
}

// basicEmHeight is the design height of basicfont.Face7x13.
const basicEmHeight = 13

// BasicProvider measures with x/image basicfont.Face7x13 and scales the
// metrics to SizePt. Deterministic across platforms.
type BasicProvider struct{}

func (BasicProvider) Resolve(spec FontSpec) (font.Face, Metrics) {
	f := basicfont.Face7x13
	m := f.Metrics()
	s := scaleFor(spec)
	return f, Metrics{
		Ascent:  float32(m.Ascent.Round()) * s,
		Descent: float32(m.Descent.Round()) * s,
		LineGap: float32(m.Height.Round()-m.Ascent.Round()-m.Descent.Round()) * s,
	}
}

func scaleFor(spec FontSpec) float32 {
	if spec.SizePt <= 0 {
		return 1
	}
	return spec.SizePt / basicEmHeight
}

// Measure returns the advance width of a single-style run.
func Measure(p Provider, text string, spec FontSpec) float32 {
	if p == nil {
		p = BasicProvider{}
	}
	face, _ := p.Resolve(spec)
	drawer := &font.Drawer{Face: face}
	return advance(drawer, text) * scaleFor(spec)
}

// LineHeight returns ascent+descent+gap for the given font.
func LineHeight(p Provider, spec FontSpec) float32 {
	if p == nil {
		p = BasicProvider{}
	}
	_, m := p.Resolve(spec)
	return m.Ascent + m.Descent + m.LineGap
}

// WordWrapLayouter breaks on spaces; it does not perform shaping or
// hyphenation. Exact enough for slide layout.
type WordWrapLayouter struct{ Provider Provider }

func NewWordWrap(provider Provider) *WordWrapLayouter { return &WordWrapLayouter{Provider: provider} }

func (l *WordWrapLayouter) Layout(spans []Span, maxWidth float32) (TextBox, error) {
	if l.Provider == nil {
		l.Provider = BasicProvider{}
	}
	// Metrics aggregate over the largest font in the box so mixed-size
	// lines do not collide.
	met := l.boxMetrics(spans)
	box := TextBox{Metrics: met}
	cur := Line{Ascent: met.Ascent, Descent: met.Descent}
	addLine := func() {
		box.Lines = append(box.Lines, cur)
		if cur.Width > box.Width {
			box.Width = cur.Width
		}
		box.Height += met.Ascent + met.Descent + met.LineGap
		cur = Line{Ascent: met.Ascent, Descent: met.Descent}
	}
	for _, sp := range spans {
		if sp.Text == "" {
			continue
		}
		face, _ := l.Provider.Resolve(sp.Font)
		drawer := &font.Drawer{Face: face}
		s := scaleFor(sp.Font)
		start := 0
		for i := 0; i <= len(sp.Text); i++ {
			if i == len(sp.Text) || sp.Text[i] == ' ' || sp.Text[i] == '\n' { // word boundary
				word := sp.Text[start:i]
				space := byte(0)
				if i < len(sp.Text) {
					space = sp.Text[i]
				}
				w := advance(drawer, word) * s
				// if word alone exceeds maxWidth, force on new line
				if cur.Width > 0 && cur.Width+w > maxWidth && maxWidth > 0 {
					addLine()
				}
				if word != "" {
					cur.Spans = append(cur.Spans, Span{Text: word, Font: sp.Font})
					cur.Width += w
				}
				if space == ' ' {
					ws := advance(drawer, " ") * s
					cur.Spans = append(cur.Spans, Span{Text: " ", Font: sp.Font})
					cur.Width += ws
				} else if space == '\n' {
					addLine()
				}
				start = i + 1
			}
		}
	}
	// flush last line
	if len(cur.Spans) > 0 || len(box.Lines) == 0 {
		addLine()
	}
	return box, nil
}

func (l *WordWrapLayouter) boxMetrics(spans []Span) Metrics {
	var met Metrics
	for _, sp := range spans {
		_, m := l.Provider.Resolve(sp.Font)
		if m.Ascent > met.Ascent {
			met.Ascent = m.Ascent
		}
		if m.Descent > met.Descent {
			met.Descent = m.Descent
		}
		if m.LineGap > met.LineGap {
			met.LineGap = m.LineGap
		}
	}
	if met.Ascent == 0 && met.Descent == 0 {
		_, met = l.Provider.Resolve(FontSpec{})
	}
	return met
}

func advance(d *font.Drawer, s string) float32 {
	if s == "" {
		return 0
	}
	return float32(d.MeasureString(s).Round())
}
