/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package scene defines the resolution-independent draw list produced by
// the renderer. Coordinates are in pixels of the target viewport; a
// backend replays the ops in order without further layout decisions.
package scene

import "image/color"

// Pt is a 2D point. Float values use float32 for compactness and to
// align with many UI libs.
type Pt struct{ X, Y float32 }

// Rect is an axis-aligned rectangle defined by min corner and size.
type Rect struct {
	X, Y float32
	W, H float32
}

func R(x, y, w, h float32) Rect { return Rect{X: x, Y: y, W: w, H: h} }

func (r Rect) Min() Pt { return Pt{r.X, r.Y} }
func (r Rect) Max() Pt { return Pt{r.X + r.W, r.Y + r.H} }

func (r Rect) Contains(p Pt) bool {
	return p.X >= r.X && p.Y >= r.Y && p.X <= r.X+r.W && p.Y <= r.Y+r.H
}

// Inset returns a rectangle inset by dx,dy on all sides (negative grows).
func (r Rect) Inset(dx, dy float32) Rect {
	return Rect{X: r.X + dx, Y: r.Y + dy, W: r.W - 2*dx, H: r.H - 2*dy}
}

// OpKind discriminates the closed Op variant set.
type OpKind int

const (
	OpFillRect OpKind = iota
	OpStrokeRect
	OpLine
	OpPolygon
	OpText
	OpImage
)

// TextStyle carries the font attributes of a text op.
type TextStyle struct {
	Size      float32
	Bold      bool
	Italic    bool
	Strike    bool
	Monospace bool
}

// Op is one drawing instruction. Exactly the fields for its Kind are
// populated.
type Op struct {
	Kind  OpKind
	Rect  Rect // FillRect, StrokeRect, Image: target area
	Color color.NRGBA

	// StrokeRect, Line, Polygon
	Width float32

	// FillRect, StrokeRect
	Radius float32

	// Line
	From, To Pt

	// Polygon vertices, filled when Width is zero
	Points []Pt

	// Text
	Text  string
	Pos   Pt
	Style TextStyle

	// Image: source path as written in the deck, resolution deferred to
	// the backend's cache lookup. Cover crops to fill the rect.
	Path  string
	Cover bool
}

// Scene is an ordered draw list for one frame of one slide.
type Scene struct {
	Viewport Rect
	Ops      []Op
}

func (s *Scene) FillRect(r Rect, c color.NRGBA) {
	s.Ops = append(s.Ops, Op{Kind: OpFillRect, Rect: r, Color: c})
}

func (s *Scene) FillRoundedRect(r Rect, radius float32, c color.NRGBA) {
	s.Ops = append(s.Ops, Op{Kind: OpFillRect, Rect: r, Radius: radius, Color: c})
}

func (s *Scene) StrokeRect(r Rect, width float32, c color.NRGBA) {
	s.Ops = append(s.Ops, Op{Kind: OpStrokeRect, Rect: r, Width: width, Color: c})
}

func (s *Scene) Line(from, to Pt, width float32, c color.NRGBA) {
	s.Ops = append(s.Ops, Op{Kind: OpLine, From: from, To: to, Width: width, Color: c})
}

// Polygon adds a filled polygon, used for arrowheads.
func (s *Scene) Polygon(pts []Pt, c color.NRGBA) {
	s.Ops = append(s.Ops, Op{Kind: OpPolygon, Points: pts, Color: c})
}

func (s *Scene) Text(text string, pos Pt, style TextStyle, c color.NRGBA) {
	s.Ops = append(s.Ops, Op{Kind: OpText, Text: text, Pos: pos, Style: style, Color: c})
}

func (s *Scene) Image(path string, r Rect, cover bool) {
	s.Ops = append(s.Ops, Op{Kind: OpImage, Path: path, Rect: r, Cover: cover})
}
