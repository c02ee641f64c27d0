/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package annotate captures freehand strokes over slides. Layers are
// keyed by slide index and live only for the session; they are never
// persisted with the deck.
package annotate

import (
	"image/color"
	"sync"

	"github.com/mklab-se/mdeck/internal/scene"
)

// StrokeKind discriminates the two capture modes.
type StrokeKind int

const (
	// Pen accumulates every drag point into a freehand polyline.
	Pen StrokeKind = iota
	// Arrow keeps only start and end; the end follows the pointer while
	// the drag is live.
	Arrow
)

// Stroke is one committed or in-progress annotation.
type Stroke struct {
	Kind   StrokeKind
	Points []scene.Pt
	Color  color.NRGBA
	Width  float32
}

// Board holds the per-slide annotation layers plus at most one
// in-progress stroke. Safe for concurrent use, though input normally
// arrives on the frame loop only.
type Board struct {
	mu     sync.Mutex
	layers map[int][]Stroke

	active      *Stroke
	activeSlide int
}

func NewBoard() *Board {
	return &Board{layers: make(map[int][]Stroke)}
}

// Begin starts a new stroke on the given slide, dropping any stroke that
// was still in progress.
func (b *Board) Begin(slide int, kind StrokeKind, start scene.Pt, col color.NRGBA, width float32) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.active = &Stroke{Kind: kind, Points: []scene.Pt{start}, Color: col, Width: width}
	b.activeSlide = slide
}

// Extend feeds the next pointer position into the active stroke. Pen
// strokes grow by one point; arrow strokes move their end point.
func (b *Board) Extend(p scene.Pt) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.active == nil {
		return
	}
	switch b.active.Kind {
	case Pen:
		b.active.Points = append(b.active.Points, p)
	case Arrow:
		if len(b.active.Points) == 1 {
			b.active.Points = append(b.active.Points, p)
		} else {
			b.active.Points[len(b.active.Points)-1] = p
		}
	}
}

// End commits the active stroke to its slide's layer. Strokes with a
// single point are discarded as accidental taps.
func (b *Board) End() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.active == nil {
		return
	}
	if len(b.active.Points) > 1 {
		b.layers[b.activeSlide] = append(b.layers[b.activeSlide], *b.active)
	}
	b.active = nil
}

// Cancel drops the active stroke without committing it.
func (b *Board) Cancel() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.active = nil
}

// Strokes returns the committed strokes for a slide, followed by the
// in-progress one when it belongs to that slide. The result is a copy.
func (b *Board) Strokes(slide int) []Stroke {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]Stroke, 0, len(b.layers[slide])+1)
	out = append(out, b.layers[slide]...)
	if b.active != nil && b.activeSlide == slide {
		out = append(out, *b.active)
	}
	return out
}

// Empty reports whether a slide has neither committed nor in-progress
// strokes.
func (b *Board) Empty(slide int) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.layers[slide]) > 0 {
		return false
	}
	return b.active == nil || b.activeSlide != slide
}

// Clear removes every stroke on a slide and reports whether there was
// anything to remove.
func (b *Board) Clear(slide int) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	had := len(b.layers[slide]) > 0
	delete(b.layers, slide)
	if b.active != nil && b.activeSlide == slide {
		b.active = nil
		had = true
	}
	return had
}

// Undo removes the most recent committed stroke on a slide.
func (b *Board) Undo(slide int) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	strokes := b.layers[slide]
	if len(strokes) == 0 {
		return false
	}
	b.layers[slide] = strokes[:len(strokes)-1]
	return true
}
