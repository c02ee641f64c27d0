/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package domain defines the core data model for mdeck presentations.
// A Presentation and everything reachable from it is built once by the
// parser and never mutated afterwards; the sole exception is the per-slide
// annotation layer, which lives in internal/annotate and is keyed by slide
// index rather than stored on the Slide itself.
package domain

// Meta holds presentation-level settings extracted from the frontmatter.
type Meta struct {
	Title      string
	Author     string
	Date       string
	Theme      string
	Transition string
	Footer     string
	// Extra retains unrecognized frontmatter keys as opaque metadata.
	Extra map[string]string
}

// Presentation is the immutable result of parsing one deck source file.
type Presentation struct {
	Meta   Meta
	Slides []Slide
}

// Slide is an ordered block sequence plus per-slide directive overrides.
// A slide's identity is its position in Presentation.Slides.
type Slide struct {
	Blocks []Block
	// Overrides from leading @key: value lines; empty string means "inherit".
	Theme      string
	Transition string
	LayoutHint string
	Footer     string
}

// BlockKind discriminates the closed Block variant set.
type BlockKind int

const (
	KindHeading BlockKind = iota
	KindParagraph
	KindList
	KindCodeBlock
	KindTable
	KindBlockquote
	KindImage
	KindDiagram
	KindColumnBreak
	KindThematicBreak
)

// Block is one element of a slide body. Exactly the fields for its Kind
// are populated; all other fields are zero.
type Block struct {
	Kind BlockKind

	// KindHeading
	Level   int
	Inlines []Inline // heading text, paragraph text, quote body

	// KindList
	Items   []ListItem
	Ordered bool

	// KindCodeBlock
	Language       string
	Code           string
	HighlightLines []int

	// KindTable
	Headers []Cell
	Rows    [][]Cell

	// KindBlockquote
	QuoteLines  [][]Inline
	Attribution string

	// KindImage
	Path   string
	Alt    string
	Sizing Sizing

	// KindDiagram
	Graph Graph
	// Raw holds the fence body for fallback rendering when the graph
	// failed validation.
	Raw        string
	DiagramErr error
}

// ListMarker records which marker character introduced a list item.
// All three unordered markers render as plain bullets in a static scene;
// NextStep and WithPrev drive incremental reveal during presentation.
type ListMarker int

const (
	MarkerStatic   ListMarker = iota // "- "
	MarkerNextStep                   // "+ " revealed on its own step
	MarkerWithPrev                   // "* " revealed together with the previous step
	MarkerOrdered                    // "1. "
)

// ListItem is a single list entry with optional nested children.
type ListItem struct {
	Marker   ListMarker
	Inlines  []Inline
	Children []ListItem
}

// Cell is one table cell's inline content.
type Cell []Inline

// InlineKind discriminates the closed Inline variant set.
type InlineKind int

const (
	InlineText InlineKind = iota
	InlineBold
	InlineItalic
	InlineStrike
	InlineCode
	InlineLink
)

// Inline is a styled span of text. Bold/Italic/Strike/Link carry children;
// Text and Code carry literal text. URL is set for links only.
type Inline struct {
	Kind     InlineKind
	Text     string
	URL      string
	Children []Inline
}

// SizingKind selects how an image is fitted into its available area.
type SizingKind int

const (
	// SizeDefault fits the image inside the area preserving aspect ratio.
	SizeDefault SizingKind = iota
	// SizeFill covers the area, cropping as needed.
	SizeFill
	// SizeWidthPercent scales to a percentage of the available width.
	SizeWidthPercent
)

// Sizing is the display-size hint attached to an image reference.
type Sizing struct {
	Kind    SizingKind
	Percent int // 0..100, set for SizeWidthPercent
}

// Graph is a parsed diagram: nodes on a coarse grid plus directed edges.
type Graph struct {
	Nodes []Node
	Edges []Edge
}

// Node is a diagram node. Label is unique within its graph. Col/Row place
// the node on the declared grid; nodes without a pos declaration get
// column = declaration order, row = 0.
type Node struct {
	Label string
	Icon  string
	Col   int
	Row   int
}

// Edge is a directed connection between two declared node labels.
type Edge struct {
	From  string
	To    string
	Label string
}

// PlainText flattens inline spans to their textual content, dropping all
// styling. Used for overview labels and window titles.
func PlainText(inlines []Inline) string {
	var b []byte
	var walk func([]Inline)
	walk = func(spans []Inline) {
		for _, in := range spans {
			switch in.Kind {
			case InlineText, InlineCode:
				b = append(b, in.Text...)
			default:
				walk(in.Children)
			}
		}
	}
	walk(inlines)
	return string(b)
}

// FirstHeading returns the text of the first heading block on the slide,
// or "" when the slide has none.
func (s Slide) FirstHeading() string {
	for _, blk := range s.Blocks {
		if blk.Kind == KindHeading {
			if t := PlainText(blk.Inlines); t != "" {
				return t
			}
		}
	}
	return ""
}

// HasLabel reports whether the graph declares a node with the given label.
func (g Graph) HasLabel(label string) bool {
	for _, n := range g.Nodes {
		if n.Label == label {
			return true
		}
	}
	return false
}
