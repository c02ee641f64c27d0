/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package render

import (
	"errors"
	"strings"
	"testing"

	"github.com/mklab-se/mdeck/internal/domain"
)

func heading(level int, text string) domain.Block {
	return domain.Block{Kind: domain.KindHeading, Level: level, Inlines: txt(text)}
}

func para(text string) domain.Block {
	return domain.Block{Kind: domain.KindParagraph, Inlines: txt(text)}
}

func txt(s string) []domain.Inline {
	return []domain.Inline{{Kind: domain.InlineText, Text: s}}
}

func bulletList(texts ...string) domain.Block {
	blk := domain.Block{Kind: domain.KindList}
	for _, t := range texts {
		blk.Items = append(blk.Items, domain.ListItem{Marker: domain.MarkerStatic, Inlines: txt(t)})
	}
	return blk
}

func TestClassifyPrecedence(t *testing.T) {
	colBreak := domain.Block{Kind: domain.KindColumnBreak}
	diagram := domain.Block{Kind: domain.KindDiagram, Graph: domain.Graph{Nodes: []domain.Node{{Label: "a"}}}}
	table := domain.Block{Kind: domain.KindTable, Headers: []domain.Cell{txt("h")}}
	code := domain.Block{Kind: domain.KindCodeBlock, Code: "x := 1"}
	quote := domain.Block{Kind: domain.KindBlockquote, QuoteLines: [][]domain.Inline{txt("wise words")}}
	fillImage := domain.Block{Kind: domain.KindImage, Path: "bg.png", Sizing: domain.Sizing{Kind: domain.SizeFill}}
	plainImage := domain.Block{Kind: domain.KindImage, Path: "fig.png"}

	cases := []struct {
		name   string
		blocks []domain.Block
		index  int
		want   LayoutKind
	}{
		{"heading only first slide", []domain.Block{heading(1, "Welcome")}, 0, LayoutTitle},
		{"heading only later slide", []domain.Block{heading(1, "Part Two")}, 3, LayoutSection},
		{"lone diagram", []domain.Block{heading(2, "Flow"), diagram}, 1, LayoutDiagram},
		{"lone table", []domain.Block{table}, 1, LayoutTable},
		{"lone code", []domain.Block{heading(2, "Example"), code}, 1, LayoutCode},
		{"one column break", []domain.Block{heading(1, "Compare"), para("left"), colBreak, para("right")}, 1, LayoutTwoColumn},
		{"sole blockquote", []domain.Block{heading(2, "Said"), quote}, 1, LayoutQuote},
		{"sole fill image", []domain.Block{heading(2, "Cover"), fillImage}, 1, LayoutImage},
		{"non-fill image is content", []domain.Block{heading(2, "Figure"), plainImage}, 1, LayoutContent},
		{"short bullets", []domain.Block{heading(2, "Agenda"), bulletList("one", "two", "three")}, 1, LayoutBulletShort},
		{"too many bullets", []domain.Block{bulletList("a", "b", "c", "d", "e")}, 1, LayoutBulletLong},
		{"mixed blocks fall back", []domain.Block{heading(2, "Mix"), para("intro"), bulletList("a")}, 1, LayoutContent},
		{"diagram without heading", []domain.Block{diagram}, 1, LayoutDiagram},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := Classify(domain.Slide{Blocks: tc.blocks}, tc.index)
			if err != nil {
				t.Fatalf("Classify error: %v", err)
			}
			if got != tc.want {
				t.Fatalf("got %v, want %v", got, tc.want)
			}
		})
	}
}

func TestClassifyLongBulletText(t *testing.T) {
	long := strings.Repeat("word ", 15) // 75 runes
	got, err := Classify(domain.Slide{Blocks: []domain.Block{bulletList("short", long)}}, 1)
	if err != nil {
		t.Fatalf("Classify error: %v", err)
	}
	if got != LayoutBulletLong {
		t.Fatalf("got %v, want bullet-long", got)
	}
}

func TestClassifyNestedItemsCountTowardThreshold(t *testing.T) {
	blk := bulletList("a", "b", "c")
	blk.Items[0].Children = []domain.ListItem{
		{Marker: domain.MarkerStatic, Inlines: txt("a1")},
		{Marker: domain.MarkerStatic, Inlines: txt("a2")},
	}
	got, err := Classify(domain.Slide{Blocks: []domain.Block{blk}}, 1)
	if err != nil {
		t.Fatalf("Classify error: %v", err)
	}
	if got != LayoutBulletLong {
		t.Fatalf("5 items total should be bullet-long, got %v", got)
	}
}

func TestClassifyMultipleColumnBreaks(t *testing.T) {
	colBreak := domain.Block{Kind: domain.KindColumnBreak}
	slide := domain.Slide{Blocks: []domain.Block{para("a"), colBreak, para("b"), colBreak, para("c")}}

	got, err := Classify(slide, 4)
	if got != LayoutContent {
		t.Fatalf("got %v, want content fallback", got)
	}
	var lerr *LayoutError
	if !errors.As(err, &lerr) {
		t.Fatalf("want *LayoutError, got %v", err)
	}
	if lerr.Slide != 4 || lerr.Breaks != 2 {
		t.Fatalf("got slide=%d breaks=%d", lerr.Slide, lerr.Breaks)
	}
}

func TestClassifyLayoutHint(t *testing.T) {
	cases := []struct {
		hint   string
		blocks []domain.Block
		want   LayoutKind
	}{
		{"section", []domain.Block{heading(1, "Intro")}, LayoutSection},
		{"content", []domain.Block{heading(1, "Intro")}, LayoutContent},
		{"bullet", []domain.Block{bulletList("a", "b", "c", "d", "e")}, LayoutBulletLong},
		{"unknown-layout", []domain.Block{heading(1, "Intro")}, LayoutTitle},
	}
	for _, tc := range cases {
		got, err := Classify(domain.Slide{Blocks: tc.blocks, LayoutHint: tc.hint}, 0)
		if err != nil {
			t.Fatalf("hint %q: Classify error: %v", tc.hint, err)
		}
		if got != tc.want {
			t.Fatalf("hint %q: got %v, want %v", tc.hint, got, tc.want)
		}
	}
}

func TestClassifyTwoColumnHintNeedsOneBreak(t *testing.T) {
	slide := domain.Slide{LayoutHint: "two-column", Blocks: []domain.Block{para("no break here")}}
	got, err := Classify(slide, 2)
	if got != LayoutContent {
		t.Fatalf("got %v, want content fallback", got)
	}
	var lerr *LayoutError
	if !errors.As(err, &lerr) {
		t.Fatalf("want *LayoutError, got %v", err)
	}
	if lerr.Breaks != 0 {
		t.Fatalf("got breaks=%d, want 0", lerr.Breaks)
	}
}

func TestSplitColumns(t *testing.T) {
	h := heading(1, "Compare")
	l1, l2 := para("left one"), bulletList("left two")
	r1 := para("right")
	blocks := []domain.Block{h, l1, l2, {Kind: domain.KindColumnBreak}, r1}

	heading, left, right := SplitColumns(blocks)
	if len(heading) != 1 || domain.PlainText(heading[0].Inlines) != "Compare" {
		t.Fatalf("heading = %+v", heading)
	}
	if len(left) != 2 {
		t.Fatalf("left has %d blocks, want 2", len(left))
	}
	if len(right) != 1 || domain.PlainText(right[0].Inlines) != "right" {
		t.Fatalf("right = %+v", right)
	}
}

func TestSplitColumnsHeadingAfterContentStaysInPane(t *testing.T) {
	blocks := []domain.Block{
		para("intro"),
		heading(2, "Left title"),
		{Kind: domain.KindColumnBreak},
		para("right"),
	}
	heading, left, right := SplitColumns(blocks)
	if len(heading) != 0 {
		t.Fatalf("no shared heading expected, got %+v", heading)
	}
	if len(left) != 2 || len(right) != 1 {
		t.Fatalf("left=%d right=%d", len(left), len(right))
	}
}

func TestMaxRevealSteps(t *testing.T) {
	next := func(s string) domain.ListItem {
		return domain.ListItem{Marker: domain.MarkerNextStep, Inlines: txt(s)}
	}
	static := func(s string) domain.ListItem {
		return domain.ListItem{Marker: domain.MarkerStatic, Inlines: txt(s)}
	}
	withPrev := func(s string) domain.ListItem {
		return domain.ListItem{Marker: domain.MarkerWithPrev, Inlines: txt(s)}
	}

	cases := []struct {
		name   string
		blocks []domain.Block
		want   int
	}{
		{"no lists", []domain.Block{para("hello")}, 0},
		{"static only", []domain.Block{{Kind: domain.KindList, Items: []domain.ListItem{static("a"), static("b")}}}, 0},
		{"three steps", []domain.Block{{Kind: domain.KindList, Items: []domain.ListItem{next("a"), next("b"), next("c")}}}, 3},
		{"with-prev shares a step", []domain.Block{{Kind: domain.KindList, Items: []domain.ListItem{next("a"), withPrev("b"), next("c")}}}, 2},
		{"nested steps counted", []domain.Block{{Kind: domain.KindList, Items: []domain.ListItem{
			{Marker: domain.MarkerNextStep, Inlines: txt("a"), Children: []domain.ListItem{next("a1"), next("a2")}},
		}}}, 3},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := MaxRevealSteps(tc.blocks); got != tc.want {
				t.Fatalf("got %d, want %d", got, tc.want)
			}
		})
	}
}
