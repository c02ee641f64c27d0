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
	"unicode/utf8"

	"github.com/mklab-se/mdeck/internal/domain"
)

// LayoutKind is the closed set of visual arrangement strategies.
type LayoutKind int

const (
	LayoutTitle LayoutKind = iota
	LayoutSection
	LayoutDiagram
	LayoutTable
	LayoutCode
	LayoutTwoColumn
	LayoutQuote
	LayoutImage
	LayoutBulletShort
	LayoutBulletLong
	LayoutContent
)

func (k LayoutKind) String() string {
	switch k {
	case LayoutTitle:
		return "title"
	case LayoutSection:
		return "section"
	case LayoutDiagram:
		return "diagram"
	case LayoutTable:
		return "table"
	case LayoutCode:
		return "code"
	case LayoutTwoColumn:
		return "two-column"
	case LayoutQuote:
		return "quote"
	case LayoutImage:
		return "image"
	case LayoutBulletShort:
		return "bullet-short"
	case LayoutBulletLong:
		return "bullet-long"
	default:
		return "content"
	}
}

// LayoutError reports a slide whose column-break markers cannot form a
// valid two-column split. The slide falls back to the content layout.
type LayoutError struct {
	Slide  int
	Breaks int
}

func (e *LayoutError) Error() string {
	return fmt.Sprintf("slide %d: %d column breaks, expected exactly one", e.Slide+1, e.Breaks)
}

// Bullet slides with at most this many items, each at most
// shortBulletRunes runes of plain text, use the short variant.
const (
	shortBulletItems = 4
	shortBulletRunes = 60
)

// Classify selects a layout for the slide at the given index. An
// explicit @layout directive wins; otherwise an ordered precedence list
// over the block sequence applies, first match wins. The error is
// non-nil only for the column-break invariant violation, and the
// returned kind is still usable (content fallback).
func Classify(slide domain.Slide, index int) (LayoutKind, error) {
	if k, ok := layoutFromHint(slide.LayoutHint); ok {
		if k == LayoutTwoColumn && countBreaks(slide.Blocks) != 1 {
			return LayoutContent, &LayoutError{Slide: index, Breaks: countBreaks(slide.Blocks)}
		}
		if k == LayoutBulletShort && !isShortBullet(slide.Blocks) {
			return LayoutBulletLong, nil
		}
		return k, nil
	}

	headings := 0
	var others []domain.Block
	for _, blk := range slide.Blocks {
		if blk.Kind == domain.KindHeading {
			headings++
		} else {
			others = append(others, blk)
		}
	}

	// 1. Heading-only slide.
	if headings == 1 && len(others) == 0 {
		if index == 0 {
			return LayoutTitle, nil
		}
		return LayoutSection, nil
	}

	// 2-4. A single dominant block, alone or under a heading.
	if len(others) == 1 {
		switch others[0].Kind {
		case domain.KindDiagram:
			return LayoutDiagram, nil
		case domain.KindTable:
			return LayoutTable, nil
		case domain.KindCodeBlock:
			return LayoutCode, nil
		}
	}

	// 5. Column break splits into two panes.
	if n := countBreaks(slide.Blocks); n == 1 {
		return LayoutTwoColumn, nil
	} else if n > 1 {
		return LayoutContent, &LayoutError{Slide: index, Breaks: n}
	}

	// 6-7. Sole non-heading block variants.
	if len(others) == 1 {
		switch others[0].Kind {
		case domain.KindBlockquote:
			return LayoutQuote, nil
		case domain.KindImage:
			if others[0].Sizing.Kind == domain.SizeFill {
				return LayoutImage, nil
			}
		}
	}

	// 8. Pure list slides.
	if len(others) > 0 && allLists(others) {
		if isShortBullet(others) {
			return LayoutBulletShort, nil
		}
		return LayoutBulletLong, nil
	}

	// 9. Everything else stacks vertically.
	return LayoutContent, nil
}

func layoutFromHint(hint string) (LayoutKind, bool) {
	switch hint {
	case "title":
		return LayoutTitle, true
	case "section":
		return LayoutSection, true
	case "diagram":
		return LayoutDiagram, true
	case "table":
		return LayoutTable, true
	case "code":
		return LayoutCode, true
	case "two-column":
		return LayoutTwoColumn, true
	case "quote":
		return LayoutQuote, true
	case "image":
		return LayoutImage, true
	case "bullet":
		return LayoutBulletShort, true
	case "content":
		return LayoutContent, true
	default:
		return LayoutContent, false
	}
}

func countBreaks(blocks []domain.Block) int {
	n := 0
	for _, blk := range blocks {
		if blk.Kind == domain.KindColumnBreak {
			n++
		}
	}
	return n
}

func allLists(blocks []domain.Block) bool {
	for _, blk := range blocks {
		if blk.Kind != domain.KindList {
			return false
		}
	}
	return true
}

func isShortBullet(blocks []domain.Block) bool {
	total := 0
	for _, blk := range blocks {
		var walk func(items []domain.ListItem) bool
		walk = func(items []domain.ListItem) bool {
			for _, item := range items {
				total++
				if utf8.RuneCountInString(domain.PlainText(item.Inlines)) > shortBulletRunes {
					return false
				}
				if !walk(item.Children) {
					return false
				}
			}
			return true
		}
		if !walk(blk.Items) {
			return false
		}
	}
	return total <= shortBulletItems
}

// SplitColumns partitions a slide's blocks at its single column break.
// Leading level-1/2 headings before any pane content go into the shared
// heading slice. Concatenating heading, left and right reproduces the
// original sequence minus the marker.
func SplitColumns(blocks []domain.Block) (heading, left, right []domain.Block) {
	inRight := false
	for _, blk := range blocks {
		if blk.Kind == domain.KindColumnBreak {
			inRight = true
			continue
		}
		if !inRight && len(left) == 0 && blk.Kind == domain.KindHeading && blk.Level <= 2 {
			heading = append(heading, blk)
			continue
		}
		if inRight {
			right = append(right, blk)
		} else {
			left = append(left, blk)
		}
	}
	return heading, left, right
}
