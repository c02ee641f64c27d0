/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package parser

import (
	"strconv"
	"strings"

	"github.com/mklab-se/mdeck/internal/domain"
)

// ParseBlocks parses one slide segment's content (directives already
// removed) into an ordered block sequence.
func ParseBlocks(content string) []domain.Block {
	var blocks []domain.Block
	lines := strings.Split(content, "\n")
	i := 0

	for i < len(lines) {
		trimmed := strings.TrimSpace(lines[i])

		switch {
		case trimmed == "":
			i++
		case trimmed == "+++":
			blocks = append(blocks, domain.Block{Kind: domain.KindColumnBreak})
			i++
		case isThematicBreak(trimmed):
			blocks = append(blocks, domain.Block{Kind: domain.KindThematicBreak})
			i++
		case isHeading(trimmed):
			blocks = append(blocks, parseHeading(trimmed))
			i++
		case strings.HasPrefix(trimmed, "```") || strings.HasPrefix(trimmed, "~~~"):
			blk, end := parseFence(lines, i)
			blocks = append(blocks, blk)
			i = end
		case strings.HasPrefix(trimmed, "!["):
			if img, ok := parseImage(trimmed); ok {
				blocks = append(blocks, img)
				i++
			} else {
				blk, end := parseParagraph(lines, i)
				blocks = append(blocks, blk)
				i = end
			}
		case strings.HasPrefix(trimmed, "> ") || trimmed == ">":
			blk, end := parseBlockquote(lines, i)
			blocks = append(blocks, blk)
			i = end
		case strings.HasPrefix(trimmed, "|") && strings.HasSuffix(trimmed, "|"):
			blk, ok, end := parseTable(lines, i)
			if ok {
				blocks = append(blocks, blk)
				i = end
			} else {
				blk, end = parseParagraph(lines, i)
				blocks = append(blocks, blk)
				i = end
			}
		case isListStart(trimmed):
			blk, end := parseList(lines, i, false)
			blocks = append(blocks, blk)
			i = end
		case isOrderedListStart(trimmed):
			blk, end := parseList(lines, i, true)
			blocks = append(blocks, blk)
			i = end
		default:
			blk, end := parseParagraph(lines, i)
			blocks = append(blocks, blk)
			i = end
		}
	}
	return blocks
}

// isThematicBreak matches *** and ___ style rules. Dash rules are the
// slide separator and never reach the block parser mid-segment intact,
// so they are not recognized here.
func isThematicBreak(line string) bool {
	compact := strings.Map(func(r rune) rune {
		if r == ' ' || r == '\t' {
			return -1
		}
		return r
	}, line)
	if len(compact) < 3 {
		return false
	}
	first := compact[0]
	if first != '*' && first != '_' {
		return false
	}
	for i := 0; i < len(compact); i++ {
		if compact[i] != first {
			return false
		}
	}
	return true
}

func isHeading(line string) bool {
	level := leadingRun(line, '#')
	if level == 0 || level > 6 {
		return false
	}
	rest := line[level:]
	return rest == "" || strings.HasPrefix(rest, " ")
}

func parseHeading(line string) domain.Block {
	level := leadingRun(line, '#')
	text := strings.TrimSpace(line[level:])
	return domain.Block{Kind: domain.KindHeading, Level: level, Inlines: ParseInlines(text)}
}

// parseFence consumes a fenced block opened at lines[start]. A fence
// whose info string is the reserved "@diagram" tag is parsed as a
// diagram; anything else is a literal code block.
func parseFence(lines []string, start int) (domain.Block, int) {
	opening := strings.TrimSpace(lines[start])
	fenceChar := opening[0]
	fenceLen := leadingRun(opening, fenceChar)
	info := strings.TrimSpace(opening[fenceLen:])

	var body []string
	i := start + 1
	for i < len(lines) {
		trimmed := strings.TrimSpace(lines[i])
		if closesFence(trimmed, fenceChar, fenceLen) {
			i++
			break
		}
		body = append(body, lines[i])
		i++
	}
	raw := strings.Join(body, "\n")

	if strings.HasPrefix(info, "@diagram") {
		return parseDiagramBlock(raw), i
	}

	language, highlights := parseCodeInfo(info)
	return domain.Block{
		Kind:           domain.KindCodeBlock,
		Language:       language,
		Code:           raw,
		HighlightLines: highlights,
	}, i
}

// parseCodeInfo splits a fence info string into a language tag and an
// optional {1,3-5} highlight spec.
func parseCodeInfo(info string) (string, []int) {
	if info == "" {
		return "", nil
	}
	if brace := strings.IndexByte(info, '{'); brace >= 0 {
		lang := strings.TrimSpace(info[:brace])
		rest := info[brace:]
		if end := strings.IndexByte(rest, '}'); end > 0 {
			return lang, parseHighlightSpec(rest[1:end])
		}
		return lang, nil
	}
	fields := strings.Fields(info)
	if len(fields) == 0 {
		return "", nil
	}
	return fields[0], nil
}

func parseHighlightSpec(spec string) []int {
	var out []int
	for _, part := range strings.Split(spec, ",") {
		part = strings.TrimSpace(part)
		if from, to, found := strings.Cut(part, "-"); found {
			a, errA := strconv.Atoi(strings.TrimSpace(from))
			b, errB := strconv.Atoi(strings.TrimSpace(to))
			if errA == nil && errB == nil {
				for n := a; n <= b; n++ {
					out = append(out, n)
				}
			}
			continue
		}
		if n, err := strconv.Atoi(part); err == nil {
			out = append(out, n)
		}
	}
	return out
}

// parseImage parses ![alt @directive](path). Sizing directives live in
// the alt text as @fill or @width:N%; anything else prefixed with @ is
// ignored and stripped from the alt.
func parseImage(line string) (domain.Block, bool) {
	closeBracket := strings.Index(line, "](")
	if closeBracket < 0 {
		return domain.Block{}, false
	}
	altFull := line[2:closeBracket]
	rest := line[closeBracket+2:]
	parenEnd := strings.IndexByte(rest, ')')
	if parenEnd < 0 {
		return domain.Block{}, false
	}
	path := rest[:parenEnd]

	sizing := domain.Sizing{Kind: domain.SizeDefault}
	var altParts []string
	for _, word := range strings.Fields(altFull) {
		directive, ok := strings.CutPrefix(word, "@")
		if !ok {
			altParts = append(altParts, word)
			continue
		}
		switch {
		case directive == "fill":
			sizing = domain.Sizing{Kind: domain.SizeFill}
		case strings.HasPrefix(directive, "width:"):
			if pct, ok := parseWidthPercent(strings.TrimPrefix(directive, "width:")); ok {
				sizing = domain.Sizing{Kind: domain.SizeWidthPercent, Percent: pct}
			}
		}
	}

	return domain.Block{
		Kind:   domain.KindImage,
		Path:   path,
		Alt:    strings.Join(altParts, " "),
		Sizing: sizing,
	}, true
}

func parseWidthPercent(s string) (int, bool) {
	s = strings.TrimSuffix(strings.TrimSpace(s), "%")
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 || n > 100 {
		return 0, false
	}
	return n, true
}

// parseBlockquote consumes consecutive "> " lines. A trailing quote line
// beginning with an attribution marker ("— " or "-- ") is captured as
// the attribution rather than quote body.
func parseBlockquote(lines []string, start int) (domain.Block, int) {
	var quoted []string
	i := start
	for i < len(lines) {
		trimmed := strings.TrimSpace(lines[i])
		if rest, ok := strings.CutPrefix(trimmed, "> "); ok {
			quoted = append(quoted, rest)
			i++
		} else if trimmed == ">" {
			quoted = append(quoted, "")
			i++
		} else {
			break
		}
	}

	attribution := ""
	if n := len(quoted); n > 0 {
		last := strings.TrimSpace(quoted[n-1])
		if rest, ok := cutAttribution(last); ok {
			attribution = rest
			quoted = quoted[:n-1]
		}
	}

	blk := domain.Block{Kind: domain.KindBlockquote, Attribution: attribution}
	for _, q := range quoted {
		if strings.TrimSpace(q) == "" {
			continue
		}
		blk.QuoteLines = append(blk.QuoteLines, ParseInlines(q))
	}
	return blk, i
}

func cutAttribution(line string) (string, bool) {
	if rest, ok := strings.CutPrefix(line, "— "); ok {
		return strings.TrimSpace(rest), true
	}
	if rest, ok := strings.CutPrefix(line, "-- "); ok {
		return strings.TrimSpace(rest), true
	}
	return "", false
}

// parseTable consumes consecutive |...| rows. The second row must be the
// header delimiter; without it the candidate lines are not a table.
func parseTable(lines []string, start int) (domain.Block, bool, int) {
	var rows []string
	i := start
	for i < len(lines) {
		trimmed := strings.TrimSpace(lines[i])
		if strings.HasPrefix(trimmed, "|") {
			rows = append(rows, trimmed)
			i++
		} else if trimmed == "" {
			i++
			break
		} else {
			break
		}
	}
	if len(rows) < 2 || !isDelimiterRow(rows[1]) {
		return domain.Block{}, false, i
	}

	blk := domain.Block{Kind: domain.KindTable, Headers: parseTableRow(rows[0])}
	for _, row := range rows[2:] {
		blk.Rows = append(blk.Rows, parseTableRow(row))
	}
	return blk, true, i
}

func isDelimiterRow(row string) bool {
	row = strings.Trim(strings.TrimSpace(row), "|")
	for _, cell := range strings.Split(row, "|") {
		cell = strings.TrimSpace(cell)
		if cell == "" {
			return false
		}
		cell = strings.TrimPrefix(cell, ":")
		cell = strings.TrimSuffix(cell, ":")
		if cell == "" || strings.Trim(cell, "-") != "" {
			return false
		}
	}
	return true
}

func parseTableRow(row string) []domain.Cell {
	row = strings.Trim(strings.TrimSpace(row), "|")
	var cells []domain.Cell
	for _, cell := range strings.Split(row, "|") {
		cells = append(cells, ParseInlines(strings.TrimSpace(cell)))
	}
	return cells
}

func isListStart(line string) bool {
	if len(line) < 2 {
		return false
	}
	switch line[0] {
	case '-', '+', '*':
		return line[1] == ' '
	}
	return false
}

func isOrderedListStart(line string) bool {
	dot := strings.Index(line, ". ")
	if dot <= 0 {
		return false
	}
	for i := 0; i < dot; i++ {
		if line[i] < '0' || line[i] > '9' {
			return false
		}
	}
	return true
}

func parseList(lines []string, start int, ordered bool) (domain.Block, int) {
	var items []domain.ListItem
	i := start

	for i < len(lines) {
		line := lines[i]
		trimmed := strings.TrimSpace(line)

		if trimmed == "" {
			// A blank gap only ends the list if no list item follows.
			j := i + 1
			for j < len(lines) && strings.TrimSpace(lines[j]) == "" {
				j++
			}
			if j < len(lines) {
				next := strings.TrimSpace(lines[j])
				if isListStart(next) || isOrderedListStart(next) {
					i = j
					continue
				}
			}
			break
		}

		if lineIndent(line) > 0 {
			// Nested item outside collectChildren; attach to the last item.
			if item, ok := anyListItem(trimmed); ok && len(items) > 0 {
				items[len(items)-1].Children = append(items[len(items)-1].Children, item)
				i++
				continue
			}
			break
		}

		var item domain.ListItem
		var ok bool
		if ordered {
			item, ok = orderedListItem(trimmed)
		} else {
			item, ok = unorderedListItem(trimmed)
		}
		if !ok {
			break
		}
		items = append(items, item)
		i++

		children, next := collectChildren(lines, i, 0)
		items[len(items)-1].Children = children
		i = next
	}

	return domain.Block{Kind: domain.KindList, Ordered: ordered, Items: items}, i
}

func collectChildren(lines []string, start, parentIndent int) ([]domain.ListItem, int) {
	var children []domain.ListItem
	i := start

	for i < len(lines) {
		line := lines[i]
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			i++
			continue
		}
		indent := lineIndent(line)
		if indent <= parentIndent {
			break
		}
		item, ok := anyListItem(trimmed)
		if !ok {
			break
		}
		children = append(children, item)
		i++
		sub, next := collectChildren(lines, i, indent)
		children[len(children)-1].Children = sub
		i = next
	}
	return children, i
}

func unorderedListItem(line string) (domain.ListItem, bool) {
	if !isListStart(line) {
		return domain.ListItem{}, false
	}
	var marker domain.ListMarker
	switch line[0] {
	case '-':
		marker = domain.MarkerStatic
	case '+':
		marker = domain.MarkerNextStep
	case '*':
		marker = domain.MarkerWithPrev
	}
	return domain.ListItem{Marker: marker, Inlines: ParseInlines(line[2:])}, true
}

func orderedListItem(line string) (domain.ListItem, bool) {
	if !isOrderedListStart(line) {
		return domain.ListItem{}, false
	}
	dot := strings.Index(line, ". ")
	return domain.ListItem{Marker: domain.MarkerOrdered, Inlines: ParseInlines(line[dot+2:])}, true
}

func anyListItem(line string) (domain.ListItem, bool) {
	if item, ok := unorderedListItem(line); ok {
		return item, true
	}
	return orderedListItem(line)
}

func lineIndent(line string) int {
	return len(line) - len(strings.TrimLeft(line, " \t"))
}

// parseParagraph collects consecutive plain lines into one paragraph,
// joining them with single spaces.
func parseParagraph(lines []string, start int) (domain.Block, int) {
	var parts []string
	i := start
	for i < len(lines) {
		trimmed := strings.TrimSpace(lines[i])
		if i > start && (trimmed == "" ||
			strings.HasPrefix(trimmed, "#") ||
			strings.HasPrefix(trimmed, "```") ||
			strings.HasPrefix(trimmed, "~~~") ||
			strings.HasPrefix(trimmed, "![") ||
			strings.HasPrefix(trimmed, "> ") ||
			trimmed == ">" ||
			trimmed == "+++" ||
			isThematicBreak(trimmed) ||
			(strings.HasPrefix(trimmed, "|") && strings.HasSuffix(trimmed, "|")) ||
			isListStart(trimmed) ||
			isOrderedListStart(trimmed)) {
			break
		}
		if trimmed == "" {
			break
		}
		parts = append(parts, trimmed)
		i++
	}
	text := strings.Join(parts, " ")
	return domain.Block{Kind: domain.KindParagraph, Inlines: ParseInlines(text)}, i
}
