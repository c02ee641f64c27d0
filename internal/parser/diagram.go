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

// parseDiagramBlock parses the body of a ```@diagram fence. Node lines
// declare labels, optionally with (icon: name, pos: col,row) metadata;
// edge lines connect two labels with " -> " and an optional ": label"
// suffix. Edges may only reference labels declared on earlier lines.
// On a violation the block carries the raw fence body and a
// *DiagramError so callers can fall back to plain-text rendering.
func parseDiagramBlock(raw string) domain.Block {
	graph, err := ParseDiagram(raw)
	blk := domain.Block{Kind: domain.KindDiagram, Graph: graph, Raw: raw}
	if err != nil {
		blk.Graph = domain.Graph{}
		blk.DiagramErr = err
	}
	return blk
}

// ParseDiagram parses diagram source into a Graph. The returned error,
// if any, is a *DiagramError naming the first edge that references a
// label not declared above it.
func ParseDiagram(raw string) (domain.Graph, error) {
	var graph domain.Graph

	for _, line := range strings.Split(raw, "\n") {
		trimmed := strings.TrimSpace(line)
		trimmed = stripListPrefix(trimmed)
		if trimmed == "" {
			continue
		}

		body, meta := splitTrailingParens(trimmed)

		if from, rest, found := strings.Cut(body, " -> "); found {
			edge := domain.Edge{From: strings.TrimSpace(from)}
			if to, label, hasLabel := strings.Cut(rest, ": "); hasLabel {
				edge.To = strings.TrimSpace(to)
				edge.Label = strings.TrimSpace(label)
			} else {
				edge.To = strings.TrimSpace(rest)
			}
			if !graph.HasLabel(edge.From) {
				return domain.Graph{}, &DiagramError{Edge: body, Label: edge.From}
			}
			if !graph.HasLabel(edge.To) {
				return domain.Graph{}, &DiagramError{Edge: body, Label: edge.To}
			}
			graph.Edges = append(graph.Edges, edge)
			continue
		}

		label := strings.TrimSpace(body)
		// "Name: description" declares the node under Name alone.
		if name, _, found := strings.Cut(label, ": "); found {
			label = strings.TrimSpace(name)
		}
		if label == "" || graph.HasLabel(label) {
			continue
		}
		node := domain.Node{Label: label, Col: len(graph.Nodes)}
		applyNodeMeta(&node, meta)
		graph.Nodes = append(graph.Nodes, node)
	}

	return graph, nil
}

func stripListPrefix(line string) string {
	for _, prefix := range []string{"- ", "+ ", "* "} {
		if rest, ok := strings.CutPrefix(line, prefix); ok {
			return strings.TrimSpace(rest)
		}
	}
	return line
}

// splitTrailingParens separates "Label (icon: db, pos: 1,2)" into the
// label and the parenthetical metadata. The paren must be preceded by a
// space; otherwise it is part of the label itself.
func splitTrailingParens(s string) (string, string) {
	s = strings.TrimRight(s, " \t")
	if !strings.HasSuffix(s, ")") {
		return s, ""
	}
	open := strings.LastIndexByte(s, '(')
	if open <= 0 || s[open-1] != ' ' {
		return s, ""
	}
	return strings.TrimRight(s[:open], " \t"), s[open+1 : len(s)-1]
}

// applyNodeMeta applies "icon: name" and "pos: col,row" entries from a
// node's parenthetical metadata. Unknown keys and malformed positions
// are ignored.
func applyNodeMeta(node *domain.Node, meta string) {
	for _, entry := range strings.Split(meta, ",") {
		key, value, found := strings.Cut(entry, ":")
		if !found {
			continue
		}
		key = strings.TrimSpace(key)
		value = strings.TrimSpace(value)
		switch key {
		case "icon":
			node.Icon = value
		case "pos":
			// pos values themselves contain a comma, so the column lands
			// in this entry and the row in the next one. Re-split from
			// the original metadata instead.
			if col, row, ok := parsePos(meta); ok {
				node.Col, node.Row = col, row
			}
		}
	}
}

func parsePos(meta string) (int, int, bool) {
	idx := strings.Index(meta, "pos:")
	if idx < 0 {
		return 0, 0, false
	}
	rest := meta[idx+len("pos:"):]
	colStr, rowStr, found := strings.Cut(rest, ",")
	if !found {
		return 0, 0, false
	}
	// The row may be followed by further metadata entries.
	if next := strings.IndexByte(rowStr, ','); next >= 0 {
		rowStr = rowStr[:next]
	}
	col, errC := strconv.Atoi(strings.TrimSpace(colStr))
	row, errR := strconv.Atoi(strings.TrimSpace(rowStr))
	if errC != nil || errR != nil {
		return 0, 0, false
	}
	return col, row, true
}
