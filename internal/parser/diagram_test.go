/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package parser

import (
	"errors"
	"testing"

	"github.com/mklab-se/mdeck/internal/domain"
)

func TestParseDiagramNodesAndEdges(t *testing.T) {
	src := "- Client\n- API (icon: server, pos: 1,0)\n- DB (icon: database, pos: 2,1)\n- Client -> API: request\n- API -> DB\n"
	graph, err := ParseDiagram(src)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(graph.Nodes) != 3 {
		t.Fatalf("nodes = %+v", graph.Nodes)
	}
	if graph.Nodes[0].Label != "Client" || graph.Nodes[0].Col != 0 || graph.Nodes[0].Row != 0 {
		t.Fatalf("node 0 = %+v", graph.Nodes[0])
	}
	api := graph.Nodes[1]
	if api.Label != "API" || api.Icon != "server" || api.Col != 1 || api.Row != 0 {
		t.Fatalf("node 1 = %+v", api)
	}
	db := graph.Nodes[2]
	if db.Icon != "database" || db.Col != 2 || db.Row != 1 {
		t.Fatalf("node 2 = %+v", db)
	}
	if len(graph.Edges) != 2 {
		t.Fatalf("edges = %+v", graph.Edges)
	}
	if graph.Edges[0].Label != "request" {
		t.Fatalf("edge 0 = %+v", graph.Edges[0])
	}
	if graph.Edges[1].From != "API" || graph.Edges[1].To != "DB" || graph.Edges[1].Label != "" {
		t.Fatalf("edge 1 = %+v", graph.Edges[1])
	}
}

func TestParseDiagramUndeclaredLabel(t *testing.T) {
	_, err := ParseDiagram("- A\n- A -> B\n- B\n")
	if err == nil {
		t.Fatal("expected error for edge referencing a label declared later")
	}
	var derr *DiagramError
	if !errors.As(err, &derr) {
		t.Fatalf("error type = %T", err)
	}
	if derr.Label != "B" {
		t.Fatalf("label = %q", derr.Label)
	}
}

func TestParseDiagramDefaultPlacement(t *testing.T) {
	graph, err := ParseDiagram("- One\n- Two\n- Three\n")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	for i, n := range graph.Nodes {
		if n.Col != i || n.Row != 0 {
			t.Fatalf("node %d placed at %d,%d", i, n.Col, n.Row)
		}
	}
}

func TestParseDiagramFenceFallback(t *testing.T) {
	src := "```@diagram\n- A -> B\n```\n"
	blocks := ParseBlocks(src)
	if len(blocks) != 1 || blocks[0].Kind != domain.KindDiagram {
		t.Fatalf("blocks = %+v", blocks)
	}
	blk := blocks[0]
	if blk.DiagramErr == nil {
		t.Fatal("expected a diagram error")
	}
	if blk.Raw != "- A -> B" {
		t.Fatalf("raw = %q", blk.Raw)
	}
	if len(blk.Graph.Nodes) != 0 || len(blk.Graph.Edges) != 0 {
		t.Fatalf("graph must be empty on fallback: %+v", blk.Graph)
	}
}

func TestParseDiagramNamedNode(t *testing.T) {
	graph, err := ParseDiagram("- DB: the primary store\n- Cache\n- Cache -> DB\n")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if !graph.HasLabel("DB") {
		t.Fatalf("nodes = %+v", graph.Nodes)
	}
}
