/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package parser

import (
	"strings"
	"testing"
)

func TestExtractFrontmatterYAML(t *testing.T) {
	src := "---\ntitle: Go in Production\nauthor: Jane Doe\ndate: \"2025-03-01\"\n\"@theme\": dark\ncustom: something\n---\n# First Slide\n"
	meta, body, errs := ExtractFrontmatter(src)
	if len(errs) != 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
	if meta.Title != "Go in Production" {
		t.Fatalf("title = %q", meta.Title)
	}
	if meta.Author != "Jane Doe" {
		t.Fatalf("author = %q", meta.Author)
	}
	if meta.Date != "2025-03-01" {
		t.Fatalf("date = %q", meta.Date)
	}
	if meta.Theme != "dark" {
		t.Fatalf("theme = %q", meta.Theme)
	}
	if meta.Extra["custom"] != "something" {
		t.Fatalf("extra = %v", meta.Extra)
	}
	if !strings.HasPrefix(body, "# First Slide") {
		t.Fatalf("body = %q", body)
	}
}

func TestExtractFrontmatterAbsent(t *testing.T) {
	src := "# Just a Slide\ncontent\n"
	meta, body, errs := ExtractFrontmatter(src)
	if meta.Title != "" || len(errs) != 0 {
		t.Fatalf("expected empty meta, got %+v / %v", meta, errs)
	}
	if body != src {
		t.Fatalf("body altered: %q", body)
	}
}

func TestExtractFrontmatterUnclosed(t *testing.T) {
	src := "---\ntitle: Broken\n# Slide\n"
	meta, body, _ := ExtractFrontmatter(src)
	if meta.Title != "" {
		t.Fatalf("unclosed delimiter must not yield meta, got %+v", meta)
	}
	if body != src {
		t.Fatalf("body altered: %q", body)
	}
}

func TestExtractFrontmatterManualFallback(t *testing.T) {
	// The stray tab after the colon breaks strict YAML; the fallback scan
	// must still recover well-formed lines and report the bad one.
	src := "---\ntitle: a: b: c\n\t:\nauthor: Bob\n---\nbody\n"
	meta, body, errs := ExtractFrontmatter(src)
	if meta.Author != "Bob" {
		t.Fatalf("author = %q", meta.Author)
	}
	if meta.Title != "a: b: c" {
		t.Fatalf("title = %q", meta.Title)
	}
	if len(errs) != 1 {
		t.Fatalf("expected one parse error, got %v", errs)
	}
	if errs[0].Line != 3 {
		t.Fatalf("error line = %d", errs[0].Line)
	}
	if strings.TrimSpace(body) != "body" {
		t.Fatalf("body = %q", body)
	}
}

func TestExtractFrontmatterCRLF(t *testing.T) {
	src := "---\r\ntitle: Windows Deck\r\n---\r\nbody\r\n"
	meta, _, errs := ExtractFrontmatter(src)
	if len(errs) != 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
	if meta.Title != "Windows Deck" {
		t.Fatalf("title = %q", meta.Title)
	}
}
