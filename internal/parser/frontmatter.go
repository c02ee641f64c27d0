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

	"gopkg.in/yaml.v3"

	"github.com/mklab-se/mdeck/internal/domain"
)

// ExtractFrontmatter parses the optional leading metadata block delimited
// by "---" lines. It returns the presentation meta, the remaining body
// with the frontmatter stripped, and any recoverable line errors.
//
// The block is first handed to the YAML parser; when that fails (decks in
// the wild contain unquoted colons and the like) a forgiving manual
// key: value scan takes over, skipping malformed lines one at a time.
func ExtractFrontmatter(content string) (domain.Meta, string, []*ParseError) {
	content = strings.TrimPrefix(content, "\uFEFF")
	meta := domain.Meta{Extra: map[string]string{}}

	rest, ok := strings.CutPrefix(content, "---\n")
	if !ok {
		rest, ok = strings.CutPrefix(content, "---\r\n")
	}
	if !ok {
		return meta, content, nil
	}

	lines := strings.Split(rest, "\n")
	closing := -1
	for i, line := range lines {
		if strings.TrimRight(strings.TrimSpace(line), "\r") == "---" {
			closing = i
			break
		}
	}
	if closing < 0 {
		// No closing delimiter: the document has no frontmatter.
		return meta, content, nil
	}

	raw := strings.Join(lines[:closing], "\n")
	body := strings.Join(lines[closing+1:], "\n")

	var m map[string]any
	if err := yaml.Unmarshal([]byte(raw), &m); err == nil && m != nil {
		for k, v := range m {
			assignMeta(&meta, k, yamlString(v))
		}
		return meta, body, nil
	}

	var errs []*ParseError
	for i, line := range lines[:closing] {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		key, value, found := strings.Cut(trimmed, ":")
		if !found || strings.TrimSpace(key) == "" {
			// +2: one for the opening delimiter line, one for 1-based lines.
			errs = append(errs, &ParseError{Line: i + 2, Msg: "malformed frontmatter line: " + trimmed})
			continue
		}
		assignMeta(&meta, strings.TrimSpace(key), strings.Trim(strings.TrimSpace(value), `"`))
	}
	return meta, body, errs
}

func assignMeta(meta *domain.Meta, key, value string) {
	switch key {
	case "title":
		meta.Title = value
	case "author":
		meta.Author = value
	case "date":
		meta.Date = value
	case "@theme":
		meta.Theme = value
	case "@transition":
		meta.Transition = value
	case "@footer":
		meta.Footer = value
	default:
		meta.Extra[key] = value
	}
}

// yamlString renders a decoded YAML scalar back to a string. Dates in
// particular decode to time values and still need a textual form.
func yamlString(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case nil:
		return ""
	default:
		b, err := yaml.Marshal(v)
		if err != nil {
			return ""
		}
		return strings.TrimSpace(string(b))
	}
}
