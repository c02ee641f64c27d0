/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package parser

import "strings"

// Directive is one @key: value line from the start of a slide segment.
type Directive struct {
	Name  string
	Value string
}

// ExtractDirectives consumes the run of @key: value lines at the very
// start of a slide segment. Directives apply only to the slide they
// precede. Blank lines before and between directives are tolerated; the
// first non-directive line ends the run.
func ExtractDirectives(raw string) ([]Directive, string) {
	var directives []Directive
	var remaining []string
	past := false

	for _, line := range strings.Split(raw, "\n") {
		if !past {
			trimmed := strings.TrimSpace(line)
			if trimmed == "" {
				continue
			}
			if d, ok := parseDirectiveLine(trimmed); ok {
				directives = append(directives, d)
				continue
			}
			past = true
		}
		remaining = append(remaining, line)
	}
	return directives, strings.Join(remaining, "\n")
}

func parseDirectiveLine(line string) (Directive, bool) {
	if !strings.HasPrefix(line, "@") {
		return Directive{}, false
	}
	name, value, found := strings.Cut(line[1:], ":")
	if !found {
		return Directive{}, false
	}
	name = strings.TrimSpace(name)
	if name == "" || !isDirectiveName(name) {
		return Directive{}, false
	}
	return Directive{Name: name, Value: strings.TrimSpace(value)}, true
}

func isDirectiveLine(line string) bool {
	_, ok := parseDirectiveLine(line)
	return ok
}

func isDirectiveName(name string) bool {
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
		default:
			return false
		}
	}
	return true
}
