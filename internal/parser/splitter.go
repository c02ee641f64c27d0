/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package parser

import "strings"

// Split divides a document body (frontmatter already stripped) into raw
// slide segments, in source order.
//
// Three mechanisms create slide breaks:
//  1. a line of three or more dashes with blank lines on both sides
//  2. three or more consecutive blank lines
//  3. an "# " heading when the current segment already has content
//
// Overlapping separators collapse into a single break, and nothing inside
// a fenced code block ever splits.
func Split(body string) []string {
	const sentinel = "\x00BREAK\x00"

	body = strings.ReplaceAll(body, "\r\n", "\n")
	lines := strings.Split(body, "\n")

	// Pass 1: dash separators surrounded by blanks become sentinels.
	// Fenced regions pass through untouched.
	var out []string
	inFence := false
	var fenceChar byte
	fenceLen := 0
	for i := 0; i < len(lines); i++ {
		trimmed := strings.TrimSpace(lines[i])
		if inFence {
			if closesFence(trimmed, fenceChar, fenceLen) {
				inFence = false
			}
			out = append(out, lines[i])
			continue
		}
		if strings.HasPrefix(trimmed, "```") || strings.HasPrefix(trimmed, "~~~") {
			inFence = true
			fenceChar = trimmed[0]
			fenceLen = leadingRun(trimmed, fenceChar)
			out = append(out, lines[i])
			continue
		}
		if isDashSeparator(trimmed) {
			prevBlank := i == 0 || lastIsBlankOrBreak(out, sentinel)
			nextBlank := i+1 >= len(lines) || strings.TrimSpace(lines[i+1]) == ""
			if prevBlank && nextBlank {
				if len(out) > 0 && strings.TrimSpace(out[len(out)-1]) == "" {
					out = out[:len(out)-1]
				}
				out = append(out, sentinel)
				if i+1 < len(lines) && strings.TrimSpace(lines[i+1]) == "" {
					i++
				}
				continue
			}
		}
		out = append(out, lines[i])
	}

	// Pass 2: runs of three or more blank lines become sentinels.
	var final []string
	blanks := 0
	inFence = false
	for _, line := range out {
		if line == sentinel {
			blanks = 0
			final = append(final, line)
			continue
		}
		trimmed := strings.TrimSpace(line)
		if inFence {
			if closesFence(trimmed, fenceChar, fenceLen) {
				inFence = false
			}
			blanks = 0
			final = append(final, line)
			continue
		}
		if strings.HasPrefix(trimmed, "```") || strings.HasPrefix(trimmed, "~~~") {
			inFence = true
			fenceChar = trimmed[0]
			fenceLen = leadingRun(trimmed, fenceChar)
			blanks = 0
			final = append(final, line)
			continue
		}
		if trimmed == "" {
			blanks++
			switch {
			case blanks < 3:
				final = append(final, line)
			case blanks == 3:
				final = final[:len(final)-2]
				final = append(final, sentinel)
			}
			continue
		}
		blanks = 0
		final = append(final, line)
	}

	var slides []string
	for _, chunk := range strings.Split(strings.Join(final, "\n"), sentinel) {
		chunk = strings.TrimSpace(chunk)
		if chunk == "" {
			continue
		}
		splitByHeading(chunk, &slides)
	}
	return slides
}

// splitByHeading breaks a chunk before each "# " line that follows
// existing non-directive content. Fenced code is left intact.
func splitByHeading(chunk string, slides *[]string) {
	var current []string
	hasContent := false
	inFence := false
	var fenceChar byte
	fenceLen := 0

	flush := func() {
		text := strings.TrimSpace(strings.Join(current, "\n"))
		if text != "" {
			*slides = append(*slides, text)
		}
		current = current[:0]
		hasContent = false
	}

	for _, line := range strings.Split(chunk, "\n") {
		trimmed := strings.TrimSpace(line)

		if inFence {
			if closesFence(trimmed, fenceChar, fenceLen) {
				inFence = false
			}
		} else if strings.HasPrefix(trimmed, "```") || strings.HasPrefix(trimmed, "~~~") {
			inFence = true
			fenceChar = trimmed[0]
			fenceLen = leadingRun(trimmed, fenceChar)
		}

		if !inFence && strings.HasPrefix(line, "# ") && hasContent {
			flush()
		}

		current = append(current, line)
		if trimmed != "" && !isDirectiveLine(trimmed) {
			hasContent = true
		}
	}
	flush()
}

func isDashSeparator(line string) bool {
	if len(line) < 3 {
		return false
	}
	for i := 0; i < len(line); i++ {
		if line[i] != '-' {
			return false
		}
	}
	return true
}

func lastIsBlankOrBreak(out []string, sentinel string) bool {
	if len(out) == 0 {
		return true
	}
	last := out[len(out)-1]
	return last == sentinel || strings.TrimSpace(last) == ""
}

func leadingRun(s string, c byte) int {
	n := 0
	for n < len(s) && s[n] == c {
		n++
	}
	return n
}

func closesFence(trimmed string, fenceChar byte, fenceLen int) bool {
	n := leadingRun(trimmed, fenceChar)
	return n >= fenceLen && strings.TrimSpace(trimmed[n:]) == ""
}
