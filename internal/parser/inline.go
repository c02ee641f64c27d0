/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package parser

import "github.com/mklab-se/mdeck/internal/domain"

// ParseInlines parses a run of text into inline spans: **bold**,
// *italic*, ~~strikethrough~~, `code`, [text](url) and plain text.
// Styled spans nest recursively; unterminated delimiters fall through
// as literal text.
func ParseInlines(text string) []domain.Inline {
	var result []domain.Inline
	runes := []rune(text)
	var current []rune

	flush := func() {
		if len(current) > 0 {
			result = append(result, domain.Inline{Kind: domain.InlineText, Text: string(current)})
			current = current[:0]
		}
	}

	i := 0
	for i < len(runes) {
		switch {
		case runes[i] == '`':
			if code, end, ok := parseInlineCode(runes, i); ok {
				flush()
				result = append(result, domain.Inline{Kind: domain.InlineCode, Text: code})
				i = end
				continue
			}
		case runes[i] == '*' && peek(runes, i+1) == '*':
			if inner, end, ok := parseDelimited(runes, i, 2); ok {
				flush()
				result = append(result, domain.Inline{Kind: domain.InlineBold, Children: ParseInlines(inner)})
				i = end
				continue
			}
		case runes[i] == '~' && peek(runes, i+1) == '~':
			if inner, end, ok := parseDelimited(runes, i, 2); ok {
				flush()
				result = append(result, domain.Inline{Kind: domain.InlineStrike, Children: ParseInlines(inner)})
				i = end
				continue
			}
		case runes[i] == '*':
			if inner, end, ok := parseDelimited(runes, i, 1); ok {
				flush()
				result = append(result, domain.Inline{Kind: domain.InlineItalic, Children: ParseInlines(inner)})
				i = end
				continue
			}
		case runes[i] == '[':
			if link, end, ok := parseLink(runes, i); ok {
				flush()
				result = append(result, link)
				i = end
				continue
			}
		}
		current = append(current, runes[i])
		i++
	}
	flush()
	return result
}

func peek(runes []rune, i int) rune {
	if i >= 0 && i < len(runes) {
		return runes[i]
	}
	return 0
}

func parseInlineCode(runes []rune, start int) (string, int, bool) {
	for i := start + 1; i < len(runes); i++ {
		if runes[i] == '`' {
			return string(runes[start+1 : i]), i + 1, true
		}
	}
	return "", 0, false
}

// parseDelimited matches a symmetric delimiter of the given width using
// the rune at start. Backtick spans inside the content are skipped so a
// closing marker inside inline code does not terminate the span.
func parseDelimited(runes []rune, start, width int) (string, int, bool) {
	marker := runes[start]
	for j := 1; j < width; j++ {
		if peek(runes, start+j) != marker {
			return "", 0, false
		}
	}
	i := start + width
	contentStart := i
	inCode := false
	for i < len(runes) {
		if !inCode && runes[i] == marker && i > contentStart {
			match := true
			for j := 1; j < width; j++ {
				if peek(runes, i+j) != marker {
					match = false
					break
				}
			}
			// Prefer the rightmost closer in a longer marker run so that
			// "**bold *nested***" keeps the inner span intact.
			if match && peek(runes, i+width) != marker {
				return string(runes[contentStart:i]), i + width, true
			}
		}
		if runes[i] == '`' {
			inCode = !inCode
		}
		i++
	}
	return "", 0, false
}

func parseLink(runes []rune, start int) (domain.Inline, int, bool) {
	i := start + 1
	depth := 1
	textStart := i
	for i < len(runes) && depth > 0 {
		switch runes[i] {
		case '[':
			depth++
		case ']':
			depth--
		}
		if depth == 0 {
			break
		}
		i++
	}
	if i >= len(runes) || runes[i] != ']' {
		return domain.Inline{}, 0, false
	}
	text := string(runes[textStart:i])
	i++
	if i >= len(runes) || runes[i] != '(' {
		return domain.Inline{}, 0, false
	}
	i++
	urlStart := i
	depth = 1
	for i < len(runes) && depth > 0 {
		switch runes[i] {
		case '(':
			depth++
		case ')':
			depth--
		}
		if depth == 0 {
			break
		}
		i++
	}
	if i >= len(runes) || runes[i] != ')' {
		return domain.Inline{}, 0, false
	}
	url := string(runes[urlStart:i])
	return domain.Inline{Kind: domain.InlineLink, URL: url, Children: ParseInlines(text)}, i + 1, true
}
