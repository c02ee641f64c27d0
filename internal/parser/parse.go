/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package parser turns markdown deck source into the immutable
// presentation model. Parsing is deterministic and does no I/O; image
// paths and theme names pass through unresolved.
package parser

import (
	"github.com/mklab-se/mdeck/internal/domain"
	"github.com/mklab-se/mdeck/internal/log"
)

// Parse parses a complete deck source document. Recoverable problems
// (malformed frontmatter lines, invalid diagrams) are reported through
// the ParseError slice and block-local fallbacks; the only fatal error
// is ErrNoSlides.
func Parse(content string) (domain.Presentation, []*ParseError, error) {
	meta, body, perrs := ExtractFrontmatter(content)

	segments := Split(body)
	if len(segments) == 0 {
		return domain.Presentation{}, perrs, ErrNoSlides
	}

	pres := domain.Presentation{Meta: meta}
	for _, segment := range segments {
		directives, rest := ExtractDirectives(segment)
		slide := domain.Slide{Blocks: ParseBlocks(rest)}
		for _, d := range directives {
			switch d.Name {
			case "theme":
				slide.Theme = d.Value
			case "transition":
				slide.Transition = d.Value
			case "layout":
				slide.LayoutHint = d.Value
			case "footer":
				slide.Footer = d.Value
			default:
				log.L().Debug("ignoring unknown slide directive",
					"directive", d.Name, "value", d.Value)
			}
		}
		for _, blk := range slide.Blocks {
			if blk.Kind == domain.KindDiagram && blk.DiagramErr != nil {
				log.L().Warn("diagram failed validation, rendering as text",
					"error", blk.DiagramErr)
			}
		}
		pres.Slides = append(pres.Slides, slide)
	}

	log.L().Debug("parsed presentation",
		"slides", len(pres.Slides), "parse_errors", len(perrs))
	return pres, perrs, nil
}
