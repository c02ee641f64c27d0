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
	"fmt"
)

// ErrNoSlides is returned when a document yields zero slides after
// splitting. This is the only fatal parse condition; everything else
// degrades to a slide- or block-local fallback.
var ErrNoSlides = errors.New("no slides found in document")

// ParseError reports a recoverable problem on a single source line.
// The offending line is skipped and parsing continues.
type ParseError struct {
	Line int
	Msg  string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("line %d: %s", e.Line, e.Msg)
}

// DiagramError reports a diagram whose edges reference an undeclared
// node label. The diagram block falls back to raw-text rendering; the
// rest of the slide is unaffected.
type DiagramError struct {
	Edge  string
	Label string
}

func (e *DiagramError) Error() string {
	return fmt.Sprintf("diagram edge %q references undeclared node %q", e.Edge, e.Label)
}
