/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package render

// TransitionKind selects the animation between two slides. Timing lives
// in the interactive frontend; this package only provides the pure
// pieces so export and UI agree on naming and easing.
type TransitionKind int

const (
	TransitionSlide TransitionKind = iota
	TransitionFade
	TransitionSpatial
	TransitionNone
)

// TransitionDuration is the animation length in seconds.
const TransitionDuration = 0.3

// TransitionFromName maps a frontmatter or directive value to a kind.
// Unknown names use the horizontal slide.
func TransitionFromName(name string) TransitionKind {
	switch name {
	case "fade":
		return TransitionFade
	case "slide":
		return TransitionSlide
	case "spatial":
		return TransitionSpatial
	case "none":
		return TransitionNone
	default:
		return TransitionSlide
	}
}

// EaseInOut applies smoothstep easing to a progress value in [0,1].
func EaseInOut(t float32) float32 {
	if t < 0 {
		t = 0
	}
	if t > 1 {
		t = 1
	}
	return t * t * (3 - 2*t)
}

// SpatialDirection computes the normalized direction between two slide
// positions in a grid with the given column count. Each component is
// -1, 0 or 1.
func SpatialDirection(from, to, cols int) (dx, dy float32) {
	if cols <= 0 {
		cols = 1
	}
	sign := func(n int) float32 {
		switch {
		case n > 0:
			return 1
		case n < 0:
			return -1
		default:
			return 0
		}
	}
	dx = sign(to%cols - from%cols)
	dy = sign(to/cols - from/cols)
	return dx, dy
}
