/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package theme provides the color palettes and type scales used by the
// renderer. Two palettes are built in; additional ones load from JSON
// files validated against an embedded schema.
package theme

import "image/color"

// Theme is a named palette plus the font size scale. All sizes are in
// logical points on the 1920x1080 reference canvas.
type Theme struct {
	Name           string
	Background     color.NRGBA
	Foreground     color.NRGBA
	HeadingColor   color.NRGBA
	Accent         color.NRGBA
	CodeBackground color.NRGBA
	CodeForeground color.NRGBA

	H1Size   float32
	H2Size   float32
	H3Size   float32
	BodySize float32
	CodeSize float32
}

func Dark() Theme {
	return Theme{
		Name:           "dark",
		Background:     color.NRGBA{R: 0x1E, G: 0x1E, B: 0x1E, A: 0xFF},
		Foreground:     color.NRGBA{R: 0xC8, G: 0xC8, B: 0xC8, A: 0xFF},
		HeadingColor:   color.NRGBA{R: 0xFF, G: 0xFF, B: 0xFF, A: 0xFF},
		Accent:         color.NRGBA{R: 0x52, G: 0x94, B: 0xE2, A: 0xFF},
		CodeBackground: color.NRGBA{R: 0x2D, G: 0x2D, B: 0x2D, A: 0xFF},
		CodeForeground: color.NRGBA{R: 0xD4, G: 0xD4, B: 0xD4, A: 0xFF},
		H1Size:         96,
		H2Size:         72,
		H3Size:         52,
		BodySize:       44,
		CodeSize:       30,
	}
}

// Light is the default palette for presentations without a theme setting.
func Light() Theme {
	return Theme{
		Name:           "light",
		Background:     color.NRGBA{R: 0xFF, G: 0xFF, B: 0xFF, A: 0xFF},
		Foreground:     color.NRGBA{R: 0x1A, G: 0x1A, B: 0x2E, A: 0xFF},
		HeadingColor:   color.NRGBA{R: 0x16, G: 0x21, B: 0x3E, A: 0xFF},
		Accent:         color.NRGBA{R: 0x0F, G: 0x34, B: 0x60, A: 0xFF},
		CodeBackground: color.NRGBA{R: 0xF5, G: 0xF5, B: 0xF5, A: 0xFF},
		CodeForeground: color.NRGBA{R: 0x33, G: 0x33, B: 0x33, A: 0xFF},
		H1Size:         96,
		H2Size:         72,
		H3Size:         52,
		BodySize:       44,
		CodeSize:       30,
	}
}

// FromName resolves a theme name from frontmatter or a slide directive.
// "dark" selects the dark palette; everything else falls back to light.
func FromName(name string) Theme {
	if name == "dark" {
		return Dark()
	}
	return Light()
}

// Toggled returns the opposite built-in palette, keyed on the name so
// that toggling a custom theme lands on dark first.
func (t Theme) Toggled() Theme {
	if t.Name == "dark" {
		return Light()
	}
	return Dark()
}

// HeadingSize maps a heading level to its font size. Levels beyond 3
// share the body size.
func (t Theme) HeadingSize(level int) float32 {
	switch level {
	case 1:
		return t.H1Size
	case 2:
		return t.H2Size
	case 3:
		return t.H3Size
	default:
		return t.BodySize
	}
}

// WithOpacity scales a color's alpha channel, used for reveal fade-in
// and slide transitions.
func WithOpacity(c color.NRGBA, opacity float32) color.NRGBA {
	if opacity < 0 {
		opacity = 0
	}
	if opacity > 1 {
		opacity = 1
	}
	c.A = uint8(opacity * 255)
	return c
}
