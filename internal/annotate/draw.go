/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package annotate

import (
	"image/color"
	"math"

	"github.com/mklab-se/mdeck/internal/scene"
)

// Draw appends the scene ops for one stroke on top of a rendered slide.
// Pen strokes get a wide translucent glow under the core line; arrows
// get a drop shadow and a filled head.
func Draw(sc *scene.Scene, s Stroke, scale float32) {
	if len(s.Points) < 2 {
		return
	}
	width := s.Width * scale
	if width <= 0 {
		width = 3 * scale
	}

	switch s.Kind {
	case Pen:
		glow := s.Color
		glow.A = uint8(float32(glow.A) * 0.25)
		for i := 1; i < len(s.Points); i++ {
			sc.Line(s.Points[i-1], s.Points[i], width*3, glow)
		}
		for i := 1; i < len(s.Points); i++ {
			sc.Line(s.Points[i-1], s.Points[i], width, s.Color)
		}
	case Arrow:
		from, to := s.Points[0], s.Points[len(s.Points)-1]
		off := 2 * scale
		shadow := color.NRGBA{A: uint8(float32(s.Color.A) * 0.4)}
		sc.Line(scene.Pt{X: from.X + off, Y: from.Y + off}, scene.Pt{X: to.X + off, Y: to.Y + off}, width, shadow)
		sc.Line(from, to, width, s.Color)
		drawHead(sc, from, to, width*4, s.Color, shadow, off)
	}
}

// DrawAll replays a slide's strokes in order.
func DrawAll(sc *scene.Scene, strokes []Stroke, scale float32) {
	for _, s := range strokes {
		Draw(sc, s, scale)
	}
}

func drawHead(sc *scene.Scene, from, to scene.Pt, size float32, col, shadow color.NRGBA, off float32) {
	dx := float64(to.X - from.X)
	dy := float64(to.Y - from.Y)
	length := math.Hypot(dx, dy)
	if length == 0 {
		return
	}
	ux := float32(dx / length)
	uy := float32(dy / length)
	base := scene.Pt{X: to.X - ux*size, Y: to.Y - uy*size}
	perpX, perpY := -uy*size*0.5, ux*size*0.5

	tip := []scene.Pt{
		to,
		{X: base.X + perpX, Y: base.Y + perpY},
		{X: base.X - perpX, Y: base.Y - perpY},
	}
	shadowTip := make([]scene.Pt, len(tip))
	for i, p := range tip {
		shadowTip[i] = scene.Pt{X: p.X + off, Y: p.Y + off}
	}
	sc.Polygon(shadowTip, shadow)
	sc.Polygon(tip, col)
}
