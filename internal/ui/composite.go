/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package ui

import (
	"image"
	"image/color"
	"image/draw"
	"math"
)

// compositeFade blends the incoming frame over the outgoing one with the
// eased progress as its opacity. Progress 0 shows only the outgoing
// frame, 1 only the incoming.
func compositeFade(out, in *image.RGBA, t float32) *image.RGBA {
	b := out.Bounds()
	dst := image.NewRGBA(b)
	draw.Draw(dst, b, out, b.Min, draw.Src)
	alpha := uint8(math.Round(float64(t) * 255))
	mask := image.NewUniform(color.Alpha{A: alpha})
	draw.DrawMask(dst, b, in, b.Min, mask, image.Point{}, draw.Over)
	return dst
}

// compositeSlide pans both frames along the direction vector: the
// outgoing frame moves off screen while the incoming one follows it in.
// dx and dy are each -1, 0 or 1 and describe where the incoming slide
// comes from relative to the outgoing one.
func compositeSlide(out, in *image.RGBA, dx, dy, t float32) *image.RGBA {
	b := out.Bounds()
	dst := image.NewRGBA(b)
	w := float32(b.Dx())
	h := float32(b.Dy())

	outOff := image.Pt(int(-t*w*dx), int(-t*h*dy))
	inOff := image.Pt(int((1-t)*w*dx), int((1-t)*h*dy))

	draw.Draw(dst, b.Add(outOff), out, b.Min, draw.Src)
	draw.Draw(dst, b.Add(inOff), in, b.Min, draw.Over)
	return dst
}

// gridCols picks the overview grid width for n slides: the smallest
// square-ish layout that fits them all.
func gridCols(n int) int {
	if n <= 1 {
		return 1
	}
	return int(math.Ceil(math.Sqrt(float64(n))))
}

// overviewGrid lays the slide thumbnails out in a uniform grid on the
// given background and draws a highlight border around the selected
// cell. Thumbnails keep their decoded size and are centered in their
// cells.
func overviewGrid(thumbs []image.Image, sel, width, height int, bg, highlight color.NRGBA) *image.RGBA {
	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.Draw(dst, dst.Bounds(), image.NewUniform(bg), image.Point{}, draw.Src)

	cols := gridCols(len(thumbs))
	rows := (len(thumbs) + cols - 1) / cols
	if rows == 0 {
		return dst
	}
	cellW := width / cols
	cellH := height / rows

	for i, th := range thumbs {
		cx := (i % cols) * cellW
		cy := (i / cols) * cellH
		if th != nil {
			tb := th.Bounds()
			ox := cx + (cellW-tb.Dx())/2
			oy := cy + (cellH-tb.Dy())/2
			draw.Draw(dst, image.Rect(ox, oy, ox+tb.Dx(), oy+tb.Dy()), th, tb.Min, draw.Over)
		}
		if i == sel {
			drawBorder(dst, image.Rect(cx+2, cy+2, cx+cellW-2, cy+cellH-2), 3, highlight)
		}
	}
	return dst
}

func drawBorder(dst *image.RGBA, r image.Rectangle, thickness int, c color.NRGBA) {
	u := image.NewUniform(c)
	draw.Draw(dst, image.Rect(r.Min.X, r.Min.Y, r.Max.X, r.Min.Y+thickness), u, image.Point{}, draw.Over)
	draw.Draw(dst, image.Rect(r.Min.X, r.Max.Y-thickness, r.Max.X, r.Max.Y), u, image.Point{}, draw.Over)
	draw.Draw(dst, image.Rect(r.Min.X, r.Min.Y, r.Min.X+thickness, r.Max.Y), u, image.Point{}, draw.Over)
	draw.Draw(dst, image.Rect(r.Max.X-thickness, r.Min.Y, r.Max.X, r.Max.Y), u, image.Point{}, draw.Over)
}
