/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package export turns rendered scenes into PNG, SVG and PDF output.
// Slides are processed strictly one at a time; memory stays bounded on
// large decks.
package export

import (
	"image"
	"image/color"
	"image/draw"
	"math"

	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/mklab-se/mdeck/internal/scene"
)

// ImageSource resolves image ops to decoded pixels during rasterization.
type ImageSource interface {
	Image(path string) (image.Image, bool)
}

// Rasterize replays a scene's ops into an RGBA image of the viewport
// size. Text uses the same scaled bitmap face the renderer measures
// with, so wrap positions and raster output agree.
func Rasterize(sc *scene.Scene, images ImageSource) *image.RGBA {
	w := int(math.Round(float64(sc.Viewport.W)))
	h := int(math.Round(float64(sc.Viewport.H)))
	dst := image.NewRGBA(image.Rect(0, 0, w, h))

	for _, op := range sc.Ops {
		switch op.Kind {
		case scene.OpFillRect:
			fillRect(dst, op.Rect, op.Color)
		case scene.OpStrokeRect:
			strokeRect(dst, op.Rect, op.Width, op.Color)
		case scene.OpLine:
			drawLine(dst, op.From, op.To, op.Width, op.Color)
		case scene.OpPolygon:
			fillPolygon(dst, op.Points, op.Color)
		case scene.OpText:
			drawText(dst, op)
		case scene.OpImage:
			drawImage(dst, op, images)
		}
	}
	return dst
}

func fillRect(dst *image.RGBA, r scene.Rect, col color.NRGBA) {
	bounds := image.Rect(int(r.X), int(r.Y), int(r.X+r.W), int(r.Y+r.H))
	blend(dst, bounds, col)
}

func strokeRect(dst *image.RGBA, r scene.Rect, width float32, col color.NRGBA) {
	w := int(math.Max(1, math.Round(float64(width))))
	x0, y0 := int(r.X), int(r.Y)
	x1, y1 := int(r.X+r.W), int(r.Y+r.H)
	blend(dst, image.Rect(x0, y0, x1, y0+w), col)
	blend(dst, image.Rect(x0, y1-w, x1, y1), col)
	blend(dst, image.Rect(x0, y0, x0+w, y1), col)
	blend(dst, image.Rect(x1-w, y0, x1, y1), col)
}

// blend composites col over the destination region with source-over
// alpha.
func blend(dst *image.RGBA, bounds image.Rectangle, col color.NRGBA) {
	bounds = bounds.Intersect(dst.Bounds())
	if col.A == 0xFF {
		draw.Draw(dst, bounds, &image.Uniform{C: col}, image.Point{}, draw.Src)
		return
	}
	draw.Draw(dst, bounds, &image.Uniform{C: col}, image.Point{}, draw.Over)
}

// drawLine fills the quad spanned by offsetting the segment by half the
// stroke width on each side.
func drawLine(dst *image.RGBA, from, to scene.Pt, width float32, col color.NRGBA) {
	dx := float64(to.X - from.X)
	dy := float64(to.Y - from.Y)
	length := math.Hypot(dx, dy)
	if length == 0 {
		return
	}
	half := float64(width) / 2
	if half < 0.5 {
		half = 0.5
	}
	px := float32(-dy / length * half)
	py := float32(dx / length * half)
	fillPolygon(dst, []scene.Pt{
		{X: from.X + px, Y: from.Y + py},
		{X: to.X + px, Y: to.Y + py},
		{X: to.X - px, Y: to.Y - py},
		{X: from.X - px, Y: from.Y - py},
	}, col)
}

// fillPolygon scan-converts a convex or simple polygon with even-odd
// crossing tests per row.
func fillPolygon(dst *image.RGBA, pts []scene.Pt, col color.NRGBA) {
	if len(pts) < 3 {
		return
	}
	minY, maxY := pts[0].Y, pts[0].Y
	for _, p := range pts[1:] {
		if p.Y < minY {
			minY = p.Y
		}
		if p.Y > maxY {
			maxY = p.Y
		}
	}
	y0 := int(math.Floor(float64(minY)))
	y1 := int(math.Ceil(float64(maxY)))
	if y0 < dst.Bounds().Min.Y {
		y0 = dst.Bounds().Min.Y
	}
	if y1 > dst.Bounds().Max.Y {
		y1 = dst.Bounds().Max.Y
	}

	for y := y0; y < y1; y++ {
		fy := float32(y) + 0.5
		var xs []float64
		for i := range pts {
			a := pts[i]
			b := pts[(i+1)%len(pts)]
			if (a.Y <= fy) == (b.Y <= fy) {
				continue
			}
			t := (fy - a.Y) / (b.Y - a.Y)
			xs = append(xs, float64(a.X+t*(b.X-a.X)))
		}
		if len(xs) < 2 {
			continue
		}
		sortFloats(xs)
		for i := 0; i+1 < len(xs); i += 2 {
			blend(dst, image.Rect(int(math.Round(xs[i])), y, int(math.Round(xs[i+1])), y+1), col)
		}
	}
}

func sortFloats(xs []float64) {
	for i := 1; i < len(xs); i++ {
		for j := i; j > 0 && xs[j] < xs[j-1]; j-- {
			xs[j], xs[j-1] = xs[j-1], xs[j]
		}
	}
}

// basicEm is the em height of the bitmap face used for text.
const basicEm = 13

// drawText renders the string with the bitmap face at its native size,
// then scales the patch to the op's point size. Bold is emulated by a
// second draw shifted one pixel.
func drawText(dst *image.RGBA, op scene.Op) {
	if op.Text == "" || op.Style.Size <= 0 {
		return
	}
	face := basicfont.Face7x13
	d := font.Drawer{Face: face}
	adv := d.MeasureString(op.Text).Ceil()
	if op.Style.Bold {
		adv++
	}
	if adv == 0 {
		return
	}

	patch := image.NewRGBA(image.Rect(0, 0, adv, basicEm))
	src := &image.Uniform{C: op.Color}
	d = font.Drawer{
		Dst:  patch,
		Src:  src,
		Face: face,
		Dot:  fixed.P(0, face.Metrics().Ascent.Ceil()),
	}
	d.DrawString(op.Text)
	if op.Style.Bold {
		d.Dot = fixed.P(1, face.Metrics().Ascent.Ceil())
		d.DrawString(op.Text)
	}

	scale := float64(op.Style.Size) / basicEm
	tw := int(math.Round(float64(adv) * scale))
	th := int(math.Round(basicEm * scale))
	if tw == 0 || th == 0 {
		return
	}
	target := image.Rect(int(op.Pos.X), int(op.Pos.Y), int(op.Pos.X)+tw, int(op.Pos.Y)+th)
	xdraw.ApproxBiLinear.Scale(dst, target, patch, patch.Bounds(), xdraw.Over, nil)

	if op.Style.Strike {
		midY := float32(int(op.Pos.Y) + th/2)
		drawLine(dst, scene.Pt{X: op.Pos.X, Y: midY}, scene.Pt{X: op.Pos.X + float32(tw), Y: midY},
			op.Style.Size*0.06, op.Color)
	}
}

// drawImage scales the source into the target rect; cover crops the
// source to the target aspect before scaling.
func drawImage(dst *image.RGBA, op scene.Op, images ImageSource) {
	if images == nil {
		return
	}
	src, ok := images.Image(op.Path)
	if !ok || src == nil {
		return
	}
	target := image.Rect(int(op.Rect.X), int(op.Rect.Y), int(op.Rect.X+op.Rect.W), int(op.Rect.Y+op.Rect.H))
	srcBounds := src.Bounds()

	if op.Cover {
		srcBounds = coverCrop(srcBounds, op.Rect.W/op.Rect.H)
	}
	xdraw.ApproxBiLinear.Scale(dst, target, src, srcBounds, xdraw.Over, nil)
}

// coverCrop shrinks bounds to the given aspect ratio, centered.
func coverCrop(b image.Rectangle, aspect float32) image.Rectangle {
	w := float32(b.Dx())
	h := float32(b.Dy())
	if w <= 0 || h <= 0 || aspect <= 0 {
		return b
	}
	if w/h > aspect {
		cw := int(h * aspect)
		off := (b.Dx() - cw) / 2
		return image.Rect(b.Min.X+off, b.Min.Y, b.Min.X+off+cw, b.Max.Y)
	}
	ch := int(w / aspect)
	off := (b.Dy() - ch) / 2
	return image.Rect(b.Min.X, b.Min.Y+off, b.Max.X, b.Min.Y+off+ch)
}
