/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package export

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"image/color"
	"os"
	"path/filepath"

	"github.com/mklab-se/mdeck/internal/domain"
	"github.com/mklab-se/mdeck/internal/imagecache"
	"github.com/mklab-se/mdeck/internal/scene"
)

// ExportSVG writes one SVG document per slide into outDir. Images are
// referenced by their file path rather than embedded, so the output
// stays small and the files render next to the deck.
func ExportSVG(pres domain.Presentation, outDir string, opt Options) error {
	opt.defaults()
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return fmt.Errorf("ensure out dir: %w", err)
	}

	return eachSlide(pres, opt, func(index int, sc *scene.Scene, _ *imagecache.Snapshot) error {
		name := filepath.Join(outDir, fmt.Sprintf("slide-%03d.svg", index+1))
		if err := os.WriteFile(name, SceneSVG(sc), 0o644); err != nil {
			return fmt.Errorf("write svg: %w", err)
		}
		return nil
	})
}

// SceneSVG serializes one scene as a standalone SVG document.
func SceneSVG(sc *scene.Scene) []byte {
	var buf bytes.Buffer
	var werr error
	wf := func(format string, args ...any) {
		if werr != nil {
			return
		}
		_, werr = fmt.Fprintf(&buf, format, args...)
	}

	wf("<?xml version=\"1.0\" encoding=\"UTF-8\"?>\n")
	wf("<svg xmlns=\"http://www.w3.org/2000/svg\" version=\"1.1\" width=\"%g\" height=\"%g\" viewBox=\"0 0 %g %g\">\n",
		sc.Viewport.W, sc.Viewport.H, sc.Viewport.W, sc.Viewport.H)

	for _, op := range sc.Ops {
		switch op.Kind {
		case scene.OpFillRect:
			wf("  <rect x=\"%g\" y=\"%g\" width=\"%g\" height=\"%g\" rx=\"%g\" fill=\"%s\"%s/>\n",
				op.Rect.X, op.Rect.Y, op.Rect.W, op.Rect.H, op.Radius, svgColor(op.Color), svgOpacity(op.Color))
		case scene.OpStrokeRect:
			wf("  <rect x=\"%g\" y=\"%g\" width=\"%g\" height=\"%g\" rx=\"%g\" fill=\"none\" stroke=\"%s\" stroke-width=\"%g\"%s/>\n",
				op.Rect.X, op.Rect.Y, op.Rect.W, op.Rect.H, op.Radius, svgColor(op.Color), op.Width, svgOpacity(op.Color))
		case scene.OpLine:
			wf("  <line x1=\"%g\" y1=\"%g\" x2=\"%g\" y2=\"%g\" stroke=\"%s\" stroke-width=\"%g\" stroke-linecap=\"round\"%s/>\n",
				op.From.X, op.From.Y, op.To.X, op.To.Y, svgColor(op.Color), op.Width, svgOpacity(op.Color))
		case scene.OpPolygon:
			wf("  <polygon points=\"%s\" fill=\"%s\"%s/>\n", svgPoints(op.Points), svgColor(op.Color), svgOpacity(op.Color))
		case scene.OpText:
			wf("  <text x=\"%g\" y=\"%g\" font-size=\"%g\" font-family=\"%s\"%s%s fill=\"%s\"%s>%s</text>\n",
				op.Pos.X, op.Pos.Y+op.Style.Size*0.8, op.Style.Size, svgFamily(op.Style),
				svgWeight(op.Style), svgDecoration(op.Style), svgColor(op.Color), svgOpacity(op.Color),
				xmlEscape(op.Text))
		case scene.OpImage:
			ratio := "xMidYMid meet"
			if op.Cover {
				ratio = "xMidYMid slice"
			}
			wf("  <image x=\"%g\" y=\"%g\" width=\"%g\" height=\"%g\" href=\"%s\" preserveAspectRatio=\"%s\"/>\n",
				op.Rect.X, op.Rect.Y, op.Rect.W, op.Rect.H, xmlEscape(op.Path), ratio)
		}
	}
	wf("</svg>\n")
	return buf.Bytes()
}

func svgColor(c color.NRGBA) string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}

func svgOpacity(c color.NRGBA) string {
	if c.A == 0xFF {
		return ""
	}
	return fmt.Sprintf(" opacity=\"%.3f\"", float64(c.A)/255)
}

func svgPoints(pts []scene.Pt) string {
	var buf bytes.Buffer
	for i, p := range pts {
		if i > 0 {
			buf.WriteByte(' ')
		}
		fmt.Fprintf(&buf, "%g,%g", p.X, p.Y)
	}
	return buf.String()
}

func svgFamily(s scene.TextStyle) string {
	if s.Monospace {
		return "monospace"
	}
	return "sans-serif"
}

func svgWeight(s scene.TextStyle) string {
	var out string
	if s.Bold {
		out += " font-weight=\"bold\""
	}
	if s.Italic {
		out += " font-style=\"italic\""
	}
	return out
}

func svgDecoration(s scene.TextStyle) string {
	if s.Strike {
		return " text-decoration=\"line-through\""
	}
	return ""
}

func xmlEscape(s string) string {
	var buf bytes.Buffer
	_ = xml.EscapeText(&buf, []byte(s))
	return buf.String()
}
