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
	"fmt"
	"image/png"

	"github.com/jung-kurt/gofpdf"

	"github.com/mklab-se/mdeck/internal/domain"
	"github.com/mklab-se/mdeck/internal/imagecache"
	"github.com/mklab-se/mdeck/internal/scene"
)

// ExportPDF writes the whole deck as a single PDF, one page per slide.
// Pages carry the rasterized slide; vector text is not preserved, which
// keeps every layout pixel-identical to the PNG export.
func ExportPDF(pres domain.Presentation, outPath string, opt Options) error {
	opt.defaults()

	pdf := gofpdf.NewCustom(&gofpdf.InitType{
		UnitStr: "pt",
		Size:    gofpdf.SizeType{Wd: float64(opt.Width), Ht: float64(opt.Height)},
	})
	pdf.SetMargins(0, 0, 0)
	pdf.SetAutoPageBreak(false, 0)
	if pres.Meta.Title != "" {
		pdf.SetTitle(pres.Meta.Title, true)
	}
	if pres.Meta.Author != "" {
		pdf.SetAuthor(pres.Meta.Author, true)
	}

	page := 0
	err := eachSlide(pres, opt, func(index int, sc *scene.Scene, snap *imagecache.Snapshot) error {
		img := Rasterize(sc, snap)
		var buf bytes.Buffer
		if err := png.Encode(&buf, img); err != nil {
			return fmt.Errorf("encode slide %d: %w", index+1, err)
		}

		page++
		name := fmt.Sprintf("slide-%d", index+1)
		pdf.AddPage()
		pdf.RegisterImageOptionsReader(name, gofpdf.ImageOptions{ImageType: "PNG"}, &buf)
		pdf.ImageOptions(name, 0, 0, float64(opt.Width), float64(opt.Height), false,
			gofpdf.ImageOptions{ImageType: "PNG"}, 0, "")
		return nil
	})
	if err != nil {
		return err
	}
	if page == 0 {
		return fmt.Errorf("no slides to export")
	}

	if err := pdf.OutputFileAndClose(outPath); err != nil {
		return fmt.Errorf("write pdf: %w", err)
	}
	return nil
}
