/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package export

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/jung-kurt/gofpdf"

	"github.com/pasta-break-man/sumapuro/internal/domain"
	"github.com/pasta-break-man/sumapuro/internal/storage"
)

// PDFOptions controls PDF export behavior.
// Units are points (pt); stage units map 1:1 onto page coordinates with
// the page origin at the top-left, so the PDF page matches the canvas.
// Built-in Helvetica keeps labels vector without font embedding.
type PDFOptions struct {
	IncludeLabels bool
	IncludeFrame  bool // draw a hairline around the stage bounds
}

// ExportLayoutPDF exports the layout as a single-page PDF placed at
// outPath. Relative paths resolve under the layout's exports folder.
func ExportLayoutPDF(lh *storage.LayoutHandle, outPath string, opt PDFOptions) error {
	if lh == nil {
		return fmt.Errorf("layout handle is nil")
	}
	w := lh.Layout.StageWidth
	h := lh.Layout.StageHeight
	if w <= 0 || h <= 0 {
		return fmt.Errorf("stage size %gx%g is not renderable", w, h)
	}

	pdf := gofpdf.NewCustom(&gofpdf.InitType{
		UnitStr:        "pt",
		Size:           gofpdf.SizeType{Wd: w, Ht: h},
		OrientationStr: "",
	})
	title := strings.TrimSpace(lh.Layout.Name)
	if title == "" {
		title = "Room layout"
	}
	pdf.SetTitle(title, false)
	pdf.SetFont("Helvetica", "", 10)
	pdf.AddPageFormat("", gofpdf.SizeType{Wd: w, Ht: h})

	if opt.IncludeFrame {
		pdf.SetDrawColor(156, 163, 175)
		pdf.SetLineWidth(0.2)
		pdf.Rect(0, 0, w, h, "D")
	}

	for _, it := range lh.Layout.Items {
		drawItemPDF(pdf, it, opt.IncludeLabels)
	}

	if !filepath.IsAbs(outPath) {
		outPath = filepath.Join(lh.Root, storage.ExportsDirName, outPath)
	}
	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		return fmt.Errorf("ensure out dir: %w", err)
	}
	if err := pdf.OutputFileAndClose(outPath); err != nil {
		return fmt.Errorf("write pdf: %w", err)
	}
	return nil
}

func drawItemPDF(pdf *gofpdf.Fpdf, it *domain.Item, labels bool) {
	fc := fillColor(it.Fill)
	pdf.SetFillColor(int(fc.R), int(fc.G), int(fc.B))
	pdf.SetDrawColor(31, 41, 55)
	pdf.SetLineWidth(1)
	pdf.Rect(it.X, it.Y, it.Width, it.Height, "FD")

	if labels {
		name := strings.TrimSpace(it.Name)
		if name != "" {
			pdf.SetTextColor(0, 0, 0)
			pdf.Text(it.X+4, it.Y+12, name)
		}
	}
	for _, n := range it.Nested {
		drawItemPDF(pdf, n, labels)
	}
}
