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
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"math"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/pasta-break-man/sumapuro/internal/domain"
	"github.com/pasta-break-man/sumapuro/internal/storage"
)

// PNGOptions controls PNG export behavior.
// - Scale: when > 0 multiplies stage units to output pixels (default 1)
// - IncludeLabels: render each object's display name inside its rectangle
// - Stroke/Background: colors, with sensible defaults when zero
type PNGOptions struct {
	Scale         float64
	IncludeLabels bool
	Stroke        color.RGBA
	Background    color.RGBA
}

// ExportLayoutPNG renders the layout's stage as a single PNG image placed
// at outPath. Relative paths resolve under the layout's exports folder.
func ExportLayoutPNG(lh *storage.LayoutHandle, outPath string, opt PNGOptions) error {
	if lh == nil {
		return fmt.Errorf("layout handle is nil")
	}
	scale := opt.Scale
	if scale <= 0 {
		scale = 1
	}
	stroke := opt.Stroke
	if stroke.A == 0 {
		stroke = color.RGBA{R: 31, G: 41, B: 55, A: 255}
	}
	bg := opt.Background
	if bg.A == 0 {
		bg = color.RGBA{R: 255, G: 255, B: 255, A: 255}
	}

	pixW := int(math.Round(lh.Layout.StageWidth * scale))
	pixH := int(math.Round(lh.Layout.StageHeight * scale))
	if pixW <= 0 || pixH <= 0 {
		return fmt.Errorf("stage size %gx%g is not renderable", lh.Layout.StageWidth, lh.Layout.StageHeight)
	}

	img := image.NewRGBA(image.Rect(0, 0, pixW, pixH))
	draw.Draw(img, img.Bounds(), &image.Uniform{C: bg}, image.Point{}, draw.Src)

	for _, it := range lh.Layout.Items {
		drawItemPNG(img, it, scale, stroke, opt.IncludeLabels)
	}

	if !filepath.IsAbs(outPath) {
		outPath = filepath.Join(lh.Root, storage.ExportsDirName, outPath)
	}
	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		return fmt.Errorf("ensure out dir: %w", err)
	}
	f, err := os.Create(outPath)
	if err != nil {
		return fmt.Errorf("create png: %w", err)
	}
	if err := png.Encode(f, img); err != nil {
		_ = f.Close()
		return fmt.Errorf("encode png: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close png: %w", err)
	}
	return nil
}

// drawItemPNG renders one item and its nested items. Nested positions are
// already absolute stage coordinates.
func drawItemPNG(img *image.RGBA, it *domain.Item, scale float64, stroke color.RGBA, labels bool) {
	x0 := int(math.Round(it.X * scale))
	y0 := int(math.Round(it.Y * scale))
	x1 := int(math.Round((it.X+it.Width)*scale)) - 1
	y1 := int(math.Round((it.Y+it.Height)*scale)) - 1

	fillRect(img, x0, y0, x1, y1, fillColor(it.Fill))
	strokeRect(img, x0, y0, x1, y1, stroke)

	if labels {
		name := strings.TrimSpace(it.Name)
		if name != "" {
			drawLabel(img, x0+4, y0+4+basicfont.Face7x13.Ascent, name)
		}
	}
	for _, n := range it.Nested {
		drawItemPNG(img, n, scale, stroke, labels)
	}
}

// fillColor parses a #rrggbb fill, falling back to a neutral gray.
func fillColor(hex string) color.RGBA {
	c, err := parseHexColor(hex)
	if err != nil {
		return color.RGBA{R: 209, G: 213, B: 219, A: 255}
	}
	return c
}

func parseHexColor(s string) (color.RGBA, error) {
	s = strings.TrimSpace(s)
	if len(s) != 7 || s[0] != '#' {
		return color.RGBA{}, fmt.Errorf("invalid color %q", s)
	}
	var r, g, b uint8
	if _, err := fmt.Sscanf(s[1:], "%02x%02x%02x", &r, &g, &b); err != nil {
		return color.RGBA{}, fmt.Errorf("invalid color %q: %w", s, err)
	}
	return color.RGBA{R: r, G: g, B: b, A: 255}, nil
}

func drawLabel(img *image.RGBA, x, y int, text string) {
	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(color.RGBA{A: 255}),
		Face: basicfont.Face7x13,
		Dot:  fixed.P(x, y),
	}
	d.DrawString(text)
}

// strokeRect draws a 1px axis-aligned rectangle border inclusive of endpoints.
func strokeRect(img *image.RGBA, x0, y0, x1, y1 int, col color.RGBA) {
	for x := x0; x <= x1; x++ {
		img.SetRGBA(x, y0, col)
		img.SetRGBA(x, y1, col)
	}
	for y := y0; y <= y1; y++ {
		img.SetRGBA(x0, y, col)
		img.SetRGBA(x1, y, col)
	}
}

func fillRect(img *image.RGBA, x0, y0, x1, y1 int, col color.RGBA) {
	if x1 < x0 {
		x0, x1 = x1, x0
	}
	if y1 < y0 {
		y0, y1 = y1, y0
	}
	for y := y0; y <= y1; y++ {
		for x := x0; x <= x1; x++ {
			img.SetRGBA(x, y, col)
		}
	}
}
