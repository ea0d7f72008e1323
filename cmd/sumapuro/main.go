/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pasta-break-man/sumapuro/internal/config"
	"github.com/pasta-break-man/sumapuro/internal/crash"
	"github.com/pasta-break-man/sumapuro/internal/domain"
	"github.com/pasta-break-man/sumapuro/internal/export"
	applog "github.com/pasta-break-man/sumapuro/internal/log"
	"github.com/pasta-break-man/sumapuro/internal/storage"
	"github.com/pasta-break-man/sumapuro/internal/ui"
	"github.com/pasta-break-man/sumapuro/internal/version"
)

func usage() {
	fmt.Println("Sumapuro — room layout editor")
	fmt.Printf("Version: %s\n", version.String())
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  sumapuro version|-v|--version               Show version")
	fmt.Println("  sumapuro init <dir> <name>                  Create a new layout at <dir> with name <name>")
	fmt.Println("  sumapuro open <dir>                         Open layout at <dir> and print summary")
	fmt.Println("  sumapuro save <dir>                         Save layout at <dir> (creates backup)")
	fmt.Println("  sumapuro export <dir> <out.png|out.pdf>     Export the layout stage to an image or PDF")
	fmt.Println("  sumapuro reindex <dir>                      Rebuild the local contents search index")
	fmt.Println("  sumapuro search <dir> <name> [category]     Search registered contents in the local index")
	fmt.Println("  sumapuro ui [<dir>]                         Launch desktop UI (build with -tags fyne for full UI)")
}

func main() {
	// initialize structured logging using environment defaults
	applog.Init(applog.FromEnv())
	l := applog.WithComponent("cli")
	var lh *storage.LayoutHandle
	defer func() { crash.Recover(lh) }()

	args := os.Args
	l.Debug("start", slog.Int("args", len(args)))
	if len(args) > 1 {
		switch args[1] {
		case "version", "--version", "-v":
			fmt.Println("Sumapuro — room layout editor")
			fmt.Println(version.String())
			return
		case "init":
			if len(args) < 4 {
				fmt.Println("init requires <dir> and <name>")
				usage()
				os.Exit(2)
			}
			dir := args[2]
			name := args[3]
			abs, _ := filepath.Abs(dir)
			cfg, _, err := config.Load()
			if err != nil {
				cfg = config.Defaults()
			}
			l.Info("init layout", slog.String("root", abs), slog.String("name", name))
			layout := domain.Layout{
				Name:        name,
				StageWidth:  cfg.Stage.Width,
				StageHeight: cfg.Stage.Height,
			}
			h, err := storage.InitLayout(abs, layout)
			if err != nil {
				l.Error("init failed", slog.Any("err", err))
				fmt.Println("Error:", err)
				os.Exit(1)
			}
			lh = h
			fmt.Println("Created layout at", abs)
			return
		case "open":
			if len(args) < 3 {
				fmt.Println("open requires <dir>")
				usage()
				os.Exit(2)
			}
			abs, _ := filepath.Abs(args[2])
			l.Info("open layout", slog.String("root", abs))
			h, err := storage.Open(abs)
			if err != nil {
				l.Error("open failed", slog.Any("err", err))
				fmt.Println("Error:", err)
				os.Exit(1)
			}
			lh = h
			fmt.Printf("Opened layout: %s\n", h.Layout.Name)
			fmt.Printf("Stage: %gx%g\n", h.Layout.StageWidth, h.Layout.StageHeight)
			fmt.Printf("Objects: %d\n", len(h.Layout.Items))
			fmt.Println("Root:", h.Root)
			return
		case "save":
			if len(args) < 3 {
				fmt.Println("save requires <dir>")
				usage()
				os.Exit(2)
			}
			abs, _ := filepath.Abs(args[2])
			l.Info("save layout", slog.String("root", abs))
			h, err := storage.Open(abs)
			if err != nil {
				l.Error("open before save failed", slog.Any("err", err))
				fmt.Println("Error:", err)
				os.Exit(1)
			}
			lh = h
			if err := storage.Save(h); err != nil {
				l.Error("save failed", slog.Any("err", err))
				fmt.Println("Error:", err)
				os.Exit(1)
			}
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := storage.UpdateIndex(ctx, h.Root, h.Layout); err != nil {
				l.Warn("index update failed", slog.Any("err", err))
			}
			fmt.Println("Saved layout and created a backup of previous manifest (if any).")
			return
		case "export":
			if len(args) < 4 {
				fmt.Println("export requires <dir> and <out.png|out.pdf>")
				usage()
				os.Exit(2)
			}
			abs, _ := filepath.Abs(args[2])
			out := args[3]
			h, err := storage.Open(abs)
			if err != nil {
				l.Error("open before export failed", slog.Any("err", err))
				fmt.Println("Error:", err)
				os.Exit(1)
			}
			lh = h
			switch strings.ToLower(filepath.Ext(out)) {
			case ".png":
				err = export.ExportLayoutPNG(h, out, export.PNGOptions{IncludeLabels: true})
			case ".pdf":
				err = export.ExportLayoutPDF(h, out, export.PDFOptions{IncludeLabels: true, IncludeFrame: true})
			default:
				fmt.Println("export output must end in .png or .pdf")
				os.Exit(2)
			}
			if err != nil {
				l.Error("export failed", slog.Any("err", err))
				fmt.Println("Error:", err)
				os.Exit(1)
			}
			if !filepath.IsAbs(out) {
				out = filepath.Join(h.Root, storage.ExportsDirName, out)
			}
			fmt.Println("Exported to", out)
			return
		case "reindex":
			if len(args) < 3 {
				fmt.Println("reindex requires <dir>")
				usage()
				os.Exit(2)
			}
			abs, _ := filepath.Abs(args[2])
			h, err := storage.Open(abs)
			if err != nil {
				fmt.Println("Error:", err)
				os.Exit(1)
			}
			lh = h
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()
			if err := storage.UpdateIndex(ctx, h.Root, h.Layout); err != nil {
				l.Error("reindex failed", slog.Any("err", err))
				fmt.Println("Error:", err)
				os.Exit(1)
			}
			fmt.Println("Index rebuilt at", storage.IndexPath(h.Root))
			return
		case "search":
			if len(args) < 4 {
				fmt.Println("search requires <dir> and <name> (category optional)")
				usage()
				os.Exit(2)
			}
			abs, _ := filepath.Abs(args[2])
			name := args[3]
			category := ""
			if len(args) >= 5 {
				category = args[4]
			}
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			matches, err := storage.SearchContents(ctx, abs, name, category)
			if err != nil {
				l.Error("search failed", slog.Any("err", err))
				fmt.Println("Error:", err)
				os.Exit(1)
			}
			if len(matches) == 0 {
				fmt.Println("No matches.")
				return
			}
			for _, m := range matches {
				if m.ParentTableName != "" {
					fmt.Printf("%s (in %s)\n", m.TableName, m.ParentTableName)
				} else {
					fmt.Println(m.TableName)
				}
			}
			return
		case "ui":
			var dir string
			if len(args) >= 3 {
				dir = args[2]
			}
			if err := ui.Run(dir); err != nil {
				fmt.Println("Error:", err)
				os.Exit(1)
			}
			return
		}
	}

	usage()
}
