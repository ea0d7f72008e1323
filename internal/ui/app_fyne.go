//go:build fyne && cgo

/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the
 *  specific language governing permissions and limitations under the License.
 */

package ui

import (
	"context"
	"fmt"
	"image/color"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/widget"

	"github.com/pasta-break-man/sumapuro/internal/catalog"
	"github.com/pasta-break-man/sumapuro/internal/config"
	"github.com/pasta-break-man/sumapuro/internal/crash"
	"github.com/pasta-break-man/sumapuro/internal/domain"
	"github.com/pasta-break-man/sumapuro/internal/editor"
	"github.com/pasta-break-man/sumapuro/internal/export"
	"github.com/pasta-break-man/sumapuro/internal/geometry"
	applog "github.com/pasta-break-man/sumapuro/internal/log"
	"github.com/pasta-break-man/sumapuro/internal/remote"
	"github.com/pasta-break-man/sumapuro/internal/storage"
	"github.com/pasta-break-man/sumapuro/internal/undo"
	"github.com/pasta-break-man/sumapuro/internal/version"
)

// Run starts the Fyne-based desktop UI shell with the stage canvas editor.
func Run(layoutDir string) error {
	applog.Init(applog.FromEnv())
	l := applog.WithComponent("ui")
	l.Info("starting UI", slog.String("version", version.String()))

	cfg, cfgPath, err := config.Load()
	if err != nil {
		l.Warn("config load failed, using defaults", slog.Any("err", err))
		cfg = config.Defaults()
	} else {
		l.Info("config loaded", slog.String("path", cfgPath))
	}

	var lh *storage.LayoutHandle
	defer func() { crash.Recover(lh) }()

	client, cerr := remote.NewClient(cfg.Backend.BaseURL, cfg.Backend.EffectiveTimeout(), cfg.Backend.TLSInsecure)
	if cerr != nil {
		l.Warn("backend client unavailable, edits stay local", slog.Any("err", cerr))
		client = nil
	}
	var rsync *remote.Sync
	var syncer editor.Syncer
	if client != nil {
		rsync = remote.NewSync(client)
		syncer = rsync
	}

	cat, err := catalog.LoadFile(cfg.General.CatalogFile)
	if err != nil {
		l.Warn("catalog load failed, using defaults", slog.Any("err", err))
		cat = catalog.Defaults()
	}

	ed := editor.New(geometry.Size{W: cfg.Stage.Width, H: cfg.Stage.Height}, syncer)
	undoMgr := undo.NewManager(undo.Config{
		MaxBytes:    32 * 1024 * 1024,
		MaxDepth:    50,
		MinInterval: 300 * time.Millisecond,
	})

	fyneApp := app.NewWithID("sumapuro")
	w := fyneApp.NewWindow("Sumapuro")
	prefs := fyneApp.Preferences()
	winW := prefs.IntWithFallback("window.width", 1200)
	winH := prefs.IntWithFallback("window.height", 800)
	if winW < 800 {
		winW = 800
	}
	if winH < 600 {
		winH = 600
	}
	w.Resize(fyne.NewSize(float32(winW), float32(winH)))

	status := widget.NewLabel("Ready")
	stage := NewStageCanvas(ed)

	updateStatus := func() {
		n := len(ed.Items())
		sel := len(ed.SelectedIDs())
		name := "(no layout)"
		if lh != nil {
			name = lh.Layout.Name
		}
		status.SetText(fmt.Sprintf("%s | %d objects | %d selected", name, n, sel))
	}

	refresh := func() {
		stage.Refresh()
		updateStatus()
	}

	pushUndo := func() {
		blob, err := ed.Snapshot()
		if err != nil {
			l.Error("snapshot failed", slog.Any("err", err))
			return
		}
		undoMgr.PushSnapshot(undo.Snapshot{Blob: blob, TS: time.Now()})
	}

	layoutFromEditor := func() domain.Layout {
		name := ""
		if lh != nil {
			name = lh.Layout.Name
		}
		st := ed.Stage()
		return domain.Layout{
			Name:        name,
			StageWidth:  st.W,
			StageHeight: st.H,
			Items:       ed.Items(),
		}
	}

	saveIfOpen := func() {
		if lh == nil {
			return
		}
		lh.Layout = layoutFromEditor()
		if err := storage.Save(lh); err != nil {
			l.Error("save failed", slog.Any("err", err))
			dialog.ShowError(err, w)
			return
		}
		layout := lh.Layout
		root := lh.Root
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := storage.UpdateIndex(ctx, root, layout); err != nil {
				l.Warn("index update failed", slog.Any("err", err))
			}
		}()
	}

	// commit persists and repaints after a mutation. Callers that want
	// undo push a snapshot before mutating, matching what Undo restores.
	commit := func() {
		saveIfOpen()
		refresh()
	}

	// Content view dialog. The container content is swapped in place so
	// drilling into nested objects does not close the dialog.
	var contentDlg dialog.Dialog
	contentBody := container.NewStack()
	var rebuildContentView func()

	showRegisterForm := func() {
		ed.OpenRegisterPopup()
		if !ed.RegisterPopupOpen() {
			return
		}
		nameE := widget.NewEntry()
		catE := widget.NewEntry()
		cntE := widget.NewEntry()
		cntE.SetText("1")
		items := []*widget.FormItem{
			widget.NewFormItem("Name", nameE),
			widget.NewFormItem("Category", catE),
			widget.NewFormItem("Count", cntE),
		}
		dialog.NewForm("Add Item", "Add", "Cancel", items, func(ok bool) {
			if !ok {
				ed.CloseRegisterPopup()
				return
			}
			ed.SetRegisterDraft(editor.RegisterDraft{Name: nameE.Text, Category: catE.Text, Count: cntE.Text})
			pushUndo()
			ed.ConfirmRegisterAdd()
			commit()
			rebuildContentView()
		}, w).Show()
	}

	showRenameForm := func() {
		ed.OpenRenameDraft()
		if !ed.RenameDraftOpen() {
			return
		}
		nameE := widget.NewEntry()
		nameE.SetText(ed.RenameDraftValue())
		dialog.NewForm("Rename Object", "Rename", "Cancel", []*widget.FormItem{
			widget.NewFormItem("Name", nameE),
		}, func(ok bool) {
			if !ok {
				ed.CancelRename()
				return
			}
			ed.SetRenameDraft(nameE.Text)
			pushUndo()
			ed.ConfirmRename()
			commit()
			rebuildContentView()
		}, w).Show()
	}

	showDeleteConfirm := func(id string) {
		ed.OpenDeleteConfirm(id)
		if ed.DeleteConfirmItemID() != id {
			return
		}
		dialog.NewConfirm("Delete Object", "Delete this object and its registered items?", func(ok bool) {
			if !ok {
				ed.CloseDeleteConfirm()
				return
			}
			pushUndo()
			ed.ConfirmDelete()
			commit()
		}, w).Show()
	}

	rowText := func(r domain.ContentRow) string {
		return fmt.Sprintf("%s  |  %s  |  %d", r.Name, r.Category, r.Count)
	}

	rebuildContentView = func() {
		it := ed.CurrentPopupItem()
		if it == nil {
			contentBody.Objects = []fyne.CanvasObject{widget.NewLabel("No object")}
			contentBody.Refresh()
			return
		}
		title := widget.NewLabel(it.Name)
		title.TextStyle = fyne.TextStyle{Bold: true}

		rowsBox := container.NewVBox()
		rows := ed.PopupContents()
		if len(rows) == 0 {
			rowsBox.Add(widget.NewLabel("No items registered."))
		}
		if ed.SelectionMode() {
			selected := ed.SelectedRowIndices()
			isSel := func(i int) bool {
				for _, v := range selected {
					if v == i {
						return true
					}
				}
				return false
			}
			for i, r := range rows {
				i := i
				chk := widget.NewCheck(rowText(r), nil)
				chk.SetChecked(isSel(i))
				chk.OnChanged = func(bool) { ed.ToggleRowSelection(i) }
				rowsBox.Add(chk)
			}
		} else {
			for _, r := range rows {
				rowsBox.Add(widget.NewLabel(rowText(r)))
			}
		}

		nestedBox := container.NewVBox()
		if ed.ViewingNestedID() == "" && len(it.Nested) > 0 {
			nestedBox.Add(widget.NewSeparator())
			nestedBox.Add(widget.NewLabel("Nested objects"))
			for _, n := range it.Nested {
				n := n
				nestedBox.Add(widget.NewButton("Open "+n.Name, func() {
					ed.OpenNestedContents(n.ID)
					rebuildContentView()
				}))
			}
		}

		buttons := container.NewVBox()
		if ed.SelectionMode() {
			buttons.Add(widget.NewButton("Delete Selected Rows", func() {
				pushUndo()
				ed.DeleteSelectedRows()
				commit()
				rebuildContentView()
			}))
			buttons.Add(widget.NewButton("Cancel Selection", func() {
				ed.CancelSelectionMode()
				rebuildContentView()
			}))
		} else {
			buttons.Add(widget.NewButton("Add Item", showRegisterForm))
			if len(rows) > 0 {
				buttons.Add(widget.NewButton("Select Rows", func() {
					ed.EnterSelectionMode()
					rebuildContentView()
				}))
			}
			buttons.Add(widget.NewButton("Rename", showRenameForm))
		}
		if ed.ViewingNestedID() != "" {
			parentID := ed.PopupItemID()
			nestedID := ed.ViewingNestedID()
			buttons.Add(widget.NewButton("Back", func() {
				ed.CloseNestedView()
				rebuildContentView()
			}))
			buttons.Add(widget.NewButton("Move to Canvas", func() {
				pushUndo()
				ed.UnnestToCanvas(parentID, nestedID, nil)
				commit()
				rebuildContentView()
			}))
		} else {
			targetID := it.ID
			buttons.Add(widget.NewButton("Delete Object", func() {
				if contentDlg != nil {
					contentDlg.Hide()
				}
				showDeleteConfirm(targetID)
			}))
		}

		contentBody.Objects = []fyne.CanvasObject{container.NewBorder(
			container.NewVBox(title, widget.NewSeparator()),
			buttons,
			nil, nil,
			container.NewVScroll(container.NewVBox(rowsBox, nestedBox)),
		)}
		contentBody.Refresh()
	}

	openContentDialog := func(id string) {
		ed.OpenPopupFor(id)
		if ed.PopupItemID() != id {
			return
		}
		rebuildContentView()
		contentDlg = dialog.NewCustom("Contents", "Close", contentBody, w)
		contentDlg.SetOnClosed(func() {
			ed.ClosePopup()
			refresh()
		})
		contentDlg.Resize(fyne.NewSize(480, 460))
		contentDlg.Show()
	}

	showNestConfirm := func() {
		p := ed.NestPending()
		if p == nil {
			return
		}
		dragName, targetName := p.DragItemID, p.TargetItemID
		for _, it := range ed.Items() {
			if it.ID == p.DragItemID {
				dragName = it.Name
			}
			if it.ID == p.TargetItemID {
				targetName = it.Name
			}
		}
		dialog.NewConfirm("Nest Object", fmt.Sprintf("Place %q inside %q?", dragName, targetName), func(ok bool) {
			if ok {
				pushUndo()
				ed.ConfirmNest()
				commit()
			} else {
				ed.CancelNest()
				refresh()
			}
		}, w).Show()
	}

	// Stage gesture wiring. Long press (or right click) asks to delete;
	// double tap opens the contents view.
	stage.OnChanged = updateStatus
	stage.OnLongPress = func(id string) {
		fyne.Do(func() { showDeleteConfirm(id) })
	}
	stage.OnOpenItem = openContentDialog
	stage.OnMutate = pushUndo
	stage.OnDragDone = func(id string, x, y float64) {
		ed.DragEndWithNestCheck(id, x, y)
		if ed.NestPending() != nil {
			refresh()
			showNestConfirm()
			return
		}
		commit()
	}

	// Catalog palette (left)
	palette := container.NewVBox(widget.NewLabel("Objects"), widget.NewSeparator())
	for _, t := range cat.Types() {
		t := t
		palette.Add(widget.NewButton("Add "+t.Label, func() {
			pushUndo()
			ed.AddObjectFromType(t, nil)
			commit()
		}))
	}

	// Contents search (right)
	searchName := widget.NewEntry()
	searchName.SetPlaceHolder("item name")
	searchCat := widget.NewEntry()
	searchCat.SetPlaceHolder("category")
	results := []string{}
	resultNames := []string{}
	resultsList := widget.NewList(
		func() int { return len(results) },
		func() fyne.CanvasObject { return widget.NewLabel("") },
		func(i widget.ListItemID, o fyne.CanvasObject) {
			if i >= 0 && int(i) < len(results) {
				o.(*widget.Label).SetText(results[i])
			}
		},
	)
	resultsList.OnSelected = func(i widget.ListItemID) {
		if i < 0 || int(i) >= len(resultNames) {
			return
		}
		stage.HighlightByName(resultNames[i])
		refresh()
	}
	applyMatches := func(names []string, parents []string) {
		results = results[:0]
		resultNames = resultNames[:0]
		for i, n := range names {
			label := n
			if parents[i] != "" {
				label = fmt.Sprintf("%s (in %s)", n, parents[i])
			}
			results = append(results, label)
			resultNames = append(resultNames, n)
		}
		if len(results) == 0 {
			results = append(results, "No matches.")
			resultNames = append(resultNames, "")
		}
		resultsList.UnselectAll()
		resultsList.Refresh()
	}
	searchLocal := widget.NewButton("Search Local", func() {
		if lh == nil {
			dialog.ShowInformation("Search", "Open a layout first.", w)
			return
		}
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		matches, err := storage.SearchContents(ctx, lh.Root, searchName.Text, searchCat.Text)
		if err != nil {
			dialog.ShowError(err, w)
			return
		}
		names := make([]string, len(matches))
		parents := make([]string, len(matches))
		for i, m := range matches {
			names[i] = m.TableName
			parents[i] = m.ParentTableName
		}
		applyMatches(names, parents)
	})
	searchServer := widget.NewButton("Search Server", func() {
		if client == nil {
			dialog.ShowInformation("Search", "Backend is not configured.", w)
			return
		}
		name, category := searchName.Text, searchCat.Text
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), cfg.Backend.EffectiveTimeout())
			defer cancel()
			matches, err := client.SearchContents(ctx, name, category)
			fyne.Do(func() {
				if err != nil {
					dialog.ShowError(err, w)
					return
				}
				names := make([]string, len(matches))
				parents := make([]string, len(matches))
				for i, m := range matches {
					names[i] = m.TableName
					parents[i] = m.ParentTableName
				}
				applyMatches(names, parents)
			})
		}()
	})
	searchPanel := container.NewBorder(
		container.NewVBox(widget.NewLabel("Search Contents"), searchName, searchCat, searchLocal, searchServer, widget.NewSeparator()),
		nil, nil, nil,
		resultsList,
	)

	// Undo / redo
	doUndo := func() {
		s, ok := undoMgr.Undo()
		if !ok {
			dialog.ShowInformation("Undo", "Nothing to undo.", w)
			return
		}
		if err := ed.Restore(s.Blob); err != nil {
			dialog.ShowError(err, w)
			return
		}
		saveIfOpen()
		refresh()
	}
	doRedo := func() {
		s, ok := undoMgr.Redo()
		if !ok {
			dialog.ShowInformation("Redo", "Nothing to redo.", w)
			return
		}
		if err := ed.Restore(s.Blob); err != nil {
			dialog.ShowError(err, w)
			return
		}
		saveIfOpen()
		refresh()
	}

	deleteSelection := func() {
		ids := ed.SelectedIDs()
		if len(ids) == 0 {
			dialog.ShowInformation("Delete", "Nothing selected.", w)
			return
		}
		showDeleteConfirm(ids[0])
	}

	// Layout open/new/save
	loadHandle := func(h *storage.LayoutHandle) {
		lh = h
		ed.LoadLayout(&h.Layout)
		undoMgr.Clear()
		pushUndo()
		stage.ClearHighlight()
		refresh()
		l.Info("layout opened", slog.String("root", h.Root), slog.String("name", h.Layout.Name))
	}
	openLayout := func(dir string) {
		h, err := storage.Open(dir)
		if err != nil {
			dialog.ShowError(err, w)
			return
		}
		loadHandle(h)
	}
	openLayoutDialog := func() {
		fd := dialog.NewFolderOpen(func(uri fyne.ListableURI, err error) {
			if err != nil || uri == nil {
				return
			}
			openLayout(uri.Path())
		}, w)
		fd.Show()
	}
	newLayoutDialog := func() {
		fd := dialog.NewFolderOpen(func(uri fyne.ListableURI, err error) {
			if err != nil || uri == nil {
				return
			}
			base := uri.Path()
			nameE := widget.NewEntry()
			form := dialog.NewForm("New Layout", "Create", "Cancel", []*widget.FormItem{
				widget.NewFormItem("Name", nameE),
			}, func(ok bool) {
				if !ok {
					return
				}
				name := strings.TrimSpace(nameE.Text)
				if name == "" {
					dialog.ShowInformation("New Layout", "Please enter a layout name.", w)
					return
				}
				st := ed.Stage()
				h, ierr := storage.InitLayout(filepath.Join(base, name), domain.Layout{
					Name:        name,
					StageWidth:  st.W,
					StageHeight: st.H,
				})
				if ierr != nil {
					dialog.ShowError(ierr, w)
					return
				}
				loadHandle(h)
			}, w)
			form.Show()
		}, w)
		fd.Show()
	}
	saveLayout := func() {
		if lh == nil {
			dialog.ShowInformation("Save", "No layout open.", w)
			return
		}
		saveIfOpen()
		status.SetText("Saved " + lh.ManifestPath)
	}

	exportPNG := func() {
		if lh == nil {
			dialog.ShowInformation("Export PNG", "No layout open.", w)
			return
		}
		save := dialog.NewFileSave(func(uc fyne.URIWriteCloser, err error) {
			if err != nil || uc == nil {
				return
			}
			outPath := uc.URI().Path()
			_ = uc.Close()
			lh.Layout = layoutFromEditor()
			if err := export.ExportLayoutPNG(lh, outPath, export.PNGOptions{IncludeLabels: true}); err != nil {
				dialog.ShowError(err, w)
				return
			}
			dialog.ShowInformation("Export PNG", "Exported to "+outPath, w)
		}, w)
		save.SetFileName(defaultExportName(lh, "png"))
		save.Show()
	}
	exportPDF := func() {
		if lh == nil {
			dialog.ShowInformation("Export PDF", "No layout open.", w)
			return
		}
		save := dialog.NewFileSave(func(uc fyne.URIWriteCloser, err error) {
			if err != nil || uc == nil {
				return
			}
			outPath := uc.URI().Path()
			_ = uc.Close()
			lh.Layout = layoutFromEditor()
			if err := export.ExportLayoutPDF(lh, outPath, export.PDFOptions{IncludeLabels: true, IncludeFrame: true}); err != nil {
				dialog.ShowError(err, w)
				return
			}
			dialog.ShowInformation("Export PDF", "Exported to "+outPath, w)
		}, w)
		save.SetFileName(defaultExportName(lh, "pdf"))
		save.Show()
	}

	// Account
	authForm := func(title, action string, run func(ctx context.Context, user, pass string) error) {
		userE := widget.NewEntry()
		passE := widget.NewPasswordEntry()
		dialog.NewForm(title, action, "Cancel", []*widget.FormItem{
			widget.NewFormItem("Username", userE),
			widget.NewFormItem("Password", passE),
		}, func(ok bool) {
			if !ok {
				return
			}
			user, pass := userE.Text, passE.Text
			go func() {
				ctx, cancel := context.WithTimeout(context.Background(), cfg.Backend.EffectiveTimeout())
				defer cancel()
				err := run(ctx, user, pass)
				fyne.Do(func() {
					if err != nil {
						dialog.ShowError(err, w)
						return
					}
					status.SetText(title + " succeeded for " + user)
				})
			}()
		}, w).Show()
	}
	loginDialog := func() {
		if client == nil {
			dialog.ShowInformation("Login", "Backend is not configured.", w)
			return
		}
		authForm("Login", "Login", func(ctx context.Context, user, pass string) error {
			_, err := client.Login(ctx, user, pass)
			return err
		})
	}
	registerDialog := func() {
		if client == nil {
			dialog.ShowInformation("Register", "Backend is not configured.", w)
			return
		}
		authForm("Register", "Register", func(ctx context.Context, user, pass string) error {
			return client.Register(ctx, user, pass)
		})
	}
	logoutDialog := func() {
		if client == nil {
			dialog.ShowInformation("Logout", "Backend is not configured.", w)
			return
		}
		dialog.NewConfirm("Logout", "Log out from the server?", func(ok bool) {
			if !ok {
				return
			}
			go func() {
				ctx, cancel := context.WithTimeout(context.Background(), cfg.Backend.EffectiveTimeout())
				defer cancel()
				err := client.Logout(ctx)
				fyne.Do(func() {
					if err != nil {
						dialog.ShowError(err, w)
						return
					}
					status.SetText("Logged out")
				})
			}()
		}, w).Show()
	}

	// Menus
	newItem := fyne.NewMenuItem("New Layout…", newLayoutDialog)
	openItem := fyne.NewMenuItem("Open Layout…", openLayoutDialog)
	saveItem := fyne.NewMenuItem("Save", saveLayout)
	newItem.Shortcut = &desktop.CustomShortcut{KeyName: fyne.KeyN, Modifier: fyne.KeyModifierControl}
	openItem.Shortcut = &desktop.CustomShortcut{KeyName: fyne.KeyO, Modifier: fyne.KeyModifierControl}
	saveItem.Shortcut = &desktop.CustomShortcut{KeyName: fyne.KeyS, Modifier: fyne.KeyModifierControl}
	fileMenu := fyne.NewMenu("File",
		newItem, openItem, saveItem,
		fyne.NewMenuItemSeparator(),
		fyne.NewMenuItem("Export PNG…", exportPNG),
		fyne.NewMenuItem("Export PDF…", exportPDF),
	)
	undoItem := fyne.NewMenuItem("Undo", doUndo)
	redoItem := fyne.NewMenuItem("Redo", doRedo)
	undoItem.Shortcut = &desktop.CustomShortcut{KeyName: fyne.KeyZ, Modifier: fyne.KeyModifierControl}
	redoItem.Shortcut = &desktop.CustomShortcut{KeyName: fyne.KeyY, Modifier: fyne.KeyModifierControl}
	editMenu := fyne.NewMenu("Edit",
		undoItem, redoItem,
		fyne.NewMenuItemSeparator(),
		fyne.NewMenuItem("Delete Selected…", deleteSelection),
		fyne.NewMenuItem("Clear Selection", func() {
			ed.ClearSelection()
			refresh()
		}),
	)
	accountMenu := fyne.NewMenu("Account",
		fyne.NewMenuItem("Login…", loginDialog),
		fyne.NewMenuItem("Register…", registerDialog),
		fyne.NewMenuItem("Logout…", logoutDialog),
	)
	w.SetMainMenu(fyne.NewMainMenu(fileMenu, editMenu, accountMenu))

	w.Canvas().AddShortcut(&desktop.CustomShortcut{KeyName: fyne.KeyZ, Modifier: fyne.KeyModifierControl}, func(fyne.Shortcut) { doUndo() })
	w.Canvas().AddShortcut(&desktop.CustomShortcut{KeyName: fyne.KeyY, Modifier: fyne.KeyModifierControl}, func(fyne.Shortcut) { doRedo() })
	w.Canvas().AddShortcut(&desktop.CustomShortcut{KeyName: fyne.KeyS, Modifier: fyne.KeyModifierControl}, func(fyne.Shortcut) { saveLayout() })

	w.SetContent(container.NewBorder(
		nil, status,
		container.NewVScroll(palette), searchPanel,
		container.NewScroll(stage),
	))

	if layoutDir != "" {
		openLayout(layoutDir)
	} else {
		updateStatus()
	}

	// Report the current session, if any, once the window is up.
	if client != nil {
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), cfg.Backend.EffectiveTimeout())
			defer cancel()
			if u, err := client.Me(ctx); err == nil && u != nil {
				fyne.Do(func() { status.SetText("Logged in as " + u.Username) })
			}
		}()
	}

	w.SetOnClosed(func() {
		prefs.SetInt("window.width", int(w.Canvas().Size().Width))
		prefs.SetInt("window.height", int(w.Canvas().Size().Height))
	})
	w.ShowAndRun()

	if rsync != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		rsync.Flush(ctx)
		cancel()
		rsync.Close()
	}
	return nil
}

func defaultExportName(lh *storage.LayoutHandle, ext string) string {
	name := strings.TrimSpace(lh.Layout.Name)
	if name == "" {
		name = "layout"
	}
	return fmt.Sprintf("%s.%s", strings.ReplaceAll(name, " ", "-"), ext)
}

// StageCanvas renders the item graph at 1:1 stage coordinates and feeds
// pointer gestures into the editor. Group moves commit immediately; a
// single-item drag is previewed visually and resolved on drag end so a
// pending nest never moves the item prematurely.
type StageCanvas struct {
	widget.BaseWidget

	ed *editor.Editor

	OnLongPress func(itemID string)
	OnOpenItem  func(itemID string)
	OnDragDone  func(itemID string, x, y float64)
	OnMutate    func()
	OnChanged   func()

	lp   *editor.LongPressTracker
	drag editor.DragTracker

	dragID         string
	dragGroup      bool
	dragX, dragY   float64 // visual preview offset for single-item drags
	highlightName  string
	groupPushed    bool
}

func NewStageCanvas(ed *editor.Editor) *StageCanvas {
	s := &StageCanvas{ed: ed}
	s.lp = editor.NewLongPressTracker(editor.LongPressDuration, func(itemID string) {
		if s.OnLongPress != nil {
			s.OnLongPress(itemID)
		}
	})
	s.ExtendBaseWidget(s)
	return s
}

func (s *StageCanvas) CreateRenderer() fyne.WidgetRenderer {
	bg := canvas.NewRectangle(color.RGBA{R: 249, G: 250, B: 251, A: 255})
	bg.StrokeColor = color.RGBA{R: 156, G: 163, B: 175, A: 255}
	bg.StrokeWidth = 1
	return &stageRenderer{sc: s, bg: bg, objects: []fyne.CanvasObject{bg}}
}

func (s *StageCanvas) MinSize() fyne.Size {
	st := s.ed.Stage()
	return fyne.NewSize(float32(st.W), float32(st.H))
}

// HighlightByName marks all items with the given display name for the
// next repaint. An empty name clears the highlight.
func (s *StageCanvas) HighlightByName(name string) { s.highlightName = strings.TrimSpace(name) }

func (s *StageCanvas) ClearHighlight() { s.highlightName = "" }

func (s *StageCanvas) hitTest(pos fyne.Position) string {
	items := s.ed.Items()
	p := geometry.Pt{X: float64(pos.X), Y: float64(pos.Y)}
	for i := len(items) - 1; i >= 0; i-- {
		it := items[i]
		if geometry.R(it.X, it.Y, it.Width, it.Height).Contains(p) {
			return it.ID
		}
	}
	return ""
}

func (s *StageCanvas) itemByID(id string) *domain.Item {
	for _, it := range s.ed.Items() {
		if it.ID == id {
			return it
		}
	}
	return nil
}

// Tapped toggles selection for the hit item; tapping empty stage clears
// the selection.
func (s *StageCanvas) Tapped(e *fyne.PointEvent) {
	id := s.hitTest(e.Position)
	if id == "" {
		s.ed.ClearSelection()
	} else {
		s.ed.ToggleSelect(id)
	}
	s.Refresh()
	if s.OnChanged != nil {
		s.OnChanged()
	}
}

// TappedSecondary is the desktop shortcut for the press-and-hold gesture.
func (s *StageCanvas) TappedSecondary(e *fyne.PointEvent) {
	if id := s.hitTest(e.Position); id != "" && s.OnLongPress != nil {
		s.OnLongPress(id)
	}
}

// DoubleTapped opens the contents view for the hit item.
func (s *StageCanvas) DoubleTapped(e *fyne.PointEvent) {
	if id := s.hitTest(e.Position); id != "" && s.OnOpenItem != nil {
		s.OnOpenItem(id)
	}
}

func (s *StageCanvas) MouseDown(e *desktop.MouseEvent) {
	if id := s.hitTest(e.Position); id != "" {
		s.lp.Press(id)
	}
}

func (s *StageCanvas) MouseUp(_ *desktop.MouseEvent) { s.lp.Release() }

func (s *StageCanvas) Dragged(e *fyne.DragEvent) {
	s.lp.Release()
	if s.dragID == "" {
		start := fyne.NewPos(e.Position.X-e.Dragged.DX, e.Position.Y-e.Dragged.DY)
		id := s.hitTest(start)
		if id == "" {
			return
		}
		s.dragID = id
		s.dragGroup = s.ed.IsSelected(id) && len(s.ed.SelectedIDs()) > 1
		s.dragX, s.dragY = 0, 0
		s.groupPushed = false
		s.drag.Begin(float64(start.X), float64(start.Y))
	}
	dx, dy := s.drag.MoveTo(float64(e.Position.X), float64(e.Position.Y))
	if s.dragGroup {
		if !s.groupPushed && s.OnMutate != nil {
			s.OnMutate()
			s.groupPushed = true
		}
		s.ed.MoveSelectedBy(dx, dy)
	} else {
		s.dragX += dx
		s.dragY += dy
	}
	s.Refresh()
}

func (s *StageCanvas) DragEnd() {
	id := s.dragID
	group := s.dragGroup
	offX, offY := s.dragX, s.dragY
	s.dragID = ""
	s.dragGroup = false
	s.dragX, s.dragY = 0, 0
	s.drag.End()
	if id == "" {
		return
	}
	if group {
		if s.OnChanged != nil {
			s.OnChanged()
		}
		return
	}
	it := s.itemByID(id)
	if it == nil {
		return
	}
	if s.OnMutate != nil {
		s.OnMutate()
	}
	if s.OnDragDone != nil {
		s.OnDragDone(id, it.X+offX, it.Y+offY)
	}
}

type stageRenderer struct {
	sc      *StageCanvas
	bg      *canvas.Rectangle
	rects   []*canvas.Rectangle
	labels  []*canvas.Text
	objects []fyne.CanvasObject
}

func (r *stageRenderer) Destroy()                     {}
func (r *stageRenderer) Objects() []fyne.CanvasObject { return r.objects }
func (r *stageRenderer) MinSize() fyne.Size           { return r.sc.MinSize() }
func (r *stageRenderer) Refresh()                     { r.Layout(r.sc.Size()); canvas.Refresh(r.sc) }

type stageVisual struct {
	it     *domain.Item
	nested bool
}

func (r *stageRenderer) Layout(_ fyne.Size) {
	st := r.sc.ed.Stage()
	r.bg.Resize(fyne.NewSize(float32(st.W), float32(st.H)))
	r.bg.Move(fyne.NewPos(0, 0))

	var flat []stageVisual
	var walk func(it *domain.Item, nested bool)
	walk = func(it *domain.Item, nested bool) {
		flat = append(flat, stageVisual{it: it, nested: nested})
		for _, n := range it.Nested {
			walk(n, true)
		}
	}
	for _, it := range r.sc.ed.Items() {
		walk(it, false)
	}

	for len(r.rects) < len(flat) {
		rect := canvas.NewRectangle(color.RGBA{R: 220, G: 220, B: 220, A: 255})
		rect.StrokeWidth = 1
		label := canvas.NewText("", color.RGBA{R: 17, G: 24, B: 39, A: 255})
		label.TextSize = 12
		r.rects = append(r.rects, rect)
		r.labels = append(r.labels, label)
		r.objects = append(r.objects, rect, label)
	}

	for i, rect := range r.rects {
		if i >= len(flat) {
			rect.Hide()
			r.labels[i].Hide()
			continue
		}
		v := flat[i]
		it := v.it
		x, y := it.X, it.Y
		if !v.nested && it.ID == r.sc.dragID {
			x += r.sc.dragX
			y += r.sc.dragY
		}
		rect.FillColor = stageFill(it.Fill, v.nested)
		switch {
		case r.sc.highlightName != "" && strings.TrimSpace(it.Name) == r.sc.highlightName:
			rect.StrokeColor = color.RGBA{R: 245, G: 158, B: 11, A: 255}
			rect.StrokeWidth = 3
		case !v.nested && r.sc.ed.IsSelected(it.ID):
			rect.StrokeColor = color.RGBA{R: 0, G: 170, B: 255, A: 255}
			rect.StrokeWidth = 2
		default:
			rect.StrokeColor = color.RGBA{R: 31, G: 41, B: 55, A: 255}
			rect.StrokeWidth = 1
		}
		rect.Resize(fyne.NewSize(float32(it.Width), float32(it.Height)))
		rect.Move(fyne.NewPos(float32(x), float32(y)))
		rect.Show()

		label := r.labels[i]
		label.Text = it.Name
		label.Move(fyne.NewPos(float32(x)+4, float32(y)+2))
		label.Show()
	}
}

// stageFill parses the item's hex fill. Nested items are rendered with a
// lighter tone so the containment reads at a glance.
func stageFill(hex string, nested bool) color.Color {
	c := color.RGBA{R: 209, G: 213, B: 219, A: 255}
	var rr, gg, bb uint8
	s := strings.TrimSpace(hex)
	if len(s) == 7 && s[0] == '#' {
		if _, err := fmt.Sscanf(s[1:], "%02x%02x%02x", &rr, &gg, &bb); err == nil {
			c = color.RGBA{R: rr, G: gg, B: bb, A: 255}
		}
	}
	if nested {
		c.A = 160
	}
	return c
}
