/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package editor implements the canvas editing model: the item graph
// with nesting, multi-selection with group move, the popup overlay state
// machine and the gesture trackers. All operations run on the UI event
// thread; lookups on stale ids degrade to no-ops instead of failing, and
// remote persistence is best-effort through the Syncer.
package editor

import (
	"encoding/json"
	"log/slog"
	"strings"

	"github.com/pasta-break-man/sumapuro/internal/catalog"
	"github.com/pasta-break-man/sumapuro/internal/domain"
	"github.com/pasta-break-man/sumapuro/internal/geometry"
	applog "github.com/pasta-break-man/sumapuro/internal/log"
)

// Syncer receives best-effort persistence notifications. Implementations
// must never block the caller; the canvas state is authoritative and a
// failed or dropped notification has no local effect.
type Syncer interface {
	AddContent(objectName string, row domain.ContentRow)
	DeleteContents(objectName string, indices []int)
	RenameObject(oldName, newName string)
	DeleteObject(name string)
}

// NopSyncer discards every notification.
type NopSyncer struct{}

func (NopSyncer) AddContent(string, domain.ContentRow) {}
func (NopSyncer) DeleteContents(string, []int)         {}
func (NopSyncer) RenameObject(string, string)          {}
func (NopSyncer) DeleteObject(string)                  {}

// Editor composes the object graph, the selection set and the popup
// state machine behind one single-threaded facade.
type Editor struct {
	graph *graph
	sel   selection
	popup popup
	sync  Syncer
	log   *slog.Logger
}

// New creates an editor for the given stage size. A nil syncer falls
// back to NopSyncer.
func New(stage geometry.Size, sync Syncer) *Editor {
	if sync == nil {
		sync = NopSyncer{}
	}
	return &Editor{
		graph: newGraph(stage),
		sync:  sync,
		log:   applog.WithComponent("editor"),
	}
}

// Items returns the top-level items in placement order. Callers must not
// mutate the returned items.
func (e *Editor) Items() []*domain.Item { return e.graph.items }

// Stage returns the stage size the editor was created with.
func (e *Editor) Stage() geometry.Size { return e.graph.stage }

// --- graph operations ---

// AddObjectFromType places a new item from a catalog template. A nil
// position selects the default placement.
func (e *Editor) AddObjectFromType(t catalog.ObjectType, pos *geometry.Pt) *domain.Item {
	it := e.graph.addFromType(t, pos)
	e.log.Debug("object added", slog.String("id", it.ID), slog.String("name", it.Name))
	return it
}

// MoveItem overwrites an item's position (plain drag end).
func (e *Editor) MoveItem(id string, x, y float64) { e.graph.move(id, x, y) }

// ResizeItem overwrites position and size; width and height are clamped
// to MinSize.
func (e *Editor) ResizeItem(id string, r geometry.Rect) { e.graph.resize(id, r) }

// DragEndWithNestCheck resolves a drag end: if the dropped rect strictly
// overlaps another top-level item, a nest-confirm overlay opens and the
// move is withheld; otherwise the move applies immediately.
func (e *Editor) DragEndWithNestCheck(id string, x, y float64) {
	if e.graph.find(id) == nil {
		return
	}
	if targetID, ok := e.graph.overlapTarget(id, x, y); ok {
		e.popup.openNestConfirm(NestPending{DragItemID: id, NewX: x, NewY: y, TargetItemID: targetID})
		return
	}
	e.graph.move(id, x, y)
}

// NestPending returns the pending nest operation, or nil.
func (e *Editor) NestPending() *NestPending {
	if e.popup.overlay != OverlayNestConfirm {
		return nil
	}
	return e.popup.nestPending
}

// ConfirmNest applies the pending nest: the dragged item leaves the
// top-level list, takes the drop position and joins the target's nested
// list. The backend tables are untouched; only the canvas changes.
func (e *Editor) ConfirmNest() {
	pending := e.NestPending()
	if pending == nil {
		return
	}
	if e.graph.nest(*pending) {
		e.sel.remove(pending.DragItemID)
		e.log.Debug("object nested",
			slog.String("id", pending.DragItemID), slog.String("target", pending.TargetItemID))
	}
	e.popup.closeNestConfirm()
}

// CancelNest discards the pending nest; the dragged item snaps back to
// its stored position.
func (e *Editor) CancelNest() { e.popup.closeNestConfirm() }

// UnnestToCanvas moves a nested item back onto the stage. A nil position
// centers it. If the popup is drilled into that item, the drill resets
// to the parent view.
func (e *Editor) UnnestToCanvas(parentID, nestedID string, pos *geometry.Pt) {
	if !e.graph.unnest(parentID, nestedID, pos) {
		return
	}
	if e.popup.overlay == OverlayContentView && e.popup.nestedID == nestedID {
		e.popup.drillBack()
	}
}

// RenameObject updates an item's display name. Empty trimmed names are
// ignored. The remote rename fires only when the name actually changed
// from a previous non-empty name.
func (e *Editor) RenameObject(id, newName string, isNested bool, parentID string) {
	trimmed := strings.TrimSpace(newName)
	if trimmed == "" {
		return
	}
	var it *domain.Item
	if isNested && parentID != "" {
		it = e.graph.findNested(parentID, id)
	} else {
		it = e.graph.find(id)
	}
	if it == nil {
		return
	}
	oldName := it.Name
	it.Name = trimmed
	if oldName != "" && oldName != trimmed {
		e.sync.RenameObject(oldName, trimmed)
		e.log.Debug("object renamed", slog.String("from", oldName), slog.String("to", trimmed))
	}
}

// --- selection ---

// ToggleSelect flips the item's membership in the selection set. Only
// top-level items are selectable.
func (e *Editor) ToggleSelect(id string) {
	if e.graph.find(id) == nil {
		return
	}
	e.sel.toggle(id)
}

// ClearSelection empties the selection (background click).
func (e *Editor) ClearSelection() { e.sel.clear() }

// SelectedIDs returns the selected ids in insertion order.
func (e *Editor) SelectedIDs() []string { return e.sel.snapshot() }

// IsSelected reports membership in the selection set.
func (e *Editor) IsSelected(id string) bool { return e.sel.has(id) }

// MoveSelectedBy shifts every selected item by the delta. A zero delta
// short-circuits without touching any item.
func (e *Editor) MoveSelectedBy(dx, dy float64) {
	if dx == 0 && dy == 0 {
		return
	}
	for _, it := range e.graph.items {
		if e.sel.has(it.ID) {
			it.X += dx
			it.Y += dy
		}
	}
}

// --- content view popup ---

// OpenPopupFor opens the content view for a top-level item, resetting
// drill-down and sub-states. Refused while another overlay is active.
func (e *Editor) OpenPopupFor(id string) {
	if e.graph.find(id) == nil {
		return
	}
	if e.popup.overlay != OverlayNone && e.popup.overlay != OverlayContentView {
		return
	}
	e.popup.openContentView(id)
}

// ClosePopup dismisses the content view along with any open sub-state.
func (e *Editor) ClosePopup() { e.popup.closeContentView() }

// PopupItemID returns the id the content view was opened for, or "".
func (e *Editor) PopupItemID() string {
	if e.popup.overlay != OverlayContentView {
		return ""
	}
	return e.popup.itemID
}

// ViewingNestedID returns the drilled-into nested id, or "".
func (e *Editor) ViewingNestedID() string {
	if e.popup.overlay != OverlayContentView {
		return ""
	}
	return e.popup.nestedID
}

// CurrentPopupItem resolves the active popup target: the drilled nested
// child when drilled, else the top-level item. Nil when no popup is open
// or the target vanished.
func (e *Editor) CurrentPopupItem() *domain.Item {
	if e.popup.overlay != OverlayContentView {
		return nil
	}
	if e.popup.nestedID != "" {
		return e.graph.findNested(e.popup.itemID, e.popup.nestedID)
	}
	return e.graph.find(e.popup.itemID)
}

// PopupContents returns the active target's rows, or nil.
func (e *Editor) PopupContents() []domain.ContentRow {
	if it := e.CurrentPopupItem(); it != nil {
		return it.Contents
	}
	return nil
}

// OpenNestedContents drills the content view into a nested child of the
// current popup item.
func (e *Editor) OpenNestedContents(nestedID string) {
	if e.popup.overlay != OverlayContentView {
		return
	}
	if e.graph.findNested(e.popup.itemID, nestedID) == nil {
		return
	}
	e.popup.drillInto(nestedID)
}

// CloseNestedView returns from a drilled child to the parent view.
func (e *Editor) CloseNestedView() {
	if e.popup.overlay == OverlayContentView {
		e.popup.drillBack()
	}
}

// --- register sub-state ---

// OpenRegisterPopup opens the row entry form with a blank draft.
func (e *Editor) OpenRegisterPopup() {
	if e.popup.overlay == OverlayContentView {
		e.popup.openRegister()
	}
}

// CloseRegisterPopup discards the draft.
func (e *Editor) CloseRegisterPopup() { e.popup.closeRegister() }

// RegisterPopupOpen reports whether the entry form is showing.
func (e *Editor) RegisterPopupOpen() bool {
	return e.popup.overlay == OverlayContentView && e.popup.registerOpen
}

// RegisterDraftValue returns the current draft.
func (e *Editor) RegisterDraftValue() RegisterDraft { return e.popup.registerDraft }

// SetRegisterDraft replaces the draft with the given form values.
func (e *Editor) SetRegisterDraft(d RegisterDraft) {
	if e.RegisterPopupOpen() {
		e.popup.registerDraft = d
	}
}

// ConfirmRegisterAdd normalizes the draft into a row, appends it to the
// active target's contents, closes the form and notifies the backend.
func (e *Editor) ConfirmRegisterAdd() {
	target := e.CurrentPopupItem()
	if target == nil || !e.popup.registerOpen {
		return
	}
	d := e.popup.registerDraft
	row := domain.NewContentRow(d.Name, d.Category, d.Count)
	target.Contents = domain.AddContentRow(target.Contents, row)
	e.popup.closeRegister()
	if name := displayName(target); name != "" {
		e.sync.AddContent(name, row)
	}
}

// --- row selection sub-state ---

// EnterSelectionMode switches the content view into row-selection mode.
func (e *Editor) EnterSelectionMode() {
	if e.popup.overlay == OverlayContentView {
		e.popup.enterSelectionMode()
	}
}

// CancelSelectionMode returns to plain viewing.
func (e *Editor) CancelSelectionMode() { e.popup.cancelSelectionMode() }

// SelectionMode reports whether row-selection mode is active.
func (e *Editor) SelectionMode() bool {
	return e.popup.overlay == OverlayContentView && e.popup.selectionMode
}

// ToggleRowSelection flips membership of a row index in the pending
// delete set.
func (e *Editor) ToggleRowSelection(index int) {
	if e.SelectionMode() {
		e.popup.toggleRow(index)
	}
}

// SelectedRowIndices returns the marked row indices in toggle order.
func (e *Editor) SelectedRowIndices() []int {
	return append([]int(nil), e.popup.selectedRows...)
}

// DeleteSelectedRows removes the marked rows from the active target,
// leaves selection mode and notifies the backend.
func (e *Editor) DeleteSelectedRows() {
	target := e.CurrentPopupItem()
	if target == nil || len(e.popup.selectedRows) == 0 {
		return
	}
	indices := append([]int(nil), e.popup.selectedRows...)
	target.Contents = domain.DeleteContentRowsByIndices(target.Contents, indices)
	e.popup.cancelSelectionMode()
	if name := displayName(target); name != "" {
		e.sync.DeleteContents(name, indices)
	}
}

// --- rename sub-state ---

// OpenRenameDraft opens the rename form seeded with the active target's
// current name.
func (e *Editor) OpenRenameDraft() {
	target := e.CurrentPopupItem()
	if target == nil {
		return
	}
	e.popup.openRename(target.Name)
}

// RenameDraftOpen reports whether the rename form is showing.
func (e *Editor) RenameDraftOpen() bool {
	return e.popup.overlay == OverlayContentView && e.popup.renameOpen
}

// RenameDraftValue returns the rename form text.
func (e *Editor) RenameDraftValue() string { return e.popup.renameDraft }

// SetRenameDraft replaces the rename form text.
func (e *Editor) SetRenameDraft(s string) {
	if e.RenameDraftOpen() {
		e.popup.renameDraft = s
	}
}

// ConfirmRename applies the draft to the active target and closes the
// form. Empty trimmed drafts are ignored.
func (e *Editor) ConfirmRename() {
	target := e.CurrentPopupItem()
	if target == nil || !e.popup.renameOpen {
		return
	}
	draft := e.popup.renameDraft
	if strings.TrimSpace(draft) == "" {
		return
	}
	if target.ParentID != "" {
		e.RenameObject(target.ID, draft, true, target.ParentID)
	} else {
		e.RenameObject(target.ID, draft, false, "")
	}
	e.popup.closeRename()
}

// CancelRename discards the rename form.
func (e *Editor) CancelRename() { e.popup.closeRename() }

// --- delete confirm ---

// OpenDeleteConfirm arms the delete overlay for an item (long-press
// target). Refused while another overlay is active.
func (e *Editor) OpenDeleteConfirm(id string) { e.popup.openDeleteConfirm(id) }

// CloseDeleteConfirm dismisses the overlay without deleting.
func (e *Editor) CloseDeleteConfirm() { e.popup.closeDeleteConfirm() }

// DeleteConfirmItemID returns the id awaiting delete confirmation, or "".
func (e *Editor) DeleteConfirmItemID() string {
	if e.popup.overlay != OverlayDeleteConfirm {
		return ""
	}
	return e.popup.deleteItemID
}

// ConfirmDelete removes the armed item from the canvas, drops it from
// the selection and any popup state, and asks the backend to drop the
// object's table.
func (e *Editor) ConfirmDelete() {
	id := e.DeleteConfirmItemID()
	if id == "" {
		return
	}
	e.popup.closeDeleteConfirm()
	e.deleteItem(id)
}

// DeleteItem removes an item by id regardless of overlay state. Defined
// for nested ids as well as top-level ones.
func (e *Editor) DeleteItem(id string) { e.deleteItem(id) }

func (e *Editor) deleteItem(id string) {
	removed, ok := e.graph.remove(id)
	if !ok {
		return
	}
	e.sel.remove(id)
	e.popup.dropItem(id)
	if name := displayName(removed); name != "" {
		e.sync.DeleteObject(name)
		e.log.Debug("object deleted", slog.String("id", id), slog.String("name", name))
	}
}

// --- snapshots (undo and persistence) ---

// Snapshot serializes the item graph for undo and crash autosave.
func (e *Editor) Snapshot() ([]byte, error) {
	layout := domain.Layout{
		StageWidth:  e.graph.stage.W,
		StageHeight: e.graph.stage.H,
		Items:       e.graph.items,
	}
	return json.Marshal(&layout)
}

// Restore replaces the item graph from a snapshot, clearing selection
// and overlays.
func (e *Editor) Restore(data []byte) error {
	var layout domain.Layout
	if err := json.Unmarshal(data, &layout); err != nil {
		return err
	}
	e.graph.items = layout.Items
	e.sel.clear()
	e.popup.reset()
	return nil
}

// LoadLayout replaces the item graph from a parsed layout, clearing
// selection and overlays.
func (e *Editor) LoadLayout(l *domain.Layout) {
	if l == nil {
		return
	}
	if l.StageWidth > 0 && l.StageHeight > 0 {
		e.graph.stage = geometry.Size{W: l.StageWidth, H: l.StageHeight}
	}
	e.graph.items = l.Items
	e.sel.clear()
	e.popup.reset()
}
