/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package editor

// Overlay identifies which top-level modal is active. At most one of
// ContentView, DeleteConfirm and NestConfirm may be active at a time;
// register, rename and row-selection are sub-states of ContentView.
type Overlay int

const (
	OverlayNone Overlay = iota
	OverlayContentView
	OverlayDeleteConfirm
	OverlayNestConfirm
)

// NestPending records an overlap drop awaiting user confirmation. The
// dragged item's stored position stays untouched until confirmed.
type NestPending struct {
	DragItemID   string
	NewX, NewY   float64
	TargetItemID string
}

// RegisterDraft holds the raw form input for a new content row. Count is
// kept as entered and coerced on confirm.
type RegisterDraft struct {
	Name     string
	Category string
	Count    string
}

// popup is the overlay state machine.
type popup struct {
	overlay Overlay

	// ContentView state
	itemID        string // top-level item the popup was opened for
	nestedID      string // non-empty while drilled into a nested child
	selectionMode bool
	selectedRows  []int
	registerOpen  bool
	registerDraft RegisterDraft
	renameOpen    bool
	renameDraft   string

	// DeleteConfirm state
	deleteItemID string

	// NestConfirm state
	nestPending *NestPending
}

func (p *popup) reset() { *p = popup{} }

// openContentView activates the content view for a top-level item,
// resetting drill-down and all sub-states.
func (p *popup) openContentView(id string) {
	p.reset()
	p.overlay = OverlayContentView
	p.itemID = id
}

func (p *popup) closeContentView() {
	if p.overlay == OverlayContentView {
		p.reset()
	}
}

func (p *popup) drillInto(nestedID string) {
	p.nestedID = nestedID
	p.selectionMode = false
	p.selectedRows = nil
	p.renameOpen = false
	p.renameDraft = ""
}

func (p *popup) drillBack() { p.nestedID = "" }

func (p *popup) enterSelectionMode() {
	p.selectionMode = true
	p.selectedRows = nil
}

func (p *popup) cancelSelectionMode() {
	p.selectionMode = false
	p.selectedRows = nil
}

func (p *popup) toggleRow(index int) {
	for i, x := range p.selectedRows {
		if x == index {
			p.selectedRows = append(p.selectedRows[:i], p.selectedRows[i+1:]...)
			return
		}
	}
	p.selectedRows = append(p.selectedRows, index)
}

func (p *popup) openRegister() {
	p.registerDraft = RegisterDraft{}
	p.registerOpen = true
}

func (p *popup) closeRegister() {
	p.registerOpen = false
	p.registerDraft = RegisterDraft{}
}

func (p *popup) openRename(seed string) {
	p.renameDraft = seed
	p.renameOpen = true
}

func (p *popup) closeRename() {
	p.renameOpen = false
	p.renameDraft = ""
}

// openDeleteConfirm activates the delete overlay; refused while another
// overlay is up.
func (p *popup) openDeleteConfirm(id string) bool {
	if p.overlay != OverlayNone {
		return false
	}
	p.overlay = OverlayDeleteConfirm
	p.deleteItemID = id
	return true
}

func (p *popup) closeDeleteConfirm() {
	if p.overlay == OverlayDeleteConfirm {
		p.reset()
	}
}

func (p *popup) openNestConfirm(pending NestPending) bool {
	if p.overlay != OverlayNone {
		return false
	}
	p.overlay = OverlayNestConfirm
	p.nestPending = &pending
	return true
}

func (p *popup) closeNestConfirm() {
	if p.overlay == OverlayNestConfirm {
		p.reset()
	}
}

// dropItem clears any overlay state referencing the given item id.
func (p *popup) dropItem(id string) {
	switch {
	case p.overlay == OverlayContentView && p.itemID == id:
		p.reset()
	case p.overlay == OverlayContentView && p.nestedID == id:
		p.drillBack()
	case p.overlay == OverlayDeleteConfirm && p.deleteItemID == id:
		p.reset()
	case p.overlay == OverlayNestConfirm && p.nestPending != nil &&
		(p.nestPending.DragItemID == id || p.nestPending.TargetItemID == id):
		p.reset()
	}
}
