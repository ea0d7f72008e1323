/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package editor

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/pasta-break-man/sumapuro/internal/catalog"
	"github.com/pasta-break-man/sumapuro/internal/domain"
	"github.com/pasta-break-man/sumapuro/internal/geometry"
)

var shelfSmall = catalog.ObjectType{ID: "shelf-small", Label: "Small shelf", Width: 120, Height: 50, Fill: "#4f46e5"}

// recordingSyncer captures best-effort notifications for assertions.
type recordingSyncer struct {
	added    []string // "object/name/category/count"
	deleted  []string // object names
	renames  []string // "old->new"
	dropped  []string // deleted object names
	delIndex [][]int
}

func (r *recordingSyncer) AddContent(object string, row domain.ContentRow) {
	r.added = append(r.added, fmt.Sprintf("%s/%s/%s/%d", object, row.Name, row.Category, row.Count))
}
func (r *recordingSyncer) DeleteContents(object string, indices []int) {
	r.deleted = append(r.deleted, object)
	r.delIndex = append(r.delIndex, indices)
}
func (r *recordingSyncer) RenameObject(oldName, newName string) {
	r.renames = append(r.renames, oldName+"->"+newName)
}
func (r *recordingSyncer) DeleteObject(name string) {
	r.dropped = append(r.dropped, name)
}

func newTestEditor() (*Editor, *recordingSyncer) {
	rs := &recordingSyncer{}
	return New(geometry.Size{W: 900, H: 520}, rs), rs
}

func TestAddObjectDefaultsAndClamping(t *testing.T) {
	e, _ := newTestEditor()

	it := e.AddObjectFromType(shelfSmall, nil)
	if it.X != LeftMargin {
		t.Fatalf("default x = %v, want %v", it.X, float64(LeftMargin))
	}
	if want := (520 - shelfSmall.Height) / 2; it.Y != want {
		t.Fatalf("default y = %v, want %v", it.Y, want)
	}

	it2 := e.AddObjectFromType(shelfSmall, &geometry.Pt{X: 5000, Y: -10})
	if it2.X != 900-shelfSmall.Width || it2.Y != 0 {
		t.Fatalf("clamped position = (%v,%v)", it2.X, it2.Y)
	}
}

func TestAddObjectNamesPairwiseDistinct(t *testing.T) {
	e, _ := newTestEditor()
	seen := map[string]bool{}
	for i := 0; i < 8; i++ {
		it := e.AddObjectFromType(shelfSmall, nil)
		if seen[it.Name] {
			t.Fatalf("duplicate display name %q", it.Name)
		}
		seen[it.Name] = true
	}
	if !seen["Small shelf"] || !seen["Small shelf2"] || !seen["Small shelf3"] {
		t.Fatalf("unexpected name sequence: %v", seen)
	}
}

func TestAddObjectReusesFreedSuffix(t *testing.T) {
	e, _ := newTestEditor()
	e.AddObjectFromType(shelfSmall, nil)           // Small shelf
	second := e.AddObjectFromType(shelfSmall, nil) // Small shelf2
	e.AddObjectFromType(shelfSmall, nil)           // Small shelf3
	e.DeleteItem(second.ID)
	it := e.AddObjectFromType(shelfSmall, nil)
	if it.Name != "Small shelf2" {
		t.Fatalf("expected smallest free suffix, got %q", it.Name)
	}
}

func TestResizeClampsToMinSize(t *testing.T) {
	e, _ := newTestEditor()
	it := e.AddObjectFromType(shelfSmall, nil)
	for _, r := range []geometry.Rect{
		geometry.R(10, 10, 0, 0),
		geometry.R(10, 10, -50, 5),
		geometry.R(10, 10, 19.9, 19.9),
	} {
		e.ResizeItem(it.ID, r)
		if it.Width < MinSize || it.Height < MinSize {
			t.Fatalf("resize to %+v produced %vx%v", r, it.Width, it.Height)
		}
	}
	e.ResizeItem(it.ID, geometry.R(1, 2, 300, 200))
	if it.X != 1 || it.Y != 2 || it.Width != 300 || it.Height != 200 {
		t.Fatalf("valid resize not applied: %+v", it)
	}
	// stale id: no panic, no effect
	e.ResizeItem("gone", geometry.R(0, 0, 5, 5))
}

func TestDragEndDisjointMovesImmediately(t *testing.T) {
	e, _ := newTestEditor()
	a := e.AddObjectFromType(shelfSmall, &geometry.Pt{X: 0, Y: 0})
	e.AddObjectFromType(shelfSmall, &geometry.Pt{X: 600, Y: 400})

	e.DragEndWithNestCheck(a.ID, 200, 100)
	if a.X != 200 || a.Y != 100 {
		t.Fatalf("disjoint drop must move immediately: (%v,%v)", a.X, a.Y)
	}
	if e.NestPending() != nil {
		t.Fatalf("disjoint drop must not open nest confirm")
	}
}

func TestDragEndOverlapOpensNestConfirmWithoutMoving(t *testing.T) {
	e, _ := newTestEditor()
	a := e.AddObjectFromType(shelfSmall, &geometry.Pt{X: 0, Y: 0})
	b := e.AddObjectFromType(shelfSmall, &geometry.Pt{X: 600, Y: 400})

	e.DragEndWithNestCheck(a.ID, b.X+10, b.Y+10)
	pending := e.NestPending()
	if pending == nil {
		t.Fatalf("overlap drop must open nest confirm")
	}
	if pending.TargetItemID != b.ID || pending.DragItemID != a.ID {
		t.Fatalf("unexpected pending: %+v", pending)
	}
	if a.X != 0 || a.Y != 0 {
		t.Fatalf("position must be withheld until confirm: (%v,%v)", a.X, a.Y)
	}
}

func TestDragEndTouchingEdgesDoNotNest(t *testing.T) {
	e, _ := newTestEditor()
	a := e.AddObjectFromType(shelfSmall, &geometry.Pt{X: 0, Y: 0})
	b := e.AddObjectFromType(shelfSmall, &geometry.Pt{X: 600, Y: 400})

	// drop a so its right edge exactly touches b's left edge
	e.DragEndWithNestCheck(a.ID, b.X-a.Width, b.Y)
	if e.NestPending() != nil {
		t.Fatalf("touching edges must not count as overlap")
	}
}

func TestConfirmNestMovesItemAndClearsSelection(t *testing.T) {
	e, _ := newTestEditor()
	a := e.AddObjectFromType(shelfSmall, &geometry.Pt{X: 0, Y: 0})
	b := e.AddObjectFromType(shelfSmall, &geometry.Pt{X: 600, Y: 400})
	e.ToggleSelect(a.ID)

	e.DragEndWithNestCheck(a.ID, b.X+5, b.Y+5)
	e.ConfirmNest()

	if len(e.Items()) != 1 || e.Items()[0].ID != b.ID {
		t.Fatalf("dragged item must leave the top-level list")
	}
	if len(b.Nested) != 1 || b.Nested[0].ID != a.ID {
		t.Fatalf("dragged item must join target's nested list")
	}
	if a.ParentID != b.ID {
		t.Fatalf("parent id = %q, want %q", a.ParentID, b.ID)
	}
	if a.X != b.X+5 || a.Y != b.Y+5 {
		t.Fatalf("pending position not applied: (%v,%v)", a.X, a.Y)
	}
	if e.IsSelected(a.ID) {
		t.Fatalf("nested item must be removed from selection")
	}
	if e.NestPending() != nil {
		t.Fatalf("pending must clear after confirm")
	}
}

func TestCancelNestSnapsBack(t *testing.T) {
	e, _ := newTestEditor()
	a := e.AddObjectFromType(shelfSmall, &geometry.Pt{X: 0, Y: 0})
	b := e.AddObjectFromType(shelfSmall, &geometry.Pt{X: 600, Y: 400})

	e.DragEndWithNestCheck(a.ID, b.X+5, b.Y+5)
	e.CancelNest()
	if a.X != 0 || a.Y != 0 {
		t.Fatalf("cancel must leave position unchanged")
	}
	if len(e.Items()) != 2 {
		t.Fatalf("cancel must not change the graph")
	}
}

func TestUnnestToCanvas(t *testing.T) {
	e, _ := newTestEditor()
	a := e.AddObjectFromType(shelfSmall, &geometry.Pt{X: 0, Y: 0})
	b := e.AddObjectFromType(shelfSmall, &geometry.Pt{X: 600, Y: 400})
	e.DragEndWithNestCheck(a.ID, b.X+5, b.Y+5)
	e.ConfirmNest()

	e.UnnestToCanvas(b.ID, a.ID, nil)
	if len(e.Items()) != 2 {
		t.Fatalf("unnested item must return to the top-level list")
	}
	if a.ParentID != "" {
		t.Fatalf("parent id must clear on unnest")
	}
	if len(b.Nested) != 0 {
		t.Fatalf("parent's nested list must shrink")
	}
	if want := (900 - a.Width) / 2; a.X != want {
		t.Fatalf("default unnest x = %v, want %v", a.X, want)
	}
}

func TestUnnestResetsDrilledView(t *testing.T) {
	e, _ := newTestEditor()
	a := e.AddObjectFromType(shelfSmall, &geometry.Pt{X: 0, Y: 0})
	b := e.AddObjectFromType(shelfSmall, &geometry.Pt{X: 600, Y: 400})
	e.DragEndWithNestCheck(a.ID, b.X+5, b.Y+5)
	e.ConfirmNest()

	e.OpenPopupFor(b.ID)
	e.OpenNestedContents(a.ID)
	if e.ViewingNestedID() != a.ID {
		t.Fatalf("drill did not activate")
	}
	e.UnnestToCanvas(b.ID, a.ID, &geometry.Pt{X: 10, Y: 10})
	if e.ViewingNestedID() != "" {
		t.Fatalf("drill must reset when the viewed child is unnested")
	}
	if e.PopupItemID() != b.ID {
		t.Fatalf("parent view must survive the unnest")
	}
}

func TestMoveSelectedBy(t *testing.T) {
	e, _ := newTestEditor()
	a := e.AddObjectFromType(shelfSmall, &geometry.Pt{X: 10, Y: 10})
	b := e.AddObjectFromType(shelfSmall, &geometry.Pt{X: 300, Y: 300})
	c := e.AddObjectFromType(shelfSmall, &geometry.Pt{X: 600, Y: 100})
	e.ToggleSelect(a.ID)
	e.ToggleSelect(b.ID)

	e.MoveSelectedBy(5, -3)
	if a.X != 15 || a.Y != 7 || b.X != 305 || b.Y != 297 {
		t.Fatalf("selected items not shifted: a=(%v,%v) b=(%v,%v)", a.X, a.Y, b.X, b.Y)
	}
	if c.X != 600 || c.Y != 100 {
		t.Fatalf("unselected item moved: (%v,%v)", c.X, c.Y)
	}

	e.MoveSelectedBy(0, 0)
	if a.X != 15 || a.Y != 7 {
		t.Fatalf("zero delta must be a no-op")
	}
}

func TestToggleSelectAndClear(t *testing.T) {
	e, _ := newTestEditor()
	a := e.AddObjectFromType(shelfSmall, nil)
	e.ToggleSelect(a.ID)
	if !e.IsSelected(a.ID) {
		t.Fatalf("toggle must select")
	}
	e.ToggleSelect(a.ID)
	if e.IsSelected(a.ID) {
		t.Fatalf("second toggle must deselect")
	}
	e.ToggleSelect(a.ID)
	e.ClearSelection()
	if len(e.SelectedIDs()) != 0 {
		t.Fatalf("clear must empty the selection")
	}
	e.ToggleSelect("missing") // stale id: no-op
	if len(e.SelectedIDs()) != 0 {
		t.Fatalf("unknown ids must not be selectable")
	}
}

func TestRegisterFlowAppendsRowAndNotifies(t *testing.T) {
	e, rs := newTestEditor()
	a := e.AddObjectFromType(shelfSmall, nil)

	e.OpenPopupFor(a.ID)
	e.OpenRegisterPopup()
	e.SetRegisterDraft(RegisterDraft{Name: " mug ", Category: " kitchen ", Count: "3"})
	e.ConfirmRegisterAdd()

	if len(a.Contents) != 1 {
		t.Fatalf("row not appended: %+v", a.Contents)
	}
	row := a.Contents[0]
	if row.Name != "mug" || row.Category != "kitchen" || row.Count != 3 {
		t.Fatalf("row not normalized: %+v", row)
	}
	if e.RegisterPopupOpen() {
		t.Fatalf("register form must close on confirm")
	}
	if len(rs.added) != 1 || rs.added[0] != a.Name+"/mug/kitchen/3" {
		t.Fatalf("unexpected sync notification: %v", rs.added)
	}
}

func TestRegisterIntoDrilledChild(t *testing.T) {
	e, rs := newTestEditor()
	a := e.AddObjectFromType(shelfSmall, &geometry.Pt{X: 0, Y: 0})
	b := e.AddObjectFromType(shelfSmall, &geometry.Pt{X: 600, Y: 400})
	e.DragEndWithNestCheck(a.ID, b.X+5, b.Y+5)
	e.ConfirmNest()

	e.OpenPopupFor(b.ID)
	e.OpenNestedContents(a.ID)
	e.OpenRegisterPopup()
	e.SetRegisterDraft(RegisterDraft{Name: "sock", Category: "cloth", Count: "2"})
	e.ConfirmRegisterAdd()

	if len(a.Contents) != 1 || len(b.Contents) != 0 {
		t.Fatalf("row must land on the drilled child: a=%v b=%v", a.Contents, b.Contents)
	}
	if len(rs.added) != 1 || rs.added[0] != a.Name+"/sock/cloth/2" {
		t.Fatalf("sync must carry the child's name: %v", rs.added)
	}
}

func TestRowSelectionDeleteFlow(t *testing.T) {
	e, rs := newTestEditor()
	a := e.AddObjectFromType(shelfSmall, nil)
	a.Contents = []domain.ContentRow{{Name: "r0"}, {Name: "r1"}, {Name: "r2"}}

	e.OpenPopupFor(a.ID)
	e.EnterSelectionMode()
	e.ToggleRowSelection(1)
	e.DeleteSelectedRows()

	if len(a.Contents) != 2 || a.Contents[0].Name != "r0" || a.Contents[1].Name != "r2" {
		t.Fatalf("unexpected survivors: %+v", a.Contents)
	}
	if e.SelectionMode() {
		t.Fatalf("selection mode must end after delete")
	}
	if len(rs.deleted) != 1 || rs.deleted[0] != a.Name {
		t.Fatalf("unexpected delete notification: %v", rs.deleted)
	}
	if len(rs.delIndex) != 1 || len(rs.delIndex[0]) != 1 || rs.delIndex[0][0] != 1 {
		t.Fatalf("unexpected indices payload: %v", rs.delIndex)
	}

	// no selection: no-op
	e.EnterSelectionMode()
	e.DeleteSelectedRows()
	if len(a.Contents) != 2 || len(rs.deleted) != 1 {
		t.Fatalf("empty row selection must be a no-op")
	}
}

func TestDrillDownSwitchesTargetAndBack(t *testing.T) {
	e, _ := newTestEditor()
	a := e.AddObjectFromType(shelfSmall, &geometry.Pt{X: 0, Y: 0})
	b := e.AddObjectFromType(shelfSmall, &geometry.Pt{X: 600, Y: 400})
	a.Contents = []domain.ContentRow{{Name: "child-row"}}
	b.Contents = []domain.ContentRow{{Name: "parent-row"}}
	e.DragEndWithNestCheck(a.ID, b.X+5, b.Y+5)
	e.ConfirmNest()

	e.OpenPopupFor(b.ID)
	if got := e.PopupContents(); len(got) != 1 || got[0].Name != "parent-row" {
		t.Fatalf("parent rows expected: %v", got)
	}
	e.OpenNestedContents(a.ID)
	if got := e.PopupContents(); len(got) != 1 || got[0].Name != "child-row" {
		t.Fatalf("child rows expected after drill: %v", got)
	}
	e.CloseNestedView()
	if got := e.PopupContents(); len(got) != 1 || got[0].Name != "parent-row" {
		t.Fatalf("parent rows must survive the round trip: %v", got)
	}
}

func TestOpenNestedContentsRequiresExistingChild(t *testing.T) {
	e, _ := newTestEditor()
	a := e.AddObjectFromType(shelfSmall, nil)
	e.OpenPopupFor(a.ID)
	e.OpenNestedContents("nope")
	if e.ViewingNestedID() != "" {
		t.Fatalf("drill into unknown child must be refused")
	}
}

func TestRenameObject(t *testing.T) {
	e, rs := newTestEditor()
	a := e.AddObjectFromType(shelfSmall, nil)
	oldName := a.Name

	e.RenameObject(a.ID, "  ", false, "")
	if a.Name != oldName {
		t.Fatalf("empty rename must be a no-op")
	}
	e.RenameObject(a.ID, " Pantry ", false, "")
	if a.Name != "Pantry" {
		t.Fatalf("rename not applied: %q", a.Name)
	}
	if len(rs.renames) != 1 || rs.renames[0] != oldName+"->Pantry" {
		t.Fatalf("unexpected rename notification: %v", rs.renames)
	}
	// same name again: no remote call
	e.RenameObject(a.ID, "Pantry", false, "")
	if len(rs.renames) != 1 {
		t.Fatalf("unchanged rename must not notify")
	}
}

func TestRenameDraftFlow(t *testing.T) {
	e, rs := newTestEditor()
	a := e.AddObjectFromType(shelfSmall, nil)
	oldName := a.Name

	e.OpenPopupFor(a.ID)
	e.OpenRenameDraft()
	if e.RenameDraftValue() != oldName {
		t.Fatalf("draft must seed from the current name")
	}
	e.SetRenameDraft("Closet")
	e.ConfirmRename()
	if a.Name != "Closet" {
		t.Fatalf("rename draft not applied: %q", a.Name)
	}
	if e.RenameDraftOpen() {
		t.Fatalf("draft must close on confirm")
	}
	if len(rs.renames) != 1 {
		t.Fatalf("rename must notify once: %v", rs.renames)
	}
}

func TestDeleteConfirmFlow(t *testing.T) {
	e, rs := newTestEditor()
	a := e.AddObjectFromType(shelfSmall, nil)
	e.ToggleSelect(a.ID)
	e.OpenDeleteConfirm(a.ID)
	if e.DeleteConfirmItemID() != a.ID {
		t.Fatalf("delete confirm not armed")
	}
	e.ConfirmDelete()
	if len(e.Items()) != 0 {
		t.Fatalf("item must be removed")
	}
	if e.IsSelected(a.ID) {
		t.Fatalf("selection must drop the deleted id")
	}
	if e.DeleteConfirmItemID() != "" {
		t.Fatalf("overlay must close")
	}
	if len(rs.dropped) != 1 || rs.dropped[0] != a.Name {
		t.Fatalf("backend drop not requested: %v", rs.dropped)
	}
}

func TestDeleteClosesPopupReferencingItem(t *testing.T) {
	e, _ := newTestEditor()
	a := e.AddObjectFromType(shelfSmall, nil)
	e.OpenPopupFor(a.ID)
	e.DeleteItem(a.ID)
	if e.PopupItemID() != "" {
		t.Fatalf("content view must close when its item is deleted")
	}
}

func TestDeleteNestedItem(t *testing.T) {
	e, rs := newTestEditor()
	a := e.AddObjectFromType(shelfSmall, &geometry.Pt{X: 0, Y: 0})
	b := e.AddObjectFromType(shelfSmall, &geometry.Pt{X: 600, Y: 400})
	e.DragEndWithNestCheck(a.ID, b.X+5, b.Y+5)
	e.ConfirmNest()

	e.DeleteItem(a.ID)
	if len(b.Nested) != 0 {
		t.Fatalf("nested item must be removable")
	}
	if len(rs.dropped) != 1 {
		t.Fatalf("backend drop expected for nested delete")
	}
}

func TestOverlaysAreMutuallyExclusive(t *testing.T) {
	e, _ := newTestEditor()
	a := e.AddObjectFromType(shelfSmall, nil)
	b := e.AddObjectFromType(shelfSmall, &geometry.Pt{X: 600, Y: 400})

	e.OpenPopupFor(a.ID)
	e.OpenDeleteConfirm(b.ID)
	if e.DeleteConfirmItemID() != "" {
		t.Fatalf("delete confirm must be refused while content view is open")
	}
	e.ClosePopup()
	e.OpenDeleteConfirm(b.ID)
	if e.DeleteConfirmItemID() != b.ID {
		t.Fatalf("delete confirm must arm once the content view closed")
	}
	e.OpenPopupFor(a.ID)
	if e.PopupItemID() != "" {
		t.Fatalf("content view must be refused while delete confirm is up")
	}
}

func TestSnapshotRestoreRoundTrip(t *testing.T) {
	e, _ := newTestEditor()
	a := e.AddObjectFromType(shelfSmall, &geometry.Pt{X: 10, Y: 20})
	a.Contents = []domain.ContentRow{{Name: "mug", Count: 2}}

	snap, err := e.Snapshot()
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	e.MoveItem(a.ID, 500, 300)
	e.ToggleSelect(a.ID)
	if err := e.Restore(snap); err != nil {
		t.Fatalf("restore: %v", err)
	}
	got := e.Items()
	if len(got) != 1 || got[0].X != 10 || got[0].Y != 20 {
		t.Fatalf("restore did not roll back the move: %+v", got)
	}
	if len(e.SelectedIDs()) != 0 {
		t.Fatalf("restore must clear the selection")
	}
	if len(got[0].Contents) != 1 || got[0].Contents[0].Name != "mug" {
		t.Fatalf("contents lost in round trip: %+v", got[0].Contents)
	}
}

// membership invariant: after any operation sequence, every live item
// appears in exactly one of the top-level list or a single parent's
// nested list.
func TestMembershipInvariantUnderRandomOps(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	e, _ := newTestEditor()

	check := func(step int) {
		seen := map[string]int{}
		for _, it := range e.Items() {
			seen[it.ID]++
			if it.ParentID != "" {
				t.Fatalf("step %d: top-level item %s carries parent id %q", step, it.ID, it.ParentID)
			}
			for _, n := range it.Nested {
				seen[n.ID]++
				if n.ParentID != it.ID {
					t.Fatalf("step %d: nested item %s has parent id %q, want %q", step, n.ID, n.ParentID, it.ID)
				}
			}
		}
		for id, count := range seen {
			if count != 1 {
				t.Fatalf("step %d: item %s appears %d times", step, id, count)
			}
		}
	}

	for step := 0; step < 400; step++ {
		items := e.Items()
		switch rng.Intn(5) {
		case 0:
			e.AddObjectFromType(shelfSmall, &geometry.Pt{
				X: rng.Float64() * 900, Y: rng.Float64() * 520,
			})
		case 1: // nest a random pair
			if len(items) >= 2 {
				a := items[rng.Intn(len(items))]
				b := items[rng.Intn(len(items))]
				if a.ID != b.ID {
					e.DragEndWithNestCheck(a.ID, b.X+1, b.Y+1)
					e.ConfirmNest()
				}
			}
		case 2: // unnest a random child
			var parents []*domain.Item
			for _, it := range items {
				if len(it.Nested) > 0 {
					parents = append(parents, it)
				}
			}
			if len(parents) > 0 {
				p := parents[rng.Intn(len(parents))]
				n := p.Nested[rng.Intn(len(p.Nested))]
				e.UnnestToCanvas(p.ID, n.ID, nil)
			}
		case 3: // delete something (top-level or nested)
			var ids []string
			for _, it := range items {
				ids = append(ids, it.ID)
				for _, n := range it.Nested {
					ids = append(ids, n.ID)
				}
			}
			if len(ids) > 0 {
				e.DeleteItem(ids[rng.Intn(len(ids))])
			}
		case 4:
			if len(items) > 0 {
				it := items[rng.Intn(len(items))]
				e.DragEndWithNestCheck(it.ID, rng.Float64()*900, rng.Float64()*520)
				e.CancelNest()
			}
		}
		check(step)
	}
}

func TestStaleIDsAreSilentNoOps(t *testing.T) {
	e, _ := newTestEditor()
	e.MoveItem("gone", 1, 2)
	e.DragEndWithNestCheck("gone", 1, 2)
	e.RenameObject("gone", "x", false, "")
	e.DeleteItem("gone")
	e.UnnestToCanvas("gone", "also-gone", nil)
	e.OpenPopupFor("gone")
	e.ConfirmNest()
	e.ConfirmDelete()
	if len(e.Items()) != 0 || e.PopupItemID() != "" {
		t.Fatalf("stale-id operations must leave the editor untouched")
	}
}
