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
	"strings"

	"github.com/pasta-break-man/sumapuro/internal/catalog"
	"github.com/pasta-break-man/sumapuro/internal/domain"
	"github.com/pasta-break-man/sumapuro/internal/geometry"
)

// MinSize is the smallest width or height an item can be resized to.
const MinSize = 20

// LeftMargin is the default x position for items added without an
// explicit position.
const LeftMargin = 48

// graph owns the top-level item list and each item's nested list.
// Every lookup by id that misses is a silent no-op: gesture callbacks
// may race with state changes and must never panic.
type graph struct {
	stage geometry.Size
	items []*domain.Item
}

func newGraph(stage geometry.Size) *graph {
	return &graph{stage: stage}
}

// find returns the top-level item with the given id, or nil.
func (g *graph) find(id string) *domain.Item {
	for _, it := range g.items {
		if it.ID == id {
			return it
		}
	}
	return nil
}

// findNested returns the nested item under the given parent, or nil.
func (g *graph) findNested(parentID, nestedID string) *domain.Item {
	parent := g.find(parentID)
	if parent == nil {
		return nil
	}
	for _, n := range parent.Nested {
		if n.ID == nestedID {
			return n
		}
	}
	return nil
}

// addFromType places a new top-level item. A nil position yields the
// default placement: left margin, vertically centered. Explicit positions
// are clamped so the item stays on the stage. The display name starts at
// the type label and takes the smallest integer suffix >= 2 on collision.
func (g *graph) addFromType(t catalog.ObjectType, pos *geometry.Pt) *domain.Item {
	x := float64(LeftMargin)
	y := (g.stage.H - t.Height) / 2
	if pos != nil {
		x = geometry.Clamp(pos.X, 0, g.stage.W-t.Width)
		y = geometry.Clamp(pos.Y, 0, g.stage.H-t.Height)
	}

	name := t.Label
	if g.nameTaken(name) {
		for n := 2; ; n++ {
			candidate := fmt.Sprintf("%s%d", t.Label, n)
			if !g.nameTaken(candidate) {
				name = candidate
				break
			}
		}
	}

	it := &domain.Item{
		ID:       domain.NewItemID(t.ID),
		TypeID:   t.ID,
		Name:     name,
		X:        x,
		Y:        y,
		Width:    t.Width,
		Height:   t.Height,
		Fill:     t.Fill,
		ImageURL: t.ImageURL,
	}
	g.items = append(g.items, it)
	return it
}

func (g *graph) nameTaken(name string) bool {
	for _, it := range g.items {
		if it.Name == name {
			return true
		}
	}
	return false
}

// move overwrites the item's position unconditionally.
func (g *graph) move(id string, x, y float64) {
	if it := g.find(id); it != nil {
		it.X = x
		it.Y = y
	}
}

// resize overwrites position and size, clamping dimensions to MinSize.
func (g *graph) resize(id string, r geometry.Rect) {
	it := g.find(id)
	if it == nil {
		return
	}
	it.X = r.X
	it.Y = r.Y
	it.Width = max(MinSize, r.W)
	it.Height = max(MinSize, r.H)
}

// overlapTarget scans the other top-level items for a strict overlap with
// the dragged item's rect at (x, y) and returns the first match.
func (g *graph) overlapTarget(id string, x, y float64) (string, bool) {
	dragged := g.find(id)
	if dragged == nil {
		return "", false
	}
	dragRect := geometry.R(x, y, dragged.Width, dragged.Height)
	for _, other := range g.items {
		if other.ID == id {
			continue
		}
		if dragRect.Overlaps(geometry.R(other.X, other.Y, other.Width, other.Height)) {
			return other.ID, true
		}
	}
	return "", false
}

// nest moves the dragged item out of the top-level list and into the
// target's nested list at the pending position. Contents and deeper
// nesting travel with the item.
func (g *graph) nest(p NestPending) bool {
	dragged := g.find(p.DragItemID)
	target := g.find(p.TargetItemID)
	if dragged == nil || target == nil || dragged == target {
		return false
	}
	g.removeTopLevel(p.DragItemID)
	dragged.X = p.NewX
	dragged.Y = p.NewY
	dragged.ParentID = target.ID
	target.Nested = append(target.Nested, dragged)
	return true
}

// unnest restores a nested item to the top-level list. A nil position
// centers the item; explicit positions are clamped into the stage.
func (g *graph) unnest(parentID, nestedID string, pos *geometry.Pt) bool {
	parent := g.find(parentID)
	nested := g.findNested(parentID, nestedID)
	if parent == nil || nested == nil {
		return false
	}
	x := (g.stage.W - nested.Width) / 2
	y := (g.stage.H - nested.Height) / 2
	if pos != nil {
		x = geometry.Clamp(pos.X, 0, g.stage.W-nested.Width)
		y = geometry.Clamp(pos.Y, 0, g.stage.H-nested.Height)
	}
	for i, n := range parent.Nested {
		if n.ID == nestedID {
			parent.Nested = append(parent.Nested[:i], parent.Nested[i+1:]...)
			break
		}
	}
	nested.X = x
	nested.Y = y
	nested.ParentID = ""
	g.items = append(g.items, nested)
	return true
}

// remove deletes the item from the top-level list or from whichever
// parent's nested list holds it, returning the removed item.
func (g *graph) remove(id string) (*domain.Item, bool) {
	for i, it := range g.items {
		if it.ID == id {
			g.items = append(g.items[:i], g.items[i+1:]...)
			return it, true
		}
	}
	for _, parent := range g.items {
		for i, n := range parent.Nested {
			if n.ID == id {
				parent.Nested = append(parent.Nested[:i], parent.Nested[i+1:]...)
				return n, true
			}
		}
	}
	return nil, false
}

func (g *graph) removeTopLevel(id string) {
	for i, it := range g.items {
		if it.ID == id {
			g.items = append(g.items[:i], g.items[i+1:]...)
			return
		}
	}
}

// displayName falls back through Name to the empty string.
func displayName(it *domain.Item) string {
	if it == nil {
		return ""
	}
	return strings.TrimSpace(it.Name)
}

func max(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}
