/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package domain

// This file defines the core data model for room layouts. The structures
// serialize to a human-readable JSON manifest (room.json).

import (
	"fmt"

	"github.com/google/uuid"
)

// Layout is the root of a room layout manifest.
type Layout struct {
	Name        string  `json:"name"`
	StageWidth  float64 `json:"stageWidth"`
	StageHeight float64 `json:"stageHeight"`
	Items       []*Item `json:"items"`
}

// Item is a placed object on the stage. Top-level items have an empty
// ParentID; nested items live inside their parent's Nested slice and carry
// coordinates relative to the stage at the time of nesting.
type Item struct {
	ID       string       `json:"id"`
	TypeID   string       `json:"typeId"`
	Name     string       `json:"name"`
	X        float64      `json:"x"`
	Y        float64      `json:"y"`
	Width    float64      `json:"width"`
	Height   float64      `json:"height"`
	Fill     string       `json:"fill,omitempty"`
	ImageURL string       `json:"imageUrl,omitempty"`
	ParentID string       `json:"parentId,omitempty"`
	Nested   []*Item      `json:"nestedItems,omitempty"`
	Contents []ContentRow `json:"contents,omitempty"`
}

// NewItemID mints a fresh item ID of the form "<typeID>-<uuid>".
func NewItemID(typeID string) string {
	return fmt.Sprintf("%s-%s", typeID, uuid.NewString())
}

// Clone returns a deep copy of the item including nested items and contents.
func (it *Item) Clone() *Item {
	if it == nil {
		return nil
	}
	cp := *it
	if len(it.Nested) > 0 {
		cp.Nested = make([]*Item, len(it.Nested))
		for i, n := range it.Nested {
			cp.Nested[i] = n.Clone()
		}
	}
	if len(it.Contents) > 0 {
		cp.Contents = append([]ContentRow(nil), it.Contents...)
	}
	return &cp
}

// Clone returns a deep copy of the layout.
func (l *Layout) Clone() *Layout {
	if l == nil {
		return nil
	}
	cp := *l
	cp.Items = make([]*Item, len(l.Items))
	for i, it := range l.Items {
		cp.Items[i] = it.Clone()
	}
	return &cp
}
