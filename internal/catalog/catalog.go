/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package catalog defines the palette of placeable object types. The
// built-in set can be replaced or extended from a user YAML file.
package catalog

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// ObjectType describes one placeable kind of object.
type ObjectType struct {
	ID       string  `yaml:"id"`
	Label    string  `yaml:"label"`
	Width    float64 `yaml:"width"`
	Height   float64 `yaml:"height"`
	Fill     string  `yaml:"fill"`
	ImageURL string  `yaml:"image_url,omitempty"`
}

// Catalog is an ordered list of object types keyed by ID.
type Catalog struct {
	types []ObjectType
	byID  map[string]ObjectType
}

// Defaults returns the built-in shelf palette.
func Defaults() *Catalog {
	c, _ := New([]ObjectType{
		{ID: "shelf-small", Label: "Small shelf", Width: 120, Height: 50, Fill: "#4f46e5"},
		{ID: "shelf-medium", Label: "Medium shelf", Width: 180, Height: 60, Fill: "#16a34a"},
		{ID: "shelf-large", Label: "Large shelf", Width: 240, Height: 70, Fill: "#f97316"},
	})
	return c
}

// New validates and indexes the given types.
func New(types []ObjectType) (*Catalog, error) {
	byID := make(map[string]ObjectType, len(types))
	out := make([]ObjectType, 0, len(types))
	for i, t := range types {
		t.ID = strings.TrimSpace(t.ID)
		t.Label = strings.TrimSpace(t.Label)
		if t.ID == "" {
			return nil, fmt.Errorf("catalog entry %d: missing id", i)
		}
		if t.Label == "" {
			t.Label = t.ID
		}
		if t.Width <= 0 || t.Height <= 0 {
			return nil, fmt.Errorf("catalog entry %q: non-positive size %gx%g", t.ID, t.Width, t.Height)
		}
		if _, dup := byID[t.ID]; dup {
			return nil, fmt.Errorf("catalog entry %q: duplicate id", t.ID)
		}
		byID[t.ID] = t
		out = append(out, t)
	}
	return &Catalog{types: out, byID: byID}, nil
}

// LoadFile reads a YAML catalog file. An empty path yields the defaults.
func LoadFile(path string) (*Catalog, error) {
	if strings.TrimSpace(path) == "" {
		return Defaults(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	var doc struct {
		Types []ObjectType `yaml:"types"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}
	if len(doc.Types) == 0 {
		return nil, fmt.Errorf("catalog %s: no types defined", path)
	}
	return New(doc.Types)
}

// Types returns the palette in declaration order.
func (c *Catalog) Types() []ObjectType { return c.types }

// Lookup returns the type for the given ID.
func (c *Catalog) Lookup(id string) (ObjectType, bool) {
	t, ok := c.byID[id]
	return t, ok
}
