/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package domain

import (
	"strconv"
	"strings"
)

// ContentRow is one inventory line stored inside an item.
type ContentRow struct {
	Name     string `json:"name"`
	Category string `json:"category"`
	Count    int    `json:"count"`
}

// DefaultContentRow is the blank row used to seed entry forms.
var DefaultContentRow = ContentRow{}

// NewContentRow normalizes free-form input into a row: name and category
// are trimmed, count is parsed leniently with 0 as the fallback.
func NewContentRow(name, category, count string) ContentRow {
	return ContentRow{
		Name:     strings.TrimSpace(name),
		Category: strings.TrimSpace(category),
		Count:    CoerceCount(count),
	}
}

// CoerceCount parses a count entry. Non-numeric input yields 0; fractional
// input is truncated toward zero.
func CoerceCount(s string) int {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}
	if n, err := strconv.Atoi(s); err == nil {
		return n
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return int(f)
	}
	return 0
}

// AddContentRow appends a normalized row and returns a new slice. The
// input slice is never mutated.
func AddContentRow(contents []ContentRow, row ContentRow) []ContentRow {
	normalized := ContentRow{
		Name:     strings.TrimSpace(row.Name),
		Category: strings.TrimSpace(row.Category),
		Count:    row.Count,
	}
	out := make([]ContentRow, 0, len(contents)+1)
	out = append(out, contents...)
	return append(out, normalized)
}

// DeleteContentRowsByIndices removes the rows at the given zero-based
// indices, preserving the order of survivors. Out-of-range and duplicate
// indices are ignored. The input slice is never mutated.
func DeleteContentRowsByIndices(contents []ContentRow, indices []int) []ContentRow {
	drop := make(map[int]struct{}, len(indices))
	for _, i := range indices {
		drop[i] = struct{}{}
	}
	out := make([]ContentRow, 0, len(contents))
	for i, row := range contents {
		if _, gone := drop[i]; gone {
			continue
		}
		out = append(out, row)
	}
	return out
}
