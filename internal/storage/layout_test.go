/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package storage

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/pasta-break-man/sumapuro/internal/domain"
)

func sampleLayout() domain.Layout {
	return domain.Layout{
		Name:        "living room",
		StageWidth:  900,
		StageHeight: 520,
		Items: []*domain.Item{
			{
				ID: "shelf-small-1", TypeID: "shelf-small", Name: "Shelf",
				X: 48, Y: 235, Width: 120, Height: 50, Fill: "#4f46e5",
				Contents: []domain.ContentRow{{Name: "mug", Category: "kitchen", Count: 2}},
				Nested: []*domain.Item{
					{
						ID: "shelf-small-2", TypeID: "shelf-small", Name: "Box",
						X: 50, Y: 240, Width: 120, Height: 50, ParentID: "shelf-small-1",
						Contents: []domain.ContentRow{{Name: "sock", Category: "cloth", Count: 4}},
					},
				},
			},
		},
	}
}

func TestInitOpenRoundTrip(t *testing.T) {
	root := filepath.Join(t.TempDir(), "room")
	lh, err := InitLayout(root, sampleLayout())
	if err != nil {
		t.Fatalf("InitLayout: %v", err)
	}
	if _, err := os.Stat(lh.ManifestPath); err != nil {
		t.Fatalf("manifest not written: %v", err)
	}
	got, err := Open(root)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if got.Layout.Name != "living room" || len(got.Layout.Items) != 1 {
		t.Fatalf("unexpected layout: %+v", got.Layout)
	}
	nested := got.Layout.Items[0].Nested
	if len(nested) != 1 || nested[0].ParentID != "shelf-small-1" {
		t.Fatalf("nested items lost in round trip: %+v", nested)
	}
}

func TestSaveCreatesBackupAndRecoversFromCorruption(t *testing.T) {
	root := filepath.Join(t.TempDir(), "room")
	lh, err := InitLayout(root, sampleLayout())
	if err != nil {
		t.Fatalf("InitLayout: %v", err)
	}
	lh.Layout.Name = "updated"
	if err := Save(lh); err != nil {
		t.Fatalf("Save: %v", err)
	}
	ents, err := os.ReadDir(filepath.Join(root, BackupsDirName))
	if err != nil || len(ents) == 0 {
		t.Fatalf("expected a backup, got %v (%v)", ents, err)
	}

	// corrupt the current manifest; Open must fall back to the backup
	if err := os.WriteFile(lh.ManifestPath, []byte("{not json"), 0o644); err != nil {
		t.Fatalf("corrupt manifest: %v", err)
	}
	got, err := Open(root)
	if err != nil {
		t.Fatalf("Open with corrupt manifest: %v", err)
	}
	if got.Layout.Name != "living room" {
		t.Fatalf("expected backup content, got %q", got.Layout.Name)
	}
}

func TestOpenRejectsSchemaViolations(t *testing.T) {
	root := filepath.Join(t.TempDir(), "room")
	if err := os.MkdirAll(root, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	// valid JSON, but items entries are missing required fields
	bad := []byte(`{"stageWidth":900,"stageHeight":520,"items":[{"id":"x"}]}`)
	if err := os.WriteFile(filepath.Join(root, ManifestFileName), bad, 0o644); err != nil {
		t.Fatalf("write manifest: %v", err)
	}
	if _, err := Open(root); err == nil {
		t.Fatalf("expected schema violation error")
	}
}

func TestAutosaveCrashSnapshotWritesFile(t *testing.T) {
	root := filepath.Join(t.TempDir(), "room")
	lh, err := InitLayout(root, sampleLayout())
	if err != nil {
		t.Fatalf("InitLayout: %v", err)
	}
	lh.Layout.Name = "unsaved edits"
	path, err := AutosaveCrashSnapshot(lh)
	if err != nil {
		t.Fatalf("AutosaveCrashSnapshot: %v", err)
	}
	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read snapshot: %v", err)
	}
	var got domain.Layout
	if err := json.Unmarshal(b, &got); err != nil {
		t.Fatalf("unmarshal snapshot: %v", err)
	}
	if got.Name != "unsaved edits" {
		t.Fatalf("snapshot content mismatch: got %q", got.Name)
	}
}

func TestSaveAsMovesHandle(t *testing.T) {
	dir := t.TempDir()
	lh, err := InitLayout(filepath.Join(dir, "a"), sampleLayout())
	if err != nil {
		t.Fatalf("InitLayout: %v", err)
	}
	newRoot := filepath.Join(dir, "b")
	if err := SaveAs(lh, newRoot); err != nil {
		t.Fatalf("SaveAs: %v", err)
	}
	if lh.Root != newRoot {
		t.Fatalf("handle root not updated: %s", lh.Root)
	}
	if _, err := os.Stat(filepath.Join(newRoot, ManifestFileName)); err != nil {
		t.Fatalf("manifest missing at new root: %v", err)
	}
}
