/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package storage persists room layouts as human-readable JSON manifests
// with transactional writes and timestamped backups, and maintains a
// per-layout SQLite index of registered contents for local search.
package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/xeipuuv/gojsonschema"

	"github.com/pasta-break-man/sumapuro/internal/domain"
)

const (
	ManifestFileName = "room.json"
	BackupsDirName   = "backups"
	ExportsDirName   = "exports"
)

var standardSubDirs = []string{
	ExportsDirName,
	BackupsDirName,
}

// layoutSchema validates the manifest shape on load. Extra fields pass;
// missing required fields or wrong types fail over to the latest backup.
const layoutSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["stageWidth", "stageHeight", "items"],
  "properties": {
    "name": {"type": "string"},
    "stageWidth": {"type": "number", "exclusiveMinimum": 0},
    "stageHeight": {"type": "number", "exclusiveMinimum": 0},
    "items": {"type": "array", "items": {"$ref": "#/definitions/item"}}
  },
  "definitions": {
    "item": {
      "type": "object",
      "required": ["id", "typeId", "name", "x", "y", "width", "height"],
      "properties": {
        "id": {"type": "string", "minLength": 1},
        "typeId": {"type": "string"},
        "name": {"type": "string"},
        "x": {"type": "number"},
        "y": {"type": "number"},
        "width": {"type": "number", "minimum": 1},
        "height": {"type": "number", "minimum": 1},
        "fill": {"type": "string"},
        "imageUrl": {"type": "string"},
        "parentId": {"type": "string"},
        "nestedItems": {"type": "array", "items": {"$ref": "#/definitions/item"}},
        "contents": {
          "type": "array",
          "items": {
            "type": "object",
            "required": ["name", "category", "count"],
            "properties": {
              "name": {"type": "string"},
              "category": {"type": "string"},
              "count": {"type": "integer"}
            }
          }
        }
      }
    }
  }
}`

// LayoutHandle tracks a layout loaded from or saved to disk. Root is the
// layout directory containing room.json and its subfolders.
type LayoutHandle struct {
	Root         string
	ManifestPath string
	Layout       domain.Layout
}

// InitLayout creates a new layout directory at root, scaffolds the
// standard subfolders and writes the manifest transactionally.
func InitLayout(root string, layout domain.Layout) (*LayoutHandle, error) {
	if strings.TrimSpace(root) == "" {
		return nil, errors.New("root path is required")
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create layout root: %w", err)
	}
	for _, d := range standardSubDirs {
		if err := os.MkdirAll(filepath.Join(root, d), 0o755); err != nil {
			return nil, fmt.Errorf("create subdir %s: %w", d, err)
		}
	}
	lh := &LayoutHandle{
		Root:         root,
		ManifestPath: filepath.Join(root, ManifestFileName),
		Layout:       layout,
	}
	if err := Save(lh); err != nil {
		return nil, err
	}
	return lh, nil
}

// Open loads an existing layout from the given root directory. If the
// current manifest cannot be read, parsed or validated, it falls back to
// the latest backup.
func Open(root string) (*LayoutHandle, error) {
	mpath := filepath.Join(root, ManifestFileName)
	b, err := os.ReadFile(mpath)
	if err != nil {
		layout, berr := openFromLatestBackup(root)
		if berr != nil {
			return nil, fmt.Errorf("open manifest: %w; backup attempt: %v", err, berr)
		}
		return &LayoutHandle{Root: root, ManifestPath: mpath, Layout: *layout}, nil
	}
	layout, perr := parseAndValidate(b)
	if perr != nil {
		blayout, berr := openFromLatestBackup(root)
		if berr != nil {
			return nil, fmt.Errorf("parse manifest: %w; backup attempt: %v", perr, berr)
		}
		return &LayoutHandle{Root: root, ManifestPath: mpath, Layout: *blayout}, nil
	}
	return &LayoutHandle{Root: root, ManifestPath: mpath, Layout: *layout}, nil
}

// parseAndValidate checks the manifest against the embedded schema
// before unmarshaling.
func parseAndValidate(data []byte) (*domain.Layout, error) {
	res, err := gojsonschema.Validate(
		gojsonschema.NewStringLoader(layoutSchema),
		gojsonschema.NewBytesLoader(data),
	)
	if err != nil {
		return nil, fmt.Errorf("validate manifest: %w", err)
	}
	if !res.Valid() {
		msgs := make([]string, 0, len(res.Errors()))
		for _, e := range res.Errors() {
			msgs = append(msgs, e.String())
		}
		return nil, fmt.Errorf("manifest schema violations: %s", strings.Join(msgs, "; "))
	}
	var l domain.Layout
	if err := json.Unmarshal(data, &l); err != nil {
		return nil, err
	}
	return &l, nil
}

// Save writes the layout manifest with transactional semantics and a
// timestamped backup of the previous manifest (if present).
func Save(lh *LayoutHandle) error {
	if lh == nil {
		return errors.New("nil LayoutHandle")
	}
	if lh.Root == "" || lh.ManifestPath == "" {
		return errors.New("invalid LayoutHandle: missing paths")
	}
	data, err := json.MarshalIndent(&lh.Layout, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal manifest: %w", err)
	}
	data = append(data, '\n')

	bdir := filepath.Join(lh.Root, BackupsDirName)
	if err := os.MkdirAll(bdir, 0o755); err != nil {
		return fmt.Errorf("ensure backups dir: %w", err)
	}
	if _, statErr := os.Stat(lh.ManifestPath); statErr == nil {
		stamp := time.Now().Format("20060102-150405")
		bname := fmt.Sprintf("%s.%s.bak", ManifestFileName, stamp)
		if cerr := copyFile(lh.ManifestPath, filepath.Join(bdir, bname)); cerr != nil {
			return fmt.Errorf("backup current manifest: %w", cerr)
		}
	}

	// Transactional write: temp file in the same directory, then rename.
	dir := filepath.Dir(lh.ManifestPath)
	temp := filepath.Join(dir, fmt.Sprintf(".%s.tmp-%d-%d", ManifestFileName, os.Getpid(), rand.Int()))
	if werr := writeFileSync(temp, data); werr != nil {
		return fmt.Errorf("write temp manifest: %w", werr)
	}
	// On Windows, replace by removing destination first if needed
	if _, err := os.Stat(lh.ManifestPath); err == nil {
		_ = os.Remove(lh.ManifestPath)
	}
	if rerr := os.Rename(temp, lh.ManifestPath); rerr != nil {
		_ = os.Remove(temp)
		return fmt.Errorf("replace manifest: %w", rerr)
	}
	return nil
}

// SaveAs writes the manifest to a new root folder, scaffolding structure
// if needed, and updates the handle.
func SaveAs(lh *LayoutHandle, newRoot string) error {
	if lh == nil {
		return errors.New("nil LayoutHandle")
	}
	if newRoot == "" {
		return errors.New("new root is empty")
	}
	if err := os.MkdirAll(newRoot, 0o755); err != nil {
		return fmt.Errorf("create new root: %w", err)
	}
	for _, d := range standardSubDirs {
		if err := os.MkdirAll(filepath.Join(newRoot, d), 0o755); err != nil {
			return fmt.Errorf("create subdir %s: %w", d, err)
		}
	}
	lh.Root = newRoot
	lh.ManifestPath = filepath.Join(newRoot, ManifestFileName)
	return Save(lh)
}

// writeFileSync writes data to a file and flushes it to disk.
func writeFileSync(path string, data []byte) (err error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()
	if _, err := f.Write(data); err != nil {
		return err
	}
	if err := f.Sync(); err != nil {
		return err
	}
	return nil
}

// copyFile copies a file from src to dst (overwrites dst if exists).
func copyFile(src, dst string) (err error) {
	sf, err := os.Open(src)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := sf.Close(); err == nil {
			err = cerr
		}
	}()
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return err
	}
	df, err := os.OpenFile(dst, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := df.Close(); err == nil {
			err = cerr
		}
	}()
	if _, err := io.Copy(df, sf); err != nil {
		return err
	}
	if err := df.Sync(); err != nil {
		return err
	}
	return nil
}

// AutosaveCrashSnapshot writes the in-memory layout to a timestamped
// snapshot file under the backups folder, bypassing the manifest. Used
// by the crash handler so an unclean exit never loses edits.
func AutosaveCrashSnapshot(lh *LayoutHandle) (string, error) {
	if lh == nil {
		return "", errors.New("nil LayoutHandle")
	}
	if lh.Root == "" {
		return "", errors.New("invalid LayoutHandle: missing root")
	}
	data, err := json.MarshalIndent(&lh.Layout, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal snapshot: %w", err)
	}
	data = append(data, '\n')
	bdir := filepath.Join(lh.Root, BackupsDirName)
	if err := os.MkdirAll(bdir, 0o755); err != nil {
		return "", fmt.Errorf("ensure backups dir: %w", err)
	}
	stamp := time.Now().Format("20060102-150405")
	path := filepath.Join(bdir, fmt.Sprintf("autosave-%s.json", stamp))
	if err := writeFileSync(path, data); err != nil {
		return "", fmt.Errorf("write snapshot: %w", err)
	}
	return path, nil
}

// openFromLatestBackup tries to open the latest timestamped backup.
func openFromLatestBackup(root string) (*domain.Layout, error) {
	bdir := filepath.Join(root, BackupsDirName)
	ents, err := os.ReadDir(bdir)
	if err != nil {
		return nil, fmt.Errorf("read backups dir: %w", err)
	}
	var candidates []string
	for _, e := range ents {
		name := e.Name()
		if strings.HasPrefix(name, ManifestFileName+".") && strings.HasSuffix(name, ".bak") {
			candidates = append(candidates, filepath.Join(bdir, name))
		}
	}
	if len(candidates) == 0 {
		return nil, errors.New("no backups found")
	}
	sort.Strings(candidates) // timestamp in name yields lexicographic order
	latest := candidates[len(candidates)-1]
	b, err := os.ReadFile(latest)
	if err != nil {
		return nil, fmt.Errorf("read latest backup: %w", err)
	}
	layout, err := parseAndValidate(b)
	if err != nil {
		return nil, fmt.Errorf("parse latest backup: %w", err)
	}
	return layout, nil
}
