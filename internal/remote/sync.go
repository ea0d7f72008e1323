/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package remote

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/pasta-break-man/sumapuro/internal/domain"
	applog "github.com/pasta-break-man/sumapuro/internal/log"
)

// Sync forwards canvas mutations to the backend on a best-effort basis.
// Enqueueing never blocks the UI: the channel is bounded and a full
// queue drops the notification. Failures are logged at debug level and
// swallowed; the canvas state is authoritative and never rolled back.
type Sync struct {
	client *Client
	log    *slog.Logger
	q      chan func(context.Context)
	once   sync.Once
	closed chan struct{}
}

// NewSync starts the background sender.
func NewSync(client *Client) *Sync {
	s := &Sync{
		client: client,
		log:    applog.WithComponent("remotesync"),
		q:      make(chan func(context.Context), 64),
		closed: make(chan struct{}),
	}
	go s.loop()
	return s
}

// AddContent mirrors a registered row to the object's backend table.
func (s *Sync) AddContent(objectName string, row domain.ContentRow) {
	s.enqueue(func(ctx context.Context) {
		body := map[string]any{
			"object_name": objectName,
			"name":        row.Name,
			"category":    row.Category,
			"count":       row.Count,
		}
		s.report("add content", s.client.doJSON(ctx, http.MethodPost, "/api/contents", body, nil))
	})
}

// DeleteContents removes rows by index from the object's backend table.
func (s *Sync) DeleteContents(objectName string, indices []int) {
	idx := append([]int(nil), indices...)
	s.enqueue(func(ctx context.Context) {
		body := map[string]any{"object_name": objectName, "indices": idx}
		s.report("delete contents", s.client.doJSON(ctx, http.MethodPost, "/api/contents/delete", body, nil))
	})
}

// RenameObject renames the object's backend table.
func (s *Sync) RenameObject(oldName, newName string) {
	s.enqueue(func(ctx context.Context) {
		body := map[string]string{"old_name": oldName, "new_name": newName}
		s.report("rename object", s.client.doJSON(ctx, http.MethodPost, "/api/objects/rename", body, nil))
	})
}

// DeleteObject drops the object's backend table.
func (s *Sync) DeleteObject(name string) {
	s.enqueue(func(ctx context.Context) {
		path := "/api/objects/" + escapePath(name)
		s.report("delete object", s.client.doJSON(ctx, http.MethodDelete, path, nil, nil))
	})
}

func (s *Sync) enqueue(op func(context.Context)) {
	select {
	case s.q <- op:
	default:
		// queue full: drop, the remote store is non-authoritative
		s.log.Debug("sync queue full, notification dropped")
	}
}

// Flush waits briefly for the queue to drain; used on shutdown.
func (s *Sync) Flush(ctx context.Context) {
	deadline := time.Now().Add(500 * time.Millisecond)
	for {
		if len(s.q) == 0 || time.Now().After(deadline) {
			return
		}
		select {
		case <-ctx.Done():
			return
		case <-time.After(25 * time.Millisecond):
		}
	}
}

// Close stops the background sender.
func (s *Sync) Close() { s.once.Do(func() { close(s.closed) }) }

func (s *Sync) loop() {
	for {
		select {
		case <-s.closed:
			return
		case op := <-s.q:
			op(context.Background())
		}
	}
}

func (s *Sync) report(op string, err error) {
	if err != nil {
		s.log.Debug("best-effort sync failed", slog.String("op", op), slog.Any("err", err))
	}
}
