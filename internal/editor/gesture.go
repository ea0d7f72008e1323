/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package editor

import (
	"sync"
	"time"
)

// LongPressDuration is the press-and-hold threshold that arms the
// delete-confirm overlay.
const LongPressDuration = 1000 * time.Millisecond

// LongPressTracker fires a callback when a press on an item is held for
// the full threshold without release or cancel. Releasing earlier stops
// the pending trigger.
type LongPressTracker struct {
	mu        sync.Mutex
	threshold time.Duration
	timer     *time.Timer
	fire      func(itemID string)
}

// NewLongPressTracker uses the given threshold, or LongPressDuration when
// zero or negative.
func NewLongPressTracker(threshold time.Duration, fire func(itemID string)) *LongPressTracker {
	if threshold <= 0 {
		threshold = LongPressDuration
	}
	return &LongPressTracker{threshold: threshold, fire: fire}
}

// Press starts the hold timer for the item, replacing any pending press.
func (t *LongPressTracker) Press(itemID string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.timer != nil {
		t.timer.Stop()
	}
	t.timer = time.AfterFunc(t.threshold, func() { t.fire(itemID) })
}

// Release cancels the pending press, if any. Also used for pointer-leave
// and pointer-cancel.
func (t *LongPressTracker) Release() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.timer != nil {
		t.timer.Stop()
		t.timer = nil
	}
}

// DragTracker converts absolute pointer positions into incremental
// deltas. Group drags apply the delta to every selected item, so one
// dragged shape moves the rest of the selection in lockstep without the
// shapes knowing about each other.
type DragTracker struct {
	active bool
	lastX  float64
	lastY  float64
}

// Begin records the gesture origin.
func (d *DragTracker) Begin(x, y float64) {
	d.active = true
	d.lastX, d.lastY = x, y
}

// MoveTo reports the delta since the previous report. Returns zeros when
// no drag is active.
func (d *DragTracker) MoveTo(x, y float64) (dx, dy float64) {
	if !d.active {
		return 0, 0
	}
	dx = x - d.lastX
	dy = y - d.lastY
	d.lastX, d.lastY = x, y
	return dx, dy
}

// End finishes the gesture and reports the final position.
func (d *DragTracker) End() (x, y float64, ok bool) {
	if !d.active {
		return 0, 0, false
	}
	d.active = false
	return d.lastX, d.lastY, true
}

// Active reports whether a drag is in progress.
func (d *DragTracker) Active() bool { return d.active }
