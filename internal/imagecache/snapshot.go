/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package imagecache

import "image"

type loaded struct {
	img  image.Image
	w, h int
}

// Snapshot is an immutable per-frame view of the loaded entries. The
// renderer reads from it without taking the cache lock, keeping the
// render path free of synchronization.
type Snapshot struct {
	byKey map[string]loaded
	norm  func(string) string
}

// Snapshot captures the currently loaded images. Pending and failed
// entries are absent; the renderer draws placeholders for both.
func (c *Cache) Snapshot() *Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	byKey := make(map[string]loaded, len(c.entries))
	for key, e := range c.entries {
		if e.state == StateLoaded {
			byKey[key] = loaded{img: e.img, w: e.w, h: e.h}
		}
	}
	return &Snapshot{byKey: byKey, norm: c.Normalize}
}

// Dims reports the pixel dimensions of a loaded image.
func (s *Snapshot) Dims(path string) (w, h int, ok bool) {
	l, ok := s.byKey[s.norm(path)]
	return l.w, l.h, ok
}

// Image returns the decoded image for export backends.
func (s *Snapshot) Image(path string) (image.Image, bool) {
	l, ok := s.byKey[s.norm(path)]
	return l.img, ok
}

// Len reports how many images the snapshot holds.
func (s *Snapshot) Len() int { return len(s.byKey) }
