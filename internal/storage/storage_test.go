/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package storage

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDeckStripsBOM(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "deck.md")
	if err := os.WriteFile(path, []byte("\uFEFF# Hello"), 0o644); err != nil {
		t.Fatal(err)
	}

	deck, err := LoadDeck(path)
	if err != nil {
		t.Fatalf("LoadDeck: %v", err)
	}
	if deck.Source != "# Hello" {
		t.Fatalf("Source = %q", deck.Source)
	}
	if deck.Base != dir {
		t.Fatalf("Base = %q, want %q", deck.Base, dir)
	}
	if deck.Hash == "" {
		t.Fatal("empty hash")
	}
}

func TestLoadDeckHashTracksContent(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a.md")
	b := filepath.Join(dir, "b.md")
	os.WriteFile(a, []byte("# Same"), 0o644)
	os.WriteFile(b, []byte("# Same"), 0o644)

	da, _ := LoadDeck(a)
	db, _ := LoadDeck(b)
	if da.Hash != db.Hash {
		t.Fatal("identical content must hash identically")
	}

	os.WriteFile(b, []byte("# Different"), 0o644)
	db, _ = LoadDeck(b)
	if da.Hash == db.Hash {
		t.Fatal("different content must hash differently")
	}
}

func TestLoadDeckMissingFile(t *testing.T) {
	if _, err := LoadDeck(filepath.Join(t.TempDir(), "nope.md")); err == nil {
		t.Fatal("want error for missing file")
	}
}

func openTestStore(t *testing.T, maxBytes int64) *PreviewStore {
	t.Helper()
	p, err := OpenPreviews(filepath.Join(t.TempDir(), "previews.sqlite"), maxBytes)
	if err != nil {
		t.Fatalf("OpenPreviews: %v", err)
	}
	t.Cleanup(func() { _ = p.Close() })
	return p
}

func TestPreviewRoundTrip(t *testing.T) {
	ctx := context.Background()
	p := openTestStore(t, -1)

	if b, err := p.Get(ctx, "hash1", 0, 320, 180); err != nil || b != nil {
		t.Fatalf("miss: %v %v", b, err)
	}

	png := []byte{0x89, 'P', 'N', 'G', 1, 2, 3}
	if err := p.Put(ctx, "hash1", 0, 320, 180, png); err != nil {
		t.Fatalf("Put: %v", err)
	}
	got, err := p.Get(ctx, "hash1", 0, 320, 180)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !bytes.Equal(got, png) {
		t.Fatalf("got %v, want %v", got, png)
	}

	// Different dimensions are a different cache entry.
	if b, _ := p.Get(ctx, "hash1", 0, 160, 90); b != nil {
		t.Fatal("dimension variant should miss")
	}
}

func TestPreviewUpsertReplaces(t *testing.T) {
	ctx := context.Background()
	p := openTestStore(t, -1)

	p.Put(ctx, "h", 3, 320, 180, []byte{1})
	if err := p.Put(ctx, "h", 3, 320, 180, []byte{2, 2}); err != nil {
		t.Fatalf("second Put: %v", err)
	}
	got, _ := p.Get(ctx, "h", 3, 320, 180)
	if !bytes.Equal(got, []byte{2, 2}) {
		t.Fatalf("got %v after upsert", got)
	}
}

func TestPreviewGetOrCreate(t *testing.T) {
	ctx := context.Background()
	p := openTestStore(t, -1)

	calls := 0
	gen := func(context.Context) ([]byte, error) {
		calls++
		return []byte{7}, nil
	}

	for i := 0; i < 3; i++ {
		b, err := p.GetOrCreate(ctx, "h", 0, 100, 100, gen)
		if err != nil {
			t.Fatalf("GetOrCreate: %v", err)
		}
		if !bytes.Equal(b, []byte{7}) {
			t.Fatalf("got %v", b)
		}
	}
	if calls != 1 {
		t.Fatalf("generator ran %d times, want 1", calls)
	}
}

func TestPreviewEviction(t *testing.T) {
	ctx := context.Background()
	p := openTestStore(t, 250)

	blob := make([]byte, 100)
	for i := 0; i < 4; i++ {
		if err := p.Put(ctx, "h", i, 100, 100, blob); err != nil {
			t.Fatalf("Put %d: %v", i, err)
		}
	}

	// Cap is 250 bytes, so at most two 100-byte rows survive and the
	// earliest slides are gone.
	if b, _ := p.Get(ctx, "h", 0, 100, 100); b != nil {
		t.Fatal("oldest preview should be evicted")
	}
	if b, _ := p.Get(ctx, "h", 3, 100, 100); b == nil {
		t.Fatal("newest preview should survive")
	}
}

func TestPreviewEvictionUnderDeadline(t *testing.T) {
	// Eviction runs on the single pooled connection. A Put that triggers
	// it must finish even when the victim scan stops early with rows
	// still pending, so bound every call with a short deadline.
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	p := openTestStore(t, 250)

	blob := make([]byte, 100)
	for i := 0; i < 6; i++ {
		if err := p.Put(ctx, "h", i, 100, 100, blob); err != nil {
			t.Fatalf("Put %d: %v", i, err)
		}
	}
	if b, _ := p.Get(ctx, "h", 5, 100, 100); b == nil {
		t.Fatal("newest preview should survive")
	}
}

func TestTrackDeckDropsStaleVersion(t *testing.T) {
	ctx := context.Background()
	p := openTestStore(t, -1)

	p.Put(ctx, "v1", 0, 100, 100, []byte{1})
	if err := p.TrackDeck(ctx, "/talks/deck.md", "v1"); err != nil {
		t.Fatalf("TrackDeck: %v", err)
	}

	// Same hash again keeps the previews.
	if err := p.TrackDeck(ctx, "/talks/deck.md", "v1"); err != nil {
		t.Fatalf("TrackDeck repeat: %v", err)
	}
	if b, _ := p.Get(ctx, "v1", 0, 100, 100); b == nil {
		t.Fatal("unchanged deck lost its previews")
	}

	// A new hash for the same path drops the previous version's rows.
	if err := p.TrackDeck(ctx, "/talks/deck.md", "v2"); err != nil {
		t.Fatalf("TrackDeck new hash: %v", err)
	}
	if b, _ := p.Get(ctx, "v1", 0, 100, 100); b != nil {
		t.Fatal("stale previews survived a deck edit")
	}

	// Other paths are untouched.
	p.Put(ctx, "other", 0, 100, 100, []byte{3})
	if err := p.TrackDeck(ctx, "/talks/other.md", "other"); err != nil {
		t.Fatalf("TrackDeck other: %v", err)
	}
	if b, _ := p.Get(ctx, "other", 0, 100, 100); b == nil {
		t.Fatal("unrelated deck previews were removed")
	}
}

func TestPreviewDropDeck(t *testing.T) {
	ctx := context.Background()
	p := openTestStore(t, -1)

	p.Put(ctx, "old", 0, 100, 100, []byte{1})
	p.Put(ctx, "new", 0, 100, 100, []byte{2})
	if err := p.DropDeck(ctx, "old"); err != nil {
		t.Fatalf("DropDeck: %v", err)
	}
	if b, _ := p.Get(ctx, "old", 0, 100, 100); b != nil {
		t.Fatal("dropped deck preview still present")
	}
	if b, _ := p.Get(ctx, "new", 0, 100, 100); b == nil {
		t.Fatal("other deck's preview was removed")
	}
}
