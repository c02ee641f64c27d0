/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package imagecache

import (
	"errors"
	"image"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func testImage(w, h int) image.Image {
	return image.NewRGBA(image.Rect(0, 0, w, h))
}

// waitState polls until the entry leaves Pending or the deadline passes.
func waitState(t *testing.T, c *Cache, path string) State {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if s, ok := c.State(path); ok && s != StatePending {
			return s
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatalf("image %s still pending", path)
	return StatePending
}

func TestRequestLoadsOnce(t *testing.T) {
	var loads atomic.Int32
	release := make(chan struct{})
	c := New(Options{Loader: func(path string) (image.Image, error) {
		loads.Add(1)
		<-release
		return testImage(10, 10), nil
	}})

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c.Request("pic.png", 0)
		}()
	}
	wg.Wait()
	close(release)

	if got := waitState(t, c, "pic.png"); got != StateLoaded {
		t.Fatalf("state = %v, want loaded", got)
	}
	if n := loads.Load(); n != 1 {
		t.Fatalf("loader ran %d times, want 1", n)
	}
}

func TestFailedIsTerminal(t *testing.T) {
	var loads atomic.Int32
	c := New(Options{Loader: func(path string) (image.Image, error) {
		loads.Add(1)
		return nil, errors.New("corrupt file")
	}})

	c.Request("bad.png", 0)
	if got := waitState(t, c, "bad.png"); got != StateFailed {
		t.Fatalf("state = %v, want failed", got)
	}

	// A second request must not retry.
	if got := c.Request("bad.png", 1); got != StateFailed {
		t.Fatalf("re-request state = %v, want failed", got)
	}
	if n := loads.Load(); n != 1 {
		t.Fatalf("loader ran %d times, want 1", n)
	}

	var lerr *LoadError
	if !errors.As(c.Err("bad.png"), &lerr) {
		t.Fatalf("Err = %v, want *LoadError", c.Err("bad.png"))
	}
}

func TestNavigateEvictsOutsideWindow(t *testing.T) {
	c := New(Options{Window: 2, Loader: func(path string) (image.Image, error) {
		return testImage(4, 4), nil
	}})

	c.Request("near.png", 5)
	c.Request("far.png", 20)
	waitState(t, c, "near.png")
	waitState(t, c, "far.png")

	c.Navigate(5)

	if _, ok := c.State("near.png"); !ok {
		t.Fatal("near.png evicted despite being inside the window")
	}
	if _, ok := c.State("far.png"); ok {
		t.Fatal("far.png kept despite being 15 slides away")
	}
}

func TestNavigateKeepsMultiSlideReferences(t *testing.T) {
	c := New(Options{Window: 1, Loader: func(path string) (image.Image, error) {
		return testImage(4, 4), nil
	}})

	// Same image on slides 0 and 9.
	c.Request("logo.png", 0)
	c.Request("logo.png", 9)
	waitState(t, c, "logo.png")

	c.Navigate(9)
	if _, ok := c.State("logo.png"); !ok {
		t.Fatal("image referenced by the current slide was evicted")
	}
}

func TestStaleResultDiscardedAfterEviction(t *testing.T) {
	release := make(chan struct{})
	c := New(Options{Window: 1, Loader: func(path string) (image.Image, error) {
		<-release
		return testImage(4, 4), nil
	}})

	c.Request("slow.png", 0)
	// Navigate far away while the load is still blocked.
	c.Navigate(50)
	close(release)

	// The late result must not resurrect the entry.
	deadline := time.Now().Add(200 * time.Millisecond)
	for time.Now().Before(deadline) {
		if _, ok := c.State("slow.png"); ok {
			t.Fatal("stale load populated an evicted entry")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestSnapshotExposesLoadedOnly(t *testing.T) {
	block := make(chan struct{})
	c := New(Options{Loader: func(path string) (image.Image, error) {
		if filepath.Base(path) == "slow.png" {
			<-block
		}
		if filepath.Base(path) == "bad.png" {
			return nil, errors.New("nope")
		}
		return testImage(32, 16), nil
	}})
	defer close(block)

	c.Request("ok.png", 0)
	c.Request("bad.png", 0)
	c.Request("slow.png", 0)
	waitState(t, c, "ok.png")
	waitState(t, c, "bad.png")

	snap := c.Snapshot()
	if snap.Len() != 1 {
		t.Fatalf("snapshot holds %d images, want 1", snap.Len())
	}
	w, h, ok := snap.Dims("ok.png")
	if !ok || w != 32 || h != 16 {
		t.Fatalf("Dims = %d x %d, %v", w, h, ok)
	}
	if _, _, ok := snap.Dims("slow.png"); ok {
		t.Fatal("pending image visible in snapshot")
	}
	if _, _, ok := snap.Dims("bad.png"); ok {
		t.Fatal("failed image visible in snapshot")
	}
	if img, ok := snap.Image("ok.png"); !ok || img == nil {
		t.Fatal("Image() missing for loaded entry")
	}
}

func TestNormalizeResolvesAgainstBase(t *testing.T) {
	c := New(Options{Base: filepath.Join("decks", "demo")})
	got := c.Normalize(filepath.Join("img", "a.png"))
	want := filepath.Join("decks", "demo", "img", "a.png")
	if got != want {
		t.Fatalf("Normalize = %q, want %q", got, want)
	}

	abs := filepath.Join(string(filepath.Separator), "tmp", "b.png")
	if got := c.Normalize(abs); got != abs {
		t.Fatalf("absolute path changed: %q", got)
	}
}

func TestFitToBounds(t *testing.T) {
	cases := []struct {
		name         string
		w, h         int
		maxW, maxH   int
		wantW, wantH int
	}{
		{"no bounds", 100, 50, 0, 0, 100, 50},
		{"fits already", 100, 50, 200, 200, 100, 50},
		{"width limited", 200, 100, 100, 0, 100, 50},
		{"height limited", 200, 100, 0, 50, 100, 50},
		{"both limited takes smaller", 400, 400, 200, 100, 100, 100},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := fitToBounds(testImage(tc.w, tc.h), tc.maxW, tc.maxH)
			b := got.Bounds()
			if b.Dx() != tc.wantW || b.Dy() != tc.wantH {
				t.Fatalf("got %d x %d, want %d x %d", b.Dx(), b.Dy(), tc.wantW, tc.wantH)
			}
		})
	}
}
