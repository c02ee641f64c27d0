/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package annotate

import (
	"image/color"
	"testing"
	"time"

	"github.com/mklab-se/mdeck/internal/scene"
)

var red = color.NRGBA{R: 0xFF, A: 0xFF}

func TestPenStrokeStreamsPoints(t *testing.T) {
	b := NewBoard()
	b.Begin(2, Pen, scene.Pt{X: 1, Y: 1}, red, 3)
	b.Extend(scene.Pt{X: 2, Y: 2})
	b.Extend(scene.Pt{X: 3, Y: 3})

	// Live stroke is visible before End.
	live := b.Strokes(2)
	if len(live) != 1 || len(live[0].Points) != 3 {
		t.Fatalf("live strokes = %+v", live)
	}

	b.End()
	got := b.Strokes(2)
	if len(got) != 1 {
		t.Fatalf("committed %d strokes, want 1", len(got))
	}
	if got[0].Kind != Pen || len(got[0].Points) != 3 {
		t.Fatalf("stroke = %+v", got[0])
	}
	if len(b.Strokes(1)) != 0 {
		t.Fatal("stroke leaked to another slide")
	}
}

func TestArrowKeepsStartAndLiveEnd(t *testing.T) {
	b := NewBoard()
	b.Begin(0, Arrow, scene.Pt{X: 10, Y: 10}, red, 3)
	b.Extend(scene.Pt{X: 20, Y: 10})
	b.Extend(scene.Pt{X: 30, Y: 15})
	b.Extend(scene.Pt{X: 40, Y: 20})
	b.End()

	got := b.Strokes(0)
	if len(got) != 1 {
		t.Fatalf("committed %d strokes, want 1", len(got))
	}
	s := got[0]
	if len(s.Points) != 2 {
		t.Fatalf("arrow has %d points, want start and end only", len(s.Points))
	}
	if s.Points[0] != (scene.Pt{X: 10, Y: 10}) || s.Points[1] != (scene.Pt{X: 40, Y: 20}) {
		t.Fatalf("arrow points = %+v", s.Points)
	}
}

func TestTapDiscarded(t *testing.T) {
	b := NewBoard()
	b.Begin(0, Pen, scene.Pt{X: 5, Y: 5}, red, 3)
	b.End()
	if !b.Empty(0) {
		t.Fatal("single-point stroke should not commit")
	}
}

func TestClearAndUndo(t *testing.T) {
	b := NewBoard()
	for i := 0; i < 3; i++ {
		b.Begin(1, Pen, scene.Pt{}, red, 3)
		b.Extend(scene.Pt{X: float32(i + 1)})
		b.End()
	}

	if !b.Undo(1) {
		t.Fatal("undo failed with strokes present")
	}
	if got := len(b.Strokes(1)); got != 2 {
		t.Fatalf("after undo: %d strokes, want 2", got)
	}

	if !b.Clear(1) {
		t.Fatal("clear reported nothing to remove")
	}
	if !b.Empty(1) {
		t.Fatal("layer not empty after clear")
	}
	if b.Clear(1) {
		t.Fatal("second clear should report empty")
	}
	if b.Undo(1) {
		t.Fatal("undo on empty layer should fail")
	}
}

func TestQuitFSMClearsNonEmptyLayer(t *testing.T) {
	f := NewQuitFSM()
	if got := f.Trigger(false); got != DecisionClear {
		t.Fatalf("got %v, want clear", got)
	}
	if f.Phase() != Idle {
		t.Fatalf("phase = %v, want idle", f.Phase())
	}
}

func TestQuitFSMDoubleTriggerQuits(t *testing.T) {
	f := NewQuitFSM()
	if got := f.Trigger(true); got != DecisionArmed {
		t.Fatalf("first trigger = %v, want armed", got)
	}
	if f.Phase() != QuitPending {
		t.Fatalf("phase = %v, want quit-pending", f.Phase())
	}
	if got := f.Trigger(true); got != DecisionQuit {
		t.Fatalf("second trigger = %v, want quit", got)
	}
	if f.Phase() != Quit {
		t.Fatalf("phase = %v, want quit", f.Phase())
	}
	if got := f.Trigger(true); got != DecisionNone {
		t.Fatalf("post-quit trigger = %v, want none", got)
	}
}

func TestQuitFSMTimesOut(t *testing.T) {
	now := time.Now()
	f := NewQuitFSM()
	f.now = func() time.Time { return now }

	f.Trigger(true)
	now = now.Add(QuitWindow + time.Millisecond)
	if f.Phase() != Idle {
		t.Fatalf("phase = %v, want idle after timeout", f.Phase())
	}
	// The next trigger arms again instead of quitting.
	if got := f.Trigger(true); got != DecisionArmed {
		t.Fatalf("got %v, want armed", got)
	}
}

func TestQuitFSMInterruptDisarms(t *testing.T) {
	f := NewQuitFSM()
	f.Trigger(true)
	f.Interrupt()
	if f.Phase() != Idle {
		t.Fatalf("phase = %v, want idle after interrupt", f.Phase())
	}
	if got := f.Trigger(true); got != DecisionArmed {
		t.Fatalf("got %v, want armed", got)
	}
}

func TestDrawArrowEmitsHead(t *testing.T) {
	sc := &scene.Scene{}
	Draw(sc, Stroke{Kind: Arrow, Points: []scene.Pt{{X: 0, Y: 0}, {X: 100, Y: 0}}, Color: red, Width: 3}, 1)

	lines, polys := 0, 0
	for _, op := range sc.Ops {
		switch op.Kind {
		case scene.OpLine:
			lines++
		case scene.OpPolygon:
			polys++
		}
	}
	if lines != 2 {
		t.Fatalf("%d lines, want shadow + body", lines)
	}
	if polys != 2 {
		t.Fatalf("%d polygons, want shadow + head", polys)
	}
}

func TestDrawPenGlowUnderCore(t *testing.T) {
	sc := &scene.Scene{}
	pts := []scene.Pt{{X: 0, Y: 0}, {X: 10, Y: 0}, {X: 20, Y: 5}}
	Draw(sc, Stroke{Kind: Pen, Points: pts, Color: red, Width: 2}, 1)

	if len(sc.Ops) != 4 {
		t.Fatalf("%d ops, want 2 glow + 2 core segments", len(sc.Ops))
	}
	if sc.Ops[0].Width <= sc.Ops[2].Width {
		t.Fatal("glow should be wider than the core line")
	}
	if sc.Ops[0].Color.A >= sc.Ops[2].Color.A {
		t.Fatal("glow should be more translucent than the core line")
	}
}
