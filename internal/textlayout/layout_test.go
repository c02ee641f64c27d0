/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package textlayout

import "testing"

func TestMeasureScalesLinearly(t *testing.T) {
	small := Measure(nil, "hello", FontSpec{SizePt: 13})
	big := Measure(nil, "hello", FontSpec{SizePt: 26})
	if small <= 0 {
		t.Fatalf("width = %v", small)
	}
	if big != small*2 {
		t.Fatalf("expected doubled width, got %v vs %v", big, small)
	}
}

func TestLayoutSingleLine(t *testing.T) {
	l := NewWordWrap(BasicProvider{})
	box, err := l.Layout([]Span{{Text: "hello world", Font: FontSpec{SizePt: 13}}}, 10_000)
	if err != nil {
		t.Fatalf("layout error: %v", err)
	}
	if len(box.Lines) != 1 {
		t.Fatalf("expected 1 line, got %d", len(box.Lines))
	}
	if box.Width <= 0 || box.Height <= 0 {
		t.Fatalf("box = %+v", box)
	}
}

func TestLayoutWraps(t *testing.T) {
	l := NewWordWrap(BasicProvider{})
	wordWidth := Measure(nil, "word", FontSpec{SizePt: 13})
	box, err := l.Layout(
		[]Span{{Text: "word word word word", Font: FontSpec{SizePt: 13}}},
		wordWidth*2,
	)
	if err != nil {
		t.Fatalf("layout error: %v", err)
	}
	if len(box.Lines) < 2 {
		t.Fatalf("expected wrapping, got %d lines", len(box.Lines))
	}
	for _, line := range box.Lines {
		if line.Width > wordWidth*2+1 {
			t.Fatalf("line exceeds max width: %v", line.Width)
		}
	}
}

func TestLayoutNewlines(t *testing.T) {
	l := NewWordWrap(BasicProvider{})
	box, err := l.Layout([]Span{{Text: "a\nb\nc", Font: FontSpec{SizePt: 13}}}, 10_000)
	if err != nil {
		t.Fatalf("layout error: %v", err)
	}
	if len(box.Lines) != 3 {
		t.Fatalf("expected 3 lines, got %d", len(box.Lines))
	}
}

func TestLayoutDeterministic(t *testing.T) {
	l := NewWordWrap(BasicProvider{})
	spans := []Span{
		{Text: "mixed size ", Font: FontSpec{SizePt: 44}},
		{Text: "content here", Font: FontSpec{SizePt: 30, Monospace: true}},
	}
	a, err := l.Layout(spans, 300)
	if err != nil {
		t.Fatalf("layout error: %v", err)
	}
	b, err := l.Layout(spans, 300)
	if err != nil {
		t.Fatalf("layout error: %v", err)
	}
	if len(a.Lines) != len(b.Lines) || a.Height != b.Height || a.Width != b.Width {
		t.Fatalf("layout not deterministic: %+v vs %+v", a, b)
	}
}

func TestLineHeightGrowsWithSize(t *testing.T) {
	small := LineHeight(nil, FontSpec{SizePt: 13})
	big := LineHeight(nil, FontSpec{SizePt: 52})
	if big <= small {
		t.Fatalf("line height %v not larger than %v", big, small)
	}
}
