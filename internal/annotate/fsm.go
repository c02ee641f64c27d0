/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package annotate

import "time"

// Phase is the state of the clear/quit machine.
type Phase int

const (
	// Idle is the resting state.
	Idle Phase = iota
	// QuitPending means one clear landed on an empty layer; a second
	// one within QuitWindow quits.
	QuitPending
	// Quit is terminal; the navigation controller exits.
	Quit
)

// QuitWindow is how long a pending quit stays armed.
const QuitWindow = time.Second

// Decision is what the caller should do after feeding a clear trigger.
type Decision int

const (
	// DecisionClear: wipe the current slide's layer.
	DecisionClear Decision = iota
	// DecisionArmed: nothing cleared, quit armed, show a hint if desired.
	DecisionArmed
	// DecisionQuit: leave the presentation.
	DecisionQuit
	// DecisionNone: trigger ignored (already quit).
	DecisionNone
)

// QuitFSM resolves the double-duty clear key. One instance per
// presentation session, owned by the navigation controller.
type QuitFSM struct {
	phase    Phase
	deadline time.Time
	now      func() time.Time
}

func NewQuitFSM() *QuitFSM {
	return &QuitFSM{now: time.Now}
}

// Phase reports the current state, expiring a stale pending quit first.
func (f *QuitFSM) Phase() Phase {
	f.expire()
	return f.phase
}

// Trigger feeds one clear keypress. layerEmpty is whether the current
// slide's annotation layer has anything to clear.
func (f *QuitFSM) Trigger(layerEmpty bool) Decision {
	f.expire()
	switch f.phase {
	case Quit:
		return DecisionNone
	case QuitPending:
		f.phase = Quit
		return DecisionQuit
	default:
		if !layerEmpty {
			return DecisionClear
		}
		f.phase = QuitPending
		f.deadline = f.now().Add(QuitWindow)
		return DecisionArmed
	}
}

// Interrupt is any non-clear input; it disarms a pending quit.
func (f *QuitFSM) Interrupt() {
	if f.phase == QuitPending {
		f.phase = Idle
	}
}

func (f *QuitFSM) expire() {
	if f.phase == QuitPending && f.now().After(f.deadline) {
		f.phase = Idle
	}
}
