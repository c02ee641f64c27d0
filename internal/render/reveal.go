/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package render

import "github.com/mklab-se/mdeck/internal/domain"

// MaxRevealSteps counts the incremental reveal steps of a slide. Each
// "+" list item opens a new step; "*" items attach to the current one.
// A slide without build markers has zero steps and shows everything.
func MaxRevealSteps(blocks []domain.Block) int {
	steps := 0
	var walk func(items []domain.ListItem)
	walk = func(items []domain.ListItem) {
		for _, item := range items {
			if item.Marker == domain.MarkerNextStep {
				steps++
			}
			walk(item.Children)
		}
	}
	for _, blk := range blocks {
		if blk.Kind == domain.KindList {
			walk(blk.Items)
		}
	}
	return steps
}
