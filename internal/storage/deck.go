/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package storage reads deck files from disk and caches rendered slide
// thumbnails in an embedded SQLite database.
package storage

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Deck is a markdown presentation file as read from disk.
type Deck struct {
	// Path is the file as given on the command line.
	Path string
	// Base is the deck's directory; relative image paths resolve
	// against it.
	Base string
	// Source is the file content with any UTF-8 BOM stripped.
	Source string
	// Hash identifies this exact content, used as the preview cache key.
	Hash string
}

// LoadDeck reads a presentation source file.
func LoadDeck(path string) (Deck, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Deck{}, fmt.Errorf("read deck: %w", err)
	}
	source := strings.TrimPrefix(string(raw), "\uFEFF")

	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}
	sum := sha256.Sum256([]byte(source))
	return Deck{
		Path:   path,
		Base:   filepath.Dir(abs),
		Source: source,
		Hash:   hex.EncodeToString(sum[:]),
	}, nil
}
