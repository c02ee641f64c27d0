/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package theme

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"image/color"
	"log/slog"
	"os"
	"strconv"

	gojsonschema "github.com/xeipuuv/gojsonschema"

	applog "github.com/mklab-se/mdeck/internal/log"
)

//go:embed schema.json
var themeSchema []byte

type themeFile struct {
	Name           string `json:"name"`
	Background     string `json:"background"`
	Foreground     string `json:"foreground"`
	HeadingColor   string `json:"headingColor"`
	Accent         string `json:"accent"`
	CodeBackground string `json:"codeBackground"`
	CodeForeground string `json:"codeForeground"`
	Sizes          struct {
		H1   float32 `json:"h1"`
		H2   float32 `json:"h2"`
		H3   float32 `json:"h3"`
		Body float32 `json:"body"`
		Code float32 `json:"code"`
	} `json:"sizes"`
}

// LoadFile reads a custom theme from a JSON file. The document is
// validated against the embedded schema before decoding; omitted colors
// and sizes inherit from the light palette.
func LoadFile(path string) (Theme, error) {
	l := applog.WithOperation(applog.WithComponent("theme"), "load").With(slog.String("path", path))

	data, err := os.ReadFile(path)
	if err != nil {
		return Theme{}, fmt.Errorf("read theme: %w", err)
	}

	result, err := gojsonschema.Validate(
		gojsonschema.NewBytesLoader(themeSchema),
		gojsonschema.NewBytesLoader(data),
	)
	if err != nil {
		return Theme{}, fmt.Errorf("validate theme: %w", err)
	}
	if !result.Valid() {
		for _, e := range result.Errors() {
			l.Warn("theme schema violation", slog.String("detail", e.String()))
		}
		return Theme{}, fmt.Errorf("theme %s does not conform to schema", path)
	}

	var tf themeFile
	if err := json.Unmarshal(data, &tf); err != nil {
		return Theme{}, fmt.Errorf("decode theme: %w", err)
	}

	t := Light()
	t.Name = tf.Name
	assignColor(&t.Background, tf.Background)
	assignColor(&t.Foreground, tf.Foreground)
	assignColor(&t.HeadingColor, tf.HeadingColor)
	assignColor(&t.Accent, tf.Accent)
	assignColor(&t.CodeBackground, tf.CodeBackground)
	assignColor(&t.CodeForeground, tf.CodeForeground)
	assignSize(&t.H1Size, tf.Sizes.H1)
	assignSize(&t.H2Size, tf.Sizes.H2)
	assignSize(&t.H3Size, tf.Sizes.H3)
	assignSize(&t.BodySize, tf.Sizes.Body)
	assignSize(&t.CodeSize, tf.Sizes.Code)

	l.Info("custom theme loaded", slog.String("name", t.Name))
	return t, nil
}

func assignColor(dst *color.NRGBA, hex string) {
	if hex == "" {
		return
	}
	c, err := ParseHexColor(hex)
	if err != nil {
		return
	}
	*dst = c
}

func assignSize(dst *float32, v float32) {
	if v > 0 {
		*dst = v
	}
}

// ParseHexColor parses a #RRGGBB color string.
func ParseHexColor(s string) (color.NRGBA, error) {
	if len(s) != 7 || s[0] != '#' {
		return color.NRGBA{}, fmt.Errorf("invalid color %q", s)
	}
	n, err := strconv.ParseUint(s[1:], 16, 32)
	if err != nil {
		return color.NRGBA{}, fmt.Errorf("invalid color %q", s)
	}
	return color.NRGBA{
		R: uint8(n >> 16),
		G: uint8(n >> 8),
		B: uint8(n),
		A: 0xFF,
	}, nil
}
