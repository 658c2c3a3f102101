// Copyright 2025 walteh LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package host

import (
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	"gitlab.com/tozd/go/errors"
)

// 📐 Range is a half-open span of byte offsets into a document
type Range struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// Whole covers all of text
func Whole(text string) Range {
	return Range{Start: 0, End: len(text)}
}

// Empty reports whether the range selects nothing
func (r Range) Empty() bool {
	return r.End <= r.Start
}

// Valid reports whether r lies inside text on rune boundaries
func (r Range) Valid(text string) bool {
	if r.Start < 0 || r.End < r.Start || r.End > len(text) {
		return false
	}
	return boundary(text, r.Start) && boundary(text, r.End)
}

// Slice returns the text inside r
func (r Range) Slice(text string) string {
	return text[r.Start:r.End]
}

// Splice returns text with r replaced by repl
func (r Range) Splice(text, repl string) string {
	return text[:r.Start] + repl + text[r.End:]
}

func boundary(text string, off int) bool {
	return off == len(text) || utf8.RuneStart(text[off])
}

// 📍 Position is a 1-based line and rune column
type Position struct {
	Line int
	Col  int
}

func (p Position) String() string {
	return fmt.Sprintf("%d:%d", p.Line, p.Col)
}

// ParsePosition parses "LINE:COL"
func ParsePosition(s string) (Position, error) {
	line, col, ok := strings.Cut(s, ":")
	if !ok {
		return Position{}, errors.Errorf("position %q must be LINE:COL", s)
	}
	l, err := strconv.Atoi(line)
	if err != nil {
		return Position{}, errors.Errorf("parsing line in %q: %w", s, err)
	}
	c, err := strconv.Atoi(col)
	if err != nil {
		return Position{}, errors.Errorf("parsing column in %q: %w", s, err)
	}
	if l < 1 || c < 1 {
		return Position{}, errors.Errorf("position %q must be 1-based", s)
	}
	return Position{Line: l, Col: c}, nil
}

// 🔢 Offset converts p to a byte offset in text. A column one past the last rune of
// a line addresses the line end.
func Offset(text string, p Position) (int, error) {
	off := 0
	for line := 1; line < p.Line; line++ {
		nl := strings.IndexByte(text[off:], '\n')
		if nl < 0 {
			return 0, errors.Errorf("line %d is past the end of the document", p.Line)
		}
		off += nl + 1
	}

	lineText := text[off:]
	if nl := strings.IndexByte(lineText, '\n'); nl >= 0 {
		lineText = lineText[:nl]
	}

	col := 1
	for i := range lineText {
		if col == p.Col {
			return off + i, nil
		}
		col++
	}
	if col == p.Col {
		return off + len(lineText), nil
	}
	return 0, errors.Errorf("column %d is past the end of line %d", p.Col, p.Line)
}

// PositionOf converts a byte offset back to a position
func PositionOf(text string, off int) Position {
	if off > len(text) {
		off = len(text)
	}
	before := text[:off]
	line := strings.Count(before, "\n") + 1
	lineStart := strings.LastIndexByte(before, '\n') + 1
	return Position{Line: line, Col: utf8.RuneCountInString(before[lineStart:]) + 1}
}

// RangeOf converts two positions into a byte range
func RangeOf(text string, from, to Position) (Range, error) {
	start, err := Offset(text, from)
	if err != nil {
		return Range{}, errors.Errorf("resolving start: %w", err)
	}
	end, err := Offset(text, to)
	if err != nil {
		return Range{}, errors.Errorf("resolving end: %w", err)
	}
	if end < start {
		return Range{}, errors.Errorf("range end %s is before start %s", to, from)
	}
	return Range{Start: start, End: end}, nil
}
