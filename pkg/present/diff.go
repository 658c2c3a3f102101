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

package present

import (
	"strings"

	"github.com/fatih/color"
	"github.com/pmezard/go-difflib/difflib"
	"github.com/sergi/go-diff/diffmatchpatch"
)

// 📜 Unified renders a line diff between two texts
func Unified(original, corrected, fromName, toName string) string {
	out, err := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        difflib.SplitLines(ensureNewline(original)),
		B:        difflib.SplitLines(ensureNewline(corrected)),
		FromFile: fromName,
		ToFile:   toName,
		Context:  2,
	})
	if err != nil {
		// only returned by the underlying writer, which is a buffer
		return ""
	}
	return out
}

func ensureNewline(s string) string {
	if s == "" || strings.HasSuffix(s, "\n") {
		return s
	}
	return s + "\n"
}

// Op is the kind of an inline segment
type Op int

const (
	Equal Op = iota
	Insert
	Delete
)

// Segment is one run of an inline diff
type Segment struct {
	Op   Op
	Text string
}

// 🔬 Inline diffs two texts per character. Japanese has no spaces between words,
// so a word diff would treat whole sentences as one token.
func Inline(original, corrected string) []Segment {
	dmp := diffmatchpatch.New()
	diffs := dmp.DiffMain(original, corrected, false)
	diffs = dmp.DiffCleanupSemantic(diffs)

	segments := make([]Segment, 0, len(diffs))
	for _, d := range diffs {
		var op Op
		switch d.Type {
		case diffmatchpatch.DiffInsert:
			op = Insert
		case diffmatchpatch.DiffDelete:
			op = Delete
		default:
			op = Equal
		}
		segments = append(segments, Segment{Op: op, Text: d.Text})
	}
	return segments
}

// 🎨 RenderInline colors an inline diff for a terminal. Deletions are wrapped in
// [- -] and insertions in {+ +} so the diff reads without color too.
func RenderInline(segments []Segment) string {
	del := color.New(color.FgRed, color.CrossedOut)
	ins := color.New(color.FgGreen, color.Bold)

	var b strings.Builder
	for _, s := range segments {
		switch s.Op {
		case Delete:
			b.WriteString(del.Sprint("[-" + s.Text + "-]"))
		case Insert:
			b.WriteString(ins.Sprint("{+" + s.Text + "+}"))
		default:
			b.WriteString(s.Text)
		}
	}
	return b.String()
}
