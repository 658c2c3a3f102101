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

// Package style classifies the sentence-ending register of a Japanese document.
package style

import (
	"regexp"

	"github.com/walteh/kousei/pkg/i18n"
	"golang.org/x/text/message"
)

// 📊 Style is the sentence-ending register of a document
type Style int

const (
	Unknown Style = iota
	Formal        // です・ます調
	Plain         // である調
	Mixed
)

// String returns a string representation of Style
func (s Style) String() string {
	switch s {
	case Formal:
		return "formal"
	case Plain:
		return "plain"
	case Mixed:
		return "mixed"
	default:
		return "unknown"
	}
}

var (
	plainEnding  = regexp.MustCompile(`(?:である|だ)。`)
	formalEnding = regexp.MustCompile(`(?:です|ます)。`)
)

// Counts holds the number of sentence endings of each register
type Counts struct {
	Plain  int
	Formal int
}

// Analysis is the result of Analyze
type Analysis struct {
	Style  Style
	Counts Counts
}

// 🔍 Analyze counts sentence endings across the whole document and classifies it.
// Consistency is a document-level property, so callers pass the full text even
// when only a selection is being corrected.
func Analyze(text string) Analysis {
	counts := Counts{
		Plain:  len(plainEnding.FindAllStringIndex(text, -1)),
		Formal: len(formalEnding.FindAllStringIndex(text, -1)),
	}

	var s Style
	switch {
	case counts.Plain > 0 && counts.Formal > 0:
		s = Mixed
	case counts.Plain > 0:
		s = Plain
	case counts.Formal > 0:
		s = Formal
	default:
		s = Unknown
	}

	return Analysis{Style: s, Counts: counts}
}

// 💡 Suggestion returns the Japanese advisory text for a
func Suggestion(a Analysis) string {
	return SuggestionIn(i18n.Japanese(), a)
}

// SuggestionIn returns the advisory text for a using printer p
func SuggestionIn(p *message.Printer, a Analysis) string {
	switch a.Style {
	case Mixed:
		return p.Sprintf(i18n.StyleMixed, a.Counts.Formal, a.Counts.Plain)
	case Formal:
		return p.Sprintf(i18n.StyleFormal, a.Counts.Formal)
	case Plain:
		return p.Sprintf(i18n.StylePlain, a.Counts.Plain)
	default:
		return p.Sprintf(i18n.StyleUnknown)
	}
}
