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

package rules

import (
	"regexp"
	"slices"
)

// Built-in rule identifiers
const (
	IDExclamationSpacing = "exclamation-spacing"
	IDPunctuationSpacing = "punctuation-spacing"
	IDDesuPeriod         = "desu-period"
	IDMasuPeriod         = "masu-period"
)

const ideographicSpace = "　"

// closers are characters that may legitimately follow sentence-final punctuation
const closers = `」』）)\]】〉》"”’`

var (
	// ASCII marks count only after Japanese text so URLs and code stay intact
	exclamationPattern = regexp.MustCompile(`[！？]|[^\x00-\x7F！？][!?]`)
	// next char is more punctuation, whitespace, a closer, a link bracket or end of text
	exclamationFollow = regexp.MustCompile(`^(?:[！？!?\s\x{3000}\[` + closers + `]|$)`)

	punctuationPattern = regexp.MustCompile(`([、。])[ \t\x{3000}\x{00A0}]+`)
	punctuationFollow  = regexp.MustCompile(`^[^\r\n]`)

	desuPattern = regexp.MustCompile(`です`)
	masuPattern = regexp.MustCompile(`ます`)
	// terminal punctuation, whitespace, closers and anything continuing the sentence
	sentenceEndFollow = regexp.MustCompile(`^[。．.！？!?\s\x{3000}\x{00A0}、，,` + closers + `ー〜～…\p{Hiragana}]`)
)

// 📚 Defaults returns the built-in rules in evaluation order. Order matters: the
// sentence-ending rules see text whose punctuation spacing is already normalized.
func Defaults() []Rule {
	return []Rule{
		{
			ID:          IDExclamationSpacing,
			Description: "感嘆符・疑問符の後に全角スペースを挿入",
			Pattern:     exclamationPattern,
			Lookahead:   Lookahead{Pattern: exclamationFollow, Negate: true},
			Replacement: Transform(func(match string, _ []string) string {
				return match + ideographicSpace
			}),
		},
		{
			ID:          IDPunctuationSpacing,
			Description: "句読点の後の不要な空白を削除",
			Pattern:     punctuationPattern,
			Lookahead:   Lookahead{Pattern: punctuationFollow},
			Replacement: Transform(func(_ string, groups []string) string {
				return groups[1]
			}),
		},
		{
			ID:          IDDesuPeriod,
			Description: "「です」の後に句点を追加",
			Pattern:     desuPattern,
			Lookahead:   Lookahead{Pattern: sentenceEndFollow, Negate: true},
			Replacement: Literal("です。"),
		},
		{
			ID:          IDMasuPeriod,
			Description: "「ます」の後に句点を追加",
			Pattern:     masuPattern,
			Lookahead:   Lookahead{Pattern: sentenceEndFollow, Negate: true},
			Replacement: Literal("ます。"),
		},
	}
}

// Without drops rules whose ID is listed in disabled.
func Without(rules []Rule, disabled []string) []Rule {
	if len(disabled) == 0 {
		return rules
	}
	out := make([]Rule, 0, len(rules))
	for _, r := range rules {
		if slices.Contains(disabled, r.ID) {
			continue
		}
		out = append(out, r)
	}
	return out
}
