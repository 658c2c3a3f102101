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
)

// 🏷️ ReplacementKind tags the variant held by a Replacement
type ReplacementKind int

const (
	KindLiteral ReplacementKind = iota
	KindTemplate
	KindTransform
)

func (k ReplacementKind) String() string {
	switch k {
	case KindLiteral:
		return "literal"
	case KindTemplate:
		return "template"
	case KindTransform:
		return "transform"
	default:
		return "unknown"
	}
}

// TransformFunc computes a replacement from the full match and its capture groups.
// groups[0] is the full match. Implementations must be pure.
type TransformFunc func(match string, groups []string) string

// 🔄 Replacement is what a rule writes in place of each accepted match
type Replacement struct {
	kind      ReplacementKind
	text      string
	transform TransformFunc
}

// Literal inserts text verbatim.
func Literal(text string) Replacement {
	return Replacement{kind: KindLiteral, text: text}
}

// Template expands $1 / ${name} references against the match.
func Template(text string) Replacement {
	return Replacement{kind: KindTemplate, text: text}
}

// Transform calls fn for every accepted match.
func Transform(fn TransformFunc) Replacement {
	return Replacement{kind: KindTransform, transform: fn}
}

// Kind reports which variant r holds.
func (r Replacement) Kind() ReplacementKind {
	return r.kind
}

func (r Replacement) expand(re *regexp.Regexp, src string, loc []int) string {
	switch r.kind {
	case KindTemplate:
		return string(re.ExpandString(nil, r.text, src, loc))
	case KindTransform:
		groups := make([]string, len(loc)/2)
		for i := range groups {
			if loc[2*i] >= 0 {
				groups[i] = src[loc[2*i]:loc[2*i+1]]
			}
		}
		return r.transform(groups[0], groups)
	default:
		return r.text
	}
}

// 🔭 Lookahead is a condition on the text immediately after a match.
//
// RE2 has no lookaround, so rules that need one carry it here. Pattern is matched
// anchored at the end of the match (against the empty string at end of text);
// Negate inverts the result.
type Lookahead struct {
	Pattern *regexp.Regexp
	Negate  bool
}

func (l Lookahead) accepts(rest string) bool {
	if l.Pattern == nil {
		return true
	}
	loc := l.Pattern.FindStringIndex(rest)
	hit := loc != nil && loc[0] == 0
	return hit != l.Negate
}

// 📏 Rule is a single proofreading substitution
type Rule struct {
	// ID is a stable identifier used by configuration (disabled_rules) and logs
	ID string

	// Description is the human-readable label shown to the user
	Description string

	// Pattern is matched globally against the current text
	Pattern *regexp.Regexp

	// Lookahead optionally restricts which matches are replaced
	Lookahead Lookahead

	// Replacement is written in place of each accepted match
	Replacement Replacement

	// Files optionally limits the rule to documents matching one of these globs
	Files []string
}

// Fired records a rule that changed the text during one Apply call.
type Fired struct {
	Rule   Rule
	Before string
	After  string
	Count  int
}
