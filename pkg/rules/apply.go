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
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// 🏃 Apply runs every rule once, in order, each over the output of the previous one.
// Only rules that changed the text are reported.
func Apply(rules []Rule, text string) (string, []Fired) {
	return ApplyTo("", rules, text)
}

// 🎯 ApplyTo is Apply restricted to rules whose Files globs match path.
// Rules without globs always apply; an empty path only runs those.
func ApplyTo(path string, rules []Rule, text string) (string, []Fired) {
	var fired []Fired

	current := text
	for _, rule := range rules {
		// Skip empty rules
		if rule.Pattern == nil {
			continue
		}
		if !rule.appliesTo(path) {
			continue
		}

		next, count := rule.replaceAll(current)

		// Update log if changed
		if next != current {
			fired = append(fired, Fired{
				Rule:   rule,
				Before: current,
				After:  next,
				Count:  count,
			})
		}

		current = next
	}

	return current, fired
}

func (r Rule) appliesTo(path string) bool {
	if len(r.Files) == 0 {
		return true
	}
	if path == "" {
		return false
	}
	for _, glob := range r.Files {
		if ok, _ := doublestar.PathMatch(glob, path); ok {
			return true
		}
		if ok, _ := doublestar.Match(glob, baseName(path)); ok {
			return true
		}
	}
	return false
}

// replaceAll substitutes every accepted, non-overlapping match of the rule's pattern.
// A match rejected by the lookahead is copied through and scanning resumes after it.
func (r Rule) replaceAll(src string) (string, int) {
	matches := r.Pattern.FindAllStringSubmatchIndex(src, -1)
	if len(matches) == 0 {
		return src, 0
	}

	var b strings.Builder
	b.Grow(len(src))

	count := 0
	last := 0
	for _, loc := range matches {
		start, end := loc[0], loc[1]
		if !r.Lookahead.accepts(src[end:]) {
			continue
		}
		b.WriteString(src[last:start])
		b.WriteString(r.Replacement.expand(r.Pattern, src, loc))
		last = end
		count++
	}
	if count == 0 {
		return src, 0
	}
	b.WriteString(src[last:])

	return b.String(), count
}

func baseName(path string) string {
	if i := strings.LastIndexAny(path, `/\`); i >= 0 {
		return path[i+1:]
	}
	return path
}
