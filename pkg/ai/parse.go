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

package ai

import (
	"encoding/json"
	"strings"

	"gitlab.com/tozd/go/errors"
)

// Parse errors
var (
	ErrNoJSON         = errors.New("response contains no JSON object")
	ErrMissingField   = errors.New("response is missing a required field")
	ErrEmptyCorrected = errors.New("response has an empty corrected text")
)

// Result is a successful model correction
type Result struct {
	Corrected string
	Reason    string
}

type payload struct {
	Corrected *string `json:"corrected"`
	Reason    *string `json:"reason"`
}

// 🔍 ParseResponse extracts the corrected text and reason from a raw model reply.
//
// With a selection, the span between sentinel markers wins when present, either in
// the decoded "corrected" field or in the raw text. Models sometimes echo the whole
// context back. Otherwise the top-level fields are required.
func ParseResponse(raw string, withSelection bool) (*Result, error) {
	cleaned := stripFences(strings.TrimSpace(raw))

	var p payload
	var jsonErr error = ErrNoJSON
	if obj, ok := extractObject(cleaned); ok {
		jsonErr = json.Unmarshal([]byte(obj), &p)
	}

	if withSelection {
		reason := ""
		if jsonErr == nil && p.Reason != nil {
			reason = *p.Reason
		}
		if jsonErr == nil && p.Corrected != nil {
			if span, ok := betweenMarkers(*p.Corrected); ok {
				return &Result{Corrected: span, Reason: reason}, nil
			}
		}
		if span, ok := betweenMarkers(cleaned); ok {
			return &Result{Corrected: span, Reason: reason}, nil
		}
	}

	if jsonErr != nil {
		return nil, errors.Errorf("parsing response JSON: %w", jsonErr)
	}
	if p.Corrected == nil {
		return nil, errors.Errorf("%w: corrected", ErrMissingField)
	}
	if p.Reason == nil {
		return nil, errors.Errorf("%w: reason", ErrMissingField)
	}

	corrected := stripMarkers(*p.Corrected)
	if strings.TrimSpace(corrected) == "" {
		return nil, ErrEmptyCorrected
	}

	return &Result{Corrected: corrected, Reason: *p.Reason}, nil
}

// stripFences removes a surrounding markdown code fence
func stripFences(s string) string {
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

// extractObject returns the outermost {...} in s
func extractObject(s string) (string, bool) {
	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start < 0 || end <= start {
		return "", false
	}
	return s[start : end+1], true
}

func betweenMarkers(s string) (string, bool) {
	start := strings.Index(s, MarkerStart)
	if start < 0 {
		return "", false
	}
	rest := s[start+len(MarkerStart):]
	end := strings.Index(rest, MarkerEnd)
	if end < 0 {
		return "", false
	}
	return rest[:end], true
}

func stripMarkers(s string) string {
	s = strings.ReplaceAll(s, MarkerStart, "")
	return strings.ReplaceAll(s, MarkerEnd, "")
}
