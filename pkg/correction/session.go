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

package correction

import (
	"context"

	"github.com/google/uuid"

	"github.com/walteh/kousei/pkg/ai"
	"github.com/walteh/kousei/pkg/host"
)

// Kind is where a correction record came from
type Kind string

const (
	KindStyle Kind = "style"
	KindRule  Kind = "rule"
	KindAI    Kind = "ai"
)

// 📝 Record is one logged correction step. Style records are advisories: Original
// and Corrected are the same text.
type Record struct {
	Kind        Kind   `json:"kind"`
	RuleID      string `json:"rule_id,omitempty"`
	Original    string `json:"original"`
	Corrected   string `json:"corrected"`
	Description string `json:"description"`
}

// State is the lifecycle position of a correction run
type State int

const (
	Idle State = iota
	Running
	Completed
	Cancelled
	Failed
)

func (s State) String() string {
	switch s {
	case Running:
		return "running"
	case Completed:
		return "completed"
	case Cancelled:
		return "cancelled"
	case Failed:
		return "failed"
	default:
		return "idle"
	}
}

// Scope selects what a request corrects
type Scope int

const (
	ScopeDocument Scope = iota
	ScopeSelection
)

func (s Scope) String() string {
	if s == ScopeSelection {
		return "selection"
	}
	return "document"
}

// Request starts a correction run
type Request struct {
	Scope Scope
}

// 🎫 Session is the state of one correction run. It is created when a run starts
// and dropped when the run ends.
type Session struct {
	ID       string
	Document host.Document
	Scope    Scope
	// Range is the span that gets replaced on apply
	Range host.Range
	// Original is the full document text when the run started
	Original string
	// Target is the text under correction; it evolves as steps run
	Target  string
	Before  string
	After   string
	Records []Record

	ctx    context.Context
	cancel context.CancelFunc
}

func newSession(parent context.Context, doc host.Document, scope Scope, r host.Range) *Session {
	ctx, cancel := context.WithCancel(parent)
	text := doc.Text()
	return &Session{
		ID:       uuid.NewString(),
		Document: doc,
		Scope:    scope,
		Range:    r,
		Original: text,
		Target:   r.Slice(text),
		Before:   text[:r.Start],
		After:    text[r.End:],
		ctx:      ctx,
		cancel:   cancel,
	}
}

// selectionContext is nil for whole-document runs
func (s *Session) selectionContext() *ai.SelectionContext {
	if s.Scope != ScopeSelection {
		return nil
	}
	return &ai.SelectionContext{Before: s.Before, After: s.After}
}

func (s *Session) cancelled() bool {
	return s.ctx.Err() != nil
}

// Outcome reports how a run ended
type Outcome struct {
	SessionID string
	State     State
	// Toggled is set when the call cancelled a running session instead of starting one
	Toggled bool
	Records []Record
	// Final is the merged text for the corrected range
	Final   string
	Applied bool
	Err     error
}
