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

package bridge

import (
	"encoding/json"

	"github.com/walteh/kousei/pkg/correction"
	"github.com/walteh/kousei/pkg/host"
)

// Requests sent by the editor
const (
	TypeCorrectDocument  = "correctDocument"
	TypeCorrectSelection = "correctSelection"
	TypeCancel           = "cancel"
	TypeAnalyzeStyle     = "analyzeStyle"
	TypeReply            = "reply"
)

// Requests and events sent by the server
const (
	TypeNotify    = "notify"
	TypeAsk       = "ask"
	TypeAskSecret = "askSecret"
	TypeProgress  = "progress"
	TypeStatus    = "status"
	TypeShowDiff  = "showDiff"
	TypeApplyEdit = "applyEdit"
	TypeResult    = "result"
	TypeError     = "error"
)

// 📨 Message is the envelope for every frame in both directions.
//
// A request carries an ID. Its answer is a message with ReplyTo set to that ID:
// TypeReply from the editor, TypeResult or TypeError from the server.
type Message struct {
	ID      string          `json:"id,omitempty"`
	Type    string          `json:"type"`
	ReplyTo string          `json:"reply_to,omitempty"`
	Params  json.RawMessage `json:"params,omitempty"`
	Error   string          `json:"error,omitempty"`
}

// 📸 Snapshot is the editor state sent with a correction request
type Snapshot struct {
	URI       string     `json:"uri"`
	Text      string     `json:"text"`
	Selection host.Range `json:"selection"`
	// Proxy is the editor's own HTTP proxy setting, if any
	Proxy string `json:"proxy,omitempty"`
}

type notifyParams struct {
	Level   string `json:"level"`
	Message string `json:"message"`
}

type askParams struct {
	Prompt  string   `json:"prompt"`
	Choices []string `json:"choices,omitempty"`
}

type askReply struct {
	Choice string `json:"choice"`
}

type secretReply struct {
	Value string `json:"value"`
}

type progressParams struct {
	ID          string `json:"id"`
	Kind        string `json:"kind"` // begin, report, end
	Title       string `json:"title,omitempty"`
	Message     string `json:"message,omitempty"`
	Cancellable bool   `json:"cancellable,omitempty"`
}

type statusParams struct {
	Text    string `json:"text"`
	Running bool   `json:"running"`
}

type diffParams struct {
	Title         string `json:"title"`
	OriginalName  string `json:"original_name"`
	Original      string `json:"original"`
	CorrectedName string `json:"corrected_name"`
	Corrected     string `json:"corrected"`
	Applied       string `json:"applied,omitempty"`
}

type applyEditParams struct {
	URI   string     `json:"uri"`
	Range host.Range `json:"range"`
	Text  string     `json:"text"`
}

type applyEditReply struct {
	Applied bool `json:"applied"`
}

// Result is the answer to a correction request
type Result struct {
	Session string              `json:"session,omitempty"`
	State   string              `json:"state"`
	Toggled bool                `json:"toggled,omitempty"`
	Applied bool                `json:"applied,omitempty"`
	Final   string              `json:"final,omitempty"`
	Records []correction.Record `json:"records,omitempty"`
	Error   string              `json:"error,omitempty"`
}

// StyleResult is the answer to an analyzeStyle request
type StyleResult struct {
	Style      string `json:"style"`
	Formal     int    `json:"formal"`
	Plain      int    `json:"plain"`
	Suggestion string `json:"suggestion"`
}

func resultFrom(out correction.Outcome) Result {
	r := Result{
		Session: out.SessionID,
		State:   out.State.String(),
		Toggled: out.Toggled,
		Applied: out.Applied,
		Final:   out.Final,
		Records: out.Records,
	}
	if out.Err != nil {
		r.Error = out.Err.Error()
	}
	return r
}
