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
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/walteh/kousei/pkg/ai"
	"github.com/walteh/kousei/pkg/correction"
	"github.com/walteh/kousei/pkg/host"
)

// editor is a scripted websocket client standing in for the editor plugin
type editor struct {
	t  *testing.T
	ws *websocket.Conn

	// applyChoice answers the apply prompt; empty picks the first choice
	applyChoice string

	mu      sync.Mutex
	notices []notifyParams
	edits   []applyEditParams
	diffs   []diffParams
	events  []string
}

func startServer(t *testing.T, opts Options) (*Server, string) {
	t.Helper()
	srv := NewServer(opts)
	ts := httptest.NewServer(srv)
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
		ts.Close()
	})
	return srv, "ws" + strings.TrimPrefix(ts.URL, "http")
}

func dial(t *testing.T, url string) *editor {
	t.Helper()
	ws, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { ws.Close() })
	return &editor{t: t, ws: ws}
}

func (e *editor) send(id, typ string, params any) {
	e.t.Helper()
	raw, err := json.Marshal(params)
	require.NoError(e.t, err)
	require.NoError(e.t, e.ws.WriteJSON(Message{ID: id, Type: typ, Params: raw}))
}

func (e *editor) answer(replyTo string, params any) {
	e.t.Helper()
	raw, err := json.Marshal(params)
	require.NoError(e.t, err)
	require.NoError(e.t, e.ws.WriteJSON(Message{Type: TypeReply, ReplyTo: replyTo, Params: raw}))
}

// until serves editor-side requests until a reply to id arrives, and returns it
func (e *editor) until(id string) Message {
	e.t.Helper()
	require.NoError(e.t, e.ws.SetReadDeadline(time.Now().Add(10*time.Second)))
	for {
		var msg Message
		require.NoError(e.t, e.ws.ReadJSON(&msg))
		if msg.ReplyTo == id && (msg.Type == TypeResult || msg.Type == TypeError) {
			return msg
		}
		e.handle(msg)
	}
}

func (e *editor) handle(msg Message) {
	e.mu.Lock()
	e.events = append(e.events, msg.Type)
	e.mu.Unlock()

	switch msg.Type {
	case TypeNotify:
		var p notifyParams
		require.NoError(e.t, json.Unmarshal(msg.Params, &p))
		e.mu.Lock()
		e.notices = append(e.notices, p)
		e.mu.Unlock()
	case TypeAsk:
		var p askParams
		require.NoError(e.t, json.Unmarshal(msg.Params, &p))
		choice := p.Choices[0]
		if e.applyChoice != "" && len(p.Choices) > 1 {
			choice = e.applyChoice
		}
		e.answer(msg.ID, askReply{Choice: choice})
	case TypeAskSecret:
		e.answer(msg.ID, secretReply{})
	case TypeShowDiff:
		var p diffParams
		require.NoError(e.t, json.Unmarshal(msg.Params, &p))
		e.mu.Lock()
		e.diffs = append(e.diffs, p)
		e.mu.Unlock()
		e.answer(msg.ID, struct{}{})
	case TypeApplyEdit:
		var p applyEditParams
		require.NoError(e.t, json.Unmarshal(msg.Params, &p))
		e.mu.Lock()
		e.edits = append(e.edits, p)
		e.mu.Unlock()
		e.answer(msg.ID, applyEditReply{Applied: true})
	}
}

func decodeResult(t *testing.T, msg Message) Result {
	t.Helper()
	require.Equal(t, TypeResult, msg.Type, msg.Error)
	var r Result
	require.NoError(t, json.Unmarshal(msg.Params, &r))
	return r
}

type staticCredentials string

func (k staticCredentials) APIKey() string                                   { return string(k) }
func (k staticCredentials) SaveAPIKey(ctx context.Context, key string) error { return nil }

func TestCorrectDocumentOverBridge(t *testing.T) {
	tests := []struct {
		name        string
		applyChoice string
		wantApplied bool
		wantNotice  string
	}{
		{name: "applied", wantApplied: true, wantNotice: "修正を適用しました。"},
		{name: "discarded", applyChoice: "破棄", wantApplied: false, wantNotice: "修正を破棄しました。"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, url := startServer(t, Options{})
			ed := dial(t, url)
			ed.applyChoice = tt.applyChoice

			text := "今日は晴れです"
			ed.send("req-1", TypeCorrectDocument, Snapshot{URI: "file:///draft.md", Text: text})
			res := decodeResult(t, ed.until("req-1"))

			assert.Equal(t, "completed", res.State)
			assert.Equal(t, tt.wantApplied, res.Applied)
			assert.Equal(t, "今日は晴れです。", res.Final)
			require.Len(t, res.Records, 1)
			assert.Equal(t, correction.KindRule, res.Records[0].Kind)
			assert.Equal(t, "desu-period", res.Records[0].RuleID)

			require.Len(t, ed.diffs, 1)
			assert.Equal(t, "draft.md（校正前 ↔ 校正後）", ed.diffs[0].Title)
			assert.Equal(t, text, ed.diffs[0].Original)
			assert.Equal(t, "今日は晴れです。", ed.diffs[0].Applied)

			if tt.wantApplied {
				require.Len(t, ed.edits, 1)
				assert.Equal(t, "file:///draft.md", ed.edits[0].URI)
				assert.Equal(t, host.Range{Start: 0, End: len(text)}, ed.edits[0].Range)
				assert.Equal(t, "今日は晴れです。", ed.edits[0].Text)
			} else {
				assert.Empty(t, ed.edits)
			}

			require.NotEmpty(t, ed.notices)
			assert.Equal(t, tt.wantNotice, ed.notices[len(ed.notices)-1].Message)
			assert.Contains(t, ed.events, TypeProgress)
			assert.Contains(t, ed.events, TypeStatus)
		})
	}
}

func TestCorrectSelectionOverBridge(t *testing.T) {
	_, url := startServer(t, Options{})
	ed := dial(t, url)

	text := "一行目です。\n二行目です"
	sel := host.Range{Start: strings.Index(text, "二"), End: len(text)}
	ed.send("sel", TypeCorrectSelection, Snapshot{URI: "file:///a.md", Text: text, Selection: sel})
	res := decodeResult(t, ed.until("sel"))

	assert.True(t, res.Applied)
	assert.Equal(t, "二行目です。", res.Final)
	require.Len(t, ed.edits, 1)
	assert.Equal(t, sel, ed.edits[0].Range)
}

func TestBridgePreconditions(t *testing.T) {
	tests := []struct {
		name   string
		typ    string
		snap   Snapshot
		notice string
	}{
		{name: "no_document", typ: TypeCorrectDocument, snap: Snapshot{}, notice: "アクティブなエディタがありません。"},
		{name: "empty_selection", typ: TypeCorrectSelection, snap: Snapshot{URI: "file:///a.md", Text: "abc"}, notice: "テキストが選択されていません。"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, url := startServer(t, Options{})
			ed := dial(t, url)

			ed.send("r", tt.typ, tt.snap)
			res := decodeResult(t, ed.until("r"))
			assert.Equal(t, "idle", res.State)

			require.Len(t, ed.notices, 1)
			assert.Equal(t, "warning", ed.notices[0].Level)
			assert.Equal(t, tt.notice, ed.notices[0].Message)
		})
	}
}

// blockingCorrector waits for the session to be cancelled
type blockingCorrector struct {
	started chan struct{}
}

func (c *blockingCorrector) Correct(ctx context.Context, target string, sel *ai.SelectionContext) (*ai.Result, error) {
	close(c.started)
	<-ctx.Done()
	return nil, ai.ErrCancelled
}

func TestCancelOverBridge(t *testing.T) {
	corrector := &blockingCorrector{started: make(chan struct{})}
	proxies := make(chan string, 1)
	_, url := startServer(t, Options{
		Credentials: staticCredentials("sk-test"),
		NewCorrector: func(ctx context.Context, apiKey, hostProxy string) (correction.Corrector, error) {
			proxies <- hostProxy
			return corrector, nil
		},
	})
	ed := dial(t, url)

	ed.send("run", TypeCorrectDocument, Snapshot{URI: "file:///a.md", Text: "今日は晴れ。", Proxy: "http://proxy.local:8080"})

	select {
	case <-corrector.started:
	case <-time.After(10 * time.Second):
		t.Fatal("corrector never started")
	}
	assert.Equal(t, "http://proxy.local:8080", <-proxies)

	ed.send("stop", TypeCancel, struct{}{})

	replies := map[string]Result{}
	require.NoError(t, ed.ws.SetReadDeadline(time.Now().Add(10*time.Second)))
	for len(replies) < 2 {
		var msg Message
		require.NoError(t, ed.ws.ReadJSON(&msg))
		if msg.Type == TypeResult {
			replies[msg.ReplyTo] = decodeResult(t, msg)
			continue
		}
		ed.handle(msg)
	}

	assert.True(t, replies["stop"].Toggled)
	assert.Equal(t, "cancelled", replies["run"].State)
	assert.Empty(t, ed.edits)
	assert.Empty(t, ed.diffs)
}

func TestAnalyzeStyleOverBridge(t *testing.T) {
	_, url := startServer(t, Options{})
	ed := dial(t, url)

	ed.send("s", TypeAnalyzeStyle, Snapshot{URI: "file:///a.md", Text: "今日は晴れです。明日は雨である。"})
	msg := ed.until("s")
	require.Equal(t, TypeResult, msg.Type)

	var r StyleResult
	require.NoError(t, json.Unmarshal(msg.Params, &r))
	assert.Equal(t, "mixed", r.Style)
	assert.Equal(t, 1, r.Formal)
	assert.Equal(t, 1, r.Plain)
	assert.Contains(t, r.Suggestion, "文体が混在しています")
}

func TestUnknownMessageType(t *testing.T) {
	_, url := startServer(t, Options{})
	ed := dial(t, url)

	ed.send("x", "frobnicate", struct{}{})
	msg := ed.until("x")
	assert.Equal(t, TypeError, msg.Type)
	assert.Contains(t, msg.Error, `unknown message type "frobnicate"`)
}

func TestCheckOrigin(t *testing.T) {
	tests := []struct {
		name    string
		allowed []string
		origin  string
		wantOK  bool
	}{
		{name: "no_origin", origin: "", wantOK: true},
		{name: "listed_origin", allowed: []string{"vscode-webview://abc"}, origin: "vscode-webview://abc", wantOK: true},
		{name: "wildcard", allowed: []string{"*"}, origin: "https://anywhere.example", wantOK: true},
		{name: "foreign_origin", origin: "https://evil.example", wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, url := startServer(t, Options{AllowedOrigins: tt.allowed})

			header := http.Header{}
			if tt.origin != "" {
				header.Set("Origin", tt.origin)
			}
			ws, resp, err := websocket.DefaultDialer.Dial(url, header)
			if tt.wantOK {
				require.NoError(t, err)
				ws.Close()
				return
			}
			require.Error(t, err)
			require.NotNil(t, resp)
			assert.Equal(t, http.StatusForbidden, resp.StatusCode)
		})
	}
}

func TestShutdownClosesConnections(t *testing.T) {
	srv, url := startServer(t, Options{})
	ed := dial(t, url)

	// a round trip guarantees the server registered the connection
	ed.send("s", TypeAnalyzeStyle, Snapshot{URI: "file:///a.md", Text: "です。"})
	ed.until("s")
	assert.Equal(t, 1, srv.Connections())

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, srv.Shutdown(ctx))
	assert.Equal(t, 0, srv.Connections())

	require.NoError(t, ed.ws.SetReadDeadline(time.Now().Add(5*time.Second)))
	_, _, err := ed.ws.ReadMessage()
	assert.Error(t, err)
}
