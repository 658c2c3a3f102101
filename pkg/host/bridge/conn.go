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
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"

	"github.com/walteh/kousei/pkg/correction"
	"github.com/walteh/kousei/pkg/host"
	"github.com/walteh/kousei/pkg/style"
)

// ErrClosed is returned by calls made after the connection went away
var ErrClosed = errors.New("bridge connection closed")

type conn struct {
	srv  *Server
	ws   *websocket.Conn
	orch *correction.Orchestrator

	writeMu sync.Mutex

	mu       sync.Mutex
	pending  map[string]chan Message
	snapshot *Snapshot

	closeOnce sync.Once
	closed    chan struct{}
	requests  sync.WaitGroup
}

func newConn(ctx context.Context, srv *Server, ws *websocket.Conn) (*conn, error) {
	c := &conn{
		srv:     srv,
		ws:      ws,
		pending: make(map[string]chan Message),
		closed:  make(chan struct{}),
	}

	var factory correction.CorrectorFactory
	if srv.opts.NewCorrector != nil {
		factory = func(ctx context.Context, apiKey string) (correction.Corrector, error) {
			return srv.opts.NewCorrector(ctx, apiKey, c.proxy())
		}
	}

	orch, err := correction.New(correction.Options{
		Host:         &bridgeHost{conn: c},
		Rules:        srv.opts.Rules,
		Credentials:  srv.opts.Credentials,
		NewCorrector: factory,
		Printer:      srv.opts.Printer(),
	})
	if err != nil {
		return nil, errors.Errorf("creating orchestrator: %w", err)
	}
	c.orch = orch
	return c, nil
}

func (c *conn) close() {
	c.closeOnce.Do(func() {
		close(c.closed)
		_ = c.ws.Close()
	})
}

// serve runs the read loop until the editor disconnects, then cancels any
// running session and waits for request goroutines.
func (c *conn) serve(ctx context.Context) {
	logger := zerolog.Ctx(ctx)
	logger.Info().Str("remote", c.ws.RemoteAddr().String()).Msg("editor connected")

	go c.keepalive()

	defer func() {
		c.close()
		c.orch.TryCancel()
		c.requests.Wait()
		logger.Info().Msg("editor disconnected")
	}()

	c.ws.SetReadLimit(maxMessageSize)
	_ = c.ws.SetReadDeadline(time.Now().Add(pongWait))
	c.ws.SetPongHandler(func(string) error {
		return c.ws.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		var msg Message
		if err := c.ws.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logger.Warn().Err(err).Msg("websocket read failed")
			}
			return
		}
		c.dispatch(ctx, msg)
	}
}

func (c *conn) keepalive() {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			c.writeMu.Lock()
			err := c.ws.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait))
			c.writeMu.Unlock()
			if err != nil {
				c.close()
				return
			}
		case <-c.closed:
			return
		}
	}
}

func (c *conn) dispatch(ctx context.Context, msg Message) {
	logger := zerolog.Ctx(ctx).With().Str("type", msg.Type).Str("id", msg.ID).Logger()
	ctx = logger.WithContext(ctx)

	switch msg.Type {
	case TypeReply:
		c.deliver(msg)

	case TypeCorrectDocument, TypeCorrectSelection:
		var snap Snapshot
		if err := json.Unmarshal(msg.Params, &snap); err != nil {
			c.replyError(ctx, msg.ID, errors.Errorf("decoding snapshot: %w", err))
			return
		}
		c.setSnapshot(&snap)

		scope := correction.ScopeDocument
		if msg.Type == TypeCorrectSelection {
			scope = correction.ScopeSelection
		}
		c.requests.Add(1)
		go func() {
			defer c.requests.Done()
			out := c.orch.Toggle(ctx, correction.Request{Scope: scope})
			logger.Debug().Str("state", out.State.String()).Bool("toggled", out.Toggled).Msg("correction finished")
			c.reply(ctx, msg.ID, TypeResult, resultFrom(out))
		}()

	case TypeCancel:
		state := correction.Idle
		if c.orch.TryCancel() {
			state = correction.Cancelled
		}
		c.reply(ctx, msg.ID, TypeResult, Result{State: state.String(), Toggled: state == correction.Cancelled})

	case TypeAnalyzeStyle:
		var snap Snapshot
		if err := json.Unmarshal(msg.Params, &snap); err != nil {
			c.replyError(ctx, msg.ID, errors.Errorf("decoding snapshot: %w", err))
			return
		}
		c.setSnapshot(&snap)
		a, ok := c.orch.AnalyzeStyle(ctx)
		if !ok {
			c.replyError(ctx, msg.ID, errors.New("no active document"))
			return
		}
		c.reply(ctx, msg.ID, TypeResult, StyleResult{
			Style:      a.Style.String(),
			Formal:     a.Counts.Formal,
			Plain:      a.Counts.Plain,
			Suggestion: style.SuggestionIn(c.srv.opts.Printer(), a),
		})

	default:
		c.replyError(ctx, msg.ID, errors.Errorf("unknown message type %q", msg.Type))
	}
}

func (c *conn) setSnapshot(s *Snapshot) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.snapshot = s
}

func (c *conn) current() *Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshot
}

func (c *conn) proxy() string {
	if s := c.current(); s != nil {
		return s.Proxy
	}
	return ""
}

func (c *conn) write(msg Message) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	select {
	case <-c.closed:
		return ErrClosed
	default:
	}
	_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
	if err := c.ws.WriteJSON(msg); err != nil {
		return errors.Errorf("writing %s: %w", msg.Type, err)
	}
	return nil
}

func (c *conn) send(ctx context.Context, typ string, params any) {
	raw, err := json.Marshal(params)
	if err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Str("type", typ).Msg("encoding event")
		return
	}
	if err := c.write(Message{Type: typ, Params: raw}); err != nil {
		zerolog.Ctx(ctx).Debug().Err(err).Msg("dropping event")
	}
}

func (c *conn) reply(ctx context.Context, replyTo, typ string, params any) {
	raw, err := json.Marshal(params)
	if err != nil {
		c.replyError(ctx, replyTo, errors.Errorf("encoding %s: %w", typ, err))
		return
	}
	if err := c.write(Message{Type: typ, ReplyTo: replyTo, Params: raw}); err != nil {
		zerolog.Ctx(ctx).Debug().Err(err).Msg("dropping reply")
	}
}

func (c *conn) replyError(ctx context.Context, replyTo string, err error) {
	zerolog.Ctx(ctx).Warn().Err(err).Msg("request failed")
	if werr := c.write(Message{Type: TypeError, ReplyTo: replyTo, Error: err.Error()}); werr != nil {
		zerolog.Ctx(ctx).Debug().Err(werr).Msg("dropping error reply")
	}
}

// call sends a request to the editor and decodes its reply into result
func (c *conn) call(ctx context.Context, typ string, params, result any) error {
	raw, err := json.Marshal(params)
	if err != nil {
		return errors.Errorf("encoding %s: %w", typ, err)
	}

	id := uuid.NewString()
	ch := make(chan Message, 1)
	c.mu.Lock()
	c.pending[id] = ch
	c.mu.Unlock()
	defer func() {
		c.mu.Lock()
		delete(c.pending, id)
		c.mu.Unlock()
	}()

	if err := c.write(Message{ID: id, Type: typ, Params: raw}); err != nil {
		return err
	}

	select {
	case msg := <-ch:
		if msg.Error != "" {
			return errors.Errorf("editor rejected %s: %s", typ, msg.Error)
		}
		if result == nil || len(msg.Params) == 0 {
			return nil
		}
		if err := json.Unmarshal(msg.Params, result); err != nil {
			return errors.Errorf("decoding %s reply: %w", typ, err)
		}
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-c.closed:
		return ErrClosed
	}
}

func (c *conn) deliver(msg Message) {
	c.mu.Lock()
	ch, ok := c.pending[msg.ReplyTo]
	c.mu.Unlock()
	if !ok {
		return
	}
	select {
	case ch <- msg:
	default:
	}
}

// 🪟 bridgeHost forwards host calls to the connected editor
type bridgeHost struct {
	conn *conn
}

var _ host.Host = (*bridgeHost)(nil)

func (h *bridgeHost) ActiveDocument() (host.Document, bool) {
	s := h.conn.current()
	if s == nil || s.URI == "" {
		return nil, false
	}
	return &bridgeDocument{conn: h.conn, uri: s.URI, text: s.Text}, true
}

func (h *bridgeHost) Selection() host.Range {
	if s := h.conn.current(); s != nil {
		return s.Selection
	}
	return host.Range{}
}

func (h *bridgeHost) Notify(ctx context.Context, level host.Level, msg string) {
	h.conn.send(ctx, TypeNotify, notifyParams{Level: level.String(), Message: msg})
}

func (h *bridgeHost) Ask(ctx context.Context, prompt string, choices ...string) (string, error) {
	var r askReply
	if err := h.conn.call(ctx, TypeAsk, askParams{Prompt: prompt, Choices: choices}, &r); err != nil {
		return "", err
	}
	return r.Choice, nil
}

func (h *bridgeHost) AskSecret(ctx context.Context, prompt string) (string, error) {
	var r secretReply
	if err := h.conn.call(ctx, TypeAskSecret, askParams{Prompt: prompt}, &r); err != nil {
		return "", err
	}
	return r.Value, nil
}

func (h *bridgeHost) SetStatus(ctx context.Context, text string, running bool) {
	h.conn.send(ctx, TypeStatus, statusParams{Text: text, Running: running})
}

func (h *bridgeHost) ShowDiff(ctx context.Context, d host.Diff) error {
	return h.conn.call(ctx, TypeShowDiff, diffParams(d), nil)
}

// Progress opens an editor progress notification. The editor asks for
// cancellation with a cancel request; the cancel callback is not sent over the wire.
func (h *bridgeHost) Progress(ctx context.Context, title string, cancel func()) host.Progress {
	p := &bridgeProgress{ctx: ctx, conn: h.conn, id: uuid.NewString()}
	h.conn.send(ctx, TypeProgress, progressParams{ID: p.id, Kind: "begin", Title: title, Cancellable: cancel != nil})
	return p
}

type bridgeProgress struct {
	ctx  context.Context
	conn *conn
	id   string
	once sync.Once
}

func (p *bridgeProgress) Report(msg string) {
	p.conn.send(p.ctx, TypeProgress, progressParams{ID: p.id, Kind: "report", Message: msg})
}

func (p *bridgeProgress) Done() {
	p.once.Do(func() {
		p.conn.send(p.ctx, TypeProgress, progressParams{ID: p.id, Kind: "end"})
	})
}

// 📄 bridgeDocument is the editor's document as it was when the request arrived
type bridgeDocument struct {
	conn *conn
	uri  string

	mu   sync.Mutex
	text string
}

func (d *bridgeDocument) URI() string { return d.uri }

func (d *bridgeDocument) Text() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.text
}

func (d *bridgeDocument) Replace(ctx context.Context, r host.Range, text string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !r.Valid(d.text) {
		return errors.Errorf("range %d-%d is outside the document", r.Start, r.End)
	}

	var reply applyEditReply
	if err := d.conn.call(ctx, TypeApplyEdit, applyEditParams{URI: d.uri, Range: r, Text: text}, &reply); err != nil {
		return errors.Errorf("applying edit: %w", err)
	}
	if !reply.Applied {
		return errors.New("editor did not apply the edit")
	}
	d.text = r.Splice(d.text, text)
	return nil
}
