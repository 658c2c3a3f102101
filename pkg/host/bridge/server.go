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
	"net/http"
	"net/url"
	"slices"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"golang.org/x/text/message"

	"github.com/walteh/kousei/pkg/correction"
	"github.com/walteh/kousei/pkg/i18n"
	"github.com/walteh/kousei/pkg/rules"
)

const (
	maxMessageSize = 8 << 20
	pongWait       = 60 * time.Second
	pingPeriod     = 54 * time.Second
	writeWait      = 10 * time.Second
)

// CorrectorFactory builds a model client for one request. hostProxy is the
// editor's proxy setting.
type CorrectorFactory func(ctx context.Context, apiKey, hostProxy string) (correction.Corrector, error)

// Options configures a Server
type Options struct {
	Rules        func() []rules.Rule
	Credentials  correction.Credentials
	NewCorrector CorrectorFactory
	// Printer returns the printer for user-facing text; nil means Japanese
	Printer func() *message.Printer
	// AllowedOrigins lists browser origins that may connect. Requests without an
	// Origin header are always accepted; "*" accepts everything.
	AllowedOrigins []string
}

// 🌉 Server accepts editor connections over websocket. Every connection gets its
// own orchestrator.
type Server struct {
	opts     Options
	upgrader websocket.Upgrader

	mu    sync.Mutex
	conns map[*conn]struct{}
	wg    sync.WaitGroup
}

// 🏭 NewServer creates a bridge server
func NewServer(opts Options) *Server {
	if opts.Printer == nil {
		opts.Printer = i18n.Japanese
	}
	s := &Server{
		opts:  opts,
		conns: make(map[*conn]struct{}),
	}
	s.upgrader = websocket.Upgrader{
		ReadBufferSize:  4096,
		WriteBufferSize: 4096,
		CheckOrigin:     s.checkOrigin,
	}
	return s
}

func (s *Server) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" || slices.Contains(s.opts.AllowedOrigins, "*") {
		return true
	}
	if slices.Contains(s.opts.AllowedOrigins, origin) {
		return true
	}
	u, err := url.Parse(origin)
	if err != nil {
		return false
	}
	return u.Host == r.Host
}

// ServeHTTP upgrades the request and serves the connection until it closes
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	logger := zerolog.Ctx(r.Context())

	ws, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}

	// the request context ends when the handler returns; the connection outlives it
	ctx := logger.WithContext(context.WithoutCancel(r.Context()))

	c, err := newConn(ctx, s, ws)
	if err != nil {
		logger.Error().Err(err).Msg("creating connection")
		ws.Close()
		return
	}

	s.mu.Lock()
	s.conns[c] = struct{}{}
	s.wg.Add(1)
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		delete(s.conns, c)
		s.mu.Unlock()
		s.wg.Done()
	}()

	c.serve(ctx)
}

// Connections returns the number of open connections
func (s *Server) Connections() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.conns)
}

// Shutdown closes every connection and waits for them to finish or ctx to end
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	for c := range s.conns {
		c.close()
	}
	s.mu.Unlock()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
