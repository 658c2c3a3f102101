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
	"sync"

	"github.com/walteh/kousei/pkg/ai"
	"github.com/walteh/kousei/pkg/host"
	"github.com/walteh/kousei/pkg/present"
)

type notice struct {
	Level   host.Level
	Message string
}

// fakeHost is an in-memory host.Host that records every UI call
type fakeHost struct {
	doc *host.MemoryDocument
	sel host.Range

	// answer picks the reply to an Ask prompt; nil dismisses every prompt
	answer func(prompt string, choices []string) string
	secret string

	mu             sync.Mutex
	notices        []notice
	asks           []string
	statuses       []bool
	progressCancel func()
	progressDone   int
}

func (h *fakeHost) ActiveDocument() (host.Document, bool) {
	if h.doc == nil {
		return nil, false
	}
	return h.doc, true
}

func (h *fakeHost) Selection() host.Range { return h.sel }

func (h *fakeHost) Notify(ctx context.Context, level host.Level, msg string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.notices = append(h.notices, notice{Level: level, Message: msg})
}

func (h *fakeHost) Ask(ctx context.Context, prompt string, choices ...string) (string, error) {
	h.mu.Lock()
	h.asks = append(h.asks, prompt)
	h.mu.Unlock()
	if h.answer == nil {
		return "", nil
	}
	return h.answer(prompt, choices), nil
}

func (h *fakeHost) AskSecret(ctx context.Context, prompt string) (string, error) {
	return h.secret, nil
}

func (h *fakeHost) Progress(ctx context.Context, title string, cancel func()) host.Progress {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.progressCancel = cancel
	return &fakeProgress{host: h}
}

func (h *fakeHost) SetStatus(ctx context.Context, text string, running bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.statuses = append(h.statuses, running)
}

func (h *fakeHost) ShowDiff(ctx context.Context, d host.Diff) error { return nil }

func (h *fakeHost) cancelFromProgress() {
	h.mu.Lock()
	cancel := h.progressCancel
	h.mu.Unlock()
	cancel()
}

func (h *fakeHost) noticeMessages() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]string, len(h.notices))
	for i, n := range h.notices {
		out[i] = n.Message
	}
	return out
}

type fakeProgress struct {
	host *fakeHost
}

func (p *fakeProgress) Report(string) {}

func (p *fakeProgress) Done() {
	p.host.mu.Lock()
	defer p.host.mu.Unlock()
	p.host.progressDone++
}

// fakePresenter accepts or discards without showing anything
type fakePresenter struct {
	accept bool
	err    error
	calls  int
	got    present.Presentation
}

func (p *fakePresenter) Present(ctx context.Context, ui host.UI, pres present.Presentation) (bool, error) {
	p.calls++
	p.got = pres
	return p.accept, p.err
}

type memCredentials struct {
	key   string
	saved []string
}

func (c *memCredentials) APIKey() string { return c.key }

func (c *memCredentials) SaveAPIKey(ctx context.Context, key string) error {
	c.saved = append(c.saved, key)
	c.key = key
	return nil
}

// fakeCorrector returns a fixed result and records its input
type fakeCorrector struct {
	res     *ai.Result
	err     error
	calls   int
	target  string
	sel     *ai.SelectionContext
	onStart func(ctx context.Context)
}

func (c *fakeCorrector) Correct(ctx context.Context, target string, sel *ai.SelectionContext) (*ai.Result, error) {
	c.calls++
	c.target = target
	c.sel = sel
	if c.onStart != nil {
		c.onStart(ctx)
	}
	return c.res, c.err
}

func factoryFor(c Corrector, keys *[]string) CorrectorFactory {
	return func(ctx context.Context, apiKey string) (Corrector, error) {
		if keys != nil {
			*keys = append(*keys, apiKey)
		}
		return c, nil
	}
}
