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

package terminal

import (
	"context"
	"os"
	"os/signal"
	"strings"
	"sync"

	"github.com/fatih/color"
	"github.com/pterm/pterm"
	"github.com/rs/zerolog"

	"github.com/walteh/kousei/pkg/host"
	"github.com/walteh/kousei/pkg/log"
	"github.com/walteh/kousei/pkg/present"
)

// Options configures a terminal Host
type Options struct {
	Document *FileDocument
	// Selection is empty for whole-document runs
	Selection host.Range
	Console   *log.Logger
	Prompter  Prompter
	// Spinner shows an animated pterm spinner while progress is visible
	Spinner bool
	// Interrupts delivers Ctrl-C; nil uses os.Interrupt
	Interrupts func(chan<- os.Signal) (stop func())
}

// 🖥️ Host is a host.Host for one file in a terminal
type Host struct {
	doc        *FileDocument
	sel        host.Range
	console    *log.Logger
	prompter   Prompter
	spinner    bool
	interrupts func(chan<- os.Signal) func()
}

var _ host.Host = (*Host)(nil)

// 🏭 New creates a terminal host
func New(opts Options) *Host {
	h := &Host{
		doc:        opts.Document,
		sel:        opts.Selection,
		console:    opts.Console,
		prompter:   opts.Prompter,
		spinner:    opts.Spinner,
		interrupts: opts.Interrupts,
	}
	if h.prompter == nil {
		h.prompter = PtermPrompter{}
	}
	if h.interrupts == nil {
		h.interrupts = func(ch chan<- os.Signal) func() {
			signal.Notify(ch, os.Interrupt)
			return func() { signal.Stop(ch) }
		}
	}
	return h
}

func (h *Host) ActiveDocument() (host.Document, bool) {
	if h.doc == nil {
		return nil, false
	}
	return h.doc, true
}

func (h *Host) Selection() host.Range { return h.sel }

func (h *Host) Notify(ctx context.Context, level host.Level, msg string) {
	switch level {
	case host.LevelError:
		h.console.Error(msg)
	case host.LevelWarning:
		h.console.Warning(msg)
	default:
		h.console.Info(msg)
	}
}

func (h *Host) Ask(ctx context.Context, prompt string, choices ...string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return h.prompter.Select(ctx, prompt, choices)
}

func (h *Host) AskSecret(ctx context.Context, prompt string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return h.prompter.Secret(ctx, prompt)
}

// SetStatus has no status bar to update in a terminal
func (h *Host) SetStatus(ctx context.Context, text string, running bool) {
	zerolog.Ctx(ctx).Debug().Str("status", text).Bool("running", running).Msg("status changed")
}

// 🔀 ShowDiff prints a unified line diff followed by a per-character view
func (h *Host) ShowDiff(ctx context.Context, d host.Diff) error {
	h.console.Header(d.Title)

	unified := present.Unified(d.Original, d.Corrected, d.OriginalName, d.CorrectedName)
	for _, line := range strings.Split(strings.TrimRight(unified, "\n"), "\n") {
		switch {
		case strings.HasPrefix(line, "+++"), strings.HasPrefix(line, "---"):
			h.console.Println(color.New(color.Bold).Sprint(line))
		case strings.HasPrefix(line, "+"):
			h.console.Println(color.GreenString("%s", line))
		case strings.HasPrefix(line, "-"):
			h.console.Println(color.RedString("%s", line))
		case strings.HasPrefix(line, "@@"):
			h.console.Println(color.CyanString("%s", line))
		default:
			h.console.Println(line)
		}
	}

	applied := d.Applied
	if applied == "" {
		applied = d.Corrected
	}
	h.console.LogNewline()
	h.console.Println(present.RenderInline(present.Inline(d.Original, applied)))
	h.console.LogNewline()
	return nil
}

// ⏳ Progress shows a spinner and turns Ctrl-C into cancel until Done
func (h *Host) Progress(ctx context.Context, title string, cancel func()) host.Progress {
	p := &progress{console: h.console, stopped: make(chan struct{})}

	sigs := make(chan os.Signal, 1)
	p.stopSignals = h.interrupts(sigs)
	go func() {
		select {
		case <-sigs:
			zerolog.Ctx(ctx).Debug().Msg("interrupt received, cancelling")
			cancel()
		case <-p.stopped:
		}
	}()

	if h.spinner {
		if sp, err := pterm.DefaultSpinner.Start(title); err == nil {
			p.spinner = sp
		}
	}
	if p.spinner == nil {
		h.console.Info(title)
	}
	return p
}

type progress struct {
	console     *log.Logger
	spinner     *pterm.SpinnerPrinter
	stopSignals func()
	stopped     chan struct{}
	once        sync.Once
}

func (p *progress) Report(msg string) {
	if p.spinner != nil {
		p.spinner.UpdateText(msg)
		return
	}
	p.console.Println("  " + msg)
}

func (p *progress) Done() {
	p.once.Do(func() {
		p.stopSignals()
		close(p.stopped)
		if p.spinner != nil {
			_ = p.spinner.Stop()
		}
	})
}
