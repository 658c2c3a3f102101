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
	"slices"
	"strings"
	"sync"

	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"
	"golang.org/x/text/message"

	"github.com/walteh/kousei/pkg/ai"
	"github.com/walteh/kousei/pkg/host"
	"github.com/walteh/kousei/pkg/i18n"
	"github.com/walteh/kousei/pkg/present"
	"github.com/walteh/kousei/pkg/rules"
	"github.com/walteh/kousei/pkg/style"
)

// 🤖 Corrector produces a model correction. *ai.Client implements it.
type Corrector interface {
	Correct(ctx context.Context, target string, sel *ai.SelectionContext) (*ai.Result, error)
}

// CorrectorFactory builds a Corrector for an API key
type CorrectorFactory func(ctx context.Context, apiKey string) (Corrector, error)

// 🔑 Credentials reads and stores the model API key. *config.Store implements it.
type Credentials interface {
	APIKey() string
	SaveAPIKey(ctx context.Context, key string) error
}

// 🎬 Presenter shows a finished correction and reports whether to apply it.
// *present.Presenter implements it.
type Presenter interface {
	Present(ctx context.Context, ui host.UI, p present.Presentation) (bool, error)
}

// Options configures an Orchestrator
type Options struct {
	Host host.Host
	// Rules returns the rules for the next run; nil means the built-in rules
	Rules        func() []rules.Rule
	Credentials  Credentials
	NewCorrector CorrectorFactory
	Presenter    Presenter
	Printer      *message.Printer
}

// 🎯 Orchestrator runs correction sessions against one host, one at a time
type Orchestrator struct {
	host         host.Host
	rules        func() []rules.Rule
	credentials  Credentials
	newCorrector CorrectorFactory
	presenter    Presenter
	printer      *message.Printer

	mu     sync.Mutex
	active *Session
}

// 🏭 New creates an orchestrator
func New(opts Options) (*Orchestrator, error) {
	if opts.Host == nil {
		return nil, errors.New("host is required")
	}

	o := &Orchestrator{
		host:         opts.Host,
		rules:        opts.Rules,
		credentials:  opts.Credentials,
		newCorrector: opts.NewCorrector,
		presenter:    opts.Presenter,
		printer:      opts.Printer,
	}
	if o.rules == nil {
		o.rules = rules.Defaults
	}
	if o.printer == nil {
		o.printer = i18n.Japanese()
	}
	if o.presenter == nil {
		o.presenter = present.New(o.printer)
	}
	return o, nil
}

// CorrectDocument corrects the whole active document, or cancels the running session
func (o *Orchestrator) CorrectDocument(ctx context.Context) Outcome {
	return o.Toggle(ctx, Request{Scope: ScopeDocument})
}

// CorrectSelection corrects the active selection, or cancels the running session
func (o *Orchestrator) CorrectSelection(ctx context.Context) Outcome {
	return o.Toggle(ctx, Request{Scope: ScopeSelection})
}

// 🔁 Toggle starts a session for req, unless one is already running, in which case
// that session is cancelled and Toggle returns immediately.
func (o *Orchestrator) Toggle(ctx context.Context, req Request) Outcome {
	sess, out, notice := o.acquire(ctx, req)
	if notice != "" {
		o.host.Notify(ctx, host.LevelWarning, o.printer.Sprintf(notice))
	}
	if sess == nil {
		return out
	}
	defer o.release(sess)

	return o.run(ctx, sess)
}

// TryCancel cancels the running session. It reports whether there was one.
func (o *Orchestrator) TryCancel() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.active == nil {
		return false
	}
	o.active.cancel()
	return true
}

// Running reports whether a session is active
func (o *Orchestrator) Running() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.active != nil
}

// acquire claims the session slot. When it returns no session, the Outcome says why
// and notice, if set, is the warning to show.
func (o *Orchestrator) acquire(ctx context.Context, req Request) (*Session, Outcome, string) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.active != nil {
		zerolog.Ctx(ctx).Debug().Str("session", o.active.ID).Msg("toggle cancels running session")
		o.active.cancel()
		return nil, Outcome{SessionID: o.active.ID, State: Cancelled, Toggled: true}, ""
	}

	doc, ok := o.host.ActiveDocument()
	if !ok || doc == nil {
		return nil, Outcome{State: Idle}, i18n.NoticeNoEditor
	}

	r := host.Whole(doc.Text())
	if req.Scope == ScopeSelection {
		r = o.host.Selection()
		if r.Empty() {
			return nil, Outcome{State: Idle}, i18n.NoticeEmptySelection
		}
		if !r.Valid(doc.Text()) {
			zerolog.Ctx(ctx).Warn().Int("start", r.Start).Int("end", r.End).Msg("selection outside document")
			return nil, Outcome{State: Idle}, i18n.NoticeEmptySelection
		}
	}

	sess := newSession(ctx, doc, req.Scope, r)
	o.active = sess
	return sess, Outcome{}, ""
}

func (o *Orchestrator) release(sess *Session) {
	o.mu.Lock()
	if o.active == sess {
		o.active = nil
	}
	o.mu.Unlock()
	sess.cancel()
}

func (o *Orchestrator) run(ctx context.Context, sess *Session) (out Outcome) {
	logger := zerolog.Ctx(ctx).With().
		Str("session", sess.ID).
		Str("scope", sess.Scope.String()).
		Str("uri", sess.Document.URI()).
		Logger()
	ctx = logger.WithContext(ctx)
	sctx := logger.WithContext(sess.ctx)

	defer func() {
		if r := recover(); r != nil {
			logger.Error().Interface("panic", r).Msg("correction panicked")
			out = o.fail(ctx, sess, errors.Errorf("unexpected failure: %v", r))
		}
	}()

	logger.Debug().Msg("correction started")
	o.host.SetStatus(ctx, o.printer.Sprintf(i18n.StatusRunning), true)
	defer o.host.SetStatus(ctx, o.printer.Sprintf(i18n.StatusIdle), false)

	progress := o.host.Progress(sctx, o.printer.Sprintf(i18n.ProgressTitle), sess.cancel)
	progressDone := sync.OnceFunc(progress.Done)
	defer progressDone()

	// rules
	progress.Report(o.printer.Sprintf(i18n.ProgressRules))
	ruled, fired := rules.ApplyTo(sess.Document.URI(), o.rules(), sess.Target)
	for _, f := range fired {
		sess.Records = append(sess.Records, Record{
			Kind:        KindRule,
			RuleID:      f.Rule.ID,
			Original:    f.Before,
			Corrected:   f.After,
			Description: f.Rule.Description,
		})
	}
	sess.Target = ruled
	if sess.cancelled() {
		return o.cancelled(ctx, sess)
	}

	// style, always over the whole document
	progress.Report(o.printer.Sprintf(i18n.ProgressStyle))
	analysis := style.Analyze(sess.Original)
	logger.Debug().
		Str("style", analysis.Style.String()).
		Int("formal", analysis.Counts.Formal).
		Int("plain", analysis.Counts.Plain).
		Msg("style analyzed")
	if analysis.Style == style.Mixed {
		sess.Records = slices.Insert(sess.Records, 0, Record{
			Kind:        KindStyle,
			Original:    sess.Target,
			Corrected:   sess.Target,
			Description: style.SuggestionIn(o.printer, analysis),
		})
	}

	key, err := o.apiKey(sctx, len(fired) > 0)
	if sess.cancelled() {
		return o.cancelled(ctx, sess)
	}
	if err != nil {
		return o.fail(ctx, sess, errors.Errorf("reading api key: %w", err))
	}
	if key == "" && len(sess.Records) == 0 {
		return o.nothingToDo(ctx, sess)
	}

	// ai
	if key != "" && o.newCorrector != nil {
		progress.Report(o.printer.Sprintf(i18n.ProgressAI))
		res, err := o.correct(sctx, key, sess)
		if sess.cancelled() || errors.Is(err, ai.ErrCancelled) {
			return o.cancelled(ctx, sess)
		}
		if err != nil {
			return o.fail(ctx, sess, err)
		}
		switch {
		case res == nil:
			o.host.Notify(ctx, host.LevelWarning, o.printer.Sprintf(i18n.NoticeAIUnavailable))
		case res.Corrected != sess.Target:
			sess.Records = append(sess.Records, Record{
				Kind:        KindAI,
				Original:    sess.Target,
				Corrected:   res.Corrected,
				Description: o.printer.Sprintf(i18n.RecordAI, res.Reason),
			})
			sess.Target = res.Corrected
		default:
			logger.Debug().Str("reason", res.Reason).Msg("model returned the text unchanged")
		}
	}

	if len(sess.Records) == 0 {
		return o.nothingToDo(ctx, sess)
	}

	// present
	progressDone()
	reasons := make([]string, len(sess.Records))
	for i, r := range sess.Records {
		reasons[i] = r.Description
	}
	pres := present.Build(o.printer, present.Input{
		URI:       sess.Document.URI(),
		Original:  sess.Range.Slice(sess.Original),
		Corrected: sess.Target,
		Reasons:   reasons,
	})
	accepted, err := o.presenter.Present(sctx, o.host, pres)
	if sess.cancelled() {
		return o.cancelled(ctx, sess)
	}
	if err != nil {
		return o.fail(ctx, sess, errors.Errorf("presenting corrections: %w", err))
	}

	out = o.outcome(sess, Completed)
	if !accepted {
		logger.Info().Int("records", len(sess.Records)).Msg("corrections discarded")
		o.host.Notify(ctx, host.LevelInfo, o.printer.Sprintf(i18n.NoticeDiscarded))
		return out
	}

	if err := sess.Document.Replace(sctx, sess.Range, sess.Target); err != nil {
		if sess.cancelled() {
			return o.cancelled(ctx, sess)
		}
		return o.fail(ctx, sess, errors.Errorf("applying corrections: %w", err))
	}

	logger.Info().Int("records", len(sess.Records)).Msg("corrections applied")
	o.host.Notify(ctx, host.LevelInfo, o.printer.Sprintf(i18n.NoticeApplied))
	out.Applied = true
	return out
}

// apiKey returns the configured key. When none is set and no rule fired, the user
// is offered to enter one; an entered key is saved.
func (o *Orchestrator) apiKey(ctx context.Context, ruleFired bool) (string, error) {
	if o.credentials == nil {
		return "", nil
	}
	if key := o.credentials.APIKey(); key != "" {
		return key, nil
	}
	if ruleFired || o.newCorrector == nil {
		return "", nil
	}

	setKey := o.printer.Sprintf(i18n.ChoiceSetKey)
	choice, err := o.host.Ask(ctx, o.printer.Sprintf(i18n.PromptAPIKey), setKey, o.printer.Sprintf(i18n.ChoiceSkip))
	if err != nil {
		return "", errors.Errorf("asking for api key: %w", err)
	}
	if choice != setKey {
		return "", nil
	}

	key, err := o.host.AskSecret(ctx, o.printer.Sprintf(i18n.PromptAPIKeyInput))
	if err != nil {
		return "", errors.Errorf("reading api key: %w", err)
	}
	key = strings.TrimSpace(key)
	if key == "" {
		return "", nil
	}

	if err := o.credentials.SaveAPIKey(ctx, key); err != nil {
		// the key still works for this run
		zerolog.Ctx(ctx).Warn().Err(err).Msg("saving api key")
	}
	return key, nil
}

func (o *Orchestrator) correct(ctx context.Context, key string, sess *Session) (*ai.Result, error) {
	corrector, err := o.newCorrector(ctx, key)
	if err != nil {
		return nil, errors.Errorf("creating corrector: %w", err)
	}
	if corrector == nil {
		return nil, nil
	}
	return corrector.Correct(ctx, sess.Target, sess.selectionContext())
}

func (o *Orchestrator) outcome(sess *Session, state State) Outcome {
	return Outcome{
		SessionID: sess.ID,
		State:     state,
		Records:   slices.Clone(sess.Records),
		Final:     sess.Target,
	}
}

func (o *Orchestrator) nothingToDo(ctx context.Context, sess *Session) Outcome {
	zerolog.Ctx(ctx).Info().Msg("no corrections needed")
	o.host.Notify(ctx, host.LevelInfo, o.printer.Sprintf(i18n.NoticeNoCorrections))
	return o.outcome(sess, Completed)
}

// cancelled drops any partial result; the document is never touched
func (o *Orchestrator) cancelled(ctx context.Context, sess *Session) Outcome {
	zerolog.Ctx(ctx).Info().Msg("correction cancelled")
	return Outcome{SessionID: sess.ID, State: Cancelled}
}

func (o *Orchestrator) fail(ctx context.Context, sess *Session, err error) Outcome {
	zerolog.Ctx(ctx).Error().Err(err).Msg("correction failed")
	o.host.Notify(ctx, host.LevelError, o.printer.Sprintf(i18n.NoticeFailed, err.Error()))
	return Outcome{SessionID: sess.ID, State: Failed, Err: err}
}

// 🔍 AnalyzeStyle runs the style analyzer over the active document and shows the
// suggestion. It does not touch the session slot.
func (o *Orchestrator) AnalyzeStyle(ctx context.Context) (style.Analysis, bool) {
	doc, ok := o.host.ActiveDocument()
	if !ok || doc == nil {
		o.host.Notify(ctx, host.LevelWarning, o.printer.Sprintf(i18n.NoticeNoEditor))
		return style.Analysis{}, false
	}

	a := style.Analyze(doc.Text())
	level := host.LevelInfo
	if a.Style == style.Mixed {
		level = host.LevelWarning
	}
	o.host.Notify(ctx, level, style.SuggestionIn(o.printer, a))
	return a, true
}
