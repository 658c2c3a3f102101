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

package opts

import (
	"context"
	"io"
	"os"

	"gitlab.com/tozd/go/errors"
	"golang.org/x/text/message"

	"github.com/walteh/kousei/pkg/ai"
	"github.com/walteh/kousei/pkg/config"
	"github.com/walteh/kousei/pkg/correction"
	"github.com/walteh/kousei/pkg/i18n"
	"github.com/walteh/kousei/pkg/rules"
)

// RootOpts contains shared options used by all commands. The flag fields are
// filled by cobra; Store is opened before any command runs.
type RootOpts struct {
	ConfigPath string
	Debug      bool
	Locale     string

	Stdin io.Reader
	Store *config.Store
}

// New returns options reading from the process stdin
func New() *RootOpts {
	return &RootOpts{Stdin: os.Stdin}
}

// Printer returns the printer for --locale, falling back to the configured locale
func (o *RootOpts) Printer() *message.Printer {
	locale := o.Locale
	if locale == "" && o.Store != nil {
		locale = o.Store.Config().Locale
	}
	return i18n.Printer(locale)
}

// Rules compiles the built-in and configured rules
func (o *RootOpts) Rules() ([]rules.Rule, error) {
	if o.Store == nil {
		return rules.Defaults(), nil
	}
	rs, err := rules.Load(o.Store.Config())
	if err != nil {
		return nil, errors.Errorf("loading rules: %w", err)
	}
	return rs, nil
}

// 🤖 NewCorrector builds a model client from the current config with apiKey.
// hostProxy, when set, replaces the configured host proxy.
func (o *RootOpts) NewCorrector(ctx context.Context, apiKey, hostProxy string) (correction.Corrector, error) {
	cfg := &config.Config{}
	if o.Store != nil {
		cfg = o.Store.Config()
	}
	cfg.APIKey = apiKey
	if hostProxy != "" {
		cfg.HostProxy = hostProxy
	}

	client, err := ai.FromConfig(cfg)
	if err != nil {
		return nil, errors.Errorf("creating ai client: %w", err)
	}
	return client, nil
}

// CorrectorFactory adapts NewCorrector for a terminal session, which has no host proxy
func (o *RootOpts) CorrectorFactory() correction.CorrectorFactory {
	return func(ctx context.Context, apiKey string) (correction.Corrector, error) {
		return o.NewCorrector(ctx, apiKey, "")
	}
}
