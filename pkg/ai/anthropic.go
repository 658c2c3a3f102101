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
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"
)

const defaultMaxTokens = 4096

// 🔌 Completer sends one system instruction and one user message and returns the
// model's text reply
type Completer interface {
	Complete(ctx context.Context, system, user string) (string, error)
}

// AnthropicOptions configures an AnthropicCompleter
type AnthropicOptions struct {
	APIKey     string
	Model      string
	BaseURL    string // optional, for tests and gateways
	HTTPClient *http.Client
	MaxTokens  int64
}

// 🤖 AnthropicCompleter implements Completer with the Anthropic Messages API
type AnthropicCompleter struct {
	client    anthropic.Client
	model     string
	maxTokens int64
}

// 🏭 NewAnthropicCompleter creates a completer. Retries are disabled: a failed call
// is reported once.
func NewAnthropicCompleter(opts AnthropicOptions) *AnthropicCompleter {
	reqOpts := []option.RequestOption{
		option.WithAPIKey(opts.APIKey),
		option.WithMaxRetries(0),
	}
	if opts.HTTPClient != nil {
		reqOpts = append(reqOpts, option.WithHTTPClient(opts.HTTPClient))
	}
	if opts.BaseURL != "" {
		reqOpts = append(reqOpts, option.WithBaseURL(opts.BaseURL))
	}

	maxTokens := opts.MaxTokens
	if maxTokens <= 0 {
		maxTokens = defaultMaxTokens
	}

	return &AnthropicCompleter{
		client:    anthropic.NewClient(reqOpts...),
		model:     opts.Model,
		maxTokens: maxTokens,
	}
}

// Complete implements Completer
func (a *AnthropicCompleter) Complete(ctx context.Context, system, user string) (string, error) {
	logger := zerolog.Ctx(ctx)
	start := time.Now()

	message, err := a.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(a.model),
		MaxTokens: a.maxTokens,
		System: []anthropic.TextBlockParam{
			{Text: system},
		},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(user)),
		},
	})
	if err != nil {
		return "", errors.Errorf("anthropic messages request: %w", err)
	}

	var out strings.Builder
	for _, block := range message.Content {
		if block.Type == "text" {
			out.WriteString(block.Text)
		}
	}
	if out.Len() == 0 {
		return "", errors.Errorf("no text content in anthropic response")
	}

	logger.Debug().
		Str("model", a.model).
		Int64("tokens_in", message.Usage.InputTokens).
		Int64("tokens_out", message.Usage.OutputTokens).
		Dur("elapsed", time.Since(start)).
		Msg("anthropic completion")

	return out.String(), nil
}
