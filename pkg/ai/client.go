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

	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"

	"github.com/walteh/kousei/pkg/config"
)

// ErrCancelled is returned by Correct when the caller's context was cancelled
var ErrCancelled = errors.New("ai correction cancelled")

// 🧠 Client runs one correction request against a Completer
type Client struct {
	completer Completer
}

// 🏭 NewClient wraps a completer. A nil completer yields a client that is never
// available.
func NewClient(c Completer) *Client {
	return &Client{completer: c}
}

// 🏭 FromConfig builds a client from configuration. Without an API key the client is
// not available and Correct always returns nil.
func FromConfig(cfg *config.Config) (*Client, error) {
	if cfg == nil || cfg.APIKey == "" {
		return NewClient(nil), nil
	}

	httpClient, _, err := NewHTTPClient(cfg.ProxyURL, cfg.HostProxy)
	if err != nil {
		return nil, errors.Errorf("building http client: %w", err)
	}

	return NewClient(NewAnthropicCompleter(AnthropicOptions{
		APIKey:     cfg.APIKey,
		Model:      cfg.Model,
		HTTPClient: httpClient,
	})), nil
}

// Available reports whether a completer is configured
func (c *Client) Available() bool {
	return c != nil && c.completer != nil
}

// 🎯 Correct asks the model to correct target. sel, when set, is the text around a
// selection.
//
// A nil result with a nil error means no correction is available: no completer,
// a transport failure, or an unusable reply. The only error returned is ErrCancelled.
func (c *Client) Correct(ctx context.Context, target string, sel *SelectionContext) (*Result, error) {
	if !c.Available() {
		return nil, nil
	}

	logger := zerolog.Ctx(ctx)
	withSelection := sel != nil

	raw, err := c.completer.Complete(ctx, SystemPrompt(withSelection), UserMessage(target, sel))
	if errors.Is(ctx.Err(), context.Canceled) {
		return nil, ErrCancelled
	}
	if err != nil {
		logger.Warn().Err(err).Msg("ai completion failed")
		return nil, nil
	}

	res, err := ParseResponse(raw, withSelection)
	if err != nil {
		logger.Warn().Err(err).Int("response_len", len(raw)).Msg("ai response could not be parsed")
		logger.Debug().Str("response", raw).Msg("unparsed ai response")
		return nil, nil
	}

	return res, nil
}
