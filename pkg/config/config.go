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

package config

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"
)

// DefaultModel is used when no model is configured
const DefaultModel = "claude-sonnet-4-5-20250929"

// Environment variables that override the file
const (
	EnvAPIKey          = "KOUSEI_API_KEY"
	EnvAnthropicAPIKey = "ANTHROPIC_API_KEY"
	EnvModel           = "KOUSEI_MODEL"
	EnvProxyURL        = "KOUSEI_PROXY_URL"
)

// Locales lists the supported values of Config.Locale
var Locales = []string{"ja", "en"}

// 🔌 Parser is the interface for config formats
type Parser interface {
	// 📝 Parse parses the config from bytes
	Parse(ctx context.Context, data []byte) (*Config, error)

	// 💾 Encode serializes the config back into the same format
	Encode(ctx context.Context, cfg *Config) ([]byte, error)

	// 🔍 CanParse checks if this parser can handle the given file
	CanParse(filename string) bool
}

var (
	// 🗺️ parsers is a list of available parsers
	parsers []Parser
)

// 📝 Register registers a parser
func Register(p Parser) {
	parsers = append(parsers, p)
}

// 🎯 GetParser returns a parser that can handle the given file
func GetParser(filename string) Parser {
	for _, p := range parsers {
		if p.CanParse(filename) {
			return p
		}
	}
	return nil
}

// 📏 Rule is a user-defined proofreading rule
type Rule struct {
	ID            string   `json:"id,omitempty" yaml:"id,omitempty" hcl:"id,label"`
	Description   string   `json:"description" yaml:"description" hcl:"description"`
	Pattern       string   `json:"pattern" yaml:"pattern" hcl:"pattern"`
	Replacement   string   `json:"replacement" yaml:"replacement" hcl:"replacement,optional"`
	FollowedBy    string   `json:"followed_by,omitempty" yaml:"followed_by,omitempty" hcl:"followed_by,optional"`
	NotFollowedBy string   `json:"not_followed_by,omitempty" yaml:"not_followed_by,omitempty" hcl:"not_followed_by,optional"`
	Files         []string `json:"files,omitempty" yaml:"files,omitempty" hcl:"files,optional"`
}

// 📚 Config represents the complete configuration
type Config struct {
	APIKey        string   `json:"api_key,omitempty" yaml:"api_key,omitempty" hcl:"api_key,optional"`
	Model         string   `json:"model,omitempty" yaml:"model,omitempty" hcl:"model,optional"`
	ProxyURL      string   `json:"proxy_url,omitempty" yaml:"proxy_url,omitempty" hcl:"proxy_url,optional"`
	HostProxy     string   `json:"host_proxy,omitempty" yaml:"host_proxy,omitempty" hcl:"host_proxy,optional"`
	Locale        string   `json:"locale,omitempty" yaml:"locale,omitempty" hcl:"locale,optional"`
	DisabledRules []string `json:"disabled_rules,omitempty" yaml:"disabled_rules,omitempty" hcl:"disabled_rules,optional"`
	Rules         []Rule   `json:"rules,omitempty" yaml:"rules,omitempty" hcl:"rule,block"`
}

// 🏠 DefaultPath returns the per-user config file location
func DefaultPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ".kousei.yaml"
	}
	return filepath.Join(dir, "kousei", "config.yaml")
}

// 🎯 Load loads the configuration from a file.
// A missing file yields the defaults so first-run commands can create it.
func Load(ctx context.Context, path string) (*Config, error) {
	cfg, err := loadFile(ctx, path)
	if err != nil {
		return nil, err
	}
	cfg.applyEnv()
	cfg.setDefaults()
	return cfg, nil
}

// loadFile reads and validates path without env overrides or defaults
func loadFile(ctx context.Context, path string) (*Config, error) {
	logger := zerolog.Ctx(ctx)
	logger.Debug().Str("path", path).Msg("loading configuration")

	// Get parser
	p := GetParser(path)
	if p == nil {
		return nil, errors.Errorf("no parser found for file: %s", path)
	}

	// Read config file
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		logger.Debug().Str("path", path).Msg("config file not found, using defaults")
		return &Config{}, nil
	}
	if err != nil {
		return nil, errors.Errorf("reading config file: %w", err)
	}

	// Parse config
	cfg, err := p.Parse(ctx, data)
	if err != nil {
		return nil, errors.Errorf("parsing config: %w", err)
	}

	// Validate
	if err := cfg.Validate(); err != nil {
		return nil, errors.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// 🔍 Validate checks if the configuration is valid
func (cfg *Config) Validate() error {
	if cfg.Locale != "" && !slices.Contains(Locales, cfg.Locale) {
		return errors.Errorf("locale %q is not supported (options: %s)", cfg.Locale, strings.Join(Locales, ", "))
	}
	for i, r := range cfg.Rules {
		if r.Pattern == "" {
			return errors.Errorf("rules[%d].pattern is required", i)
		}
		if r.Description == "" {
			return errors.Errorf("rules[%d].description is required", i)
		}
	}
	return nil
}

func (cfg *Config) applyEnv() {
	if v := os.Getenv(EnvAPIKey); v != "" {
		cfg.APIKey = v
	} else if cfg.APIKey == "" {
		cfg.APIKey = os.Getenv(EnvAnthropicAPIKey)
	}
	if v := os.Getenv(EnvModel); v != "" {
		cfg.Model = v
	}
	if v := os.Getenv(EnvProxyURL); v != "" {
		cfg.ProxyURL = v
	}
}

func (cfg *Config) setDefaults() {
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Locale == "" {
		cfg.Locale = "ja"
	}
}

// Clone returns a deep copy of cfg
func (cfg *Config) Clone() *Config {
	out := *cfg
	out.DisabledRules = slices.Clone(cfg.DisabledRules)
	out.Rules = make([]Rule, len(cfg.Rules))
	for i, r := range cfg.Rules {
		r.Files = slices.Clone(r.Files)
		out.Rules[i] = r
	}
	if cfg.Rules == nil {
		out.Rules = nil
	}
	return &out
}

// 📝 String returns a string representation of the config with the key masked
func (cfg *Config) String() string {
	return fmt.Sprintf("model=%s locale=%s api_key=%s proxy=%s rules=%d",
		cfg.Model, cfg.Locale, MaskSecret(cfg.APIKey), cfg.ProxyURL, len(cfg.Rules))
}

// MaskSecret hides all but the last four characters of s
func MaskSecret(s string) string {
	if s == "" {
		return "(unset)"
	}
	if len(s) <= 4 {
		return "****"
	}
	return "****" + s[len(s)-4:]
}
