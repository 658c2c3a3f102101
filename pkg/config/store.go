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
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"
)

// Keys accepted by Store.Get and Store.Set
const (
	KeyAPIKey        = "api_key"
	KeyModel         = "model"
	KeyProxyURL      = "proxy_url"
	KeyHostProxy     = "host_proxy"
	KeyLocale        = "locale"
	KeyDisabledRules = "disabled_rules"
)

// Keys lists every key Store.Get and Store.Set understand
var Keys = []string{KeyAPIKey, KeyModel, KeyProxyURL, KeyHostProxy, KeyLocale, KeyDisabledRules}

const watchDebounce = 200 * time.Millisecond

// 🗄️ Store holds the configuration for one file and keeps it current.
//
// It tracks two views: the file as written on disk, and the effective config with
// environment overrides and defaults applied. Writes only ever touch the first.
type Store struct {
	path string

	mu        sync.RWMutex
	file      *Config
	effective *Config
}

// 🏭 Open loads the store for path
func Open(ctx context.Context, path string) (*Store, error) {
	s := &Store{path: path}
	if err := s.Reload(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

// Path returns the backing file
func (s *Store) Path() string {
	return s.path
}

// 🔄 Reload re-reads the backing file
func (s *Store) Reload(ctx context.Context) error {
	file, err := loadFile(ctx, s.path)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.setFileLocked(file)
	return nil
}

func (s *Store) setFileLocked(file *Config) {
	effective := file.Clone()
	effective.applyEnv()
	effective.setDefaults()
	s.file = file
	s.effective = effective
}

// Config returns a copy of the effective configuration
func (s *Store) Config() *Config {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.effective.Clone()
}

// 🔑 APIKey returns the effective API key, or "" when none is configured
func (s *Store) APIKey() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.effective.APIKey
}

// 💾 SaveAPIKey writes key to the config file
func (s *Store) SaveAPIKey(ctx context.Context, key string) error {
	return s.Set(ctx, KeyAPIKey, key)
}

// 🔍 Get reads one effective key
func (s *Store) Get(key string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	cfg := s.effective
	switch key {
	case KeyAPIKey:
		return cfg.APIKey, nil
	case KeyModel:
		return cfg.Model, nil
	case KeyProxyURL:
		return cfg.ProxyURL, nil
	case KeyHostProxy:
		return cfg.HostProxy, nil
	case KeyLocale:
		return cfg.Locale, nil
	case KeyDisabledRules:
		return strings.Join(cfg.DisabledRules, ","), nil
	default:
		return "", errors.Errorf("unknown key %q (options: %s)", key, strings.Join(Keys, ", "))
	}
}

// ✏️ Set writes one key to the config file, creating it if needed.
// disabled_rules takes a comma-separated list.
func (s *Store) Set(ctx context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.file.Clone()
	switch key {
	case KeyAPIKey:
		next.APIKey = value
	case KeyModel:
		next.Model = value
	case KeyProxyURL:
		next.ProxyURL = value
	case KeyHostProxy:
		next.HostProxy = value
	case KeyLocale:
		next.Locale = value
	case KeyDisabledRules:
		next.DisabledRules = nil
		for _, id := range strings.Split(value, ",") {
			if id = strings.TrimSpace(id); id != "" && !slices.Contains(next.DisabledRules, id) {
				next.DisabledRules = append(next.DisabledRules, id)
			}
		}
	default:
		return errors.Errorf("unknown key %q (options: %s)", key, strings.Join(Keys, ", "))
	}

	if err := next.Validate(); err != nil {
		return errors.Errorf("validating config: %w", err)
	}
	if err := s.writeLocked(ctx, next); err != nil {
		return err
	}
	s.setFileLocked(next)

	zerolog.Ctx(ctx).Debug().Str("path", s.path).Str("key", key).Msg("config key written")
	return nil
}

func (s *Store) writeLocked(ctx context.Context, cfg *Config) error {
	p := GetParser(s.path)
	if p == nil {
		return errors.Errorf("no parser found for file: %s", s.path)
	}
	data, err := p.Encode(ctx, cfg)
	if err != nil {
		return errors.Errorf("encoding config: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return errors.Errorf("creating config directory: %w", err)
	}

	// Write to temp file then rename, the file may hold a secret
	tempPath := s.path + ".tmp"
	if err := os.WriteFile(tempPath, data, 0o600); err != nil {
		return errors.Errorf("writing temp file: %w", err)
	}
	if err := os.Rename(tempPath, s.path); err != nil {
		os.Remove(tempPath)
		return errors.Errorf("renaming temp file: %w", err)
	}
	return nil
}

// 👀 Watch reloads the store whenever the backing file changes and calls onChange
// with the new effective config. It blocks until ctx is done.
//
// The parent directory is watched rather than the file, since editors usually save by
// replacing the file.
func (s *Store) Watch(ctx context.Context, onChange func(*Config)) error {
	logger := zerolog.Ctx(ctx)

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return errors.Errorf("creating watcher: %w", err)
	}
	defer watcher.Close()

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errors.Errorf("creating config directory: %w", err)
	}
	if err := watcher.Add(dir); err != nil {
		return errors.Errorf("watching %s: %w", dir, err)
	}

	target := filepath.Clean(s.path)

	// Debounce timer for batching rapid saves
	timer := time.NewTimer(watchDebounce)
	if !timer.Stop() {
		<-timer.C
	}
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) && !event.Has(fsnotify.Remove) {
				continue
			}
			timer.Reset(watchDebounce)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn().Err(err).Msg("config watcher error")

		case <-timer.C:
			if err := s.Reload(ctx); err != nil {
				logger.Warn().Err(err).Str("path", s.path).Msg("reloading config, keeping previous")
				continue
			}
			logger.Info().Str("path", s.path).Msg("configuration reloaded")
			if onChange != nil {
				onChange(s.Config())
			}
		}
	}
}
