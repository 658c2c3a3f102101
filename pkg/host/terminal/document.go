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
	"path/filepath"
	"sync"
	"unicode/utf8"

	"gitlab.com/tozd/go/errors"

	"github.com/walteh/kousei/pkg/host"
	"github.com/walteh/kousei/pkg/status"
)

// 📄 FileDocument is a host.Document backed by a file on disk
type FileDocument struct {
	mgr  *status.Manager
	path string // relative to the manager's base dir
	uri  string

	mu   sync.RWMutex
	text string
}

// 🏭 OpenFile reads path through mgr
func OpenFile(ctx context.Context, mgr *status.Manager, path string) (*FileDocument, error) {
	content, err := mgr.ReadFile(ctx, path)
	if err != nil {
		return nil, errors.Errorf("opening document: %w", err)
	}
	if !utf8.Valid(content) {
		return nil, errors.Errorf("document %s is not valid UTF-8", path)
	}
	return &FileDocument{
		mgr:  mgr,
		path: path,
		uri:  filepath.ToSlash(path),
		text: string(content),
	}, nil
}

func (d *FileDocument) URI() string { return d.uri }

func (d *FileDocument) Text() string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.text
}

// Replace writes the edited text back to disk, keeping a .bak copy of the previous
// contents
func (d *FileDocument) Replace(ctx context.Context, r host.Range, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if !r.Valid(d.text) {
		return errors.Errorf("range %d-%d is outside the document", r.Start, r.End)
	}
	next := r.Splice(d.text, text)
	if err := d.mgr.Commit(ctx, d.path, []byte(next)); err != nil {
		return errors.Errorf("writing %s: %w", d.path, err)
	}
	d.text = next
	return nil
}
