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

package host

import (
	"context"
	"sync"

	"gitlab.com/tozd/go/errors"
)

// 💭 MemoryDocument is a Document held in memory
type MemoryDocument struct {
	uri string

	mu    sync.RWMutex
	text  string
	edits int
}

// NewMemoryDocument creates a document with the given contents
func NewMemoryDocument(uri, text string) *MemoryDocument {
	return &MemoryDocument{uri: uri, text: text}
}

func (d *MemoryDocument) URI() string { return d.uri }

func (d *MemoryDocument) Text() string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.text
}

// Edits counts successful Replace calls
func (d *MemoryDocument) Edits() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.edits
}

func (d *MemoryDocument) Replace(ctx context.Context, r Range, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if !r.Valid(d.text) {
		return errors.Errorf("range %d-%d is outside the document", r.Start, r.End)
	}
	d.text = r.Splice(d.text, text)
	d.edits++
	return nil
}
