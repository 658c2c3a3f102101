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
)

// 📄 Document is a text buffer owned by the host editor
type Document interface {
	// URI identifies the document; for files it is the path
	URI() string
	// Text returns the current contents
	Text() string
	// Replace swaps the text in r for text
	Replace(ctx context.Context, r Range, text string) error
}

// ✏️ Editor exposes the active document and its selection
type Editor interface {
	// ActiveDocument returns false when no editor is active
	ActiveDocument() (Document, bool)
	// Selection returns the selected range of the active document. An empty range
	// means nothing is selected.
	Selection() Range
}

// Level is the severity of a notification
type Level int

const (
	LevelInfo Level = iota
	LevelWarning
	LevelError
)

func (l Level) String() string {
	switch l {
	case LevelWarning:
		return "warning"
	case LevelError:
		return "error"
	default:
		return "info"
	}
}

// ⏳ Progress is a visible long-running task
type Progress interface {
	Report(message string)
	Done()
}

// 🔀 Diff is a side-by-side view of two read-only virtual documents
type Diff struct {
	Title         string
	OriginalName  string
	Original      string
	CorrectedName string
	Corrected     string
	// Applied is the text that will be written if accepted; empty means Corrected
	Applied string
}

// 🖥️ UI is everything the pipeline needs from the host's widgets
type UI interface {
	// Notify shows a non-modal message
	Notify(ctx context.Context, level Level, message string)
	// Ask shows a prompt with choice buttons and returns the chosen label, or ""
	// when the prompt was dismissed.
	Ask(ctx context.Context, prompt string, choices ...string) (string, error)
	// AskSecret asks for a hidden value. "" means the user gave nothing.
	AskSecret(ctx context.Context, prompt string) (string, error)
	// Progress shows a progress surface. cancel is invoked when the user presses
	// its cancel control.
	Progress(ctx context.Context, title string, cancel func()) Progress
	// SetStatus updates the status bar item
	SetStatus(ctx context.Context, text string, running bool)
	// ShowDiff opens a diff view
	ShowDiff(ctx context.Context, d Diff) error
}

// 🏠 Host is a complete editor surface
type Host interface {
	Editor
	UI
}
