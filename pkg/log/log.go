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

package log

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/fatih/color"
	"github.com/rs/zerolog"
)

// 🎨 Display configuration
const (
	entryIndent = 4  // spaces to indent record entries
	idWidth     = 22 // Width for the rule id column
	kindWidth   = 6  // Width for the record kind
)

// 🎯 RecordLine is one correction step for console output
type RecordLine struct {
	Kind        string // style, rule or ai
	RuleID      string // Rule identifier, empty for style and ai
	Description string // Human-readable label
	Count       int    // Number of replacements, 0 when unknown
}

// 📄 DocumentOperation is a document being processed
type DocumentOperation struct {
	Path    string // File path or URI
	Scope   string // document or selection
	Session string // Session id
}

// 🎯 Logger prints human-facing console output and mirrors it to zerolog
type Logger struct {
	zlog      zerolog.Logger
	console   io.Writer
	mu        sync.Mutex
	currentOp *DocumentOperation
	records   []RecordLine
}

// 🏭 New creates a new logger. zlog receives a structured copy of every line.
func New(console io.Writer, zlog zerolog.Logger) *Logger {
	return &Logger{
		zlog:    zlog,
		console: console,
		mu:      sync.Mutex{},
	}
}

// 🔑 contextKey is the type for context values
type contextKey struct{}

// 🎯 FromContext gets the logger from context. Without one, output is discarded.
func FromContext(ctx context.Context) *Logger {
	logger, ok := ctx.Value(contextKey{}).(*Logger)
	if !ok {
		return New(io.Discard, zerolog.Nop())
	}
	return logger
}

// 🎯 NewContext adds the logger to context
func NewContext(ctx context.Context, l *Logger) context.Context {
	return context.WithValue(ctx, contextKey{}, l)
}

// 📝 formatRecord formats a correction record for display
func (l *Logger) formatRecord(r RecordLine) string {
	var symbol rune
	var symbolColor color.Attribute
	switch r.Kind {
	case "style":
		symbol = '⚠'
		symbolColor = color.FgYellow
	case "ai":
		symbol = '✦'
		symbolColor = color.FgMagenta
	default:
		symbol = '⟳'
		symbolColor = color.FgBlue
	}

	id := r.RuleID
	if id == "" {
		id = "-"
	}
	if r.Count > 1 {
		id = fmt.Sprintf("%s ×%d", id, r.Count)
	}

	return fmt.Sprintf("%s%s %s %s %s",
		fmt.Sprintf("%*s", entryIndent, ""),
		color.New(symbolColor).Sprint(string(symbol)),
		color.New(color.FgCyan).Sprint(fmt.Sprintf("%-*s", kindWidth, r.Kind)),
		fmt.Sprintf("%-*s", idWidth, id),
		r.Description)
}

// 📝 LogRecord logs a correction record
func (l *Logger) LogRecord(ctx context.Context, r RecordLine) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.records = append(l.records, r)

	fmt.Fprintln(l.console, l.formatRecord(r))

	l.zlog.Info().
		Str("kind", r.Kind).
		Str("rule", r.RuleID).
		Int("count", r.Count).
		Str("description", r.Description).
		Msg("correction record")
}

// 📝 StartDocument prints the header for a document run
func (l *Logger) StartDocument(ctx context.Context, op DocumentOperation) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.currentOp = &op
	l.records = nil

	fmt.Fprintf(l.console, "%s %s %s %s\n",
		color.New(color.FgMagenta).Sprint("◆"),
		color.New(color.Bold).Sprint(op.Path),
		color.New(color.Faint).Sprint("•"),
		color.New(color.FgYellow).Sprint(op.Scope))

	l.zlog.Info().
		Str("path", op.Path).
		Str("scope", op.Scope).
		Str("session", op.Session).
		Msg("starting document")
}

// 📝 EndDocument closes the current document run
func (l *Logger) EndDocument(ctx context.Context) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.currentOp == nil {
		return
	}

	l.zlog.Info().
		Str("path", l.currentOp.Path).
		Int("records", len(l.records)).
		Msg("document complete")

	l.currentOp = nil
	l.records = nil
}

// 📝 Println writes raw text to the console only
func (l *Logger) Println(text string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintln(l.console, text)
}

// 📝 LogNewline logs a newline
func (l *Logger) LogNewline() {
	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintln(l.console)
}

// 📝 Header logs a header
func (l *Logger) Header(msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	name := color.New(color.Bold, color.FgCyan).Sprint("kousei")
	fmt.Fprintf(l.console, "\n%s %s\n\n", name, color.New(color.Faint).Sprint("• "+msg))
	l.zlog.Info().Msg(msg)
}

// 📝 Success logs a success message
func (l *Logger) Success(msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintf(l.console, "✅ %s\n", color.New(color.FgGreen).Sprint(msg))
	l.zlog.Info().Msg(msg)
}

// 📝 Warning logs a warning message
func (l *Logger) Warning(msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintf(l.console, "⚠️  %s\n", color.New(color.FgYellow).Sprint(msg))
	l.zlog.Warn().Msg(msg)
}

// 📝 Error logs an error message
func (l *Logger) Error(msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintf(l.console, "❌ %s\n", color.New(color.FgRed).Sprint(msg))
	l.zlog.Error().Msg(msg)
}

// 📝 Info logs an info message
func (l *Logger) Info(msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintf(l.console, "ℹ️  %s\n", color.New(color.FgCyan).Sprint(msg))
	l.zlog.Info().Msg(msg)
}

// 📝 Infof logs a formatted info message
func (l *Logger) Infof(format string, args ...interface{}) {
	l.Info(fmt.Sprintf(format, args...))
}

// 📝 Warningf logs a formatted warning message
func (l *Logger) Warningf(format string, args ...interface{}) {
	l.Warning(fmt.Sprintf(format, args...))
}

// 📝 Errorf logs a formatted error message
func (l *Logger) Errorf(format string, args ...interface{}) {
	l.Error(fmt.Sprintf(format, args...))
}

// 📝 Successf logs a formatted success message
func (l *Logger) Successf(format string, args ...interface{}) {
	l.Success(fmt.Sprintf(format, args...))
}
