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
	"bytes"
	"context"
	"io"
	"strings"
	"testing"

	"github.com/fatih/color"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogger(t *testing.T) {
	// Disable color for testing
	color.NoColor = true
	defer func() { color.NoColor = false }()

	tests := []struct {
		name     string
		op       func(t *testing.T, logger *Logger)
		wantLogs []string
	}{
		{
			name: "log_document_operation",
			op: func(t *testing.T, logger *Logger) {
				logger.StartDocument(context.Background(), DocumentOperation{
					Path:    "notes/draft.md",
					Scope:   "selection",
					Session: "abc",
				})
				logger.EndDocument(context.Background())
			},
			wantLogs: []string{
				"◆ notes/draft.md • selection",
			},
		},
		{
			name: "log_messages",
			op: func(t *testing.T, logger *Logger) {
				logger.Info("info message")
				logger.Warning("warning message")
				logger.Error("error message")
				logger.Success("success message")
			},
			wantLogs: []string{
				"ℹ️  info message",
				"⚠️  warning message",
				"❌ error message",
				"✅ success message",
			},
		},
		{
			name: "log_formatted_messages",
			op: func(t *testing.T, logger *Logger) {
				logger.Infof("info %s", "test")
				logger.Warningf("warning %s", "test")
				logger.Errorf("error %s", "test")
				logger.Successf("success %s", "test")
			},
			wantLogs: []string{
				"ℹ️  info test",
				"⚠️  warning test",
				"❌ error test",
				"✅ success test",
			},
		},
		{
			name: "log_header",
			op: func(t *testing.T, logger *Logger) {
				logger.Header("校正")
			},
			wantLogs: []string{
				"kousei • 校正",
			},
		},
		{
			name: "log_newline",
			op: func(t *testing.T, logger *Logger) {
				logger.Info("first")
				logger.LogNewline()
				logger.Println("second")
			},
			wantLogs: []string{
				"ℹ️  first",
				"",
				"second",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Create buffer for console output
			buf := &bytes.Buffer{}
			logger := New(buf, zerolog.Nop())

			// Perform operation
			tt.op(t, logger)

			// Check output
			output := strings.TrimSpace(buf.String())
			lines := strings.Split(output, "\n")

			require.Equal(t, len(tt.wantLogs), len(lines), "number of log lines should match")
			for i, want := range tt.wantLogs {
				assert.Equal(t, want, strings.TrimSpace(lines[i]), "log line %d should match", i)
			}
		})
	}
}

func TestLoggerMirrorsToZerolog(t *testing.T) {
	var structured bytes.Buffer
	logger := New(io.Discard, zerolog.New(&structured))

	logger.LogRecord(context.Background(), RecordLine{Kind: "rule", RuleID: "desu-period", Count: 2, Description: "句点"})
	logger.Warning("careful")

	out := structured.String()
	assert.Contains(t, out, `"rule":"desu-period"`)
	assert.Contains(t, out, `"count":2`)
	assert.Contains(t, out, `"level":"warn"`)
}

func TestLoggerContext(t *testing.T) {
	logger := New(io.Discard, zerolog.Nop())

	ctx := NewContext(context.Background(), logger)
	assert.Same(t, logger, FromContext(ctx), "logger from context should be the same instance")

	// A missing logger falls back to a discarding one
	assert.NotPanics(t, func() {
		FromContext(context.Background()).Info("dropped")
	})
}

func TestRecordFormatting(t *testing.T) {
	// Disable color for testing
	color.NoColor = true
	defer func() { color.NoColor = false }()

	tests := []struct {
		name string
		rec  RecordLine
		want string
	}{
		{
			name: "rule_record",
			rec:  RecordLine{Kind: "rule", RuleID: "desu-period", Description: "句点を追加"},
			want: "    ⟳ rule   desu-period" + strings.Repeat(" ", 12) + "句点を追加",
		},
		{
			name: "rule_record_with_count",
			rec:  RecordLine{Kind: "rule", RuleID: "masu-period", Count: 3, Description: "句点を追加"},
			want: "    ⟳ rule   masu-period ×3" + strings.Repeat(" ", 9) + "句点を追加",
		},
		{
			name: "style_record",
			rec:  RecordLine{Kind: "style", Description: "文体が混在"},
			want: "    ⚠ style  -" + strings.Repeat(" ", 22) + "文体が混在",
		},
		{
			name: "ai_record",
			rec:  RecordLine{Kind: "ai", Description: "AI校正"},
			want: "    ✦ ai     -" + strings.Repeat(" ", 22) + "AI校正",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := &bytes.Buffer{}
			logger := New(buf, zerolog.Nop())

			logger.LogRecord(context.Background(), tt.rec)

			assert.Equal(t, tt.want, strings.TrimRight(buf.String(), "\n"), "formatted output should match")
		})
	}
}
