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
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/fatih/color"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/walteh/kousei/pkg/host"
	"github.com/walteh/kousei/pkg/log"
	"github.com/walteh/kousei/pkg/status"
)

func openTestDocument(t *testing.T, content string) (*FileDocument, string) {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "draft.md")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	mgr := status.New(dir, nil)
	doc, err := OpenFile(context.Background(), mgr, "draft.md")
	require.NoError(t, err)
	return doc, path
}

func TestFileDocumentReplace(t *testing.T) {
	doc, path := openTestDocument(t, "前置き。今日は晴れです")
	assert.Equal(t, "draft.md", doc.URI())

	r := host.Range{Start: len("前置き。"), End: len(doc.Text())}
	require.NoError(t, doc.Replace(context.Background(), r, "今日は晴れです。"))

	assert.Equal(t, "前置き。今日は晴れです。", doc.Text())
	got, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "前置き。今日は晴れです。", string(got))

	bak, err := os.ReadFile(path + ".bak")
	require.NoError(t, err)
	assert.Equal(t, "前置き。今日は晴れです", string(bak))
}

func TestFileDocumentReplaceErrors(t *testing.T) {
	t.Run("changed_on_disk", func(t *testing.T) {
		doc, path := openTestDocument(t, "今日は晴れです")
		require.NoError(t, os.WriteFile(path, []byte("別の内容"), 0o644))

		err := doc.Replace(context.Background(), host.Whole(doc.Text()), "x")
		require.Error(t, err)
		assert.ErrorIs(t, err, status.ErrChangedOnDisk)
		assert.Equal(t, "今日は晴れです", doc.Text())
	})

	t.Run("bad_range", func(t *testing.T) {
		doc, _ := openTestDocument(t, "abc")
		err := doc.Replace(context.Background(), host.Range{Start: 1, End: 10}, "x")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "outside the document")
	})

	t.Run("invalid_utf8", func(t *testing.T) {
		dir := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(dir, "bin"), []byte{0xff, 0xfe}, 0o644))
		_, err := OpenFile(context.Background(), status.New(dir, nil), "bin")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "not valid UTF-8")
	})
}

func TestLinePrompter(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		choices []string
		want    string
	}{
		{name: "by_number", input: "2\n", choices: []string{"適用", "破棄"}, want: "破棄"},
		{name: "by_label", input: "適用\n", choices: []string{"適用", "破棄"}, want: "適用"},
		{name: "unknown_answer", input: "maybe\n", choices: []string{"適用", "破棄"}, want: ""},
		{name: "eof", input: "", choices: []string{"適用", "破棄"}, want: ""},
		{name: "single_choice_needs_no_input", input: "", choices: []string{"OK"}, want: "OK"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			p := NewLinePrompter(strings.NewReader(tt.input), &out)
			got, err := p.Select(context.Background(), "修正を適用しますか？", tt.choices)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Contains(t, out.String(), "修正を適用しますか？")
		})
	}

	var out bytes.Buffer
	secret, err := NewLinePrompter(strings.NewReader("  sk-abc \n"), &out).Secret(context.Background(), "APIキー")
	require.NoError(t, err)
	assert.Equal(t, "sk-abc", secret)
}

func TestAutoPrompter(t *testing.T) {
	got, err := AutoPrompter{}.Select(context.Background(), "p", []string{"適用", "破棄"})
	require.NoError(t, err)
	assert.Equal(t, "適用", got)

	secret, err := AutoPrompter{}.Secret(context.Background(), "p")
	require.NoError(t, err)
	assert.Empty(t, secret)
}

func newTestHost(t *testing.T, doc *FileDocument, prompter Prompter, sigs *chan<- os.Signal) (*Host, *bytes.Buffer) {
	t.Helper()
	var buf bytes.Buffer
	return New(Options{
		Document: doc,
		Console:  log.New(&buf, zerolog.Nop()),
		Prompter: prompter,
		Interrupts: func(ch chan<- os.Signal) func() {
			if sigs != nil {
				*sigs = ch
			}
			return func() {}
		},
	}), &buf
}

func TestHostProgressInterruptCancels(t *testing.T) {
	var sigs chan<- os.Signal
	h, buf := newTestHost(t, nil, AutoPrompter{}, &sigs)

	cancelled := make(chan struct{})
	p := h.Progress(context.Background(), "校正中...", func() { close(cancelled) })
	p.Report("ルールを適用しています...")
	require.NotNil(t, sigs)

	sigs <- os.Interrupt
	select {
	case <-cancelled:
	case <-time.After(5 * time.Second):
		t.Fatal("interrupt did not cancel")
	}
	p.Done()
	p.Done()

	assert.Contains(t, buf.String(), "校正中...")
	assert.Contains(t, buf.String(), "ルールを適用しています...")
}

func TestHostProgressDoneWithoutInterrupt(t *testing.T) {
	h, _ := newTestHost(t, nil, AutoPrompter{}, nil)
	called := false
	p := h.Progress(context.Background(), "t", func() { called = true })
	p.Done()
	assert.False(t, called)
}

func TestHostEditorAndUI(t *testing.T) {
	color.NoColor = true
	defer func() { color.NoColor = false }()

	h, buf := newTestHost(t, nil, AutoPrompter{}, nil)
	_, ok := h.ActiveDocument()
	assert.False(t, ok)

	h.Notify(context.Background(), host.LevelWarning, "アクティブなエディタがありません。")
	assert.Contains(t, buf.String(), "⚠️  アクティブなエディタがありません。")

	choice, err := h.Ask(context.Background(), "p", "適用", "破棄")
	require.NoError(t, err)
	assert.Equal(t, "適用", choice)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = h.Ask(ctx, "p", "a")
	assert.ErrorIs(t, err, context.Canceled)

	buf.Reset()
	require.NoError(t, h.ShowDiff(context.Background(), host.Diff{
		Title:         "draft.md（校正前 ↔ 校正後）",
		OriginalName:  "校正前",
		Original:      "今日は晴れです",
		CorrectedName: "校正後",
		Corrected:     "今日は晴れです。",
	}))
	out := buf.String()
	assert.Contains(t, out, "kousei • draft.md（校正前 ↔ 校正後）")
	assert.Contains(t, out, "-今日は晴れです\n")
	assert.Contains(t, out, "+今日は晴れです。\n")
	assert.Contains(t, out, "今日は晴れです{+。+}")

	buf.Reset()
	require.NoError(t, h.ShowDiff(context.Background(), host.Diff{
		Title:         "draft.md（校正前 ↔ 校正後）",
		OriginalName:  "校正前",
		Original:      "今日は晴れです",
		CorrectedName: "校正後",
		Corrected:     "今日は晴れです。\n\n<!-- 校正内容\n1. 「です」の後に句点を追加\n-->",
		Applied:       "今日は晴れです。",
	}))
	out = buf.String()
	assert.Contains(t, out, "+<!-- 校正内容\n")
	assert.Contains(t, out, "今日は晴れです{+。+}")
	assert.NotContains(t, out, "{+。\n")
}
