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

package status

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gitlab.com/tozd/go/errors"
)

func writeFile(t *testing.T, dir, name, content string, mode os.FileMode) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), mode))
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	b, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(b)
}

func TestManagerCommit(t *testing.T) {
	tests := []struct {
		name        string
		setup       func(t *testing.T, dir string, mgr *Manager)
		wantContent string
		wantBackup  string
		wantStatus  FileStatus
		wantErr     error
		errContains string
	}{
		{
			name:        "writes_with_backup",
			wantContent: "今日は晴れです。",
			wantBackup:  "今日は晴れです",
			wantStatus:  StatusModified,
		},
		{
			name: "refuses_external_change",
			setup: func(t *testing.T, dir string, mgr *Manager) {
				writeFile(t, dir, "doc.md", "誰かが編集した", 0o644)
			},
			wantContent: "誰かが編集した",
			wantStatus:  StatusUnchanged,
			wantErr:     ErrChangedOnDisk,
		},
		{
			name: "untracked_file",
			setup: func(t *testing.T, dir string, mgr *Manager) {
				mgr.files = map[string]FileInfo{}
			},
			wantContent: "今日は晴れです",
			errContains: "file not tracked",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			dir := t.TempDir()
			writeFile(t, dir, "doc.md", "今日は晴れです", 0o600)

			mgr := New(dir, nil)
			content, err := mgr.ReadFile(ctx, "doc.md")
			require.NoError(t, err)
			assert.Equal(t, "今日は晴れです", string(content))

			if tt.setup != nil {
				tt.setup(t, dir, mgr)
			}

			err = mgr.Commit(ctx, "doc.md", []byte("今日は晴れです。"))
			switch {
			case tt.wantErr != nil:
				require.Error(t, err)
				assert.True(t, errors.Is(err, tt.wantErr), "got %v", err)
			case tt.errContains != "":
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errContains)
			default:
				require.NoError(t, err)
			}

			assert.Equal(t, tt.wantContent, readFile(t, filepath.Join(dir, "doc.md")))
			if tt.wantBackup != "" {
				assert.Equal(t, tt.wantBackup, readFile(t, mgr.BackupPath("doc.md")))
				st, err := os.Stat(filepath.Join(dir, "doc.md"))
				require.NoError(t, err)
				assert.Equal(t, os.FileMode(0o600), st.Mode().Perm(), "mode preserved")
			} else {
				assert.NoFileExists(t, mgr.BackupPath("doc.md"))
			}

			if tt.wantStatus != StatusUnknown {
				info, err := mgr.GetFileInfo(ctx, "doc.md")
				require.NoError(t, err)
				assert.Equal(t, tt.wantStatus, info.Status)
			}

			entries, err := os.ReadDir(dir)
			require.NoError(t, err)
			for _, e := range entries {
				assert.NotContains(t, e.Name(), ".tmp", "temp files cleaned up")
			}
		})
	}
}

func TestManagerSecondCommitAfterWrite(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	writeFile(t, dir, "doc.md", "a", 0o644)

	mgr := New(dir, nil)
	_, err := mgr.ReadFile(ctx, "doc.md")
	require.NoError(t, err)

	require.NoError(t, mgr.Commit(ctx, "doc.md", []byte("b")))
	changed, err := mgr.Changed(ctx, "doc.md")
	require.NoError(t, err)
	assert.False(t, changed, "own write is not an external change")

	require.NoError(t, mgr.Commit(ctx, "doc.md", []byte("c")))
	assert.Equal(t, "c", readFile(t, filepath.Join(dir, "doc.md")))
	assert.Equal(t, "b", readFile(t, mgr.BackupPath("doc.md")))
}

func TestManagerRestore(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	writeFile(t, dir, "doc.md", "元の文章", 0o644)

	mgr := New(dir, nil)
	_, err := mgr.ReadFile(ctx, "doc.md")
	require.NoError(t, err)
	require.NoError(t, mgr.Commit(ctx, "doc.md", []byte("直した文章")))

	require.NoError(t, mgr.RestoreFile(ctx, "doc.md"))
	assert.Equal(t, "元の文章", readFile(t, filepath.Join(dir, "doc.md")))
	assert.NoFileExists(t, mgr.BackupPath("doc.md"))

	info, err := mgr.GetFileInfo(ctx, "doc.md")
	require.NoError(t, err)
	assert.Equal(t, StatusRestored, info.Status)

	err = mgr.RestoreFile(ctx, "doc.md")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "backup file does not exist")
}

func TestManagerReadMissing(t *testing.T) {
	mgr := New(t.TempDir(), nil)
	_, err := mgr.ReadFile(context.Background(), "missing.md")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "reading file")

	files, err := mgr.ListFiles(context.Background())
	require.NoError(t, err)
	assert.Empty(t, files)
}

func TestFormatter(t *testing.T) {
	f := NewDefaultFileFormatter()
	assert.Equal(t, "📝 Corrected a.md", f.FormatFileOperation("a.md", StatusModified))
	assert.Equal(t, "⏪ Restored a.md", f.FormatFileOperation("a.md", StatusRestored))
	assert.Equal(t, "👍 Unchanged a.md", f.FormatFileOperation("a.md", StatusUnchanged))
	assert.Equal(t, "❌ Error: boom", f.FormatError(errors.New("boom")))
	assert.Equal(t, "", f.FormatError(nil))
	assert.Equal(t, "modified", StatusModified.String())
}
