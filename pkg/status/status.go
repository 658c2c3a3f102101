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
	"crypto/sha256"
	"encoding/hex"
	"io"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"
)

// ErrChangedOnDisk is returned when a file was modified since it was read
var ErrChangedOnDisk = errors.New("file changed on disk since it was read")

// 📊 FileStatus represents the current state of a document file
type FileStatus int

const (
	StatusUnknown   FileStatus = iota
	StatusUnchanged            // Read, never written
	StatusModified             // Corrections were written
	StatusRestored             // Rolled back from the backup
)

// String returns a string representation of FileStatus
func (s FileStatus) String() string {
	switch s {
	case StatusUnchanged:
		return "unchanged"
	case StatusModified:
		return "modified"
	case StatusRestored:
		return "restored"
	default:
		return "unknown"
	}
}

// 📄 FileInfo contains metadata about a file
type FileInfo struct {
	Path     string      // Relative path to the file
	Status   FileStatus  // Current status
	Size     int64       // File size in bytes
	Mode     os.FileMode // File permissions
	Checksum string      // Hash of the content last read or written
	Error    error       // Any error associated with this file
}

// 💾 Manager reads and writes document files under one base directory and tracks
// what happened to each of them
type Manager struct {
	baseDir   string          // Base directory for all operations
	logger    *zerolog.Logger // Logger for status updates
	formatter FileFormatter   // Formatter for status messages

	mu    sync.RWMutex
	files map[string]FileInfo
}

// 🏭 New creates a new status manager
func New(baseDir string, logger *zerolog.Logger) *Manager {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &Manager{
		baseDir:   filepath.Clean(baseDir),
		logger:    logger,
		formatter: NewDefaultFileFormatter(),
		files:     make(map[string]FileInfo),
	}
}

// 🔒 getAbsPath returns the absolute path for a given relative path
func (m *Manager) getAbsPath(path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(m.baseDir, path)
}

// 🔍 Checksum generates a SHA-256 hash of the content
func Checksum(content []byte) string {
	hash := sha256.Sum256(content)
	return hex.EncodeToString(hash[:])
}

// ReadFile reads path and remembers its checksum for Changed
func (m *Manager) ReadFile(ctx context.Context, path string) ([]byte, error) {
	absPath := m.getAbsPath(path)
	content, err := os.ReadFile(absPath)
	if err != nil {
		return nil, errors.Errorf("reading file: %w", err)
	}
	st, err := os.Stat(absPath)
	if err != nil {
		return nil, errors.Errorf("stat file: %w", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	info := m.files[path]
	info.Path = path
	if info.Status == StatusUnknown {
		info.Status = StatusUnchanged
	}
	info.Size = int64(len(content))
	info.Mode = st.Mode().Perm()
	info.Checksum = Checksum(content)
	m.files[path] = info
	return content, nil
}

// 🕵️ Changed reports whether path differs on disk from what was last read or written
func (m *Manager) Changed(ctx context.Context, path string) (bool, error) {
	m.mu.RLock()
	info, ok := m.files[path]
	m.mu.RUnlock()
	if !ok {
		return false, errors.Errorf("file not tracked: %s", path)
	}

	content, err := os.ReadFile(m.getAbsPath(path))
	if err != nil {
		return false, errors.Errorf("reading file: %w", err)
	}
	return Checksum(content) != info.Checksum, nil
}

// WriteFileAtomic replaces path through a temp file in the same directory, keeping
// the original permissions
func (m *Manager) WriteFileAtomic(ctx context.Context, path string, content []byte) error {
	absPath := m.getAbsPath(path)

	mode := os.FileMode(0o644)
	if st, err := os.Stat(absPath); err == nil {
		mode = st.Mode().Perm()
	}

	tmp, err := os.CreateTemp(filepath.Dir(absPath), "."+filepath.Base(absPath)+".*.tmp")
	if err != nil {
		return errors.Errorf("creating temp file: %w", err)
	}
	tempPath := tmp.Name()

	if _, err := tmp.Write(content); err != nil {
		tmp.Close()
		os.Remove(tempPath)
		return errors.Errorf("writing temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tempPath)
		return errors.Errorf("closing temp file: %w", err)
	}
	if err := os.Chmod(tempPath, mode); err != nil {
		os.Remove(tempPath)
		return errors.Errorf("setting temp file mode: %w", err)
	}

	// Rename temp file to target (atomic operation)
	if err := os.Rename(tempPath, absPath); err != nil {
		os.Remove(tempPath) // Clean up temp file
		return errors.Errorf("renaming temp file: %w", err)
	}

	return nil
}

// BackupPath is where BackupFile copies path
func (m *Manager) BackupPath(path string) string {
	return m.getAbsPath(path) + ".bak"
}

// BackupFile copies path next to itself with a .bak suffix
func (m *Manager) BackupFile(ctx context.Context, path string) error {
	absPath := m.getAbsPath(path)

	// Only backup if file exists
	if _, err := os.Stat(absPath); os.IsNotExist(err) {
		return nil
	} else if err != nil {
		return errors.Errorf("checking file existence: %w", err)
	}

	if err := copyFile(absPath, m.BackupPath(path)); err != nil {
		return errors.Errorf("creating backup: %w", err)
	}

	return nil
}

// RestoreFile puts the backup back in place and removes it
func (m *Manager) RestoreFile(ctx context.Context, path string) error {
	backupPath := m.BackupPath(path)

	// Check if backup exists
	if _, err := os.Stat(backupPath); os.IsNotExist(err) {
		return errors.Errorf("backup file does not exist")
	} else if err != nil {
		return errors.Errorf("checking backup existence: %w", err)
	}

	content, err := os.ReadFile(backupPath)
	if err != nil {
		return errors.Errorf("reading backup: %w", err)
	}
	if err := m.WriteFileAtomic(ctx, path, content); err != nil {
		return errors.Errorf("restoring from backup: %w", err)
	}

	if err := os.Remove(backupPath); err != nil {
		return errors.Errorf("removing backup: %w", err)
	}

	m.TrackFile(ctx, path, FileInfo{Status: StatusRestored, Size: int64(len(content)), Checksum: Checksum(content)})
	return nil
}

// 📝 Commit backs up path, writes content atomically and records the change.
// It refuses to overwrite a file that changed on disk since it was read.
func (m *Manager) Commit(ctx context.Context, path string, content []byte) error {
	changed, err := m.Changed(ctx, path)
	if err != nil {
		return err
	}
	if changed {
		err := errors.Errorf("%s: %w", path, ErrChangedOnDisk)
		m.TrackFile(ctx, path, FileInfo{Status: StatusUnchanged, Error: err})
		return err
	}

	if err := m.BackupFile(ctx, path); err != nil {
		return err
	}
	if err := m.WriteFileAtomic(ctx, path, content); err != nil {
		return err
	}

	m.TrackFile(ctx, path, FileInfo{Status: StatusModified, Size: int64(len(content)), Checksum: Checksum(content)})
	return nil
}

// TrackFile records info for path and logs it
func (m *Manager) TrackFile(ctx context.Context, path string, info FileInfo) {
	m.mu.Lock()
	defer m.mu.Unlock()

	prev := m.files[path]
	info.Path = path
	if info.Mode == 0 {
		info.Mode = prev.Mode
	}
	if info.Checksum == "" {
		info.Checksum = prev.Checksum
	}
	m.files[path] = info

	msg := m.formatter.FormatFileOperation(path, info.Status)
	if info.Error != nil {
		m.logger.Warn().Str("path", path).Err(info.Error).Msg(m.formatter.FormatError(info.Error))
		return
	}
	m.logger.Info().Str("path", path).Str("status", info.Status.String()).Msg(msg)
}

// GetFileInfo returns what is known about path
func (m *Manager) GetFileInfo(ctx context.Context, path string) (FileInfo, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	info, ok := m.files[path]
	if !ok {
		return FileInfo{}, errors.Errorf("file not tracked: %s", path)
	}
	return info, nil
}

// ListFiles returns every tracked file, sorted by path
func (m *Manager) ListFiles(ctx context.Context) ([]FileInfo, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	files := make([]FileInfo, 0, len(m.files))
	for _, info := range m.files {
		files = append(files, info)
	}
	sort.Slice(files, func(i, j int) bool { return files[i].Path < files[j].Path })
	return files, nil
}

// Helper functions

func copyFile(src, dst string) error {
	source, err := os.Open(src)
	if err != nil {
		return errors.Errorf("opening source file: %w", err)
	}
	defer source.Close()

	st, err := source.Stat()
	if err != nil {
		return errors.Errorf("stat source file: %w", err)
	}

	destination, err := os.OpenFile(dst, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, st.Mode().Perm())
	if err != nil {
		return errors.Errorf("creating destination file: %w", err)
	}
	defer destination.Close()

	if _, err := io.Copy(destination, source); err != nil {
		return errors.Errorf("copying file: %w", err)
	}

	return nil
}
