/*
   Copyright 2020 Docker Compose CLI authors

   Licensed under the Apache License, Version 2.0 (the "License");
   you may not use this file except in compliance with the License.
   You may obtain a copy of the License at

       http://www.apache.org/licenses/LICENSE-2.0

   Unless required by applicable law or agreed to in writing, software
   distributed under the License is distributed on an "AS IS" BASIS,
   WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
   See the License for the specific language governing permissions and
   limitations under the License.
*/

package backup

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	cp "github.com/otiai10/copy"
	"github.com/stretchr/testify/require"
	"gotest.tools/v3/assert"

	"github.com/docker/backup/v2/pkg/api"
)

var testClock = clockwork.NewFakeClockAt(time.Date(2026, 1, 3, 8, 21, 34, 0, time.UTC))

func newTestService() api.Service {
	return NewBackupService(testClock)
}

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(data)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func TestFirstBackup(t *testing.T) {
	source := t.TempDir()
	backup := filepath.Join(t.TempDir(), "backup")
	writeFile(t, source, "file1.txt", "a")
	writeFile(t, source, filepath.Join("sub", "inner.txt"), "b")

	plan, err := newTestService().Backup(context.Background(), api.BackupOptions{
		SourceRoot:    source,
		BackupRoot:    backup,
		DeleteRemoved: true,
	})
	require.NoError(t, err)
	assert.Equal(t, len(plan), 3)

	assert.Equal(t, readFile(t, filepath.Join(backup, "file1.txt")), "a")
	assert.Equal(t, readFile(t, filepath.Join(backup, "sub", "inner.txt")), "b")

	meta := readFile(t, filepath.Join(backup, api.MetadataFile))
	assert.Assert(t, strings.Contains(meta, "compression=none"))
	assert.Assert(t, strings.Contains(meta, "encryption=none"))
	assert.Assert(t, strings.Contains(meta, "created=2026-01-03T08:21:34Z"))
	assert.Assert(t, strings.Contains(meta, "F|file1.txt|1|"))
	assert.Assert(t, strings.Contains(meta, "D|sub|0|0"))
	assert.Assert(t, strings.Contains(meta, "F|sub/inner.txt|1|"))
}

func TestMirrorDelete(t *testing.T) {
	source := t.TempDir()
	backup := filepath.Join(t.TempDir(), "backup")
	writeFile(t, source, "file1.txt", "a")
	writeFile(t, source, filepath.Join("sub", "inner.txt"), "b")

	service := newTestService()
	options := api.BackupOptions{SourceRoot: source, BackupRoot: backup, DeleteRemoved: true}
	_, err := service.Backup(context.Background(), options)
	require.NoError(t, err)

	require.NoError(t, os.Remove(filepath.Join(source, "sub", "inner.txt")))
	writeFile(t, source, "new.txt", "n")
	_, err = service.Backup(context.Background(), options)
	require.NoError(t, err)

	assert.Equal(t, readFile(t, filepath.Join(backup, "file1.txt")), "a")
	assert.Assert(t, !fileExists(filepath.Join(backup, "sub", "inner.txt")))
	assert.Equal(t, readFile(t, filepath.Join(backup, "new.txt")), "n")
}

func TestMergeModeKeepsRemovedEntries(t *testing.T) {
	source := t.TempDir()
	backup := filepath.Join(t.TempDir(), "backup")
	writeFile(t, source, "keep.txt", "k")
	writeFile(t, source, "gone.txt", "g")

	service := newTestService()
	options := api.BackupOptions{SourceRoot: source, BackupRoot: backup}
	_, err := service.Backup(context.Background(), options)
	require.NoError(t, err)

	require.NoError(t, os.Remove(filepath.Join(source, "gone.txt")))
	_, err = service.Backup(context.Background(), options)
	require.NoError(t, err)

	assert.Equal(t, readFile(t, filepath.Join(backup, "gone.txt")), "g")
}

func TestSecondBackupOfUnchangedSourceIsNoop(t *testing.T) {
	source := t.TempDir()
	backup := filepath.Join(t.TempDir(), "backup")
	writeFile(t, source, "file1.txt", "a")
	writeFile(t, source, filepath.Join("sub", "inner.txt"), "b")

	service := newTestService()
	options := api.BackupOptions{SourceRoot: source, BackupRoot: backup, DeleteRemoved: true}
	_, err := service.Backup(context.Background(), options)
	require.NoError(t, err)

	plan, err := service.Plan(context.Background(), options)
	require.NoError(t, err)
	assert.Equal(t, len(plan), 0)
}

func TestDryRunDoesNotTouchFilesystem(t *testing.T) {
	source := t.TempDir()
	backup := filepath.Join(t.TempDir(), "backup")
	writeFile(t, source, "file1.txt", "a")

	plan, err := newTestService().Backup(context.Background(), api.BackupOptions{
		SourceRoot:    source,
		BackupRoot:    backup,
		DeleteRemoved: true,
		DryRun:        true,
	})
	require.NoError(t, err)
	assert.Assert(t, len(plan) > 0)
	assert.Assert(t, !fileExists(backup))
}

func TestBackupRejectsInvalidRoots(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "afile", "x")

	service := newTestService()
	_, err := service.Backup(context.Background(), api.BackupOptions{
		SourceRoot: filepath.Join(dir, "absent"),
		BackupRoot: filepath.Join(dir, "backup"),
	})
	assert.Assert(t, api.IsInvalidSourceRootError(err))

	_, err = service.Backup(context.Background(), api.BackupOptions{
		SourceRoot: dir,
		BackupRoot: filepath.Join(dir, "afile"),
	})
	assert.Assert(t, api.IsInvalidBackupRootError(err))
}

func TestBackupRejectsUnknownAlgorithms(t *testing.T) {
	dir := t.TempDir()
	service := newTestService()

	_, err := service.Backup(context.Background(), api.BackupOptions{
		SourceRoot:  dir,
		BackupRoot:  filepath.Join(dir, "backup"),
		Compression: "zstd",
	})
	assert.Assert(t, api.IsInvalidConfigError(err))

	_, err = service.Backup(context.Background(), api.BackupOptions{
		SourceRoot: dir,
		BackupRoot: filepath.Join(dir, "backup"),
		Encryption: "chacha",
		Password:   "pw",
	})
	assert.Assert(t, api.IsInvalidConfigError(err))
}

func TestBackupRequiresPasswordForEncryption(t *testing.T) {
	dir := t.TempDir()
	_, err := newTestService().Backup(context.Background(), api.BackupOptions{
		SourceRoot: dir,
		BackupRoot: filepath.Join(dir, "backup"),
		Encryption: api.EncryptionAES,
	})
	assert.Assert(t, api.IsMissingKeyError(err))
}

func TestPartialFailureSkipsSidecar(t *testing.T) {
	source := t.TempDir()
	backup := t.TempDir()
	writeFile(t, source, "other.txt", "o")
	writeFile(t, source, filepath.Join("sub", "inner.txt"), "i")
	// a plain file squats on the directory name the plan must create
	writeFile(t, backup, "sub", "squatter")

	_, err := newTestService().Backup(context.Background(), api.BackupOptions{
		SourceRoot: source,
		BackupRoot: backup,
	})
	require.Error(t, err)

	// surviving actions still ran, but the sidecar must not describe a
	// half-applied backup
	assert.Equal(t, readFile(t, filepath.Join(backup, "other.txt")), "o")
	assert.Assert(t, !fileExists(filepath.Join(backup, api.MetadataFile)))
}

func TestBackupOfTimePreservingCloneIsNoop(t *testing.T) {
	source := t.TempDir()
	backup := filepath.Join(t.TempDir(), "backup")
	writeFile(t, source, "file1.txt", "a")
	writeFile(t, source, filepath.Join("sub", "inner.txt"), "b")

	service := newTestService()
	_, err := service.Backup(context.Background(), api.BackupOptions{
		SourceRoot: source,
		BackupRoot: backup,
	})
	require.NoError(t, err)

	// a byte- and mtime-identical clone must diff empty against the backup
	clone := filepath.Join(t.TempDir(), "clone")
	require.NoError(t, cp.Copy(source, clone, cp.Options{PreserveTimes: true}))

	plan, err := service.Plan(context.Background(), api.BackupOptions{
		SourceRoot: clone,
		BackupRoot: backup,
	})
	require.NoError(t, err)
	assert.Equal(t, len(plan), 0)
}

func TestBackupPreservesFileMTime(t *testing.T) {
	source := t.TempDir()
	backup := filepath.Join(t.TempDir(), "backup")
	writeFile(t, source, "file1.txt", "a")
	mtime := time.Date(2025, 11, 5, 6, 7, 8, 0, time.UTC)
	require.NoError(t, os.Chtimes(filepath.Join(source, "file1.txt"), mtime, mtime))

	_, err := newTestService().Backup(context.Background(), api.BackupOptions{
		SourceRoot: source,
		BackupRoot: backup,
	})
	require.NoError(t, err)

	info, err := os.Stat(filepath.Join(backup, "file1.txt"))
	require.NoError(t, err)
	assert.Assert(t, info.ModTime().Equal(mtime))
}
