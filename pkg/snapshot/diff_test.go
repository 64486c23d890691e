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

package snapshot

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
	"gotest.tools/v3/assert"
)

func buildTree(t *testing.T, dir string) *Tree {
	t.Helper()
	tree, err := Build(dir)
	require.NoError(t, err)
	return tree
}

func changeKeys(changes []Change) []string {
	keys := make([]string, len(changes))
	for i, c := range changes {
		keys[i] = c.Type.String() + " " + c.RelativePath
	}
	return keys
}

func TestDiffIdenticalTreesIsEmpty(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "file1.txt", "a")
	writeFile(t, dir, filepath.Join("sub", "inner.txt"), "b")

	a := buildTree(t, dir)
	b := buildTree(t, dir)
	assert.Equal(t, len(Diff(a, b)), 0)
}

func TestDiffReportsAddedRemovedModified(t *testing.T) {
	oldDir := t.TempDir()
	newDir := t.TempDir()
	writeFile(t, oldDir, "gone.txt", "x")
	writeFile(t, oldDir, "kept.txt", "same")
	writeFile(t, newDir, "kept.txt", "same")
	writeFile(t, newDir, "fresh.txt", "y")
	writeFile(t, newDir, filepath.Join("sub", "inner.txt"), "z")

	// equalize mtimes on the unchanged file so only structure differs
	mtime := time.Date(2026, 1, 3, 8, 21, 34, 0, time.UTC)
	require.NoError(t, os.Chtimes(filepath.Join(oldDir, "kept.txt"), mtime, mtime))
	require.NoError(t, os.Chtimes(filepath.Join(newDir, "kept.txt"), mtime, mtime))

	changes := Diff(buildTree(t, oldDir), buildTree(t, newDir))
	assert.DeepEqual(t, changeKeys(changes), []string{
		"added fresh.txt",
		"removed gone.txt",
		"added sub",
		"added sub/inner.txt",
	})
}

func TestDiffDetectsContentChangeBySizeOrMTime(t *testing.T) {
	oldDir := t.TempDir()
	newDir := t.TempDir()
	writeFile(t, oldDir, "data.txt", "aa")
	writeFile(t, newDir, "data.txt", "aa")

	past := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	later := past.Add(time.Hour)
	require.NoError(t, os.Chtimes(filepath.Join(oldDir, "data.txt"), past, past))
	require.NoError(t, os.Chtimes(filepath.Join(newDir, "data.txt"), later, later))

	changes := Diff(buildTree(t, oldDir), buildTree(t, newDir))
	require.Len(t, changes, 1)
	assert.Equal(t, changes[0].Type, Modified)
	assert.Equal(t, changes[0].RelativePath, "data.txt")
	assert.Assert(t, changes[0].OldNode != nil)
	assert.Assert(t, changes[0].NewNode != nil)
}

func TestDiffTypeFlipEmitsRemovedThenAdded(t *testing.T) {
	oldDir := t.TempDir()
	newDir := t.TempDir()
	writeFile(t, oldDir, filepath.Join("entry", "child.txt"), "x")
	writeFile(t, newDir, "entry", "now a file")

	changes := Diff(buildTree(t, oldDir), buildTree(t, newDir))
	assert.DeepEqual(t, changeKeys(changes), []string{
		"removed entry",
		"added entry",
		"removed entry/child.txt",
	})
}

func TestDiffIgnoresMetadataSidecar(t *testing.T) {
	oldDir := t.TempDir()
	newDir := t.TempDir()
	writeFile(t, oldDir, ".backupmeta", "tool=docker-backup")
	writeFile(t, newDir, "real.txt", "x")

	changes := Diff(buildTree(t, oldDir), buildTree(t, newDir))
	assert.DeepEqual(t, changeKeys(changes), []string{"added real.txt"})
}

func TestDiffIsDeterministic(t *testing.T) {
	oldDir := t.TempDir()
	newDir := t.TempDir()
	for _, name := range []string{"d.txt", "a.txt", "c.txt", "b.txt"} {
		writeFile(t, newDir, name, name)
		writeFile(t, newDir, filepath.Join("nested", name), name)
	}

	old := buildTree(t, oldDir)
	updated := buildTree(t, newDir)
	first := Diff(old, updated)
	for i := 0; i < 10; i++ {
		if diff := cmp.Diff(changeKeys(first), changeKeys(Diff(old, updated))); diff != "" {
			t.Fatalf("diff output is not stable:\n%s", diff)
		}
	}
	// parents sort ahead of their children
	assert.Equal(t, changeKeys(first)[4], "added nested")
	assert.Equal(t, changeKeys(first)[5], "added nested/a.txt")
}
