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

// Package watch observes a source tree so incremental backups can be
// re-triggered on change. It deliberately ignores the artifacts the engine
// produces itself: the metadata sidecar and codec temp files.
package watch

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/docker/backup/v2/pkg/api"
)

// FileEvent is a change notification for an absolute path.
type FileEvent struct {
	path string
}

// NewFileEvent creates a FileEvent. Requires an absolute path.
func NewFileEvent(p string) FileEvent {
	if !filepath.IsAbs(p) {
		panic(fmt.Sprintf("NewFileEvent only accepts absolute paths. Actual: %s", p))
	}
	return FileEvent{path: p}
}

func (e FileEvent) Path() string {
	return e.path
}

// Notify watches a set of paths for changes.
type Notify interface {
	// Start watching the paths set at init time
	Start() error

	// Stop watching and close all channels
	Close() error

	// A channel to read off incoming file changes
	Events() chan FileEvent

	// A channel to read off show-stopping errors
	Errors() chan error
}

// PathMatcher selects paths the watcher should not report.
type PathMatcher interface {
	Matches(file string) (bool, error)
}

// EmptyMatcher ignores nothing.
type EmptyMatcher struct{}

func (EmptyMatcher) Matches(f string) (bool, error) { return false, nil }

var _ PathMatcher = EmptyMatcher{}

// EngineArtifactsMatcher ignores the files the backup engine writes while it
// runs: the sidecar and the codec pipeline temp files.
type EngineArtifactsMatcher struct{}

func (EngineArtifactsMatcher) Matches(f string) (bool, error) {
	base := filepath.Base(f)
	if base == api.MetadataFile {
		return true, nil
	}
	return strings.Contains(base, ".tmp_"), nil
}

var _ PathMatcher = EngineArtifactsMatcher{}

// NewWatcher returns the platform notify implementation watching the given
// paths, filtering out events matched by ignore.
func NewWatcher(paths []string, ignore PathMatcher) (Notify, error) {
	return newWatcher(paths, ignore)
}
