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

//go:build !darwin

package watch

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/sirupsen/logrus"
	"github.com/tilt-dev/fsnotify"

	"github.com/docker/backup/v2/internal/paths"
)

// A naive file watcher that uses the plain fsnotify API. Used on all
// non-Darwin systems (including Windows & Linux).
//
// All OS-specific codepaths are handled by fsnotify.
type naiveNotify struct {
	watcher       *fsnotify.Watcher
	events        chan fsnotify.Event
	wrappedEvents chan FileEvent
	errors        chan error
	ignore        PathMatcher

	mu sync.Mutex
	// Paths that we're watching that should be passed up to the caller.
	// Note that we may have to watch ancestors of these paths in order to
	// fulfill the API promise.
	notifyList map[string]bool
}

func (d *naiveNotify) Start() error {
	d.mu.Lock()
	roots := make([]string, 0, len(d.notifyList))
	for root := range d.notifyList {
		roots = append(roots, root)
	}
	d.mu.Unlock()

	for _, root := range roots {
		if err := d.add(root); err != nil {
			return err
		}
	}
	go d.loop()
	return nil
}

func (d *naiveNotify) Close() error {
	return d.watcher.Close()
}

func (d *naiveNotify) Events() chan FileEvent {
	return d.wrappedEvents
}

func (d *naiveNotify) Errors() chan error {
	return d.errors
}

func (d *naiveNotify) loop() {
	defer close(d.wrappedEvents)
	for e := range d.events {
		if e.Op&fsnotify.Create != fsnotify.Create {
			if d.shouldNotify(e.Name) {
				d.wrappedEvents <- NewFileEvent(e.Name)
			}
			continue
		}
		// a created directory may already contain entries we never got
		// events for, and needs watches of its own
		err := filepath.Walk(e.Name, func(path string, info os.FileInfo, err error) error {
			if err != nil {
				return err
			}
			if d.shouldNotify(path) {
				d.wrappedEvents <- NewFileEvent(path)
			}
			if info.IsDir() {
				if err := d.watcher.Add(path); err != nil && !os.IsNotExist(err) {
					logrus.Debugf("cannot watch %s: %s", path, err)
				}
			}
			return nil
		})
		if err != nil && !os.IsNotExist(err) {
			logrus.Debugf("cannot walk created path %s: %s", e.Name, err)
		}
	}
}

func (d *naiveNotify) shouldNotify(path string) bool {
	if ignore, err := d.ignore.Matches(path); err == nil && ignore {
		return false
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.notifyList[path] {
		return true
	}
	for root := range d.notifyList {
		if paths.IsChild(root, path) {
			return true
		}
	}
	return false
}

// add registers watches for dir and every directory below it.
func (d *naiveNotify) add(dir string) error {
	return filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			if os.IsNotExist(err) {
				return nil
			}
			return err
		}
		if !info.IsDir() {
			return nil
		}
		if err := d.watcher.Add(path); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("watching %s: %w", path, err)
		}
		return nil
	})
}

func newWatcher(watchPaths []string, ignore PathMatcher) (Notify, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	notifyList := make(map[string]bool, len(watchPaths))
	for _, p := range watchPaths {
		abs, err := filepath.Abs(p)
		if err != nil {
			return nil, fmt.Errorf("newWatcher: %w", err)
		}
		notifyList[abs] = true
	}

	d := &naiveNotify{
		watcher:       fsw,
		events:        fsw.Events,
		wrappedEvents: make(chan FileEvent),
		errors:        fsw.Errors,
		ignore:        ignore,
		notifyList:    notifyList,
	}
	return d, nil
}

var _ Notify = &naiveNotify{}
