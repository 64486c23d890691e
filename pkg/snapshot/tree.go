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
	"fmt"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"

	"github.com/docker/backup/v2/internal/paths"
)

// Tree is a point-in-time snapshot of a filesystem subtree. Built once with
// Build; not mutated afterwards.
type Tree struct {
	// RootPath is the absolute path the snapshot was taken from.
	RootPath string
	// Root is the snapshot root node, a Directory with RelativePath ".".
	Root *Node
}

// Build snapshots the subtree rooted at rootPath. The root must exist and be
// a directory. Subdirectories that cannot be read are skipped with a warning
// so a single unreadable corner does not abort the snapshot.
func Build(rootPath string) (*Tree, error) {
	abs, err := filepath.Abs(rootPath)
	if err != nil {
		return nil, fmt.Errorf("resolving snapshot root %s: %w", rootPath, err)
	}
	info, err := os.Stat(abs)
	if err != nil || !info.IsDir() {
		return nil, fmt.Errorf("snapshot root %s is not a directory", abs)
	}

	root := &Node{
		Name:         filepath.Base(abs),
		RelativePath: paths.Root,
		Kind:         Directory,
	}
	scanDir(abs, root)
	return &Tree{RootPath: abs, Root: root}, nil
}

// scanDir populates parent with the entries of dir, recursing into
// subdirectories. Read failures are logged and the rest of the build
// continues.
func scanDir(dir string, parent *Node) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		logrus.Warnf("skipping unreadable directory %s: %s", dir, err)
		return
	}
	for _, entry := range entries {
		rel := paths.Join(parent.RelativePath, entry.Name())
		switch {
		case entry.IsDir():
			child := &Node{
				Name:         entry.Name(),
				RelativePath: rel,
				Kind:         Directory,
			}
			parent.Children = append(parent.Children, child)
			scanDir(filepath.Join(dir, entry.Name()), child)
		case entry.Type().IsRegular():
			info, err := entry.Info()
			if err != nil {
				logrus.Warnf("skipping unreadable entry %s: %s", rel, err)
				continue
			}
			parent.Children = append(parent.Children, &Node{
				Name:         entry.Name(),
				RelativePath: rel,
				Kind:         File,
				Size:         info.Size(),
				MTime:        info.ModTime(),
			})
		default:
			// symlinks, sockets, devices and other irregular entries are not
			// part of the snapshot contract
			logrus.Debugf("ignoring irregular entry %s", rel)
		}
	}
}

// Walk visits every node of the tree depth-first in directory order,
// starting at the root.
func (t *Tree) Walk(fn func(*Node)) {
	t.Root.Walk(fn)
}

// Flatten maps every relative path of the tree to its node, excluding the
// root entry ".".
func (t *Tree) Flatten() map[string]*Node {
	index := make(map[string]*Node)
	t.Walk(func(n *Node) {
		if n.RelativePath == paths.Root {
			return
		}
		index[n.RelativePath] = n
	})
	return index
}
