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
	"sort"

	"github.com/docker/backup/v2/pkg/api"
)

// ChangeType discriminates diff records.
type ChangeType int

const (
	// Added entries exist only in the new tree.
	Added ChangeType = iota
	// Removed entries exist only in the old tree.
	Removed
	// Modified entries are files present in both trees whose size or mtime
	// differ.
	Modified
)

func (c ChangeType) String() string {
	switch c {
	case Added:
		return "added"
	case Removed:
		return "removed"
	case Modified:
		return "modified"
	}
	return "unknown"
}

// Change is one structural difference between two snapshots. OldNode and
// NewNode borrow from the diffed trees and are valid only for the trees'
// joint lifetime.
type Change struct {
	Type         ChangeType
	RelativePath string
	OldNode      *Node
	NewNode      *Node
}

// Diff computes the ordered change set that turns old into new. The result
// is sorted ascending by relative path (byte-wise) and is deterministic:
// equal inputs produce identical output. The metadata sidecar at the root of
// either tree is never reported.
func Diff(old, new *Tree) []Change {
	oldIndex := old.Flatten()
	newIndex := new.Flatten()
	delete(oldIndex, api.MetadataFile)
	delete(newIndex, api.MetadataFile)

	var changes []Change
	for rel, oldNode := range oldIndex {
		newNode, ok := newIndex[rel]
		if !ok {
			changes = append(changes, Change{Type: Removed, RelativePath: rel, OldNode: oldNode})
			continue
		}
		if oldNode.Kind != newNode.Kind {
			// a type flip is a removal of the old entry followed by an
			// addition of the new one
			changes = append(changes, Change{Type: Removed, RelativePath: rel, OldNode: oldNode})
			changes = append(changes, Change{Type: Added, RelativePath: rel, NewNode: newNode})
			continue
		}
		if oldNode.Kind == File && fileChanged(oldNode, newNode) {
			changes = append(changes, Change{Type: Modified, RelativePath: rel, OldNode: oldNode, NewNode: newNode})
		}
	}
	for rel, newNode := range newIndex {
		if _, ok := oldIndex[rel]; !ok {
			changes = append(changes, Change{Type: Added, RelativePath: rel, NewNode: newNode})
		}
	}

	// stable: a type flip keeps its Removed record ahead of its Added one
	sort.SliceStable(changes, func(i, j int) bool {
		return changes[i].RelativePath < changes[j].RelativePath
	})
	return changes
}

// fileChanged compares the (size, mtime) pair recorded for two files.
// Content is deliberately not read: a false positive only costs an
// idempotent overwrite.
func fileChanged(old, new *Node) bool {
	return old.Size != new.Size || !old.MTime.Equal(new.MTime)
}
