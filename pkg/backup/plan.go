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
	"github.com/docker/backup/v2/internal/paths"
	"github.com/docker/backup/v2/pkg/api"
	"github.com/docker/backup/v2/pkg/snapshot"
)

// buildPlan translates an ordered change set into filesystem actions. It
// preserves the diff order: the diff sorts parents ahead of their children,
// so directory creations precede the copies into them without a separate
// sort pass.
func buildPlan(changes []snapshot.Change, options api.BackupOptions) []api.Action {
	var actions []api.Action
	for _, change := range changes {
		rel := change.RelativePath
		switch change.Type {
		case snapshot.Added:
			if change.NewNode != nil && change.NewNode.IsDirectory() {
				actions = append(actions, api.Action{
					Type:         api.CreateDirectory,
					TargetPath:   paths.Resolve(options.BackupRoot, rel),
					RelativePath: rel,
				})
			} else {
				actions = append(actions, api.Action{
					Type:         api.CopyFile,
					SourcePath:   paths.Resolve(options.SourceRoot, rel),
					TargetPath:   paths.Resolve(options.BackupRoot, rel),
					RelativePath: rel,
					Size:         nodeSize(change.NewNode),
				})
			}
		case snapshot.Modified:
			actions = append(actions, api.Action{
				Type:         api.UpdateFile,
				SourcePath:   paths.Resolve(options.SourceRoot, rel),
				TargetPath:   paths.Resolve(options.BackupRoot, rel),
				RelativePath: rel,
				Size:         nodeSize(change.NewNode),
			})
		case snapshot.Removed:
			if options.DeleteRemoved {
				actions = append(actions, api.Action{
					Type:         api.RemovePath,
					TargetPath:   paths.Resolve(options.BackupRoot, rel),
					RelativePath: rel,
				})
			}
		}
	}
	return actions
}

func nodeSize(n *snapshot.Node) int64 {
	if n == nil {
		return 0
	}
	return n.Size
}
