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

	"github.com/jonboulle/clockwork"
	"github.com/spf13/cobra"

	"github.com/docker/backup/v2/pkg/api"
	"github.com/docker/backup/v2/pkg/backup"
	ui "github.com/docker/backup/v2/pkg/progress"
)

func restoreCommand(clock clockwork.Clock) *cobra.Command {
	var password string
	cmd := &cobra.Command{
		Use:   "restore [OPTIONS] BACKUP TARGET",
		Short: "Restore a backup tree into a target directory",
		Args:  cobra.ExactArgs(2),
		RunE: Adapt(func(ctx context.Context, args []string) error {
			options := api.RestoreOptions{
				BackupRoot:  args[0],
				RestoreRoot: args[1],
				Password:    password,
			}
			service := backup.NewBackupService(clock)
			return ui.Run(ctx, func(ctx context.Context) error {
				return service.Restore(ctx, options)
			}, os.Stdout, "Restoring")
		}),
	}
	passwordFlag(cmd.Flags(), &password)
	return cmd
}
