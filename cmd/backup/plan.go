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

	"github.com/jonboulle/clockwork"
	"github.com/spf13/cobra"

	"github.com/docker/backup/v2/pkg/backup"
)

func planCommand(clock clockwork.Clock) *cobra.Command {
	opts := backupOptions{}
	cmd := &cobra.Command{
		Use:   "plan [OPTIONS] [SOURCE] [TARGET]",
		Short: "Show the actions a backup would execute, without running them",
		Args:  cobra.MaximumNArgs(2),
		RunE: Adapt(func(ctx context.Context, args []string) error {
			options, err := opts.resolve(args)
			if err != nil {
				return err
			}
			plan, err := backup.NewBackupService(clock).Plan(ctx, options)
			if err != nil {
				return err
			}
			printPlan(plan)
			return nil
		}),
	}
	flags := cmd.Flags()
	flags.StringVarP(&opts.file, "file", "f", "", "Backup job file")
	flags.BoolVar(&opts.deleteRemoved, "delete-removed", false, "Mirror mode: remove target entries absent from the source")
	return cmd
}
