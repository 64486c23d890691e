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
	"fmt"
	"os"

	"github.com/jonboulle/clockwork"
	"github.com/spf13/cobra"

	"github.com/docker/backup/v2/pkg/api"
	"github.com/docker/backup/v2/pkg/backup"
	ui "github.com/docker/backup/v2/pkg/progress"
)

func backupCommand(clock clockwork.Clock) *cobra.Command {
	opts := backupOptions{}
	cmd := &cobra.Command{
		Use:   "backup [OPTIONS] [SOURCE] [TARGET]",
		Short: "Incrementally back up a directory tree",
		Args:  cobra.MaximumNArgs(2),
		RunE: Adapt(func(ctx context.Context, args []string) error {
			options, err := opts.resolve(args)
			if err != nil {
				return err
			}
			return runBackup(ctx, clock, options)
		}),
	}
	flags := cmd.Flags()
	flags.StringVarP(&opts.file, "file", "f", "", "Backup job file")
	flags.BoolVar(&opts.deleteRemoved, "delete-removed", false, "Mirror mode: remove target entries absent from the source")
	flags.BoolVar(&opts.dryRun, "dry-run", false, "Compute the plan without touching the target")
	flags.StringVar(&opts.compression, "compression", "", "Compression algorithm (none, huffman, lz77)")
	flags.StringVar(&opts.encryption, "encryption", "", "Encryption algorithm (none, aes)")
	passwordFlag(flags, &opts.password)
	return cmd
}

func runBackup(ctx context.Context, clock clockwork.Clock, options api.BackupOptions) error {
	service := backup.NewBackupService(clock)
	title := "Backing up"
	if options.DryRun {
		title = "Planning"
	}
	var plan []api.Action
	err := ui.Run(ctx, func(ctx context.Context) error {
		var err error
		plan, err = service.Backup(ctx, options)
		return err
	}, os.Stdout, title)
	if err != nil {
		return err
	}
	if options.DryRun {
		printPlan(plan)
	}
	return nil
}

func printPlan(plan []api.Action) {
	if len(plan) == 0 {
		fmt.Println("Nothing to do")
		return
	}
	for _, action := range plan {
		switch action.Type {
		case api.CreateDirectory:
			fmt.Printf("mkdir    %s\n", action.RelativePath)
		case api.CopyFile:
			fmt.Printf("copy     %s\n", action.RelativePath)
		case api.UpdateFile:
			fmt.Printf("update   %s\n", action.RelativePath)
		case api.RemovePath:
			fmt.Printf("remove   %s\n", action.RelativePath)
		}
	}
}
