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

	"github.com/jonboulle/clockwork"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/docker/backup/v2/pkg/api"
	"github.com/docker/backup/v2/pkg/watch"
)

func watchCommand(clock clockwork.Clock) *cobra.Command {
	opts := backupOptions{}
	cmd := &cobra.Command{
		Use:   "watch [OPTIONS] [SOURCE] [TARGET]",
		Short: "Back up once, then re-run incremental backups as the source changes",
		Args:  cobra.MaximumNArgs(2),
		RunE: Adapt(func(ctx context.Context, args []string) error {
			options, err := opts.resolve(args)
			if err != nil {
				return err
			}
			if options.DryRun {
				return fmt.Errorf("watch cannot run with --dry-run")
			}
			return runWatch(ctx, clock, options)
		}),
	}
	flags := cmd.Flags()
	flags.StringVarP(&opts.file, "file", "f", "", "Backup job file")
	flags.BoolVar(&opts.deleteRemoved, "delete-removed", false, "Mirror mode: remove target entries absent from the source")
	flags.StringVar(&opts.compression, "compression", "", "Compression algorithm (none, huffman, lz77)")
	flags.StringVar(&opts.encryption, "encryption", "", "Encryption algorithm (none, aes)")
	passwordFlag(flags, &opts.password)
	return cmd
}

// runWatch performs an initial backup, then serializes one incremental
// backup per debounced batch of source-tree events.
func runWatch(ctx context.Context, clock clockwork.Clock, options api.BackupOptions) error {
	if err := runBackup(ctx, clock, options); err != nil {
		return err
	}

	watcher, err := watch.NewWatcher([]string{options.SourceRoot}, watch.EngineArtifactsMatcher{})
	if err != nil {
		return err
	}
	if err := watcher.Start(); err != nil {
		return err
	}
	defer func() {
		if err := watcher.Close(); err != nil {
			logrus.Debugf("closing watcher: %s", err)
		}
	}()

	logrus.Infof("watching %s", options.SourceRoot)
	batches := watch.BatchDebounceEvents(ctx, clock, watcher.Events())
	for {
		select {
		case <-ctx.Done():
			return nil
		case err := <-watcher.Errors():
			return fmt.Errorf("watching %s: %w", options.SourceRoot, err)
		case batch, ok := <-batches:
			if !ok {
				return nil
			}
			logrus.Debugf("%d paths changed, backing up", len(batch))
			if err := runBackup(ctx, clock, options); err != nil {
				// a failing incremental run leaves the previous sidecar in
				// place; keep watching
				logrus.Errorf("incremental backup failed: %s", err)
			}
		}
	}
}
