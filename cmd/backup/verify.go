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

func verifyCommand(clock clockwork.Clock) *cobra.Command {
	var password, source string
	cmd := &cobra.Command{
		Use:   "verify [OPTIONS] BACKUP",
		Short: "Check that every backed-up file decodes back to what the sidecar records",
		Args:  cobra.ExactArgs(1),
		RunE: Adapt(func(ctx context.Context, args []string) error {
			options := api.VerifyOptions{
				BackupRoot: args[0],
				SourceRoot: source,
				Password:   password,
			}
			service := backup.NewBackupService(clock)
			var results []api.VerifyResult
			err := ui.Run(ctx, func(ctx context.Context) error {
				var err error
				results, err = service.Verify(ctx, options)
				return err
			}, os.Stdout, "Verifying")
			if err != nil {
				return err
			}

			failed := 0
			for _, r := range results {
				if r.Status != api.VerifyOK {
					failed++
					fmt.Printf("%-10s %s  %s\n", r.Status, r.RelativePath, r.Detail)
				}
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d entries failed verification", failed, len(results))
			}
			fmt.Printf("%d entries verified\n", len(results))
			return nil
		}),
	}
	flags := cmd.Flags()
	flags.StringVar(&source, "source", "", "Compare decoded payloads against this live source tree")
	passwordFlag(flags, &password)
	return cmd
}
