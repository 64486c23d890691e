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

// Package backup implements the docker-backup CLI: a thin cobra front-end
// over the backup engine's api.Service.
package backup

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/jonboulle/clockwork"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/docker/backup/v2/pkg/api"
	ui "github.com/docker/backup/v2/pkg/progress"
)

const (
	// BackupPassword supplies the encryption password when --password isn't used
	BackupPassword = "BACKUP_PASSWORD"
	// BackupProgress defines type of progress output, if --progress isn't used
	BackupProgress = "BACKUP_PROGRESS"
)

var printerModes = []string{
	ui.ModeAuto,
	ui.ModeTTY,
	ui.ModePlain,
	ui.ModeQuiet,
}

// Command defines a backup CLI command as a func with args
type Command func(context.Context, []string) error

// Adapt a Command func to cobra library, with signal-aware cancellation
func Adapt(fn Command) func(cmd *cobra.Command, args []string) error {
	return func(cmd *cobra.Command, args []string) error {
		ctx, cancel := context.WithCancel(cmd.Context())

		s := make(chan os.Signal, 1)
		signal.Notify(s, syscall.SIGTERM, syscall.SIGINT)
		go func() {
			<-s
			cancel()
			signal.Stop(s)
			close(s)
		}()

		err := fn(ctx, args)
		if api.IsErrCanceled(err) || errors.Is(ctx.Err(), context.Canceled) {
			err = fmt.Errorf("operation canceled")
		}
		return err
	}
}

type rootOptions struct {
	verbose  bool
	progress string
}

// RootCommand returns the docker-backup root command with all subcommands
// registered.
func RootCommand(clock clockwork.Clock) *cobra.Command {
	opts := rootOptions{}
	c := &cobra.Command{
		Use:              "docker-backup COMMAND [OPTIONS]",
		Short:            "Incremental directory backup, restore and verification",
		SilenceErrors:    true,
		SilenceUsage:     true,
		TraverseChildren: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				return cmd.Help()
			}
			return fmt.Errorf("unknown command %q", args[0])
		},
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if opts.verbose {
				logrus.SetLevel(logrus.TraceLevel)
			}
			switch opts.progress {
			case ui.ModeAuto, ui.ModeTTY, ui.ModePlain, ui.ModeQuiet:
				ui.Mode = opts.progress
			case "":
				ui.Mode = ui.ModeAuto
			default:
				return fmt.Errorf("unsupported --progress value %q", opts.progress)
			}
			return nil
		},
	}

	c.AddCommand(
		backupCommand(clock),
		planCommand(clock),
		restoreCommand(clock),
		verifyCommand(clock),
		watchCommand(clock),
		versionCommand(),
	)

	flags := c.PersistentFlags()
	flags.BoolVar(&opts.verbose, "verbose", false, "Show more output")
	flags.StringVar(&opts.progress, "progress", os.Getenv(BackupProgress),
		fmt.Sprintf("Set type of progress output (%s)", strings.Join(printerModes, ", ")))
	return c
}

// passwordFlag resolves the password from the flag, falling back to the
// BACKUP_PASSWORD environment variable so credentials stay out of shell
// history.
func passwordFlag(flags *pflag.FlagSet, password *string) {
	flags.StringVar(password, "password", os.Getenv(BackupPassword), "Encryption password (default: $"+BackupPassword+")")
}
