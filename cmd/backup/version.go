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
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/docker/backup/v2/internal"
)

func versionCommand() *cobra.Command {
	var short bool
	cmd := &cobra.Command{
		Use:   "version [OPTIONS]",
		Short: "Show the docker-backup version information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if short {
				fmt.Println(strings.TrimPrefix(internal.Version, "v"))
				return nil
			}
			fmt.Println("docker-backup version", internal.Version)
			return nil
		},
	}
	cmd.Flags().BoolVar(&short, "short", false, "Shows only the version number.")
	return cmd
}
