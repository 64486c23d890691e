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
	"os"

	"gopkg.in/yaml.v3"

	"github.com/docker/backup/v2/pkg/api"
)

// backupOptions collects the knobs shared by backup, plan and watch. Values
// can come from a declarative job file, with command-line flags taking
// precedence.
type backupOptions struct {
	file          string
	source        string
	target        string
	deleteRemoved bool
	dryRun        bool
	compression   string
	encryption    string
	password      string
}

// jobFile is the declarative form of a backup job:
//
//	source: /srv/data
//	target: /mnt/backup
//	mirror: true
//	compression: huffman
//	encryption: aes
type jobFile struct {
	Source      string `yaml:"source"`
	Target      string `yaml:"target"`
	Mirror      bool   `yaml:"mirror"`
	Compression string `yaml:"compression"`
	Encryption  string `yaml:"encryption"`
}

// resolve merges positional arguments, the job file and flag defaults into
// api.BackupOptions. Positional arguments win over the job file.
func (o *backupOptions) resolve(args []string) (api.BackupOptions, error) {
	if o.file != "" {
		data, err := os.ReadFile(o.file)
		if err != nil {
			return api.BackupOptions{}, fmt.Errorf("reading job file %s: %w", o.file, err)
		}
		var job jobFile
		if err := yaml.Unmarshal(data, &job); err != nil {
			return api.BackupOptions{}, fmt.Errorf("parsing job file %s: %w", o.file, err)
		}
		if o.source == "" {
			o.source = job.Source
		}
		if o.target == "" {
			o.target = job.Target
		}
		if !o.deleteRemoved {
			o.deleteRemoved = job.Mirror
		}
		if o.compression == "" {
			o.compression = job.Compression
		}
		if o.encryption == "" {
			o.encryption = job.Encryption
		}
	}
	if len(args) > 0 {
		o.source = args[0]
	}
	if len(args) > 1 {
		o.target = args[1]
	}
	if o.source == "" || o.target == "" {
		return api.BackupOptions{}, fmt.Errorf("a source and a target directory are required")
	}

	options := api.BackupOptions{
		SourceRoot:    o.source,
		BackupRoot:    o.target,
		DeleteRemoved: o.deleteRemoved,
		DryRun:        o.dryRun,
		Compression:   api.CompressionNone,
		Encryption:    api.EncryptionNone,
		Password:      o.password,
	}
	if o.compression != "" {
		options.Compression = api.Compression(o.compression)
	}
	if o.encryption != "" {
		options.Encryption = api.Encryption(o.encryption)
	}
	return options, nil
}
