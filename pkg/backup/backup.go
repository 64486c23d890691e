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

// Package backup implements the api.Service: incremental directory backup,
// restore and verification. A backup snapshots the source and destination
// trees, diffs them, translates the diff into an ordered action plan and
// executes it, piping file payloads through the configured codec stages.
package backup

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/jonboulle/clockwork"

	"github.com/docker/backup/v2/pkg/api"
	"github.com/docker/backup/v2/pkg/metadata"
	"github.com/docker/backup/v2/pkg/snapshot"
)

// NewBackupService create a local implementation of the backup api.Service
func NewBackupService(clock clockwork.Clock) api.Service {
	return &backupService{clock: clock}
}

type backupService struct {
	clock clockwork.Clock
}

// scan validates the configured roots and snapshots both trees. The backup
// root is created when absent, except in dry-run mode where a missing
// destination is treated as an empty tree.
func (s *backupService) scan(options api.BackupOptions) (source, dest *snapshot.Tree, err error) {
	info, err := os.Stat(options.SourceRoot)
	if err != nil || !info.IsDir() {
		return nil, nil, fmt.Errorf("%w: %s", api.ErrInvalidSourceRoot, options.SourceRoot)
	}

	info, err = os.Stat(options.BackupRoot)
	switch {
	case err == nil && !info.IsDir():
		return nil, nil, fmt.Errorf("%w: %s", api.ErrInvalidBackupRoot, options.BackupRoot)
	case os.IsNotExist(err):
		if options.DryRun {
			source, err = snapshot.Build(options.SourceRoot)
			if err != nil {
				return nil, nil, err
			}
			return source, emptyTree(options.BackupRoot), nil
		}
		if err := os.MkdirAll(options.BackupRoot, 0o755); err != nil {
			return nil, nil, fmt.Errorf("%w: %s: %s", api.ErrInvalidBackupRoot, options.BackupRoot, err)
		}
	case err != nil:
		return nil, nil, fmt.Errorf("%w: %s: %s", api.ErrInvalidBackupRoot, options.BackupRoot, err)
	}

	source, err = snapshot.Build(options.SourceRoot)
	if err != nil {
		return nil, nil, err
	}
	dest, err = snapshot.Build(options.BackupRoot)
	if err != nil {
		return nil, nil, err
	}
	return source, dest, nil
}

func emptyTree(rootPath string) *snapshot.Tree {
	return &snapshot.Tree{
		RootPath: rootPath,
		Root: &snapshot.Node{
			Name:         filepath.Base(rootPath),
			RelativePath: ".",
			Kind:         snapshot.Directory,
		},
	}
}

func validateOptions(options api.BackupOptions) error {
	switch options.Compression {
	case api.CompressionNone, api.CompressionHuffman, api.CompressionLZ77, "":
	default:
		return fmt.Errorf("%w: unknown compression algorithm %q", api.ErrInvalidConfig, options.Compression)
	}
	switch options.Encryption {
	case api.EncryptionNone, "":
	case api.EncryptionAES:
		if options.Password == "" {
			return api.ErrMissingKey
		}
	default:
		return fmt.Errorf("%w: unknown encryption algorithm %q", api.ErrInvalidConfig, options.Encryption)
	}
	return nil
}

func (s *backupService) Plan(ctx context.Context, options api.BackupOptions) ([]api.Action, error) {
	if err := validateOptions(options); err != nil {
		return nil, err
	}
	options.DryRun = true
	source, dest, err := s.scan(options)
	if err != nil {
		return nil, err
	}
	return buildPlan(snapshot.Diff(dest, source), options), nil
}

func (s *backupService) Backup(ctx context.Context, options api.BackupOptions) ([]api.Action, error) {
	if err := validateOptions(options); err != nil {
		return nil, err
	}
	source, dest, err := s.scan(options)
	if err != nil {
		return nil, err
	}
	plan := buildPlan(snapshot.Diff(dest, source), options)

	exec, err := newExecutor(options)
	if err != nil {
		return nil, err
	}
	if err := exec.run(ctx, plan); err != nil {
		return plan, err
	}
	if options.DryRun {
		return plan, nil
	}

	compression := options.Compression
	if compression == "" {
		compression = api.CompressionNone
	}
	encryption := options.Encryption
	if encryption == "" {
		encryption = api.EncryptionNone
	}
	if err := metadata.Write(options.BackupRoot, source, compression, encryption, s.clock.Now()); err != nil {
		return plan, err
	}
	return plan, nil
}
