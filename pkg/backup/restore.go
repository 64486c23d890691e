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
	"path/filepath"

	"github.com/hashicorp/go-multierror"
	"github.com/sirupsen/logrus"

	"github.com/docker/backup/v2/internal/paths"
	"github.com/docker/backup/v2/pkg/api"
	"github.com/docker/backup/v2/pkg/codec"
	"github.com/docker/backup/v2/pkg/metadata"
	"github.com/docker/backup/v2/pkg/progress"
)

// Restore reads the sidecar, rebuilds the recorded tree under the restore
// root and inverts the codec pipeline recorded at backup time. Directories
// are created before any file is written so nested copies never race a
// missing parent.
func (s *backupService) Restore(ctx context.Context, options api.RestoreOptions) error {
	info, err := metadata.Read(options.BackupRoot)
	if err != nil {
		return err
	}

	r, err := newRestorer(info, options)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(options.RestoreRoot, 0o755); err != nil {
		return fmt.Errorf("creating restore root %s: %w", options.RestoreRoot, err)
	}

	plan := restorePlan(info, options)
	w := progress.ContextWriter(ctx)
	var result *multierror.Error
	for _, action := range plan {
		w.Event(progress.RestoringEvent(action.RelativePath))
		if err := r.apply(action); err != nil {
			logrus.Errorf("restore failed for %s: %s", action.RelativePath, err)
			w.Event(progress.ErrorMessageEvent(action.RelativePath, err.Error()))
			result = multierror.Append(result, fmt.Errorf("%s: %w", action.RelativePath, err))
			continue
		}
		w.Event(progress.RestoredEvent(action.RelativePath))
	}
	return result.ErrorOrNil()
}

// restorePlan lists every directory entry ahead of every file entry,
// keeping sidecar order within each group. The sidecar itself is excluded.
func restorePlan(info *api.MetadataInfo, options api.RestoreOptions) []api.Action {
	var dirs, files []api.Action
	for _, entry := range info.Files {
		if entry.RelativePath == api.MetadataFile {
			continue
		}
		if entry.IsDirectory {
			dirs = append(dirs, api.Action{
				Type:         api.CreateDirectory,
				TargetPath:   paths.Resolve(options.RestoreRoot, entry.RelativePath),
				RelativePath: entry.RelativePath,
			})
		} else {
			files = append(files, api.Action{
				Type:         api.CopyFile,
				SourcePath:   paths.Resolve(options.BackupRoot, entry.RelativePath),
				TargetPath:   paths.Resolve(options.RestoreRoot, entry.RelativePath),
				RelativePath: entry.RelativePath,
				Size:         entry.Size,
			})
		}
	}
	return append(dirs, files...)
}

// restorer drives the inverse pipeline: decrypt, then decompress. Stages
// disabled in the sidecar are bypassed; unknown sidecar values disable the
// stage rather than failing the whole restore.
type restorer struct {
	compressor codec.Compressor
	cipher     codec.Cipher
}

func newRestorer(info *api.MetadataInfo, options api.RestoreOptions) (*restorer, error) {
	r := &restorer{}
	switch info.Compression {
	case api.CompressionHuffman, api.CompressionLZ77:
		compressor, err := codec.NewCompressor(info.Compression)
		if err != nil {
			return nil, err
		}
		r.compressor = compressor
	}
	if info.Encryption == api.EncryptionAES {
		if options.Password == "" {
			return nil, api.ErrMissingKey
		}
		cipher, err := codec.NewCipher(info.Encryption)
		if err != nil {
			return nil, err
		}
		cipher.SetKey(options.Password)
		r.cipher = cipher
	}
	return r, nil
}

func (r *restorer) apply(action api.Action) error {
	if action.Type == api.CreateDirectory {
		if err := os.MkdirAll(action.TargetPath, 0o755); err != nil {
			return fmt.Errorf("creating directory %s: %w", action.TargetPath, err)
		}
		return nil
	}
	return r.readFile(action.SourcePath, action.TargetPath)
}

// readFile pipes one backed-up file through the inverse stages onto the
// target. The decrypt slot is always populated, by a plain copy when
// encryption is off, so the decompress stage has a uniform input.
func (r *restorer) readFile(src, target string) error {
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return fmt.Errorf("creating parent of %s: %w", target, err)
	}

	tempDecrypted := target + tmpDecrypt
	tempDecompressed := target + tmpDecompress
	defer removeTemp(tempDecrypted)
	defer removeTemp(tempDecompressed)

	if r.cipher != nil {
		if err := r.cipher.Decrypt(src, tempDecrypted); err != nil {
			return err
		}
	} else if err := copyFileContents(src, tempDecrypted); err != nil {
		return err
	}
	current := tempDecrypted

	if r.compressor != nil {
		if err := r.compressor.Decompress(current, tempDecompressed); err != nil {
			return err
		}
		removeTemp(tempDecrypted)
		current = tempDecompressed
	}

	if err := os.Rename(current, target); err != nil {
		return fmt.Errorf("renaming %s into place: %w", target, err)
	}
	preserveAttributes(src, target)
	return nil
}
