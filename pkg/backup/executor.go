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
	"io"
	"os"
	"path/filepath"

	"github.com/docker/go-units"
	"github.com/hashicorp/go-multierror"
	"github.com/sirupsen/logrus"

	"github.com/docker/backup/v2/pkg/api"
	"github.com/docker/backup/v2/pkg/codec"
	"github.com/docker/backup/v2/pkg/progress"
)

// temp file suffixes used by the codec pipeline. Temps always live beside
// their target so the final rename never crosses filesystems.
const (
	tmpCompress   = ".tmp_compress"
	tmpEncrypt    = ".tmp_encrypt"
	tmpDecrypt    = ".tmp_decrypt"
	tmpDecompress = ".tmp_decompress"
)

// executor applies a plan to the destination tree. Stages are composed per
// file in a fixed order on write: compress, then encrypt. A nil stage is
// bypassed.
type executor struct {
	options    api.BackupOptions
	compressor codec.Compressor
	cipher     codec.Cipher
}

func newExecutor(options api.BackupOptions) (*executor, error) {
	e := &executor{options: options}
	if options.Compression != "" && options.Compression != api.CompressionNone {
		compressor, err := codec.NewCompressor(options.Compression)
		if err != nil {
			return nil, err
		}
		e.compressor = compressor
	}
	if options.Encryption != "" && options.Encryption != api.EncryptionNone {
		if options.Password == "" {
			return nil, api.ErrMissingKey
		}
		cipher, err := codec.NewCipher(options.Encryption)
		if err != nil {
			return nil, err
		}
		cipher.SetKey(options.Password)
		e.cipher = cipher
	}
	return e, nil
}

// run executes the plan in order. A failing action is logged and does not
// stop the batch; the aggregate error reports every failure so the caller
// can tell complete success from partial failure.
func (e *executor) run(ctx context.Context, plan []api.Action) error {
	w := progress.ContextWriter(ctx)
	var result *multierror.Error
	for _, action := range plan {
		w.Event(workingEvent(action))
		if e.options.DryRun {
			w.Event(doneEvent(action))
			continue
		}
		if err := e.apply(action); err != nil {
			logrus.Errorf("backup action failed for %s: %s", action.TargetPath, err)
			w.Event(progress.ErrorMessageEvent(action.RelativePath, err.Error()))
			result = multierror.Append(result, fmt.Errorf("%s: %w", action.RelativePath, err))
			continue
		}
		w.Event(doneEvent(action))
	}
	return result.ErrorOrNil()
}

func workingEvent(action api.Action) progress.Event {
	var ev progress.Event
	switch action.Type {
	case api.CreateDirectory:
		ev = progress.CreatingEvent(action.RelativePath)
	case api.UpdateFile:
		ev = progress.UpdatingEvent(action.RelativePath)
	case api.RemovePath:
		ev = progress.RemovingEvent(action.RelativePath)
	default:
		ev = progress.CopyingEvent(action.RelativePath)
	}
	if action.Size > 0 {
		ev.Text = units.HumanSize(float64(action.Size))
	}
	return ev
}

func doneEvent(action api.Action) progress.Event {
	var ev progress.Event
	switch action.Type {
	case api.CreateDirectory:
		ev = progress.CreatedEvent(action.RelativePath)
	case api.UpdateFile:
		ev = progress.UpdatedEvent(action.RelativePath)
	case api.RemovePath:
		ev = progress.RemovedEvent(action.RelativePath)
	default:
		ev = progress.CopiedEvent(action.RelativePath)
	}
	if action.Size > 0 {
		ev.Text = units.HumanSize(float64(action.Size))
	}
	return ev
}

func (e *executor) apply(action api.Action) error {
	switch action.Type {
	case api.CreateDirectory:
		if err := os.MkdirAll(action.TargetPath, 0o755); err != nil {
			return fmt.Errorf("creating directory %s: %w", action.TargetPath, err)
		}
		return nil
	case api.CopyFile, api.UpdateFile:
		return e.writeFile(action.SourcePath, action.TargetPath)
	case api.RemovePath:
		if err := os.RemoveAll(action.TargetPath); err != nil {
			return fmt.Errorf("removing %s: %w", action.TargetPath, err)
		}
		return nil
	default:
		return fmt.Errorf("%w: unknown action type %q", api.ErrInvalidConfig, action.Type)
	}
}

// writeFile pipes one source file through the configured stages onto the
// target. The last stage output is renamed into place so a partial write
// never overwrites the target.
func (e *executor) writeFile(src, target string) error {
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return fmt.Errorf("creating parent of %s: %w", target, err)
	}

	tempCompressed := target + tmpCompress
	tempEncrypted := target + tmpEncrypt
	defer removeTemp(tempCompressed)
	defer removeTemp(tempEncrypted)

	current := src
	if e.compressor != nil {
		if err := e.compressor.Compress(current, tempCompressed); err != nil {
			return err
		}
		current = tempCompressed
	}
	if e.cipher != nil {
		if err := e.cipher.Encrypt(current, tempEncrypted); err != nil {
			return err
		}
		current = tempEncrypted
	}

	if current == src {
		if err := copyFileContents(src, target); err != nil {
			return err
		}
	} else if err := os.Rename(current, target); err != nil {
		return fmt.Errorf("renaming %s into place: %w", target, err)
	}

	preserveAttributes(src, target)
	return nil
}

// preserveAttributes copies permissions and mtime from src onto target.
// Best-effort: failures are logged, never fatal.
func preserveAttributes(src, target string) {
	info, err := os.Stat(src)
	if err != nil {
		logrus.Warnf("cannot stat %s to preserve attributes: %s", src, err)
		return
	}
	if err := os.Chmod(target, info.Mode().Perm()); err != nil {
		logrus.Warnf("cannot preserve permissions on %s: %s", target, err)
	}
	if err := os.Chtimes(target, info.ModTime(), info.ModTime()); err != nil {
		logrus.Warnf("cannot preserve mtime on %s: %s", target, err)
	}
}

func removeTemp(path string) {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		logrus.Warnf("cannot remove temporary file %s: %s", path, err)
	}
}

func copyFileContents(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("opening %s: %w", src, err)
	}
	defer in.Close()
	out, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("creating %s: %w", dst, err)
	}
	defer out.Close()
	if _, err := io.Copy(out, in); err != nil {
		return fmt.Errorf("copying %s to %s: %w", src, dst, err)
	}
	return out.Close()
}
