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
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"gotest.tools/v3/assert"

	"github.com/docker/backup/v2/pkg/api"
)

func TestResolveFromArgs(t *testing.T) {
	opts := backupOptions{compression: "huffman"}
	options, err := opts.resolve([]string{"/srv/data", "/mnt/backup"})
	require.NoError(t, err)
	assert.Equal(t, options.SourceRoot, "/srv/data")
	assert.Equal(t, options.BackupRoot, "/mnt/backup")
	assert.Equal(t, options.Compression, api.CompressionHuffman)
	assert.Equal(t, options.Encryption, api.EncryptionNone)
}

func TestResolveRequiresRoots(t *testing.T) {
	opts := backupOptions{}
	_, err := opts.resolve(nil)
	require.Error(t, err)
}

func TestResolveFromJobFile(t *testing.T) {
	dir := t.TempDir()
	job := filepath.Join(dir, "backup.yaml")
	require.NoError(t, os.WriteFile(job, []byte(
		"source: /srv/data\ntarget: /mnt/backup\nmirror: true\ncompression: lz77\nencryption: aes\n"), 0o644))

	opts := backupOptions{file: job, password: "pw"}
	options, err := opts.resolve(nil)
	require.NoError(t, err)
	assert.Equal(t, options.SourceRoot, "/srv/data")
	assert.Equal(t, options.BackupRoot, "/mnt/backup")
	assert.Assert(t, options.DeleteRemoved)
	assert.Equal(t, options.Compression, api.CompressionLZ77)
	assert.Equal(t, options.Encryption, api.EncryptionAES)
	assert.Equal(t, options.Password, "pw")
}

func TestArgsOverrideJobFile(t *testing.T) {
	dir := t.TempDir()
	job := filepath.Join(dir, "backup.yaml")
	require.NoError(t, os.WriteFile(job, []byte("source: /ignored\ntarget: /also/ignored\n"), 0o644))

	opts := backupOptions{file: job}
	options, err := opts.resolve([]string{"/real/source", "/real/target"})
	require.NoError(t, err)
	assert.Equal(t, options.SourceRoot, "/real/source")
	assert.Equal(t, options.BackupRoot, "/real/target")
}
