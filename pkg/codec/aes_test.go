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

package codec

import (
	"bytes"
	"crypto/aes"
	"os"
	"path/filepath"
	"testing"

	"github.com/docker/backup/v2/pkg/api"
	"github.com/stretchr/testify/require"
	"gotest.tools/v3/assert"
)

func encryptToFile(t *testing.T, key string, payload []byte) (dir, encrypted string) {
	t.Helper()
	dir = t.TempDir()
	src := filepath.Join(dir, "plain")
	encrypted = filepath.Join(dir, "enc")
	require.NoError(t, os.WriteFile(src, payload, 0o644))
	c := &aesCipher{}
	c.SetKey(key)
	require.NoError(t, c.Encrypt(src, encrypted))
	return dir, encrypted
}

func TestAESRoundTrip(t *testing.T) {
	payloads := map[string][]byte{
		"empty":         {},
		"short":         []byte("top secret"),
		"one block":     bytes.Repeat([]byte("B"), aes.BlockSize),
		"buffer sized":  bytes.Repeat([]byte("C"), cipherBufferSize),
		"buffer plus 1": bytes.Repeat([]byte("D"), cipherBufferSize+1),
		"large":         bytes.Repeat([]byte("0123456789"), 2000),
	}
	for name, payload := range payloads {
		t.Run(name, func(t *testing.T) {
			dir, encrypted := encryptToFile(t, "pw", payload)

			enc, err := os.ReadFile(encrypted)
			require.NoError(t, err)
			assert.Equal(t, len(enc)%aes.BlockSize, 0)
			assert.Equal(t, len(enc), (len(payload)/aes.BlockSize+1)*aes.BlockSize)
			if len(payload) > 0 {
				assert.Assert(t, !bytes.Contains(enc, payload[:min(len(payload), aes.BlockSize)]))
			}

			restored := filepath.Join(dir, "restored")
			c := &aesCipher{}
			c.SetKey("pw")
			require.NoError(t, c.Decrypt(encrypted, restored))
			out, err := os.ReadFile(restored)
			require.NoError(t, err)
			assert.DeepEqual(t, out, payload)
		})
	}
}

func TestAESRequiresKey(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "plain")
	require.NoError(t, os.WriteFile(src, []byte("x"), 0o644))

	c := &aesCipher{}
	err := c.Encrypt(src, filepath.Join(dir, "enc"))
	assert.Assert(t, api.IsMissingKeyError(err))
	err = c.Decrypt(src, filepath.Join(dir, "dec"))
	assert.Assert(t, api.IsMissingKeyError(err))
}

func TestAESWrongPasswordFailsOrDiffers(t *testing.T) {
	payload := []byte("the backup payload")
	dir, encrypted := encryptToFile(t, "pw", payload)

	c := &aesCipher{}
	c.SetKey("bad")
	restored := filepath.Join(dir, "restored")
	err := c.Decrypt(encrypted, restored)
	if err != nil {
		assert.Assert(t, api.IsDecryptionFailedError(err))
		return
	}
	out, rerr := os.ReadFile(restored)
	require.NoError(t, rerr)
	assert.Assert(t, !bytes.Equal(out, payload))
}

func TestAESTamperedCiphertextFails(t *testing.T) {
	dir, encrypted := encryptToFile(t, "pw", []byte("integrity matters"))

	enc, err := os.ReadFile(encrypted)
	require.NoError(t, err)
	enc[len(enc)-1] ^= 0xFF
	require.NoError(t, os.WriteFile(encrypted, enc, 0o644))

	c := &aesCipher{}
	c.SetKey("pw")
	err = c.Decrypt(encrypted, filepath.Join(dir, "restored"))
	if err != nil {
		assert.Assert(t, api.IsDecryptionFailedError(err))
	}
}

func TestAESTruncatedCiphertextFails(t *testing.T) {
	dir, encrypted := encryptToFile(t, "pw", []byte("some payload to damage"))

	enc, err := os.ReadFile(encrypted)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(encrypted, enc[:len(enc)-5], 0o644))

	c := &aesCipher{}
	c.SetKey("pw")
	err = c.Decrypt(encrypted, filepath.Join(dir, "restored"))
	assert.Assert(t, api.IsDecryptionFailedError(err))
}

func TestAESEmptyCiphertextFails(t *testing.T) {
	dir := t.TempDir()
	empty := filepath.Join(dir, "empty")
	require.NoError(t, os.WriteFile(empty, nil, 0o644))

	c := &aesCipher{}
	c.SetKey("pw")
	err := c.Decrypt(empty, filepath.Join(dir, "restored"))
	assert.Assert(t, api.IsDecryptionFailedError(err))
}
