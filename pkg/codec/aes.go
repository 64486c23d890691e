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
	"crypto/aes"
	"crypto/cipher"
	"crypto/sha256"
	"fmt"
	"io"
	"os"

	"github.com/docker/backup/v2/pkg/api"
)

// cipherBufferSize is the fixed read granularity of the cipher. A multiple
// of the AES block size so full reads never need rebuffering.
const cipherBufferSize = 4096

// aesCipher encrypts files with AES-256 in CBC mode and PKCS#7 padding. Key
// material is derived from the user password: the SHA-256 digest is the key,
// its first 16 bytes the IV. The on-disk form is raw ciphertext; the
// surrounding compression frame carries the size needed to invert it.
type aesCipher struct {
	key string
}

func (c *aesCipher) SetKey(key string) { c.key = key }

func (c *aesCipher) Type() api.Encryption { return api.EncryptionAES }

func (c *aesCipher) Name() string { return "AES" }

func (c *aesCipher) newCBC(encrypt bool) (cipher.BlockMode, error) {
	digest := sha256.Sum256([]byte(c.key))
	block, err := aes.NewCipher(digest[:])
	if err != nil {
		return nil, err
	}
	iv := digest[:aes.BlockSize]
	if encrypt {
		return cipher.NewCBCEncrypter(block, iv), nil
	}
	return cipher.NewCBCDecrypter(block, iv), nil
}

func (c *aesCipher) Encrypt(src, dst string) error {
	if c.key == "" {
		return api.ErrMissingKey
	}
	mode, err := c.newCBC(true)
	if err != nil {
		return fmt.Errorf("%w: %s", api.ErrEncryptionFailed, err)
	}

	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("%w: opening %s: %s", api.ErrEncryptionFailed, src, err)
	}
	defer in.Close()
	out, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("%w: creating %s: %s", api.ErrEncryptionFailed, dst, err)
	}
	defer out.Close()

	buf := make([]byte, cipherBufferSize)
	for {
		n, err := io.ReadFull(in, buf)
		if n == cipherBufferSize {
			mode.CryptBlocks(buf, buf)
			if _, werr := out.Write(buf); werr != nil {
				return fmt.Errorf("%w: writing %s: %s", api.ErrEncryptionFailed, dst, werr)
			}
			continue
		}
		if err != io.EOF && err != io.ErrUnexpectedEOF {
			return fmt.Errorf("%w: reading %s: %s", api.ErrEncryptionFailed, src, err)
		}
		// PKCS#7: always pad, a whole block when input is block-aligned
		final := pkcs7Pad(buf[:n])
		mode.CryptBlocks(final, final)
		if _, werr := out.Write(final); werr != nil {
			return fmt.Errorf("%w: writing %s: %s", api.ErrEncryptionFailed, dst, werr)
		}
		break
	}
	if err := out.Close(); err != nil {
		return fmt.Errorf("%w: closing %s: %s", api.ErrEncryptionFailed, dst, err)
	}
	return nil
}

func (c *aesCipher) Decrypt(src, dst string) error {
	if c.key == "" {
		return api.ErrMissingKey
	}
	mode, err := c.newCBC(false)
	if err != nil {
		return fmt.Errorf("%w: %s", api.ErrDecryptionFailed, err)
	}

	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("%w: opening %s: %s", api.ErrDecryptionFailed, src, err)
	}
	defer in.Close()
	out, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("%w: creating %s: %s", api.ErrDecryptionFailed, dst, err)
	}
	defer out.Close()

	// the final block is withheld until EOF so its padding can be stripped
	var pending []byte
	buf := make([]byte, cipherBufferSize)
	for {
		n, err := io.ReadFull(in, buf)
		if n > 0 {
			if n%aes.BlockSize != 0 {
				return fmt.Errorf("%w: %s: ciphertext is not block-aligned", api.ErrDecryptionFailed, src)
			}
			mode.CryptBlocks(buf[:n], buf[:n])
			pending = append(pending, buf[:n]...)
			if len(pending) > aes.BlockSize {
				flush := pending[:len(pending)-aes.BlockSize]
				if _, werr := out.Write(flush); werr != nil {
					return fmt.Errorf("%w: writing %s: %s", api.ErrDecryptionFailed, dst, werr)
				}
				pending = pending[len(pending)-aes.BlockSize:]
			}
		}
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			break
		}
		if err != nil {
			return fmt.Errorf("%w: reading %s: %s", api.ErrDecryptionFailed, src, err)
		}
	}
	if len(pending) != aes.BlockSize {
		return fmt.Errorf("%w: %s: ciphertext is empty", api.ErrDecryptionFailed, src)
	}
	plain, ok := pkcs7Unpad(pending)
	if !ok {
		return fmt.Errorf("%w: %s: padding check failed", api.ErrDecryptionFailed, src)
	}
	if _, err := out.Write(plain); err != nil {
		return fmt.Errorf("%w: writing %s: %s", api.ErrDecryptionFailed, dst, err)
	}
	if err := out.Close(); err != nil {
		return fmt.Errorf("%w: closing %s: %s", api.ErrDecryptionFailed, dst, err)
	}
	return nil
}

func pkcs7Pad(data []byte) []byte {
	pad := aes.BlockSize - len(data)%aes.BlockSize
	padded := make([]byte, len(data)+pad)
	copy(padded, data)
	for i := len(data); i < len(padded); i++ {
		padded[i] = byte(pad)
	}
	return padded
}

func pkcs7Unpad(block []byte) ([]byte, bool) {
	pad := int(block[len(block)-1])
	if pad == 0 || pad > aes.BlockSize {
		return nil, false
	}
	for _, b := range block[len(block)-pad:] {
		if int(b) != pad {
			return nil, false
		}
	}
	return block[:len(block)-pad], true
}
