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

// Package codec implements the payload transformations applied to backed-up
// files: two whole-file compressors with framed on-disk formats and a
// password-derived symmetric cipher. Compressed blobs are prefixed with the
// original payload size as a little-endian u64 so decompression knows when
// to stop.
package codec

import (
	"encoding/binary"
	"fmt"
	"os"

	"github.com/docker/backup/v2/pkg/api"
)

// Compressor transforms whole files between their plain and compressed
// framed forms.
type Compressor interface {
	Compress(src, dst string) error
	Decompress(src, dst string) error
	Name() string
}

// Cipher transforms whole files between their plain and encrypted forms
// using a key derived from a user password.
type Cipher interface {
	SetKey(key string)
	Encrypt(src, dst string) error
	Decrypt(src, dst string) error
	Type() api.Encryption
	Name() string
}

// NewCompressor returns the compressor implementing the given algorithm.
// api.CompressionNone has no compressor: callers bypass the stage instead.
func NewCompressor(algo api.Compression) (Compressor, error) {
	switch algo {
	case api.CompressionHuffman:
		return &huffman{}, nil
	case api.CompressionLZ77:
		return &lz77{}, nil
	default:
		return nil, fmt.Errorf("%w: unknown compression algorithm %q", api.ErrInvalidConfig, algo)
	}
}

// NewCipher returns the cipher implementing the given algorithm.
// api.EncryptionNone has no cipher: callers bypass the stage instead.
func NewCipher(algo api.Encryption) (Cipher, error) {
	switch algo {
	case api.EncryptionAES:
		return &aesCipher{}, nil
	default:
		return nil, fmt.Errorf("%w: unknown encryption algorithm %q", api.ErrInvalidConfig, algo)
	}
}

// blockCodec is the in-memory contract shared by the compressors. The framed
// bytes exclude the original-size prefix, which compressFile/decompressFile
// own.
type blockCodec interface {
	compress(data []byte) []byte
	decompress(frame []byte, originalSize uint64) ([]byte, error)
}

func compressFile(c blockCodec, src, dst string) error {
	data, err := os.ReadFile(src)
	if err != nil {
		return fmt.Errorf("%w: reading %s: %s", api.ErrCompressionFailed, src, err)
	}
	frame := c.compress(data)
	out := make([]byte, 8, 8+len(frame))
	binary.LittleEndian.PutUint64(out, uint64(len(data)))
	out = append(out, frame...)
	if err := os.WriteFile(dst, out, 0o644); err != nil {
		return fmt.Errorf("%w: writing %s: %s", api.ErrCompressionFailed, dst, err)
	}
	return nil
}

func decompressFile(c blockCodec, src, dst string) error {
	data, err := os.ReadFile(src)
	if err != nil {
		return fmt.Errorf("%w: reading %s: %s", api.ErrDecompressionFailed, src, err)
	}
	if len(data) < 8 {
		return fmt.Errorf("%w: %s: truncated size prefix", api.ErrDecompressionFailed, src)
	}
	originalSize := binary.LittleEndian.Uint64(data)
	out, err := c.decompress(data[8:], originalSize)
	if err != nil {
		return fmt.Errorf("%w: %s: %s", api.ErrDecompressionFailed, src, err)
	}
	if uint64(len(out)) != originalSize {
		return fmt.Errorf("%w: %s: decoded %d bytes, expected %d", api.ErrDecompressionFailed, src, len(out), originalSize)
	}
	if err := os.WriteFile(dst, out, 0o644); err != nil {
		return fmt.Errorf("%w: writing %s: %s", api.ErrDecompressionFailed, dst, err)
	}
	return nil
}
