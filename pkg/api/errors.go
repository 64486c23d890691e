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

package api

import "errors"

var (
	// ErrInvalidSourceRoot is returned when the source root is missing or not a directory
	ErrInvalidSourceRoot = errors.New("invalid source root")
	// ErrInvalidBackupRoot is returned when the backup root exists but is not a directory
	ErrInvalidBackupRoot = errors.New("invalid backup root")
	// ErrMissingMetadata is returned when a restore finds no readable sidecar
	ErrMissingMetadata = errors.New("missing backup metadata")
	// ErrMissingKey is returned when encryption is enabled without a password
	ErrMissingKey = errors.New("missing encryption key")
	// ErrCompressionFailed is returned when a compression stage fails
	ErrCompressionFailed = errors.New("compression failed")
	// ErrDecompressionFailed is returned when a codec frame is malformed or decoding overran
	ErrDecompressionFailed = errors.New("decompression failed")
	// ErrEncryptionFailed is returned when the cipher rejects its input
	ErrEncryptionFailed = errors.New("encryption failed")
	// ErrDecryptionFailed is returned when ciphertext is truncated, tampered or keyed wrong
	ErrDecryptionFailed = errors.New("decryption failed")
	// ErrInvalidConfig is returned when an unknown algorithm is supplied
	ErrInvalidConfig = errors.New("invalid configuration")
	// ErrCanceled is returned when the operation was canceled by the user
	ErrCanceled = errors.New("canceled")
)

// IsInvalidSourceRootError returns true if the unwrapped error is ErrInvalidSourceRoot
func IsInvalidSourceRootError(err error) bool {
	return errors.Is(err, ErrInvalidSourceRoot)
}

// IsInvalidBackupRootError returns true if the unwrapped error is ErrInvalidBackupRoot
func IsInvalidBackupRootError(err error) bool {
	return errors.Is(err, ErrInvalidBackupRoot)
}

// IsMissingMetadataError returns true if the unwrapped error is ErrMissingMetadata
func IsMissingMetadataError(err error) bool {
	return errors.Is(err, ErrMissingMetadata)
}

// IsMissingKeyError returns true if the unwrapped error is ErrMissingKey
func IsMissingKeyError(err error) bool {
	return errors.Is(err, ErrMissingKey)
}

// IsDecryptionFailedError returns true if the unwrapped error is ErrDecryptionFailed
func IsDecryptionFailedError(err error) bool {
	return errors.Is(err, ErrDecryptionFailed)
}

// IsInvalidConfigError returns true if the unwrapped error is ErrInvalidConfig
func IsInvalidConfigError(err error) bool {
	return errors.Is(err, ErrInvalidConfig)
}

// IsErrCanceled returns true if the unwrapped error is ErrCanceled
func IsErrCanceled(err error) bool {
	return errors.Is(err, ErrCanceled)
}
