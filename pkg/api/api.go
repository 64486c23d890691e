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

import (
	"context"
	"time"
)

// Service manages backup trees: it plans and applies incremental backups,
// restores them, and verifies what was written.
type Service interface {
	// Backup snapshots the source tree, diffs it against the backup tree and
	// applies the resulting plan. It returns the executed plan.
	Backup(ctx context.Context, options BackupOptions) ([]Action, error)
	// Plan computes the action list a Backup call would execute, without
	// touching the filesystem.
	Plan(ctx context.Context, options BackupOptions) ([]Action, error)
	// Restore reads the backup sidecar and materializes its file list under
	// the restore root, inverting the codec pipeline recorded at backup time.
	Restore(ctx context.Context, options RestoreOptions) error
	// Verify decodes every sidecar entry and checks it against the recorded
	// metadata, optionally comparing content digests with a live source tree.
	Verify(ctx context.Context, options VerifyOptions) ([]VerifyResult, error)
}

// BackupOptions group the user-facing knobs of a backup run.
type BackupOptions struct {
	// SourceRoot is the directory tree to back up. Must exist.
	SourceRoot string
	// BackupRoot is the destination tree. Created when absent.
	BackupRoot string
	// DeleteRemoved mirrors deletions: destination entries absent from the
	// source are removed. When false the destination is merge-only.
	DeleteRemoved bool
	// DryRun computes and reports the plan without mutating anything.
	DryRun bool
	// Compression selects the payload compression stage.
	Compression Compression
	// Encryption selects the payload encryption stage.
	Encryption Encryption
	// Password derives the encryption key. Required when Encryption is set.
	Password string
}

// RestoreOptions group the user-facing knobs of a restore run.
type RestoreOptions struct {
	BackupRoot  string
	RestoreRoot string
	// Password must match the one used at backup time for encrypted backups.
	Password string
}

// VerifyOptions group the user-facing knobs of a verify run.
type VerifyOptions struct {
	BackupRoot string
	// SourceRoot enables digest comparison against a live tree when set.
	SourceRoot string
	Password   string
}

// Compression identifies a payload compression algorithm.
type Compression string

const (
	CompressionNone    Compression = "none"
	CompressionHuffman Compression = "huffman"
	CompressionLZ77    Compression = "lz77"
)

// Encryption identifies a payload encryption algorithm.
type Encryption string

const (
	EncryptionNone Encryption = "none"
	EncryptionAES  Encryption = "aes"
)

// ActionType enumerates the filesystem mutations a plan is made of.
type ActionType string

const (
	CreateDirectory ActionType = "create-directory"
	CopyFile        ActionType = "copy-file"
	UpdateFile      ActionType = "update-file"
	RemovePath      ActionType = "remove-path"
)

// Action is a single planned filesystem mutation. SourcePath is empty for
// CreateDirectory and RemovePath.
type Action struct {
	Type       ActionType
	SourcePath string
	TargetPath string
	// RelativePath is the path both sides share, relative to their roots.
	RelativePath string
	// Size is the source byte count for file actions, used for reporting.
	Size int64
}

// MetadataFile is the sidecar written at the backup root.
const MetadataFile = ".backupmeta"

// MetadataInfo is the parsed backup sidecar.
type MetadataInfo struct {
	Tool        string
	Created     time.Time
	SourceRoot  string
	Compression Compression
	Encryption  Encryption
	Files       []FileEntry
}

// FileEntry is one sidecar file-list record.
type FileEntry struct {
	IsDirectory  bool
	RelativePath string
	// Size is the source byte count; 0 for directories.
	Size int64
	// MTimeNs is the source mtime in nanoseconds since epoch; 0 for directories.
	MTimeNs int64
}

// VerifyStatus reports the outcome of verifying one sidecar entry.
type VerifyStatus string

const (
	VerifyOK       VerifyStatus = "ok"
	VerifyMissing  VerifyStatus = "missing"
	VerifyCorrupt  VerifyStatus = "corrupt"
	VerifyMismatch VerifyStatus = "mismatch"
)

// VerifyResult is the per-entry outcome of a Verify call.
type VerifyResult struct {
	RelativePath string
	Status       VerifyStatus
	// Digest is the SHA-256 of the decoded payload, when it could be computed.
	Digest string
	Detail string
}
