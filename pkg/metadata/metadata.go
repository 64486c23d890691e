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

// Package metadata reads and writes the .backupmeta sidecar: a line-oriented
// UTF-8 file at the backup root describing what a backup wrote and in what
// form. The format is deliberately lax for humans: blank lines and unknown
// header keys are tolerated.
package metadata

import (
	"bufio"
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/moby/sys/atomicwriter"

	"github.com/docker/backup/v2/internal/paths"
	"github.com/docker/backup/v2/pkg/api"
	"github.com/docker/backup/v2/pkg/snapshot"
)

// Tool tags sidecars written by this binary.
const Tool = "docker-backup"

const filelistHeader = "[filelist]"

// Write renders the sidecar for a source snapshot and writes it atomically
// to the backup root, so a crash mid-write never leaves a torn sidecar
// describing half a backup.
func Write(backupRoot string, tree *snapshot.Tree, compression api.Compression, encryption api.Encryption, now time.Time) error {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "tool=%s\n", Tool)
	fmt.Fprintf(&buf, "created=%s\n", now.UTC().Format(time.RFC3339))
	fmt.Fprintf(&buf, "source_root=%s\n", tree.RootPath)
	fmt.Fprintf(&buf, "compression=%s\n", compression)
	fmt.Fprintf(&buf, "encryption=%s\n", encryption)
	buf.WriteString(filelistHeader + "\n")

	tree.Walk(func(n *snapshot.Node) {
		if n.RelativePath == paths.Root {
			return
		}
		if n.IsDirectory() {
			fmt.Fprintf(&buf, "D|%s|0|0\n", n.RelativePath)
		} else {
			fmt.Fprintf(&buf, "F|%s|%d|%d\n", n.RelativePath, n.Size, n.MTime.UnixNano())
		}
	})

	target := filepath.Join(backupRoot, api.MetadataFile)
	if err := atomicwriter.WriteFile(target, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", target, err)
	}
	return nil
}

// Read parses the sidecar at the backup root. A sidecar that is missing or
// cannot be opened is api.ErrMissingMetadata.
func Read(backupRoot string) (*api.MetadataInfo, error) {
	target := filepath.Join(backupRoot, api.MetadataFile)
	f, err := os.Open(target)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", api.ErrMissingMetadata, target)
		}
		return nil, fmt.Errorf("%w: opening %s: %w", api.ErrMissingMetadata, target, err)
	}
	defer f.Close()

	info := &api.MetadataInfo{
		Compression: api.CompressionNone,
		Encryption:  api.EncryptionNone,
	}
	inFilelist := false
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r")
		if line == "" {
			continue
		}
		if line == filelistHeader {
			inFilelist = true
			continue
		}
		if inFilelist {
			entry, ok := parseEntry(line)
			if ok {
				info.Files = append(info.Files, entry)
			}
			continue
		}
		parseHeader(info, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading %s: %w", target, err)
	}
	return info, nil
}

func parseHeader(info *api.MetadataInfo, line string) {
	key, value, ok := strings.Cut(line, "=")
	if !ok {
		return
	}
	switch key {
	case "tool":
		info.Tool = value
	case "created":
		if ts, err := time.Parse(time.RFC3339, value); err == nil {
			info.Created = ts
		}
	case "source_root":
		info.SourceRoot = value
	case "compression":
		info.Compression = api.Compression(value)
	case "encryption":
		info.Encryption = api.Encryption(value)
	default:
		// unknown header keys are tolerated for forward compatibility
	}
}

// parseEntry tokenizes a `<D|F>|<relativePath>|<size>|<mtimeNs>` line. The
// middle fields are rejoined so relative paths containing '|' survive.
func parseEntry(line string) (api.FileEntry, bool) {
	fields := strings.Split(line, "|")
	if len(fields) < 4 {
		return api.FileEntry{}, false
	}
	kind := fields[0]
	if kind != "D" && kind != "F" {
		return api.FileEntry{}, false
	}
	size, err := strconv.ParseInt(fields[len(fields)-2], 10, 64)
	if err != nil {
		return api.FileEntry{}, false
	}
	mtimeNs, err := strconv.ParseInt(fields[len(fields)-1], 10, 64)
	if err != nil {
		return api.FileEntry{}, false
	}
	return api.FileEntry{
		IsDirectory:  kind == "D",
		RelativePath: strings.Join(fields[1:len(fields)-2], "|"),
		Size:         size,
		MTimeNs:      mtimeNs,
	}, true
}
