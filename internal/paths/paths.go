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

package paths

import (
	"os"
	"path"
	"path/filepath"
	"strings"
)

// Root is the relative path a snapshot root carries.
const Root = "."

// Join appends name to a POSIX-style relative path. Joining onto the
// snapshot root elides the "." prefix so children of the root are plain
// names.
func Join(rel, name string) string {
	if rel == "" || rel == Root {
		return name
	}
	return rel + "/" + name
}

// ToNative converts a POSIX-style relative path to the host separator so it
// can be joined onto an absolute root with filepath.Join.
func ToNative(rel string) string {
	return filepath.FromSlash(rel)
}

// Resolve joins a POSIX-style relative path onto an absolute root.
func Resolve(root, rel string) string {
	if rel == "" || rel == Root {
		return root
	}
	return filepath.Join(root, ToNative(rel))
}

// Relative computes the POSIX-style relative path of file under dir, or
// ("", false) when file is not inside dir.
func Relative(dir, file string) (string, bool) {
	rel, err := filepath.Rel(filepath.Clean(dir), filepath.Clean(file))
	if err != nil {
		return "", false
	}
	rel = filepath.ToSlash(rel)
	if rel == ".." || strings.HasPrefix(rel, "../") {
		return "", false
	}
	return rel, true
}

// IsChild reports whether file lives under dir. Both paths are cleaned; on
// case-preserving filesystems equal-under-folding paths are resolved with a
// SameFile check.
func IsChild(dir string, file string) bool {
	if dir == "" {
		return false
	}
	dir = filepath.Clean(dir)
	current := filepath.Clean(file)
	for {
		if strings.EqualFold(dir, current) {
			if dir == current {
				return true
			}
			dirInfo, err := os.Stat(dir)
			if err != nil {
				return false
			}
			currentInfo, err := os.Stat(current)
			if err != nil {
				return false
			}
			return os.SameFile(dirInfo, currentInfo)
		}
		if len(current) <= len(dir) || current == Root {
			return false
		}
		current = filepath.Dir(current)
	}
}

// Base returns the final element of a POSIX-style relative path.
func Base(rel string) string {
	return path.Base(rel)
}
