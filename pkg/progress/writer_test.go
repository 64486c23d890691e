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

package progress

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"gotest.tools/v3/assert"
)

func TestPlainWriterDumpsEvents(t *testing.T) {
	var out bytes.Buffer
	err := Run(context.Background(), func(ctx context.Context) error {
		w := ContextWriter(ctx)
		w.Event(CopyingEvent("file1.txt"))
		w.Event(CopiedEvent("file1.txt"))
		w.Event(RemovedEvent("old.txt"))
		return nil
	}, &out, "Backing up")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimRight(out.String(), "\n"), "\n")
	assert.Equal(t, len(lines), 3)
	assert.Assert(t, strings.Contains(lines[0], "Copying"))
	assert.Assert(t, strings.Contains(lines[1], "Copied"))
	assert.Assert(t, strings.Contains(lines[2], "Removed"))
}

func TestRunPropagatesError(t *testing.T) {
	var out bytes.Buffer
	sentinel := context.DeadlineExceeded
	err := Run(context.Background(), func(ctx context.Context) error {
		return sentinel
	}, &out, "Backing up")
	assert.ErrorIs(t, err, sentinel)
}

func TestContextWriterDefaultsToNoop(t *testing.T) {
	w := ContextWriter(context.Background())
	// must not panic without a writer in context
	w.Event(CreatingEvent("x"))
	w.TailMsgf("done %d", 1)
}

func TestQuietModeWritesNothing(t *testing.T) {
	prev := Mode
	Mode = ModeQuiet
	defer func() { Mode = prev }()

	var out bytes.Buffer
	err := Run(context.Background(), func(ctx context.Context) error {
		ContextWriter(ctx).Event(CopiedEvent("file1.txt"))
		return nil
	}, &out, "Backing up")
	require.NoError(t, err)
	assert.Equal(t, out.String(), "")
}
