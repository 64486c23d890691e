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

package watch

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/require"
	"gotest.tools/v3/assert"
)

func TestBatchDebounceDeduplicatesEvents(t *testing.T) {
	ch := make(chan FileEvent)
	clock := clockwork.NewFakeClock()
	ctx, stop := context.WithCancel(context.Background())
	t.Cleanup(stop)

	batches := BatchDebounceEvents(ctx, clock, ch)
	root := string(filepath.Separator)
	for i := 0; i < 100; i++ {
		name := "a.txt"
		if i%2 == 0 {
			name = "b.txt"
		}
		ch <- NewFileEvent(filepath.Join(root, name))
	}
	// 100 sends plus the debouncer blocked on its ticker
	clock.BlockUntil(101)
	clock.Advance(QuietPeriod)

	batch := <-batches
	require.ElementsMatch(t, batch, []FileEvent{
		NewFileEvent(filepath.Join(root, "a.txt")),
		NewFileEvent(filepath.Join(root, "b.txt")),
	})

	// no further batch until new events arrive
	clock.Advance(QuietPeriod)
	select {
	case extra := <-batches:
		t.Fatalf("unexpected batch %v", extra)
	default:
	}
}

func TestBatchDebounceFlushesOnClose(t *testing.T) {
	ch := make(chan FileEvent)
	clock := clockwork.NewFakeClock()
	batches := BatchDebounceEvents(context.Background(), clock, ch)

	root := string(filepath.Separator)
	ch <- NewFileEvent(filepath.Join(root, "last.txt"))
	close(ch)

	batch, ok := <-batches
	assert.Assert(t, ok)
	assert.Equal(t, len(batch), 1)

	_, ok = <-batches
	assert.Assert(t, !ok)
}

func TestEngineArtifactsMatcher(t *testing.T) {
	m := EngineArtifactsMatcher{}
	for path, want := range map[string]bool{
		filepath.Join("/", "backup", ".backupmeta"):          true,
		filepath.Join("/", "backup", "a.txt.tmp_compress"):   true,
		filepath.Join("/", "backup", "a.txt.tmp_decompress"): true,
		filepath.Join("/", "src", "a.txt"):                   false,
		filepath.Join("/", "src", "tmp_notours"):             false,
	} {
		got, err := m.Matches(path)
		require.NoError(t, err)
		assert.Equal(t, got, want, path)
	}
}
