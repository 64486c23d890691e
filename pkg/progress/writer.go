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
	"context"
	"io"
	"os"
	"sync"

	"github.com/moby/term"
	"golang.org/x/sync/errgroup"
)

// Writer can write multiple progress events
type Writer interface {
	Start(context.Context) error
	Stop()
	Event(Event)
	Events([]Event)
	TailMsgf(string, ...interface{})
}

type writerKey struct{}

// WithContextWriter adds the writer to the context
func WithContextWriter(ctx context.Context, writer Writer) context.Context {
	return context.WithValue(ctx, writerKey{}, writer)
}

// ContextWriter returns the writer from the context
func ContextWriter(ctx context.Context) Writer {
	s, ok := ctx.Value(writerKey{}).(Writer)
	if !ok {
		return &noopWriter{}
	}
	return s
}

type progressFunc func(context.Context) error

// Run will run a writer and the progress function in parallel
func Run(ctx context.Context, pf progressFunc, out io.Writer, progressTitle string) error {
	eg, _ := errgroup.WithContext(ctx)
	w := NewWriter(out, progressTitle)
	eg.Go(func() error {
		return w.Start(context.Background())
	})

	ctx = WithContextWriter(ctx, w)

	eg.Go(func() error {
		defer w.Stop()
		return pf(ctx)
	})

	return eg.Wait()
}

const (
	// ModeAuto detect console capabilities
	ModeAuto = "auto"
	// ModeTTY use terminal capability for advanced rendering
	ModeTTY = "tty"
	// ModePlain dump raw events to output
	ModePlain = "plain"
	// ModeQuiet don't display events
	ModeQuiet = "quiet"
)

// Mode define how progress should be rendered: ModeAuto, ModeTTY, ModePlain or ModeQuiet
var Mode = ModeAuto

// NewWriter returns a new multi-progress writer
func NewWriter(out io.Writer, progressTitle string) Writer {
	isTerminal := false
	if f, ok := out.(*os.File); ok {
		isTerminal = term.IsTerminal(f.Fd())
	}

	switch {
	case Mode == ModeQuiet:
		return &noopWriter{}
	case Mode == ModeAuto && isTerminal, Mode == ModeTTY:
		return &ttyWriter{
			out:    out,
			events: map[string]Event{},
			done:   make(chan bool),
			mtx:    &sync.Mutex{},
			title:  progressTitle,
		}
	default:
		return &plainWriter{
			out:  out,
			done: make(chan bool),
		}
	}
}

type noopWriter struct{}

func (n *noopWriter) Start(context.Context) error { return nil }

func (n *noopWriter) Stop() {}

func (n *noopWriter) Event(Event) {}

func (n *noopWriter) Events([]Event) {}

func (n *noopWriter) TailMsgf(string, ...interface{}) {}
