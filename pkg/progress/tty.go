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
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/morikuni/aec"
)

type ttyWriter struct {
	out        io.Writer
	events     map[string]Event
	eventIDs   []string
	repeated   bool
	numLines   int
	done       chan bool
	mtx        *sync.Mutex
	title      string
	tailEvents []string
}

func (w *ttyWriter) Start(ctx context.Context) error {
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.print()
			w.printTailEvents()
			return ctx.Err()
		case <-w.done:
			w.print()
			w.printTailEvents()
			return nil
		case <-ticker.C:
			w.print()
		}
	}
}

func (w *ttyWriter) Stop() {
	w.done <- true
}

func (w *ttyWriter) Event(e Event) {
	w.mtx.Lock()
	defer w.mtx.Unlock()
	if _, ok := w.events[e.ID]; !ok {
		w.eventIDs = append(w.eventIDs, e.ID)
		e.startTime = time.Now()
		if e.Status == Done || e.Status == Error {
			e.stop()
		}
		w.events[e.ID] = e
		return
	}
	last := w.events[e.ID]
	if (e.Status == Done || e.Status == Error) && last.Status != e.Status {
		last.stop()
	}
	last.Status = e.Status
	last.Text = e.Text
	last.StatusText = e.StatusText
	w.events[e.ID] = last
}

func (w *ttyWriter) Events(events []Event) {
	for _, e := range events {
		w.Event(e)
	}
}

func (w *ttyWriter) TailMsgf(msg string, args ...interface{}) {
	w.mtx.Lock()
	defer w.mtx.Unlock()
	w.tailEvents = append(w.tailEvents, fmt.Sprintf(msg, args...))
}

func (w *ttyWriter) printTailEvents() {
	w.mtx.Lock()
	defer w.mtx.Unlock()
	for _, msg := range w.tailEvents {
		fmt.Fprintln(w.out, msg)
	}
}

func (w *ttyWriter) print() {
	w.mtx.Lock()
	defer w.mtx.Unlock()
	if len(w.eventIDs) == 0 {
		return
	}

	b := aec.EmptyBuilder
	for i := 0; i <= w.numLines; i++ {
		b = b.Up(1)
	}
	if !w.repeated {
		b = b.Down(1)
	}
	w.repeated = true
	fmt.Fprint(w.out, b.Column(0).ANSI)

	fmt.Fprint(w.out, aec.Hide)
	defer fmt.Fprint(w.out, aec.Show)

	firstLine := fmt.Sprintf("[+] %s %d/%d", w.title, numDone(w.events), len(w.eventIDs))
	if len(w.eventIDs) > 0 && numDone(w.events) == len(w.eventIDs) {
		firstLine = aec.Apply(firstLine, aec.BlueF)
	}
	fmt.Fprintln(w.out, firstLine)

	numLines := 0
	for _, id := range w.eventIDs {
		event := w.events[id]
		fmt.Fprintln(w.out, lineText(event))
		numLines++
	}
	w.numLines = numLines
}

func lineText(event Event) string {
	endTime := time.Now()
	if event.Status != Working {
		endTime = event.endTime
	}
	elapsed := endTime.Sub(event.startTime).Seconds()
	if elapsed < 0 {
		elapsed = 0
	}
	text := fmt.Sprintf(" %c %s %s", statusChar(event.Status), event.ID, event.StatusText)
	timer := fmt.Sprintf("%.1fs", elapsed)
	switch event.Status {
	case Done:
		return aec.Apply(text, aec.BlueF) + " " + timer
	case Error:
		return aec.Apply(text, aec.RedF) + " " + timer
	case Warning:
		return aec.Apply(text, aec.YellowF) + " " + timer
	default:
		return text + " " + timer
	}
}

func statusChar(status EventStatus) rune {
	switch status {
	case Done:
		return '✔'
	case Error:
		return '✘'
	case Warning:
		return '!'
	default:
		return '-'
	}
}

func numDone(events map[string]Event) int {
	i := 0
	for _, e := range events {
		if e.Status == Done {
			i++
		}
	}
	return i
}
