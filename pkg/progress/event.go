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

import "time"

// EventStatus indicates the status of an action
type EventStatus int

const (
	// Working means that the current task is working
	Working EventStatus = iota
	// Done means that the current task is done
	Done
	// Error means that the current task has errored
	Error
	// Warning means that the current task has warning
	Warning
)

// Event represents a progress event.
type Event struct {
	ID         string
	Text       string
	Status     EventStatus
	StatusText string

	startTime time.Time
	endTime   time.Time
}

// ErrorMessageEvent creates a new Error Event with message
func ErrorMessageEvent(id string, msg string) Event {
	return NewEvent(id, Error, msg)
}

// CreatingEvent creates a new Create in progress Event
func CreatingEvent(id string) Event {
	return NewEvent(id, Working, "Creating")
}

// CreatedEvent creates a new Created (done) Event
func CreatedEvent(id string) Event {
	return NewEvent(id, Done, "Created")
}

// CopyingEvent creates a new Copying in progress Event
func CopyingEvent(id string) Event {
	return NewEvent(id, Working, "Copying")
}

// CopiedEvent creates a new Copied (done) Event
func CopiedEvent(id string) Event {
	return NewEvent(id, Done, "Copied")
}

// UpdatingEvent creates a new Updating in progress Event
func UpdatingEvent(id string) Event {
	return NewEvent(id, Working, "Updating")
}

// UpdatedEvent creates a new Updated (done) Event
func UpdatedEvent(id string) Event {
	return NewEvent(id, Done, "Updated")
}

// RemovingEvent creates a new Removing in progress Event
func RemovingEvent(id string) Event {
	return NewEvent(id, Working, "Removing")
}

// RemovedEvent creates a new removed (done) Event
func RemovedEvent(id string) Event {
	return NewEvent(id, Done, "Removed")
}

// RestoringEvent creates a new Restoring in progress Event
func RestoringEvent(id string) Event {
	return NewEvent(id, Working, "Restoring")
}

// RestoredEvent creates a new Restored (done) Event
func RestoredEvent(id string) Event {
	return NewEvent(id, Done, "Restored")
}

// VerifyingEvent creates a new Verifying in progress Event
func VerifyingEvent(id string) Event {
	return NewEvent(id, Working, "Verifying")
}

// VerifiedEvent creates a new Verified (done) Event
func VerifiedEvent(id string) Event {
	return NewEvent(id, Done, "Verified")
}

// SkippedEvent creates a new Skipped (warning) Event with a reason
func SkippedEvent(id string, reason string) Event {
	return NewEvent(id, Warning, "Skipped: "+reason)
}

// NewEvent new event
func NewEvent(id string, status EventStatus, statusText string) Event {
	return Event{
		ID:         id,
		Status:     status,
		StatusText: statusText,
	}
}

func (e *Event) stop() {
	e.endTime = time.Now()
}
