package core

import (
	"fmt"
	"time"
)

// EventType represents the type of change to a scribble.
type EventType string

const (
	EventCreate EventType = "CREATE"
	EventModify EventType = "MODIFY"
	EventDelete EventType = "DELETE"
)

// Event represents a change to a scribble.
type Event struct {
	Type      EventType
	ID        string
	Timestamp int64 // Unix timestamp
}

func (e Event) String() string {
	return fmt.Sprintf("%s %s", e.Type, e.ID)
}

// NewEvent stamps an event with the current time.
func NewEvent(typ EventType, id string) Event {
	return Event{Type: typ, ID: id, Timestamp: time.Now().Unix()}
}
