// Package diag provides an observer/event pub-sub for database lifecycle
// diagnostics, adapted from the teacher's internal/engine observer/
// logging_observer pair. ObjectLite has no query lifecycle to report on,
// so the event set is rebuilt around the persistence kernel's own phases:
// open, bootstrap, extent growth and close (spec §4.A, §4.C).
package diag

import (
	"log/slog"
	"time"
)

// EventType names a lifecycle phase a Database passes through.
type EventType string

const (
	EventOpenStart      EventType = "open_start"
	EventOpenEnd        EventType = "open_end"
	EventBootstrapStart EventType = "bootstrap_start"
	EventBootstrapEnd   EventType = "bootstrap_end"
	EventExtentGrow     EventType = "extent_grow"
	EventCommit         EventType = "commit"
	EventAbort          EventType = "abort"
	EventCloseStart     EventType = "close_start"
	EventCloseEnd       EventType = "close_end"
)

// Event is one lifecycle occurrence, timestamped and tagged with whichever
// filename identifies the database it came from.
type Event struct {
	Type      EventType
	Filename  string
	Timestamp time.Time
	Data      interface{}
}

// Observer receives lifecycle events. Implementations must return quickly:
// Notify calls observers synchronously on the caller's goroutine.
type Observer interface {
	OnEvent(event Event)
}

// Bus fans a single event out to every subscribed Observer, in subscription
// order. A zero-value Bus is ready to use.
type Bus struct {
	observers []Observer
}

// NewBus returns an empty Bus.
func NewBus() *Bus {
	return &Bus{}
}

// Subscribe registers o to receive every future event.
func (b *Bus) Subscribe(o Observer) {
	b.observers = append(b.observers, o)
}

// Notify delivers event to every subscribed observer.
func (b *Bus) Notify(event Event) {
	for _, o := range b.observers {
		o.OnEvent(event)
	}
}

// LoggingObserver reports every event through structured logging, matching
// the teacher's LoggingObserver field-for-field substitution of SQL
// lifecycle data with database lifecycle data.
type LoggingObserver struct {
	logger *slog.Logger
}

// NewLoggingObserver builds an observer that logs through logger.
func NewLoggingObserver(logger *slog.Logger) *LoggingObserver {
	if logger == nil {
		logger = slog.Default()
	}
	return &LoggingObserver{logger: logger}
}

// OnEvent implements Observer.
func (lo *LoggingObserver) OnEvent(event Event) {
	lo.logger.Info("database_lifecycle",
		"event", event.Type,
		"file", event.Filename,
		"timestamp", event.Timestamp,
		"data", event.Data,
	)
}
