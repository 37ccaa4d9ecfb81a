// Package storage persists the event list as a single JSON record in a
// key-value store.
package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/dukerupert/pocketcal/internal/kv"
	"github.com/dukerupert/pocketcal/internal/model"
)

const (
	EventsKey = "calendar-events"
	// CorruptKey receives the raw record when a load finds it unreadable.
	CorruptKey = EventsKey + ".corrupt"
)

type LoadStatus string

const (
	LoadOK          LoadStatus = "ok"
	LoadMissing     LoadStatus = "missing"
	LoadCorrupt     LoadStatus = "corrupt"
	LoadUnavailable LoadStatus = "unavailable"
)

// Adapter reads and writes the event list.
type Adapter struct {
	store  kv.Store
	logger *slog.Logger
	newID  func() string
}

type Option func(*Adapter)

// WithIDGenerator replaces the default UUIDv7 generator.
func WithIDGenerator(fn func() string) Option {
	return func(a *Adapter) { a.newID = fn }
}

func NewAdapter(store kv.Store, logger *slog.Logger, opts ...Option) *Adapter {
	a := &Adapter{
		store:  store,
		logger: logger,
		newID:  newUUID,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Save writes the full list. The result is either nil or a *StorageError.
func (a *Adapter) Save(ctx context.Context, events []model.Event) error {
	data, err := Encode(events)
	if err != nil {
		return &StorageError{Reason: ReasonSerializationFailed, Err: err}
	}

	if err := a.store.Set(ctx, EventsKey, string(data)); err != nil {
		reason := ReasonWriteFailed
		if errors.Is(err, kv.ErrQuotaExceeded) {
			reason = ReasonQuotaExceeded
		}
		a.logger.Error("save events", "reason", reason, "bytes", len(data), "error", err)
		return &StorageError{Reason: reason, Err: err}
	}

	a.logger.Debug("saved events", "count", len(events), "bytes", len(data))
	return nil
}

// Load returns the stored events. A missing, unreadable, or corrupt record
// yields an empty list; it never fails.
func (a *Adapter) Load(ctx context.Context) []model.Event {
	events, _ := a.LoadWithStatus(ctx)
	return events
}

// LoadWithStatus is Load plus an indication of why the list may be empty.
func (a *Adapter) LoadWithStatus(ctx context.Context) ([]model.Event, LoadStatus) {
	raw, ok, err := a.store.Get(ctx, EventsKey)
	if err != nil {
		a.logger.Warn("load events: store unavailable, starting empty", "error", err)
		return []model.Event{}, LoadUnavailable
	}
	if !ok {
		return []model.Event{}, LoadMissing
	}

	var events []model.Event
	if err := json.Unmarshal([]byte(raw), &events); err != nil {
		a.logger.Warn("load events: corrupt record, starting empty", "bytes", len(raw), "error", err)
		if err := a.store.Set(ctx, CorruptKey, raw); err != nil {
			a.logger.Warn("preserve corrupt record", "error", err)
		}
		return []model.Event{}, LoadCorrupt
	}
	if events == nil {
		events = []model.Event{}
	}
	return events, LoadOK
}

// Clear removes the stored record. Failures are logged, not returned.
func (a *Adapter) Clear(ctx context.Context) {
	if err := a.store.Remove(ctx, EventsKey); err != nil {
		a.logger.Error("clear events", "error", err)
	}
}

// GenerateID returns a new event id. Ids are time-ordered with random low
// bits, unique within a process with overwhelming probability.
func (a *Adapter) GenerateID() string {
	return a.newID()
}

func newUUID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}

// Encode renders events in the stored record format. A nil list encodes
// as "[]".
func Encode(events []model.Event) ([]byte, error) {
	if events == nil {
		events = []model.Event{}
	}
	data, err := json.Marshal(events)
	if err != nil {
		return nil, fmt.Errorf("encode events: %w", err)
	}
	return data, nil
}

// Decode parses a raw record into events, rejecting malformed data.
func Decode(data []byte) ([]model.Event, error) {
	var events []model.Event
	if err := json.Unmarshal(data, &events); err != nil {
		return nil, fmt.Errorf("decode events: %w", err)
	}
	if events == nil {
		events = []model.Event{}
	}
	return events, nil
}
