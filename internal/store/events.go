package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"github.com/dukerupert/pocketcal/internal/model"
	"github.com/dukerupert/pocketcal/internal/storage"
)

// ErrNotFound matches any *NotFoundError via errors.Is.
var ErrNotFound = errors.New("event not found")

type NotFoundError struct {
	ID string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("event %q not found", e.ID)
}

func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

type Action string

const (
	ActionCreated  Action = "created"
	ActionUpdated  Action = "updated"
	ActionDeleted  Action = "deleted"
	ActionCleared  Action = "cleared"
	ActionReplaced Action = "replaced"
)

// Change describes a completed mutation. Event is the zero value for
// cleared and replaced. Seq increases by one with every change, so
// consumers can tell the order of writes and spot gaps.
type Change struct {
	Action Action
	Event  model.Event
	Seq    uint64
}

// Listener is called synchronously after each mutation, outside the write
// lock and in the order the writes happened. Listeners may read the store
// but must not mutate it.
type Listener func(Change)

// Persister is the slice of the persistence adapter the store needs.
type Persister interface {
	Save(ctx context.Context, events []model.Event) error
	Load(ctx context.Context) []model.Event
	Clear(ctx context.Context)
	GenerateID() string
}

var _ Persister = (*storage.Adapter)(nil)

// EventStore owns the in-memory event list and persists the whole list
// after every mutation. Writes are serialized; reads see the last
// completed write.
type EventStore struct {
	mu        sync.RWMutex
	events    []model.Event
	persist   Persister
	logger    *slog.Logger
	listeners []listenerEntry
	nextSub   int
	seq       uint64

	// notifyMu is taken before mu is released, so the next writer's
	// notifications wait for this writer's.
	notifyMu sync.Mutex
}

type listenerEntry struct {
	id int
	fn Listener
}

// NewEventStore populates a store from whatever the persister loads.
// Loaded events that are invalid or repeat an earlier id are dropped with a
// warning; the stored record is left alone until the next save.
func NewEventStore(ctx context.Context, p Persister, logger *slog.Logger) *EventStore {
	loaded := p.Load(ctx)
	events := make([]model.Event, 0, len(loaded))
	seen := make(map[string]bool, len(loaded))
	for _, ev := range loaded {
		if ev.ID == "" || seen[ev.ID] {
			logger.Warn("dropping loaded event with missing or duplicate id", "id", ev.ID, "title", ev.Title)
			continue
		}
		clean, err := checked(ev)
		if err != nil {
			logger.Warn("dropping invalid loaded event", "id", ev.ID, "error", err)
			continue
		}
		seen[ev.ID] = true
		events = append(events, clean)
	}
	logger.Info("loaded events", "count", len(events), "dropped", len(loaded)-len(events))

	return &EventStore{
		events:  events,
		persist: p,
		logger:  logger,
	}
}

// Subscribe registers fn for change notifications and returns a function
// that removes it.
func (s *EventStore) Subscribe(fn Listener) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextSub++
	id := s.nextSub
	s.listeners = append(s.listeners, listenerEntry{id: id, fn: fn})
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.listeners = slices.DeleteFunc(s.listeners, func(l listenerEntry) bool { return l.id == id })
	}
}

// All returns a copy of the events in insertion order.
func (s *EventStore) All() []model.Event {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.events)
}

// Get returns the event with id.
func (s *EventStore) Get(id string) (model.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if i := indexOf(s.events, id); i >= 0 {
		return s.events[i], nil
	}
	return model.Event{}, &NotFoundError{ID: id}
}

// Create validates in, assigns a fresh id, appends and persists. A
// *storage.StorageError is returned together with the created event: the
// in-memory list keeps the event and the next successful save will
// include it.
func (s *EventStore) Create(ctx context.Context, in model.EventInput) (model.Event, error) {
	in = in.Normalize()
	if err := in.Validate(); err != nil {
		return model.Event{}, err
	}

	s.mu.Lock()
	ev := fromInput(s.newID(s.events), in)
	s.events = append(s.events, ev)
	err := s.save(ctx)
	s.logger.Info("event created", "id", ev.ID, "date", ev.Date)
	s.commit(Change{Action: ActionCreated, Event: ev})
	return ev, err
}

// Update replaces the body of the event with id, keeping the id.
func (s *EventStore) Update(ctx context.Context, id string, in model.EventInput) (model.Event, error) {
	in = in.Normalize()
	if err := in.Validate(); err != nil {
		return model.Event{}, err
	}

	s.mu.Lock()
	i := indexOf(s.events, id)
	if i < 0 {
		s.mu.Unlock()
		return model.Event{}, &NotFoundError{ID: id}
	}
	ev := fromInput(id, in)
	s.events[i] = ev
	err := s.save(ctx)
	s.logger.Info("event updated", "id", id, "date", ev.Date)
	s.commit(Change{Action: ActionUpdated, Event: ev})
	return ev, err
}

// Delete removes the event with id. Deleting an unknown id is a no-op
// apart from the save.
func (s *EventStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	i := indexOf(s.events, id)
	if i < 0 {
		err := s.save(ctx)
		s.mu.Unlock()
		return err
	}
	ev := s.events[i]
	s.events = slices.Delete(s.events, i, i+1)
	err := s.save(ctx)
	s.logger.Info("event deleted", "id", id)
	s.commit(Change{Action: ActionDeleted, Event: ev})
	return err
}

// Reset drops every event and removes the stored record.
func (s *EventStore) Reset(ctx context.Context) {
	s.mu.Lock()
	n := len(s.events)
	s.events = nil
	s.persist.Clear(ctx)
	s.logger.Info("events cleared", "count", n)
	s.commit(Change{Action: ActionCleared})
}

// Replace swaps the whole list, as when restoring a backup. Every event is
// validated first; events without an id are given one that is unique
// within the new list.
func (s *EventStore) Replace(ctx context.Context, events []model.Event) error {
	next := make([]model.Event, 0, len(events))
	seen := make(map[string]bool, len(events))
	for _, ev := range events {
		clean, err := checked(ev)
		if err != nil {
			return fmt.Errorf("event %q: %w", ev.ID, err)
		}
		if ev.ID != "" && seen[ev.ID] {
			return fmt.Errorf("duplicate event id %q", ev.ID)
		}
		seen[ev.ID] = true
		next = append(next, clean)
	}

	s.mu.Lock()
	for i := range next {
		if next[i].ID == "" {
			next[i].ID = s.newID(next)
		}
	}
	s.events = next
	err := s.save(ctx)
	s.logger.Info("events replaced", "count", len(next))
	s.commit(Change{Action: ActionReplaced})
	return err
}

// commit stamps c with the next sequence number, releases the write lock
// and notifies listeners. Callers hold s.mu.
func (s *EventStore) commit(c Change) {
	s.seq++
	c.Seq = s.seq
	listeners := s.snapshotListeners()

	s.notifyMu.Lock()
	s.mu.Unlock()
	defer s.notifyMu.Unlock()

	for _, fn := range listeners {
		fn(c)
	}
}

// newID draws ids until one is not used in taken. Callers hold the write lock.
func (s *EventStore) newID(taken []model.Event) string {
	for {
		id := s.persist.GenerateID()
		if id != "" && indexOf(taken, id) < 0 {
			return id
		}
		s.logger.Warn("generated id collided, retrying", "id", id)
	}
}

func (s *EventStore) save(ctx context.Context) error {
	return s.persist.Save(ctx, slices.Clone(s.events))
}

func (s *EventStore) snapshotListeners() []Listener {
	fns := make([]Listener, len(s.listeners))
	for i, l := range s.listeners {
		fns[i] = l.fn
	}
	return fns
}

func indexOf(events []model.Event, id string) int {
	return slices.IndexFunc(events, func(e model.Event) bool { return e.ID == id })
}

// checked normalizes and validates a stored event body, keeping its id.
func checked(ev model.Event) (model.Event, error) {
	in := ev.Input().Normalize()
	if err := in.Validate(); err != nil {
		return model.Event{}, err
	}
	return fromInput(ev.ID, in), nil
}

func fromInput(id string, in model.EventInput) model.Event {
	return model.Event{
		ID:          id,
		Title:       in.Title,
		Description: in.Description,
		Date:        in.Date,
		StartTime:   in.StartTime,
		EndTime:     in.EndTime,
		Category:    in.Category,
		Color:       in.Color,
	}
}
