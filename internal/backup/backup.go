// Package backup produces and restores passphrase-encrypted copies of the
// persisted event list.
package backup

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/dukerupert/pocketcal/internal/model"
	"github.com/dukerupert/pocketcal/internal/storage"
)

var ErrNoPassphrase = errors.New("backup: passphrase is required")

// Events is the event list a backup is taken from and restored into.
type Events interface {
	All() []model.Event
	Replace(ctx context.Context, events []model.Event) error
}

type Manager struct {
	events Events
	logger *slog.Logger
}

func NewManager(events Events, logger *slog.Logger) *Manager {
	return &Manager{events: events, logger: logger}
}

// Create returns an encrypted snapshot of the current event list. Events
// the store holds but failed to save are included.
func (m *Manager) Create(ctx context.Context, passphrase string) ([]byte, error) {
	if passphrase == "" {
		return nil, ErrNoPassphrase
	}
	events := m.events.All()
	raw, err := storage.Encode(events)
	if err != nil {
		return nil, fmt.Errorf("create backup: %w", err)
	}
	sealed, err := Seal(raw, passphrase)
	if err != nil {
		return nil, fmt.Errorf("create backup: %w", err)
	}
	m.logger.Info("backup created", "events", len(events), "bytes", len(sealed))
	return sealed, nil
}

// Restore decrypts data and replaces the event list with its contents. It
// returns the number of events restored. Nothing changes on failure, except
// that a *storage.StorageError means the list was replaced in memory but
// not saved.
func (m *Manager) Restore(ctx context.Context, data []byte, passphrase string) (int, error) {
	if passphrase == "" {
		return 0, ErrNoPassphrase
	}
	raw, err := Open(data, passphrase)
	if err != nil {
		return 0, fmt.Errorf("restore backup: %w", err)
	}
	events, err := storage.Decode(raw)
	if err != nil {
		return 0, fmt.Errorf("restore backup: %w", err)
	}
	if err := m.events.Replace(ctx, events); err != nil {
		return 0, fmt.Errorf("restore backup: %w", err)
	}
	m.logger.Info("backup restored", "events", len(events))
	return len(events), nil
}

// WriteFile writes an encrypted snapshot to path.
func (m *Manager) WriteFile(ctx context.Context, path, passphrase string) error {
	data, err := m.Create(ctx, passphrase)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("write backup: %w", err)
	}
	return nil
}

// RestoreFile restores from an encrypted snapshot at path.
func (m *Manager) RestoreFile(ctx context.Context, path, passphrase string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("read backup: %w", err)
	}
	return m.Restore(ctx, data, passphrase)
}
