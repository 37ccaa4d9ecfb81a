package theme

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/dukerupert/pocketcal/internal/kv"
	"github.com/dukerupert/pocketcal/internal/model"
)

const Key = "calendar-theme"

// Preference holds the light/dark choice. It is read from the store once
// and written back on every change.
type Preference struct {
	mu      sync.Mutex
	store   kv.Store
	logger  *slog.Logger
	current model.Theme
}

// Load reads the saved theme. Anything other than "dark", including a read
// error, means light.
func Load(ctx context.Context, store kv.Store, logger *slog.Logger) *Preference {
	p := &Preference{store: store, logger: logger, current: model.ThemeLight}

	v, ok, err := store.Get(ctx, Key)
	switch {
	case err != nil:
		logger.Warn("read theme preference", "error", err)
	case ok && model.Theme(v) == model.ThemeDark:
		p.current = model.ThemeDark
	}
	return p
}

// Current returns the active theme.
func (p *Preference) Current() model.Theme {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.current
}

// Toggle flips the theme and persists it.
func (p *Preference) Toggle(ctx context.Context) (model.Theme, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.set(ctx, p.current.Toggle())
}

// Set persists t.
func (p *Preference) Set(ctx context.Context, t model.Theme) (model.Theme, error) {
	if t != model.ThemeLight && t != model.ThemeDark {
		return "", fmt.Errorf("unknown theme %q", t)
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.set(ctx, t)
}

func (p *Preference) set(ctx context.Context, t model.Theme) (model.Theme, error) {
	if err := p.store.Set(ctx, Key, string(t)); err != nil {
		return p.current, fmt.Errorf("save theme: %w", err)
	}
	p.current = t
	p.logger.Debug("theme changed", "theme", t)
	return t, nil
}
