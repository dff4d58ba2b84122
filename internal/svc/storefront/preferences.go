package storefront

import (
	"context"
	"errors"
	"fmt"

	"github.com/mkrupp/shopzone/internal/infra/logging"
	"github.com/mkrupp/shopzone/internal/repo/kv"
)

// Theme is the display theme preference.
type Theme string

const (
	ThemeLight Theme = "light"
	ThemeDark  Theme = "dark"
)

var ErrUnknownTheme = errors.New("unknown theme")

// Preferences persists display preferences.
type Preferences struct {
	storage kv.Storage
	log     logging.Logger
}

func NewPreferences(storage kv.Storage) *Preferences {
	return &Preferences{
		storage: storage,
		log:     logging.GetLogger("svc.storefront.preferences"),
	}
}

// Theme returns the stored theme. Missing, unknown or unreadable values
// are reported as ThemeLight.
func (p *Preferences) Theme(ctx context.Context) Theme {
	raw, ok, err := p.storage.Get(ctx, kv.KeyTheme)
	if err != nil {
		p.log.WarnContext(ctx, "read theme failed", "error", err)

		return ThemeLight
	}

	if ok && Theme(raw) == ThemeDark {
		return ThemeDark
	}

	return ThemeLight
}

func (p *Preferences) SetTheme(ctx context.Context, theme Theme) error {
	if theme != ThemeLight && theme != ThemeDark {
		return fmt.Errorf("set theme %q: %w", theme, ErrUnknownTheme)
	}

	if err := p.storage.Put(ctx, kv.Entry{Key: kv.KeyTheme, Value: string(theme)}); err != nil {
		return fmt.Errorf("set theme: %w", err)
	}

	return nil
}

// ToggleTheme switches between light and dark and returns the new theme.
func (p *Preferences) ToggleTheme(ctx context.Context) (Theme, error) {
	next := ThemeDark
	if p.Theme(ctx) == ThemeDark {
		next = ThemeLight
	}

	if err := p.SetTheme(ctx, next); err != nil {
		return p.Theme(ctx), err
	}

	return next, nil
}
