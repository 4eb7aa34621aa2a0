package cli

import (
	"context"

	"github.com/Skotchmaster/command_pilot/pkg/client"
)

type Theme string

const (
	ThemeDark  Theme = "dark"
	ThemeLight Theme = "light"
)

type palette struct {
	accent, err, muted, ok, reset string
}

var palettes = map[Theme]palette{
	ThemeDark:  {accent: "\033[96m", err: "\033[91m", muted: "\033[90m", ok: "\033[92m", reset: "\033[0m"},
	ThemeLight: {accent: "\033[34m", err: "\033[31m", muted: "\033[37m", ok: "\033[32m", reset: "\033[0m"},
}

func (t Theme) Toggle() Theme {
	if t == ThemeLight {
		return ThemeDark
	}
	return ThemeLight
}

func (t Theme) palette() palette {
	if p, ok := palettes[t]; ok {
		return p
	}
	return palettes[ThemeDark]
}

// LoadTheme returns the stored theme, dark when none is stored.
func LoadTheme(ctx context.Context, store *client.Store) Theme {
	v, ok, err := store.Get(ctx, client.KeyTheme)
	if err != nil || !ok {
		return ThemeDark
	}
	if t := Theme(v); t == ThemeLight || t == ThemeDark {
		return t
	}
	return ThemeDark
}

func SaveTheme(ctx context.Context, store *client.Store, t Theme) error {
	return store.Set(ctx, client.KeyTheme, string(t))
}
