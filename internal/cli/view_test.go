package cli

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/command_pilot/pkg/client"
)

func TestCanMove(t *testing.T) {
	assert.True(t, canMove(ViewMain, ViewLogin))
	assert.True(t, canMove(ViewMain, ViewProfile))
	assert.True(t, canMove(ViewLogin, ViewRegister))
	assert.True(t, canMove(ViewRegister, ViewLogin))
	assert.True(t, canMove(ViewProfile, ViewMain))
	assert.True(t, canMove(ViewLogin, ViewLogin))

	assert.False(t, canMove(ViewProfile, ViewLogin))
	assert.False(t, canMove(ViewLogin, ViewProfile))
	assert.False(t, canMove(ViewRegister, ViewProfile))
}

func TestViewString(t *testing.T) {
	assert.Equal(t, "main", ViewMain.String())
	assert.Equal(t, "login", ViewLogin.String())
	assert.Equal(t, "register", ViewRegister.String())
	assert.Equal(t, "profile", ViewProfile.String())
}

func TestTheme(t *testing.T) {
	ctx := context.Background()
	store, err := client.OpenStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	assert.Equal(t, ThemeDark, LoadTheme(ctx, store))

	require.NoError(t, SaveTheme(ctx, store, ThemeDark.Toggle()))
	assert.Equal(t, ThemeLight, LoadTheme(ctx, store))

	require.NoError(t, store.Set(ctx, client.KeyTheme, "neon"))
	assert.Equal(t, ThemeDark, LoadTheme(ctx, store))

	assert.Equal(t, ThemeDark, ThemeLight.Toggle())
	assert.Equal(t, palettes[ThemeDark], Theme("neon").palette())
}
