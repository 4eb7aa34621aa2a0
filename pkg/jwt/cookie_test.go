package jwt

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCreateCookie(t *testing.T) {
	exp := time.Now().Add(time.Hour)
	ck := CreateCookie(SessionCookie, "token", "/", exp, false)

	assert.Equal(t, "jwt", ck.Name)
	assert.Equal(t, "token", ck.Value)
	assert.True(t, ck.HttpOnly)
	assert.False(t, ck.Secure)
	assert.Equal(t, http.SameSiteLaxMode, ck.SameSite)
	assert.Equal(t, exp, ck.Expires)

	secure := CreateCookie(SessionCookie, "token", "/", exp, true)
	assert.Equal(t, http.SameSiteNoneMode, secure.SameSite)
}

func TestDeleteCookie(t *testing.T) {
	ck := DeleteCookie(SessionCookie, "/", false)
	assert.Empty(t, ck.Value)
	assert.Equal(t, -1, ck.MaxAge)
	assert.True(t, ck.Expires.Before(time.Now()))
}
