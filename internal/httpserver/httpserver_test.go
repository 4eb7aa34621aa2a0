package httpserver_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/command_pilot/internal/events"
	"github.com/Skotchmaster/command_pilot/internal/httpserver"
	"github.com/Skotchmaster/command_pilot/internal/llm"
	"github.com/Skotchmaster/command_pilot/internal/middleware"
	"github.com/Skotchmaster/command_pilot/internal/models"
	"github.com/Skotchmaster/command_pilot/internal/ratelimit"
	"github.com/Skotchmaster/command_pilot/internal/repo"
	"github.com/Skotchmaster/command_pilot/internal/service"
	"github.com/Skotchmaster/command_pilot/internal/testutil"
	jwthelp "github.com/Skotchmaster/command_pilot/pkg/jwt"
)

var secret = []byte("test-jwt-secret")

type server struct {
	e      *echo.Echo
	repo   *repo.GormRepo
	calls  *atomic.Int32
	reply  *atomic.Value
	failer *atomic.Value
}

type option func(d *httpserver.Deps)

func withLimiter(l middleware.Allower) option {
	return func(d *httpserver.Deps) { d.Limiter = l }
}

func newServer(t *testing.T, opts ...option) *server {
	t.Helper()

	r := repo.New(testutil.InitTestDB(t))
	calls := &atomic.Int32{}
	reply := &atomic.Value{}
	reply.Store("```bash\nsudo apt install -y docker.io\n```")
	failer := &atomic.Value{}

	completer := llm.CompleterFunc(func(_ context.Context, _ string) (string, error) {
		calls.Add(1)
		if v := failer.Load(); v != nil {
			return "", v.(*llm.ProviderError)
		}
		return reply.Load().(string), nil
	})

	mem := &events.Memory{}
	cmds := &service.CommandService{Repo: r, LLM: completer, Events: mem}
	auth := &service.AuthService{Users: r, Commands: r, Secret: secret, Events: mem}

	d := &httpserver.Deps{
		DB:             r.DB,
		UserHandler:    &httpserver.UserHTTP{Svc: auth, Commands: cmds},
		CommandHandler: &httpserver.CommandHTTP{Svc: cmds},
		Auth:           middleware.NewAuth(secret, r),
		AllowedOrigins: []string{"http://localhost:5173"},
	}
	for _, o := range opts {
		o(d)
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return &server{e: httpserver.New(d, logger), repo: r, calls: calls, reply: reply, failer: failer}
}

func (s *server) do(t *testing.T, method, path string, body any, token string) *httptest.ResponseRecorder {
	t.Helper()
	var rdr io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		rdr = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, rdr)
	if body != nil {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.e.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func (s *server) register(t *testing.T, name string) string {
	t.Helper()
	rec := s.do(t, http.MethodPost, "/api/user/register", map[string]string{
		"username": name, "email": name + "@example.com", "password": "password123",
	}, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	return decode(t, rec)["token"].(string)
}

func TestEndToEnd(t *testing.T) {
	s := newServer(t)

	rec := s.do(t, http.MethodPost, "/api/user/register", map[string]string{
		"username": "al", "email": "al@example.com", "password": "password123",
	}, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(t, http.MethodPost, "/api/user/register", map[string]string{
		"username": "alice", "email": "alice@example.com", "password": "password123",
	}, "")
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, "User Register Successfully", body["message"])
	user := body["user"].(map[string]any)
	assert.Equal(t, "alice", user["userName"])
	assert.NotEmpty(t, user["id"])
	token := body["token"].(string)
	require.NotEmpty(t, token)

	var sessionCookie *http.Cookie
	for _, ck := range rec.Result().Cookies() {
		if ck.Name == jwthelp.SessionCookie {
			sessionCookie = ck
		}
	}
	require.NotNil(t, sessionCookie)
	assert.True(t, sessionCookie.HttpOnly)

	rec = s.do(t, http.MethodPost, "/api/command/authenticUserCommand", map[string]string{"appName": "docker", "os": "linux"}, token)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	body = decode(t, rec)
	assert.Equal(t, true, body["saved"])
	assert.Equal(t, "linux", body["os"])
	assert.Equal(t, "sudo apt install -y docker.io", body["command"])

	rec = s.do(t, http.MethodGet, "/api/user/getMyCommand", nil, token)
	require.Equal(t, http.StatusOK, rec.Code)
	cmds := decode(t, rec)["userCommands"].([]any)
	require.Len(t, cmds, 1)
	assert.Equal(t, "docker", cmds[0].(map[string]any)["appName"])

	rec = s.do(t, http.MethodGet, "/api/user/logout", nil, token)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "User logged out successfully", decode(t, rec)["message"])

	rec = s.do(t, http.MethodGet, "/api/user/getMyCommand", nil, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "User not authenticated", decode(t, rec)["error"])
}

func TestRegister_Errors(t *testing.T) {
	s := newServer(t)

	rec := s.do(t, http.MethodPost, "/api/user/register", map[string]string{"username": "bob", "email": "bob@example.com"}, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, service.MsgFillRequired, decode(t, rec)["message"])

	s.register(t, "bob")
	rec = s.do(t, http.MethodPost, "/api/user/register", map[string]string{
		"username": "bobby", "email": "bob@example.com", "password": "password123",
	}, "")
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, service.MsgUserExists, decode(t, rec)["message"])

	n, err := s.repo.CountUsersByEmail(context.Background(), "bob@example.com")
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestRegister_LongPassword(t *testing.T) {
	s := newServer(t)
	password := strings.Repeat("p", 80)

	rec := s.do(t, http.MethodPost, "/api/user/register", map[string]string{
		"username": "dave", "email": "dave@example.com", "password": password,
	}, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = s.do(t, http.MethodPost, "/api/user/login", map[string]string{"email": "dave@example.com", "password": password}, "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestLogin(t *testing.T) {
	s := newServer(t)
	s.register(t, "carol")

	rec := s.do(t, http.MethodPost, "/api/user/login", map[string]string{"email": "carol@example.com", "password": "password123"}, "")
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, "User logged in successfully", body["message"])
	user := body["user"].(map[string]any)
	assert.Equal(t, "carol", user["username"])
	assert.Equal(t, "carol@example.com", user["email"])
	assert.NotEmpty(t, user["_id"])
	assert.NotEmpty(t, body["token"])

	cases := []struct {
		name string
		body map[string]string
		msg  string
	}{
		{"wrong password", map[string]string{"email": "carol@example.com", "password": "nope12345"}, service.MsgInvalidLogin},
		{"unknown email", map[string]string{"email": "nobody@example.com", "password": "password123"}, service.MsgInvalidLogin},
		{"missing email", map[string]string{"password": "password123"}, service.MsgEmailRequired},
		{"missing password", map[string]string{"email": "carol@example.com"}, service.MsgPasswordRequired},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := s.do(t, http.MethodPost, "/api/user/login", tc.body, "")
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Equal(t, tc.msg, decode(t, rec)["message"])
		})
	}
}

func TestGuestCommand(t *testing.T) {
	s := newServer(t)

	rec := s.do(t, http.MethodPost, "/api/command/forGuest", map[string]string{"appName": "docker", "os": "Ubuntu 22.04"}, "")
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, "sudo apt install -y docker.io", body["command"])
	assert.Equal(t, "docker", body["appName"])
	assert.Equal(t, "Ubuntu 22.04", body["os"])
	_, hasSaved := body["saved"]
	assert.False(t, hasSaved)

	var total int64
	require.NoError(t, s.repo.DB.Model(&models.Command{}).Count(&total).Error)
	assert.Zero(t, total)

	rec = s.do(t, http.MethodPost, "/api/command/forGuest", map[string]string{"os": "linux"}, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, service.MsgAppNameRequired, decode(t, rec)["error"])
}

func TestGuestCommand_ProviderError(t *testing.T) {
	s := newServer(t)
	s.failer.Store(&llm.ProviderError{Message: "Provider returned error"})

	rec := s.do(t, http.MethodPost, "/api/command/forGuest", map[string]string{"appName": "git"}, "")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "Provider returned error", decode(t, rec)["error"])
}

func TestUserCommand_InvalidOS(t *testing.T) {
	s := newServer(t)
	token := s.register(t, "dave")

	rec := s.do(t, http.MethodPost, "/api/command/authenticUserCommand", map[string]string{"appName": "git", "os": "beos"}, token)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, service.MsgInvalidOS, decode(t, rec)["error"])
	assert.Zero(t, s.calls.Load())
}

func TestUserCommand_RequiresAuth(t *testing.T) {
	s := newServer(t)

	rec := s.do(t, http.MethodPost, "/api/command/authenticUserCommand", map[string]string{"appName": "git", "os": "linux"}, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Zero(t, s.calls.Load())
}

func TestDeleteCommand(t *testing.T) {
	s := newServer(t)
	token := s.register(t, "erin")
	other := s.register(t, "frank")

	rec := s.do(t, http.MethodPost, "/api/command/authenticUserCommand", map[string]string{"appName": "git", "os": "windows"}, token)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = s.do(t, http.MethodGet, "/api/user/getMyCommand", nil, token)
	id := decode(t, rec)["userCommands"].([]any)[0].(map[string]any)["_id"].(string)

	rec = s.do(t, http.MethodDelete, "/api/command/delete/"+uuid.NewString(), nil, token)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Command not found", decode(t, rec)["message"])

	rec = s.do(t, http.MethodDelete, "/api/command/delete/not-a-uuid", nil, token)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = s.do(t, http.MethodDelete, "/api/command/delete/"+id, nil, other)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = s.do(t, http.MethodDelete, "/api/command/delete/"+id, nil, token)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Command deleted successfully", decode(t, rec)["message"])

	rec = s.do(t, http.MethodGet, "/api/user/getMyCommand", nil, token)
	assert.Empty(t, decode(t, rec)["userCommands"])
}

func TestProfile(t *testing.T) {
	s := newServer(t)
	token := s.register(t, "gina")

	for _, app := range []string{"git", "curl"} {
		rec := s.do(t, http.MethodPost, "/api/command/authenticUserCommand", map[string]string{"appName": app, "os": "mac"}, token)
		require.Equal(t, http.StatusOK, rec.Code)
	}

	rec := s.do(t, http.MethodGet, "/api/user/getFullProfile", nil, token)
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, "User profile fetched successfully", body["message"])
	profile := body["profile"].(map[string]any)
	assert.Equal(t, "gina", profile["username"])
	assert.Equal(t, float64(2), profile["totalCommands"])
	assert.Len(t, profile["commands"], 2)
	assert.NotContains(t, profile, "password")
}

func TestSearchCommands(t *testing.T) {
	s := newServer(t)
	token := s.register(t, "hank")

	rec := s.do(t, http.MethodPost, "/api/command/authenticUserCommand", map[string]string{"appName": "docker", "os": "linux"}, token)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = s.do(t, http.MethodGet, "/api/user/searchCommands?q=dock", nil, token)
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, "dock", body["query"])
	assert.Len(t, body["results"], 1)
}

func TestCookieAuth(t *testing.T) {
	s := newServer(t)
	token := s.register(t, "ivy")

	req := httptest.NewRequest(http.MethodGet, "/api/user/getMyCommand", nil)
	req.AddCookie(&http.Cookie{Name: jwthelp.SessionCookie, Value: token})
	rec := httptest.NewRecorder()
	s.e.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestMisc(t *testing.T) {
	s := newServer(t)

	rec := s.do(t, http.MethodGet, "/", nil, "")
	assert.Equal(t, "Hello World!", rec.Body.String())

	rec = s.do(t, http.MethodGet, "/api/user/checker", nil, "")
	assert.Equal(t, "Api work ", decode(t, rec)["message"])

	rec = s.do(t, http.MethodGet, "/health/live", nil, "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = s.do(t, http.MethodGet, "/health/ready", nil, "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestCORS_RejectsForeignOrigin(t *testing.T) {
	s := newServer(t)

	req := httptest.NewRequest(http.MethodGet, "/api/user/checker", nil)
	req.Header.Set(echo.HeaderOrigin, "https://evil.example")
	rec := httptest.NewRecorder()
	s.e.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	req = httptest.NewRequest(http.MethodGet, "/api/user/checker", nil)
	req.Header.Set(echo.HeaderOrigin, "moz-extension://abc")
	rec = httptest.NewRecorder()
	s.e.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRateLimit(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	s := newServer(t, withLimiter(ratelimit.New(rdb, 2, time.Hour)))

	for i := 0; i < 2; i++ {
		rec := s.do(t, http.MethodPost, "/api/command/forGuest", map[string]string{"appName": "git"}, "")
		require.Equal(t, http.StatusOK, rec.Code)
	}
	rec := s.do(t, http.MethodPost, "/api/command/forGuest", map[string]string{"appName": "git"}, "")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "Rate limit exceeded", decode(t, rec)["error"])
	assert.NotEmpty(t, rec.Header().Get(middleware.HeaderRateLimitReset))
	assert.Equal(t, int32(2), s.calls.Load())
}
