package search

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/command_pilot/internal/models"
)

type recorded struct {
	Method string
	Path   string
	Query  string
	Body   string
}

type fakeES struct {
	mu       sync.Mutex
	requests []recorded
	handle   func(w http.ResponseWriter, r *http.Request)
}

func (f *fakeES) last() recorded {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.requests[len(f.requests)-1]
}

func newFakeES(t *testing.T, handle func(w http.ResponseWriter, r *http.Request)) (*fakeES, *Index) {
	t.Helper()
	f := &fakeES{handle: handle}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		f.mu.Lock()
		f.requests = append(f.requests, recorded{Method: r.Method, Path: r.URL.Path, Query: r.URL.RawQuery, Body: string(b)})
		f.mu.Unlock()

		w.Header().Set("X-Elastic-Product", "Elasticsearch")
		w.Header().Set("Content-Type", "application/json")
		if r.URL.Path == "/" {
			_, _ = w.Write([]byte(`{"version":{"number":"9.0.0"},"tagline":"You Know, for Search"}`))
			return
		}
		f.handle(w, r)
	}))
	t.Cleanup(srv.Close)

	client, err := NewClient(context.Background(), Config{URL: srv.URL})
	require.NoError(t, err)
	return f, NewIndex(client, "")
}

func TestIndex_Index(t *testing.T) {
	f, idx := newFakeES(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"result":"created"}`))
	})

	cmd := models.Command{ID: uuid.New(), UserID: uuid.New(), Command: "sudo pacman -S git", AppName: "git", OS: "linux", CreatedAt: time.Now().UTC()}
	require.NoError(t, idx.Index(context.Background(), cmd))

	req := f.last()
	assert.Equal(t, http.MethodPut, req.Method)
	assert.Equal(t, "/commands/_doc/"+cmd.ID.String(), req.Path)
	assert.Contains(t, req.Query, "refresh=wait_for")

	var doc Document
	require.NoError(t, json.Unmarshal([]byte(req.Body), &doc))
	assert.Equal(t, cmd.UserID.String(), doc.UserID)
	assert.Equal(t, "git", doc.AppName)
}

func TestIndex_IndexError(t *testing.T) {
	_, idx := newFakeES(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":"mapper_parsing_exception"}`))
	})

	err := idx.Index(context.Background(), models.Command{ID: uuid.New(), UserID: uuid.New()})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "mapper_parsing_exception")
}

func TestIndex_DeleteMissingIsOK(t *testing.T) {
	f, idx := newFakeES(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"result":"not_found"}`))
	})

	id := uuid.New()
	require.NoError(t, idx.Delete(context.Background(), id))
	assert.Equal(t, http.MethodDelete, f.last().Method)
	assert.Equal(t, "/commands/_doc/"+id.String(), f.last().Path)
}

func TestIndex_EnsureIndexCreates(t *testing.T) {
	f, idx := newFakeES(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodHead {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		_, _ = w.Write([]byte(`{"acknowledged":true}`))
	})

	require.NoError(t, idx.EnsureIndex(context.Background()))
	req := f.last()
	assert.Equal(t, http.MethodPut, req.Method)
	assert.Equal(t, "/commands", req.Path)
	assert.Contains(t, req.Body, `"userId"`)
}

func TestIndex_EnsureIndexExistingUpdatesMapping(t *testing.T) {
	f, idx := newFakeES(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodHead {
			w.WriteHeader(http.StatusOK)
			return
		}
		_, _ = w.Write([]byte(`{"acknowledged":true}`))
	})

	require.NoError(t, idx.EnsureIndex(context.Background()))
	req := f.last()
	assert.Equal(t, http.MethodPut, req.Method)
	assert.Equal(t, "/commands/_mapping", req.Path)

	var body struct {
		Properties map[string]struct {
			Fields map[string]any `json:"fields"`
		} `json:"properties"`
	}
	require.NoError(t, json.Unmarshal([]byte(req.Body), &body))
	assert.Contains(t, body.Properties["command"].Fields, "raw")
	assert.Contains(t, body.Properties["appName"].Fields, "raw")
}

func TestIndex_Search(t *testing.T) {
	userID := uuid.New()
	hitID := uuid.New()
	f, idx := newFakeES(t, func(w http.ResponseWriter, r *http.Request) {
		resp := map[string]any{
			"hits": map[string]any{
				"hits": []any{
					map[string]any{"_source": Document{ID: hitID.String(), UserID: userID.String(), Command: "docker ps", AppName: "docker", OS: "linux"}},
					map[string]any{"_source": Document{ID: "broken", UserID: userID.String()}},
				},
			},
		}
		_ = json.NewEncoder(w).Encode(resp)
	})

	got, err := idx.Search(context.Background(), userID, "docker", 10)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, hitID, got[0].ID)
	assert.Equal(t, "docker ps", got[0].Command)

	req := f.last()
	assert.Equal(t, "/commands/_search", req.Path)
	assert.Contains(t, req.Query, "size=10")
	assert.True(t, strings.Contains(req.Body, userID.String()))
}

type wildcardClause struct {
	Wildcard map[string]struct {
		Value           string `json:"value"`
		CaseInsensitive bool   `json:"case_insensitive"`
	} `json:"wildcard"`
}

func searchBody(t *testing.T, raw string) (should []wildcardClause, minMatch int) {
	t.Helper()
	var body struct {
		Query struct {
			Bool struct {
				Should             []wildcardClause `json:"should"`
				MinimumShouldMatch int              `json:"minimum_should_match"`
			} `json:"bool"`
		} `json:"query"`
	}
	require.NoError(t, json.Unmarshal([]byte(raw), &body))
	return body.Query.Bool.Should, body.Query.Bool.MinimumShouldMatch
}

func TestIndex_SearchMatchesSubstringIgnoringCase(t *testing.T) {
	f, idx := newFakeES(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"hits":{"hits":[]}}`))
	})

	_, err := idx.Search(context.Background(), uuid.New(), " Dock ", 50)
	require.NoError(t, err)

	should, minMatch := searchBody(t, f.last().Body)
	assert.Equal(t, 1, minMatch)
	require.Len(t, should, 2)
	assert.Equal(t, "*Dock*", should[0].Wildcard["appName.raw"].Value)
	assert.True(t, should[0].Wildcard["appName.raw"].CaseInsensitive)
	assert.Equal(t, "*Dock*", should[1].Wildcard["command.raw"].Value)
	assert.True(t, should[1].Wildcard["command.raw"].CaseInsensitive)
}

func TestIndex_SearchEscapesWildcards(t *testing.T) {
	f, idx := newFakeES(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"hits":{"hits":[]}}`))
	})

	_, err := idx.Search(context.Background(), uuid.New(), `ls *.go?`, 50)
	require.NoError(t, err)

	should, _ := searchBody(t, f.last().Body)
	require.Len(t, should, 2)
	assert.Equal(t, `*ls \*.go\?*`, should[0].Wildcard["appName.raw"].Value)
}
