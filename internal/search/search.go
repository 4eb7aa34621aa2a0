// Package search mirrors saved commands into Elasticsearch for history search.
package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/elastic/go-elasticsearch/v9"
	"github.com/elastic/go-elasticsearch/v9/esapi"
	"github.com/google/uuid"

	"github.com/Skotchmaster/command_pilot/internal/models"
)

const DefaultIndex = "commands"

type Config struct {
	URL      string
	User     string
	Password string
	Index    string
}

type Document struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	Command   string    `json:"command"`
	AppName   string    `json:"appName"`
	OS        string    `json:"os"`
	Distro    string    `json:"distro,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// The raw keyword subfields back the substring search; text fields stay for relevance use.
const properties = `{
  "properties": {
    "id":        {"type": "keyword"},
    "userId":    {"type": "keyword"},
    "command":   {"type": "text", "fields": {"raw": {"type": "keyword", "ignore_above": 4096}}},
    "appName":   {"type": "text", "fields": {"raw": {"type": "keyword", "ignore_above": 1024}}},
    "os":        {"type": "keyword"},
    "distro":    {"type": "keyword"},
    "createdAt": {"type": "date"}
  }
}`

var mapping = `{"mappings": ` + properties + `}`

type Index struct {
	es   *elasticsearch.Client
	name string
}

// NewClient connects and checks the cluster answers.
func NewClient(ctx context.Context, cfg Config) (*elasticsearch.Client, error) {
	client, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses: []string{cfg.URL},
		Username:  cfg.User,
		Password:  cfg.Password,
	})
	if err != nil {
		return nil, fmt.Errorf("elasticsearch client: %w", err)
	}

	res, err := esapi.InfoRequest{}.Do(ctx, client)
	if err != nil {
		return nil, fmt.Errorf("elasticsearch info: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return nil, responseError("info", res)
	}
	return client, nil
}

func NewIndex(es *elasticsearch.Client, name string) *Index {
	if name == "" {
		name = DefaultIndex
	}
	return &Index{es: es, name: name}
}

// EnsureIndex creates the index with its mapping, or adds missing fields to an
// existing index.
func (i *Index) EnsureIndex(ctx context.Context) error {
	res, err := esapi.IndicesExistsRequest{Index: []string{i.name}}.Do(ctx, i.es)
	if err != nil {
		return fmt.Errorf("index exists: %w", err)
	}
	res.Body.Close()
	if res.StatusCode == http.StatusOK {
		return i.putMapping(ctx)
	}

	res, err = esapi.IndicesCreateRequest{Index: i.name, Body: bytes.NewReader([]byte(mapping))}.Do(ctx, i.es)
	if err != nil {
		return fmt.Errorf("index create: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return responseError("index create", res)
	}
	return nil
}

func (i *Index) putMapping(ctx context.Context) error {
	res, err := esapi.IndicesPutMappingRequest{Index: []string{i.name}, Body: strings.NewReader(properties)}.Do(ctx, i.es)
	if err != nil {
		return fmt.Errorf("put mapping: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return responseError("put mapping", res)
	}
	return nil
}

func (i *Index) Index(ctx context.Context, cmd models.Command) error {
	body, err := json.Marshal(Document{
		ID:        cmd.ID.String(),
		UserID:    cmd.UserID.String(),
		Command:   cmd.Command,
		AppName:   cmd.AppName,
		OS:        cmd.OS,
		Distro:    cmd.Distro,
		CreatedAt: cmd.CreatedAt,
	})
	if err != nil {
		return fmt.Errorf("marshal document: %w", err)
	}

	res, err := esapi.IndexRequest{
		Index:      i.name,
		DocumentID: cmd.ID.String(),
		Body:       bytes.NewReader(body),
		Refresh:    "wait_for",
	}.Do(ctx, i.es)
	if err != nil {
		return fmt.Errorf("index document: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return responseError("index document", res)
	}
	return nil
}

// Delete removes a document; a missing document is not an error.
func (i *Index) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := esapi.DeleteRequest{Index: i.name, DocumentID: id.String()}.Do(ctx, i.es)
	if err != nil {
		return fmt.Errorf("delete document: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() && res.StatusCode != http.StatusNotFound {
		return responseError("delete document", res)
	}
	return nil
}

type searchResponse struct {
	Hits struct {
		Hits []struct {
			Source Document `json:"_source"`
		} `json:"hits"`
	} `json:"hits"`
}

var wildcardEscaper = strings.NewReplacer(`\`, `\\`, `*`, `\*`, `?`, `\?`)

// Search returns the caller's commands whose app name or command text contains
// q, ignoring case, newest first.
func (i *Index) Search(ctx context.Context, userID uuid.UUID, q string, limit int) ([]models.Command, error) {
	pattern := "*" + wildcardEscaper.Replace(strings.TrimSpace(q)) + "*"
	contains := func(field string) map[string]any {
		return map[string]any{"wildcard": map[string]any{
			field: map[string]any{"value": pattern, "case_insensitive": true},
		}}
	}
	query := map[string]any{
		"query": map[string]any{
			"bool": map[string]any{
				"filter": []any{
					map[string]any{"term": map[string]any{"userId": userID.String()}},
				},
				"should":               []any{contains("appName.raw"), contains("command.raw")},
				"minimum_should_match": 1,
			},
		},
		"sort": []any{map[string]any{"createdAt": "desc"}},
	}
	body, err := json.Marshal(query)
	if err != nil {
		return nil, fmt.Errorf("marshal query: %w", err)
	}

	size := limit
	res, err := esapi.SearchRequest{
		Index: []string{i.name},
		Body:  bytes.NewReader(body),
		Size:  &size,
	}.Do(ctx, i.es)
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return nil, responseError("search", res)
	}

	var sr searchResponse
	if err := json.NewDecoder(res.Body).Decode(&sr); err != nil {
		return nil, fmt.Errorf("decode search response: %w", err)
	}

	out := make([]models.Command, 0, len(sr.Hits.Hits))
	for _, h := range sr.Hits.Hits {
		cmd, err := h.Source.toCommand()
		if err != nil {
			continue
		}
		out = append(out, cmd)
	}
	return out, nil
}

func (d Document) toCommand() (models.Command, error) {
	id, err := uuid.Parse(d.ID)
	if err != nil {
		return models.Command{}, err
	}
	uid, err := uuid.Parse(d.UserID)
	if err != nil {
		return models.Command{}, err
	}
	return models.Command{
		ID:        id,
		UserID:    uid,
		Command:   d.Command,
		AppName:   d.AppName,
		OS:        d.OS,
		Distro:    d.Distro,
		CreatedAt: d.CreatedAt,
		UpdatedAt: d.CreatedAt,
	}, nil
}

func responseError(op string, res *esapi.Response) error {
	b, _ := io.ReadAll(io.LimitReader(res.Body, 4096))
	return fmt.Errorf("elasticsearch %s: %s: %s", op, res.Status(), bytes.TrimSpace(b))
}
