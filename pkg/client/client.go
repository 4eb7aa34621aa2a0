package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const HeaderRateLimitReset = "X-RateLimit-Reset"

type Client struct {
	baseURL    string
	httpClient *http.Client
	session    *Session
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

func New(baseURL string, session *Session, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		session: session,
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
			Transport: &http.Transport{
				MaxIdleConns:        10,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

func (c *Client) Session() *Session { return c.session }

// APIError is a non-2xx answer from the backend.
type APIError struct {
	Status  int
	Message string
	// RateLimitReset is set on 429 answers that carry a reset time.
	RateLimitReset time.Time
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error %d: %s", e.Status, e.Message)
}

type Command struct {
	ID        string    `json:"_id"`
	UserID    string    `json:"user"`
	Command   string    `json:"command"`
	AppName   string    `json:"appName"`
	OS        string    `json:"os"`
	Distro    string    `json:"distro,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type Generated struct {
	Command string `json:"command"`
	AppName string `json:"appName"`
	OS      string `json:"os"`
	Saved   bool   `json:"saved"`
}

type Profile struct {
	ID            string    `json:"_id"`
	Username      string    `json:"username"`
	Email         string    `json:"email"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
	TotalCommands int       `json:"totalCommands"`
	Commands      []Command `json:"commands"`
}

type sessionResponse struct {
	Message string          `json:"message"`
	User    json.RawMessage `json:"user"`
	Token   string          `json:"token"`
}

type errorBody struct {
	Message string `json:"message"`
	Error   string `json:"error"`
}

// do sends one request. withToken attaches the stored bearer token when there is one.
// Any 401 clears the stored session.
func (c *Client) do(ctx context.Context, method, path string, body any, withToken bool, out any) error {
	return c.send(ctx, method, path, body, withToken, true, out)
}

func (c *Client) send(ctx context.Context, method, path string, body any, withToken, clearOn401 bool, out any) error {
	var rdr io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		rdr = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, rdr)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if withToken {
		if tok := c.session.Token(); tok != "" {
			req.Header.Set("Authorization", "Bearer "+tok)
		}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{Status: resp.StatusCode, Message: errorMessage(resp.StatusCode, raw)}
		if resp.StatusCode == http.StatusTooManyRequests {
			apiErr.RateLimitReset = parseReset(resp.Header.Get(HeaderRateLimitReset))
		}
		if resp.StatusCode == http.StatusUnauthorized && clearOn401 {
			_ = c.session.Clear(ctx, true)
		}
		return apiErr
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func errorMessage(status int, raw []byte) string {
	var eb errorBody
	if json.Unmarshal(raw, &eb) == nil {
		if eb.Message != "" {
			return eb.Message
		}
		if eb.Error != "" {
			return eb.Error
		}
	}
	return http.StatusText(status)
}

func parseReset(v string) time.Time {
	ms, err := strconv.ParseInt(v, 10, 64)
	if err != nil || ms <= 0 {
		return time.Time{}
	}
	return time.UnixMilli(ms)
}

// Health returns the checker message of the backend.
func (c *Client) Health(ctx context.Context) (string, error) {
	var out struct {
		Message string `json:"message"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/user/checker", nil, false, &out); err != nil {
		return "", err
	}
	return out.Message, nil
}

func (c *Client) Register(ctx context.Context, username, email, password string) (*User, error) {
	var out sessionResponse
	body := map[string]string{"username": username, "email": email, "password": password}
	if err := c.do(ctx, http.MethodPost, "/api/user/register", body, false, &out); err != nil {
		return nil, err
	}

	var reg struct {
		ID       string `json:"id"`
		UserName string `json:"userName"`
	}
	if err := json.Unmarshal(out.User, &reg); err != nil {
		return nil, fmt.Errorf("decode user: %w", err)
	}
	u := User{ID: reg.ID, Username: reg.UserName, Email: email}
	if err := c.session.Set(ctx, out.Token, u); err != nil {
		return nil, err
	}
	return &u, nil
}

func (c *Client) Login(ctx context.Context, email, password string) (*User, error) {
	var out sessionResponse
	body := map[string]string{"email": email, "password": password}
	if err := c.do(ctx, http.MethodPost, "/api/user/login", body, false, &out); err != nil {
		return nil, err
	}

	var u User
	if err := json.Unmarshal(out.User, &u); err != nil {
		return nil, fmt.Errorf("decode user: %w", err)
	}
	if err := c.session.Set(ctx, out.Token, u); err != nil {
		return nil, err
	}
	return &u, nil
}

// Logout always clears the local session; the server error, if any, is returned afterwards.
func (c *Client) Logout(ctx context.Context) error {
	var callErr error
	if c.session.Authenticated() {
		callErr = c.send(ctx, http.MethodGet, "/api/user/logout", nil, true, false, nil)
	}
	if err := c.session.Clear(ctx, false); err != nil {
		return err
	}
	return callErr
}

func (c *Client) MyCommands(ctx context.Context) ([]Command, error) {
	var out struct {
		UserCommands []Command `json:"userCommands"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/user/getMyCommand", nil, true, &out); err != nil {
		return nil, err
	}
	return out.UserCommands, nil
}

func (c *Client) Profile(ctx context.Context) (*Profile, error) {
	var out struct {
		Profile Profile `json:"profile"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/user/getFullProfile", nil, true, &out); err != nil {
		return nil, err
	}
	return &out.Profile, nil
}

func (c *Client) SearchCommands(ctx context.Context, q string) ([]Command, error) {
	var out struct {
		Results []Command `json:"results"`
	}
	path := "/api/user/searchCommands?q=" + url.QueryEscape(q)
	if err := c.do(ctx, http.MethodGet, path, nil, true, &out); err != nil {
		return nil, err
	}
	return out.Results, nil
}

// GenerateGuest never sends the stored token.
func (c *Client) GenerateGuest(ctx context.Context, appName, os string) (*Generated, error) {
	var out Generated
	body := map[string]string{"appName": appName, "os": os}
	if err := c.do(ctx, http.MethodPost, "/api/command/forGuest", body, false, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) GenerateAuthenticated(ctx context.Context, appName, os string) (*Generated, error) {
	var out Generated
	body := map[string]string{"appName": appName, "os": os}
	if err := c.do(ctx, http.MethodPost, "/api/command/authenticUserCommand", body, true, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) DeleteCommand(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/api/command/delete/"+url.PathEscape(id), nil, true, nil)
}
