// Package client provides a Go client for the Postboard API.
package client

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"
)

// Client is a Postboard API client. Token is sent as a bearer token when set.
type Client struct {
	BaseURL    string
	HTTPClient *http.Client
	Token      string
}

// New creates a new Postboard client.
func New(baseURL string) *Client {
	return &Client{
		BaseURL:    strings.TrimRight(baseURL, "/"),
		HTTPClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// APIError is a non-2xx response.
type APIError struct {
	StatusCode int    `json:"-"`
	Status     string `json:"status"`
	Message    string `json:"message"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%d: %s", e.StatusCode, e.Message)
}

// StatusCode returns the HTTP status of an *APIError, or 0.
func StatusCode(err error) int {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode
	}
	return 0
}

type User struct {
	UID   string `json:"uid"`
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role,omitempty"`
}

type Comment struct {
	Text   string  `json:"text"`
	Author *string `json:"author"`
	Date   string  `json:"date"`
}

type Post struct {
	ID        int64     `json:"id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	Author    *string   `json:"author"`
	Tags      []string  `json:"tags"`
	Comments  []Comment `json:"comments"`
	CreatedAt string    `json:"createdAt"`
	UpdatedAt string    `json:"updatedAt"`
}

type PostPage struct {
	Status      string `json:"status"`
	Results     int    `json:"results"`
	TotalPosts  int    `json:"totalPosts"`
	CurrentPage int    `json:"currentPage"`
	TotalPages  int    `json:"totalPages"`
	Data        []Post `json:"data"`
}

type UserPage struct {
	Status      string `json:"status"`
	Results     int    `json:"results"`
	TotalUsers  int    `json:"totalUsers"`
	CurrentPage int    `json:"currentPage"`
	TotalPages  int    `json:"totalPages"`
	Data        []User `json:"data"`
}

// ListOptions filters GET /api/posts. Zero values are omitted.
type ListOptions struct {
	Page   int
	Limit  int
	Author string
	Tags   []string
}

func (o ListOptions) values() url.Values {
	v := url.Values{}
	if o.Page > 0 {
		v.Set("page", strconv.Itoa(o.Page))
	}
	if o.Limit > 0 {
		v.Set("limit", strconv.Itoa(o.Limit))
	}
	if o.Author != "" {
		v.Set("author", o.Author)
	}
	if len(o.Tags) > 0 {
		v.Set("tags", strings.Join(o.Tags, ","))
	}
	return v
}

// PostUpdate carries the fields to change. Nil fields are left alone.
type PostUpdate struct {
	Title   *string  `json:"title,omitempty"`
	Content *string  `json:"content,omitempty"`
	Tags    []string `json:"tags,omitempty"`
}

type UserUpdate struct {
	Name     *string `json:"name,omitempty"`
	Email    *string `json:"email,omitempty"`
	Password *string `json:"password,omitempty"`
}

// Signup creates an account. It does not log in.
func (c *Client) Signup(name, email, password string) (*User, error) {
	var result struct {
		User User `json:"user"`
	}
	body := map[string]string{"name": name, "email": email, "password": password}
	if err := c.do(http.MethodPost, "/api/auth/signup", body, &result); err != nil {
		return nil, fmt.Errorf("signup: %w", err)
	}
	return &result.User, nil
}

// Login stores the returned token on the client.
func (c *Client) Login(email, password string) error {
	var result struct {
		Token string `json:"token"`
	}
	body := map[string]string{"email": email, "password": password}
	if err := c.do(http.MethodPost, "/api/auth/login", body, &result); err != nil {
		return fmt.Errorf("login: %w", err)
	}
	c.Token = result.Token
	return nil
}

// IsAuthenticated returns true if the client holds a token.
func (c *Client) IsAuthenticated() bool {
	return c.Token != ""
}

func (c *Client) ListPosts(opts ListOptions) (*PostPage, error) {
	var page PostPage
	if err := c.do(http.MethodGet, withQuery("/api/posts", opts.values()), nil, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

func (c *Client) SearchPosts(keyword string, pageNum, limit int) (*PostPage, error) {
	v := ListOptions{Page: pageNum, Limit: limit}.values()
	v.Set("query", keyword)
	var page PostPage
	if err := c.do(http.MethodGet, withQuery("/api/posts/search", v), nil, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

func (c *Client) GetPost(id int64) (*Post, error) {
	var p Post
	if err := c.do(http.MethodGet, fmt.Sprintf("/api/posts/%d", id), nil, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (c *Client) CreatePost(title, content string, tags []string) (*Post, error) {
	body := map[string]any{"title": title, "content": content, "tags": tags}
	var p Post
	if err := c.do(http.MethodPost, "/api/posts", body, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (c *Client) UpdatePost(id int64, upd PostUpdate) (*Post, error) {
	var p Post
	if err := c.do(http.MethodPut, fmt.Sprintf("/api/posts/%d", id), upd, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (c *Client) DeletePost(id int64) error {
	return c.do(http.MethodDelete, fmt.Sprintf("/api/posts/%d", id), nil, nil)
}

func (c *Client) AddComment(postID int64, text string) (*Post, error) {
	var p Post
	if err := c.do(http.MethodPost, fmt.Sprintf("/api/posts/%d/comments", postID), map[string]string{"text": text}, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (c *Client) ListUsers(pageNum, limit int) (*UserPage, error) {
	var page UserPage
	path := withQuery("/api/users", ListOptions{Page: pageNum, Limit: limit}.values())
	if err := c.do(http.MethodGet, path, nil, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// CreateUser needs an admin token.
func (c *Client) CreateUser(name, email, password string) (*User, error) {
	body := map[string]string{"name": name, "email": email, "password": password}
	var u User
	if err := c.do(http.MethodPost, "/api/users", body, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

func (c *Client) GetUser(id int64) (*User, error) {
	var u User
	if err := c.do(http.MethodGet, fmt.Sprintf("/api/users/%d", id), nil, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

func (c *Client) UpdateUser(id int64, upd UserUpdate) (*User, error) {
	var u User
	if err := c.do(http.MethodPut, fmt.Sprintf("/api/users/%d", id), upd, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

func (c *Client) DeleteUser(id int64) error {
	return c.do(http.MethodDelete, fmt.Sprintf("/api/users/%d", id), nil, nil)
}

// Health checks that the server and its store are up.
func (c *Client) Health() error {
	return c.do(http.MethodGet, "/healthz", nil, nil)
}

func withQuery(path string, v url.Values) string {
	if len(v) == 0 {
		return path
	}
	return path + "?" + v.Encode()
}

// do performs a request and decodes a 2xx body into out when non-nil.
func (c *Client) do(method, path string, body, out any) error {
	var bodyReader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return err
		}
		bodyReader = bytes.NewReader(b)
	}

	req, err := http.NewRequest(method, c.BaseURL+path, bodyReader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	if c.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.Token)
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		if json.Unmarshal(respBody, apiErr) != nil || apiErr.Message == "" {
			apiErr.Message = strings.TrimSpace(string(respBody))
		}
		return apiErr
	}
	if out == nil {
		return nil
	}
	return json.Unmarshal(respBody, out)
}

// TestHelper provides utilities for creating authenticated clients in tests.
type TestHelper struct {
	BaseURL string
}

// NewTestHelper creates a new test helper for the given base URL.
func NewTestHelper(baseURL string) *TestHelper {
	return &TestHelper{BaseURL: baseURL}
}

// TestPassword is the password of accounts made by TestHelper.
const TestPassword = "secret123"

// CreateAuthenticatedClient signs up name at <name>@example.com and returns
// a logged in client plus the new user.
func (h *TestHelper) CreateAuthenticatedClient(name string) (*Client, *User, error) {
	return h.CreateAuthenticatedClientWithEmail(name, strings.ToLower(name)+"@example.com")
}

func (h *TestHelper) CreateAuthenticatedClientWithEmail(name, email string) (*Client, *User, error) {
	c := New(h.BaseURL)
	u, err := c.Signup(name, email, TestPassword)
	if err != nil {
		return nil, nil, err
	}
	if err := c.Login(email, TestPassword); err != nil {
		return nil, nil, err
	}
	return c, u, nil
}

// GetToken signs up name and returns just the access token.
func (h *TestHelper) GetToken(name string) (string, error) {
	c, _, err := h.CreateAuthenticatedClient(name)
	if err != nil {
		return "", err
	}
	return c.Token, nil
}
