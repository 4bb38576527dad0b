package client

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClientNew(t *testing.T) {
	c := New("https://example.com/")

	assert.Equal(t, "https://example.com", c.BaseURL)
	assert.NotNil(t, c.HTTPClient)
	assert.False(t, c.IsAuthenticated())
}

func TestLoginStoresToken(t *testing.T) {
	var gotAuth []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = append(gotAuth, r.Header.Get("Authorization"))
		switch r.URL.Path {
		case "/api/auth/login":
			body, _ := io.ReadAll(r.Body)
			assert.JSONEq(t, `{"email":"a@example.com","password":"secret123"}`, string(body))
			assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
			_, _ = w.Write([]byte(`{"status":"success","token":"tok"}`))
		case "/api/posts/7":
			_, _ = w.Write([]byte(`{"id":7,"title":"t","author":null,"tags":["x"],"comments":[]}`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	c := New(srv.URL)
	require.NoError(t, c.Login("a@example.com", "secret123"))
	assert.True(t, c.IsAuthenticated())

	p, err := c.GetPost(7)
	require.NoError(t, err)
	assert.Equal(t, int64(7), p.ID)
	assert.Nil(t, p.Author)
	assert.Equal(t, []string{"x"}, p.Tags)

	assert.Equal(t, []string{"", "Bearer tok"}, gotAuth)
}

func TestAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/plain" {
			w.WriteHeader(http.StatusBadGateway)
			_, _ = w.Write([]byte("upstream down\n"))
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"success":false,"status":"fail","message":"No token provided"}`))
	}))
	defer srv.Close()

	c := New(srv.URL)
	_, err := c.ListPosts(ListOptions{})
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusForbidden, apiErr.StatusCode)
	assert.Equal(t, "fail", apiErr.Status)
	assert.Equal(t, "No token provided", apiErr.Message)
	assert.Equal(t, "403: No token provided", err.Error())

	// Wrapped errors keep their status.
	err = c.Login("a@example.com", "secret123")
	assert.Equal(t, http.StatusForbidden, StatusCode(err))

	err = c.do(http.MethodGet, "/plain", nil, nil)
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, "upstream down", apiErr.Message)

	assert.Zero(t, StatusCode(errors.New("boom")))
}

func TestListOptionsQuery(t *testing.T) {
	var queries []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		queries = append(queries, r.URL.Path+"?"+r.URL.RawQuery)
		_, _ = w.Write([]byte(`{"status":"success","results":0,"data":[]}`))
	}))
	defer srv.Close()

	c := New(srv.URL)
	_, err := c.ListPosts(ListOptions{})
	require.NoError(t, err)
	_, err = c.ListPosts(ListOptions{Page: 2, Limit: 5, Author: "u-1", Tags: []string{"go", "web"}})
	require.NoError(t, err)
	_, err = c.SearchPosts("hello world", 0, 0)
	require.NoError(t, err)
	_, err = c.ListUsers(3, 0)
	require.NoError(t, err)

	assert.Equal(t, []string{
		"/api/posts?",
		"/api/posts?author=u-1&limit=5&page=2&tags=go%2Cweb",
		"/api/posts/search?query=hello+world",
		"/api/users?page=3",
	}, queries)
}
