package githubclient

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"bithub/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, mux *http.ServeMux) *Client {
	t.Helper()

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	c, err := New("token", srv.URL)
	require.NoError(t, err)
	return c
}

func TestRepository(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/repos/acme/widget", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer token", r.Header.Get("Authorization"))
		_, _ = io.WriteString(w, `{"name":"widget","html_url":"https://github.com/acme/widget","description":"Widgets","owner":{"login":"acme"}}`)
	})

	c := newTestClient(t, mux)

	repo, err := c.Repository(context.Background(), "https://github.com/acme/widget")
	require.NoError(t, err)
	assert.Equal(t, models.Repository{
		URL:         "https://github.com/acme/widget",
		HTMLURL:     "https://github.com/acme/widget",
		Name:        "widget",
		Owner:       "acme",
		Description: "Widgets",
	}, repo)
}

func TestCommitDescription(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/repos/acme/widget/git/commits/6a8e2c4f0b", func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"sha":"6a8e2c4f0b","message":"Fix the parser"}`)
	})

	c := newTestClient(t, mux)

	desc, err := c.CommitDescription(context.Background(), "https://github.com/acme/widget/commit/6a8e2c4f0b")
	require.NoError(t, err)
	assert.Equal(t, "Fix the parser", desc)

	_, err = c.CommitDescription(context.Background(), "https://github.com/acme/widget")
	require.ErrorIs(t, err, ErrBadURL)
}

func TestAddCommitComment(t *testing.T) {
	var posted struct {
		Body string `json:"body"`
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/repos/acme/widget/commits/6a8e2c4f0b/comments", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&posted))
		w.WriteHeader(http.StatusCreated)
		_, _ = io.WriteString(w, `{"id":1}`)
	})

	c := newTestClient(t, mux)

	repo := models.PushRepository{URL: "https://github.com/acme/widget", Name: "widget", Owner: models.Author{Name: "acme"}}
	commit := models.Commit{ID: "6a8e2c4f0b"}

	require.NoError(t, c.AddCommitComment(context.Background(), repo, commit, "Thanks!"))
	assert.Equal(t, "Thanks!", posted.Body)
}

func TestAddCommitCommentFallsBackToURL(t *testing.T) {
	called := false

	mux := http.NewServeMux()
	mux.HandleFunc("/repos/acme/widget/commits/abc/comments", func(w http.ResponseWriter, r *http.Request) {
		called = true
		w.WriteHeader(http.StatusCreated)
		_, _ = io.WriteString(w, `{"id":2}`)
	})

	c := newTestClient(t, mux)

	repo := models.PushRepository{URL: "https://github.com/acme/widget"}
	require.NoError(t, c.AddCommitComment(context.Background(), repo, models.Commit{ID: "abc"}, "Thanks!"))
	assert.True(t, called)
}

func TestAddCommitCommentError(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/repos/acme/widget/commits/abc/comments", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_, _ = io.WriteString(w, `{"message":"forbidden"}`)
	})

	c := newTestClient(t, mux)

	repo := models.PushRepository{URL: "https://github.com/acme/widget", Name: "widget", Owner: models.Author{Name: "acme"}}
	require.Error(t, c.AddCommitComment(context.Background(), repo, models.Commit{ID: "abc"}, "Thanks!"))
}
