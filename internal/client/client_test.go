package client

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"applitrack/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeGateway answers like the gateway for one user with token "tok".
type fakeGateway struct {
	mu    sync.Mutex
	posts []map[string]any
}

func (g *fakeGateway) handler(t *testing.T) http.Handler {
	mux := http.NewServeMux()
	writeJSON := func(w http.ResponseWriter, status int, v any) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(v)
	}
	authorized := func(r *http.Request) bool {
		return r.Header.Get("Authorization") == "Bearer tok"
	}

	mux.HandleFunc("POST /signup", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		if body["email"] == "" {
			writeJSON(w, 400, map[string]string{"error": "Validation error: Missing required fields"})
			return
		}
		writeJSON(w, 201, map[string]any{
			"message": "Signup successful",
			"user":    map[string]any{"id": "u1", "email": body["email"]},
		})
	})
	mux.HandleFunc("POST /login", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		if body["password"] != "pw123456" {
			writeJSON(w, 400, map[string]string{"error": "Login failed"})
			return
		}
		writeJSON(w, 200, map[string]any{
			"authData": map[string]any{"token": "tok", "record": map[string]any{"id": "u1"}},
		})
	})
	mux.HandleFunc("GET /posts", func(w http.ResponseWriter, r *http.Request) {
		if !authorized(r) {
			writeJSON(w, 401, map[string]string{"error": "Unauthorized"})
			return
		}
		g.mu.Lock()
		defer g.mu.Unlock()
		posts := g.posts
		if posts == nil {
			posts = []map[string]any{}
		}
		writeJSON(w, 200, map[string]any{"posts": posts})
	})
	mux.HandleFunc("POST /createPost", func(w http.ResponseWriter, r *http.Request) {
		if !authorized(r) {
			writeJSON(w, 401, map[string]string{"error": "Unauthorized"})
			return
		}
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		body["id"] = "p1"
		g.mu.Lock()
		g.posts = append(g.posts, body)
		g.mu.Unlock()
		writeJSON(w, 201, map[string]any{"message": "Post created successfully", "post": body})
	})
	mux.HandleFunc("POST /requestPasswordReset", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	return mux
}

func newTestSession(t *testing.T) (*Session, *State, *TokenStore) {
	t.Helper()
	srv := httptest.NewServer((&fakeGateway{}).handler(t))
	t.Cleanup(srv.Close)

	state := &State{}
	store := NewTokenStore(filepath.Join(t.TempDir(), "session.json"))
	return NewSession(New(srv.URL), store, state.Setters()), state, store
}

func TestClient_Errors(t *testing.T) {
	srv := httptest.NewServer((&fakeGateway{}).handler(t))
	defer srv.Close()
	c := New(srv.URL)
	ctx := context.Background()

	_, err := c.Login(ctx, "a@b.com", "wrong")
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, 400, apiErr.Status)
	assert.Equal(t, "Login failed", apiErr.Message)

	_, err = c.Posts(ctx, "other")
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, 401, apiErr.Status)
	assert.Equal(t, "Unauthorized", apiErr.Message)

	user, err := c.Signup(ctx, "a@b.com", "pw123456", "pw123456")
	require.NoError(t, err)
	assert.Equal(t, "u1", user.ID)

	assert.NoError(t, c.RequestPasswordReset(ctx, "a@b.com"))
}

func TestSession_Flow(t *testing.T) {
	sess, state, store := newTestSession(t)
	ctx := context.Background()

	require.NoError(t, sess.Restore())
	assert.False(t, state.Authenticated)
	assert.ErrorIs(t, sess.Refresh(ctx), ErrNotLoggedIn)

	require.NoError(t, sess.Login(ctx, "a@b.com", "pw123456"))
	assert.True(t, state.Authenticated)

	token, uid, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, "tok", token)
	assert.Equal(t, "u1", uid)

	require.NoError(t, sess.Refresh(ctx))
	assert.Empty(t, state.Jobs)

	created, err := sess.AddJob(ctx, models.JobApplication{
		Company:  "Acme",
		Position: "Engineer",
		Status:   models.StatusInterview,
	})
	require.NoError(t, err)
	assert.Equal(t, "u1", created.User)
	require.Len(t, state.Jobs, 1)
	assert.Equal(t, "Acme", state.Jobs[0].Company)
	assert.Equal(t, models.StatusInterview, state.Jobs[0].Status)

	require.NoError(t, sess.Logout())
	assert.False(t, state.Authenticated)
	assert.Nil(t, state.Jobs)

	token, _, err = store.Load()
	require.NoError(t, err)
	assert.Empty(t, token)
}

func TestSession_LoginFailureKeepsState(t *testing.T) {
	sess, state, store := newTestSession(t)

	err := sess.Login(context.Background(), "a@b.com", "wrong")
	require.Error(t, err)
	assert.False(t, state.Authenticated)

	token, _, err := store.Load()
	require.NoError(t, err)
	assert.Empty(t, token)
}

func TestTokenStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "session.json")
	store := NewTokenStore(path)

	require.NoError(t, store.Save("abc", "u1"))

	var raw map[string]string
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(data, &raw))
	assert.Equal(t, "abc", raw[TokenKey])

	require.NoError(t, store.Clear())
	require.NoError(t, store.Clear(), "clearing twice is fine")
}

func TestStatusCounts(t *testing.T) {
	jobs := []models.JobApplication{
		{Status: models.StatusApplied},
		{Status: models.StatusApplied},
		{Status: models.StatusOffer},
		{Status: models.StatusGhosted},
		{Status: models.JobStatus(42)},
	}

	counts := StatusCounts(jobs)
	require.Len(t, counts, len(models.JobStatuses))
	for i, c := range counts {
		assert.Equal(t, models.JobStatuses[i], c.Status)
	}
	assert.Equal(t, 2, counts[0].Count)
	assert.Equal(t, 0, counts[1].Count)
	assert.Equal(t, 1, counts[4].Count)
	assert.Equal(t, 1, counts[6].Count)

	assert.Len(t, StatusCounts(nil), 7)
}

func TestNew_BaseURL(t *testing.T) {
	assert.Equal(t, DefaultBaseURL, New("").http.BaseURL)
	assert.Equal(t, DefaultBaseURL, New("  ").http.BaseURL)
	assert.Equal(t, "https://api.applitrack.no", New("https://api.applitrack.no/").http.BaseURL)
}
