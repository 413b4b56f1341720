package web

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/evcraddock/sharebnb/internal/auth"
	"github.com/evcraddock/sharebnb/internal/db"
	"github.com/evcraddock/sharebnb/internal/metrics"
	"github.com/evcraddock/sharebnb/internal/storage"
	"github.com/evcraddock/sharebnb/internal/user"
)

// fakeUploader records uploads and returns a URL under a fake bucket.
type fakeUploader struct {
	mu    sync.Mutex
	files []storage.File
	err   error
}

func (f *fakeUploader) Upload(ctx context.Context, file storage.File) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return "", f.err
	}
	f.files = append(f.files, file)
	return "https://photos.example.com/" + file.Name, nil
}

type testEnv struct {
	srv      *Server
	db       *sql.DB
	uploader *fakeUploader
}

func newTestEnv(t *testing.T, devMode bool) *testEnv {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	d, err := db.Open(path)
	require.NoError(t, err, "open db")
	t.Cleanup(func() {
		assert.NoError(t, d.Close())
	})

	uploader := &fakeUploader{}
	srv := NewServer(d, Options{
		Tokens:     auth.NewTokens("test-secret", time.Hour),
		Uploader:   uploader,
		Metrics:    metrics.New(),
		BcryptCost: bcrypt.MinCost,
		DevMode:    devMode,
	})
	return &testEnv{srv: srv, db: d, uploader: uploader}
}

func testServer(t *testing.T) *testEnv {
	t.Helper()
	return newTestEnv(t, false)
}

var testUserCounter int

// addUser registers a user directly and returns it with a valid token.
func (e *testEnv) addUser(t *testing.T, first string, admin bool) (*user.User, string) {
	t.Helper()
	testUserCounter++
	u, err := e.srv.users.Register(context.Background(), user.NewUser{
		FirstName: first,
		LastName:  "Tester",
		Email:     fmt.Sprintf("%s%d@example.com", first, testUserCounter),
		Password:  "password1",
		IsAdmin:   admin,
	})
	require.NoError(t, err)
	token, err := e.srv.tokens.Issue(u.ID, u.IsAdmin)
	require.NoError(t, err)
	return u, token
}

func (e *testEnv) request(t *testing.T, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	reqBody := &bytes.Buffer{}
	if body != nil {
		require.NoError(t, json.NewEncoder(reqBody).Encode(body))
	}

	r := httptest.NewRequest(method, path, reqBody)
	if body != nil {
		r.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		r.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	e.srv.ServeHTTP(w, r)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, dst interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), dst), "body: %s", w.Body.String())
}

// envelope is the decoded error body.
type envelope struct {
	Error struct {
		Message interface{} `json:"message"`
		Status  int         `json:"status"`
	} `json:"error"`
}

func assertError(t *testing.T, w *httptest.ResponseRecorder, code int, message interface{}) {
	t.Helper()
	require.Equal(t, code, w.Code, "body: %s", w.Body.String())
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	var env envelope
	decode(t, w, &env)
	assert.Equal(t, code, env.Error.Status)
	if message != nil {
		assert.Equal(t, message, env.Error.Message)
	}
}

func TestHealthEndpoint(t *testing.T) {
	e := testServer(t)

	w := e.request(t, "GET", "/health", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
}

func TestUnmatchedRoute(t *testing.T) {
	e := testServer(t)

	w := e.request(t, "GET", "/no/such/route", "", nil)
	assertError(t, w, http.StatusNotFound, "Not Found")
}

func TestMethodNotAllowed(t *testing.T) {
	e := testServer(t)

	w := e.request(t, "DELETE", "/listings/1", "", nil)
	assertError(t, w, http.StatusMethodNotAllowed, "Method Not Allowed")
}

func TestCORS(t *testing.T) {
	e := testServer(t)

	t.Run("simple request", func(t *testing.T) {
		w := e.request(t, "GET", "/listings", "", nil)
		assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
	})

	t.Run("preflight", func(t *testing.T) {
		r := httptest.NewRequest("OPTIONS", "/listings", nil)
		r.Header.Set("Origin", "http://app.example.com")
		r.Header.Set("Access-Control-Request-Method", "POST")
		r.Header.Set("Access-Control-Request-Headers", "authorization,content-type")
		w := httptest.NewRecorder()
		e.srv.ServeHTTP(w, r)

		assert.Equal(t, http.StatusNoContent, w.Code)
		assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
		assert.Contains(t, w.Header().Get("Access-Control-Allow-Methods"), "POST")
		assert.Equal(t, "authorization,content-type", w.Header().Get("Access-Control-Allow-Headers"))
		assert.Equal(t, "86400", w.Header().Get("Access-Control-Max-Age"))
	})
}

func TestServerWithoutTokenSigner(t *testing.T) {
	d, err := db.Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { assert.NoError(t, d.Close()) })

	e := &testEnv{srv: NewServer(d, Options{BcryptCost: bcrypt.MinCost}), db: d}
	require.NotNil(t, e.srv.tokens)

	w := e.request(t, http.MethodPost, "/auth/register", "", map[string]interface{}{
		"firstName": "Ada", "lastName": "Lovelace", "email": "ada@example.com", "password": "engine123",
	})
	require.Equal(t, http.StatusCreated, w.Code, "body: %s", w.Body.String())
	var registered struct {
		Token string     `json:"token"`
		User  *user.User `json:"user"`
	}
	decode(t, w, &registered)
	require.NotEmpty(t, registered.Token)

	w = e.request(t, http.MethodPost, "/auth/token", "", map[string]string{
		"email": "ada@example.com", "password": "engine123",
	})
	require.Equal(t, http.StatusOK, w.Code, "body: %s", w.Body.String())

	w = e.request(t, http.MethodGet, fmt.Sprintf("/messages/to/%d", registered.User.ID), registered.Token, nil)
	assert.Equal(t, http.StatusOK, w.Code, "body: %s", w.Body.String())
}

func TestMetricsEndpoint(t *testing.T) {
	e := testServer(t)
	e.request(t, "GET", "/health", "", nil)
	e.request(t, "GET", "/listings/999", "", nil)

	w := e.request(t, "GET", "/metrics", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, `http_requests_total{method="GET",route="/health",status="200"} 1`)
	assert.Contains(t, body, `route="/listings/{id}",status="404"} 1`)
}

func TestMetricsDisabled(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")
	d, err := db.Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { assert.NoError(t, d.Close()) })

	srv := NewServer(d, Options{Tokens: auth.NewTokens("x", time.Hour), BcryptCost: bcrypt.MinCost})
	w := httptest.NewRecorder()
	srv.ServeHTTP(w, httptest.NewRequest("GET", "/metrics", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRecovererReturnsEnvelope(t *testing.T) {
	e := testServer(t)
	h := e.srv.recoverer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("kaboom")
	}))

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest("GET", "/anything", nil))
	assertError(t, w, http.StatusInternalServerError, "Internal Server Error")
}

func TestAuthenticateIgnoresBadTokens(t *testing.T) {
	e := testServer(t)

	for _, header := range []string{"", "Bearer", "Basic abc", "Bearer not-a-jwt"} {
		t.Run(header, func(t *testing.T) {
			r := httptest.NewRequest("POST", "/messages", bytes.NewBufferString(`{}`))
			if header != "" {
				r.Header.Set("Authorization", header)
			}
			w := httptest.NewRecorder()
			e.srv.ServeHTTP(w, r)
			assertError(t, w, http.StatusUnauthorized, "Unauthorized")
		})
	}
}
