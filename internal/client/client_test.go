package client

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/evcraddock/sharebnb/internal/auth"
	"github.com/evcraddock/sharebnb/internal/db"
	"github.com/evcraddock/sharebnb/internal/listing"
	"github.com/evcraddock/sharebnb/internal/user"
	"github.com/evcraddock/sharebnb/internal/web"
)

func writeJSON(t *testing.T, w http.ResponseWriter, status int, v interface{}) {
	t.Helper()
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	require.NoError(t, json.NewEncoder(w).Encode(v))
}

func TestListListings(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/listings", r.URL.Path)
		assert.Equal(t, "Bearer testtoken", r.Header.Get("Authorization"))
		writeJSON(t, w, http.StatusOK, map[string]interface{}{
			"listings": []*listing.Summary{{ID: 1, Title: "Loft", City: "Reno"}},
		})
	}))
	defer srv.Close()

	listings, err := New(srv.URL, "testtoken").ListListings(context.Background())
	require.NoError(t, err)
	require.Len(t, listings, 1)
	assert.Equal(t, "Loft", listings[0].Title)
}

func TestSearchListingsEscapesTerm(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/listings/search", r.URL.Path)
		assert.Equal(t, "casa & co", r.URL.Query().Get("q"))
		assert.Empty(t, r.Header.Get("Authorization"))
		writeJSON(t, w, http.StatusOK, map[string]interface{}{"listings": []*listing.Summary{}})
	}))
	defer srv.Close()

	listings, err := New(srv.URL+"/", "").SearchListings(context.Background(), "casa & co")
	require.NoError(t, err)
	assert.Empty(t, listings)
}

func TestGetListingError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, http.StatusNotFound, map[string]interface{}{
			"error": map[string]interface{}{"message": "No listing: 9", "status": 404},
		})
	}))
	defer srv.Close()

	_, err := New(srv.URL, "").GetListing(context.Background(), 9)
	require.Error(t, err)
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusNotFound, apiErr.Status)
	assert.Equal(t, []string{"No listing: 9"}, apiErr.Messages)
	assert.Equal(t, "No listing: 9 (404)", err.Error())
}

func TestErrorMessageList(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, http.StatusBadRequest, map[string]interface{}{
			"error": map[string]interface{}{"message": []string{"a", "b"}, "status": 400},
		})
	}))
	defer srv.Close()

	_, err := New(srv.URL, "").Token(context.Background(), "x", "y")
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, []string{"a", "b"}, apiErr.Messages)
}

func TestErrorWithoutEnvelope(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusBadGateway)
	}))
	defer srv.Close()

	_, err := New(srv.URL, "").ListListings(context.Background())
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, []string{"server error: Bad Gateway"}, apiErr.Messages)
}

func TestNetworkError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := New(url, "").ListListings(context.Background())
	assert.Error(t, err)
}

// TestAgainstServer runs the client against the real API handler.
func TestAgainstServer(t *testing.T) {
	d, err := db.Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { assert.NoError(t, d.Close()) })

	ctx := context.Background()
	host, err := user.NewRepository(d, bcrypt.MinCost).Register(ctx, user.NewUser{
		FirstName: "Hana", LastName: "Host", Email: "hana@example.com", Password: "secret1",
	})
	require.NoError(t, err)
	created, err := listing.NewRepository(d).Create(ctx, listing.NewListing{
		Title: "Loft", City: "Reno", State: "NV", Country: "US", HostID: host.ID, Price: 120, Details: "cozy",
	})
	require.NoError(t, err)

	api := web.NewServer(d, web.Options{Tokens: auth.NewTokens("secret", time.Hour), BcryptCost: bcrypt.MinCost})
	srv := httptest.NewServer(api)
	defer srv.Close()

	c := New(srv.URL, "")
	token, err := c.Token(ctx, "hana@example.com", "secret1")
	require.NoError(t, err)
	assert.NotEmpty(t, token)

	_, err = c.Token(ctx, "hana@example.com", "wrong")
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusUnauthorized, apiErr.Status)

	got, err := c.GetListing(ctx, created.ID)
	require.NoError(t, err)
	require.NotNil(t, got.Host)
	assert.Equal(t, "Hana", got.Host.FirstName)

	found, err := c.SearchListings(ctx, "LOF")
	require.NoError(t, err)
	require.Len(t, found, 1)

	profile, err := c.GetUser(ctx, host.ID)
	require.NoError(t, err)
	require.Len(t, profile.Listings, 1)
}
