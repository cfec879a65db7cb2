package store

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/amalieborg/bridal-crm/internal/errors"
)

func TestRestStoreListOrdersByCreationTimeDescending(t *testing.T) {
	var gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query().Get("order")
		assert.Equal(t, "/rest/v1/customers", r.URL.Path)
		assert.Equal(t, "test-key", r.Header.Get("apikey"))
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		rows := []Row{validRow()}
		require.NoError(t, json.NewEncoder(w).Encode(rows))
	}))
	defer srv.Close()

	s := NewRestStore(srv.URL, "test-key", srv.Client())
	rows, err := s.List(context.Background())
	require.NoError(t, err)
	assert.Len(t, rows, 1)
	assert.Equal(t, "created_at.desc", gotQuery)
}

func TestRestStoreSearchEscapesWildcards(t *testing.T) {
	var gotOr string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotOr = r.URL.Query().Get("or")
		assert.Equal(t, "created_at.desc", r.URL.Query().Get("order"))
		_, _ = w.Write([]byte("[]"))
	}))
	defer srv.Close()

	s := NewRestStore(srv.URL, "test-key", srv.Client())
	rows, err := s.Search(context.Background(), "100%_off")
	require.NoError(t, err)
	assert.Empty(t, rows)

	assert.Contains(t, gotOr, `name.ilike.%100\%\_off%`)
	assert.Contains(t, gotOr, "email.ilike.")
	assert.Contains(t, gotOr, "dress.ilike.")
	assert.Contains(t, gotOr, "maker.ilike.")
	assert.Contains(t, gotOr, "notes.ilike.")
}

func TestRestStoreInsertReturnsStoredRow(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "return=representation", r.Header.Get("Prefer"))

		var payload []Row
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		require.Len(t, payload, 1)
		assert.Empty(t, payload[0].ID, "insert payload must not carry a store-managed id")

		stored := payload[0]
		stored.ID = "assigned-id"
		stored.CreatedAt = "2026-03-01T10:00:00Z"
		stored.UpdatedAt = "2026-03-01T10:00:00Z"
		stored.DateAdded = "2026-03-01T10:00:00Z"

		w.WriteHeader(http.StatusCreated)
		require.NoError(t, json.NewEncoder(w).Encode([]Row{stored}))
	}))
	defer srv.Close()

	s := NewRestStore(srv.URL, "test-key", srv.Client())

	r := validRow()
	r.ID = ""
	r.CreatedAt = ""
	r.UpdatedAt = ""
	r.DateAdded = ""

	inserted, err := s.Insert(context.Background(), r)
	require.NoError(t, err)
	assert.Equal(t, "assigned-id", inserted.ID)
	assert.NotEmpty(t, inserted.CreatedAt)
}

func TestRestStoreUpdateTargetsRowAndRefreshesTimestamp(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPatch, r.Method)
		assert.Equal(t, "eq.some-id", r.URL.Query().Get("id"))

		var payload Row
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		assert.NotEmpty(t, payload.UpdatedAt, "update must refresh updated_at")

		payload.ID = "some-id"
		require.NoError(t, json.NewEncoder(w).Encode([]Row{payload}))
	}))
	defer srv.Close()

	s := NewRestStore(srv.URL, "test-key", srv.Client())

	r := validRow()
	r.ID = ""
	updated, err := s.Update(context.Background(), "some-id", r)
	require.NoError(t, err)
	assert.Equal(t, "some-id", updated.ID)
}

func TestRestStoreUpdateMissingRowFails(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("[]"))
	}))
	defer srv.Close()

	s := NewRestStore(srv.URL, "test-key", srv.Client())

	_, err := s.Update(context.Background(), "ghost", validRow())
	require.Error(t, err)

	var stErr *apperrors.StoreError
	require.ErrorAs(t, err, &stErr)
	assert.Equal(t, "update", stErr.Op)
}

func TestRestStoreDelete(t *testing.T) {
	var gotID string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodDelete, r.Method)
		gotID = r.URL.Query().Get("id")
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	s := NewRestStore(srv.URL, "test-key", srv.Client())
	require.NoError(t, s.Delete(context.Background(), "some-id"))
	assert.Equal(t, "eq.some-id", gotID)
}

func TestRestStoreSurfacesBackendFailureAsStoreError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"message":"permission denied for table customers"}`, http.StatusForbidden)
	}))
	defer srv.Close()

	s := NewRestStore(srv.URL, "test-key", srv.Client())

	_, err := s.List(context.Background())
	require.Error(t, err)

	var stErr *apperrors.StoreError
	require.ErrorAs(t, err, &stErr)
	assert.Equal(t, "list", stErr.Op)
	assert.Contains(t, err.Error(), "403")
}
