package transporthttp

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vaultline/lockbox/document"
	"github.com/vaultline/lockbox/errs"
	"github.com/vaultline/lockbox/masterkey"
)

func TestGetMasterKeyNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	tr := New("acct-1", WithBaseURL(srv.URL))
	_, err := tr.GetMasterKey(t.Context())
	assert.ErrorIs(t, err, errs.ErrNotFound)
}

func TestGetMasterKeySuccess(t *testing.T) {
	want := &masterkey.WrappedMasterKey{
		Header:       masterkey.WrappedHeader{Alg: "PBES2-HS512+A256KW", P2C: 4096, P2S: "salt"},
		EncryptedKey: "cipher",
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/acct-1/master-key", r.URL.Path)
		_ = json.NewEncoder(w).Encode(want)
	}))
	defer srv.Close()

	tr := New("acct-1", WithBaseURL(srv.URL))
	got, err := tr.GetMasterKey(t.Context())
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestPutMasterKeyIfAbsentDuplicate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotModified)
	}))
	defer srv.Close()

	tr := New("acct-1", WithBaseURL(srv.URL))
	err := tr.PutMasterKeyIfAbsent(t.Context(), &masterkey.WrappedMasterKey{})
	assert.ErrorIs(t, err, errs.ErrDuplicate)
}

func TestPostDocumentConflict(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
	}))
	defer srv.Close()

	tr := New("acct-1", WithBaseURL(srv.URL))
	err := tr.PostDocument(t.Context(), &document.EncryptedDocument{ID: "x"})
	assert.ErrorIs(t, err, errs.ErrDuplicate)
}

func TestDeleteDocumentNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	tr := New("acct-1", WithBaseURL(srv.URL))
	ok, err := tr.DeleteDocument(t.Context(), "x")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestDeleteDocumentSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/acct-1/documents/x", r.URL.Path)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	tr := New("acct-1", WithBaseURL(srv.URL))
	ok, err := tr.DeleteDocument(t.Context(), "x")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestQueryRoundTrip(t *testing.T) {
	want := []*document.EncryptedDocument{{ID: "h1"}, {ID: "h2"}}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/acct-1/query", r.URL.Path)
		_ = json.NewEncoder(w).Encode(want)
	}))
	defer srv.Close()

	tr := New("acct-1", WithBaseURL(srv.URL))
	got, err := tr.Query(t.Context(), nil)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}
