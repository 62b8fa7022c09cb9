package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTokenServer(t *testing.T, calls *int32) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/tenant-1/oauth2/v2.0/token", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(calls, 1)
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "client_credentials", r.PostForm.Get("grant_type"))
		assert.Equal(t, "app-1", r.PostForm.Get("client_id"))
		assert.Equal(t, "secret-1", r.PostForm.Get("client_secret"))
		assert.Equal(t, GraphScope, r.PostForm.Get("scope"))

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"access_token": "token-abc",
			"token_type":   "Bearer",
			"expires_in":   3600,
		})
	})
	mux.HandleFunc("/resource", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer token-abc", r.Header.Get("Authorization"))
		w.WriteHeader(http.StatusNoContent)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestClientCredentials_TokenURL(t *testing.T) {
	creds := ClientCredentials{AuthorityURL: "https://login.microsoftonline.com/", TenantID: "abc"}
	assert.Equal(t, "https://login.microsoftonline.com/abc/oauth2/v2.0/token", creds.TokenURL())
}

func TestNewHTTPClient_AttachesAndCachesToken(t *testing.T) {
	var calls int32
	srv := newTokenServer(t, &calls)

	client := NewHTTPClient(context.Background(), ClientCredentials{
		AuthorityURL: srv.URL,
		TenantID:     "tenant-1",
		ClientID:     "app-1",
		ClientSecret: "secret-1",
	}, 5*time.Second)

	for i := 0; i < 3; i++ {
		resp, err := client.Get(srv.URL + "/resource")
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	}
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestNewHTTPClient_TokenFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":"invalid_client"}`))
	}))
	defer srv.Close()

	client := NewHTTPClient(context.Background(), ClientCredentials{AuthorityURL: srv.URL, TenantID: "t", ClientID: "bad"}, 5*time.Second)
	_, err := client.Get(srv.URL + "/resource")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid_client")
}
