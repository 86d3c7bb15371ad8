package oauth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

func newFakeGoogle(t *testing.T) (*GoogleProvider, *httptest.Server) {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		if r.Form.Get("code") != "good-code" {
			w.WriteHeader(http.StatusBadRequest)
			json.NewEncoder(w).Encode(map[string]string{"error": "invalid_grant"})
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"access_token": "at-123",
			"token_type":   "Bearer",
			"expires_in":   3600,
		})
	})
	mux.HandleFunc("/userinfo", func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "Bearer at-123", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{
			"id":    "g123",
			"email": "a@x.com",
			"name":  "Alice",
		})
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	p := NewGoogleProvider("cid", "csecret", "http://localhost/callback")
	p.config.Endpoint = oauth2.Endpoint{
		AuthURL:  srv.URL + "/auth",
		TokenURL: srv.URL + "/token",
	}
	p.userinfoURL = srv.URL + "/userinfo"
	return p, srv
}

func TestAuthCodeURLCarriesState(t *testing.T) {
	p, srv := newFakeGoogle(t)

	raw := p.AuthCodeURL("state-abc")
	parsed, err := url.Parse(raw)
	require.NoError(t, err)
	require.Equal(t, srv.URL+"/auth", parsed.Scheme+"://"+parsed.Host+parsed.Path)
	require.Equal(t, "state-abc", parsed.Query().Get("state"))
	require.Equal(t, "cid", parsed.Query().Get("client_id"))
}

func TestExchangeFetchesIdentity(t *testing.T) {
	p, _ := newFakeGoogle(t)

	identity, err := p.Exchange(context.Background(), "good-code")
	require.NoError(t, err)
	require.Equal(t, "google", identity.Provider)
	require.Equal(t, "g123", identity.SubjectID)
	require.Equal(t, "a@x.com", identity.Email)
	require.Equal(t, "Alice", identity.DisplayName)
}

func TestExchangeRejectsBadCode(t *testing.T) {
	p, _ := newFakeGoogle(t)

	_, err := p.Exchange(context.Background(), "bad-code")
	require.Error(t, err)
}
