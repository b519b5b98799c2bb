package esign

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/lucasmoreno-dev/devisio-backend/pkg/config"
)

func newTestTokenSource(t *testing.T, serverURL string, now func() time.Time) (*TokenSource, *int64) {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	var calls int64
	cfg := config.ESignConfig{
		IntegratorKey: "integrator-key",
		UserID:        "user-id",
		AccountID:     "account-id",
		OAuthBaseURL:  serverURL,
		TokenTTL:      58 * time.Minute,
	}
	ts := &TokenSource{
		cfg:        cfg,
		httpClient: http.DefaultClient,
		privateKey: key,
		now:        now,
	}
	return ts, &calls
}

func TestTokenSource_CachesUntilExpiry(t *testing.T) {
	var calls int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(&calls, 1)
		require.Equal(t, "/oauth/token", r.URL.Path)
		require.NoError(t, r.ParseForm())
		require.Equal(t, "urn:ietf:params:oauth:grant-type:jwt-bearer", r.FormValue("grant_type"))
		require.NotEmpty(t, r.FormValue("assertion"))
		_ = json.NewEncoder(w).Encode(map[string]any{
			"access_token": "token-1",
			"expires_in":   3600,
		})
	}))
	defer server.Close()

	current := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	ts, _ := newTestTokenSource(t, server.URL, func() time.Time { return current })

	ctx := context.Background()
	token, err := ts.Token(ctx)
	require.NoError(t, err)
	require.Equal(t, "token-1", token)
	require.Equal(t, int64(1), atomic.LoadInt64(&calls))

	token, err = ts.Token(ctx)
	require.NoError(t, err)
	require.Equal(t, "token-1", token)
	require.Equal(t, int64(1), atomic.LoadInt64(&calls), "cached token should be reused")

	// Jump past the cached expiry; the next call must hit the endpoint again.
	current = current.Add(59 * time.Minute)
	_, err = ts.Token(ctx)
	require.NoError(t, err)
	require.Equal(t, int64(2), atomic.LoadInt64(&calls))
}

func TestTokenSource_ErrorOnBadStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	ts, _ := newTestTokenSource(t, server.URL, time.Now)
	_, err := ts.Token(context.Background())
	require.Error(t, err)
	require.Contains(t, err.Error(), "401")
}

func TestClient_CreateEnvelope(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v2.1/accounts/account-id/envelopes", r.URL.Path)
		require.Equal(t, "Bearer stub-token", r.Header.Get("Authorization"))

		var definition map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&definition))
		require.Equal(t, "sent", definition["status"])
		require.NotNil(t, definition["eventNotification"])

		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(map[string]any{"envelopeId": "env-123"})
	}))
	defer server.Close()

	client := NewClient(config.ESignConfig{
		AccountID:   "account-id",
		APIBaseURL:  server.URL,
		HTTPTimeout: 5 * time.Second,
	}, stubTokens{}, nil)

	envelopeID, err := client.CreateEnvelope(context.Background(), EnvelopeSpec{
		EmailSubject: "Devis D-2025-001",
		DocumentName: "devis.pdf",
		DocumentPDF:  []byte("%PDF-1.4 stub"),
		SignerName:   "Claire Martin",
		SignerEmail:  "claire@example.fr",
		WebhookURL:   "https://api.example.fr/webhooks/signing",
	})
	require.NoError(t, err)
	require.Equal(t, "env-123", envelopeID)
}

type stubTokens struct{}

func (stubTokens) Token(context.Context) (string, error) { return "stub-token", nil }
