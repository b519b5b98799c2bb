package esign

import (
	"context"
	"crypto/rsa"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/lucasmoreno-dev/devisio-backend/pkg/config"
)

// refreshMargin renews the token slightly before the provider-reported expiry
// so in-flight requests never carry a token about to lapse.
const refreshMargin = 60 * time.Second

// TokenSource issues and caches provider access tokens obtained through the
// JWT grant flow. Safe for concurrent use.
type TokenSource struct {
	cfg        config.ESignConfig
	httpClient *http.Client
	privateKey *rsa.PrivateKey
	now        func() time.Time

	mu        sync.Mutex
	token     string
	expiresAt time.Time
}

// NewTokenSource loads the integration private key and returns a ready source.
func NewTokenSource(cfg config.ESignConfig, httpClient *http.Client) (*TokenSource, error) {
	if cfg.IntegratorKey == "" || cfg.UserID == "" {
		return nil, fmt.Errorf("esign integrator key and user id are required")
	}
	if cfg.PrivateKeyPath == "" {
		return nil, fmt.Errorf("esign private key path is required")
	}

	pemBytes, err := os.ReadFile(cfg.PrivateKeyPath)
	if err != nil {
		return nil, fmt.Errorf("reading esign private key: %w", err)
	}
	key, err := jwt.ParseRSAPrivateKeyFromPEM(pemBytes)
	if err != nil {
		return nil, fmt.Errorf("parsing esign private key: %w", err)
	}

	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.HTTPTimeout}
	}

	return &TokenSource{
		cfg:        cfg,
		httpClient: httpClient,
		privateKey: key,
		now:        time.Now,
	}, nil
}

// Token returns a valid access token, reusing the cached one until it nears
// expiry.
func (ts *TokenSource) Token(ctx context.Context) (string, error) {
	ts.mu.Lock()
	defer ts.mu.Unlock()

	if ts.token != "" && ts.now().Add(refreshMargin).Before(ts.expiresAt) {
		return ts.token, nil
	}

	token, expiresIn, err := ts.requestToken(ctx)
	if err != nil {
		return "", err
	}

	ttl := expiresIn
	if ts.cfg.TokenTTL > 0 && ts.cfg.TokenTTL < ttl {
		ttl = ts.cfg.TokenTTL
	}

	ts.token = token
	ts.expiresAt = ts.now().Add(ttl)
	return ts.token, nil
}

func (ts *TokenSource) requestToken(ctx context.Context) (string, time.Duration, error) {
	assertion, err := ts.buildAssertion()
	if err != nil {
		return "", 0, err
	}

	form := url.Values{}
	form.Set("grant_type", "urn:ietf:params:oauth:grant-type:jwt-bearer")
	form.Set("assertion", assertion)

	endpoint := ts.cfg.ResolvedOAuthBaseURL() + "/oauth/token"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return "", 0, fmt.Errorf("building token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := ts.httpClient.Do(req)
	if err != nil {
		return "", 0, fmt.Errorf("requesting esign token: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", 0, fmt.Errorf("esign token endpoint returned %d", resp.StatusCode)
	}

	var body struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int64  `json:"expires_in"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", 0, fmt.Errorf("decoding esign token response: %w", err)
	}
	if body.AccessToken == "" {
		return "", 0, fmt.Errorf("esign token response missing access_token")
	}

	expiresIn := time.Duration(body.ExpiresIn) * time.Second
	if expiresIn <= 0 {
		expiresIn = time.Hour
	}
	return body.AccessToken, expiresIn, nil
}

func (ts *TokenSource) buildAssertion() (string, error) {
	oauthHost, err := url.Parse(ts.cfg.ResolvedOAuthBaseURL())
	if err != nil {
		return "", fmt.Errorf("parsing oauth base url: %w", err)
	}

	now := ts.now()
	claims := jwt.MapClaims{
		"iss":   ts.cfg.IntegratorKey,
		"sub":   ts.cfg.UserID,
		"aud":   oauthHost.Host,
		"iat":   now.Unix(),
		"exp":   now.Add(time.Hour).Unix(),
		"scope": "signature impersonation",
	}

	assertion, err := jwt.NewWithClaims(jwt.SigningMethodRS256, claims).SignedString(ts.privateKey)
	if err != nil {
		return "", fmt.Errorf("signing esign assertion: %w", err)
	}
	return assertion, nil
}
