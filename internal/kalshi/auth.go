package kalshi

import (
	"bytes"
	"context"
	"crypto"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"crypto/x509"
	"encoding/base64"
	"encoding/json"
	"encoding/pem"
	"io"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"
)

// Auth produces the headers that authenticate one upstream request. The path
// argument is the full request path as the exchange sees it, without the
// query string. Implementations may perform network calls of their own.
type Auth interface {
	Headers(ctx context.Context, method, path string) (http.Header, error)
}

// sessionTTL is deliberately shorter than the ~24h the exchange grants, so a
// token is always refreshed before the server side can expire it mid-flight.
const sessionTTL = 23 * time.Hour

// SessionAuth logs in with email/password once and reuses the bearer token
// until it nears expiry. Concurrent callers may race to refresh; the worst
// case is a redundant login, which is idempotent.
type SessionAuth struct {
	email    string
	password string
	loginURL string
	client   *http.Client
	now      func() time.Time

	mu     sync.Mutex
	token  string
	expiry time.Time
}

// NewSessionAuth builds the session-token strategy. baseURL is the API root
// the login endpoint hangs off of, e.g. "https://.../trade-api/v2".
func NewSessionAuth(baseURL, email, password string, client *http.Client) *SessionAuth {
	if client == nil {
		client = http.DefaultClient
	}
	return &SessionAuth{
		email:    email,
		password: password,
		loginURL: strings.TrimRight(baseURL, "/") + "/login",
		client:   client,
		now:      time.Now,
	}
}

// Headers returns a bearer Authorization header, logging in first if the
// cached token is absent or expired.
func (a *SessionAuth) Headers(ctx context.Context, _, _ string) (http.Header, error) {
	token, err := a.bearer(ctx)
	if err != nil {
		return nil, err
	}
	h := http.Header{}
	h.Set("Authorization", "Bearer "+token)
	return h, nil
}

func (a *SessionAuth) bearer(ctx context.Context) (string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.token != "" && a.now().Before(a.expiry) {
		return a.token, nil
	}

	payload, err := json.Marshal(map[string]string{
		"email":    a.email,
		"password": a.password,
	})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.loginURL, bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.client.Do(req)
	if err != nil {
		return "", &AuthError{Body: err.Error()}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &AuthError{Status: resp.StatusCode, Body: err.Error()}
	}
	if resp.StatusCode != http.StatusOK {
		return "", &AuthError{Status: resp.StatusCode, Body: string(body)}
	}

	var parsed struct {
		Token string `json:"token"`
	}
	if err := json.Unmarshal(body, &parsed); err != nil || parsed.Token == "" {
		return "", &AuthError{Status: resp.StatusCode, Body: "login response missing token"}
	}

	a.token = parsed.Token
	a.expiry = a.now().Add(sessionTTL)
	return a.token, nil
}

// SignatureAuth signs every request with RSA-PSS over
// timestamp+METHOD+path (query string stripped) and emits the exchange's
// three access headers. It holds no per-request state.
type SignatureAuth struct {
	keyID string
	key   *rsa.PrivateKey
	now   func() time.Time
}

// NewSignatureAuth parses the PEM private key and builds the signature
// strategy. A key that is not well-formed PEM is a *ConfigError.
func NewSignatureAuth(keyID, pemKey string) (*SignatureAuth, error) {
	key, err := parsePrivateKey(pemKey)
	if err != nil {
		return nil, err
	}
	return &SignatureAuth{keyID: keyID, key: key, now: time.Now}, nil
}

func parsePrivateKey(raw string) (*rsa.PrivateKey, error) {
	// Deployment environments tend to store the key with literal "\n"
	// escapes; normalize before parsing.
	raw = strings.ReplaceAll(raw, `\n`, "\n")
	if !strings.HasPrefix(raw, "-----BEGIN") {
		return nil, &ConfigError{Reason: "private key is not PEM encoded"}
	}

	block, _ := pem.Decode([]byte(raw))
	if block == nil {
		return nil, &ConfigError{Reason: "private key PEM block is malformed"}
	}

	if parsed, err := x509.ParsePKCS8PrivateKey(block.Bytes); err == nil {
		key, ok := parsed.(*rsa.PrivateKey)
		if !ok {
			return nil, &ConfigError{Reason: "private key is not an RSA key"}
		}
		return key, nil
	}

	key, err := x509.ParsePKCS1PrivateKey(block.Bytes)
	if err != nil {
		return nil, &ConfigError{Reason: "private key cannot be parsed: " + err.Error()}
	}
	return key, nil
}

// Headers signs the request and returns the KALSHI-ACCESS-* header set.
func (a *SignatureAuth) Headers(_ context.Context, method, path string) (http.Header, error) {
	timestamp := strconv.FormatInt(a.now().UnixMilli(), 10)
	signature, err := a.sign(timestamp, method, path)
	if err != nil {
		return nil, err
	}

	h := http.Header{}
	h.Set("KALSHI-ACCESS-KEY", a.keyID)
	h.Set("KALSHI-ACCESS-SIGNATURE", signature)
	h.Set("KALSHI-ACCESS-TIMESTAMP", timestamp)
	return h, nil
}

func (a *SignatureAuth) sign(timestamp, method, path string) (string, error) {
	if i := strings.IndexByte(path, '?'); i >= 0 {
		path = path[:i]
	}
	digest := sha256.Sum256([]byte(timestamp + method + path))

	signature, err := rsa.SignPSS(rand.Reader, a.key, crypto.SHA256, digest[:], &rsa.PSSOptions{
		SaltLength: rsa.PSSSaltLengthEqualsHash,
	})
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(signature), nil
}
