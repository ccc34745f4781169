package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"

	"github.com/go-playground/validator/v10"
)

// Auth endpoints, relative to the versioned base URL.
const (
	endpointCreate = "/auth/create"
	endpointLogin  = "/auth/login"
)

// ErrAuth is returned when login or registration is rejected by the remote.
var ErrAuth = errors.New("authentication failed")

var validate = validator.New()

// CredentialStore is the secure slot holding the session credential.
type CredentialStore interface {
	Put(secret string) error
	Get() (string, bool)
	Delete() error
}

type credentials struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
}

// Gate owns the session credential used to authorize backend calls. Two
// states: unauthenticated (no token) and authenticated (token held in
// memory, mirrored to the credential store). A failed login or registration
// always leaves the gate unauthenticated.
type Gate struct {
	baseURL    string
	httpClient *http.Client
	store      CredentialStore

	mu    sync.Mutex
	token string
}

// NewGate creates a Gate for the auth API rooted at baseURL. A credential
// left in the store by a previous session is restored, so an app restart
// does not force a fresh login.
func NewGate(httpClient *http.Client, baseURL string, store CredentialStore) *Gate {
	g := &Gate{
		baseURL:    baseURL,
		httpClient: httpClient,
		store:      store,
	}
	if secret, ok := store.Get(); ok {
		g.token = secret
	}
	return g
}

// Login authenticates against the remote endpoint and stores the returned
// credential on success.
func (g *Gate) Login(ctx context.Context, email, password string) error {
	token, err := g.post(ctx, endpointLogin, email, password)
	if err != nil {
		return err
	}
	if token == "" {
		return fmt.Errorf("%w: no credential in response", ErrAuth)
	}

	g.mu.Lock()
	g.token = token
	g.mu.Unlock()

	if err := g.store.Put(token); err != nil {
		return fmt.Errorf("%w: failed to store credential: %v", ErrAuth, err)
	}
	return nil
}

// Register creates the account and then performs an implicit login with the
// same credentials: registration alone does not authenticate. A login
// failure after a successful create leaves the gate unauthenticated.
func (g *Gate) Register(ctx context.Context, email, password string) error {
	if _, err := g.post(ctx, endpointCreate, email, password); err != nil {
		return err
	}
	return g.Login(ctx, email, password)
}

// SignOut deletes the stored credential unconditionally. No network call.
func (g *Gate) SignOut() {
	g.mu.Lock()
	g.token = ""
	g.mu.Unlock()

	// A delete failure leaves a stale secret in the store; it is replaced
	// on the next login, and the in-memory state is already cleared.
	_ = g.store.Delete()
}

// Token returns the current session credential, if authenticated.
func (g *Gate) Token() (string, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.token, g.token != ""
}

// Authenticated reports whether a session credential is held.
func (g *Gate) Authenticated() bool {
	_, ok := g.Token()
	return ok
}

// post sends credentials to an auth endpoint and returns the access token
// from the response, empty if the endpoint answered without one. Remote
// rejections carry the transport error message verbatim.
func (g *Gate) post(ctx context.Context, endpoint, email, password string) (string, error) {
	creds := credentials{Email: email, Password: password}
	if err := validate.Struct(creds); err != nil {
		return "", fmt.Errorf("%w: %v", ErrAuth, err)
	}

	payload, err := json.Marshal(creds)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrAuth, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+endpoint, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrAuth, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrAuth, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrAuth, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("%w: status=%d body=%s", ErrAuth, resp.StatusCode, string(body))
	}

	var tr tokenResponse
	if len(body) > 0 {
		if err := json.Unmarshal(body, &tr); err != nil {
			return "", fmt.Errorf("%w: %v", ErrAuth, err)
		}
	}
	return tr.AccessToken, nil
}
