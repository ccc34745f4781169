package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

// authServer fakes the remote auth endpoints and records the call order.
type authServer struct {
	mu         sync.Mutex
	calls      []string
	failCreate bool
	failLogin  bool
}

func (a *authServer) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/auth/create", func(w http.ResponseWriter, r *http.Request) {
		a.record("create")
		if a.failCreate {
			http.Error(w, "email already registered", http.StatusConflict)
			return
		}
		w.WriteHeader(http.StatusCreated)
	})
	mux.HandleFunc("/auth/login", func(w http.ResponseWriter, r *http.Request) {
		a.record("login")
		if a.failLogin {
			http.Error(w, "invalid credentials", http.StatusUnauthorized)
			return
		}
		var creds map[string]string
		_ = json.NewDecoder(r.Body).Decode(&creds)
		_ = json.NewEncoder(w).Encode(map[string]string{"access_token": "token-for-" + creds["email"]})
	})
	return mux
}

func (a *authServer) record(call string) {
	a.mu.Lock()
	a.calls = append(a.calls, call)
	a.mu.Unlock()
}

func (a *authServer) callLog() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]string(nil), a.calls...)
}

func newTestGate(t *testing.T, srv *authServer) (*Gate, *MemoryCredentialStore) {
	t.Helper()
	ts := httptest.NewServer(srv.handler())
	t.Cleanup(ts.Close)
	store := NewMemoryCredentialStore()
	return NewGate(ts.Client(), ts.URL, store), store
}

func TestLoginStoresCredential(t *testing.T) {
	srv := &authServer{}
	gate, store := newTestGate(t, srv)

	require.False(t, gate.Authenticated())
	require.NoError(t, gate.Login(context.Background(), "user@example.com", "hunter22"))

	require.True(t, gate.Authenticated())
	token, ok := gate.Token()
	require.True(t, ok)
	require.Equal(t, "token-for-user@example.com", token)

	stored, ok := store.Get()
	require.True(t, ok)
	require.Equal(t, token, stored)
}

func TestRegisterIsCreateThenLogin(t *testing.T) {
	srv := &authServer{}
	gate, _ := newTestGate(t, srv)

	require.NoError(t, gate.Register(context.Background(), "user@example.com", "hunter22"))
	require.Equal(t, []string{"create", "login"}, srv.callLog())
	require.True(t, gate.Authenticated())
}

func TestRegisterCreateFailureSkipsLogin(t *testing.T) {
	srv := &authServer{failCreate: true}
	gate, _ := newTestGate(t, srv)

	err := gate.Register(context.Background(), "user@example.com", "hunter22")
	require.ErrorIs(t, err, ErrAuth)
	require.Contains(t, err.Error(), "email already registered")
	require.Equal(t, []string{"create"}, srv.callLog())
	require.False(t, gate.Authenticated())
}

func TestRegisterLoginFailureLeavesUnauthenticated(t *testing.T) {
	srv := &authServer{failLogin: true}
	gate, store := newTestGate(t, srv)

	err := gate.Register(context.Background(), "user@example.com", "hunter22")
	require.ErrorIs(t, err, ErrAuth)
	require.Equal(t, []string{"create", "login"}, srv.callLog())
	require.False(t, gate.Authenticated())

	_, ok := store.Get()
	require.False(t, ok)
}

func TestLoginRejectionSurfacesRemoteMessage(t *testing.T) {
	srv := &authServer{failLogin: true}
	gate, _ := newTestGate(t, srv)

	err := gate.Login(context.Background(), "user@example.com", "wrong")
	require.ErrorIs(t, err, ErrAuth)
	require.Contains(t, err.Error(), "invalid credentials")
	require.False(t, gate.Authenticated())
}

func TestLoginRejectsInvalidEmailWithoutNetworkCall(t *testing.T) {
	srv := &authServer{}
	gate, _ := newTestGate(t, srv)

	err := gate.Login(context.Background(), "not-an-email", "hunter22")
	require.ErrorIs(t, err, ErrAuth)
	require.Empty(t, srv.callLog())
}

func TestSignOutIsUnconditional(t *testing.T) {
	srv := &authServer{}
	gate, store := newTestGate(t, srv)

	require.NoError(t, gate.Login(context.Background(), "user@example.com", "hunter22"))
	gate.SignOut()

	require.False(t, gate.Authenticated())
	_, ok := store.Get()
	require.False(t, ok)

	// Signing out while already unauthenticated is a no-op, not an error.
	gate.SignOut()
	require.False(t, gate.Authenticated())
}

func TestNewGateRestoresStoredCredential(t *testing.T) {
	store := NewMemoryCredentialStore()
	require.NoError(t, store.Put("previous-session-token"))

	gate := NewGate(http.DefaultClient, "http://127.0.0.1:0", store)
	token, ok := gate.Token()
	require.True(t, ok)
	require.Equal(t, "previous-session-token", token)
}

func TestFileCredentialStoreRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "token")
	s := NewFileCredentialStore(path)

	_, ok := s.Get()
	require.False(t, ok)

	require.NoError(t, s.Put("secret-token"))
	got, ok := s.Get()
	require.True(t, ok)
	require.Equal(t, "secret-token", got)

	require.NoError(t, s.Delete())
	_, ok = s.Get()
	require.False(t, ok)

	// Deleting an absent credential is fine.
	require.NoError(t, s.Delete())
}
