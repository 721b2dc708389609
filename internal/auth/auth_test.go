package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opencourier/driverd/internal/api"
	"github.com/opencourier/driverd/internal/models"
	"github.com/opencourier/driverd/internal/state"
)

func signedToken(t *testing.T, exp time.Time) string {
	t.Helper()
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "d1",
		"exp": exp.Unix(),
	})
	s, err := tok.SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return s
}

func newService(t *testing.T, handler http.HandlerFunc) (*Service, *state.Store) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	store := state.NewStore(t.TempDir())
	return NewService(api.New(srv.URL, time.Second), store), store
}

func TestBootstrapNoSession(t *testing.T) {
	svc, _ := newService(t, nil)
	driver, ok := svc.Bootstrap()
	assert.False(t, ok)
	assert.Nil(t, driver)
}

func TestBootstrapValidSession(t *testing.T) {
	svc, store := newService(t, nil)
	tok := signedToken(t, time.Now().Add(time.Hour))
	require.NoError(t, store.SetAuth(tok, &models.Driver{ID: "d1", Name: "Sam"}))

	driver, ok := svc.Bootstrap()
	require.True(t, ok)
	assert.Equal(t, "d1", driver.ID)
}

func TestBootstrapExpiredToken(t *testing.T) {
	svc, store := newService(t, nil)
	tok := signedToken(t, time.Now().Add(-time.Hour))
	require.NoError(t, store.SetAuth(tok, &models.Driver{ID: "d1"}))

	_, ok := svc.Bootstrap()
	assert.False(t, ok)
}

func TestBootstrapTokenWithoutExpClaimPasses(t *testing.T) {
	svc, store := newService(t, nil)
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"sub": "d1"})
	s, err := tok.SignedString([]byte("test-secret"))
	require.NoError(t, err)
	require.NoError(t, store.SetAuth(s, &models.Driver{ID: "d1"}))

	_, ok := svc.Bootstrap()
	assert.True(t, ok)
}

func TestBootstrapOpaqueTokenPasses(t *testing.T) {
	svc, store := newService(t, nil)
	require.NoError(t, store.SetAuth("opaque-session-key", &models.Driver{ID: "d1"}))

	_, ok := svc.Bootstrap()
	assert.True(t, ok)
}

func TestLoginPersistsSession(t *testing.T) {
	svc, store := newService(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"token":  "tok",
			"driver": map[string]any{"id": "d1", "name": "Sam"},
		})
	})

	driver, err := svc.Login(context.Background(), "555", "secret")
	require.NoError(t, err)
	assert.Equal(t, "Sam", driver.Name)

	st, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, "tok", st.Token)
	require.NotNil(t, st.Driver)
	assert.Equal(t, "d1", st.Driver.ID)
}

func TestLoginFailureDoesNotPersist(t *testing.T) {
	svc, store := newService(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		json.NewEncoder(w).Encode(map[string]any{"message": "Invalid credentials"})
	})

	_, err := svc.Login(context.Background(), "555", "wrong")
	require.Error(t, err)
	assert.Equal(t, "Invalid credentials", api.Message(err, ""))

	st, err := store.Load()
	require.NoError(t, err)
	assert.Empty(t, st.Token)
}

func TestLogoutClearsSession(t *testing.T) {
	svc, store := newService(t, nil)
	require.NoError(t, store.SetAuth("tok", &models.Driver{ID: "d1"}))

	svc.Logout()

	st, err := store.Load()
	require.NoError(t, err)
	assert.Empty(t, st.Token)
}
