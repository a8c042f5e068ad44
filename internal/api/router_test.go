package api

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/earlylookhq/earlylook/internal/app"
	iauth "github.com/earlylookhq/earlylook/internal/auth"
	"github.com/earlylookhq/earlylook/internal/database/testutil"
)

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()

	db := testutil.MustOpenTestDB(t)

	jwt, err := iauth.NewJWTService(iauth.JWTConfig{Secret: "router-test-secret", Issuer: "earlylook"})
	require.NoError(t, err)

	cfg := &app.Config{}
	cfg.Monitoring.Prometheus.Enabled = true

	router, err := NewRouter(db, jwt, cfg)
	require.NoError(t, err)
	return router
}

func TestRouterPublicEndpoints(t *testing.T) {
	router := newTestRouter(t)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestRouterRequiresAuth(t *testing.T) {
	router := newTestRouter(t)

	for _, path := range []string{"/api/deals", "/api/auth/me"} {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		require.Equal(t, http.StatusUnauthorized, rec.Code, path)
	}
}

func TestRouterUnknownRoute(t *testing.T) {
	router := newTestRouter(t)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/nope", nil))
	require.Equal(t, http.StatusNotFound, rec.Code)
}
