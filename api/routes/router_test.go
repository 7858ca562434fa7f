package routes

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/leatherworks-erp/internal/dashboard"
	pkgAuth "github.com/angelmondragon/leatherworks-erp/pkg/auth"
	"github.com/angelmondragon/leatherworks-erp/pkg/auth/session"
	"github.com/angelmondragon/leatherworks-erp/pkg/config"
	"github.com/angelmondragon/leatherworks-erp/pkg/enums"
	"github.com/angelmondragon/leatherworks-erp/pkg/logger"
)

type stubPinger struct {
	err error
}

func (s stubPinger) Ping(context.Context) error {
	return s.err
}

type stubSessions struct{}

func (stubSessions) HasSession(context.Context, string) (bool, error) {
	return true, nil
}

type stubDashboard struct{}

func (stubDashboard) Stats(context.Context) (*dashboard.Stats, error) {
	return &dashboard.Stats{ShipmentsPending: 3, GeneratedAt: time.Now().UTC()}, nil
}

func testConfig() *config.Config {
	return &config.Config{
		App: config.AppConfig{Env: "test"},
		JWT: config.JWTConfig{Secret: "router-secret", Issuer: "leatherworks", ExpirationMinutes: 30},
	}
}

func newTestRouter(t *testing.T, deps Dependencies, svc Services) (http.Handler, *config.Config) {
	t.Helper()
	cfg := testConfig()
	if deps.Sessions == nil {
		deps.Sessions = stubSessions{}
	}
	logg := logger.New(logger.Options{ServiceName: "router-test", Level: logger.ParseLevel("error")})
	return NewRouter(cfg, logg, deps, svc), cfg
}

func bearer(t *testing.T, cfg *config.Config, role enums.Role) string {
	t.Helper()
	token, err := pkgAuth.MintAccessToken(cfg.JWT, time.Now(), pkgAuth.AccessTokenPayload{
		UserID: uuid.New(),
		Email:  "staff@leatherworks.test",
		Role:   role,
		JTI:    session.NewAccessID(),
	})
	require.NoError(t, err)
	return "Bearer " + token
}

func TestHealthLive(t *testing.T) {
	router, _ := newTestRouter(t, Dependencies{}, Services{})

	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/health/live", nil))

	assert.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, "test", resp.Header().Get("X-Leatherworks-Env"))
}

func TestHealthReadyReportsFailingDependency(t *testing.T) {
	router, _ := newTestRouter(t, Dependencies{DB: stubPinger{err: errors.New("connection refused")}}, Services{})

	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/health/ready", nil))

	assert.Equal(t, http.StatusServiceUnavailable, resp.Code)
}

func TestHealthReadyWithHealthyDependencies(t *testing.T) {
	router, _ := newTestRouter(t, Dependencies{DB: stubPinger{}}, Services{})

	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/health/ready", nil))

	assert.Equal(t, http.StatusOK, resp.Code)
}

func TestMetricsEndpointServesExposition(t *testing.T) {
	router, _ := newTestRouter(t, Dependencies{}, Services{})

	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, resp.Code)
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	router, _ := newTestRouter(t, Dependencies{}, Services{})

	for _, path := range []string{"/api/v1/rfqs", "/api/v1/inventory/items", "/api/v1/dashboard/stats", "/api/v1/auth/me"} {
		resp := httptest.NewRecorder()
		router.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusUnauthorized, resp.Code, path)
	}
}

func TestRoutesEnforcePermissions(t *testing.T) {
	router, cfg := newTestRouter(t, Dependencies{}, Services{})

	cases := []struct {
		name   string
		role   enums.Role
		method string
		path   string
	}{
		{"viewer cannot create users", enums.RoleViewer, http.MethodPost, "/api/v1/users"},
		{"viewer cannot read audit", enums.RoleViewer, http.MethodGet, "/api/v1/audit-logs"},
		{"purchase user cannot approve rfq", enums.RolePurchaseUser, http.MethodPost, "/api/v1/rfqs/" + uuid.NewString() + "/approve"},
		{"purchase user cannot process shipment", enums.RolePurchaseUser, http.MethodPost, "/api/v1/shipments/" + uuid.NewString() + "/process"},
		{"inventory user cannot adjust", enums.RoleInventoryUser, http.MethodPost, "/api/v1/inventory/adjustments"},
		{"sales user cannot create rfq", enums.RoleSalesUser, http.MethodPost, "/api/v1/rfqs"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(tc.method, tc.path, nil)
			req.Header.Set("Authorization", bearer(t, cfg, tc.role))
			resp := httptest.NewRecorder()
			router.ServeHTTP(resp, req)

			require.Equal(t, http.StatusForbidden, resp.Code)
			var body struct {
				Error struct {
					Code string `json:"code"`
				} `json:"error"`
			}
			require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &body))
			assert.Equal(t, "FORBIDDEN", body.Error.Code)
		})
	}
}

func TestDashboardStatsForAnyRole(t *testing.T) {
	router, cfg := newTestRouter(t, Dependencies{}, Services{Dashboard: stubDashboard{}})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/dashboard/stats", nil)
	req.Header.Set("Authorization", bearer(t, cfg, enums.RoleViewer))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	require.Equal(t, http.StatusOK, resp.Code)
	assert.Contains(t, resp.Body.String(), `"shipments_pending":3`)
}

func TestCatalogIsServedWithoutBackingService(t *testing.T) {
	router, cfg := newTestRouter(t, Dependencies{}, Services{})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/catalog/products", nil)
	req.Header.Set("Authorization", bearer(t, cfg, enums.RoleSalesUser))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	assert.Equal(t, http.StatusOK, resp.Code)
}

func TestRoutesRegistered(t *testing.T) {
	router, _ := newTestRouter(t, Dependencies{}, Services{})
	mux, ok := router.(chi.Routes)
	require.True(t, ok)

	id := uuid.NewString()
	routes := []struct {
		method string
		path   string
	}{
		{http.MethodPost, "/api/v1/auth/login"},
		{http.MethodPost, "/api/v1/auth/refresh"},
		{http.MethodPost, "/api/v1/auth/logout"},
		{http.MethodPost, "/api/v1/auth/password"},
		{http.MethodPost, "/api/v1/users/" + id + "/deactivate"},
		{http.MethodPatch, "/api/v1/suppliers/" + id},
		{http.MethodPost, "/api/v1/suppliers/" + id + "/deactivate"},
		{http.MethodPost, "/api/v1/rfqs/" + id + "/record-quote"},
		{http.MethodPost, "/api/v1/rfqs/" + id + "/convert"},
		{http.MethodPost, "/api/v1/purchase-orders/" + id + "/confirm"},
		{http.MethodPost, "/api/v1/purchase-orders/" + id + "/close"},
		{http.MethodPost, "/api/v1/shipments/" + id + "/assign-warehouse"},
		{http.MethodGet, "/api/v1/inventory/export"},
		{http.MethodPost, "/api/v1/inventory/transfers"},
		{http.MethodPost, "/api/v1/stock-requests/" + id + "/reject"},
		{http.MethodDelete, "/api/v1/customers/" + id},
		{http.MethodPost, "/api/v1/quotations/" + id + "/submit"},
		{http.MethodGet, "/api/v1/batches/" + id + "/children"},
		{http.MethodGet, "/api/v1/batches/" + id + "/trace"},
	}
	for _, rt := range routes {
		assert.True(t, mux.Match(chi.NewRouteContext(), rt.method, rt.path), "%s %s", rt.method, rt.path)
	}
	assert.False(t, mux.Match(chi.NewRouteContext(), http.MethodDelete, "/api/v1/rfqs/"+id))
}
