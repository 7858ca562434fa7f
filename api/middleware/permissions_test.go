package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/angelmondragon/leatherworks-erp/pkg/enums"
	"github.com/angelmondragon/leatherworks-erp/pkg/permissions"
)

func TestRequirePermission(t *testing.T) {
	tests := []struct {
		name   string
		role   enums.Role
		perms  []permissions.Permission
		status int
	}{
		{"admin wildcard", enums.RoleAdmin, []permissions.Permission{permissions.ShipmentProcess}, http.StatusOK},
		{"resource wildcard", enums.RoleInventoryManager, []permissions.Permission{permissions.ShipmentProcess}, http.StatusOK},
		{"exact grant", enums.RolePurchaseUser, []permissions.Permission{permissions.RFQRecordQuote}, http.StatusOK},
		{"missing grant", enums.RolePurchaseUser, []permissions.Permission{permissions.POApprove}, http.StatusForbidden},
		{"all required", enums.RoleSalesUser, []permissions.Permission{permissions.QuotationRead, permissions.QuotationApprove}, http.StatusForbidden},
		{"unknown role", enums.Role("intern"), []permissions.Permission{permissions.DashboardRead}, http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			called := false
			handler := RequirePermission(nil, tt.perms...)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				called = true
				w.WriteHeader(http.StatusOK)
			}))
			req := httptest.NewRequest(http.MethodPost, "/", nil)
			req = req.WithContext(WithRole(req.Context(), string(tt.role)))
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			assert.Equal(t, tt.status, rec.Code)
			assert.Equal(t, tt.status == http.StatusOK, called)
		})
	}
}
