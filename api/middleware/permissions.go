package middleware

import (
	"net/http"

	"github.com/angelmondragon/leatherworks-erp/api/responses"
	"github.com/angelmondragon/leatherworks-erp/pkg/enums"
	pkgerrors "github.com/angelmondragon/leatherworks-erp/pkg/errors"
	"github.com/angelmondragon/leatherworks-erp/pkg/logger"
	"github.com/angelmondragon/leatherworks-erp/pkg/permissions"
)

// RequirePermission rejects the request with 403 unless the caller's role covers
// every listed permission. The wrapped handler never runs on denial.
func RequirePermission(logg *logger.Logger, required ...permissions.Permission) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			role := enums.Role(RoleFromContext(r.Context()))
			if !permissions.Can(role, required...) {
				names := make([]string, len(required))
				for i, p := range required {
					names[i] = string(p)
				}
				err := pkgerrors.New(pkgerrors.CodeForbidden, "insufficient permissions").
					WithDetails(map[string]any{"required": names})
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
