package controllers

import (
	"context"
	"net/http"

	"github.com/angelmondragon/leatherworks-erp/api/responses"
	"github.com/angelmondragon/leatherworks-erp/api/validators"
	"github.com/angelmondragon/leatherworks-erp/internal/audit"
	"github.com/angelmondragon/leatherworks-erp/pkg/logger"
	"github.com/angelmondragon/leatherworks-erp/pkg/pagination"
)

type AuditLister interface {
	List(ctx context.Context, params audit.ListParams) (pagination.Page[audit.LogDTO], error)
}

// AuditLogList lists audit rows filtered by entity or actor, newest first.
func AuditLogList(repo AuditLister, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if repo == nil {
			responses.WriteError(r.Context(), logg, w, serviceUnavailable("audit"))
			return
		}
		page, err := validators.ParsePagination(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		entityID, err := validators.ParseQueryUUID(r, "entity_id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		actorID, err := validators.ParseQueryUUID(r, "actor_id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := repo.List(r.Context(), audit.ListParams{
			EntityType: validators.SanitizeString(r.URL.Query().Get("entity_type"), 64),
			EntityID:   entityID,
			ActorID:    actorID,
			Params:     page,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}
