package controllers

import (
	"context"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/angelmondragon/leatherworks-erp/api/middleware"
	"github.com/angelmondragon/leatherworks-erp/api/responses"
	"github.com/angelmondragon/leatherworks-erp/api/validators"
	"github.com/angelmondragon/leatherworks-erp/internal/audit"
	"github.com/angelmondragon/leatherworks-erp/pkg/enums"
	pkgerrors "github.com/angelmondragon/leatherworks-erp/pkg/errors"
	"github.com/angelmondragon/leatherworks-erp/pkg/logger"
)

// actorFrom builds the audit actor from the authenticated request context.
func actorFrom(r *http.Request) (audit.Actor, error) {
	raw := middleware.UserIDFromContext(r.Context())
	if raw == "" {
		return audit.Actor{}, pkgerrors.New(pkgerrors.CodeUnauthorized, "user context missing")
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return audit.Actor{}, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid user id")
	}
	return audit.Actor{UserID: id, Role: enums.Role(middleware.RoleFromContext(r.Context()))}, nil
}

func pathUUID(r *http.Request, name string) (uuid.UUID, error) {
	raw := strings.TrimSpace(chi.URLParam(r, name))
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid "+name)
	}
	return id, nil
}

func serviceUnavailable(name string) error {
	return pkgerrors.New(pkgerrors.CodeInternal, name+" service unavailable")
}

func unavailable(name string, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		responses.WriteError(r.Context(), logg, w, serviceUnavailable(name))
	}
}

// entityAction adapts a state transition on the entity named by the path
// parameter into a handler. In is decoded from an optional JSON body; use
// struct{} for actions without one.
func entityAction[In, Out any](logg *logger.Logger, param string, call func(context.Context, audit.Actor, uuid.UUID, In) (Out, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := actorFrom(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		id, err := pathUUID(r, param)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var body In
		if err := validators.DecodeOptionalJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		out, err := call(r.Context(), actor, id, body)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, out)
	}
}
