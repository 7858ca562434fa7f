package controllers

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/angelmondragon/leatherworks-erp/api/responses"
	"github.com/angelmondragon/leatherworks-erp/api/validators"
	"github.com/angelmondragon/leatherworks-erp/internal/audit"
	"github.com/angelmondragon/leatherworks-erp/internal/crm"
	"github.com/angelmondragon/leatherworks-erp/internal/quotations"
	"github.com/angelmondragon/leatherworks-erp/pkg/enums"
	"github.com/angelmondragon/leatherworks-erp/pkg/logger"
)

func CustomerList(svc crm.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, serviceUnavailable("crm"))
			return
		}
		page, err := validators.ParsePagination(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		status, err := validators.ParseQueryEnum(r, "status", enums.ParseCustomerStatus)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		result, err := svc.List(r.Context(), crm.ListParams{
			Search: validators.SanitizeString(r.URL.Query().Get("q"), 100),
			Status: status,
			Params: page,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

func CustomerGet(svc crm.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, serviceUnavailable("crm"))
			return
		}
		id, err := pathUUID(r, "customerId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		customer, err := svc.Get(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, customer)
	}
}

func CustomerCreate(svc crm.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, serviceUnavailable("crm"))
			return
		}
		actor, err := actorFrom(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var body crm.CreateCustomerInput
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		customer, err := svc.Create(r.Context(), actor, body)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, customer)
	}
}

func CustomerUpdate(svc crm.Service, logg *logger.Logger) http.HandlerFunc {
	if svc == nil {
		return unavailable("crm", logg)
	}
	return entityAction(logg, "customerId", svc.Update)
}

// CustomerDelete soft-deletes by marking the customer inactive.
func CustomerDelete(svc crm.Service, logg *logger.Logger) http.HandlerFunc {
	if svc == nil {
		return unavailable("crm", logg)
	}
	return entityAction(logg, "customerId", func(ctx context.Context, actor audit.Actor, id uuid.UUID, _ struct{}) (map[string]string, error) {
		if err := svc.Delete(ctx, actor, id); err != nil {
			return nil, err
		}
		return map[string]string{"status": string(enums.CustomerStatusInactive)}, nil
	})
}

func QuotationList(svc quotations.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, serviceUnavailable("quotation"))
			return
		}
		page, err := validators.ParsePagination(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		status, err := validators.ParseQueryEnum(r, "status", enums.ParseQuotationStatus)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		customerID, err := validators.ParseQueryUUID(r, "customer_id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		result, err := svc.List(r.Context(), quotations.ListParams{Status: status, CustomerID: customerID, Params: page})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

func QuotationGet(svc quotations.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, serviceUnavailable("quotation"))
			return
		}
		id, err := pathUUID(r, "quotationId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		q, err := svc.Get(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, q)
	}
}

func QuotationCreate(svc quotations.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, serviceUnavailable("quotation"))
			return
		}
		actor, err := actorFrom(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var body quotations.CreateQuotationInput
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		q, err := svc.Create(r.Context(), actor, body)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, q)
	}
}

func QuotationUpdate(svc quotations.Service, logg *logger.Logger) http.HandlerFunc {
	if svc == nil {
		return unavailable("quotation", logg)
	}
	return entityAction(logg, "quotationId", svc.Update)
}

func QuotationSubmit(svc quotations.Service, logg *logger.Logger) http.HandlerFunc {
	if svc == nil {
		return unavailable("quotation", logg)
	}
	return entityAction(logg, "quotationId", func(ctx context.Context, actor audit.Actor, id uuid.UUID, _ struct{}) (*quotations.QuotationDTO, error) {
		return svc.Submit(ctx, actor, id)
	})
}

func QuotationApprove(svc quotations.Service, logg *logger.Logger) http.HandlerFunc {
	if svc == nil {
		return unavailable("quotation", logg)
	}
	return entityAction(logg, "quotationId", svc.Approve)
}

func QuotationReject(svc quotations.Service, logg *logger.Logger) http.HandlerFunc {
	if svc == nil {
		return unavailable("quotation", logg)
	}
	return entityAction(logg, "quotationId", svc.Reject)
}
