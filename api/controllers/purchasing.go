package controllers

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/angelmondragon/leatherworks-erp/api/responses"
	"github.com/angelmondragon/leatherworks-erp/api/validators"
	"github.com/angelmondragon/leatherworks-erp/internal/audit"
	"github.com/angelmondragon/leatherworks-erp/internal/purchasing"
	"github.com/angelmondragon/leatherworks-erp/pkg/enums"
	"github.com/angelmondragon/leatherworks-erp/pkg/logger"
)

func RFQList(svc purchasing.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, serviceUnavailable("purchasing"))
			return
		}
		page, err := validators.ParsePagination(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		status, err := validators.ParseQueryEnum(r, "status", enums.ParseRFQStatus)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		supplierID, err := validators.ParseQueryUUID(r, "supplier_id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		result, err := svc.ListRFQs(r.Context(), purchasing.RFQListParams{Status: status, SupplierID: supplierID, Params: page})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

func RFQGet(svc purchasing.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, serviceUnavailable("purchasing"))
			return
		}
		id, err := pathUUID(r, "rfqId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		rfq, err := svc.GetRFQ(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, rfq)
	}
}

func RFQCreate(svc purchasing.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, serviceUnavailable("purchasing"))
			return
		}
		actor, err := actorFrom(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var body purchasing.CreateRFQInput
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		rfq, err := svc.CreateRFQ(r.Context(), actor, body)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, rfq)
	}
}

// RFQUpdate replaces notes and items while the RFQ is still a draft.
func RFQUpdate(svc purchasing.Service, logg *logger.Logger) http.HandlerFunc {
	if svc == nil {
		return unavailable("purchasing", logg)
	}
	return entityAction(logg, "rfqId", svc.UpdateRFQ)
}

func RFQSend(svc purchasing.Service, logg *logger.Logger) http.HandlerFunc {
	if svc == nil {
		return unavailable("purchasing", logg)
	}
	return entityAction(logg, "rfqId", func(ctx context.Context, actor audit.Actor, id uuid.UUID, _ struct{}) (*purchasing.RFQDTO, error) {
		return svc.SendRFQ(ctx, actor, id)
	})
}

func RFQRecordQuote(svc purchasing.Service, logg *logger.Logger) http.HandlerFunc {
	if svc == nil {
		return unavailable("purchasing", logg)
	}
	return entityAction(logg, "rfqId", svc.RecordQuote)
}

func RFQApprove(svc purchasing.Service, logg *logger.Logger) http.HandlerFunc {
	if svc == nil {
		return unavailable("purchasing", logg)
	}
	return entityAction(logg, "rfqId", svc.ApproveRFQ)
}

func RFQReject(svc purchasing.Service, logg *logger.Logger) http.HandlerFunc {
	if svc == nil {
		return unavailable("purchasing", logg)
	}
	return entityAction(logg, "rfqId", svc.RejectRFQ)
}

// RFQConvert turns an approved RFQ into a draft purchase order. A second call
// for the same RFQ is a conflict.
func RFQConvert(svc purchasing.Service, logg *logger.Logger) http.HandlerFunc {
	if svc == nil {
		return unavailable("purchasing", logg)
	}
	return entityAction(logg, "rfqId", func(ctx context.Context, actor audit.Actor, id uuid.UUID, _ struct{}) (*purchasing.PurchaseOrderDTO, error) {
		return svc.ConvertRFQ(ctx, actor, id)
	})
}

func PurchaseOrderList(svc purchasing.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, serviceUnavailable("purchasing"))
			return
		}
		page, err := validators.ParsePagination(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		status, err := validators.ParseQueryEnum(r, "status", enums.ParsePurchaseOrderStatus)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		supplierID, err := validators.ParseQueryUUID(r, "supplier_id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		result, err := svc.ListPurchaseOrders(r.Context(), purchasing.POListParams{Status: status, SupplierID: supplierID, Params: page})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

func PurchaseOrderGet(svc purchasing.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, serviceUnavailable("purchasing"))
			return
		}
		id, err := pathUUID(r, "poId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		po, err := svc.GetPurchaseOrder(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, po)
	}
}

func PurchaseOrderCreate(svc purchasing.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, serviceUnavailable("purchasing"))
			return
		}
		actor, err := actorFrom(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var body purchasing.CreatePOInput
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		po, err := svc.CreatePurchaseOrder(r.Context(), actor, body)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, po)
	}
}

func PurchaseOrderSend(svc purchasing.Service, logg *logger.Logger) http.HandlerFunc {
	if svc == nil {
		return unavailable("purchasing", logg)
	}
	return entityAction(logg, "poId", func(ctx context.Context, actor audit.Actor, id uuid.UUID, _ struct{}) (*purchasing.PurchaseOrderDTO, error) {
		return svc.SendPurchaseOrder(ctx, actor, id)
	})
}

func PurchaseOrderConfirm(svc purchasing.Service, logg *logger.Logger) http.HandlerFunc {
	if svc == nil {
		return unavailable("purchasing", logg)
	}
	return entityAction(logg, "poId", func(ctx context.Context, actor audit.Actor, id uuid.UUID, _ struct{}) (*purchasing.PurchaseOrderDTO, error) {
		return svc.ConfirmPurchaseOrder(ctx, actor, id)
	})
}

// PurchaseOrderApprove approves the PO and creates its pending incoming shipment
// in the same transaction.
func PurchaseOrderApprove(svc purchasing.Service, logg *logger.Logger) http.HandlerFunc {
	if svc == nil {
		return unavailable("purchasing", logg)
	}
	return entityAction(logg, "poId", svc.ApprovePurchaseOrder)
}

func PurchaseOrderCancel(svc purchasing.Service, logg *logger.Logger) http.HandlerFunc {
	if svc == nil {
		return unavailable("purchasing", logg)
	}
	return entityAction(logg, "poId", svc.CancelPurchaseOrder)
}

func PurchaseOrderClose(svc purchasing.Service, logg *logger.Logger) http.HandlerFunc {
	if svc == nil {
		return unavailable("purchasing", logg)
	}
	return entityAction(logg, "poId", func(ctx context.Context, actor audit.Actor, id uuid.UUID, _ struct{}) (*purchasing.PurchaseOrderDTO, error) {
		return svc.ClosePurchaseOrder(ctx, actor, id)
	})
}
