package controllers

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/leatherworks-erp/api/responses"
	"github.com/angelmondragon/leatherworks-erp/api/validators"
	"github.com/angelmondragon/leatherworks-erp/internal/audit"
	"github.com/angelmondragon/leatherworks-erp/internal/inventory"
	"github.com/angelmondragon/leatherworks-erp/pkg/enums"
	"github.com/angelmondragon/leatherworks-erp/pkg/logger"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

func WarehouseList(svc inventory.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, serviceUnavailable("inventory"))
			return
		}
		page, err := validators.ParsePagination(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		active, err := validators.ParseQueryBool(r, "is_active")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		result, err := svc.ListWarehouses(r.Context(), inventory.WarehouseListParams{IsActive: active, Params: page})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

func WarehouseGet(svc inventory.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, serviceUnavailable("inventory"))
			return
		}
		id, err := pathUUID(r, "warehouseId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		wh, err := svc.GetWarehouse(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, wh)
	}
}

func WarehouseCreate(svc inventory.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, serviceUnavailable("inventory"))
			return
		}
		actor, err := actorFrom(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var body inventory.CreateWarehouseInput
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		wh, err := svc.CreateWarehouse(r.Context(), actor, body)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, wh)
	}
}

func WarehouseUpdate(svc inventory.Service, logg *logger.Logger) http.HandlerFunc {
	if svc == nil {
		return unavailable("inventory", logg)
	}
	return entityAction(logg, "warehouseId", svc.UpdateWarehouse)
}

func itemListParams(r *http.Request) (inventory.ItemListParams, error) {
	page, err := validators.ParsePagination(r)
	if err != nil {
		return inventory.ItemListParams{}, err
	}
	warehouseID, err := validators.ParseQueryUUID(r, "warehouse_id")
	if err != nil {
		return inventory.ItemListParams{}, err
	}
	productID, err := validators.ParseQueryUUID(r, "product_id")
	if err != nil {
		return inventory.ItemListParams{}, err
	}
	lowStock, err := validators.ParseQueryBool(r, "low_stock")
	if err != nil {
		return inventory.ItemListParams{}, err
	}
	return inventory.ItemListParams{
		WarehouseID: warehouseID,
		ProductID:   productID,
		LowStock:    lowStock != nil && *lowStock,
		Params:      page,
	}, nil
}

func InventoryItemList(svc inventory.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, serviceUnavailable("inventory"))
			return
		}
		params, err := itemListParams(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		result, err := svc.ListItems(r.Context(), params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

func InventoryItemGet(svc inventory.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, serviceUnavailable("inventory"))
			return
		}
		id, err := pathUUID(r, "itemId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		item, err := svc.GetItem(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, item)
	}
}

// InventoryItemUpdate changes the min/max stock thresholds of one item.
func InventoryItemUpdate(svc inventory.Service, logg *logger.Logger) http.HandlerFunc {
	if svc == nil {
		return unavailable("inventory", logg)
	}
	return entityAction(logg, "itemId", svc.UpdateThresholds)
}

func InventoryMovementList(svc inventory.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, serviceUnavailable("inventory"))
			return
		}
		page, err := validators.ParsePagination(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		itemID, err := validators.ParseQueryUUID(r, "item_id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		warehouseID, err := validators.ParseQueryUUID(r, "warehouse_id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		productID, err := validators.ParseQueryUUID(r, "product_id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		movementType, err := validators.ParseQueryEnum(r, "type", enums.ParseStockMovementType)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		params := inventory.MovementListParams{
			ItemID:      itemID,
			WarehouseID: warehouseID,
			ProductID:   productID,
			Type:        movementType,
			Params:      page,
		}

		result, err := svc.ListMovements(r.Context(), params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

// InventoryExport renders the filtered items as an xlsx download. The workbook is
// built in memory first so a failure still yields a JSON error response.
func InventoryExport(svc inventory.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, serviceUnavailable("inventory"))
			return
		}
		params, err := itemListParams(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var buf bytes.Buffer
		if err := svc.ExportItems(r.Context(), params, &buf); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		filename := fmt.Sprintf("inventory-%s.xlsx", time.Now().UTC().Format("20060102-150405"))
		w.Header().Set("Content-Type", xlsxContentType)
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
		w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
		w.WriteHeader(http.StatusOK)
		if _, err := buf.WriteTo(w); err != nil && logg != nil {
			logg.Error(r.Context(), "write inventory export", err)
		}
	}
}

func InventoryAdjust(svc inventory.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, serviceUnavailable("inventory"))
			return
		}
		actor, err := actorFrom(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var body inventory.AdjustmentInput
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		result, err := svc.Adjust(r.Context(), actor, body)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

func InventoryTransfer(svc inventory.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, serviceUnavailable("inventory"))
			return
		}
		actor, err := actorFrom(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var body inventory.TransferInput
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		result, err := svc.Transfer(r.Context(), actor, body)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

func StockRequestList(svc inventory.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, serviceUnavailable("inventory"))
			return
		}
		page, err := validators.ParsePagination(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		status, err := validators.ParseQueryEnum(r, "status", enums.ParseStockRequestStatus)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		warehouseID, err := validators.ParseQueryUUID(r, "warehouse_id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		result, err := svc.ListStockRequests(r.Context(), inventory.StockRequestListParams{Status: status, WarehouseID: warehouseID, Params: page})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

func StockRequestGet(svc inventory.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, serviceUnavailable("inventory"))
			return
		}
		id, err := pathUUID(r, "requestId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		req, err := svc.GetStockRequest(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, req)
	}
}

// StockRequestCreate records a pending adjustment or transfer. Stock is not
// touched until the request is approved.
func StockRequestCreate(svc inventory.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, serviceUnavailable("inventory"))
			return
		}
		actor, err := actorFrom(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var body inventory.CreateStockRequestInput
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		req, err := svc.CreateStockRequest(r.Context(), actor, body)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, req)
	}
}

func StockRequestApprove(svc inventory.Service, logg *logger.Logger) http.HandlerFunc {
	if svc == nil {
		return unavailable("inventory", logg)
	}
	return entityAction(logg, "requestId", svc.ApproveStockRequest)
}

func StockRequestReject(svc inventory.Service, logg *logger.Logger) http.HandlerFunc {
	if svc == nil {
		return unavailable("inventory", logg)
	}
	return entityAction(logg, "requestId", svc.RejectStockRequest)
}

func ShipmentList(svc inventory.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, serviceUnavailable("inventory"))
			return
		}
		page, err := validators.ParsePagination(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		status, err := validators.ParseQueryEnum(r, "status", enums.ParseShipmentStatus)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		warehouseID, err := validators.ParseQueryUUID(r, "warehouse_id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		result, err := svc.ListShipments(r.Context(), inventory.ShipmentListParams{Status: status, WarehouseID: warehouseID, Params: page})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

func ShipmentGet(svc inventory.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, serviceUnavailable("inventory"))
			return
		}
		id, err := pathUUID(r, "shipmentId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		shipment, err := svc.GetShipment(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, shipment)
	}
}

func ShipmentAssignWarehouse(svc inventory.Service, logg *logger.Logger) http.HandlerFunc {
	if svc == nil {
		return unavailable("inventory", logg)
	}
	return entityAction(logg, "shipmentId", svc.AssignWarehouse)
}

// ShipmentProcess receives an assigned shipment into stock. Omitted lines are
// accepted at their expected quantity.
func ShipmentProcess(svc inventory.Service, logg *logger.Logger) http.HandlerFunc {
	if svc == nil {
		return unavailable("inventory", logg)
	}
	return entityAction(logg, "shipmentId", func(ctx context.Context, actor audit.Actor, id uuid.UUID, in inventory.ProcessShipmentInput) (*inventory.ShipmentDTO, error) {
		if logg != nil {
			ctx = logg.WithField(ctx, "shipment_id", id.String())
		}
		return svc.ProcessShipment(ctx, actor, id, in)
	})
}

func ShipmentReject(svc inventory.Service, logg *logger.Logger) http.HandlerFunc {
	if svc == nil {
		return unavailable("inventory", logg)
	}
	return entityAction(logg, "shipmentId", svc.RejectShipment)
}
