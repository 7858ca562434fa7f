package inventory

import (
	"context"
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	pkgerrors "github.com/angelmondragon/leatherworks-erp/pkg/errors"
)

const exportSheet = "Inventory"

var exportHeaders = []string{
	"Warehouse", "SKU", "Product", "Unit",
	"Quantity", "Reserved", "Available", "Min stock", "Max stock", "Low stock",
}

// ExportItems writes matching stock records as an xlsx workbook to w.
func (s *service) ExportItems(ctx context.Context, params ItemListParams, w io.Writer) error {
	rows, err := s.repo.AllItems(ctx, params)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load inventory items")
	}

	f := excelize.NewFile()
	defer f.Close()
	if err := f.SetSheetName("Sheet1", exportSheet); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "prepare workbook")
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"#D9E1F2"}},
	})
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "prepare workbook")
	}
	for i, h := range exportHeaders {
		col, _ := excelize.ColumnNumberToName(i + 1)
		cell := fmt.Sprintf("%s1", col)
		f.SetCellValue(exportSheet, cell, h)
		f.SetCellStyle(exportSheet, cell, cell, headerStyle)
	}

	for i := range rows {
		dto := itemToDTO(&rows[i])
		maxStock := ""
		if dto.MaxStock.Valid {
			maxStock = dto.MaxStock.Decimal.String()
		}
		lowStock := "no"
		if dto.LowStock {
			lowStock = "yes"
		}
		values := []any{
			dto.WarehouseCode, dto.ProductSKU, dto.ProductName, string(dto.Unit),
			dto.Quantity.InexactFloat64(), dto.Reserved.InexactFloat64(), dto.Available.InexactFloat64(),
			dto.MinStock.InexactFloat64(), maxStock, lowStock,
		}
		for j, v := range values {
			col, _ := excelize.ColumnNumberToName(j + 1)
			f.SetCellValue(exportSheet, fmt.Sprintf("%s%d", col, i+2), v)
		}
	}
	f.SetColWidth(exportSheet, "A", "B", 14)
	f.SetColWidth(exportSheet, "C", "C", 36)
	f.SetColWidth(exportSheet, "D", "J", 12)

	if err := f.Write(w); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "write workbook")
	}
	return nil
}
