package service

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"
	"github.com/zorvex/zorvex-backend/internal/app/model"
)

const ordersSheet = "Orders"

var orderExportHeaders = []interface{}{
	"Invoice No", "Order Time", "Customer", "Email", "Phone", "Payment Method",
	"Status", "Items", "Subtotal", "Discount", "Shipping", "Total",
}

// WriteOrdersWorkbook writes orders as a single-sheet xlsx workbook to w.
func WriteOrdersWorkbook(w io.Writer, orders []model.Order) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), ordersSheet); err != nil {
		return fmt.Errorf("failed to name sheet: %w", err)
	}

	if err := f.SetSheetRow(ordersSheet, "A1", &orderExportHeaders); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	for i, order := range orders {
		items := 0
		for _, item := range order.OrderItems {
			items += item.Quantity
		}

		row := []interface{}{
			order.InvoiceNo,
			order.OrderTime.Format("2006-01-02 15:04"),
			order.ShippingName,
			order.ShippingEmail,
			order.ShippingPhone,
			string(order.PaymentMethod),
			string(order.Status),
			items,
			order.Subtotal,
			order.DiscountAmount,
			order.ShippingCost,
			order.TotalAmount,
		}

		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(ordersSheet, cell, &row); err != nil {
			return fmt.Errorf("failed to write row %d: %w", i+2, err)
		}
	}

	if err := f.SetPanes(ordersSheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		return err
	}

	_, err := f.WriteTo(w)
	return err
}
