package httpapi

import (
	"fmt"
	"time"

	"autoshop-admin/internal/domain"

	"github.com/xuri/excelize/v2"
)

// exportRowLimit caps export queries so one request cannot drag the whole
// history through memory.
const exportRowLimit = 10000

const exportTimeLayout = "2006-01-02 15:04"

func fmtTime(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format(exportTimeLayout)
}

func fmtCents(cents int64) string {
	return fmt.Sprintf("%.2f", float64(cents)/100)
}

// buildAppointmentsWorkbook renders appointments to a single-sheet xlsx.
// Callers own closing the returned file.
func buildAppointmentsWorkbook(items []*domain.Appointment) (*excelize.File, error) {
	f := excelize.NewFile()
	const sheet = "Appointments"

	idx, err := f.NewSheet(sheet)
	if err != nil {
		return nil, fmt.Errorf("create sheet: %w", err)
	}
	f.SetActiveSheet(idx)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return nil, fmt.Errorf("drop default sheet: %w", err)
	}

	headers := []string{
		"Appointment ID", "Customer ID", "Vehicle ID", "Status",
		"Start", "End", "Check-in", "Check-out",
		"Total", "Paid", "Note",
	}
	for col, name := range headers {
		cell, _ := excelize.CoordinatesToCellName(col+1, 1)
		if err := f.SetCellValue(sheet, cell, name); err != nil {
			return nil, fmt.Errorf("write header: %w", err)
		}
	}

	for row, a := range items {
		values := []any{
			a.AppointmentID, a.CustomerID, a.VehicleID, string(a.Status),
			fmtTime(a.StartTS), fmtTime(a.EndTS), fmtTime(a.CheckInAt), fmtTime(a.CheckOutAt),
			fmtCents(a.TotalCents), fmtCents(a.PaidCents), a.Note,
		}
		for col, v := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row+2)
			if err := f.SetCellValue(sheet, cell, v); err != nil {
				return nil, fmt.Errorf("write row %d: %w", row+2, err)
			}
		}
	}

	return f, nil
}

// buildInvoicesWorkbook renders invoices to a single-sheet xlsx.
func buildInvoicesWorkbook(items []*domain.Invoice) (*excelize.File, error) {
	f := excelize.NewFile()
	const sheet = "Invoices"

	idx, err := f.NewSheet(sheet)
	if err != nil {
		return nil, fmt.Errorf("create sheet: %w", err)
	}
	f.SetActiveSheet(idx)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return nil, fmt.Errorf("drop default sheet: %w", err)
	}

	headers := []string{
		"Invoice Number", "Invoice ID", "Appointment ID",
		"Status", "Total", "Paid", "Issued",
	}
	for col, name := range headers {
		cell, _ := excelize.CoordinatesToCellName(col+1, 1)
		if err := f.SetCellValue(sheet, cell, name); err != nil {
			return nil, fmt.Errorf("write header: %w", err)
		}
	}

	for row, inv := range items {
		values := []any{
			inv.InvoiceNumber, inv.InvoiceID, inv.AppointmentID,
			inv.Status, fmtCents(inv.TotalCents), fmtCents(inv.PaidCents),
			inv.IssuedAt.Format(exportTimeLayout),
		}
		for col, v := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row+2)
			if err := f.SetCellValue(sheet, cell, v); err != nil {
				return nil, fmt.Errorf("write row %d: %w", row+2, err)
			}
		}
	}

	return f, nil
}
