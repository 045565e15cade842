package services

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"bookeosync/internal/bookeo"
	"bookeosync/internal/utils"

	"github.com/xuri/excelize/v2"
)

// excelColumns fixes the sheet's column order: key -> header label.
var excelColumns = []struct {
	Key   string
	Label string
}{
	{"booking_number", "Booking #"},
	{"start_time", "Start Time"},
	{"end_time", "End Time"},
	{"title", "Title"},
	{"product_name", "Product"},
	{"product_id", "Product ID"},
	{"customer_id", "Customer ID"},
	{"customer_name", "Customer Name"},
	{"customer_email", "Customer Email"},
	{"customer_phone", "Customer Phone"},
	{"canceled", "Canceled"},
	{"cancelation_time", "Cancelation Time"},
	{"creation_time", "Created"},
	{"creation_agent", "Created By"},
	{"last_change_time", "Last Updated"},
	{"last_change_agent", "Last Updated By"},
	{"total_gross", "Total (Gross)"},
	{"total_net", "Total (Net)"},
	{"total_paid", "Total Paid"},
	{"currency", "Currency"},
	{"external_ref", "External Ref"},
	{"source", "Source"},
	{"no_show", "No Show"},
	{"resources", "Resources"},
	{"options", "Options"},
}

// ExcelExporter writes fetched bookings to an .xlsx workbook, one row per
// booking, deduplicated by booking number (last occurrence wins).
type ExcelExporter struct {
	SheetName string
}

func (e ExcelExporter) sheetName() string {
	name := strings.TrimSpace(e.SheetName)
	if name == "" {
		name = "Bookings"
	}
	// Excel caps sheet names at 31 characters.
	return utils.Truncate(name, 31)
}

func (e ExcelExporter) Write(bookings []bookeo.Booking, path string) error {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create output dir: %w", err)
		}
	}

	f := excelize.NewFile()
	defer f.Close()

	sheet := e.sheetName()
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return err
	}

	boldStyle, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return err
	}
	for col, c := range excelColumns {
		cell, _ := excelize.CoordinatesToCellName(col+1, 1)
		if err := f.SetCellValue(sheet, cell, c.Label); err != nil {
			return err
		}
	}
	lastCol, _ := excelize.ColumnNumberToName(len(excelColumns))
	if err := f.SetCellStyle(sheet, "A1", lastCol+"1", boldStyle); err != nil {
		return err
	}
	_ = f.SetColWidth(sheet, "A", lastCol, 14)

	// Dedupe by booking number; last value wins, first position kept.
	order := make([]string, 0, len(bookings))
	byNumber := make(map[string]map[string]string, len(bookings))
	for _, b := range bookings {
		row := excelRow(b)
		bn := row["booking_number"]
		if _, ok := byNumber[bn]; !ok {
			order = append(order, bn)
		}
		byNumber[bn] = row
	}

	for i, bn := range order {
		row := byNumber[bn]
		for col, c := range excelColumns {
			cell, _ := excelize.CoordinatesToCellName(col+1, i+2)
			if err := f.SetCellValue(sheet, cell, row[c.Key]); err != nil {
				return err
			}
		}
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("save %s: %w", path, err)
	}
	utils.LogEvent("", "export", "excel_written", fmt.Sprintf("rows=%d path=%s", len(order), path))
	return nil
}

func excelRow(b bookeo.Booking) map[string]string {
	price := priceOf(b)
	return map[string]string{
		"booking_number":    strings.TrimSpace(b.BookingNumber),
		"start_time":        b.StartTime,
		"end_time":          b.EndTime,
		"title":             b.Title,
		"product_name":      b.ProductName,
		"product_id":        b.ProductID,
		"customer_id":       b.CustomerID,
		"customer_name":     customerName(b.Customer),
		"customer_email":    customerEmail(b.Customer),
		"customer_phone":    customerPhone(b.Customer),
		"canceled":          yesNo(b.Canceled),
		"cancelation_time":  b.CancelationTime,
		"creation_time":     b.CreationTime,
		"creation_agent":    b.CreationAgent,
		"last_change_time":  b.LastChangeTime,
		"last_change_agent": b.LastChangeAgent,
		"total_gross":       amountString(price.TotalGross),
		"total_net":         amountString(price.TotalNet),
		"total_paid":        amountString(price.TotalPaid),
		"currency":          currencyOf(price),
		"external_ref":      b.ExternalRef,
		"source":            b.Source,
		"no_show":           yesNo(b.NoShow),
		"resources":         resourcesList(b.Resources),
		"options":           optionsList(b.Options),
	}
}

func yesNo(v bool) string {
	if v {
		return "Yes"
	}
	return "No"
}

func customerName(c *bookeo.Customer) string {
	if c == nil {
		return ""
	}
	parts := make([]string, 0, 3)
	for _, p := range []string{c.FirstName, c.MiddleName, c.LastName} {
		if strings.TrimSpace(p) != "" {
			parts = append(parts, strings.TrimSpace(p))
		}
	}
	return strings.Join(parts, " ")
}

func customerEmail(c *bookeo.Customer) string {
	if c == nil {
		return ""
	}
	return strings.TrimSpace(c.EmailAddress)
}

func customerPhone(c *bookeo.Customer) string {
	if c == nil || len(c.PhoneNumbers) == 0 {
		return ""
	}
	return strings.TrimSpace(c.PhoneNumbers[0].Number)
}

func resourcesList(resources []bookeo.Resource) string {
	names := make([]string, 0, len(resources))
	for _, r := range resources {
		name := utils.FirstNonEmpty(r.Name, r.ID)
		if name != "" {
			names = append(names, name)
		}
	}
	return strings.Join(names, ", ")
}

func optionsList(options []bookeo.Option) string {
	parts := make([]string, 0, len(options))
	for _, o := range options {
		name := utils.FirstNonEmpty(o.Name, o.ID)
		switch {
		case name != "" && o.Value != "":
			parts = append(parts, name+": "+o.Value)
		case name != "":
			parts = append(parts, name)
		case o.Value != "":
			parts = append(parts, o.Value)
		}
	}
	return strings.Join(parts, "; ")
}
