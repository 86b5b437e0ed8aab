package history

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"
)

var exportHeader = []string{
	"History ID", "Member ID", "Order Number", "Status", "Type", "Created At",
	"Part ID", "Part Code", "Part Name", "Quantity", "Price", "Location",
}

// writeWorkbook renders one enriched page as a spreadsheet, one row per line
// item.
func writeWorkbook(w io.Writer, page ListResponse) error {
	f := excelize.NewFile()
	defer f.Close()

	sheet := f.GetSheetName(0)

	for col, title := range exportHeader {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return fmt.Errorf("failed to build header cell: %w", err)
		}
		if err := f.SetCellValue(sheet, cell, title); err != nil {
			return fmt.Errorf("failed to write header cell: %w", err)
		}
	}

	row := 2
	for _, record := range page.Content {
		orderNumber := ""
		if record.OrderNumber != nil {
			orderNumber = *record.OrderNumber
		}

		for _, item := range record.Items {
			values := []any{
				record.ID,
				record.MemberID,
				orderNumber,
				record.Status,
				string(record.Type),
				record.CreatedAt.Format("2006-01-02 15:04:05"),
				item.ID,
				item.Code,
				item.Name,
				item.HistoryQuantity,
				item.Price,
				item.Location,
			}
			for col, value := range values {
				cell, err := excelize.CoordinatesToCellName(col+1, row)
				if err != nil {
					return fmt.Errorf("failed to build cell: %w", err)
				}
				if err := f.SetCellValue(sheet, cell, value); err != nil {
					return fmt.Errorf("failed to write cell: %w", err)
				}
			}
			row++
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}

	return nil
}
