package pipeline

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"procureai/internal"
)

// ExportProposalsToXLSX writes one row per proposal for side-by-side
// review outside the tool. Vendor names are resolved by the caller.
func ExportProposalsToXLSX(proposals []internal.Proposal, vendorNames map[string]string, outputPath string) error {
	f := excelize.NewFile()
	sheet := f.GetSheetName(0)

	headers := []string{
		"vendor", "total_price", "delivery_timeline", "warranty", "score",
		"line_items", "summary", "received_at",
	}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheet, cell, h)
	}

	for i, p := range proposals {
		r := i + 2
		set := func(col int, value any) {
			cell, _ := excelize.CoordinatesToCellName(col, r)
			_ = f.SetCellValue(sheet, cell, value)
		}

		name := vendorNames[p.VendorID]
		if name == "" {
			name = p.VendorID
		}
		set(1, name)
		set(2, p.Data.TotalPrice)
		set(3, p.Data.DeliveryTimeline)
		set(4, p.Data.Warranty)
		set(5, p.Data.Score)
		set(6, joinLineItems(p.Data.LineItems))
		set(7, p.Data.Summary)
		set(8, p.ReceivedAt)
	}

	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return err
	}
	return f.SaveAs(outputPath)
}

func joinLineItems(items []internal.ProposalLineItem) string {
	parts := make([]string, 0, len(items))
	for _, it := range items {
		part := it.Name
		if it.Price > 0 {
			part = fmt.Sprintf("%s (%g)", part, it.Price)
		}
		parts = append(parts, part)
	}
	return strings.Join(parts, "; ")
}
