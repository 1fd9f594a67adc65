package export

import (
	"fmt"
	"sort"

	"github.com/andrewPaul004/ColorGarbApp-sub004/internal/model"
	"github.com/xuri/excelize/v2"
)

const excelSheetName = "Communication Logs"

// ExcelRenderer writes logs as an OOXML workbook with the same column
// semantics as the CSV renderer, plus a status summary area when the result
// set is non-empty.
type ExcelRenderer struct{}

func (ExcelRenderer) Render(logs []*model.CommunicationLog, opts RenderOptions) ([]byte, error) {
	if opts.Columns == nil {
		return nil, fmt.Errorf("column spec is required")
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", excelSheetName); err != nil {
		return nil, err
	}

	for i, header := range opts.Columns.Headers() {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return nil, err
		}
		if err := f.SetCellValue(excelSheetName, cell, header); err != nil {
			return nil, err
		}
	}

	for rowIdx, log := range logs {
		for colIdx, value := range opts.Columns.Row(log, opts.dateFormat()) {
			cell, err := excelize.CoordinatesToCellName(colIdx+1, rowIdx+2)
			if err != nil {
				return nil, err
			}
			if err := f.SetCellValue(excelSheetName, cell, value); err != nil {
				return nil, err
			}
		}
	}

	if len(logs) > 0 {
		if err := writeStatusSummary(f, logs, opts.Columns.Len()+2); err != nil {
			return nil, err
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// writeStatusSummary puts a status→count breakdown two columns to the right
// of the data area.
func writeStatusSummary(f *excelize.File, logs []*model.CommunicationLog, startCol int) error {
	counts := make(map[model.DeliveryStatus]int64)
	for _, log := range logs {
		counts[log.DeliveryStatus]++
	}

	statuses := make([]string, 0, len(counts))
	for status := range counts {
		statuses = append(statuses, string(status))
	}
	sort.Strings(statuses)

	headerCell, err := excelize.CoordinatesToCellName(startCol, 1)
	if err != nil {
		return err
	}
	if err := f.SetCellValue(excelSheetName, headerCell, "Status Summary"); err != nil {
		return err
	}

	for i, status := range statuses {
		nameCell, err := excelize.CoordinatesToCellName(startCol, i+2)
		if err != nil {
			return err
		}
		countCell, err := excelize.CoordinatesToCellName(startCol+1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(excelSheetName, nameCell, status); err != nil {
			return err
		}
		if err := f.SetCellValue(excelSheetName, countCell, counts[model.DeliveryStatus(status)]); err != nil {
			return err
		}
	}
	return nil
}
