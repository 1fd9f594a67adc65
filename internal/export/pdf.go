package export

import (
	"bytes"
	"fmt"
	"sort"

	"github.com/andrewPaul004/ColorGarbApp-sub004/internal/model"
	"github.com/go-pdf/fpdf"
)

// pdfDateFormat is the human-readable format used inside the report body.
const pdfDateFormat = "January 2, 2006"

// PDFRenderer produces the compliance report: title, organization, date
// range, total communications, delivery success rate, status and type
// breakdowns, and optionally a failure analysis section.
type PDFRenderer struct{}

type ComplianceReport struct {
	Summary         *model.DeliveryStatusSummary
	FailureAnalysis []*model.CommunicationLog // failed/bounced logs, optional
}

func (PDFRenderer) Render(report *ComplianceReport) ([]byte, error) {
	if report == nil || report.Summary == nil {
		return nil, fmt.Errorf("summary is required")
	}
	summary := report.Summary

	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetTitle("Communication Compliance Report", false)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 16)
	pdf.CellFormat(0, 10, "Communication Compliance Report", "", 1, "C", false, 0, "")
	pdf.Ln(4)

	pdf.SetFont("Helvetica", "", 11)
	pdf.CellFormat(0, 7, fmt.Sprintf("Organization: %d", summary.OrganizationID), "", 1, "L", false, 0, "")
	pdf.CellFormat(0, 7, fmt.Sprintf("Period: %s - %s",
		summary.From.Format(pdfDateFormat), summary.To.Format(pdfDateFormat)), "", 1, "L", false, 0, "")
	pdf.Ln(3)

	pdf.SetFont("Helvetica", "B", 12)
	pdf.CellFormat(0, 8, "Summary", "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 11)
	pdf.CellFormat(0, 7, fmt.Sprintf("Total communications: %d", summary.TotalCommunications), "", 1, "L", false, 0, "")
	pdf.CellFormat(0, 7, fmt.Sprintf("Delivery success rate: %.1f%%", summary.DeliverySuccessRate()), "", 1, "L", false, 0, "")
	pdf.Ln(3)

	writeBreakdown(pdf, "Delivery Status Breakdown", statusRows(summary.StatusCounts))
	writeBreakdown(pdf, "Communication Type Breakdown", typeRows(summary.TypeCounts))

	if len(report.FailureAnalysis) > 0 {
		pdf.SetFont("Helvetica", "B", 12)
		pdf.CellFormat(0, 8, "Failure Analysis", "", 1, "L", false, 0, "")
		pdf.SetFont("Helvetica", "", 9)
		for _, log := range report.FailureAnalysis {
			line := fmt.Sprintf("#%d  order %d  %s  %s  %s",
				log.ID, log.OrderID, log.Type, log.SentAt.Format(pdfDateFormat), log.FailureReason)
			pdf.CellFormat(0, 5, line, "", 1, "L", false, 0, "")
		}
		pdf.Ln(3)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

type breakdownRow struct {
	label string
	count int64
}

func writeBreakdown(pdf *fpdf.Fpdf, title string, rows []breakdownRow) {
	pdf.SetFont("Helvetica", "B", 12)
	pdf.CellFormat(0, 8, title, "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 11)
	for _, row := range rows {
		pdf.CellFormat(60, 6, row.label, "1", 0, "L", false, 0, "")
		pdf.CellFormat(30, 6, fmt.Sprintf("%d", row.count), "1", 1, "R", false, 0, "")
	}
	pdf.Ln(3)
}

func statusRows(counts map[model.DeliveryStatus]int64) []breakdownRow {
	rows := make([]breakdownRow, 0, len(counts))
	for status, count := range counts {
		rows = append(rows, breakdownRow{string(status), count})
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].label < rows[j].label })
	return rows
}

func typeRows(counts map[model.CommunicationType]int64) []breakdownRow {
	rows := make([]breakdownRow, 0, len(counts))
	for typ, count := range counts {
		rows = append(rows, breakdownRow{string(typ), count})
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].label < rows[j].label })
	return rows
}
