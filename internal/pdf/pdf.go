// Package pdf renders a Report to a PDF summary using gofpdf, in the
// cell-and-multicell style the teacher's engagement report used; a long
// check list continues onto further pages.
package pdf

import (
	"fmt"
	"strings"

	"github.com/jung-kurt/gofpdf"

	"github.com/khanhnv2901/webaudit/internal/model"
)

// Render builds a PDF summary of report and returns its bytes.
func Render(report *model.Report) ([]byte, error) {
	doc := gofpdf.New("P", "mm", "A4", "")
	doc.AddPage()

	doc.SetFont("Arial", "B", 16)
	doc.CellFormat(0, 10, "Website Audit Report", "", 1, "C", false, 0, "")
	doc.Ln(5)

	doc.SetFont("Arial", "", 10)
	doc.CellFormat(0, 6, fmt.Sprintf("URL: %s", report.URL), "", 1, "", false, 0, "")
	if report.FinalURL != "" && report.FinalURL != report.URL {
		doc.CellFormat(0, 6, fmt.Sprintf("Final URL: %s", report.FinalURL), "", 1, "", false, 0, "")
	}
	doc.CellFormat(0, 6, fmt.Sprintf("Fetched status: %d | Timing: %dms", report.FetchedStatus, report.TimingMs), "", 1, "", false, 0, "")
	if report.Score != nil {
		doc.SetFont("Arial", "B", 12)
		doc.CellFormat(0, 8, fmt.Sprintf("Overall score: %d/100", *report.Score), "", 1, "", false, 0, "")
	}
	doc.Ln(3)

	if report.Blocked {
		doc.SetFont("Arial", "B", 11)
		doc.SetTextColor(200, 0, 0)
		doc.CellFormat(0, 7, "Audit blocked by origin", "", 1, "", false, 0, "")
		doc.SetTextColor(0, 0, 0)
	}
	if report.Timeout {
		doc.SetFont("Arial", "B", 11)
		doc.SetTextColor(200, 130, 0)
		doc.CellFormat(0, 7, "Audit timed out", "", 1, "", false, 0, "")
		doc.SetTextColor(0, 0, 0)
	}

	doc.SetFont("Arial", "B", 12)
	doc.CellFormat(0, 8, "Checks", "", 1, "", false, 0, "")

	for _, c := range report.Checks {
		if doc.GetY() > 270 {
			doc.AddPage()
		}
		doc.SetFont("Arial", "B", 9)
		r, g, b := fillColorFor(c.Status)
		doc.SetFillColor(r, g, b)
		doc.CellFormat(0, 6, fmt.Sprintf("%s — %s", c.Label, strings.ToUpper(string(c.Status))), "", 1, "", true, 0, "")
		if c.Details != "" {
			doc.SetFont("Arial", "", 8)
			doc.MultiCell(0, 4, c.Details, "", "", false)
		}
	}

	var buf strings.Builder
	if err := doc.Output(&buf); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return []byte(buf.String()), nil
}

func fillColorFor(status model.Status) (int, int, int) {
	switch status {
	case model.StatusPass:
		return 220, 245, 220
	case model.StatusWarn:
		return 255, 244, 210
	case model.StatusFail:
		return 250, 220, 220
	default:
		return 235, 235, 235
	}
}
