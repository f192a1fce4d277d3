// Package export renders a saved distribution into the documents handed
// to the hierarchy: PDF for signatures, XLSX and CSV for the registers.
package export

import (
	"fmt"
	"io"
	"strings"

	"repartition/internal/allocation"
	"repartition/internal/core"
)

// Format identifies an output document type.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
	FormatPDF  Format = "pdf"
)

// ParseFormat validates a format string from a request or message.
func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(s))) {
	case FormatCSV:
		return FormatCSV, nil
	case FormatXLSX:
		return FormatXLSX, nil
	case FormatPDF:
		return FormatPDF, nil
	}
	return "", fmt.Errorf("unknown export format %q", s)
}

// ContentType returns the MIME type served for the format.
func (f Format) ContentType() string {
	switch f {
	case FormatCSV:
		return "text/csv; charset=utf-8"
	case FormatXLSX:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	case FormatPDF:
		return "application/pdf"
	}
	return "application/octet-stream"
}

// Report bundles everything a renderer needs. The reconciliation is
// recomputed here so a stale stored écart can never leak into a document.
type Report struct {
	Affaire        core.Affaire
	Beneficiaires  []core.Beneficiary
	Reconciliation allocation.Reconciliation
}

// NewReport builds a report for one case.
func NewReport(a core.Affaire, beneficiaires []core.Beneficiary) Report {
	return Report{
		Affaire:        a,
		Beneficiaires:  beneficiaires,
		Reconciliation: allocation.Reconcile(beneficiaires, a.MontantNet),
	}
}

// FileName is `<numero>_repartition.<ext>` with filesystem-hostile
// characters replaced.
func (r Report) FileName(format Format) string {
	numero := strings.NewReplacer("/", "-", "\\", "-", " ", "_").Replace(r.Affaire.Numero)
	return fmt.Sprintf("%s_repartition.%s", numero, format)
}

// Render writes the report in the requested format.
func (r Report) Render(w io.Writer, format Format) error {
	switch format {
	case FormatCSV:
		return r.renderCSV(w)
	case FormatXLSX:
		return r.renderXLSX(w)
	case FormatPDF:
		return r.renderPDF(w)
	}
	return fmt.Errorf("unknown export format %q", format)
}

// frDate formats a date the way the printed documents expect.
func frDate(d core.Date) string {
	if d.IsZero() {
		return ""
	}
	return d.Format("02/01/2006")
}
