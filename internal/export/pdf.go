package export

import (
	"fmt"
	"io"

	"github.com/go-pdf/fpdf"

	"repartition/internal/core"
	"repartition/internal/lettres"
)

// renderPDF writes the signature document: title, case header block and
// the beneficiary grid with total and écart foot rows.
func (r Report) renderPDF(w io.Writer) error {
	pdf := fpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 18)
	pdf.CellFormat(0, 12, tr("RÉPARTITION DE CONTENTIEUX DOUANIERS"), "", 1, "C", false, 0, "")
	pdf.Ln(4)

	pdf.SetFont("Helvetica", "", 12)
	pdf.CellFormat(0, 7, tr(fmt.Sprintf("N° Affaire: %s", r.Affaire.Numero)), "", 1, "L", false, 0, "")
	pdf.CellFormat(0, 7, tr(fmt.Sprintf("Date: %s", frDate(r.Affaire.DateAffaire))), "", 1, "L", false, 0, "")
	pdf.CellFormat(0, 7, tr(fmt.Sprintf("Montant Total: %s FCFA", core.FormatFrancs(r.Affaire.MontantTotal))), "", 1, "L", false, 0, "")
	pdf.CellFormat(0, 7, tr(fmt.Sprintf("Montant Net: %s FCFA", core.FormatFrancs(r.Affaire.MontantNet))), "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 10)
	pdf.MultiCell(0, 6, tr(fmt.Sprintf("En lettres: %s", lettres.Montant(r.Affaire.MontantNet))), "", "L", false)
	pdf.Ln(4)

	widths := []float64{70, 40, 45, 35}
	headers := []string{"Nom", "Type", "Montant", "Pourcentage"}

	pdf.SetFont("Helvetica", "B", 11)
	pdf.SetFillColor(52, 152, 219)
	pdf.SetTextColor(255, 255, 255)
	for i, h := range headers {
		pdf.CellFormat(widths[i], 8, tr(h), "1", 0, "C", true, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Helvetica", "", 10)
	pdf.SetTextColor(0, 0, 0)
	for _, b := range r.Beneficiaires {
		pdf.CellFormat(widths[0], 7, tr(b.Nom), "1", 0, "L", false, 0, "")
		pdf.CellFormat(widths[1], 7, tr(string(b.Categorie)), "1", 0, "L", false, 0, "")
		pdf.CellFormat(widths[2], 7, tr(fmt.Sprintf("%s FCFA", core.FormatFrancs(b.Montant))), "1", 0, "R", false, 0, "")
		pdf.CellFormat(widths[3], 7, fmt.Sprintf("%.2f%%", b.Pourcentage), "1", 0, "R", false, 0, "")
		pdf.Ln(-1)
	}

	pdf.SetFont("Helvetica", "B", 10)
	pdf.SetFillColor(236, 240, 241)
	foot := [][2]string{
		{"Total distribué", core.FormatFrancs(r.Reconciliation.Distributed)},
		{"Écart", core.FormatFrancs(r.Reconciliation.Ecart)},
	}
	for _, row := range foot {
		pdf.CellFormat(widths[0], 7, tr(row[0]), "1", 0, "L", true, 0, "")
		pdf.CellFormat(widths[1], 7, "", "1", 0, "L", true, 0, "")
		pdf.CellFormat(widths[2], 7, tr(fmt.Sprintf("%s FCFA", row[1])), "1", 0, "R", true, 0, "")
		pdf.CellFormat(widths[3], 7, "", "1", 0, "L", true, 0, "")
		pdf.Ln(-1)
	}

	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("write pdf: %w", err)
	}
	return nil
}
