package export

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"repartition/internal/lettres"
)

const sheetName = "Répartition"

// renderXLSX writes a single-sheet workbook mirroring the CSV layout,
// with real numeric cells and percentages as fractions.
func (r Report) renderXLSX(w io.Writer) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheetName); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}

	header := [][]any{
		{"Affaire", r.Affaire.Numero},
		{"Date", frDate(r.Affaire.DateAffaire)},
		{"Montant Total", r.Affaire.MontantTotal},
		{"Montant Net", r.Affaire.MontantNet},
		{"Montant Net (lettres)", lettres.Montant(r.Affaire.MontantNet)},
		{},
		{"Nom", "Type", "Montant", "Pourcentage"},
	}
	row := 1
	for _, cells := range header {
		if err := f.SetSheetRow(sheetName, fmt.Sprintf("A%d", row), &cells); err != nil {
			return fmt.Errorf("write header row %d: %w", row, err)
		}
		row++
	}

	pctStyle, err := f.NewStyle(&excelize.Style{NumFmt: 10}) // 0.00%
	if err != nil {
		return fmt.Errorf("create percent style: %w", err)
	}

	for _, b := range r.Beneficiaires {
		cells := []any{b.Nom, string(b.Categorie), b.Montant, b.Pourcentage / 100}
		if err := f.SetSheetRow(sheetName, fmt.Sprintf("A%d", row), &cells); err != nil {
			return fmt.Errorf("write beneficiary row %d: %w", row, err)
		}
		pctCell := fmt.Sprintf("D%d", row)
		if err := f.SetCellStyle(sheetName, pctCell, pctCell, pctStyle); err != nil {
			return fmt.Errorf("style percent cell %s: %w", pctCell, err)
		}
		row++
	}

	footer := [][]any{
		{"Total distribué", "", r.Reconciliation.Distributed, ""},
		{"Écart (Net - Distribué)", "", r.Reconciliation.Ecart, ""},
	}
	for _, cells := range footer {
		if err := f.SetSheetRow(sheetName, fmt.Sprintf("A%d", row), &cells); err != nil {
			return fmt.Errorf("write footer row %d: %w", row, err)
		}
		row++
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}
