package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"repartition/internal/lettres"
)

// renderCSV writes a semicolon-separated document with a UTF-8 BOM so
// spreadsheet tools open the accents correctly.
func (r Report) renderCSV(w io.Writer) error {
	if _, err := w.Write([]byte{0xEF, 0xBB, 0xBF}); err != nil {
		return fmt.Errorf("write BOM: %w", err)
	}

	cw := csv.NewWriter(w)
	cw.Comma = ';'

	rows := [][]string{
		{"Affaire", r.Affaire.Numero},
		{"Date", frDate(r.Affaire.DateAffaire)},
		{"Montant Total", strconv.FormatInt(r.Affaire.MontantTotal, 10)},
		{"Montant Net", strconv.FormatInt(r.Affaire.MontantNet, 10)},
		{"Montant Net (lettres)", lettres.Montant(r.Affaire.MontantNet)},
		{},
		{"Nom", "Type", "Montant", "Pourcentage"},
	}
	for _, b := range r.Beneficiaires {
		rows = append(rows, []string{
			b.Nom,
			string(b.Categorie),
			strconv.FormatInt(b.Montant, 10),
			fmt.Sprintf("%.2f%%", b.Pourcentage),
		})
	}
	rows = append(rows,
		[]string{"Total distribué", "", strconv.FormatInt(r.Reconciliation.Distributed, 10), ""},
		[]string{"Écart", "", strconv.FormatInt(r.Reconciliation.Ecart, 10), ""},
	)

	if err := cw.WriteAll(rows); err != nil {
		return fmt.Errorf("write csv rows: %w", err)
	}
	return cw.Error()
}
