package core

import (
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Category is the closed set of beneficiary categories. Exports and
// statistics group by these exact labels, so they must not change.
const (
	// CategorySeizingAgent marks a field officer paid from the 25% pool.
	CategorySeizingAgent Category = "SEIZING_AGENT"
	// CategoryChief is used both for hierarchical chiefs and for
	// intervening officers. The double duty is a carry-over from the
	// historical register and is kept on purpose.
	CategoryChief Category = "CHIEF"
	// CategoryFund marks institutional shares (Part Budget, FSP,
	// indicator, residual funds).
	CategoryFund Category = "FUND"
)

// Reserved fund names excluded from residual redistribution.
const (
	FundPartBudget = "Part Budget"
	FundFSP        = "FSP"
)

type (
	Category string

	Date struct {
		time.Time
	}

	// Affaire is one litigation/seizure case. MontantNet is the base for
	// every percentage in its distribution.
	Affaire struct {
		ID           string
		Numero       string
		DateAffaire  Date
		MontantTotal int64
		MontantNet   int64
		Dossier      Dossier
		Version      int64
		Exported     bool
		CreatedAt    time.Time
		UpdatedAt    time.Time
	}

	// Dossier carries the descriptive fields of the contentious file.
	// All optional; none of them feed the allocation rules.
	Dossier struct {
		Region             string
		Office             string
		NumDeclaration     string
		Contrevenant       string
		Adresse            string
		IFU                string
		NatureInfraction   string
		Marchandises       string
		Origine            string
		ValeurMarchandises int64
		NumQuittance       string
		DateQuittance      Date
		Saisissants        string
		Intervenants       string
		Chefs              string
		Circonstances      string
		Notes              string
	}

	// Beneficiary is one line of a distribution. Montant is whole francs
	// (XOF has no minor unit); Pourcentage is always derived from the
	// affaire's net amount.
	Beneficiary struct {
		Nom         string
		Categorie   Category
		Montant     int64
		Pourcentage float64
	}

	// Fund is one configured residual category. Poids is a relative
	// weight in percentage points; curated tables usually sum to 100 but
	// the engine never assumes they do.
	Fund struct {
		ID    int64
		Nom   string
		Poids decimal.Decimal
	}

	// Chief is configuration data managed next to funds. It is not
	// consumed by the allocation rules.
	Chief struct {
		ID    int64
		Nom   string
		Poids decimal.Decimal
	}
)

var (
	ErrInvalidAmount   = errors.New("invalid amount")
	ErrEmptyNumero     = errors.New("empty case number")
	ErrAffaireNotFound = errors.New("affaire not found")
)

func (c Category) Valid() bool {
	switch c {
	case CategorySeizingAgent, CategoryChief, CategoryFund:
		return true
	}
	return false
}

// NewDate creates a Date at midnight UTC.
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// ParseDate parses YYYY-MM-DD.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse("2006-01-02", strings.TrimSpace(s))
	if err != nil {
		return Date{}, err
	}
	return Date{Time: t}, nil
}

func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format("2006-01-02")
}

func (a Affaire) Validate() error {
	if strings.TrimSpace(a.Numero) == "" {
		return &ValidationError{Field: "numero", Reason: "le numéro d'affaire est obligatoire"}
	}
	if a.DateAffaire.IsZero() {
		return &ValidationError{Field: "date_affaire", Reason: "la date de l'affaire est obligatoire"}
	}
	if a.MontantNet < 0 {
		return &ValidationError{Field: "montant_net", Reason: "le montant net ne peut pas être négatif"}
	}
	if a.MontantTotal < 0 {
		return &ValidationError{Field: "montant_total", Reason: "le montant total ne peut pas être négatif"}
	}
	return nil
}

func (b Beneficiary) Validate() error {
	if strings.TrimSpace(b.Nom) == "" {
		return &ValidationError{Field: "nom", Reason: "le nom du bénéficiaire est obligatoire"}
	}
	if !b.Categorie.Valid() {
		return &ValidationError{Field: "categorie", Reason: "catégorie inconnue: " + string(b.Categorie)}
	}
	if b.Montant < 0 {
		return &ValidationError{Field: "montant", Reason: "le montant ne peut pas être négatif"}
	}
	return nil
}

func (f Fund) Validate() error {
	if strings.TrimSpace(f.Nom) == "" {
		return &ValidationError{Field: "nom", Reason: "le nom du fonds est obligatoire"}
	}
	if f.Poids.IsNegative() {
		return &ValidationError{Field: "poids", Reason: "le poids ne peut pas être négatif"}
	}
	return nil
}

func (c Chief) Validate() error {
	if strings.TrimSpace(c.Nom) == "" {
		return &ValidationError{Field: "nom", Reason: "le nom du chef est obligatoire"}
	}
	if c.Poids.IsNegative() {
		return &ValidationError{Field: "poids", Reason: "le poids ne peut pas être négatif"}
	}
	return nil
}
