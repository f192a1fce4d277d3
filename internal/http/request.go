package http

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	json "github.com/goccy/go-json"
	"github.com/shopspring/decimal"

	"repartition/internal/allocation"
	"repartition/internal/core"
	"repartition/internal/services"
)

// montant is a whole-franc amount that decodes from either a JSON
// number or a formatted string the saisie forms produce ("1 000 000",
// "1250,5"). It marshals back as a plain number.
type montant int64

func (m *montant) UnmarshalJSON(data []byte) error {
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		v, err := core.ParseFrancs(s)
		if err != nil {
			return err
		}
		*m = montant(v)
		return nil
	}
	var v int64
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*m = montant(v)
	return nil
}

// affairePayload is the wire shape of a case. Dates travel as
// YYYY-MM-DD strings; amounts as whole francs.
type affairePayload struct {
	ID           string         `json:"id,omitempty"`
	Numero       string         `json:"numero"`
	DateAffaire  string         `json:"date_affaire"`
	MontantTotal montant        `json:"montant_total"`
	MontantNet   montant        `json:"montant_net"`
	Dossier      dossierPayload `json:"dossier"`
	Version      int64          `json:"version,omitempty"`
	Exported     bool           `json:"exported,omitempty"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
}

type dossierPayload struct {
	Region             string `json:"region,omitempty"`
	Bureau             string `json:"bureau,omitempty"`
	NumDeclaration     string `json:"num_declaration,omitempty"`
	Contrevenant       string `json:"contrevenant,omitempty"`
	Adresse            string `json:"adresse,omitempty"`
	IFU                string `json:"ifu,omitempty"`
	NatureInfraction   string `json:"nature_infraction,omitempty"`
	Marchandises       string `json:"marchandises,omitempty"`
	Origine            string `json:"origine,omitempty"`
	ValeurMarchandises int64  `json:"valeur_marchandises,omitempty"`
	NumQuittance       string `json:"num_quittance,omitempty"`
	DateQuittance      string `json:"date_quittance,omitempty"`
	Saisissants        string `json:"saisissants,omitempty"`
	Intervenants       string `json:"intervenants,omitempty"`
	Chefs              string `json:"chefs,omitempty"`
	Circonstances      string `json:"circonstances,omitempty"`
	Notes              string `json:"notes,omitempty"`
}

type beneficiaryPayload struct {
	Nom         string  `json:"nom"`
	Categorie   string  `json:"categorie"`
	Montant     montant `json:"montant"`
	Pourcentage float64 `json:"pourcentage"`
}

type affaireDetailPayload struct {
	Affaire        affairePayload            `json:"affaire"`
	Beneficiaires  []beneficiaryPayload      `json:"beneficiaires"`
	Reconciliation allocation.Reconciliation `json:"reconciliation"`
}

// repartitionPayload carries the distribution inputs. MontantNet is
// only read by the preview endpoint; the per-case endpoint uses the
// stored net amount.
type repartitionPayload struct {
	MontantNet    montant  `json:"montant_net,omitempty"`
	Saisissants   []string `json:"saisissants"`
	HasIndicateur bool     `json:"has_indicateur,omitempty"`
	IndicateurNom string   `json:"indicateur_nom,omitempty"`
	Intervenants  []string `json:"intervenants,omitempty"`
}

// configPayload is the wire shape of a fund or chief row. Poids is a
// decimal string so fractional weights survive the round trip intact.
type configPayload struct {
	ID    int64  `json:"id,omitempty"`
	Nom   string `json:"nom"`
	Poids string `json:"poids"`
}

func (p affairePayload) toCore() (core.Affaire, error) {
	dateAffaire, err := core.ParseDate(p.DateAffaire)
	if err != nil {
		return core.Affaire{}, &core.ValidationError{Field: "date_affaire", Reason: "date invalide, format attendu AAAA-MM-JJ"}
	}
	var dateQuittance core.Date
	if strings.TrimSpace(p.Dossier.DateQuittance) != "" {
		dateQuittance, err = core.ParseDate(p.Dossier.DateQuittance)
		if err != nil {
			return core.Affaire{}, &core.ValidationError{Field: "date_quittance", Reason: "date invalide, format attendu AAAA-MM-JJ"}
		}
	}

	return core.Affaire{
		ID:           sanitizeInput(p.ID),
		Numero:       sanitizeInput(p.Numero),
		DateAffaire:  dateAffaire,
		MontantTotal: int64(p.MontantTotal),
		MontantNet:   int64(p.MontantNet),
		Dossier: core.Dossier{
			Region:             sanitizeInput(p.Dossier.Region),
			Office:             sanitizeInput(p.Dossier.Bureau),
			NumDeclaration:     sanitizeInput(p.Dossier.NumDeclaration),
			Contrevenant:       sanitizeInput(p.Dossier.Contrevenant),
			Adresse:            sanitizeInput(p.Dossier.Adresse),
			IFU:                sanitizeInput(p.Dossier.IFU),
			NatureInfraction:   sanitizeInput(p.Dossier.NatureInfraction),
			Marchandises:       sanitizeInput(p.Dossier.Marchandises),
			Origine:            sanitizeInput(p.Dossier.Origine),
			ValeurMarchandises: p.Dossier.ValeurMarchandises,
			NumQuittance:       sanitizeInput(p.Dossier.NumQuittance),
			DateQuittance:      dateQuittance,
			Saisissants:        sanitizeInput(p.Dossier.Saisissants),
			Intervenants:       sanitizeInput(p.Dossier.Intervenants),
			Chefs:              sanitizeInput(p.Dossier.Chefs),
			Circonstances:      sanitizeInput(p.Dossier.Circonstances),
			Notes:              sanitizeInput(p.Dossier.Notes),
		},
	}, nil
}

func fromCoreAffaire(a core.Affaire) affairePayload {
	return affairePayload{
		ID:           a.ID,
		Numero:       a.Numero,
		DateAffaire:  a.DateAffaire.String(),
		MontantTotal: montant(a.MontantTotal),
		MontantNet:   montant(a.MontantNet),
		Dossier: dossierPayload{
			Region:             a.Dossier.Region,
			Bureau:             a.Dossier.Office,
			NumDeclaration:     a.Dossier.NumDeclaration,
			Contrevenant:       a.Dossier.Contrevenant,
			Adresse:            a.Dossier.Adresse,
			IFU:                a.Dossier.IFU,
			NatureInfraction:   a.Dossier.NatureInfraction,
			Marchandises:       a.Dossier.Marchandises,
			Origine:            a.Dossier.Origine,
			ValeurMarchandises: a.Dossier.ValeurMarchandises,
			NumQuittance:       a.Dossier.NumQuittance,
			DateQuittance:      a.Dossier.DateQuittance.String(),
			Saisissants:        a.Dossier.Saisissants,
			Intervenants:       a.Dossier.Intervenants,
			Chefs:              a.Dossier.Chefs,
			Circonstances:      a.Dossier.Circonstances,
			Notes:              a.Dossier.Notes,
		},
		Version:   a.Version,
		Exported:  a.Exported,
		CreatedAt: a.CreatedAt,
		UpdatedAt: a.UpdatedAt,
	}
}

func fromCoreBeneficiaries(list []core.Beneficiary) []beneficiaryPayload {
	out := make([]beneficiaryPayload, 0, len(list))
	for _, b := range list {
		out = append(out, beneficiaryPayload{
			Nom:         b.Nom,
			Categorie:   string(b.Categorie),
			Montant:     montant(b.Montant),
			Pourcentage: b.Pourcentage,
		})
	}
	return out
}

func toCoreBeneficiaries(list []beneficiaryPayload) []core.Beneficiary {
	out := make([]core.Beneficiary, 0, len(list))
	for _, b := range list {
		out = append(out, core.Beneficiary{
			Nom:         sanitizeInput(b.Nom),
			Categorie:   core.Category(strings.TrimSpace(b.Categorie)),
			Montant:     int64(b.Montant),
			Pourcentage: b.Pourcentage,
		})
	}
	return out
}

func fromDetail(d services.AffaireDetail) affaireDetailPayload {
	return affaireDetailPayload{
		Affaire:        fromCoreAffaire(d.Affaire),
		Beneficiaires:  fromCoreBeneficiaries(d.Beneficiaires),
		Reconciliation: d.Reconciliation,
	}
}

func (p configPayload) toFund() (core.Fund, error) {
	poids, err := parsePoids(p.Poids)
	if err != nil {
		return core.Fund{}, err
	}
	return core.Fund{ID: p.ID, Nom: sanitizeInput(p.Nom), Poids: poids}, nil
}

func (p configPayload) toChief() (core.Chief, error) {
	poids, err := parsePoids(p.Poids)
	if err != nil {
		return core.Chief{}, err
	}
	return core.Chief{ID: p.ID, Nom: sanitizeInput(p.Nom), Poids: poids}, nil
}

func parsePoids(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Decimal{}, &core.ValidationError{Field: "poids", Reason: "poids invalide: " + s}
	}
	return d, nil
}

func fromFunds(list []core.Fund) []configPayload {
	out := make([]configPayload, 0, len(list))
	for _, f := range list {
		out = append(out, configPayload{ID: f.ID, Nom: f.Nom, Poids: f.Poids.String()})
	}
	return out
}

func fromChiefs(list []core.Chief) []configPayload {
	out := make([]configPayload, 0, len(list))
	for _, c := range list {
		out = append(out, configPayload{ID: c.ID, Nom: c.Nom, Poids: c.Poids.String()})
	}
	return out
}

// dateRange extracts optional from/to/limit query parameters. Zero
// dates mean an open bound; a zero limit means no limit.
func dateRange(r *http.Request) (from, to core.Date, limit int, err error) {
	q := r.URL.Query()
	if v := strings.TrimSpace(q.Get("from")); v != "" {
		from, err = core.ParseDate(v)
		if err != nil {
			return core.Date{}, core.Date{}, 0, &core.ValidationError{Field: "from", Reason: "date invalide, format attendu AAAA-MM-JJ"}
		}
	}
	if v := strings.TrimSpace(q.Get("to")); v != "" {
		to, err = core.ParseDate(v)
		if err != nil {
			return core.Date{}, core.Date{}, 0, &core.ValidationError{Field: "to", Reason: "date invalide, format attendu AAAA-MM-JJ"}
		}
	}
	if v := strings.TrimSpace(q.Get("limit")); v != "" {
		limit, err = strconv.Atoi(v)
		if err != nil || limit < 0 {
			return core.Date{}, core.Date{}, 0, &core.ValidationError{Field: "limit", Reason: "limite invalide"}
		}
	}
	return from, to, limit, nil
}

// pathID extracts a numeric path id for fund/chief routes.
func pathID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, &core.ValidationError{Field: "id", Reason: "identifiant invalide"}
	}
	return id, nil
}

// sanitizeInput trims whitespace and strips control characters.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
}

// generateRequestID creates a unique request ID for tracing.
func generateRequestID() string {
	bytes := make([]byte, 8)
	if _, err := rand.Read(bytes); err != nil {
		return fmt.Sprintf("req_%d", time.Now().UnixNano())
	}
	return "req_" + hex.EncodeToString(bytes)
}
