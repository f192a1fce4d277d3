// Package allocation implements the rule-based distribution of a net
// recovered amount among beneficiaries, and the reconciliation of a
// beneficiary list against the affaire's net amount.
//
// The rules are fixed office policy, not configuration: 50% Part Budget,
// 4% FSP, a 25% pool split into one identical rounded unit per seizing
// agent, 10% for the indicator when one is declared, half a seizing unit
// per intervenor, and the remainder over the configured fund table.
// Every share is rounded independently (half away from zero); the
// resulting drift is surfaced as écart, never redistributed.
package allocation

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/shopspring/decimal"

	"repartition/internal/core"
)

// Input describes one engine invocation. Saisissants must contain at
// least one non-blank name; IndicateurNom is required when HasIndicateur
// is set.
type Input struct {
	MontantNet    int64
	Saisissants   []string
	HasIndicateur bool
	IndicateurNom string
	Intervenants  []string
	Fonds         []core.Fund
}

var (
	tauxBudget     = decimal.New(50, -2) // 0.50
	tauxFSP        = decimal.New(4, -2)  // 0.04
	tauxSaisissant = decimal.New(25, -2) // 0.25
	tauxIndicateur = decimal.New(10, -2) // 0.10
	two            = decimal.NewFromInt(2)
	cent           = decimal.NewFromInt(100)
)

// Engine runs the allocation rules against the fund table of an injected
// configuration provider.
type Engine struct {
	cfg ConfigProvider
}

func NewEngine(cfg ConfigProvider) *Engine {
	return &Engine{cfg: cfg}
}

// Allocate loads the current fund table and runs the rules. The fund
// table in the input, when non-nil, takes precedence (used for previews
// against a caller-supplied table).
func (e *Engine) Allocate(ctx context.Context, in Input) ([]core.Beneficiary, error) {
	if in.Fonds == nil && e.cfg != nil {
		fonds, err := e.cfg.Fonds(ctx)
		if err != nil {
			return nil, fmt.Errorf("load fund table: %w", err)
		}
		in.Fonds = fonds
	}
	out, err := Allocate(in)
	if err != nil {
		return nil, err
	}
	// A nonzero remainder with nowhere to go is a configuration warning,
	// not a failure; the shortfall shows up in the écart.
	rec := Reconcile(out, in.MontantNet)
	if rec.Ecart > 0 && len(remainingFonds(in.Fonds)) == 0 {
		slog.WarnContext(ctx, "No residual funds configured, remainder left unallocated",
			"ecart", rec.Ecart, "montant_net", in.MontantNet)
	}
	return out, nil
}

// Allocate is the pure rule evaluator. Deterministic: identical inputs
// produce identical ordered output. Output order is fixed: Part Budget,
// FSP, seizing agents (input order), indicator, intervenors (input
// order), residual funds (table order after filtering).
func Allocate(in Input) ([]core.Beneficiary, error) {
	if err := validate(in); err != nil {
		return nil, err
	}

	net := decimal.NewFromInt(in.MontantNet)
	out := make([]core.Beneficiary, 0, 4+len(in.Saisissants)+len(in.Intervenants)+len(in.Fonds))

	// 1. Part Budget: 50%, nominal percentage exactly 50.
	partBudget := roundWhole(net.Mul(tauxBudget))
	out = append(out, core.Beneficiary{
		Nom:         core.FundPartBudget,
		Categorie:   core.CategoryFund,
		Montant:     partBudget,
		Pourcentage: 50,
	})

	// 2. FSP: 4%, nominal percentage exactly 4.
	partFSP := roundWhole(net.Mul(tauxFSP))
	out = append(out, core.Beneficiary{
		Nom:         core.FundFSP,
		Categorie:   core.CategoryFund,
		Montant:     partFSP,
		Pourcentage: 4,
	})

	// 3. Seizing agents: a 25% pool, one identical rounded unit each.
	// The full pool counts against the remainder even when unit*count
	// drifts from it.
	pool := roundWhole(net.Mul(tauxSaisissant))
	saisissants := nonBlank(in.Saisissants)
	unit := roundWhole(decimal.NewFromInt(pool).Div(decimal.NewFromInt(int64(len(saisissants)))))
	for _, nom := range saisissants {
		out = append(out, core.Beneficiary{
			Nom:         nom,
			Categorie:   core.CategorySeizingAgent,
			Montant:     unit,
			Pourcentage: percentage(unit, in.MontantNet),
		})
	}

	// 4. Indicator: 10% when declared.
	var partIndicateur int64
	if in.HasIndicateur {
		partIndicateur = roundWhole(net.Mul(tauxIndicateur))
		out = append(out, core.Beneficiary{
			Nom:         strings.TrimSpace(in.IndicateurNom),
			Categorie:   core.CategoryFund,
			Montant:     partIndicateur,
			Pourcentage: 10,
		})
	}

	// 5. Intervenors: half a seizing unit each, tagged CHIEF as in the
	// historical register.
	var totalIntervenants int64
	if intervenants := nonBlank(in.Intervenants); len(intervenants) > 0 {
		demi := roundWhole(decimal.NewFromInt(unit).Div(two))
		for _, nom := range intervenants {
			out = append(out, core.Beneficiary{
				Nom:         nom,
				Categorie:   core.CategoryChief,
				Montant:     demi,
				Pourcentage: percentage(demi, in.MontantNet),
			})
			totalIntervenants += demi
		}
	}

	// 6. Remainder over the configured funds, reserved names excluded.
	reste := in.MontantNet - partBudget - partFSP - pool - partIndicateur - totalIntervenants
	if reste > 0 {
		out = append(out, splitReste(reste, in.MontantNet, in.Fonds)...)
	}

	return out, nil
}

// splitReste distributes a positive remainder over the non-reserved
// funds. Weights are renormalized over the filtered subset; an all-zero
// subset splits evenly.
func splitReste(reste, net int64, fonds []core.Fund) []core.Beneficiary {
	autres := remainingFonds(fonds)
	if len(autres) == 0 {
		return nil
	}

	total := decimal.Zero
	for _, f := range autres {
		total = total.Add(f.Poids)
	}

	resteDec := decimal.NewFromInt(reste)
	out := make([]core.Beneficiary, 0, len(autres))
	if total.IsPositive() {
		for _, f := range autres {
			montant := roundWhole(resteDec.Mul(f.Poids).Div(total))
			out = append(out, core.Beneficiary{
				Nom:         f.Nom,
				Categorie:   core.CategoryFund,
				Montant:     montant,
				Pourcentage: percentage(montant, net),
			})
		}
		return out
	}

	// No usable weights: even split.
	montant := roundWhole(resteDec.Div(decimal.NewFromInt(int64(len(autres)))))
	for _, f := range autres {
		out = append(out, core.Beneficiary{
			Nom:         f.Nom,
			Categorie:   core.CategoryFund,
			Montant:     montant,
			Pourcentage: percentage(montant, net),
		})
	}
	return out
}

func validate(in Input) error {
	if in.MontantNet <= 0 {
		return &core.ValidationError{Field: "montant_net", Reason: "le montant net à répartir doit être strictement positif"}
	}
	if len(nonBlank(in.Saisissants)) == 0 {
		return &core.ValidationError{Field: "saisissants", Reason: "au moins un saisissant est requis"}
	}
	if in.HasIndicateur && strings.TrimSpace(in.IndicateurNom) == "" {
		return &core.ValidationError{Field: "indicateur", Reason: "le nom de l'indicateur est obligatoire"}
	}
	return nil
}

// remainingFonds filters out the reserved fund names so the fixed shares
// are never double counted.
func remainingFonds(fonds []core.Fund) []core.Fund {
	out := make([]core.Fund, 0, len(fonds))
	for _, f := range fonds {
		if f.Nom == core.FundPartBudget || f.Nom == core.FundFSP {
			continue
		}
		out = append(out, f)
	}
	return out
}

func nonBlank(noms []string) []string {
	out := make([]string, 0, len(noms))
	for _, n := range noms {
		if n = strings.TrimSpace(n); n != "" {
			out = append(out, n)
		}
	}
	return out
}

// roundWhole rounds to whole francs, half away from zero.
func roundWhole(d decimal.Decimal) int64 {
	return d.Round(0).IntPart()
}

func percentage(montant, net int64) float64 {
	if net == 0 {
		return 0
	}
	p, _ := decimal.NewFromInt(montant).Mul(cent).Div(decimal.NewFromInt(net)).Float64()
	return p
}
