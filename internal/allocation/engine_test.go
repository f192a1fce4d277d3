package allocation

import (
	"context"
	"errors"
	"math"
	"reflect"
	"testing"

	"github.com/shopspring/decimal"

	"repartition/internal/core"
)

func fonds(entries ...core.Fund) []core.Fund { return entries }

func fond(nom string, poids int64) core.Fund {
	return core.Fund{Nom: nom, Poids: decimal.NewFromInt(poids)}
}

func TestAllocateTwoAgentsNoFunds(t *testing.T) {
	out, err := Allocate(Input{
		MontantNet:  1000000,
		Saisissants: []string{"A", "B"},
	})
	if err != nil {
		t.Fatalf("allocate: %v", err)
	}

	want := []core.Beneficiary{
		{Nom: "Part Budget", Categorie: core.CategoryFund, Montant: 500000, Pourcentage: 50},
		{Nom: "FSP", Categorie: core.CategoryFund, Montant: 40000, Pourcentage: 4},
		{Nom: "A", Categorie: core.CategorySeizingAgent, Montant: 125000, Pourcentage: 12.5},
		{Nom: "B", Categorie: core.CategorySeizingAgent, Montant: 125000, Pourcentage: 12.5},
	}
	if !reflect.DeepEqual(out, want) {
		t.Fatalf("unexpected distribution:\n got %+v\nwant %+v", out, want)
	}

	rec := Reconcile(out, 1000000)
	if rec.Distributed != 790000 || rec.Ecart != 210000 || rec.Status != StatusUnder {
		t.Fatalf("unexpected reconciliation: %+v", rec)
	}
}

func TestAllocateResidualSingleFund(t *testing.T) {
	out, err := Allocate(Input{
		MontantNet:  1000000,
		Saisissants: []string{"A", "B"},
		Fonds:       fonds(fond("Autre", 100)),
	})
	if err != nil {
		t.Fatalf("allocate: %v", err)
	}

	last := out[len(out)-1]
	if last.Nom != "Autre" || last.Montant != 210000 || last.Categorie != core.CategoryFund {
		t.Fatalf("unexpected residual entry: %+v", last)
	}
	rec := Reconcile(out, 1000000)
	if rec.Distributed != 1000000 || rec.Ecart != 0 || rec.Status != StatusBalanced {
		t.Fatalf("unexpected reconciliation: %+v", rec)
	}
}

func TestAllocateOverCommitted(t *testing.T) {
	// One agent + indicator + two intervenors over-commits the fixed
	// rules; the engine reports it through the écart, not an error.
	out, err := Allocate(Input{
		MontantNet:    900000,
		Saisissants:   []string{"A"},
		HasIndicateur: true,
		IndicateurNom: "Indic",
		Intervenants:  []string{"C", "D"},
	})
	if err != nil {
		t.Fatalf("allocate: %v", err)
	}

	byName := map[string]int64{}
	for _, b := range out {
		byName[b.Nom] = b.Montant
	}
	for nom, want := range map[string]int64{
		"Part Budget": 450000,
		"FSP":         36000,
		"A":           225000,
		"Indic":       90000,
		"C":           112500,
		"D":           112500,
	} {
		if byName[nom] != want {
			t.Fatalf("%s = %d, want %d", nom, byName[nom], want)
		}
	}

	rec := Reconcile(out, 900000)
	if rec.Distributed != 1026000 || rec.Ecart != -126000 || rec.Status != StatusOver {
		t.Fatalf("unexpected reconciliation: %+v", rec)
	}
	if err := CheckSaveable(out, 900000); err == nil {
		t.Fatal("over-allocated list must not be saveable")
	}
}

func TestAllocateOrdering(t *testing.T) {
	out, err := Allocate(Input{
		MontantNet:    1000000,
		Saisissants:   []string{"S1", "S2"},
		HasIndicateur: true,
		IndicateurNom: "Indic",
		Intervenants:  []string{"I1", "I2"},
		Fonds:         fonds(fond("Part Budget", 50), fond("Fonds Commun", 60), fond("FSP", 4), fond("Oeuvres", 40)),
	})
	if err != nil {
		t.Fatalf("allocate: %v", err)
	}
	var noms []string
	for _, b := range out {
		noms = append(noms, b.Nom)
	}
	want := []string{"Part Budget", "FSP", "S1", "S2", "Indic", "I1", "I2", "Fonds Commun", "Oeuvres"}
	if !reflect.DeepEqual(noms, want) {
		t.Fatalf("order = %v, want %v", noms, want)
	}
}

func TestAllocateWeightRenormalization(t *testing.T) {
	// Weights 60/40 over a 210000 remainder, even though the configured
	// table (with reserved names) does not sum to 100.
	out, err := Allocate(Input{
		MontantNet:  1000000,
		Saisissants: []string{"A", "B"},
		Fonds:       fonds(fond("Part Budget", 50), fond("X", 60), fond("Y", 40)),
	})
	if err != nil {
		t.Fatalf("allocate: %v", err)
	}
	byName := map[string]int64{}
	for _, b := range out {
		byName[b.Nom] = b.Montant
	}
	if byName["X"] != 126000 || byName["Y"] != 84000 {
		t.Fatalf("renormalized split wrong: X=%d Y=%d", byName["X"], byName["Y"])
	}
	if _, ok := byName["Part Budget"]; !ok {
		t.Fatal("fixed Part Budget entry missing")
	}
	// The reserved name must appear exactly once (the fixed 50% share).
	count := 0
	for _, b := range out {
		if b.Nom == "Part Budget" {
			count++
		}
	}
	if count != 1 {
		t.Fatalf("Part Budget appears %d times, want 1", count)
	}
}

func TestAllocateZeroWeightsEvenSplit(t *testing.T) {
	out, err := Allocate(Input{
		MontantNet:  1000000,
		Saisissants: []string{"A", "B"},
		Fonds: fonds(
			core.Fund{Nom: "X", Poids: decimal.Zero},
			core.Fund{Nom: "Y", Poids: decimal.Zero},
			core.Fund{Nom: "Z", Poids: decimal.Zero},
		),
	})
	if err != nil {
		t.Fatalf("allocate: %v", err)
	}
	for _, nom := range []string{"X", "Y", "Z"} {
		found := false
		for _, b := range out {
			if b.Nom == nom {
				found = true
				if b.Montant != 70000 { // round(210000/3)
					t.Fatalf("%s = %d, want 70000", nom, b.Montant)
				}
			}
		}
		if !found {
			t.Fatalf("fund %s missing from even split", nom)
		}
	}
}

func TestAllocateIdenticalUnits(t *testing.T) {
	out, err := Allocate(Input{
		MontantNet:   1000001, // forces rounding on the unit
		Saisissants:  []string{"A", "B", "C"},
		Intervenants: []string{"I1", "I2"},
	})
	if err != nil {
		t.Fatalf("allocate: %v", err)
	}
	var agentUnit, demiUnit int64
	for _, b := range out {
		switch b.Categorie {
		case core.CategorySeizingAgent:
			if agentUnit == 0 {
				agentUnit = b.Montant
			} else if b.Montant != agentUnit {
				t.Fatalf("seizing units differ: %d vs %d", b.Montant, agentUnit)
			}
		case core.CategoryChief:
			if demiUnit == 0 {
				demiUnit = b.Montant
			} else if b.Montant != demiUnit {
				t.Fatalf("intervenor units differ: %d vs %d", b.Montant, demiUnit)
			}
		}
	}
	if want := decimal.NewFromInt(agentUnit).Div(decimal.NewFromInt(2)).Round(0).IntPart(); demiUnit != want {
		t.Fatalf("intervenor unit %d, want round(%d/2)=%d", demiUnit, agentUnit, want)
	}
}

func TestAllocateValidation(t *testing.T) {
	cases := []struct {
		name  string
		in    Input
		field string
	}{
		{"no agents", Input{MontantNet: 1000, Saisissants: nil}, "saisissants"},
		{"blank agents", Input{MontantNet: 1000, Saisissants: []string{" ", ""}}, "saisissants"},
		{"blank indicator", Input{MontantNet: 1000, Saisissants: []string{"A"}, HasIndicateur: true}, "indicateur"},
		{"zero net", Input{MontantNet: 0, Saisissants: []string{"A"}}, "montant_net"},
		{"negative net", Input{MontantNet: -5, Saisissants: []string{"A"}}, "montant_net"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			out, err := Allocate(tc.in)
			if out != nil {
				t.Fatal("no entries may be produced on validation failure")
			}
			var verr *core.ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("expected ValidationError, got %v", err)
			}
			if verr.Field != tc.field {
				t.Fatalf("field = %q, want %q", verr.Field, tc.field)
			}
		})
	}
}

func TestAllocateNoIndicatorNoChiefEntries(t *testing.T) {
	out, err := Allocate(Input{MontantNet: 500000, Saisissants: []string{"A"}})
	if err != nil {
		t.Fatalf("allocate: %v", err)
	}
	for _, b := range out {
		if b.Categorie == core.CategoryChief {
			t.Fatalf("unexpected CHIEF entry without intervenors: %+v", b)
		}
	}
	if len(out) != 3 { // budget, FSP, one agent
		t.Fatalf("expected 3 entries, got %d", len(out))
	}
}

func TestAllocateDeterministic(t *testing.T) {
	in := Input{
		MontantNet:    777777,
		Saisissants:   []string{"Alpha", "Beta", "Gamma"},
		HasIndicateur: true,
		IndicateurNom: "Ind",
		Intervenants:  []string{"Delta"},
		Fonds:         fonds(fond("X", 30), fond("Y", 70)),
	}
	a, err := Allocate(in)
	if err != nil {
		t.Fatalf("allocate: %v", err)
	}
	b, err := Allocate(in)
	if err != nil {
		t.Fatalf("allocate: %v", err)
	}
	if !reflect.DeepEqual(a, b) {
		t.Fatal("allocate is not deterministic")
	}
}

func TestAllocatePercentagesAndDrift(t *testing.T) {
	in := Input{
		MontantNet:    999999,
		Saisissants:   []string{"A", "B", "C"},
		HasIndicateur: true,
		IndicateurNom: "Ind",
		Intervenants:  []string{"I1", "I2", "I3"},
		Fonds:         fonds(fond("X", 33), fond("Y", 67)),
	}
	out, err := Allocate(in)
	if err != nil {
		t.Fatalf("allocate: %v", err)
	}

	for _, b := range out {
		// Fixed shares carry their nominal percentage; every other entry
		// must satisfy the derived identity.
		derived := float64(b.Montant) / float64(in.MontantNet) * 100
		nominal := b.Nom == "Part Budget" || b.Nom == "FSP" || b.Nom == "Ind"
		if !nominal && math.Abs(b.Pourcentage-derived) > 1e-9 {
			t.Fatalf("%s: percentage %f, derived %f", b.Nom, b.Pourcentage, derived)
		}
	}

	// Independent rounding bounds total drift by half a franc per entry.
	rec := Reconcile(out, in.MontantNet)
	// The fixed rules here commit ~104% of net, so only bound the drift
	// against the exact unrounded commitment.
	if int64(math.Abs(float64(rec.Ecart))) > int64(len(out))+in.MontantNet/10 {
		t.Fatalf("écart surprisingly large: %+v", rec)
	}
}

type staticProvider struct {
	fonds []core.Fund
}

func (p staticProvider) Fonds(context.Context) ([]core.Fund, error) { return p.fonds, nil }
func (p staticProvider) Chefs(context.Context) ([]core.Chief, error) {
	return nil, nil
}

func TestEngineLoadsFundTable(t *testing.T) {
	eng := NewEngine(staticProvider{fonds: fonds(fond("Autre", 100))})
	out, err := eng.Allocate(context.Background(), Input{
		MontantNet:  1000000,
		Saisissants: []string{"A", "B"},
	})
	if err != nil {
		t.Fatalf("allocate: %v", err)
	}
	rec := Reconcile(out, 1000000)
	if rec.Ecart != 0 {
		t.Fatalf("provider fund table not applied, écart=%d", rec.Ecart)
	}
}
