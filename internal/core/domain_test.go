package core

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
)

func TestAffaireValidate(t *testing.T) {
	valid := Affaire{
		Numero:      "16/2023",
		DateAffaire: NewDate(2023, 6, 14),
		MontantNet:  900000,
	}
	if err := valid.Validate(); err != nil {
		t.Fatalf("valid affaire rejected: %v", err)
	}

	cases := []struct {
		name  string
		mut   func(*Affaire)
		field string
	}{
		{"empty numero", func(a *Affaire) { a.Numero = "  " }, "numero"},
		{"zero date", func(a *Affaire) { a.DateAffaire = Date{} }, "date_affaire"},
		{"negative net", func(a *Affaire) { a.MontantNet = -1 }, "montant_net"},
		{"negative total", func(a *Affaire) { a.MontantTotal = -5 }, "montant_total"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			a := valid
			tc.mut(&a)
			err := a.Validate()
			var verr *ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("expected ValidationError, got %v", err)
			}
			if verr.Field != tc.field {
				t.Fatalf("expected field %q, got %q", tc.field, verr.Field)
			}
		})
	}
}

func TestBeneficiaryValidate(t *testing.T) {
	b := Beneficiary{Nom: "Part Budget", Categorie: CategoryFund, Montant: 450000, Pourcentage: 50}
	if err := b.Validate(); err != nil {
		t.Fatalf("valid beneficiary rejected: %v", err)
	}
	b.Categorie = "OFFICIER"
	if err := b.Validate(); err == nil {
		t.Fatal("unknown category accepted")
	}
	b = Beneficiary{Nom: "", Categorie: CategoryChief}
	if err := b.Validate(); err == nil {
		t.Fatal("blank name accepted")
	}
}

func TestFundValidate(t *testing.T) {
	f := Fund{Nom: "Autre", Poids: decimal.NewFromInt(100)}
	if err := f.Validate(); err != nil {
		t.Fatalf("valid fund rejected: %v", err)
	}
	f.Poids = decimal.Zero
	if err := f.Validate(); err != nil {
		t.Fatalf("zero weight rejected: %v", err)
	}
	f.Poids = decimal.NewFromInt(-1)
	if err := f.Validate(); err == nil {
		t.Fatal("negative weight accepted")
	}
	f = Fund{Nom: "  ", Poids: decimal.NewFromInt(10)}
	if err := f.Validate(); err == nil {
		t.Fatal("blank name accepted")
	}
}

func TestParseDate(t *testing.T) {
	d, err := ParseDate("2023-06-14")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if d.String() != "2023-06-14" {
		t.Fatalf("round trip: %q", d.String())
	}
	if _, err := ParseDate("14/06/2023"); err == nil {
		t.Fatal("expected error for non ISO date")
	}
}
