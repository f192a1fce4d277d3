package services

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"

	"repartition/internal/allocation"
	"repartition/internal/core"
	"repartition/internal/storage"
)

func newTestService(t *testing.T) *CaseService {
	t.Helper()
	repo, err := storage.NewSQLiteRepository(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open repository: %v", err)
	}
	// nil AMQP client: export messages are skipped, never an error
	svc := NewCaseService(repo, nil)
	t.Cleanup(func() { svc.Close() })
	return svc
}

func createTestAffaire(t *testing.T, svc *CaseService, net int64) core.Affaire {
	t.Helper()
	a, err := svc.CreateAffaire(context.Background(), core.Affaire{
		Numero:      "2024/0042",
		DateAffaire: core.NewDate(2024, 3, 15),
		MontantNet:  net,
	})
	if err != nil {
		t.Fatalf("create affaire: %v", err)
	}
	return a
}

func TestCreateAffaireAssignsID(t *testing.T) {
	svc := newTestService(t)
	a := createTestAffaire(t, svc, 1000000)
	if a.ID == "" {
		t.Fatal("ID must be assigned")
	}
	if a.Version != 1 {
		t.Fatalf("fresh affaire version = %d", a.Version)
	}

	_, err := svc.CreateAffaire(context.Background(), core.Affaire{Numero: ""})
	var verr *core.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
}

func TestRepartirPersistsDistribution(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	a := createTestAffaire(t, svc, 1000000)

	detail, err := svc.Repartir(ctx, a.ID, RepartitionRequest{
		Saisissants: []string{"A", "B"},
	})
	if err != nil {
		t.Fatalf("repartir: %v", err)
	}

	// The seeded fund table only holds the reserved names, so the
	// remainder stays unallocated.
	if len(detail.Beneficiaires) != 4 {
		t.Fatalf("expected 4 beneficiaires, got %+v", detail.Beneficiaires)
	}
	if detail.Reconciliation.Distributed != 790000 || detail.Reconciliation.Ecart != 210000 {
		t.Fatalf("unexpected reconciliation: %+v", detail.Reconciliation)
	}
	if detail.Affaire.Version != 2 {
		t.Fatalf("save must bump version, got %d", detail.Affaire.Version)
	}

	// A configured residual fund absorbs the remainder on the next run
	if _, err := svc.CreateFond(ctx, core.Fund{Nom: "Fonds Commun", Poids: decimal.NewFromInt(100)}); err != nil {
		t.Fatalf("create fond: %v", err)
	}
	detail, err = svc.Repartir(ctx, a.ID, RepartitionRequest{Saisissants: []string{"A", "B"}})
	if err != nil {
		t.Fatalf("second repartir: %v", err)
	}
	if detail.Reconciliation.Status != allocation.StatusBalanced {
		t.Fatalf("expected balanced distribution: %+v", detail.Reconciliation)
	}
}

func TestSaveDistributionRejectsOverAllocation(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	a := createTestAffaire(t, svc, 900000)

	_, err := svc.SaveDistribution(ctx, a.ID, []core.Beneficiary{
		{Nom: "Part Budget", Categorie: core.CategoryFund, Montant: 450000},
		{Nom: "A", Categorie: core.CategorySeizingAgent, Montant: 500000},
	})
	var oerr *core.OverAllocationError
	if !errors.As(err, &oerr) {
		t.Fatalf("expected OverAllocationError, got %v", err)
	}

	// Nothing was persisted
	detail, err := svc.GetAffaire(ctx, a.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if len(detail.Beneficiaires) != 0 {
		t.Fatalf("rejected distribution must not persist: %+v", detail.Beneficiaires)
	}
	if detail.Affaire.Version != 1 {
		t.Fatalf("rejected distribution must not bump version, got %d", detail.Affaire.Version)
	}
}

func TestUpdateAffaireRecomputesPercentages(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	a := createTestAffaire(t, svc, 1000000)

	if _, err := svc.SaveDistribution(ctx, a.ID, []core.Beneficiary{
		{Nom: "Part Budget", Categorie: core.CategoryFund, Montant: 500000, Pourcentage: 50},
		{Nom: "A", Categorie: core.CategorySeizingAgent, Montant: 250000, Pourcentage: 25},
	}); err != nil {
		t.Fatalf("save: %v", err)
	}

	a.MontantNet = 2000000
	detail, err := svc.UpdateAffaire(ctx, a)
	if err != nil {
		t.Fatalf("update: %v", err)
	}

	if detail.Beneficiaires[0].Pourcentage != 25 || detail.Beneficiaires[1].Pourcentage != 12.5 {
		t.Fatalf("percentages not recomputed: %+v", detail.Beneficiaires)
	}
	// Amounts untouched; the écart absorbs the difference
	if detail.Beneficiaires[0].Montant != 500000 {
		t.Fatalf("amounts must not change: %+v", detail.Beneficiaires)
	}
	if detail.Reconciliation.Ecart != 1250000 {
		t.Fatalf("unexpected ecart: %+v", detail.Reconciliation)
	}
}

func TestPreviewDoesNotPersist(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	a := createTestAffaire(t, svc, 1000000)

	beneficiaires, rec, err := svc.Preview(ctx, allocation.Input{
		MontantNet:  a.MontantNet,
		Saisissants: []string{"A"},
	})
	if err != nil {
		t.Fatalf("preview: %v", err)
	}
	if len(beneficiaires) == 0 || rec.Distributed == 0 {
		t.Fatalf("empty preview: %+v %+v", beneficiaires, rec)
	}

	detail, err := svc.GetAffaire(ctx, a.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if len(detail.Beneficiaires) != 0 {
		t.Fatal("preview must not persist")
	}
}

func TestDeleteAffaire(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	a := createTestAffaire(t, svc, 500000)

	if err := svc.DeleteAffaire(ctx, a.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := svc.GetAffaire(ctx, a.ID); !errors.Is(err, core.ErrAffaireNotFound) {
		t.Fatalf("expected ErrAffaireNotFound, got %v", err)
	}
}

func TestCaseService_Close(t *testing.T) {
	t.Run("nil components", func(t *testing.T) {
		svc := &CaseService{}
		if err := svc.Close(); err != nil {
			t.Fatalf("Close should not return error with nil components: %v", err)
		}
	})
}
