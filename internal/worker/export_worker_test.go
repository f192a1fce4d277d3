package worker

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"

	"repartition/internal/amqp"
	"repartition/internal/core"
	"repartition/internal/registre/memory"
	"repartition/internal/storage"
)

func newTestWorker(t *testing.T) (*ExportWorker, *storage.SQLiteRepository, *memory.Store, string) {
	t.Helper()
	dir := t.TempDir()
	repo, err := storage.NewSQLiteRepository(filepath.Join(dir, "test.db"))
	if err != nil {
		t.Fatalf("open repository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })

	reg := memory.New()
	exportDir := filepath.Join(dir, "exports")
	return NewExportWorker(repo, reg, exportDir, 10), repo, reg, exportDir
}

func seedAffaire(t *testing.T, repo *storage.SQLiteRepository) core.Affaire {
	t.Helper()
	ctx := context.Background()
	a := core.Affaire{
		ID:          uuid.NewString(),
		Numero:      "2024/0042",
		DateAffaire: core.NewDate(2024, 3, 15),
		MontantNet:  1000000,
	}
	if err := repo.CreateAffaire(ctx, a); err != nil {
		t.Fatalf("create affaire: %v", err)
	}
	if err := repo.ReplaceBeneficiaries(ctx, a.ID, []core.Beneficiary{
		{Nom: "Part Budget", Categorie: core.CategoryFund, Montant: 500000, Pourcentage: 50},
		{Nom: "A", Categorie: core.CategorySeizingAgent, Montant: 250000, Pourcentage: 25},
	}); err != nil {
		t.Fatalf("replace beneficiaires: %v", err)
	}
	return a
}

func TestHandleExportMessage(t *testing.T) {
	w, repo, reg, exportDir := newTestWorker(t)
	ctx := context.Background()
	a := seedAffaire(t, repo)

	// Version 2 after the replace
	if err := w.HandleExportMessage(ctx, amqp.NewAffaireExportMessage(a.ID, 2)); err != nil {
		t.Fatalf("handle: %v", err)
	}

	for _, name := range []string{
		"2024-0042_repartition.pdf",
		"2024-0042_repartition.xlsx",
		"2024-0042_repartition.csv",
	} {
		if _, err := os.Stat(filepath.Join(exportDir, name)); err != nil {
			t.Errorf("missing document %s: %v", name, err)
		}
	}

	reports := reg.Reports()
	if len(reports) != 1 || reports[0].Affaire.ID != a.ID {
		t.Fatalf("register not updated: %+v", reports)
	}
	if reports[0].Reconciliation.Distributed != 750000 {
		t.Fatalf("register row has wrong totals: %+v", reports[0].Reconciliation)
	}

	pending, err := repo.GetPendingExportAffaires(ctx, 10)
	if err != nil {
		t.Fatalf("pending: %v", err)
	}
	if len(pending) != 0 {
		t.Fatalf("exported affaire still pending: %+v", pending)
	}
}

func TestHandleExportMessageStaleVersion(t *testing.T) {
	w, repo, _, _ := newTestWorker(t)
	ctx := context.Background()
	a := seedAffaire(t, repo)

	// Message for version 1, but the affaire is already at version 2:
	// the worker exports the current state and clears the pending flag.
	if err := w.HandleExportMessage(ctx, amqp.NewAffaireExportMessage(a.ID, 1)); err != nil {
		t.Fatalf("handle: %v", err)
	}

	pending, err := repo.GetPendingExportAffaires(ctx, 10)
	if err != nil {
		t.Fatalf("pending: %v", err)
	}
	if len(pending) != 0 {
		t.Fatalf("current version must be marked exported: %+v", pending)
	}
}

func TestProcessPendingAffaires(t *testing.T) {
	w, repo, reg, _ := newTestWorker(t)
	ctx := context.Background()
	seedAffaire(t, repo)

	if err := w.ProcessPendingAffaires(ctx); err != nil {
		t.Fatalf("process: %v", err)
	}

	if len(reg.Reports()) != 1 {
		t.Fatalf("register not updated: %+v", reg.Reports())
	}

	pending, err := repo.GetPendingExportAffaires(ctx, 10)
	if err != nil {
		t.Fatalf("pending: %v", err)
	}
	if len(pending) != 0 {
		t.Fatalf("batch pass left pending affaires: %+v", pending)
	}

	// Second pass is a no-op
	if err := w.ProcessPendingAffaires(ctx); err != nil {
		t.Fatalf("second pass: %v", err)
	}
	if len(reg.Reports()) != 1 {
		t.Fatal("second pass must not re-export")
	}
}

func TestHandleExportMessageMissingAffaire(t *testing.T) {
	w, _, _, _ := newTestWorker(t)
	if err := w.HandleExportMessage(context.Background(), amqp.NewAffaireExportMessage(uuid.NewString(), 1)); err == nil {
		t.Fatal("expected error for missing affaire")
	}
}
