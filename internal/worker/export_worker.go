package worker

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"repartition/internal/amqp"
	"repartition/internal/export"
	"repartition/internal/registre"
	"repartition/internal/storage"
)

// ExportWorker renders saved distributions to the export directory and
// appends them to the register when one is configured.
type ExportWorker struct {
	storage   *storage.SQLiteRepository
	registre  registre.Appender
	exportDir string
	batchSize int
}

func NewExportWorker(storage *storage.SQLiteRepository, reg registre.Appender, exportDir string, batchSize int) *ExportWorker {
	return &ExportWorker{
		storage:   storage,
		registre:  reg,
		exportDir: exportDir,
		batchSize: batchSize,
	}
}

var exportFormats = []export.Format{export.FormatPDF, export.FormatXLSX, export.FormatCSV}

// HandleExportMessage processes a single export message from AMQP
func (w *ExportWorker) HandleExportMessage(ctx context.Context, msg *amqp.AffaireExportMessage) error {
	slog.InfoContext(ctx, "Processing export message",
		"id", msg.ID,
		"version", msg.Version)

	return w.exportAffaire(ctx, msg.ID, msg.Version)
}

// ProcessPendingAffaires exports cases whose latest version was never
// exported. This is a backup mechanism in case AMQP messages are lost.
func (w *ExportWorker) ProcessPendingAffaires(ctx context.Context) error {
	pending, err := w.storage.GetPendingExportAffaires(ctx, w.batchSize)
	if err != nil {
		return fmt.Errorf("get pending affaires: %w", err)
	}

	if len(pending) == 0 {
		return nil
	}

	slog.InfoContext(ctx, "Processing pending affaires", "count", len(pending))

	for _, p := range pending {
		if err := w.exportAffaire(ctx, p.ID, p.Version); err != nil {
			slog.ErrorContext(ctx, "Failed to export affaire", "id", p.ID, "error", err)
			if err := w.storage.MarkExportError(ctx, p.ID); err != nil {
				slog.ErrorContext(ctx, "Failed to mark export error", "id", p.ID, "error", err)
			}
		}
	}

	return nil
}

func (w *ExportWorker) exportAffaire(ctx context.Context, id string, version int64) error {
	a, err := w.storage.GetAffaire(ctx, id)
	if err != nil {
		return fmt.Errorf("get affaire from storage: %w", err)
	}

	// The message may be stale after further edits; the newer version
	// will arrive with its own message, so export the current state and
	// acknowledge against it.
	if a.Version != version {
		slog.WarnContext(ctx, "Export message version is stale, exporting current state",
			"id", id,
			"message_version", version,
			"current_version", a.Version)
		version = a.Version
	}

	beneficiaires, err := w.storage.ListBeneficiaries(ctx, id)
	if err != nil {
		return fmt.Errorf("list beneficiaires: %w", err)
	}

	rep := export.NewReport(a, beneficiaires)

	if err := os.MkdirAll(w.exportDir, 0755); err != nil {
		return fmt.Errorf("create export directory: %w", err)
	}

	for _, format := range exportFormats {
		if err := w.writeDocument(rep, format); err != nil {
			return fmt.Errorf("write %s document: %w", format, err)
		}
	}

	if w.registre != nil {
		ref, err := w.registre.Append(ctx, rep)
		if err != nil {
			// The documents are on disk; the register catches up on the
			// next version or the next pending pass.
			slog.ErrorContext(ctx, "Failed to append register row",
				"id", id, "error", err)
			return fmt.Errorf("append register row: %w", err)
		}
		slog.InfoContext(ctx, "Register updated", "id", id, "registre_ref", ref)
	}

	if err := w.storage.MarkExported(ctx, id, version); err != nil {
		return fmt.Errorf("mark exported: %w", err)
	}

	slog.InfoContext(ctx, "Affaire exported",
		"id", id,
		"numero", a.Numero,
		"version", version)

	return nil
}

func (w *ExportWorker) writeDocument(rep export.Report, format export.Format) error {
	path := filepath.Join(w.exportDir, rep.FileName(format))
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := rep.Render(f, format); err != nil {
		f.Close()
		os.Remove(path)
		return fmt.Errorf("render %s: %w", path, err)
	}
	return f.Close()
}
