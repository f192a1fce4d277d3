package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"repartition/internal/allocation"
	"repartition/internal/amqp"
	"repartition/internal/core"
	"repartition/internal/storage"
)

// CaseService orchestrates case operations across SQLite and AMQP.
// Every write lands in SQLite first; the export notification is
// best-effort and never fails the request.
type CaseService struct {
	storage    *storage.SQLiteRepository
	engine     *allocation.Engine
	amqpClient *amqp.Client
}

func NewCaseService(storage *storage.SQLiteRepository, amqpClient *amqp.Client) *CaseService {
	return &CaseService{
		storage:    storage,
		engine:     allocation.NewEngine(storage),
		amqpClient: amqpClient,
	}
}

// AffaireDetail is a case with its stored distribution and the derived
// reconciliation.
type AffaireDetail struct {
	Affaire        core.Affaire
	Beneficiaires  []core.Beneficiary
	Reconciliation allocation.Reconciliation
}

// RepartitionRequest carries the distribution inputs for one case.
type RepartitionRequest struct {
	Saisissants   []string
	HasIndicateur bool
	IndicateurNom string
	Intervenants  []string
}

// CreateAffaire saves a new case locally and publishes an export message
func (s *CaseService) CreateAffaire(ctx context.Context, a core.Affaire) (core.Affaire, error) {
	if strings.TrimSpace(a.ID) == "" {
		a.ID = uuid.NewString()
	}
	if err := a.Validate(); err != nil {
		return core.Affaire{}, err
	}

	if err := s.storage.CreateAffaire(ctx, a); err != nil {
		return core.Affaire{}, fmt.Errorf("save affaire: %w", err)
	}

	if err := s.publishExportMessage(ctx, a.ID, 1); err != nil {
		slog.ErrorContext(ctx, "Failed to publish export message",
			"id", a.ID, "error", err)
		// Don't fail the request - affaire is saved locally
	}

	return s.storage.GetAffaire(ctx, a.ID)
}

// GetAffaire returns a case with its distribution and reconciliation
func (s *CaseService) GetAffaire(ctx context.Context, id string) (AffaireDetail, error) {
	a, err := s.storage.GetAffaire(ctx, id)
	if err != nil {
		return AffaireDetail{}, err
	}
	beneficiaires, err := s.storage.ListBeneficiaries(ctx, id)
	if err != nil {
		return AffaireDetail{}, fmt.Errorf("list beneficiaires: %w", err)
	}
	return AffaireDetail{
		Affaire:        a,
		Beneficiaires:  beneficiaires,
		Reconciliation: allocation.Reconcile(beneficiaires, a.MontantNet),
	}, nil
}

// GetAffaireByNumero resolves a case number, the identifier agents
// actually quote, to the full detail.
func (s *CaseService) GetAffaireByNumero(ctx context.Context, numero string) (AffaireDetail, error) {
	a, err := s.storage.GetAffaireByNumero(ctx, numero)
	if err != nil {
		return AffaireDetail{}, err
	}
	return s.GetAffaire(ctx, a.ID)
}

// ListAffaireDetails returns the history with each case's distribution
// and reconciliation embedded.
func (s *CaseService) ListAffaireDetails(ctx context.Context, from, to core.Date, limit int) ([]AffaireDetail, error) {
	affaires, err := s.storage.ListAffaires(ctx, from, to, limit)
	if err != nil {
		return nil, err
	}
	details := make([]AffaireDetail, 0, len(affaires))
	for _, a := range affaires {
		beneficiaires, err := s.storage.ListBeneficiaries(ctx, a.ID)
		if err != nil {
			return nil, fmt.Errorf("list beneficiaires for %s: %w", a.ID, err)
		}
		details = append(details, AffaireDetail{
			Affaire:        a,
			Beneficiaires:  beneficiaires,
			Reconciliation: allocation.Reconcile(beneficiaires, a.MontantNet),
		})
	}
	return details, nil
}

// UpdateAffaire updates a case. When the net amount changes, stored
// percentages are recomputed against the new base; amounts are left
// untouched so the écart reflects the change.
func (s *CaseService) UpdateAffaire(ctx context.Context, a core.Affaire) (AffaireDetail, error) {
	if err := a.Validate(); err != nil {
		return AffaireDetail{}, err
	}

	old, err := s.storage.GetAffaire(ctx, a.ID)
	if err != nil {
		return AffaireDetail{}, err
	}

	if err := s.storage.UpdateAffaire(ctx, a); err != nil {
		return AffaireDetail{}, fmt.Errorf("update affaire: %w", err)
	}

	if old.MontantNet != a.MontantNet {
		beneficiaires, err := s.storage.ListBeneficiaries(ctx, a.ID)
		if err != nil {
			return AffaireDetail{}, fmt.Errorf("list beneficiaires: %w", err)
		}
		if len(beneficiaires) > 0 {
			recomputed := allocation.RecomputePercentages(beneficiaires, a.MontantNet)
			if err := s.storage.ReplaceBeneficiaries(ctx, a.ID, recomputed); err != nil {
				return AffaireDetail{}, fmt.Errorf("recompute percentages: %w", err)
			}
		}
	}

	detail, err := s.GetAffaire(ctx, a.ID)
	if err != nil {
		return AffaireDetail{}, err
	}

	if err := s.publishExportMessage(ctx, a.ID, detail.Affaire.Version); err != nil {
		slog.ErrorContext(ctx, "Failed to publish export message",
			"id", a.ID, "error", err)
	}

	return detail, nil
}

// DeleteAffaire removes a case and its distribution
func (s *CaseService) DeleteAffaire(ctx context.Context, id string) error {
	return s.storage.DeleteAffaire(ctx, id)
}

// Preview runs the distribution rules without persisting anything. The
// fund table is loaded from configuration when the input leaves it nil.
func (s *CaseService) Preview(ctx context.Context, in allocation.Input) ([]core.Beneficiary, allocation.Reconciliation, error) {
	beneficiaires, err := s.engine.Allocate(ctx, in)
	if err != nil {
		return nil, allocation.Reconciliation{}, err
	}
	return beneficiaires, allocation.Reconcile(beneficiaires, in.MontantNet), nil
}

// Repartir runs the distribution rules against a case's net amount and
// persists the result.
func (s *CaseService) Repartir(ctx context.Context, id string, req RepartitionRequest) (AffaireDetail, error) {
	a, err := s.storage.GetAffaire(ctx, id)
	if err != nil {
		return AffaireDetail{}, err
	}

	beneficiaires, err := s.engine.Allocate(ctx, allocation.Input{
		MontantNet:    a.MontantNet,
		Saisissants:   req.Saisissants,
		HasIndicateur: req.HasIndicateur,
		IndicateurNom: req.IndicateurNom,
		Intervenants:  req.Intervenants,
	})
	if err != nil {
		return AffaireDetail{}, err
	}

	return s.saveDistribution(ctx, a, beneficiaires)
}

// SaveDistribution replaces a case's beneficiary list after manual
// edits. Over-allocated lists are rejected.
func (s *CaseService) SaveDistribution(ctx context.Context, id string, beneficiaires []core.Beneficiary) (AffaireDetail, error) {
	a, err := s.storage.GetAffaire(ctx, id)
	if err != nil {
		return AffaireDetail{}, err
	}
	return s.saveDistribution(ctx, a, beneficiaires)
}

func (s *CaseService) saveDistribution(ctx context.Context, a core.Affaire, beneficiaires []core.Beneficiary) (AffaireDetail, error) {
	for _, b := range beneficiaires {
		if err := b.Validate(); err != nil {
			return AffaireDetail{}, err
		}
	}
	if err := allocation.CheckSaveable(beneficiaires, a.MontantNet); err != nil {
		return AffaireDetail{}, err
	}

	if err := s.storage.ReplaceBeneficiaries(ctx, a.ID, beneficiaires); err != nil {
		return AffaireDetail{}, fmt.Errorf("save distribution: %w", err)
	}

	detail, err := s.GetAffaire(ctx, a.ID)
	if err != nil {
		return AffaireDetail{}, err
	}

	if err := s.publishExportMessage(ctx, a.ID, detail.Affaire.Version); err != nil {
		slog.ErrorContext(ctx, "Failed to publish export message",
			"id", a.ID, "error", err)
		// Don't fail the request - distribution is saved locally
	}

	return detail, nil
}

// GetStats aggregates saved cases inside a date range
func (s *CaseService) GetStats(ctx context.Context, from, to core.Date) (storage.Stats, error) {
	return s.storage.GetStats(ctx, from, to)
}

// Fonds returns the configured fund table
func (s *CaseService) Fonds(ctx context.Context) ([]core.Fund, error) {
	return s.storage.Fonds(ctx)
}

// CreateFond adds a fund to the configuration
func (s *CaseService) CreateFond(ctx context.Context, f core.Fund) (core.Fund, error) {
	if err := f.Validate(); err != nil {
		return core.Fund{}, err
	}
	id, err := s.storage.CreateFond(ctx, f)
	if err != nil {
		return core.Fund{}, err
	}
	f.ID = id
	return f, nil
}

// UpdateFond updates a configured fund
func (s *CaseService) UpdateFond(ctx context.Context, f core.Fund) error {
	if err := f.Validate(); err != nil {
		return err
	}
	return s.storage.UpdateFond(ctx, f)
}

// DeleteFond removes a fund from the configuration
func (s *CaseService) DeleteFond(ctx context.Context, id int64) error {
	return s.storage.DeleteFond(ctx, id)
}

// Chefs returns the configured chief table
func (s *CaseService) Chefs(ctx context.Context) ([]core.Chief, error) {
	return s.storage.Chefs(ctx)
}

// CreateChef adds a chief to the configuration
func (s *CaseService) CreateChef(ctx context.Context, c core.Chief) (core.Chief, error) {
	if err := c.Validate(); err != nil {
		return core.Chief{}, err
	}
	id, err := s.storage.CreateChef(ctx, c)
	if err != nil {
		return core.Chief{}, err
	}
	c.ID = id
	return c, nil
}

// UpdateChef updates a configured chief
func (s *CaseService) UpdateChef(ctx context.Context, c core.Chief) error {
	if err := c.Validate(); err != nil {
		return err
	}
	return s.storage.UpdateChef(ctx, c)
}

// DeleteChef removes a chief from the configuration
func (s *CaseService) DeleteChef(ctx context.Context, id int64) error {
	return s.storage.DeleteChef(ctx, id)
}

func (s *CaseService) publishExportMessage(ctx context.Context, id string, version int64) error {
	if s.amqpClient == nil {
		slog.WarnContext(ctx, "AMQP client not available, skipping export message")
		return nil
	}
	return s.amqpClient.PublishAffaireExport(ctx, id, version)
}

// Close closes both storage and AMQP connections
func (s *CaseService) Close() error {
	var errs []error

	if s.storage != nil {
		if err := s.storage.Close(); err != nil {
			errs = append(errs, fmt.Errorf("storage: %w", err))
		}
	}

	if s.amqpClient != nil {
		if err := s.amqpClient.Close(); err != nil {
			errs = append(errs, fmt.Errorf("amqp: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("close case service: %v", errs)
	}

	return nil
}
