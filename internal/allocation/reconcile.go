package allocation

import "repartition/internal/core"

// Status classifies the écart of a distribution.
type Status string

const (
	StatusBalanced Status = "balanced"
	StatusUnder    Status = "under_allocated"
	StatusOver     Status = "over_allocated"
)

// Reconciliation is the derived view of a beneficiary list against the
// affaire's net amount. Écart = net − distributed.
type Reconciliation struct {
	Distributed int64  `json:"total_distribue"`
	Ecart       int64  `json:"ecart"`
	Status      Status `json:"status"`
}

// Reconcile recomputes the distributed total and écart. Pure; it must run
// after every edit so the consumer always sees a fresh variance.
func Reconcile(beneficiaires []core.Beneficiary, montantNet int64) Reconciliation {
	var distributed int64
	for _, b := range beneficiaires {
		distributed += b.Montant
	}
	ecart := montantNet - distributed
	status := StatusBalanced
	switch {
	case ecart > 0:
		status = StatusUnder
	case ecart < 0:
		status = StatusOver
	}
	return Reconciliation{Distributed: distributed, Ecart: ecart, Status: status}
}

// CheckSaveable enforces the save-guard: persisting is rejected when the
// distributed total exceeds the net amount. Exactly balanced and
// under-allocated lists save fine.
func CheckSaveable(beneficiaires []core.Beneficiary, montantNet int64) error {
	rec := Reconcile(beneficiaires, montantNet)
	if rec.Status == StatusOver {
		return &core.OverAllocationError{Distributed: rec.Distributed, Net: montantNet}
	}
	return nil
}

// RecomputePercentages refreshes every percentage after the net amount
// changed. Amounts are left untouched, so the écart may move; that is
// expected and surfaced by Reconcile.
func RecomputePercentages(beneficiaires []core.Beneficiary, montantNet int64) []core.Beneficiary {
	out := make([]core.Beneficiary, len(beneficiaires))
	for i, b := range beneficiaires {
		b.Pourcentage = percentage(b.Montant, montantNet)
		out[i] = b
	}
	return out
}
