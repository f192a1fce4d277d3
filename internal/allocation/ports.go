package allocation

import (
	"context"

	"repartition/internal/core"
)

// ConfigProvider supplies the configured fund and chief tables. The engine
// treats it as read-only; only the fund table feeds the residual split.
type ConfigProvider interface {
	Fonds(ctx context.Context) ([]core.Fund, error)
	Chefs(ctx context.Context) ([]core.Chief, error)
}
