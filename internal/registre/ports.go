// Package registre appends saved distributions to the shared register
// spreadsheet kept by the directorate.
package registre

import (
	"context"

	"repartition/internal/export"
)

// Appender writes one register line per exported case version.
type Appender interface {
	Append(ctx context.Context, rep export.Report) (rowRef string, err error)
}
