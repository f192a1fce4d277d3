// Package memory is an in-process register used in tests and when no
// spreadsheet is configured.
package memory

import (
	"context"
	"fmt"
	"sync"

	"repartition/internal/export"
)

type Store struct {
	mu    sync.Mutex
	items []export.Report
}

func New() *Store {
	return &Store{}
}

// Append stores the report and returns a synthetic row reference.
func (s *Store) Append(_ context.Context, rep export.Report) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = append(s.items, rep)
	return fmt.Sprintf("mem:%d", len(s.items)), nil
}

// Reports returns a copy of everything appended so far.
func (s *Store) Reports() []export.Report {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]export.Report(nil), s.items...)
}
