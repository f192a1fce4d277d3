package core

import "fmt"

// ValidationError reports a malformed or missing required input. It is
// raised before any allocation math runs; nothing is partially computed.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Reason
	}
	return e.Field + ": " + e.Reason
}

// OverAllocationError is raised at the save boundary when the distributed
// total exceeds the affaire's net amount. Under-allocation is a valid,
// if incomplete, state and never errors.
type OverAllocationError struct {
	Distributed int64
	Net         int64
}

func (e *OverAllocationError) Error() string {
	return fmt.Sprintf("le total distribué (%d) dépasse le montant net (%d)", e.Distributed, e.Net)
}
