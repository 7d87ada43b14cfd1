package core

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors shared across packages. Compare with errors.Is.
var (
	ErrEmptyTable         = errors.New("table name is required")
	ErrInvalidDirection   = errors.New("invalid order direction")
	ErrTableNotFound      = errors.New("table not found")
	ErrNotTemporal        = errors.New("table is not system-versioned")
	ErrNoPrimaryKey       = errors.New("table has no primary key")
	ErrNoTrackedColumns   = errors.New("table has no columns to compare")
	ErrCompositeKeyFilter = errors.New("a key filter requires a single-column primary key")
)

// CapabilityError is returned when the host engine cannot run the generated query.
type CapabilityError struct {
	Have    Capabilities
	Missing []string
}

func (e *CapabilityError) Error() string {
	return fmt.Sprintf("engine %s (compatibility level %d) lacks: %s\nHint: SQL Server 2016 or later with compatibility level %d is required",
		e.Have.versionString(), e.Have.CompatibilityLevel, strings.Join(e.Missing, ", "), MinCompatibilityLevel)
}
