package config

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/leapstack-labs/tdiff/pkg/adapter"
	"github.com/leapstack-labs/tdiff/pkg/core"
)

// ValidateTarget checks that the target names a registered adapter.
func ValidateTarget(t *TargetConfig) error {
	if t == nil {
		return nil
	}
	if t.Type == "" {
		return errors.New("target type is required")
	}
	if !adapter.IsRegistered(strings.ToLower(t.Type)) {
		return &adapter.UnknownAdapterError{
			Type:      t.Type,
			Available: adapter.ListAdapters(),
		}
	}
	if t.Port < 0 || t.Port > 65535 {
		return fmt.Errorf("target port %d out of range", t.Port)
	}
	return nil
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if err := ValidateTarget(c.Target); err != nil {
		return fmt.Errorf("invalid target configuration: %w", err)
	}
	if _, err := core.ParseDirection(c.Report.Order); err != nil {
		return fmt.Errorf("invalid report order: %w", err)
	}
	if !slices.Contains(OutputFormats, c.OutputFormat) {
		return fmt.Errorf("unknown output format %q\nHint: use one of %s", c.OutputFormat, strings.Join(OutputFormats, ", "))
	}
	return nil
}
