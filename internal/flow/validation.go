package flow

import (
	"fmt"
	"strings"
)

// ValidationError collects multiple validation issues
type ValidationError struct {
	Issues []string
}

func (e *ValidationError) Error() string {
	if len(e.Issues) == 0 {
		return "invalid catalog: unknown validation error"
	}
	if len(e.Issues) == 1 {
		return e.Issues[0]
	}
	return "catalog validation errors: " + strings.Join(e.Issues, "; ")
}

func (e *ValidationError) Add(issue string) {
	e.Issues = append(e.Issues, issue)
}

func (e *ValidationError) HasIssues() bool {
	return len(e.Issues) > 0
}

// ValidateCatalogConfig performs comprehensive validation of a CatalogConfig:
// required names and IDs, unique IDs, and property ranges (density and size
// positive, friction/elasticity/confidence within [0,1]).
func ValidateCatalogConfig(cfg CatalogConfig) error {
	err := &ValidationError{}

	if cfg.Name == "" {
		err.Add("catalog name is required")
	}

	seenIDs := make(map[string]bool)

	for i, mc := range cfg.Materials {
		prefix := "material '" + mc.ID + "'"
		if mc.ID == "" {
			prefix = fmt.Sprintf("material at index %d", i)
		}

		if mc.ID == "" {
			err.Add(prefix + ": material ID is required")
		} else if seenIDs[mc.ID] {
			err.Add("duplicate material ID: " + mc.ID)
		} else {
			seenIDs[mc.ID] = true
		}

		if mc.Name == "" {
			err.Add(prefix + ": material name is required")
		}
		if mc.Category == "" {
			err.Add(prefix + ": material category is required")
		}

		validateProperties(mc.Properties, prefix, err)

		if mc.Confidence < 0 || mc.Confidence > 1 {
			err.Add(prefix + ": confidence must be within [0,1]")
		}
	}

	if err.HasIssues() {
		return err
	}
	return nil
}

// validateProperties checks the physical property ranges of one material.
func validateProperties(p Properties, prefix string, err *ValidationError) {
	if p.Density <= 0 {
		err.Add(prefix + ": density must be positive")
	}
	if p.Friction < 0 || p.Friction > 1 {
		err.Add(prefix + ": friction must be within [0,1]")
	}
	if p.Elasticity < 0 || p.Elasticity > 1 {
		err.Add(prefix + ": elasticity must be within [0,1]")
	}
	if p.Size <= 0 {
		err.Add(prefix + ": size must be positive")
	}
}
