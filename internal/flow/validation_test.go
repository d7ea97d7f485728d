package flow

import (
	"strings"
	"testing"
)

func validCatalogConfig() CatalogConfig {
	return CatalogConfig{
		Name: "test",
		Materials: []MaterialConfig{
			{
				ID:       "sand",
				Name:     "Sand",
				Category: CategoryGranular,
				Properties: Properties{
					Density:    1.6,
					Friction:   0.97,
					Elasticity: 0.3,
					Size:       2,
					Color:      "#d9c48a",
				},
				Confidence: 0.9,
			},
		},
	}
}

func TestValidateCatalogConfig_Valid(t *testing.T) {
	if err := ValidateCatalogConfig(validCatalogConfig()); err != nil {
		t.Errorf("Expected valid config to pass, got %v", err)
	}
}

func TestValidateCatalogConfig_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*CatalogConfig)
		wantMsg string
	}{
		{"missing catalog name", func(c *CatalogConfig) { c.Name = "" }, "catalog name is required"},
		{"missing material ID", func(c *CatalogConfig) { c.Materials[0].ID = "" }, "material at index 0: material ID is required"},
		{"missing material name", func(c *CatalogConfig) { c.Materials[0].Name = "" }, "material 'sand': material name is required"},
		{"missing category", func(c *CatalogConfig) { c.Materials[0].Category = "" }, "category is required"},
		{"zero density", func(c *CatalogConfig) { c.Materials[0].Properties.Density = 0 }, "density must be positive"},
		{"friction above one", func(c *CatalogConfig) { c.Materials[0].Properties.Friction = 1.5 }, "friction must be within [0,1]"},
		{"negative elasticity", func(c *CatalogConfig) { c.Materials[0].Properties.Elasticity = -0.1 }, "elasticity must be within [0,1]"},
		{"zero size", func(c *CatalogConfig) { c.Materials[0].Properties.Size = 0 }, "size must be positive"},
		{"confidence above one", func(c *CatalogConfig) { c.Materials[0].Confidence = 1.1 }, "confidence must be within [0,1]"},
		{
			"duplicate material IDs",
			func(c *CatalogConfig) { c.Materials = append(c.Materials, c.Materials[0]) },
			"duplicate material ID: sand",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validCatalogConfig()
			tt.mutate(&cfg)

			err := ValidateCatalogConfig(cfg)
			if err == nil {
				t.Fatalf("Expected validation error for %s", tt.name)
			}
			if !strings.Contains(err.Error(), tt.wantMsg) {
				t.Errorf("Expected error to contain %q, got %q", tt.wantMsg, err.Error())
			}
		})
	}
}

func TestValidateCatalogConfig_CollectsMultipleIssues(t *testing.T) {
	cfg := validCatalogConfig()
	cfg.Name = ""
	cfg.Materials[0].Properties.Density = 0
	cfg.Materials[0].Confidence = 2

	err := ValidateCatalogConfig(cfg)
	if err == nil {
		t.Fatal("Expected validation error")
	}

	vErr, ok := err.(*ValidationError)
	if !ok {
		t.Fatalf("Expected *ValidationError, got %T", err)
	}
	if len(vErr.Issues) != 3 {
		t.Errorf("Expected 3 issues, got %d: %v", len(vErr.Issues), vErr.Issues)
	}
}

func TestValidationError_Error(t *testing.T) {
	single := &ValidationError{Issues: []string{"only issue"}}
	if single.Error() != "only issue" {
		t.Errorf("Expected single issue verbatim, got %q", single.Error())
	}

	multi := &ValidationError{Issues: []string{"first", "second"}}
	msg := multi.Error()
	if !strings.Contains(msg, "first") || !strings.Contains(msg, "second") {
		t.Errorf("Expected combined message, got %q", msg)
	}
}
