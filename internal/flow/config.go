package flow

// MaterialConfig is the JSON shape of a catalog entry.
type MaterialConfig struct {
	ID         string     `json:"id"`
	Name       string     `json:"name"`
	Category   string     `json:"category"`
	Properties Properties `json:"properties"`
	Tags       []string   `json:"tags,omitempty"`
	Confidence float64    `json:"confidence"`
}

// CatalogConfig is the JSON shape of a material catalog file.
type CatalogConfig struct {
	Name      string           `json:"name"`
	Materials []MaterialConfig `json:"materials"`
}

// ParamsPatch is a partial update of step parameters. Nil fields leave the
// current value untouched. Turbulence is routed to the world's drift field
// rather than the stepper constants.
type ParamsPatch struct {
	Gravity      *float64 `json:"gravity,omitempty"`
	GravityScale *float64 `json:"gravity_scale,omitempty"`
	Speed        *float64 `json:"speed,omitempty"`
	Restitution  *float64 `json:"restitution,omitempty"`
	Turbulence   *float64 `json:"turbulence,omitempty"`
}

// ApplyTo returns params with the patch applied. Turbulence is not part of
// StepParams; use ApplyPatch on a world to route it.
func (p ParamsPatch) ApplyTo(params StepParams) StepParams {
	if p.Gravity != nil {
		params.Gravity = *p.Gravity
	}
	if p.GravityScale != nil {
		params.GravityScale = *p.GravityScale
	}
	if p.Speed != nil {
		params.Speed = *p.Speed
	}
	if p.Restitution != nil {
		params.Restitution = *p.Restitution
	}
	return params
}

// ApplyPatch applies a partial parameter update to the world, including
// the turbulence amplitude.
func (w *World) ApplyPatch(p ParamsPatch) {
	w.SetParams(p.ApplyTo(w.Params()))
	if p.Turbulence != nil {
		w.SetTurbulence(*p.Turbulence)
	}
}

// BuildCatalogFromConfig validates a catalog config and builds a Catalog
// from it. The returned catalog contains only the configured materials;
// merge with BuiltinCatalog at the call site if the stock set should stay
// available.
func BuildCatalogFromConfig(cfg CatalogConfig) (*Catalog, error) {
	if err := ValidateCatalogConfig(cfg); err != nil {
		return nil, err
	}

	materials := make([]Material, 0, len(cfg.Materials))
	for _, mc := range cfg.Materials {
		materials = append(materials, Material{
			ID:         MaterialID(mc.ID),
			Name:       mc.Name,
			Category:   mc.Category,
			Properties: mc.Properties,
			Tags:       mc.Tags,
			Confidence: mc.Confidence,
		})
	}

	return NewCatalog(cfg.Name).WithMaterials(materials...), nil
}
