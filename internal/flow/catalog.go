package flow

// Catalog is an immutable registry of materials keyed by ID.
// It is the read-only input side of the engine: worlds spawn particles
// from catalog entries but never write back.
type Catalog struct {
	Name      string
	materials map[MaterialID]Material
	order     []MaterialID
}

// NewCatalog creates a new catalog with the given name.
// The catalog starts empty.
func NewCatalog(name string) *Catalog {
	return &Catalog{
		Name:      name,
		materials: make(map[MaterialID]Material),
		order:     make([]MaterialID, 0),
	}
}

// WithMaterials adds material definitions to the catalog and returns the
// catalog for method chaining. A material with an already-registered ID
// replaces the previous entry but keeps its position.
func (c *Catalog) WithMaterials(materials ...Material) *Catalog {
	for _, m := range materials {
		if _, exists := c.materials[m.ID]; !exists {
			c.order = append(c.order, m.ID)
		}
		c.materials[m.ID] = m
	}
	return c
}

// Material retrieves a material by ID.
// Returns the material and a boolean indicating if it was found.
func (c *Catalog) Material(id MaterialID) (Material, bool) {
	m, ok := c.materials[id]
	return m, ok
}

// Materials returns all materials in registration order.
func (c *Catalog) Materials() []Material {
	out := make([]Material, 0, len(c.materials))
	for _, id := range c.order {
		out = append(out, c.materials[id])
	}
	return out
}

// Len returns the number of materials in the catalog.
func (c *Catalog) Len() int {
	return len(c.materials)
}

// BuiltinCatalog returns the hard-coded demo catalog. These entries mirror
// the stock material set the flow demo ships with; external catalogs loaded
// from config extend or replace them.
func BuiltinCatalog() *Catalog {
	return NewCatalog("builtin").WithMaterials(
		Material{
			ID:       "iron-ore",
			Name:     "Iron Ore",
			Category: CategoryBulk,
			Properties: Properties{
				Density:    5.2,
				Friction:   0.96,
				Elasticity: 0.25,
				Size:       4,
				Color:      "#8a4b2d",
			},
			Tags:       []string{"ore", "heavy"},
			Confidence: 0.92,
		},
		Material{
			ID:       "coal",
			Name:     "Coal",
			Category: CategoryBulk,
			Properties: Properties{
				Density:    1.4,
				Friction:   0.95,
				Elasticity: 0.2,
				Size:       4,
				Color:      "#2b2b2b",
			},
			Tags:       []string{"fuel"},
			Confidence: 0.9,
		},
		Material{
			ID:       "sand",
			Name:     "Quartz Sand",
			Category: CategoryGranular,
			Properties: Properties{
				Density:    1.6,
				Friction:   0.97,
				Elasticity: 0.15,
				Size:       2,
				Color:      "#d9c48a",
			},
			Tags:       []string{"aggregate", "fine"},
			Confidence: 0.95,
		},
		Material{
			ID:       "gravel",
			Name:     "Crushed Gravel",
			Category: CategoryGranular,
			Properties: Properties{
				Density:    1.8,
				Friction:   0.96,
				Elasticity: 0.3,
				Size:       3,
				Color:      "#9aa0a6",
			},
			Tags:       []string{"aggregate"},
			Confidence: 0.88,
		},
		Material{
			ID:       "steel-billet",
			Name:     "Steel Billet",
			Category: CategoryMetal,
			Properties: Properties{
				Density:    7.85,
				Friction:   0.98,
				Elasticity: 0.6,
				Size:       5,
				Color:      "#b6bcc2",
			},
			Tags:       []string{"metal", "heavy"},
			Confidence: 0.97,
		},
		Material{
			ID:       "aluminum-sheet",
			Name:     "Aluminum Sheet",
			Category: CategoryMetal,
			Properties: Properties{
				Density:    2.7,
				Friction:   0.98,
				Elasticity: 0.55,
				Size:       4,
				Color:      "#dde3e8",
			},
			Tags:       []string{"metal", "light"},
			Confidence: 0.94,
		},
		Material{
			ID:       "pvc-pellet",
			Name:     "PVC Pellets",
			Category: CategoryPlastic,
			Properties: Properties{
				Density:    1.38,
				Friction:   0.99,
				Elasticity: 0.45,
				Size:       2,
				Color:      "#f2f2f2",
			},
			Tags:       []string{"polymer", "pellet"},
			Confidence: 0.85,
		},
	)
}
