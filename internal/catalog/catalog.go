package catalog

import (
	"fmt"
	"strings"
)

// Catalog bundles the label legend and the sight id mapping.
type Catalog struct {
	Labels *ClassLabelMap
	Sights *SightIDMap
}

// Load reads both resource files and checks that every label has a sight id.
func Load(labelsPath, sightIDsPath string) (*Catalog, error) {
	labels, err := LoadLabels(labelsPath)
	if err != nil {
		return nil, err
	}
	sights, err := LoadSightIDs(sightIDsPath)
	if err != nil {
		return nil, err
	}
	c := &Catalog{Labels: labels, Sights: sights}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Catalog) Validate() error {
	var missing []string
	for _, name := range c.Labels.Names() {
		if _, ok := c.Sights.ID(name); !ok {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("labels without sight id: %s", strings.Join(missing, ", "))
	}
	return nil
}

// CheckModelLabels fails unless the legend matches the class dictionary
// shipped with the trained weights. The model's dictionary is authoritative.
func (c *Catalog) CheckModelLabels(model *ClassLabelMap) error {
	if model == nil {
		return fmt.Errorf("model carries no class dictionary")
	}
	if !c.Labels.Equal(model) {
		return fmt.Errorf("label legend does not match model classes: %s", c.Labels.Diff(model))
	}
	return nil
}
