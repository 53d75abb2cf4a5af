// Package fixtures provides the reference region dataset served by the
// memory backend and seeded into SQL backends.
package fixtures

import (
	_ "embed"
	"fmt"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/georegions/regions/internal/models"
)

//go:embed regions.yaml
var regionsYAML []byte

type dataset struct {
	Countries []models.Country `yaml:"countries"`
	Regions   []models.Region  `yaml:"regions"`
}

var (
	loadOnce sync.Once
	loaded   dataset
	loadErr  error
)

// Parse decodes a dataset document and checks its integrity: ids are unique
// and positive, every region references a declared country and region codes
// are unique within a country.
func Parse(data []byte) ([]models.Country, []models.Region, error) {
	var ds dataset
	if err := yaml.Unmarshal(data, &ds); err != nil {
		return nil, nil, fmt.Errorf("failed to decode fixtures: %w", err)
	}

	countries := make(map[string]models.Country, len(ds.Countries))
	for _, c := range ds.Countries {
		countries[c.Code] = c
	}

	ids := make(map[int64]bool, len(ds.Regions))
	codes := make(map[string]bool, len(ds.Regions))
	for _, r := range ds.Regions {
		if r.ID < 1 {
			return nil, nil, fmt.Errorf("region %q has invalid id %d", r.Name, r.ID)
		}
		if ids[r.ID] {
			return nil, nil, fmt.Errorf("duplicate region id %d", r.ID)
		}
		ids[r.ID] = true

		if c, ok := countries[r.Country.Code]; !ok || c != r.Country {
			return nil, nil, fmt.Errorf("region %d references unknown country %q", r.ID, r.Country.Code)
		}

		key := r.Country.Code + "/" + r.Code
		if codes[key] {
			return nil, nil, fmt.Errorf("duplicate region code %q in country %q", r.Code, r.Country.Code)
		}
		codes[key] = true
	}

	return ds.Countries, ds.Regions, nil
}

func load() (dataset, error) {
	loadOnce.Do(func() {
		loaded.Countries, loaded.Regions, loadErr = Parse(regionsYAML)
	})
	return loaded, loadErr
}

// Regions returns a copy of the reference regions in id order.
func Regions() ([]models.Region, error) {
	ds, err := load()
	if err != nil {
		return nil, err
	}
	out := make([]models.Region, len(ds.Regions))
	copy(out, ds.Regions)
	return out, nil
}

// Countries returns a copy of the reference countries.
func Countries() ([]models.Country, error) {
	ds, err := load()
	if err != nil {
		return nil, err
	}
	out := make([]models.Country, len(ds.Countries))
	copy(out, ds.Countries)
	return out, nil
}

// MustRegions is like Regions but panics on a malformed embedded dataset.
func MustRegions() []models.Region {
	regions, err := Regions()
	if err != nil {
		panic(err)
	}
	return regions
}
