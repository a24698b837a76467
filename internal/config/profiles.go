package config

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/couchcryptid/quake-catalog/internal/domain"
)

type profilesFile struct {
	Profiles []domain.Profile `yaml:"profiles"`
}

// LoadProfiles reads aggregation profiles from a YAML file. Profiles without
// a target_region inherit region.
func LoadProfiles(path, region string) ([]domain.Profile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var file profilesFile
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&file); err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	if len(file.Profiles) == 0 {
		return nil, fmt.Errorf("%s defines no profiles", path)
	}

	seen := make(map[string]bool, len(file.Profiles))
	for i := range file.Profiles {
		p := &file.Profiles[i]
		if p.TargetRegion == "" {
			p.TargetRegion = region
		}
		if err := p.Validate(); err != nil {
			return nil, err
		}
		if seen[p.Name] {
			return nil, fmt.Errorf("duplicate profile %q", p.Name)
		}
		seen[p.Name] = true
	}
	return file.Profiles, nil
}
