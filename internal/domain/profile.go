package domain

import (
	"fmt"
	"strings"
)

// DefaultRegion is the epicenter region the charts were built around.
const DefaultRegion = "青森県東方沖"

// Profile selects and validates catalog rows for one renderer. Timestamp and
// magnitude are always required because the derived metrics depend on them;
// RequiredFields lists any additional columns the renderer plots.
type Profile struct {
	Name           string  `yaml:"name" json:"name"`
	TargetRegion   string  `yaml:"target_region" json:"target_region"`
	RequiredFields []Field `yaml:"required_fields" json:"required_fields"`
}

// Required returns the full set of fields a row must carry for the profile.
func (p Profile) Required() []Field {
	out := []Field{FieldTimestamp, FieldMagnitude}
	for _, f := range p.RequiredFields {
		if f != FieldTimestamp && f != FieldMagnitude {
			out = append(out, f)
		}
	}
	return out
}

// Validate checks the profile has a name, a region and known fields.
func (p Profile) Validate() error {
	if strings.TrimSpace(p.Name) == "" {
		return fmt.Errorf("profile name is required")
	}
	if strings.TrimSpace(p.TargetRegion) == "" {
		return fmt.Errorf("profile %q: target_region is required", p.Name)
	}
	for _, f := range p.RequiredFields {
		if !f.Valid() {
			return fmt.Errorf("profile %q: unknown required field %q", p.Name, f)
		}
	}
	return nil
}

// DefaultProfiles returns one profile per chart: cumulative energy/count
// (et), magnitude-time (mt), epicenter map (xy), map over time (xyt) and
// latitude-time (yt).
func DefaultProfiles(region string) []Profile {
	spatial := []Field{FieldLongitude, FieldLatitude, FieldDepth}
	return []Profile{
		{Name: "et", TargetRegion: region},
		{Name: "mt", TargetRegion: region},
		{Name: "xy", TargetRegion: region, RequiredFields: spatial},
		{Name: "xyt", TargetRegion: region, RequiredFields: spatial},
		{Name: "yt", TargetRegion: region, RequiredFields: []Field{FieldLatitude, FieldDepth}},
	}
}
