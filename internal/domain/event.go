package domain

import (
	"errors"
	"time"
)

// JST is the fixed UTC+9 zone every listing time is expressed in.
var JST = time.FixedZone("JST", 9*60*60)

var (
	// ErrExtraction is returned when a listing page has no preformatted text.
	ErrExtraction = errors.New("no preformatted text block found in page")

	// ErrNoCatalogFiles is returned when aggregation finds nothing to load.
	ErrNoCatalogFiles = errors.New("no catalog files found")
)

// Record is one earthquake parsed from a listing line.
type Record struct {
	Year      int      `json:"year"`
	Month     int      `json:"month"`
	Day       int      `json:"day"`
	TimeHM    string   `json:"time_hm"`
	Second    *float64 `json:"second"`
	Latitude  float64  `json:"latitude"`
	Longitude float64  `json:"longitude"`
	DepthKm   *int     `json:"depth_km"`  // nil when the listing shows "-"
	Magnitude *float64 `json:"magnitude"` // nil when the listing shows "-"
	Region    string   `json:"region"`
}

// DerivedRecord is a record placed on the chronological axis with its
// cumulative energy and count.
type DerivedRecord struct {
	Record
	Timestamp      time.Time `json:"timestamp"`
	EnergyJoule    float64   `json:"energy_joule"`
	CumEnergyJoule float64   `json:"cum_energy_joule"`
	CumCount       int       `json:"cum_count"`

	// Missing lists optional columns that were absent or failed to parse in
	// the catalog file. Their values in Record are zero.
	Missing []Field `json:"missing,omitempty"`
}

// ParseResult holds the records recovered from one listing and the number of
// lines that did not match the grammar.
type ParseResult struct {
	Records []Record
	Skipped int
}

// Field names a record column that aggregation can require to be present.
type Field string

const (
	FieldTimestamp Field = "timestamp"
	FieldMagnitude Field = "magnitude"
	FieldLatitude  Field = "latitude"
	FieldLongitude Field = "longitude"
	FieldDepth     Field = "depth_km"
)

// Valid reports whether f is a known field.
func (f Field) Valid() bool {
	switch f {
	case FieldTimestamp, FieldMagnitude, FieldLatitude, FieldLongitude, FieldDepth:
		return true
	default:
		return false
	}
}

// Float returns a pointer to v, for building records in code.
func Float(v float64) *float64 { return &v }

// Int returns a pointer to v, for building records in code.
func Int(v int) *int { return &v }
