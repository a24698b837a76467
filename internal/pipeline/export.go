package pipeline

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"time"

	"github.com/couchcryptid/quake-catalog/internal/domain"
)

// Format selects the serialization of an exported table.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatJSON Format = "json"
)

// ParseFormat validates an export format name.
func ParseFormat(s string) (Format, error) {
	switch f := Format(s); f {
	case FormatCSV, FormatJSON:
		return f, nil
	default:
		return "", fmt.Errorf("unknown export format %q (want csv or json)", s)
	}
}

// exportHeader is the column order renderers read.
var exportHeader = []string{
	"timestamp", "latitude", "longitude", "depth_km", "magnitude", "region",
	"energy_joule", "cum_energy_joule", "cum_count",
}

// Event is one row of a derived table as handed to renderers. Fields that
// were missing in the catalog are null, as are energies that overflow a
// float64 (an implausible magnitude such as 300 still parses).
type Event struct {
	Timestamp      time.Time `json:"timestamp"`
	Latitude       *float64  `json:"latitude"`
	Longitude      *float64  `json:"longitude"`
	DepthKm        *int      `json:"depth_km"`
	Magnitude      *float64  `json:"magnitude"`
	Region         string    `json:"region"`
	EnergyJoule    *float64  `json:"energy_joule"`
	CumEnergyJoule *float64  `json:"cum_energy_joule"`
	CumCount       int       `json:"cum_count"`
}

// Summary is [domain.Summary] with a null total when it is not finite.
type Summary struct {
	Count            int      `json:"count"`
	MaxMagnitude     float64  `json:"max_magnitude"`
	TotalEnergyJoule *float64 `json:"total_energy_joule"`
}

// Table is a derived table with its provenance.
type Table struct {
	Profile      string  `json:"profile"`
	TargetRegion string  `json:"target_region"`
	Files        int     `json:"files"`
	Summary      Summary `json:"summary"`
	Events       []Event `json:"events"`
}

// NewTable converts an analysis into its renderer representation.
func NewTable(a Analysis) Table {
	t := Table{
		Profile:      a.Profile.Name,
		TargetRegion: a.Profile.TargetRegion,
		Files:        len(a.Files),
		Events:       make([]Event, len(a.Rows)),
		Summary: Summary{
			Count:            a.Summary.Count,
			MaxMagnitude:     a.Summary.MaxMagnitude,
			TotalEnergyJoule: finite(a.Summary.TotalEnergyJoule),
		},
	}
	for i, r := range a.Rows {
		e := Event{
			Timestamp:      r.Timestamp,
			DepthKm:        r.DepthKm,
			Magnitude:      r.Magnitude,
			Region:         r.Region,
			EnergyJoule:    finite(r.EnergyJoule),
			CumEnergyJoule: finite(r.CumEnergyJoule),
			CumCount:       r.CumCount,
		}
		if !slices.Contains(r.Missing, domain.FieldLatitude) {
			e.Latitude = domain.Float(r.Latitude)
		}
		if !slices.Contains(r.Missing, domain.FieldLongitude) {
			e.Longitude = domain.Float(r.Longitude)
		}
		t.Events[i] = e
	}
	return t
}

// WriteTable serializes t to w in the given format.
func WriteTable(w io.Writer, format Format, t Table) error {
	switch format {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(t)
	case FormatCSV:
		return writeCSV(w, t.Events)
	default:
		return fmt.Errorf("unknown export format %q", format)
	}
}

func writeCSV(w io.Writer, events []Event) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(exportHeader); err != nil {
		return err
	}
	for _, e := range events {
		row := []string{
			e.Timestamp.Format(time.RFC3339Nano),
			optionalFloat(e.Latitude),
			optionalFloat(e.Longitude),
			optionalInt(e.DepthKm),
			optionalFloat(e.Magnitude),
			e.Region,
			optionalEnergy(e.EnergyJoule),
			optionalEnergy(e.CumEnergyJoule),
			strconv.Itoa(e.CumCount),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// finite returns nil for NaN and infinities, which JSON cannot carry.
func finite(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

func optionalEnergy(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'g', -1, 64)
}

func optionalInt(v *int) string {
	if v == nil {
		return ""
	}
	return strconv.Itoa(*v)
}

func optionalFloat(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}

// Export analyzes profile and writes the table to dir/<profile>.<format>,
// creating dir when needed. It returns the written path.
func (p *Pipeline) Export(ctx context.Context, profile domain.Profile, dir string, format Format) (string, Analysis, error) {
	a, err := p.Analyze(ctx, profile)
	if err != nil {
		return "", Analysis{}, err
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", a, fmt.Errorf("create output dir: %w", err)
	}
	path := filepath.Join(dir, profile.Name+"."+string(format))
	tmp, err := os.CreateTemp(dir, "."+profile.Name+".*")
	if err != nil {
		return "", a, fmt.Errorf("create export temp file: %w", err)
	}
	defer os.Remove(tmp.Name()) //nolint:errcheck // no-op after a successful rename

	if err := WriteTable(tmp, format, NewTable(a)); err != nil {
		tmp.Close() //nolint:errcheck // write error takes precedence
		return "", a, fmt.Errorf("write export %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return "", a, fmt.Errorf("close export %s: %w", path, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return "", a, fmt.Errorf("rename export %s: %w", path, err)
	}

	p.logger.Info("export saved", "path", path, "rows", len(a.Rows))
	return path, a, nil
}
