// Package catalog persists parsed listings as one CSV file per day and merges
// those files back into a chronological table.
package catalog

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/couchcryptid/quake-catalog/internal/domain"
)

// Header is the exact column order of every catalog file.
var Header = []string{
	"year", "month", "day",
	"time_hm", "second",
	"latitude", "longitude",
	"depth_km", "magnitude",
	"region",
}

// Row is one catalog line as text, before any type coercion.
type Row struct {
	Year      string
	Month     string
	Day       string
	TimeHM    string
	Second    string
	Latitude  string
	Longitude string
	DepthKm   string
	Magnitude string
	Region    string
}

// Write serializes records in order with the catalog header. Unknown depth and
// magnitude are written as "-"; an absent second is written empty.
func Write(w io.Writer, records []domain.Record) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Header); err != nil {
		return fmt.Errorf("write catalog header: %w", err)
	}
	for i := range records {
		if err := cw.Write(recordFields(records[i])); err != nil {
			return fmt.Errorf("write catalog row %d: %w", i, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

func recordFields(r domain.Record) []string {
	second := ""
	if r.Second != nil {
		second = formatFloat(*r.Second)
	}
	return []string{
		strconv.Itoa(r.Year),
		strconv.Itoa(r.Month),
		strconv.Itoa(r.Day),
		r.TimeHM,
		second,
		formatFloat(r.Latitude),
		formatFloat(r.Longitude),
		domain.FormatDepth(r.DepthKm),
		domain.FormatMagnitude(r.Magnitude),
		strings.TrimSpace(r.Region),
	}
}

// Read parses a catalog file. Columns are located by header name so files
// with reordered columns still load; short rows leave trailing fields empty.
func Read(r io.Reader) ([]Row, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read catalog header: %w", err)
	}

	index := make(map[string]int, len(header))
	for i, name := range header {
		index[strings.TrimSpace(strings.TrimPrefix(name, "\ufeff"))] = i
	}
	for _, name := range Header {
		if _, ok := index[name]; !ok {
			return nil, fmt.Errorf("catalog header missing column %q", name)
		}
	}

	var rows []Row
	for {
		fields, err := cr.Read()
		if errors.Is(err, io.EOF) {
			return rows, nil
		}
		if err != nil {
			return nil, fmt.Errorf("read catalog row: %w", err)
		}
		get := func(name string) string {
			if i := index[name]; i < len(fields) {
				return fields[i]
			}
			return ""
		}
		rows = append(rows, Row{
			Year:      get("year"),
			Month:     get("month"),
			Day:       get("day"),
			TimeHM:    get("time_hm"),
			Second:    get("second"),
			Latitude:  get("latitude"),
			Longitude: get("longitude"),
			DepthKm:   get("depth_km"),
			Magnitude: get("magnitude"),
			Region:    get("region"),
		})
	}
}

// Coerce converts the row to a record. Any value that does not parse becomes
// missing instead of failing: optional pointers stay nil, coordinates stay
// zero, and the affected fields are returned. FieldTimestamp is reported when
// the date, time or seconds cannot form a valid instant.
func (r Row) Coerce() (domain.Record, []domain.Field) {
	var missing []domain.Field
	rec := domain.Record{
		TimeHM: strings.TrimSpace(r.TimeHM),
		Region: strings.TrimSpace(r.Region),
	}

	year, errY := parseInt(r.Year)
	month, errM := parseInt(r.Month)
	day, errD := parseInt(r.Day)
	rec.Year, rec.Month, rec.Day = year, month, day
	rec.Second = parseFloatPtr(r.Second)
	if errY != nil || errM != nil || errD != nil {
		missing = append(missing, domain.FieldTimestamp)
	} else if _, ok := domain.Timestamp(rec); !ok {
		missing = append(missing, domain.FieldTimestamp)
	}

	if rec.Magnitude = parseFloatPtr(r.Magnitude); rec.Magnitude == nil {
		missing = append(missing, domain.FieldMagnitude)
	}
	if lat := parseFloatPtr(r.Latitude); lat != nil {
		rec.Latitude = *lat
	} else {
		missing = append(missing, domain.FieldLatitude)
	}
	if lon := parseFloatPtr(r.Longitude); lon != nil {
		rec.Longitude = *lon
	} else {
		missing = append(missing, domain.FieldLongitude)
	}
	if rec.DepthKm = parseDepth(r.DepthKm); rec.DepthKm == nil {
		missing = append(missing, domain.FieldDepth)
	}

	return rec, missing
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func parseInt(s string) (int, error) {
	return strconv.Atoi(strings.TrimSpace(s))
}

// parseFloatPtr returns nil for empty, "-", NaN, infinite or unparseable input.
func parseFloatPtr(s string) *float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

// parseDepth accepts integers and integral decimals such as "10.0".
func parseDepth(s string) *int {
	v := parseFloatPtr(s)
	if v == nil || *v != math.Trunc(*v) {
		return nil
	}
	d := int(*v)
	return &d
}
