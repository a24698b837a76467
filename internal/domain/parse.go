package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// ws matches the separators seen in listings, including the no-break and
// ideographic spaces that RE2's \s does not cover.
const ws = `[\s\x{00A0}\x{3000}]`

// lineRe is the listing grammar. Groups: year, month, day, HH:MM, seconds,
// lat deg, lat min, N/S, lon deg, lon min, E/W, depth, magnitude, region.
var lineRe = regexp.MustCompile(strings.NewReplacer("WS", ws).Replace(
	`^(\d{4})WS+` +
		`(\d{1,2})WS+` +
		`(\d{1,2})WS+` +
		`(\d{2}:\d{2})WS+` +
		`(\d+(?:\.\d+)?)WS+` +
		`(\d+)WS*°WS*(\d+(?:\.\d+)?)'WS*([NS])WS+` +
		`(\d+)WS*°WS*(\d+(?:\.\d+)?)'WS*([EW])WS+` +
		`(\d{1,3}|-)WS+` +
		`(-?\d+(?:\.\d+)?|-)WS+` +
		`(.+)`,
))

// ParseLine parses one listing line. It returns false when the line does not
// match the grammar; header and footer lines are expected to fail.
func ParseLine(line string) (Record, bool) {
	m := lineRe.FindStringSubmatch(line)
	if m == nil {
		return Record{}, false
	}

	// The grammar guarantees every numeric group below is well formed.
	year, _ := strconv.Atoi(m[1])
	month, _ := strconv.Atoi(m[2])
	day, _ := strconv.Atoi(m[3])
	sec, _ := strconv.ParseFloat(m[5], 64)
	latDeg, _ := strconv.ParseFloat(m[6], 64)
	latMin, _ := strconv.ParseFloat(m[7], 64)
	lonDeg, _ := strconv.ParseFloat(m[9], 64)
	lonMin, _ := strconv.ParseFloat(m[10], 64)

	return Record{
		Year:      year,
		Month:     month,
		Day:       day,
		TimeHM:    m[4],
		Second:    &sec,
		Latitude:  DegMinToDecimal(latDeg, latMin, m[8]),
		Longitude: DegMinToDecimal(lonDeg, lonMin, m[11]),
		DepthKm:   parseOptionalInt(m[12]),
		Magnitude: parseOptionalFloat(m[13]),
		Region:    strings.TrimSpace(m[14]),
	}, true
}

// ParseListing parses every line of a listing block, keeping the records in
// line order and counting the non-blank lines that did not match.
func ParseListing(text string) ParseResult {
	var res ParseResult
	for _, line := range strings.Split(text, "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		rec, ok := ParseLine(line)
		if !ok {
			res.Skipped++
			continue
		}
		res.Records = append(res.Records, rec)
	}
	return res
}

// FormatLine renders a record in listing notation. ParseLine(FormatLine(r))
// yields r back for any record with a known second.
func FormatLine(r Record) string {
	latDeg, latMin, ns := decimalToDegMin(r.Latitude, "N", "S")
	lonDeg, lonMin, ew := decimalToDegMin(r.Longitude, "E", "W")

	sec := "0"
	if r.Second != nil {
		sec = strconv.FormatFloat(*r.Second, 'f', -1, 64)
	}

	return fmt.Sprintf("%d %2d %2d %s %5s  %d°%s'%s %d°%s'%s %3s %4s  %s",
		r.Year, r.Month, r.Day, r.TimeHM, sec,
		latDeg, strconv.FormatFloat(latMin, 'f', -1, 64), ns,
		lonDeg, strconv.FormatFloat(lonMin, 'f', -1, 64), ew,
		FormatDepth(r.DepthKm), FormatMagnitude(r.Magnitude), r.Region,
	)
}

// FormatDepth renders a depth, using "-" for unknown.
func FormatDepth(d *int) string {
	if d == nil {
		return "-"
	}
	return strconv.Itoa(*d)
}

// FormatMagnitude renders a magnitude, using "-" for unknown.
func FormatMagnitude(m *float64) string {
	if m == nil {
		return "-"
	}
	return strconv.FormatFloat(*m, 'f', -1, 64)
}

// Timestamp combines the date, clock time and seconds of r into a JST time.
// It returns false when any part is missing or out of range.
func Timestamp(r Record) (time.Time, bool) {
	if r.Second == nil || math.IsNaN(*r.Second) || *r.Second < 0 || *r.Second >= 60 {
		return time.Time{}, false
	}
	hour, minute, ok := parseHM(r.TimeHM)
	if !ok {
		return time.Time{}, false
	}
	if r.Month < 1 || r.Month > 12 || r.Day < 1 || r.Day > 31 {
		return time.Time{}, false
	}

	t := time.Date(r.Year, time.Month(r.Month), r.Day, hour, minute, 0, 0, JST)
	if t.Month() != time.Month(r.Month) || t.Day() != r.Day {
		return time.Time{}, false // e.g. February 30 normalized into March
	}
	return t.Add(time.Duration(math.Round(*r.Second * float64(time.Second)))), true
}

// Fingerprint returns a deterministic identifier for the event described by
// r. Identical lines always produce the same fingerprint.
func Fingerprint(r Record) string {
	sec := ""
	if r.Second != nil {
		sec = strconv.FormatFloat(*r.Second, 'f', -1, 64)
	}
	input := fmt.Sprintf("%04d%02d%02d|%s|%s|%.5f|%.5f|%s|%s|%s",
		r.Year, r.Month, r.Day, r.TimeHM, sec, r.Latitude, r.Longitude,
		FormatDepth(r.DepthKm), FormatMagnitude(r.Magnitude), r.Region)
	hash := sha256.Sum256([]byte(input))
	return "eq-" + hex.EncodeToString(hash[:8])
}

func parseHM(s string) (hour, minute int, ok bool) {
	h, m, found := strings.Cut(s, ":")
	if !found || len(h) != 2 || len(m) != 2 {
		return 0, 0, false
	}
	hour, errH := strconv.Atoi(h)
	minute, errM := strconv.Atoi(m)
	if errH != nil || errM != nil || hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		return 0, 0, false
	}
	return hour, minute, true
}

func parseOptionalInt(s string) *int {
	if s == "-" {
		return nil
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return nil
	}
	return &v
}

func parseOptionalFloat(s string) *float64 {
	if s == "-" {
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	return &v
}
