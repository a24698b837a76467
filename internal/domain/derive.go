package domain

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

// EnergyJoule returns the radiated energy of an earthquake of magnitude m,
// E = 10^(1.5m + 4.8) joules.
func EnergyJoule(m float64) float64 {
	return math.Pow(10, 1.5*m+4.8)
}

// DeriveMetrics fills energy, cumulative energy and cumulative count on rows,
// which must already be in chronological order and carry a magnitude. Rows
// without a magnitude contribute zero energy but still advance the count.
func DeriveMetrics(rows []DerivedRecord) []DerivedRecord {
	if len(rows) == 0 {
		return rows
	}

	energy := make([]float64, len(rows))
	for i := range rows {
		if rows[i].Magnitude != nil {
			energy[i] = EnergyJoule(*rows[i].Magnitude)
		}
	}
	cum := floats.CumSum(make([]float64, len(energy)), energy)

	for i := range rows {
		rows[i].EnergyJoule = energy[i]
		rows[i].CumEnergyJoule = cum[i]
		rows[i].CumCount = i + 1
	}
	return rows
}

// Summary describes a derived table in a few numbers for logs and reports.
type Summary struct {
	Count            int     `json:"count"`
	MaxMagnitude     float64 `json:"max_magnitude"`
	TotalEnergyJoule float64 `json:"total_energy_joule"`
}

// Summarize reports the size, largest magnitude and total energy of rows.
func Summarize(rows []DerivedRecord) Summary {
	if len(rows) == 0 {
		return Summary{}
	}
	mags := make([]float64, 0, len(rows))
	energy := make([]float64, len(rows))
	for i, r := range rows {
		if r.Magnitude != nil {
			mags = append(mags, *r.Magnitude)
		}
		energy[i] = r.EnergyJoule
	}

	s := Summary{Count: len(rows), TotalEnergyJoule: floats.Sum(energy)}
	if len(mags) > 0 {
		s.MaxMagnitude = floats.Max(mags)
	}
	return s
}
