package domain

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func derivedAt(minute int, mag float64) DerivedRecord {
	return DerivedRecord{
		Record:    Record{Magnitude: Float(mag), Region: testRegion},
		Timestamp: time.Date(2025, 12, 8, 3, minute, 0, 0, JST),
	}
}

func TestEnergyJoule(t *testing.T) {
	tests := []struct {
		name      string
		magnitude float64
		expected  float64
	}{
		{"magnitude zero", 0, math.Pow(10, 4.8)},
		{"magnitude 2", 2, math.Pow(10, 7.8)},
		{"magnitude 3.5", 3.5, math.Pow(10, 10.05)},
		{"negative magnitude", -1, math.Pow(10, 3.3)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InEpsilon(t, tt.expected, EnergyJoule(tt.magnitude), 1e-12)
		})
	}
}

func TestEnergyJoule_OneMagnitudeIsAbout32Times(t *testing.T) {
	ratio := EnergyJoule(5) / EnergyJoule(4)
	assert.InDelta(t, math.Pow(10, 1.5), ratio, 1e-9)
}

func TestDeriveMetrics(t *testing.T) {
	rows := []DerivedRecord{derivedAt(0, 2), derivedAt(1, 3), derivedAt(2, 2)}

	out := DeriveMetrics(rows)

	require.Len(t, out, 3)
	e2, e3 := EnergyJoule(2), EnergyJoule(3)
	assert.InEpsilon(t, e2, out[0].EnergyJoule, 1e-12)
	assert.InEpsilon(t, e2, out[0].CumEnergyJoule, 1e-12)
	assert.InEpsilon(t, e2+e3, out[1].CumEnergyJoule, 1e-12)
	assert.InEpsilon(t, e2+e3+e2, out[2].CumEnergyJoule, 1e-12)
	assert.Equal(t, []int{1, 2, 3}, []int{out[0].CumCount, out[1].CumCount, out[2].CumCount})
}

func TestDeriveMetrics_CumulativeEnergyMonotonic(t *testing.T) {
	mags := []float64{-0.9, 0.5, 4.2, 1.1, 1.1, 6.8, -0.3, 2.0}
	rows := make([]DerivedRecord, len(mags))
	for i, m := range mags {
		rows[i] = derivedAt(i, m)
	}

	out := DeriveMetrics(rows)

	for i := 1; i < len(out); i++ {
		assert.Greater(t, out[i].CumEnergyJoule, out[i-1].CumEnergyJoule, "row %d", i)
		assert.Equal(t, i+1, out[i].CumCount)
	}
}

func TestDeriveMetrics_Empty(t *testing.T) {
	assert.Empty(t, DeriveMetrics(nil))
}

func TestSummarize(t *testing.T) {
	rows := DeriveMetrics([]DerivedRecord{derivedAt(0, 2), derivedAt(1, 4.5), derivedAt(2, 3)})

	s := Summarize(rows)

	assert.Equal(t, 3, s.Count)
	assert.Equal(t, 4.5, s.MaxMagnitude)
	assert.InEpsilon(t, rows[2].CumEnergyJoule, s.TotalEnergyJoule, 1e-12)
}

func TestSummarize_Empty(t *testing.T) {
	assert.Equal(t, Summary{}, Summarize(nil))
}
