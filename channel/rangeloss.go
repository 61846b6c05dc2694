package channel

import (
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/signalsfoundry/downlink-simulator/modem"
)

// DefaultReferenceDistanceKm is the distance at which the inverse-square
// attenuation factor is exactly 1 (no loss).
const DefaultReferenceDistanceKm = 1.0

// RangeAttenuation returns the free-space attenuation factor
// (reference/distance)^2. A distance at or below zero clamps to the reference
// distance, i.e. no loss.
//
// Convention: the factor is an inverse-square power ratio applied directly
// to the sample amplitudes. RangeLossDB is its dB companion.
func RangeAttenuation(distanceKm, referenceKm float64) float64 {
	if referenceKm <= 0 {
		referenceKm = DefaultReferenceDistanceKm
	}
	if distanceKm <= 0 {
		distanceKm = referenceKm
	}
	ratio := referenceKm / distanceKm
	return ratio * ratio
}

// RangeLossDB returns the range loss in decibels: 20*log10(distance/reference).
func RangeLossDB(distanceKm, referenceKm float64) float64 {
	if referenceKm <= 0 {
		referenceKm = DefaultReferenceDistanceKm
	}
	if distanceKm <= 0 {
		distanceKm = referenceKm
	}
	return 20 * math.Log10(distanceKm/referenceKm)
}

// ApplyRangeLoss scales the waveform by the free-space attenuation factor and
// returns the scaled copy along with the factor used.
func ApplyRangeLoss(w modem.Waveform, distanceKm, referenceKm float64) (modem.Waveform, float64) {
	factor := RangeAttenuation(distanceKm, referenceKm)
	out := w.Clone()
	if len(out.Samples) > 0 {
		floats.Scale(factor, out.Samples)
	}
	return out, factor
}
