package channel

import (
	"math"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/signalsfoundry/downlink-simulator/modem"
)

// MeanPower returns the mean of the squared samples.
func MeanPower(samples []float64) float64 {
	if len(samples) == 0 {
		return 0
	}
	return floats.Dot(samples, samples) / float64(len(samples))
}

// DBToLinear converts a decibel power ratio to linear scale.
func DBToLinear(db float64) float64 { return math.Pow(10, db/10) }

// LinearToDB converts a linear power ratio to decibels. Non-positive ratios
// map to -Inf.
func LinearToDB(linear float64) float64 {
	if linear <= 0 {
		return math.Inf(-1)
	}
	return 10 * math.Log10(linear)
}

// AddAWGN adds zero-mean white Gaussian noise sized for the target SNR:
// noisePower = meanPower(signal) / 10^(snrDB/10), sigma = sqrt(noisePower).
//
// The noise vector is returned alongside the noisy waveform so callers can
// measure the SNR actually achieved. src is the only entropy input in the
// whole core; pass a seeded source for reproducible runs, or nil to use the
// process-wide generator.
func AddAWGN(w modem.Waveform, snrDB float64, src rand.Source) (modem.Waveform, []float64) {
	if len(w.Samples) == 0 {
		return w.Clone(), nil
	}

	signalPower := MeanPower(w.Samples)
	noisePower := signalPower / DBToLinear(snrDB)
	if noisePower == 0 || math.IsInf(snrDB, 1) {
		// SNR of +Inf (or a dead signal): nothing to add.
		return w.Clone(), make([]float64, len(w.Samples))
	}

	normal := distuv.Normal{Mu: 0, Sigma: math.Sqrt(noisePower), Src: src}
	noise := make([]float64, len(w.Samples))
	out := w.Clone()
	for i := range out.Samples {
		noise[i] = normal.Rand()
		out.Samples[i] += noise[i]
	}
	return out, noise
}

// MeasureSNRdB returns 10*log10(P_signal / P_noise) for a signal and the
// noise that was added to it. Zero noise power yields +Inf.
func MeasureSNRdB(signal, noise []float64) float64 {
	noisePower := MeanPower(noise)
	if noisePower == 0 {
		return math.Inf(1)
	}
	return 10 * math.Log10(MeanPower(signal)/noisePower)
}
