package modem

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
)

// ErrInvalidParameter reports a modem call with a nonsensical argument, such
// as a non-positive carrier frequency or sample rate.
var ErrInvalidParameter = errors.New("modem: invalid parameter")

// minSamplesPerSymbol keeps at least one full, smooth carrier cycle under
// every symbol even when the sample rate barely exceeds the carrier.
const minSamplesPerSymbol = 100

// SamplesPerSymbol returns the fixed oversampling heuristic:
// max(100, floor(sampleRate/carrierFreq) * 10).
func SamplesPerSymbol(sampleRateHz, carrierFreqHz float64) int {
	sps := int(sampleRateHz/carrierFreqHz) * 10
	if sps < minSamplesPerSymbol {
		sps = minSamplesPerSymbol
	}
	return sps
}

// Modulate places BPSK symbols onto a unit sine carrier. Each symbol is held
// for SamplesPerSymbol samples and multiplied by sin(2*pi*fc*t), so the output
// length is len(symbols) * SamplesPerSymbol and the amplitude is the symbol
// value times the unit carrier.
func Modulate(symbols Symbols, carrierFreqHz, sampleRateHz float64) (Waveform, error) {
	if carrierFreqHz <= 0 || sampleRateHz <= 0 {
		return Waveform{}, fmt.Errorf("%w: carrier %v Hz, sample rate %v Hz",
			ErrInvalidParameter, carrierFreqHz, sampleRateHz)
	}

	sps := SamplesPerSymbol(sampleRateHz, carrierFreqHz)
	samples := make([]float64, len(symbols)*sps)
	omega := 2 * math.Pi * carrierFreqHz

	for i, sym := range symbols {
		base := i * sps
		for j := 0; j < sps; j++ {
			t := float64(base+j) / sampleRateHz
			samples[base+j] = sym * math.Sin(omega*t)
		}
	}

	return Waveform{
		Samples:       samples,
		SampleRateHz:  sampleRateHz,
		CarrierFreqHz: carrierFreqHz,
	}, nil
}

// Demodulate coherently recovers symbols from a waveform: it regenerates the
// identical carrier, mixes, integrates each symbol-length segment, and takes
// the sign of the sum. The receiver carrier is assumed perfectly phase and
// frequency locked to the transmitter; errors come only from the channel
// flipping the integrated sign.
func Demodulate(w Waveform, symbolCount int) (Symbols, error) {
	if symbolCount < 0 {
		return nil, fmt.Errorf("%w: symbol count %d", ErrInvalidParameter, symbolCount)
	}
	if w.CarrierFreqHz <= 0 || w.SampleRateHz <= 0 {
		return nil, fmt.Errorf("%w: carrier %v Hz, sample rate %v Hz",
			ErrInvalidParameter, w.CarrierFreqHz, w.SampleRateHz)
	}
	if symbolCount == 0 {
		return Symbols{}, nil
	}

	sps := len(w.Samples) / symbolCount
	if sps < 1 {
		sps = 1
	}

	mixed := make([]float64, len(w.Samples))
	omega := 2 * math.Pi * w.CarrierFreqHz
	for i, s := range w.Samples {
		mixed[i] = s * math.Sin(omega*float64(i)/w.SampleRateHz)
	}

	symbols := make(Symbols, 0, symbolCount)
	for i := 0; i < symbolCount; i++ {
		start := i * sps
		end := start + sps
		if start >= len(mixed) {
			// Ran out of samples; an empty integral decides toward -1.
			symbols = append(symbols, -1)
			continue
		}
		if end > len(mixed) {
			end = len(mixed)
		}
		if floats.Sum(mixed[start:end]) > 0 {
			symbols = append(symbols, 1)
		} else {
			symbols = append(symbols, -1)
		}
	}
	return symbols, nil
}
