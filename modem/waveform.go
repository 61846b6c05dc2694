package modem

// Waveform is a real-valued sampled signal together with the sampling context
// needed to regenerate its carrier. The time axis is implicit:
// t_i = i / SampleRate.
type Waveform struct {
	Samples       []float64
	SampleRateHz  float64
	CarrierFreqHz float64
}

// Duration returns the waveform length in seconds.
func (w Waveform) Duration() float64 {
	if w.SampleRateHz <= 0 {
		return 0
	}
	return float64(len(w.Samples)) / w.SampleRateHz
}

// TimeAt returns the time of sample i in seconds.
func (w Waveform) TimeAt(i int) float64 {
	if w.SampleRateHz <= 0 {
		return 0
	}
	return float64(i) / w.SampleRateHz
}

// Clone returns a deep copy sharing no sample storage with w. Channel stages
// operate on copies so the transmitted waveform stays intact for metrics.
func (w Waveform) Clone() Waveform {
	samples := make([]float64, len(w.Samples))
	copy(samples, w.Samples)
	return Waveform{
		Samples:       samples,
		SampleRateHz:  w.SampleRateHz,
		CarrierFreqHz: w.CarrierFreqHz,
	}
}
