package channel

import (
	"math"
	"testing"

	"github.com/signalsfoundry/downlink-simulator/modem"
)

func TestRangeAttenuationReference(t *testing.T) {
	if got := RangeAttenuation(1, 1); got != 1 {
		t.Fatalf("attenuation at reference = %v, want 1", got)
	}
	if got := RangeAttenuation(10, 1); got != 0.01 {
		t.Fatalf("attenuation at 10x reference = %v, want 0.01", got)
	}
}

func TestRangeAttenuationMonotonic(t *testing.T) {
	prev := math.Inf(1)
	for _, d := range []float64{1, 10, 100, 1000, 10000} {
		att := RangeAttenuation(d, 1)
		if att >= prev {
			t.Fatalf("attenuation at %v km = %v, not below %v", d, att, prev)
		}
		prev = att
	}
}

func TestRangeAttenuationClampsNonPositiveDistance(t *testing.T) {
	if got := RangeAttenuation(0, 1); got != 1 {
		t.Fatalf("zero distance: got %v, want 1", got)
	}
	if got := RangeAttenuation(-50, 1); got != 1 {
		t.Fatalf("negative distance: got %v, want 1", got)
	}
}

func TestRangeLossDB(t *testing.T) {
	if got := RangeLossDB(1000, 1); math.Abs(got-60) > 1e-9 {
		t.Fatalf("loss at 1000 km = %v dB, want 60", got)
	}
	if got := RangeLossDB(1, 1); got != 0 {
		t.Fatalf("loss at reference = %v dB, want 0", got)
	}
}

func TestApplyRangeLossScalesSamples(t *testing.T) {
	w := modem.Waveform{Samples: []float64{1, -1, 0.5}, SampleRateHz: 10000, CarrierFreqHz: 1000}
	out, factor := ApplyRangeLoss(w, 10, 1)
	if factor != 0.01 {
		t.Fatalf("factor = %v, want 0.01", factor)
	}
	for i, s := range out.Samples {
		if want := w.Samples[i] * 0.01; s != want {
			t.Fatalf("sample %d = %v, want %v", i, s, want)
		}
	}
	if w.Samples[0] != 1 {
		t.Fatalf("input mutated: %v", w.Samples)
	}
}
