package channel

import (
	"fmt"

	"github.com/signalsfoundry/downlink-simulator/modem"
)

// FadeEvent is a time-bounded multiplicative attenuation, modeling a
// transient obstruction between satellite and ground.
//
// Attenuation is the surviving amplitude fraction: 1.0 means no fade, 0.0 a
// complete dropout.
type FadeEvent struct {
	StartSec    float64
	DurationSec float64
	Attenuation float64
}

// NewFadeEvent validates and constructs a fade.
func NewFadeEvent(startSec, durationSec, attenuation float64) (FadeEvent, error) {
	if startSec < 0 {
		return FadeEvent{}, fmt.Errorf("%w: fade start %v s must be >= 0", ErrInvalidParameter, startSec)
	}
	if durationSec <= 0 {
		return FadeEvent{}, fmt.Errorf("%w: fade duration %v s must be > 0", ErrInvalidParameter, durationSec)
	}
	if attenuation < 0 || attenuation > 1 {
		return FadeEvent{}, fmt.Errorf("%w: fade attenuation %v must be in [0, 1]", ErrInvalidParameter, attenuation)
	}
	return FadeEvent{StartSec: startSec, DurationSec: durationSec, Attenuation: attenuation}, nil
}

// EndSec returns the instant the fade stops affecting the signal.
func (f FadeEvent) EndSec() float64 { return f.StartSec + f.DurationSec }

// ActiveAt reports whether the fade covers time t. The interval is
// half-open: start <= t < start+duration.
func (f FadeEvent) ActiveAt(t float64) bool {
	return t >= f.StartSec && t < f.EndSec()
}

// ApplyFades multiplies every sample by the product of the attenuations of
// all fades active at that sample's time. Overlapping fades therefore
// compound (worst case), and samples outside any fade pass unchanged.
func ApplyFades(w modem.Waveform, fades []FadeEvent) modem.Waveform {
	if len(fades) == 0 || len(w.Samples) == 0 {
		return w.Clone()
	}
	out := w.Clone()
	for i := range out.Samples {
		t := out.TimeAt(i)
		for _, f := range fades {
			if f.ActiveAt(t) {
				out.Samples[i] *= f.Attenuation
			}
		}
	}
	return out
}

// FadeMask returns the per-sample surviving amplitude fraction, useful for
// plotting front ends that want the attenuation envelope without the signal.
func FadeMask(w modem.Waveform, fades []FadeEvent) []float64 {
	mask := make([]float64, len(w.Samples))
	for i := range mask {
		mask[i] = 1
		t := w.TimeAt(i)
		for _, f := range fades {
			if f.ActiveAt(t) {
				mask[i] *= f.Attenuation
			}
		}
	}
	return mask
}

// FadeImpact summarizes how much of a transmission window fading disturbs.
type FadeImpact struct {
	Fades            int
	TotalFadeTimeSec float64
	FadePercent      float64
	WorstAttenuation float64
	MeanAttenuation  float64
}

// EstimateFadeImpact computes summary statistics for a fade set over a total
// window. Fade intervals are summed without de-overlapping, matching the
// per-event bookkeeping the mission archive stores.
func EstimateFadeImpact(fades []FadeEvent, totalDurationSec float64) FadeImpact {
	impact := FadeImpact{Fades: len(fades), WorstAttenuation: 1, MeanAttenuation: 1}
	if totalDurationSec <= 0 || len(fades) == 0 {
		return impact
	}
	sum := 0.0
	for _, f := range fades {
		impact.TotalFadeTimeSec += f.DurationSec
		if f.Attenuation < impact.WorstAttenuation {
			impact.WorstAttenuation = f.Attenuation
		}
		sum += f.Attenuation
	}
	impact.FadePercent = impact.TotalFadeTimeSec / totalDurationSec * 100
	impact.MeanAttenuation = sum / float64(len(fades))
	return impact
}
