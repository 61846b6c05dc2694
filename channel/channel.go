// Package channel degrades a modulated waveform the way the downlink path
// does: free-space range loss, weather-dependent atmospheric loss, transient
// fades, and additive white Gaussian noise, always in that order.
//
// The model assumes perfect symbol synchronization and a known carrier at
// the receiver; it impairs amplitude only.
package channel

import (
	"errors"

	"golang.org/x/exp/rand"

	"github.com/signalsfoundry/downlink-simulator/modem"
)

// ErrInvalidParameter reports channel configuration the model cannot accept,
// such as a fade with non-positive duration.
var ErrInvalidParameter = errors.New("channel: invalid parameter")

// Config is the immutable per-call channel configuration.
type Config struct {
	DistanceKm          float64
	ReferenceDistanceKm float64 // defaults to 1 km when zero
	SNRdB               float64
	ElevationDeg        float64
	Weather             Weather
}

// Propagation captures everything a single pass through the channel did to a
// waveform. Clean is the attenuated signal before noise; measuring it against
// Noise gives the SNR the receiver actually saw.
type Propagation struct {
	Received          modem.Waveform
	Clean             modem.Waveform
	Noise             []float64
	RangeAttenuation  float64
	RangeLossDB       float64
	AtmosphericLossDB float64
}

// Channel applies the four impairment stages with a fixed fade schedule.
type Channel struct {
	Config Config
	Fades  []FadeEvent
}

// New validates the fade schedule and constructs a channel.
func New(cfg Config, fades []FadeEvent) (*Channel, error) {
	for _, f := range fades {
		if _, err := NewFadeEvent(f.StartSec, f.DurationSec, f.Attenuation); err != nil {
			return nil, err
		}
	}
	return &Channel{Config: cfg, Fades: fades}, nil
}

// Propagate runs range loss, atmospheric loss, fading, and AWGN over the
// waveform. A zero-length waveform passes through every stage untouched.
func (c *Channel) Propagate(w modem.Waveform, src rand.Source) Propagation {
	ranged, attenuation := ApplyRangeLoss(w, c.Config.DistanceKm, c.Config.ReferenceDistanceKm)
	atmos, atmosLossDB := ApplyAtmosphericLoss(ranged, c.Config.Weather, c.Config.ElevationDeg)
	faded := ApplyFades(atmos, c.Fades)
	received, noise := AddAWGN(faded, c.Config.SNRdB, src)

	return Propagation{
		Received:          received,
		Clean:             faded,
		Noise:             noise,
		RangeAttenuation:  attenuation,
		RangeLossDB:       RangeLossDB(c.Config.DistanceKm, c.Config.ReferenceDistanceKm),
		AtmosphericLossDB: atmosLossDB,
	}
}
