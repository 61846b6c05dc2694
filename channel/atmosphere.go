package channel

import (
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/signalsfoundry/downlink-simulator/modem"
)

// Weather selects the atmospheric base loss.
type Weather string

const (
	WeatherClear  Weather = "clear"
	WeatherCloudy Weather = "cloudy"
	WeatherRain   Weather = "rain"
)

// Elevation clamp bounds. Below 5 degrees the cosecant path-length model
// blows up; the geometry layer never produces usable links there anyway.
const (
	minElevationDeg = 5.0
	maxElevationDeg = 90.0
)

// baseLossDB returns the zenith loss for a weather condition. Unknown values
// fall back to clear sky.
func baseLossDB(w Weather) float64 {
	switch w {
	case WeatherCloudy:
		return 1.5
	case WeatherRain:
		return 4.0
	default:
		return 0.5
	}
}

// AtmosphericLossDB returns the slant-path atmospheric loss in dB: the
// weather base loss multiplied by the cosecant path-length factor
// 1/sin(elevation), with elevation clamped to [5, 90] degrees.
func AtmosphericLossDB(w Weather, elevationDeg float64) float64 {
	elev := elevationDeg
	if elev < minElevationDeg {
		elev = minElevationDeg
	} else if elev > maxElevationDeg {
		elev = maxElevationDeg
	}
	pathFactor := 1 / math.Sin(elev*math.Pi/180)
	return baseLossDB(w) * pathFactor
}

// ApplyAtmosphericLoss attenuates the waveform amplitude by
// 10^(-loss/20) and returns the attenuated copy along with the loss in dB.
func ApplyAtmosphericLoss(wf modem.Waveform, w Weather, elevationDeg float64) (modem.Waveform, float64) {
	lossDB := AtmosphericLossDB(w, elevationDeg)
	out := wf.Clone()
	if len(out.Samples) > 0 {
		floats.Scale(math.Pow(10, -lossDB/20), out.Samples)
	}
	return out, lossDB
}
