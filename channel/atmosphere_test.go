package channel

import (
	"math"
	"testing"
)

func TestAtmosphericLossZenith(t *testing.T) {
	cases := []struct {
		weather Weather
		want    float64
	}{
		{WeatherClear, 0.5},
		{WeatherCloudy, 1.5},
		{WeatherRain, 4.0},
		{Weather("hail"), 0.5}, // unknown falls back to clear
	}
	for _, c := range cases {
		if got := AtmosphericLossDB(c.weather, 90); math.Abs(got-c.want) > 1e-9 {
			t.Errorf("loss(%s, 90°) = %v dB, want %v", c.weather, got, c.want)
		}
	}
}

func TestAtmosphericLossElevationClamp(t *testing.T) {
	atFive := AtmosphericLossDB(WeatherClear, 5)
	if got := AtmosphericLossDB(WeatherClear, 1); got != atFive {
		t.Fatalf("loss at 1° = %v, want clamp to 5° value %v", got, atFive)
	}
	if got := AtmosphericLossDB(WeatherClear, -30); got != atFive {
		t.Fatalf("loss at -30° = %v, want clamp to 5° value %v", got, atFive)
	}
	atNinety := AtmosphericLossDB(WeatherClear, 90)
	if got := AtmosphericLossDB(WeatherClear, 120); got != atNinety {
		t.Fatalf("loss at 120° = %v, want clamp to 90° value %v", got, atNinety)
	}
}

func TestAtmosphericLossGrowsTowardHorizon(t *testing.T) {
	// 1/sin(elev) grows monotonically as elevation drops.
	prev := 0.0
	for _, elev := range []float64{90, 60, 30, 10, 5} {
		loss := AtmosphericLossDB(WeatherRain, elev)
		if loss <= prev {
			t.Fatalf("loss at %v° = %v dB, not above %v", elev, loss, prev)
		}
		prev = loss
	}
}

func TestAtmosphericLossLowElevationBound(t *testing.T) {
	// At the 5° clamp the cosecant factor is ~11.47; rain loss stays under 50 dB.
	loss := AtmosphericLossDB(WeatherRain, 0)
	if loss < 40 || loss > 50 {
		t.Fatalf("rain loss at clamp = %v dB, want within (40, 50)", loss)
	}
}
