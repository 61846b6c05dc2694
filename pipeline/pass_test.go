package pipeline

import (
	"context"
	"math"
	"testing"
	"time"
)

func testPassConfig() PassConfig {
	base := cleanConfig("pass msg")
	return PassConfig{
		Message:         "pass msg",
		Duration:        10 * time.Minute,
		MaxElevationDeg: 80,
		MinSNRdB:        10,
		MaxSNRdB:        20,
		Transmissions:   5,
		Base:            base,
	}
}

func TestRunPassGeometry(t *testing.T) {
	sim := New(nil, nil, nil)
	res, err := sim.RunPass(context.Background(), testPassConfig())
	if err != nil {
		t.Fatalf("RunPass error: %v", err)
	}
	if len(res.Transmissions) != 5 || len(res.Timeline) != 5 {
		t.Fatalf("got %d transmissions, %d timeline points", len(res.Transmissions), len(res.Timeline))
	}

	// Parabolic arc: zero elevation at both ends, peak at the midpoint.
	first, mid, last := res.Timeline[0], res.Timeline[2], res.Timeline[4]
	if first.ElevationDeg != 0 || last.ElevationDeg != 0 {
		t.Fatalf("endpoint elevations: %v, %v, want 0", first.ElevationDeg, last.ElevationDeg)
	}
	if math.Abs(mid.ElevationDeg-80) > 1e-9 {
		t.Fatalf("peak elevation = %v, want 80", mid.ElevationDeg)
	}

	// SNR and distance track elevation linearly.
	if first.SNRdB != 10 || math.Abs(mid.SNRdB-20) > 1e-9 {
		t.Fatalf("SNR: horizon %v, peak %v, want 10 and 20", first.SNRdB, mid.SNRdB)
	}
	if first.DistanceKm != 2000 || math.Abs(mid.DistanceKm-1000) > 1e-9 {
		t.Fatalf("distance: horizon %v, peak %v, want 2000 and 1000", first.DistanceKm, mid.DistanceKm)
	}
	if last.OffsetSec != 600 {
		t.Fatalf("last offset = %v s, want 600", last.OffsetSec)
	}

	if res.PacketsTotal != 5 {
		t.Fatalf("PacketsTotal = %d, want 5", res.PacketsTotal)
	}
	if res.MeanBER < 0 || res.MeanSNRdB == 0 {
		t.Fatalf("aggregates: meanBER=%v meanSNR=%v", res.MeanBER, res.MeanSNRdB)
	}
}

func TestRunPassSingleTransmission(t *testing.T) {
	cfg := testPassConfig()
	cfg.Transmissions = 1

	sim := New(nil, nil, nil)
	res, err := sim.RunPass(context.Background(), cfg)
	if err != nil {
		t.Fatalf("RunPass error: %v", err)
	}
	if len(res.Timeline) != 1 {
		t.Fatalf("timeline length %d", len(res.Timeline))
	}
	// With one sample the normalized time is 0: horizon geometry.
	if res.Timeline[0].ElevationDeg != 0 || res.Timeline[0].SNRdB != 10 {
		t.Fatalf("point: %+v", res.Timeline[0])
	}
}

func TestRunPassPersistsOneSummary(t *testing.T) {
	sink := &recordingSink{}
	sim := New(nil, nil, sink)

	if _, err := sim.RunPass(context.Background(), testPassConfig()); err != nil {
		t.Fatalf("RunPass error: %v", err)
	}
	if len(sink.records) != 1 {
		t.Fatalf("sink saw %d records, want exactly the pass summary", len(sink.records))
	}
	if sink.records[0].Kind != "satellite_pass" {
		t.Fatalf("record kind %q", sink.records[0].Kind)
	}
	if sink.records[0].PacketsTotal != 5 {
		t.Fatalf("summary PacketsTotal = %d", sink.records[0].PacketsTotal)
	}
}

func TestRunPassCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	sim := New(nil, nil, nil)
	res, err := sim.RunPass(ctx, testPassConfig())
	if err != context.Canceled {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
	if len(res.Transmissions) != 0 {
		t.Fatalf("cancelled pass still ran %d transmissions", len(res.Transmissions))
	}
}

func TestPassElevationSymmetry(t *testing.T) {
	for _, u := range []float64{0.1, 0.25, 0.4} {
		a := passElevation(80, u)
		b := passElevation(80, 1-u)
		if math.Abs(a-b) > 1e-9 {
			t.Fatalf("elev(%v)=%v, elev(%v)=%v: arc not symmetric", u, a, 1-u, b)
		}
	}
	if passElevation(80, 0.5) != 80 {
		t.Fatalf("peak = %v, want 80", passElevation(80, 0.5))
	}
}
