package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/signalsfoundry/downlink-simulator/internal/logging"
)

// PassConfig describes a satellite pass: a sequence of transmissions whose
// geometry follows a parabolic elevation arc from horizon to horizon.
type PassConfig struct {
	Message string

	// Duration of the pass. Defaults to 10 minutes.
	Duration time.Duration

	// MaxElevationDeg is the elevation at the midpoint of the pass.
	// Defaults to 80 degrees.
	MaxElevationDeg float64

	// SNR sweeps linearly with elevation between these bounds.
	// Defaults: 5 dB at the horizon, 20 dB at peak.
	MinSNRdB float64
	MaxSNRdB float64

	// Transmissions spaced evenly across the pass. Defaults to 10.
	Transmissions int

	// Base carries per-transmission settings (carrier, sample rate, weather,
	// FEC, seed). Its geometry and SNR fields are overwritten per point.
	Base Config
}

func (c PassConfig) withDefaults() PassConfig {
	if c.Duration <= 0 {
		c.Duration = 10 * time.Minute
	}
	if c.MaxElevationDeg <= 0 {
		c.MaxElevationDeg = 80
	}
	if c.MinSNRdB == 0 && c.MaxSNRdB == 0 {
		c.MinSNRdB, c.MaxSNRdB = 5, 20
	}
	if c.Transmissions <= 0 {
		c.Transmissions = 10
	}
	if c.Base.Message == "" {
		c.Base.Message = c.Message
	}
	return c
}

// PassPoint is the geometry and outcome of one transmission within a pass.
type PassPoint struct {
	OffsetSec    float64
	ElevationDeg float64
	DistanceKm   float64
	SNRdB        float64
	BER          float64
	PacketValid  bool
}

// PassResult aggregates a whole pass.
type PassResult struct {
	Transmissions []*TransmissionResult
	Timeline      []PassPoint

	MeanBER          float64
	MeanSNRdB        float64
	PacketsTotal     int
	PacketsCorrupted int
}

// passElevation is the parabolic arc: zero at both ends, MaxElevationDeg at
// the midpoint. u is the normalized pass time in [0, 1].
func passElevation(maxElevDeg, u float64) float64 {
	return maxElevDeg * 4 * u * (1 - u)
}

// RunPass simulates every transmission in the pass sequentially. On context
// cancellation it stops scheduling further transmissions and returns the
// partial result alongside the context error; completed transmissions are
// unaffected.
func (s *Simulator) RunPass(ctx context.Context, cfg PassConfig) (*PassResult, error) {
	cfg = cfg.withDefaults()
	log := s.logger()

	log.Info(ctx, "satellite pass starting",
		logging.Float64("duration_sec", cfg.Duration.Seconds()),
		logging.Float64("max_elevation_deg", cfg.MaxElevationDeg),
		logging.Int("transmissions", cfg.Transmissions),
	)

	res := &PassResult{}
	totalSec := cfg.Duration.Seconds()

	for i := 0; i < cfg.Transmissions; i++ {
		if err := ctx.Err(); err != nil {
			s.finishPass(ctx, res, cfg)
			return res, err
		}

		var u float64
		if cfg.Transmissions > 1 {
			u = float64(i) / float64(cfg.Transmissions-1)
		}
		elev := passElevation(cfg.MaxElevationDeg, u)
		frac := elev / cfg.MaxElevationDeg
		snr := cfg.MinSNRdB + (cfg.MaxSNRdB-cfg.MinSNRdB)*frac
		dist := 2000 - 1000*frac

		txCfg := cfg.Base
		txCfg.SNRdB = snr
		txCfg.DistanceKm = dist
		txCfg.ElevationDeg = elev
		txCfg.NoPersist = true
		if cfg.Base.Seed != 0 {
			txCfg.Seed = cfg.Base.Seed + uint64(i)
		}

		r, err := s.Run(ctx, txCfg)
		if err != nil {
			return res, fmt.Errorf("pass transmission %d: %w", i, err)
		}

		res.Transmissions = append(res.Transmissions, r)
		res.Timeline = append(res.Timeline, PassPoint{
			OffsetSec:    u * totalSec,
			ElevationDeg: elev,
			DistanceKm:   dist,
			SNRdB:        snr,
			BER:          r.BER,
			PacketValid:  r.PacketValid,
		})
		res.PacketsTotal += r.PacketsTotal
		res.PacketsCorrupted += r.PacketsCorrupted
	}

	s.finishPass(ctx, res, cfg)
	log.Info(ctx, "satellite pass complete",
		logging.Int("packets_total", res.PacketsTotal),
		logging.Int("packets_corrupted", res.PacketsCorrupted),
		logging.Float64("mean_ber", res.MeanBER),
	)
	return res, nil
}

// finishPass computes aggregates over the completed transmissions and, when
// an archive is attached, persists one summary record for the whole pass.
func (s *Simulator) finishPass(ctx context.Context, res *PassResult, cfg PassConfig) {
	if len(res.Transmissions) > 0 {
		var berSum, snrSum float64
		for _, r := range res.Transmissions {
			berSum += r.BER
			snrSum += r.SNRAchievedDB
		}
		res.MeanBER = berSum / float64(len(res.Transmissions))
		res.MeanSNRdB = snrSum / float64(len(res.Transmissions))
	}

	if s.Archive == nil || len(res.Transmissions) == 0 {
		return
	}

	anomalies := []string{}
	for _, r := range res.Transmissions {
		anomalies = append(anomalies, r.AnomalyMessages()...)
	}
	if _, err := s.Archive.SaveMission(ctx, MissionRecord{
		Kind:             "satellite_pass",
		MessageSent:      cfg.Base.Message,
		BER:              res.MeanBER,
		SNRdB:            res.MeanSNRdB,
		PacketsTotal:     res.PacketsTotal,
		PacketsCorrupted: res.PacketsCorrupted,
		Anomalies:        anomalies,
		Metadata: map[string]any{
			"duration_sec":      cfg.Duration.Seconds(),
			"max_elevation_deg": cfg.MaxElevationDeg,
			"min_snr_db":        cfg.MinSNRdB,
			"max_snr_db":        cfg.MaxSNRdB,
			"transmissions":     len(res.Transmissions),
			"fec":               cfg.Base.UseFEC,
			"weather":           string(cfg.Base.Weather),
		},
	}); err != nil {
		s.logger().Warn(ctx, "pass archive write failed", logging.String("error", err.Error()))
	}
}
