package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/signalsfoundry/downlink-simulator/internal/logging"
	"github.com/signalsfoundry/downlink-simulator/timectrl"
)

// DownlinkConfig describes a live downlink session: a list of messages
// transmitted at a fixed cadence against one channel configuration.
type DownlinkConfig struct {
	Messages []string

	// Interval between transmissions. Defaults to 2 seconds.
	Interval time.Duration

	// Base carries the channel settings shared by every message.
	Base Config

	// OnResult, when set, is invoked after each transmission completes.
	OnResult func(*TransmissionResult)
}

// DownlinkSummary aggregates a live session.
type DownlinkSummary struct {
	Results          []*TransmissionResult
	MeanBER          float64
	PacketsTotal     int
	PacketsCorrupted int
	Elapsed          time.Duration
}

// RunLive transmits the configured messages one by one, pacing with the
// provided clock between them. Cancellation between transmissions returns the
// partial summary and the context error. A VirtualClock makes the session run
// instantly, which is how tests and batch replays drive it.
func (s *Simulator) RunLive(ctx context.Context, clock timectrl.SimClock, cfg DownlinkConfig) (*DownlinkSummary, error) {
	if clock == nil {
		clock = timectrl.RealClock{}
	}
	if cfg.Interval <= 0 {
		cfg.Interval = 2 * time.Second
	}
	log := s.logger()
	start := clock.Now()
	sum := &DownlinkSummary{}

	log.Info(ctx, "live downlink starting",
		logging.Int("messages", len(cfg.Messages)),
		logging.Float64("interval_sec", cfg.Interval.Seconds()),
	)

	for i, msg := range cfg.Messages {
		txCfg := cfg.Base
		txCfg.Message = msg
		txCfg.NoPersist = true
		if cfg.Base.Seed != 0 {
			txCfg.Seed = cfg.Base.Seed + uint64(i)
		}

		r, err := s.Run(ctx, txCfg)
		if err != nil {
			s.finishLive(ctx, sum, cfg, clock.Now().Sub(start))
			return sum, fmt.Errorf("downlink transmission %d: %w", i, err)
		}
		sum.Results = append(sum.Results, r)
		sum.PacketsTotal += r.PacketsTotal
		sum.PacketsCorrupted += r.PacketsCorrupted
		if cfg.OnResult != nil {
			cfg.OnResult(r)
		}

		if i < len(cfg.Messages)-1 {
			if err := clock.Sleep(ctx, cfg.Interval); err != nil {
				s.finishLive(ctx, sum, cfg, clock.Now().Sub(start))
				return sum, err
			}
		}
	}

	s.finishLive(ctx, sum, cfg, clock.Now().Sub(start))
	log.Info(ctx, "live downlink complete",
		logging.Int("packets_total", sum.PacketsTotal),
		logging.Int("packets_corrupted", sum.PacketsCorrupted),
		logging.Float64("mean_ber", sum.MeanBER),
	)
	return sum, nil
}

func (s *Simulator) finishLive(ctx context.Context, sum *DownlinkSummary, cfg DownlinkConfig, elapsed time.Duration) {
	sum.Elapsed = elapsed
	if len(sum.Results) > 0 {
		var berSum float64
		for _, r := range sum.Results {
			berSum += r.BER
		}
		sum.MeanBER = berSum / float64(len(sum.Results))
	}

	if s.Archive == nil || len(sum.Results) == 0 {
		return
	}

	anomalies := []string{}
	for _, r := range sum.Results {
		anomalies = append(anomalies, r.AnomalyMessages()...)
	}
	if _, err := s.Archive.SaveMission(ctx, MissionRecord{
		Kind:             "live_downlink",
		MessageSent:      fmt.Sprintf("%d messages", len(sum.Results)),
		BER:              sum.MeanBER,
		SNRdB:            cfg.Base.SNRdB,
		PacketsTotal:     sum.PacketsTotal,
		PacketsCorrupted: sum.PacketsCorrupted,
		Anomalies:        anomalies,
		Metadata: map[string]any{
			"interval_sec": cfg.Interval.Seconds(),
			"elapsed_sec":  elapsed.Seconds(),
			"fec":          cfg.Base.UseFEC,
			"weather":      string(cfg.Base.Weather),
		},
	}); err != nil {
		s.logger().Warn(ctx, "downlink archive write failed", logging.String("error", err.Error()))
	}
}
