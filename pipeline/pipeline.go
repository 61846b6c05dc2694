// Package pipeline chains the downlink stages end to end: frame, encode,
// modulate, impair, demodulate, decode, validate. It owns anomaly detection
// and hands finished runs to metrics and the mission archive.
package pipeline

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/exp/rand"

	"github.com/signalsfoundry/downlink-simulator/channel"
	"github.com/signalsfoundry/downlink-simulator/fec"
	"github.com/signalsfoundry/downlink-simulator/internal/logging"
	"github.com/signalsfoundry/downlink-simulator/internal/observability"
	"github.com/signalsfoundry/downlink-simulator/modem"
	"github.com/signalsfoundry/downlink-simulator/packet"
)

const tracerName = "github.com/signalsfoundry/downlink-simulator/pipeline"

// Anomaly thresholds. A run is flagged, never failed, when it crosses these.
const (
	highBERThreshold  = 0.1
	lowSNRThresholdDB = 5.0
)

// unrecoverableText stands in for the received message when the frame is too
// damaged to parse at all.
const unrecoverableText = "[UNRECOVERABLE]"

// Config describes one transmission. The zero value is not runnable; use
// DefaultConfig or fill in at least Message.
type Config struct {
	Message string

	DistanceKm    float64
	SNRdB         float64
	CarrierFreqHz float64
	SampleRateHz  float64
	ElevationDeg  float64
	Weather       channel.Weather

	UseFEC bool
	Fades  []channel.FadeEvent

	// PacketID < 0 derives the ID from the wall clock (millis mod 65536).
	PacketID int

	// Seed of 0 draws a seed from the wall clock, making each run distinct.
	Seed uint64

	// NoPersist suppresses the archive write for this run. Aggregate modes
	// (satellite pass, live downlink) set it on their inner transmissions and
	// persist a single summary instead.
	NoPersist bool
}

// DefaultConfig returns the baseline scenario: a short message over a 1000 km
// clear-sky link at 15 dB SNR.
func DefaultConfig(message string) Config {
	return Config{
		Message:       message,
		DistanceKm:    1000,
		SNRdB:         15,
		CarrierFreqHz: 1000,
		SampleRateHz:  10000,
		ElevationDeg:  90,
		Weather:       channel.WeatherClear,
		PacketID:      -1,
	}
}

func (c Config) withDefaults() Config {
	if c.DistanceKm <= 0 {
		c.DistanceKm = 1000
	}
	if c.CarrierFreqHz <= 0 {
		c.CarrierFreqHz = 1000
	}
	if c.SampleRateHz <= 0 {
		c.SampleRateHz = 10000
	}
	if c.Weather == "" {
		c.Weather = channel.WeatherClear
	}
	return c
}

// Simulator runs transmissions. All dependencies are optional: a zero
// Simulator runs silently, unmetered, and unarchived.
type Simulator struct {
	Log     logging.Logger
	Metrics *observability.DownlinkCollector
	Archive MissionSink
}

// New constructs a Simulator. Any argument may be nil.
func New(log logging.Logger, metrics *observability.DownlinkCollector, archive MissionSink) *Simulator {
	if log == nil {
		log = logging.Noop()
	}
	return &Simulator{Log: log, Metrics: metrics, Archive: archive}
}

func (s *Simulator) logger() logging.Logger {
	if s.Log == nil {
		return logging.Noop()
	}
	return s.Log
}

// Run executes one complete transmission and returns its accounting. Only
// invalid configuration fails the run; channel damage, CRC failures, and
// unparseable frames come back as anomalies on a successful result.
func (s *Simulator) Run(ctx context.Context, cfg Config) (*TransmissionResult, error) {
	cfg = cfg.withDefaults()
	ctx, log := logging.WithMissionLogger(ctx, s.logger())

	tracer := otel.Tracer(tracerName)
	ctx, span := tracer.Start(ctx, "downlink.transmit", trace.WithAttributes(
		attribute.Float64("downlink.distance_km", cfg.DistanceKm),
		attribute.Float64("downlink.snr_db", cfg.SNRdB),
		attribute.Bool("downlink.fec", cfg.UseFEC),
		attribute.String("downlink.weather", string(cfg.Weather)),
	))
	defer span.End()

	start := time.Now()
	anomalies := &anomalyRecorder{}

	seed := cfg.Seed
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	src := rand.NewSource(seed)

	packetID := cfg.PacketID
	if packetID < 0 {
		packetID = int(time.Now().UnixMilli() % 65536)
	}

	// Transmit side: frame, optionally encode, modulate.
	frame, err := packet.Create([]byte(cfg.Message), packetID)
	if err != nil {
		return nil, fmt.Errorf("frame payload: %w", err)
	}

	txBits := modem.BytesToBits(frame)
	if cfg.UseFEC {
		txBits = fec.EncodeBytes(frame)
	}

	_, modSpan := tracer.Start(ctx, "downlink.modulate")
	symbols := modem.BitsToSymbols(txBits)
	wave, err := modem.Modulate(symbols, cfg.CarrierFreqHz, cfg.SampleRateHz)
	modSpan.End()
	if err != nil {
		return nil, fmt.Errorf("modulate: %w", err)
	}

	// Channel.
	ch, err := channel.New(channel.Config{
		DistanceKm:   cfg.DistanceKm,
		SNRdB:        cfg.SNRdB,
		ElevationDeg: cfg.ElevationDeg,
		Weather:      cfg.Weather,
	}, cfg.Fades)
	if err != nil {
		return nil, fmt.Errorf("configure channel: %w", err)
	}

	_, chSpan := tracer.Start(ctx, "downlink.propagate")
	prop := ch.Propagate(wave, src)
	chSpan.End()

	// Receive side: demodulate, optionally decode, reassemble.
	_, demodSpan := tracer.Start(ctx, "downlink.demodulate")
	rxSymbols, err := modem.Demodulate(prop.Received, len(symbols))
	demodSpan.End()
	if err != nil {
		return nil, fmt.Errorf("demodulate: %w", err)
	}
	rxBits := modem.SymbolsToBits(rxSymbols)

	var rxFrame []byte
	corrections := 0
	if cfg.UseFEC {
		rxFrame, corrections = fec.DecodeBytes(rxBits)
	} else {
		rxFrame = modem.BitsToBytes(rxBits)
	}

	// Validation and anomaly detection.
	valid := packet.Validate(rxFrame)
	received := unrecoverableText
	if p, perr := packet.Parse(rxFrame); perr == nil {
		received = strings.ToValidUTF8(string(p.Payload), "�")
	}
	if !valid {
		anomalies.add(AnomalyCRCFailure, "CRC validation failed")
	}

	bitErrors := modem.CountBitErrors(txBits, rxBits)
	ber := modem.BitErrorRate(txBits, rxBits)
	if ber > highBERThreshold {
		anomalies.add(AnomalyHighBER, fmt.Sprintf("High BER: %.3f", ber))
	}

	achievedSNR := channel.MeasureSNRdB(prop.Clean.Samples, prop.Noise)
	if achievedSNR < lowSNRThresholdDB {
		anomalies.add(AnomalyLowSNR, fmt.Sprintf("Low SNR: %.1f dB", achievedSNR))
	}

	result := &TransmissionResult{
		MissionID:         logging.MissionIDFromContext(ctx),
		MessageSent:       cfg.Message,
		MessageReceived:   received,
		PerfectMatch:      received == cfg.Message,
		TransmittedBits:   txBits,
		ReceivedBits:      rxBits,
		BitErrors:         bitErrors,
		BER:               ber,
		SNRTargetDB:       cfg.SNRdB,
		SNRAchievedDB:     achievedSNR,
		RangeLossDB:       prop.RangeLossDB,
		AtmosphericLossDB: prop.AtmosphericLossDB,
		PacketValid:       valid,
		PacketsTotal:      1,
		FECEnabled:        cfg.UseFEC,
		FECCorrections:    corrections,
		Anomalies:         anomalies.all(),
		Elapsed:           time.Since(start),
	}
	if !valid {
		result.PacketsCorrupted = 1
	}

	s.Metrics.ObserveTransmission(valid, ber, bitErrors, corrections)
	s.Metrics.ObserveSNR(achievedSNR)
	for _, a := range result.Anomalies {
		s.Metrics.RecordAnomaly(a.Kind)
	}

	span.SetAttributes(
		attribute.Float64("downlink.ber", ber),
		attribute.Bool("downlink.packet_valid", valid),
		attribute.Int("downlink.fec_corrections", corrections),
	)

	log.Info(ctx, "transmission complete",
		logging.Float64("ber", ber),
		logging.Float64("snr_achieved_db", achievedSNR),
		logging.Bool("packet_valid", valid),
		logging.Int("bit_errors", bitErrors),
		logging.Int("fec_corrections", corrections),
		logging.Int("anomalies", len(result.Anomalies)),
	)

	if s.Archive != nil && !cfg.NoPersist {
		if err := s.persist(ctx, log, result, cfg); err != nil {
			// Persistence is best effort: the run succeeded either way.
			log.Warn(ctx, "archive write failed", logging.String("error", err.Error()))
		}
	}
	return result, nil
}

func (s *Simulator) persist(ctx context.Context, log logging.Logger, r *TransmissionResult, cfg Config) error {
	id, err := s.Archive.SaveMission(ctx, MissionRecord{
		Kind:             "transmission",
		MessageSent:      r.MessageSent,
		MessageReceived:  r.MessageReceived,
		BER:              r.BER,
		SNRdB:            r.SNRAchievedDB,
		PacketsTotal:     r.PacketsTotal,
		PacketsCorrupted: r.PacketsCorrupted,
		Anomalies:        r.AnomalyMessages(),
		Metadata: map[string]any{
			"distance_km":     cfg.DistanceKm,
			"snr_target_db":   cfg.SNRdB,
			"carrier_freq_hz": cfg.CarrierFreqHz,
			"sample_rate_hz":  cfg.SampleRateHz,
			"elevation_deg":   cfg.ElevationDeg,
			"weather":         string(cfg.Weather),
			"fec":             cfg.UseFEC,
			"fec_corrections": r.FECCorrections,
		},
	})
	if err != nil {
		return err
	}
	r.MissionID = id
	log.Info(ctx, "mission archived", logging.String("archive_id", id))
	return nil
}
