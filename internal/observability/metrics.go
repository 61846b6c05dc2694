package observability

import (
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// DownlinkCollector bundles Prometheus metrics for the transmission pipeline
// and provides an HTTP handler to expose them.
type DownlinkCollector struct {
	gatherer prometheus.Gatherer

	Transmissions  *prometheus.CounterVec
	BitErrors      prometheus.Counter
	BER            prometheus.Histogram
	AchievedSNR    prometheus.Histogram
	CRCFailures    prometheus.Counter
	FECCorrections prometheus.Counter
	Anomalies      *prometheus.CounterVec
}

// NewDownlinkCollector registers downlink Prometheus metrics against the
// provided registerer, defaulting to the global Prometheus registry when nil.
// Re-registration reuses the existing collectors, so multiple simulators can
// share one registry.
func NewDownlinkCollector(reg prometheus.Registerer) (*DownlinkCollector, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	gatherer := prometheus.DefaultGatherer
	if g, ok := reg.(prometheus.Gatherer); ok {
		gatherer = g
	}

	transmissions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "downlink_transmissions_total",
		Help: "Total completed transmissions, labeled by packet outcome (valid or corrupted).",
	}, []string{"outcome"})
	transmissions, err := registerCounterVec(reg, transmissions, "downlink_transmissions_total")
	if err != nil {
		return nil, err
	}

	bitErrors, err := registerCounter(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Name: "downlink_bit_errors_total",
		Help: "Total raw channel bit errors across all transmissions.",
	}), "downlink_bit_errors_total")
	if err != nil {
		return nil, err
	}

	ber := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "downlink_ber",
		Help:    "Per-transmission bit error rate.",
		Buckets: []float64{0, 0.0001, 0.001, 0.01, 0.05, 0.1, 0.2, 0.5},
	})
	ber, err = registerHistogram(reg, ber, "downlink_ber")
	if err != nil {
		return nil, err
	}

	snr := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "downlink_achieved_snr_db",
		Help:    "Per-transmission achieved SNR in dB, measured against the injected noise.",
		Buckets: []float64{-5, 0, 5, 10, 15, 20, 30, 40, 60},
	})
	snr, err = registerHistogram(reg, snr, "downlink_achieved_snr_db")
	if err != nil {
		return nil, err
	}

	crcFailures, err := registerCounter(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Name: "downlink_crc_failures_total",
		Help: "Packets whose CRC or framing failed validation after demodulation.",
	}), "downlink_crc_failures_total")
	if err != nil {
		return nil, err
	}

	fecCorrections, err := registerCounter(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Name: "downlink_fec_corrections_total",
		Help: "Bit corrections applied by the Hamming(7,4) decoder.",
	}), "downlink_fec_corrections_total")
	if err != nil {
		return nil, err
	}

	anomalies := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "downlink_anomalies_total",
		Help: "Anomalies raised by the pipeline, labeled by kind.",
	}, []string{"kind"})
	anomalies, err = registerCounterVec(reg, anomalies, "downlink_anomalies_total")
	if err != nil {
		return nil, err
	}

	return &DownlinkCollector{
		gatherer:       gatherer,
		Transmissions:  transmissions,
		BitErrors:      bitErrors,
		BER:            ber,
		AchievedSNR:    snr,
		CRCFailures:    crcFailures,
		FECCorrections: fecCorrections,
		Anomalies:      anomalies,
	}, nil
}

// ObserveTransmission records the outcome of one pipeline run. Nil receivers
// are tolerated so the pipeline can run unmetered in tests.
func (c *DownlinkCollector) ObserveTransmission(packetValid bool, ber float64, bitErrors, fecCorrections int) {
	if c == nil {
		return
	}
	outcome := "valid"
	if !packetValid {
		outcome = "corrupted"
		c.CRCFailures.Inc()
	}
	c.Transmissions.WithLabelValues(outcome).Inc()
	c.BitErrors.Add(float64(bitErrors))
	c.BER.Observe(ber)
	c.FECCorrections.Add(float64(fecCorrections))
}

// ObserveSNR records the achieved SNR for one run.
func (c *DownlinkCollector) ObserveSNR(snrDB float64) {
	if c == nil {
		return
	}
	c.AchievedSNR.Observe(snrDB)
}

// RecordAnomaly counts an anomaly by kind.
func (c *DownlinkCollector) RecordAnomaly(kind string) {
	if c == nil {
		return
	}
	c.Anomalies.WithLabelValues(kind).Inc()
}

// Handler exposes the collector's gatherer for a /metrics endpoint.
func (c *DownlinkCollector) Handler() http.Handler {
	return promhttp.HandlerFor(c.gatherer, promhttp.HandlerOpts{})
}

func registerCounterVec(reg prometheus.Registerer, vec *prometheus.CounterVec, name string) (*prometheus.CounterVec, error) {
	if err := reg.Register(vec); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(*prometheus.CounterVec); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return vec, nil
}

func registerCounter(reg prometheus.Registerer, counter prometheus.Counter, name string) (prometheus.Counter, error) {
	if err := reg.Register(counter); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Counter); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return counter, nil
}

func registerHistogram(reg prometheus.Registerer, hist prometheus.Histogram, name string) (prometheus.Histogram, error) {
	if err := reg.Register(hist); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Histogram); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return hist, nil
}
