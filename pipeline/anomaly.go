package pipeline

import "time"

// Anomaly kinds, used as metric labels and archive metadata.
const (
	AnomalyCRCFailure = "crc_failure"
	AnomalyHighBER    = "high_ber"
	AnomalyLowSNR     = "low_snr"
)

// Anomaly is a non-fatal issue observed during a transmission.
type Anomaly struct {
	Kind    string
	Message string
	At      time.Time
}

// anomalyRecorder accumulates anomalies for a single run. It is a plain
// value owned by the run, not a singleton: concurrent pipeline invocations
// never share one.
type anomalyRecorder struct {
	anomalies []Anomaly
}

func (r *anomalyRecorder) add(kind, message string) {
	r.anomalies = append(r.anomalies, Anomaly{Kind: kind, Message: message, At: time.Now()})
}

func (r *anomalyRecorder) all() []Anomaly {
	return r.anomalies
}
