package pipeline

import (
	"time"

	"github.com/signalsfoundry/downlink-simulator/modem"
)

// TransmissionResult is the full accounting of one end-to-end run. Every
// field is computed fresh per run; results from concurrent runs never alias.
type TransmissionResult struct {
	MissionID string

	MessageSent     string
	MessageReceived string
	PerfectMatch    bool

	TransmittedBits modem.Bits
	ReceivedBits    modem.Bits
	BitErrors       int
	BER             float64

	SNRTargetDB   float64
	SNRAchievedDB float64

	RangeLossDB       float64
	AtmosphericLossDB float64

	PacketValid      bool
	PacketsTotal     int
	PacketsCorrupted int

	FECEnabled     bool
	FECCorrections int

	Anomalies []Anomaly
	Elapsed   time.Duration
}

// AnomalyMessages flattens the anomaly list to its messages, the shape the
// archive stores.
func (r *TransmissionResult) AnomalyMessages() []string {
	msgs := make([]string, 0, len(r.Anomalies))
	for _, a := range r.Anomalies {
		msgs = append(msgs, a.Message)
	}
	return msgs
}
