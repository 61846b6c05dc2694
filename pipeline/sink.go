package pipeline

import "context"

// MissionRecord is what the pipeline hands to persistence after a run. It is
// deliberately flat so sinks other than SQLite (CSV export, tests) stay
// trivial to implement.
type MissionRecord struct {
	Kind             string // "transmission", "satellite_pass", "live_downlink"
	MessageSent      string
	MessageReceived  string
	BER              float64
	SNRdB            float64
	PacketsTotal     int
	PacketsCorrupted int
	Anomalies        []string
	Metadata         map[string]any
}

// MissionSink persists mission records. SaveMission returns the stored
// mission's identifier.
type MissionSink interface {
	SaveMission(ctx context.Context, rec MissionRecord) (string, error)
}
