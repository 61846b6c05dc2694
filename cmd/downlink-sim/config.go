package main

import (
	"fmt"
	"io"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/signalsfoundry/downlink-simulator/channel"
	"github.com/signalsfoundry/downlink-simulator/pipeline"
)

// Scenario is the YAML shape of a saved run configuration. Flags override
// whatever the file sets. SNR and elevation are pointers because zero is a
// legitimate value for both (0 dB links, horizon passes) and must be
// distinguishable from the field being absent.
type Scenario struct {
	Message       string   `yaml:"message"`
	DistanceKm    float64  `yaml:"distance_km"`
	SNRdB         *float64 `yaml:"snr_db"`
	CarrierFreqHz float64  `yaml:"carrier_freq_hz"`
	SampleRateHz  float64  `yaml:"sample_rate_hz"`
	ElevationDeg  *float64 `yaml:"elevation_deg"`
	Weather       string   `yaml:"weather"`
	FEC           bool     `yaml:"fec"`
	Seed          uint64   `yaml:"seed"`

	Fades []FadeSpec `yaml:"fades"`

	Pass *PassSpec `yaml:"pass"`
	Live *LiveSpec `yaml:"live"`
}

// FadeSpec is one transient fade in the schedule.
type FadeSpec struct {
	StartSec    float64 `yaml:"start_sec"`
	DurationSec float64 `yaml:"duration_sec"`
	Attenuation float64 `yaml:"attenuation"`
}

// PassSpec configures satellite pass mode.
type PassSpec struct {
	DurationSec     float64 `yaml:"duration_sec"`
	MaxElevationDeg float64 `yaml:"max_elevation_deg"`
	MinSNRdB        float64 `yaml:"min_snr_db"`
	MaxSNRdB        float64 `yaml:"max_snr_db"`
	Transmissions   int     `yaml:"transmissions"`
}

// LiveSpec configures live downlink mode.
type LiveSpec struct {
	Messages    []string `yaml:"messages"`
	IntervalSec float64  `yaml:"interval_sec"`
	Virtual     bool     `yaml:"virtual_clock"`
}

// LoadScenario parses a YAML scenario from r.
func LoadScenario(r io.Reader) (*Scenario, error) {
	var sc Scenario
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&sc); err != nil {
		return nil, fmt.Errorf("parse scenario: %w", err)
	}
	return &sc, nil
}

// LoadScenarioFile opens and parses a YAML scenario file.
func LoadScenarioFile(path string) (*Scenario, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open scenario %q: %w", path, err)
	}
	defer f.Close()
	return LoadScenario(f)
}

// TransmissionConfig maps the scenario onto a pipeline config. Unset fields
// fall through to the pipeline's own defaults; an explicit snr_db or
// elevation_deg survives even at zero.
func (sc *Scenario) TransmissionConfig() pipeline.Config {
	cfg := pipeline.DefaultConfig(sc.Message)
	if sc.DistanceKm > 0 {
		cfg.DistanceKm = sc.DistanceKm
	}
	if sc.SNRdB != nil {
		cfg.SNRdB = *sc.SNRdB
	}
	if sc.CarrierFreqHz > 0 {
		cfg.CarrierFreqHz = sc.CarrierFreqHz
	}
	if sc.SampleRateHz > 0 {
		cfg.SampleRateHz = sc.SampleRateHz
	}
	if sc.ElevationDeg != nil {
		cfg.ElevationDeg = *sc.ElevationDeg
	}
	if sc.Weather != "" {
		cfg.Weather = channel.Weather(sc.Weather)
	}
	cfg.UseFEC = sc.FEC
	cfg.Seed = sc.Seed

	for _, f := range sc.Fades {
		cfg.Fades = append(cfg.Fades, channel.FadeEvent{
			StartSec:    f.StartSec,
			DurationSec: f.DurationSec,
			Attenuation: f.Attenuation,
		})
	}
	return cfg
}

// PassConfig maps the scenario's pass section, if any, onto the pipeline.
func (sc *Scenario) PassConfig() pipeline.PassConfig {
	pc := pipeline.PassConfig{
		Message: sc.Message,
		Base:    sc.TransmissionConfig(),
	}
	if sc.Pass == nil {
		return pc
	}
	if sc.Pass.DurationSec > 0 {
		pc.Duration = time.Duration(sc.Pass.DurationSec * float64(time.Second))
	}
	pc.MaxElevationDeg = sc.Pass.MaxElevationDeg
	pc.MinSNRdB = sc.Pass.MinSNRdB
	pc.MaxSNRdB = sc.Pass.MaxSNRdB
	pc.Transmissions = sc.Pass.Transmissions
	return pc
}

// DownlinkConfig maps the scenario's live section onto the pipeline.
func (sc *Scenario) DownlinkConfig() pipeline.DownlinkConfig {
	dc := pipeline.DownlinkConfig{
		Base: sc.TransmissionConfig(),
	}
	if sc.Live == nil {
		return dc
	}
	dc.Messages = sc.Live.Messages
	if sc.Live.IntervalSec > 0 {
		dc.Interval = time.Duration(sc.Live.IntervalSec * float64(time.Second))
	}
	return dc
}
