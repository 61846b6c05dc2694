// Command downlink-sim runs the satellite downlink pipeline from the command
// line: single transmissions, full satellite passes, or paced live sessions,
// with optional SQLite archiving and a Prometheus /metrics endpoint.
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/signalsfoundry/downlink-simulator/archive"
	"github.com/signalsfoundry/downlink-simulator/internal/logging"
	"github.com/signalsfoundry/downlink-simulator/internal/observability"
	"github.com/signalsfoundry/downlink-simulator/pipeline"
	"github.com/signalsfoundry/downlink-simulator/timectrl"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "downlink-sim: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var (
		configPath = flag.String("config", "", "YAML scenario file (flags override its values)")

		message   = flag.String("message", "Hello from orbit!", "message to transmit")
		distance  = flag.Float64("distance", 1000, "slant range in km")
		snr       = flag.Float64("snr", 15, "target SNR in dB")
		carrier   = flag.Float64("carrier", 1000, "carrier frequency in Hz")
		rate      = flag.Float64("sample-rate", 10000, "sample rate in Hz")
		elevation = flag.Float64("elevation", 90, "elevation angle in degrees")
		weather   = flag.String("weather", "clear", "weather: clear, cloudy, or rain")
		useFEC    = flag.Bool("fec", false, "enable Hamming(7,4) forward error correction")
		seed      = flag.Uint64("seed", 0, "noise seed (0 = from wall clock)")

		passMode      = flag.Bool("pass", false, "simulate a full satellite pass")
		passDuration  = flag.Duration("pass-duration", 10*time.Minute, "pass duration")
		maxElevation  = flag.Float64("max-elevation", 80, "peak elevation of the pass in degrees")
		transmissions = flag.Int("transmissions", 10, "transmissions per pass")

		liveMode = flag.Bool("live", false, "run a paced live downlink session")
		interval = flag.Duration("interval", 2*time.Second, "interval between live transmissions")
		virtual  = flag.Bool("virtual-clock", false, "pace the live session on a virtual clock (instant)")

		archivePath   = flag.String("archive", "", "SQLite archive path (empty = no persistence)")
		exportCSV     = flag.String("export-csv", "", "export the archive as CSV to this file and exit")
		exportJSON    = flag.String("export-json", "", "export the archive as JSON to this file and exit")
		metricsListen = flag.String("metrics-listen", "", "address for the Prometheus /metrics endpoint (empty = disabled)")
		verbose       = flag.Bool("verbose", false, "print transmitted and received bit streams")
	)
	flag.Parse()

	log := logging.NewFromEnv()
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdown, err := observability.InitTracing(ctx, observability.TracingConfigFromEnv(), log)
	if err != nil {
		return fmt.Errorf("init tracing: %w", err)
	}
	defer observability.ShutdownWithTimeout(context.Background(), shutdown, log)

	// Scenario file first, then flag overrides.
	sc := &Scenario{}
	if *configPath != "" {
		sc, err = LoadScenarioFile(*configPath)
		if err != nil {
			return err
		}
	}
	applyFlags(sc, *message, *distance, *snr, *carrier, *rate,
		*elevation, *weather, *useFEC, *seed)

	var store *archive.Store
	if *archivePath != "" {
		store, err = archive.Open(*archivePath)
		if err != nil {
			return err
		}
		defer store.Close()
	}

	if *exportCSV != "" || *exportJSON != "" {
		if store == nil {
			return fmt.Errorf("export requires -archive")
		}
		return runExport(ctx, store, *exportCSV, *exportJSON)
	}

	metrics, err := observability.NewDownlinkCollector(nil)
	if err != nil {
		return fmt.Errorf("register metrics: %w", err)
	}
	if *metricsListen != "" {
		go serveMetrics(ctx, log, metrics, *metricsListen)
	}

	var sink pipeline.MissionSink
	if store != nil {
		sink = store
	}
	sim := pipeline.New(log, metrics, sink)

	switch {
	case *passMode:
		pc := sc.PassConfig()
		if pc.Duration == 0 {
			pc.Duration = *passDuration
		}
		if pc.MaxElevationDeg == 0 {
			pc.MaxElevationDeg = *maxElevation
		}
		if pc.Transmissions == 0 {
			pc.Transmissions = *transmissions
		}
		return runPass(ctx, sim, pc)

	case *liveMode:
		dc := sc.DownlinkConfig()
		if len(dc.Messages) == 0 {
			dc.Messages = flag.Args()
		}
		if len(dc.Messages) == 0 {
			dc.Messages = []string{sc.Message}
		}
		if dc.Interval == 0 {
			dc.Interval = *interval
		}
		var clock timectrl.SimClock = timectrl.RealClock{}
		if *virtual || (sc.Live != nil && sc.Live.Virtual) {
			clock = timectrl.NewVirtualClock(time.Now())
		}
		return runLive(ctx, sim, clock, dc)

	default:
		return runSingle(ctx, sim, sc.TransmissionConfig(), *verbose)
	}
}

// applyFlags copies explicitly-set flags over the scenario. Flags the user
// did not pass keep the scenario's values.
func applyFlags(sc *Scenario, message string, distance, snr, carrier, rate,
	elevation float64, weather string, useFEC bool, seed uint64) {
	set := map[string]bool{}
	flag.Visit(func(f *flag.Flag) { set[f.Name] = true })

	if set["message"] || sc.Message == "" {
		sc.Message = message
	}
	if set["distance"] {
		sc.DistanceKm = distance
	}
	if set["snr"] {
		sc.SNRdB = &snr
	}
	if set["carrier"] {
		sc.CarrierFreqHz = carrier
	}
	if set["sample-rate"] {
		sc.SampleRateHz = rate
	}
	if set["elevation"] {
		sc.ElevationDeg = &elevation
	}
	if set["weather"] {
		sc.Weather = weather
	}
	if set["fec"] {
		sc.FEC = useFEC
	}
	if set["seed"] {
		sc.Seed = seed
	}
}

func runSingle(ctx context.Context, sim *pipeline.Simulator, cfg pipeline.Config, verbose bool) error {
	r, err := sim.Run(ctx, cfg)
	if err != nil {
		return err
	}

	fmt.Printf("Sent:     %q\n", r.MessageSent)
	fmt.Printf("Received: %q\n", r.MessageReceived)
	fmt.Printf("BER: %.6f (%d bit errors)  SNR: %.1f dB target, %.1f dB achieved\n",
		r.BER, r.BitErrors, r.SNRTargetDB, r.SNRAchievedDB)
	fmt.Printf("Losses: %.1f dB range, %.2f dB atmospheric (%s)\n",
		r.RangeLossDB, r.AtmosphericLossDB, cfg.Weather)
	if r.FECEnabled {
		fmt.Printf("FEC: %d corrections applied\n", r.FECCorrections)
	}
	fmt.Printf("Packet valid: %v  Elapsed: %s\n", r.PacketValid, r.Elapsed.Round(time.Microsecond))
	for _, a := range r.Anomalies {
		fmt.Printf("Anomaly [%s]: %s\n", a.Kind, a.Message)
	}
	if r.MissionID != "" {
		fmt.Printf("Archived as mission %s\n", r.MissionID)
	}

	if verbose {
		fmt.Printf("TX bits (%d): %s\n", len(r.TransmittedBits), formatBits(r.TransmittedBits, 112))
		fmt.Printf("RX bits (%d): %s\n", len(r.ReceivedBits), formatBits(r.ReceivedBits, 112))
	}
	return nil
}

func runPass(ctx context.Context, sim *pipeline.Simulator, cfg pipeline.PassConfig) error {
	res, err := sim.RunPass(ctx, cfg)
	if res != nil {
		fmt.Printf("%-10s %-10s %-11s %-8s %-10s %s\n",
			"t (s)", "elev (°)", "dist (km)", "SNR(dB)", "BER", "packet")
		for _, p := range res.Timeline {
			status := "ok"
			if !p.PacketValid {
				status = "CORRUPTED"
			}
			fmt.Printf("%-10.1f %-10.1f %-11.0f %-8.1f %-10.6f %s\n",
				p.OffsetSec, p.ElevationDeg, p.DistanceKm, p.SNRdB, p.BER, status)
		}
		fmt.Printf("Pass summary: %d/%d packets valid, mean BER %.6f, mean SNR %.1f dB\n",
			res.PacketsTotal-res.PacketsCorrupted, res.PacketsTotal, res.MeanBER, res.MeanSNRdB)
	}
	return err
}

func runLive(ctx context.Context, sim *pipeline.Simulator, clock timectrl.SimClock, cfg pipeline.DownlinkConfig) error {
	cfg.OnResult = func(r *pipeline.TransmissionResult) {
		status := "ok"
		if !r.PacketValid {
			status = "CORRUPTED"
		}
		fmt.Printf("[%s] %q -> %q  BER=%.6f  %s\n",
			clock.Now().Format("15:04:05"), r.MessageSent, r.MessageReceived, r.BER, status)
	}
	sum, err := sim.RunLive(ctx, clock, cfg)
	if sum != nil {
		fmt.Printf("Session: %d messages, %d corrupted, mean BER %.6f, elapsed %s\n",
			sum.PacketsTotal, sum.PacketsCorrupted, sum.MeanBER, sum.Elapsed.Round(time.Millisecond))
	}
	return err
}

func runExport(ctx context.Context, store *archive.Store, csvPath, jsonPath string) error {
	if csvPath != "" {
		f, err := os.Create(csvPath)
		if err != nil {
			return err
		}
		defer f.Close()
		if err := store.ExportCSV(ctx, f); err != nil {
			return fmt.Errorf("export csv: %w", err)
		}
		fmt.Printf("Exported archive to %s\n", csvPath)
	}
	if jsonPath != "" {
		f, err := os.Create(jsonPath)
		if err != nil {
			return err
		}
		defer f.Close()
		if err := store.ExportJSON(ctx, f); err != nil {
			return fmt.Errorf("export json: %w", err)
		}
		fmt.Printf("Exported archive to %s\n", jsonPath)
	}
	return nil
}

func serveMetrics(ctx context.Context, log logging.Logger, metrics *observability.DownlinkCollector, addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())
	srv := &http.Server{Addr: addr, Handler: mux}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	log.Info(ctx, "metrics endpoint listening", logging.String("addr", addr))
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Warn(ctx, "metrics endpoint failed", logging.String("error", err.Error()))
	}
}

func formatBits(bits []byte, max int) string {
	var b strings.Builder
	n := len(bits)
	truncated := false
	if n > max {
		n = max
		truncated = true
	}
	for i := 0; i < n; i++ {
		if i > 0 && i%8 == 0 {
			b.WriteByte(' ')
		}
		b.WriteByte('0' + bits[i]&1)
	}
	if truncated {
		b.WriteString(" …")
	}
	return b.String()
}
