package observability

import (
	"context"
	"testing"
)

func TestTracingConfigFromEnvDefaults(t *testing.T) {
	t.Setenv("DOWNLINK_TRACING_ENABLED", "")
	t.Setenv("DOWNLINK_TRACING_EXPORTER", "")
	t.Setenv("DOWNLINK_TRACING_SERVICE_NAME", "")
	t.Setenv("DOWNLINK_TRACING_SAMPLE_RATIO", "")

	cfg := TracingConfigFromEnv()
	if cfg.Enabled {
		t.Fatal("tracing enabled by default")
	}
	if cfg.Exporter != "stdout" || cfg.ServiceName != "downlink-sim" {
		t.Fatalf("defaults: %+v", cfg)
	}
	if cfg.SampleRatio != 1.0 {
		t.Fatalf("SampleRatio = %v, want 1", cfg.SampleRatio)
	}
}

func TestTracingConfigFromEnvSampleRatio(t *testing.T) {
	t.Setenv("DOWNLINK_TRACING_ENABLED", "true")
	t.Setenv("DOWNLINK_TRACING_SAMPLE_RATIO", "0.25")
	cfg := TracingConfigFromEnv()
	if !cfg.Enabled || cfg.SampleRatio != 0.25 {
		t.Fatalf("config: %+v", cfg)
	}

	t.Setenv("DOWNLINK_TRACING_SAMPLE_RATIO", "7")
	if got := TracingConfigFromEnv().SampleRatio; got != 1.0 {
		t.Fatalf("out-of-range ratio accepted: %v", got)
	}
}

func TestInitTracingDisabledIsNoop(t *testing.T) {
	shutdown, err := InitTracing(context.Background(), TracingConfig{}, nil)
	if err != nil {
		t.Fatalf("InitTracing error: %v", err)
	}
	if err := shutdown(context.Background()); err != nil {
		t.Fatalf("noop shutdown error: %v", err)
	}
}

func TestNewExporterRejectsUnknown(t *testing.T) {
	if _, err := newExporter(context.Background(), TracingConfig{Exporter: "jaeger"}); err == nil {
		t.Fatal("unknown exporter accepted")
	}
}
