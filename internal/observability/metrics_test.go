package observability

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestObserveTransmissionCounters(t *testing.T) {
	reg := prometheus.NewRegistry()
	c, err := NewDownlinkCollector(reg)
	if err != nil {
		t.Fatalf("NewDownlinkCollector error: %v", err)
	}

	c.ObserveTransmission(true, 0.0, 0, 0)
	c.ObserveTransmission(false, 0.25, 32, 3)

	if got := testutil.ToFloat64(c.Transmissions.WithLabelValues("valid")); got != 1 {
		t.Fatalf("valid transmissions = %v, want 1", got)
	}
	if got := testutil.ToFloat64(c.Transmissions.WithLabelValues("corrupted")); got != 1 {
		t.Fatalf("corrupted transmissions = %v, want 1", got)
	}
	if got := testutil.ToFloat64(c.CRCFailures); got != 1 {
		t.Fatalf("crc failures = %v, want 1", got)
	}
	if got := testutil.ToFloat64(c.BitErrors); got != 32 {
		t.Fatalf("bit errors = %v, want 32", got)
	}
	if got := testutil.ToFloat64(c.FECCorrections); got != 3 {
		t.Fatalf("fec corrections = %v, want 3", got)
	}
}

func TestRecordAnomalyByKind(t *testing.T) {
	reg := prometheus.NewRegistry()
	c, err := NewDownlinkCollector(reg)
	if err != nil {
		t.Fatalf("NewDownlinkCollector error: %v", err)
	}

	c.RecordAnomaly("crc_failure")
	c.RecordAnomaly("crc_failure")
	c.RecordAnomaly("high_ber")

	if got := testutil.ToFloat64(c.Anomalies.WithLabelValues("crc_failure")); got != 2 {
		t.Fatalf("crc_failure anomalies = %v, want 2", got)
	}
	if got := testutil.ToFloat64(c.Anomalies.WithLabelValues("high_ber")); got != 1 {
		t.Fatalf("high_ber anomalies = %v, want 1", got)
	}
}

func TestNilCollectorIsSafe(t *testing.T) {
	var c *DownlinkCollector
	c.ObserveTransmission(true, 0, 0, 0)
	c.ObserveSNR(10)
	c.RecordAnomaly("low_snr")
}

func TestReregistrationReusesCollectors(t *testing.T) {
	reg := prometheus.NewRegistry()
	a, err := NewDownlinkCollector(reg)
	if err != nil {
		t.Fatalf("first NewDownlinkCollector error: %v", err)
	}
	b, err := NewDownlinkCollector(reg)
	if err != nil {
		t.Fatalf("second NewDownlinkCollector error: %v", err)
	}

	a.ObserveTransmission(true, 0, 0, 0)
	b.ObserveTransmission(true, 0, 0, 0)
	if got := testutil.ToFloat64(a.Transmissions.WithLabelValues("valid")); got != 2 {
		t.Fatalf("shared counter = %v, want 2", got)
	}
}

func TestHandlerServesMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	c, err := NewDownlinkCollector(reg)
	if err != nil {
		t.Fatalf("NewDownlinkCollector error: %v", err)
	}
	c.ObserveSNR(12.5)
	c.ObserveTransmission(true, 0.001, 1, 0)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	c.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status %d", rec.Code)
	}
	body := rec.Body.String()
	for _, want := range []string{
		"downlink_transmissions_total",
		"downlink_ber",
		"downlink_achieved_snr_db",
	} {
		if !strings.Contains(body, want) {
			t.Fatalf("metrics output missing %s", want)
		}
	}
}
