package domain

import (
	"encoding/json"
	"testing"
	"time"
)

func TestQualityFor_Bands(t *testing.T) {
	cases := []struct {
		ms   int
		want Quality
	}{
		{0, QualityExcellent},
		{49, QualityExcellent},
		{50, QualityGood},
		{69, QualityGood},
		{70, QualityAverage},
		{99, QualityAverage},
		{100, QualityPoor},
		{350, QualityPoor},
	}
	for _, c := range cases {
		if got := QualityFor(c.ms); got != c.want {
			t.Fatalf("QualityFor(%d)=%q want %q", c.ms, got, c.want)
		}
	}
}

func TestProbeOutcome_QualityAbsentWithoutLatency(t *testing.T) {
	o := ProbeOutcome{Status: StatusSuccess, Method: MethodUnknown, Raw: "Ping successful"}
	if q := o.Quality(); q != "" {
		t.Fatalf("want no quality, got %q", q)
	}
}

func TestErrorKind_LabelsAndTips(t *testing.T) {
	for _, k := range []ErrorKind{
		ErrConnectionTimeout, ErrDNSResolution, ErrPermission,
		ErrNetwork, ErrConnection, ErrMissingAddress,
	} {
		if k.Label() == "" || k.Tip() == "" {
			t.Fatalf("kind %q missing label or tip", k)
		}
	}
	if ErrorKind("").Label() != "" {
		t.Fatalf("empty kind should have no label")
	}
}

func TestEndpoint_PortAddress(t *testing.T) {
	if got := (Endpoint{IP: "10.0.0.1", Port: 27015}).PortAddress(); got != "10.0.0.1:27015" {
		t.Fatalf("got %q", got)
	}
	if got := (Endpoint{IP: "10.0.0.1"}).PortAddress(); got != "" {
		t.Fatalf("want empty without port, got %q", got)
	}
}

func TestResultEntry_JSONOmitsAbsentFields(t *testing.T) {
	e := ResultEntry{
		Endpoint:  Endpoint{ID: "server_0", Name: "Germany Server I", IP: "1.2.3.4", Region: "Europe"},
		Outcome:   ProbeOutcome{Status: StatusFailure, Method: MethodUnknown, ErrorKind: ErrConnectionTimeout, Raw: "timeout"},
		CheckedAt: time.Date(2025, 8, 18, 12, 0, 0, 0, time.UTC),
	}
	b, err := json.Marshal(e)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var m map[string]any
	if err := json.Unmarshal(b, &m); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if _, ok := m["secondary"]; ok {
		t.Fatalf("secondary should be omitted: %s", b)
	}
	out := m["outcome"].(map[string]any)
	if _, ok := out["latency_ms"]; ok {
		t.Fatalf("latency_ms should be omitted on failure: %s", b)
	}
	if out["error_kind"] != "connection_timeout" {
		t.Fatalf("unexpected error_kind: %v", out["error_kind"])
	}
}
