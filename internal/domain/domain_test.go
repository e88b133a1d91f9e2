package domain

import (
	"encoding/json"
	"testing"
	"time"
)

func TestSlowResponse_Boundary(t *testing.T) {
	cases := []struct {
		ms   int64
		want bool
	}{
		{0, false},
		{4999, false},
		{5000, false}, // 5000 itself is not slow
		{5001, true},
		{60000, true},
	}
	for _, c := range cases {
		if got := SlowResponse(c.ms); got != c.want {
			t.Fatalf("SlowResponse(%d)=%v want %v", c.ms, got, c.want)
		}
	}
}

func TestReport_JSONRoundTrip(t *testing.T) {
	want := Report{
		ID:          "R1",
		Host:        "example.com",
		GeneratedAt: time.Date(2026, 8, 24, 12, 0, 0, 0, time.UTC),
		Reachability: []ReachabilityResult{
			{VantagePoint: "primary", Alive: true, ResponseTimeMs: 12},
		},
		Ports: &PortScanResult{
			Host:         "example.com",
			ScannedPorts: []int{80, 443},
			OpenPorts:    []PortRecord{{Port: 443, Service: "HTTPS", State: PortOpen}},
			ClosedPorts:  []int{80},
		},
		Errors: map[string]string{"ssl": "ssl check failed"},
	}
	b, err := json.Marshal(want)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var got Report
	if err := json.Unmarshal(b, &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got.Host != want.Host || len(got.Reachability) != 1 || got.Ports == nil {
		t.Fatalf("mismatch after round-trip:\nwant=%+v\ngot =%+v", want, got)
	}
	if got.Ports.OpenPorts[0].State != PortOpen || got.Errors["ssl"] == "" {
		t.Fatalf("nested fields lost: %+v", got)
	}
}

func TestCheckResult_JSONRoundTrip(t *testing.T) {
	want := CheckResult{
		TargetID:       TargetID("T1"),
		Up:             true,
		HTTPStatus:     200,
		ResponseTimeMs: 123,
		Reason:         "200 OK",
		CheckedAt:      time.Date(2026, 8, 24, 12, 0, 0, 0, time.UTC),
	}
	b, err := json.Marshal(want)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var got CheckResult
	if err := json.Unmarshal(b, &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got.TargetID != want.TargetID || got.Up != want.Up ||
		got.HTTPStatus != want.HTTPStatus || !got.CheckedAt.Equal(want.CheckedAt) {
		t.Fatalf("mismatch after round-trip:\nwant=%+v\ngot =%+v", want, got)
	}
}
