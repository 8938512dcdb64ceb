package calbookv1

import (
	"strings"
	"testing"
	"time"
)

func TestJSONCodec_TimestampsAreRFC3339(t *testing.T) {
	start := time.Date(2026, 1, 5, 9, 30, 0, 0, time.UTC)
	in := &CheckSlotRequest{UserID: "alice", Start: NewTimestamp(start), DurationMinutes: 30}

	data, err := jsonCodec{}.Marshal(in)
	if err != nil {
		t.Fatalf("Marshal error: %v", err)
	}
	if !strings.Contains(string(data), `"start":"2026-01-05T09:30:00Z"`) {
		t.Fatalf("encoded = %s, want RFC 3339 start", data)
	}
	if strings.Contains(string(data), "seconds") {
		t.Fatalf("encoded = %s, must not expose seconds/nanos", data)
	}

	var out CheckSlotRequest
	if err := (jsonCodec{}).Unmarshal(data, &out); err != nil {
		t.Fatalf("Unmarshal error: %v", err)
	}
	if !out.Start.AsTime().Equal(start) {
		t.Fatalf("decoded start = %v, want %v", out.Start.AsTime(), start)
	}
}

func TestJSONCodec_DecodesOffsetsAndNull(t *testing.T) {
	var out SearchAppointmentsRequest
	data := []byte(`{"user_id":"bob","from":"2026-01-05T10:00:00+01:00","to":null}`)
	if err := (jsonCodec{}).Unmarshal(data, &out); err != nil {
		t.Fatalf("Unmarshal error: %v", err)
	}
	if want := time.Date(2026, 1, 5, 9, 0, 0, 0, time.UTC); !out.From.AsTime().Equal(want) {
		t.Fatalf("from = %v, want %v", out.From.AsTime(), want)
	}
	if out.To != nil {
		t.Fatalf("to = %v, want nil", out.To)
	}
	if !out.To.AsTime().IsZero() {
		t.Fatalf("nil timestamp must read as the zero time")
	}
}

func TestJSONCodec_RejectsMalformedTimestamp(t *testing.T) {
	var out CheckSlotRequest
	err := (jsonCodec{}).Unmarshal([]byte(`{"start":{"seconds":1767605400}}`), &out)
	if err == nil {
		t.Fatalf("object timestamp must be rejected")
	}
}

func TestJSONCodec_OmitsNilOptionalTimestamps(t *testing.T) {
	data, err := jsonCodec{}.Marshal(&Appointment{ID: "a1", Start: NewTimestamp(time.Unix(0, 0))})
	if err != nil {
		t.Fatalf("Marshal error: %v", err)
	}
	if strings.Contains(string(data), "created_at") {
		t.Fatalf("encoded = %s, nil created_at must be omitted", data)
	}
	if !strings.Contains(string(data), `"end":null`) {
		t.Fatalf("encoded = %s, want null end", data)
	}
}
