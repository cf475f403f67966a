package storage

import (
	"errors"
	"testing"
	"time"

	"banditd/internal/model"
)

func TestEventCodecRoundTrip(t *testing.T) {
	x := 2.5
	ev := NewEvent(model.KindOptimizer, "optimizer-3", model.OpObserve, time.Unix(1700000000, 42))
	ev.X = &x
	ev.Value = 0.75
	ev.Detail = "best"

	data, err := EncodeEvent(ev)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	got, err := DecodeEvent(data)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.InstanceID != ev.InstanceID || got.Op != ev.Op || got.Value != ev.Value || got.Detail != ev.Detail {
		t.Fatalf("unexpected decoded event: %+v", got)
	}
	if got.X == nil || *got.X != x {
		t.Fatalf("expected x=%v, got %v", x, got.X)
	}
	if !got.At.Equal(ev.At) {
		t.Fatalf("expected timestamp %v, got %v", ev.At, got.At)
	}
}

func TestDecodeEventRejectsUnknownVersion(t *testing.T) {
	data := []byte(`{"schema_version":2,"codec_version":1,"instance_id":"bandit-1","kind":"bandit","op":"create"}`)
	if _, err := DecodeEvent(data); !errors.Is(err, ErrVersionMismatch) {
		t.Fatalf("expected version mismatch, got %v", err)
	}
}

func TestDecodeEventRejectsMalformedJSON(t *testing.T) {
	if _, err := DecodeEvent([]byte(`{`)); err == nil {
		t.Fatal("expected decode error")
	}
}
