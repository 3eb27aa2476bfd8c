// Copyright © 2025 Stagesync contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: protocol/protocol_test.go
// Summary: Exercises envelope framing so the wire contract stays reliable.
// Usage: Executed during `go test` to guard against regressions.
// Notes: Event names are part of the protocol; renames require coordinated client updates.

package protocol

import (
	"errors"
	"testing"
)

func TestEnvelopeRoundTrip(t *testing.T) {
	frame, err := Encode(EventCameraDelete, CameraDelete{CameraID: "cam-1"})
	if err != nil {
		t.Fatalf("encode failed: %v", err)
	}

	env, err := Decode(frame)
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if env.Event != EventCameraDelete {
		t.Fatalf("expected event %q, got %q", EventCameraDelete, env.Event)
	}

	var payload CameraDelete
	if err := env.Payload(&payload); err != nil {
		t.Fatalf("payload decode failed: %v", err)
	}
	if payload.CameraID != "cam-1" {
		t.Fatalf("expected cam-1, got %q", payload.CameraID)
	}
}

func TestEncodeRejectsEmptyEvent(t *testing.T) {
	if _, err := Encode("", nil); !errors.Is(err, ErrEmptyEvent) {
		t.Fatalf("expected ErrEmptyEvent, got %v", err)
	}
}

func TestDecodeRejectsMissingEvent(t *testing.T) {
	if _, err := Decode([]byte(`{"data":{}}`)); !errors.Is(err, ErrEmptyEvent) {
		t.Fatalf("expected ErrEmptyEvent, got %v", err)
	}
}

func TestDecodeRejectsMalformedFrame(t *testing.T) {
	if _, err := Decode([]byte(`{"event":`)); err == nil {
		t.Fatalf("expected error for truncated frame")
	}
}

func TestEncodeWithoutPayload(t *testing.T) {
	frame, err := Encode(EventProjectLeave, nil)
	if err != nil {
		t.Fatalf("encode failed: %v", err)
	}
	env, err := Decode(frame)
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if len(env.Data) != 0 {
		t.Fatalf("expected empty payload, got %s", env.Data)
	}
}
