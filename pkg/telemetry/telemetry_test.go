package telemetry

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/chromapath/chromapath/pkg/detect"
	"github.com/chromapath/chromapath/pkg/hazard"
	"github.com/chromapath/chromapath/pkg/transport"
	"github.com/chromapath/chromapath/pkg/vision"
)

func sampleHazard() *hazard.PrioritizedHazard {
	rules := hazard.DefaultRules()
	return &hazard.PrioritizedHazard{
		Detection: detect.Detection{
			Class:      "traffic_light",
			Confidence: 0.87,
			ColorState: detect.ColorRed,
		},
		Rule:                  &rules[0],
		Message:               "Red light ahead",
		WarningDistanceMeters: 75,
	}
}

func TestNewHazardEvent(t *testing.T) {
	h := sampleHazard()
	event := NewHazardEvent("session-1", h, transport.ModeBiking, 22.5, vision.TypeDeuteranopia)

	if event.EventID == "" {
		t.Error("event id not minted")
	}
	if event.SessionID != "session-1" {
		t.Errorf("session id = %q", event.SessionID)
	}
	if event.Class != "traffic_light" || event.ColorState != "red" {
		t.Errorf("detection fields not carried: %+v", event)
	}
	if event.SpeedKMH != 22.5 || event.TransportMode != "biking" {
		t.Errorf("context fields not carried: %+v", event)
	}
	if event.At.IsZero() {
		t.Error("event not timestamped")
	}

	payload, err := event.ToJSON()
	if err != nil {
		t.Fatalf("ToJSON: %v", err)
	}
	var decoded map[string]any
	if err := json.Unmarshal(payload, &decoded); err != nil {
		t.Fatalf("payload is not valid JSON: %v", err)
	}
	if decoded["priority"] != string(h.Priority()) {
		t.Errorf("priority = %v, want %s", decoded["priority"], h.Priority())
	}
}

func TestMockPublisherRecords(t *testing.T) {
	m := NewMockPublisher()
	event := NewHazardEvent("s", sampleHazard(), transport.ModeWalking, 4, vision.TypeProtanopia)

	if err := m.PublishHazard(event); err != nil {
		t.Fatalf("PublishHazard: %v", err)
	}
	if got := m.Events(); len(got) != 1 || got[0].EventID != event.EventID {
		t.Errorf("events = %v", got)
	}

	m.PublishErr = errors.New("broker down")
	if err := m.PublishHazard(event); err == nil {
		t.Error("expected configured publish error")
	}
	if len(m.Events()) != 1 {
		t.Error("failed publish should not record")
	}

	m.Close()
	if !m.Closed() {
		t.Error("close not recorded")
	}
}

func TestNopPublisher(t *testing.T) {
	var p Publisher = Nop{}
	if err := p.PublishHazard(HazardEvent{}); err != nil {
		t.Errorf("nop publish = %v", err)
	}
	if err := p.Close(); err != nil {
		t.Errorf("nop close = %v", err)
	}
}
