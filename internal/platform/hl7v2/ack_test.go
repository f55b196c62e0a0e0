package hl7v2

import (
	"strings"
	"testing"
)

var testADT = "MSH|^~\\&|SendApp|SendFac|RecvApp|RecvFac|20240115120000||ADT^A01|MSG001|P|2.5.1\rPID|||12345||Smith^John||19800101|M"

func TestGenerateACK_SwapsEndpoints(t *testing.T) {
	msg := parseTestMessage(t, testADT)
	ack, err := GenerateACK(msg, AckAccept)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if ack.SendingApp() != "RecvApp" {
		t.Errorf("expected SendingApp 'RecvApp', got %q", ack.SendingApp())
	}
	if ack.SendingFacility() != "RecvFac" {
		t.Errorf("expected SendingFacility 'RecvFac', got %q", ack.SendingFacility())
	}
	if ack.ReceivingApp() != "SendApp" {
		t.Errorf("expected ReceivingApp 'SendApp', got %q", ack.ReceivingApp())
	}
	if ack.ReceivingFacility() != "SendFac" {
		t.Errorf("expected ReceivingFacility 'SendFac', got %q", ack.ReceivingFacility())
	}
}

func TestGenerateACK_TypeAndMSA(t *testing.T) {
	msg := parseTestMessage(t, testADT)
	ack, err := GenerateACK(msg, AckError)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if ack.Type() != "ACK^A01" {
		t.Errorf("expected Type 'ACK^A01', got %q", ack.Type())
	}
	if ack.Version() != "2.5.1" {
		t.Errorf("expected Version '2.5.1', got %q", ack.Version())
	}

	ts := NewTerser(ack)
	if got := ts.MustGet("MSA-1"); got != "AE" {
		t.Errorf("expected MSA-1 'AE', got %q", got)
	}
	// MSA-2 must reference the original control ID.
	if got := ts.MustGet("MSA-2"); got != "MSG001" {
		t.Errorf("expected MSA-2 'MSG001', got %q", got)
	}
	if ack.ControlID() == "" || ack.ControlID() == msg.ControlID() {
		t.Errorf("ACK needs its own control ID, got %q", ack.ControlID())
	}
}

func TestGenerateACK_Encodes(t *testing.T) {
	msg := parseTestMessage(t, testADT)
	ack, err := GenerateACK(msg, AckAccept)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	encoded := Encode(ack)
	if !strings.HasPrefix(encoded, "MSH|^~\\&|") {
		t.Errorf("unexpected MSH prefix: %q", encoded)
	}

	reparsed := parseTestMessage(t, encoded)
	if got := NewTerser(reparsed).MustGet("MSA-1"); got != "AA" {
		t.Errorf("expected MSA-1 'AA' after round trip, got %q", got)
	}
}

func TestGenerateACK_KeepsIncomingDelimiters(t *testing.T) {
	raw := "MSH#*+'\"#App#Fac###20240115143025##ADT*A01#CTRL1#P#2.5.1"
	msg := parseTestMessage(t, raw)

	ack, err := GenerateACK(msg, AckAccept)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ack.Delimiters != msg.Delimiters {
		t.Errorf("expected ACK to reuse incoming delimiters, got %+v", ack.Delimiters)
	}
	if !strings.HasPrefix(Encode(ack), "MSH#*+'\"#") {
		t.Errorf("unexpected encoding: %q", Encode(ack))
	}
}
