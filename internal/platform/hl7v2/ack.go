package hl7v2

import (
	"time"

	"github.com/google/uuid"
)

// Acknowledgment codes for MSA-1.
const (
	AckAccept = "AA"
	AckError  = "AE"
	AckReject = "AR"
)

// GenerateACK builds an ACK message for an incoming message. The sending
// and receiving application/facility are swapped from the original, MSA-1
// carries ackCode, and MSA-2 references the original control ID so the
// sender can correlate the response.
//
// The ACK reuses the incoming message's delimiter set, so it is readable by
// whatever produced the original.
func GenerateACK(incoming *Message, ackCode string) (*Message, error) {
	d := incoming.Delimiters
	if d.validate() != nil {
		d = DefaultDelimiters()
	}

	ack := NewMessage(d)
	t := NewTerser(ack)

	now := time.Now().UTC()
	sets := []struct{ path, value string }{
		{"MSH-3", incoming.ReceivingApp()},
		{"MSH-4", incoming.ReceivingFacility()},
		{"MSH-5", incoming.SendingApp()},
		{"MSH-6", incoming.SendingFacility()},
		{"MSH-7", now.Format("20060102150405")},
		{"MSH-9", "ACK"},
		{"MSH-9-2", incoming.TriggerEvent()},
		{"MSH-10", "ACK" + uuid.NewString()[:8]},
		{"MSH-11", "P"},
		{"MSH-12", incoming.Version()},
		{"MSA-1", ackCode},
		{"MSA-2", incoming.ControlID()},
	}
	for _, s := range sets {
		if err := t.Set(s.path, s.value); err != nil {
			return nil, err
		}
	}
	return ack, nil
}
