package hl7v2

import (
	"strings"
	"time"
)

// Message is a parsed HL7v2 message: an ordered list of segments plus the
// delimiter set that was in effect when it was parsed. Keeping the set on
// the message makes re-encoding lossless even when it differs from the
// configured default.
//
// A Message is safe for concurrent readers; writers (AppendSegment,
// RemoveSegment, Terser.Set) need exclusive access. Synchronization is the
// caller's job — typically one Message per inbound request.
type Message struct {
	Delimiters DelimiterSet
	Segments   []Segment
}

// Segment is a 3-character identifier plus an ordered list of fields.
// Fields[i] holds addressable field i+1. That holds for MSH too: the
// parser stores the field separator itself as Fields[0] (MSH-1) and the
// literal encoding-characters string as Fields[1] (MSH-2).
type Segment struct {
	ID     string
	Fields []Field
}

// Field is an ordered list of repetitions, never empty: an absent field
// still holds one empty repetition. The same always-at-least-one rule
// applies at every level below (the collapse rule): structure is only as
// deep as the input delimiters indicate.
type Field struct {
	Repetitions []Repetition
}

// Repetition is an ordered, non-empty list of components.
type Repetition struct {
	Components []Component
}

// Component is an ordered, non-empty list of subcomponents. Subcomponents
// are the leaves: decoded text, escape sequences already resolved.
type Component struct {
	Subcomponents []string
}

// NewMessage creates an empty message carrying d, seeded with an MSH
// segment holding MSH-1 and MSH-2 so the result is a valid skeleton for
// terser writes.
func NewMessage(d DelimiterSet) *Message {
	return &Message{
		Delimiters: d,
		Segments: []Segment{{
			ID: "MSH",
			Fields: []Field{
				newValueField(string(d.Field)),
				newValueField(d.EncodingCharacters()),
			},
		}},
	}
}

// newValueField builds a fully collapsed field holding a single value.
func newValueField(value string) Field {
	return Field{Repetitions: []Repetition{{Components: []Component{{Subcomponents: []string{value}}}}}}
}

// emptyField, emptyRepetition and emptyComponent are the collapse-rule
// placeholders used by gap-filling writes.
func emptyField() Field           { return newValueField("") }
func emptyRepetition() Repetition { return Repetition{Components: []Component{emptyComponent()}} }
func emptyComponent() Component   { return Component{Subcomponents: []string{""}} }

// AppendSegment appends seg to the message.
func (m *Message) AppendSegment(seg Segment) {
	m.Segments = append(m.Segments, seg)
}

// RemoveSegment removes the occ-th (0-based) segment with the given ID and
// reports whether one was removed.
func (m *Message) RemoveSegment(id string, occ int) bool {
	n := 0
	for i := range m.Segments {
		if m.Segments[i].ID != id {
			continue
		}
		if n == occ {
			m.Segments = append(m.Segments[:i], m.Segments[i+1:]...)
			return true
		}
		n++
	}
	return false
}

// Segment returns the occ-th (0-based) segment with the given ID, or nil.
func (m *Message) Segment(id string, occ int) *Segment {
	n := 0
	for i := range m.Segments {
		if m.Segments[i].ID == id {
			if n == occ {
				return &m.Segments[i]
			}
			n++
		}
	}
	return nil
}

// SegmentCount returns how many segments with the given ID are present, so
// callers can iterate SEG(0), SEG(1), ... without guessing a bound.
func (m *Message) SegmentCount(id string) int {
	n := 0
	for i := range m.Segments {
		if m.Segments[i].ID == id {
			n++
		}
	}
	return n
}

// Field returns the field with the given 1-based number, or nil when the
// segment has no such field.
func (s *Segment) Field(n int) *Field {
	if n < 1 || n > len(s.Fields) {
		return nil
	}
	return &s.Fields[n-1]
}

// Value returns the first subcomponent of the first component of the first
// repetition — the whole field text for a collapsed field.
func (f *Field) Value() string {
	if len(f.Repetitions) == 0 {
		return ""
	}
	r := f.Repetitions[0]
	if len(r.Components) == 0 || len(r.Components[0].Subcomponents) == 0 {
		return ""
	}
	return r.Components[0].Subcomponents[0]
}

// Component returns the value of the given 1-based component of the first
// repetition, or "" when absent.
func (f *Field) Component(n int) string {
	if len(f.Repetitions) == 0 {
		return ""
	}
	comps := f.Repetitions[0].Components
	if n < 1 || n > len(comps) {
		return ""
	}
	if len(comps[n-1].Subcomponents) == 0 {
		return ""
	}
	return comps[n-1].Subcomponents[0]
}

// fieldValue is a nil-tolerant accessor used by the header helpers below.
func (s *Segment) fieldValue(n int) string {
	f := s.Field(n)
	if f == nil {
		return ""
	}
	return f.Value()
}

// ---------------------------------------------------------------------------
// MSH header accessors
// ---------------------------------------------------------------------------

// Type returns the message type with its trigger event, e.g. "ADT^A01"
// (MSH-9 rendered with the message's component separator).
func (m *Message) Type() string {
	msh := m.Segment("MSH", 0)
	if msh == nil {
		return ""
	}
	f := msh.Field(9)
	if f == nil {
		return ""
	}
	code, trigger := f.Value(), f.Component(2)
	if trigger == "" {
		return code
	}
	return code + string(m.Delimiters.Component) + trigger
}

// TriggerEvent returns the MSH-9 trigger event component, e.g. "A01".
func (m *Message) TriggerEvent() string {
	msh := m.Segment("MSH", 0)
	if msh == nil {
		return ""
	}
	f := msh.Field(9)
	if f == nil {
		return ""
	}
	return f.Component(2)
}

// ControlID returns MSH-10.
func (m *Message) ControlID() string { return m.mshValue(10) }

// Version returns MSH-12, e.g. "2.5.1".
func (m *Message) Version() string { return m.mshValue(12) }

// SendingApp returns MSH-3.
func (m *Message) SendingApp() string { return m.mshValue(3) }

// SendingFacility returns MSH-4.
func (m *Message) SendingFacility() string { return m.mshValue(4) }

// ReceivingApp returns MSH-5.
func (m *Message) ReceivingApp() string { return m.mshValue(5) }

// ReceivingFacility returns MSH-6.
func (m *Message) ReceivingFacility() string { return m.mshValue(6) }

func (m *Message) mshValue(n int) string {
	msh := m.Segment("MSH", 0)
	if msh == nil {
		return ""
	}
	return msh.fieldValue(n)
}

// Timestamp parses MSH-7 as an HL7 timestamp (YYYYMMDD with optional time).
// The zero time is returned when the field is absent or unparseable.
func (m *Message) Timestamp() time.Time {
	s := strings.TrimSpace(m.mshValue(7))
	for _, layout := range []struct {
		width  int
		format string
	}{
		{14, "20060102150405"},
		{12, "200601021504"},
		{8, "20060102"},
	} {
		if len(s) >= layout.width {
			if t, err := time.Parse(layout.format, s[:layout.width]); err == nil {
				return t
			}
		}
	}
	return time.Time{}
}
