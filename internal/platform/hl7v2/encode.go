package hl7v2

import "strings"

// Encode serializes the message back to ER7 text using the message's own
// delimiter set, with CR segment terminators regardless of what was read.
//
// Trailing empty repetitions, components, subcomponents — and trailing
// empty fields — beyond the last non-empty element are omitted, matching
// the wire convention of not emitting terminal bare separators. The
// truncation is cosmetic: re-parsing the output yields a tree that resolves
// to the same values at every terser path, though deep empty placeholder
// nodes are not reconstructed byte for byte.
func Encode(m *Message) string {
	parts := make([]string, 0, len(m.Segments))
	for i := range m.Segments {
		parts = append(parts, encodeSegment(&m.Segments[i], m.Delimiters))
	}
	return strings.Join(parts, string(SegmentTerminator))
}

// EncodeBytes is Encode for byte-oriented callers (MLLP framing, files).
func EncodeBytes(m *Message) []byte {
	return []byte(Encode(m))
}

func encodeSegment(s *Segment, d DelimiterSet) string {
	sep := string(d.Field)

	if s.ID == "MSH" {
		// MSH-1 is the separator itself and MSH-2 the literal encoding
		// characters; both are emitted positionally and never escaped.
		var b strings.Builder
		b.WriteString("MSH")
		b.WriteString(sep)
		b.WriteString(d.EncodingCharacters())
		rest := make([]string, 0, len(s.Fields))
		for i := 2; i < len(s.Fields); i++ {
			rest = append(rest, encodeField(&s.Fields[i], d))
		}
		rest = trimTrailingEmpty(rest)
		for _, f := range rest {
			b.WriteString(sep)
			b.WriteString(f)
		}
		return b.String()
	}

	fields := make([]string, 0, len(s.Fields))
	for i := range s.Fields {
		fields = append(fields, encodeField(&s.Fields[i], d))
	}
	fields = trimTrailingEmpty(fields)
	if len(fields) == 0 {
		// An all-empty segment still emits its ID.
		return s.ID
	}
	return s.ID + sep + strings.Join(fields, sep)
}

func encodeField(f *Field, d DelimiterSet) string {
	reps := make([]string, 0, len(f.Repetitions))
	for i := range f.Repetitions {
		reps = append(reps, encodeRepetition(&f.Repetitions[i], d))
	}
	return joinTrimmed(reps, d.Repetition)
}

func encodeRepetition(r *Repetition, d DelimiterSet) string {
	comps := make([]string, 0, len(r.Components))
	for i := range r.Components {
		comps = append(comps, encodeComponent(&r.Components[i], d))
	}
	return joinTrimmed(comps, d.Component)
}

func encodeComponent(c *Component, d DelimiterSet) string {
	subs := make([]string, 0, len(c.Subcomponents))
	for _, sub := range c.Subcomponents {
		subs = append(subs, encodeEscapes(sub, d))
	}
	return joinTrimmed(subs, d.Subcomponent)
}

// joinTrimmed joins elements with sep after dropping trailing empties,
// always keeping at least the single (possibly empty) first element.
func joinTrimmed(elems []string, sep byte) string {
	elems = trimTrailingEmpty(elems)
	if len(elems) == 0 {
		return ""
	}
	return strings.Join(elems, string(sep))
}

func trimTrailingEmpty(elems []string) []string {
	end := len(elems)
	for end > 0 && elems[end-1] == "" {
		end--
	}
	return elems[:end]
}
