package hl7v2

import (
	"fmt"
	"strings"
)

// ParseOptions control the tolerance policy of Parse. The zero value is the
// lenient production default.
type ParseOptions struct {
	// Delimiters is the fallback set used for fragments that carry no MSH
	// segment. When nil, a missing MSH is a fatal parse error.
	Delimiters *DelimiterSet

	// Strict rejects segment lines whose ID is not exactly three uppercase
	// alphanumerics or that lack a field separator after the ID. Lenient
	// mode tolerates both, because production HL7 traffic is routinely
	// non-conformant.
	Strict bool
}

// Parse parses raw HL7v2 bytes into a Message with the default lenient
// options. It accepts \r, \n, and \r\n segment terminators.
func Parse(raw []byte) (*Message, error) {
	return ParseWithOptions(raw, ParseOptions{})
}

// ParseWithOptions parses raw HL7v2 bytes into a Message.
//
// The delimiters are read from the message itself: MSH-1 is the character
// at offset 3, MSH-2 the four characters after it. Those two fields are
// extracted by fixed offset — they define field splitting, so they cannot
// themselves be field-split — and stored as literal single-value fields.
// Everything after them is delimiter-driven.
//
// Only a missing or malformed MSH (absent fallback delimiters) and invalid
// encoding characters are fatal. Missing structure at any lower level
// collapses to single empty elements, and unknown segment IDs parse
// generically and are retained.
func ParseWithOptions(raw []byte, opts ParseOptions) (*Message, error) {
	if len(raw) == 0 {
		return nil, &ParseError{Line: 0, Reason: "no input", Err: ErrEmptyMessage}
	}

	text := string(raw)
	text = strings.ReplaceAll(text, "\r\n", "\r")
	text = strings.ReplaceAll(text, "\n", "\r")

	var lines []string
	for _, line := range strings.Split(text, "\r") {
		line = strings.TrimSpace(line)
		if line != "" {
			lines = append(lines, line)
		}
	}
	if len(lines) == 0 {
		return nil, &ParseError{Line: 0, Reason: "no segments found", Err: ErrEmptyMessage}
	}

	msg := &Message{}
	start := 0

	if strings.HasPrefix(lines[0], "MSH") {
		msh, d, err := parseMSH(lines[0])
		if err != nil {
			return nil, err
		}
		msg.Delimiters = d
		msg.Segments = append(msg.Segments, msh)
		start = 1
	} else if opts.Delimiters != nil {
		// Headerless fragment: parse every line generically with the
		// caller-supplied set.
		if err := opts.Delimiters.validate(); err != nil {
			return nil, &ParseError{Line: 0, Reason: "fallback delimiter set is invalid", Err: err}
		}
		msg.Delimiters = *opts.Delimiters
	} else {
		got := lines[0]
		if len(got) > 3 {
			got = got[:3]
		}
		return nil, &ParseError{Line: 1, Reason: fmt.Sprintf("got %q", got), Err: ErrMissingMSH}
	}

	for i := start; i < len(lines); i++ {
		seg, err := parseSegment(lines[i], msg.Delimiters, opts.Strict)
		if err != nil {
			return nil, &ParseError{Line: i + 1, Reason: err.Error()}
		}
		if seg != nil {
			msg.Segments = append(msg.Segments, *seg)
		}
	}

	return msg, nil
}

// parseMSH bootstraps the delimiter set from the MSH segment and parses its
// remaining fields with it.
func parseMSH(line string) (Segment, DelimiterSet, error) {
	if len(line) < 4 {
		return Segment{}, DelimiterSet{}, &ParseError{Line: 1, Reason: "MSH segment too short to carry a field separator", Err: ErrMissingMSH}
	}
	fieldSep := line[3]

	rest := line[4:]
	enc := rest
	more := ""
	hasMore := false
	if idx := strings.IndexByte(rest, fieldSep); idx != -1 {
		enc = rest[:idx]
		more = rest[idx+1:]
		hasMore = true
	}
	d, err := DelimitersFromEncodingCharacters(enc, fieldSep)
	if err != nil {
		return Segment{}, DelimiterSet{}, &ParseError{Line: 1, Reason: "MSH-2", Err: err}
	}

	// MSH-1 and MSH-2 are positional, not delimited: store them literally,
	// with no further decomposition and no escape decoding.
	seg := Segment{
		ID: "MSH",
		Fields: []Field{
			newValueField(string(fieldSep)),
			newValueField(enc),
		},
	}
	if hasMore {
		for _, raw := range strings.Split(more, string(fieldSep)) {
			seg.Fields = append(seg.Fields, parseField(raw, d))
		}
	}
	return seg, d, nil
}

// parseSegment parses one non-MSH segment line. In lenient mode it returns
// (nil, nil) for lines too short to hold an ID rather than failing the
// whole message.
func parseSegment(line string, d DelimiterSet, strict bool) (*Segment, error) {
	if len(line) < 3 {
		if strict {
			return nil, fmt.Errorf("segment %q too short", line)
		}
		return nil, nil
	}

	id := line[:3]
	if strict && !validSegmentID(id) {
		return nil, fmt.Errorf("segment ID %q is not 3 uppercase alphanumerics", id)
	}

	seg := &Segment{ID: id}
	body := line[3:]
	if body == "" {
		// Bare segment: identifier only.
		return seg, nil
	}
	if body[0] == d.Field {
		body = body[1:]
	} else if strict {
		return nil, fmt.Errorf("segment %q missing field separator after ID", id)
	}

	for _, raw := range strings.Split(body, string(d.Field)) {
		seg.Fields = append(seg.Fields, parseField(raw, d))
	}
	return seg, nil
}

// parseField splits raw field text into repetitions, components and
// subcomponents, decoding escapes at the leaves. strings.Split never
// returns an empty slice, so every level keeps the at-least-one invariant
// for free: empty text yields one empty subcomponent all the way down.
func parseField(raw string, d DelimiterSet) Field {
	var f Field
	for _, rep := range strings.Split(raw, string(d.Repetition)) {
		var r Repetition
		for _, comp := range strings.Split(rep, string(d.Component)) {
			var c Component
			for _, sub := range strings.Split(comp, string(d.Subcomponent)) {
				c.Subcomponents = append(c.Subcomponents, decodeEscapes(sub, d))
			}
			r.Components = append(r.Components, c)
		}
		f.Repetitions = append(f.Repetitions, r)
	}
	return f
}

func validSegmentID(id string) bool {
	if len(id) != 3 {
		return false
	}
	for i := 0; i < 3; i++ {
		c := id[i]
		if (c < 'A' || c > 'Z') && (c < '0' || c > '9') {
			return false
		}
	}
	return true
}
