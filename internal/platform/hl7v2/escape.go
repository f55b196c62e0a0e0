package hl7v2

import (
	"encoding/hex"
	"strings"
)

// decodeEscapes resolves HL7 escape sequences in raw field text. The
// recognized sequences are:
//
//	\F\ = field separator
//	\S\ = component separator
//	\R\ = repetition separator
//	\T\ = subcomponent separator
//	\E\ = escape character
//	\Xdd...\ = hex-encoded bytes
//
// Vendor and locale sequences (\Z...\, \C...\) and anything else
// unrecognized are preserved verbatim, escape characters included. An
// unterminated sequence (no closing escape character) is likewise passed
// through literally: real-world traffic contains both, and rejecting them
// would make the parser useless against it.
func decodeEscapes(s string, d DelimiterSet) string {
	esc := d.Escape
	if strings.IndexByte(s, esc) == -1 {
		return s
	}

	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); {
		if s[i] != esc {
			b.WriteByte(s[i])
			i++
			continue
		}

		end := strings.IndexByte(s[i+1:], esc)
		if end == -1 {
			// Unterminated escape: keep the rest as-is.
			b.WriteString(s[i:])
			break
		}
		end += i + 1
		seq := s[i+1 : end]

		switch seq {
		case "F":
			b.WriteByte(d.Field)
		case "S":
			b.WriteByte(d.Component)
		case "R":
			b.WriteByte(d.Repetition)
		case "T":
			b.WriteByte(d.Subcomponent)
		case "E":
			b.WriteByte(esc)
		default:
			if decoded, ok := decodeHexEscape(seq); ok {
				b.Write(decoded)
			} else {
				// Unknown sequence (\Z..\, \C..\, ...): verbatim.
				b.WriteString(s[i : end+1])
			}
		}
		i = end + 1
	}
	return b.String()
}

// decodeHexEscape decodes the body of an \Xdd...\ sequence. It requires at
// least one full hex pair; anything malformed is reported not-ok so the
// caller passes the sequence through untouched.
func decodeHexEscape(seq string) ([]byte, bool) {
	if len(seq) < 3 || seq[0] != 'X' || len(seq)%2 == 0 {
		return nil, false
	}
	decoded, err := hex.DecodeString(seq[1:])
	if err != nil {
		return nil, false
	}
	return decoded, true
}

// encodeEscapes is the inverse of decodeEscapes for the five reserved
// characters. Every other byte passes through unescaped, except a literal
// segment terminator, which cannot appear raw inside a field and is emitted
// as a hex escape.
func encodeEscapes(s string, d DelimiterSet) string {
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch c {
		case d.Escape:
			b.WriteByte(d.Escape)
			b.WriteByte('E')
			b.WriteByte(d.Escape)
		case d.Field:
			b.WriteByte(d.Escape)
			b.WriteByte('F')
			b.WriteByte(d.Escape)
		case d.Component:
			b.WriteByte(d.Escape)
			b.WriteByte('S')
			b.WriteByte(d.Escape)
		case d.Repetition:
			b.WriteByte(d.Escape)
			b.WriteByte('R')
			b.WriteByte(d.Escape)
		case d.Subcomponent:
			b.WriteByte(d.Escape)
			b.WriteByte('T')
			b.WriteByte(d.Escape)
		case SegmentTerminator:
			b.WriteByte(d.Escape)
			b.WriteString("X0D")
			b.WriteByte(d.Escape)
		default:
			b.WriteByte(c)
		}
	}
	return b.String()
}
