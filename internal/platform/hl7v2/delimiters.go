package hl7v2

import "fmt"

// SegmentTerminator is the fixed segment terminator (CR). Unlike the five
// encoding characters it is never configurable; the parser additionally
// accepts LF and CRLF on input.
const SegmentTerminator = '\r'

// DelimiterSet holds the five encoding characters a message declares in
// MSH-1 and MSH-2. It is fixed for the lifetime of a message: the parser
// records the set it read, and the encoder reuses it verbatim.
type DelimiterSet struct {
	Field        byte // MSH-1, conventionally |
	Component    byte // conventionally ^
	Repetition   byte // conventionally ~
	Escape       byte // conventionally \
	Subcomponent byte // conventionally &
}

// DefaultDelimiters returns the conventional HL7 encoding characters
// (field |, repetition ~, component ^, escape \, subcomponent &).
func DefaultDelimiters() DelimiterSet {
	return DelimiterSet{
		Field:        '|',
		Component:    '^',
		Repetition:   '~',
		Escape:       '\\',
		Subcomponent: '&',
	}
}

// DelimitersFromEncodingCharacters builds a DelimiterSet from an MSH-2
// value and the MSH-1 field separator. MSH-2 is exactly four characters in
// the fixed order component, repetition, escape, subcomponent.
func DelimitersFromEncodingCharacters(enc string, fieldSep byte) (DelimiterSet, error) {
	if len(enc) != 4 {
		return DelimiterSet{}, fmt.Errorf("%w: encoding characters must be exactly 4 characters, got %q", ErrInvalidDelimiters, enc)
	}
	d := DelimiterSet{
		Field:        fieldSep,
		Component:    enc[0],
		Repetition:   enc[1],
		Escape:       enc[2],
		Subcomponent: enc[3],
	}
	if err := d.validate(); err != nil {
		return DelimiterSet{}, err
	}
	return d, nil
}

// EncodingCharacters returns the MSH-2 representation of the set.
func (d DelimiterSet) EncodingCharacters() string {
	return string([]byte{d.Component, d.Repetition, d.Escape, d.Subcomponent})
}

// validate checks that the five characters are mutually distinct and none
// of them is the segment terminator.
func (d DelimiterSet) validate() error {
	chars := [5]byte{d.Field, d.Component, d.Repetition, d.Escape, d.Subcomponent}
	for i, c := range chars {
		if c == SegmentTerminator {
			return fmt.Errorf("%w: segment terminator (CR) used as a delimiter", ErrInvalidDelimiters)
		}
		for _, other := range chars[i+1:] {
			if c == other {
				return fmt.Errorf("%w: duplicate delimiter %q", ErrInvalidDelimiters, string(c))
			}
		}
	}
	return nil
}
