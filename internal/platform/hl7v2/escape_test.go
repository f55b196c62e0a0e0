package hl7v2

import "testing"

func TestDecodeEscapes_ReservedCharacters(t *testing.T) {
	d := DefaultDelimiters()

	cases := []struct {
		in   string
		want string
	}{
		{`\F\`, "|"},
		{`\S\`, "^"},
		{`\R\`, "~"},
		{`\T\`, "&"},
		{`\E\`, `\`},
		{`A\F\B\S\C`, "A|B^C"},
		{"no escapes here", "no escapes here"},
		{"", ""},
	}
	for _, tc := range cases {
		if got := decodeEscapes(tc.in, d); got != tc.want {
			t.Errorf("decodeEscapes(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestDecodeEscapes_Hex(t *testing.T) {
	d := DefaultDelimiters()

	if got := decodeEscapes(`\X0D\`, d); got != "\r" {
		t.Errorf("expected CR, got %q", got)
	}
	if got := decodeEscapes(`\X414243\`, d); got != "ABC" {
		t.Errorf("expected 'ABC', got %q", got)
	}
	// Odd-length or invalid hex passes through verbatim.
	if got := decodeEscapes(`\X0\`, d); got != `\X0\` {
		t.Errorf("expected verbatim pass-through, got %q", got)
	}
	if got := decodeEscapes(`\XZZ\`, d); got != `\XZZ\` {
		t.Errorf("expected verbatim pass-through, got %q", got)
	}
}

func TestDecodeEscapes_VendorSequencesPreserved(t *testing.T) {
	d := DefaultDelimiters()

	for _, in := range []string{`\Zcustom\`, `\Cxx\`, `\H\`, `\.br\`} {
		if got := decodeEscapes(in, d); got != in {
			t.Errorf("expected %q preserved, got %q", in, got)
		}
	}
}

func TestDecodeEscapes_UnterminatedPassesThrough(t *testing.T) {
	d := DefaultDelimiters()

	cases := []string{`abc\F`, `abc\`, `\X0D`, `trailing\Zxx`}
	for _, in := range cases {
		if got := decodeEscapes(in, d); got != in {
			t.Errorf("expected unterminated escape preserved: %q, got %q", in, got)
		}
	}
}

func TestEncodeEscapes_ReservedCharacters(t *testing.T) {
	d := DefaultDelimiters()

	if got := encodeEscapes("A|B^C~D&E", d); got != `A\F\B\S\C\R\D\T\E` {
		t.Errorf("unexpected encoding: %q", got)
	}
	if got := encodeEscapes(`back\slash`, d); got != `back\E\slash` {
		t.Errorf("unexpected encoding: %q", got)
	}
	// The segment terminator cannot appear raw inside a field.
	if got := encodeEscapes("line\rbreak", d); got != `line\X0D\break` {
		t.Errorf("unexpected encoding: %q", got)
	}
	// Other control characters pass through unescaped.
	if got := encodeEscapes("tab\there", d); got != "tab\there" {
		t.Errorf("unexpected encoding: %q", got)
	}
}

func TestEscapes_RoundTrip(t *testing.T) {
	d := DefaultDelimiters()

	cases := []string{
		"plain text",
		"all five: | ^ ~ & \\",
		`already \escaped\ looking`,
		"запись", // multi-byte UTF-8 passes through
		"",
	}
	for _, s := range cases {
		if got := decodeEscapes(encodeEscapes(s, d), d); got != s {
			t.Errorf("round trip of %q gave %q", s, got)
		}
	}
}
