package hl7v2

import (
	"errors"
	"testing"
)

func TestDefaultDelimiters(t *testing.T) {
	d := DefaultDelimiters()

	if d.Field != '|' || d.Component != '^' || d.Repetition != '~' || d.Escape != '\\' || d.Subcomponent != '&' {
		t.Errorf("unexpected defaults: %+v", d)
	}
	if d.EncodingCharacters() != "^~\\&" {
		t.Errorf("expected encoding characters '^~\\&', got %q", d.EncodingCharacters())
	}
}

func TestDelimitersFromEncodingCharacters(t *testing.T) {
	d, err := DelimitersFromEncodingCharacters("^~\\&", '|')
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if d != DefaultDelimiters() {
		t.Errorf("expected defaults, got %+v", d)
	}

	// Non-standard but valid.
	d, err = DelimitersFromEncodingCharacters("*+'\"", '#')
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if d.Component != '*' || d.Repetition != '+' || d.Escape != '\'' || d.Subcomponent != '"' {
		t.Errorf("unexpected set: %+v", d)
	}
}

func TestDelimitersFromEncodingCharacters_Invalid(t *testing.T) {
	cases := []struct {
		name     string
		enc      string
		fieldSep byte
	}{
		{"too short", "^~\\", '|'},
		{"too long", "^~\\&&", '|'},
		{"empty", "", '|'},
		{"duplicate", "^^\\&", '|'},
		{"reuses field separator", "|~\\&", '|'},
		{"uses segment terminator", "^~\r&", '|'},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := DelimitersFromEncodingCharacters(tc.enc, tc.fieldSep)
			if !errors.Is(err, ErrInvalidDelimiters) {
				t.Errorf("expected ErrInvalidDelimiters, got %v", err)
			}
		})
	}
}
