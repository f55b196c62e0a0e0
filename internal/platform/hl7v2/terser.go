package hl7v2

import "fmt"

// TerserAddress is a parsed terser path:
//
//	SEG ['(' occ ')'] '-' field ['(' rep ')'] ['-' comp ['-' subcomp]]
//
// SEG is exactly three uppercase alphanumerics. Occurrence and repetition
// are 0-based and default to 0; field, component and subcomponent are
// 1-based and component/subcomponent default to 1, mirroring how the
// standard numbers them. Field 0 addresses the segment ID itself.
type TerserAddress struct {
	Segment      string
	Occurrence   int
	Field        int
	Repetition   int
	Component    int
	Subcomponent int
}

// ParseTerserPath parses a path expression into a TerserAddress. Malformed
// syntax is rejected with a PathError; it is never silently defaulted.
func ParseTerserPath(path string) (TerserAddress, error) {
	addr := TerserAddress{Component: 1, Subcomponent: 1}
	fail := func(reason string) (TerserAddress, error) {
		return TerserAddress{}, &PathError{Path: path, Reason: reason}
	}

	if len(path) < 3 || !validSegmentID(path[:3]) {
		return fail("must start with a 3-character uppercase segment ID")
	}
	addr.Segment = path[:3]
	rest := path[3:]

	var ok bool
	if addr.Occurrence, rest, ok = takeParenIndex(rest); !ok {
		return fail("malformed segment occurrence index")
	}

	if len(rest) == 0 || rest[0] != '-' {
		return fail("expected '-' before field number")
	}
	var n int
	if n, rest, ok = takeInt(rest[1:]); !ok {
		return fail("missing field number")
	}
	addr.Field = n

	if addr.Repetition, rest, ok = takeParenIndex(rest); !ok {
		return fail("malformed repetition index")
	}

	if len(rest) > 0 {
		if rest[0] != '-' {
			return fail("unexpected trailing characters")
		}
		if n, rest, ok = takeInt(rest[1:]); !ok {
			return fail("missing component number")
		}
		if n < 1 {
			return fail("component numbers are 1-based")
		}
		addr.Component = n
	}

	if len(rest) > 0 {
		if rest[0] != '-' {
			return fail("unexpected trailing characters")
		}
		if n, rest, ok = takeInt(rest[1:]); !ok {
			return fail("missing subcomponent number")
		}
		if n < 1 {
			return fail("subcomponent numbers are 1-based")
		}
		addr.Subcomponent = n
	}

	if len(rest) != 0 {
		return fail("unexpected trailing characters")
	}
	return addr, nil
}

// takeParenIndex consumes an optional "(n)" prefix.
func takeParenIndex(s string) (int, string, bool) {
	if len(s) == 0 || s[0] != '(' {
		return 0, s, true
	}
	n, rest, ok := takeInt(s[1:])
	if !ok || len(rest) == 0 || rest[0] != ')' {
		return 0, s, false
	}
	return n, rest[1:], true
}

// takeInt consumes a leading run of digits.
func takeInt(s string) (int, string, bool) {
	i := 0
	n := 0
	for i < len(s) && s[i] >= '0' && s[i] <= '9' {
		n = n*10 + int(s[i]-'0')
		i++
	}
	if i == 0 {
		return 0, s, false
	}
	return n, s[i:], true
}

// Terser reads and writes message fields by path expression, without
// manual tree traversal. It holds no state beyond the message reference;
// the concurrency rules of Message apply unchanged.
type Terser struct {
	msg *Message
}

// NewTerser returns a terser over m.
func NewTerser(m *Message) *Terser {
	return &Terser{msg: m}
}

// Get resolves path against the message. The second return value
// distinguishes data that is present (possibly empty) from data that is
// absent; addressing past existing structure is absence, not an error.
// Only a malformed path returns a non-nil error.
func (t *Terser) Get(path string) (string, bool, error) {
	addr, err := ParseTerserPath(path)
	if err != nil {
		return "", false, err
	}

	seg := t.msg.Segment(addr.Segment, addr.Occurrence)
	if seg == nil {
		return "", false, nil
	}
	if addr.Field == 0 {
		return seg.ID, true, nil
	}
	f := seg.Field(addr.Field)
	if f == nil || addr.Repetition >= len(f.Repetitions) {
		return "", false, nil
	}
	rep := &f.Repetitions[addr.Repetition]
	if addr.Component > len(rep.Components) {
		return "", false, nil
	}
	comp := &rep.Components[addr.Component-1]
	if addr.Subcomponent > len(comp.Subcomponents) {
		return "", false, nil
	}
	return comp.Subcomponents[addr.Subcomponent-1], true, nil
}

// Set writes value at path, materializing any missing segment occurrences,
// fields, repetitions, components and subcomponents with empty collapse-rule
// placeholders. Gap filling only appends: existing siblings are never
// truncated or reordered. New segment occurrences are appended at the end
// of the message.
func (t *Terser) Set(path, value string) error {
	addr, err := ParseTerserPath(path)
	if err != nil {
		return err
	}
	if addr.Field == 0 {
		return &PathError{Path: path, Reason: "segment ID is not writable"}
	}
	if addr.Segment == "MSH" && addr.Field <= 2 {
		// MSH-1/MSH-2 mirror Message.Delimiters, which is immutable for
		// the lifetime of the message.
		return &PathError{Path: path, Reason: "MSH delimiter fields are read-only"}
	}

	for t.msg.SegmentCount(addr.Segment) <= addr.Occurrence {
		t.msg.AppendSegment(Segment{ID: addr.Segment})
	}
	seg := t.msg.Segment(addr.Segment, addr.Occurrence)

	for len(seg.Fields) < addr.Field {
		seg.Fields = append(seg.Fields, emptyField())
	}
	f := &seg.Fields[addr.Field-1]

	for len(f.Repetitions) <= addr.Repetition {
		f.Repetitions = append(f.Repetitions, emptyRepetition())
	}
	rep := &f.Repetitions[addr.Repetition]

	for len(rep.Components) < addr.Component {
		rep.Components = append(rep.Components, emptyComponent())
	}
	comp := &rep.Components[addr.Component-1]

	for len(comp.Subcomponents) < addr.Subcomponent {
		comp.Subcomponents = append(comp.Subcomponents, "")
	}
	comp.Subcomponents[addr.Subcomponent-1] = value
	return nil
}

// MustGet is Get for callers that treat absence as empty and have already
// validated the path shape (e.g. fixed paths in tests and converters).
// It panics only on a malformed path, which is a programmer error.
func (t *Terser) MustGet(path string) string {
	v, _, err := t.Get(path)
	if err != nil {
		panic(fmt.Sprintf("hl7v2: MustGet(%q): %v", path, err))
	}
	return v
}
