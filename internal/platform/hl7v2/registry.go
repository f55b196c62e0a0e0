package hl7v2

import (
	"fmt"
	"sync"
)

// SegmentCodec converts between a generic Segment and a caller-defined
// typed structure, typically for organization-specific Z-segments.
type SegmentCodec interface {
	// Decode builds the typed representation of seg.
	Decode(seg *Segment) (interface{}, error)

	// Encode rebuilds a generic Segment from the typed representation.
	Encode(v interface{}) (Segment, error)
}

// SegmentRegistry maps segment IDs to codecs. It is owned and consulted by
// callers (validators, converters); the parser never touches it — unknown
// segment IDs always round-trip structurally unchanged without one.
//
// Registration typically happens once at startup while lookups run per
// message on many connections, so reads take a shared lock.
type SegmentRegistry struct {
	mu     sync.RWMutex
	codecs map[string]SegmentCodec
}

// NewSegmentRegistry creates an empty registry.
func NewSegmentRegistry() *SegmentRegistry {
	return &SegmentRegistry{codecs: make(map[string]SegmentCodec)}
}

// Register binds a codec to a segment ID. Registering the same ID twice is
// an error: silently replacing a codec mid-flight would change how
// in-flight traffic decodes.
func (r *SegmentRegistry) Register(id string, codec SegmentCodec) error {
	if !validSegmentID(id) {
		return fmt.Errorf("hl7v2: segment ID %q is not 3 uppercase alphanumerics", id)
	}
	if codec == nil {
		return fmt.Errorf("hl7v2: nil codec for segment %q", id)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.codecs[id]; exists {
		return fmt.Errorf("hl7v2: segment %q already registered", id)
	}
	r.codecs[id] = codec
	return nil
}

// Lookup returns the codec registered for id, if any.
func (r *SegmentRegistry) Lookup(id string) (SegmentCodec, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	codec, ok := r.codecs[id]
	return codec, ok
}

// Decode decodes seg with its registered codec. The second return value is
// false when no codec is registered for the segment's ID.
func (r *SegmentRegistry) Decode(seg *Segment) (interface{}, bool, error) {
	codec, ok := r.Lookup(seg.ID)
	if !ok {
		return nil, false, nil
	}
	v, err := codec.Decode(seg)
	return v, true, err
}

// Encode rebuilds a generic Segment for id from a typed value. The second
// return value is false when no codec is registered.
func (r *SegmentRegistry) Encode(id string, v interface{}) (Segment, bool, error) {
	codec, ok := r.Lookup(id)
	if !ok {
		return Segment{}, false, nil
	}
	seg, err := codec.Encode(v)
	return seg, true, err
}
