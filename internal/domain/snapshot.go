// Package domain
package domain

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// Snapshot is one ordered sample of per-core CPU usage; index i is core i.
// Values are percentages as reported by the server and are never clamped.
type Snapshot []float64

// Clone returns an independent copy so the caller cannot mutate shared state.
func (s Snapshot) Clone() Snapshot {
	if s == nil {
		return nil
	}

	out := make(Snapshot, len(s))
	copy(out, s)
	return out
}

func (s Snapshot) Equal(other Snapshot) bool {
	if len(s) != len(other) {
		return false
	}
	for i := range s {
		if s[i] != other[i] {
			return false
		}
	}
	return true
}

// Update is a snapshot as it travels from a sampler to the presenter.
// Seq is assigned when the request is issued (polling) or when the message
// is read (streaming) and only ever increases within one sampler.
type Update struct {
	Seq      uint64
	Source   string
	Snapshot Snapshot
}

var errNotArray = errors.New("payload is not a JSON array of numbers")

// DecodeSnapshot accepts exactly a JSON array of numbers. Anything else,
// including null, objects, strings or nested arrays, is a DecodeError.
func DecodeSnapshot(source string, data []byte) (Snapshot, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] != '[' {
		return nil, &DecodeError{Source: source, Err: errNotArray}
	}

	dec := json.NewDecoder(bytes.NewReader(trimmed))

	var raw []*float64
	if err := dec.Decode(&raw); err != nil {
		return nil, &DecodeError{Source: source, Err: err}
	}

	if dec.More() {
		return nil, &DecodeError{Source: source, Err: errors.New("trailing data after JSON array")}
	}

	values := make(Snapshot, len(raw))
	for i, v := range raw {
		if v == nil {
			return nil, &DecodeError{Source: source, Err: fmt.Errorf("element %d is null", i)}
		}
		values[i] = *v
	}

	return values, nil
}
