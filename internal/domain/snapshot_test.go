package domain

import (
	"context"
	"errors"
	"fmt"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeSnapshot(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    Snapshot
		wantErr bool
	}{
		{name: "two cores", input: "[12.5, 87.333]", want: Snapshot{12.5, 87.333}},
		{name: "empty array", input: "[]", want: Snapshot{}},
		{name: "integers", input: "[0, 100]", want: Snapshot{0, 100}},
		{name: "surrounding whitespace", input: "  [1]\n", want: Snapshot{1}},
		{name: "out of range values kept", input: "[-1, 250.5]", want: Snapshot{-1, 250.5}},
		{name: "empty body", input: "", wantErr: true},
		{name: "not json", input: "<html>", wantErr: true},
		{name: "null", input: "null", wantErr: true},
		{name: "object", input: `{"cpus": [1]}`, wantErr: true},
		{name: "string element", input: `[1, "2"]`, wantErr: true},
		{name: "null element", input: "[1, null]", wantErr: true},
		{name: "nested array", input: "[[1]]", wantErr: true},
		{name: "truncated", input: "[1, 2", wantErr: true},
		{name: "trailing data", input: "[1] [2]", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DecodeSnapshot("poll", []byte(tt.input))
			if tt.wantErr {
				var decodeErr *DecodeError
				require.ErrorAs(t, err, &decodeErr)
				assert.Equal(t, "poll", decodeErr.Source)
				assert.Nil(t, got)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSnapshotClone(t *testing.T) {
	original := Snapshot{1, 2, 3}
	clone := original.Clone()
	clone[0] = 42

	assert.Equal(t, Snapshot{1, 2, 3}, original)
	assert.Nil(t, Snapshot(nil).Clone())
	assert.True(t, original.Equal(Snapshot{1, 2, 3}))
	assert.False(t, original.Equal(clone))
	assert.False(t, original.Equal(Snapshot{1, 2}))
}

func TestKind(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{err: nil, want: ""},
		{err: &TransportError{StatusCode: 500}, want: KindTransport},
		{err: fmt.Errorf("tick 3: %w", &TransportError{StatusCode: 404}), want: KindTransport},
		{err: &DecodeError{Source: "stream", Err: errors.New("bad")}, want: KindDecode},
		{err: &RenderError{Index: 2}, want: KindRender},
		{err: fmt.Errorf("poll: %w", context.Canceled), want: KindCanceled},
		{err: errors.New("connection refused"), want: KindNetwork},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, Kind(tt.err))
	}
}

func TestErrorMessages(t *testing.T) {
	assert.Equal(t, "HTTP error status: 500 (Internal Server Error)", (&TransportError{StatusCode: 500}).Error())
	assert.Equal(t, "render cpu 3: value NaN is not a finite number", (&RenderError{Index: 2, Value: math.NaN()}).Error())

	cause := errors.New("unexpected end of JSON input")
	decodeErr := &DecodeError{Source: "stream", Err: cause}
	assert.ErrorIs(t, decodeErr, cause)
	assert.Contains(t, decodeErr.Error(), "decode stream payload")
}
