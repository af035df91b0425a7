package statusmsg

import (
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/coder/websocket"
	"github.com/fileuploader/uploadwatch/internal/progress"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecode_Valid(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want progress.ItemStatus
	}{
		{
			name: "in progress",
			in:   `{"Id":1,"Percent":42.345,"Timeleft":12.6,"Error":""}`,
			want: progress.ItemStatus{ID: 1, Percent: 42.3, TimeLeftSeconds: 13},
		},
		{
			name: "done",
			in:   `{"Id":2,"Percent":100,"Timeleft":0,"Error":""}`,
			want: progress.ItemStatus{ID: 2, Percent: 100},
		},
		{
			name: "item error",
			in:   `{"Id":3,"Percent":0,"Timeleft":0,"Error":"Processing failed: bad grade"}`,
			want: progress.ItemStatus{ID: 3, Error: "Processing failed: bad grade"},
		},
		{
			name: "initial ping",
			in:   `{"Id":0,"Percent":0,"Timeleft":0,"Error":""}`,
			want: progress.ItemStatus{ID: 0},
		},
		{
			name: "half up rounding",
			in:   `{"Id":4,"Percent":1.05,"Timeleft":0.5,"Error":""}`,
			want: progress.ItemStatus{ID: 4, Percent: 1.1, TimeLeftSeconds: 1},
		},
		{
			name: "out of range is clamped",
			in:   `{"Id":5,"Percent":130,"Timeleft":-4,"Error":""}`,
			want: progress.ItemStatus{ID: 5, Percent: 100},
		},
		{
			name: "huge time left is bounded",
			in:   `{"Id":7,"Percent":10,"Timeleft":1e20,"Error":""}`,
			want: progress.ItemStatus{ID: 7, Percent: 10, TimeLeftSeconds: progress.MaxTimeLeftSeconds},
		},
		{
			name: "missing optional fields",
			in:   `{"Id":6}`,
			want: progress.ItemStatus{ID: 6},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Decode(websocket.MessageText, []byte(tt.in))
			require.NoError(t, err)
			assert.Equal(t, tt.want, *got)
		})
	}
}

func TestDecode_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		typ     websocket.MessageType
		in      string
		wantErr error
	}{
		{name: "binary", typ: websocket.MessageBinary, in: `{"Id":1}`, wantErr: ErrBinaryFrame},
		{name: "empty", typ: websocket.MessageText, in: "  ", wantErr: ErrEmptyFrame},
		{name: "missing id", typ: websocket.MessageText, in: `{"Percent":10}`, wantErr: ErrMissingID},
		{name: "garbage", typ: websocket.MessageText, in: `not json`},
		{name: "wrong type", typ: websocket.MessageText, in: `{"Id":"one","Percent":10}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Decode(tt.typ, []byte(tt.in))
			require.Error(t, err)
			assert.Nil(t, got)

			var decErr *DecodeError
			require.True(t, errors.As(err, &decErr))
			assert.Equal(t, tt.in, decErr.Payload)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			}
		})
	}
}

func TestDecode_TruncatesPayloadInError(t *testing.T) {
	long := strings.Repeat("x", 1000)
	_, err := Decode(websocket.MessageText, []byte(long))

	var decErr *DecodeError
	require.ErrorAs(t, err, &decErr)
	assert.Len(t, decErr.Payload, maxPayloadInError)
}

func TestEncode_RoundTripsThroughDecode(t *testing.T) {
	typ, data, err := Encode(Status{Id: 9, Percent: 55.55, Timeleft: 3.2})
	require.NoError(t, err)
	assert.Equal(t, websocket.MessageText, typ)
	assert.Contains(t, string(data), `"Error":""`)

	got, err := Decode(typ, data)
	require.NoError(t, err)
	assert.Equal(t, progress.ItemStatus{ID: 9, Percent: 55.6, TimeLeftSeconds: 3}, *got)
}

func TestEncode_RejectsNonFinite(t *testing.T) {
	_, _, err := Encode(Status{Id: 1, Timeleft: math.Inf(1)})
	assert.ErrorIs(t, err, ErrNonFiniteNumber)
}
