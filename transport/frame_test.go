package transport

import (
	"bytes"
	"errors"
	"io"
	"testing"

	"energy_routing/protocol"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFramePackLayout(t *testing.T) {
	f := NewFrame(FrameRouteRequest, []byte(`{"a":1}`))
	f.Timestamp = 0x01020304
	f.Flags = 0x7

	data, err := f.Pack()
	require.NoError(t, err)

	assert.Equal(t, uint16(16), f.HeaderLen, "13 header bytes are padded to 16")
	assert.Equal(t, uint32(16+7), f.Length)
	assert.Len(t, data, 23)
	assert.Equal(t, []byte{0, 0, 0, 23}, data[0:4])
	assert.Equal(t, []byte{0, 16}, data[4:6])
	assert.Equal(t, FrameVersion, data[6])
	assert.Equal(t, FrameRouteRequest, data[7])
	assert.Equal(t, []byte{1, 2, 3, 4}, data[8:12])
	assert.Equal(t, byte(7), data[12])
	assert.Equal(t, []byte{0, 0, 0}, data[13:16])
	assert.Equal(t, `{"a":1}`, string(data[16:]))
}

func TestFrameUnpack(t *testing.T) {
	data, err := NewFrame(FrameStatusResponse, []byte("hello")).Pack()
	require.NoError(t, err)

	f, err := Unpack(data)
	require.NoError(t, err)
	assert.Equal(t, FrameStatusResponse, f.FrameType)
	assert.Equal(t, []byte("hello"), f.Body)

	_, err = Unpack(data[:len(data)-1])
	assert.True(t, errors.Is(err, ErrShortFrame))

	_, err = Unpack(data[:5])
	assert.True(t, errors.Is(err, ErrShortFrame))

	bad := append([]byte(nil), data...)
	bad[6] = 9
	_, err = Unpack(bad)
	assert.True(t, errors.Is(err, ErrBadVersion))

	bad = append([]byte(nil), data...)
	bad[5] = 4 // header length below the fixed part
	_, err = Unpack(bad)
	assert.True(t, errors.Is(err, ErrBadHeader))
}

func TestReadFrameFromStream(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteJSON(&buf, FrameRouteRequest, protocol.SampleRequest()))
	require.NoError(t, WriteFrame(&buf, FrameStatusRequest, nil))

	first, err := ReadFrame(&buf, 0)
	require.NoError(t, err)
	assert.Equal(t, FrameRouteRequest, first.FrameType)
	var req protocol.RouteRequest
	require.NoError(t, first.DecodeJSON(&req))
	assert.Equal(t, "5", req.Source)
	assert.Len(t, req.Graph.Edges, 9)

	second, err := ReadFrame(&buf, 0)
	require.NoError(t, err)
	assert.Equal(t, FrameStatusRequest, second.FrameType)
	assert.Empty(t, second.Body)

	_, err = ReadFrame(&buf, 0)
	assert.Equal(t, io.EOF, err)
}

func TestReadFrameLimits(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteFrame(&buf, FrameRouteRequest, make([]byte, 100)))
	_, err := ReadFrame(&buf, 99)
	assert.True(t, errors.Is(err, ErrFrameTooLarge))

	buf.Reset()
	require.NoError(t, WriteFrame(&buf, FrameRouteRequest, make([]byte, 100)))
	truncated := bytes.NewReader(buf.Bytes()[:50])
	_, err = ReadFrame(truncated, 0)
	assert.Equal(t, io.ErrUnexpectedEOF, err)
}

func TestDecodeJSONError(t *testing.T) {
	f := NewFrame(FrameRouteRequest, []byte("{not json"))
	var req protocol.RouteRequest
	assert.Error(t, f.DecodeJSON(&req))
}
