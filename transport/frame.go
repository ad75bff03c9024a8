package transport

import (
	"bytes"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"time"
)

const (
	FrameVersion byte = 1

	FrameRouteRequest   byte = 1
	FrameRouteResponse  byte = 2
	FrameStatusRequest  byte = 3
	FrameStatusResponse byte = 4
	FrameError          byte = 5

	// Length(4) + HeaderLen(2) + Version(1) + FrameType(1) + Timestamp(4) + Flags(1)
	fixedHeaderLen = 4 + 2 + 1 + 1 + 4 + 1

	DefaultMaxBodyBytes = 4 << 20
)

var (
	ErrShortFrame    = errors.New("frame shorter than its header")
	ErrBadHeader     = errors.New("malformed frame header")
	ErrBadVersion    = errors.New("unsupported frame version")
	ErrFrameTooLarge = errors.New("frame body exceeds limit")
)

// Frame is one message on a stream: a big-endian header padded to a
// multiple of 4 bytes followed by a JSON body. Length covers header and body.
type Frame struct {
	Length    uint32
	HeaderLen uint16
	Version   byte
	FrameType byte
	Timestamp uint32
	Flags     byte
	Padding   []byte
	Body      []byte
}

func NewFrame(frameType byte, body []byte) *Frame {
	return &Frame{
		Version:   FrameVersion,
		FrameType: frameType,
		Timestamp: uint32(time.Now().Unix()),
		Body:      body,
	}
}

func (f *Frame) Pack() ([]byte, error) {
	paddingLen := (4 - (fixedHeaderLen % 4)) % 4
	f.HeaderLen = uint16(fixedHeaderLen + paddingLen)

	total := uint64(f.HeaderLen) + uint64(len(f.Body))
	if total > math.MaxUint32 {
		return nil, fmt.Errorf("%w: %d bytes", ErrFrameTooLarge, len(f.Body))
	}
	f.Length = uint32(total)
	f.Padding = make([]byte, paddingLen)

	var buf bytes.Buffer
	buf.Grow(int(total))
	for _, v := range []interface{}{f.Length, f.HeaderLen, f.Version, f.FrameType, f.Timestamp, f.Flags, f.Padding} {
		if err := binary.Write(&buf, binary.BigEndian, v); err != nil {
			return nil, err
		}
	}
	buf.Write(f.Body)

	return buf.Bytes(), nil
}

// Unpack decodes a complete frame held in data
func Unpack(data []byte) (*Frame, error) {
	f, err := unpackHeader(data)
	if err != nil {
		return nil, err
	}
	if uint32(len(data)) != f.Length {
		return nil, fmt.Errorf("%w: length field %d, got %d bytes", ErrShortFrame, f.Length, len(data))
	}
	f.Padding = append([]byte(nil), data[fixedHeaderLen:f.HeaderLen]...)
	f.Body = append([]byte(nil), data[f.HeaderLen:]...)
	return f, nil
}

func unpackHeader(data []byte) (*Frame, error) {
	if len(data) < fixedHeaderLen {
		return nil, ErrShortFrame
	}

	var f Frame
	buf := bytes.NewReader(data[:fixedHeaderLen])
	for _, v := range []interface{}{&f.Length, &f.HeaderLen, &f.Version, &f.FrameType, &f.Timestamp, &f.Flags} {
		if err := binary.Read(buf, binary.BigEndian, v); err != nil {
			return nil, err
		}
	}

	if f.Version != FrameVersion {
		return nil, fmt.Errorf("%w: %d", ErrBadVersion, f.Version)
	}
	if int(f.HeaderLen) < fixedHeaderLen || f.Length < uint32(f.HeaderLen) {
		return nil, fmt.Errorf("%w: length=%d headerLen=%d", ErrBadHeader, f.Length, f.HeaderLen)
	}
	return &f, nil
}

// ReadFrame reads exactly one frame from r. maxBody <= 0 means DefaultMaxBodyBytes.
func ReadFrame(r io.Reader, maxBody int) (*Frame, error) {
	if maxBody <= 0 {
		maxBody = DefaultMaxBodyBytes
	}

	header := make([]byte, fixedHeaderLen)
	if _, err := io.ReadFull(r, header); err != nil {
		return nil, err
	}
	f, err := unpackHeader(header)
	if err != nil {
		return nil, err
	}

	f.Padding = make([]byte, int(f.HeaderLen)-fixedHeaderLen)
	if _, err := io.ReadFull(r, f.Padding); err != nil {
		return nil, err
	}

	bodyLen := int64(f.Length) - int64(f.HeaderLen)
	if bodyLen > int64(maxBody) {
		return nil, fmt.Errorf("%w: %d > %d", ErrFrameTooLarge, bodyLen, maxBody)
	}
	f.Body = make([]byte, bodyLen)
	if _, err := io.ReadFull(r, f.Body); err != nil {
		return nil, err
	}
	return f, nil
}

func WriteFrame(w io.Writer, frameType byte, body []byte) error {
	data, err := NewFrame(frameType, body).Pack()
	if err != nil {
		return err
	}
	_, err = w.Write(data)
	return err
}

func WriteJSON(w io.Writer, frameType byte, v interface{}) error {
	body, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode frame body: %w", err)
	}
	return WriteFrame(w, frameType, body)
}

func (f *Frame) DecodeJSON(v interface{}) error {
	if err := json.Unmarshal(f.Body, v); err != nil {
		return fmt.Errorf("decode frame body (type %d): %w", f.FrameType, err)
	}
	return nil
}
