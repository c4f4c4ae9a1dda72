package checkpoint

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"hash/crc32"
	"io"
	"math"

	"github.com/hupe1980/declust/codec"
)

const (
	// magicNumber identifies declust checkpoint blobs (ASCII: "DCP1").
	magicNumber = 0x44435031
	// formatVersion is the current checkpoint format version (v1.0.0).
	formatVersion = 0x00010000

	codecNameLen = 8
	headerLen    = 4 + 4 + codecNameLen + 4 + 8 + 4
)

var (
	// ErrInvalidMagic is returned when a blob does not start with the
	// checkpoint magic number.
	ErrInvalidMagic = errors.New("invalid magic number")
	// ErrInvalidVersion is returned for unsupported format versions.
	ErrInvalidVersion = errors.New("unsupported version")
	// ErrChecksumMismatch is returned when the payload CRC does not match.
	ErrChecksumMismatch = errors.New("checksum mismatch")
	// ErrUnknownCodec is returned when the header names a codec that is not
	// registered.
	ErrUnknownCodec = errors.New("unknown codec")
	// ErrTruncated is returned when a blob is shorter than its header claims.
	ErrTruncated = errors.New("truncated checkpoint")
)

// Section is a named float32 parameter tensor inside a checkpoint blob.
// Section order is preserved across encode/decode.
type Section struct {
	Name   string
	Values []float32
}

// FindSection returns the section with the given name, or nil.
func FindSection(sections []Section, name string) *Section {
	for i := range sections {
		if sections[i].Name == name {
			return &sections[i]
		}
	}
	return nil
}

// Encode serializes sections into a self-describing checkpoint blob.
// If c is nil, codec.Default is used.
func Encode(sections []Section, c codec.Codec) ([]byte, error) {
	if c == nil {
		c = codec.Default
	}
	if len(c.Name()) > codecNameLen {
		return nil, fmt.Errorf("checkpoint: codec name %q exceeds %d bytes", c.Name(), codecNameLen)
	}

	var payload bytes.Buffer
	for _, s := range sections {
		if len(s.Name) > math.MaxUint16 {
			return nil, fmt.Errorf("checkpoint: section name too long (%d bytes)", len(s.Name))
		}
		if err := binary.Write(&payload, binary.LittleEndian, uint16(len(s.Name))); err != nil {
			return nil, err
		}
		payload.WriteString(s.Name)
		if err := binary.Write(&payload, binary.LittleEndian, uint64(len(s.Values))); err != nil {
			return nil, err
		}
		raw := make([]byte, 4*len(s.Values))
		for i, v := range s.Values {
			binary.LittleEndian.PutUint32(raw[i*4:], math.Float32bits(v))
		}
		payload.Write(raw)
	}

	compressed, err := c.Compress(payload.Bytes())
	if err != nil {
		return nil, fmt.Errorf("checkpoint: compress payload: %w", err)
	}

	out := make([]byte, headerLen, headerLen+len(compressed))
	binary.LittleEndian.PutUint32(out[0:], magicNumber)
	binary.LittleEndian.PutUint32(out[4:], formatVersion)
	copy(out[8:8+codecNameLen], c.Name())
	binary.LittleEndian.PutUint32(out[16:], uint32(len(sections)))
	binary.LittleEndian.PutUint64(out[20:], uint64(len(compressed)))
	binary.LittleEndian.PutUint32(out[28:], crc32.ChecksumIEEE(compressed))

	return append(out, compressed...), nil
}

// Decode parses a checkpoint blob produced by Encode, verifying the magic,
// version and payload checksum, and selecting the codec named in the header.
func Decode(data []byte) ([]Section, error) {
	if len(data) < headerLen {
		return nil, ErrTruncated
	}

	if binary.LittleEndian.Uint32(data[0:]) != magicNumber {
		return nil, ErrInvalidMagic
	}
	if binary.LittleEndian.Uint32(data[4:]) != formatVersion {
		return nil, ErrInvalidVersion
	}

	codecName := string(bytes.TrimRight(data[8:8+codecNameLen], "\x00"))
	c, ok := codec.ByName(codecName)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownCodec, codecName)
	}

	sectionCount := binary.LittleEndian.Uint32(data[16:])
	payloadLen := binary.LittleEndian.Uint64(data[20:])
	wantCRC := binary.LittleEndian.Uint32(data[28:])

	if uint64(len(data)-headerLen) < payloadLen {
		return nil, ErrTruncated
	}
	compressed := data[headerLen : headerLen+int(payloadLen)]

	if crc32.ChecksumIEEE(compressed) != wantCRC {
		return nil, ErrChecksumMismatch
	}

	payload, err := c.Decompress(compressed)
	if err != nil {
		return nil, fmt.Errorf("checkpoint: decompress payload: %w", err)
	}

	sections := make([]Section, 0, sectionCount)
	r := bytes.NewReader(payload)
	for i := uint32(0); i < sectionCount; i++ {
		var nameLen uint16
		if err := binary.Read(r, binary.LittleEndian, &nameLen); err != nil {
			return nil, ErrTruncated
		}
		nameBytes := make([]byte, nameLen)
		if _, err := io.ReadFull(r, nameBytes); err != nil {
			return nil, ErrTruncated
		}
		var count uint64
		if err := binary.Read(r, binary.LittleEndian, &count); err != nil {
			return nil, ErrTruncated
		}
		raw := make([]byte, 4*count)
		if _, err := io.ReadFull(r, raw); err != nil {
			return nil, ErrTruncated
		}
		values := make([]float32, count)
		for j := range values {
			values[j] = math.Float32frombits(binary.LittleEndian.Uint32(raw[j*4:]))
		}
		sections = append(sections, Section{Name: string(nameBytes), Values: values})
	}

	return sections, nil
}
