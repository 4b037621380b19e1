package encoding

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/cespare/xxhash/v2"
)

// Envelope layout: magic(4) | version(2) | checksum(8) | length(4) | payload.
const (
	envelopeMagic   = "SHSN"
	EnvelopeVersion = uint16(1)
	headerSize      = 4 + 2 + 8 + 4
)

var (
	ErrBadMagic  = errors.New("encoding: not a snapshot envelope")
	ErrVersion   = errors.New("encoding: unsupported envelope version")
	ErrTruncated = errors.New("encoding: envelope truncated")
	ErrChecksum  = errors.New("encoding: envelope checksum mismatch")
	ErrTooLarge  = errors.New("encoding: payload too large")
)

// Seal wraps payload in a versioned, checksummed envelope.
func Seal(payload []byte) ([]byte, error) {
	if uint64(len(payload)) > uint64(^uint32(0)) {
		return nil, ErrTooLarge
	}
	out := make([]byte, headerSize+len(payload))
	copy(out, envelopeMagic)
	binary.BigEndian.PutUint16(out[4:], EnvelopeVersion)
	binary.BigEndian.PutUint64(out[6:], xxhash.Sum64(payload))
	binary.BigEndian.PutUint32(out[14:], uint32(len(payload)))
	copy(out[headerSize:], payload)
	return out, nil
}

// Open verifies an envelope produced by Seal and returns its payload.
func Open(data []byte) ([]byte, error) {
	if len(data) < headerSize {
		return nil, ErrTruncated
	}
	if string(data[:4]) != envelopeMagic {
		return nil, ErrBadMagic
	}
	if v := binary.BigEndian.Uint16(data[4:]); v != EnvelopeVersion {
		return nil, fmt.Errorf("%w: %d", ErrVersion, v)
	}
	sum := binary.BigEndian.Uint64(data[6:])
	n := binary.BigEndian.Uint32(data[14:])
	payload := data[headerSize:]
	if uint64(len(payload)) != uint64(n) {
		return nil, fmt.Errorf("%w: want %d bytes, have %d", ErrTruncated, n, len(payload))
	}
	if xxhash.Sum64(payload) != sum {
		return nil, ErrChecksum
	}
	return payload, nil
}
