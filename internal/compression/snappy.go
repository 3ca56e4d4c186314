// Package compression decodes the snappy-compressed payloads era files embed
// for each SignedBeaconBlock and BeaconState record.
package compression

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/golang/snappy"
)

// CompressionError wraps any failure to decompress a record payload.
type CompressionError struct {
	Reason string
	Err    error
}

func (e *CompressionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("compression: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("compression: %s", e.Reason)
}

func (e *CompressionError) Unwrap() error { return e.Err }

// streamMagic is the 10-byte snappy framed-stream identifier chunk.
var streamMagic = []byte{0xff, 0x06, 0x00, 0x00, 0x73, 0x4e, 0x61, 0x50, 0x70, 0x59}

const (
	frameTypeCompressed   = 0x00
	frameTypeUncompressed = 0x01
	checksumLen           = 4
)

// Decompress decodes a snappy payload. It first tries a raw (unframed)
// snappy block, since era files sometimes embed one directly. Failing that,
// it walks the chunked framed format by hand.
func Decompress(data []byte) ([]byte, error) {
	if raw, err := snappy.Decode(nil, data); err == nil {
		return raw, nil
	}

	buf := data
	if bytes.HasPrefix(buf, streamMagic) {
		buf = buf[len(streamMagic):]
	}

	var out bytes.Buffer
	pos := 0
	chunks := 0
	for pos < len(buf) {
		if pos+4 > len(buf) {
			break
		}
		frameType := buf[pos]
		lenBytes := append(append([]byte{}, buf[pos+1:pos+4]...), 0x00)
		frameLen := int(binary.LittleEndian.Uint32(lenBytes))
		pos += 4

		if pos+frameLen > len(buf) {
			return nil, &CompressionError{Reason: "frame exceeds buffer length"}
		}
		payload := buf[pos : pos+frameLen]
		pos += frameLen

		switch frameType {
		case frameTypeCompressed:
			if len(payload) < checksumLen {
				return nil, &CompressionError{Reason: "compressed frame shorter than checksum"}
			}
			decoded, err := snappy.Decode(nil, payload[checksumLen:])
			if err != nil {
				return nil, &CompressionError{Reason: "decode compressed frame", Err: err}
			}
			out.Write(decoded)
			chunks++
		case frameTypeUncompressed:
			if len(payload) < checksumLen {
				return nil, &CompressionError{Reason: "uncompressed frame shorter than checksum"}
			}
			out.Write(payload[checksumLen:])
			chunks++
		default:
			// Unknown/padding/identifier chunk types are skipped.
		}
	}

	if chunks == 0 {
		return nil, &CompressionError{Reason: "no frames decoded", Err: errors.New("empty or unrecognized snappy stream")}
	}
	return out.Bytes(), nil
}
