package matjson

import (
	"encoding/binary"
	"fmt"
	"io"
)

// containerHeader is the fixed 24-byte little-endian container prefix.
type containerHeader struct {
	Magic      [8]byte
	Version    uint16
	Flags      uint16
	Reserved   uint32
	PayloadLen uint64
}

func readHeader(r io.Reader) (containerHeader, error) {
	var buf [containerHeaderSize]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return containerHeader{}, err
	}
	return parseHeader(buf), nil
}

func parseHeader(buf [containerHeaderSize]byte) containerHeader {
	var h containerHeader
	copy(h.Magic[:], buf[0:8])
	h.Version = binary.LittleEndian.Uint16(buf[8:10])
	h.Flags = binary.LittleEndian.Uint16(buf[10:12])
	h.Reserved = binary.LittleEndian.Uint32(buf[12:16])
	h.PayloadLen = binary.LittleEndian.Uint64(buf[16:24])
	return h
}

func writeHeader(w io.Writer, h containerHeader) error {
	var buf [containerHeaderSize]byte
	copy(buf[0:8], h.Magic[:])
	binary.LittleEndian.PutUint16(buf[8:10], h.Version)
	binary.LittleEndian.PutUint16(buf[10:12], h.Flags)
	binary.LittleEndian.PutUint32(buf[12:16], h.Reserved)
	binary.LittleEndian.PutUint64(buf[16:24], h.PayloadLen)
	_, err := w.Write(buf[:])
	return err
}

func (h containerHeader) compression() Compression {
	return Compression(h.Flags & flagCompressionMask)
}

func (h containerHeader) hasUncompressedLen() bool {
	return (h.Flags & flagHasUncompressedLen) != 0
}

func validateHeader(h containerHeader, limits Limits) error {
	if h.Magic != Magic {
		return ErrInvalidMagic
	}
	if h.Version != VersionV1 {
		return fmt.Errorf("%w: %d", ErrUnsupportedVersion, h.Version)
	}
	if h.Reserved != 0 {
		return fmt.Errorf("%w: reserved must be 0", ErrInvalidContainer)
	}
	if h.Flags&^(flagCompressionMask|flagHasUncompressedLen) != 0 {
		return fmt.Errorf("%w: unknown flags 0x%04x", ErrInvalidContainer, h.Flags)
	}
	comp := h.compression()
	switch comp {
	case CompNone, CompZIP, CompZSTD, CompLZ4, CompBR:
	default:
		return fmt.Errorf("%w: unknown compression %d", ErrInvalidContainer, comp)
	}
	if comp == CompNone {
		if h.hasUncompressedLen() {
			return fmt.Errorf("%w: COMP_NONE must not set HAS_UNCOMPRESSED_LEN", ErrInvalidContainer)
		}
	} else {
		if !h.hasUncompressedLen() {
			return fmt.Errorf("%w: compressed payload must set HAS_UNCOMPRESSED_LEN", ErrInvalidContainer)
		}
	}
	if h.PayloadLen > limits.MaxDocumentLen {
		return fmt.Errorf("%w: payload length %d", ErrLimitExceeded, h.PayloadLen)
	}
	return nil
}
