package matjson

import (
	"archive/zip"
	"bytes"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/andybalholm/brotli"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// payloadEntryName is the single entry of a CompZIP payload.
const payloadEntryName = "materials.json"

// Swapped out by tests.
var (
	newZstdEncoder = func(w io.Writer) (*zstd.Encoder, error) {
		return zstd.NewWriter(w, zstd.WithEncoderLevel(zstd.SpeedBetterCompression))
	}
	newZstdDecoder = func(r io.Reader) (*zstd.Decoder, error) {
		return zstd.NewReader(r, zstd.WithDecoderConcurrency(1))
	}
	zipCreate = func(zw *zip.Writer, name string) (io.Writer, error) { return zw.Create(name) }
	readAll   = io.ReadAll
)

// payloadCodec packs raw JSON into w and opens a reader over packed bytes.
type payloadCodec struct {
	pack   func(w io.Writer, raw []byte) error
	unpack func(packed []byte, expected uint64) (io.ReadCloser, error)
}

var payloadCodecs = map[Compression]payloadCodec{
	CompZIP:  {pack: packZIP, unpack: unpackZIP},
	CompZSTD: {pack: packZSTD, unpack: unpackZSTD},
	CompLZ4:  {pack: packLZ4, unpack: unpackLZ4},
	CompBR:   {pack: packBrotli, unpack: unpackBrotli},
}

// compressPayload compresses raw JSON with comp and returns the header
// flags together with the payload. Compressed payloads start with the
// little-endian uncompressed length.
func compressPayload(comp Compression, raw []byte) (uint16, []byte, error) {
	if comp == CompNone {
		return uint16(CompNone), raw, nil
	}
	codec, ok := payloadCodecs[comp]
	if !ok {
		return 0, nil, fmt.Errorf("%w: unknown compression %d", ErrInvalidContainer, comp)
	}
	var buf bytes.Buffer
	buf.Write(binary.LittleEndian.AppendUint64(nil, uint64(len(raw))))
	if err := codec.pack(&buf, raw); err != nil {
		return 0, nil, fmt.Errorf("%s compress: %w", comp, err)
	}
	return uint16(comp) | flagHasUncompressedLen, buf.Bytes(), nil
}

// decompressPayload restores the raw JSON of a payload. The declared
// length must not exceed maxUncompressed and must match what the stream
// actually expands to.
func decompressPayload(comp Compression, flags uint16, payload []byte, maxUncompressed uint64) ([]byte, error) {
	hasLen := flags&flagHasUncompressedLen != 0
	if comp == CompNone {
		if hasLen {
			return nil, fmt.Errorf("%w: uncompressed payload declares a length", ErrInvalidContainer)
		}
		return payload, nil
	}
	codec, ok := payloadCodecs[comp]
	if !ok {
		return nil, fmt.Errorf("%w: unknown compression %d", ErrInvalidContainer, comp)
	}
	if !hasLen {
		return nil, fmt.Errorf("%w: %s payload without length", ErrInvalidContainer, comp)
	}
	if len(payload) < 8 {
		return nil, fmt.Errorf("%w: payload too short for uncompressed length", ErrInvalidContainer)
	}
	want := binary.LittleEndian.Uint64(payload)
	if want > maxUncompressed {
		return nil, fmt.Errorf("%w: uncompressed length %d exceeds limit", ErrLimitExceeded, want)
	}

	rc, err := codec.unpack(payload[8:], want)
	if err != nil {
		return nil, fmt.Errorf("%s decompress: %w", comp, err)
	}
	defer rc.Close()
	out, err := readAll(io.LimitReader(rc, int64(want)+1))
	if err != nil {
		return nil, fmt.Errorf("%s decompress: %w", comp, err)
	}
	switch {
	case uint64(len(out)) > want:
		return nil, fmt.Errorf("%w: %s payload expands beyond %d bytes", ErrInvalidContainer, comp, want)
	case uint64(len(out)) < want:
		return nil, fmt.Errorf("%w: %s payload expands to %d bytes, header says %d", ErrInvalidContainer, comp, len(out), want)
	}
	return out, nil
}

func packZIP(w io.Writer, raw []byte) error {
	zw := zip.NewWriter(w)
	entry, err := zipCreate(zw, payloadEntryName)
	if err == nil {
		_, err = entry.Write(raw)
	}
	if cerr := zw.Close(); err == nil {
		err = cerr
	}
	return err
}

// unpackZIP accepts an archive holding exactly the payload entry with the
// declared size.
func unpackZIP(packed []byte, expected uint64) (io.ReadCloser, error) {
	zr, err := zip.NewReader(bytes.NewReader(packed), int64(len(packed)))
	if err != nil {
		return nil, err
	}
	if len(zr.File) != 1 {
		return nil, fmt.Errorf("%w: zip holds %d entries, want 1", ErrInvalidContainer, len(zr.File))
	}
	zf := zr.File[0]
	switch {
	case zf.Name != payloadEntryName:
		return nil, fmt.Errorf("%w: zip entry %q, want %s", ErrInvalidContainer, zf.Name, payloadEntryName)
	case zf.FileInfo().IsDir():
		return nil, fmt.Errorf("%w: zip entry is a directory", ErrInvalidContainer)
	case zf.UncompressedSize64 != expected:
		return nil, fmt.Errorf("%w: zip entry size %d, header says %d", ErrInvalidContainer, zf.UncompressedSize64, expected)
	}
	return zf.Open()
}

func packZSTD(w io.Writer, raw []byte) error {
	enc, err := newZstdEncoder(w)
	if err != nil {
		return err
	}
	if _, err := enc.Write(raw); err != nil {
		enc.Close()
		return err
	}
	return enc.Close()
}

func unpackZSTD(packed []byte, _ uint64) (io.ReadCloser, error) {
	dec, err := newZstdDecoder(bytes.NewReader(packed))
	if err != nil {
		return nil, err
	}
	return dec.IOReadCloser(), nil
}

func packLZ4(w io.Writer, raw []byte) error {
	zw := lz4.NewWriter(w)
	if _, err := zw.Write(raw); err != nil {
		zw.Close()
		return err
	}
	return zw.Close()
}

func unpackLZ4(packed []byte, _ uint64) (io.ReadCloser, error) {
	return io.NopCloser(lz4.NewReader(bytes.NewReader(packed))), nil
}

func packBrotli(w io.Writer, raw []byte) error {
	bw := brotli.NewWriterLevel(w, brotli.DefaultCompression)
	if _, err := bw.Write(raw); err != nil {
		bw.Close()
		return err
	}
	return bw.Close()
}

func unpackBrotli(packed []byte, _ uint64) (io.ReadCloser, error) {
	return io.NopCloser(brotli.NewReader(bytes.NewReader(packed))), nil
}
