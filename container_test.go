package matjson

import (
	"bytes"
	"encoding/binary"
	"encoding/json"
	"errors"
	"io"
	"strings"
	"testing"
)

func sampleDocument(t *testing.T) Document {
	t.Helper()
	conv := newConverter(t, DefaultConfig())
	doc, err := conv.GeometryToDocument(t.Context(), detector(t))
	if err != nil {
		t.Fatal(err)
	}
	return doc
}

func marshalDoc(t *testing.T, doc Document) []byte {
	t.Helper()
	b, err := json.Marshal(doc)
	if err != nil {
		t.Fatal(err)
	}
	return b
}

func containerBytes(t *testing.T, doc Document, opts ...WriteOption) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := WriteContainer(&buf, doc, opts...); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func TestHeaderRoundTrip(t *testing.T) {
	h := containerHeader{
		Magic:      Magic,
		Version:    VersionV1,
		Flags:      uint16(CompLZ4) | flagHasUncompressedLen,
		PayloadLen: 1234,
	}
	var buf bytes.Buffer
	if err := writeHeader(&buf, h); err != nil {
		t.Fatal(err)
	}
	if buf.Len() != containerHeaderSize {
		t.Fatalf("header is %d bytes", buf.Len())
	}
	got, err := readHeader(&buf)
	if err != nil {
		t.Fatal(err)
	}
	if got != h {
		t.Fatalf("got %+v, want %+v", got, h)
	}
	if got.compression() != CompLZ4 || !got.hasUncompressedLen() {
		t.Fatalf("flags decoded wrong: %+v", got)
	}
}

func TestContainerRoundTrip(t *testing.T) {
	doc := sampleDocument(t)
	want := marshalDoc(t, doc)
	for _, comp := range []Compression{CompNone, CompZIP, CompZSTD, CompLZ4, CompBR} {
		t.Run(comp.String(), func(t *testing.T) {
			b := containerBytes(t, doc, WithCompression(comp))
			if !bytes.HasPrefix(b, Magic[:]) {
				t.Fatal("missing magic")
			}
			got, err := ReadContainer(bytes.NewReader(b))
			if err != nil {
				t.Fatal(err)
			}
			if !bytes.Equal(marshalDoc(t, got), want) {
				t.Fatal("document changed")
			}
		})
	}
}

func TestContainerDefaultsToZstd(t *testing.T) {
	b := containerBytes(t, sampleDocument(t))
	var head [containerHeaderSize]byte
	copy(head[:], b)
	if c := parseHeader(head).compression(); c != CompZSTD {
		t.Fatalf("got %s", c)
	}
}

func TestReadContainerErrors(t *testing.T) {
	good := containerBytes(t, sampleDocument(t), WithCompression(CompNone))
	patch := func(off int, v uint16) []byte {
		b := bytes.Clone(good)
		binary.LittleEndian.PutUint16(b[off:], v)
		return b
	}

	cases := []struct {
		name string
		in   []byte
		want error
	}{
		{"short header", good[:10], io.ErrUnexpectedEOF},
		{"bad magic", append([]byte("NOTMAGIC"), good[8:]...), ErrInvalidMagic},
		{"version", patch(8, 2), ErrUnsupportedVersion},
		{"reserved", func() []byte { b := bytes.Clone(good); b[12] = 1; return b }(), ErrInvalidContainer},
		{"unknown flags", patch(10, 0x0100), ErrInvalidContainer},
		{"unknown compression", patch(10, 7|flagHasUncompressedLen), ErrInvalidContainer},
		{"none with length", patch(10, flagHasUncompressedLen), ErrInvalidContainer},
		{"compressed without length", patch(10, uint16(CompZSTD)), ErrInvalidContainer},
		{"truncated payload", good[:len(good)-5], io.ErrUnexpectedEOF},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ReadContainer(bytes.NewReader(tc.in))
			if !errors.Is(err, tc.want) {
				t.Fatalf("got %v, want %v", err, tc.want)
			}
		})
	}
}

func TestReadContainerLimits(t *testing.T) {
	doc := sampleDocument(t)
	b := containerBytes(t, doc, WithCompression(CompNone))
	_, err := ReadContainer(bytes.NewReader(b), WithReadLimits(Limits{MaxDocumentLen: 16}))
	if !errors.Is(err, ErrLimitExceeded) {
		t.Fatalf("got %v", err)
	}

	b = containerBytes(t, doc, WithCompression(CompBR))
	_, err = ReadContainer(bytes.NewReader(b), WithReadLimits(Limits{MaxUncompressedLen: 16}))
	if !errors.Is(err, ErrLimitExceeded) {
		t.Fatalf("got %v", err)
	}
}

func TestReadContainerCorruptPayload(t *testing.T) {
	b := containerBytes(t, sampleDocument(t), WithCompression(CompZSTD))
	for i := containerHeaderSize + 8; i < len(b); i++ {
		b[i] ^= 0xA5
	}
	if _, err := ReadContainer(bytes.NewReader(b)); err == nil {
		t.Fatal("expected error")
	}
}

func TestReadContainerNotJSON(t *testing.T) {
	var buf bytes.Buffer
	h := containerHeader{Magic: Magic, Version: VersionV1, PayloadLen: 3}
	if err := writeHeader(&buf, h); err != nil {
		t.Fatal(err)
	}
	buf.WriteString("abc")
	_, err := ReadContainer(&buf)
	if !errors.Is(err, ErrMalformedDocument) {
		t.Fatalf("got %v", err)
	}
}

func TestReadAny(t *testing.T) {
	doc := sampleDocument(t)
	want := marshalDoc(t, doc)

	var plain bytes.Buffer
	if err := WriteDocument(&plain, doc); err != nil {
		t.Fatal(err)
	}
	for name, in := range map[string][]byte{
		"json":      plain.Bytes(),
		"container": containerBytes(t, doc, WithCompression(CompLZ4)),
	} {
		t.Run(name, func(t *testing.T) {
			got, err := ReadAny(bytes.NewReader(in))
			if err != nil {
				t.Fatal(err)
			}
			if !bytes.Equal(marshalDoc(t, got), want) {
				t.Fatal("document changed")
			}
		})
	}

	if _, err := ReadAny(strings.NewReader("{")); !errors.Is(err, ErrMalformedDocument) {
		t.Fatalf("got %v", err)
	}
	if _, err := ReadAny(strings.NewReader("")); !errors.Is(err, ErrMalformedDocument) {
		t.Fatalf("got %v", err)
	}
}

func TestWriteContainerErrors(t *testing.T) {
	doc := sampleDocument(t)

	if err := WriteContainer(io.Discard, nil); !errors.Is(err, ErrMalformedDocument) {
		t.Fatalf("nil document: %v", err)
	}
	if err := WriteContainer(io.Discard, doc, WithCompression(Compression(9))); !errors.Is(err, ErrInvalidContainer) {
		t.Fatalf("unknown compression: %v", err)
	}
	if err := WriteContainer(io.Discard, doc, WithWriteLimits(Limits{MaxUncompressedLen: 10})); !errors.Is(err, ErrLimitExceeded) {
		t.Fatalf("limit: %v", err)
	}
	if err := WriteContainer(errWriter{}, doc); err == nil {
		t.Fatal("expected header write error")
	}
	if err := WriteContainer(&errAfterWriter{remaining: containerHeaderSize}, doc); err == nil {
		t.Fatal("expected payload write error")
	}

	orig := jsonMarshal
	defer func() { jsonMarshal = orig }()
	jsonMarshal = func(Document) ([]byte, error) { return nil, io.ErrClosedPipe }
	if err := WriteContainer(io.Discard, doc); !errors.Is(err, io.ErrClosedPipe) {
		t.Fatalf("marshal: %v", err)
	}
}

func TestWriteDocumentDeterministic(t *testing.T) {
	doc := sampleDocument(t)
	var a, b bytes.Buffer
	if err := WriteDocument(&a, doc); err != nil {
		t.Fatal(err)
	}
	if err := WriteDocument(&b, throughJSON(t, doc)); err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(a.Bytes(), b.Bytes()) {
		t.Fatal("re-serialized document differs")
	}
	if err := WriteDocument(io.Discard, nil); !errors.Is(err, ErrMalformedDocument) {
		t.Fatalf("got %v", err)
	}
}

func TestReadDocument(t *testing.T) {
	for name, in := range map[string]string{
		"array":    `[]`,
		"null":     `null`,
		"trailing": `{"a":1} {"b":2}`,
		"garbage":  `{"a":`,
	} {
		t.Run(name, func(t *testing.T) {
			if _, err := ReadDocument(strings.NewReader(in)); !errors.Is(err, ErrMalformedDocument) {
				t.Fatalf("got %v", err)
			}
		})
	}

	_, err := ReadDocument(strings.NewReader(`{"detector":{}}`), WithReadLimits(Limits{MaxDocumentLen: 4}))
	if !errors.Is(err, ErrLimitExceeded) {
		t.Fatalf("got %v", err)
	}

	doc, err := ReadDocument(strings.NewReader(`{"geoid": 18446744073709551615}`))
	if err != nil {
		t.Fatal(err)
	}
	u, err := asUint64(doc["geoid"])
	if err != nil {
		t.Fatal(err)
	}
	if u != ^uint64(0) {
		t.Fatalf("identifier rounded to %d", u)
	}
}

func TestReadDocumentInjectedReadError(t *testing.T) {
	orig := readAllDocument
	defer func() { readAllDocument = orig }()
	readAllDocument = func(io.Reader) ([]byte, error) { return nil, io.ErrClosedPipe }
	if _, err := ReadDocument(strings.NewReader("{}")); !errors.Is(err, io.ErrClosedPipe) {
		t.Fatalf("got %v", err)
	}
}

func TestLimitsWithDefaults(t *testing.T) {
	got := Limits{MaxEntries: 7}.withDefaults()
	want := defaultLimits()
	want.MaxEntries = 7
	if got != want {
		t.Fatalf("got %+v, want %+v", got, want)
	}
}

func TestParseCompression(t *testing.T) {
	for _, c := range []Compression{CompNone, CompZIP, CompZSTD, CompLZ4, CompBR} {
		got, err := ParseCompression(c.String())
		if err != nil || got != c {
			t.Fatalf("%s: got %v, %v", c, got, err)
		}
	}
	if _, err := ParseCompression("gzip"); !errors.Is(err, ErrInvalidContainer) {
		t.Fatalf("got %v", err)
	}
}
