// Package main provides C-compatible exports for the matjson library.
// Build with: go build -buildmode=c-shared -o matjson.dll
package main

/*
#include <stdlib.h>
#include <stdint.h>

// Result structure for operations that return data
typedef struct {
    char* data;
    int   data_len;
    char* error;
} MatjsonResult;
*/
import "C"

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"unsafe"

	"github.com/logicossoftware/go-matjson"
)

func main() {}

// MatjsonVersion returns the container format version supported by this library.
//
//export MatjsonVersion
func MatjsonVersion() C.uint16_t {
	return C.uint16_t(matjson.VersionV1)
}

// MatjsonFreeResult frees memory allocated by other Matjson functions.
// Must be called to avoid memory leaks.
//
//export MatjsonFreeResult
func MatjsonFreeResult(result C.MatjsonResult) {
	if result.data != nil {
		C.free(unsafe.Pointer(result.data))
	}
	if result.error != nil {
		C.free(unsafe.Pointer(result.error))
	}
}

// MatjsonFreeString frees a C string allocated by Go.
//
//export MatjsonFreeString
func MatjsonFreeString(s *C.char) {
	if s != nil {
		C.free(unsafe.Pointer(s))
	}
}

func makeResult(data []byte) C.MatjsonResult {
	var result C.MatjsonResult
	if len(data) > 0 {
		result.data = (*C.char)(C.CBytes(data))
		result.data_len = C.int(len(data))
	}
	return result
}

func makeError(err error) C.MatjsonResult {
	var result C.MatjsonResult
	result.error = C.CString(err.Error())
	return result
}

// converter builds a converter from an optional YAML or TOML config path.
func converter(configPath *C.char) (*matjson.Converter, error) {
	cfg := matjson.DefaultConfig()
	if configPath != nil {
		if p := C.GoString(configPath); p != "" {
			var err error
			if cfg, err = matjson.LoadConfig(p); err != nil {
				return nil, err
			}
		}
	}
	return matjson.New(cfg)
}

// readDocument accepts a plain JSON document or a container.
func readDocument(data *C.char, dataLen C.int) (matjson.Document, error) {
	goData := C.GoBytes(unsafe.Pointer(data), dataLen)
	return matjson.ReadAny(bytes.NewReader(goData))
}

// MatjsonPack wraps a JSON material document in a compressed container.
// Parameters:
//   - data: pointer to JSON document bytes
//   - dataLen: length of the data
//   - compression: compression algorithm (0=None, 1=ZIP, 2=ZSTD, 3=LZ4, 4=Brotli)
//
// Returns MatjsonResult with container bytes or error. Call MatjsonFreeResult when done.
//
//export MatjsonPack
func MatjsonPack(data *C.char, dataLen C.int, compression C.uint16_t) C.MatjsonResult {
	goData := C.GoBytes(unsafe.Pointer(data), dataLen)
	doc, err := matjson.ReadDocument(bytes.NewReader(goData))
	if err != nil {
		return makeError(err)
	}
	var buf bytes.Buffer
	if err := matjson.WriteContainer(&buf, doc, matjson.WithCompression(matjson.Compression(compression))); err != nil {
		return makeError(err)
	}
	return makeResult(buf.Bytes())
}

// MatjsonUnpack returns the indented JSON held by a container. Plain JSON
// input is re-serialized.
//
//export MatjsonUnpack
func MatjsonUnpack(data *C.char, dataLen C.int) C.MatjsonResult {
	doc, err := readDocument(data, dataLen)
	if err != nil {
		return makeError(err)
	}
	var buf bytes.Buffer
	if err := matjson.WriteDocument(&buf, doc); err != nil {
		return makeError(err)
	}
	return makeResult(buf.Bytes())
}

// MatjsonValidate checks every material entry of a document.
// Returns NULL on success, or all problems joined by newlines.
// Call MatjsonFreeString on the result if non-NULL.
//
//export MatjsonValidate
func MatjsonValidate(data *C.char, dataLen C.int, configPath *C.char) *C.char {
	conv, err := converter(configPath)
	if err != nil {
		return C.CString(err.Error())
	}
	doc, err := readDocument(data, dataLen)
	if err != nil {
		return C.CString(err.Error())
	}
	if errs := conv.ValidateDocument(context.Background(), doc); len(errs) > 0 {
		return C.CString(errors.Join(errs...).Error())
	}
	return nil
}

// MatjsonSkeleton re-exports a document without material values.
//
// Returns MatjsonResult with the JSON skeleton or error. Call MatjsonFreeResult when done.
//
//export MatjsonSkeleton
func MatjsonSkeleton(data *C.char, dataLen C.int, configPath *C.char) C.MatjsonResult {
	conv, err := converter(configPath)
	if err != nil {
		return makeError(err)
	}
	doc, err := readDocument(data, dataLen)
	if err != nil {
		return makeError(err)
	}
	skel, err := conv.Skeleton(context.Background(), doc)
	if err != nil {
		return makeError(err)
	}
	var buf bytes.Buffer
	if err := matjson.WriteDocument(&buf, skel); err != nil {
		return makeError(err)
	}
	return makeResult(buf.Bytes())
}

// MatjsonSummary returns per-category entry counts as a JSON object.
//
//export MatjsonSummary
func MatjsonSummary(data *C.char, dataLen C.int, configPath *C.char) C.MatjsonResult {
	conv, err := converter(configPath)
	if err != nil {
		return makeError(err)
	}
	doc, err := readDocument(data, dataLen)
	if err != nil {
		return makeError(err)
	}
	s, err := conv.Summarize(context.Background(), doc)
	if err != nil {
		return makeError(err)
	}
	jsonBytes, err := json.Marshal(map[string]any{
		"geoversion":   s.GeoVersion,
		"volumes":      s.Volumes,
		"layers":       s.Layers,
		"sensitive":    s.Sensitive,
		"approach":     s.Approach,
		"representing": s.Representing,
		"boundary":     s.Boundary,
		"volume":       s.Volume,
		"proto":        s.Proto,
	})
	if err != nil {
		return makeError(err)
	}
	return makeResult(jsonBytes)
}

// MatjsonGetSurfaceCount returns the number of surface material entries a
// document imports to. Returns -1 on error.
//
//export MatjsonGetSurfaceCount
func MatjsonGetSurfaceCount(data *C.char, dataLen C.int) C.int {
	maps, err := importMaps(data, dataLen)
	if err != nil {
		return -1
	}
	return C.int(len(maps.Surfaces))
}

// MatjsonGetVolumeCount returns the number of volume material entries a
// document imports to. Returns -1 on error.
//
//export MatjsonGetVolumeCount
func MatjsonGetVolumeCount(data *C.char, dataLen C.int) C.int {
	maps, err := importMaps(data, dataLen)
	if err != nil {
		return -1
	}
	return C.int(len(maps.Volumes))
}

func importMaps(data *C.char, dataLen C.int) (matjson.Maps, error) {
	conv, err := converter(nil)
	if err != nil {
		return matjson.Maps{}, err
	}
	doc, err := readDocument(data, dataLen)
	if err != nil {
		return matjson.Maps{}, err
	}
	return conv.DocumentToMaps(context.Background(), doc)
}
