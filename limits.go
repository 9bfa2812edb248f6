package matjson

type Limits struct {
	MaxDocumentLen     uint64 // raw JSON bytes read from a stream
	MaxUncompressedLen uint64 // container payload after decompression
	MaxBinsPerAxis     int
	MaxEntries         int // material entries produced by one import
}

func defaultLimits() Limits {
	return Limits{
		MaxDocumentLen:     1 << 30,   // 1 GiB
		MaxUncompressedLen: 1 << 30,   // 1 GiB
		MaxBinsPerAxis:     1 << 16,   // 65536
		MaxEntries:         1_000_000, // surfaces + volumes
	}
}

func (l Limits) withDefaults() Limits {
	d := defaultLimits()
	if l.MaxDocumentLen == 0 {
		l.MaxDocumentLen = d.MaxDocumentLen
	}
	if l.MaxUncompressedLen == 0 {
		l.MaxUncompressedLen = d.MaxUncompressedLen
	}
	if l.MaxBinsPerAxis == 0 {
		l.MaxBinsPerAxis = d.MaxBinsPerAxis
	}
	if l.MaxEntries == 0 {
		l.MaxEntries = d.MaxEntries
	}
	return l
}
