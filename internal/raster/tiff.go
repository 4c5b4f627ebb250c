package raster

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
)

// TIFF tags read by the opener.
const (
	tagImageWidth          = 256
	tagImageLength         = 257
	tagModelPixelScale     = 33550
	tagModelTiepoint       = 33922
	tagModelTransformation = 34264
	tagGeoKeyDirectory     = 34735
)

// TIFF field types.
const (
	typeByte      = 1
	typeASCII     = 2
	typeShort     = 3
	typeLong      = 4
	typeRational  = 5
	typeSByte     = 6
	typeUndefined = 7
	typeSShort    = 8
	typeSLong     = 9
	typeSRational = 10
	typeFloat     = 11
	typeDouble    = 12
	typeLong8     = 16
	typeSLong8    = 17
	typeIFD8      = 18
)

const (
	maxIFDEntries = 4096
	maxTagBytes   = 1 << 20
)

var errNotTIFF = errors.New("not a TIFF file")

func typeSize(typ uint16) int {
	switch typ {
	case typeByte, typeASCII, typeSByte, typeUndefined:
		return 1
	case typeShort, typeSShort:
		return 2
	case typeLong, typeSLong, typeFloat:
		return 4
	case typeRational, typeSRational, typeDouble, typeLong8, typeSLong8, typeIFD8:
		return 8
	}
	return 0
}

type ifdEntry struct {
	tag    uint16
	typ    uint16
	count  uint64
	inline []byte
}

// tiffReader decodes the first image directory of a TIFF or BigTIFF stream.
type tiffReader struct {
	r       io.ReaderAt
	order   binary.ByteOrder
	bigTIFF bool
	entries map[uint16]ifdEntry
}

func isTIFFHeader(b []byte) bool {
	if len(b) < 4 {
		return false
	}
	switch string(b[:2]) {
	case "II":
		v := binary.LittleEndian.Uint16(b[2:4])
		return v == 42 || v == 43
	case "MM":
		v := binary.BigEndian.Uint16(b[2:4])
		return v == 42 || v == 43
	}
	return false
}

func newTIFFReader(r io.ReaderAt) (*tiffReader, error) {
	hdr := make([]byte, 16)
	n, err := r.ReadAt(hdr, 0)
	if n < 8 {
		if err == nil || errors.Is(err, io.EOF) {
			err = errNotTIFF
		}
		return nil, err
	}
	if !isTIFFHeader(hdr) {
		return nil, errNotTIFF
	}

	t := &tiffReader{r: r, order: binary.LittleEndian}
	if hdr[0] == 'M' {
		t.order = binary.BigEndian
	}

	var ifdOffset uint64
	switch t.order.Uint16(hdr[2:4]) {
	case 42:
		ifdOffset = uint64(t.order.Uint32(hdr[4:8]))
	case 43:
		if n < 16 {
			return nil, fmt.Errorf("truncated BigTIFF header")
		}
		if t.order.Uint16(hdr[4:6]) != 8 {
			return nil, fmt.Errorf("unsupported BigTIFF offset size %d", t.order.Uint16(hdr[4:6]))
		}
		t.bigTIFF = true
		ifdOffset = t.order.Uint64(hdr[8:16])
	}

	if err := t.readIFD(ifdOffset); err != nil {
		return nil, err
	}
	return t, nil
}

func (t *tiffReader) readIFD(offset uint64) error {
	countLen, entryLen := 2, 12
	if t.bigTIFF {
		countLen, entryLen = 8, 20
	}

	buf := make([]byte, countLen)
	if _, err := t.r.ReadAt(buf, int64(offset)); err != nil {
		return fmt.Errorf("read IFD header at %d: %w", offset, err)
	}
	var count uint64
	if t.bigTIFF {
		count = t.order.Uint64(buf)
	} else {
		count = uint64(t.order.Uint16(buf))
	}
	if count == 0 || count > maxIFDEntries {
		return fmt.Errorf("implausible IFD entry count %d", count)
	}

	raw := make([]byte, int(count)*entryLen)
	if _, err := t.r.ReadAt(raw, int64(offset)+int64(countLen)); err != nil {
		return fmt.Errorf("read IFD entries: %w", err)
	}

	t.entries = make(map[uint16]ifdEntry, count)
	for i := 0; i < int(count); i++ {
		b := raw[i*entryLen : (i+1)*entryLen]
		e := ifdEntry{
			tag: t.order.Uint16(b[0:2]),
			typ: t.order.Uint16(b[2:4]),
		}
		if t.bigTIFF {
			e.count = t.order.Uint64(b[4:12])
			e.inline = b[12:20]
		} else {
			e.count = uint64(t.order.Uint32(b[4:8]))
			e.inline = b[8:12]
		}
		t.entries[e.tag] = e
	}
	return nil
}

// data returns the raw value bytes of a tag, following the offset when the
// value does not fit inline.
func (t *tiffReader) data(e ifdEntry) ([]byte, error) {
	size := typeSize(e.typ)
	if size == 0 {
		return nil, fmt.Errorf("tag %d: unknown field type %d", e.tag, e.typ)
	}
	if e.count > maxTagBytes/uint64(size) {
		return nil, fmt.Errorf("tag %d: value too large (%d items)", e.tag, e.count)
	}
	n := int(e.count) * size
	if n <= len(e.inline) {
		return e.inline[:n], nil
	}

	var off uint64
	if t.bigTIFF {
		off = t.order.Uint64(e.inline)
	} else {
		off = uint64(t.order.Uint32(e.inline))
	}
	buf := make([]byte, n)
	if _, err := t.r.ReadAt(buf, int64(off)); err != nil {
		return nil, fmt.Errorf("tag %d: read value at %d: %w", e.tag, off, err)
	}
	return buf, nil
}

// uints returns an unsigned integer tag's values.
func (t *tiffReader) uints(tag uint16) ([]uint64, bool, error) {
	e, ok := t.entries[tag]
	if !ok {
		return nil, false, nil
	}
	b, err := t.data(e)
	if err != nil {
		return nil, true, err
	}
	out := make([]uint64, e.count)
	for i := range out {
		switch e.typ {
		case typeByte, typeUndefined:
			out[i] = uint64(b[i])
		case typeShort:
			out[i] = uint64(t.order.Uint16(b[i*2:]))
		case typeLong:
			out[i] = uint64(t.order.Uint32(b[i*4:]))
		case typeLong8, typeIFD8:
			out[i] = t.order.Uint64(b[i*8:])
		default:
			return nil, true, fmt.Errorf("tag %d: expected unsigned integer type, got %d", tag, e.typ)
		}
	}
	return out, true, nil
}

// floats returns a DOUBLE or FLOAT tag's values.
func (t *tiffReader) floats(tag uint16) ([]float64, bool, error) {
	e, ok := t.entries[tag]
	if !ok {
		return nil, false, nil
	}
	b, err := t.data(e)
	if err != nil {
		return nil, true, err
	}
	out := make([]float64, e.count)
	for i := range out {
		switch e.typ {
		case typeDouble:
			out[i] = math.Float64frombits(t.order.Uint64(b[i*8:]))
		case typeFloat:
			out[i] = float64(math.Float32frombits(t.order.Uint32(b[i*4:])))
		default:
			return nil, true, fmt.Errorf("tag %d: expected floating point type, got %d", tag, e.typ)
		}
	}
	return out, true, nil
}

// dimensions returns ImageWidth and ImageLength.
func (t *tiffReader) dimensions() (cols, rows int, err error) {
	w, ok, err := t.uints(tagImageWidth)
	if err != nil {
		return 0, 0, err
	}
	if !ok || len(w) != 1 {
		return 0, 0, fmt.Errorf("missing ImageWidth")
	}
	h, ok, err := t.uints(tagImageLength)
	if err != nil {
		return 0, 0, err
	}
	if !ok || len(h) != 1 {
		return 0, 0, fmt.Errorf("missing ImageLength")
	}
	if w[0] > math.MaxInt32 || h[0] > math.MaxInt32 {
		return 0, 0, fmt.Errorf("implausible size %dx%d", w[0], h[0])
	}
	return int(w[0]), int(h[0]), nil
}
