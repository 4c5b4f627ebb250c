// Package rastertest writes small georeferenced raster fixtures for tests.
package rastertest

import (
	"encoding/binary"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"testing"

	"github.com/asc1/imagemosaic-load/pkg/mosaic"
)

// Options describes a fixture image. Pixels are single-band 8-bit zeros.
type Options struct {
	Width, Height int

	// Transform is written as tie point + pixel scale when it has no rotation
	// terms, otherwise as a ModelTransformation matrix.
	Transform mosaic.GeoTransform

	// NoGeo omits all georeferencing tags.
	NoGeo bool

	// PixelIsPoint writes GTRasterTypeGeoKey=2 with a pixel-centre tie point.
	PixelIsPoint bool

	// ForceMatrix writes ModelTransformation even without rotation.
	ForceMatrix bool

	BigEndian bool
	BigTIFF   bool
}

type entry struct {
	tag, typ uint16
	count    uint64
	data     []byte
	offset   uint64
}

type byteOrder interface {
	binary.ByteOrder
	binary.AppendByteOrder
}

const (
	tShort  = 3
	tLong   = 4
	tDouble = 12
)

// Encode returns the bytes of a TIFF described by o.
func Encode(o Options) []byte {
	var order byteOrder = binary.LittleEndian
	if o.BigEndian {
		order = binary.BigEndian
	}

	shorts := func(v ...uint16) []byte {
		b := make([]byte, 2*len(v))
		for i, x := range v {
			order.PutUint16(b[i*2:], x)
		}
		return b
	}
	longs := func(v ...uint32) []byte {
		b := make([]byte, 4*len(v))
		for i, x := range v {
			order.PutUint32(b[i*4:], x)
		}
		return b
	}
	doubles := func(v ...float64) []byte {
		b := make([]byte, 8*len(v))
		for i, x := range v {
			order.PutUint64(b[i*8:], math.Float64bits(x))
		}
		return b
	}

	pixels := o.Width * o.Height
	entries := []*entry{
		{tag: 256, typ: tLong, count: 1, data: longs(uint32(o.Width))},
		{tag: 257, typ: tLong, count: 1, data: longs(uint32(o.Height))},
		{tag: 258, typ: tShort, count: 1, data: shorts(8)},
		{tag: 259, typ: tShort, count: 1, data: shorts(1)},
		{tag: 262, typ: tShort, count: 1, data: shorts(1)},
		{tag: 273, typ: tLong, count: 1, data: longs(0)},
		{tag: 277, typ: tShort, count: 1, data: shorts(1)},
		{tag: 278, typ: tLong, count: 1, data: longs(uint32(o.Height))},
		{tag: 279, typ: tLong, count: 1, data: longs(uint32(pixels))},
	}

	if !o.NoGeo {
		gt := o.Transform
		if o.ForceMatrix || gt[2] != 0 || gt[4] != 0 {
			entries = append(entries, &entry{tag: 34264, typ: tDouble, count: 16, data: doubles(
				gt[1], gt[2], 0, gt[0],
				gt[4], gt[5], 0, gt[3],
				0, 0, 0, 0,
				0, 0, 0, 1,
			)})
		} else {
			x, y := gt[0], gt[3]
			if o.PixelIsPoint {
				x += 0.5 * gt[1]
				y += 0.5 * gt[5]
			}
			entries = append(entries,
				&entry{tag: 33550, typ: tDouble, count: 3, data: doubles(gt[1], -gt[5], 0)},
				&entry{tag: 33922, typ: tDouble, count: 6, data: doubles(0, 0, 0, x, y, 0)},
			)
		}
		rasterType := uint16(1)
		if o.PixelIsPoint {
			rasterType = 2
		}
		entries = append(entries, &entry{tag: 34735, typ: tShort, count: 8, data: shorts(
			1, 1, 0, 1,
			1025, 0, 1, rasterType,
		)})
	}

	sort.Slice(entries, func(i, j int) bool { return entries[i].tag < entries[j].tag })

	headerLen, countLen, entryLen, nextLen, inlineLen := 8, 2, 12, 4, 4
	if o.BigTIFF {
		headerLen, countLen, entryLen, nextLen, inlineLen = 16, 8, 20, 8, 8
	}

	off := uint64(headerLen + countLen + len(entries)*entryLen + nextLen)
	for _, e := range entries {
		if len(e.data) > inlineLen {
			e.offset = off
			off += uint64(len(e.data))
		}
	}
	for _, e := range entries {
		if e.tag == 273 {
			e.data = longs(uint32(off))
		}
	}

	buf := make([]byte, 0, int(off)+pixels)
	if o.BigEndian {
		buf = append(buf, 'M', 'M')
	} else {
		buf = append(buf, 'I', 'I')
	}
	if o.BigTIFF {
		buf = order.AppendUint16(buf, 43)
		buf = order.AppendUint16(buf, 8)
		buf = order.AppendUint16(buf, 0)
		buf = order.AppendUint64(buf, uint64(headerLen))
		buf = order.AppendUint64(buf, uint64(len(entries)))
	} else {
		buf = order.AppendUint16(buf, 42)
		buf = order.AppendUint32(buf, uint32(headerLen))
		buf = order.AppendUint16(buf, uint16(len(entries)))
	}

	for _, e := range entries {
		buf = order.AppendUint16(buf, e.tag)
		buf = order.AppendUint16(buf, e.typ)
		if o.BigTIFF {
			buf = order.AppendUint64(buf, e.count)
		} else {
			buf = order.AppendUint32(buf, uint32(e.count))
		}
		field := make([]byte, inlineLen)
		if e.offset != 0 {
			if o.BigTIFF {
				order.PutUint64(field, e.offset)
			} else {
				order.PutUint32(field, uint32(e.offset))
			}
		} else {
			copy(field, e.data)
		}
		buf = append(buf, field...)
	}
	buf = append(buf, make([]byte, nextLen)...)

	for _, e := range entries {
		if e.offset != 0 {
			buf = append(buf, e.data...)
		}
	}
	buf = append(buf, make([]byte, pixels)...)
	return buf
}

// WriteGeoTIFF writes a fixture to path, creating parent directories.
func WriteGeoTIFF(t testing.TB, path string, o Options) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir %s: %v", filepath.Dir(path), err)
	}
	if err := os.WriteFile(path, Encode(o), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

// WriteWorldFile writes an ESRI world file for transform gt to path.
func WriteWorldFile(t testing.TB, path string, gt mosaic.GeoTransform) {
	t.Helper()
	f := func(v float64) string { return strconv.FormatFloat(v, 'f', -1, 64) }
	c := gt[0] + 0.5*gt[1] + 0.5*gt[2]
	fy := gt[3] + 0.5*gt[4] + 0.5*gt[5]
	content := f(gt[1]) + "\n" + f(gt[4]) + "\n" + f(gt[2]) + "\n" + f(gt[5]) + "\n" + f(c) + "\n" + f(fy) + "\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}
