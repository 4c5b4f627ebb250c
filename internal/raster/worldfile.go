package raster

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/asc1/imagemosaic-load/pkg/mosaic"
)

// worldFileCandidates lists sidecar names GDAL probes for a raster:
// image.tfw, image.tifw, image.wld, in lower and upper case.
func worldFileCandidates(path string) []string {
	ext := filepath.Ext(path)
	base := strings.TrimSuffix(path, ext)

	var exts []string
	if len(ext) >= 3 {
		e := ext[1:]
		exts = append(exts, "."+e[:1]+e[len(e)-1:]+"w")
		exts = append(exts, "."+e+"w")
	}
	exts = append(exts, ".wld")

	out := make([]string, 0, len(exts)*2)
	seen := make(map[string]bool, len(exts)*2)
	for _, e := range exts {
		for _, c := range []string{strings.ToLower(e), strings.ToUpper(e)} {
			if !seen[c] {
				seen[c] = true
				out = append(out, base+c)
			}
		}
	}
	return out
}

// findWorldFile returns the transform from the first sidecar world file found.
func findWorldFile(path string) (mosaic.GeoTransform, string, bool, error) {
	for _, candidate := range worldFileCandidates(path) {
		info, err := os.Stat(candidate)
		if err != nil || !info.Mode().IsRegular() {
			continue
		}
		gt, err := readWorldFile(candidate)
		if err != nil {
			return gt, candidate, false, err
		}
		return gt, candidate, true, nil
	}
	return mosaic.GeoTransform{}, "", false, nil
}

// readWorldFile parses the six lines A, D, B, E, C, F of an ESRI world file.
// C and F locate the centre of the upper-left pixel; the returned transform
// is anchored at its corner.
func readWorldFile(path string) (mosaic.GeoTransform, error) {
	f, err := os.Open(path)
	if err != nil {
		return mosaic.GeoTransform{}, err
	}
	defer f.Close()

	var v []float64
	sc := bufio.NewScanner(f)
	for sc.Scan() && len(v) < 6 {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		n, err := strconv.ParseFloat(line, 64)
		if err != nil {
			return mosaic.GeoTransform{}, fmt.Errorf("world file %s: line %d: %w", path, len(v)+1, err)
		}
		v = append(v, n)
	}
	if err := sc.Err(); err != nil {
		return mosaic.GeoTransform{}, fmt.Errorf("world file %s: %w", path, err)
	}
	if len(v) < 6 {
		return mosaic.GeoTransform{}, fmt.Errorf("world file %s: expected 6 values, got %d", path, len(v))
	}

	a, d, b, e, c, fy := v[0], v[1], v[2], v[3], v[4], v[5]
	return mosaic.GeoTransform{
		c - 0.5*a - 0.5*b, a, b,
		fy - 0.5*d - 0.5*e, d, e,
	}, nil
}
