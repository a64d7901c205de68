// Package rimage holds the image-shaped containers used by the dense
// supervision path, chiefly per-pixel inverse depth maps.
package rimage

import (
	"bufio"
	"compress/gzip"
	"encoding/binary"
	"io"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"go.uber.org/multierr"
	"go.viam.com/utils"
)

// DepthMap is a dense per-pixel inverse depth (disparity) image. Values are
// dimensionless 1/Z in the same units the poses translate in.
type DepthMap struct {
	width  int
	height int

	data []float64
}

// NewEmptyDepthMap returns an allocated zero depth map of the given size.
func NewEmptyDepthMap(width, height int) *DepthMap {
	return &DepthMap{width: width, height: height, data: make([]float64, width*height)}
}

// NewDepthMapFromData wraps row-major inverse depth data. The slice is
// borrowed, not copied, and must have width*height entries.
func NewDepthMapFromData(width, height int, data []float64) (*DepthMap, error) {
	if len(data) != width*height {
		return nil, errors.Errorf("depth data length %d does not match %dx%d", len(data), width, height)
	}
	return &DepthMap{width: width, height: height, data: data}, nil
}

// HasData reports whether the map is non-empty.
func (dm *DepthMap) HasData() bool {
	return dm.width > 0 && dm.data != nil
}

// Width returns the width in pixels.
func (dm *DepthMap) Width() int {
	return dm.width
}

// Height returns the height in pixels.
func (dm *DepthMap) Height() int {
	return dm.height
}

// GetDepth returns the inverse depth at (x, y).
func (dm *DepthMap) GetDepth(x, y int) float64 {
	return dm.data[y*dm.width+x]
}

// Set sets the inverse depth at (x, y).
func (dm *DepthMap) Set(x, y int, val float64) {
	dm.data[y*dm.width+x] = val
}

// ReadDepthMap reads a depth map from the given reader: two little-endian
// int64 dimensions followed by width*height little-endian float64 values.
func ReadDepthMap(r io.Reader) (*DepthMap, error) {
	var rawWidth, rawHeight int64
	if err := binary.Read(r, binary.LittleEndian, &rawWidth); err != nil {
		return nil, errors.Wrap(err, "error reading depth map width")
	}
	if err := binary.Read(r, binary.LittleEndian, &rawHeight); err != nil {
		return nil, errors.Wrap(err, "error reading depth map height")
	}
	if rawWidth <= 0 || rawHeight <= 0 {
		return nil, errors.Errorf("invalid depth map dimensions %dx%d", rawWidth, rawHeight)
	}
	dm := NewEmptyDepthMap(int(rawWidth), int(rawHeight))
	if err := binary.Read(r, binary.LittleEndian, dm.data); err != nil {
		return nil, errors.Wrap(err, "error reading depth map data")
	}
	return dm, nil
}

// ParseDepthMap parses a depth map file; .gz files are decompressed first.
func ParseDepthMap(fn string) (*DepthMap, error) {
	//nolint:gosec
	f, err := os.Open(fn)
	if err != nil {
		return nil, err
	}
	defer utils.UncheckedErrorFunc(f.Close)

	var r io.Reader = bufio.NewReader(f)
	if filepath.Ext(fn) == ".gz" {
		gz, err := gzip.NewReader(r)
		if err != nil {
			return nil, err
		}
		defer utils.UncheckedErrorFunc(gz.Close)
		r = gz
	}
	return ReadDepthMap(r)
}

// WriteTo writes the depth map in the format ReadDepthMap reads.
func (dm *DepthMap) WriteTo(w io.Writer) error {
	if err := binary.Write(w, binary.LittleEndian, int64(dm.width)); err != nil {
		return err
	}
	if err := binary.Write(w, binary.LittleEndian, int64(dm.height)); err != nil {
		return err
	}
	return binary.Write(w, binary.LittleEndian, dm.data)
}

// WriteToFile writes the depth map to a file, gzipped if the name ends in .gz.
func (dm *DepthMap) WriteToFile(fn string) (err error) {
	//nolint:gosec
	f, err := os.Create(fn)
	if err != nil {
		return err
	}
	defer func() {
		err = multierr.Combine(err, f.Close())
	}()

	var w io.Writer = f
	if filepath.Ext(fn) == ".gz" {
		gz := gzip.NewWriter(f)
		defer func() {
			err = multierr.Combine(err, gz.Close())
		}()
		w = gz
	}
	buf := bufio.NewWriter(w)
	if err := dm.WriteTo(buf); err != nil {
		return err
	}
	return buf.Flush()
}
