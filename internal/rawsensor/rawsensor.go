// Package rawsensor provides minimal decoding of TIFF-based camera raw
// files (Nikon NEF and close relatives): it locates the sensor-resolution
// image directory and materializes its sample data, purely so callers
// can inspect the array shape and value range. Unlike a header parser
// it reads the bulk of the file, so it is slow by design.
package rawsensor

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"os"

	"github.com/rwcarlsen/goexif/tiff"
)

const (
	tagImageWidth      = 0x0100
	tagImageLength     = 0x0101
	tagStripOffsets    = 0x0111
	tagStripByteCounts = 0x0117
	tagSubIFDs         = 0x014a
)

// Image is a decoded sensor array.
type Image struct {
	Width   int
	Height  int
	Samples []uint16 // row-major little-endian samples
}

// Max returns the largest sample value, or 0 for an empty image.
func (img *Image) Max() uint16 {
	var max uint16
	for _, s := range img.Samples {
		if s > max {
			max = s
		}
	}
	return max
}

// Decode parses the TIFF directory structure of a raw file, picks the
// directory with the largest image width (smaller directories hold
// thumbnails and previews), and reads its strip data as 16-bit
// little-endian samples.
func Decode(filespec string) (*Image, error) {
	data, err := os.ReadFile(filespec)
	if err != nil {
		return nil, err
	}
	t, err := tiff.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("rawsensor: %s: %w", filespec, err)
	}
	if len(t.Dirs) == 0 {
		return nil, fmt.Errorf("rawsensor: %s: no image file directories", filespec)
	}
	dirs := append([]*tiff.Dir{}, t.Dirs...)
	dirs = append(dirs, subIFDs(data, t)...)

	var sensor *tiff.Dir
	for _, d := range dirs {
		if sensor == nil || tagInt(d, tagImageWidth, 0) > tagInt(sensor, tagImageWidth, 0) {
			sensor = d
		}
	}
	width := tagInt(sensor, tagImageWidth, 0)
	height := tagInt(sensor, tagImageLength, 0)
	if width < 1 || height < 1 {
		return nil, fmt.Errorf("rawsensor: %s: no sensor image dimensions", filespec)
	}
	raw, err := stripData(data, sensor)
	if err != nil {
		return nil, fmt.Errorf("rawsensor: %s: %w", filespec, err)
	}
	samples := make([]uint16, len(raw)/2)
	for i := range samples {
		samples[i] = binary.LittleEndian.Uint16(raw[2*i:])
	}
	return &Image{Width: width, Height: height, Samples: samples}, nil
}

// subIFDs decodes the sub-image directories referenced by the first
// top-level IFD. NEF keeps the sensor-resolution image there, behind a
// thumbnail-sized IFD0.
func subIFDs(data []byte, t *tiff.Tiff) []*tiff.Dir {
	sub := findTag(t.Dirs[0], tagSubIFDs)
	if sub == nil {
		return nil
	}
	var dirs []*tiff.Dir
	r := bytes.NewReader(data)
	for i := 0; i < int(sub.Count); i++ {
		offset, err := sub.Int64(i)
		if err != nil {
			break
		}
		if _, err := r.Seek(offset, io.SeekStart); err != nil {
			break
		}
		d, _, err := tiff.DecodeDir(r, t.Order)
		if err != nil {
			break
		}
		dirs = append(dirs, d)
	}
	return dirs
}

// stripData concatenates the byte ranges referenced by the directory's
// strip offset and byte count tags.
func stripData(data []byte, d *tiff.Dir) ([]byte, error) {
	offsets := findTag(d, tagStripOffsets)
	counts := findTag(d, tagStripByteCounts)
	if offsets == nil || counts == nil || offsets.Count != counts.Count {
		return nil, fmt.Errorf("missing or mismatched strip tags")
	}
	var raw []byte
	for i := 0; i < int(offsets.Count); i++ {
		off, err := offsets.Int64(i)
		if err != nil {
			return nil, err
		}
		cnt, err := counts.Int64(i)
		if err != nil {
			return nil, err
		}
		if off < 0 || cnt < 0 || off+cnt > int64(len(data)) {
			return nil, fmt.Errorf("strip %d out of file bounds", i)
		}
		raw = append(raw, data[off:off+cnt]...)
	}
	return raw, nil
}

func findTag(d *tiff.Dir, id uint16) *tiff.Tag {
	for _, t := range d.Tags {
		if t.Id == id {
			return t
		}
	}
	return nil
}

func tagInt(d *tiff.Dir, id uint16, fallback int) int {
	if t := findTag(d, id); t != nil {
		if v, err := t.Int(0); err == nil {
			return v
		}
	}
	return fallback
}
