package imsize

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"github.com/rwcarlsen/goexif/tiff"
)

// TIFF/EXIF tag IDs consumed by the sub-reader.
const (
	tagImageWidth      = 0x0100
	tagImageLength     = 0x0101
	tagBitsPerSample   = 0x0102
	tagPhotometric     = 0x0106
	tagOrientation     = 0x0112
	tagSamplesPerPixel = 0x0115
	tagSubIFDs         = 0x014a
)

// Photometric interpretation codes marking sensor-native raw data.
const (
	photometricCFA       = 32803
	photometricLinearRaw = 34892
)

// maxSubImages bounds how many sub-image directories are considered
// besides the top-level one (Image, SubImage1..3).
const maxSubImages = 3

func findTag(d *tiff.Dir, id uint16) *tiff.Tag {
	for _, t := range d.Tags {
		if t.Id == id {
			return t
		}
	}
	return nil
}

// tagInt returns the first integer value of the tag, or 0 when the tag
// is absent or malformed.
func tagInt(d *tiff.Dir, id uint16) int {
	if t := findTag(d, id); t != nil {
		if v, err := t.Int(0); err == nil {
			return v
		}
	}
	return 0
}

// subImageDirs parses the TIFF directory structure and returns the
// top-level IFD followed by up to three sub-image IFDs. Multi-resolution
// containers keep thumbnails and the full-resolution image in separate
// directories, so callers must not assume the first one is authoritative.
func subImageDirs(data []byte) ([]*tiff.Dir, error) {
	t, err := tiff.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	if len(t.Dirs) == 0 {
		return nil, fmt.Errorf("no image file directories")
	}
	dirs := []*tiff.Dir{t.Dirs[0]}
	sub := findTag(t.Dirs[0], tagSubIFDs)
	if sub == nil {
		return dirs, nil
	}
	r := bytes.NewReader(data)
	for i := 0; i < int(sub.Count) && i < maxSubImages; i++ {
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
	return dirs, nil
}

// readEXIFInfo extracts width, height, channel count, bit depth,
// orientation, and the CFA-raw flag from an EXIF-bearing TIFF
// container. The sub-image with the largest width wins, which selects
// the full-resolution image over embedded thumbnails.
func readEXIFInfo(filespec string) (*ImageInfo, error) {
	data, err := os.ReadFile(filespec)
	if err != nil {
		return nil, err
	}
	dirs, err := subImageDirs(data)
	if err != nil {
		return nil, fmt.Errorf("%s: cannot read EXIF metadata: %w", filespec, ErrMetadataMissing)
	}
	largest := dirs[0]
	for _, d := range dirs[1:] {
		if tagInt(d, tagImageWidth) > tagInt(largest, tagImageWidth) {
			largest = d
		}
	}
	info := &ImageInfo{
		FileSpec:    filespec,
		FileSize:    int64(len(data)),
		Width:       tagInt(largest, tagImageWidth),
		Height:      tagInt(largest, tagImageLength),
		NChan:       tagInt(largest, tagSamplesPerPixel),
		BitDepth:    tagInt(largest, tagBitsPerSample), // first element when per-channel
		Orientation: tagInt(largest, tagOrientation),
	}
	info.Rot90CCWSteps = rot90Steps(info.Orientation)
	pi := tagInt(largest, tagPhotometric)
	info.CFARaw = pi == photometricCFA || pi == photometricLinearRaw
	return info, nil
}

func readTIFF(filespec string) (*ImageInfo, error) {
	info, err := readEXIFInfo(filespec)
	if err != nil {
		return nil, err
	}
	info.FileType = "tiff"
	return info.complete()
}

func readDNG(filespec string) (*ImageInfo, error) {
	info, err := readEXIFInfo(filespec)
	if err != nil {
		return nil, err
	}
	info.FileType = "dng"
	return info.complete()
}

// readCR2 reads the width and height tags of the top-level image file
// directory and assumes the rest: Canon raws have been 14-bit
// single-channel Bayer data since the mid-2000s camera generation, so
// the record is marked uncertain.
func readCR2(filespec string) (*ImageInfo, error) {
	f, err := os.Open(filespec)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	t, err := tiff.Decode(f)
	if err != nil || len(t.Dirs) == 0 {
		return nil, fmt.Errorf("%s: not a valid CR2 file: %w", filespec, ErrFormat)
	}
	info := &ImageInfo{
		FileSpec:  filespec,
		FileType:  "cr2",
		Width:     tagInt(t.Dirs[0], tagImageWidth),
		Height:    tagInt(t.Dirs[0], tagImageLength),
		NChan:     1,
		BitDepth:  14,
		ByteDepth: 2,
		CFARaw:    true,
		Uncertain: true,
	}
	return info.complete()
}
