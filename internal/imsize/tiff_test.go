package imsize

import (
	"bytes"
	"encoding/binary"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

const (
	typeShort = 3
	typeLong  = 4
)

type ifdEntry struct {
	tag   uint16
	typ   uint16
	count uint32
	value uint32
}

// buildTIFF assembles a little-endian TIFF whose directories are laid
// out back to back after the 8-byte header, each with inline tag
// values and no next-IFD chain. A SubIFDs entry's value names the
// index of the directory it points at and is resolved to the real
// offset. extra is appended verbatim after the directories, so strip
// entries can reference it at tiffDataOffset(dirs).
func buildTIFF(dirs [][]ifdEntry, extra []byte) []byte {
	offsets := make([]uint32, len(dirs))
	off := uint32(8)
	for i, d := range dirs {
		offsets[i] = off
		off += 2 + 12*uint32(len(d)) + 4
	}
	buf := new(bytes.Buffer)
	buf.WriteString("II")
	binary.Write(buf, binary.LittleEndian, uint16(42))
	binary.Write(buf, binary.LittleEndian, offsets[0])
	for _, d := range dirs {
		binary.Write(buf, binary.LittleEndian, uint16(len(d)))
		for _, e := range d {
			binary.Write(buf, binary.LittleEndian, e.tag)
			binary.Write(buf, binary.LittleEndian, e.typ)
			binary.Write(buf, binary.LittleEndian, e.count)
			value := e.value
			if e.tag == tagSubIFDs {
				value = offsets[e.value]
			}
			if e.typ == typeShort {
				binary.Write(buf, binary.LittleEndian, uint16(value))
				binary.Write(buf, binary.LittleEndian, uint16(0))
			} else {
				binary.Write(buf, binary.LittleEndian, value)
			}
		}
		binary.Write(buf, binary.LittleEndian, uint32(0))
	}
	buf.Write(extra)
	return buf.Bytes()
}

func tiffDataOffset(dirs [][]ifdEntry) uint32 {
	off := uint32(8)
	for _, d := range dirs {
		off += 2 + 12*uint32(len(d)) + 4
	}
	return off
}

func writeFile(t *testing.T, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatalf("failed to write %s: %v", name, err)
	}
	return path
}

func TestReadTIFF(t *testing.T) {
	data := buildTIFF([][]ifdEntry{{
		{tagImageWidth, typeShort, 1, 800},
		{tagImageLength, typeShort, 1, 600},
		{tagBitsPerSample, typeShort, 1, 16},
		{tagPhotometric, typeShort, 1, 1},
		{tagOrientation, typeShort, 1, 6},
		{tagSamplesPerPixel, typeShort, 1, 1},
	}}, nil)
	path := writeFile(t, "image.tif", data)

	info, err := Read(path)
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if info.FileType != "tiff" {
		t.Errorf("FileType = %q, want tiff", info.FileType)
	}
	if info.Width != 800 || info.Height != 600 {
		t.Errorf("dimensions = %dx%d, want 800x600", info.Width, info.Height)
	}
	if info.NChan != 1 || info.BitDepth != 16 {
		t.Errorf("nchan/bitdepth = %d/%d, want 1/16", info.NChan, info.BitDepth)
	}
	if info.ByteDepth != 2 {
		t.Errorf("ByteDepth = %d, want 2", info.ByteDepth)
	}
	if info.Orientation != 6 || info.Rot90CCWSteps != 3 {
		t.Errorf("orientation = %d/%d steps, want 6/3", info.Orientation, info.Rot90CCWSteps)
	}
	if info.CFARaw {
		t.Error("CFARaw = true for a plain greyscale TIFF")
	}
	if want := int64(800 * 600 * 1 * 2); info.NBytes != want {
		t.Errorf("NBytes = %d, want %d", info.NBytes, want)
	}
}

func TestReadTIFF_LargestSubImage(t *testing.T) {
	// IFD0 is a thumbnail; the full-resolution image hides in a SubIFD.
	data := buildTIFF([][]ifdEntry{
		{
			{tagImageWidth, typeShort, 1, 160},
			{tagImageLength, typeShort, 1, 120},
			{tagBitsPerSample, typeShort, 1, 8},
			{tagSamplesPerPixel, typeShort, 1, 3},
			{tagSubIFDs, typeLong, 1, 1}, // points at dir index 1
		},
		{
			{tagImageWidth, typeShort, 1, 4000},
			{tagImageLength, typeShort, 1, 3000},
			{tagBitsPerSample, typeShort, 1, 12},
			{tagSamplesPerPixel, typeShort, 1, 1},
		},
	}, nil)
	path := writeFile(t, "image.tiff", data)

	info, err := Read(path)
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if info.Width != 4000 || info.Height != 3000 {
		t.Errorf("dimensions = %dx%d, want 4000x3000 (largest sub-image)", info.Width, info.Height)
	}
	if info.BitDepth != 12 {
		t.Errorf("BitDepth = %d, want 12", info.BitDepth)
	}
}

func TestReadTIFF_MissingMetadata(t *testing.T) {
	path := writeFile(t, "bogus.tif", []byte("this is not a TIFF file at all"))
	_, err := Read(path)
	if !errors.Is(err, ErrMetadataMissing) {
		t.Errorf("Read() error = %v, want ErrMetadataMissing", err)
	}
}

func TestReadDNG_CFARaw(t *testing.T) {
	data := buildTIFF([][]ifdEntry{{
		{tagImageWidth, typeShort, 1, 6000},
		{tagImageLength, typeShort, 1, 4000},
		{tagBitsPerSample, typeShort, 1, 14},
		{tagPhotometric, typeLong, 1, photometricCFA},
		{tagSamplesPerPixel, typeShort, 1, 1},
	}}, nil)
	path := writeFile(t, "image.dng", data)

	info, err := Read(path)
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if info.FileType != "dng" {
		t.Errorf("FileType = %q, want dng", info.FileType)
	}
	if !info.CFARaw {
		t.Error("CFARaw = false for a CFA-pattern DNG")
	}
	if info.Width != 6000 || info.Height != 4000 || info.BitDepth != 14 {
		t.Errorf("got %dx%d @ %d bits, want 6000x4000 @ 14", info.Width, info.Height, info.BitDepth)
	}
}

func TestReadCR2(t *testing.T) {
	data := buildTIFF([][]ifdEntry{{
		{tagImageWidth, typeShort, 1, 5184},
		{tagImageLength, typeShort, 1, 3456},
	}}, nil)
	path := writeFile(t, "shot.cr2", data)

	info, err := Read(path)
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if info.FileType != "cr2" {
		t.Errorf("FileType = %q, want cr2", info.FileType)
	}
	if info.Width != 5184 || info.Height != 3456 {
		t.Errorf("dimensions = %dx%d, want 5184x3456", info.Width, info.Height)
	}
	if info.NChan != 1 || info.BitDepth != 14 || info.ByteDepth != 2 {
		t.Errorf("nchan/bitdepth/bytedepth = %d/%d/%d, want 1/14/2", info.NChan, info.BitDepth, info.ByteDepth)
	}
	if !info.CFARaw || !info.Uncertain {
		t.Errorf("CFARaw/Uncertain = %t/%t, want true/true", info.CFARaw, info.Uncertain)
	}
	if info.MaxVal != 16383 {
		t.Errorf("MaxVal = %g, want 16383", info.MaxVal)
	}
	if want := int64(5184 * 3456 * 2); info.NBytes != want {
		t.Errorf("NBytes = %d, want %d", info.NBytes, want)
	}
}

func TestReadCR2_BadFile(t *testing.T) {
	path := writeFile(t, "bogus.cr2", []byte("not a tiff"))
	_, err := Read(path)
	if !errors.Is(err, ErrFormat) {
		t.Errorf("Read() error = %v, want ErrFormat", err)
	}
}
