package imsize

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"os"

	"github.com/rwcarlsen/goexif/exif"
)

const jpegApp2Marker = 0xe2

// isSOFMarker reports whether the marker is a Start-Of-Frame marker.
// 0xC4 (DHT), 0xC8 (JPG) and 0xCC (DAC) sit inside the SOF range but
// are not frame headers.
func isSOFMarker(m byte) bool {
	return m >= 0xc0 && m <= 0xcf && m != 0xc4 && m != 0xc8 && m != 0xcc
}

// readJPEG walks the marker segments of a JPEG file until the first
// Start-Of-Frame header, which carries the dimensions, channel count
// and sample precision. Any APP2 segment passed on the way is checked
// for a CIPA DC-007 Multi-Picture Format block. Orientation comes from
// the EXIF block, read independently; a file without EXIF simply has
// an unknown orientation.
func readJPEG(filespec string) (*ImageInfo, error) {
	orientation := exifOrientation(filespec)
	info := &ImageInfo{
		FileSpec:      filespec,
		FileType:      "jpeg",
		Orientation:   orientation,
		Rot90CCWSteps: rot90Steps(orientation),
	}

	f, err := os.Open(filespec)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	soi := make([]byte, 2)
	if _, err := io.ReadFull(f, soi); err != nil || soi[0] != 0xff || soi[1] != 0xd8 {
		return nil, fmt.Errorf("%s: not a valid JPEG file: %w", filespec, ErrFormat)
	}
	var segtype byte
	size := uint16(2)
	for !isSOFMarker(segtype) {
		if _, err := f.Seek(int64(size)-2, io.SeekCurrent); err != nil {
			return nil, fmt.Errorf("%s: not a valid JPEG file: %w", filespec, ErrFormat)
		}
		var seg struct {
			Pad    byte
			Marker byte
			Size   uint16
		}
		if err := binary.Read(f, binary.BigEndian, &seg); err != nil {
			return nil, fmt.Errorf("%s: no start-of-frame marker found: %w", filespec, ErrFormat)
		}
		segtype, size = seg.Marker, seg.Size
		if segtype == jpegApp2Marker {
			if err := readMPF(f, info); err != nil {
				return nil, err
			}
		}
	}
	var sof struct {
		Precision byte
		Height    uint16
		Width     uint16
		NChan     byte
	}
	if err := binary.Read(f, binary.BigEndian, &sof); err != nil {
		return nil, fmt.Errorf("%s: truncated start-of-frame header: %w", filespec, ErrFormat)
	}
	info.BitDepth = int(sof.Precision)
	info.Height = int(sof.Height)
	info.Width = int(sof.Width)
	info.NChan = int(sof.NChan)
	return info.complete()
}

// readINSP parses an Insta360 .insp file, which is a plain JPEG under
// a different extension.
func readINSP(filespec string) (*ImageInfo, error) {
	info, err := readJPEG(filespec)
	if err != nil {
		return nil, err
	}
	info.FileType = "insp"
	return info, nil
}

// readMPF inspects an APP2 segment for a Multi-Picture Format block as
// per CIPA DC-007-2009 and, if one is found, fills in the per-image
// byte sizes and absolute file offsets. The file position is restored
// to the start of the segment payload on return, so the caller's
// segment walk is unaffected. A block whose signature matches but
// whose fixed tag layout does not is a hard error: unexpected vendor
// deviations fail loudly rather than guess.
func readMPF(f *os.File, info *ImageInfo) error {
	prevPos, err := f.Seek(0, io.SeekCurrent)
	if err != nil {
		return err
	}
	defer f.Seek(prevPos, io.SeekStart)

	sig := make([]byte, 4)
	if _, err := io.ReadFull(f, sig); err != nil || !bytes.Equal(sig, []byte("MPF\x00")) {
		return nil // ordinary APP2 segment, skip
	}
	violation := func(format string, args ...interface{}) error {
		return fmt.Errorf("%s: MPF: %s: %w", info.FileSpec, fmt.Sprintf(format, args...), ErrReservedStructure)
	}
	endian := make([]byte, 4)
	if _, err := io.ReadFull(f, endian); err != nil {
		return violation("truncated endian marker")
	}
	var bo binary.ByteOrder = binary.LittleEndian
	if bytes.Equal(endian, []byte("MM\x00*")) {
		bo = binary.BigEndian
	}
	var hdr struct {
		Offset uint32
		Count  uint16
	}
	if err := binary.Read(f, bo, &hdr); err != nil {
		return violation("truncated index header")
	}
	// Three 12-byte IFD entries: tag(u16), type(u16), count(u32), value(4 bytes).
	var entries [3][12]byte
	for i := range entries {
		if _, err := io.ReadFull(f, entries[i][:]); err != nil {
			return violation("truncated index entry %d", i)
		}
	}
	if _, err := f.Seek(4, io.SeekCurrent); err != nil { // next-IFD offset, unused
		return violation("truncated index")
	}
	versionTag := bo.Uint16(entries[0][0:2])
	version := entries[0][8:12]
	numImagesTag := bo.Uint16(entries[1][0:2])
	numImages := bo.Uint32(entries[1][8:12])
	mpEntryTag := bo.Uint16(entries[2][0:2])
	switch {
	case hdr.Offset != 8:
		return violation("expected IFD offset 8, got %d", hdr.Offset)
	case hdr.Count != 3:
		return violation("expected tag count 3, got %d", hdr.Count)
	case versionTag != 45056:
		return violation("expected tag id 45056 (MPFVersion), got %d", versionTag)
	case !bytes.Equal(version, []byte("0100")):
		return violation("expected version '0100', got %q", version)
	case numImagesTag != 45057:
		return violation("expected tag id 45057 (NumberOfImages), got %d", numImagesTag)
	case numImages < 1:
		return violation("expected at least 1 image, got %d", numImages)
	case mpEntryTag != 45058:
		return violation("expected tag id 45058 (MPEntry), got %d", mpEntryTag)
	}
	info.MultiPicture = true
	info.NumImages = int(numImages)
	for i := 0; i < info.NumImages; i++ {
		var entry struct {
			Attrs  uint32
			Size   uint32
			Offset uint32
			Dep1   uint16
			Dep2   uint16
		}
		if err := binary.Read(f, bo, &entry); err != nil {
			return violation("truncated MP entry %d", i)
		}
		// Entry offsets are relative to the MP header (the endian
		// marker), which sits 4 bytes past the segment payload start.
		info.ImageSizes = append(info.ImageSizes, int64(entry.Size))
		info.ImageOffsets = append(info.ImageOffsets, int64(entry.Offset)+prevPos+4)
	}
	return nil
}

// exifOrientation returns the EXIF orientation tag of the image, or 0
// when the file carries no readable EXIF block or orientation field.
func exifOrientation(filespec string) int {
	f, err := os.Open(filespec)
	if err != nil {
		return 0
	}
	defer f.Close()
	x, err := exif.Decode(f)
	if err != nil {
		return 0
	}
	tag, err := x.Get(exif.Orientation)
	if err != nil || tag == nil {
		return 0
	}
	v, err := tag.Int(0)
	if err != nil || v < 1 || v > 8 {
		return 0
	}
	return v
}
