package imsize

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"os"
)

var exrMagic = []byte{0x76, 0x2f, 0x31, 0x01}

// Version bit selecting the maximum attribute-name length.
const exrLongNamesBit = 0x400

// readEXR walks the OpenEXR attribute list until both the channel
// list and the data window have been seen; all other attributes are
// skipped via their declared size.
func readEXR(filespec string) (*ImageInfo, error) {
	f, err := os.Open(filespec)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	br := bufio.NewReader(f)

	badFile := func(reason string) error {
		return fmt.Errorf("%s: not a valid EXR file (%s): %w", filespec, reason, ErrFormat)
	}
	magic := make([]byte, 4)
	if _, err := io.ReadFull(br, magic); err != nil || !bytes.Equal(magic, exrMagic) {
		return nil, badFile("bad magic")
	}
	var version uint32
	if err := binary.Read(br, binary.LittleEndian, &version); err != nil {
		return nil, badFile("truncated version")
	}
	maxStrLen := 32
	if version&exrLongNamesBit != 0 {
		maxStrLen = 256
	}

	info := &ImageInfo{FileSpec: filespec, FileType: "exr", MaxVal: 1.0}
	gotChannels, gotDims := false, false
	for !(gotChannels && gotDims) {
		attrName, err := readCString(br, maxStrLen)
		if err != nil {
			return nil, badFile("header ends before channels and dataWindow")
		}
		if _, err := readCString(br, maxStrLen); err != nil { // attribute type, unused
			return nil, badFile("truncated attribute type")
		}
		var attrSize uint32
		if err := binary.Read(br, binary.LittleEndian, &attrSize); err != nil {
			return nil, badFile("truncated attribute size")
		}
		switch attrName {
		case "channels":
			// A sequence of named channels, each with a 16-byte
			// descriptor whose first word is the pixel type
			// (0 = uint32, 1 = half, 2 = float), ended by an empty name.
			info.BitDepth = 16
			for {
				name, err := readCString(br, maxStrLen)
				if err != nil {
					return nil, badFile("truncated channel list")
				}
				if name == "" {
					break
				}
				var desc [16]byte
				if _, err := io.ReadFull(br, desc[:]); err != nil {
					return nil, badFile("truncated channel descriptor")
				}
				pixelType := binary.LittleEndian.Uint32(desc[0:4])
				if pixelType > 0 {
					info.IsFloat = true
				}
				if pixelType != 1 {
					info.BitDepth = 32
				}
				info.NChan++
			}
			gotChannels = true
		case "dataWindow":
			var box struct{ XMin, YMin, XMax, YMax int32 }
			if err := binary.Read(br, binary.LittleEndian, &box); err != nil {
				return nil, badFile("truncated dataWindow")
			}
			info.Width = int(box.XMax - box.XMin + 1)
			info.Height = int(box.YMax - box.YMin + 1)
			gotDims = true
		default:
			if _, err := io.CopyN(io.Discard, br, int64(attrSize)); err != nil {
				return nil, badFile("truncated attribute payload")
			}
		}
	}
	info.ByteDepth = info.BitDepth / 8
	return info.complete()
}
