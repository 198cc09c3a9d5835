package imsize

import (
	"encoding/binary"
	"fmt"
	"io"
	"os"
)

// bmpChannels maps bits-per-pixel to the channel count of the decoded
// image. Palettized low-bpp formats are reported as expanded RGB.
var bmpChannels = map[int]int{
	1:  1,
	2:  3,
	4:  3,
	8:  3,
	16: 4,
	24: 3,
	32: 4,
}

// readBMP decodes the 14-byte file header plus the first 16 bytes of
// the DIB header: size, width, height, planes, bits per pixel.
func readBMP(filespec string) (*ImageInfo, error) {
	f, err := os.Open(filespec)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	header := make([]byte, 30)
	if _, err := io.ReadFull(f, header); err != nil {
		return nil, fmt.Errorf("%s: not a valid BMP file: %w", filespec, ErrFormat)
	}
	if header[0] != 'B' || header[1] != 'M' {
		return nil, fmt.Errorf("%s: not a valid BMP file: %w", filespec, ErrFormat)
	}
	width := int(int32(binary.LittleEndian.Uint32(header[18:22])))
	height := int(int32(binary.LittleEndian.Uint32(header[22:26])))
	if height < 0 {
		height = -height // top-down DIB
	}
	bpp := int(binary.LittleEndian.Uint16(header[28:30]))
	nchan, ok := bmpChannels[bpp]
	if !ok {
		return nil, fmt.Errorf("%s: unsupported BMP bit depth %d: %w", filespec, bpp, ErrFormat)
	}
	info := &ImageInfo{
		FileSpec: filespec,
		FileType: "bmp",
		Width:    width,
		Height:   height,
		NChan:    nchan,
		MaxVal:   255,
	}
	return info.complete()
}
