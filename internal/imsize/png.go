package imsize

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"os"
)

var pngSignature = []byte{0x89, 0x50, 0x4e, 0x47, 0x0d, 0x0a, 0x1a, 0x0a}

// pngChannels maps the IHDR color type to the number of channels.
// Indexed images are reported as their expanded RGB channel count.
var pngChannels = map[byte]int{
	0: 1, // greyscale
	2: 3, // truecolor
	3: 3, // indexed
	4: 2, // greyscale + alpha
	6: 4, // truecolor + alpha
}

// readPNG decodes the PNG signature plus the fixed-position IHDR
// chunk, a 26-byte prefix in total.
func readPNG(filespec string) (*ImageInfo, error) {
	f, err := os.Open(filespec)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	header := make([]byte, 26)
	if _, err := io.ReadFull(f, header); err != nil {
		return nil, fmt.Errorf("%s: not a valid PNG file: %w", filespec, ErrFormat)
	}
	if !bytes.Equal(header[:8], pngSignature) || !bytes.Equal(header[12:16], []byte("IHDR")) {
		return nil, fmt.Errorf("%s: not a valid PNG file: %w", filespec, ErrFormat)
	}
	nchan, ok := pngChannels[header[25]]
	if !ok {
		return nil, fmt.Errorf("%s: unknown PNG color type %d: %w", filespec, header[25], ErrFormat)
	}
	info := &ImageInfo{
		FileSpec: filespec,
		FileType: "png",
		Width:    int(binary.BigEndian.Uint32(header[16:20])),
		Height:   int(binary.BigEndian.Uint32(header[20:24])),
		BitDepth: int(header[24]),
		NChan:    nchan,
	}
	return info.complete()
}
