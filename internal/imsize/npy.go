package imsize

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"os"
	"regexp"
	"strconv"
	"strings"
)

var (
	npyMagic = []byte{0x93, 'N', 'U', 'M', 'P', 'Y'}
	// The header is a Python dict literal, e.g.
	// {'descr': '<u2', 'fortran_order': False, 'shape': (480, 640, 3), }
	npyDescr = regexp.MustCompile(`'descr':\s*'([<>|=]?)([a-zA-Z])(\d+)'`)
	npyShape = regexp.MustCompile(`'shape':\s*\(([^)]*)\)`)
)

// readNPY parses the NumPy binary file header: magic, version, a
// little-endian u16 header length, then the textual header dictionary
// exposing the dtype and array shape. Only 2-D (greyscale) and 3-D
// (multi-channel) arrays are accepted.
func readNPY(filespec string) (*ImageInfo, error) {
	f, err := os.Open(filespec)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	badFile := func(reason string) error {
		return fmt.Errorf("%s: not a valid NPY file (%s): %w", filespec, reason, ErrFormat)
	}
	prefix := make([]byte, 10)
	if _, err := io.ReadFull(f, prefix); err != nil || !bytes.Equal(prefix[:6], npyMagic) {
		return nil, badFile("bad magic")
	}
	headerLen := binary.LittleEndian.Uint16(prefix[8:10]) // prefix[6:8] is the version, ignored
	header := make([]byte, headerLen)
	if _, err := io.ReadFull(f, header); err != nil {
		return nil, badFile("truncated header")
	}
	dm := npyDescr.FindSubmatch(header)
	sm := npyShape.FindSubmatch(header)
	if dm == nil || sm == nil {
		return nil, badFile("missing descr or shape")
	}
	itemSize, err := strconv.Atoi(string(dm[3]))
	if err != nil || itemSize < 1 {
		return nil, badFile("bad dtype")
	}
	var shape []int
	for _, tok := range strings.Split(string(sm[1]), ",") {
		tok = strings.TrimSpace(tok)
		if tok == "" {
			continue
		}
		dim, err := strconv.Atoi(tok)
		if err != nil {
			return nil, badFile("bad shape")
		}
		shape = append(shape, dim)
	}
	if len(shape) != 2 && len(shape) != 3 {
		return nil, badFile(fmt.Sprintf("unsupported array rank %d", len(shape)))
	}
	nchan := 1
	if len(shape) == 3 {
		nchan = shape[2]
	}
	isFloat := dm[2][0] == 'f'
	info := &ImageInfo{
		FileSpec:  filespec,
		FileType:  "npy",
		Width:     shape[1],
		Height:    shape[0],
		NChan:     nchan,
		BitDepth:  itemSize * 8,
		ByteDepth: itemSize,
		IsFloat:   isFloat,
	}
	if isFloat {
		info.MaxVal = 1.0
	} else {
		info.MaxVal = math.Pow(2, float64(info.BitDepth)) - 1
	}
	return info.complete()
}
