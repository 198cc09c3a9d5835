package imsize

import (
	"fmt"
	"io"
	"math"
	"os"
	"regexp"
	"strconv"
)

var (
	pnmHeader = regexp.MustCompile(`^(P[56])\s+(\d+)\s+(\d+)\s+(\d+)\s`)
	pfmHeader = regexp.MustCompile(`^(P[Ff])\s+(\d+)\s+(\d+)\s+([+-]?\d+(?:\.\d+)?)\s`)
)

// pnmHeaderBudget bounds how far into the file the ASCII header is
// searched for; any valid header fits well within it.
const pnmHeaderBudget = 256

// readPNM parses the one-line ASCII header of a binary PGM (P5) or
// PPM (P6) file: magic, width, height, maxval.
func readPNM(filespec string) (*ImageInfo, error) {
	f, err := os.Open(filespec)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	header := make([]byte, pnmHeaderBudget)
	n, _ := io.ReadFull(f, header)
	m := pnmHeader.FindSubmatch(header[:n])
	if m == nil {
		return nil, fmt.Errorf("%s: not a valid PGM/PPM file: %w", filespec, ErrFormat)
	}
	width, _ := strconv.Atoi(string(m[2]))
	height, _ := strconv.Atoi(string(m[3]))
	maxval, _ := strconv.Atoi(string(m[4]))
	nchan := 1
	if string(m[1]) == "P6" {
		nchan = 3
	}
	info := &ImageInfo{
		FileSpec: filespec,
		FileType: "pnm",
		Width:    width,
		Height:   height,
		NChan:    nchan,
		MaxVal:   float64(maxval),
	}
	return info.complete()
}

// readPFM parses the ASCII header of a PFM file: magic (PF = color,
// Pf = greyscale), width, height, and a signed scale factor whose sign
// encodes the byte order (negative = little-endian) and whose
// magnitude is the maximum sample value. Samples are always 32-bit
// floats.
func readPFM(filespec string) (*ImageInfo, error) {
	f, err := os.Open(filespec)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	header := make([]byte, 64) // enough for any valid header
	n, _ := io.ReadFull(f, header)
	m := pfmHeader.FindSubmatch(header[:n])
	if m == nil {
		return nil, fmt.Errorf("%s: not a valid PFM file: %w", filespec, ErrFormat)
	}
	width, _ := strconv.Atoi(string(m[2]))
	height, _ := strconv.Atoi(string(m[3]))
	scale, _ := strconv.ParseFloat(string(m[4]), 64)
	nchan := 1
	if string(m[1]) == "PF" {
		nchan = 3
	}
	info := &ImageInfo{
		FileSpec:  filespec,
		FileType:  "pfm",
		Width:     width,
		Height:    height,
		NChan:     nchan,
		MaxVal:    math.Abs(scale),
		IsFloat:   true,
		BitDepth:  32,
		ByteDepth: 4,
	}
	return info.complete()
}
