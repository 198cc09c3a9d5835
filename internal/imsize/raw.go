package imsize

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"os"

	"imsizer/internal/rawsensor"
)

// Minimum plausible sensor bit depths used when inferring bit depth
// from the largest observed sample value.
const (
	nefMinBits = 12 // Nikon sensors have been at least 12-bit for two decades
	rawMinBits = 10
)

// rawAspects lists the aspect ratios tried by the dimension guesser,
// in preference order (height/width).
var rawAspects = []float64{3.0 / 4.0, 2.0 / 3.0, 9.0 / 16.0}

// rawDimSlack is the tolerance for accepting non-integral guessed
// dimensions: both width and height must land within this distance of
// an integer, with the residual bytes attributed to an unknown header.
const rawDimSlack = 0.5

// inferBitDepth estimates bits per sample from the largest observed
// sample value: ceil(log2(max)), rounded up to an even number, clamped
// to the given floor. Very dark images make this an under-estimate.
func inferBitDepth(maxSample uint16, floor int) int {
	bits := 0
	if maxSample > 1 {
		bits = int(math.Ceil(math.Log2(float64(maxSample))))
		bits = (bits + 1) / 2 * 2
	}
	if bits < floor {
		bits = floor
	}
	return bits
}

// readNEF asks the rawsensor service to decode the visible sensor
// array, purely to learn its shape. This is the one parser that reads
// substantial file content rather than a bounded header. Bit depth is
// inferred from the largest sample value rather than read, so the
// record is marked uncertain.
func readNEF(filespec string) (*ImageInfo, error) {
	sensor, err := rawsensor.Decode(filespec)
	if err != nil {
		return nil, fmt.Errorf("%s: cannot decode sensor data: %w", filespec, ErrFormat)
	}
	info := &ImageInfo{
		FileSpec:  filespec,
		FileType:  "nef",
		Width:     sensor.Width,
		Height:    sensor.Height,
		NChan:     1,
		BitDepth:  inferBitDepth(sensor.Max(), nefMinBits),
		ByteDepth: 2,
		CFARaw:    true,
		Uncertain: true,
	}
	return info.complete()
}

// readRAW handles headerless sensor dumps, where the dimensions must
// be guessed from the file size. Candidate aspect ratios are tried in
// order: an exact integral fit wins outright; a near fit (within
// rawDimSlack of an integer) wins with the residual bytes attributed
// to an unknown header. If no candidate fits, the record is returned
// with the dimensions unset rather than failing, since there is no
// header to fail against.
func readRAW(filespec string) (*ImageInfo, error) {
	fi, err := os.Stat(filespec)
	if err != nil {
		return nil, err
	}
	info := &ImageInfo{
		FileSpec:  filespec,
		FileType:  "raw",
		FileSize:  fi.Size(),
		NChan:     1,
		ByteDepth: 2, // all sensors are at least 10-bit these days
		CFARaw:    true,
		Uncertain: true,
	}
	numPixels := float64(info.FileSize) / float64(info.ByteDepth)
	for _, aspect := range rawAspects {
		h := math.Sqrt(numPixels * aspect)
		w := numPixels / h
		if w == math.Trunc(w) && h == math.Trunc(h) {
			info.Width, info.Height = int(w), int(h)
			break
		}
		if math.Abs(w-math.Round(w)) < rawDimSlack && math.Abs(h-math.Round(h)) < rawDimSlack {
			width, height := int(math.Round(w)), int(math.Round(h))
			header := info.FileSize - int64(width)*int64(height)*int64(info.ByteDepth)
			if header < 0 {
				continue
			}
			info.Width, info.Height = width, height
			info.HeaderSize = header
			break
		}
	}
	if info.Width == 0 {
		return info, nil // could not guess dimensions; best-effort record
	}
	maxSample, err := maxSampleLE16(filespec, info.HeaderSize)
	if err != nil {
		return nil, err
	}
	info.BitDepth = inferBitDepth(maxSample, rawMinBits)
	return info.complete()
}

// maxSampleLE16 scans the file from the given offset as little-endian
// 16-bit samples and returns the largest value seen.
func maxSampleLE16(filespec string, offset int64) (uint16, error) {
	f, err := os.Open(filespec)
	if err != nil {
		return 0, err
	}
	defer f.Close()
	if _, err := f.Seek(offset, io.SeekStart); err != nil {
		return 0, err
	}
	br := bufio.NewReaderSize(f, 64*1024)
	var max uint16
	var pair [2]byte
	for {
		if _, err := io.ReadFull(br, pair[:]); err != nil {
			if err == io.EOF || err == io.ErrUnexpectedEOF {
				return max, nil
			}
			return 0, err
		}
		if v := binary.LittleEndian.Uint16(pair[:]); v > max {
			max = v
		}
	}
}
