// Package imsize extracts image dimensions, bit depth, and other basic
// metadata by parsing only the header bytes of a file. Pixel data is
// never decoded, except for a few proprietary camera formats that
// expose no usable header (Nikon NEF, headerless sensor dumps).
//
// Example:
//
//	info, err := imsize.Read("myfile.jpg")
//	factor := float64(info.NBytes) / float64(info.FileSize)
package imsize

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// ImageInfo holds the metadata extracted from a single image file.
// It is filled in by Read and never mutated afterwards. Zero values
// stand for fields that could not be determined.
type ImageInfo struct {
	FileSpec      string  // path given to Read, copied verbatim
	FileType      string  // png|pnm|pfm|bmp|jpeg|insp|tiff|exr|hdr|dng|cr2|nef|raw|npy, or the raw extension
	FileSize      int64   // size of the file on disk in bytes
	Width         int     // width in pixels, orientation ignored (0 = unknown)
	Height        int     // height in pixels, orientation ignored (0 = unknown)
	NChan         int     // number of color channels: 1, 2, 3 or 4
	BitDepth      int     // bits per sample: 1 to 32
	ByteDepth     int     // bytes per sample: 1, 2 or 4
	MaxVal        float64 // maximum representable sample value, e.g. 255
	NBytes        int64   // size of the image in bytes, uncompressed
	IsFloat       bool    // samples are in floating-point format
	CFARaw        bool    // samples are in CFA (Bayer) raw format
	Orientation   int     // image orientation in EXIF terms: 1 to 8, or 0 (unknown)
	Rot90CCWSteps int     // 90-degree CCW rotations to bring the image upright: 0 to 3
	Uncertain     bool    // width/height/bitdepth are guessed, not read from a header
	MultiPicture  bool    // the file contains more than one image
	NumImages     int     // number of images contained in the file
	ImageSizes    []int64 // size of each image in the file, in bytes
	ImageOffsets  []int64 // absolute offset of each image in the file, in bytes
	HeaderSize    int64   // bytes of non-pixel header preceding raw pixel data
}

// String renders the record one field per line, in declaration order.
func (info *ImageInfo) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "filespec:        %s\n", info.FileSpec)
	fmt.Fprintf(&b, "filetype:        %s\n", info.FileType)
	fmt.Fprintf(&b, "filesize:        %d\n", info.FileSize)
	fmt.Fprintf(&b, "width:           %d\n", info.Width)
	fmt.Fprintf(&b, "height:          %d\n", info.Height)
	fmt.Fprintf(&b, "nchan:           %d\n", info.NChan)
	fmt.Fprintf(&b, "bitdepth:        %d\n", info.BitDepth)
	fmt.Fprintf(&b, "bytedepth:       %d\n", info.ByteDepth)
	fmt.Fprintf(&b, "maxval:          %g\n", info.MaxVal)
	fmt.Fprintf(&b, "nbytes:          %d\n", info.NBytes)
	fmt.Fprintf(&b, "isfloat:         %t\n", info.IsFloat)
	fmt.Fprintf(&b, "cfa_raw:         %t\n", info.CFARaw)
	fmt.Fprintf(&b, "orientation:     %d\n", info.Orientation)
	fmt.Fprintf(&b, "rot90_ccw_steps: %d\n", info.Rot90CCWSteps)
	fmt.Fprintf(&b, "uncertain:       %t\n", info.Uncertain)
	fmt.Fprintf(&b, "multi_picture:   %t\n", info.MultiPicture)
	fmt.Fprintf(&b, "num_images:      %d\n", info.NumImages)
	fmt.Fprintf(&b, "image_sizes:     %v\n", info.ImageSizes)
	fmt.Fprintf(&b, "image_offsets:   %v\n", info.ImageOffsets)
	fmt.Fprintf(&b, "header_size:     %d", info.HeaderSize)
	return b.String()
}

type parserFunc func(filespec string) (*ImageInfo, error)

// parsers maps a lowercased file extension to the parser for that
// format. Multiple extensions can share a parser.
var parsers = map[string]parserFunc{
	"png":  readPNG,
	"pnm":  readPNM,
	"pgm":  readPNM,
	"ppm":  readPNM,
	"pfm":  readPFM,
	"bmp":  readBMP,
	"jpeg": readJPEG,
	"jpg":  readJPEG,
	"insp": readINSP,
	"tiff": readTIFF,
	"tif":  readTIFF,
	"exr":  readEXR,
	"hdr":  readHDR,
	"dng":  readDNG,
	"cr2":  readCR2,
	"nef":  readNEF,
	"raw":  readRAW,
	"npy":  readNPY,
}

// Extensions returns the file extensions recognized by Read, without
// the leading dot, in sorted order.
func Extensions() []string {
	exts := make([]string, 0, len(parsers))
	for ext := range parsers {
		exts = append(exts, ext)
	}
	sort.Strings(exts)
	return exts
}

// Read parses a lowest common denominator set of metadata from the
// given image: the dimensions, channel count, and bit depth. Only the
// header bytes are read from disk, not the entire file (with the NEF
// and headerless RAW exceptions noted in the package comment).
//
// The parser is selected by file extension. A recognized file that
// fails to parse yields a typed error (ErrFormat, ErrMetadataMissing,
// or ErrReservedStructure). An unrecognized extension is not an error:
// the returned record carries only the basic file attributes, with
// Uncertain set.
func Read(filespec string) (*ImageInfo, error) {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(filespec), "."))
	if parse, ok := parsers[ext]; ok {
		return parse(filespec)
	}
	fi, err := os.Stat(filespec)
	if err != nil {
		return nil, err
	}
	return &ImageInfo{
		FileSpec:  filespec,
		FileType:  ext,
		FileSize:  fi.Size(),
		NBytes:    fi.Size(),
		Uncertain: true,
	}, nil
}

// exifToRot90 maps an EXIF orientation tag to the number of 90-degree
// counter-clockwise rotations needed to display the image upright.
// Mirrored orientations (2, 4, 5, 7) collapse onto the rotation of
// their non-mirrored counterparts; the flip component is not modeled.
var exifToRot90 = map[int]int{1: 0, 2: 0, 3: 2, 4: 0, 5: 1, 6: 3, 7: 3, 8: 1}

func rot90Steps(orientation int) int {
	return exifToRot90[orientation]
}

// complete fills in the fields that can be derived from the ones a
// parser decoded, and defaults the rest. Every parser runs it exactly
// once, as its final step.
func (info *ImageInfo) complete() (*ImageInfo, error) {
	if info.FileSize == 0 {
		fi, err := os.Stat(info.FileSpec)
		if err != nil {
			return nil, err
		}
		info.FileSize = fi.Size()
	}
	if info.MaxVal == 0 && info.BitDepth > 0 {
		info.MaxVal = math.Pow(2, float64(info.BitDepth)) - 1
	}
	if info.BitDepth == 0 && info.MaxVal > 0 {
		info.BitDepth = int(math.Log2(info.MaxVal + 1))
	}
	if info.ByteDepth == 0 {
		if info.MaxVal > 255 {
			info.ByteDepth = 2
		} else {
			info.ByteDepth = 1
		}
	}
	if info.Width > 0 && info.Height > 0 {
		info.NBytes = int64(info.Width) * int64(info.Height) * int64(info.NChan) * int64(info.ByteDepth)
	}
	if !info.MultiPicture {
		info.NumImages = 1
		info.ImageSizes = []int64{info.FileSize}
		info.ImageOffsets = []int64{0}
	}
	return info, nil
}
