package imsize

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// readHDR parses a Radiance HDR text header: the `#?RADIANCE` magic
// line, arbitrary variable lines up to the first blank line, then the
// resolution line `-Y <height> +X <width>`. No other orientation forms
// are supported. Pixels are always 3-channel 32-bit float.
func readHDR(filespec string) (*ImageInfo, error) {
	f, err := os.Open(filespec)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	br := bufio.NewReader(f)

	badFile := func() error {
		return fmt.Errorf("%s: not a valid Radiance HDR file: %w", filespec, ErrFormat)
	}
	first, err := br.ReadString('\n')
	if err != nil || first != "#?RADIANCE\n" {
		return nil, badFile()
	}
	for {
		line, err := br.ReadString('\n')
		if err != nil {
			return nil, badFile()
		}
		if line != "\n" {
			continue
		}
		res, err := br.ReadString('\n')
		if err != nil && res == "" {
			return nil, badFile()
		}
		fields := strings.Fields(res)
		if len(fields) != 4 || fields[0] != "-Y" || fields[2] != "+X" {
			return nil, badFile()
		}
		height, herr := strconv.Atoi(fields[1])
		width, werr := strconv.Atoi(fields[3])
		if herr != nil || werr != nil {
			return nil, badFile()
		}
		info := &ImageInfo{
			FileSpec:  filespec,
			FileType:  "hdr",
			Width:     width,
			Height:    height,
			NChan:     3,
			BitDepth:  32,
			ByteDepth: 4,
			IsFloat:   true,
		}
		return info.complete()
	}
}
