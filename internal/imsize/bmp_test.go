package imsize

import (
	"bytes"
	"encoding/binary"
	"errors"
	"testing"
)

func buildBMP(width, height int32, bpp uint16) []byte {
	buf := new(bytes.Buffer)
	buf.WriteString("BM")
	binary.Write(buf, binary.LittleEndian, uint32(0)) // file size, unused
	binary.Write(buf, binary.LittleEndian, uint32(0)) // reserved
	binary.Write(buf, binary.LittleEndian, uint32(54))
	binary.Write(buf, binary.LittleEndian, uint32(40)) // DIB header size
	binary.Write(buf, binary.LittleEndian, width)
	binary.Write(buf, binary.LittleEndian, height)
	binary.Write(buf, binary.LittleEndian, uint16(1)) // planes
	binary.Write(buf, binary.LittleEndian, bpp)
	return buf.Bytes()
}

func TestReadBMP(t *testing.T) {
	tests := []struct {
		bpp       uint16
		wantNChan int
	}{
		{8, 3},
		{24, 3},
		{32, 4},
	}
	for _, tt := range tests {
		path := writeFile(t, "image.bmp", buildBMP(1024, 768, tt.bpp))
		info, err := Read(path)
		if err != nil {
			t.Fatalf("Read() error = %v", err)
		}
		if info.FileType != "bmp" {
			t.Errorf("FileType = %q, want bmp", info.FileType)
		}
		if info.Width != 1024 || info.Height != 768 {
			t.Errorf("dimensions = %dx%d, want 1024x768", info.Width, info.Height)
		}
		if info.NChan != tt.wantNChan {
			t.Errorf("bpp %d: NChan = %d, want %d", tt.bpp, info.NChan, tt.wantNChan)
		}
		if info.BitDepth != 8 || info.ByteDepth != 1 || info.MaxVal != 255 {
			t.Errorf("bitdepth/bytedepth/maxval = %d/%d/%g, want 8/1/255",
				info.BitDepth, info.ByteDepth, info.MaxVal)
		}
	}
}

func TestReadBMP_TopDown(t *testing.T) {
	// Top-down DIBs store a negative height.
	path := writeFile(t, "image.bmp", buildBMP(640, -480, 24))
	info, err := Read(path)
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if info.Height != 480 {
		t.Errorf("Height = %d, want 480", info.Height)
	}
}

func TestReadBMP_BadFile(t *testing.T) {
	for _, data := range [][]byte{[]byte("XX not a bitmap, just padding bytes..."), {0x42}} {
		path := writeFile(t, "bad.bmp", data)
		if _, err := Read(path); !errors.Is(err, ErrFormat) {
			t.Errorf("Read() error = %v, want ErrFormat", err)
		}
	}
}
