package imsize

import (
	"errors"
	"testing"
)

func TestReadHDR(t *testing.T) {
	data := "#?RADIANCE\nFORMAT=32-bit_rle_rgbe\nEXPOSURE=1.0\n\n-Y 480 +X 720\n"
	path := writeFile(t, "image.hdr", []byte(data))
	info, err := Read(path)
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if info.FileType != "hdr" {
		t.Errorf("FileType = %q, want hdr", info.FileType)
	}
	if info.Width != 720 || info.Height != 480 {
		t.Errorf("dimensions = %dx%d, want 720x480", info.Width, info.Height)
	}
	if info.NChan != 3 || info.BitDepth != 32 || info.ByteDepth != 4 {
		t.Errorf("nchan/bitdepth/bytedepth = %d/%d/%d, want 3/32/4",
			info.NChan, info.BitDepth, info.ByteDepth)
	}
	if !info.IsFloat {
		t.Error("IsFloat = false for a Radiance HDR")
	}
	if want := int64(720 * 480 * 3 * 4); info.NBytes != want {
		t.Errorf("NBytes = %d, want %d", info.NBytes, want)
	}
}

func TestReadHDR_BadHeader(t *testing.T) {
	bad := []string{
		"#?NOTRADIANCE\n\n-Y 480 +X 720\n",
		"#?RADIANCE\nFORMAT=32-bit_rle_rgbe\n",      // no blank line
		"#?RADIANCE\n\n+X 720 -Y 480\n",             // unsupported orientation order
		"#?RADIANCE\n\n-Y four hundred +X eighty\n", // non-numeric dimensions
	}
	for _, data := range bad {
		path := writeFile(t, "bad.hdr", []byte(data))
		if _, err := Read(path); !errors.Is(err, ErrFormat) {
			t.Errorf("Read(%q) error = %v, want ErrFormat", data, err)
		}
	}
}
