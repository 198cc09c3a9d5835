package imsize

import (
	"bytes"
	"encoding/binary"
	"errors"
	"testing"
)

func buildNPY(header string) []byte {
	buf := new(bytes.Buffer)
	buf.Write(npyMagic)
	buf.Write([]byte{1, 0}) // format version
	binary.Write(buf, binary.LittleEndian, uint16(len(header)))
	buf.WriteString(header)
	return buf.Bytes()
}

func TestReadNPY(t *testing.T) {
	tests := []struct {
		name       string
		header     string
		wantW      int
		wantH      int
		wantNChan  int
		wantBits   int
		wantFloat  bool
		wantMaxVal float64
	}{
		{
			"uint16 3-D",
			"{'descr': '<u2', 'fortran_order': False, 'shape': (10, 20, 5), }\n",
			20, 10, 5, 16, false, 65535,
		},
		{
			"float32 2-D",
			"{'descr': '<f4', 'fortran_order': False, 'shape': (4, 6), }\n",
			6, 4, 1, 32, true, 1.0,
		},
		{
			"uint8 rgb",
			"{'descr': '|u1', 'fortran_order': False, 'shape': (480, 640, 3), }\n",
			640, 480, 3, 8, false, 255,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeFile(t, "array.npy", buildNPY(tt.header))
			info, err := Read(path)
			if err != nil {
				t.Fatalf("Read() error = %v", err)
			}
			if info.FileType != "npy" {
				t.Errorf("FileType = %q, want npy", info.FileType)
			}
			if info.Width != tt.wantW || info.Height != tt.wantH {
				t.Errorf("dimensions = %dx%d, want %dx%d", info.Width, info.Height, tt.wantW, tt.wantH)
			}
			if info.NChan != tt.wantNChan {
				t.Errorf("NChan = %d, want %d", info.NChan, tt.wantNChan)
			}
			if info.BitDepth != tt.wantBits {
				t.Errorf("BitDepth = %d, want %d", info.BitDepth, tt.wantBits)
			}
			if info.IsFloat != tt.wantFloat {
				t.Errorf("IsFloat = %t, want %t", info.IsFloat, tt.wantFloat)
			}
			if info.MaxVal != tt.wantMaxVal {
				t.Errorf("MaxVal = %g, want %g", info.MaxVal, tt.wantMaxVal)
			}
			wantNBytes := int64(tt.wantW) * int64(tt.wantH) * int64(tt.wantNChan) * int64(tt.wantBits/8)
			if info.NBytes != wantNBytes {
				t.Errorf("NBytes = %d, want %d", info.NBytes, wantNBytes)
			}
		})
	}
}

func TestReadNPY_BadFile(t *testing.T) {
	bad := [][]byte{
		[]byte("not numpy data at all, just filler"),
		buildNPY("{'descr': '<u2', 'fortran_order': False, 'shape': (100,), }\n"),         // rank 1
		buildNPY("{'descr': '<u2', 'fortran_order': False, 'shape': (2, 2, 2, 2), }\n"),   // rank 4
		buildNPY("{'fortran_order': False, 'shape': (4, 6), }\n"),                         // no descr
		buildNPY("{'descr': '<u2', 'fortran_order': False, 'shape': (four, six), }\n"),    // bad dims
	}
	for _, data := range bad {
		path := writeFile(t, "bad.npy", data)
		if _, err := Read(path); !errors.Is(err, ErrFormat) {
			t.Errorf("Read() error = %v, want ErrFormat", err)
		}
	}
}
