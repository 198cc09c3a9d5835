package imsize

import (
	"bufio"
	"fmt"
	"strings"
)

// readCString reads a NUL-terminated string of at most maxLen bytes
// from r. The terminating NUL is consumed but not returned.
func readCString(r *bufio.Reader, maxLen int) (string, error) {
	var sb strings.Builder
	for i := 0; i <= maxLen; i++ {
		c, err := r.ReadByte()
		if err != nil {
			return "", err
		}
		if c == 0 {
			return sb.String(), nil
		}
		sb.WriteByte(c)
	}
	return "", fmt.Errorf("string exceeds %d bytes", maxLen)
}
