package lasio

import (
	"io"
	"os"
	"path/filepath"
	"strings"
)

// FileType is the kind of point cloud file.
type FileType string

const (
	LAS     FileType = "LAS"
	LAZ     FileType = "LAZ"
	Unknown FileType = "UNKNOWN"
)

// DetectFileType inspects the signature and point format byte of a file.
// A file without the LAS signature is Unknown whatever its extension.
func DetectFileType(path string) (FileType, error) {
	f, err := os.Open(path)
	if err != nil {
		return Unknown, err
	}
	defer func() { _ = f.Close() }()

	b := make([]byte, 105)
	n, err := io.ReadFull(f, b)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return Unknown, err
	}
	if !isSignature(b[:n]) {
		return Unknown, nil
	}
	if strings.EqualFold(filepath.Ext(path), ".laz") || (n > 104 && b[104]&compressedBits != 0) {
		return LAZ, nil
	}
	return LAS, nil
}
