package easysqlite

import (
	"compress/bzip2"
	"compress/gzip"
	"fmt"
	"io"
	"strings"

	"github.com/klauspost/compress/zstd"
	"github.com/ulikunitz/xz"
)

// CompressionType selects the compression applied to CSV/TSV dumps and
// recognized when importing files.
type CompressionType int

const (
	// CompressionNone applies no compression
	CompressionNone CompressionType = iota
	// CompressionGZ is gzip (.gz)
	CompressionGZ
	// CompressionBZ2 is bzip2 (.bz2), read-only: the standard library has no
	// bzip2 writer
	CompressionBZ2
	// CompressionXZ is xz (.xz)
	CompressionXZ
	// CompressionZSTD is Zstandard (.zst)
	CompressionZSTD
)

// String returns the short name of the compression type.
func (c CompressionType) String() string {
	switch c {
	case CompressionGZ:
		return "gz"
	case CompressionBZ2:
		return "bz2"
	case CompressionXZ:
		return "xz"
	case CompressionZSTD:
		return "zstd"
	default:
		return "none"
	}
}

// Extension returns the file extension for the compression type.
func (c CompressionType) Extension() string {
	switch c {
	case CompressionGZ:
		return ".gz"
	case CompressionBZ2:
		return ".bz2"
	case CompressionXZ:
		return ".xz"
	case CompressionZSTD:
		return ".zst"
	default:
		return ""
	}
}

// detectCompression infers the compression type from a file path suffix.
func detectCompression(path string) CompressionType {
	switch lower := strings.ToLower(path); {
	case strings.HasSuffix(lower, ".gz"):
		return CompressionGZ
	case strings.HasSuffix(lower, ".bz2"):
		return CompressionBZ2
	case strings.HasSuffix(lower, ".xz"):
		return CompressionXZ
	case strings.HasSuffix(lower, ".zst"):
		return CompressionZSTD
	default:
		return CompressionNone
	}
}

// stripCompressionExtension removes a trailing compression extension, if any.
func stripCompressionExtension(path string) string {
	lower := strings.ToLower(path)
	for _, ext := range []string{".gz", ".bz2", ".xz", ".zst"} {
		if strings.HasSuffix(lower, ext) {
			return path[:len(path)-len(ext)]
		}
	}
	return path
}

// newCompressionReader wraps r with a decompressor. The returned close
// function must be called after reading.
func newCompressionReader(r io.Reader, compression CompressionType) (io.Reader, func() error, error) {
	switch compression {
	case CompressionNone:
		return r, func() error { return nil }, nil
	case CompressionGZ:
		gz, err := gzip.NewReader(r)
		if err != nil {
			return nil, nil, fmt.Errorf("create gzip reader: %w", err)
		}
		return gz, gz.Close, nil
	case CompressionBZ2:
		return bzip2.NewReader(r), func() error { return nil }, nil
	case CompressionXZ:
		xzr, err := xz.NewReader(r)
		if err != nil {
			return nil, nil, fmt.Errorf("create xz reader: %w", err)
		}
		return xzr, func() error { return nil }, nil
	case CompressionZSTD:
		dec, err := zstd.NewReader(r)
		if err != nil {
			return nil, nil, fmt.Errorf("create zstd reader: %w", err)
		}
		return dec, func() error { dec.Close(); return nil }, nil
	default:
		return nil, nil, fmt.Errorf("unsupported compression type %v", compression)
	}
}

// newCompressionWriter wraps w with a compressor. The returned close function
// flushes and must be called before closing the underlying file.
func newCompressionWriter(w io.Writer, compression CompressionType) (io.Writer, func() error, error) {
	switch compression {
	case CompressionNone:
		return w, func() error { return nil }, nil
	case CompressionGZ:
		gz := gzip.NewWriter(w)
		return gz, gz.Close, nil
	case CompressionBZ2:
		return nil, nil, fmt.Errorf("bzip2 compression is not supported for writing")
	case CompressionXZ:
		xzw, err := xz.NewWriter(w)
		if err != nil {
			return nil, nil, fmt.Errorf("create xz writer: %w", err)
		}
		return xzw, xzw.Close, nil
	case CompressionZSTD:
		enc, err := zstd.NewWriter(w)
		if err != nil {
			return nil, nil, fmt.Errorf("create zstd writer: %w", err)
		}
		return enc, enc.Close, nil
	default:
		return nil, nil, fmt.Errorf("unsupported compression type %v", compression)
	}
}
