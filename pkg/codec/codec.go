// Package codec wraps the three supported compression codecs behind one
// compress/decompress surface and owns the output file naming rules.
package codec

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/dsnet/compress/bzip2"
	"github.com/klauspost/compress/gzip"
	"github.com/ulikunitz/xz"
)

// Codec identifies one of the supported compression algorithms
type Codec string

const (
	Gzip Codec = "gzip"
	Lzma Codec = "lzma"
	Bz2  Codec = "bz2"
)

// Codecs lists every supported codec in UI order
var Codecs = []Codec{Gzip, Lzma, Bz2}

// Op is the direction of a transform
type Op string

const (
	OpCompress   Op = "compress"
	OpDecompress Op = "decompress"
)

const (
	// BufferSize for copying
	BufferSize = 64 * 1024
	// bz2Level is the bzip2 command-line default (900k blocks)
	bz2Level = 9
)

// ParseCodec accepts a codec name or its common alias, case-insensitive
func ParseCodec(name string) (Codec, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "gzip", "gz":
		return Gzip, nil
	case "lzma", "xz":
		return Lzma, nil
	case "bz2", "bzip2":
		return Bz2, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownCodec, name)
}

// ParseOp accepts "compress" or "decompress", case-insensitive
func ParseOp(name string) (Op, error) {
	switch Op(strings.ToLower(strings.TrimSpace(name))) {
	case OpCompress:
		return OpCompress, nil
	case OpDecompress:
		return OpDecompress, nil
	}
	return "", fmt.Errorf("unknown operation %q", name)
}

// Valid reports whether c is one of the supported codecs
func (c Codec) Valid() bool {
	return c == Gzip || c == Lzma || c == Bz2
}

// Extension returns the file suffix appended on compression
func (c Codec) Extension() string {
	switch c {
	case Gzip:
		return ".gz"
	case Lzma:
		return ".xz"
	case Bz2:
		return ".bz2"
	}
	return ""
}

// CompressedName is basename(sourcePath) with the codec's extension appended.
func CompressedName(sourcePath string, c Codec) string {
	return filepath.Base(sourcePath) + c.Extension()
}

// DecompressedName is basename(sourcePath) with everything from the final
// dot removed. A name without a dot is returned unchanged, so decompressing
// "noext" writes "noext".
func DecompressedName(sourcePath string) string {
	base := filepath.Base(sourcePath)
	if i := strings.LastIndex(base, "."); i >= 0 {
		return base[:i]
	}
	return base
}

// DetectCodec guesses a codec from the file suffix. Drivers use it to
// preselect a codec; the Gateway never calls it.
func DetectCodec(path string) (Codec, bool) {
	lower := strings.ToLower(path)
	for _, c := range Codecs {
		if strings.HasSuffix(lower, c.Extension()) {
			return c, true
		}
	}
	return "", false
}

// newWriter opens the codec's compressing stream over w.
// name and modTime are recorded in the gzip header only.
func (c Codec) newWriter(w io.Writer, name string, modTime time.Time) (io.WriteCloser, error) {
	switch c {
	case Gzip:
		zw, err := gzip.NewWriterLevel(w, gzip.BestCompression)
		if err != nil {
			return nil, err
		}
		zw.Name = name
		zw.ModTime = modTime
		return zw, nil
	case Lzma:
		xw, err := xz.NewWriter(w)
		if err != nil {
			return nil, err
		}
		return xw, nil
	case Bz2:
		bw, err := bzip2.NewWriter(w, &bzip2.WriterConfig{Level: bz2Level})
		if err != nil {
			return nil, err
		}
		return bw, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownCodec, string(c))
}

// newReader opens the codec's decompressing stream over r.
func (c Codec) newReader(r io.Reader) (io.ReadCloser, error) {
	switch c {
	case Gzip:
		zr, err := gzip.NewReader(r)
		if err != nil {
			return nil, err
		}
		return zr, nil
	case Lzma:
		xr, err := xz.NewReader(r)
		if err != nil {
			return nil, err
		}
		return io.NopCloser(xr), nil
	case Bz2:
		br, err := bzip2.NewReader(r, nil)
		if err != nil {
			return nil, err
		}
		return br, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownCodec, string(c))
}
