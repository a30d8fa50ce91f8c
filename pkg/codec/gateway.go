package codec

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
)

// Gateway performs one synchronous compress or decompress transform.
//
// Output is staged in a temporary file inside the destination folder and
// renamed into place only after every stream has been flushed and closed.
// An existing file at the final path is overwritten without warning.
type Gateway struct {
	logger *log.Logger
}

// NewGateway creates a new Gateway. A nil logger discards output.
func NewGateway(logger *log.Logger) *Gateway {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Gateway{logger: logger}
}

// Compress writes sourcePath through codec c into
// destinationFolder/CompressedName(sourcePath, c) and returns that path.
func (g *Gateway) Compress(ctx context.Context, sourcePath string, c Codec, destinationFolder string) (string, error) {
	if !c.Valid() {
		return "", newError(KindCodec, OpCompress, c, sourcePath, fmt.Errorf("%w: %q", ErrUnknownCodec, string(c)))
	}

	outputPath := filepath.Join(destinationFolder, CompressedName(sourcePath, c))
	g.logger.Printf("[Gateway] Compress: codec=%s src=%s out=%s", c, sourcePath, outputPath)

	err := g.transform(ctx, OpCompress, c, sourcePath, outputPath, func(dst io.Writer, src io.Reader, info os.FileInfo) error {
		cw, err := c.newWriter(dst, filepath.Base(sourcePath), info.ModTime())
		if err != nil {
			return err
		}
		buf := make([]byte, BufferSize)
		if _, err := io.CopyBuffer(cw, src, buf); err != nil {
			cw.Close()
			return err
		}
		return cw.Close()
	})
	if err != nil {
		g.logger.Printf("[Gateway] Compress: failed: %v", err)
		return "", err
	}
	return outputPath, nil
}

// Decompress reads sourcePath through codec c into
// destinationFolder/DecompressedName(sourcePath) and returns that path.
// Input that is not valid data for c fails with KindCodec.
func (g *Gateway) Decompress(ctx context.Context, sourcePath string, c Codec, destinationFolder string) (string, error) {
	if !c.Valid() {
		return "", newError(KindCodec, OpDecompress, c, sourcePath, fmt.Errorf("%w: %q", ErrUnknownCodec, string(c)))
	}

	name := DecompressedName(sourcePath)
	if name == "" {
		return "", newError(KindIO, OpDecompress, c, sourcePath, errors.New("cannot derive an output file name"))
	}
	outputPath := filepath.Join(destinationFolder, name)
	g.logger.Printf("[Gateway] Decompress: codec=%s src=%s out=%s", c, sourcePath, outputPath)

	err := g.transform(ctx, OpDecompress, c, sourcePath, outputPath, func(dst io.Writer, src io.Reader, _ os.FileInfo) error {
		cr, err := c.newReader(src)
		if err != nil {
			return err
		}
		defer cr.Close()
		buf := make([]byte, BufferSize)
		_, err = io.CopyBuffer(dst, cr, buf)
		return err
	})
	if err != nil {
		g.logger.Printf("[Gateway] Decompress: failed: %v", err)
		return "", err
	}
	return outputPath, nil
}

type pipeFunc func(dst io.Writer, src io.Reader, info os.FileInfo) error

// transform owns every file handle of one job. All handles are closed
// before it returns, and the temporary output is removed on failure.
func (g *Gateway) transform(ctx context.Context, op Op, c Codec, sourcePath, outputPath string, pipe pipeFunc) error {
	if ctx == nil {
		ctx = context.Background()
	}
	in, err := os.Open(sourcePath)
	if err != nil {
		return newError(KindIO, op, c, sourcePath, err)
	}
	defer in.Close()

	info, err := in.Stat()
	if err != nil {
		return newError(KindIO, op, c, sourcePath, err)
	}
	if !info.Mode().IsRegular() {
		return newError(KindIO, op, c, sourcePath, errors.New("not a regular file"))
	}

	tmp, err := os.CreateTemp(filepath.Dir(outputPath), ".cmprssr-*.part")
	if err != nil {
		return newError(KindIO, op, c, outputPath, err)
	}
	tmpPath := tmp.Name()
	closed, committed := false, false
	defer func() {
		if !closed {
			tmp.Close()
		}
		if !committed {
			os.Remove(tmpPath)
		}
	}()

	src := &fileReader{ctx: ctx, r: in}
	dst := &fileWriter{w: tmp}
	if err := pipe(dst, src, info); err != nil {
		switch {
		case dst.err != nil:
			return newError(KindIO, op, c, outputPath, err)
		case src.err != nil:
			return newError(KindIO, op, c, sourcePath, err)
		case op == OpDecompress:
			if errors.Is(err, io.EOF) {
				err = io.ErrUnexpectedEOF
			}
			return newError(KindCodec, op, c, sourcePath, err)
		default:
			return newError(KindIO, op, c, sourcePath, err)
		}
	}

	if err := tmp.Chmod(0644); err != nil {
		return newError(KindIO, op, c, outputPath, err)
	}
	closed = true
	if err := tmp.Close(); err != nil {
		return newError(KindIO, op, c, outputPath, err)
	}
	if err := os.Rename(tmpPath, outputPath); err != nil {
		return newError(KindIO, op, c, outputPath, err)
	}
	committed = true
	return nil
}

// fileReader records errors raised by the source file itself so they can
// be told apart from errors raised by a codec stream reading it.
type fileReader struct {
	ctx context.Context
	r   io.Reader
	err error
}

func (r *fileReader) Read(p []byte) (int, error) {
	if err := r.ctx.Err(); err != nil {
		r.err = err
		return 0, err
	}
	n, err := r.r.Read(p)
	if err != nil && err != io.EOF {
		r.err = err
	}
	return n, err
}

type fileWriter struct {
	w   io.Writer
	err error
}

func (w *fileWriter) Write(p []byte) (int, error) {
	n, err := w.w.Write(p)
	if err != nil {
		w.err = err
	}
	return n, err
}
