// Package compress opens plain or compressed files for reading and writing.
package compress

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/pierrec/lz4"
)

// Kind names an output compression.
type Kind string

const (
	None Kind = "none"
	Gzip Kind = "gz"
	LZ4  Kind = "lz4"
)

// ParseKind validates a compression name. The empty string means None.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(s) {
	case "", "none":
		return None, nil
	case "gz", "gzip":
		return Gzip, nil
	case "lz4":
		return LZ4, nil
	}
	return "", fmt.Errorf("unknown compression %q (want none, gz or lz4)", s)
}

// Ext returns the file extension for the compression, including the dot.
func (k Kind) Ext() string {
	switch k {
	case Gzip:
		return ".gz"
	case LZ4:
		return ".lz4"
	}
	return ""
}

type readCloser struct {
	io.Reader
	closers []io.Closer
}

func (r *readCloser) Close() error {
	var first error
	for _, c := range r.closers {
		if err := c.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// Open opens path for reading, transparently decompressing gzip and lz4
// content. Gzip is detected by its magic bytes, lz4 by the frame magic.
// A path of "-" reads standard input.
func Open(path string) (io.ReadCloser, error) {
	var f *os.File
	if path == "-" {
		f = os.Stdin
	} else {
		var err error
		f, err = os.Open(path)
		if err != nil {
			return nil, err
		}
	}
	rc, err := NewReader(f)
	if err != nil {
		f.Close()
		return nil, err
	}
	rc.(*readCloser).closers = append(rc.(*readCloser).closers, f)
	return rc, nil
}

// NewReader wraps r with a decompressor chosen from the leading magic bytes.
// Closing the result does not close r.
func NewReader(r io.Reader) (io.ReadCloser, error) {
	br := bufio.NewReader(r)
	magic, err := br.Peek(4)
	if err != nil && err != io.EOF && err != bufio.ErrBufferFull {
		return nil, fmt.Errorf("read magic bytes: %w", err)
	}

	switch {
	case len(magic) >= 2 && magic[0] == 0x1f && magic[1] == 0x8b:
		gz, err := gzip.NewReader(br)
		if err != nil {
			return nil, fmt.Errorf("create gzip reader: %w", err)
		}
		return &readCloser{Reader: gz, closers: []io.Closer{gz}}, nil
	case len(magic) == 4 && magic[0] == 0x04 && magic[1] == 0x22 && magic[2] == 0x4d && magic[3] == 0x18:
		return &readCloser{Reader: lz4.NewReader(br)}, nil
	}
	return &readCloser{Reader: br}, nil
}

type writeCloser struct {
	io.Writer
	closers []io.Closer
}

func (w *writeCloser) Close() error {
	var first error
	for _, c := range w.closers {
		if err := c.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// Create creates path and returns a writer compressing with kind.
// Close flushes the compressor before closing the file.
func Create(path string, kind Kind) (io.WriteCloser, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create file: %w", err)
	}
	w := NewWriter(f, kind).(*writeCloser)
	w.closers = append(w.closers, f)
	return w, nil
}

// NewWriter wraps w with the compressor for kind. Closing the result flushes
// the compressor but does not close w.
func NewWriter(w io.Writer, kind Kind) io.WriteCloser {
	switch kind {
	case Gzip:
		gz := gzip.NewWriter(w)
		return &writeCloser{Writer: gz, closers: []io.Closer{gz}}
	case LZ4:
		lz := lz4.NewWriter(w)
		return &writeCloser{Writer: lz, closers: []io.Closer{lz}}
	}
	return &writeCloser{Writer: w}
}
