package bundle

import (
	"fmt"
	"io"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// codec pairs a compression scheme with its stream wrappers and the
// file extension of sealed bundles.
type codec struct {
	name       string
	ext        string
	wrapWriter func(w io.Writer) (io.WriteCloser, error)
	wrapReader func(r io.Reader) (io.ReadCloser, error)
}

var codecs = map[string]codec{
	"none": {
		name: "none",
		ext:  ".tar",
		wrapWriter: func(w io.Writer) (io.WriteCloser, error) {
			return nopWriteCloser{w}, nil
		},
		wrapReader: func(r io.Reader) (io.ReadCloser, error) {
			return io.NopCloser(r), nil
		},
	},
	"gzip": {
		name: "gzip",
		ext:  ".tar.gz",
		wrapWriter: func(w io.Writer) (io.WriteCloser, error) {
			zw := gzip.NewWriter(w)
			// Leave the header zeroed so identical input compresses
			// to identical bytes.
			zw.Header.OS = 255
			return zw, nil
		},
		wrapReader: func(r io.Reader) (io.ReadCloser, error) {
			return gzip.NewReader(r)
		},
	},
	"zstd": {
		name: "zstd",
		ext:  ".tar.zst",
		wrapWriter: func(w io.Writer) (io.WriteCloser, error) {
			return zstd.NewWriter(w)
		},
		wrapReader: func(r io.Reader) (io.ReadCloser, error) {
			zr, err := zstd.NewReader(r)
			if err != nil {
				return nil, err
			}
			return zr.IOReadCloser(), nil
		},
	},
	"lz4": {
		name: "lz4",
		ext:  ".tar.lz4",
		wrapWriter: func(w io.Writer) (io.WriteCloser, error) {
			return lz4.NewWriter(w), nil
		},
		wrapReader: func(r io.Reader) (io.ReadCloser, error) {
			return io.NopCloser(lz4.NewReader(r)), nil
		},
	},
}

func codecFor(name string) (codec, error) {
	c, ok := codecs[name]
	if !ok {
		return codec{}, fmt.Errorf("unknown compression %q", name)
	}
	return c, nil
}

type nopWriteCloser struct {
	io.Writer
}

func (nopWriteCloser) Close() error { return nil }
