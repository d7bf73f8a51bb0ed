package storage

import (
	"bytes"
	"compress/gzip"
	"encoding/base64"
	"io"
)

// compressedPrefix marks blobs written by Encode with compression on. Blobs
// without it are stored raw, so switching compression never strands data.
const compressedPrefix = "gz1:"

// Encode optionally compresses data into a printable blob.
func Encode(data []byte, compress bool) ([]byte, error) {
	if !compress {
		return data, nil
	}
	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	if _, err := zw.Write(data); err != nil {
		return nil, err
	}
	if err := zw.Close(); err != nil {
		return nil, err
	}
	out := make([]byte, len(compressedPrefix)+base64.StdEncoding.EncodedLen(buf.Len()))
	copy(out, compressedPrefix)
	base64.StdEncoding.Encode(out[len(compressedPrefix):], buf.Bytes())
	return out, nil
}

// Decode reverses Encode, detecting whether the blob was compressed.
func Decode(blob []byte) ([]byte, error) {
	if !bytes.HasPrefix(blob, []byte(compressedPrefix)) {
		return blob, nil
	}
	raw := make([]byte, base64.StdEncoding.DecodedLen(len(blob)-len(compressedPrefix)))
	n, err := base64.StdEncoding.Decode(raw, blob[len(compressedPrefix):])
	if err != nil {
		return nil, err
	}
	zr, err := gzip.NewReader(bytes.NewReader(raw[:n]))
	if err != nil {
		return nil, err
	}
	defer zr.Close()
	return io.ReadAll(zr)
}

type codecStore struct {
	inner    Store
	compress func() bool
}

// WithCodec compresses blobs on write whenever compress reports true and
// decodes them transparently on read.
func WithCodec(s Store, compress func() bool) Store {
	return &codecStore{inner: s, compress: compress}
}

func (c *codecStore) Get(key string) ([]byte, error) {
	blob, err := c.inner.Get(key)
	if err != nil {
		return nil, err
	}
	data, err := Decode(blob)
	if err != nil {
		return nil, &CorruptError{Key: key, Err: err}
	}
	return data, nil
}

func (c *codecStore) Set(key string, data []byte) error {
	blob, err := Encode(data, c.compress != nil && c.compress())
	if err != nil {
		return err
	}
	return c.inner.Set(key, blob)
}

func (c *codecStore) Remove(key string) error {
	return c.inner.Remove(key)
}
