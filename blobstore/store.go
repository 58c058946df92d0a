// ─────────────────────────────────────────────────────────────────────────────
// [Filename]: store.go — blob acquisition abstraction for firmware build artifacts
//
// Purpose:
//   - Firmware build tooling fetches graph.dem/shots.b8 from wherever a team
//     stages its build products before embedding them: a local checkout, an
//     S3 bucket, or an on-prem MinIO/S3-compatible endpoint. Store is the
//     one interface all three implementations satisfy.
//   - Open additionally handles blobs that were staged compressed: it sniffs
//     a magic prefix and transparently wraps the reader, so demformat never
//     needs to know whether the bytes it's parsing came off disk as-is or
//     through a zstd/lz4 decoder.
//
// Notes:
//   - This is build/host tooling, not firmware: the decode core itself never
//     imports this package, consistent with demformat taking a plain
//     io.Reader rather than a Store.
// ─────────────────────────────────────────────────────────────────────────────

package blobstore

import (
	"bytes"
	"context"
	"errors"
	"io"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// ErrNotFound is returned when a blob does not exist under the requested key.
var ErrNotFound = errors.New("blobstore: not found")

// Store abstracts getting and putting whole blobs by key.
type Store interface {
	Get(ctx context.Context, key string) (io.ReadCloser, error)
	Put(ctx context.Context, key string, r io.Reader) error
}

var (
	zstdMagic = []byte{0x28, 0xb5, 0x2f, 0xfd}
	lz4Magic  = []byte{0x04, 0x22, 0x4d, 0x18}
)

// Open fetches key from store and transparently decompresses it if the
// leading bytes match a known zstd or lz4 frame magic; otherwise the raw
// reader is returned unchanged.
func Open(ctx context.Context, store Store, key string) (io.ReadCloser, error) {
	rc, err := store.Get(ctx, key)
	if err != nil {
		return nil, err
	}

	prefix := make([]byte, 4)
	n, readErr := io.ReadFull(rc, prefix)
	rest := io.MultiReader(bytes.NewReader(prefix[:n]), rc)
	if readErr != nil && readErr != io.ErrUnexpectedEOF && readErr != io.EOF {
		rc.Close()
		return nil, readErr
	}

	switch {
	case bytes.Equal(prefix, zstdMagic):
		dec, err := zstd.NewReader(rest)
		if err != nil {
			rc.Close()
			return nil, err
		}
		return &decompressedBlob{rc: rc, reader: dec, closer: dec.Close}, nil

	case bytes.Equal(prefix, lz4Magic):
		return &decompressedBlob{rc: rc, reader: lz4.NewReader(rest)}, nil

	default:
		return &decompressedBlob{rc: rc, reader: rest}, nil
	}
}

// decompressedBlob wraps the store's underlying ReadCloser with whichever
// decompressing io.Reader Open selected, so callers still only see one
// Close regardless of which path was taken.
type decompressedBlob struct {
	rc     io.ReadCloser
	reader io.Reader
	closer func()
}

func (d *decompressedBlob) Read(p []byte) (int, error) {
	if d.reader != nil {
		return d.reader.Read(p)
	}
	return d.rc.Read(p)
}

func (d *decompressedBlob) Close() error {
	if d.closer != nil {
		d.closer()
	}
	return d.rc.Close()
}
