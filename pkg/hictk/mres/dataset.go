package mres

import (
	"bytes"
	"encoding/binary"
	"io"
	"math"

	"github.com/klauspost/compress/zstd"

	"github.com/hictk-go/hictk/pkg/hictk/storage"
)

// Datasets are stored as flat, self-describing blobs rather than
// zarr-go's chunked array format: zarr-go's own Array type never
// implements the chunked encode/decode path (Slice/ReadAll are stubs),
// and MRES pixel columns are written once per resolution rather than
// updated chunk-by-chunk, so one length-prefixed vector per dataset is
// the simplest encoding that still round-trips through Store.Get/Put.
var order = binary.LittleEndian

// compressionThreshold gates the zstd frame every dataset above this
// size is wrapped in; small metadata (chromosome lists, index headers)
// stays uncompressed so opening a container never pays codec setup
// cost for a handful of bytes.
const compressionThreshold = 4096

const (
	flagRaw  = 0
	flagZstd = 1
)

func getBytes(s Store, key string) ([]byte, error) {
	rc, err := s.Get(key)
	if err != nil {
		return nil, notFoundf("dataset %q: %v", key, err)
	}
	defer rc.Close()
	raw, err := io.ReadAll(rc)
	if err != nil {
		return nil, ioErrf(err, "read dataset %q", key)
	}
	if len(raw) == 0 {
		return nil, corruptf("dataset %q: empty payload", key)
	}
	payload := raw[1:]
	switch raw[0] {
	case flagRaw:
		return payload, nil
	case flagZstd:
		zr, err := zstd.NewReader(bytes.NewReader(payload))
		if err != nil {
			return nil, corruptf("dataset %q: invalid zstd frame: %v", key, err)
		}
		defer zr.Close()
		b, err := io.ReadAll(zr)
		if err != nil {
			return nil, corruptf("dataset %q: zstd decompression failed: %v", key, err)
		}
		return b, nil
	default:
		return nil, corruptf("dataset %q: unknown compression flag %d", key, raw[0])
	}
}

func hasDataset(s Store, key string) bool {
	rc, err := s.Get(key)
	if err != nil {
		return false
	}
	rc.Close()
	return true
}

func putBytes(s Store, key string, b []byte) error {
	if len(b) <= compressionThreshold {
		framed := make([]byte, 1+len(b))
		framed[0] = flagRaw
		copy(framed[1:], b)
		if err := s.Put(key, bytes.NewReader(framed)); err != nil {
			return ioErrf(err, "write dataset %q", key)
		}
		return nil
	}

	var buf bytes.Buffer
	buf.WriteByte(flagZstd)
	zw, err := zstd.NewWriter(&buf)
	if err != nil {
		return ioErrf(err, "open zstd writer for dataset %q", key)
	}
	if _, err := zw.Write(b); err != nil {
		zw.Close()
		return ioErrf(err, "compress dataset %q", key)
	}
	if err := zw.Close(); err != nil {
		return ioErrf(err, "finalize compressed dataset %q", key)
	}
	if err := s.Put(key, &buf); err != nil {
		return ioErrf(err, "write dataset %q", key)
	}
	return nil
}

func writeUint32Array(s Store, key string, vals []uint32) error {
	buf := make([]byte, 4+4*len(vals))
	order.PutUint32(buf, uint32(len(vals)))
	for i, v := range vals {
		order.PutUint32(buf[4+4*i:], v)
	}
	return putBytes(s, key, buf)
}

func readUint32Array(s Store, key string) ([]uint32, error) {
	b, err := getBytes(s, key)
	if err != nil {
		return nil, err
	}
	if len(b) < 4 {
		return nil, corruptf("dataset %q: truncated length prefix", key)
	}
	n := order.Uint32(b)
	if 4+4*int64(n) != int64(len(b)) {
		return nil, corruptf("dataset %q: length prefix %d inconsistent with payload size %d", key, n, len(b))
	}
	out := make([]uint32, n)
	for i := range out {
		out[i] = order.Uint32(b[4+4*i:])
	}
	return out, nil
}

func writeUint64Array(s Store, key string, vals []uint64) error {
	buf := make([]byte, 4+8*len(vals))
	order.PutUint32(buf, uint32(len(vals)))
	for i, v := range vals {
		order.PutUint64(buf[4+8*i:], v)
	}
	return putBytes(s, key, buf)
}

func readUint64Array(s Store, key string) ([]uint64, error) {
	b, err := getBytes(s, key)
	if err != nil {
		return nil, err
	}
	if len(b) < 4 {
		return nil, corruptf("dataset %q: truncated length prefix", key)
	}
	n := order.Uint32(b)
	if 4+8*int64(n) != int64(len(b)) {
		return nil, corruptf("dataset %q: length prefix %d inconsistent with payload size %d", key, n, len(b))
	}
	out := make([]uint64, n)
	for i := range out {
		out[i] = order.Uint64(b[4+8*i:])
	}
	return out, nil
}

func writeFloat64Array(s Store, key string, vals []float64) error {
	buf := make([]byte, 4+8*len(vals))
	order.PutUint32(buf, uint32(len(vals)))
	for i, v := range vals {
		order.PutUint64(buf[4+8*i:], math.Float64bits(v))
	}
	return putBytes(s, key, buf)
}

// readFloat64Array returns (nil, nil) when key has never been written,
// the convention used for optional per-method weight datasets.
func readFloat64Array(s Store, key string) ([]float64, error) {
	if !hasDataset(s, key) {
		return nil, nil
	}
	b, err := getBytes(s, key)
	if err != nil {
		return nil, err
	}
	if len(b) < 4 {
		return nil, corruptf("dataset %q: truncated length prefix", key)
	}
	n := order.Uint32(b)
	if 4+8*int64(n) != int64(len(b)) {
		return nil, corruptf("dataset %q: length prefix %d inconsistent with payload size %d", key, n, len(b))
	}
	out := make([]float64, n)
	for i := range out {
		out[i] = math.Float64frombits(order.Uint64(b[4+8*i:]))
	}
	return out, nil
}

func writeStringArray(s Store, key string, vals []string) error {
	var buf bytes.Buffer
	var hdr [4]byte
	order.PutUint32(hdr[:], uint32(len(vals)))
	buf.Write(hdr[:])
	for _, v := range vals {
		buf.WriteString(v)
		buf.WriteByte(0)
	}
	return putBytes(s, key, buf.Bytes())
}

func readStringArray(s Store, key string) ([]string, error) {
	b, err := getBytes(s, key)
	if err != nil {
		return nil, err
	}
	if len(b) < 4 {
		return nil, corruptf("dataset %q: truncated length prefix", key)
	}
	n := order.Uint32(b)
	c := storage.NewCursor(bytes.NewReader(b[4:]), order)
	out := make([]string, n)
	for i := range out {
		out[i] = c.CString()
	}
	if c.Err() != nil {
		return nil, ioErrf(c.Err(), "read dataset %q", key)
	}
	return out, nil
}
