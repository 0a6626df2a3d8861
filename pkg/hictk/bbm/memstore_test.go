package bbm

import (
	"bytes"
	"fmt"
	"io"
)

// memStore implements storage.ChunkedStore over an in-memory byte slice,
// standing in for a real file during tests.
type memStore struct {
	data []byte
}

func (m *memStore) ReadRange(offset, length int64) ([]byte, error) {
	if offset < 0 || offset+length > int64(len(m.data)) {
		return nil, fmt.Errorf("range [%d,%d) out of bounds (len %d)", offset, offset+length, len(m.data))
	}
	out := make([]byte, length)
	copy(out, m.data[offset:offset+length])
	return out, nil
}

func (m *memStore) NewReader(offset int64) (io.ReadCloser, error) {
	if offset < 0 || offset > int64(len(m.data)) {
		return nil, fmt.Errorf("offset %d out of bounds (len %d)", offset, len(m.data))
	}
	return io.NopCloser(bytes.NewReader(m.data[offset:])), nil
}

func (m *memStore) Size() (int64, error) { return int64(len(m.data)), nil }
func (m *memStore) Close() error         { return nil }
