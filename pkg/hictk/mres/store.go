// Package mres reads the hierarchical multi-resolution container (spec
// §4.3): a group-oriented store whose resolution subgroups each carry
// flat chroms/, bins/, pixels/, and indexes/ datasets. The group store
// itself is grounded on qri-io/zarr-go's Store interface (Get/Put over
// logical paths); zarr-go's own Array type only stubs Slice/ReadAll, so
// datasets here are read and written directly against Store using a
// small self-describing binary encoding instead.
package mres

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"

	zarr "github.com/qri-io/zarr-go"

	"github.com/hictk-go/hictk/pkg/hictk"
)

// Store is zarr-go's key/value Store contract plus the directory
// listing MRES needs to enumerate resolution subgroups, something
// zarr-go's Store interface itself does not provide.
type Store interface {
	zarr.Store
	// List returns the immediate child names under prefix (non-recursive).
	List(prefix string) ([]string, error)
}

// fsStore adapts a zarr.LocalStore, listing children directly off the
// filesystem since zarr-go exposes no enumeration API of its own.
type fsStore struct {
	*zarr.LocalStore
	base string
}

// OpenLocal opens (or creates, per zarr.LocalStore's own behavior) a
// directory-backed container at path.
func OpenLocal(path string) (Store, error) {
	ls, err := zarr.NewLocalStore(path)
	if err != nil {
		return nil, ioErrf(err, "open MRES container %s", path)
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, ioErrf(err, "resolve MRES container path %s", path)
	}
	return &fsStore{LocalStore: ls, base: abs}, nil
}

func (s *fsStore) List(prefix string) ([]string, error) {
	dir := filepath.Join(s.base, filepath.FromSlash(prefix))
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, ioErrf(err, "list %s", prefix)
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			names = append(names, e.Name())
		}
	}
	return names, nil
}

// memStore is an in-memory Store used by tests, backed by
// zarr.MemoryStore for Get/Put and a parallel key set for listing.
type memStore struct {
	*zarr.MemoryStore
	mu   sync.Mutex
	keys map[string]bool
}

// NewMemory returns an empty in-memory container, useful for tests and
// for building a resolution before it has a home on disk.
func NewMemory() Store {
	return &memStore{MemoryStore: zarr.NewMemoryStore(), keys: make(map[string]bool)}
}

func (s *memStore) Put(key string, val io.Reader) error {
	s.mu.Lock()
	s.keys[key] = true
	s.mu.Unlock()
	return s.MemoryStore.Put(key, val)
}

func (s *memStore) List(prefix string) ([]string, error) {
	prefix = strings.Trim(prefix, "/")
	seen := make(map[string]bool)
	s.mu.Lock()
	defer s.mu.Unlock()
	for k := range s.keys {
		rest := strings.TrimPrefix(k, prefix)
		if rest == k && prefix != "" {
			continue
		}
		rest = strings.TrimPrefix(rest, "/")
		if rest == "" {
			continue
		}
		child := strings.SplitN(rest, "/", 2)[0]
		seen[child] = true
	}
	names := make([]string, 0, len(seen))
	for k := range seen {
		names = append(names, k)
	}
	sort.Strings(names)
	return names, nil
}

func ioErrf(cause error, format string, args ...interface{}) error {
	return &hictk.Error{Kind: hictk.KindIO, Msg: fmt.Sprintf(format, args...), Cause: cause}
}

func corruptf(format string, args ...interface{}) error {
	return &hictk.Error{Kind: hictk.KindCorrupt, Msg: fmt.Sprintf(format, args...)}
}

func notFoundf(format string, args ...interface{}) error {
	return &hictk.Error{Kind: hictk.KindNotFound, Msg: fmt.Sprintf(format, args...)}
}

// numericName reports whether name parses as a bare non-negative
// integer, the naming convention for resolution subgroups.
func numericName(name string) (int32, bool) {
	v, err := strconv.ParseInt(name, 10, 32)
	if err != nil || v < 0 {
		return 0, false
	}
	return int32(v), true
}
