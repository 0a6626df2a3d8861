package mres

import (
	"reflect"
	"sort"
	"testing"
)

func TestMemoryStoreListEnumeratesChildren(t *testing.T) {
	s := NewMemory()
	if err := writeUint32Array(s, "100/chroms/length", []uint32{10, 20}); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := writeUint32Array(s, "200/chroms/length", []uint32{10, 20}); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := writeStringArray(s, "_format", []string{"hictk-mres", "1"}); err != nil {
		t.Fatalf("write: %v", err)
	}

	names, err := s.List("")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	sort.Strings(names)
	want := []string{"100", "200", "_format"}
	if !reflect.DeepEqual(names, want) {
		t.Errorf("List(\"\") = %v, want %v", names, want)
	}
}

func TestMemoryStoreListMissingPrefix(t *testing.T) {
	s := NewMemory()
	names, err := s.List("nope")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(names) != 0 {
		t.Errorf("List on empty store = %v, want empty", names)
	}
}
