package mres

import (
	"testing"

	"github.com/hictk-go/hictk/pkg/hictk"
)

func testReference(t *testing.T) *hictk.Reference {
	t.Helper()
	ref, err := hictk.NewReference([]hictk.Chromosome{
		{Name: "chr1", Length: 100},
		{Name: "chr2", Length: 80},
	})
	if err != nil {
		t.Fatalf("NewReference: %v", err)
	}
	return ref
}

func TestContainerCreateRejectsResolutionBeforeABaseExists(t *testing.T) {
	store := NewMemory()
	c, err := Create(store)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := c.CreateResolution(10, testReference(t)); err == nil {
		t.Fatal("expected NotFound: container has no base resolution yet")
	}
}

func TestContainerCreateAndOpenRoundTrip(t *testing.T) {
	store := NewMemory()
	ref := testReference(t)
	if _, err := newResolution(store, 10, ref); err != nil {
		t.Fatalf("newResolution: %v", err)
	}
	if _, err := Create(store); err != nil {
		t.Fatalf("Create: %v", err)
	}

	c, err := Open(store)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	r, err := c.CreateResolution(20, ref)
	if err != nil {
		t.Fatalf("CreateResolution(20): %v", err)
	}
	if r.Resolution() != 20 {
		t.Errorf("Resolution() = %d, want 20", r.Resolution())
	}
}

func TestContainerResolutionsAscendingAndCreate(t *testing.T) {
	store := NewMemory()
	c, err := Create(store)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	ref := testReference(t)
	if _, err := newResolution(store, 10, ref); err != nil {
		t.Fatalf("newResolution(10): %v", err)
	}
	if _, err := newResolution(store, 1000, ref); err != nil {
		t.Fatalf("newResolution(1000): %v", err)
	}
	if _, err := newResolution(store, 100, ref); err != nil {
		t.Fatalf("newResolution(100): %v", err)
	}

	c2, err := Open(store)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	resolutions, err := c2.Resolutions()
	if err != nil {
		t.Fatalf("Resolutions: %v", err)
	}
	want := []int32{10, 100, 1000}
	if len(resolutions) != len(want) {
		t.Fatalf("Resolutions() = %v, want %v", resolutions, want)
	}
	for i, r := range want {
		if resolutions[i] != r {
			t.Errorf("Resolutions()[%d] = %d, want %d", i, resolutions[i], r)
		}
	}

	if _, err := c2.CreateResolution(205, ref); err == nil {
		t.Fatal("expected InvalidArgument: 205 is not a multiple of base resolution 10")
	}
	if _, err := c2.CreateResolution(10, ref); err == nil {
		t.Fatal("expected InvalidArgument: 10 is the base resolution itself, not >=2x")
	}
	if _, err := c2.CreateResolution(20, ref); err != nil {
		t.Fatalf("CreateResolution(20): %v", err)
	}
}

func TestContainerOpenUnknownResolutionFails(t *testing.T) {
	store := NewMemory()
	c, err := Create(store)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := newResolution(store, 10, testReference(t)); err != nil {
		t.Fatalf("newResolution: %v", err)
	}
	if _, err := c.Open(999); err == nil {
		t.Fatal("expected InvalidArgument for unknown resolution")
	}
}

func TestCreateBaseResolutionBootstrapsThenRejectsSecondCall(t *testing.T) {
	store := NewMemory()
	c, err := Create(store)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	ref := testReference(t)
	if _, err := c.CreateBaseResolution(10, ref); err != nil {
		t.Fatalf("CreateBaseResolution: %v", err)
	}
	if _, err := c.CreateBaseResolution(5, ref); err == nil {
		t.Fatal("expected Overwrite: base resolution already exists")
	}
	if _, err := c.CreateResolution(30, ref); err != nil {
		t.Fatalf("CreateResolution(30) after bootstrap: %v", err)
	}
}

func TestOpenRejectsNonContainer(t *testing.T) {
	store := NewMemory()
	if _, err := Open(store); err == nil {
		t.Fatal("expected error opening a store with no format marker")
	}
}
