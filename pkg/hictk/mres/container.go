package mres

import (
	"strconv"
	"strings"

	"github.com/hictk-go/hictk/pkg/hictk"
)

const (
	formatMagic   = "hictk-mres"
	formatVersion = int32(1)
)

// Container is the multi-resolution façade described in spec §4.3: a
// store whose top-level subgroups are named by resolution in base
// pairs, each holding one complete chroms/bins/pixels/indexes group.
type Container struct {
	store Store
}

// Open validates store's format magic and version attributes and
// returns a Container ready to enumerate and open resolutions. It does
// not itself open any resolution group.
func Open(store Store) (*Container, error) {
	if !hasDataset(store, "_format") {
		return nil, corruptf("not an MRES container: missing format marker")
	}
	fields, err := readStringArray(store, "_format")
	if err != nil {
		return nil, err
	}
	if len(fields) != 2 || fields[0] != formatMagic {
		return nil, corruptf("not an MRES container: unrecognized format magic")
	}
	version, err := strconv.Atoi(fields[1])
	if err != nil || int32(version) > formatVersion {
		return nil, corruptf("MRES container format version %q is not supported", fields[1])
	}
	return &Container{store: store}, nil
}

// Create initializes an empty MRES container, stamping the format
// marker. The container carries no resolutions until one is built with
// CreateBaseResolution.
func Create(store Store) (*Container, error) {
	if err := writeStringArray(store, "_format", []string{formatMagic, strconv.Itoa(int(formatVersion))}); err != nil {
		return nil, err
	}
	return &Container{store: store}, nil
}

// Resolutions lists the numeric subgroup names in ascending order
// (spec §4.3: "resolutions() lists numeric subgroup names in ascending
// order").
func (c *Container) Resolutions() ([]int32, error) {
	names, err := c.store.List("")
	if err != nil {
		return nil, err
	}
	var out []int32
	for _, n := range names {
		if n == "_format" {
			continue
		}
		if res, ok := numericName(n); ok {
			out = append(out, res)
		}
	}
	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && out[j-1] > out[j]; j-- {
			out[j-1], out[j] = out[j], out[j-1]
		}
	}
	return out, nil
}

// baseResolution returns the finest (smallest) resolution present, the
// convention this module uses for "base_res" in CreateResolution's
// validation (spec §4.3 never states how base_res is identified, only
// that one exists).
func (c *Container) baseResolution() (int32, error) {
	resolutions, err := c.Resolutions()
	if err != nil {
		return 0, err
	}
	if len(resolutions) == 0 {
		return 0, notFoundf("container has no base resolution yet")
	}
	return resolutions[0], nil
}

// Open opens the resolution subgroup named res. Fails with
// InvalidArgument if that resolution is absent.
func (c *Container) Open(res int32) (*Resolution, error) {
	resolutions, err := c.Resolutions()
	if err != nil {
		return nil, err
	}
	found := false
	for _, r := range resolutions {
		if r == res {
			found = true
			break
		}
	}
	if !found {
		return nil, &hictk.Error{Kind: hictk.KindInvalidArgument, Msg: "resolution not present in this container"}
	}
	return loadResolution(c.store, res)
}

// CreateBaseResolution bootstraps the container's first, finest
// resolution. It fails with Overwrite if a base resolution already
// exists; use CreateResolution to derive coarser resolutions afterward.
func (c *Container) CreateBaseResolution(res int32, ref *hictk.Reference) (*Resolution, error) {
	resolutions, err := c.Resolutions()
	if err != nil {
		return nil, err
	}
	if len(resolutions) > 0 {
		return nil, &hictk.Error{Kind: hictk.KindOverwrite, Msg: "container already has a base resolution"}
	}
	return newResolution(c.store, res, ref)
}

// CreateResolution creates a new, empty resolution subgroup derived
// from the container's base resolution. res must be a multiple of the
// base resolution at least twice as coarse.
func (c *Container) CreateResolution(res int32, ref *hictk.Reference) (*Resolution, error) {
	base, err := c.baseResolution()
	if err != nil {
		return nil, err
	}
	if res%base != 0 || res/base < 2 {
		return nil, &hictk.Error{Kind: hictk.KindInvalidArgument, Msg: "resolution must be an integer multiple (>=2x) of the base resolution"}
	}
	return newResolution(c.store, res, ref)
}

func groupKey(res int32, dataset string) string {
	return strings.Join([]string{strconv.Itoa(int(res)), dataset}, "/")
}
