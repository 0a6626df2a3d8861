package main

import (
	"errors"
	"os"
	"strings"

	"github.com/hictk-go/hictk/pkg/hictk"
	"github.com/hictk-go/hictk/pkg/hictk/bbm"
	"github.com/hictk-go/hictk/pkg/hictk/mres"
)

// bpUnit is the only unit BBM files carry in practice; the format also
// allows a fragment-count unit, but nothing in this repo writes one.
const bpUnit = "BP"

// source unifies read access to an MRES container or a BBM file so
// info/dump/resolutions/sample don't need to branch on format beyond
// the initial open.
type source interface {
	Reference() *hictk.Reference
	Resolutions() []int32
	Fetch(res int32, a, b hictk.PixelCoordinates, matrixType hictk.MatrixType, normMethod hictk.NormalizationMethod) (hictk.PixelIterator[float64], error)
	BinTable(res int32) (*hictk.BinTable, error)
	Stats(res int32) (nnz uint64, sum, cis float64, assembly string, err error)
	Close() error
}

// openSource opens path as an MRES container if it is a directory and
// as a BBM file otherwise; this mirrors the teacher's single entry point
// per format without requiring the caller to name the format up front.
func openSource(path string) (source, error) {
	if fi, err := os.Stat(path); err != nil {
		return nil, &hictk.Error{Kind: hictk.KindIO, Msg: "open " + path, Cause: err}
	} else if fi.IsDir() {
		// Only an MRES container can be a directory; mres.OpenLocal's
		// directory-creating behavior is never reached for an input that
		// already exists.
		store, err := mres.OpenLocal(path)
		if err != nil {
			return nil, err
		}
		c, err := mres.Open(store)
		if err != nil {
			return nil, err
		}
		return &mresSource{c: c}, nil
	}
	r, err := bbm.Open(path, 0)
	if err != nil {
		return nil, err
	}
	return &bbmSource{r: r}, nil
}

type mresSource struct {
	c    *mres.Container
	open map[int32]*mres.Resolution
}

func (s *mresSource) resolution(res int32) (*mres.Resolution, error) {
	if s.open == nil {
		s.open = make(map[int32]*mres.Resolution)
	}
	if r, ok := s.open[res]; ok {
		return r, nil
	}
	r, err := s.c.Open(res)
	if err != nil {
		return nil, err
	}
	s.open[res] = r
	return r, nil
}

func (s *mresSource) Reference() *hictk.Reference {
	resolutions, err := s.c.Resolutions()
	if err != nil || len(resolutions) == 0 {
		return nil
	}
	r, err := s.resolution(resolutions[0])
	if err != nil {
		return nil
	}
	return r.Reference()
}

func (s *mresSource) Resolutions() []int32 {
	resolutions, err := s.c.Resolutions()
	if err != nil {
		return nil
	}
	return resolutions
}

func (s *mresSource) BinTable(res int32) (*hictk.BinTable, error) {
	r, err := s.resolution(res)
	if err != nil {
		return nil, err
	}
	return r.BinTable(), nil
}

func (s *mresSource) Fetch(res int32, a, b hictk.PixelCoordinates, matrixType hictk.MatrixType, normMethod hictk.NormalizationMethod) (hictk.PixelIterator[float64], error) {
	r, err := s.resolution(res)
	if err != nil {
		return nil, err
	}
	return r.Fetch(a, b, matrixType, normMethod)
}

func (s *mresSource) Stats(res int32) (uint64, float64, float64, string, error) {
	r, err := s.resolution(res)
	if err != nil {
		return 0, 0, 0, "", err
	}
	nnz, sum, cis := r.Stats()
	assembly, err := r.Assembly()
	if err != nil {
		return 0, 0, 0, "", err
	}
	return nnz, sum, cis, assembly, nil
}

func (s *mresSource) Close() error { return nil }

type bbmSource struct {
	r *bbm.Reader
}

func (s *bbmSource) Reference() *hictk.Reference { return s.r.Reference() }
func (s *bbmSource) Resolutions() []int32        { return s.r.Resolutions() }
func (s *bbmSource) BinTable(res int32) (*hictk.BinTable, error) {
	return s.r.BinTable(res)
}

func (s *bbmSource) Fetch(res int32, a, b hictk.PixelCoordinates, matrixType hictk.MatrixType, normMethod hictk.NormalizationMethod) (hictk.PixelIterator[float64], error) {
	return s.r.Fetch(a, b, res, bpUnit, matrixType, normMethod)
}

// Stats has no cheap answer for BBM: the format carries no root-group
// summary attributes (those are an MRES-only addition, spec §6), and
// computing them would mean decoding every stored block. info reports
// them as unavailable for this format rather than paying that cost
// implicitly.
func (s *bbmSource) Stats(res int32) (uint64, float64, float64, string, error) {
	return 0, 0, 0, "", errors.New("nnz/sum/cis summary attributes are not available for BBM files")
}

func (s *bbmSource) Close() error { return s.r.Close() }

// openOutputStore opens the Store load/sample write their MRES output
// into, dispatching to S3 when outputPath has that scheme so a
// container can be built directly against object storage without a
// local staging copy.
func openOutputStore(outputPath string) (mres.Store, error) {
	if strings.HasPrefix(outputPath, "s3://") {
		return mres.OpenS3(outputPath)
	}
	return mres.OpenLocal(outputPath)
}
