package ingest

import (
	"bufio"
	"container/heap"
	"encoding/gob"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"

	"github.com/hictk-go/hictk/pkg/hictk"
)

const spillBufferSize = 1 << 20 // 1 MiB, matches the teacher's SpillWriter/SpillReader buffering

type pixel = hictk.ThinPixel[float64]

func sortPixels(p []pixel) {
	sort.Slice(p, func(i, j int) bool {
		if p[i].Bin1ID != p[j].Bin1ID {
			return p[i].Bin1ID < p[j].Bin1ID
		}
		return p[i].Bin2ID < p[j].Bin2ID
	})
}

// spillWriter writes one sorted run of pixels to a temporary file,
// grounded on the teacher's SpillWriter (gob-encoded records over a
// buffered file).
type spillWriter struct {
	file    *os.File
	encoder *gob.Encoder
	writer  *bufio.Writer
	count   int
}

func newSpillWriter(dir string, spillNum int) (*spillWriter, error) {
	path := filepath.Join(dir, fmt.Sprintf("hictk-spill-%04d.dat", spillNum))
	file, err := os.Create(path)
	if err != nil {
		return nil, ioErrf(err, "create spill file %s", path)
	}
	w := bufio.NewWriterSize(file, spillBufferSize)
	return &spillWriter{file: file, encoder: gob.NewEncoder(w), writer: w}, nil
}

func (sw *spillWriter) writePixel(p pixel) error {
	if err := sw.encoder.Encode(p); err != nil {
		return ioErrf(err, "encode spilled pixel")
	}
	sw.count++
	return nil
}

// spillFile records where a finished run landed and how many pixels it holds.
type spillFile struct {
	path  string
	count int
}

func (sw *spillWriter) close() (spillFile, error) {
	if err := sw.writer.Flush(); err != nil {
		sw.file.Close()
		return spillFile{}, ioErrf(err, "flush spill file")
	}
	path := sw.file.Name()
	if err := sw.file.Close(); err != nil {
		return spillFile{}, ioErrf(err, "close spill file")
	}
	return spillFile{path: path, count: sw.count}, nil
}

// spillReader streams one spill run's pixels back in the order they
// were written (already sorted before spilling), grounded on the
// teacher's SpillReader Peek/Next pattern used to drive the k-way merge.
type spillReader struct {
	file    *os.File
	decoder *gob.Decoder
	current *pixel
	err     error
	eof     bool
}

func newSpillReader(path string) (*spillReader, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, ioErrf(err, "open spill file %s", path)
	}
	r := &spillReader{file: file, decoder: gob.NewDecoder(bufio.NewReaderSize(file, spillBufferSize))}
	r.advance()
	return r, nil
}

func (r *spillReader) advance() {
	if r.eof {
		return
	}
	var p pixel
	if err := r.decoder.Decode(&p); err != nil {
		if err == io.EOF {
			r.eof = true
			r.current = nil
		} else {
			r.err = err
		}
		return
	}
	r.current = &p
}

func (r *spillReader) peek() (*pixel, error) {
	if r.err != nil {
		return nil, r.err
	}
	if r.eof {
		return nil, io.EOF
	}
	return r.current, nil
}

func (r *spillReader) next() (*pixel, error) {
	cur := r.current
	if r.err != nil {
		return nil, r.err
	}
	if r.eof {
		return nil, io.EOF
	}
	r.advance()
	return cur, nil
}

func (r *spillReader) close() error {
	return r.file.Close()
}

type mergeItem struct {
	p         *pixel
	sourceIdx int // index into readers, or -1 for the in-memory tail
}

type mergeHeap []mergeItem

func (h mergeHeap) Len() int { return len(h) }
func (h mergeHeap) Less(i, j int) bool {
	if h[i].p.Bin1ID != h[j].p.Bin1ID {
		return h[i].p.Bin1ID < h[j].p.Bin1ID
	}
	return h[i].p.Bin2ID < h[j].p.Bin2ID
}
func (h mergeHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *mergeHeap) Push(x interface{}) { *h = append(*h, x.(mergeItem)) }
func (h *mergeHeap) Pop() interface{} {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}

// kWayMerge merges every spilled run plus one already-sorted in-memory
// tail into a single globally sorted, duplicate-summed pixel slice.
// Grounded on the teacher's kWayMerge, generalized from Read-by-position
// ordering to pixel-by-(bin1,bin2) ordering with count accumulation for
// coincident coordinates (two input records may legitimately bin into
// the same pixel).
func kWayMerge(readers []*spillReader, tail []pixel) ([]pixel, error) {
	h := &mergeHeap{}
	heap.Init(h)

	for i, r := range readers {
		p, err := r.peek()
		if err != nil && err != io.EOF {
			return nil, ioErrf(err, "peek spill reader %d", i)
		}
		if err == nil {
			heap.Push(h, mergeItem{p: p, sourceIdx: i})
		}
	}
	tailIdx := 0
	if tailIdx < len(tail) {
		heap.Push(h, mergeItem{p: &tail[tailIdx], sourceIdx: -1})
	}

	out := make([]pixel, 0, len(tail))
	for h.Len() > 0 {
		item := heap.Pop(h).(mergeItem)
		p := *item.p

		if item.sourceIdx == -1 {
			tailIdx++
			if tailIdx < len(tail) {
				heap.Push(h, mergeItem{p: &tail[tailIdx], sourceIdx: -1})
			}
		} else {
			if _, err := readers[item.sourceIdx].next(); err != nil && err != io.EOF {
				return nil, ioErrf(err, "advance spill reader %d", item.sourceIdx)
			}
			next, err := readers[item.sourceIdx].peek()
			if err != nil && err != io.EOF {
				return nil, ioErrf(err, "peek spill reader %d", item.sourceIdx)
			}
			if err == nil {
				heap.Push(h, mergeItem{p: next, sourceIdx: item.sourceIdx})
			}
		}

		if n := len(out); n > 0 && out[n-1].Bin1ID == p.Bin1ID && out[n-1].Bin2ID == p.Bin2ID {
			out[n-1].Count += p.Count
			continue
		}
		out = append(out, p)
	}
	return out, nil
}
