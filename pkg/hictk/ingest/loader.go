package ingest

import (
	"bufio"
	"io"
	"log"
	"os"
	"runtime"
	"strings"
	"sync"

	"github.com/hictk-go/hictk/pkg/hictk"
)

// maxWorkers caps auto-detected parallelism, matching the teacher's
// ParallelWriter ceiling against unbounded goroutine fan-out on very
// wide machines.
const maxWorkers = 32

// Options configures one load run. Mutual exclusion of flags
// (--bin-size vs --bin-table, --one-based vs --zero-based) is validated
// by the CLI layer before Load is called; Load itself trusts a
// well-formed Options. OneBased only affects 4dn/validpairs. AssumeSorted
// does not change how any format is processed (input is always sorted);
// for 4dn/validpairs Load logs a warning when it is set.
type Options struct {
	Format       Format
	OneBased     bool
	AssumeSorted bool
	BatchSize    int // lines per parse/sort batch; also the in-memory-only threshold
	Workers      int // 0 selects runtime.NumCPU(); capped at maxWorkers
	Logger       *log.Logger
}

func (o Options) logger() *log.Logger {
	if o.Logger != nil {
		return o.Logger
	}
	return log.New(io.Discard, "", 0)
}

func (o Options) workers() int {
	w := o.Workers
	if w <= 0 {
		w = runtime.NumCPU()
	}
	if w > maxWorkers {
		w = maxWorkers
	}
	return w
}

func (o Options) batchSize() int {
	if o.BatchSize <= 0 {
		return 1_000_000
	}
	return o.BatchSize
}

type batchJob struct {
	lines []string
	index int
}

type batchResult struct {
	pixels []pixel
	index  int
	err    error
}

// Load parses r according to opts, canonicalizes and sorts every record
// into upper-triangular pixels, and returns the fully merged, duplicate-
// summed pixel stream ready for Resolution.WritePixels. tmpDir hosts any
// spill files; it is the caller's responsibility to have it exist and to
// clean it up (Load removes only the spill files it created).
//
// Parsing and per-batch sorting fan out across opts.workers() goroutines
// reading from a shared job channel and writing results to a shared
// result channel, grounded on the teacher's ParallelWriter
// compressionWorker/resultCollector split (parallel_writer.go): workers
// do the CPU-bound part, a single collector serializes the side effect
// (here, spilling a run to disk) exactly as the teacher's collector
// serializes writes to the output file.
func Load(r io.Reader, bins *hictk.BinTable, tmpDir string, opts Options) ([]pixel, error) {
	if opts.AssumeSorted && (opts.Format == Format4DN || opts.Format == FormatValidPairs) {
		opts.logger().Printf("--assume-sorted has no effect when ingesting %s pairs", opts.Format)
	}

	batchSize := opts.batchSize()
	workers := opts.workers()

	jobs := make(chan batchJob, workers*2)
	results := make(chan batchResult, workers*2)

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for job := range jobs {
				pixels, err := parseBatch(opts.Format, bins, job.lines, opts.OneBased)
				results <- batchResult{pixels: pixels, index: job.index, err: err}
			}
		}()
	}
	go func() {
		wg.Wait()
		close(results)
	}()

	scanErrCh := make(chan error, 1)
	go func() {
		defer close(jobs)
		scanErrCh <- scanBatches(r, batchSize, jobs)
	}()

	merger := newSpillMerger(tmpDir, batchSize)
	var firstErr error
	for res := range results {
		if res.err != nil {
			if firstErr == nil {
				firstErr = res.err
			}
			continue
		}
		if err := merger.accept(res.pixels); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if err := <-scanErrCh; err != nil && firstErr == nil {
		firstErr = err
	}
	if firstErr != nil {
		merger.cleanup()
		return nil, firstErr
	}
	return merger.finish()
}

func scanBatches(r io.Reader, batchSize int, jobs chan<- batchJob) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 4*1024*1024)
	lines := make([]string, 0, batchSize)
	index := 0
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		lines = append(lines, line)
		if len(lines) == batchSize {
			jobs <- batchJob{lines: lines, index: index}
			index++
			lines = make([]string, 0, batchSize)
		}
	}
	if len(lines) > 0 {
		jobs <- batchJob{lines: lines, index: index}
	}
	if err := scanner.Err(); err != nil {
		return ioErrf(err, "read pairs input")
	}
	return nil
}

func parseBatch(f Format, bins *hictk.BinTable, lines []string, oneBased bool) ([]pixel, error) {
	out := make([]pixel, 0, len(lines))
	for _, line := range lines {
		raw, err := parseLine(f, line, oneBased)
		if err != nil {
			return nil, invalidArgf("parse %s record %q: %v", f, line, err)
		}
		p, err := toPixel(f, bins, raw)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	sortPixels(out)
	return out, nil
}

// spillMerger accumulates sorted batches into on-disk runs once total
// volume crosses spillAfter, keeping everything in memory for inputs
// that fit in a single batch (the common case for test fixtures and
// small pairs files). accept is called only from Load's single
// results-draining loop, so no internal locking is needed.
type spillMerger struct {
	tmpDir     string
	spillAfter int

	tail    []pixel // used only while nothing has spilled yet
	spilled bool
	files   []spillFile
	spillNo int
}

func newSpillMerger(tmpDir string, spillAfter int) *spillMerger {
	return &spillMerger{tmpDir: tmpDir, spillAfter: spillAfter}
}

func (m *spillMerger) accept(batch []pixel) error {
	if !m.spilled && len(m.tail)+len(batch) <= m.spillAfter {
		m.tail = append(m.tail, batch...)
		return nil
	}
	if !m.spilled {
		if err := m.spillRun(m.tail); err != nil {
			return err
		}
		m.tail = nil
		m.spilled = true
	}
	return m.spillRun(batch)
}

func (m *spillMerger) spillRun(batch []pixel) error {
	if len(batch) == 0 {
		return nil
	}
	sortPixels(batch)
	w, err := newSpillWriter(m.tmpDir, m.spillNo)
	if err != nil {
		return err
	}
	m.spillNo++
	for _, p := range batch {
		if err := w.writePixel(p); err != nil {
			return err
		}
	}
	sf, err := w.close()
	if err != nil {
		return err
	}
	m.files = append(m.files, sf)
	return nil
}

func (m *spillMerger) finish() ([]pixel, error) {
	if !m.spilled {
		sortPixels(m.tail)
		return dedupSorted(m.tail), nil
	}
	readers := make([]*spillReader, len(m.files))
	for i, sf := range m.files {
		r, err := newSpillReader(sf.path)
		if err != nil {
			return nil, err
		}
		readers[i] = r
	}
	defer func() {
		for _, r := range readers {
			r.close()
		}
		m.cleanup()
	}()
	return kWayMerge(readers, nil)
}

func (m *spillMerger) cleanup() {
	for _, sf := range m.files {
		os.Remove(sf.path)
	}
}

func dedupSorted(p []pixel) []pixel {
	out := p[:0]
	for _, cur := range p {
		if n := len(out); n > 0 && out[n-1].Bin1ID == cur.Bin1ID && out[n-1].Bin2ID == cur.Bin2ID {
			out[n-1].Count += cur.Count
			continue
		}
		out = append(out, cur)
	}
	return out
}
