package hictk

import (
	"sync"
	"sync/atomic"
	"testing"
)

func TestBlockCacheGetOrLoadCachesResult(t *testing.T) {
	c := NewBlockCache(1024)
	var loads int32
	key := BlockKey{ChromA: 0, ChromB: 0, BlockID: 1}
	loader := func(BlockKey) (*InteractionBlock, error) {
		atomic.AddInt32(&loads, 1)
		return &InteractionBlock{Pixels: []ThinPixel[float64]{{Bin1ID: 0, Bin2ID: 0, Count: 1}}, SizeBytes: 8}, nil
	}

	for i := 0; i < 5; i++ {
		if _, err := c.GetOrLoad(key, loader); err != nil {
			t.Fatalf("GetOrLoad: %v", err)
		}
	}
	if loads != 1 {
		t.Errorf("loader called %d times, want 1", loads)
	}
	if c.Len() != 1 {
		t.Errorf("cache len = %d, want 1", c.Len())
	}
}

func TestBlockCacheEvictsUnderPressure(t *testing.T) {
	c := NewBlockCache(16) // room for exactly two 8-byte blocks
	load := func(id uint32) (*InteractionBlock, error) {
		return c.GetOrLoad(BlockKey{BlockID: id}, func(BlockKey) (*InteractionBlock, error) {
			return &InteractionBlock{SizeBytes: 8}, nil
		})
	}
	if _, err := load(1); err != nil {
		t.Fatal(err)
	}
	if _, err := load(2); err != nil {
		t.Fatal(err)
	}
	if _, err := load(3); err != nil {
		t.Fatal(err)
	}
	if c.Len() != 2 {
		t.Fatalf("cache len = %d, want 2 after eviction", c.Len())
	}
	if c.UsedBytes() > 16 {
		t.Errorf("used bytes = %d exceeds capacity 16", c.UsedBytes())
	}
}

func TestBlockCacheSingleFlight(t *testing.T) {
	c := NewBlockCache(1024)
	key := BlockKey{BlockID: 1}
	release := make(chan struct{})
	var loads int32

	loader := func(BlockKey) (*InteractionBlock, error) {
		atomic.AddInt32(&loads, 1)
		<-release
		return &InteractionBlock{SizeBytes: 1}, nil
	}

	var wg sync.WaitGroup
	const n = 10
	wg.Add(n)
	for i := 0; i < n; i++ {
		go func() {
			defer wg.Done()
			if _, err := c.GetOrLoad(key, loader); err != nil {
				t.Errorf("GetOrLoad: %v", err)
			}
		}()
	}
	close(release)
	wg.Wait()

	if loads != 1 {
		t.Errorf("loader called %d times concurrently, want 1", loads)
	}
}

func TestBlockCachePropagatesLoaderError(t *testing.T) {
	c := NewBlockCache(1024)
	wantErr := newErr(KindCorrupt, "boom")
	_, err := c.GetOrLoad(BlockKey{BlockID: 1}, func(BlockKey) (*InteractionBlock, error) {
		return nil, wantErr
	})
	if err != wantErr {
		t.Errorf("got %v, want %v", err, wantErr)
	}
	if c.Len() != 0 {
		t.Errorf("failed load must not be cached, got len %d", c.Len())
	}
}
