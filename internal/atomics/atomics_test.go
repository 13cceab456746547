// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package atomics

import (
	"sync"
	"testing"
)

func TestWord32LoadStore(t *testing.T) {
	var w Word32
	w.Store(7)
	if got := w.Load(); got != 7 {
		t.Fatalf("Load: got %d, want 7", got)
	}
}

func TestWord32CompareAndSwap(t *testing.T) {
	var w Word32
	if w.CompareAndSwap(1, 2) {
		t.Fatal("CompareAndSwap succeeded against wrong old value")
	}
	if !w.CompareAndSwap(0, 2) {
		t.Fatal("CompareAndSwap failed against correct old value")
	}
	if got := w.Load(); got != 2 {
		t.Fatalf("Load after CompareAndSwap: got %d, want 2", got)
	}
}

func TestWord32FetchAddLow16LeavesHighHalfAlone(t *testing.T) {
	var w Word32
	w.Store(0x0005_0003) // high=5, low=3

	prev := w.FetchAddLow16(4)
	if prev != 3 {
		t.Fatalf("FetchAddLow16 prev: got %d, want 3", prev)
	}
	if got := w.Load(); got != 0x0005_0007 {
		t.Fatalf("Load after FetchAddLow16: got %#x, want %#x", got, 0x0005_0007)
	}
}

func TestWord32IncrementHigh16LeavesLowHalfAlone(t *testing.T) {
	var w Word32
	w.Store(0x0005_0003)

	w.IncrementHigh16()
	if got := w.Load(); got != 0x0006_0003 {
		t.Fatalf("Load after IncrementHigh16: got %#x, want %#x", got, 0x0006_0003)
	}
}

func TestWord32FetchAddLow16Concurrent(t *testing.T) {
	var w Word32
	const goroutines, perGoroutine = 32, 200

	var wg sync.WaitGroup
	for range goroutines {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range perGoroutine {
				w.FetchAddLow16(1)
			}
		}()
	}
	wg.Wait()

	if got := uint16(w.Load()); got != goroutines*perGoroutine {
		t.Fatalf("low 16 bits after concurrent adds: got %d, want %d", got, goroutines*perGoroutine)
	}
	if got := w.Load() >> 16; got != 0 {
		t.Fatalf("high 16 bits disturbed: got %#x, want 0", got)
	}
}
