// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package shmq_test

import (
	"fmt"
	"unsafe"
)

// memPool is a bump allocator over a single process-local byte slice. It
// satisfies [shmq.Pool] well enough to exercise the queue engine's logic
// in tests without mapping real shared memory — [shmpool.Pool] is the
// implementation meant for actual cross-process use.
type memPool struct {
	data []byte
	next uintptr
}

func newMemPool(size int) *memPool {
	return &memPool{data: make([]byte, size)}
}

func (p *memPool) AllocateForType(size, align uintptr) (unsafe.Pointer, int64, error) {
	off := alignUpTest(p.next, align)
	if off+size > uintptr(len(p.data)) {
		return nil, 0, fmt.Errorf("memPool: out of space")
	}
	p.next = off + size
	return unsafe.Pointer(&p.data[off]), int64(off), nil
}

func (p *memPool) AllocateArray(count int, elemSize, align uintptr) (unsafe.Pointer, int64, error) {
	return p.AllocateForType(uintptr(count)*elemSize, align)
}

func (p *memPool) AtOffset(offset int64) unsafe.Pointer {
	return unsafe.Pointer(&p.data[offset])
}

func (p *memPool) OffsetOf(ptr unsafe.Pointer) int64 {
	return int64(uintptr(ptr) - uintptr(unsafe.Pointer(&p.data[0])))
}

func (p *memPool) Free(unsafe.Pointer, uintptr) {}

func alignUpTest(v, align uintptr) uintptr {
	if align == 0 {
		return v
	}
	return (v + align - 1) &^ (align - 1)
}
