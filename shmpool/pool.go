// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package shmpool is a minimal reference implementation of the
// [github.com/shmqueue/shmq.Pool] interface: a block-bitmap allocator over
// a single mmap'd, MAP_SHARED region, so that a [github.com/shmqueue/shmq.Queue]
// can actually be created and tested end to end. The pool allocator proper
// is an external collaborator as far as the queue engine is concerned —
// this package is one implementation among any number that could satisfy
// the interface, not a guarantee this repository makes about allocator
// behavior under adversarial conditions.
package shmpool

import (
	"fmt"
	"os"
	"syscall"
	"unsafe"

	"github.com/shmqueue/shmq"
)

// BlockSize is the allocation granularity, matching the original pool's
// 128-byte block size.
const BlockSize = 128

// DefaultPoolSize is the default backing region size in bytes.
const DefaultPoolSize = 64000

// poolHeader sits at offset 0 of the mapped region. allocLock is a
// [shmq.Mutex], usable across processes because it is itself nothing more
// than one shared word.
type poolHeader struct {
	size      uint64
	numBlocks uint32
	blockSize uint32
	allocLock shmq.Mutex
}

// Pool is a fixed-size shared-memory region divided into BlockSize blocks,
// tracked by a bitmap stored at the front of the region alongside the
// header. It satisfies [shmq.Pool].
type Pool struct {
	data         []byte
	hdr          *poolHeader
	bitmap       []byte
	blocksOffset uintptr
	file         *os.File
}

// Create maps a new pool-backed file at path, sized to hold at least size
// bytes of blocks, and initializes its header and bitmap. path is typically
// under /dev/shm so other processes can open the same region by name.
func Create(path string, size int) (*Pool, error) {
	if size <= 0 {
		size = DefaultPoolSize
	}
	numBlocks := uint32((size + BlockSize - 1) / BlockSize)
	headerSize := unsafe.Sizeof(poolHeader{})
	bitmapBytes := uintptr((numBlocks + 7) / 8)
	blocksOffset := alignUp(headerSize+bitmapBytes, BlockSize)
	total := blocksOffset + uintptr(numBlocks)*BlockSize

	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_RDWR, 0600)
	if err != nil {
		return nil, fmt.Errorf("shmpool: create %s: %w", path, err)
	}
	if err := f.Truncate(int64(total)); err != nil {
		f.Close()
		os.Remove(path)
		return nil, fmt.Errorf("shmpool: truncate %s: %w", path, err)
	}

	p, err := mapFile(f, int(total))
	if err != nil {
		os.Remove(path)
		return nil, err
	}
	p.hdr.size = uint64(total)
	p.hdr.numBlocks = numBlocks
	p.hdr.blockSize = BlockSize
	p.blocksOffset = blocksOffset
	p.bitmap = p.data[headerSize : headerSize+bitmapBytes]
	return p, nil
}

// Open attaches to a pool a prior Create call (in this process or another
// one) left mapped at path.
func Open(path string) (*Pool, error) {
	f, err := os.OpenFile(path, os.O_RDWR, 0600)
	if err != nil {
		return nil, fmt.Errorf("shmpool: open %s: %w", path, err)
	}
	st, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, err
	}
	p, err := mapFile(f, int(st.Size()))
	if err != nil {
		return nil, err
	}
	headerSize := unsafe.Sizeof(poolHeader{})
	bitmapBytes := uintptr((p.hdr.numBlocks + 7) / 8)
	p.blocksOffset = alignUp(headerSize+bitmapBytes, BlockSize)
	p.bitmap = p.data[headerSize : headerSize+bitmapBytes]
	return p, nil
}

func mapFile(f *os.File, size int) (*Pool, error) {
	data, err := syscall.Mmap(int(f.Fd()), 0, size, syscall.PROT_READ|syscall.PROT_WRITE, syscall.MAP_SHARED)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("shmpool: mmap: %w", err)
	}
	return &Pool{
		data: data,
		hdr:  (*poolHeader)(unsafe.Pointer(&data[0])),
		file: f,
	}, nil
}

// Close unmaps the region and closes the backing file descriptor. It does
// not remove the backing file; the process that called Create owns that.
func (p *Pool) Close() error {
	if err := syscall.Munmap(p.data); err != nil {
		return err
	}
	return p.file.Close()
}

func alignUp(v uintptr, align uintptr) uintptr {
	return (v + align - 1) &^ (align - 1)
}

func blocksFor(size uintptr) uint32 {
	if size == 0 {
		return 1
	}
	return uint32((size + BlockSize - 1) / BlockSize)
}

// AllocateForType implements [shmq.Pool].
func (p *Pool) AllocateForType(size, align uintptr) (unsafe.Pointer, int64, error) {
	if align > BlockSize {
		return nil, 0, fmt.Errorf("shmpool: alignment %d exceeds block size %d", align, BlockSize)
	}
	return p.allocate(blocksFor(size))
}

// AllocateArray implements [shmq.Pool].
func (p *Pool) AllocateArray(count int, elemSize, align uintptr) (unsafe.Pointer, int64, error) {
	if align > BlockSize {
		return nil, 0, fmt.Errorf("shmpool: alignment %d exceeds block size %d", align, BlockSize)
	}
	return p.allocate(blocksFor(uintptr(count) * elemSize))
}

func (p *Pool) allocate(nBlocks uint32) (unsafe.Pointer, int64, error) {
	if err := p.hdr.allocLock.Acquire(); err != nil {
		return nil, 0, err
	}
	defer p.hdr.allocLock.Release()

	start, run := uint32(0), uint32(0)
	for i := uint32(0); i < p.hdr.numBlocks; i++ {
		if p.bitGet(i) {
			run = 0
			continue
		}
		if run == 0 {
			start = i
		}
		run++
		if run == nBlocks {
			for j := start; j < start+nBlocks; j++ {
				p.bitSet(j)
			}
			off := int64(p.blocksOffset) + int64(start)*BlockSize
			return unsafe.Pointer(&p.data[off]), off, nil
		}
	}
	return nil, 0, fmt.Errorf("shmpool: no contiguous run of %d blocks free", nBlocks)
}

// Free implements [shmq.Pool].
func (p *Pool) Free(ptr unsafe.Pointer, size uintptr) {
	off := uintptr(ptr) - uintptr(unsafe.Pointer(&p.data[0]))
	start := uint32((off - p.blocksOffset) / BlockSize)
	n := blocksFor(size)

	if err := p.hdr.allocLock.Acquire(); err != nil {
		panic(err)
	}
	defer p.hdr.allocLock.Release()
	for j := start; j < start+n; j++ {
		p.bitClear(j)
	}
}

// AtOffset implements [shmq.Pool].
func (p *Pool) AtOffset(offset int64) unsafe.Pointer {
	return unsafe.Pointer(&p.data[offset])
}

// OffsetOf implements [shmq.Pool].
func (p *Pool) OffsetOf(ptr unsafe.Pointer) int64 {
	return int64(uintptr(ptr) - uintptr(unsafe.Pointer(&p.data[0])))
}

func (p *Pool) bitGet(i uint32) bool   { return p.bitmap[i/8]&(1<<(i%8)) != 0 }
func (p *Pool) bitSet(i uint32)        { p.bitmap[i/8] |= 1 << (i % 8) }
func (p *Pool) bitClear(i uint32)      { p.bitmap[i/8] &^= 1 << (i % 8) }

var _ shmq.Pool = (*Pool)(nil)
