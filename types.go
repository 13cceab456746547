// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package shmq

import "unsafe"

// Pool is the shared-memory allocator the queue engine consumes to obtain
// the RawQueue record and its slot array. It is an external collaborator:
// this package only depends on the interface, never on a concrete pool
// implementation, so a caller may supply any allocator that satisfies it.
// The [github.com/shmqueue/shmq/shmpool] package ships one implementation.
type Pool interface {
	// AllocateForType reserves size bytes aligned to align, returning both
	// a pointer usable in this process and the offset that identifies the
	// same memory to any other process mapping the same pool.
	AllocateForType(size, align uintptr) (ptr unsafe.Pointer, offset int64, err error)
	// AllocateArray reserves count contiguous elements of elemSize bytes
	// each, aligned to align.
	AllocateArray(count int, elemSize, align uintptr) (ptr unsafe.Pointer, offset int64, err error)
	// AtOffset resolves an offset produced by this pool (in this process
	// or another one mapping the same region) back to a usable pointer.
	AtOffset(offset int64) unsafe.Pointer
	// OffsetOf is the inverse of AtOffset.
	OffsetOf(p unsafe.Pointer) int64
	// Free releases memory previously returned by AllocateForType or
	// AllocateArray. size must match the original allocation's size.
	Free(p unsafe.Pointer, size uintptr)
}

// Stats is a point-in-time, unsynchronized snapshot of a Queue's internal
// counters. It exists purely for diagnostics — nothing in this package
// relies on Stats being coherent across its three fields, since reading
// them takes no lock and races with every concurrent producer.
type Stats struct {
	// WriteLength is the number of reserved-or-filled slots.
	WriteLength uint32
	// HeadIndex is the producer write cursor, folded back into
	// [0, capacity) after each enqueue; it can briefly read higher while an
	// enqueue is in progress. Reserve does not move it.
	HeadIndex uint32
	// BlockedThreads is the number of producers currently parked in
	// EnqueueBlocking, an optimization hint rather than an exact count.
	BlockedThreads uint32
}
