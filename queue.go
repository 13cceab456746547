// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package shmq

import (
	"math"
	"unsafe"

	"github.com/shmqueue/shmq/internal/atomics"
	"github.com/shmqueue/shmq/internal/futex"
)

// maxTicket masks a write_waiters half-word down to its 15 significant
// bits; bit 15 (and, on the other half, bit 31) is a wraparound-parity
// flag, not part of the counter itself.
const maxTicket = 0x7FFF

// slot is one physical position in the queue's array: a value plus the two
// words the protocol needs around it. valid is 0 (empty), 1 (full), or 2
// (consumer parked waiting for this exact slot). writeWaiters packs two
// 15-bit counters — a ticket counter in the low half, a served counter in
// the high half — plus their parity bits, used to serialize producers that
// wrap back onto a slot the consumer has not yet drained.
type slot[T any] struct {
	value        T
	valid        atomics.Word32
	writeWaiters atomics.Word32
}

// rawQueueHeader is the RawQueue record, laid out directly on
// pool-allocated shared memory. Every field here is meaningful to any
// process mapping the same pool, not just the one that created it.
type rawQueueHeader struct {
	arrayOffset       int64
	arrayLength       uint32
	arrayLengthShifts uint8
	_                 [3]byte
	writeLength       atomics.Word32
	headIndex         atomics.Word32
	blockedThreads    atomics.Word32
}

// Queue is a bounded, lock-free, multi-producer single-consumer queue of
// T values living in memory a Pool can hand out and resolve by offset.
//
// Any number of producers may call the Enqueue family concurrently.
// Exactly one goroutine — in this process or another one mapping the same
// pool — may call the Dequeue/Peek family at a time; violating that
// constraint is undefined behavior, not a checked error.
type Queue[T any] struct {
	pool      Pool
	raw       *rawQueueHeader
	rawOffset int64
	array     unsafe.Pointer // base of a [arrayLength]slot[T]
	mask      uint32

	// tailIndex is consumer-local: only the single goroutine calling
	// DequeueNext/PeekNext ever reads or writes it, so it needs no
	// synchronization at all.
	tailIndex uint32
}

// NewQueue allocates a new queue of the given capacity from pool. Capacity
// rounds up to the next power of two; it panics if capacity < 2.
func NewQueue[T any](pool Pool, capacity int) (*Queue[T], error) {
	n, shifts := roundToPow2Shifts(capacity)

	var zeroSlot slot[T]
	elemSize := unsafe.Sizeof(zeroSlot)
	arrPtr, arrOff, err := pool.AllocateArray(int(n), elemSize, unsafe.Alignof(zeroSlot))
	if err != nil {
		return nil, err
	}

	var zeroHdr rawQueueHeader
	hdrPtr, hdrOff, err := pool.AllocateForType(unsafe.Sizeof(zeroHdr), unsafe.Alignof(zeroHdr))
	if err != nil {
		pool.Free(arrPtr, elemSize*uintptr(n))
		return nil, err
	}

	raw := (*rawQueueHeader)(hdrPtr)
	*raw = rawQueueHeader{
		arrayOffset:       arrOff,
		arrayLength:       n,
		arrayLengthShifts: shifts,
	}

	return &Queue[T]{
		pool:      pool,
		raw:       raw,
		rawOffset: hdrOff,
		array:     arrPtr,
		mask:      n - 1,
	}, nil
}

// LoadQueue attaches to a queue a prior NewQueue call (in this process or
// another one) placed at offset within pool.
func LoadQueue[T any](pool Pool, offset int64) *Queue[T] {
	hdrPtr := pool.AtOffset(offset)
	raw := (*rawQueueHeader)(hdrPtr)
	return &Queue[T]{
		pool:      pool,
		raw:       raw,
		rawOffset: offset,
		array:     pool.AtOffset(raw.arrayOffset),
		mask:      raw.arrayLength - 1,
	}
}

func roundToPow2Shifts(capacity int) (uint32, uint8) {
	if capacity < 2 {
		panic("shmq: capacity must be >= 2")
	}
	n := uint32(1)
	shifts := uint8(0)
	for n < uint32(capacity) {
		n <<= 1
		shifts++
	}
	return n, shifts
}

func (q *Queue[T]) slotAt(i uint32) *slot[T] {
	return (*slot[T])(unsafe.Add(q.array, uintptr(i)*unsafe.Sizeof(slot[T]{})))
}

// Capacity returns the queue's usable capacity (a power of two, possibly
// larger than what was requested at creation).
func (q *Queue[T]) Capacity() int { return int(q.raw.arrayLength) }

// Stats returns an unsynchronized snapshot of the queue's counters.
func (q *Queue[T]) Stats() Stats {
	return Stats{
		WriteLength:    q.raw.writeLength.Load(),
		HeadIndex:      q.raw.headIndex.Load(),
		BlockedThreads: q.raw.blockedThreads.Load(),
	}
}

// GetOffset returns the offset identifying this queue's header within its
// pool, for a name-map or any other collaborator to publish elsewhere.
func (q *Queue[T]) GetOffset() int64 { return q.rawOffset }

// Reserve claims one slot's worth of capacity without writing to it,
// reporting false if the queue is already at capacity. A successful
// Reserve must be matched by exactly one of EnqueueAt or CancelReservation.
func (q *Queue[T]) Reserve() bool {
	old := q.raw.writeLength.FetchAdd(1)
	atomics.Fence()
	if old >= q.raw.arrayLength {
		q.raw.writeLength.Add(-1)
		return false
	}
	return true
}

// CancelReservation releases a slot claimed by Reserve without writing a
// value into it.
func (q *Queue[T]) CancelReservation() {
	q.raw.writeLength.Add(-1)
}

// EnqueueAt writes value into a slot previously claimed by Reserve. It
// must not be called without a matching outstanding reservation.
func (q *Queue[T]) EnqueueAt(value T) {
	q.doEnqueue(value, false)
}

// Enqueue reserves a slot and writes value into it in one call, reporting
// false if the queue was full.
func (q *Queue[T]) Enqueue(value T) bool {
	if !q.Reserve() {
		return false
	}
	q.EnqueueAt(value)
	return true
}

// EnqueueBlocking writes value into the queue, growing past capacity if
// necessary and letting the eventual consumer drain the backlog. Unlike
// Enqueue it never reports failure; the caller may block instead.
func (q *Queue[T]) EnqueueBlocking(value T) {
	q.raw.writeLength.FetchAdd(1)
	atomics.Fence()
	q.doEnqueue(value, true)
}

func (q *Queue[T]) doEnqueue(value T, canBlock bool) {
	oldHead := q.raw.headIndex.FetchAdd(1)
	atomics.Fence()
	// Fold the shared cursor back into [0, arrayLength) so it advances
	// modulo N rather than modulo 2^32, per the head_index invariant;
	// addressing stays correct either way since 2^32 is divisible by N,
	// but the fold-back is still part of the documented protocol.
	q.raw.headIndex.FetchAnd(q.mask)
	idx := oldHead & q.mask
	s := q.slotAt(idx)

	ticket := s.writeWaiters.FetchAddLow16(1) & maxTicket
	if canBlock {
		q.raw.blockedThreads.FetchAdd(1)
		q.doWriteBlocking(s, ticket)
		q.raw.blockedThreads.Add(-1)
	}

	volatileCopy(unsafe.Pointer(&s.value), unsafe.Pointer(&value), unsafe.Sizeof(value))
	atomics.Fence()

	prev := s.valid.Exchange(1)
	if prev == 1 {
		panic("shmq: enqueue landed on a slot the consumer has not drained")
	}
	if prev == 2 {
		futex.Wake(s.valid.Addr(), 1)
	}
}

// doWriteBlocking is the deli-counter discipline: a producer that wrapped
// back onto a slot other producers also claimed waits its turn, in ticket
// order, before writing. The parity bits distinguish "my ticket is ahead
// of the served counter" from "the served counter wrapped past mine."
func (q *Queue[T]) doWriteBlocking(s *slot[T], ticket uint16) {
	for {
		w := s.writeWaiters.Load()
		served := uint16(w>>16) & maxTicket
		inverted := (w>>15)&1 != (w>>31)&1
		var mustWait bool
		if inverted {
			mustWait = served > ticket
		} else {
			mustWait = served < ticket
		}
		if !mustWait {
			return
		}
		_, _ = futex.Wait(s.writeWaiters.Addr(), w)
	}
}

// DequeueNext removes and returns the next value, reporting false if the
// queue is empty. Only the single designated consumer may call this.
func (q *Queue[T]) DequeueNext() (T, bool) {
	var zero T
	s := q.slotAt(q.tailIndex)
	if !s.valid.CompareAndSwap(1, 0) {
		return zero, false
	}
	out := q.doDequeue(s)
	atomics.Fence()
	q.raw.writeLength.Add(-1)
	return out, true
}

// DequeueNextBlocking removes and returns the next value, parking the
// consumer on the slot's futex word if the queue is currently empty.
func (q *Queue[T]) DequeueNextBlocking() T {
	s := q.slotAt(q.tailIndex)
	if !s.valid.CompareAndSwap(1, 0) {
		if s.valid.CompareAndSwap(0, 2) {
			for s.valid.Load() == 2 {
				_, _ = futex.Wait(s.valid.Addr(), 2)
			}
		}
		s.valid.Store(0)
	}
	out := q.doDequeue(s)
	atomics.Fence()
	oldLength := q.raw.writeLength.Add(-1)
	if oldLength > q.raw.arrayLength {
		// The backlog exceeded capacity, meaning producers are parked in
		// EnqueueBlocking on this exact slot's write_waiters word. Wake
		// them all; the deli discipline above lets exactly one proceed.
		_, _ = futex.Wake(s.writeWaiters.Addr(), math.MaxInt32)
	}
	return out
}

func (q *Queue[T]) doDequeue(s *slot[T]) T {
	var out T
	volatileCopy(unsafe.Pointer(&out), unsafe.Pointer(&s.value), unsafe.Sizeof(out))
	q.tailIndex = (q.tailIndex + 1) & q.mask
	s.writeWaiters.IncrementHigh16()
	return out
}

// PeekNext returns the next value without removing it, reporting false if
// the queue is empty.
func (q *Queue[T]) PeekNext() (T, bool) {
	var out T
	s := q.slotAt(q.tailIndex)
	if s.valid.Load() != 1 {
		return out, false
	}
	volatileCopy(unsafe.Pointer(&out), unsafe.Pointer(&s.value), unsafe.Sizeof(out))
	return out, true
}

// PeekNextBlocking returns the next value without removing it, parking
// the consumer until one is available.
func (q *Queue[T]) PeekNextBlocking() T {
	s := q.slotAt(q.tailIndex)
	for s.valid.Load() != 1 {
		if s.valid.CompareAndSwap(0, 2) {
			for s.valid.Load() == 2 {
				_, _ = futex.Wait(s.valid.Addr(), 2)
			}
		}
	}
	var out T
	volatileCopy(unsafe.Pointer(&out), unsafe.Pointer(&s.value), unsafe.Sizeof(out))
	return out
}

// Free releases the queue's array and header back to its pool. The caller
// must ensure no other goroutine or process still holds a reference.
func (q *Queue[T]) Free() {
	var zeroSlot slot[T]
	arrSize := uintptr(q.raw.arrayLength) * unsafe.Sizeof(zeroSlot)
	q.pool.Free(q.array, arrSize)
	q.pool.Free(unsafe.Pointer(q.raw), unsafe.Sizeof(*q.raw))
}
