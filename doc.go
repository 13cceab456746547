// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package shmq is a bounded, lock-free, multi-producer single-consumer
// queue for passing fixed-layout values between independent OS processes
// that map the same shared-memory region — not just goroutines in one
// process.
//
// # Quick Start
//
//	pool, _ := shmpool.Create("/dev/shm/example", shmpool.DefaultPoolSize)
//	q, _ := shmq.NewQueue[Event](pool, 1024)
//
//	// Hand q.GetOffset() to another process, which attaches with:
//	q2 := shmq.LoadQueue[Event](pool, offset)
//
// # Basic Usage
//
//	// Producer (any number of processes/goroutines)
//	if !q.Enqueue(ev) {
//	    // queue full — backpressure
//	}
//
//	// Single consumer
//	ev, ok := q.DequeueNext()
//	if !ok {
//	    // queue empty
//	}
//
// # Blocking Variants
//
// Enqueue/DequeueNext never block; EnqueueBlocking/DequeueNextBlocking do,
// parking the caller on a futex word shared with the other side rather
// than spinning or returning [ErrWouldBlock]:
//
//	go func() {
//	    for {
//	        ev := q.DequeueNextBlocking()
//	        process(ev)
//	    }
//	}()
//
//	q.EnqueueBlocking(ev) // returns once room is available and ev is written
//
// EnqueueBlocking grows the queue's backlog past its nominal capacity
// rather than failing; DequeueNextBlocking wakes parked producers as it
// drains that backlog. A producer that calls EnqueueBlocking on an
// already-full queue is choosing to wait rather than be told to retry —
// mixing the two styles on one queue is fine, but a consumer that never
// calls the blocking dequeue variant can leave EnqueueBlocking callers
// parked indefinitely.
//
// # Reservation Protocol
//
// Enqueue is Reserve followed by EnqueueAt. Splitting them lets a caller
// claim a slot, do work that might fail, and only then decide whether to
// write or call CancelReservation:
//
//	if !q.Reserve() {
//	    return ErrWouldBlock
//	}
//	ev, err := buildEvent()
//	if err != nil {
//	    q.CancelReservation()
//	    return err
//	}
//	q.EnqueueAt(ev)
//
// # Error Handling
//
// The bool-returning methods above are the primary API, matching a queue
// whose "full" and "empty" conditions are routine, not exceptional. For
// callers that prefer the ecosystem's error-returning convention,
// [ErrWouldBlock] (sourced from [code.hybscloud.com/iox]) and
// [IsWouldBlock] are exported so a false return can be translated at the
// call site:
//
//	if !q.Enqueue(ev) {
//	    return fmt.Errorf("publish: %w", shmq.ErrWouldBlock)
//	}
//
// # Capacity
//
// Capacity rounds up to the next power of two; minimum capacity is 2.
// EnqueueBlocking can push the live backlog past Capacity(); Stats()
// reports the current backlog for diagnostics, not as something to poll
// for flow control — futex parking already does that.
//
// # Thread and Process Safety
//
// Enqueue, EnqueueAt, Reserve, CancelReservation, and EnqueueBlocking are
// safe to call concurrently from any number of goroutines in any number of
// processes mapping the same pool. DequeueNext, DequeueNextBlocking,
// PeekNext, and PeekNextBlocking must all be called by exactly one
// goroutine at a time; calling any of them concurrently with another is
// undefined behavior, not a checked error.
//
// # Dependencies
//
// This package uses [code.hybscloud.com/iox] for semantic errors and
// [code.hybscloud.com/spin] for CPU-pause backoff in the allocator's
// contended paths. The futex and raw-atomics primitives the queue itself
// runs on are purpose-built in internal/futex and internal/atomics: they
// operate on words at run-time-computed offsets inside a shared byte
// buffer, which is a shape neither a struct-embedded atomic type nor an
// x/sys/unix futex wrapper is built to address — see DESIGN.md.
package shmq
