// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package shmq

import "code.hybscloud.com/iox"

// ErrWouldBlock indicates the operation cannot proceed immediately.
//
// For Enqueue: the queue is full (backpressure)
// For DequeueNext/PeekNext: the queue is empty (no data available)
//
// ErrWouldBlock is a control flow signal, not a failure. Queue and Dequeue
// methods report this condition with a bool return rather than an error
// (see [Queue.Enqueue], [Queue.DequeueNext]); ErrWouldBlock exists for
// callers who prefer to translate that bool into the ecosystem's
// error-returning convention at the call site.
//
// This is an alias for [iox.ErrWouldBlock] for ecosystem consistency.
//
// Example, retrying directly on the bool return:
//
//	backoff := iox.Backoff{}
//	for !q.Enqueue(item) {
//	    backoff.Wait() // Adaptive backpressure
//	}
//	backoff.Reset()
//
// Example, translating the bool into an error at an API boundary:
//
//	if !q.Enqueue(item) {
//	    return fmt.Errorf("publish: %w", shmq.ErrWouldBlock)
//	}
var ErrWouldBlock = iox.ErrWouldBlock

// IsWouldBlock reports whether err indicates the operation would block.
// Delegates to [iox.IsWouldBlock] for wrapped error support.
func IsWouldBlock(err error) bool {
	return iox.IsWouldBlock(err)
}

// IsSemantic reports whether err is a control flow signal (not a failure).
// Delegates to [iox.IsSemantic].
func IsSemantic(err error) bool {
	return iox.IsSemantic(err)
}

// IsNonFailure reports whether err represents a non-failure condition.
// Returns true for nil, ErrWouldBlock, or ErrMore.
// Delegates to [iox.IsNonFailure].
func IsNonFailure(err error) bool {
	return iox.IsNonFailure(err)
}
