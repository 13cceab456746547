// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package futex wraps the Linux futex syscall for words shared across
// process boundaries via a mapped region, not just across goroutines in
// one process. Every Wait/Wake here omits the _PRIVATE futex flags: the
// whole point of this package is that the queue it backs is read and
// written by independent OS processes, for which a private futex (which
// assumes a single shared virtual address space) gives wrong results.
package futex

// Wait blocks the calling goroutine until the word at addr no longer
// equals expected, or until another thread calls Wake on addr.
// It returns (false, nil) immediately, without sleeping, if the word
// has already changed by the time the syscall observes it — the futex
// equivalent of a benign lost wakeup, not an error.
func Wait(addr *uint32, expected uint32) (bool, error) {
	return wait(addr, expected)
}

// Wake wakes up to n goroutines/threads/processes blocked in Wait on addr.
// It returns the number actually woken.
func Wake(addr *uint32, n int32) (int, error) {
	return wake(addr, n)
}
