// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

//go:build linux

package futex

import (
	"sync/atomic"
	"syscall"
	"unsafe"
)

const (
	futexWait = 0 // FUTEX_WAIT, process-shared (no _PRIVATE bit)
	futexWake = 1 // FUTEX_WAKE, process-shared
)

func wait(addr *uint32, expected uint32) (bool, error) {
	if atomic.LoadUint32(addr) != expected {
		return false, nil
	}
	// Syscall6, not RawSyscall6: the wait can park indefinitely, and the
	// runtime must be told so it can hand this thread's P to other goroutines.
	_, _, errno := syscall.Syscall6(
		syscall.SYS_FUTEX,
		uintptr(unsafe.Pointer(addr)),
		uintptr(futexWait),
		uintptr(expected),
		0, 0, 0,
	)
	switch errno {
	case 0, syscall.EINTR:
		return true, nil
	case syscall.EAGAIN:
		return false, nil
	default:
		return false, errno
	}
}

func wake(addr *uint32, n int32) (int, error) {
	r1, _, errno := syscall.RawSyscall6(
		syscall.SYS_FUTEX,
		uintptr(unsafe.Pointer(addr)),
		uintptr(futexWake),
		uintptr(uint32(n)),
		0, 0, 0,
	)
	if errno != 0 {
		return 0, errno
	}
	return int(r1), nil
}
