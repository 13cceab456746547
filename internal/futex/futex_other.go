// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

//go:build !linux

package futex

import (
	"runtime"
	"sync/atomic"
	"time"
)

// wait spin-polls instead of sleeping on a real futex. This keeps the
// package buildable and single-process-correct off Linux; it gives none
// of the cross-process wakeup semantics the queue needs in production.
func wait(addr *uint32, expected uint32) (bool, error) {
	if atomic.LoadUint32(addr) != expected {
		return false, nil
	}
	for atomic.LoadUint32(addr) == expected {
		runtime.Gosched()
		time.Sleep(time.Microsecond)
	}
	return true, nil
}

func wake(addr *uint32, n int32) (int, error) {
	return 0, nil
}
