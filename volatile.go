// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package shmq

import "unsafe"

// volatileCopy copies n bytes from src to dst, where dst (on enqueue) or src
// (on dequeue and peek) is shared with another process and therefore must not be torn into
// vector-width loads/stores the compiler thinks are safe to reorder or
// widen past what the destination actually holds. It copies 8 bytes at a
// time while both pointers are 8-byte aligned and the remaining length
// permits it, then finishes the tail byte by byte — the same split the
// original uses, without relying on Go's nonexistent volatile qualifier.
func volatileCopy(dst, src unsafe.Pointer, n uintptr) {
	d, s := uintptr(dst), uintptr(src)
	i := uintptr(0)
	if d&7 == 0 && s&7 == 0 {
		for ; i+8 <= n; i += 8 {
			dp := (*uint64)(unsafe.Add(dst, i))
			sp := (*uint64)(unsafe.Add(src, i))
			*dp = *sp
		}
	}
	for ; i < n; i++ {
		dp := (*byte)(unsafe.Add(dst, i))
		sp := (*byte)(unsafe.Add(src, i))
		*dp = *sp
	}
}
