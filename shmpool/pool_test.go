// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package shmpool_test

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"unsafe"

	"github.com/shmqueue/shmq/shmpool"
)

func tempPoolPath(t *testing.T) string {
	t.Helper()
	return filepath.Join(t.TempDir(), fmt.Sprintf("shmpool-test-%d", os.Getpid()))
}

func TestPoolAllocateAndFree(t *testing.T) {
	pool, err := shmpool.Create(tempPoolPath(t), 4096)
	if err != nil {
		t.Fatal(err)
	}
	defer pool.Close()

	ptr, off, err := pool.AllocateForType(64, 8)
	if err != nil {
		t.Fatal(err)
	}
	if off%shmpool.BlockSize != 0 {
		t.Fatalf("allocation offset %d not block-aligned (block size %d)", off, shmpool.BlockSize)
	}

	*(*uint64)(ptr) = 0xDEADBEEF
	if got := *(*uint64)(pool.AtOffset(off)); got != 0xDEADBEEF {
		t.Fatalf("AtOffset roundtrip: got %#x, want %#x", got, 0xDEADBEEF)
	}

	pool.Free(ptr, 64)

	ptr2, off2, err := pool.AllocateForType(64, 8)
	if err != nil {
		t.Fatal(err)
	}
	if off2 != off {
		t.Fatalf("reallocation after Free: got offset %d, want reused offset %d", off2, off)
	}
	_ = ptr2
}

func TestPoolAllocateArrayContiguous(t *testing.T) {
	pool, err := shmpool.Create(tempPoolPath(t), 8192)
	if err != nil {
		t.Fatal(err)
	}
	defer pool.Close()

	const n = 10
	ptr, _, err := pool.AllocateArray(n, unsafe.Sizeof(int64(0)), unsafe.Alignof(int64(0)))
	if err != nil {
		t.Fatal(err)
	}

	base := (*int64)(ptr)
	for i := 0; i < n; i++ {
		*(*int64)(unsafe.Pointer(uintptr(unsafe.Pointer(base)) + uintptr(i)*unsafe.Sizeof(int64(0)))) = int64(i)
	}
	for i := 0; i < n; i++ {
		v := *(*int64)(unsafe.Pointer(uintptr(unsafe.Pointer(base)) + uintptr(i)*unsafe.Sizeof(int64(0))))
		if v != int64(i) {
			t.Fatalf("element %d: got %d, want %d", i, v, i)
		}
	}
}

func TestPoolOpenSeesSameData(t *testing.T) {
	path := tempPoolPath(t)
	pool, err := shmpool.Create(path, 4096)
	if err != nil {
		t.Fatal(err)
	}

	ptr, off, err := pool.AllocateForType(8, 8)
	if err != nil {
		t.Fatal(err)
	}
	*(*uint64)(ptr) = 12345
	pool.Close()

	reopened, err := shmpool.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer reopened.Close()

	if got := *(*uint64)(reopened.AtOffset(off)); got != 12345 {
		t.Fatalf("value after reopen: got %d, want 12345", got)
	}
}

func TestPoolExhaustion(t *testing.T) {
	pool, err := shmpool.Create(tempPoolPath(t), shmpool.BlockSize*4)
	if err != nil {
		t.Fatal(err)
	}
	defer pool.Close()

	for i := 0; i < 4; i++ {
		if _, _, err := pool.AllocateForType(shmpool.BlockSize, 8); err != nil {
			t.Fatalf("allocation %d: %v", i, err)
		}
	}
	if _, _, err := pool.AllocateForType(shmpool.BlockSize, 8); err == nil {
		t.Fatal("allocation past capacity: want error")
	}
}
