// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package shmq_test

import (
	"sync"
	"testing"

	"github.com/shmqueue/shmq"
)

func TestMutexExclusion(t *testing.T) {
	var mu shmq.Mutex
	counter := 0
	const goroutines, iterations = 16, 500

	var wg sync.WaitGroup
	for range goroutines {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range iterations {
				if err := mu.Acquire(); err != nil {
					t.Error(err)
					return
				}
				counter++
				if err := mu.Release(); err != nil {
					t.Error(err)
					return
				}
			}
		}()
	}
	wg.Wait()

	if counter != goroutines*iterations {
		t.Fatalf("counter: got %d, want %d", counter, goroutines*iterations)
	}
}

func TestMutexReleaseWithoutAcquirePanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("Release without Acquire did not panic")
		}
	}()
	var mu shmq.Mutex
	_ = mu.Release()
}
