// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package shmq

import (
	"code.hybscloud.com/spin"

	"github.com/shmqueue/shmq/internal/atomics"
	"github.com/shmqueue/shmq/internal/futex"
)

// mutexFree, mutexLocked, and mutexContended are the three states a Mutex's
// word can hold. mutexContended exists so Release only pays for a futex
// wake when a waiter actually showed up — the same three-state trick every
// futex-backed mutex in the original uses.
const (
	mutexFree      uint32 = 0
	mutexLocked    uint32 = 1
	mutexContended uint32 = 2
)

// Mutex is a futex-backed mutual-exclusion lock whose state word may live
// in memory shared with other processes. The zero value is unlocked.
//
// Mutex protects the pool allocator's block bitmap (see the shmpool
// package); the queue engine itself never takes one on its hot path.
type Mutex struct {
	state atomics.Word32
}

// Acquire blocks until the mutex is held by the caller.
func (m *Mutex) Acquire() error {
	if m.state.CompareAndSwap(mutexFree, mutexLocked) {
		return nil
	}
	sw := spin.Wait{}
	spins := 0
	for {
		cur := m.state.Load()
		// Briefly spin before paying for a futex round trip — most pool
		// allocations hold the lock only long enough to flip a handful
		// of bitmap bits.
		if cur == mutexLocked && spins < 32 {
			sw.Once()
			spins++
			continue
		}
		if cur == mutexContended || m.state.CompareAndSwap(mutexLocked, mutexContended) {
			if _, err := futex.Wait(m.state.Addr(), mutexContended); err != nil {
				return err
			}
		}
		if m.state.CompareAndSwap(mutexFree, mutexContended) {
			return nil
		}
	}
}

// Release releases the mutex. Release on an unlocked mutex is a programmer
// error and panics, mirroring the original's assert. No owner is recorded,
// so Release of a mutex another caller holds is not detected.
func (m *Mutex) Release() error {
	if m.state.CompareAndSwap(mutexLocked, mutexFree) {
		return nil
	}
	if !m.state.CompareAndSwap(mutexContended, mutexFree) {
		panic("shmq: release of unlocked Mutex")
	}
	_, err := futex.Wake(m.state.Addr(), 1)
	return err
}
