// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Command shmqueue-demo is a manual, cross-process smoke test: it creates
// a pool-backed queue, spawns itself as a consumer subprocess pointed at
// the queue's offset, and produces into the queue from the parent. None of
// the package-level tests can exercise the "two independent OS processes"
// half of the contract by themselves, which is what this is for.
package main

import (
	"flag"
	"fmt"
	"os"
	"os/exec"
	"time"

	"github.com/shmqueue/shmq"
	"github.com/shmqueue/shmq/shmpool"
)

const (
	shmPath   = "/dev/shm/shmqueue-demo"
	numValues = 10
)

func main() {
	role := flag.String("role", "", "consumer, or empty to run the producer and spawn a consumer")
	offset := flag.Int64("offset", 0, "queue offset within the pool, for -role=consumer")
	flag.Parse()

	if *role == "consumer" {
		runConsumer(*offset)
		return
	}
	runProducer()
}

func runProducer() {
	os.Remove(shmPath)
	pool, err := shmpool.Create(shmPath, shmpool.DefaultPoolSize)
	if err != nil {
		fatal(err)
	}
	defer pool.Close()

	q, err := shmq.NewQueue[int64](pool, 64)
	if err != nil {
		fatal(err)
	}

	consumer := exec.Command(os.Args[0], "-role=consumer", fmt.Sprintf("-offset=%d", q.GetOffset()))
	consumer.Stdout = os.Stdout
	consumer.Stderr = os.Stderr
	if err := consumer.Start(); err != nil {
		fatal(err)
	}

	for i := int64(0); i < numValues; i++ {
		for !q.Enqueue(i) {
			time.Sleep(time.Millisecond)
		}
	}

	if err := consumer.Wait(); err != nil {
		fatal(err)
	}
	os.Remove(shmPath)
}

func runConsumer(offset int64) {
	pool, err := shmpool.Open(shmPath)
	if err != nil {
		fatal(err)
	}
	defer pool.Close()

	q := shmq.LoadQueue[int64](pool, offset)
	for i := 0; i < numValues; i++ {
		v := q.DequeueNextBlocking()
		fmt.Printf("consumed %d\n", v)
	}
}

func fatal(err error) {
	fmt.Fprintln(os.Stderr, "shmqueue-demo:", err)
	os.Exit(1)
}
