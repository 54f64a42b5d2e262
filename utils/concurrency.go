package utils

import (
	"errors"
	"sync"
)

// WorkerPool runs jobs on at most maxWorkers goroutines and collects their errors.
type WorkerPool struct {
	semaphore chan struct{}
	wg        sync.WaitGroup
	mu        sync.Mutex
	errs      []error
}

// NewWorkerPool creates a WorkerPool. maxWorkers below 1 is treated as 1.
func NewWorkerPool(maxWorkers int) *WorkerPool {
	if maxWorkers < 1 {
		maxWorkers = 1
	}
	return &WorkerPool{semaphore: make(chan struct{}, maxWorkers)}
}

// Submit starts job as soon as a worker slot is free.
func (wp *WorkerPool) Submit(job func() error) {
	wp.wg.Add(1)
	go func() {
		defer wp.wg.Done()
		wp.semaphore <- struct{}{}
		defer func() { <-wp.semaphore }()

		if err := job(); err != nil {
			wp.mu.Lock()
			wp.errs = append(wp.errs, err)
			wp.mu.Unlock()
		}
	}()
}

// Wait blocks until every submitted job has returned and joins their errors.
func (wp *WorkerPool) Wait() error {
	wp.wg.Wait()
	wp.mu.Lock()
	defer wp.mu.Unlock()
	return errors.Join(wp.errs...)
}
