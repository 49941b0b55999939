package worker

import (
    "context"
    "sync"

    "go.uber.org/zap"

    "sitewatch/internal/pkg/logger"
    "sitewatch/internal/pkg/queue"
)

// Processes a single URL end to end: fetch, extract, format, deliver.
type Processor interface {
    ProcessURL(ctx context.Context, url string)
}

// Manages a pool of workers that drain the URL queue. With one worker the
// batch runs strictly sequentially in input order; more workers fetch in
// parallel while keeping every URL's processing isolated.
type WorkerPool struct {
    numWorkers int
    queue      *queue.Queue
    processor  Processor
    wg         sync.WaitGroup
}

// Creates a new worker pool with the specified number of workers.
func NewWorkerPool(numWorkers int, queue *queue.Queue, processor Processor) *WorkerPool {
    if numWorkers <= 0 {
        numWorkers = 1
    }
    return &WorkerPool{
        numWorkers: numWorkers,
        queue:      queue,
        processor:  processor,
    }
}

// Launches the worker goroutines.
func (wp *WorkerPool) Start(ctx context.Context) {
    logger.Log.Info("Starting worker pool", zap.Int("workers", wp.numWorkers))

    for i := 0; i < wp.numWorkers; i++ {
        wp.wg.Add(1)
        go wp.runWorker(ctx, i)
    }
}

// Blocks until all workers have finished.
func (wp *WorkerPool) Wait() {
    wp.wg.Wait()
}

// The main loop for each worker goroutine. The batch is fully enqueued
// before Start, so an empty queue means there is nothing left to do.
func (wp *WorkerPool) runWorker(ctx context.Context, id int) {
    defer wp.wg.Done()

    for {
        select {
        case <-ctx.Done():
            logger.Log.Info("Worker received stop signal", zap.Int("worker_id", id))
            return
        default:
            url, err := wp.queue.Remove()
            if err != nil {
                logger.Log.Debug("Queue drained, worker exiting", zap.Int("worker_id", id))
                return
            }
            wp.processor.ProcessURL(ctx, url)
        }
    }
}
