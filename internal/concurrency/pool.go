package concurrency

import (
	"context"
	"errors"
	"log/slog"
	"runtime"
	"sync"

	"github.com/marketingax/pdf-generator-service/internal/common"
	"github.com/marketingax/pdf-generator-service/internal/compression"
)

// ErrPoolClosed is returned when a job is submitted after shutdown.
var ErrPoolClosed = errors.New("worker pool is closed")

// Job is one compression request flowing through the pool.
type Job struct {
	ID        string
	InputPath string
	Level     int
}

// ProcessorFunc defines the function signature for processing a single job.
type ProcessorFunc func(job Job, workerID int) (compression.Result, error)

type jobRequest struct {
	job   Job
	reply chan jobReply
}

type jobReply struct {
	result compression.Result
	err    error
}

// Pool is the process-wide worker pool compression requests are handled
// by. Each worker owns one document handle at a time; there is no
// concurrency inside a single compression call.
type Pool struct {
	ctx       context.Context
	processor ProcessorFunc
	logger    *slog.Logger

	maxWorkers int
	jobs       chan jobRequest

	mu     sync.Mutex
	closed bool
	wg     sync.WaitGroup
}

// NewPool creates a worker pool sized to the machine, capped at
// common.MaxConcurrencyLimit.
func NewPool(ctx context.Context, processor ProcessorFunc, logger *slog.Logger) *Pool {
	workers := runtime.NumCPU()
	if workers > common.MaxConcurrencyLimit {
		workers = common.MaxConcurrencyLimit
	}

	return &Pool{
		ctx:        ctx,
		processor:  processor,
		logger:     logger,
		maxWorkers: workers,
		jobs:       make(chan jobRequest, workers*2),
	}
}

// Start launches the workers.
func (p *Pool) Start() {
	for i := 0; i < p.maxWorkers; i++ {
		p.wg.Add(1)
		go p.worker(i)
	}
	p.logger.Info("compression worker pool started", "workers", p.maxWorkers)
}

// Stop closes the pool and waits for in-flight jobs to finish.
func (p *Pool) Stop() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	close(p.jobs)
	p.mu.Unlock()

	p.wg.Wait()
	p.logger.Info("compression worker pool stopped")
}

// Process submits a job and waits for its result. An in-flight compression
// runs to completion even if the pool context is cancelled afterwards.
func (p *Pool) Process(job Job) (compression.Result, error) {
	req := jobRequest{job: job, reply: make(chan jobReply, 1)}

	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return compression.Result{}, ErrPoolClosed
	}
	p.jobs <- req
	p.mu.Unlock()

	select {
	case reply := <-req.reply:
		return reply.result, reply.err
	case <-p.ctx.Done():
		return compression.Result{}, p.ctx.Err()
	}
}

func (p *Pool) worker(workerID int) {
	defer p.wg.Done()

	for req := range p.jobs {
		select {
		case <-p.ctx.Done():
			req.reply <- jobReply{err: p.ctx.Err()}
			continue
		default:
		}

		result, err := p.processor(req.job, workerID)
		if err != nil {
			p.logger.Error("error processing job",
				"job_id", req.job.ID,
				"worker_id", workerID,
				"error", err)
		}
		req.reply <- jobReply{result: result, err: err}
	}
}
