package worker

import (
	"context"
	"sort"
	"sync"
)

// Job represents a unit of work to be executed
type Job interface {
	Execute(ctx context.Context) Result
}

// Result represents the result of a job execution
type Result interface {
	GetError() error
}

type indexedJob struct {
	index int
	job   Job
}

type indexedResult struct {
	index  int
	result Result
}

// Pool manages a pool of workers that execute jobs concurrently.
// Results are returned in submission order.
type Pool struct {
	workers     int
	jobQueue    chan indexedJob
	results     chan indexedResult
	collected   []indexedResult
	collectDone chan struct{}
	submitted   int
	wg          sync.WaitGroup
	ctx         context.Context
	cancelFunc  context.CancelFunc
	closeOnce   sync.Once
	queueOnce   sync.Once
}

// NewPool creates a new worker pool bound to ctx
func NewPool(ctx context.Context, workers int) *Pool {
	if workers <= 0 {
		workers = 1
	}

	ctx, cancel := context.WithCancel(ctx)

	return &Pool{
		workers:     workers,
		jobQueue:    make(chan indexedJob, workers*2),
		results:     make(chan indexedResult, workers*2),
		collectDone: make(chan struct{}),
		ctx:         ctx,
		cancelFunc:  cancel,
	}
}

// Start starts the workers and the result collector
func (p *Pool) Start() {
	go p.collect()

	for i := 0; i < p.workers; i++ {
		p.wg.Add(1)
		go p.worker()
	}
}

// collect drains results as they arrive so workers never block on a full
// results channel while the caller is still submitting
func (p *Pool) collect() {
	defer close(p.collectDone)
	for r := range p.results {
		p.collected = append(p.collected, r)
	}
}

// worker is the worker goroutine that processes jobs
func (p *Pool) worker() {
	defer p.wg.Done()

	for {
		select {
		case <-p.ctx.Done():
			return
		case ij, ok := <-p.jobQueue:
			if !ok {
				return
			}
			p.results <- indexedResult{index: ij.index, result: ij.job.Execute(p.ctx)}
		}
	}
}

// Submit submits a job to the pool. It returns false if the pool was shut
// down or its context ended. Submit must not be called after Wait.
func (p *Pool) Submit(job Job) bool {
	if p.ctx.Err() != nil {
		return false
	}

	ij := indexedJob{index: p.submitted, job: job}
	select {
	case <-p.ctx.Done():
		return false
	case p.jobQueue <- ij:
		p.submitted++
		return true
	}
}

// Wait waits for all submitted jobs to complete and returns their results
// in submission order. Jobs dropped by cancellation have no result.
func (p *Pool) Wait() []Result {
	p.queueOnce.Do(func() { close(p.jobQueue) })
	p.wg.Wait()
	p.closeResults()
	<-p.collectDone

	sort.Slice(p.collected, func(i, j int) bool {
		return p.collected[i].index < p.collected[j].index
	})

	results := make([]Result, len(p.collected))
	for i, r := range p.collected {
		results[i] = r.result
	}
	return results
}

// Shutdown shuts down the worker pool immediately
func (p *Pool) Shutdown() {
	p.cancelFunc()
	p.wg.Wait()
	p.closeResults()
	<-p.collectDone
}

func (p *Pool) closeResults() {
	p.closeOnce.Do(func() {
		close(p.results)
	})
}
