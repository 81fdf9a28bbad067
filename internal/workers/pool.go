package workers

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/semaphore"
)

// Task is a unit of background work. name is used for logging only.
type Task struct {
	Name string
	Run  func(ctx context.Context) error
}

// Disposition reports where a submitted task went.
type Disposition int

const (
	// Queued means the task entered the backlog for a worker.
	Queued Disposition = iota
	// Surged means a new surge worker was admitted to run the task.
	Surged
	// CallerRan means the pool was saturated or closed and the task ran inline.
	CallerRan
)

func (d Disposition) String() string {
	switch d {
	case Queued:
		return "queued"
	case Surged:
		return "surged"
	case CallerRan:
		return "caller_ran"
	}
	return "unknown"
}

// Config sizes a [Pool].
type Config struct {
	Core      int
	Max       int
	Queue     int
	KeepAlive time.Duration
	// TaskTimeout bounds each task run; zero means no bound.
	TaskTimeout time.Duration
}

// DefaultConfig is 3 core workers, up to 10, a 50 item backlog and 60s keep-alive.
func DefaultConfig() Config {
	return Config{
		Core:      3,
		Max:       10,
		Queue:     50,
		KeepAlive: 60 * time.Second,
	}
}

// Validate checks pool sizing.
func (c Config) Validate() error {
	if c.Core <= 0 {
		return errors.New("workers: Core must be > 0")
	}
	if c.Max < c.Core {
		return errors.New("workers: Max must be >= Core")
	}
	if c.Queue < 0 {
		return errors.New("workers: Queue must be >= 0")
	}
	if c.Max > c.Core && c.KeepAlive <= 0 {
		return errors.New("workers: KeepAlive must be > 0 when surge workers are allowed")
	}
	if c.TaskTimeout < 0 {
		return errors.New("workers: TaskTimeout must be >= 0")
	}
	return nil
}

// Stats is a point-in-time view of pool activity.
type Stats struct {
	Queued    uint64
	Surged    uint64
	CallerRan uint64
	Failed    uint64
	Completed uint64
}

// Pool is a bounded worker pool with a caller-runs overflow policy.
type Pool struct {
	cfg    Config
	logger *slog.Logger
	tasks  chan Task
	surge  *semaphore.Weighted
	done   chan struct{}
	wg     sync.WaitGroup

	mu     sync.RWMutex
	closed bool

	queued    atomic.Uint64
	surged    atomic.Uint64
	callerRan atomic.Uint64
	failed    atomic.Uint64
	completed atomic.Uint64
}

// New starts a pool with cfg.Core resident workers.
func New(cfg Config, logger *slog.Logger) (*Pool, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}

	p := &Pool{
		cfg:    cfg,
		logger: logger,
		tasks:  make(chan Task, cfg.Queue),
		done:   make(chan struct{}),
	}
	if extra := cfg.Max - cfg.Core; extra > 0 {
		p.surge = semaphore.NewWeighted(int64(extra))
	}

	p.wg.Add(cfg.Core)
	for i := 0; i < cfg.Core; i++ {
		go p.coreWorker()
	}
	return p, nil
}

// Submit hands task to the pool. It never drops a task: when the backlog is
// full and no surge slot is free, or the pool is closed, task runs on the
// calling goroutine before Submit returns.
func (p *Pool) Submit(task Task) Disposition {
	if task.Run == nil {
		return Queued
	}

	p.mu.RLock()
	if !p.closed {
		select {
		case p.tasks <- task:
			p.mu.RUnlock()
			p.queued.Add(1)
			return Queued
		default:
		}

		if p.surge != nil && p.surge.TryAcquire(1) {
			p.wg.Add(1)
			p.mu.RUnlock()
			p.surged.Add(1)
			go p.surgeWorker(task)
			return Surged
		}
	}
	p.mu.RUnlock()

	p.callerRan.Add(1)
	p.logger.Debug("worker pool saturated, running task on caller", "task", task.Name)
	p.run(task)
	return CallerRan
}

// Close stops accepting work, lets workers drain the backlog and waits for them.
func (p *Pool) Close() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	close(p.done)
	p.mu.Unlock()

	p.wg.Wait()
}

// Stats returns activity counters.
func (p *Pool) Stats() Stats {
	return Stats{
		Queued:    p.queued.Load(),
		Surged:    p.surged.Load(),
		CallerRan: p.callerRan.Load(),
		Failed:    p.failed.Load(),
		Completed: p.completed.Load(),
	}
}

func (p *Pool) coreWorker() {
	defer p.wg.Done()

	for {
		select {
		case task := <-p.tasks:
			p.run(task)
		case <-p.done:
			p.drain()
			return
		}
	}
}

func (p *Pool) surgeWorker(first Task) {
	defer p.wg.Done()
	defer p.surge.Release(1)

	p.run(first)

	idle := time.NewTimer(p.cfg.KeepAlive)
	defer idle.Stop()
	for {
		select {
		case task := <-p.tasks:
			p.run(task)
			idle.Reset(p.cfg.KeepAlive)
		case <-idle.C:
			return
		case <-p.done:
			p.drain()
			return
		}
	}
}

func (p *Pool) drain() {
	for {
		select {
		case task := <-p.tasks:
			p.run(task)
		default:
			return
		}
	}
}

func (p *Pool) run(task Task) {
	ctx := context.Background()
	if p.cfg.TaskTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.cfg.TaskTimeout)
		defer cancel()
	}

	err := func() (err error) {
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("panic: %v", r)
			}
		}()
		return task.Run(ctx)
	}()

	p.completed.Add(1)
	if err != nil {
		p.failed.Add(1)
		p.logger.Warn("background task failed", "task", task.Name, "error", err)
	}
}
